// SPDX-License-Identifier: MPL-2.0

package buildenv

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"portlift/internal/container"
)

func TestNewPlanDefaults(t *testing.T) {
	t.Parallel()

	p := NewPlan("/srv/app")

	if p.ManifestName != "requirements.txt" {
		t.Errorf("ManifestName = %q", p.ManifestName)
	}
	if p.BaseImage != "python:3.12-slim" {
		t.Errorf("BaseImage = %q", p.BaseImage)
	}
	if p.WorkDir != "/app" {
		t.Errorf("WorkDir = %q", p.WorkDir)
	}
	if p.Port != 8000 {
		t.Errorf("Port = %d", p.Port)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default plan invalid: %v", err)
	}
}

func TestPlanValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		plan *Plan
	}{
		{name: "empty service dir", plan: NewPlan("")},
		{name: "empty manifest name", plan: NewPlan("/srv/app", WithManifestName(" "))},
		{name: "empty base image", plan: NewPlan("/srv/app", WithBaseImage(""))},
		{name: "zero port", plan: NewPlan("/srv/app", WithContainerPort(0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.plan.Validate()
			if !errors.Is(err, ErrInvalidPlan) {
				t.Errorf("Validate() = %v, want ErrInvalidPlan", err)
			}
			var planErr *InvalidPlanError
			if !errors.As(err, &planErr) || len(planErr.FieldErrs) == 0 {
				t.Errorf("expected field errors, got %v", err)
			}
		})
	}
}

func TestPlanInstallCommand(t *testing.T) {
	t.Parallel()

	t.Run("default substitutes manifest", func(t *testing.T) {
		t.Parallel()
		p := NewPlan("/srv/app", WithManifestName("deps.txt"))
		if got := p.installCommand(); got != "pip install --no-cache-dir -r deps.txt" {
			t.Errorf("installCommand = %q", got)
		}
	})

	t.Run("template without placeholder used verbatim", func(t *testing.T) {
		t.Parallel()
		p := NewPlan("/srv/app", WithInstallCommand("apk add --no-cache build-base"))
		if got := p.installCommand(); got != "apk add --no-cache build-base" {
			t.Errorf("installCommand = %q", got)
		}
	})
}

func TestPlanEntrypoint(t *testing.T) {
	t.Parallel()

	t.Run("default binds all interfaces with PORT fallback", func(t *testing.T) {
		t.Parallel()
		cmd := NewPlan("/srv/app").entrypoint()
		if len(cmd) != 3 || cmd[0] != "sh" || cmd[1] != "-c" {
			t.Fatalf("entrypoint = %v", cmd)
		}
		script := cmd[2]
		for _, want := range []string{"--host 0.0.0.0", "${PORT:-8000}"} {
			if !strings.Contains(script, want) {
				t.Errorf("entrypoint %q missing %q", script, want)
			}
		}
	})

	t.Run("custom entrypoint wins", func(t *testing.T) {
		t.Parallel()
		cmd := NewPlan("/srv/app", WithEntrypoint([]string{"python", "serve.py"})).entrypoint()
		if !slices.Equal(cmd, []string{"python", "serve.py"}) {
			t.Errorf("entrypoint = %v", cmd)
		}
	})
}

func TestPlanOptions(t *testing.T) {
	t.Parallel()

	p := NewPlan("/srv/app",
		WithForceRebuild(true),
		WithNoCacheInstall(true),
		WithTagSuffix("t1"),
		WithContainerPort(container.NetworkPort(9090)),
	)
	if !p.ForceRebuild || !p.NoCacheInstall || p.TagSuffix != "t1" || p.Port != 9090 {
		t.Errorf("options not applied: %+v", p)
	}
}
