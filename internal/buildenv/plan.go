// SPDX-License-Identifier: MPL-2.0

package buildenv

import (
	"errors"
	"fmt"
	"strings"

	"portlift/internal/container"
	"portlift/internal/launcher"
)

const (
	// DefaultManifestName is the dependency manifest file looked up in the
	// service directory when no explicit name is configured.
	DefaultManifestName = "requirements.txt"

	// DefaultBaseImage is the base image new plans start from.
	DefaultBaseImage = "python:3.12-slim"

	// DefaultWorkDir is where the service source lands inside the image.
	DefaultWorkDir = "/app"

	// defaultInstallCommand installs the manifest without keeping the
	// package manager cache in the layer.
	defaultInstallCommand = "pip install --no-cache-dir -r %s"
)

var (
	// ErrInvalidPlan is the sentinel error wrapped by InvalidPlanError.
	ErrInvalidPlan = errors.New("invalid build plan")
)

type (
	// Plan describes how to turn a service directory into an environment image.
	Plan struct {
		// ServiceDir is the directory holding the service source and manifest.
		ServiceDir string

		// ManifestName is the dependency manifest file name, relative to ServiceDir.
		ManifestName string

		// BaseImage is the image the environment layers on top of.
		BaseImage string

		// WorkDir is the working directory inside the image.
		WorkDir string

		// InstallCommand installs the manifest. The manifest name is
		// substituted for %s. Empty means the default installer.
		InstallCommand string

		// Entrypoint is the command the image runs. Empty means the default
		// server entrypoint, which honors the PORT environment variable.
		Entrypoint []string

		// Port is the container port the server listens on and the image exposes.
		Port container.NetworkPort

		// ForceRebuild bypasses the image cache and forces a rebuild.
		ForceRebuild bool

		// NoCacheInstall disables the engine's layer cache for the build.
		NoCacheInstall bool

		// TagSuffix is an optional suffix appended to environment image tags.
		// This enables test isolation by making each test's images unique.
		TagSuffix string
	}

	// InvalidPlanError is returned when a Plan has one or more invalid fields.
	InvalidPlanError struct {
		FieldErrs []error
	}

	// PlanOption is a functional option for configuring a Plan.
	PlanOption func(*Plan)
)

// Error implements the error interface.
func (e *InvalidPlanError) Error() string {
	return fmt.Sprintf("invalid build plan: %d field error(s)", len(e.FieldErrs))
}

// Unwrap returns ErrInvalidPlan so callers can use errors.Is for programmatic detection.
func (e *InvalidPlanError) Unwrap() error { return ErrInvalidPlan }

// NewPlan creates a Plan for the given service directory with defaults applied.
func NewPlan(serviceDir string, opts ...PlanOption) *Plan {
	p := &Plan{
		ServiceDir:   serviceDir,
		ManifestName: DefaultManifestName,
		BaseImage:    DefaultBaseImage,
		WorkDir:      DefaultWorkDir,
		Port:         container.NetworkPort(launcher.DefaultPort),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithManifestName sets the dependency manifest file name.
func WithManifestName(name string) PlanOption {
	return func(p *Plan) {
		p.ManifestName = name
	}
}

// WithBaseImage sets the base image.
func WithBaseImage(image string) PlanOption {
	return func(p *Plan) {
		p.BaseImage = image
	}
}

// WithInstallCommand sets the manifest install command template.
func WithInstallCommand(cmd string) PlanOption {
	return func(p *Plan) {
		p.InstallCommand = cmd
	}
}

// WithEntrypoint sets the image entrypoint command.
func WithEntrypoint(cmd []string) PlanOption {
	return func(p *Plan) {
		p.Entrypoint = cmd
	}
}

// WithContainerPort sets the port the image exposes.
func WithContainerPort(port container.NetworkPort) PlanOption {
	return func(p *Plan) {
		p.Port = port
	}
}

// WithForceRebuild bypasses the image cache.
func WithForceRebuild(force bool) PlanOption {
	return func(p *Plan) {
		p.ForceRebuild = force
	}
}

// WithNoCacheInstall disables the engine layer cache.
func WithNoCacheInstall(noCache bool) PlanOption {
	return func(p *Plan) {
		p.NoCacheInstall = noCache
	}
}

// WithTagSuffix appends a suffix to environment image tags.
// This is primarily used for test isolation so parallel tests
// don't compete for the same image tags.
func WithTagSuffix(suffix string) PlanOption {
	return func(p *Plan) {
		p.TagSuffix = suffix
	}
}

// Validate returns an error if any field of the Plan is invalid.
func (p *Plan) Validate() error {
	var errs []error
	if strings.TrimSpace(p.ServiceDir) == "" {
		errs = append(errs, errors.New("service directory must be non-empty"))
	}
	if strings.TrimSpace(p.ManifestName) == "" {
		errs = append(errs, errors.New("manifest name must be non-empty"))
	}
	if strings.TrimSpace(p.BaseImage) == "" {
		errs = append(errs, errors.New("base image must be non-empty"))
	}
	if err := p.Port.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidPlanError{FieldErrs: errs}
	}
	return nil
}

// installCommand returns the manifest install command with the manifest
// name substituted in.
func (p *Plan) installCommand() string {
	tmpl := p.InstallCommand
	if tmpl == "" {
		tmpl = defaultInstallCommand
	}
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, p.ManifestName)
	}
	return tmpl
}

// entrypoint returns the image entrypoint, falling back to a server command
// that binds all interfaces on PORT (default 8000).
func (p *Plan) entrypoint() []string {
	if len(p.Entrypoint) > 0 {
		return p.Entrypoint
	}
	return []string{
		"sh", "-c",
		fmt.Sprintf("exec uvicorn main:app --host %s --port ${%s:-%d}",
			launcher.DefaultHost, launcher.PortEnvVar, launcher.DefaultPort),
	}
}
