// SPDX-License-Identifier: MPL-2.0

package container

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// mustBuildArgs fails the test on a BuildArgs resolution error.
func mustBuildArgs(t *testing.T, e *BaseCLIEngine, opts BuildOptions) []string {
	t.Helper()
	args, err := e.BuildArgs(opts)
	if err != nil {
		t.Fatalf("BuildArgs returned error: %v", err)
	}
	return args
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/docker", WithName("docker"))

	t.Run("minimal", func(t *testing.T) {
		t.Parallel()
		args := mustBuildArgs(t, e, BuildOptions{ContextDir: "/tmp/ctx"})
		want := []string{"build", "/tmp/ctx"}
		if !slices.Equal(args, want) {
			t.Errorf("BuildArgs = %v, want %v", args, want)
		}
	})

	t.Run("full options", func(t *testing.T) {
		t.Parallel()
		args := mustBuildArgs(t, e, BuildOptions{
			ContextDir: "/tmp/ctx",
			Dockerfile: "Dockerfile",
			Tag:        "portlift-env:abc123",
			NoCache:    true,
		})
		joined := strings.Join(args, " ")
		if args[0] != "build" {
			t.Errorf("first arg = %q, want build", args[0])
		}
		if !strings.Contains(joined, "-f "+filepath.Join("/tmp/ctx", "Dockerfile")) {
			t.Errorf("missing -f with resolved Dockerfile path: %v", args)
		}
		if !strings.Contains(joined, "-t portlift-env:abc123") {
			t.Errorf("missing -t tag: %v", args)
		}
		if !slices.Contains(args, "--no-cache") {
			t.Errorf("missing --no-cache: %v", args)
		}
		if args[len(args)-1] != "/tmp/ctx" {
			t.Errorf("context dir must be last arg: %v", args)
		}
	})

	t.Run("absolute dockerfile kept as-is", func(t *testing.T) {
		t.Parallel()
		args := mustBuildArgs(t, e, BuildOptions{
			ContextDir: "/tmp/ctx",
			Dockerfile: "/elsewhere/Dockerfile",
		})
		if !slices.Contains(args, "/elsewhere/Dockerfile") {
			t.Errorf("absolute Dockerfile path not preserved: %v", args)
		}
	})

	t.Run("build args", func(t *testing.T) {
		t.Parallel()
		args := mustBuildArgs(t, e, BuildOptions{
			ContextDir: "/tmp/ctx",
			BuildArgs:  map[string]string{"BASE_IMAGE": "python:3.12-slim"},
		})
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "--build-arg BASE_IMAGE=python:3.12-slim") {
			t.Errorf("missing --build-arg: %v", args)
		}
	})

	t.Run("dockerfile escaping the context is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := e.BuildArgs(BuildOptions{
			ContextDir: "/tmp/ctx",
			Dockerfile: "../outside/Dockerfile",
		})
		if err == nil {
			t.Fatal("expected traversal error, got nil")
		}
		if !strings.Contains(err.Error(), "escapes context") {
			t.Errorf("error = %v, want context-escape message", err)
		}
	})

	t.Run("empty context keeps dockerfile path as-is", func(t *testing.T) {
		t.Parallel()
		args := mustBuildArgs(t, e, BuildOptions{Dockerfile: "Dockerfile"})
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "-f Dockerfile") {
			t.Errorf("missing -f Dockerfile: %v", args)
		}
	})
}

func TestRunArgs(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/docker", WithName("docker"))

	t.Run("minimal", func(t *testing.T) {
		t.Parallel()
		args := e.RunArgs(RunOptions{Image: "portlift-env:abc123"})
		want := []string{"run", "portlift-env:abc123"}
		if !slices.Equal(args, want) {
			t.Errorf("RunArgs = %v, want %v", args, want)
		}
	})

	t.Run("full options", func(t *testing.T) {
		t.Parallel()
		args := e.RunArgs(RunOptions{
			Image:  "portlift-env:abc123",
			Name:   "portlift-serve",
			Remove: true,
			Env:    map[string]string{"PORT": "9090"},
			Ports:  []PortMapping{{HostPort: 9090, ContainerPort: 9090}},
		})
		joined := strings.Join(args, " ")
		if !slices.Contains(args, "--rm") {
			t.Errorf("missing --rm: %v", args)
		}
		if !strings.Contains(joined, "--name portlift-serve") {
			t.Errorf("missing --name: %v", args)
		}
		if !strings.Contains(joined, "-e PORT=9090") {
			t.Errorf("missing -e PORT: %v", args)
		}
		if !strings.Contains(joined, "-p 9090:9090") {
			t.Errorf("missing -p mapping: %v", args)
		}
	})

	t.Run("command after image", func(t *testing.T) {
		t.Parallel()
		args := e.RunArgs(RunOptions{
			Image:   "portlift-env:abc123",
			Command: []string{"sh", "-c", "echo hi"},
		})
		idx := slices.Index(args, "portlift-env:abc123")
		if idx < 0 || !slices.Equal(args[idx+1:], []string{"sh", "-c", "echo hi"}) {
			t.Errorf("command must follow image: %v", args)
		}
	})

	t.Run("transformer applied", func(t *testing.T) {
		t.Parallel()
		te := NewBaseCLIEngine("/usr/bin/podman", WithRunArgsTransformer(func(args []string) []string {
			return append([]string{args[0], "--userns=keep-id"}, args[1:]...)
		}))
		args := te.RunArgs(RunOptions{Image: "portlift-env:abc123"})
		if args[1] != "--userns=keep-id" {
			t.Errorf("transformer not applied: %v", args)
		}
	})
}

func TestRemoveArgs(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/docker")

	if got, want := e.RemoveArgs("abc", false), []string{"rm", "abc"}; !slices.Equal(got, want) {
		t.Errorf("RemoveArgs = %v, want %v", got, want)
	}
	if got, want := e.RemoveArgs("abc", true), []string{"rm", "-f", "abc"}; !slices.Equal(got, want) {
		t.Errorf("RemoveArgs force = %v, want %v", got, want)
	}
}

func TestRemoveImageArgs(t *testing.T) {
	t.Parallel()

	e := NewBaseCLIEngine("/usr/bin/docker")

	if got, want := e.RemoveImageArgs("img:tag", false), []string{"rmi", "img:tag"}; !slices.Equal(got, want) {
		t.Errorf("RemoveImageArgs = %v, want %v", got, want)
	}
	if got, want := e.RemoveImageArgs("img:tag", true), []string{"rmi", "-f", "img:tag"}; !slices.Equal(got, want) {
		t.Errorf("RemoveImageArgs force = %v, want %v", got, want)
	}
}

func TestResolveDockerfilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		contextDir string
		dockerfile string
		want       string
		wantErr    bool
	}{
		{name: "empty", contextDir: "/ctx", dockerfile: "", want: ""},
		{name: "absolute", contextDir: "/ctx", dockerfile: "/abs/Dockerfile", want: "/abs/Dockerfile"},
		{name: "relative", contextDir: "/ctx", dockerfile: "Dockerfile", want: filepath.Join("/ctx", "Dockerfile")},
		{name: "empty context", contextDir: "", dockerfile: "Dockerfile", want: "Dockerfile"},
		{name: "traversal", contextDir: "/ctx", dockerfile: "../../etc/passwd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveDockerfilePath(tt.contextDir, tt.dockerfile)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveDockerfilePath = %q, want %q", got, tt.want)
			}
		})
	}
}
