// SPDX-License-Identifier: MPL-2.0

package buildenv

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"portlift/internal/container"
	"portlift/internal/launcher"
)

type (
	// Runner starts a server container from an environment image and
	// propagates its exit status. Supervision (restart on crash) is left
	// to an external orchestrator.
	Runner struct {
		engine container.Engine
		logger *log.Logger
	}

	// RunnerOption configures a Runner.
	RunnerOption func(*Runner)

	// RunSpec describes one server container run.
	RunSpec struct {
		// Image is the environment image to run.
		Image container.ImageTag

		// Port is the host and container port the server is published on.
		Port launcher.Port

		// Name is an optional container name.
		Name container.ContainerName

		// Env are extra environment variables, set on top of PORT.
		Env map[string]string

		// ExtraPorts are additional host:container publications beyond the
		// server port (e.g. from a --publish flag).
		ExtraPorts []container.PortMapping

		// Command overrides the image entrypoint when non-empty.
		Command []string

		// Stdin, Stdout, Stderr wire the container's stdio. Nil values
		// default to the process's own streams.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}
)

// WithRunLogger sets the logger used for run lifecycle messages.
func WithRunLogger(logger *log.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner for the given engine.
func NewRunner(engine container.Engine, opts ...RunnerOption) *Runner {
	r := &Runner{
		engine: engine,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the server container and blocks until it exits, returning the
// container's exit code. The PORT environment variable is set inside the
// container and the same port is published on the host, so the in-container
// server resolves the port the launcher convention expects.
func (r *Runner) Run(ctx context.Context, spec RunSpec) (container.ExitCode, error) {
	if err := spec.Port.Validate(); err != nil {
		return 1, err
	}

	env := map[string]string{
		launcher.PortEnvVar: spec.Port.String(),
	}
	for k, v := range spec.Env {
		env[k] = v
	}

	stdout := spec.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := spec.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	opts := container.RunOptions{
		Image:   spec.Image,
		Command: spec.Command,
		Name:    spec.Name,
		Env:     env,
		Ports: append([]container.PortMapping{{
			HostPort:      container.NetworkPort(spec.Port),
			ContainerPort: container.NetworkPort(spec.Port),
		}}, spec.ExtraPorts...),
		Remove: true,
		Stdin:  spec.Stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	r.logger.Info("starting server container",
		"image", spec.Image, "host", launcher.DefaultHost, "port", spec.Port)

	result, err := r.engine.Run(ctx, opts)
	if err != nil {
		return 1, err
	}
	if result.Error != nil {
		return result.ExitCode, result.Error
	}

	if !result.ExitCode.IsSuccess() {
		r.logger.Warn("server container exited", "code", result.ExitCode)
	}

	return result.ExitCode, nil
}
