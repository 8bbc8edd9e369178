// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"portlift/internal/buildenv"
	"portlift/internal/config"
	"portlift/internal/container"
	"portlift/internal/issue"
	"portlift/internal/launcher"

	"github.com/spf13/cobra"
)

var (
	runImage   string
	runPublish []string

	runCmd = &cobra.Command{
		Use:   "run [dir]",
		Short: "Build the environment image and run the service",
		Long: `Build the environment image for a service directory and run it.

The container publishes the resolved port on the host and receives it
via the PORT environment variable, so the server inside the image binds
to the same port the host exposes. The port comes from the PORT
environment variable when set, otherwise from the configuration file,
otherwise 8000.

With --image, the build step is skipped and the named image is run
directly.

The command blocks until the container exits and propagates the
container's exit code.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), serviceDirArg(args))
		},
	}
)

func init() {
	addBuildFlags(runCmd)
	runCmd.Flags().StringVar(&runImage, "image", "", "run this already-built image instead of building one")
	runCmd.Flags().StringArrayVarP(&runPublish, "publish", "p", nil, "publish an extra host:container[/protocol] port")
}

// parsePublishFlags parses --publish values into port mappings.
func parsePublishFlags(values []string) ([]container.PortMapping, error) {
	mappings := make([]container.PortMapping, 0, len(values))
	for _, v := range values {
		m, err := container.ParsePortMapping(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --publish value %q: %w", v, err)
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

func runRun(ctx context.Context, serviceDir string) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	port, err := resolvePort(cfg)
	if err != nil {
		return err
	}

	extraPorts, err := parsePublishFlags(runPublish)
	if err != nil {
		return err
	}

	engine, err := resolveEngine(cfg)
	if err != nil {
		return err
	}

	image := container.ImageTag(runImage)
	if image == "" {
		builder := newBuilder(engine, cfg, serviceDir)
		result, err := builder.Build(ctx)
		if err != nil {
			if errors.Is(err, buildenv.ErrManifestNotFound) {
				renderIssue(issue.ManifestNotFoundId)
			} else {
				renderIssue(issue.BuildFailedId)
			}
			return err
		}
		image = result.ImageTag
	}

	runner := buildenv.NewRunner(engine, buildenv.WithRunLogger(buildLogger()))
	exitCode, err := runner.Run(ctx, buildenv.RunSpec{
		Image:      image,
		Port:       port,
		ExtraPorts: extraPorts,
	})
	if err != nil {
		return err
	}
	if !exitCode.IsSuccess() {
		return &ExitError{Code: exitCode, Err: fmt.Errorf("service exited with status %d", exitCode)}
	}
	return nil
}

// resolvePort resolves the listening port: the PORT environment variable
// wins, then the configured port, then the default. An invalid PORT value
// is rejected here, before any image is built.
func resolvePort(cfg *config.Config) (launcher.Port, error) {
	if os.Getenv(launcher.PortEnvVar) != "" {
		port, err := launcher.ResolvePort(os.Getenv)
		if err != nil {
			renderIssue(issue.InvalidPortId)
			return 0, err
		}
		return port, nil
	}
	if cfg.Server.Port != 0 {
		return cfg.Server.Port, nil
	}
	return launcher.DefaultPort, nil
}
