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

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	buildEngine       string
	buildBaseImage    string
	buildManifest     string
	buildForceRebuild bool
	buildNoCache      bool

	buildCmd = &cobra.Command{
		Use:   "build [dir]",
		Short: "Build the environment image for a service directory",
		Long: `Build the environment image for a service directory.

The image is layered so that the dependency manifest is installed
before the source tree is copied in: source-only edits reuse the
cached dependency layer on rebuild. Images are tagged by a content
hash of the service directory and build settings, so an unchanged
directory resolves to an already-built image without a rebuild.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), serviceDirArg(args))
		},
	}
)

func init() {
	addBuildFlags(buildCmd)
}

// addBuildFlags registers the image-build flags shared by build and run.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&buildEngine, "engine", "", "container engine to use (docker, podman, auto)")
	cmd.Flags().StringVar(&buildBaseImage, "base-image", "", "base image for the environment image")
	cmd.Flags().StringVar(&buildManifest, "manifest", "", "dependency manifest file name")
	cmd.Flags().BoolVar(&buildForceRebuild, "force-rebuild", false, "rebuild the image even when cached")
	cmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "disable the engine layer cache during the build")
}

// serviceDirArg returns the positional service directory, defaulting to CWD.
func serviceDirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func runBuild(ctx context.Context, serviceDir string) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	engine, err := resolveEngine(cfg)
	if err != nil {
		return err
	}

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

	if result.Cached {
		fmt.Printf("%s Environment image up to date: %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(string(result.ImageTag)))
	} else {
		fmt.Printf("%s Built environment image: %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(string(result.ImageTag)))
	}
	return nil
}

// newBuilder assembles a buildenv.Builder from config and flag overrides.
func newBuilder(engine container.Engine, cfg *config.Config, serviceDir string) *buildenv.Builder {
	planOpts := []buildenv.PlanOption{
		buildenv.WithContainerPort(container.NetworkPort(cfg.Server.Port)),
		buildenv.WithForceRebuild(buildForceRebuild),
	}

	baseImage := cfg.Build.BaseImage
	if buildBaseImage != "" {
		baseImage = buildBaseImage
	}
	if baseImage != "" {
		planOpts = append(planOpts, buildenv.WithBaseImage(baseImage))
	}

	manifest := cfg.Build.Manifest
	if buildManifest != "" {
		manifest = buildManifest
	}
	if manifest != "" {
		planOpts = append(planOpts, buildenv.WithManifestName(manifest))
	}

	if buildNoCache || cfg.Build.NoCacheInstall {
		planOpts = append(planOpts, buildenv.WithNoCacheInstall(true))
	}

	plan := buildenv.NewPlan(serviceDir, planOpts...)
	return buildenv.NewBuilder(engine, plan, buildenv.WithBuildLogger(buildLogger()))
}

// resolveEngine picks the container engine from the --engine flag, falling
// back to the configured engine and then to auto-detection.
func resolveEngine(cfg *config.Config) (container.Engine, error) {
	selected := config.ContainerEngine(buildEngine)
	if selected == "" {
		selected = cfg.Build.ContainerEngine
	}
	if err := selected.Validate(); err != nil {
		return nil, err
	}

	var (
		engine container.Engine
		err    error
	)
	switch selected {
	case config.ContainerEngineDocker, config.ContainerEnginePodman:
		engine, err = container.NewEngine(container.EngineType(selected))
	default:
		engine, err = container.AutoDetectEngine()
	}
	if err != nil {
		renderIssue(issue.EngineNotFoundId)
		return nil, err
	}
	return engine, nil
}

// buildLogger returns the logger used for build and run lifecycle messages.
func buildLogger() *log.Logger {
	logger := log.New(os.Stderr)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// renderIssue prints the catalog entry for id to stderr. Rendering failures
// are ignored: the underlying error is still returned to the caller.
func renderIssue(id issue.Id) {
	rendered, err := issue.Get(id).Render("dark")
	if err != nil {
		return
	}
	fmt.Fprint(os.Stderr, rendered)
}
