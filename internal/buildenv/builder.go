// SPDX-License-Identifier: MPL-2.0

package buildenv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"portlift/internal/container"
)

// imageRepository is the repository part of every environment image tag.
const imageRepository = "portlift-env"

type (
	// Builder assembles environment images from a build plan.
	//
	// Images are cached based on a hash of:
	// - The base image reference
	// - The service directory contents (manifest included)
	// - The plan's install command, entrypoint, and exposed port
	//
	// This allows fast reuse when nothing has changed.
	Builder struct {
		engine container.Engine
		plan   *Plan
		logger *log.Logger
		output io.Writer
	}

	// BuilderOption configures a Builder.
	BuilderOption func(*Builder)

	// Result contains the output of a build operation.
	Result struct {
		// ImageTag is the tag of the environment image (e.g., "portlift-env:abc123").
		ImageTag container.ImageTag

		// Cached reports whether the image was reused from the cache
		// instead of being rebuilt.
		Cached bool
	}
)

// WithBuildLogger sets the logger used for build progress messages.
func WithBuildLogger(logger *log.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithBuildOutput sets where engine build output (layer progress, install
// logs) is written. Defaults to stderr.
func WithBuildOutput(w io.Writer) BuilderOption {
	return func(b *Builder) {
		b.output = w
	}
}

// NewBuilder creates a Builder for the given engine and plan.
func NewBuilder(engine container.Engine, plan *Plan, opts ...BuilderOption) *Builder {
	b := &Builder{
		engine: engine,
		plan:   plan,
		logger: log.Default(),
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Plan returns the builder's plan.
func (b *Builder) Plan() *Plan {
	return b.plan
}

// Build creates or retrieves a cached environment image for the plan's
// service directory. The manifest must exist (an empty one is fine);
// a failed dependency install aborts the build with no image produced.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	if err := b.plan.Validate(); err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(b.plan.ServiceDir, b.plan.ManifestName)
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	cacheKey, err := b.calculateCacheKey()
	if err != nil {
		return nil, fmt.Errorf("failed to calculate cache key: %w", err)
	}

	tag := b.buildImageTag(cacheKey[:12])

	// Check if cached image exists (skip if ForceRebuild is set)
	if !b.plan.ForceRebuild {
		exists, _ := b.engine.ImageExists(ctx, tag) //nolint:errcheck // Error treated as "not found"
		if exists {
			b.logger.Debug("environment image cached", "image", tag)
			return &Result{ImageTag: tag, Cached: true}, nil
		}
	}

	b.logger.Info("building environment image",
		"image", tag, "base", b.plan.BaseImage, "dependencies", len(manifest.Entries))

	if err := b.buildImage(ctx, manifest, tag); err != nil {
		return nil, err
	}

	return &Result{ImageTag: tag}, nil
}

// ImageTag returns the tag that would be used for the plan's environment
// image without building it. Useful for checking if an image is cached.
func (b *Builder) ImageTag() (container.ImageTag, error) {
	cacheKey, err := b.calculateCacheKey()
	if err != nil {
		return "", err
	}
	return b.buildImageTag(cacheKey[:12]), nil
}

// IsImageBuilt checks if the environment image already exists in the cache.
func (b *Builder) IsImageBuilt(ctx context.Context) (bool, error) {
	tag, err := b.ImageTag()
	if err != nil {
		return false, err
	}
	return b.engine.ImageExists(ctx, tag)
}

// buildImageTag constructs the image tag with optional suffix.
// When TagSuffix is set, the tag format is "portlift-env:<hash>-<suffix>".
func (b *Builder) buildImageTag(hash string) container.ImageTag {
	if b.plan.TagSuffix != "" {
		return container.ImageTag(fmt.Sprintf("%s:%s-%s", imageRepository, hash, b.plan.TagSuffix))
	}
	return container.ImageTag(fmt.Sprintf("%s:%s", imageRepository, hash))
}

// calculateCacheKey generates a unique key from the plan and service contents.
func (b *Builder) calculateCacheKey() (string, error) {
	h := sha256.New()

	h.Write([]byte("base:" + b.plan.BaseImage))
	h.Write([]byte("workdir:" + b.plan.WorkDir))
	h.Write([]byte("install:" + b.plan.installCommand()))
	for _, c := range b.plan.entrypoint() {
		h.Write([]byte("cmd:" + c))
	}
	h.Write([]byte("port:" + b.plan.Port.String()))

	dirHash, err := CalculateDirHash(b.plan.ServiceDir)
	if err != nil {
		return "", fmt.Errorf("failed to hash service directory: %w", err)
	}
	h.Write([]byte("source:" + dirHash))

	return hex.EncodeToString(h.Sum(nil)), nil
}

// buildImage stages a build context and runs the engine build.
func (b *Builder) buildImage(ctx context.Context, manifest *Manifest, tag container.ImageTag) error {
	buildCtx, cleanup, err := b.prepareBuildContext(manifest)
	if err != nil {
		return err
	}
	defer cleanup()

	buildOpts := container.BuildOptions{
		ContextDir: buildCtx,
		Dockerfile: "Dockerfile",
		Tag:        tag,
		NoCache:    b.plan.NoCacheInstall,
		Stdout:     b.output,
		Stderr:     b.output,
	}

	return b.engine.Build(ctx, buildOpts)
}

// prepareBuildContext creates a temporary directory holding a copy of the
// service directory plus the generated Dockerfile.
//
// Note: Docker installed via Snap has limited filesystem access and cannot
// read /tmp, so the context is staged under the user's home when possible.
func (b *Builder) prepareBuildContext(manifest *Manifest) (buildContextDir string, cleanup func(), err error) {
	var buildContextParent string

	// Try HOME first, but verify it actually exists (handles misconfigured
	// environments and tests that point HOME somewhere synthetic)
	if home, homeErr := os.UserHomeDir(); homeErr == nil {
		if _, statErr := os.Stat(home); statErr == nil {
			buildContextParent = filepath.Join(home, "portlift-build")
		}
	}

	if buildContextParent == "" {
		// Fallback: use system temp (may fail with Snap Docker)
		buildContextParent = filepath.Join(os.TempDir(), "portlift-build")
	}

	// The staging area must never live inside the service directory:
	// CopyDir would copy it into itself, and residue would perturb the
	// content hash on later builds.
	if inside, err := isSubpath(b.plan.ServiceDir, buildContextParent); err != nil {
		return "", nil, fmt.Errorf("failed to resolve build context parent: %w", err)
	} else if inside {
		buildContextParent = filepath.Join(os.TempDir(), "portlift-build")
	}

	if mkdirErr := os.MkdirAll(buildContextParent, 0o755); mkdirErr != nil {
		return "", nil, fmt.Errorf("failed to create build context parent directory: %w", mkdirErr)
	}

	tmpDir, err := os.MkdirTemp(buildContextParent, "ctx-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	cleanup = func() {
		_ = os.RemoveAll(tmpDir) // Cleanup temp dir; error non-critical
	}

	if err := CopyDir(b.plan.ServiceDir, tmpDir); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to copy service directory: %w", err)
	}

	dockerfile := generateDockerfile(b.plan, manifest)
	dockerfilePath := filepath.Join(tmpDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(dockerfile), 0o644); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	return tmpDir, cleanup, nil
}
