// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"portlift/internal/buildenv"
	"portlift/internal/launcher"
)

const (
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"
	// ContainerEngineAuto picks whichever engine is available.
	ContainerEngineAuto ContainerEngine = "auto"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	// It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// ServerConfig holds the server settings.
	ServerConfig struct {
		// Host is the interface the server binds to.
		Host string `mapstructure:"host"`
		// Port is the listening port. The PORT environment variable
		// takes precedence when set.
		Port launcher.Port `mapstructure:"port"`
	}

	// BuildConfig holds environment image build settings.
	BuildConfig struct {
		// ContainerEngine selects the engine used for builds and runs.
		ContainerEngine ContainerEngine `mapstructure:"container_engine"`
		// BaseImage is the base image for environment images.
		BaseImage string `mapstructure:"base_image"`
		// Manifest is the dependency manifest file name.
		Manifest string `mapstructure:"manifest"`
		// NoCacheInstall disables the engine layer cache for builds.
		NoCacheInstall bool `mapstructure:"no_cache_install"`
	}

	// UIConfig holds user interface settings.
	UIConfig struct {
		// Verbose enables detailed output, including full error chains.
		Verbose bool `mapstructure:"verbose"`
	}

	// Config is the root application configuration.
	Config struct {
		Server ServerConfig `mapstructure:"server"`
		Build  BuildConfig  `mapstructure:"build"`
		UI     UIConfig     `mapstructure:"ui"`
	}

	// InvalidConfigError is returned when a Config has one or more invalid fields.
	// It wraps the individual field validation errors for inspection.
	InvalidConfigError struct {
		FieldErrs []error
	}
)

// Error implements the error interface.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman, auto)", e.Value)
}

// Unwrap returns ErrInvalidContainerEngine so callers can use errors.Is for programmatic detection.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// String returns the string representation of the ContainerEngine.
func (c ContainerEngine) String() string { return string(c) }

// Validate returns an error if the ContainerEngine is not one of the defined engines.
// The zero value ("") is valid — it is treated as "auto".
func (c ContainerEngine) Validate() error {
	switch c {
	case ContainerEngineDocker, ContainerEnginePodman, ContainerEngineAuto, "":
		return nil
	default:
		return &InvalidContainerEngineError{Value: c}
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrs))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: launcher.DefaultHost,
			Port: launcher.DefaultPort,
		},
		Build: BuildConfig{
			ContainerEngine: ContainerEngineAuto,
			BaseImage:       buildenv.DefaultBaseImage,
			Manifest:        buildenv.DefaultManifestName,
		},
	}
}

// Validate returns an error if any field of the Config is invalid.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Host) == "" {
		errs = append(errs, errors.New("server.host must be non-empty"))
	}
	if err := c.Server.Port.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Build.ContainerEngine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Build.BaseImage) == "" {
		errs = append(errs, errors.New("build.base_image must be non-empty"))
	}
	if strings.TrimSpace(c.Build.Manifest) == "" {
		errs = append(errs, errors.New("build.manifest must be non-empty"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrs: errs}
	}
	return nil
}
