// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/portlift/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/portlift/config.cue on macOS, %APPDATA%\portlift\config.cue
// on Windows). The package provides type-safe configuration access for the server
// (host/port), environment image builds (engine, base image, manifest), and UI settings.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations. The PORT
// environment variable takes precedence over the configured server port.
package config
