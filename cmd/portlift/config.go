// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"portlift/internal/config"
	"portlift/internal/issue"
	"portlift/internal/launcher"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage portlift configuration",
	Long: `Manage portlift configuration.

Configuration is stored in:
  - Linux: ~/.config/portlift/config.cue
  - macOS: ~/Library/Application Support/portlift/config.cue
  - Windows: %APPDATA%\portlift\config.cue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.Context(), args[0], args[1])
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})
}

func showConfig(ctx context.Context) error {
	cfg, path, err := config.LoadWithPath(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		renderIssue(issue.ConfigLoadFailedId)
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	if path != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s:\n", keyStyle.Render("server"))
	fmt.Printf("  host: %s\n", valueStyle.Render(cfg.Server.Host))
	fmt.Printf("  port: %s\n", valueStyle.Render(cfg.Server.Port.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("build"))
	fmt.Printf("  container_engine: %s\n", valueStyle.Render(cfg.Build.ContainerEngine.String()))
	fmt.Printf("  base_image: %s\n", valueStyle.Render(cfg.Build.BaseImage))
	fmt.Printf("  manifest: %s\n", valueStyle.Render(cfg.Build.Manifest))
	fmt.Printf("  no_cache_install: %s\n", valueStyle.Render(strconv.FormatBool(cfg.Build.NoCacheInstall)))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ui"))
	fmt.Printf("  verbose: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.Verbose)))

	if os.Getenv(launcher.PortEnvVar) != "" {
		fmt.Println()
		fmt.Println(SubtitleStyle.Render("(server.port reflects the PORT environment variable)"))
	}

	return nil
}

func initConfigFile() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	if err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("%s Created default configuration at %s\n", SuccessStyle.Render("✓"), filepath.Join(cfgDir, "config.cue"))
	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Printf("Config file: %s\n", filepath.Join(cfgDir, "config.cue"))
	return nil
}

func setConfigValue(ctx context.Context, key, value string) error {
	// Load the file contents without the PORT env override: the override
	// is per-process and must not be written back as server.port.
	cfg, err := config.NewProvider().Load(ctx, config.LoadOptions{
		ConfigFilePath: cfgFile,
		IgnorePortEnv:  true,
	})
	if err != nil {
		return err
	}

	switch key {
	case "server.host":
		cfg.Server.Host = value

	case "server.port":
		port, parseErr := strconv.Atoi(value)
		if parseErr != nil {
			return fmt.Errorf("invalid server.port: %q is not a number", value)
		}
		cfg.Server.Port = launcher.Port(port)

	case "build.container_engine":
		cfg.Build.ContainerEngine = config.ContainerEngine(value)

	case "build.base_image":
		cfg.Build.BaseImage = value

	case "build.manifest":
		cfg.Build.Manifest = value

	case "build.no_cache_install":
		cfg.Build.NoCacheInstall = value == "true" || value == "1"

	case "ui.verbose":
		cfg.UI.Verbose = value == "true" || value == "1"

	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: server.host, server.port, build.container_engine, build.base_image, build.manifest, build.no_cache_install, ui.verbose", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}
