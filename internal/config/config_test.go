// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"portlift/internal/launcher"
	"portlift/internal/testutil"
)

// writeConfigFile writes content as config.cue in a fresh directory and
// returns the directory.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func loadFromDir(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	return NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "")

	cfg, err := loadFromDir(t, t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.Server.Host != defaults.Server.Host {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, defaults.Server.Host)
	}
	if cfg.Server.Port != launcher.DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, launcher.DefaultPort)
	}
	if cfg.Build.ContainerEngine != ContainerEngineAuto {
		t.Errorf("Build.ContainerEngine = %q", cfg.Build.ContainerEngine)
	}
	if cfg.Build.Manifest != "requirements.txt" {
		t.Errorf("Build.Manifest = %q", cfg.Build.Manifest)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "")

	dir := writeConfigFile(t, `
server: {
	port: 9090
}
build: {
	container_engine: "podman"
	base_image:       "python:3.11-slim"
}
ui: verbose: true
`)

	cfg, err := loadFromDir(t, dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	// Unset fields keep their defaults
	if cfg.Server.Host != launcher.DefaultHost {
		t.Errorf("Server.Host = %q, want default", cfg.Server.Host)
	}
	if cfg.Build.ContainerEngine != ContainerEnginePodman {
		t.Errorf("Build.ContainerEngine = %q", cfg.Build.ContainerEngine)
	}
	if cfg.Build.BaseImage != "python:3.11-slim" {
		t.Errorf("Build.BaseImage = %q", cfg.Build.BaseImage)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose not loaded")
	}
}

func TestLoadInvalidCUESyntax(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "")

	dir := writeConfigFile(t, `server: { port: `)
	if _, err := loadFromDir(t, dir); err == nil {
		t.Error("expected error for invalid CUE syntax")
	}
}

func TestLoadSchemaViolations(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "")

	tests := []struct {
		name    string
		content string
	}{
		{name: "port out of range", content: "server: port: 70000"},
		{name: "unknown engine", content: `build: container_engine: "lxc"`},
		{name: "unknown field", content: "server: bind_addr: \"0.0.0.0\""},
		{name: "wrong type", content: `server: port: "eight thousand"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfigFile(t, tt.content)
			if _, err := loadFromDir(t, dir); err == nil {
				t.Error("expected schema validation error")
			}
		})
	}
}

func TestPortEnvOverridesConfig(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "7777")

	dir := writeConfigFile(t, "server: port: 9090")
	cfg, err := loadFromDir(t, dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want PORT env value 7777", cfg.Server.Port)
	}
}

func TestInvalidPortEnvRejected(t *testing.T) {
	tests := []string{"abc", "0", "-1", "65536", "80.5"}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			t.Setenv(launcher.PortEnvVar, raw)
			_, err := loadFromDir(t, t.TempDir())
			if !errors.Is(err, launcher.ErrInvalidPort) {
				t.Errorf("Load error = %v, want ErrInvalidPort", err)
			}
		})
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "")

	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadWithPathReportsSource(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "")

	dir := writeConfigFile(t, "server: port: 8001")
	_, path, err := LoadWithPath(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("LoadWithPath returned error: %v", err)
	}
	if want := filepath.Join(dir, "config.cue"); path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}

	_, path, err = LoadWithPath(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadWithPath returned error: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty for defaults", path)
	}
}

func TestGeneratedDefaultConfigLoads(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "")

	content := GenerateCUE(DefaultConfig())
	dir := writeConfigFile(t, content)

	cfg, err := loadFromDir(t, dir)
	if err != nil {
		t.Fatalf("generated config does not load: %v\n%s", err, content)
	}
	if cfg.Server.Port != launcher.DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, launcher.DefaultPort)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "")

	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig returned error: %v", err)
	}

	path := filepath.Join(dir, "config.cue")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if !strings.Contains(string(data), "port: 8000") {
		t.Errorf("default config missing port:\n%s", data)
	}

	// Idempotent: existing file is left alone
	if err := os.WriteFile(path, []byte("server: port: 8001\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("second CreateDefaultConfig returned error: %v", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "8001") {
		t.Error("existing config file was overwritten")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "")

	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	cfg := DefaultConfig()
	cfg.Server.Port = 9191
	cfg.Build.ContainerEngine = ContainerEngineDocker
	cfg.UI.Verbose = true

	if err := Save(cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := loadFromDir(t, dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", loaded.Server.Port)
	}
	if loaded.Build.ContainerEngine != ContainerEngineDocker {
		t.Errorf("Build.ContainerEngine = %q", loaded.Build.ContainerEngine)
	}
	if !loaded.UI.Verbose {
		t.Error("UI.Verbose not persisted")
	}
}

func TestLoadFromCurrentDirectory(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "")

	cwd := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(cwd, ConfigFileName+"."+ConfigFileExt),
		[]byte("server: port: 8123\n"))
	restore := testutil.MustChdir(t, cwd)
	defer restore()

	// The platform config dir is pointed at an empty directory so only the
	// CWD file can satisfy the lookup.
	cfg, path, err := LoadWithPath(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadWithPath returned error: %v", err)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("Server.Port = %d, want 8123", cfg.Server.Port)
	}
	if filepath.Base(path) != ConfigFileName+"."+ConfigFileExt {
		t.Errorf("resolved path = %q, want a config.cue path", path)
	}
}

func TestIgnorePortEnvLoadsFileValue(t *testing.T) {
	t.Setenv(launcher.PortEnvVar, "7777")

	dir := writeConfigFile(t, "server: port: 9090\n")

	cfg, err := NewProvider().Load(context.Background(),
		LoadOptions{ConfigDirPath: dir, IgnorePortEnv: true})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want file value 9090", cfg.Server.Port)
	}
}

func TestIgnorePortEnvToleratesInvalidPortEnv(t *testing.T) {
	// A broken PORT value must not block editing the persisted file.
	t.Setenv(launcher.PortEnvVar, "not-a-port")

	dir := writeConfigFile(t, "server: port: 9090\n")

	cfg, err := NewProvider().Load(context.Background(),
		LoadOptions{ConfigDirPath: dir, IgnorePortEnv: true})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want file value 9090", cfg.Server.Port)
	}
}
