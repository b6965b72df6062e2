package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	t.Setenv("HOOKCODE_RUNS_DIR", "")
	t.Setenv("HOOKCODE_CONTEXT_LINES", "")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	def := Default()
	if cfg.ContextLines != def.ContextLines || cfg.Color != ColorAuto || cfg.Server.Port != def.Server.Port {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileOverridesKeys(t *testing.T) {
	t.Setenv("HOOKCODE_RUNS_DIR", "")
	t.Setenv("HOOKCODE_CONTEXT_LINES", "")

	path := writeConfig(t, `
runs_dir = "/srv/runs"
context_lines = 5
color = "never"

[server]
port = 9000
quiet = true
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.RunsDir != "/srv/runs" || cfg.ContextLines != 5 || cfg.Color != ColorNever {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 || !cfg.Server.Quiet {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if got := cfg.Server.Addr(); got != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %q", got)
	}
}

func TestLoadFileEnvOverrides(t *testing.T) {
	t.Setenv("HOOKCODE_RUNS_DIR", "/tmp/env-runs")
	t.Setenv("HOOKCODE_CONTEXT_LINES", "1")

	cfg, err := LoadFile(writeConfig(t, `context_lines = 7`))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.RunsDir != "/tmp/env-runs" || cfg.ContextLines != 1 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}

	t.Setenv("HOOKCODE_CONTEXT_LINES", "many")
	if _, err := LoadFile(writeConfig(t, "")); err == nil {
		t.Fatalf("expected error for invalid HOOKCODE_CONTEXT_LINES")
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	t.Setenv("HOOKCODE_RUNS_DIR", "")
	t.Setenv("HOOKCODE_CONTEXT_LINES", "")

	for name, body := range map[string]string{
		"syntax":  `context_lines = `,
		"color":   `color = "sometimes"`,
		"context": `context_lines = -1`,
		"port":    "[server]\nport = 70000",
	} {
		if _, err := LoadFile(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestPathHonorsEnv(t *testing.T) {
	t.Setenv("HOOKCODE_CONFIG", "/etc/hookcode.toml")
	path, err := Path()
	if err != nil {
		t.Fatalf("Path returned error: %v", err)
	}
	if path != "/etc/hookcode.toml" {
		t.Fatalf("unexpected path %q", path)
	}
}
