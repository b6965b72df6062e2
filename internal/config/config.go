// Package config provides hookcode configuration loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the hookcode configuration.
type Config struct {
	RunsDir      string       `toml:"runs_dir"`      // Directory scanned for *.jsonl runs
	ContextLines int          `toml:"context_lines"` // Unchanged lines around each diff change
	Color        string       `toml:"color"`         // auto, always or never
	Wrap         int          `toml:"wrap"`          // Body wrap column; 0 disables wrapping
	Server       ServerConfig `toml:"server"`
}

// ServerConfig holds hookcode-server settings.
type ServerConfig struct {
	Host  string `toml:"host"`
	Port  int    `toml:"port"`
	Quiet bool   `toml:"quiet"` // Disable request logging
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Dir returns the path to the .hookcode directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hookcode"), nil
}

// Path returns the config file location: $HOOKCODE_CONFIG, or
// ~/.hookcode/config.toml.
func Path() (string, error) {
	if p := os.Getenv("HOOKCODE_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns a configuration with all defaults set.
func Default() Config {
	runsDir := "runs"
	if dir, err := Dir(); err == nil {
		runsDir = filepath.Join(dir, "runs")
	}
	return Config{
		RunsDir:      runsDir,
		ContextLines: 3,
		Color:        ColorAuto,
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 7878,
		},
	}
}

// Load reads the config file at Path. A missing file yields the defaults.
// Environment overrides are applied last.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path, falling back to defaults for a missing
// file or missing keys.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if dir := os.Getenv("HOOKCODE_RUNS_DIR"); dir != "" {
		cfg.RunsDir = dir
	}
	if v := os.Getenv("HOOKCODE_CONTEXT_LINES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HOOKCODE_CONTEXT_LINES: %w", err)
		}
		cfg.ContextLines = n
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("unknown color mode %q", c.Color)
	}
	if c.ContextLines < 0 {
		return fmt.Errorf("context_lines must be >= 0, got %d", c.ContextLines)
	}
	if c.Wrap < 0 {
		return fmt.Errorf("wrap must be >= 0, got %d", c.Wrap)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
