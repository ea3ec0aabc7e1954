// Package config provides configuration for the kbvault CLI, merged from an
// optional YAML config file, KBVAULT_* environment variables and built-in
// defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all CLI configuration values. Command-line flags are applied
// by the caller on top of whatever Load resolves.
type Config struct {
	DatabasePath string `yaml:"database"`
	LogLevel     string `yaml:"log_level"`
	Format       string `yaml:"format"`
}

// Load reads the config file when present, applies environment overrides and
// fills defaults. Precedence, lowest to highest: defaults, config file,
// environment.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := FilePath(); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("KBVAULT_DB"); v != "" {
		cfg.DatabasePath = v
	}

	if v := os.Getenv("KBVAULT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("KBVAULT_FORMAT"); v != "" {
		cfg.Format = v
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = DefaultDatabasePath()
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}

	if cfg.Format == "" {
		cfg.Format = "table"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadFile merges a YAML config file into c. A missing file is not an error.
func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return nil
}

// FilePath returns the location of the optional config file: $KBVAULT_CONFIG
// when set, otherwise kbvault/config.yaml under the user config directory.
func FilePath() string {
	if v := os.Getenv("KBVAULT_CONFIG"); v != "" {
		return v
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "kbvault", "config.yaml")
}

// DefaultDatabasePath returns the default database location under the user
// data directory, honoring XDG_DATA_HOME.
func DefaultDatabasePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "kbvault", "kbvault.db")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "kbvault.db"
	}

	return filepath.Join(home, ".local", "share", "kbvault", "kbvault.db")
}
