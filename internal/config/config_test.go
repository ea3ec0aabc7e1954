package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbvault/kbvault/internal/config"
)

// setCleanEnv isolates a test from the developer's real environment and
// config file.
func setCleanEnv(t *testing.T) {
	t.Helper()
	t.Setenv("KBVAULT_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("KBVAULT_DB", "")
	t.Setenv("KBVAULT_LOG_LEVEL", "")
	t.Setenv("KBVAULT_FORMAT", "")
	t.Setenv("XDG_DATA_HOME", "")
}

func TestLoad_Defaults(t *testing.T) {
	setCleanEnv(t)
	t.Setenv("XDG_DATA_HOME", "/data")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.DatabasePath != filepath.Join("/data", "kbvault", "kbvault.db") {
		t.Errorf("unexpected default database path: %s", cfg.DatabasePath)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("expected default log level warn, got %s", cfg.LogLevel)
	}

	if cfg.Format != "table" {
		t.Errorf("expected default format table, got %s", cfg.Format)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setCleanEnv(t)
	t.Setenv("KBVAULT_DB", "/tmp/custom.db")
	t.Setenv("KBVAULT_LOG_LEVEL", "debug")
	t.Setenv("KBVAULT_FORMAT", "json")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.DatabasePath != "/tmp/custom.db" {
		t.Errorf("unexpected database path: %s", cfg.DatabasePath)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("unexpected log level: %s", cfg.LogLevel)
	}

	if cfg.Format != "json" {
		t.Errorf("unexpected format: %s", cfg.Format)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	setCleanEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "database: /var/lib/kbvault/kb.db\nlog_level: info\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("KBVAULT_CONFIG", path)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.DatabasePath != "/var/lib/kbvault/kb.db" {
		t.Errorf("unexpected database path: %s", cfg.DatabasePath)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("unexpected log level: %s", cfg.LogLevel)
	}

	// Format was not in the file, so the default applies.
	if cfg.Format != "table" {
		t.Errorf("unexpected format: %s", cfg.Format)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	setCleanEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: info\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("KBVAULT_CONFIG", path)
	t.Setenv("KBVAULT_LOG_LEVEL", "error")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("expected env to win over file, got %s", cfg.LogLevel)
	}
}

func TestLoad_ErrorCases(t *testing.T) {
	tests := []struct {
		name         string
		envOverrides map[string]string
		wantErr      string
	}{
		{
			name:         "invalid log level",
			envOverrides: map[string]string{"KBVAULT_LOG_LEVEL": "loud"},
			wantErr:      "log level must be one of",
		},
		{
			name:         "invalid format",
			envOverrides: map[string]string{"KBVAULT_FORMAT": "xml"},
			wantErr:      "format must be one of",
		},
		{
			name:         "blank database path",
			envOverrides: map[string]string{"KBVAULT_DB": "   "},
			wantErr:      "database path must not be empty",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setCleanEnv(t)
			for k, v := range tc.envOverrides {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	setCleanEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("KBVAULT_CONFIG", path)

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("unexpected error: %v", err)
	}
}
