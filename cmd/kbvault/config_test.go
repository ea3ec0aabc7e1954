package main

import (
	"os"
	"path/filepath"
	"testing"
)

// resetFlags clears the global flag state and restores it after the test.
func resetFlags(t *testing.T) {
	t.Helper()
	orig := struct{ db, fmt, log string }{flagDB, flagFmt, flagLog}
	flagDB, flagFmt, flagLog = "", "", ""
	t.Cleanup(func() {
		flagDB = orig.db
		flagFmt = orig.fmt
		flagLog = orig.log
	})
}

// setCleanEnv points every KBVAULT_* variable and the data directory at
// harmless test values so the host configuration cannot leak in. It returns
// the temp directory.
func setCleanEnv(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("KBVAULT_CONFIG", filepath.Join(tmp, "absent.yaml"))
	t.Setenv("KBVAULT_DB", "")
	t.Setenv("KBVAULT_LOG_LEVEL", "")
	t.Setenv("KBVAULT_FORMAT", "")
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	return tmp
}

// TestResolveConfigDefaults verifies the resolved defaults when no flag, env
// or file value is present, and that the format is reflected back into
// flagFmt for the output helpers.
func TestResolveConfigDefaults(t *testing.T) {
	resetFlags(t)
	tmp := setCleanEnv(t)

	cfg, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}

	wantDB := filepath.Join(tmp, "data", "kbvault", "kbvault.db")
	if cfg.DatabasePath != wantDB {
		t.Errorf("database: got %q, want %q", cfg.DatabasePath, wantDB)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level: got %q, want %q", cfg.LogLevel, "warn")
	}
	if cfg.Format != "table" {
		t.Errorf("format: got %q, want %q", cfg.Format, "table")
	}
	if flagFmt != "table" {
		t.Errorf("flagFmt write-back: got %q, want %q", flagFmt, "table")
	}
}

// TestResolveConfigEnvApplies verifies that KBVAULT_* variables override the
// defaults.
func TestResolveConfigEnvApplies(t *testing.T) {
	resetFlags(t)
	setCleanEnv(t)
	t.Setenv("KBVAULT_DB", "/env/env.db")
	t.Setenv("KBVAULT_FORMAT", "json")

	cfg, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}

	if cfg.DatabasePath != "/env/env.db" {
		t.Errorf("database: got %q, want %q", cfg.DatabasePath, "/env/env.db")
	}
	if cfg.Format != "json" {
		t.Errorf("format: got %q, want %q", cfg.Format, "json")
	}
	if flagFmt != "json" {
		t.Errorf("flagFmt write-back: got %q, want %q", flagFmt, "json")
	}
}

// TestResolveConfigFileApplies verifies that values from the config file are
// picked up when no env or flag overrides them.
func TestResolveConfigFileApplies(t *testing.T) {
	resetFlags(t)
	tmp := setCleanEnv(t)

	cfgPath := filepath.Join(tmp, "config.yaml")
	content := "database: /file/kb.db\nformat: quiet\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KBVAULT_CONFIG", cfgPath)

	cfg, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}

	if cfg.DatabasePath != "/file/kb.db" {
		t.Errorf("database: got %q, want %q", cfg.DatabasePath, "/file/kb.db")
	}
	if cfg.Format != "quiet" {
		t.Errorf("format: got %q, want %q", cfg.Format, "quiet")
	}
}

// TestResolveConfigFlagBeatsEnv verifies that an explicit flag value is not
// overridden by the environment.
func TestResolveConfigFlagBeatsEnv(t *testing.T) {
	resetFlags(t)
	setCleanEnv(t)
	t.Setenv("KBVAULT_DB", "/env/env.db")

	flagDB = "/flag/flag.db"
	cfg, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}

	if cfg.DatabasePath != "/flag/flag.db" {
		t.Errorf("explicit flag should win; got %q", cfg.DatabasePath)
	}
}

// TestResolveConfigFlagFormatWins verifies that --format beats KBVAULT_FORMAT
// and lands back in flagFmt.
func TestResolveConfigFlagFormatWins(t *testing.T) {
	resetFlags(t)
	setCleanEnv(t)
	t.Setenv("KBVAULT_FORMAT", "json")

	flagFmt = "quiet"
	cfg, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}

	if cfg.Format != "quiet" {
		t.Errorf("format: got %q, want %q", cfg.Format, "quiet")
	}
	if flagFmt != "quiet" {
		t.Errorf("flagFmt: got %q, want %q", flagFmt, "quiet")
	}
}

// TestResolveConfigRejectsBadFlag verifies that an unknown format value fails
// resolution instead of reaching the output helpers.
func TestResolveConfigRejectsBadFlag(t *testing.T) {
	resetFlags(t)
	setCleanEnv(t)

	flagFmt = "xml"
	if _, err := resolveConfig(); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
