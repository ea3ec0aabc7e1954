package config

import (
	"fmt"
	"strings"
)

var logLevels = map[string]struct{}{
	"trace":   {},
	"debug":   {},
	"info":    {},
	"warn":    {},
	"warning": {},
	"error":   {},
}

var formats = map[string]struct{}{
	"table": {},
	"json":  {},
	"quiet": {},
}

// Validate checks that every configuration value is usable. Load runs it
// after merging sources; the CLI runs it again after applying flag overrides.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database path must not be empty")
	}

	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error; got %q", c.LogLevel)
	}

	if _, ok := formats[c.Format]; !ok {
		return fmt.Errorf("format must be one of table, json, quiet; got %q", c.Format)
	}

	return nil
}
