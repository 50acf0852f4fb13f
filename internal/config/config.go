// ABOUTME: Shared helpers for configuration loading
// ABOUTME: Environment expansion, env overlays and XDG path resolution

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// ParseEnv overlays environment variables onto target using its env struct tags.
// Fields whose variables are unset keep their current values.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// parseDuration parses raw into *dst when raw is non-empty.
func parseDuration(field, raw string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing %s %q: %w", field, raw, err)
	}
	if d < 0 {
		return fmt.Errorf("%s must not be negative", field)
	}
	*dst = d
	return nil
}

// xdgDir returns $<envName>/wen, falling back to $HOME/<fallback>/wen.
func xdgDir(envName, fallback string) string {
	if dir := os.Getenv(envName); dir != "" {
		return filepath.Join(dir, "wen")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "wen")
	}
	return filepath.Join(home, fallback, "wen")
}

// resolvePath returns the value of override if set, else name under the XDG
// config directory.
func resolvePath(override, name string) string {
	if p := os.Getenv(override); p != "" {
		return p
	}
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), name)
}
