// ABOUTME: Configuration for the wen CLI
// ABOUTME: Optional TOML file from the XDG path, overlaid with WEN_* environment variables

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// ClientConfig is the configuration of the wen CLI.
type ClientConfig struct {
	Identity string        `toml:"identity" env:"WEN_IDENTITY"`
	Remote   RemoteConfig  `toml:"remote"`
	Cache    CacheConfig   `toml:"cache"`
	Logging  ClientLogging `toml:"logging"`
}

// RemoteConfig points at the record store.
type RemoteConfig struct {
	APIBase string `toml:"api_base" env:"WEN_API_BASE"`
	Token   string `toml:"token" env:"WEN_TOKEN"`
	// RequestTimeout bounds each remote call. Zero waits indefinitely.
	RequestTimeout time.Duration `toml:"-" env:"WEN_REQUEST_TIMEOUT"`

	RequestTimeoutRaw string `toml:"request_timeout"`
}

// CacheConfig locates the device-local cache database.
type CacheConfig struct {
	Path string `toml:"path" env:"WEN_CACHE_PATH"`
}

// ClientLogging holds CLI logging configuration.
type ClientLogging struct {
	Level string `toml:"level" env:"WEN_LOG_LEVEL"`
}

// DefaultClientConfig returns the configuration used for unset fields.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Remote:  RemoteConfig{APIBase: "http://localhost:8780"},
		Cache:   CacheConfig{Path: filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), "cache.db")},
		Logging: ClientLogging{Level: "warn"},
	}
}

// ClientConfigPath returns WEN_CONFIG or $XDG_CONFIG_HOME/wen/wen.toml.
func ClientConfigPath() string {
	return resolvePath("WEN_CONFIG", "wen.toml")
}

// LoadClient reads the TOML file at path, if it exists, then applies
// environment overrides. A missing file yields the defaults.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if _, err := toml.Decode(expandEnvVars(string(data)), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		if err := parseDuration("request_timeout", cfg.Remote.RequestTimeoutRaw, &cfg.Remote.RequestTimeout); err != nil {
			return nil, err
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that config fields are usable. Identity may be empty here;
// commands that need it check for it themselves.
func (c *ClientConfig) Validate() error {
	if c.Remote.APIBase == "" {
		return fmt.Errorf("remote.api_base is required")
	}
	u, err := url.Parse(c.Remote.APIBase)
	if err != nil {
		return fmt.Errorf("remote.api_base is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("remote.api_base must use http or https scheme")
	}
	if c.Remote.RequestTimeout < 0 {
		return fmt.Errorf("remote.request_timeout must not be negative")
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required")
	}
	return nil
}
