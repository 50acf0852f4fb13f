// ABOUTME: Configuration for the wen-store record store server
// ABOUTME: YAML file with environment variable expansion, duration parsing and validation

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// StoreConfig represents the complete wen-store configuration
type StoreConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Entries  EntriesConfig  `yaml:"entries"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration. An empty JWTSecret runs
// the store without authentication.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"-"`

	TokenTTLRaw string `yaml:"token_ttl"`
}

// EntriesConfig tunes the duplicate entry cache.
type EntriesConfig struct {
	DedupeTTL  time.Duration `yaml:"-"`
	DedupeSize int           `yaml:"dedupe_size"`

	DedupeTTLRaw string `yaml:"dedupe_ttl"`
}

// HistoryConfig bounds GET /history responses.
type HistoryConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MinSecretLength is the shortest accepted jwt_secret.
const MinSecretLength = 32

// DefaultStoreConfig returns the configuration used for unset fields.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Server:   ServerConfig{HTTPAddr: ":8780"},
		Database: DatabaseConfig{Path: filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), "store.db")},
		Auth:     AuthConfig{TokenTTL: 30 * 24 * time.Hour},
		Entries:  EntriesConfig{DedupeTTL: 24 * time.Hour, DedupeSize: 10000},
		History:  HistoryConfig{DefaultLimit: 30, MaxLimit: 365},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

// StoreConfigPath returns WEN_STORE_CONFIG or $XDG_CONFIG_HOME/wen/store.yaml.
func StoreConfigPath() string {
	return resolvePath("WEN_STORE_CONFIG", "store.yaml")
}

// LoadStore reads a configuration file from the given path and returns a parsed StoreConfig.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func LoadStore(path string) (*StoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultStoreConfig()
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *StoreConfig) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < MinSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Entries.DedupeSize < 1 {
		return fmt.Errorf("entries.dedupe_size must be at least 1")
	}
	if c.History.DefaultLimit < 1 || c.History.MaxLimit < 1 {
		return fmt.Errorf("history limits must be at least 1")
	}
	if c.History.DefaultLimit > c.History.MaxLimit {
		return fmt.Errorf("history.default_limit (%d) exceeds history.max_limit (%d)", c.History.DefaultLimit, c.History.MaxLimit)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func (c *StoreConfig) parseDurations() error {
	if err := parseDuration("token_ttl", c.Auth.TokenTTLRaw, &c.Auth.TokenTTL); err != nil {
		return err
	}
	return parseDuration("dedupe_ttl", c.Entries.DedupeTTLRaw, &c.Entries.DedupeTTL)
}
