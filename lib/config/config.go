// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendNATS   = "nats"
)

// Config is the registry command configuration.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains the fields that can be overridden per
// environment. Empty values leave the base value in place.
type ConfigOverrides struct {
	Store    *StoreConfig    `yaml:"store,omitempty"`
	Log      *LogConfig      `yaml:"log,omitempty"`
	Snapshot *SnapshotConfig `yaml:"snapshot,omitempty"`
}

// StoreConfig selects and configures the ledger backend. Each
// namespace ("hashes", "assets") gets its own ledger within the
// backend.
type StoreConfig struct {
	// Backend is memory, sqlite, or nats.
	Backend string `yaml:"backend"`

	SQLite SQLiteConfig `yaml:"sqlite"`
	NATS   NATSConfig   `yaml:"nats"`
}

// SQLiteConfig places one database file per namespace in Directory.
type SQLiteConfig struct {
	Directory string `yaml:"directory"`

	// PoolSize is the connection pool size per database. Zero picks a
	// default from the CPU count.
	PoolSize int `yaml:"pool_size"`
}

// NATSConfig maps each namespace to the JetStream key-value bucket
// "<bucket_prefix>-<namespace>".
type NATSConfig struct {
	URL          string `yaml:"url"`
	BucketPrefix string `yaml:"bucket_prefix"`

	// ConnectTimeout is a Go duration string. Default: 5s
	ConnectTimeout string `yaml:"connect_timeout"`
}

// LogConfig configures the command logger.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`
}

// SnapshotConfig configures snapshot export.
type SnapshotConfig struct {
	// Compression is none, lz4, or zstd.
	Compression string `yaml:"compression"`
}

// Default returns the base configuration the file is merged into. The
// config file is still required; these values only fill fields the
// file leaves out.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Environment: Development,
		Store: StoreConfig{
			Backend: BackendSQLite,
			SQLite: SQLiteConfig{
				Directory: filepath.Join(homeDir, ".cache", "bureau", "registry"),
			},
			NATS: NATSConfig{
				URL:            "nats://127.0.0.1:4222",
				BucketPrefix:   "registry",
				ConnectTimeout: "5s",
			},
		},
		Log:      LogConfig{Level: "info"},
		Snapshot: SnapshotConfig{Compression: "zstd"},
	}
}

// Load loads configuration from the REGISTRY_CONFIG environment
// variable. There is no fallback when it is unset.
func Load() (*Config, error) {
	configPath := os.Getenv("REGISTRY_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("REGISTRY_CONFIG environment variable not set; " +
			"set it to the path of your registry.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{Log: &LogConfig{Level: "warn"}}
		}
	}

	if overrides == nil {
		return
	}

	if store := overrides.Store; store != nil {
		if store.Backend != "" {
			c.Store.Backend = store.Backend
		}
		if store.SQLite.Directory != "" {
			c.Store.SQLite.Directory = store.SQLite.Directory
		}
		if store.SQLite.PoolSize != 0 {
			c.Store.SQLite.PoolSize = store.SQLite.PoolSize
		}
		if store.NATS.URL != "" {
			c.Store.NATS.URL = store.NATS.URL
		}
		if store.NATS.BucketPrefix != "" {
			c.Store.NATS.BucketPrefix = store.NATS.BucketPrefix
		}
		if store.NATS.ConnectTimeout != "" {
			c.Store.NATS.ConnectTimeout = store.NATS.ConnectTimeout
		}
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}

	if overrides.Snapshot != nil && overrides.Snapshot.Compression != "" {
		c.Snapshot.Compression = overrides.Snapshot.Compression
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Store.SQLite.Directory = expandVars(c.Store.SQLite.Directory, vars)
	vars["REGISTRY_ROOT"] = c.Store.SQLite.Directory

	c.Store.NATS.URL = expandVars(c.Store.NATS.URL, vars)
	c.Store.NATS.BucketPrefix = expandVars(c.Store.NATS.BucketPrefix, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. Provided vars win
// over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// bucketPattern is the character set JetStream accepts in bucket
// names.
var bucketPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate checks the configuration, reporting every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	backends := []string{BackendMemory, BackendSQLite, BackendNATS}
	switch {
	case !slices.Contains(backends, c.Store.Backend):
		errs = append(errs, fmt.Errorf("store.backend must be one of: %v", backends))
	case c.Store.Backend == BackendMemory && c.Environment == Production:
		errs = append(errs, fmt.Errorf("store.backend memory is not allowed in production"))
	case c.Store.Backend == BackendSQLite:
		if c.Store.SQLite.Directory == "" {
			errs = append(errs, fmt.Errorf("store.sqlite.directory is required"))
		}
		if c.Store.SQLite.PoolSize < 0 {
			errs = append(errs, fmt.Errorf("store.sqlite.pool_size must not be negative"))
		}
	case c.Store.Backend == BackendNATS:
		if c.Store.NATS.URL == "" {
			errs = append(errs, fmt.Errorf("store.nats.url is required"))
		}
		if !bucketPattern.MatchString(c.Store.NATS.BucketPrefix) {
			errs = append(errs, fmt.Errorf("store.nats.bucket_prefix %q must match %s", c.Store.NATS.BucketPrefix, bucketPattern))
		}
		if _, err := c.ConnectTimeout(); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	compressions := []string{"none", "lz4", "zstd"}
	if !slices.Contains(compressions, c.Snapshot.Compression) {
		errs = append(errs, fmt.Errorf("snapshot.compression must be one of: %v", compressions))
	}

	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// ConnectTimeout parses Store.NATS.ConnectTimeout. An empty value is
// zero.
func (c *Config) ConnectTimeout() (time.Duration, error) {
	if c.Store.NATS.ConnectTimeout == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(c.Store.NATS.ConnectTimeout)
	if err != nil {
		return 0, fmt.Errorf("store.nats.connect_timeout: %w", err)
	}
	if timeout < 0 {
		return 0, fmt.Errorf("store.nats.connect_timeout must not be negative")
	}
	return timeout, nil
}

// EnsurePaths creates the SQLite directory when the sqlite backend is
// selected.
func (c *Config) EnsurePaths() error {
	if c.Store.Backend != BackendSQLite {
		return nil
	}
	if err := os.MkdirAll(c.Store.SQLite.Directory, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Store.SQLite.Directory, err)
	}
	return nil
}
