// Package config loads the workspace configuration from .runrate/config.yaml.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agentroi/runrate/pkg/domain/analytics"
	"github.com/agentroi/runrate/pkg/domain/org"
	"github.com/agentroi/runrate/pkg/domain/stats"
	"github.com/agentroi/runrate/pkg/storage"
)

// Storage backends for snapshots. Agents, studies and goals always live in
// YAML files.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Environment overrides.
const (
	EnvStorageBackend = "RUNRATE_STORAGE_BACKEND"
	EnvStorageDSN     = "RUNRATE_STORAGE_DSN"
	EnvLogLevel       = "RUNRATE_LOG_LEVEL"
)

// Config is the serialized form of config.yaml.
type Config struct {
	Storage      StorageConfig `yaml:"storage"`
	Logging      LoggingConfig `yaml:"logging"`
	Organization org.Settings  `yaml:"organization"`
	Trend        TrendConfig   `yaml:"trend"`
	Alerts       AlertsConfig  `yaml:"alerts"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TrendConfig struct {
	LookbackDays int `yaml:"lookback_days"`
	ForecastDays int `yaml:"forecast_days"`
}

type AlertsConfig struct {
	OutlierThreshold float64 `yaml:"outlier_threshold"`
}

// Default returns the configuration used when config.yaml is absent.
func Default() *Config {
	return &Config{
		Storage:      StorageConfig{Backend: BackendFile},
		Logging:      LoggingConfig{Level: "info", Format: "text"},
		Organization: org.DefaultSettings(),
		Trend: TrendConfig{
			LookbackDays: analytics.DefaultLookbackDays,
			ForecastDays: 30,
		},
		Alerts: AlertsConfig{OutlierThreshold: stats.DefaultOutlierThreshold},
	}
}

// Load reads config.yaml under root, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(root string) (*Config, error) {
	cfg := Default()

	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to config.yaml under root.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	repo := storage.NewFilesystemRepository(root)
	path, err := repo.ResolvePath(storage.ConfigFile)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvStorageBackend); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(EnvStorageDSN); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", BackendFile, BackendSQLite:
	case BackendPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage backend %q requires a dsn", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown storage backend %q (want file, sqlite or postgres)", c.Storage.Backend)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Logging.Format)
	}

	if c.Organization.StandardWorkHoursPerYear <= 0 {
		return fmt.Errorf("organization: standard work hours per year must be positive")
	}
	if err := c.Organization.Validate(); err != nil {
		return fmt.Errorf("organization: %w", err)
	}
	if c.Trend.LookbackDays < 0 || c.Trend.ForecastDays < 0 {
		return fmt.Errorf("trend windows must not be negative")
	}
	if c.Alerts.OutlierThreshold < 0 {
		return fmt.Errorf("outlier threshold must not be negative")
	}
	return nil
}
