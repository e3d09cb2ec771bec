// Package config loads process configuration from a YAML file with
// environment-variable overrides. Defaults are chosen so the binary runs
// with no config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment override variables.
const (
	EnvLogLevel      = "ECOTALLY_LOG_LEVEL"
	EnvCacheDir      = "ECOTALLY_CACHE_DIR"
	EnvCacheTTL      = "ECOTALLY_CACHE_TTL_SECONDS"
	EnvDBPath        = "ECOTALLY_DB_PATH"
	EnvVerifiedURL   = "ECOTALLY_VERIFIED_URL"
	EnvWorkers       = "ECOTALLY_WORKERS"
	EnvMetricsListen = "ECOTALLY_METRICS_LISTEN"
)

// LoggingConfig mirrors logging.Config in YAML form.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// CacheConfig tunes both cache tiers.
type CacheConfig struct {
	Enabled          bool   `yaml:"enabled"`
	MemoryCapacity   int    `yaml:"memory_capacity"`
	MemoryTTLSeconds int    `yaml:"memory_ttl_seconds"`
	Dir              string `yaml:"dir"` // distributed tier directory; empty disables it
	SharedTTLSeconds int    `yaml:"shared_ttl_seconds"`
	TimeoutMillis    int    `yaml:"timeout_ms"`
}

// JobsConfig tunes the job orchestrator.
type JobsConfig struct {
	Workers          int `yaml:"workers"`
	MaxAttempts      int `yaml:"max_attempts"`
	BackoffBaseMs    int `yaml:"backoff_base_ms"`
	OffloadLineItems int `yaml:"offload_line_items"`
}

// StoreConfig locates the persistent store.
type StoreConfig struct {
	Path string `yaml:"path"` // sqlite database file; empty selects the memory store
}

// VerifiedConfig locates the external verified backend.
type VerifiedConfig struct {
	URL            string `yaml:"url"` // empty disables the verified tier
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// FactorsConfig selects the factor table.
type FactorsConfig struct {
	Dataset string `yaml:"dataset"` // YAML dataset path; empty uses the built-in table
}

// MetricsConfig controls the Prometheus endpoint on the worker command.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // e.g. ":9464"; empty disables the endpoint
}

// Config is the full process configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Cache    CacheConfig    `yaml:"cache"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Store    StoreConfig    `yaml:"store"`
	Verified VerifiedConfig `yaml:"verified"`
	Factors  FactorsConfig  `yaml:"factors"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".ecotally")
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Cache: CacheConfig{
			Enabled:          true,
			MemoryCapacity:   512,
			MemoryTTLSeconds: 1800,
			Dir:              filepath.Join(base, "cache"),
			SharedTTLSeconds: 86400,
			TimeoutMillis:    2000,
		},
		Jobs: JobsConfig{
			Workers:          4,
			MaxAttempts:      3,
			BackoffBaseMs:    100,
			OffloadLineItems: 25,
		},
		Store:    StoreConfig{Path: filepath.Join(base, "ecotally.db")},
		Verified: VerifiedConfig{TimeoutSeconds: 10},
	}
}

// Load reads the config file at path, falling back to defaults when path is
// empty or the file does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Cache.MemoryTTLSeconds = n
		}
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv(EnvVerifiedURL); v != "" {
		cfg.Verified.URL = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Jobs.Workers = n
		}
	}
	if v := os.Getenv(EnvMetricsListen); v != "" {
		cfg.Metrics.Listen = v
	}
}

// MemoryTTL returns the memory tier TTL as a duration.
func (c CacheConfig) MemoryTTL() time.Duration {
	return time.Duration(c.MemoryTTLSeconds) * time.Second
}

// SharedTTL returns the distributed tier TTL as a duration.
func (c CacheConfig) SharedTTL() time.Duration {
	return time.Duration(c.SharedTTLSeconds) * time.Second
}

// Timeout returns the distributed call timeout as a duration.
func (c CacheConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// BackoffBase returns the retry backoff base as a duration.
func (c JobsConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMs) * time.Millisecond
}

// VerifiedTimeout returns the backend call timeout as a duration.
func (c VerifiedConfig) VerifiedTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
