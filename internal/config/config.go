// Package config provides configuration loading for shieldrev.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete shieldrev configuration.
type Config struct {
	Resolver   ResolverConfig   `yaml:"resolver"`
	Session    SessionConfig    `yaml:"session"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Log        LogConfig        `yaml:"log"`
}

// ResolverConfig configures the resolver backend connection.
type ResolverConfig struct {
	// BaseURL is the root of the resolver/rules API.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds each round trip.
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig configures the local durability store.
type SessionConfig struct {
	// Path is the SQLite file holding session snapshots.
	Path string `yaml:"path"`
}

// ThresholdsConfig configures zone-conflict detection.
type ThresholdsConfig struct {
	// Warn is the overlap ratio that records a conflict (default 0.05).
	Warn float64 `yaml:"warn"`
	// Critical is the ratio that forces suggested-only over critical
	// zones (default 0.10).
	Critical float64 `yaml:"critical"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Resolver: ResolverConfig{
			BaseURL: "http://localhost:8390",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Path: defaultSessionPath(),
		},
		Thresholds: ThresholdsConfig{
			Warn:     0.05,
			Critical: 0.10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "shieldrev-session.db"
	}
	return filepath.Join(home, ".local", "share", "shieldrev", "session.db")
}

// Load reads configuration: defaults, then the YAML file when path is
// non-empty, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SHIELDREV_RESOLVER_URL"); v != "" {
		cfg.Resolver.BaseURL = v
	}
	if v := os.Getenv("SHIELDREV_SESSION_DB"); v != "" {
		cfg.Session.Path = v
	}
	if v := os.Getenv("SHIELDREV_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Resolver.BaseURL == "" {
		return fmt.Errorf("resolver.base_url is required")
	}
	if c.Thresholds.Warn <= 0 || c.Thresholds.Warn >= 1 {
		return fmt.Errorf("thresholds.warn must be in (0,1), got %g", c.Thresholds.Warn)
	}
	if c.Thresholds.Critical < c.Thresholds.Warn || c.Thresholds.Critical >= 1 {
		return fmt.Errorf("thresholds.critical must be in [warn,1), got %g", c.Thresholds.Critical)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}
