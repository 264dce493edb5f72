// Package main provides the statushook server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Postgrest PostgrestConfig `yaml:"postgrest"`
	GCS       GCSConfig       `yaml:"gcs"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Replay    ReplayConfig    `yaml:"replay"`
	Verbose   bool            `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Address string `yaml:"address"` // HTTP listen address (default: :8080)
}

// AuthConfig contains webhook authentication settings. The shared token
// itself comes from the STATUSHOOK_WEBHOOK_TOKEN environment variable, never
// from the config file.
type AuthConfig struct {
	Disabled bool `yaml:"disabled"` // Disable token auth (local development only)
}

// PostgrestConfig contains relational sink settings.
type PostgrestConfig struct {
	URL     string        `yaml:"url"`      // PostgREST base URL
	Timeout time.Duration `yaml:"timeout"`  // Request timeout (default: 10s)
	RPCMode bool          `yaml:"rpc_mode"` // Insert via the process_gc_alert database function
}

// GCSConfig contains object-storage archive settings.
type GCSConfig struct {
	Enabled   bool   `yaml:"enabled"`   // Enable the archive
	Exclusive bool   `yaml:"exclusive"` // Archive only, skip the relational sink by default
	Bucket    string `yaml:"bucket"`    // GCS bucket name
	Prefix    string `yaml:"prefix"`    // Object name prefix (default: uptime-events/)
	LocalDir  string `yaml:"local_dir"` // Use a local directory instead of GCS (development)
}

// ResolverConfig contains service resolution settings.
type ResolverConfig struct {
	Timeout time.Duration `yaml:"timeout"` // Catalog lookup timeout (default: 5s)
}

// ReplayConfig contains archive replay settings.
type ReplayConfig struct {
	DevReassign bool    `yaml:"dev_reassign"` // Permit random service reassignment during replay
	RatePerSec  float64 `yaml:"rate_per_sec"` // Replay pacing (default: 10)
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Postgrest.Timeout == 0 {
		c.Postgrest.Timeout = 10 * time.Second
	}
	if c.GCS.Prefix == "" {
		c.GCS.Prefix = "uptime-events/"
	}
	if c.Resolver.Timeout == 0 {
		c.Resolver.Timeout = 5 * time.Second
	}
	if c.Replay.RatePerSec == 0 {
		c.Replay.RatePerSec = 10
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Postgrest.URL == "" {
		return fmt.Errorf("postgrest.url is required")
	}
	if c.GCS.Enabled && c.GCS.Bucket == "" && c.GCS.LocalDir == "" {
		return fmt.Errorf("gcs.bucket or gcs.local_dir is required when the archive is enabled")
	}
	if c.GCS.Bucket != "" && c.GCS.LocalDir != "" {
		return fmt.Errorf("gcs.bucket and gcs.local_dir are mutually exclusive")
	}
	if c.GCS.Exclusive && !c.GCS.Enabled {
		return fmt.Errorf("gcs.exclusive requires gcs.enabled")
	}
	return nil
}
