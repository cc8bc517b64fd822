package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds configuration shared by the journal client and the document
// store service. Environment variables are parsed from the INKWELL_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// Remote document store endpoint used by the client.
	DocstoreURL string `envconfig:"DOCSTORE_URL" default:"http://localhost:8080"`

	// Deadline raced against every remote write; losing the race sends the
	// caller down the fallback path.
	RemoteTimeout time.Duration `envconfig:"REMOTE_TIMEOUT" default:"4s"`

	// Display language for the merged view.
	Language string `envconfig:"LANGUAGE" default:"en"`

	// Docstore service settings.
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	// Postgres DSN; when empty the service resolves to the sqlite driver.
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite database path; empty means the per-user data directory.
	SQLitePath string `envconfig:"SQLITE_PATH" default:""`

	// Network monitor probe cadence and the latency above which the
	// connection is reported as slow.
	ProbeInterval time.Duration `envconfig:"PROBE_INTERVAL" default:"15s"`
	SlowThreshold time.Duration `envconfig:"SLOW_THRESHOLD" default:"750ms"`
}

// ResolveDefaults derives DBDriver when it is "auto" or empty and validates
// the final choice.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: INKWELL_DOCSTORE_URL, INKWELL_HTTP_PORT.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("INKWELL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Str("docstore_url", cfg.DocstoreURL).
		Dur("remote_timeout", cfg.RemoteTimeout).
		Int("port", cfg.HTTPPort).
		Str("language", cfg.Language).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:   EnvTesting,
		DocstoreURL:   "http://localhost:8080",
		RemoteTimeout: 200 * time.Millisecond,
		Language:      "en",
		HTTPPort:      8080,
		DBDriver:      "sqlite",
		ProbeInterval: time.Second,
		SlowThreshold: 100 * time.Millisecond,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
