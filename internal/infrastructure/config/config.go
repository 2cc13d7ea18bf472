package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/GriffinCanCode/galaxy/internal/shared/paths"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendSnapshot = "snapshot"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Cache     CacheConfig
	Auth      AuthConfig
	Events    EventsConfig
	Seed      SeedConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// StorageConfig selects where the registry lives.
type StorageConfig struct {
	Backend string `envconfig:"STORAGE_BACKEND" default:"memory"`
	Path    string `envconfig:"STORAGE_PATH" default:"/tmp/galaxy/registry.db"`
}

// CacheConfig controls the link cache in front of the store.
type CacheConfig struct {
	Enabled bool          `envconfig:"CACHE_ENABLED" default:"true"`
	TTL     time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	Cleanup time.Duration `envconfig:"CACHE_CLEANUP" default:"30m"`
}

// AuthConfig holds session settings.
type AuthConfig struct {
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`
}

// EventsConfig holds notification settings.
type EventsConfig struct {
	Buffer         int    `envconfig:"EVENTS_BUFFER" default:"64"`
	WebhookURL     string `envconfig:"WEBHOOK_URL"`
	WebhookRetries int    `envconfig:"WEBHOOK_RETRIES" default:"3"`
}

// SeedConfig holds startup seeding settings. An empty Dir disables seeding.
type SeedConfig struct {
	Dir      string        `envconfig:"SEED_DIR"`
	Pattern  string        `envconfig:"SEED_PATTERN" default:"**/*.{yaml,yml,toml}"`
	Owner    string        `envconfig:"SEED_OWNER" default:"system"`
	Watch    bool          `envconfig:"SEED_WATCH" default:"false"`
	Debounce time.Duration `envconfig:"SEED_DEBOUNCE" default:"1s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Path:    paths.Database(),
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
			Cleanup: 30 * time.Minute,
		},
		Auth: AuthConfig{
			SessionTTL: 24 * time.Hour,
		},
		Events: EventsConfig{
			Buffer:         64,
			WebhookRetries: 3,
		},
		Seed: SeedConfig{
			Pattern:  "**/*.{yaml,yml,toml}",
			Owner:    "system",
			Debounce: time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case BackendMemory, BackendSQLite, BackendSnapshot:
		c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend != BackendMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage backend %s requires STORAGE_PATH", c.Storage.Backend)
	}
	if c.Events.Buffer <= 0 {
		return fmt.Errorf("EVENTS_BUFFER must be positive, got %d", c.Events.Buffer)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.Auth.SessionTTL)
	}
	if c.Seed.Dir != "" && c.Seed.Owner == "" {
		return fmt.Errorf("SEED_OWNER is required when SEED_DIR is set")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
