// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Backend selectors for the pluggable stores.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendHTTP     = "http"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Deep-link scheme the engine accepts (e.g. "app" for app://...).
	Scheme string `env:"DEEPLINK_SCHEME" envDefault:"app"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Sessions
	SessionBackend    string        `env:"SESSION_BACKEND" envDefault:"memory"`
	SessionTimeout    time.Duration `env:"SESSION_TIMEOUT" envDefault:"30m"`
	SessionSweep      time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"60s"`
	AnonymousSessions bool          `env:"ANONYMOUS_SESSIONS" envDefault:"false"`

	// Rate limiting
	RateLimitBackend  string        `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"30"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitBurst    int           `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Redis, required when any backend selects it.
	RedisURL string `env:"REDIS_URL"`

	// Analytics storage
	StorageBackend     string `env:"STORAGE_BACKEND" envDefault:"memory"`
	StorageBaseURL     string `env:"STORAGE_BASE_URL"`
	StorageBucket      string `env:"STORAGE_BUCKET" envDefault:"cliplink-analytics"`
	StorageToken       string `env:"STORAGE_TOKEN"`
	DatabaseURL        string `env:"DATABASE_URL"`
	AnalyticsPrefix    string `env:"ANALYTICS_PREFIX" envDefault:""`
	AnalyticsQueueSize int    `env:"ANALYTICS_QUEUE_SIZE" envDefault:"1024"`

	// Documentation wiki
	DocsBaseURL  string        `env:"DOCS_BASE_URL"`
	DocsCacheTTL time.Duration `env:"DOCS_CACHE_TTL" envDefault:"10m"`

	// Payments
	StripeKey            string  `env:"STRIPE_KEY"`
	DefaultServiceAmount string  `env:"DEFAULT_SERVICE_AMOUNT" envDefault:"45.00"`
	DefaultTipPercent    float64 `env:"DEFAULT_TIP_PERCENT" envDefault:"20"`

	// Admin surface (Argon2id hash of the admin bearer token; empty
	// disables the admin endpoints).
	AdminTokenHash string `env:"ADMIN_TOKEN_HASH"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 64KB; resolve payloads are tiny)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field constraints the env tags cannot express.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("SESSION_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}

	switch c.RateLimitBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("RATE_LIMIT_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend)
	}

	switch c.StorageBackend {
	case BackendMemory:
	case BackendHTTP:
		if c.StorageBaseURL == "" {
			return fmt.Errorf("STORAGE_BACKEND=http requires STORAGE_BASE_URL")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORAGE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be positive, got %s", c.SessionTimeout)
	}

	return nil
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing or inconsistent.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
