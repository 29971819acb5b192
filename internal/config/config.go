package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// DevSessionSecret is the fallback signing secret for local runs.
const DevSessionSecret = "bfa-default-dev-secret-change-me"

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Backend REST API
	BackendAPIURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Tenant branding
	BaseDomain       string
	BrandingCacheTTL time.Duration
	BrandingTimeout  time.Duration

	// Last-good list snapshots
	SnapshotTTL time.Duration

	// Sessions
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionSecret string
	SessionTTL    time.Duration
	SessionCookie string
	CookieSecure  bool

	// Payments
	DefaultPlan string // STRIPE_PRICE_ID used when a signup picks no plan

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendAPIURL: getEnv("BACKEND_API_URL", "http://localhost:8000"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 10),

		BaseDomain:       getEnv("BASE_DOMAIN", ""),
		BrandingCacheTTL: getEnvDuration("BRANDING_CACHE_TTL", 5*time.Minute),
		BrandingTimeout:  getEnvDuration("BRANDING_TIMEOUT", 2*time.Second),

		SnapshotTTL: getEnvDuration("SNAPSHOT_TTL", 30*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SessionSecret: getEnv("SESSION_SECRET", DevSessionSecret),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionCookie: getEnv("SESSION_COOKIE", "portal_session"),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),

		DefaultPlan: getEnv("STRIPE_PRICE_ID", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// Validate rejects combinations that cannot run safely.
func (c *Config) Validate() error {
	var errs []error
	if c.BackendAPIURL == "" {
		errs = append(errs, errors.New("BACKEND_API_URL is required"))
	}
	if c.CookieSecure && c.SessionSecret == DevSessionSecret {
		errs = append(errs, errors.New("SESSION_SECRET must be set when COOKIE_SECURE is on"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, errors.New("MAX_CONCURRENCY must be at least 1"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
