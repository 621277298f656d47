// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Submit   SubmitConfig
	Session  SessionConfig
	Archive  ArchiveConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the optional batch history database.
// When URL is empty, history is kept in memory.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a history database is configured.
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// UploadConfig holds batch processing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel batches (default: 3)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"3"`

	// MaxWaitTime is how long to wait for a batch slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds one batch from parse to last submission (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`

	// ResultTTL is how long finished batches stay queryable in memory (default: 5m)
	ResultTTL time.Duration `env:"UPLOAD_RESULT_TTL" default:"5m"`
}

// SubmitConfig holds business API settings.
type SubmitConfig struct {
	// APIURL is the business API base URL (required)
	APIURL string `env:"BUSINESS_API_URL" envAlt:"API_URL" required:"true"`

	// APIToken is sent as a bearer token when set
	APIToken string `env:"BUSINESS_API_TOKEN"`

	// Timeout bounds one API call (default: 15s)
	Timeout time.Duration `env:"BUSINESS_API_TIMEOUT" default:"15s"`

	// Concurrency is the number of rows submitted in parallel (default: 4)
	Concurrency int `env:"SUBMIT_CONCURRENCY" default:"4"`

	// RatePerSecond throttles calls; 0 disables throttling (default: 0)
	RatePerSecond float64 `env:"SUBMIT_RATE_PER_SECOND" default:"0"`

	// Burst is the throttle burst size (default: 1)
	Burst int `env:"SUBMIT_BURST" default:"1"`
}

// SessionConfig holds admin session settings.
type SessionConfig struct {
	// Backend is "memory" or "redis" (default: memory)
	Backend string `env:"SESSION_BACKEND" default:"memory"`

	// RedisURL is required for the redis backend
	RedisURL string `env:"REDIS_URL"`

	// TTL is the session lifetime (default: 12h)
	TTL time.Duration `env:"SESSION_TTL" default:"12h"`

	// CookieName is the session cookie (default: visadir_session)
	CookieName string `env:"SESSION_COOKIE" default:"visadir_session"`

	// SecureCookie sets the Secure flag (default: true)
	SecureCookie bool `env:"SESSION_SECURE_COOKIE" default:"true"`

	// Users is a comma-separated list of email:role:bcrypt-hash entries
	Users []string `env:"SESSION_USERS"`
}

// ArchiveConfig holds source-file archive and history retention settings.
type ArchiveConfig struct {
	// Backend is "none", "fs" or "s3" (default: none)
	Backend string `env:"ARCHIVE_BACKEND" default:"none"`

	// Dir is the fs backend root directory
	Dir string `env:"ARCHIVE_DIR" default:"./archive"`

	// Bucket is the s3 backend bucket
	Bucket string `env:"ARCHIVE_S3_BUCKET"`

	// Prefix is prepended to every archive key
	Prefix string `env:"ARCHIVE_PREFIX" default:"uploads"`

	// Endpoint overrides the S3 endpoint (MinIO, LocalStack)
	Endpoint string `env:"ARCHIVE_S3_ENDPOINT" envAlt:"AWS_ENDPOINT_URL"`

	// UsePathStyle forces path-style S3 addressing (default: false)
	UsePathStyle bool `env:"ARCHIVE_S3_PATH_STYLE" default:"false"`

	// HistoryRetention is how long batch history is kept (default: 90 days)
	HistoryRetention time.Duration `env:"HISTORY_RETENTION" default:"2160h"`

	// CheckInterval is how often retention runs (default: 24h)
	CheckInterval time.Duration `env:"HISTORY_CHECK_INTERVAL" default:"24h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAuth guards batch endpoints with an admin session or API key (default: true)
	RequireAuth bool `env:"REQUIRE_AUTH" default:"true"`

	// APIKeys are accepted in X-API-Key as an alternative to an admin session
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
