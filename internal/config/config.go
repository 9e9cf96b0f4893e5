// Package config provides centralized configuration management for the portal.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
//
// The cluster/project catalog is loaded separately by LoadCatalog and passed
// explicitly to the services that need it.
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
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Static   StaticConfig
	Proxy    ProxyConfig
	Catalog  CatalogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Required unless BACKEND_URL is set.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies pending schema migrations on server start (default: true)
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true"`
}

// UploadConfig holds asset and CSV upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed request body in bytes (default: 25MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"26214400"`

	// MaxConcurrent is the maximum number of parallel uploads (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`

	// LoginLimit is login attempts per minute per IP (default: 10)
	LoginLimit int `env:"RATE_LIMIT_LOGIN" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// JWTSecret signs session tokens. Must be at least 32 bytes.
	JWTSecret string `env:"JWT_SECRET" envAlt:"SECRET_KEY"`

	// SessionTimeout is the lifetime of a session token (default: 12h)
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" default:"12h"`

	// CookieSecure marks the session cookie Secure (default: false)
	CookieSecure bool `env:"COOKIE_SECURE" default:"false"`

	// AdminToken is a static bearer token accepted as an admin session
	AdminToken string `env:"ADMIN_TOKEN"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// CORSOrigins is a comma-separated list of allowed browser origins
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// StaticConfig holds uploaded asset settings.
type StaticConfig struct {
	// Dir is the root directory for uploaded assets (default: static)
	Dir string `env:"STATIC_DIR" default:"static"`

	// PublicBaseURL is the externally visible origin used for asset links and QR codes
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

// ProxyConfig holds settings for forwarding /api to a separate backend.
type ProxyConfig struct {
	// BackendURL enables proxy mode when set
	BackendURL string `env:"BACKEND_URL"`

	// Timeout bounds each proxied request (default: 45s)
	Timeout time.Duration `env:"PROXY_TIMEOUT" default:"45s"`

	// BreakerFailures is the consecutive failures that open the breaker (default: 5)
	BreakerFailures int `env:"PROXY_BREAKER_FAILURES" default:"5"`

	// BreakerOpenTimeout is how long the breaker stays open (default: 30s)
	BreakerOpenTimeout time.Duration `env:"PROXY_BREAKER_TIMEOUT" default:"30s"`
}

// CatalogConfig points at the cluster/project catalog.
type CatalogConfig struct {
	// File is a YAML catalog; the built-in catalog is used when empty
	File string `env:"CATALOG_FILE"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// ProxyMode reports whether /api is forwarded to a separate backend.
func (c *Config) ProxyMode() bool {
	return c.Proxy.BackendURL != ""
}
