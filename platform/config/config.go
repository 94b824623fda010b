// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetShutdownTimeout() time.Duration
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetSchedulerConcurrency() int
	GetAsynqQueueName() string
}

// IntegrationConfig provides settings shared by every provider adapter.
type IntegrationConfig interface {
	GetExternalTimeout() time.Duration
	GetExternalRetryBackoff() time.Duration
	GetCredentialMasterKey() []byte
	GetDefaultLocale() string
}

// LookupConfig provides settings for the callback-driven lookup flow.
type LookupConfig interface {
	GetPublicBaseURL() string
	GetLookupCallbackSecret() string
	GetLookupExpiry() time.Duration
	GetLookupSweepInterval() time.Duration
}

// ArchiveConfig provides settings for archiving raw provider callbacks.
type ArchiveConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOBucketCallbacks() string
	IsArchiveEnabled() bool
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig interface {
	IsMetricsEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env             string
	HTTPAddr        string
	DatabaseURL     string
	JWTAccessSecret string
	CORSAllowAll    bool
	CORSOrigins     []string
	CORSAllowCreds  bool
	ShutdownTimeout time.Duration

	RedisURL             string
	RedisTLSInsecure     bool
	SchedulerConcurrency int
	AsynqQueueName       string

	ExternalTimeout      time.Duration
	ExternalRetryBackoff time.Duration
	CredentialMasterKey  []byte
	DefaultLocale        string

	PublicBaseURL        string
	LookupCallbackSecret string
	LookupExpiry         time.Duration
	LookupSweepInterval  time.Duration

	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinIOBucketCallbacks string

	MetricsEnabled bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string               { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool             { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string          { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool           { return c.CORSAllowCreds }
func (c *Config) GetShutdownTimeout() time.Duration { return c.ShutdownTimeout }

func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool    { return c.RedisTLSInsecure }
func (c *Config) GetSchedulerConcurrency() int { return c.SchedulerConcurrency }
func (c *Config) GetAsynqQueueName() string    { return c.AsynqQueueName }

func (c *Config) GetExternalTimeout() time.Duration      { return c.ExternalTimeout }
func (c *Config) GetExternalRetryBackoff() time.Duration { return c.ExternalRetryBackoff }
func (c *Config) GetCredentialMasterKey() []byte         { return c.CredentialMasterKey }
func (c *Config) GetDefaultLocale() string               { return c.DefaultLocale }

func (c *Config) GetPublicBaseURL() string              { return c.PublicBaseURL }
func (c *Config) GetLookupCallbackSecret() string       { return c.LookupCallbackSecret }
func (c *Config) GetLookupExpiry() time.Duration        { return c.LookupExpiry }
func (c *Config) GetLookupSweepInterval() time.Duration { return c.LookupSweepInterval }

func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinIOBucketCallbacks() string { return c.MinIOBucketCallbacks }
func (c *Config) IsArchiveEnabled() bool          { return c.MinIOEndpoint != "" }

func (c *Config) IsMetricsEnabled() bool { return c.MetricsEnabled }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load()
}

func load() (*Config, error) {
	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		ShutdownTimeout:      mustDuration(getEnv("HTTP_SHUTDOWN_TIMEOUT", "15s")),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		SchedulerConcurrency: mustInt(getEnv("SCHEDULER_CONCURRENCY", "10")),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		ExternalTimeout:      mustDuration(getEnv("EXTERNAL_TIMEOUT", "10s")),
		ExternalRetryBackoff: mustDuration(getEnv("EXTERNAL_RETRY_BACKOFF", "500ms")),
		DefaultLocale:        getEnv("DEFAULT_LOCALE", "pt-BR"),
		PublicBaseURL:        strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		LookupCallbackSecret: getEnv("LOOKUP_CALLBACK_SECRET", ""),
		LookupExpiry:         mustDuration(getEnv("LOOKUP_EXPIRY", "1h")),
		LookupSweepInterval:  mustDuration(getEnv("LOOKUP_SWEEP_INTERVAL", "5m")),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOBucketCallbacks: getEnv("MINIO_BUCKET_CALLBACKS", "provider-callbacks"),
		MetricsEnabled:       strings.EqualFold(getEnv("METRICS_ENABLED", "true"), "true"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.LookupCallbackSecret == "" {
		return nil, fmt.Errorf("LOOKUP_CALLBACK_SECRET is required")
	}
	key, err := parseMasterKey(getEnv("CREDENTIAL_ENCRYPTION_KEY", ""))
	if err != nil {
		return nil, err
	}
	cfg.CredentialMasterKey = key
	if cfg.ExternalTimeout <= 0 {
		return nil, fmt.Errorf("EXTERNAL_TIMEOUT must be a positive duration")
	}
	if cfg.ExternalRetryBackoff < 0 {
		return nil, fmt.Errorf("EXTERNAL_RETRY_BACKOFF must not be negative")
	}
	if cfg.LookupExpiry <= 0 || cfg.LookupSweepInterval <= 0 {
		return nil, fmt.Errorf("LOOKUP_EXPIRY and LOOKUP_SWEEP_INTERVAL must be positive durations")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// parseMasterKey accepts a 64-char hex string (32 bytes).
func parseMasterKey(value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("CREDENTIAL_ENCRYPTION_KEY is required")
	}
	key, err := hex.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("CREDENTIAL_ENCRYPTION_KEY must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("CREDENTIAL_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
