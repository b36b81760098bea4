// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"net/http"
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

// RedisConfig provides Redis connection settings for the role cache and sessions.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// IdentityProviderConfig provides settings for the federated identity provider.
type IdentityProviderConfig interface {
	GetIdentityProviderBaseURL() string
	GetIdentityProviderAPIKey() string
	GetIdentityProviderTimeout() time.Duration
}

// BusinessAPIConfig provides settings for the business API adapter.
type BusinessAPIConfig interface {
	GetBusinessAPIBaseURL() string
	GetBusinessAPIToken() string
	GetBusinessAPITimeout() time.Duration
}

// SessionConfig provides settings for the session store and cookie.
type SessionConfig interface {
	GetSessionCookieName() string
	GetSessionCookieDomain() string
	GetSessionCookieSecure() bool
	GetSessionCookieSameSite() http.SameSite
	GetSessionTTL() time.Duration
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetOperatorEmail() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketAvatars() string
	GetMinIOPublicBaseURL() string
	IsMinIOEnabled() bool
}

// SchedulerConfig provides settings for the asynq background worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// AuditConfig provides settings for the auth audit trail.
type AuditConfig interface {
	GetAuditRetention() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	DatabaseURL             string
	RedisURL                string
	RedisTLSInsecure        bool
	IdentityProviderBaseURL string
	IdentityProviderAPIKey  string
	IdentityProviderTimeout time.Duration
	BusinessAPIBaseURL      string
	BusinessAPIToken        string
	BusinessAPITimeout      time.Duration
	SessionCookieName       string
	SessionCookieDomain     string
	SessionCookieSecure     bool
	SessionCookieSameSite   http.SameSite
	SessionTTL              time.Duration
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	AppBaseURL              string
	EmailEnabled            bool
	SMTPHost                string
	SMTPPort                int
	SMTPUsername            string
	SMTPPassword            string
	EmailFromName           string
	EmailFromAddress        string
	OperatorEmail           string
	MinIOEndpoint           string
	MinIOAccessKey          string
	MinIOSecretKey          string
	MinIOUseSSL             bool
	MinIOMaxFileSize        int64
	MinioBucketAvatars      string
	MinIOPublicBaseURL      string
	AsynqQueueName          string
	AsynqConcurrency        int
	AuditRetention          time.Duration
}

// Load reads configuration from the environment (and .env when present)
// and validates the required values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	env := getEnv("APP_ENV", "development")

	sessionCookieSecure := strings.EqualFold(getEnv("SESSION_COOKIE_SECURE", ""), "true")
	if getEnv("SESSION_COOKIE_SECURE", "") == "" {
		sessionCookieSecure = strings.EqualFold(env, "production")
	}

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true")

	cfg := &Config{
		Env:                     env,
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		RedisURL:                getEnv("REDIS_URL", ""),
		RedisTLSInsecure:        strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		IdentityProviderBaseURL: getEnv("IDP_BASE_URL", "https://identitytoolkit.googleapis.com"),
		IdentityProviderAPIKey:  getEnv("IDP_API_KEY", ""),
		IdentityProviderTimeout: mustDuration(getEnv("IDP_TIMEOUT", "10s")),
		BusinessAPIBaseURL:      getEnv("BUSINESS_API_BASE_URL", ""),
		BusinessAPIToken:        getEnv("BUSINESS_API_TOKEN", ""),
		BusinessAPITimeout:      mustDuration(getEnv("BUSINESS_API_TIMEOUT", "10s")),
		SessionCookieName:       getEnv("SESSION_COOKIE_NAME", "barberia_session"),
		SessionCookieDomain:     getEnv("SESSION_COOKIE_DOMAIN", ""),
		SessionCookieSecure:     sessionCookieSecure,
		SessionCookieSameSite:   parseSameSite(getEnv("SESSION_COOKIE_SAMESITE", "Lax")),
		SessionTTL:              mustDuration(getEnv("SESSION_TTL", "720h")),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:              getEnv("APP_BASE_URL", "http://localhost:5173"),
		EmailEnabled:            emailEnabled,
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:            getEnv("SMTP_USERNAME", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		EmailFromName:           getEnv("EMAIL_FROM_NAME", "Barberia"),
		EmailFromAddress:        getEnv("EMAIL_FROM_ADDRESS", ""),
		OperatorEmail:           getEnv("OPERATOR_EMAIL", ""),
		MinIOEndpoint:           getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:          getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:          getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:             strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:        mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "5242880")),
		MinioBucketAvatars:      getEnv("MINIO_BUCKET_AVATARS", "avatars"),
		MinIOPublicBaseURL:      getEnv("MINIO_PUBLIC_BASE_URL", ""),
		AsynqQueueName:          getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:        mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		AuditRetention:          mustDuration(getEnv("AUDIT_RETENTION", "2160h")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.IdentityProviderAPIKey == "" {
		return nil, fmt.Errorf("IDP_API_KEY is required")
	}
	if cfg.BusinessAPIBaseURL == "" {
		return nil, fmt.Errorf("BUSINESS_API_BASE_URL is required")
	}
	if cfg.EmailEnabled && (cfg.SMTPHost == "" || cfg.EmailFromAddress == "") {
		return nil, fmt.Errorf("SMTP_HOST and EMAIL_FROM_ADDRESS are required when EMAIL_ENABLED is true")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// =============================================================================
// Interface Implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

func (c *Config) GetIdentityProviderBaseURL() string        { return c.IdentityProviderBaseURL }
func (c *Config) GetIdentityProviderAPIKey() string         { return c.IdentityProviderAPIKey }
func (c *Config) GetIdentityProviderTimeout() time.Duration { return c.IdentityProviderTimeout }

func (c *Config) GetBusinessAPIBaseURL() string        { return c.BusinessAPIBaseURL }
func (c *Config) GetBusinessAPIToken() string          { return c.BusinessAPIToken }
func (c *Config) GetBusinessAPITimeout() time.Duration { return c.BusinessAPITimeout }

func (c *Config) GetSessionCookieName() string             { return c.SessionCookieName }
func (c *Config) GetSessionCookieDomain() string           { return c.SessionCookieDomain }
func (c *Config) GetSessionCookieSecure() bool             { return c.SessionCookieSecure }
func (c *Config) GetSessionCookieSameSite() http.SameSite  { return c.SessionCookieSameSite }
func (c *Config) GetSessionTTL() time.Duration             { return c.SessionTTL }

func (c *Config) GetEmailEnabled() bool      { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string   { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetOperatorEmail() string   { return c.OperatorEmail }

func (c *Config) GetHTTPAddr() string       { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool     { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string  { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool   { return c.CORSAllowCreds }

func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64    { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketAvatars() string { return c.MinioBucketAvatars }
func (c *Config) GetMinIOPublicBaseURL() string { return c.MinIOPublicBaseURL }

func (c *Config) IsMinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetAuditRetention() time.Duration { return c.AuditRetention }

// GetAppBaseURL returns the public base URL of the frontend application.
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// =============================================================================
// Helpers
// =============================================================================

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
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustInt64(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
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

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}
