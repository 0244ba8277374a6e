// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"PILGRIM_DB_PATH" envDefault:"./data/pilgrim.db"`
	SessionSecret string `env:"PILGRIM_SESSION_SECRET,required"`
	ServerHost    string `env:"PILGRIM_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"PILGRIM_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"PILGRIM_ENV" envDefault:"development"`
	LogLevel      string `env:"PILGRIM_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"PILGRIM_UPLOADS_DIR" envDefault:"./uploads"`
	BaseURL       string `env:"PILGRIM_BASE_URL" envDefault:"http://localhost:8080"`
	FrontendURL   string `env:"PILGRIM_FRONTEND_URL" envDefault:"http://localhost:5173"`

	// Cache configuration
	RedisURL    string `env:"PILGRIM_REDIS_URL"` // Optional Redis URL for distributed caching
	CachePrefix string `env:"PILGRIM_CACHE_PREFIX" envDefault:"pilgrim:"`
	CacheTTL    int    `env:"PILGRIM_CACHE_TTL" envDefault:"300"` // Seconds

	// Stripe configuration. When the secret key or webhook secret is absent,
	// checkout and webhook endpoints respond 503 instead of failing at boot.
	StripeSecretKey     string `env:"PILGRIM_STRIPE_SECRET_KEY"`
	StripePublicKey     string `env:"PILGRIM_STRIPE_PUBLIC_KEY"`
	StripeWebhookSecret string `env:"PILGRIM_STRIPE_WEBHOOK_SECRET"`

	// SMTP configuration for outbound notifications (optional).
	SMTPHost string `env:"PILGRIM_SMTP_HOST"`
	SMTPPort int    `env:"PILGRIM_SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"PILGRIM_SMTP_USER"`
	SMTPPass string `env:"PILGRIM_SMTP_PASS"`
	SMTPFrom string `env:"PILGRIM_SMTP_FROM"`
	AdminTo  string `env:"PILGRIM_ADMIN_EMAIL"` // Recipient for contact notifications

	// Object storage for country images (optional; local uploads dir is
	// used as fallback when unset).
	S3Endpoint  string `env:"PILGRIM_S3_ENDPOINT"`
	S3AccessKey string `env:"PILGRIM_S3_ACCESS_KEY"`
	S3SecretKey string `env:"PILGRIM_S3_SECRET_KEY"`
	S3Bucket    string `env:"PILGRIM_S3_BUCKET" envDefault:"pilgrim-media"`
	S3UseSSL    bool   `env:"PILGRIM_S3_USE_SSL" envDefault:"true"`
	S3PublicURL string `env:"PILGRIM_S3_PUBLIC_URL"` // Base URL for serving uploaded objects

	// GeoIP configuration
	GeoIPDBPath string `env:"PILGRIM_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Seeding configuration
	DoSeed bool `env:"PILGRIM_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// StripeEnabled returns true if checkout sessions can be created.
func (c Config) StripeEnabled() bool {
	return c.StripeSecretKey != ""
}

// WebhookEnabled returns true if inbound Stripe webhooks can be verified.
func (c Config) WebhookEnabled() bool {
	return c.StripeWebhookSecret != ""
}

// SMTPEnabled returns true if outbound email is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// S3Enabled returns true if object storage is configured.
func (c Config) S3Enabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// GeoIPEnabled returns true if the GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("PILGRIM_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("PILGRIM_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("PILGRIM_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
