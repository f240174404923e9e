// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// LocalDevBaseURL is the default development base URL. When AppBaseURL equals
// this value it is ignored for email redirect construction and the request
// origin is used instead.
const LocalDevBaseURL = "http://localhost:8080"

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"FLEXIBIO_DB_PATH" envDefault:"./data/flexibio.db"`
	SessionSecret string `env:"FLEXIBIO_SESSION_SECRET,required"`
	ServerHost    string `env:"FLEXIBIO_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"FLEXIBIO_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"FLEXIBIO_ENV" envDefault:"development"`
	LogLevel      string `env:"FLEXIBIO_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"FLEXIBIO_UPLOADS_DIR" envDefault:"./uploads"`

	// AppBaseURL is the canonical public URL of the deployment. It takes
	// precedence when building magic-link and password-reset redirect URLs,
	// unless it still carries the local development default.
	AppBaseURL string `env:"FLEXIBIO_APP_URL"`

	// Cache configuration
	RedisURL    string `env:"FLEXIBIO_REDIS_URL"`                           // Optional Redis URL for the public page cache
	CachePrefix string `env:"FLEXIBIO_CACHE_PREFIX" envDefault:"flexibio:"` // Redis key prefix
	CacheTTL    int    `env:"FLEXIBIO_CACHE_TTL" envDefault:"300"`          // Public page cache TTL in seconds

	// SMTP configuration for magic-link and password-reset mail.
	// When SMTPHost is empty, outgoing mail is written to the log instead.
	SMTPHost string `env:"FLEXIBIO_SMTP_HOST"`
	SMTPPort int    `env:"FLEXIBIO_SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"FLEXIBIO_SMTP_USER"`
	SMTPPass string `env:"FLEXIBIO_SMTP_PASS"`
	SMTPFrom string `env:"FLEXIBIO_SMTP_FROM" envDefault:"no-reply@localhost"`

	// GeoIP configuration
	GeoIPDBPath string `env:"FLEXIBIO_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// OpenAI configuration for the optional SEO description suggester.
	OpenAIAPIKey string `env:"FLEXIBIO_OPENAI_API_KEY"`

	// Seeding configuration. SeedAdminEmail/SeedAdminPassword create the
	// initial super_admin on first run when the allow-list is empty.
	SeedAdminEmail    string `env:"FLEXIBIO_SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `env:"FLEXIBIO_SEED_ADMIN_PASSWORD"`
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

// GeoIPEnabled returns true if a GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// SMTPEnabled returns true if outgoing mail is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// SuggestEnabled returns true if the SEO suggestion service is configured.
func (c Config) SuggestEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("FLEXIBIO_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("FLEXIBIO_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("FLEXIBIO_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	cfg.AppBaseURL = strings.TrimSuffix(cfg.AppBaseURL, "/")

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
