package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "FLEXIBIO_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/flexibio.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/flexibio.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.UploadsDir != "./uploads" {
		t.Errorf("UploadsDir = %q, want %q", cfg.UploadsDir, "./uploads")
	}
	if cfg.CacheTTL != 300 {
		t.Errorf("CacheTTL = %d, want %d", cfg.CacheTTL, 300)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-secret-key-32-bytes-long!"
	setEnv(t, "FLEXIBIO_SESSION_SECRET", customSecret)
	setEnv(t, "FLEXIBIO_DB_PATH", "/custom/path.db")
	setEnv(t, "FLEXIBIO_SERVER_HOST", "0.0.0.0")
	setEnv(t, "FLEXIBIO_SERVER_PORT", "3000")
	setEnv(t, "FLEXIBIO_ENV", "production")
	setEnv(t, "FLEXIBIO_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.SessionSecret != customSecret {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerHost != "0.0.0.0" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "0.0.0.0")
	}
	if cfg.ServerPort != 3000 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 3000)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want %q", cfg.Env, "production")
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when FLEXIBIO_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "FLEXIBIO_SESSION_SECRET", tt.secret)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() should fail with %d-byte secret", len(tt.secret))
			}
		})
	}
}

func TestLoad_KnownWeakSecretRejected(t *testing.T) {
	for _, weak := range knownWeakSecrets {
		os.Clearenv()
		setEnv(t, "FLEXIBIO_SESSION_SECRET", weak)

		_, err := Load()
		if err == nil {
			t.Errorf("Load() should reject known weak secret %q", weak)
		}
	}
}

func TestLoad_AppBaseURLTrailingSlash(t *testing.T) {
	os.Clearenv()
	setEnv(t, "FLEXIBIO_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")
	setEnv(t, "FLEXIBIO_APP_URL", "https://links.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AppBaseURL != "https://links.example.com" {
		t.Errorf("AppBaseURL = %q, want trailing slash stripped", cfg.AppBaseURL)
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"production", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := Config{Env: tt.env}
			if got := cfg.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_ServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 8080, "localhost:8080"},
		{"0.0.0.0", 3000, "0.0.0.0:3000"},
		{"127.0.0.1", 443, "127.0.0.1:443"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := Config{ServerHost: tt.host, ServerPort: tt.port}
			if got := cfg.ServerAddr(); got != tt.want {
				t.Errorf("ServerAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_FeatureToggles(t *testing.T) {
	var cfg Config
	if cfg.UseRedisCache() || cfg.GeoIPEnabled() || cfg.SMTPEnabled() || cfg.SuggestEnabled() {
		t.Error("empty config should have all optional features disabled")
	}

	cfg = Config{
		RedisURL:     "redis://localhost:6379/0",
		GeoIPDBPath:  "/path/to/GeoLite2-Country.mmdb",
		SMTPHost:     "smtp.example.com",
		OpenAIAPIKey: "sk-test",
	}
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache() = false with Redis URL set")
	}
	if !cfg.GeoIPEnabled() {
		t.Error("GeoIPEnabled() = false with database path set")
	}
	if !cfg.SMTPEnabled() {
		t.Error("SMTPEnabled() = false with SMTP host set")
	}
	if !cfg.SuggestEnabled() {
		t.Error("SuggestEnabled() = false with API key set")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   bool
	}{
		{"three_classes", "abcDEF123abcDEF123abcDEF123abcDE", true},
		{"four_classes", "abcDEF123!@#abcDEF123!@#abcDEF12", true},
		{"lowercase_only", "abcdefghijklmnopqrstuvwxyzabcdef", false},
		{"two_classes", "abcdefghijklmnop1234567890123456", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasMinimumEntropy(tt.secret); got != tt.want {
				t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
			}
		})
	}
}
