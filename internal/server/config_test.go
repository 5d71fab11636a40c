package server

import (
	"testing"
	"time"
)

// TestNewConfigDefaults verifies the default configuration values.
func TestNewConfigDefaults(t *testing.T) {
	config := NewConfig()

	if config == nil {
		t.Fatal("NewConfig returned nil")
	}
	if config.Port != ":8080" {
		t.Errorf("Port = %q, want :8080", config.Port)
	}
	if config.MaxMessageSize != 4096 {
		t.Errorf("MaxMessageSize = %d, want 4096", config.MaxMessageSize)
	}
	if config.StaticDir != "" {
		t.Errorf("StaticDir = %q, want empty", config.StaticDir)
	}
	if config.RateLimit.Burst != 10 {
		t.Errorf("RateLimit.Burst = %d, want 10", config.RateLimit.Burst)
	}
	if config.RateLimit.RefillInterval != time.Second {
		t.Errorf("RateLimit.RefillInterval = %v, want 1s", config.RateLimit.RefillInterval)
	}
}

// TestNewConfigFromEnv verifies that environment variables override the
// defaults and that unparseable values fall back.
func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "https://chat.example.com, https://example.com")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("STATIC_DIR", "front")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2")

	config := NewConfigFromEnv()

	if config.Port != ":9090" {
		t.Errorf("Port = %q, want :9090", config.Port)
	}
	if len(config.AllowedOrigins) != 2 || config.AllowedOrigins[0] != "https://chat.example.com" {
		t.Errorf("AllowedOrigins = %v", config.AllowedOrigins)
	}
	if config.MaxMessageSize != 1024 {
		t.Errorf("MaxMessageSize = %d, want 1024", config.MaxMessageSize)
	}
	if config.StaticDir != "front" {
		t.Errorf("StaticDir = %q, want front", config.StaticDir)
	}
	if config.RateLimit.Burst != 3 {
		t.Errorf("RateLimit.Burst = %d, want 3", config.RateLimit.Burst)
	}
	if config.RateLimit.RefillInterval != 2*time.Second {
		t.Errorf("RateLimit.RefillInterval = %v, want 2s", config.RateLimit.RefillInterval)
	}
}

// TestNewConfigFromEnvInvalidValues verifies that malformed numeric values
// are ignored in favor of the defaults.
func TestNewConfigFromEnvInvalidValues(t *testing.T) {
	t.Setenv("MAX_MESSAGE_SIZE", "not-a-number")
	t.Setenv("RATE_LIMIT_BURST", "-5")

	config := NewConfigFromEnv()

	if config.MaxMessageSize != 4096 {
		t.Errorf("MaxMessageSize = %d, want default 4096", config.MaxMessageSize)
	}
	if config.RateLimit.Burst != 10 {
		t.Errorf("RateLimit.Burst = %d, want default 10", config.RateLimit.Burst)
	}
}

// TestSetConfigSanitizes verifies that zero values are replaced by safe
// defaults when a configuration is applied.
func TestSetConfigSanitizes(t *testing.T) {
	defer SetConfig(nil)

	SetConfig(&Config{})

	applied := currentConfig()
	if applied.Port != ":8080" {
		t.Errorf("Port = %q, want :8080", applied.Port)
	}
	if applied.MaxMessageSize != 4096 {
		t.Errorf("MaxMessageSize = %d, want 4096", applied.MaxMessageSize)
	}
	if applied.RateLimit.Burst != 10 {
		t.Errorf("RateLimit.Burst = %d, want 10", applied.RateLimit.Burst)
	}
}
