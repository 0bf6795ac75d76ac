package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "music-samples", cfg.StorageBucket)
	assert.Equal(t, time.Hour, cfg.PresignTTL)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:4173"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PRESIGN_TTL_SECONDS", "600")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("STORAGE_USE_SSL", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 10*time.Minute, cfg.PresignTTL)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.StorageUseSSL)
}

func TestLoadIgnoresBadInt(t *testing.T) {
	t.Setenv("PRESIGN_TTL_SECONDS", "not-a-number")

	cfg := Load()
	assert.Equal(t, time.Hour, cfg.PresignTTL)
}
