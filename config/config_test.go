package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{
		"PORT", "APP_ENV", "CORS_ORIGINS", "STORE_BACKEND", "JWT_SECRET", "JWT_TTL",
		"STORAGE_BACKEND", "AZURE_STORAGE_CONNECTION_STRING", "AZURE_STORAGE_ACCOUNT_URL",
		"REDIS_URL", "RATE_LIMIT_RPS",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	for key, value := range env {
		t.Setenv(key, value)
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{"JWT_SECRET": "secret"})

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "mongo", cfg.StoreBackend)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, 168*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:5174"}, cfg.CORSOrigins)
	assert.Equal(t, "@every 1h", cfg.JobRatingReconcile)
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"JWT_SECRET":     "secret",
		"PORT":           "9000",
		"APP_ENV":        "production",
		"STORE_BACKEND":  "memory",
		"JWT_TTL":        "2h",
		"CORS_ORIGINS":   "https://messmate.app;https://admin.messmate.app",
		"RATE_LIMIT_RPS": "0.5",
	})

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://messmate.app", "https://admin.messmate.app"}, cfg.CORSOrigins)
	assert.InDelta(t, 0.5, cfg.RateLimitRPS, 1e-9)
}

func TestLoadReadsEnvFile(t *testing.T) {
	setEnv(t, nil)
	t.Cleanup(func() { _ = os.Unsetenv("JWT_SECRET") })

	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("JWT_SECRET=from-file\nSTORE_BACKEND=memory\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "memory", cfg.StoreBackend)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"unknown store", map[string]string{"JWT_SECRET": "s", "STORE_BACKEND": "postgres"}},
		{"unknown storage", map[string]string{"JWT_SECRET": "s", "STORAGE_BACKEND": "s3"}},
		{"azure without credentials", map[string]string{"JWT_SECRET": "s", "STORAGE_BACKEND": "azure"}},
		{"non-positive ttl", map[string]string{"JWT_SECRET": "s", "JWT_TTL": "-1h"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("MESSMATE_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("MESSMATE_TEST_KEY", "fallback"))

	t.Setenv("MESSMATE_TEST_KEY", "")
	assert.Equal(t, "fallback", GetEnv("MESSMATE_TEST_KEY", "fallback"))
}
