package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks variables; viper treats empty values as unset.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "PORT", "STORE", "TIMEZONE", "JWT_TTL", "HTTP_TIMEOUT", "USDA_API_KEY",
		"AWS_REGION", "S3_REGION", "REKOGNITION_ENABLED",
		"DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PORT", "DB_SSLMODE")
	t.Setenv("JWT_SECRET", "s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "DEMO_KEY", cfg.USDAAPIKey)
	assert.Equal(t, cfg.AWSRegion, cfg.S3Region)
	assert.False(t, cfg.RecognitionEnabled)
	assert.Equal(t, "host=localhost user=postgres password= dbname=proteinid port=5432 sslmode=disable", cfg.DSN())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Vilnius", loc.String())
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nSTORE=Memory\nHTTP_TIMEOUT=3s\nREKOGNITION_ENABLED=true\n"), 0o600))
	for _, k := range []string{"JWT_SECRET", "STORE", "HTTP_TIMEOUT", "REKOGNITION_ENABLED"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.RecognitionEnabled)
}

func TestLoadRejects(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("JWT_SECRET", "")
	_, err := Load(missing)
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s")
	t.Setenv("STORE", "redis")
	_, err = Load(missing)
	assert.Error(t, err)

	t.Setenv("STORE", "memory")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = Load(missing)
	assert.Error(t, err)
}
