package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origHost := os.Getenv("DB_HOST")
	defer os.Setenv("DB_HOST", origHost)

	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")
	os.Setenv("ANALYZER_URL", "http://extractor:9000")
	defer os.Unsetenv("DB_MAX_OPEN_CONNS")
	defer os.Unsetenv("MINIO_USE_SSL")
	defer os.Unsetenv("ANALYZER_URL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "http://extractor:9000", cfg.Analyzer.URL)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "CORS_ORIGINS", "MAX_UPLOAD_MB", "DB_PORT", "SMTP_PORT", "ANALYZER_TIMEOUT_SEC"} {
		orig := os.Getenv(key)
		os.Unsetenv(key)
		defer os.Setenv(key, orig)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "*", cfg.CORSOrigins)
	assert.Equal(t, 100, cfg.MaxUploadMB)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 30, cfg.Analyzer.TimeoutSec)
	// Analysis is off until an extractor is configured.
	assert.Empty(t, cfg.Analyzer.URL)
}

func TestLoadAuthSecret(t *testing.T) {
	orig := os.Getenv("AUTH_SECRET")
	defer os.Setenv("AUTH_SECRET", orig)

	os.Setenv("AUTH_SECRET", "clinic-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "clinic-secret", cfg.AuthSecret)
}
