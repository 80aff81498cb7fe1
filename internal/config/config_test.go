package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "columnar.db"), cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Empty(t, cfg.BackupBucket)
	assert.Empty(t, cfg.SourcesBaseURL)
	assert.Equal(t, 30, cfg.FetchRPM)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("DATABASE_URL", "/tmp/other.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("SOURCES_BASE_URL", "https://drops.example.com/smartmoney")
	t.Setenv("FETCH_DAILY_LIMIT", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "https://drops.example.com/smartmoney", cfg.SourcesBaseURL)
	assert.Equal(t, 500, cfg.FetchDailyLimit)
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 42, getEnvAsInt("SOME_INT", 42))
}
