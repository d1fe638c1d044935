package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Session.TimeoutMinutes)
	assert.NotEmpty(t, cfg.Database.Path)
	assert.NotEmpty(t, cfg.Logging.File)
}

func TestLoader_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ovenline.json")
	content := `{
		"data_dir": "` + dir + `",
		"session": {"timeout_minutes": 15, "max_concurrent_calls": 40, "cleanup_schedule": "@every 1m"},
		"redis": {"enabled": true, "url": "redis://cache:6379"}
	}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := NewLoader(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Session.TimeoutMinutes)
	assert.Equal(t, 40, cfg.Session.MaxConcurrentCalls)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis://cache:6379", cfg.Redis.URL)
	assert.Equal(t, filepath.Join(dir, "ovenline.db"), cfg.Database.Path)
}

func TestLoader_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ovenline.json")
	content := `{"session": {"timeout_minutes": 0, "max_concurrent_calls": 20, "cleanup_schedule": "@every 1m"}}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	_, err := NewLoader(configPath).Load()
	assert.Error(t, err)
}
