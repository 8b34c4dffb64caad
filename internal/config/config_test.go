package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "file:chat.db?cache=shared&mode=rwc", cfg.Database.DSN)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenExpiry)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
	assert.Equal(t, int64(16<<20), cfg.Storage.MaxUploadSize)
	assert.False(t, cfg.Seed.Enable)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := `{
		"server": {"port": 9090, "host": "0.0.0.0"},
		"database": {"dsn": "file:test.db"},
		"jwt": {"secret": "file-secret"},
		"storage": {"upload_dir": "/data/uploads"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, "/data/uploads", cfg.Storage.UploadDir)

	// Unset sections keep defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, int64(16<<20), cfg.Storage.MaxUploadSize)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"relative path", "config.json"},
		{"missing file", "/nonexistent/config.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("UPLOAD_DIR", "/tmp/uploads")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "/tmp/uploads", cfg.Storage.UploadDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnvInvalidPortIgnored(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, 8080, cfg.Server.Port)
}
