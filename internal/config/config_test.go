package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RELIGHT_TOKEN_SIGNING_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.MaxUploadBytes)
	assert.Equal(t, "test-key", cfg.TokenSigningKey)
	assert.GreaterOrEqual(t, cfg.WorkerCount, 1)
}

func TestLoad_MissingSigningKey(t *testing.T) {
	// The all-zero/absent key must be a startup failure, never a default
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token_signing_key")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RELIGHT_TOKEN_SIGNING_KEY", "test-key")
	t.Setenv("RELIGHT_LISTEN_ADDR", "127.0.0.1:8080")
	t.Setenv("RELIGHT_SESSION_TTL", "1h")
	t.Setenv("RELIGHT_WORKER_COUNT", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.WorkerCount)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relight.yaml")

	content := []byte("listen_addr: \":9000\"\ntoken_signing_key: file-key\nsession_ttl: 2h\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "file-key", cfg.TokenSigningKey)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero ttl", key: "RELIGHT_SESSION_TTL", value: "0"},
		{name: "zero upload cap", key: "RELIGHT_MAX_UPLOAD_BYTES", value: "0"},
		{name: "zero workers", key: "RELIGHT_WORKER_COUNT", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RELIGHT_TOKEN_SIGNING_KEY", "test-key")
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("RELIGHT_TOKEN_SIGNING_KEY", "test-key")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
