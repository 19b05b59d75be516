package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/casefile/internal/config"
)

const base = `
shutdown_timeout = "20s"

[server]
port = 9090

[database]
name = "casefile"
user = "casefile"

[storage]
signing_secret = "blob-secret"

[versions]
max_file_size = "10MB"
allowed_extensions = [".pdf"]
allowed_content_types = ["application/pdf"]

[batch]
concurrency = 4

[auth.roles]
clerk = ["read", "upload"]
`

const overlay = `
[server]
port = 9191

[versions]
store = "memory"

[batch]
max_files = 5
`

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoad_BaseOnly(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, base)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/api", cfg.Server.BasePath)
	assert.Equal(t, 20*time.Second, cfg.ShutdownTimeoutDuration())
	assert.Equal(t, int64(10_000_000), cfg.Versions.Policy().MaxSize)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, 20, cfg.Batch.MaxFiles)
	assert.Equal(t, "/api/blobs", cfg.Storage.LinkPrefix)
	assert.Equal(t, "casefile", cfg.Logging.Service)
	assert.True(t, cfg.UsesDatabase())
	assert.Contains(t, cfg.Auth.Roles, "clerk")
}

func TestLoad_Overlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, base)
	writeConfig(t, dir, "config.test.toml", overlay)
	t.Setenv(config.EnvServiceEnv, "test")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Batch.MaxFiles)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.False(t, cfg.UsesDatabase())
}

func TestFinalize_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, base)
	t.Setenv(config.EnvServerPort, "7000")
	t.Setenv("BATCH_CONCURRENCY", "2")
	t.Setenv("VERSIONS_STORE", "memory")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Finalize())

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Batch.Concurrency)
	assert.Equal(t, "memory", cfg.Versions.Store)
}

func TestFinalize_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad shutdown timeout", "shutdown_timeout = \"soon\"\n[storage]\nsigning_secret = \"s\"\n[versions]\nstore = \"memory\"\n"},
		{"missing signing secret", "[versions]\nstore = \"memory\"\n"},
		{"missing database name", "[storage]\nsigning_secret = \"s\"\n"},
		{"bad store", "[storage]\nsigning_secret = \"s\"\n[versions]\nstore = \"mongo\"\n"},
		{"short auth secret", "[storage]\nsigning_secret = \"s\"\n[versions]\nstore = \"memory\"\n[auth]\nenabled = true\nsecret = \"x\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, config.BaseConfigFile, tt.body)

			cfg, err := config.Load(dir)
			require.NoError(t, err)
			assert.Error(t, cfg.Finalize())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(t.TempDir())
	assert.Error(t, err)
}
