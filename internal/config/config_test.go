package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadUsesDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "anthropic", cfg.OracleProvider)
	require.Equal(t, "claude-haiku-4-5", cfg.OracleModel)
	require.Equal(t, 2.0, cfg.OracleRPS)
}

func TestLoadReadsTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, `
db-path = "/tmp/custom.db"
log-level = "debug"

[oracle]
model = "claude-sonnet-4-5"
rps = 5.0
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.db", cfg.DBPath)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "claude-sonnet-4-5", cfg.OracleModel)
	require.Equal(t, 5.0, cfg.OracleRPS)
}

func TestLoadFlagOverridesFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, `log-level = "debug"`)

	cfg, err := Load(path, map[string]any{"log-level": "warn"})
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, `log-level = "debug"`)

	t.Setenv("RLM_LOG_LEVEL", "error")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "error", cfg.LogLevel)
}

func TestLoadMissingExplicitPathErrors(t *testing.T) {
	_, err := Load("/no/such/config.toml", nil)
	require.Error(t, err)
}

func TestWriteDefaultFileThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, WriteDefaultFile(path))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "anthropic", cfg.OracleProvider)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
