package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sightlinehq/sightline/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMergesDefaults(t *testing.T) {
	path := writeConfig(t, `
version: 1
server:
  url: http://pulse.local:7655
  token: abc123
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://pulse.local:7655", cfg.Server.URL)
	assert.Equal(t, "abc123", cfg.Server.Token)
	assert.Equal(t, 30*time.Second, cfg.Charts.Refresh)
	assert.Equal(t, "1h", cfg.Charts.DefaultRange)
	assert.Equal(t, 500, cfg.Charts.MaxPoints)
	assert.Equal(t, 5*time.Minute, cfg.Chat.IdleCeiling)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
version: 1
server:
  url: https://monitor.example.com
charts:
  refresh: 10s
  default_range: 24h
  max_points: 200
chat:
  idle_ceiling: 2m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Charts.Refresh)
	assert.Equal(t, "24h", cfg.Charts.DefaultRange)
	assert.Equal(t, 200, cfg.Charts.MaxPoints)
	assert.Equal(t, 2*time.Minute, cfg.Chat.IdleCeiling)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestValidateRejectsFutureVersion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = CurrentConfigVersion + 1

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "future")
}

func TestValidateRejectsBadURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.URL = "not-a-url"

	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestValidateRejectsUnknownRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Charts.DefaultRange = "3w"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3w")
}

func TestValidateRejectsAggressiveRefresh(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Charts.Refresh = 100 * time.Millisecond

	err := Validate(cfg)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.URL = "http://10.0.0.5:7655"
	cfg.Server.Token = "tok"
	cfg.Charts.DefaultRange = "12h"

	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "token-bearing file stays private")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.URL, loaded.Server.URL)
	assert.Equal(t, cfg.Server.Token, loaded.Server.Token)
	assert.Equal(t, "12h", loaded.Charts.DefaultRange)
}

func TestFindExplicitMissing(t *testing.T) {
	_, err := Find(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadOrDefaultWithoutConfig(t *testing.T) {
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(oldWd)
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.URL, cfg.Server.URL)
}
