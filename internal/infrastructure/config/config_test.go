package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/procpipe/internal/spawn"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	// Spawn and stream config
	assert.Equal(t, spawn.StderrPipe, cfg.StderrMode())
	assert.Empty(t, cfg.Spawn.AllowedPrograms)
	assert.Equal(t, 5, cfg.Spawn.ForkFailureThreshold)
	assert.Equal(t, 5*time.Second, cfg.Spawn.ForkCooldown)
	assert.Equal(t, 10*time.Millisecond, cfg.Stream.PollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Stream.MaxBackoff)
	assert.Equal(t, "procpipe", cfg.Metrics.Namespace)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Stream, cfg.Stream)
	assert.Equal(t, Default().Spawn, cfg.Spawn)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                   "9000",
		"HOST":                   "127.0.0.1",
		"LOG_LEVEL":              "debug",
		"LOG_DEV":                "true",
		"RATE_LIMIT_RPS":         "500",
		"RATE_LIMIT_BURST":       "1000",
		"RATE_LIMIT_ENABLED":     "false",
		"SPAWN_STDERR_MODE":      "inherit",
		"SPAWN_ALLOWED_PROGRAMS": "cat,sh",
		"STREAM_POLL_INTERVAL":   "5ms",
		"STREAM_MAX_BACKOFF":     "1s",
		"METRICS_NAMESPACE":      "test",
		"CONFIG_FILE":            "",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, spawn.StderrInherit, cfg.StderrMode())
	assert.Equal(t, []string{"cat", "sh"}, cfg.Spawn.AllowedPrograms)
	assert.Equal(t, 5*time.Millisecond, cfg.Stream.PollInterval)
	assert.Equal(t, time.Second, cfg.Stream.MaxBackoff)
	assert.Equal(t, "test", cfg.Metrics.Namespace)
}

func TestLoadWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procpipe.yaml")
	content := `
server:
  port: "7000"
spawn:
  stderr_mode: inherit
  allowed_programs:
    - cat
stream:
  poll_interval: 20ms
  max_backoff: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HOST", "10.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)

	// File values win, keys absent from the file keep the env value.
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
	assert.Equal(t, spawn.StderrInherit, cfg.StderrMode())
	assert.Equal(t, []string{"cat"}, cfg.Spawn.AllowedPrograms)
	assert.Equal(t, 20*time.Millisecond, cfg.Stream.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Stream.MaxBackoff)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))
		t.Setenv("CONFIG_FILE", path)
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad stderr mode", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("SPAWN_STDERR_MODE", "merge")
		_, err := Load()
		assert.ErrorIs(t, err, spawn.ErrInvalidArgument)

		assert.NotNil(t, LoadOrDefault())
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("STREAM_POLL_INTERVAL", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Stream.MaxBackoff = time.Millisecond
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Stream.PollInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RateLimit.Burst = 0
	assert.Error(t, cfg.Validate())
	cfg.RateLimit.Enabled = false
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Spawn.ForkFailureThreshold = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Spawn.ForkCooldown = 0
	assert.Error(t, cfg.Validate())

	cfg.Spawn.ForkFailureThreshold = 0
	assert.NoError(t, cfg.Validate(), "a disabled guard needs no cooldown")
}
