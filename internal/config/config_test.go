package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, ":8080", cfg.Server.Addr())
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, "http://localhost:8080", cfg.Dashboard.APIURL)
		assert.Equal(t, 4*time.Second, cfg.Dashboard.PollInterval)
		assert.Equal(t, 10*time.Second, cfg.Dashboard.RequestTimeout)
		assert.Zero(t, cfg.Dashboard.RateLimit)
		assert.Equal(t, time.Second, cfg.Publisher.Interval)
		assert.Equal(t, 100, cfg.Publisher.BatchSize)
		assert.Equal(t, int32(10), cfg.Database.MaxConns)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, ":8081", cfg.Metrics.Addr)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.False(t, cfg.Memory)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("JOBDASH_DASHBOARD_POLL_INTERVAL", "2s")
		t.Setenv("JOBDASH_LOGGING_LEVEL", "debug")
		t.Setenv("JOBDASH_MEMORY", "true")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.Dashboard.PollInterval)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.True(t, cfg.Memory)
	})

	t.Run("LegacyEnv", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://legacy/jobs")
		t.Setenv("API_URL", "http://api:8080/jobs")
		t.Setenv("RATE_PER_SEC", "20")
		t.Setenv("CONCURRENCY", "4")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "postgres://legacy/jobs", cfg.Database.URL)
		assert.Equal(t, "http://api:8080", cfg.Dashboard.APIURL)
		assert.Equal(t, 20, cfg.Simulator.RatePerSec)
		assert.Equal(t, 4, cfg.Simulator.Concurrency)
	})

	t.Run("PrefixedEnvBeatsLegacy", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://legacy/jobs")
		t.Setenv("JOBDASH_DATABASE_URL", "postgres://new/jobs")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "postgres://new/jobs", cfg.Database.URL)
	})

	t.Run("RuntimeOverridesBeatEnv", func(t *testing.T) {
		t.Setenv("JOBDASH_DASHBOARD_API_URL", "http://env:8080")

		cfg, err := Load("", map[string]any{
			"dashboard": map[string]any{
				"api_url":       "http://flag:9000/",
				"poll_interval": "500ms",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "http://flag:9000", cfg.Dashboard.APIURL)
		assert.Equal(t, 500*time.Millisecond, cfg.Dashboard.PollInterval)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "jobdash.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
dashboard:
  rate_limit: 5
logging:
  level: warn
`), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 5.0, cfg.Dashboard.RateLimit)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("MissingConfigFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := Load("", map[string]any{"dashboard": map[string]any{"poll_interval": "0s"}})
		require.ErrorContains(t, err, "poll_interval")
	})
}

func TestFlatten(t *testing.T) {
	got := flatten("", map[string]any{
		"memory": true,
		"server": map[string]any{"port": 1, "nested": map[string]any{"x": "y"}},
	})
	assert.Equal(t, map[string]any{
		"memory":          true,
		"server.port":     1,
		"server.nested.x": "y",
	}, got)
}
