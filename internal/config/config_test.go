package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
api:
  base_url: https://api.example.com
  token: ${TUTORCAL_TEST_TOKEN}
  timeout_seconds: 5
  rate_limit_rps: 2.5
  rate_limit_burst: 4
redis:
  enabled: true
  address: localhost:6379
calendar:
  default_view: day
  first_hour: 7
  last_hour: 21
  demo: true
logging:
  level: debug
  format: json
`

func TestLoad(t *testing.T) {
	t.Setenv("TUTORCAL_TEST_TOKEN", "secret-token")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, "secret-token", cfg.API.Token)
	assert.Equal(t, 5*time.Second, cfg.APITimeout())
	rps, burst := cfg.RateLimit()
	assert.Equal(t, 2.5, rps)
	assert.Equal(t, 4, burst)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "day", cfg.Calendar.DefaultView)
	assert.True(t, cfg.Calendar.Demo)
	first, last := cfg.GridHours()
	assert.Equal(t, 7, first)
	assert.Equal(t, 21, last)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://localhost:8000\n"), 0o600))
	t.Setenv(EnvPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte("api:\n  base_url: http://localhost\n"))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.APITimeout())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.Equal(t, time.Minute, cfg.RefreshInterval())
	assert.Equal(t, 100, cfg.PageSize())
	assert.Equal(t, 9090, cfg.MetricsPort())

	rps, burst := cfg.RateLimit()
	assert.Zero(t, rps)
	assert.Equal(t, 1, burst)

	first, last := cfg.GridHours()
	assert.Equal(t, 0, first)
	assert.Equal(t, 23, last)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("api: [unclosed"))
	assert.Error(t, err)

	_, err = Parse([]byte("logging:\n  level: info\n"))
	assert.EqualError(t, err, "api.base_url is required")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
