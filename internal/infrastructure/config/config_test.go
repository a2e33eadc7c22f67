package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4*time.Second, cfg.Executor.CallInterval)
	assert.Equal(t, 30*time.Second, cfg.Executor.LeaseTTL)
	assert.Equal(t, 100, cfg.Plans.Minutes["free"])
	assert.Equal(t, -1, cfg.Plans.Minutes["enterprise"])
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
database:
  url: postgres://dialer@localhost:5432/dialer
  max_open_conns: 10
voice:
  base_url: https://api.voice.example
  api_key: from-file
executor:
  call_interval: 2s
plans:
  minutes:
    pro: 7500
compliance:
  state_windows:
    tx:
      start: "09:00"
      end: "20:00"
`)

	t.Setenv("DIALER_VOICE__API_KEY", "from-env")
	t.Setenv("DIALER_DATABASE__MAX_OPEN_CONNS", "40")
	t.Setenv("DIALER_EXECUTOR__LEASE_TTL", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://dialer@localhost:5432/dialer", cfg.Database.URL)
	assert.Equal(t, 40, cfg.Database.MaxOpenConns, "env wins over file")
	assert.Equal(t, "from-env", cfg.Voice.APIKey)
	assert.Equal(t, 2*time.Second, cfg.Executor.CallInterval)
	assert.Equal(t, time.Minute, cfg.Executor.LeaseTTL)
	assert.Equal(t, 7500, cfg.Plans.Minutes["pro"])
	assert.Equal(t, 100, cfg.Plans.Minutes["free"], "file entries merge with defaults")

	windows, err := cfg.Compliance.Windows()
	require.NoError(t, err)
	assert.Equal(t, values.HourWindow(9, 20), windows["TX"])

	require.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.max_open_conns", envKey("DIALER_DATABASE__MAX_OPEN_CONNS"))
	assert.Equal(t, "log_level", envKey("DIALER_LOG_LEVEL"))
	assert.Equal(t, "redis.dnc_ttl", envKey("DIALER_REDIS__DNC_TTL"))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Defaults()
		cfg.Database.URL = "postgres://localhost/dialer"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing database url", mutate: func(c *Config) { c.Database.URL = "" }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "bad voice url", mutate: func(c *Config) { c.Voice.BaseURL = "not a url" }},
		{name: "sampling out of range", mutate: func(c *Config) { c.Telemetry.SamplingRate = 1.5 }},
		{
			name: "malformed state window",
			mutate: func(c *Config) {
				c.Compliance.StateWindows = map[string]WindowConfig{"CA": {Start: "8am", End: "8pm"}}
			},
		},
		{
			name: "lease shorter than one dispatch cycle",
			mutate: func(c *Config) {
				c.Executor.CallInterval = 10 * time.Second
				c.Voice.Timeout = 15 * time.Second
				c.Executor.LeaseTTL = 20 * time.Second
			},
		},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
