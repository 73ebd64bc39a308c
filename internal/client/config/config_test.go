package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "mock", c.Environment)
	assert.Equal(t, "http://127.0.0.1:8081/api", c.MockBaseURL)
	assert.Equal(t, uint64(3), c.MaxRetries)
	assert.Equal(t, 300*time.Millisecond, c.RetryBaseDelay)
	assert.Equal(t, 5*time.Second, c.RetryMaxDelay)
	assert.Equal(t, StoreSQLite, c.StoreKind)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_NoArgsGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name: "overrides",
			args: []string{"-e", "integration", "-t", "2s", "-r", "5", "-s", "memory", "-f", "json", "-unknown", "x"},
			mutate: func(c *Config) {
				c.Environment = "integration"
				c.RequestTimeout = 2 * time.Second
				c.MaxRetries = 5
				c.StoreKind = StoreMemory
				c.LogFormat = "json"
			},
		},
		{
			name: "equals form",
			args: []string{"-d=/tmp/session.db", "-m=:9090"},
			mutate: func(c *Config) {
				c.StoreDSN = "/tmp/session.db"
				c.MetricsAddr = ":9090"
			},
		},
		{name: "bad duration", args: []string{"-t", "soon"}, wantErr: true},
		{name: "bad retries", args: []string{"-r", "many"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			want := defaults()
			tt.mutate(want)
			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}

func TestParseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"environment":      "custom",
		"custom_base_url":  "https://pharmacy.local/api",
		"request_timeout":  "3s",
		"max_retries":      0,
		"retry_base_delay": "50ms",
		"store":            "redis",
		"store_dsn":        "redis://localhost:6379/0",
	})

	cfg := defaults()
	require.NoError(t, parseJson(cfg, []string{"-config", path}))

	want := defaults()
	want.Environment = "custom"
	want.CustomBaseURL = "https://pharmacy.local/api"
	want.RequestTimeout = 3 * time.Second
	want.MaxRetries = 0
	want.RetryBaseDelay = 50 * time.Millisecond
	want.StoreKind = StoreRedis
	want.StoreDSN = "redis://localhost:6379/0"
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseJson_NoFileNoChanges(t *testing.T) {
	cfg := defaults()
	require.NoError(t, parseJson(cfg, []string{"-e", "mock"}))
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func TestParseJson_Errors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

	require.Error(t, parseJson(defaults(), []string{"-c", bad}))
	require.Error(t, parseJson(defaults(), []string{"-c", filepath.Join(t.TempDir(), "missing.json")}))
}

func TestLoadConfig_FlagsOverrideJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"environment": "integration", "log_level": "debug"})

	cfg, err := LoadConfig([]string{"-c", path, "-e", "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig([]string{"-s", "etcd"})
	require.Error(t, err)

	_, err = LoadConfig([]string{"-e", "production"})
	require.Error(t, err)
}

func TestRetryPolicy(t *testing.T) {
	c := defaults()
	p := c.RetryPolicy()
	assert.Equal(t, c.MaxRetries, p.MaxRetries)
	assert.Equal(t, c.RetryBaseDelay, p.BaseDelay)
}
