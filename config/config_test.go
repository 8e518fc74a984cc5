package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "livecounter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/live-stats", cfg.StatsURL)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 800*time.Millisecond, cfg.Animation.Duration)
	assert.Equal(t, 20, cfg.Animation.Steps)
	assert.Equal(t, time.Second, cfg.HighlightDuration)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "livecounter:stats", cfg.Redis.Key)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Title)
}

func TestDefault(t *testing.T) {
	assert.NotPanics(t, func() {
		cfg := Default()
		assert.Equal(t, 30*time.Second, cfg.PollInterval)
	})
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
stats_url: https://coursegem.example/api/live-stats
title: Course Statistics
poll_interval: 1m
request_timeout: 5s
headers:
  X-Client: widget
animation:
  duration: 400ms
  steps: 10
server:
  port: 9000
  allowed_origins: [https://coursegem.example]
redis:
  enabled: true
  addresses: [localhost:6379]
  key: stats
log:
  level: debug
  format: text
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://coursegem.example/api/live-stats", cfg.StatsURL)
	assert.Equal(t, "Course Statistics", cfg.Title)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, map[string]string{"X-Client": "widget"}, cfg.Headers)
	assert.Equal(t, 400*time.Millisecond, cfg.Animation.Duration)
	assert.Equal(t, 10, cfg.Animation.Steps)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://coursegem.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"localhost:6379"}, cfg.Redis.Addresses)
	assert.Equal(t, "stats", cfg.Redis.Key)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	// untouched keys keep their defaults
	assert.Equal(t, time.Second, cfg.HighlightDuration)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "stats_url: [unterminated\n")
	_, err := Load(path, nil)
	require.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "poll_interval: soon\n")
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to decode config")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
poll_interval: 1m
`)
	t.Setenv("LIVECOUNTER_SERVER__PORT", "9100")
	t.Setenv("LIVECOUNTER_POLL_INTERVAL", "45s")
	t.Setenv("LIVECOUNTER_LOG__LEVEL", "warn")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.PollInterval)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_EnvLists(t *testing.T) {
	t.Setenv("LIVECOUNTER_REDIS__ENABLED", "true")
	t.Setenv("LIVECOUNTER_REDIS__ADDRESSES", "redis-a:6379, redis-b:6379,")
	t.Setenv("LIVECOUNTER_SERVER__ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"redis-a:6379", "redis-b:6379"}, cfg.Redis.Addresses)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("url", "", "")
	fs.Duration("interval", 0, "")
	fs.Duration("timeout", 0, "")
	fs.Int("port", 0, "")
	fs.StringSlice("redis-addr", nil, "")
	fs.String("log-level", "", "")
	fs.String("title", "", "")
	return fs
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("LIVECOUNTER_SERVER__PORT", "9100")
	t.Setenv("LIVECOUNTER_STATS_URL", "https://env.example/api/live-stats")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{
		"--port", "9200",
		"--interval", "2m",
		"--title", "From Flags",
	}))

	cfg, err := Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	assert.Equal(t, "From Flags", cfg.Title)

	// unset flags do not clobber lower layers
	assert.Equal(t, "https://env.example/api/live-stats", cfg.StatsURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestLoad_RedisAddrFlag(t *testing.T) {
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--redis-addr", "a:6379,b:6379"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, []string{"a:6379", "b:6379"}, cfg.Redis.Addresses)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing url",
			yaml:    `stats_url: ""`,
			wantErr: "stats_url: is required",
		},
		{
			name:    "non-http url",
			yaml:    `stats_url: ftp://coursegem.example/stats`,
			wantErr: "stats_url: must be an http(s) URL",
		},
		{
			name:    "poll interval too short",
			yaml:    `poll_interval: 500ms`,
			wantErr: "poll_interval: must be at least 1s",
		},
		{
			name:    "poll interval too long",
			yaml:    `poll_interval: 2h`,
			wantErr: "poll_interval: must be at most 1h",
		},
		{
			name:    "zero animation steps",
			yaml:    "animation:\n  steps: 0",
			wantErr: "animation.steps: must be at least 1",
		},
		{
			name:    "port out of range",
			yaml:    "server:\n  port: 70000",
			wantErr: "server.port: must be at most 65535",
		},
		{
			name:    "redis enabled without addresses",
			yaml:    "redis:\n  enabled: true",
			wantErr: "redis.addresses: is required",
		},
		{
			name:    "redis address without port",
			yaml:    "redis:\n  enabled: true\n  addresses: [localhost]",
			wantErr: "redis.addresses[0]: must be host:port",
		},
		{
			name:    "unknown log level",
			yaml:    "log:\n  level: trace",
			wantErr: "log.level: must be one of [debug info warn error]",
		},
		{
			name:    "title too long",
			yaml:    "title: " + strings.Repeat("x", 81),
			wantErr: "title: must be at most 80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ReportsAllViolations(t *testing.T) {
	path := writeConfig(t, `
poll_interval: 10ms
log:
  format: xml
`)
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoad_RedisDisabledSkipsRedisChecks(t *testing.T) {
	path := writeConfig(t, "redis:\n  enabled: false\n  key: \"\"")
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Redis.Key)
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("COURSEGEM_HOST", "coursegem.example")
	t.Setenv("COURSEGEM_TOKEN", "s3cret")

	path := writeConfig(t, `
stats_url: https://${COURSEGEM_HOST}/api/live-stats
headers:
  Authorization: Bearer ${COURSEGEM_TOKEN}
  X-Region: ${COURSEGEM_REGION:-eu}
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://coursegem.example/api/live-stats", cfg.StatsURL)
	assert.Equal(t, "Bearer s3cret", cfg.Headers["Authorization"])
	assert.Equal(t, "eu", cfg.Headers["X-Region"])
}

func TestLoad_EnvVarMissing(t *testing.T) {
	path := writeConfig(t, `
headers:
  Authorization: Bearer ${LIVECOUNTER_TEST_UNSET_TOKEN}
`)
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "headers[Authorization]")
	assert.Contains(t, err.Error(), "LIVECOUNTER_TEST_UNSET_TOKEN")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a , b ,,"))
	assert.Nil(t, splitList(""))
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := map[string]string{
		"debug": "DEBUG",
		"info":  "INFO",
		"warn":  "WARN",
		"error": "ERROR",
		"":      "INFO",
	}
	for in, want := range tests {
		assert.Equal(t, want, LogConfig{Level: in}.SlogLevel().String(), in)
	}
}

func TestConfig_YAML(t *testing.T) {
	cfg := Default()
	cfg.Headers = map[string]string{
		"Authorization": "Bearer s3cret",
		"X-Client":      "widget",
	}
	cfg.Redis.Password = "hunter2"

	out, err := cfg.YAML()
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "stats_url: http://localhost:8000/api/live-stats")
	assert.Contains(t, s, "poll_interval: 30s")
	assert.Contains(t, s, "duration: 800ms")
	assert.Contains(t, s, "X-Client: widget")
	assert.NotContains(t, s, "s3cret")
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "********")
}
