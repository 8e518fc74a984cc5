// Package config provides layered configuration for the livecounter CLI.
//
// Values are merged from, lowest to highest precedence: built-in defaults, a
// YAML file, LIVECOUNTER_* environment variables, and command-line flags.
// The result is validated before use.
//
// Example configuration:
//
//	stats_url: https://coursegem.example/api/live-stats
//	poll_interval: 30s
//	request_timeout: 10s
//
//	headers:
//	  Authorization: Bearer ${COURSEGEM_TOKEN}
//
//	server:
//	  port: 8090
//
//	redis:
//	  enabled: true
//	  addresses: [localhost:6379]
//	  ttl: 5m
//
// Nested keys map to environment variables with a double underscore:
// LIVECOUNTER_SERVER__PORT=9000 sets server.port.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the livecounter CLI.
//
// Use [Load] to build a Config from defaults, a file, the environment and flags.
type Config struct {
	// StatsURL is the live stats endpoint.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	StatsURL string `koanf:"stats_url" validate:"required,http_url"`

	// Title is the widget title.
	Title string `koanf:"title" validate:"max=80"`

	// PollInterval is the time between scheduled fetches while visible.
	// Must be between 1s and 1h.
	PollInterval time.Duration `koanf:"poll_interval" validate:"min=1s,max=1h"`

	// RequestTimeout bounds a single fetch.
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"min=100ms,max=1m"`

	// Headers are custom HTTP headers sent with each request.
	// Values support environment variable substitution.
	Headers map[string]string `koanf:"headers"`

	Animation AnimationConfig `koanf:"animation"`

	// HighlightDuration is how long a changed value stays highlighted.
	HighlightDuration time.Duration `koanf:"highlight_duration" validate:"min=10ms,max=1m"`

	Server ServerConfig `koanf:"server"`
	Redis  RedisConfig  `koanf:"redis"`
	Log    LogConfig    `koanf:"log"`
}

// AnimationConfig controls the count animation of numeric fields.
type AnimationConfig struct {
	Duration time.Duration `koanf:"duration" validate:"min=1ms,max=1m"`
	Steps    int           `koanf:"steps" validate:"min=1,max=1000"`
}

// ServerConfig configures the web widget server used by "serve".
type ServerConfig struct {
	Port int `koanf:"port" validate:"min=1,max=65535"`

	// AllowedOrigins lists CORS origins for the widget API.
	AllowedOrigins []string `koanf:"allowed_origins" validate:"min=1,dive,required"`
}

// RedisConfig configures the optional snapshot mirror.
type RedisConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Addresses []string      `koanf:"addresses" validate:"required_if=Enabled true,dive,hostname_port"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db" validate:"min=0,max=15"`
	TLS       bool          `koanf:"tls"`
	Key       string        `koanf:"key" validate:"required_if=Enabled true"`
	TTL       time.Duration `koanf:"ttl" validate:"min=0"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// SlogLevel returns the configured level as a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MarshalYAML renders the effective configuration with readable durations
// and the Redis password redacted.
func (c Config) MarshalYAML() (interface{}, error) {
	password := ""
	if c.Redis.Password != "" {
		password = "********"
	}

	type animation struct {
		Duration string `yaml:"duration"`
		Steps    int    `yaml:"steps"`
	}
	type server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	}
	type redis struct {
		Enabled   bool     `yaml:"enabled"`
		Addresses []string `yaml:"addresses,omitempty"`
		Password  string   `yaml:"password,omitempty"`
		DB        int      `yaml:"db"`
		TLS       bool     `yaml:"tls"`
		Key       string   `yaml:"key"`
		TTL       string   `yaml:"ttl"`
	}
	type log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	}

	return struct {
		StatsURL          string            `yaml:"stats_url"`
		Title             string            `yaml:"title,omitempty"`
		PollInterval      string            `yaml:"poll_interval"`
		RequestTimeout    string            `yaml:"request_timeout"`
		Headers           map[string]string `yaml:"headers,omitempty"`
		Animation         animation         `yaml:"animation"`
		HighlightDuration string            `yaml:"highlight_duration"`
		Server            server            `yaml:"server"`
		Redis             redis             `yaml:"redis"`
		Log               log               `yaml:"log"`
	}{
		StatsURL:          c.StatsURL,
		Title:             c.Title,
		PollInterval:      c.PollInterval.String(),
		RequestTimeout:    c.RequestTimeout.String(),
		Headers:           redactHeaders(c.Headers),
		Animation:         animation{Duration: c.Animation.Duration.String(), Steps: c.Animation.Steps},
		HighlightDuration: c.HighlightDuration.String(),
		Server:            server{Port: c.Server.Port, AllowedOrigins: c.Server.AllowedOrigins},
		Redis: redis{
			Enabled:   c.Redis.Enabled,
			Addresses: c.Redis.Addresses,
			Password:  password,
			DB:        c.Redis.DB,
			TLS:       c.Redis.TLS,
			Key:       c.Redis.Key,
			TTL:       c.Redis.TTL.String(),
		},
		Log: log{Level: c.Log.Level, Format: c.Log.Format},
	}, nil
}

// YAML returns the effective configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return out, nil
}

// sensitiveHeaders are masked when the configuration is printed.
var sensitiveHeaders = []string{"authorization", "cookie", "x-api-key"}

func redactHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
		for _, s := range sensitiveHeaders {
			if strings.EqualFold(k, s) {
				out[k] = "********"
			}
		}
	}
	return out
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// expand substitutes environment variables in the URL and header values.
func (c *Config) expand() error {
	expanded, err := expandEnvVars(c.StatsURL)
	if err != nil {
		return fmt.Errorf("stats_url: %w", err)
	}
	c.StatsURL = expanded

	for k, v := range c.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}
	return nil
}
