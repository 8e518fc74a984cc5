package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by [Load].
const EnvPrefix = "LIVECOUNTER_"

// DefaultFile is read when no explicit config file is given and it exists.
const DefaultFile = "livecounter.yaml"

// flagKeys maps CLI flag names to config keys where they differ. Other flags
// map kebab-case to snake_case.
var flagKeys = map[string]string{
	"url":        "stats_url",
	"interval":   "poll_interval",
	"timeout":    "request_timeout",
	"port":       "server.port",
	"redis-addr": "redis.addresses",
	"redis-key":  "redis.key",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// defaults returns the lowest-precedence layer.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"stats_url":              "http://localhost:8000/api/live-stats",
		"poll_interval":          30 * time.Second,
		"request_timeout":        10 * time.Second,
		"animation.duration":     800 * time.Millisecond,
		"animation.steps":        20,
		"highlight_duration":     time.Second,
		"server.port":            8090,
		"server.allowed_origins": []string{"*"},
		"redis.enabled":          false,
		"redis.db":               0,
		"redis.tls":              false,
		"redis.key":              "livecounter:stats",
		"redis.ttl":              5 * time.Minute,
		"log.level":              "info",
		"log.format":             "json",
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("", nil)
	if err != nil {
		// defaults are static and always valid
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
//
// path may be empty, in which case ./livecounter.yaml is used if present.
// Only flags that were explicitly set override lower layers. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Load environment variables
	// Transform: LIVECOUNTER_SERVER__PORT -> server.port
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// comma-separated lists from the environment
	for _, key := range []string{"redis.addresses", "server.allowed_origins"} {
		if s, ok := k.Get(key).(string); ok {
			_ = k.Set(key, splitList(s))
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList splits a comma-separated value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report config keys rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks every field constraint and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// describe turns one validation failure into "key: reason".
func describe(fe validator.FieldError) string {
	// drop the root struct name from "Config.server.port"
	key := fe.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}

	switch fe.Tag() {
	case "required", "required_if":
		return key + ": is required"
	case "http_url":
		return key + ": must be an http(s) URL"
	case "hostname_port":
		return key + ": must be host:port"
	case "min":
		return fmt.Sprintf("%s: must be at least %s", key, fe.Param())
	case "max":
		return fmt.Sprintf("%s: must be at most %s", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", key, fe.Param())
	default:
		return fmt.Sprintf("%s: failed %q", key, fe.Tag())
	}
}
