package config

import (
	"log/slog"
	"sort"

	"github.com/jpalmerr/livecounter"
	"github.com/jpalmerr/livecounter/internal/mirror"
	"github.com/jpalmerr/livecounter/internal/server"
)

// CounterOptions converts the configuration into livecounter options.
// logger is attached with [livecounter.WithLogger] when non-nil.
func CounterOptions(cfg *Config, logger *slog.Logger) []livecounter.Option {
	opts := []livecounter.Option{
		livecounter.WithPollInterval(cfg.PollInterval),
		livecounter.WithRequestTimeout(cfg.RequestTimeout),
		livecounter.WithAnimation(cfg.Animation.Duration, cfg.Animation.Steps),
		livecounter.WithHighlightDuration(cfg.HighlightDuration),
	}

	if len(cfg.Headers) > 0 {
		opts = append(opts, livecounter.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	if logger != nil {
		opts = append(opts, livecounter.WithLogger(logger))
	}

	return opts
}

// ServerOptions converts the configuration into widget server options.
// Assets and the visibility handler are supplied by the caller.
func ServerOptions(cfg *Config) server.Options {
	return server.Options{
		Port:           cfg.Server.Port,
		Title:          cfg.Title,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
}

// MirrorOptions converts the Redis section into mirror options.
// ok is false when the mirror is disabled.
func MirrorOptions(cfg *Config) (opts mirror.Options, ok bool) {
	if !cfg.Redis.Enabled {
		return mirror.Options{}, false
	}
	return mirror.Options{
		Addresses: cfg.Redis.Addresses,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		TLS:       cfg.Redis.TLS,
		Key:       cfg.Redis.Key,
		TTL:       cfg.Redis.TTL,
	}, true
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
