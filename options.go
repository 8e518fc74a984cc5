package livecounter

import (
	"errors"
	"log/slog"
	"time"
)

// counterConfig holds mutable state during Counter construction.
type counterConfig struct {
	pollInterval      time.Duration
	requestTimeout    time.Duration
	animationDuration time.Duration
	animationSteps    int
	highlightDuration time.Duration
	headers           map[string]string
	logger            *slog.Logger
	snapshotCallbacks []func(Snapshot)
}

// Option is a function that configures a [Counter] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*counterConfig) error

// WithPollInterval sets how often the live stats are fetched while visible.
// Defaults to 30 seconds.
//
// Returns an error if the duration is zero or negative.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *counterConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.pollInterval = d
		return nil
	}
}

// WithRequestTimeout sets the bounded wait for a single live stats request.
// A request still running after d is cancelled and counted as a timeout.
// Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *counterConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithAnimation sets the total duration and number of discrete steps of the
// count animation used when a numeric field changes.
// Defaults to 800ms split into 20 steps.
//
// Returns an error if either value is zero or negative.
func WithAnimation(duration time.Duration, steps int) Option {
	return func(cfg *counterConfig) error {
		if duration <= 0 {
			return errors.New("animation duration must be positive")
		}
		if steps <= 0 {
			return errors.New("animation steps must be positive")
		}
		cfg.animationDuration = duration
		cfg.animationSteps = steps
		return nil
	}
}

// WithHighlightDuration sets how long a changed field keeps its highlight.
// Defaults to 1 second.
//
// Returns an error if the duration is zero or negative.
func WithHighlightDuration(d time.Duration) Option {
	return func(cfg *counterConfig) error {
		if d <= 0 {
			return errors.New("highlight duration must be positive")
		}
		cfg.highlightDuration = d
		return nil
	}
}

// WithHeaders adds custom HTTP headers to every live stats request.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	c, err := livecounter.New(url, display,
//	    livecounter.WithHeaders("Authorization", "Bearer token"),
//	)
func WithHeaders(keyValues ...string) Option {
	return func(cfg *counterConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *counterConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSnapshotCallback registers a function called with every successfully
// fetched [Snapshot], right after it has been handed to the display.
//
// Multiple callbacks run in registration order. Callbacks run on the poll
// goroutine and must not block; panics are recovered and logged. A callback
// may call [Counter.Stop]; shutdown then completes after the callback returns.
//
// Nil callbacks are silently ignored.
func WithSnapshotCallback(cb func(Snapshot)) Option {
	return func(cfg *counterConfig) error {
		if cb == nil {
			return nil
		}
		cfg.snapshotCallbacks = append(cfg.snapshotCallbacks, cb)
		return nil
	}
}
