package livecounter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/livecounter/internal/poller"
)

const (
	defaultPollInterval      = 30 * time.Second
	defaultRequestTimeout    = 10 * time.Second
	defaultAnimationDuration = 800 * time.Millisecond
	defaultAnimationSteps    = 20
	defaultHighlightDuration = time.Second
)

// Counter keeps a [Display] in step with the site's live statistics.
//
// Counter fetches the stats endpoint immediately on [Counter.Start] and then
// every poll interval while the host is visible. Each successful response is
// rendered field by field: unchanged fields are left alone, changed numeric
// fields count from the old value to the new one, other fields are replaced.
// Failed or timed-out fetches are logged and leave the display untouched.
//
// The typical lifecycle is:
//
//	c, err := livecounter.New("https://coursegem.example/api/live-stats", display)
//	if err != nil {
//	    return err
//	}
//	c.Start(ctx)
//	defer c.Stop()
//
//	// wire the host's visibility signal
//	c.SetVisible(false)
//
// A scheduled fetch and a visibility-triggered fetch can be in flight at the
// same time. Both render when they complete and the last one wins.
type Counter struct {
	url               string
	headers           map[string]string
	display           Display
	pollInterval      time.Duration
	requestTimeout    time.Duration
	animationDuration time.Duration
	animationSteps    int
	highlightDuration time.Duration
	logger            *slog.Logger
	snapshotCallbacks []func(Snapshot)

	client    *poller.Client
	scheduler *poller.Scheduler

	mu         sync.Mutex
	animations map[Field]*animation
	highlights map[Field]*time.Timer
	removed    bool
	animWG     sync.WaitGroup
	stopOnce   sync.Once

	// callbacksRunning counts snapshot callbacks in progress.
	callbacksRunning atomic.Int32
}

// animation is a count animation in progress for one field.
type animation struct {
	target string
	stop   chan struct{}
}

// New creates a [Counter] polling statsURL and rendering into display.
//
// Defaults:
//   - Poll interval: 30 seconds
//   - Request timeout: 10 seconds
//   - Animation: 800ms in 20 steps
//   - Highlight: 1 second
//
// Returns an error if statsURL is not an http(s) URL, display is nil, or any
// option is invalid.
func New(statsURL string, display Display, opts ...Option) (*Counter, error) {
	parsedURL, err := url.Parse(statsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.New("URL must have an http:// or https:// scheme")
	}
	if display == nil {
		return nil, errors.New("display cannot be nil")
	}

	cfg := &counterConfig{
		pollInterval:      defaultPollInterval,
		requestTimeout:    defaultRequestTimeout,
		animationDuration: defaultAnimationDuration,
		animationSteps:    defaultAnimationSteps,
		highlightDuration: defaultHighlightDuration,
		headers:           make(map[string]string),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Counter{
		url:               statsURL,
		headers:           cfg.headers,
		display:           display,
		pollInterval:      cfg.pollInterval,
		requestTimeout:    cfg.requestTimeout,
		animationDuration: cfg.animationDuration,
		animationSteps:    cfg.animationSteps,
		highlightDuration: cfg.highlightDuration,
		logger:            logger,
		snapshotCallbacks: cfg.snapshotCallbacks,
		client:            poller.NewClient(logger),
		animations:        make(map[Field]*animation),
		highlights:        make(map[Field]*time.Timer),
	}
	c.scheduler = poller.NewScheduler(c.pollInterval, c.update, logger)
	return c, nil
}

// Start performs an immediate fetch-and-render in the background, then
// repeats it every poll interval while visible.
//
// Start is non-blocking and idempotent. The counter runs until [Counter.Stop]
// is called or ctx is cancelled; cancelling ctx halts polling but does not
// remove the widget.
func (c *Counter) Start(ctx context.Context) {
	c.logger.Info("live counter starting",
		"url", c.url,
		"interval", c.pollInterval.String(),
		"timeout", c.requestTimeout.String(),
	)
	c.scheduler.Start(ctx)
}

// Stop halts all future fetches, cancels in-flight requests, and removes
// the widget from the display. Stop blocks until background work has
// finished and is safe to call more than once.
//
// A Stop issued while a snapshot callback is running (including from the
// callback itself) does not wait: the callback's own goroutine is part of
// that background work. A later Stop still blocks until shutdown completes.
func (c *Counter) Stop() {
	if c.callbacksRunning.Load() > 0 {
		go c.stop()
		return
	}
	c.stop()
}

func (c *Counter) stop() {
	c.stopOnce.Do(func() {
		c.scheduler.Stop()

		c.mu.Lock()
		c.removed = true
		for f, a := range c.animations {
			close(a.stop)
			delete(c.animations, f)
		}
		for f, t := range c.highlights {
			t.Stop()
			delete(c.highlights, f)
		}
		c.mu.Unlock()

		c.animWG.Wait()
		c.client.Close()
		c.display.Remove()
		c.logger.Info("live counter stopped")
	})
}

// SetVisible is the visibility transition handler. While hidden no new
// scheduled fetch starts; becoming visible again triggers an immediate fetch
// regardless of when the last one ran.
func (c *Counter) SetVisible(visible bool) {
	c.logger.Debug("visibility changed", "visible", visible)
	c.scheduler.SetVisible(visible)
}

// Visible reports the last visibility passed to [Counter.SetVisible].
// A new counter is visible.
func (c *Counter) Visible() bool {
	return c.scheduler.Visible()
}

// URL returns the live stats endpoint being polled.
func (c *Counter) URL() string {
	return c.url
}

// PollInterval returns the configured interval between scheduled fetches.
func (c *Counter) PollInterval() time.Duration {
	return c.pollInterval
}

// FetchSnapshot issues a single live stats request.
//
// It never returns an error: timeouts, transport failures, non-2xx statuses
// and undecodable bodies are logged and reported as ok == false.
func (c *Counter) FetchSnapshot(ctx context.Context) (Snapshot, bool) {
	snap, err := c.fetch(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrTimeout):
			c.logger.Warn("live stats request timed out",
				"url", c.url,
				"timeout", c.requestTimeout.String(),
			)
		case errors.Is(err, context.Canceled):
			c.logger.Debug("live stats request cancelled", "url", c.url)
		default:
			c.logger.Error("error fetching live stats", "url", c.url, "error", err.Error())
		}
		return Snapshot{}, false
	}
	return snap, true
}

// fetch performs the request and classifies failures as [ErrTimeout],
// context cancellation, or [*FetchError].
func (c *Counter) fetch(ctx context.Context) (Snapshot, error) {
	resp := c.client.Fetch(ctx, c.url, c.headers, c.requestTimeout)
	if resp.Error != nil {
		if errors.Is(resp.Error, ErrTimeout) || errors.Is(resp.Error, context.Canceled) {
			return Snapshot{}, resp.Error
		}
		return Snapshot{}, &FetchError{StatusCode: resp.StatusCode, Err: resp.Error}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Snapshot{}, &FetchError{StatusCode: resp.StatusCode}
	}

	snap, err := DecodeSnapshot(resp.Body)
	if err != nil {
		return Snapshot{}, &FetchError{StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("live stats fetched",
		"request_id", resp.RequestID,
		"latency_ms", resp.Latency.Milliseconds(),
		"fields", len(snap.Values),
	)
	return snap, nil
}

// update is the scheduled job: fetch, render, then notify callbacks.
func (c *Counter) update(ctx context.Context) {
	snap, ok := c.FetchSnapshot(ctx)
	if !ok {
		return
	}
	c.Render(snap)

	c.callbacksRunning.Add(1)
	defer c.callbacksRunning.Add(-1)
	for _, cb := range c.snapshotCallbacks {
		invokeCallbackSafe(cb, snap, c.logger)
	}
}

// Render updates the display from a snapshot.
//
// For each field the snapshot carries, nothing happens if the text equals
// what is displayed (or what a running animation is heading to). Otherwise
// the field is highlighted, and either counts from the old to the new integer
// or has its text replaced directly. Render returns once every change has
// been started; count animations finish in the background.
//
// Render after [Counter.Stop] does nothing.
func (c *Counter) Render(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.removed {
		return
	}
	for _, f := range Fields() {
		next, ok := s.Values[f]
		if !ok {
			continue
		}
		c.renderFieldLocked(f, next)
	}
}

func (c *Counter) renderFieldLocked(f Field, next string) {
	current := c.display.Text(f)

	if running, ok := c.animations[f]; ok {
		if running.target == next {
			return
		}
		close(running.stop)
		delete(c.animations, f)
	} else if current == next {
		return
	}

	c.highlightLocked(f)

	from, fromOK := ParseCount(current)
	to, toOK := ParseCount(next)
	if fromOK && toOK && from != to {
		c.animateLocked(f, from, to, next)
		return
	}
	c.display.SetText(f, next)
}

// highlightLocked turns the field's highlight on and (re)arms the timer
// that turns it off.
func (c *Counter) highlightLocked(f Field) {
	c.display.SetHighlight(f, true)

	if t, ok := c.highlights[f]; ok {
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(c.highlightDuration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.removed || c.highlights[f] != t {
			return
		}
		delete(c.highlights, f)
		c.display.SetHighlight(f, false)
	})
	c.highlights[f] = t
}

func (c *Counter) animateLocked(f Field, from, to int, target string) {
	a := &animation{target: target, stop: make(chan struct{})}
	c.animations[f] = a

	c.animWG.Add(1)
	go c.runAnimation(f, from, to, a)
}

// runAnimation writes one frame per tick. The final frame writes the exact
// target text.
func (c *Counter) runAnimation(f Field, from, to int, a *animation) {
	defer c.animWG.Done()

	frameInterval := c.animationDuration / time.Duration(c.animationSteps)
	if frameInterval <= 0 {
		frameInterval = time.Nanosecond
	}
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for step := 1; step <= c.animationSteps; step++ {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		select {
		case <-a.stop:
			// superseded while waiting for the lock
			c.mu.Unlock()
			return
		default:
		}
		if step == c.animationSteps {
			c.display.SetText(f, a.target)
			delete(c.animations, f)
		} else {
			c.display.SetText(f, strconv.Itoa(AnimationFrame(from, to, step, c.animationSteps)))
		}
		c.mu.Unlock()
	}
}

// invokeCallbackSafe calls a snapshot callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func invokeCallbackSafe(cb func(Snapshot), s Snapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("snapshot callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()
	cb(s)
}
