// Package livecounter keeps a small "live" statistics widget in step with
// the CourseGem site's /api/live-stats endpoint.
//
// A [Counter] polls the endpoint on a fixed interval, pauses while its host
// is not visible, catches up immediately when it becomes visible again, and
// renders each [Snapshot] into a [Display] with a short count animation for
// numeric fields.
//
// # Quick Start
//
//	display := store.NewMemoryStore() // or any Display implementation
//	c, err := livecounter.New("https://coursegem.example/api/live-stats", display,
//	    livecounter.WithPollInterval(30*time.Second),
//	    livecounter.WithRequestTimeout(10*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	c.Start(ctx)
//	<-ctx.Done()
//	c.Stop() // removes the widget
//
// # Failures
//
// Nothing a fetch does is ever surfaced to the widget. Timeouts ([ErrTimeout])
// and unsuccessful responses ([FetchError]) are logged and the previous values
// stay on screen until the next scheduled fetch. There are no retries and no
// backoff.
//
// # Architecture
//
//   - internal/poller: HTTP client and visibility-aware scheduler
//   - internal/store: in-memory Display with pub/sub for the web widget
//   - internal/server: HTTP server with the widget page, JSON and SSE
//   - internal/tui: terminal widget
//   - internal/mirror: Redis mirror of the latest snapshot
//   - dashboard: embedded widget page
//
// The internal packages are not part of the public API.
package livecounter
