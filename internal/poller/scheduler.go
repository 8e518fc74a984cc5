package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is the unit of work run on every poll. It receives the scheduler's
// run context, which is cancelled by [Scheduler.Stop].
type Job func(ctx context.Context)

// Scheduler runs a [Job] immediately on start and then on a fixed interval
// while the host is visible.
//
// Visibility gates only the start of scheduled runs: a run already in flight
// when the host becomes hidden completes normally. When the host becomes
// visible again an extra run is dispatched at once, without resetting the
// ticker phase. Scheduled and visibility-triggered runs may overlap.
//
// All lifecycle methods (Start, Stop, SetVisible) are safe for concurrent use.
type Scheduler struct {
	interval time.Duration
	job      Job
	logger   *slog.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	wake     chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
	visible bool
}

// NewScheduler creates a new [Scheduler]. The host starts out visible.
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop].
func NewScheduler(interval time.Duration, job Job, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		job:      job,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		visible:  true,
	}
}

// Start begins the polling loop in a background goroutine.
//
// Start is non-blocking. The loop:
//  1. Runs the job once and waits for it, regardless of visibility
//  2. Ticks every interval, dispatching the job only while visible
//  3. Dispatches the job at once on every hidden to visible transition
//  4. Continues until [Scheduler.Stop] is called or ctx is cancelled
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		s.runJob(runCtx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if s.Visible() {
					s.dispatch(runCtx)
				}
			case <-s.wake:
				// the host may have been hidden again since the wake was queued
				if s.Visible() {
					s.dispatch(runCtx)
				}
			}
		}
	}()
}

// Stop cancels the run context and blocks until the loop and every
// dispatched job have returned.
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// SetVisible records a visibility transition. Becoming visible while running
// wakes the loop for an immediate run. Repeated calls with the same value are
// not transitions and do nothing.
func (s *Scheduler) SetVisible(visible bool) {
	s.mu.Lock()
	wasVisible := s.visible
	s.visible = visible
	running := s.started && !s.stopped
	s.mu.Unlock()

	if visible && !wasVisible && running {
		select {
		case s.wake <- struct{}{}:
		default:
			// a wake is already pending
		}
	}
}

// Visible reports the last visibility recorded by [Scheduler.SetVisible].
func (s *Scheduler) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// dispatch runs the job in its own goroutine so a slow request never delays
// the ticker.
func (s *Scheduler) dispatch(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(ctx)
	}()
}

// runJob calls the job with panic recovery.
// A panic is logged with its stack trace under a correlation ID; the
// schedule continues.
func (s *Scheduler) runJob(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("poll job panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.job(ctx)
}
