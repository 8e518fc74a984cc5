// Standalone mock of the CourseGem live stats endpoint.
//
// Usage:
//
//	go run ./example/cmd/mockstats --addr :8000 --failure-rate 0.1
//
// Then in another terminal:
//
//	go run ./cmd/livecounter serve --url http://localhost:8000/api/live-stats --interval 5s
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/livecounter/example/mockstats"
	"github.com/spf13/pflag"
)

func main() {
	addr := pflag.String("addr", ":8000", "listen address")
	failureRate := pflag.Float64("failure-rate", 0, "fraction of requests answered with a 500")
	latency := pflag.Duration("latency", 200*time.Millisecond, "maximum random response delay")
	pflag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	srv := &http.Server{
		Addr: *addr,
		Handler: mockstats.New(mockstats.Options{
			FailureRate: *failureRate,
			Latency:     *latency,
			Logger:      logger,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("Mock live stats on http://localhost%s/api/live-stats\n", *addr)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
