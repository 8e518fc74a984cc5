// Command example runs the live counter against a local mock of the stats
// endpoint and serves the web widget.
//
//	go run ./example
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

	"github.com/jpalmerr/livecounter"
	"github.com/jpalmerr/livecounter/dashboard"
	"github.com/jpalmerr/livecounter/example/mockstats"
	"github.com/jpalmerr/livecounter/internal/server"
	"github.com/jpalmerr/livecounter/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start mock stats endpoint; one request in ten fails
	mock := &http.Server{
		Addr: ":9999",
		Handler: mockstats.New(mockstats.Options{
			FailureRate: 0.1,
			Latency:     300 * time.Millisecond,
			Logger:      logger,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := mock.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("mock server error", "error", err)
		}
	}()
	defer func() { _ = mock.Close() }()

	st := store.NewMemoryStore()
	counter, err := livecounter.New("http://localhost:9999/api/live-stats", st,
		livecounter.WithPollInterval(5*time.Second),
		livecounter.WithLogger(logger),
		livecounter.WithSnapshotCallback(func(s livecounter.Snapshot) {
			logger.Info("snapshot", "fields", len(s.Values), "server_time", s.ServerTime)
		}),
	)
	if err != nil {
		logger.Error("failed to create live counter", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(st, server.Options{
		Port:         8090,
		Assets:       dashboard.Assets,
		OnVisibility: counter.SetVisible,
	}, logger)
	if err := srv.Start(ctx); err != nil {
		logger.Error("failed to start widget server", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Live Counter Demo                                   ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8090 in your browser          ║")
	fmt.Println("  ║   Polling a mock endpoint every 5s                    ║")
	fmt.Println("  ║   Switch tabs to pause polling                        ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	counter.Start(ctx)
	<-ctx.Done()
	counter.Stop()
}
