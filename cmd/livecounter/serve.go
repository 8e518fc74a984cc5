package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/livecounter"
	"github.com/jpalmerr/livecounter/config"
	"github.com/jpalmerr/livecounter/dashboard"
	"github.com/jpalmerr/livecounter/internal/mirror"
	"github.com/jpalmerr/livecounter/internal/server"
	"github.com/jpalmerr/livecounter/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// serveCmd starts the web widget server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web widget",
	Long: `Start the live counter and serve the web widget.

The server will:
  - Fetch the live stats immediately, then every poll interval
  - Pause polling while no page reports itself visible
  - Serve the widget on / and stream updates on /api/sse
  - Mirror each snapshot to Redis when redis.enabled is set

On Ctrl+C or SIGTERM the widget is removed, connected pages receive a
"removed" event, and the server shuts down.

Example:
  livecounter serve --url https://coursegem.example/api/live-stats
  livecounter serve -c /etc/livecounter/livecounter.yaml --port 9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "HTTP port for the widget server")
	serveCmd.Flags().StringSlice("redis-addr", nil, "Redis addresses for the snapshot mirror")
	serveCmd.Flags().String("redis-key", "", "Redis hash key for the snapshot mirror")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// --redis-addr implies the mirror is wanted
	if cmd.Flags().Changed("redis-addr") {
		cfg.Redis.Enabled = true
	}
	logger := newLogger(cfg.Log)

	st := store.NewMemoryStore()
	opts := config.CounterOptions(cfg, logger)

	if mopts, ok := config.MirrorOptions(cfg); ok {
		mr, err := mirror.New(mopts, logger)
		if err != nil {
			return err
		}
		defer mr.Close()
		opts = append(opts, livecounter.WithSnapshotCallback(mr.Callback()))
		logger.Info("redis mirror enabled", "key", mr.Key())
	}

	counter, err := livecounter.New(cfg.StatsURL, st, opts...)
	if err != nil {
		return fmt.Errorf("failed to create live counter: %w", err)
	}

	sopts := config.ServerOptions(cfg)
	sopts.Assets = dashboard.Assets
	sopts.OnVisibility = counter.SetVisible
	srv := server.NewServer(st, sopts, logger)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := srv.Start(egctx); err != nil {
			return err
		}
		<-egctx.Done()
		return nil
	})

	eg.Go(func() error {
		counter.Start(egctx)
		<-egctx.Done()
		// removes the widget so open pages get the "removed" event
		counter.Stop()
		return nil
	})

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
