package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/livecounter"
	"github.com/jpalmerr/livecounter/config"
	"github.com/jpalmerr/livecounter/internal/tui"
	"github.com/spf13/cobra"
)

// watchCmd shows the widget in the terminal.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the widget in the terminal",
	Long: `Run the live counter as a terminal widget.

Terminal focus stands in for page visibility: polling pauses while the
terminal is unfocused and catches up as soon as it regains focus.

Logs would corrupt the display, so they are discarded unless --log-file
is given.

Example:
  livecounter watch --url https://coursegem.example/api/live-stats
  livecounter watch --log-file /tmp/livecounter.log --log-level debug`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("log-file", "", "append logs to this file")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logFile, _ := cmd.Flags().GetString("log-file")
	logger, closeLog, err := fileLogger(logFile, cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	display := tui.NewDisplay()
	counter, err := livecounter.New(cfg.StatsURL, display, config.CounterOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create live counter: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	counter.Start(ctx)
	defer counter.Stop()

	return tui.Run(ctx, display, cfg.Title, counter.SetVisible)
}

// fileLogger returns a logger writing to path, or a discarding logger when
// path is empty.
func fileLogger(path string, cfg config.LogConfig) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewJSONHandler(f, opts)
	if cfg.Format == "text" {
		h = slog.NewTextHandler(f, opts)
	}
	return slog.New(h), func() { _ = f.Close() }, nil
}
