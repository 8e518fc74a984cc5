// Package main is the entry point for the livecounter CLI.
//
// livecounter can be embedded as a library or run as a standalone binary.
// This CLI provides the standalone binary approach.
//
// Usage:
//
//	livecounter serve                 # Serve the web widget
//	livecounter watch                 # Show the widget in the terminal
//	livecounter snapshot -o json      # Fetch the stats once
//	livecounter validate -c cfg.yaml  # Validate configuration
//	livecounter version               # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jpalmerr/livecounter/config"
	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "livecounter",
	Short: "A live statistics widget for CourseGem",
	Long: `livecounter keeps a small live statistics widget in step with the
CourseGem /api/live-stats endpoint.

It fetches the stats immediately, then every poll interval while the widget
is visible, and animates numeric changes.

Configuration is layered, highest precedence first:
  flags > LIVECOUNTER_* env vars > config file > defaults

Quick start:
  1. Run: livecounter serve --url https://coursegem.example/api/live-stats
  2. Open http://localhost:8090 in your browser

Example config (livecounter.yaml):
  stats_url: https://coursegem.example/api/live-stats
  poll_interval: 30s
  server:
    port: 8090`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this livecounter binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "livecounter %s\n", version)
		_, _ = fmt.Fprintf(out, "  commit: %s\n", commit)
		_, _ = fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "path to config file (default ./"+config.DefaultFile+" if present)")
	pf.String("url", "", "live stats endpoint URL")
	pf.Duration("interval", 0, "time between fetches while visible")
	pf.Duration("timeout", 0, "timeout for a single fetch")
	pf.String("title", "", "widget title")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: json, text")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig builds the configuration for cmd from its file, the environment
// and every flag the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger creates the CLI logger on stderr.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
