package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd validates the configuration without starting anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate the livecounter configuration without starting the counter.

The config file, LIVECOUNTER_* environment variables and flags are merged,
environment variables in the URL and headers are expanded, and every field is
validated. The effective configuration is printed as YAML with secrets
masked. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  livecounter validate -c livecounter.yaml
  LIVECOUNTER_POLL_INTERVAL=1m livecounter validate`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out, err := cfg.YAML()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Config is valid!\n")
	_, _ = fmt.Fprintf(w, "  URL:           %s\n", cfg.StatsURL)
	_, _ = fmt.Fprintf(w, "  Poll interval: %s\n", cfg.PollInterval)
	_, _ = fmt.Fprintf(w, "  Redis mirror:  %t\n", cfg.Redis.Enabled)
	_, _ = fmt.Fprintf(w, "\n%s", out)
	return nil
}
