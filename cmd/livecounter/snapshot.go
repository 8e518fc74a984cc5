package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jpalmerr/livecounter"
	"github.com/jpalmerr/livecounter/config"
	"github.com/jpalmerr/livecounter/internal/store"
	"github.com/spf13/cobra"
)

// snapshotCmd fetches the live stats once and prints them.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch the live stats once",
	Long: `Fetch the live stats once and print every field.

Fields missing from the response are shown as "--". The command exits
non-zero when the fetch fails or times out.

Example:
  livecounter snapshot --url https://coursegem.example/api/live-stats
  livecounter snapshot -o json`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringP("output", "o", "table", "output format: table, json")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown output format %q", format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	counter, err := livecounter.New(cfg.StatsURL, store.NewMemoryStore(), config.CounterOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create live counter: %w", err)
	}

	snap, ok := counter.FetchSnapshot(cmd.Context())
	if !ok {
		return errors.New("failed to fetch live stats")
	}

	if format == "json" {
		return renderSnapshotJSON(cmd.OutOrStdout(), snap)
	}
	renderSnapshotTable(cmd.OutOrStdout(), snap)
	return nil
}

// snapshotRow is one field in the JSON output.
type snapshotRow struct {
	Field   string `json:"field"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	Present bool   `json:"present"`
}

func snapshotRows(snap livecounter.Snapshot) []snapshotRow {
	rows := make([]snapshotRow, 0, len(livecounter.Fields()))
	for _, f := range livecounter.Fields() {
		v, ok := snap.Value(f)
		if !ok {
			v = livecounter.Placeholder
		}
		rows = append(rows, snapshotRow{Field: f.String(), Label: f.Label(), Value: v, Present: ok})
	}
	return rows
}

func renderSnapshotJSON(w io.Writer, snap livecounter.Snapshot) error {
	out := struct {
		Fields     []snapshotRow `json:"fields"`
		ServerTime *time.Time    `json:"server_time,omitempty"`
	}{Fields: snapshotRows(snap)}
	if !snap.ServerTime.IsZero() {
		out.ServerTime = &snap.ServerTime
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderSnapshotTable(w io.Writer, snap livecounter.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Field", "Label", "Value"})
	for _, r := range snapshotRows(snap) {
		if r.Field == livecounter.FieldUdemyCount.String() {
			t.AppendSeparator()
		}
		t.AppendRow(table.Row{r.Field, r.Label, r.Value})
	}
	if !snap.ServerTime.IsZero() {
		t.AppendFooter(table.Row{"", "Server time", snap.ServerTime.Format(time.RFC3339)})
	}
	t.Render()
}
