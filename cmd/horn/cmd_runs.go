package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/report"
	"github.com/cognicore/horn/pkg/horn/store"
)

var runsLimit int

// runsCmd lists persisted runs or shows one
var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List persisted runs, or show one as JSON",
	Long: `Lists the most recent runs recorded in the run store, newest first.
With a run ID, prints that run with its answers and derived facts as JSON.

Requires a store: pass --db or set store.driver to sqlite.

Examples:
  horn runs --db runs.db --limit 5
  horn runs --db runs.db 01J9ZK3M7Q8W3B6R1T0V2X4Y5Z`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", store.DefaultListLimit, "Maximum runs to list")
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	h, err := newHorn(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	w := cmd.OutOrStdout()
	if len(args) == 1 {
		run, err := h.Run(ctx, args[0])
		if err != nil {
			return err
		}
		return report.WriteRunJSON(w, run)
	}

	runs, err := h.Runs(ctx, runsLimit)
	if errors.Is(err, internalerr.ErrStoreUnavailable) {
		return fmt.Errorf("no run store configured (use --db): %w", err)
	}
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	now := time.Now()
	for _, r := range runs {
		fmt.Fprintln(w, report.RunLine(r, now))
	}
	return nil
}
