package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	snapshotDate string
	snapshotJSON bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage the daily snapshot history used by trends",
}

var snapshotCaptureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record today's cumulative totals per agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now()
		if snapshotDate != "" {
			parsed, err := time.Parse("2006-01-02", snapshotDate)
			if err != nil {
				return fmt.Errorf("invalid --date %q (want YYYY-MM-DD): %w", snapshotDate, err)
			}
			date = parsed
		}

		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		snaps, err := services.Snapshots.Capture(cmd.Context(), date, currentActor())
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if snapshotJSON {
			return writeJSON(out, snaps)
		}
		if len(snaps) == 0 {
			fmt.Fprintln(out, "Nothing to capture: no active agent has completed studies.")
			return nil
		}
		fmt.Fprintf(out, "Captured %d snapshot(s) for %s\n", len(snaps), snaps[0].Date.Format("2006-01-02"))
		for _, s := range snaps {
			fmt.Fprintf(out, "  %-24s %4d studies %12s %14s\n",
				truncate(s.AgentID, 24), s.TotalStudies, formatHours(s.TotalTimeSavedHours), formatMoney(s.TotalCostSavings))
		}
		return nil
	},
}

func init() {
	snapshotCaptureCmd.Flags().StringVar(&snapshotDate, "date", "", "Snapshot date as YYYY-MM-DD (default today)")
	snapshotCaptureCmd.Flags().BoolVar(&snapshotJSON, "json", false, "Output in JSON format")
	snapshotCmd.AddCommand(snapshotCaptureCmd)
	RootCmd.AddCommand(snapshotCmd)
}
