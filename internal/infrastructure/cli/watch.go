package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentroi/runrate/internal/infrastructure/watch"
	"github.com/agentroi/runrate/pkg/storage"
)

var (
	watchNotify   bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reprint the portfolio summary and alerts whenever workspace data changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		repo := storage.NewFilesystemRepository(root)
		if !repo.IsInitialized() {
			return MapError(storage.ErrNotInitialized)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		refresh := func(paths []string) {
			if len(paths) > 0 {
				fmt.Fprintf(out, "\nChange detected at %s: %v\n", time.Now().Format("15:04:05"), paths)
			}
			if err := printWatchSummary(ctx, out, root, watchNotify); err != nil {
				slog.Error("refresh failed", "error", err)
				fmt.Fprintf(out, "Refresh failed: %v\n", err)
			}
		}

		w, err := watch.NewWatcher(repo.Dir(), watch.DataFiles, watchDebounce, refresh, slog.Default())
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Watching %s for changes... (Ctrl+C to stop)\n", repo.Dir())
		refresh(nil)

		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// printWatchSummary rebuilds the services so config edits take effect.
func printWatchSummary(ctx context.Context, out io.Writer, root string, notify bool) error {
	services, err := buildServices(ctx, root)
	if err != nil {
		return err
	}
	defer services.Close()

	p, err := services.Projections.Portfolio(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Projected: %s/yr (%s, %.2f FTE) across %d agents\n",
		formatMoney(p.Projected.CostSavings), formatHours(p.Projected.TimeSavedHours), p.Projected.FTE, p.ProjectedAgents)
	fmt.Fprintf(out, "Measured:  %s over %d studies\n", formatMoney(p.Actual.CostSavings), p.Actual.StudyCount)

	if notify && services.Workspace.Notifier != nil {
		alerts, err := services.Alerts.Notify(ctx, services.Workspace.Notifier, currentActor())
		printAlerts(out, alerts)
		return err
	}
	alerts, err := services.Alerts.Evaluate(ctx)
	if err != nil {
		return err
	}
	printAlerts(out, alerts)
	return nil
}

func init() {
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "Deliver alerts to configured webhooks on every change")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period before reacting to changes")
	RootCmd.AddCommand(watchCmd)
}
