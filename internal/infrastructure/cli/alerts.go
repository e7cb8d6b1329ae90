package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentroi/runrate/pkg/domain/alert"
)

var (
	alertsNotify     bool
	alertsJSON       bool
	deadLettersJSON  bool
	deadLettersLimit int
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Evaluate alert rules over goals, agents, studies and trends",
	Long: `Alerts reports overdue and at-risk goals, agents projected to lose time,
outlier studies and weak forecasts.

With --notify the alerts are delivered to the webhooks configured in
.runrate/webhooks.yaml. Failed deliveries are kept in .runrate/deadletters.jsonl.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		var alerts []alert.Alert
		if alertsNotify {
			notifier := services.Workspace.Notifier
			if notifier == nil {
				return NewCLIError("no webhooks configured", "Add endpoints to .runrate/webhooks.yaml", nil)
			}
			alerts, err = services.Alerts.Notify(ctx, notifier, currentActor())
		} else {
			alerts, err = services.Alerts.Evaluate(ctx)
		}
		if err != nil {
			return MapError(err)
		}

		if alertsJSON {
			return writeJSON(out, alerts)
		}
		printAlerts(out, alerts)
		if alertsNotify && len(alerts) > 0 {
			fmt.Fprintf(out, "\nDelivered %d alert(s) to webhooks.\n", len(alerts))
		}
		return nil
	},
}

func printAlerts(out io.Writer, alerts []alert.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(out, statusGood.Render("No alerts."))
		return
	}
	counts := alert.CountBySeverity(alerts)
	fmt.Fprintf(out, "%d alert(s): %d critical, %d warning, %d info\n\n",
		len(alerts), counts[alert.SeverityCritical], counts[alert.SeverityWarning], counts[alert.SeverityInfo])
	for _, a := range alerts {
		fmt.Fprintf(out, "[%s] %s\n", styleSeverity(a.Severity), a.Message)
		fmt.Fprintf(out, "  %s\n", labelStyle.Render(a.Key))
	}
}

var alertsDeadLettersCmd = &cobra.Command{
	Use:   "deadletters",
	Short: "List webhook deliveries that exhausted their retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		entries, err := services.Workspace.DeadLetters.ReadAll()
		if err != nil {
			return MapError(err)
		}
		if deadLettersLimit > 0 && len(entries) > deadLettersLimit {
			entries = entries[len(entries)-deadLettersLimit:]
		}

		out := cmd.OutOrStdout()
		if deadLettersJSON {
			return writeJSON(out, entries)
		}
		printDeadLetters(out, entries)
		return nil
	},
}

func printDeadLetters(out io.Writer, entries []alert.DeadLetter) {
	if len(entries) == 0 {
		fmt.Fprintln(out, statusGood.Render("No failed deliveries."))
		return
	}
	fmt.Fprintf(out, "%d failed deliver%s\n\n", len(entries), pluralY(len(entries)))
	for _, dl := range entries {
		fmt.Fprintf(out, "%s  %s -> %s (%d attempts)\n",
			dl.Timestamp.Format("2006-01-02 15:04"), dl.AlertKey, dl.WebhookName, dl.Attempts)
		fmt.Fprintf(out, "  %s\n", statusBad.Render(dl.Error))
	}
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Deliver alerts to configured webhooks")
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "Output in JSON format")
	alertsDeadLettersCmd.Flags().BoolVar(&deadLettersJSON, "json", false, "Output in JSON format")
	alertsDeadLettersCmd.Flags().IntVar(&deadLettersLimit, "limit", 0, "Show only the most recent N entries")
	alertsCmd.AddCommand(alertsDeadLettersCmd)
	RootCmd.AddCommand(alertsCmd)
}
