package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/storage"
)

var auditJSON bool

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit and verify workspace history",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return fmt.Errorf("resolve project path: %w", err)
		}
		service := application.NewAuditService(storage.NewFilesystemRepository(root))

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Verifying audit trail integrity...")
		violations, err := service.VerifyIntegrity()
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}

		if len(violations) == 0 {
			fmt.Fprintln(out, statusGood.Render("Audit trail is intact and verified."))
			return nil
		}

		fmt.Fprintf(out, "Found %d integrity violations:\n", len(violations))
		for _, v := range violations {
			fmt.Fprintf(out, "  - %s\n", v)
		}
		return NewCLIError("audit trail integrity check failed", "Restore .runrate/events.jsonl from a trusted copy", nil)
	},
}

var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return fmt.Errorf("resolve project path: %w", err)
		}
		service := application.NewAuditService(storage.NewFilesystemRepository(root))

		events, err := service.GetTimeline()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if auditJSON {
			return writeJSON(out, events)
		}
		for _, ev := range events {
			fmt.Fprintf(out, "%s  %-18s %-12s %v\n", ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Action, ev.Actor, ev.Metadata)
		}
		return nil
	},
}

func init() {
	auditLogCmd.Flags().BoolVar(&auditJSON, "json", false, "Output in JSON format")
	auditCmd.AddCommand(auditVerifyCmd, auditLogCmd)
	RootCmd.AddCommand(auditCmd)
}
