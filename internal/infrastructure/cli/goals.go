package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/domain/goal"
)

var (
	goalsJSON  bool
	goalsApply bool
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Track savings goals",
}

var goalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals with refreshed progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		views, err := services.Goals.List(cmd.Context())
		if err != nil {
			return MapError(err)
		}

		out := cmd.OutOrStdout()
		if goalsJSON {
			return writeJSON(out, views)
		}
		if len(views) == 0 {
			fmt.Fprintln(out, "No goals defined. Import some with 'runrate import goals <file>'.")
			return nil
		}
		fmt.Fprintf(out, "%-36s %-28s %-10s %8s %16s %16s %6s\n", "ID", "TITLE", "STATUS", "PROGRESS", "CURRENT", "TARGET", "DAYS")
		for _, v := range views {
			g := v.Goal
			fmt.Fprintf(out, "%-36s %-28s %-10s %7.1f%% %16s %16s %6d\n",
				g.ID, truncate(g.Title, 28), styleGoalStatus(g.Status), v.Progress,
				formatGoalValue(g.Type, g.CurrentValue), formatGoalValue(g.Type, g.TargetValue), v.DaysRemaining)
		}
		return nil
	},
}

var goalsShowCmd = &cobra.Command{
	Use:   "show <goal-id>",
	Short: "Show one goal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		view, err := services.Goals.Get(cmd.Context(), args[0])
		if err != nil {
			return MapError(err)
		}
		out := cmd.OutOrStdout()
		if goalsJSON {
			return writeJSON(out, view)
		}
		printGoal(out, view)
		return nil
	},
}

func printGoal(out io.Writer, v *application.GoalView) {
	g := v.Goal
	scope := "organization"
	if !g.IsOrganizationWide() {
		scope = "agent " + g.ScopedAgent()
	}
	fmt.Fprintln(out, headerStyle.Render(g.Title))
	fmt.Fprintf(out, "ID:          %s\n", g.ID)
	fmt.Fprintf(out, "Scope:       %s\n", scope)
	fmt.Fprintf(out, "Type:        %s (%s)\n", g.Type, g.DataSource)
	fmt.Fprintf(out, "Status:      %s\n", styleGoalStatus(g.Status))
	fmt.Fprintf(out, "Progress:    %.1f%% (%s of %s)\n", v.Progress, formatGoalValue(g.Type, g.CurrentValue), formatGoalValue(g.Type, g.TargetValue))
	if !g.StartDate.IsZero() {
		fmt.Fprintf(out, "Start:       %s\n", g.StartDate.Format("2006-01-02"))
	}
	fmt.Fprintf(out, "Target date: %s (%d days remaining)\n", g.TargetDate.Format("2006-01-02"), v.DaysRemaining)
}

var goalsContributionsCmd = &cobra.Command{
	Use:   "contributions <goal-id>",
	Short: "Break an organization-wide goal down by agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		contributions, err := services.Goals.Contributions(cmd.Context(), args[0])
		if err != nil {
			return MapError(err)
		}
		out := cmd.OutOrStdout()
		if goalsJSON {
			return writeJSON(out, contributions)
		}
		if len(contributions) == 0 {
			fmt.Fprintln(out, "No per-agent breakdown for this goal.")
			return nil
		}
		fmt.Fprintf(out, "%-24s %16s %8s\n", "AGENT", "CONTRIBUTION", "SHARE")
		for _, c := range contributions {
			fmt.Fprintf(out, "%-24s %16.2f %7.1f%%\n", truncate(c.AgentName, 24), c.Contribution, c.Percentage)
		}
		return nil
	},
}

var goalsStatusCmd = &cobra.Command{
	Use:   "status <goal-id> <status>",
	Short: "Change a goal's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		g, err := services.Goals.SetStatus(cmd.Context(), args[0], goal.Status(args[1]), currentActor())
		if err != nil {
			return MapError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Goal %s is now %s\n", g.ID, styleGoalStatus(g.Status))
		return nil
	},
}

var goalsAssessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Compare goal progress with elapsed time and suggest statuses",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		assessments, err := services.Goals.AssessAll(cmd.Context(), goalsApply, currentActor())
		if err != nil {
			return MapError(err)
		}
		out := cmd.OutOrStdout()
		if goalsJSON {
			return writeJSON(out, assessments)
		}
		fmt.Fprintf(out, "%-36s %8s %8s %6s %-10s %-10s\n", "GOAL", "PROGRESS", "ELAPSED", "DAYS", "CURRENT", "SUGGESTED")
		changes := 0
		for _, a := range assessments {
			marker := ""
			if a.NeedsChange() {
				changes++
				marker = " *"
			}
			fmt.Fprintf(out, "%-36s %7.1f%% %7.1f%% %6d %-10s %-10s%s\n",
				a.GoalID, a.Progress, a.ElapsedPercent, a.DaysRemaining, a.CurrentStatus, styleGoalStatus(a.SuggestedStatus), marker)
		}
		switch {
		case changes == 0:
			fmt.Fprintln(out, "\nAll goal statuses are current.")
		case goalsApply:
			fmt.Fprintf(out, "\nApplied suggested statuses (%d marked *).\n", changes)
		default:
			fmt.Fprintf(out, "\n%d goal(s) marked * would change. Re-run with --apply to update them.\n", changes)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{goalsListCmd, goalsShowCmd, goalsContributionsCmd, goalsAssessCmd} {
		c.Flags().BoolVar(&goalsJSON, "json", false, "Output in JSON format")
	}
	goalsAssessCmd.Flags().BoolVar(&goalsApply, "apply", false, "Write suggested statuses back")
	goalsCmd.AddCommand(goalsListCmd, goalsShowCmd, goalsContributionsCmd, goalsStatusCmd, goalsAssessCmd)
	RootCmd.AddCommand(goalsCmd)
}
