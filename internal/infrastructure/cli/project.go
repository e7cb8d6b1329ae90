package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/domain/projection"
)

var (
	projectJSON     bool
	projectAdoption float64
)

var projectCmd = &cobra.Command{
	Use:   "project [agent-id]",
	Short: "Show projected and measured savings for the portfolio or one agent",
	Long: `Project prints annual projections for every agent and the portfolio totals.
With an agent ID it prints the agent in detail, including the adoption
breakdown.

Flags:
  --adoption   Project the agent at the given adoption percentage (0-100)
  --json       Output in JSON format`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProject,
}

func runProject(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir(cmd.Context())
	if err != nil {
		return err
	}
	defer services.Close()

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if len(args) == 0 {
		if cmd.Flags().Changed("adoption") {
			return fmt.Errorf("--adoption requires an agent ID")
		}
		portfolio, err := services.Projections.Portfolio(ctx)
		if err != nil {
			return MapError(err)
		}
		if projectJSON {
			return writeJSON(out, portfolio)
		}
		printPortfolio(out, portfolio)
		return nil
	}

	view, err := services.Projections.AgentProjection(ctx, args[0])
	if err != nil {
		return MapError(err)
	}

	if cmd.Flags().Changed("adoption") {
		if projectAdoption < 0 || projectAdoption > 100 {
			return fmt.Errorf("--adoption must be between 0 and 100, got %v", projectAdoption)
		}
		result, err := services.Projections.AdoptionScenario(ctx, args[0], projectAdoption)
		if err != nil {
			return MapError(err)
		}
		if projectJSON {
			return writeJSON(out, map[string]interface{}{
				"agent_id":         view.Agent.ID,
				"adoption_percent": projectAdoption,
				"projection":       result,
			})
		}
		fmt.Fprintf(out, "%s at %.0f%% adoption\n", view.Agent.Name, projectAdoption)
		printResult(out, result)
		return nil
	}

	if projectJSON {
		return writeJSON(out, view)
	}
	printAgent(out, view)
	return nil
}

func printPortfolio(out io.Writer, p *application.Portfolio) {
	fmt.Fprintln(out, headerStyle.Render("Agent Portfolio"))
	fmt.Fprintf(out, "%-24s %-9s %12s %14s %8s %12s %14s %7s\n",
		"AGENT", "STATUS", "PROJ HOURS", "PROJ SAVINGS", "FTE", "MEAS HOURS", "MEAS SAVINGS", "STUDIES")
	for _, v := range p.Agents {
		status := string(v.Agent.Status)
		if status == "" {
			status = string(projection.AgentActive)
		}
		projHours, projCost, fte := "-", "-", "-"
		if v.Complete {
			projHours = formatHours(v.Projected.AnnualTimeSavedHours)
			projCost = formatMoney(v.Projected.AnnualCostSavings)
			fte = fmt.Sprintf("%.2f", v.Projected.FTEEquivalent)
		}
		fmt.Fprintf(out, "%-24s %-9s %12s %14s %8s %12s %14s %7d\n",
			truncate(v.Agent.Name, 24), status, projHours, projCost, fte,
			formatHours(v.Actual.NetTimeSavedHours), formatMoney(v.Actual.CostSavings), v.Actual.StudyCount)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Active agents:      %d (%d projected)\n", p.ActiveAgents, p.ProjectedAgents)
	fmt.Fprintf(out, "Projected per year: %s, %s, %.2f FTE\n",
		formatHours(p.Projected.TimeSavedHours), formatMoney(p.Projected.CostSavings), p.Projected.FTE)
	fmt.Fprintf(out, "Measured to date:   %s, %s, %.2f FTE over %d studies\n",
		formatHours(p.Actual.TimeSavedHours), formatMoney(p.Actual.CostSavings), p.Actual.FTE, p.Actual.StudyCount)
	if !p.RunRate.LastStudyDate.IsZero() {
		fmt.Fprintf(out, "Last study:         %s\n", p.RunRate.LastStudyDate.Format("2006-01-02"))
	}
	if p.WorkforcePercent > 0 {
		fmt.Fprintf(out, "Workforce impact:   %.2f%% of employees\n", p.WorkforcePercent)
	}
}

func printAgent(out io.Writer, v *application.AgentProjection) {
	fmt.Fprintln(out, headerStyle.Render(v.Agent.Name))
	if v.Agent.Division != "" {
		fmt.Fprintf(out, "Division: %s\n", v.Agent.Division)
	}
	if !v.Complete {
		fmt.Fprintln(out, statusWarn.Render("Variables incomplete: no projection available."))
	} else {
		vars := v.Variables
		fmt.Fprintf(out, "Minutes per use:    %.1f without, %.1f with\n", vars.AvgTimeWithoutAgentMinutes, vars.AvgTimeWithAgentMinutes)
		fmt.Fprintf(out, "Annual uses:        %.0f (%.0f%% discounted)\n", vars.AvgUsageCount, vars.UsageDiscountPercent)
		fmt.Fprintf(out, "Hourly wage:        %s\n", formatMoney(vars.AvgHourlyWage))
		fmt.Fprintln(out, "\nProjected at full adoption")
		printResult(out, v.Projected)

		a := v.Adoption
		fmt.Fprintf(out, "\nAdoption: %.1f%%\n", a.AdoptionRatePercent)
		fmt.Fprintf(out, "  Current impact:   %s, %s\n", formatHours(a.CurrentImpact.AnnualTimeSavedHours), formatMoney(a.CurrentImpact.AnnualCostSavings))
		fmt.Fprintf(out, "  Opportunity gap:  %s, %s, %.2f FTE\n", formatHours(a.OpportunityGap.TimeSavedHours), formatMoney(a.OpportunityGap.CostSavings), a.OpportunityGap.FTE)
		fmt.Fprintf(out, "  Value per +1%%:    %s\n", formatMoney(a.IncrementalValuePerPercent.CostSavings))
	}

	fmt.Fprintln(out, "\nMeasured")
	fmt.Fprintf(out, "  Studies:          %d\n", v.Actual.StudyCount)
	fmt.Fprintf(out, "  Time saved:       %s\n", formatHours(v.Actual.NetTimeSavedHours))
	fmt.Fprintf(out, "  Cost savings:     %s\n", formatMoney(v.Actual.CostSavings))
	if !v.Actual.LastStudyDate.IsZero() {
		fmt.Fprintf(out, "  Last study:       %s\n", v.Actual.LastStudyDate.Format("2006-01-02"))
	}
}

func printResult(out io.Writer, r projection.Result) {
	fmt.Fprintf(out, "  Saved per use:    %.1f min\n", r.TimeSavedPerUseMinutes)
	fmt.Fprintf(out, "  Annual hours:     %s\n", formatHours(r.AnnualTimeSavedHours))
	fmt.Fprintf(out, "  Annual savings:   %s\n", formatMoney(r.AnnualCostSavings))
	fmt.Fprintf(out, "  FTE equivalent:   %.2f\n", r.FTEEquivalent)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	projectCmd.Flags().BoolVar(&projectJSON, "json", false, "Output in JSON format")
	projectCmd.Flags().Float64Var(&projectAdoption, "adoption", 100, "Adoption percentage for a what-if projection")
	RootCmd.AddCommand(projectCmd)
}
