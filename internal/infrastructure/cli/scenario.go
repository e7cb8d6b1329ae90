package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentroi/runrate/pkg/domain/scenario"
)

var (
	scenarioPreset     string
	scenarioCompare    bool
	scenarioJSON       bool
	scenarioUsage      float64
	scenarioWage       float64
	scenarioNewAgents  int
	scenarioEfficiency float64
	scenarioDiscount   float64
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Evaluate what-if scenarios against the active agents",
	Long: `Scenario applies usage, wage, efficiency and discount adjustments to every
active agent and compares the result with the baseline.

Examples:
  runrate scenario --preset "Wage Increase Impact"
  runrate scenario --usage 1.2 --efficiency 10
  runrate scenario --compare`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		if scenarioCompare {
			results, err := services.Scenarios.ComparePresets(ctx)
			if err != nil {
				return err
			}
			if scenarioJSON {
				return writeJSON(out, results)
			}
			printScenarioComparison(out, results)
			return nil
		}

		var result scenario.Result
		if scenarioPreset != "" {
			result, err = services.Scenarios.RunPreset(ctx, scenarioPreset)
		} else {
			result, err = services.Scenarios.Run(ctx, scenario.Scenario{
				Name: "custom",
				Parameters: scenario.Parameters{
					UsageMultiplier:       scenarioUsage,
					WageMultiplier:        scenarioWage,
					NewAgentsCount:        scenarioNewAgents,
					EfficiencyImprovement: scenarioEfficiency,
					DiscountAdjustment:    scenarioDiscount,
				},
			})
		}
		if err != nil {
			return err
		}

		if scenarioJSON {
			return writeJSON(out, result)
		}
		printScenario(out, result)
		return nil
	},
}

var scenarioPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		presets := scenario.CreatePresetScenarios()
		if scenarioJSON {
			return writeJSON(out, presets)
		}
		for _, p := range presets {
			fmt.Fprintf(out, "%-22s %s\n", p.Name, p.Description)
		}
		return nil
	},
}

func printScenario(out io.Writer, r scenario.Result) {
	p := r.Scenario.Parameters
	fmt.Fprintln(out, headerStyle.Render("Scenario: "+r.Scenario.Name))
	if r.Scenario.Description != "" {
		fmt.Fprintln(out, r.Scenario.Description)
	}
	fmt.Fprintf(out, "Usage x%.2f, wage x%.2f, efficiency %+.0f%%, discount %+.0f pts, %d new agents\n\n",
		p.UsageMultiplier, p.WageMultiplier, p.EfficiencyImprovement, p.DiscountAdjustment, p.NewAgentsCount)

	fmt.Fprintf(out, "%-10s %14s %16s %10s %7s\n", "", "HOURS", "SAVINGS", "FTE", "AGENTS")
	row := func(label string, t scenario.Totals) {
		fmt.Fprintf(out, "%-10s %14s %16s %10.2f %7d\n", label, formatHours(t.TimeSavedHours), formatMoney(t.CostSavings), t.FTE, t.AgentCount)
	}
	row("Baseline", r.Baseline)
	row("Scenario", r.Projected)
	row("Delta", r.Delta)

	change := fmt.Sprintf("%+.1f%% cost savings", r.DeltaPercent)
	switch {
	case r.Delta.CostSavings > 0:
		change = statusGood.Render(change)
	case r.Delta.CostSavings < 0:
		change = statusBad.Render(change)
	}
	fmt.Fprintf(out, "\nChange: %s\n", change)
}

func printScenarioComparison(out io.Writer, results []scenario.Result) {
	fmt.Fprintf(out, "%-22s %16s %16s %9s\n", "SCENARIO", "SAVINGS", "DELTA", "CHANGE")
	for _, r := range results {
		fmt.Fprintf(out, "%-22s %16s %16s %+8.1f%%\n",
			r.Scenario.Name, formatMoney(r.Projected.CostSavings), formatMoney(r.Delta.CostSavings), r.DeltaPercent)
	}
	if best, ok := scenario.Best(results); ok {
		fmt.Fprintf(out, "\nBest: %s\n", statusGood.Render(best.Scenario.Name))
	}
}

func init() {
	scenarioCmd.Flags().StringVar(&scenarioPreset, "preset", "", "Run a built-in scenario by name")
	scenarioCmd.Flags().BoolVar(&scenarioCompare, "compare", false, "Compare every built-in scenario")
	scenarioCmd.Flags().Float64Var(&scenarioUsage, "usage", 1, "Usage multiplier")
	scenarioCmd.Flags().Float64Var(&scenarioWage, "wage", 1, "Wage multiplier")
	scenarioCmd.Flags().IntVar(&scenarioNewAgents, "new-agents", 0, "Additional agents modeled on the portfolio average")
	scenarioCmd.Flags().Float64Var(&scenarioEfficiency, "efficiency", 0, "Percent reduction in time with the agent")
	scenarioCmd.Flags().Float64Var(&scenarioDiscount, "discount", 0, "Percentage points added to the usage discount")
	scenarioCmd.PersistentFlags().BoolVar(&scenarioJSON, "json", false, "Output in JSON format")
	scenarioCmd.AddCommand(scenarioPresetsCmd)
	RootCmd.AddCommand(scenarioCmd)
}
