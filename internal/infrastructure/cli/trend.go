package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/domain/analytics"
)

var (
	trendMetric   string
	trendAgent    string
	trendDivision string
	trendDays     int
	trendForecast int
	trendJSON     bool
	trendPoints   bool
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Analyze the snapshot history of a metric and forecast it",
	Long: `Trend fits a regression over daily snapshots and projects it forward.

Flags:
  --metric     time_saved, cost_savings or study_count
  --agent      Restrict to one agent
  --division   Restrict to one division
  --days       Lookback window in days
  --forecast   Days to forecast
  --points     Print every historical and forecast point
  --json       Output in JSON format`,
	RunE: runTrend,
}

var trendCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Analyze every metric side by side",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		trends, err := services.Trends.CompareMetrics(cmd.Context(), trendQuery())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if trendJSON {
			return writeJSON(out, trends)
		}
		fmt.Fprintf(out, "%-14s %7s %14s %10s %9s %-13s\n", "METRIC", "POINTS", "SLOPE/DAY", "R2", "QUALITY", "DIRECTION")
		for _, t := range trends {
			fmt.Fprintf(out, "%-14s %7d %14.2f %10.3f %9s %-13s\n",
				t.Metric, len(t.Historical), t.Regression.Slope, t.Regression.RSquared, t.Quality(), t.Direction())
		}
		return nil
	},
}

func trendQuery() application.TrendQuery {
	return application.TrendQuery{
		Metric:       analytics.Metric(trendMetric),
		AgentID:      trendAgent,
		Division:     trendDivision,
		LookbackDays: trendDays,
		ForecastDays: trendForecast,
	}
}

func runTrend(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir(cmd.Context())
	if err != nil {
		return err
	}
	defer services.Close()

	trend, err := services.Trends.Trend(cmd.Context(), trendQuery())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if trendJSON {
		return writeJSON(out, trend)
	}
	printTrend(out, trend, trendPoints)
	return nil
}

func printTrend(out io.Writer, t analytics.TrendData, points bool) {
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Trend: %s", t.Metric)))
	if t.IsEmpty() {
		fmt.Fprintln(out, "No snapshots in the selected window.")
		fmt.Fprintln(out, "Run 'runrate snapshot capture' to record the current totals.")
		return
	}

	fmt.Fprintf(out, "Points:      %d\n", len(t.Historical))
	fmt.Fprintf(out, "Direction:   %s\n", formatTrendDirection(t.Direction()))
	fmt.Fprintf(out, "Slope:       %+.2f per day\n", t.Regression.Slope)
	fmt.Fprintf(out, "R²:          %.3f (%s)\n", t.Regression.RSquared, t.Quality())
	fmt.Fprintf(out, "Mean:        %.2f (sd %.2f)\n", t.Statistics.Mean, t.Statistics.StandardDeviation)
	fmt.Fprintf(out, "Growth:      %+.1f%%\n", t.Statistics.GrowthRate)
	band := t.ConfidenceBand(0.95)
	fmt.Fprintf(out, "95%% band:    %.2f to %.2f\n", band.Lower, band.Upper)
	fmt.Fprintln(out, labelStyle.Render(t.Quality().Advice()))
	if t.LowConfidence() {
		fmt.Fprintln(out, statusWarn.Render(fmt.Sprintf("Low confidence: fewer than %d points of history.", analytics.MinReliablePoints)))
	}

	if len(t.Forecast) > 0 {
		last := t.Forecast[len(t.Forecast)-1]
		fmt.Fprintf(out, "Forecast:    %.2f by %s\n", last.Value, last.Date.Format("2006-01-02"))
	}

	if !points {
		return
	}
	fmt.Fprintln(out, "\nHistory")
	for _, p := range t.Historical {
		fmt.Fprintf(out, "  %s  %12.2f\n", p.Date.Format("2006-01-02"), p.Value)
	}
	fmt.Fprintln(out, "\nForecast")
	for _, p := range t.Forecast {
		fmt.Fprintf(out, "  %s  %12.2f\n", p.Date.Format("2006-01-02"), p.Value)
	}
}

func formatTrendDirection(d analytics.TrendDirection) string {
	switch d {
	case analytics.TrendAccelerating:
		return statusGood.Render("accelerating")
	case analytics.TrendDecelerating:
		return statusBad.Render("decelerating")
	default:
		return "stable"
	}
}

func init() {
	for _, c := range []*cobra.Command{trendCmd, trendCompareCmd} {
		c.Flags().StringVar(&trendAgent, "agent", "", "Restrict to one agent ID")
		c.Flags().StringVar(&trendDivision, "division", "", "Restrict to one division")
		c.Flags().IntVar(&trendDays, "days", 0, "Lookback window in days (default from config)")
		c.Flags().IntVar(&trendForecast, "forecast", 0, "Days to forecast (default from config)")
		c.Flags().BoolVar(&trendJSON, "json", false, "Output in JSON format")
	}
	trendCmd.Flags().StringVar(&trendMetric, "metric", string(analytics.MetricTimeSaved), "Metric: time_saved, cost_savings or study_count")
	trendCmd.Flags().BoolVar(&trendPoints, "points", false, "Print every data point")
	trendCmd.AddCommand(trendCompareCmd)
	RootCmd.AddCommand(trendCmd)
}
