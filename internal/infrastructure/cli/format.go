package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agentroi/runrate/pkg/domain/alert"
	"github.com/agentroi/runrate/pkg/domain/goal"
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	statusGood = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	statusBad  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String()
}

func formatHours(v float64) string {
	return fmt.Sprintf("%.1fh", v)
}

func formatGoalValue(t goal.Type, v float64) string {
	switch t {
	case goal.TypeCostSaved:
		return formatMoney(v)
	case goal.TypeTimeSaved:
		return formatHours(v)
	case goal.TypeFTEImpact:
		return fmt.Sprintf("%.2f FTE", v)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func styleGoalStatus(s goal.Status) string {
	switch s {
	case goal.StatusOnTrack, goal.StatusAchieved:
		return statusGood.Render(string(s))
	case goal.StatusAtRisk:
		return statusWarn.Render(string(s))
	case goal.StatusBehind:
		return statusBad.Render(string(s))
	default:
		return labelStyle.Render(string(s))
	}
}

func styleSeverity(s alert.Severity) string {
	switch s {
	case alert.SeverityCritical:
		return statusBad.Render(strings.ToUpper(string(s)))
	case alert.SeverityWarning:
		return statusWarn.Render(strings.ToUpper(string(s)))
	default:
		return labelStyle.Render(strings.ToUpper(string(s)))
	}
}
