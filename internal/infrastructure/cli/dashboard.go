package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/agentroi/runrate/internal/infrastructure/wiring"
	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/domain/alert"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		m := initialModel(cmd.Context(), services)
		if os.Getenv("RUNRATE_SKIP_DASHBOARD_RUN") == "true" {
			return m.err
		}
		p := tea.NewProgram(m)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(dashboardCmd)
}

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

type dashboardView int

const (
	viewAgents dashboardView = iota
	viewGoals
)

type model struct {
	agents    table.Model
	goals     table.Model
	view      dashboardView
	portfolio *application.Portfolio
	alerts    []alert.Alert
	err       error
}

func newTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)
	return t
}

func initialModel(ctx context.Context, services *wiring.AppServices) model {
	portfolio, err := services.Projections.Portfolio(ctx)
	if err != nil {
		return model{err: err}
	}
	goals, err := services.Goals.List(ctx)
	if err != nil {
		return model{err: err}
	}
	alerts, err := services.Alerts.Evaluate(ctx)
	if err != nil {
		return model{err: err}
	}

	agentRows := make([]table.Row, 0, len(portfolio.Agents))
	for _, v := range portfolio.Agents {
		projected := "-"
		if v.Complete {
			projected = formatMoney(v.Projected.AnnualCostSavings)
		}
		agentRows = append(agentRows, table.Row{
			v.Agent.Name,
			v.Agent.Division,
			projected,
			formatMoney(v.Actual.CostSavings),
			fmt.Sprintf("%.0f%%", v.Adoption.AdoptionRatePercent),
			fmt.Sprintf("%d", v.Actual.StudyCount),
		})
	}

	goalRows := make([]table.Row, 0, len(goals))
	for _, v := range goals {
		goalRows = append(goalRows, table.Row{
			v.Goal.Title,
			string(v.Goal.Status),
			fmt.Sprintf("%.1f%%", v.Progress),
			formatGoalValue(v.Goal.Type, v.Goal.TargetValue),
			v.Goal.TargetDate.Format("2006-01-02"),
		})
	}

	return model{
		agents: newTable([]table.Column{
			{Title: "Agent", Width: 24},
			{Title: "Division", Width: 14},
			{Title: "Projected", Width: 14},
			{Title: "Measured", Width: 14},
			{Title: "Adoption", Width: 9},
			{Title: "Studies", Width: 8},
		}, agentRows),
		goals: newTable([]table.Column{
			{Title: "Goal", Width: 30},
			{Title: "Status", Width: 10},
			{Title: "Progress", Width: 9},
			{Title: "Target", Width: 14},
			{Title: "Due", Width: 11},
		}, goalRows),
		portfolio: portfolio,
		alerts:    alerts,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.view == viewAgents {
				m.view = viewGoals
			} else {
				m.view = viewAgents
			}
			return m, nil
		}
	}
	if m.view == viewGoals {
		m.goals, cmd = m.goals.Update(msg)
	} else {
		m.agents, cmd = m.agents.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading dashboard: %v\nPress q to quit.", m.err)
	}

	p := m.portfolio
	header := headerStyle.Render("Runrate")
	summary := fmt.Sprintf("Projected: %s/yr, %.2f FTE   Measured: %s over %d studies",
		formatMoney(p.Projected.CostSavings), p.Projected.FTE, formatMoney(p.Actual.CostSavings), p.Actual.StudyCount)

	title, body := "\nAgents:", m.agents.View()
	if m.view == viewGoals {
		title, body = "\nGoals:", m.goals.View()
	}

	alertView := statusGood.Render("\nNo alerts")
	if len(m.alerts) > 0 {
		counts := alert.CountBySeverity(m.alerts)
		style := statusWarn
		if counts[alert.SeverityCritical] > 0 {
			style = statusBad
		}
		alertView = style.Render(fmt.Sprintf("\nALERTS: %d critical, %d warning", counts[alert.SeverityCritical], counts[alert.SeverityWarning]))
		for i, a := range m.alerts {
			if i == 5 {
				alertView += fmt.Sprintf("\n  ... %d more", len(m.alerts)-i)
				break
			}
			alertView += fmt.Sprintf("\n- [%s] %s", a.Severity, a.Message)
		}
	}

	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			summary,
			title,
			body,
			alertView,
			"\n[q] Quit  [Tab] Agents/Goals  [Up/Down] Navigate",
		),
	) + "\n"
}
