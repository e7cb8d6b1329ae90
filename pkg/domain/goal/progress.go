package goal

import (
	"math"
	"sort"
	"time"

	"github.com/agentroi/runrate/pkg/domain/org"
	"github.com/agentroi/runrate/pkg/domain/projection"
)

const (
	msPerDay = 86400000.0

	// atRiskRatio is the share of elapsed time that progress must keep up with
	// before a goal is suggested as behind rather than at risk.
	atRiskRatio = 0.75
)

// CalculateProgress returns the completion percentage, capped at 100.
// A zero target yields 0.
func CalculateProgress(g Goal) float64 {
	if g.TargetValue == 0 {
		return 0
	}
	return math.Min(100, g.CurrentValue/g.TargetValue*100)
}

// DaysRemaining returns the whole days until the target date, rounded up.
// Overdue goals return a negative count.
func DaysRemaining(g Goal, now time.Time) int {
	ms := float64(g.TargetDate.Sub(now).Milliseconds())
	return int(math.Ceil(ms / msPerDay))
}

// ElapsedPercent returns how much of the goal window has passed, 0 to 100.
// Goals without a start date report 0.
func ElapsedPercent(g Goal, now time.Time) float64 {
	if g.StartDate.IsZero() || !g.TargetDate.After(g.StartDate) {
		return 0
	}
	total := g.TargetDate.Sub(g.StartDate).Seconds()
	elapsed := now.Sub(g.StartDate).Seconds()
	return math.Max(0, math.Min(100, elapsed/total*100))
}

// Contribution is one agent's share of an organization-wide goal.
type Contribution struct {
	AgentID      string  `json:"agent_id"`
	AgentName    string  `json:"agent_name"`
	Contribution float64 `json:"contribution"`
	Percentage   float64 `json:"percentage"`
}

// AgentContributions breaks an organization-wide projected goal down by agent.
// Only active agents with complete variables are counted. Agent-scoped goals,
// actual-sourced goals and study count goals have no breakdown and return an
// empty slice.
func AgentContributions(g Goal, agents []projection.Agent, settings org.Settings) []Contribution {
	out := []Contribution{}
	if !g.IsOrganizationWide() || g.DataSource != SourceProjected {
		return out
	}
	if g.Type == TypeStudyCount {
		return out
	}

	hoursPerYear := settings.HoursPerYear()
	total := 0.0
	for _, a := range agents {
		if !a.IsActive() || !a.HasCompleteVariables() {
			continue
		}
		vars := a.Resolve(settings)
		hours := projection.CalculateAgentProjections(vars, hoursPerYear).AnnualTimeSavedHours

		var value float64
		switch g.Type {
		case TypeFTEImpact:
			value = hours / hoursPerYear
		case TypeTimeSaved:
			value = hours
		case TypeCostSaved:
			value = hours * vars.AvgHourlyWage
		}
		total += value
		out = append(out, Contribution{AgentID: a.ID, AgentName: a.Name, Contribution: value})
	}

	for i := range out {
		if total != 0 {
			out[i].Percentage = out[i].Contribution / total * 100
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Contribution > out[j].Contribution
	})
	return out
}

// Assessment holds the inputs a status review needs for one goal.
type Assessment struct {
	GoalID          string  `json:"goal_id"`
	Progress        float64 `json:"progress"`
	ElapsedPercent  float64 `json:"elapsed_percent"`
	DaysRemaining   int     `json:"days_remaining"`
	CurrentStatus   Status  `json:"current_status"`
	SuggestedStatus Status  `json:"suggested_status"`
}

// NeedsChange reports whether the suggestion differs from the stored status.
func (a Assessment) NeedsChange() bool {
	return a.SuggestedStatus != a.CurrentStatus
}

// Assess computes progress against elapsed time and suggests a status.
// Closed goals keep their status.
func Assess(g Goal, now time.Time) Assessment {
	a := Assessment{
		GoalID:          g.ID,
		Progress:        CalculateProgress(g),
		ElapsedPercent:  ElapsedPercent(g, now),
		DaysRemaining:   DaysRemaining(g, now),
		CurrentStatus:   g.Status,
		SuggestedStatus: g.Status,
	}
	if !g.Status.IsOpen() && g.Status != "" {
		return a
	}

	switch {
	case a.Progress >= 100:
		a.SuggestedStatus = StatusAchieved
	case a.DaysRemaining < 0:
		a.SuggestedStatus = StatusBehind
	case a.Progress >= a.ElapsedPercent:
		a.SuggestedStatus = StatusOnTrack
	case a.Progress >= atRiskRatio*a.ElapsedPercent:
		a.SuggestedStatus = StatusAtRisk
	default:
		a.SuggestedStatus = StatusBehind
	}
	return a
}

// Totals are the portfolio figures a goal can be measured against.
type Totals struct {
	TimeSavedHours float64 `json:"time_saved_hours"`
	CostSavings    float64 `json:"cost_savings"`
	FTE            float64 `json:"fte"`
	StudyCount     int     `json:"study_count"`
}

// ValueFor returns the figure matching the goal type.
func (t Totals) ValueFor(gt Type) float64 {
	switch gt {
	case TypeTimeSaved:
		return t.TimeSavedHours
	case TypeCostSaved:
		return t.CostSavings
	case TypeFTEImpact:
		return t.FTE
	case TypeStudyCount:
		return float64(t.StudyCount)
	default:
		return 0
	}
}

// CurrentValueFor returns the value the goal tracks: measured totals for
// actual-sourced goals, projected totals otherwise.
func CurrentValueFor(g Goal, projected, actual Totals) float64 {
	if g.DataSource == SourceActual {
		return actual.ValueFor(g.Type)
	}
	return projected.ValueFor(g.Type)
}
