// Package alert evaluates portfolio rules and reports conditions that need
// attention: overdue or slipping goals, agents that cost time, outlier
// studies and forecasts that cannot be trusted.
package alert

import (
	"fmt"
	"sort"
	"time"

	"github.com/agentroi/runrate/pkg/domain/analytics"
	"github.com/agentroi/runrate/pkg/domain/goal"
	"github.com/agentroi/runrate/pkg/domain/projection"
	"github.com/agentroi/runrate/pkg/domain/stats"
)

// Severity ranks how urgently an alert should be handled.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Kind identifies the rule that raised an alert.
type Kind string

const (
	KindGoalOverdue     Kind = "goal_overdue"
	KindGoalAtRisk      Kind = "goal_at_risk"
	KindNegativeSavings Kind = "negative_savings"
	KindStudyOutlier    Kind = "study_outlier"
	KindWeakForecast    Kind = "weak_forecast"
)

// Alert is one raised condition. Key is stable across evaluations so
// consumers can deduplicate.
type Alert struct {
	Key      string   `json:"key"`
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

// Input is everything the rules look at.
type Input struct {
	Now              time.Time
	Goals            []goal.Goal
	Agents           []projection.Agent
	Studies          []projection.Study
	Trends           []analytics.TrendData
	OutlierThreshold float64
}

// Evaluate runs every rule and returns alerts ordered by severity.
func Evaluate(in Input) []Alert {
	var alerts []Alert
	alerts = append(alerts, goalAlerts(in.Goals, in.Now)...)
	alerts = append(alerts, negativeSavingsAlerts(in.Agents)...)
	alerts = append(alerts, outlierAlerts(in.Studies, in.OutlierThreshold)...)
	alerts = append(alerts, forecastAlerts(in.Trends)...)

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Severity.rank() != alerts[j].Severity.rank() {
			return alerts[i].Severity.rank() < alerts[j].Severity.rank()
		}
		return alerts[i].Key < alerts[j].Key
	})
	if alerts == nil {
		return []Alert{}
	}
	return alerts
}

// CountBySeverity tallies alerts per severity.
func CountBySeverity(alerts []Alert) map[Severity]int {
	counts := make(map[Severity]int)
	for _, a := range alerts {
		counts[a.Severity]++
	}
	return counts
}

func newAlert(kind Kind, sev Severity, subject, msg string) Alert {
	return Alert{
		Key:      string(kind) + ":" + subject,
		Kind:     kind,
		Severity: sev,
		Subject:  subject,
		Message:  msg,
	}
}

func goalAlerts(goals []goal.Goal, now time.Time) []Alert {
	var out []Alert
	for _, g := range goals {
		if g.Status != "" && !g.Status.IsOpen() {
			continue
		}
		if days := goal.DaysRemaining(g, now); days < 0 && goal.CalculateProgress(g) < 100 {
			out = append(out, newAlert(KindGoalOverdue, SeverityCritical, g.ID,
				fmt.Sprintf("Goal %q is %d days overdue at %.0f%% progress", g.Title, -days, goal.CalculateProgress(g))))
			continue
		}
		if g.Status == goal.StatusAtRisk || g.Status == goal.StatusBehind {
			out = append(out, newAlert(KindGoalAtRisk, SeverityWarning, g.ID,
				fmt.Sprintf("Goal %q is %s at %.0f%% progress", g.Title, g.Status, goal.CalculateProgress(g))))
		}
	}
	return out
}

func negativeSavingsAlerts(agents []projection.Agent) []Alert {
	var out []Alert
	for _, a := range agents {
		if !a.IsActive() || a.AvgTimeWithoutAgentMinutes == nil || a.AvgTimeWithAgentMinutes == nil {
			continue
		}
		saved := *a.AvgTimeWithoutAgentMinutes - *a.AvgTimeWithAgentMinutes
		if saved < 0 {
			out = append(out, newAlert(KindNegativeSavings, SeverityWarning, a.ID,
				fmt.Sprintf("Agent %q adds %.1f minutes per use", a.Name, -saved)))
		}
	}
	return out
}

func outlierAlerts(studies []projection.Study, threshold float64) []Alert {
	byAgent := make(map[string][]projection.Study)
	var order []string
	for _, s := range studies {
		if !s.IsCompleted() {
			continue
		}
		if _, ok := byAgent[s.AgentID]; !ok {
			order = append(order, s.AgentID)
		}
		byAgent[s.AgentID] = append(byAgent[s.AgentID], s)
	}

	var out []Alert
	for _, agentID := range order {
		group := byAgent[agentID]
		values := make([]float64, len(group))
		for i, s := range group {
			values[i] = projection.CalculateStudyMetrics(s).TimeSavedMinutes
		}
		for _, o := range stats.DetectOutliers(values, threshold) {
			if !o.IsOutlier {
				continue
			}
			s := group[o.Index]
			out = append(out, newAlert(KindStudyOutlier, SeverityInfo, s.ID,
				fmt.Sprintf("Study %s for agent %s saved %.1f minutes per use (z=%.1f)", s.ID, agentID, o.Value, o.ZScore)))
		}
	}
	return out
}

func forecastAlerts(trends []analytics.TrendData) []Alert {
	var out []Alert
	for _, t := range trends {
		if t.IsEmpty() {
			continue
		}
		switch {
		case t.LowConfidence():
			out = append(out, newAlert(KindWeakForecast, SeverityInfo, string(t.Metric),
				fmt.Sprintf("Only %d data points for %s; forecast is low confidence", len(t.Historical), t.Metric)))
		case t.Quality() == analytics.QualityWeak:
			out = append(out, newAlert(KindWeakForecast, SeverityInfo, string(t.Metric),
				fmt.Sprintf("%s trend fit is weak (R²=%.2f)", t.Metric, t.Regression.RSquared)))
		}
	}
	return out
}
