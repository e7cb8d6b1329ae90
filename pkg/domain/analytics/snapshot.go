// Package analytics provides trend analysis and forecasting over run-rate snapshots.
package analytics

import (
	"sort"
	"time"

	"github.com/agentroi/runrate/pkg/domain/stats"
)

// DataSource tags where a snapshot came from. It is display metadata only and
// never weights the statistics.
type DataSource string

const (
	DataSourceReal      DataSource = "real"
	DataSourceSynthetic DataSource = "synthetic"
)

// Snapshot is one immutable daily aggregate of measured impact.
type Snapshot struct {
	ID                  string     `yaml:"id" json:"id"`
	Date                time.Time  `yaml:"date" json:"date"`
	AgentID             string     `yaml:"agent_id,omitempty" json:"agent_id,omitempty"`
	Division            string     `yaml:"division,omitempty" json:"division,omitempty"`
	TotalStudies        int        `yaml:"total_studies" json:"total_studies"`
	TotalTimeSavedHours float64    `yaml:"total_time_saved_hours" json:"total_time_saved_hours"`
	TotalCostSavings    float64    `yaml:"total_cost_savings" json:"total_cost_savings"`
	ActiveAgents        int        `yaml:"active_agents" json:"active_agents"`
	DataSource          DataSource `yaml:"data_source,omitempty" json:"data_source,omitempty"`
}

// Day returns the UTC calendar day the snapshot belongs to.
func (s Snapshot) Day() time.Time {
	return s.Date.UTC().Truncate(24 * time.Hour)
}

// Key identifies the agent-day slot a snapshot occupies. A store holds at
// most one snapshot per key.
func (s Snapshot) Key() string {
	return s.AgentID + "@" + s.Day().Format(time.DateOnly)
}

// Metric selects which snapshot field a trend is computed over.
type Metric string

const (
	MetricTimeSaved   Metric = "time_saved"
	MetricCostSavings Metric = "cost_savings"
	MetricStudyCount  Metric = "study_count"
)

// Metrics lists every supported metric selector.
func Metrics() []Metric {
	return []Metric{MetricTimeSaved, MetricCostSavings, MetricStudyCount}
}

// IsValid reports whether m is a supported metric.
func (m Metric) IsValid() bool {
	switch m {
	case MetricTimeSaved, MetricCostSavings, MetricStudyCount:
		return true
	}
	return false
}

// valueOf returns the snapshot field selected by m.
func (m Metric) valueOf(s Snapshot) float64 {
	switch m {
	case MetricTimeSaved:
		return s.TotalTimeSavedHours
	case MetricCostSavings:
		return s.TotalCostSavings
	case MetricStudyCount:
		return float64(s.TotalStudies)
	default:
		return 0
	}
}

// Filter narrows a snapshot series to one agent and/or division.
type Filter struct {
	AgentID  string
	Division string
	Since    time.Time
}

// Matches reports whether the snapshot passes the filter.
func (f Filter) Matches(s Snapshot) bool {
	if f.AgentID != "" && s.AgentID != f.AgentID {
		return false
	}
	if f.Division != "" && s.Division != f.Division {
		return false
	}
	if !f.Since.IsZero() && s.Date.Before(f.Since) {
		return false
	}
	return true
}

// Apply returns the snapshots that match the filter.
func (f Filter) Apply(snapshots []Snapshot) []Snapshot {
	out := make([]Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}

// ToDataPoints maps snapshots to one point per calendar day in date order.
// Snapshots sharing a day (one per agent) are summed.
func ToDataPoints(snapshots []Snapshot, metric Metric) []stats.DataPoint {
	if len(snapshots) == 0 {
		return []stats.DataPoint{}
	}

	byDay := make(map[string]*stats.DataPoint)
	for _, s := range snapshots {
		day := s.Day()
		key := day.Format(time.DateOnly)
		p, ok := byDay[key]
		if !ok {
			p = &stats.DataPoint{Date: day}
			byDay[key] = p
		}
		p.Value += metric.valueOf(s)
	}

	points := make([]stats.DataPoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}
