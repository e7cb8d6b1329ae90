// Package goal tracks organization and agent targets: progress, deadlines,
// per-agent contribution breakdowns and the lifecycle of a goal's status.
package goal

import (
	"fmt"
	"time"
)

// Type is the quantity a goal measures.
type Type string

const (
	TypeTimeSaved  Type = "time_saved"
	TypeCostSaved  Type = "cost_saved"
	TypeStudyCount Type = "study_count"
	TypeFTEImpact  Type = "fte_impact"
)

// IsValid reports whether t is a known goal type.
func (t Type) IsValid() bool {
	switch t {
	case TypeTimeSaved, TypeCostSaved, TypeStudyCount, TypeFTEImpact:
		return true
	}
	return false
}

// Unit returns a short display unit for values of this type.
func (t Type) Unit() string {
	switch t {
	case TypeTimeSaved:
		return "hours"
	case TypeCostSaved:
		return "$"
	case TypeStudyCount:
		return "studies"
	case TypeFTEImpact:
		return "FTE"
	default:
		return ""
	}
}

// DataSource selects whether a goal is measured against projections or study actuals.
type DataSource string

const (
	SourceProjected DataSource = "projected"
	SourceActual    DataSource = "actual"
)

// Status is the externally assigned health of a goal.
type Status string

const (
	StatusOnTrack   Status = "on_track"
	StatusAtRisk    Status = "at_risk"
	StatusBehind    Status = "behind"
	StatusAchieved  Status = "achieved"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusOnTrack, StatusAtRisk, StatusBehind, StatusAchieved, StatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether the goal is still being pursued.
func (s Status) IsOpen() bool {
	return s == StatusOnTrack || s == StatusAtRisk || s == StatusBehind
}

// Goal is a target value to reach by a date, either organization wide
// (AgentID nil) or scoped to one agent.
type Goal struct {
	ID           string     `yaml:"id" json:"id"`
	Title        string     `yaml:"title" json:"title"`
	AgentID      *string    `yaml:"agent_id,omitempty" json:"agent_id,omitempty"`
	Type         Type       `yaml:"goal_type" json:"goal_type"`
	TargetValue  float64    `yaml:"target_value" json:"target_value"`
	CurrentValue float64    `yaml:"current_value" json:"current_value"`
	StartDate    time.Time  `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	TargetDate   time.Time  `yaml:"target_date" json:"target_date"`
	DataSource   DataSource `yaml:"data_source" json:"data_source"`
	Status       Status     `yaml:"status" json:"status"`
}

// IsOrganizationWide reports whether the goal spans every agent.
func (g Goal) IsOrganizationWide() bool {
	return g.AgentID == nil || *g.AgentID == ""
}

// ScopedAgent returns the agent the goal is scoped to, or "".
func (g Goal) ScopedAgent() string {
	if g.AgentID == nil {
		return ""
	}
	return *g.AgentID
}

// Validate checks the fields every stored goal must carry.
func (g Goal) Validate() error {
	if g.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidGoal)
	}
	if !g.Type.IsValid() {
		return fmt.Errorf("%w: unknown goal type %q", ErrInvalidGoal, g.Type)
	}
	if g.DataSource != SourceProjected && g.DataSource != SourceActual {
		return fmt.Errorf("%w: unknown data source %q", ErrInvalidGoal, g.DataSource)
	}
	if g.Status != "" && !g.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidGoal, g.Status)
	}
	if g.TargetDate.IsZero() {
		return fmt.Errorf("%w: target date is required", ErrInvalidGoal)
	}
	return nil
}
