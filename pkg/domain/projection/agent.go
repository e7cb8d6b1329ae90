// Package projection converts agent assumptions and time & motion studies into
// time, cost and FTE savings.
//
// Negative time saved (an agent that is slower than the manual process) is never
// clamped: it flows through every figure so regressions stay visible.
package projection

import (
	"github.com/agentroi/runrate/pkg/domain/org"
)

// minutesPerHour converts per-use minutes into annual hours.
const minutesPerHour = 60.0

// AgentStatus is the lifecycle state of an agent deployment.
type AgentStatus string

const (
	AgentActive   AgentStatus = "active"
	AgentInactive AgentStatus = "inactive"
	AgentRetired  AgentStatus = "retired"
)

// Agent is a stored agent deployment. Variables are optional until an owner
// records them; Resolve turns them into fully populated AgentVariables.
type Agent struct {
	ID       string      `yaml:"id" json:"id"`
	Name     string      `yaml:"name" json:"name"`
	Division string      `yaml:"division,omitempty" json:"division,omitempty"`
	Status   AgentStatus `yaml:"status,omitempty" json:"status,omitempty"`

	AvgTimeWithoutAgentMinutes *float64 `yaml:"avg_time_without_agent_minutes,omitempty" json:"avg_time_without_agent_minutes,omitempty"`
	AvgTimeWithAgentMinutes    *float64 `yaml:"avg_time_with_agent_minutes,omitempty" json:"avg_time_with_agent_minutes,omitempty"`
	AvgUsageCount              *float64 `yaml:"avg_usage_count,omitempty" json:"avg_usage_count,omitempty"`
	UsageDiscountPercent       *float64 `yaml:"usage_discount_percent,omitempty" json:"usage_discount_percent,omitempty"`
	AvgHourlyWage              *float64 `yaml:"avg_hourly_wage,omitempty" json:"avg_hourly_wage,omitempty"`
	TargetUserBase             *int     `yaml:"target_user_base,omitempty" json:"target_user_base,omitempty"`
	CurrentActiveUsers         *int     `yaml:"current_active_users,omitempty" json:"current_active_users,omitempty"`
	AdoptionRatePercent        *float64 `yaml:"adoption_rate_percent,omitempty" json:"adoption_rate_percent,omitempty"`
}

// IsActive reports whether the agent counts toward portfolio figures.
// Agents without a recorded status are treated as active.
func (a Agent) IsActive() bool {
	return a.Status == "" || a.Status == AgentActive
}

// HasCompleteVariables reports whether the agent carries enough data to be projected.
func (a Agent) HasCompleteVariables() bool {
	return a.AvgTimeWithoutAgentMinutes != nil &&
		a.AvgTimeWithAgentMinutes != nil &&
		a.AvgUsageCount != nil &&
		*a.AvgUsageCount > 0
}

// Resolve applies organization defaults to unset variables.
func (a Agent) Resolve(settings org.Settings) AgentVariables {
	vars := AgentVariables{
		AvgTimeWithoutAgentMinutes: deref(a.AvgTimeWithoutAgentMinutes, 0),
		AvgTimeWithAgentMinutes:    deref(a.AvgTimeWithAgentMinutes, 0),
		AvgUsageCount:              deref(a.AvgUsageCount, 0),
		UsageDiscountPercent:       deref(a.UsageDiscountPercent, settings.UsageDiscountPercent()),
		AvgHourlyWage:              deref(a.AvgHourlyWage, settings.HourlyWage()),
		AdoptionRatePercent:        100,
	}
	if a.TargetUserBase != nil {
		vars.TargetUserBase = *a.TargetUserBase
	}
	if a.CurrentActiveUsers != nil {
		vars.CurrentActiveUsers = *a.CurrentActiveUsers
	}

	switch {
	case a.AdoptionRatePercent != nil:
		vars.AdoptionRatePercent = *a.AdoptionRatePercent
	case vars.TargetUserBase > 0:
		vars.AdoptionRatePercent = CalculateAdoptionRate(float64(vars.CurrentActiveUsers), float64(vars.TargetUserBase))
	}
	return vars
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// AgentVariables is the fully resolved input to the projection formulas.
type AgentVariables struct {
	AvgTimeWithoutAgentMinutes float64 `json:"avg_time_without_agent_minutes"`
	AvgTimeWithAgentMinutes    float64 `json:"avg_time_with_agent_minutes"`
	AvgUsageCount              float64 `json:"avg_usage_count"`
	UsageDiscountPercent       float64 `json:"usage_discount_percent"`
	AvgHourlyWage              float64 `json:"avg_hourly_wage"`
	TargetUserBase             int     `json:"target_user_base,omitempty"`
	CurrentActiveUsers         int     `json:"current_active_users,omitempty"`
	AdoptionRatePercent        float64 `json:"adoption_rate_percent"`
}

// Result is the projected annual impact of one agent or a set of agents.
type Result struct {
	TimeSavedPerUseMinutes float64 `json:"time_saved_per_use_minutes"`
	AnnualTimeSavedHours   float64 `json:"annual_time_saved_hours"`
	AnnualCostSavings      float64 `json:"annual_cost_savings"`
	FTEEquivalent          float64 `json:"fte_equivalent"`
}

// CalculateAgentProjections computes the projected annual impact of an agent.
// A non-positive hoursPerYear uses the 2080-hour default.
func CalculateAgentProjections(vars AgentVariables, hoursPerYear float64) Result {
	if hoursPerYear <= 0 {
		hoursPerYear = org.DefaultWorkHoursPerYear
	}

	timeSavedPerUse := vars.AvgTimeWithoutAgentMinutes - vars.AvgTimeWithAgentMinutes
	netUsage := vars.AvgUsageCount * (1 - vars.UsageDiscountPercent/100)
	annualHours := (timeSavedPerUse * netUsage) / minutesPerHour

	return Result{
		TimeSavedPerUseMinutes: timeSavedPerUse,
		AnnualTimeSavedHours:   annualHours,
		AnnualCostSavings:      annualHours * vars.AvgHourlyWage,
		FTEEquivalent:          annualHours / hoursPerYear,
	}
}
