// Package scenario models "what if" variations of the agent portfolio:
// usage growth, wage changes, efficiency gains, discount adjustments and
// additional agents.
package scenario

import (
	"fmt"
	"math"

	"github.com/agentroi/runrate/pkg/domain/org"
	"github.com/agentroi/runrate/pkg/domain/projection"
)

// Parameters are the multipliers and adjustments applied to every agent.
type Parameters struct {
	UsageMultiplier       float64 `yaml:"usage_multiplier" json:"usage_multiplier"`
	WageMultiplier        float64 `yaml:"wage_multiplier" json:"wage_multiplier"`
	NewAgentsCount        int     `yaml:"new_agents_count" json:"new_agents_count"`
	EfficiencyImprovement float64 `yaml:"efficiency_improvement" json:"efficiency_improvement"`
	DiscountAdjustment    float64 `yaml:"discount_adjustment" json:"discount_adjustment"`
}

// DefaultParameters returns parameters that leave the baseline unchanged.
func DefaultParameters() Parameters {
	return Parameters{UsageMultiplier: 1, WageMultiplier: 1}
}

// Validate rejects parameters that cannot describe a real portfolio.
func (p Parameters) Validate() error {
	if p.UsageMultiplier < 0 {
		return fmt.Errorf("usage multiplier must not be negative, got %v", p.UsageMultiplier)
	}
	if p.WageMultiplier < 0 {
		return fmt.Errorf("wage multiplier must not be negative, got %v", p.WageMultiplier)
	}
	if p.NewAgentsCount < 0 {
		return fmt.Errorf("new agents count must not be negative, got %d", p.NewAgentsCount)
	}
	if p.EfficiencyImprovement > 100 {
		return fmt.Errorf("efficiency improvement cannot exceed 100%%, got %v", p.EfficiencyImprovement)
	}
	return nil
}

// apply returns the agent variables as they would be under the scenario.
func (p Parameters) apply(v projection.AgentVariables) projection.AgentVariables {
	v.AvgUsageCount *= p.UsageMultiplier
	v.AvgHourlyWage *= p.WageMultiplier
	v.AvgTimeWithAgentMinutes *= 1 - p.EfficiencyImprovement/100
	v.UsageDiscountPercent = math.Max(0, math.Min(100, v.UsageDiscountPercent+p.DiscountAdjustment))
	return v
}

// Scenario is a named parameter bundle.
type Scenario struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Parameters  Parameters `yaml:"parameters" json:"parameters"`
}

// Totals are portfolio-wide projected figures.
type Totals struct {
	TimeSavedHours float64 `json:"time_saved_hours"`
	CostSavings    float64 `json:"cost_savings"`
	FTE            float64 `json:"fte"`
	AgentCount     int     `json:"agent_count"`
}

func (t Totals) add(r projection.Result) Totals {
	t.TimeSavedHours += r.AnnualTimeSavedHours
	t.CostSavings += r.AnnualCostSavings
	t.FTE += r.FTEEquivalent
	t.AgentCount++
	return t
}

func (t Totals) minus(o Totals) Totals {
	return Totals{
		TimeSavedHours: t.TimeSavedHours - o.TimeSavedHours,
		CostSavings:    t.CostSavings - o.CostSavings,
		FTE:            t.FTE - o.FTE,
		AgentCount:     t.AgentCount - o.AgentCount,
	}
}

// Result compares a scenario against the baseline.
type Result struct {
	Scenario  Scenario `json:"scenario"`
	Baseline  Totals   `json:"baseline"`
	Projected Totals   `json:"projected"`
	Delta     Totals   `json:"delta"`
	// DeltaPercent is the change in cost savings relative to the baseline,
	// 0 when the baseline is 0.
	DeltaPercent float64 `json:"delta_percent"`
}

// CalculateBaselineProjections sums projections over every agent with complete
// variables. Incomplete agents are skipped.
func CalculateBaselineProjections(agents []projection.Agent, settings org.Settings) Totals {
	return CalculateScenarioProjections(agents, DefaultParameters(), settings)
}

// CalculateScenarioProjections sums projections with the scenario applied to each
// agent, then adds NewAgentsCount average agents when at least one agent counted.
func CalculateScenarioProjections(agents []projection.Agent, p Parameters, settings org.Settings) Totals {
	hoursPerYear := settings.HoursPerYear()

	var totals Totals
	for _, a := range agents {
		if !a.HasCompleteVariables() {
			continue
		}
		vars := p.apply(a.Resolve(settings))
		totals = totals.add(projection.CalculateAgentProjections(vars, hoursPerYear))
	}

	if totals.AgentCount > 0 && p.NewAgentsCount > 0 {
		n := float64(p.NewAgentsCount)
		count := float64(totals.AgentCount)
		totals.TimeSavedHours += n * totals.TimeSavedHours / count
		totals.CostSavings += n * totals.CostSavings / count
		totals.FTE += n * totals.FTE / count
		totals.AgentCount += p.NewAgentsCount
	}
	return totals
}

// Evaluate projects one scenario against the baseline.
func Evaluate(agents []projection.Agent, s Scenario, settings org.Settings) Result {
	baseline := CalculateBaselineProjections(agents, settings)
	return evaluate(agents, s, baseline, settings)
}

func evaluate(agents []projection.Agent, s Scenario, baseline Totals, settings org.Settings) Result {
	projected := CalculateScenarioProjections(agents, s.Parameters, settings)
	r := Result{
		Scenario:  s,
		Baseline:  baseline,
		Projected: projected,
		Delta:     projected.minus(baseline),
	}
	if baseline.CostSavings != 0 {
		r.DeltaPercent = r.Delta.CostSavings / math.Abs(baseline.CostSavings) * 100
	}
	return r
}

// CompareScenarios evaluates each scenario against a shared baseline, in order.
func CompareScenarios(agents []projection.Agent, scenarios []Scenario, settings org.Settings) []Result {
	baseline := CalculateBaselineProjections(agents, settings)
	out := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, evaluate(agents, s, baseline, settings))
	}
	return out
}

// Best returns the result with the highest projected cost savings.
func Best(results []Result) (Result, bool) {
	if len(results) == 0 {
		return Result{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Projected.CostSavings > best.Projected.CostSavings {
			best = r
		}
	}
	return best, true
}
