package projection

import "math"

// Gap is a difference between two projections along each impact dimension.
type Gap struct {
	TimeSavedHours float64 `json:"time_saved_hours"`
	CostSavings    float64 `json:"cost_savings"`
	FTE            float64 `json:"fte"`
}

// AdoptionAdjustedResult compares impact at current adoption with impact at full adoption.
type AdoptionAdjustedResult struct {
	AdoptionRatePercent        float64 `json:"adoption_rate_percent"`
	CurrentImpact              Result  `json:"current_impact"`
	PotentialImpact            Result  `json:"potential_impact"`
	OpportunityGap             Gap     `json:"opportunity_gap"`
	IncrementalValuePerPercent Gap     `json:"incremental_value_per_percent"`
}

// CalculateAdoptionRate returns current/target as a percentage capped at 100.
func CalculateAdoptionRate(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(100, current/target*100)
}

// CalculateProjectedUsageAtAdoption scales a full-adoption usage count by an adoption percentage.
func CalculateProjectedUsageAtAdoption(baseUsage, adoptionPercent float64) float64 {
	return baseUsage * (adoptionPercent / 100)
}

// CalculateAdoptionAdjustedProjections projects the agent at its current adoption
// rate and at 100% adoption. The recorded usage count is the full-adoption baseline.
func CalculateAdoptionAdjustedProjections(vars AgentVariables, hoursPerYear float64) AdoptionAdjustedResult {
	current := CalculateAdoptionScenario(vars, vars.AdoptionRatePercent, hoursPerYear)
	potential := CalculateAgentProjections(vars, hoursPerYear)

	gap := Gap{
		TimeSavedHours: potential.AnnualTimeSavedHours - current.AnnualTimeSavedHours,
		CostSavings:    potential.AnnualCostSavings - current.AnnualCostSavings,
		FTE:            potential.FTEEquivalent - current.FTEEquivalent,
	}

	var perPercent Gap
	if remaining := 100 - vars.AdoptionRatePercent; remaining > 0 {
		perPercent = Gap{
			TimeSavedHours: gap.TimeSavedHours / remaining,
			CostSavings:    gap.CostSavings / remaining,
			FTE:            gap.FTE / remaining,
		}
	}

	return AdoptionAdjustedResult{
		AdoptionRatePercent:        vars.AdoptionRatePercent,
		CurrentImpact:              current,
		PotentialImpact:            potential,
		OpportunityGap:             gap,
		IncrementalValuePerPercent: perPercent,
	}
}

// CalculateAdoptionScenario projects the agent as if adoption were scenarioAdoptionPercent.
func CalculateAdoptionScenario(vars AgentVariables, scenarioAdoptionPercent, hoursPerYear float64) Result {
	scaled := vars
	scaled.AvgUsageCount = CalculateProjectedUsageAtAdoption(vars.AvgUsageCount, scenarioAdoptionPercent)
	return CalculateAgentProjections(scaled, hoursPerYear)
}
