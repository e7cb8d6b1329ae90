package scenario

import "strings"

// Preset names.
const (
	PresetConservativeGrowth  = "Conservative Growth"
	PresetAggressiveExpansion = "Aggressive Expansion"
	PresetOptimizationFocus   = "Optimization Focus"
	PresetWageIncrease        = "Wage Increase Impact"
	PresetReducedAdoption     = "Reduced Adoption"
)

// CreatePresetScenarios returns the fixed planning presets.
func CreatePresetScenarios() []Scenario {
	return []Scenario{
		{
			Name:        PresetConservativeGrowth,
			Description: "Usage grows 10% and one more agent is deployed.",
			Parameters: Parameters{
				UsageMultiplier: 1.1,
				WageMultiplier:  1,
				NewAgentsCount:  1,
			},
		},
		{
			Name:        PresetAggressiveExpansion,
			Description: "Usage grows 50%, agents get 10% faster and five more agents are deployed.",
			Parameters: Parameters{
				UsageMultiplier:       1.5,
				WageMultiplier:        1,
				NewAgentsCount:        5,
				EfficiencyImprovement: 10,
			},
		},
		{
			Name:        PresetOptimizationFocus,
			Description: "No new agents; existing agents get 25% faster and fewer uses are discounted.",
			Parameters: Parameters{
				UsageMultiplier:       1,
				WageMultiplier:        1,
				EfficiencyImprovement: 25,
				DiscountAdjustment:    -10,
			},
		},
		{
			Name:        PresetWageIncrease,
			Description: "Wages rise 15%, raising the value of every hour saved.",
			Parameters: Parameters{
				UsageMultiplier: 1,
				WageMultiplier:  1.15,
			},
		},
		{
			Name:        PresetReducedAdoption,
			Description: "Usage drops 30% and more uses are discounted as users disengage.",
			Parameters: Parameters{
				UsageMultiplier:    0.7,
				WageMultiplier:     1,
				DiscountAdjustment: 10,
			},
		},
	}
}

// FindPreset looks up a preset by name, ignoring case and surrounding space.
func FindPreset(name string) (Scenario, bool) {
	name = strings.TrimSpace(name)
	for _, s := range CreatePresetScenarios() {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Scenario{}, false
}
