// Package org provides organization-wide settings threaded into every projection.
package org

import "fmt"

// DefaultWorkHoursPerYear is the standard working year used for FTE figures when
// an organization has not configured its own.
const DefaultWorkHoursPerYear = 2080.0

// DefaultUsageDiscountPercent is applied to agents that do not record a discount.
const DefaultUsageDiscountPercent = 50.0

// DefaultHourlyWage is applied to agents that do not record a wage.
const DefaultHourlyWage = 50.0

// Settings holds the organization-level scalars used by projection formulas.
type Settings struct {
	Name                        string   `yaml:"name,omitempty" json:"name,omitempty"`
	StandardWorkHoursPerYear    float64  `yaml:"standard_work_hours_per_year,omitempty" json:"standard_work_hours_per_year,omitempty"`
	TotalEmployees              int      `yaml:"total_employees,omitempty" json:"total_employees,omitempty"`
	DefaultHourlyWage           *float64 `yaml:"default_hourly_wage,omitempty" json:"default_hourly_wage,omitempty"`
	DefaultUsageDiscountPercent *float64 `yaml:"default_usage_discount_percent,omitempty" json:"default_usage_discount_percent,omitempty"`
}

// DefaultSettings returns settings populated with the documented defaults.
func DefaultSettings() Settings {
	wage := DefaultHourlyWage
	discount := DefaultUsageDiscountPercent
	return Settings{
		StandardWorkHoursPerYear:    DefaultWorkHoursPerYear,
		DefaultHourlyWage:           &wage,
		DefaultUsageDiscountPercent: &discount,
	}
}

// HoursPerYear returns the configured working year, falling back to 2080.
func (s Settings) HoursPerYear() float64 {
	if s.StandardWorkHoursPerYear <= 0 {
		return DefaultWorkHoursPerYear
	}
	return s.StandardWorkHoursPerYear
}

// HourlyWage returns the default wage for agents without one. An explicit
// zero is honoured.
func (s Settings) HourlyWage() float64 {
	if s.DefaultHourlyWage == nil {
		return DefaultHourlyWage
	}
	return *s.DefaultHourlyWage
}

// UsageDiscountPercent returns the default usage discount for agents without one.
// An explicit zero is honoured.
func (s Settings) UsageDiscountPercent() float64 {
	if s.DefaultUsageDiscountPercent == nil {
		return DefaultUsageDiscountPercent
	}
	return *s.DefaultUsageDiscountPercent
}

// WorkforcePercent expresses an FTE figure as a share of total employees.
func (s Settings) WorkforcePercent(fte float64) float64 {
	if s.TotalEmployees <= 0 {
		return 0
	}
	return fte / float64(s.TotalEmployees) * 100
}

// Validate rejects settings that would make projections meaningless.
func (s Settings) Validate() error {
	if s.StandardWorkHoursPerYear < 0 {
		return fmt.Errorf("standard work hours per year must be >= 0")
	}
	if s.TotalEmployees < 0 {
		return fmt.Errorf("total employees must be >= 0")
	}
	if w := s.DefaultHourlyWage; w != nil && *w < 0 {
		return fmt.Errorf("default hourly wage must be >= 0")
	}
	if d := s.DefaultUsageDiscountPercent; d != nil && (*d < 0 || *d > 100) {
		return fmt.Errorf("default usage discount must be between 0 and 100")
	}
	return nil
}
