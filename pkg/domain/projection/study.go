package projection

import "time"

// StudyStatus is the state of a time & motion study.
type StudyStatus string

const (
	StudyDraft     StudyStatus = "draft"
	StudyCompleted StudyStatus = "completed"
)

// Study is one time & motion measurement for an agent.
type Study struct {
	ID                   string      `yaml:"id" json:"id"`
	AgentID              string      `yaml:"agent_id" json:"agent_id"`
	Status               StudyStatus `yaml:"status,omitempty" json:"status,omitempty"`
	StudyDate            time.Time   `yaml:"study_date" json:"study_date"`
	TimeWithoutAiMinutes float64     `yaml:"time_without_ai_minutes" json:"time_without_ai_minutes"`
	TimeWithAiMinutes    float64     `yaml:"time_with_ai_minutes" json:"time_with_ai_minutes"`
	UsageCount           float64     `yaml:"usage_count" json:"usage_count"`
	UsageDiscountPercent float64     `yaml:"usage_discount_percent" json:"usage_discount_percent"`
	CostPerHour          float64     `yaml:"cost_per_hour" json:"cost_per_hour"`
	Notes                string      `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// IsCompleted reports whether the study counts as a measurement.
// Studies without a status are treated as completed.
func (s Study) IsCompleted() bool {
	return s.Status == "" || s.Status == StudyCompleted
}

// StudyResults is the measured impact of a single study.
type StudyResults struct {
	TimeSavedMinutes  float64 `json:"time_saved_minutes"`
	NetUsage          float64 `json:"net_usage"`
	NetTimeSavedHours float64 `json:"net_time_saved_hours"`
	PotentialSavings  float64 `json:"potential_savings"`
}

// CalculateStudyMetrics applies the projection formula to one completed study.
func CalculateStudyMetrics(s Study) StudyResults {
	timeSaved := s.TimeWithoutAiMinutes - s.TimeWithAiMinutes
	netUsage := s.UsageCount * (1 - s.UsageDiscountPercent/100)
	hours := timeSaved * netUsage / minutesPerHour

	return StudyResults{
		TimeSavedMinutes:  timeSaved,
		NetUsage:          netUsage,
		NetTimeSavedHours: hours,
		PotentialSavings:  hours * s.CostPerHour,
	}
}

// RunRate is the measured impact aggregated over completed studies.
type RunRate struct {
	StudyCount        int       `json:"study_count"`
	NetTimeSavedHours float64   `json:"net_time_saved_hours"`
	CostSavings       float64   `json:"cost_savings"`
	FTEEquivalent     float64   `json:"fte_equivalent"`
	LastStudyDate     time.Time `json:"last_study_date,omitempty"`
}

// SummarizeStudies totals the completed studies in the list. Draft studies are ignored.
func SummarizeStudies(studies []Study, hoursPerYear float64) RunRate {
	var rr RunRate
	for _, s := range studies {
		if !s.IsCompleted() {
			continue
		}
		res := CalculateStudyMetrics(s)
		rr.StudyCount++
		rr.NetTimeSavedHours += res.NetTimeSavedHours
		rr.CostSavings += res.PotentialSavings
		if s.StudyDate.After(rr.LastStudyDate) {
			rr.LastStudyDate = s.StudyDate
		}
	}
	if hoursPerYear > 0 {
		rr.FTEEquivalent = rr.NetTimeSavedHours / hoursPerYear
	}
	return rr
}
