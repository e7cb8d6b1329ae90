package application_test

import (
	"context"
	"time"

	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/analytics"
	"github.com/agentroi/runrate/pkg/domain/goal"
	"github.com/agentroi/runrate/pkg/domain/projection"
)

type MockRepo struct {
	Agents      []projection.Agent
	Studies     []projection.Study
	Goals       []goal.Goal
	Events      []domain.Event
	Initialized bool
	SaveError   error
	LoadError   error
	GoalSaves   int
}

func (m *MockRepo) Initialize() error   { m.Initialized = true; return nil }
func (m *MockRepo) IsInitialized() bool { return m.Initialized }
func (m *MockRepo) LoadAgents() ([]projection.Agent, error) {
	return append([]projection.Agent(nil), m.Agents...), m.LoadError
}
func (m *MockRepo) SaveAgents(a []projection.Agent) error { m.Agents = a; return m.SaveError }
func (m *MockRepo) LoadStudies() ([]projection.Study, error) {
	return append([]projection.Study(nil), m.Studies...), m.LoadError
}
func (m *MockRepo) SaveStudies(s []projection.Study) error { m.Studies = s; return m.SaveError }
func (m *MockRepo) LoadGoals() ([]goal.Goal, error) {
	return append([]goal.Goal(nil), m.Goals...), m.LoadError
}
func (m *MockRepo) SaveGoals(g []goal.Goal) error {
	m.GoalSaves++
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Goals = g
	return nil
}
func (m *MockRepo) RecordEvent(e domain.Event) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Events = append(m.Events, e)
	return nil
}
func (m *MockRepo) LoadEvents() ([]domain.Event, error) { return m.Events, m.LoadError }

type MockSnapshots struct {
	Snapshots []analytics.Snapshot
	Filters   []analytics.Filter
	Err       error
}

func (m *MockSnapshots) SaveSnapshots(ctx context.Context, s []analytics.Snapshot) error {
	if m.Err != nil {
		return m.Err
	}
	for _, snap := range s {
		replaced := false
		for i := range m.Snapshots {
			if m.Snapshots[i].Key() == snap.Key() {
				m.Snapshots[i] = snap
				replaced = true
			}
		}
		if !replaced {
			m.Snapshots = append(m.Snapshots, snap)
		}
	}
	return nil
}

func (m *MockSnapshots) LoadSnapshots(ctx context.Context, f analytics.Filter) ([]analytics.Snapshot, error) {
	m.Filters = append(m.Filters, f)
	return f.Apply(m.Snapshots), m.Err
}

type MockAudit struct {
	Actions []string
	Err     error
}

func (m *MockAudit) Log(action, actor string, metadata map[string]interface{}) error {
	m.Actions = append(m.Actions, action)
	return m.Err
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// agentFixtures returns two complete agents, one retired agent and one
// without variables. At default settings "big" projects 500 hours / 25000
// and "small" 50 hours / 2500.
func agentFixtures() []projection.Agent {
	return []projection.Agent{
		{
			ID: "big", Name: "Big", Division: "ops",
			AvgTimeWithoutAgentMinutes: floatPtr(40),
			AvgTimeWithAgentMinutes:    floatPtr(10),
			AvgUsageCount:              floatPtr(2000),
		},
		{
			ID: "small", Name: "Small", Division: "finance",
			AvgTimeWithoutAgentMinutes: floatPtr(15),
			AvgTimeWithAgentMinutes:    floatPtr(5),
			AvgUsageCount:              floatPtr(600),
		},
		{
			ID: "old", Name: "Old", Status: projection.AgentRetired,
			AvgTimeWithoutAgentMinutes: floatPtr(60),
			AvgTimeWithAgentMinutes:    floatPtr(10),
			AvgUsageCount:              floatPtr(1000),
		},
		{ID: "draft", Name: "Draft"},
	}
}

// studyFixtures returns one completed study per complete agent and a draft.
// "big" measures 45 hours / 1125, "small" 10 hours / 400.
func studyFixtures() []projection.Study {
	return []projection.Study{
		{ID: "s1", AgentID: "big", StudyDate: testNow.AddDate(0, 0, -10), TimeWithoutAiMinutes: 30, TimeWithAiMinutes: 15, UsageCount: 200, UsageDiscountPercent: 10, CostPerHour: 25},
		{ID: "s2", AgentID: "small", StudyDate: testNow.AddDate(0, 0, -2), TimeWithoutAiMinutes: 20, TimeWithAiMinutes: 10, UsageCount: 60, CostPerHour: 40},
		{ID: "s3", AgentID: "small", Status: projection.StudyDraft, TimeWithoutAiMinutes: 100, UsageCount: 100, CostPerHour: 100},
	}
}
