package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/goal"
)

func goalFixtures(now time.Time) []goal.Goal {
	return []goal.Goal{
		{
			ID: "org-hours", Title: "Save 1100 hours", Type: goal.TypeTimeSaved,
			TargetValue: 1100, DataSource: goal.SourceProjected, Status: goal.StatusOnTrack,
			StartDate: now.AddDate(0, -6, 0), TargetDate: now.AddDate(0, 6, 0),
		},
		{
			ID: "small-cost", Title: "Small measured savings", AgentID: strPtr("small"), Type: goal.TypeCostSaved,
			TargetValue: 800, DataSource: goal.SourceActual, Status: goal.StatusOnTrack,
			StartDate: now.AddDate(0, -9, 0), TargetDate: now.AddDate(0, 3, 0),
		},
		{
			ID: "ghost", Title: "Unknown agent", AgentID: strPtr("nobody"), Type: goal.TypeStudyCount,
			TargetValue: 5, DataSource: goal.SourceActual, Status: goal.StatusOnTrack,
			TargetDate: now.AddDate(1, 0, 0),
		},
	}
}

func newGoalService(repo *MockRepo, audit domain.AuditLogger) *application.GoalService {
	return application.NewGoalService(repo, newProjectionService(repo), audit, nil)
}

func TestGoalService_List(t *testing.T) {
	now := time.Now()
	repo := &MockRepo{Agents: agentFixtures(), Studies: studyFixtures(), Goals: goalFixtures(now)}
	svc := newGoalService(repo, nil)

	views, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("List() returned %d goals, want 3", len(views))
	}

	byID := make(map[string]application.GoalView)
	for _, v := range views {
		byID[v.Goal.ID] = v
	}

	tests := []struct {
		id       string
		current  float64
		progress float64
	}{
		{"org-hours", 550, 50},
		{"small-cost", 400, 50},
		{"ghost", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			v := byID[tt.id]
			if !approx(v.Goal.CurrentValue, tt.current) {
				t.Errorf("CurrentValue = %v, want %v", v.Goal.CurrentValue, tt.current)
			}
			if !approx(v.Progress, tt.progress) {
				t.Errorf("Progress = %v, want %v", v.Progress, tt.progress)
			}
		})
	}

	if views[0].Goal.ID != "small-cost" {
		t.Errorf("first goal = %s, want the earliest target date", views[0].Goal.ID)
	}
}

func TestGoalService_GetAndContributions(t *testing.T) {
	repo := &MockRepo{Agents: agentFixtures(), Goals: goalFixtures(time.Now())}
	svc := newGoalService(repo, nil)

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, goal.ErrGoalNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrGoalNotFound", err)
	}

	contribs, err := svc.Contributions(context.Background(), "org-hours")
	if err != nil {
		t.Fatalf("Contributions() error = %v", err)
	}
	if len(contribs) != 2 || contribs[0].AgentID != "big" {
		t.Fatalf("Contributions() = %+v, want big then small", contribs)
	}
	if !approx(contribs[0].Percentage+contribs[1].Percentage, 100) {
		t.Errorf("percentages sum to %v, want 100", contribs[0].Percentage+contribs[1].Percentage)
	}

	scoped, err := svc.Contributions(context.Background(), "small-cost")
	if err != nil {
		t.Fatal(err)
	}
	if len(scoped) != 0 {
		t.Errorf("agent-scoped goal contributions = %+v, want none", scoped)
	}
}

func TestGoalService_SetStatus(t *testing.T) {
	repo := &MockRepo{Goals: goalFixtures(time.Now())}
	audit := &MockAudit{}
	svc := newGoalService(repo, audit)

	g, err := svc.SetStatus(context.Background(), "org-hours", goal.StatusAtRisk, "tester")
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if g.Status != goal.StatusAtRisk || repo.Goals[0].Status != goal.StatusAtRisk {
		t.Errorf("status = %s, stored %s, want at_risk", g.Status, repo.Goals[0].Status)
	}
	if len(audit.Actions) != 1 || audit.Actions[0] != domain.ActionGoalStatus {
		t.Errorf("audit actions = %v", audit.Actions)
	}

	if _, err := svc.SetStatus(context.Background(), "org-hours", goal.StatusCancelled, "tester"); err != nil {
		t.Fatal(err)
	}
	_, err = svc.SetStatus(context.Background(), "org-hours", goal.StatusBehind, "tester")
	if !errors.Is(err, goal.ErrInvalidTransition) {
		t.Errorf("cancelled -> behind error = %v, want ErrInvalidTransition", err)
	}
	var te *goal.TransitionError
	if !errors.As(err, &te) || te.From != goal.StatusCancelled {
		t.Errorf("expected TransitionError from cancelled, got %v", err)
	}

	if _, err := svc.SetStatus(context.Background(), "missing", goal.StatusBehind, "tester"); !errors.Is(err, goal.ErrGoalNotFound) {
		t.Errorf("missing goal error = %v", err)
	}
	if _, err := svc.SetStatus(context.Background(), "org-hours", "sideways", "tester"); !errors.Is(err, goal.ErrInvalidGoal) {
		t.Errorf("unknown status error = %v", err)
	}
}

func TestGoalService_SetStatusAuditFailureIsNotFatal(t *testing.T) {
	repo := &MockRepo{Goals: goalFixtures(time.Now())}
	svc := newGoalService(repo, &MockAudit{Err: errors.New("audit down")})

	if _, err := svc.SetStatus(context.Background(), "org-hours", goal.StatusBehind, "tester"); err != nil {
		t.Errorf("SetStatus() error = %v, want audit failure ignored", err)
	}
}

func TestGoalService_AssessAll(t *testing.T) {
	now := time.Now()
	goals := []goal.Goal{
		{
			ID: "ahead", Title: "Ahead", Type: goal.TypeTimeSaved, TargetValue: 600,
			DataSource: goal.SourceProjected, Status: goal.StatusBehind,
			StartDate: now.AddDate(0, -1, 0), TargetDate: now.AddDate(0, 11, 0),
		},
		{
			ID: "lagging", Title: "Lagging", Type: goal.TypeCostSaved, TargetValue: 100000,
			DataSource: goal.SourceProjected, Status: goal.StatusOnTrack,
			StartDate: now.AddDate(0, -11, 0), TargetDate: now.AddDate(0, 1, 0),
		},
		{
			ID: "closed", Title: "Closed", Type: goal.TypeTimeSaved, TargetValue: 1,
			DataSource: goal.SourceProjected, Status: goal.StatusCancelled,
			TargetDate: now.AddDate(0, 1, 0),
		},
	}
	repo := &MockRepo{Agents: agentFixtures(), Goals: goals}
	audit := &MockAudit{}
	svc := newGoalService(repo, audit)

	assessments, err := svc.AssessAll(context.Background(), false, "tester")
	if err != nil {
		t.Fatalf("AssessAll() error = %v", err)
	}
	if len(assessments) != 3 {
		t.Fatalf("got %d assessments, want 3", len(assessments))
	}
	if repo.GoalSaves != 0 {
		t.Error("dry run saved goals")
	}

	want := map[string]goal.Status{
		"ahead":   goal.StatusOnTrack,
		"lagging": goal.StatusBehind,
		"closed":  goal.StatusCancelled,
	}
	for _, a := range assessments {
		if a.SuggestedStatus != want[a.GoalID] {
			t.Errorf("%s suggested %s, want %s", a.GoalID, a.SuggestedStatus, want[a.GoalID])
		}
	}

	if _, err := svc.AssessAll(context.Background(), true, "tester"); err != nil {
		t.Fatal(err)
	}
	for _, g := range repo.Goals {
		if g.Status != want[g.ID] {
			t.Errorf("stored %s status = %s, want %s", g.ID, g.Status, want[g.ID])
		}
	}
	if len(audit.Actions) != 1 || audit.Actions[0] != domain.ActionGoalAssessed {
		t.Errorf("audit actions = %v", audit.Actions)
	}
}

func TestGoalService_ListNoGoals(t *testing.T) {
	repo := &MockRepo{LoadError: nil}
	svc := newGoalService(repo, nil)

	views, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Errorf("List() = %v, want empty", views)
	}
}
