package application_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/domain/org"
	"github.com/agentroi/runrate/pkg/domain/projection"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func newProjectionService(repo *MockRepo) *application.ProjectionService {
	return application.NewProjectionService(repo, repo, org.DefaultSettings(), nil)
}

func TestProjectionService_Portfolio(t *testing.T) {
	repo := &MockRepo{Agents: agentFixtures(), Studies: studyFixtures()}
	svc := newProjectionService(repo)

	p, err := svc.Portfolio(context.Background())
	if err != nil {
		t.Fatalf("Portfolio() error = %v", err)
	}

	if p.ActiveAgents != 3 {
		t.Errorf("ActiveAgents = %d, want 3", p.ActiveAgents)
	}
	if p.ProjectedAgents != 2 {
		t.Errorf("ProjectedAgents = %d, want 2", p.ProjectedAgents)
	}
	if !approx(p.Projected.TimeSavedHours, 550) {
		t.Errorf("Projected.TimeSavedHours = %v, want 550", p.Projected.TimeSavedHours)
	}
	if !approx(p.Projected.CostSavings, 27500) {
		t.Errorf("Projected.CostSavings = %v, want 27500", p.Projected.CostSavings)
	}
	if !approx(p.Projected.FTE, 550.0/2080) {
		t.Errorf("Projected.FTE = %v, want %v", p.Projected.FTE, 550.0/2080)
	}
	if !approx(p.Actual.TimeSavedHours, 55) || !approx(p.Actual.CostSavings, 1525) {
		t.Errorf("Actual = %+v, want 55 hours and 1525", p.Actual)
	}
	if p.Actual.StudyCount != 2 {
		t.Errorf("Actual.StudyCount = %d, want 2", p.Actual.StudyCount)
	}
	if p.WorkforcePercent != 0 {
		t.Errorf("WorkforcePercent = %v, want 0 without total employees", p.WorkforcePercent)
	}

	if len(p.Agents) != 4 || p.Agents[0].Agent.ID != "big" {
		t.Fatalf("agents not ordered by projected savings: %+v", p.Agents)
	}
	for _, v := range p.Agents {
		if v.Agent.ID == "draft" && v.Complete {
			t.Error("agent without variables reported complete")
		}
	}
}

func TestProjectionService_PortfolioEmpty(t *testing.T) {
	svc := newProjectionService(&MockRepo{})

	p, err := svc.Portfolio(context.Background())
	if err != nil {
		t.Fatalf("Portfolio() error = %v", err)
	}
	if p.ActiveAgents != 0 || p.Projected.TimeSavedHours != 0 || len(p.Agents) != 0 {
		t.Errorf("empty portfolio = %+v", p)
	}
}

func TestProjectionService_PortfolioCancelled(t *testing.T) {
	svc := newProjectionService(&MockRepo{Agents: agentFixtures()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Portfolio(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Portfolio() error = %v, want context.Canceled", err)
	}
}

func TestProjectionService_WorkforcePercent(t *testing.T) {
	settings := org.DefaultSettings()
	settings.TotalEmployees = 10
	repo := &MockRepo{Agents: agentFixtures()}
	svc := application.NewProjectionService(repo, repo, settings, nil)

	p, err := svc.Portfolio(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := 550.0 / 2080 / 10 * 100
	if !approx(p.WorkforcePercent, want) {
		t.Errorf("WorkforcePercent = %v, want %v", p.WorkforcePercent, want)
	}
}

func TestProjectionService_AgentProjection(t *testing.T) {
	repo := &MockRepo{Agents: agentFixtures(), Studies: studyFixtures()}
	svc := newProjectionService(repo)

	view, err := svc.AgentProjection(context.Background(), "small")
	if err != nil {
		t.Fatalf("AgentProjection() error = %v", err)
	}
	if !approx(view.Projected.AnnualTimeSavedHours, 50) {
		t.Errorf("AnnualTimeSavedHours = %v, want 50", view.Projected.AnnualTimeSavedHours)
	}
	if view.Variables.UsageDiscountPercent != org.DefaultUsageDiscountPercent {
		t.Errorf("UsageDiscountPercent = %v, want default", view.Variables.UsageDiscountPercent)
	}
	if view.Actual.StudyCount != 1 || !approx(view.Actual.CostSavings, 400) {
		t.Errorf("Actual = %+v, want one study worth 400", view.Actual)
	}

	if _, err := svc.AgentProjection(context.Background(), "missing"); !errors.Is(err, projection.ErrAgentNotFound) {
		t.Errorf("missing agent error = %v, want ErrAgentNotFound", err)
	}
}

func TestProjectionService_AdoptionScenario(t *testing.T) {
	agents := agentFixtures()
	target, active := 100, 50
	agents[0].TargetUserBase = &target
	agents[0].CurrentActiveUsers = &active
	repo := &MockRepo{Agents: agents}
	svc := newProjectionService(repo)

	half, err := svc.AdoptionScenario(context.Background(), "big", 50)
	if err != nil {
		t.Fatalf("AdoptionScenario() error = %v", err)
	}
	full, err := svc.AdoptionScenario(context.Background(), "big", 100)
	if err != nil {
		t.Fatal(err)
	}
	if !(full.AnnualTimeSavedHours > half.AnnualTimeSavedHours) {
		t.Errorf("100%% adoption (%v) should exceed 50%% (%v)", full.AnnualTimeSavedHours, half.AnnualTimeSavedHours)
	}

	if _, err := svc.AdoptionScenario(context.Background(), "draft", 50); !errors.Is(err, projection.ErrIncompleteVariables) {
		t.Errorf("incomplete agent error = %v, want ErrIncompleteVariables", err)
	}
}

func TestProjectionService_Totals(t *testing.T) {
	repo := &MockRepo{Agents: agentFixtures(), Studies: studyFixtures()}
	svc := newProjectionService(repo)

	projected, actual, err := svc.AgentTotals(context.Background(), "big")
	if err != nil {
		t.Fatal(err)
	}
	if !approx(projected.TimeSavedHours, 500) || !approx(actual.TimeSavedHours, 45) {
		t.Errorf("AgentTotals = %+v / %+v", projected, actual)
	}

	rr, err := svc.RunRate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rr.StudyCount != 2 || !approx(rr.CostSavings, 1525) {
		t.Errorf("RunRate() = %+v, want 2 studies worth 1525", rr)
	}
}

func TestProjectionService_RunRateMatchesPortfolio(t *testing.T) {
	studies := append(studyFixtures(),
		projection.Study{ID: "s4", AgentID: "old", StudyDate: testNow.AddDate(0, 0, -1), TimeWithoutAiMinutes: 60, TimeWithAiMinutes: 0, UsageCount: 60, CostPerHour: 100},
		projection.Study{ID: "s5", AgentID: "gone", StudyDate: testNow, TimeWithoutAiMinutes: 60, TimeWithAiMinutes: 0, UsageCount: 60, CostPerHour: 100},
	)
	repo := &MockRepo{Agents: agentFixtures(), Studies: studies}
	svc := newProjectionService(repo)
	ctx := context.Background()

	rr, err := svc.RunRate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rr.StudyCount != 2 || !approx(rr.NetTimeSavedHours, 55) || !approx(rr.CostSavings, 1525) {
		t.Errorf("RunRate() = %+v, want only the studies of active agents", rr)
	}
	if !rr.LastStudyDate.Equal(testNow.AddDate(0, 0, -2)) {
		t.Errorf("LastStudyDate = %v, want %v", rr.LastStudyDate, testNow.AddDate(0, 0, -2))
	}

	p, err := svc.Portfolio(ctx)
	if err != nil {
		t.Fatal(err)
	}
	_, actual, err := svc.Totals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p.Actual != actual {
		t.Errorf("Portfolio().Actual = %+v, Totals() actual = %+v", p.Actual, actual)
	}
	if actual.StudyCount != rr.StudyCount || !approx(actual.TimeSavedHours, rr.NetTimeSavedHours) || !approx(actual.FTE, rr.FTEEquivalent) {
		t.Errorf("actual totals %+v do not match run rate %+v", actual, rr)
	}
}

func TestProjectionService_LoadError(t *testing.T) {
	svc := newProjectionService(&MockRepo{LoadError: errors.New("disk")})

	if _, err := svc.Portfolio(context.Background()); err == nil {
		t.Error("expected load error")
	}
	if _, _, err := svc.Totals(context.Background()); err == nil {
		t.Error("expected load error from Totals")
	}
}
