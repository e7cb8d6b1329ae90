package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/goal"
)

// GoalView is a goal with its refreshed progress figures.
type GoalView struct {
	Goal          goal.Goal `json:"goal"`
	Progress      float64   `json:"progress"`
	DaysRemaining int       `json:"days_remaining"`
}

// GoalService tracks goals against projected and measured totals.
type GoalService struct {
	repo        domain.GoalRepository
	projections *ProjectionService
	audit       domain.AuditLogger
	logger      *slog.Logger
	now         func() time.Time
}

func NewGoalService(repo domain.GoalRepository, projections *ProjectionService, audit domain.AuditLogger, logger *slog.Logger) *GoalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoalService{
		repo:        repo,
		projections: projections,
		audit:       audit,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns every goal with CurrentValue recomputed from the latest totals,
// ordered by target date.
func (s *GoalService) List(ctx context.Context) ([]GoalView, error) {
	goals, err := s.refreshed(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, GoalView{
			Goal:          g,
			Progress:      goal.CalculateProgress(g),
			DaysRemaining: goal.DaysRemaining(g, now),
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Goal.TargetDate.Before(views[j].Goal.TargetDate)
	})
	return views, nil
}

// Get returns one goal with refreshed progress.
func (s *GoalService) Get(ctx context.Context, id string) (*GoalView, error) {
	views, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].Goal.ID == id {
			return &views[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", goal.ErrGoalNotFound, id)
}

// Contributions breaks an organization-wide goal down by agent.
func (s *GoalService) Contributions(ctx context.Context, id string) ([]goal.Contribution, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	agents, err := s.projections.LoadAgents()
	if err != nil {
		return nil, err
	}
	return goal.AgentContributions(view.Goal, agents, s.projections.Settings()), nil
}

// SetStatus moves a goal to a new status through the status machine and records it.
func (s *GoalService) SetStatus(ctx context.Context, id string, target goal.Status, actor string) (*goal.Goal, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", goal.ErrInvalidGoal, target)
	}
	goals, err := s.repo.LoadGoals()
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}

	idx := indexOfGoal(goals, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", goal.ErrGoalNotFound, id)
	}

	from := goals[idx].Status
	sm, err := goal.NewStatusMachine(from, id, nil)
	if err != nil {
		return nil, err
	}
	if err := sm.TransitionTo(target); err != nil {
		return nil, err
	}
	goals[idx].Status = sm.Current()

	if err := s.repo.SaveGoals(goals); err != nil {
		return nil, fmt.Errorf("save goals: %w", err)
	}

	s.logger.Info("goal status changed", "goal_id", id, "from", from, "to", target)
	logAudit(s.audit, s.logger, domain.ActionGoalStatus, actor, map[string]interface{}{
		"goal_id": id,
		"from":    string(from),
		"to":      string(target),
	})
	return &goals[idx], nil
}

// AssessAll reviews every goal against elapsed time. With apply set, suggested
// statuses are written back through the status machine; suggestions the machine
// rejects are skipped and reported unchanged.
func (s *GoalService) AssessAll(ctx context.Context, apply bool, actor string) ([]goal.Assessment, error) {
	goals, err := s.refreshed(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	assessments := make([]goal.Assessment, 0, len(goals))
	changed := 0
	for i := range goals {
		a := goal.Assess(goals[i], now)
		assessments = append(assessments, a)
		if !apply || !a.NeedsChange() {
			continue
		}

		sm, err := goal.NewStatusMachine(goals[i].Status, goals[i].ID, nil)
		if err != nil {
			return nil, err
		}
		if err := sm.TransitionTo(a.SuggestedStatus); err != nil {
			s.logger.Warn("skipping suggested goal status", "goal_id", goals[i].ID, "error", err)
			continue
		}
		goals[i].Status = sm.Current()
		changed++
	}

	if changed == 0 {
		return assessments, nil
	}
	if err := s.repo.SaveGoals(goals); err != nil {
		return nil, fmt.Errorf("save goals: %w", err)
	}
	s.logger.Info("applied goal assessments", "changed", changed)
	logAudit(s.audit, s.logger, domain.ActionGoalAssessed, actor, map[string]interface{}{
		"changed": changed,
	})
	return assessments, nil
}

// refreshed loads goals and recomputes CurrentValue from the portfolio or the
// scoped agent's totals.
func (s *GoalService) refreshed(ctx context.Context) ([]goal.Goal, error) {
	goals, err := s.repo.LoadGoals()
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	if len(goals) == 0 {
		return []goal.Goal{}, nil
	}

	projected, actual, err := s.projections.Totals(ctx)
	if err != nil {
		return nil, err
	}
	for i := range goals {
		if goals[i].IsOrganizationWide() {
			goals[i].CurrentValue = goal.CurrentValueFor(goals[i], projected, actual)
			continue
		}
		p, a, err := s.projections.AgentTotals(ctx, goals[i].ScopedAgent())
		if err != nil {
			s.logger.Warn("goal scoped to unknown agent", "goal_id", goals[i].ID, "agent_id", goals[i].ScopedAgent(), "error", err)
			goals[i].CurrentValue = 0
			continue
		}
		goals[i].CurrentValue = goal.CurrentValueFor(goals[i], p, a)
	}
	return goals, nil
}

func indexOfGoal(goals []goal.Goal, id string) int {
	for i := range goals {
		if goals[i].ID == id {
			return i
		}
	}
	return -1
}
