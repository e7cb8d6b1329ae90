package application

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/goal"
	"github.com/agentroi/runrate/pkg/domain/org"
	"github.com/agentroi/runrate/pkg/domain/projection"
)

// AgentProjection is the projected and measured view of one agent.
type AgentProjection struct {
	Agent     projection.Agent                  `json:"agent"`
	Complete  bool                              `json:"complete"`
	Variables projection.AgentVariables         `json:"variables"`
	Projected projection.Result                 `json:"projected"`
	Adoption  projection.AdoptionAdjustedResult `json:"adoption"`
	Actual    projection.RunRate                `json:"actual"`
}

// Portfolio sums projections and measured run rate across agents. Actual is
// RunRate expressed as goal totals.
type Portfolio struct {
	Agents           []AgentProjection  `json:"agents"`
	Projected        goal.Totals        `json:"projected"`
	Actual           goal.Totals        `json:"actual"`
	RunRate          projection.RunRate `json:"run_rate"`
	ActiveAgents     int                `json:"active_agents"`
	ProjectedAgents  int                `json:"projected_agents"`
	WorkforcePercent float64            `json:"workforce_percent"`
}

// ProjectionService computes per-agent and portfolio projections from stored records.
type ProjectionService struct {
	agents   domain.AgentRepository
	studies  domain.StudyRepository
	settings org.Settings
	logger   *slog.Logger
}

func NewProjectionService(agents domain.AgentRepository, studies domain.StudyRepository, settings org.Settings, logger *slog.Logger) *ProjectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectionService{agents: agents, studies: studies, settings: settings, logger: logger}
}

// Settings returns the organization settings projections are computed with.
func (s *ProjectionService) Settings() org.Settings {
	return s.settings
}

// LoadAgents returns the stored agents.
func (s *ProjectionService) LoadAgents() ([]projection.Agent, error) {
	agents, err := s.agents.LoadAgents()
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	return agents, nil
}

// Portfolio projects every agent concurrently and aggregates the results.
// Inactive agents are listed but excluded from the totals.
func (s *ProjectionService) Portfolio(ctx context.Context) (*Portfolio, error) {
	agents, err := s.LoadAgents()
	if err != nil {
		return nil, err
	}
	studies, err := s.studies.LoadStudies()
	if err != nil {
		return nil, fmt.Errorf("load studies: %w", err)
	}

	byAgent := groupStudies(studies)
	views := make([]AgentProjection, len(agents))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range agents {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			views[i] = s.project(agents[i], byAgent[agents[i].ID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p := &Portfolio{Agents: views, RunRate: s.measured(agents, studies)}
	p.Actual = runRateTotals(p.RunRate)
	for _, v := range views {
		if !v.Agent.IsActive() {
			continue
		}
		p.ActiveAgents++
		if !v.Complete {
			continue
		}
		p.ProjectedAgents++
		p.Projected.TimeSavedHours += v.Projected.AnnualTimeSavedHours
		p.Projected.CostSavings += v.Projected.AnnualCostSavings
		p.Projected.FTE += v.Projected.FTEEquivalent
	}
	p.Projected.StudyCount = p.Actual.StudyCount
	p.WorkforcePercent = s.settings.WorkforcePercent(p.Projected.FTE)

	sort.SliceStable(p.Agents, func(i, j int) bool {
		return p.Agents[i].Projected.AnnualCostSavings > p.Agents[j].Projected.AnnualCostSavings
	})

	s.logger.Debug("computed portfolio projection",
		"agents", len(agents),
		"projected_agents", p.ProjectedAgents,
		"projected_hours", p.Projected.TimeSavedHours)
	return p, nil
}

// AgentProjection returns the projection for one agent.
func (s *ProjectionService) AgentProjection(ctx context.Context, agentID string) (*AgentProjection, error) {
	agents, err := s.LoadAgents()
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		if a.ID != agentID {
			continue
		}
		studies, err := s.studies.LoadStudies()
		if err != nil {
			return nil, fmt.Errorf("load studies: %w", err)
		}
		view := s.project(a, groupStudies(studies)[a.ID])
		return &view, nil
	}
	return nil, fmt.Errorf("%w: %s", projection.ErrAgentNotFound, agentID)
}

// AdoptionScenario projects one agent at an arbitrary adoption percentage.
func (s *ProjectionService) AdoptionScenario(ctx context.Context, agentID string, adoptionPercent float64) (projection.Result, error) {
	view, err := s.AgentProjection(ctx, agentID)
	if err != nil {
		return projection.Result{}, err
	}
	if !view.Complete {
		return projection.Result{}, fmt.Errorf("%w: %s", projection.ErrIncompleteVariables, agentID)
	}
	return projection.CalculateAdoptionScenario(view.Variables, adoptionPercent, s.settings.HoursPerYear()), nil
}

// Totals returns the projected and measured portfolio totals goals are
// tracked against. The measured side is RunRate.
func (s *ProjectionService) Totals(ctx context.Context) (projected, actual goal.Totals, err error) {
	p, err := s.Portfolio(ctx)
	if err != nil {
		return goal.Totals{}, goal.Totals{}, err
	}
	rr, err := s.RunRate(ctx)
	if err != nil {
		return goal.Totals{}, goal.Totals{}, err
	}
	return p.Projected, runRateTotals(rr), nil
}

// RunRate sums the completed studies of active agents. Studies of retired
// agents and of agents no longer on file are left out, matching the
// portfolio and snapshot totals.
func (s *ProjectionService) RunRate(ctx context.Context) (projection.RunRate, error) {
	if err := ctx.Err(); err != nil {
		return projection.RunRate{}, err
	}
	agents, err := s.LoadAgents()
	if err != nil {
		return projection.RunRate{}, err
	}
	studies, err := s.studies.LoadStudies()
	if err != nil {
		return projection.RunRate{}, fmt.Errorf("load studies: %w", err)
	}
	return s.measured(agents, studies), nil
}

func (s *ProjectionService) measured(agents []projection.Agent, studies []projection.Study) projection.RunRate {
	active := make(map[string]bool, len(agents))
	for _, a := range agents {
		if a.IsActive() {
			active[a.ID] = true
		}
	}
	counted := make([]projection.Study, 0, len(studies))
	for _, st := range studies {
		if active[st.AgentID] {
			counted = append(counted, st)
		}
	}
	return projection.SummarizeStudies(counted, s.settings.HoursPerYear())
}

func runRateTotals(rr projection.RunRate) goal.Totals {
	return goal.Totals{
		TimeSavedHours: rr.NetTimeSavedHours,
		CostSavings:    rr.CostSavings,
		FTE:            rr.FTEEquivalent,
		StudyCount:     rr.StudyCount,
	}
}

// AgentTotals returns the projected and measured totals of one agent.
func (s *ProjectionService) AgentTotals(ctx context.Context, agentID string) (projected, actual goal.Totals, err error) {
	view, err := s.AgentProjection(ctx, agentID)
	if err != nil {
		return goal.Totals{}, goal.Totals{}, err
	}
	actual = runRateTotals(view.Actual)
	projected = goal.Totals{StudyCount: view.Actual.StudyCount}
	if view.Complete {
		projected.TimeSavedHours = view.Projected.AnnualTimeSavedHours
		projected.CostSavings = view.Projected.AnnualCostSavings
		projected.FTE = view.Projected.FTEEquivalent
	}
	return projected, actual, nil
}

func (s *ProjectionService) project(a projection.Agent, studies []projection.Study) AgentProjection {
	hoursPerYear := s.settings.HoursPerYear()
	view := AgentProjection{
		Agent:     a,
		Complete:  a.HasCompleteVariables(),
		Variables: a.Resolve(s.settings),
		Actual:    projection.SummarizeStudies(studies, hoursPerYear),
	}
	if view.Complete {
		view.Projected = projection.CalculateAgentProjections(view.Variables, hoursPerYear)
		view.Adoption = projection.CalculateAdoptionAdjustedProjections(view.Variables, hoursPerYear)
	}
	return view
}

func groupStudies(studies []projection.Study) map[string][]projection.Study {
	out := make(map[string][]projection.Study)
	for _, st := range studies {
		out[st.AgentID] = append(out[st.AgentID], st)
	}
	return out
}
