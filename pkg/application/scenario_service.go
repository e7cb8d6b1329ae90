package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agentroi/runrate/pkg/domain/projection"
	"github.com/agentroi/runrate/pkg/domain/scenario"
)

// ScenarioService evaluates what-if scenarios against the stored agents.
type ScenarioService struct {
	projections *ProjectionService
	logger      *slog.Logger
}

func NewScenarioService(projections *ProjectionService, logger *slog.Logger) *ScenarioService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScenarioService{projections: projections, logger: logger}
}

// Run evaluates one scenario.
func (s *ScenarioService) Run(ctx context.Context, sc scenario.Scenario) (scenario.Result, error) {
	if err := sc.Parameters.Validate(); err != nil {
		return scenario.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return scenario.Result{}, err
	}
	agents, err := s.activeAgents()
	if err != nil {
		return scenario.Result{}, err
	}
	res := scenario.Evaluate(agents, sc, s.projections.Settings())
	s.logger.Debug("evaluated scenario", "name", sc.Name, "delta_cost", res.Delta.CostSavings)
	return res, nil
}

// RunPreset evaluates a built-in scenario by name.
func (s *ScenarioService) RunPreset(ctx context.Context, name string) (scenario.Result, error) {
	sc, ok := scenario.FindPreset(name)
	if !ok {
		return scenario.Result{}, fmt.Errorf("unknown scenario preset %q", name)
	}
	return s.Run(ctx, sc)
}

// Presets lists the built-in scenarios.
func (s *ScenarioService) Presets() []scenario.Scenario {
	return scenario.CreatePresetScenarios()
}

// activeAgents returns the agents scenarios are applied to. Retired and
// inactive deployments stay out of the baseline.
func (s *ScenarioService) activeAgents() ([]projection.Agent, error) {
	agents, err := s.projections.LoadAgents()
	if err != nil {
		return nil, err
	}
	out := make([]projection.Agent, 0, len(agents))
	for _, a := range agents {
		if a.IsActive() {
			out = append(out, a)
		}
	}
	return out, nil
}

// ComparePresets evaluates every built-in scenario against one baseline.
func (s *ScenarioService) ComparePresets(ctx context.Context) ([]scenario.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	agents, err := s.activeAgents()
	if err != nil {
		return nil, err
	}
	return scenario.CompareScenarios(agents, scenario.CreatePresetScenarios(), s.projections.Settings()), nil
}
