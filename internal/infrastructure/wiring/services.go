package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/agentroi/runrate/internal/infrastructure/config"
	"github.com/agentroi/runrate/internal/infrastructure/logging"
	"github.com/agentroi/runrate/pkg/application"
)

// AppServices exposes the application layer services wired together with a workspace.
type AppServices struct {
	Workspace   *Workspace
	Config      *config.Config
	Logger      *slog.Logger
	Projections *application.ProjectionService
	Goals       *application.GoalService
	Trends      *application.TrendService
	Scenarios   *application.ScenarioService
	Snapshots   *application.SnapshotService
	Alerts      *application.AlertService
	Import      *application.ImportService
	Audit       *application.AuditService
}

// BuildAppServices loads config.yaml under root and constructs every service.
// Callers must Close the result.
func BuildAppServices(ctx context.Context, root string) (*AppServices, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	return BuildAppServicesWithConfig(ctx, root, cfg, logger)
}

// BuildAppServicesWithConfig wires services from an already loaded configuration.
func BuildAppServicesWithConfig(ctx context.Context, root string, cfg *config.Config, logger *slog.Logger) (*AppServices, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	workspace, err := NewWorkspace(ctx, root, cfg, logger)
	if err != nil {
		return nil, err
	}
	repo := workspace.Repo

	// Create services in dependency order
	projections := application.NewProjectionService(repo, repo, cfg.Organization, logger.With("service", "projection"))
	trends := application.NewTrendService(workspace.Snapshots, cfg.Trend.LookbackDays, cfg.Trend.ForecastDays, logger.With("service", "trend"))
	goals := application.NewGoalService(repo, projections, workspace.Audit, logger.With("service", "goal"))

	return &AppServices{
		Workspace:   workspace,
		Config:      cfg,
		Logger:      logger,
		Projections: projections,
		Goals:       goals,
		Trends:      trends,
		Scenarios:   application.NewScenarioService(projections, logger.With("service", "scenario")),
		Snapshots:   application.NewSnapshotService(repo, repo, workspace.Snapshots, workspace.Audit, logger.With("service", "snapshot")),
		Alerts: application.NewAlertService(
			repo, goals, projections, trends, workspace.Audit,
			cfg.Alerts.OutlierThreshold, logger.With("service", "alert"),
		),
		Import: application.NewImportService(repo, workspace.Audit, logger.With("service", "import")),
		Audit:  workspace.Audit,
	}, nil
}

// Close releases resources held by the workspace.
func (s *AppServices) Close() error {
	if s == nil {
		return nil
	}
	return s.Workspace.Close()
}
