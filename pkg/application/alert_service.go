package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/alert"
)

// Notifier delivers alerts to external endpoints.
type Notifier interface {
	Notify(ctx context.Context, alerts []alert.Alert) error
}

// AlertService evaluates alert rules over the current workspace.
type AlertService struct {
	studies          domain.StudyRepository
	goals            *GoalService
	projections      *ProjectionService
	trends           *TrendService
	audit            domain.AuditLogger
	outlierThreshold float64
	logger           *slog.Logger
	now              func() time.Time
}

func NewAlertService(
	studies domain.StudyRepository,
	goals *GoalService,
	projections *ProjectionService,
	trends *TrendService,
	audit domain.AuditLogger,
	outlierThreshold float64,
	logger *slog.Logger,
) *AlertService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertService{
		studies:          studies,
		goals:            goals,
		projections:      projections,
		trends:           trends,
		audit:            audit,
		outlierThreshold: outlierThreshold,
		logger:           logger,
		now:              time.Now,
	}
}

// Evaluate gathers goals, agents, studies and metric trends and runs every rule.
func (s *AlertService) Evaluate(ctx context.Context) ([]alert.Alert, error) {
	views, err := s.goals.List(ctx)
	if err != nil {
		return nil, err
	}
	agents, err := s.projections.LoadAgents()
	if err != nil {
		return nil, err
	}
	studies, err := s.studies.LoadStudies()
	if err != nil {
		return nil, fmt.Errorf("load studies: %w", err)
	}
	trends, err := s.trends.CompareMetrics(ctx, TrendQuery{})
	if err != nil {
		return nil, err
	}

	in := alert.Input{
		Now:              s.now(),
		Agents:           agents,
		Studies:          studies,
		Trends:           trends,
		OutlierThreshold: s.outlierThreshold,
	}
	for _, v := range views {
		in.Goals = append(in.Goals, v.Goal)
	}

	alerts := alert.Evaluate(in)
	s.logger.Debug("evaluated alerts", "count", len(alerts))
	return alerts, nil
}

// Notify evaluates the rules and hands any alerts to the notifier.
func (s *AlertService) Notify(ctx context.Context, notifier Notifier, actor string) ([]alert.Alert, error) {
	alerts, err := s.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if len(alerts) == 0 || notifier == nil {
		return alerts, nil
	}
	if err := notifier.Notify(ctx, alerts); err != nil {
		return alerts, fmt.Errorf("notify alerts: %w", err)
	}

	counts := alert.CountBySeverity(alerts)
	logAudit(s.audit, s.logger, domain.ActionAlertsNotified, actor, map[string]interface{}{
		"count":    len(alerts),
		"critical": counts[alert.SeverityCritical],
		"warning":  counts[alert.SeverityWarning],
	})
	return alerts, nil
}
