package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/analytics"
	"github.com/agentroi/runrate/pkg/domain/projection"
)

// SnapshotService records daily run-rate snapshots from completed studies.
type SnapshotService struct {
	agents    domain.AgentRepository
	studies   domain.StudyRepository
	snapshots domain.SnapshotRepository
	audit     domain.AuditLogger
	logger    *slog.Logger
}

func NewSnapshotService(agents domain.AgentRepository, studies domain.StudyRepository, snapshots domain.SnapshotRepository, audit domain.AuditLogger, logger *slog.Logger) *SnapshotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotService{agents: agents, studies: studies, snapshots: snapshots, audit: audit, logger: logger}
}

// Capture saves one real snapshot per active agent holding the cumulative
// totals of its completed studies dated on or before date. Agents without
// studies are skipped. Capturing a day again replaces that day's snapshots.
func (s *SnapshotService) Capture(ctx context.Context, date time.Time, actor string) ([]analytics.Snapshot, error) {
	agents, err := s.agents.LoadAgents()
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	studies, err := s.studies.LoadStudies()
	if err != nil {
		return nil, fmt.Errorf("load studies: %w", err)
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := day.AddDate(0, 0, 1)

	byAgent := make(map[string][]projection.Study)
	for _, st := range studies {
		if st.StudyDate.IsZero() || st.StudyDate.Before(cutoff) {
			byAgent[st.AgentID] = append(byAgent[st.AgentID], st)
		}
	}

	snaps := []analytics.Snapshot{}
	for _, a := range agents {
		if !a.IsActive() {
			continue
		}
		rr := projection.SummarizeStudies(byAgent[a.ID], 0)
		if rr.StudyCount == 0 {
			continue
		}
		snaps = append(snaps, analytics.Snapshot{
			ID:                  domain.NewRecordID(),
			Date:                day,
			AgentID:             a.ID,
			Division:            a.Division,
			TotalStudies:        rr.StudyCount,
			TotalTimeSavedHours: rr.NetTimeSavedHours,
			TotalCostSavings:    rr.CostSavings,
			ActiveAgents:        1,
			DataSource:          analytics.DataSourceReal,
		})
	}

	if len(snaps) == 0 {
		s.logger.Info("no studies to snapshot", "date", day.Format(time.DateOnly))
		return snaps, nil
	}
	if err := s.snapshots.SaveSnapshots(ctx, snaps); err != nil {
		return nil, fmt.Errorf("save snapshots: %w", err)
	}

	s.logger.Info("captured snapshots", "date", day.Format(time.DateOnly), "count", len(snaps))
	logAudit(s.audit, s.logger, domain.ActionSnapshotCapture, actor, map[string]interface{}{
		"date":  day.Format(time.DateOnly),
		"count": len(snaps),
	})
	return snaps, nil
}
