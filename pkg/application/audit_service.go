package application

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentroi/runrate/pkg/domain"
)

// AuditService appends hash-chained events to the audit trail.
type AuditService struct {
	mu   sync.Mutex
	repo domain.AuditRepository
	now  func() time.Time
}

var _ domain.AuditLogger = (*AuditService)(nil)

func NewAuditService(repo domain.AuditRepository) *AuditService {
	return &AuditService{repo: repo, now: time.Now}
}

func (s *AuditService) Log(action string, actor string, metadata map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.repo.LoadEvents()
	if err != nil {
		return fmt.Errorf("load audit trail: %w", err)
	}
	prevHash := ""
	if len(events) > 0 {
		prevHash = events[len(events)-1].Hash
	}

	event := domain.Event{
		ID:        uuid.New().String(),
		Timestamp: s.now().UTC(),
		Action:    action,
		Actor:     actor,
		Metadata:  metadata,
		PrevHash:  prevHash,
	}
	event.Hash = event.CalculateHash()

	if err := s.repo.RecordEvent(event); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// GetTimeline returns every recorded event in order.
func (s *AuditService) GetTimeline() ([]domain.Event, error) {
	return s.repo.LoadEvents()
}

// VerifyIntegrity checks the hash chain and returns one message per violation.
func (s *AuditService) VerifyIntegrity() ([]string, error) {
	events, err := s.repo.LoadEvents()
	if err != nil {
		return nil, err
	}
	return domain.VerifyChain(events), nil
}

// logAudit records an event when an audit logger is configured. Failures are
// logged as warnings and never fail the calling operation.
func logAudit(audit domain.AuditLogger, logger *slog.Logger, action, actor string, metadata map[string]interface{}) {
	if audit == nil {
		return
	}
	if err := audit.Log(action, actor, metadata); err != nil {
		logger.Warn("failed to record audit event", "action", action, "error", err)
	}
}
