package domain

import (
	"context"

	"github.com/agentroi/runrate/pkg/domain/analytics"
	"github.com/agentroi/runrate/pkg/domain/goal"
	"github.com/agentroi/runrate/pkg/domain/projection"
)

// AgentRepository persists agent deployments.
type AgentRepository interface {
	LoadAgents() ([]projection.Agent, error)
	SaveAgents(agents []projection.Agent) error
}

// StudyRepository persists time & motion studies.
type StudyRepository interface {
	LoadStudies() ([]projection.Study, error)
	SaveStudies(studies []projection.Study) error
}

// GoalRepository persists goals.
type GoalRepository interface {
	LoadGoals() ([]goal.Goal, error)
	SaveGoals(goals []goal.Goal) error
}

// SnapshotRepository stores daily snapshots, one per agent and day. Saving a
// snapshot for an occupied agent-day replaces the earlier one.
type SnapshotRepository interface {
	SaveSnapshots(ctx context.Context, snapshots []analytics.Snapshot) error
	LoadSnapshots(ctx context.Context, filter analytics.Filter) ([]analytics.Snapshot, error)
}

// AuditRepository persists the hash-chained event log.
type AuditRepository interface {
	RecordEvent(event Event) error
	LoadEvents() ([]Event, error)
}

// WorkspaceRepository handles the runrate artifacts in the .runrate/ directory.
type WorkspaceRepository interface {
	AgentRepository
	StudyRepository
	GoalRepository
	AuditRepository
	Initialize() error
	IsInitialized() bool
}
