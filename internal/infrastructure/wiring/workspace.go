package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/agentroi/runrate/internal/infrastructure/config"
	"github.com/agentroi/runrate/internal/infrastructure/webhook"
	"github.com/agentroi/runrate/pkg/application"
	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/storage"
)

// Workspace bundles core infrastructure dependencies.
type Workspace struct {
	Repo        *storage.FilesystemRepository
	Audit       *application.AuditService
	Snapshots   domain.SnapshotRepository
	Notifier    *webhook.Notifier
	DeadLetters *webhook.DeadLetterStore

	closeSnapshots func() error
}

// NewWorkspace opens the repository under root and the snapshot store
// selected by cfg. The notifier is nil when no webhooks are configured.
func NewWorkspace(ctx context.Context, root string, cfg *config.Config, logger *slog.Logger) (*Workspace, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	repo := storage.NewFilesystemRepository(root)

	snapshots, closer, err := OpenSnapshotStore(ctx, repo.Dir(), cfg.Storage)
	if err != nil {
		return nil, err
	}

	deadLetters := webhook.NewDeadLetterStore(filepath.Join(repo.Dir(), storage.DeadLetterFile))

	var notifier *webhook.Notifier
	if hooks, err := repo.LoadWebhookConfig(); err != nil {
		logger.Warn("webhook config ignored", "error", err)
	} else if len(hooks.Webhooks) > 0 {
		notifier = webhook.NewNotifier(hooks.Webhooks, deadLetters, logger)
	}

	return &Workspace{
		Repo:           repo,
		Audit:          application.NewAuditService(repo),
		Snapshots:      snapshots,
		Notifier:       notifier,
		DeadLetters:    deadLetters,
		closeSnapshots: closer,
	}, nil
}

// Close releases the snapshot store.
func (w *Workspace) Close() error {
	if w == nil || w.closeSnapshots == nil {
		return nil
	}
	return w.closeSnapshots()
}

// OpenSnapshotStore returns the snapshot repository for the configured
// backend. dir is the .runrate directory used by the file and default
// SQLite stores.
func OpenSnapshotStore(ctx context.Context, dir string, cfg config.StorageConfig) (domain.SnapshotRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", config.BackendFile:
		return storage.NewFileSnapshotStore(dir), noop, nil
	case config.BackendSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = filepath.Join(dir, storage.SnapshotsDBFile)
		}
		store, err := storage.OpenSQLSnapshotStore(ctx, storage.DriverSQLite, dsn)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.BackendPostgres:
		store, err := storage.OpenSQLSnapshotStore(ctx, storage.DriverPostgres, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
