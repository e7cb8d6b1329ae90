package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/analytics"
)

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	sqlDateLayout     = time.RFC3339
	sqlQueryTimeout   = 10 * time.Second
	sqlPingAttempts   = 3
	sqlInitialBackoff = 50 * time.Millisecond
)

var _ domain.SnapshotRepository = (*SQLSnapshotStore)(nil)

// SQLSnapshotStore keeps snapshots in SQLite or PostgreSQL. Queries are
// written with $n placeholders and rebound for SQLite.
type SQLSnapshotStore struct {
	driver string
	db     *sql.DB
}

// OpenSQLSnapshotStore connects to the database and ensures the schema exists.
// For SQLite the DSN is a file path whose directory is created if needed.
func OpenSQLSnapshotStore(ctx context.Context, driver, dsn string) (*SQLSnapshotStore, error) {
	switch driver {
	case DriverSQLite:
		absPath, err := filepath.Abs(dsn)
		if err != nil {
			return nil, fmt.Errorf("resolve snapshot db path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o700); err != nil {
			return nil, fmt.Errorf("ensure snapshot db dir: %w", err)
		}
		dsn = absPath
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres snapshot store requires a DSN")
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}

	store := &SQLSnapshotStore{driver: driver, db: db}
	if err := store.ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLSnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLSnapshotStore) ping(ctx context.Context) error {
	r := retry.New[struct{}](retry.Config{
		MaxAttempts:   sqlPingAttempts,
		InitialDelay:  sqlInitialBackoff,
		BackoffPolicy: retry.BackoffExponential,
	})
	_, err := r.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.db.PingContext(ctx)
	})
	if err != nil {
		return fmt.Errorf("connect snapshot db: %w", err)
	}
	return nil
}

func (s *SQLSnapshotStore) ensureSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	snapshot_date TEXT NOT NULL,
	agent_id TEXT NOT NULL DEFAULT '',
	division TEXT NOT NULL DEFAULT '',
	total_studies INTEGER NOT NULL DEFAULT 0,
	total_time_saved_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_cost_savings DOUBLE PRECISION NOT NULL DEFAULT 0,
	active_agents INTEGER NOT NULL DEFAULT 0,
	data_source TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_snapshots_date ON snapshots(snapshot_date);
CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_agent_day ON snapshots(agent_id, snapshot_date);
`
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create snapshot schema: %w", err)
		}
	}
	return nil
}

// SaveSnapshots upserts snapshots in one transaction. A snapshot for an
// agent-day already stored replaces it and takes over its ID. Missing IDs are
// generated.
func (s *SQLSnapshotStore) SaveSnapshots(ctx context.Context, snapshots []analytics.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	t := timeout.New[struct{}](timeout.Config{DefaultTimeout: sqlQueryTimeout})
	_, err := t.Execute(ctx, sqlQueryTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.upsert(ctx, snapshots)
	})
	return err
}

func (s *SQLSnapshotStore) upsert(ctx context.Context, snapshots []analytics.Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO snapshots (id, snapshot_date, agent_id, division, total_studies,
			total_time_saved_hours, total_cost_savings, active_agents, data_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (agent_id, snapshot_date) DO UPDATE SET
			division = excluded.division,
			total_studies = excluded.total_studies,
			total_time_saved_hours = excluded.total_time_saved_hours,
			total_cost_savings = excluded.total_cost_savings,
			active_agents = excluded.active_agents,
			data_source = excluded.data_source
		RETURNING id
	`))
	if err != nil {
		return fmt.Errorf("prepare snapshot upsert: %w", err)
	}
	defer stmt.Close()

	for i := range snapshots {
		snap := &snapshots[i]
		snap.ID = domain.EnsureID(snap.ID)
		snap.Date = snap.Day()
		if err = stmt.QueryRowContext(ctx,
			snap.ID,
			snap.Date.UTC().Format(sqlDateLayout),
			snap.AgentID,
			snap.Division,
			snap.TotalStudies,
			snap.TotalTimeSavedHours,
			snap.TotalCostSavings,
			snap.ActiveAgents,
			string(snap.DataSource),
		).Scan(&snap.ID); err != nil {
			return fmt.Errorf("upsert snapshot %s: %w", snap.Key(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}
	return nil
}

// LoadSnapshots returns matching snapshots ordered by date.
func (s *SQLSnapshotStore) LoadSnapshots(ctx context.Context, filter analytics.Filter) ([]analytics.Snapshot, error) {
	t := timeout.New[[]analytics.Snapshot](timeout.Config{DefaultTimeout: sqlQueryTimeout})
	return t.Execute(ctx, sqlQueryTimeout, func(ctx context.Context) ([]analytics.Snapshot, error) {
		return s.query(ctx, filter)
	})
}

func (s *SQLSnapshotStore) query(ctx context.Context, filter analytics.Filter) ([]analytics.Snapshot, error) {
	query := `
		SELECT id, snapshot_date, agent_id, division, total_studies,
			total_time_saved_hours, total_cost_savings, active_agents, data_source
		FROM snapshots
		WHERE 1 = 1`
	var args []interface{}
	if filter.AgentID != "" {
		args = append(args, filter.AgentID)
		query += " AND agent_id = $" + strconv.Itoa(len(args))
	}
	if filter.Division != "" {
		args = append(args, filter.Division)
		query += " AND division = $" + strconv.Itoa(len(args))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since.UTC().Format(sqlDateLayout))
		query += " AND snapshot_date >= $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY snapshot_date, id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	result := []analytics.Snapshot{}
	for rows.Next() {
		var (
			snap   analytics.Snapshot
			date   string
			source string
		)
		if err := rows.Scan(
			&snap.ID,
			&date,
			&snap.AgentID,
			&snap.Division,
			&snap.TotalStudies,
			&snap.TotalTimeSavedHours,
			&snap.TotalCostSavings,
			&snap.ActiveAgents,
			&source,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Date, err = time.Parse(sqlDateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot date %q: %w", date, err)
		}
		snap.DataSource = analytics.DataSource(source)
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}

// rebind converts $n placeholders to ? for SQLite.
func (s *SQLSnapshotStore) rebind(query string) string {
	if s.driver != DriverSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
