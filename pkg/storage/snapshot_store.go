package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/agentroi/runrate/pkg/domain"
	"github.com/agentroi/runrate/pkg/domain/analytics"
)

var _ domain.SnapshotRepository = (*FileSnapshotStore)(nil)

// FileSnapshotStore keeps snapshots in a JSON Lines file, one line per
// agent and day.
type FileSnapshotStore struct {
	mu       sync.RWMutex
	path     string
	basePath string
}

// NewFileSnapshotStore creates a store writing to basePath/snapshots.jsonl.
// The directory is created on first write.
func NewFileSnapshotStore(basePath string) *FileSnapshotStore {
	return &FileSnapshotStore{
		path:     filepath.Join(basePath, SnapshotsFile),
		basePath: basePath,
	}
}

// SaveSnapshots merges snapshots into the file. A snapshot for an agent-day
// already on file replaces it and keeps its ID. Missing IDs are generated.
func (s *FileSnapshotStore) SaveSnapshots(ctx context.Context, snapshots []analytics.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadSnapshots()
	if err != nil {
		return err
	}

	index := make(map[string]int, len(existing))
	for i, snap := range existing {
		index[snap.Key()] = i
	}
	for i := range snapshots {
		snap := &snapshots[i]
		snap.Date = snap.Day()
		if pos, ok := index[snap.Key()]; ok {
			snap.ID = existing[pos].ID
			existing[pos] = *snap
			continue
		}
		snap.ID = domain.EnsureID(snap.ID)
		index[snap.Key()] = len(existing)
		existing = append(existing, *snap)
	}

	return s.writeSnapshots(existing)
}

// writeSnapshots replaces the file through a temporary file and rename.
func (s *FileSnapshotStore) writeSnapshots(snapshots []analytics.Snapshot) (err error) {
	if err := os.MkdirAll(s.basePath, 0700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.basePath, SnapshotsFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshots file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, snap := range snapshots {
		data, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("flush snapshots: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close snapshots file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("chmod snapshots file: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshots file: %w", err)
	}
	return nil
}

// LoadSnapshots returns matching snapshots ordered by date.
func (s *FileSnapshotStore) LoadSnapshots(ctx context.Context, filter analytics.Filter) ([]analytics.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.loadSnapshots()
	if err != nil {
		return nil, err
	}
	out := filter.Apply(all)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *FileSnapshotStore) loadSnapshots() ([]analytics.Snapshot, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return []analytics.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshots file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	var result []analytics.Snapshot
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var snap analytics.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot at line %d: %w", line, err)
		}
		result = append(result, snap)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}
	return result, nil
}
