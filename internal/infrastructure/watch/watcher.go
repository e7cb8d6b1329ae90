package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWindow = 500 * time.Millisecond

// DataFiles matches the workspace files whose changes affect projections.
// The audit log and dead letters are excluded so that recording a run does
// not trigger another one.
var DataFiles = Filter{
	Include: []string{"*.yaml", "*.jsonl", "*.db"},
	Exclude: []string{"events.jsonl", "deadletters.jsonl", "*.db-journal", "*.db-wal", "*.db-shm"},
}

// Filter selects paths by base-name glob patterns.
type Filter struct {
	Include []string
	Exclude []string
}

// Matches reports whether the base name matches an include pattern and no
// exclude pattern. An empty include list accepts everything.
func (f Filter) Matches(path string) bool {
	base := filepath.Base(path)
	if matchAny(f.Exclude, base) {
		return false
	}
	return len(f.Include) == 0 || matchAny(f.Include, base)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Watcher watches one directory and reports batches of changed files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	filter   Filter
	window   time.Duration
	onChange func(paths []string)
	logger   *slog.Logger
}

// NewWatcher watches dir for changes to files accepted by filter. A zero
// window uses 500ms.
func NewWatcher(dir string, filter Filter, window time.Duration, onChange func(paths []string), logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if window <= 0 {
		window = defaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		watcher:  w,
		filter:   filter,
		window:   window,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	debouncer := NewDebouncer(w.window, func(paths []string) {
		if w.onChange != nil {
			w.onChange(paths)
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event.Op) || !w.filter.Matches(event.Name) {
				continue
			}
			w.logger.Debug("workspace file changed", "path", event.Name, "op", event.Op.String())
			debouncer.Add(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}
