// Package watch reruns workspace summaries when data files change.
package watch

import (
	"sort"
	"sync"
	"time"
)

// Debouncer collects changed paths and flushes them in one callback once the
// window passes without further changes.
type Debouncer struct {
	window   time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	pending  map[string]struct{}
	callback func(paths []string)
}

// NewDebouncer creates a debouncer with the given window duration.
func NewDebouncer(window time.Duration, callback func(paths []string)) *Debouncer {
	return &Debouncer{
		window:   window,
		pending:  make(map[string]struct{}),
		callback: callback,
	}
}

// Add records a changed path and restarts the window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	d.callback(paths)
}

// Stop cancels any pending callback and drops collected paths.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = make(map[string]struct{})
}
