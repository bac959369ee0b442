// Package watch re-runs analysis when requirement documents change.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay unchanged before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// Filter decides whether a changed path is a watched document.
type Filter func(path string) bool

// Watcher monitors a directory or a single file and reports changed
// documents in debounced batches.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	root      string
	single    bool
	debounce  time.Duration
	filter    Filter
	skipDirs  map[string]bool
	out       io.Writer
	callback  func(paths []string)
	mu        sync.Mutex
	pending   map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFilter restricts reported changes to paths accepted by f.
func WithFilter(f Filter) Option {
	return func(w *Watcher) {
		w.filter = f
	}
}

// WithSkipDirs names directories that are never watched.
func WithSkipDirs(names ...string) Option {
	return func(w *Watcher) {
		for _, n := range names {
			w.skipDirs[n] = true
		}
	}
}

// WithOutput sets where status messages are printed. Defaults to stdout.
func WithOutput(out io.Writer) Option {
	return func(w *Watcher) {
		w.out = out
	}
}

// NewWatcher creates a watcher for path, which may be a directory or a file.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		path:      filepath.Clean(path),
		root:      filepath.Clean(path),
		debounce:  DefaultDebounce,
		filter:    func(string) bool { return true },
		skipDirs:  map[string]bool{".git": true},
		out:       os.Stdout,
		pending:   make(map[string]time.Time),
	}
	if !info.IsDir() {
		w.single = true
		w.root = filepath.Dir(w.path)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// SetCallback sets the function called with each batch of changed paths.
func (w *Watcher) SetCallback(cb func(paths []string)) {
	w.mu.Lock()
	w.callback = cb
	w.mu.Unlock()
}

// Start registers directories and processes events until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addDirs(); err != nil {
		return err
	}

	color.New(color.FgCyan).Fprintf(w.out, "Watching for changes in %s...\n", w.path)
	color.New(color.FgCyan).Fprintln(w.out, "Press Ctrl+C to stop")

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.New(color.FgRed).Fprintf(w.out, "Watch error: %v\n", err)
		}
	}
}

func (w *Watcher) addDirs() error {
	if w.single {
		return w.fsWatcher.Add(w.root)
	}
	return filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && w.skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// handleEvent records writes, creates and renames of watched documents.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	path := filepath.Clean(event.Name)
	if w.single && path != w.path {
		return
	}

	if event.Op&fsnotify.Create != 0 && !w.single {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.skipDirs[info.Name()] {
				_ = w.fsWatcher.Add(path)
			}
			return
		}
	}

	if !w.filter(path) {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// processDebounced flushes pending changes after the debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending reports files that have been stable for the debounce
// period as one sorted batch. The callback runs outside the lock.
func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	cb := w.callback
	w.mu.Unlock()

	if len(ready) == 0 || cb == nil {
		return
	}
	sort.Strings(ready)

	for _, path := range ready {
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			rel = path
		}
		color.New(color.FgYellow).Fprintf(w.out, "Changed: %s\n", rel)
	}
	cb(ready)
	fmt.Fprintln(w.out)
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories registered with the OS watcher.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
