// Package watcher notifies callers when a single file changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"mcpstack/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

const (
	watcherSubsystem = "Watcher"

	// DefaultDebounce coalesces the bursts editors and atomic writes produce.
	DefaultDebounce = 300 * time.Millisecond
)

// FileWatcher calls back after a file is created, written or replaced.
// The parent directory is watched so that replacement by rename, as done by
// atomic writers, is seen.
type FileWatcher struct {
	path     string
	debounce time.Duration
	ready    chan struct{}
}

// NewFileWatcher creates a watcher for path. A zero debounce selects DefaultDebounce.
func NewFileWatcher(path string, debounce time.Duration) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FileWatcher{path: abs, debounce: debounce, ready: make(chan struct{})}, nil
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string {
	return w.path
}

// Ready is closed once Run has installed its watch.
func (w *FileWatcher) Ready() <-chan struct{} {
	return w.ready
}

// Run blocks until ctx is done, calling onChange once per debounced burst of
// changes. Callback errors are logged and watching continues.
func (w *FileWatcher) Run(ctx context.Context, onChange func(ctx context.Context) error) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	close(w.ready)
	logging.Info(watcherSubsystem, "Watching %s for changes", w.path)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logging.Debug(watcherSubsystem, "Change detected: %s", event)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := onChange(ctx); err != nil {
				logging.Error(watcherSubsystem, err, "Handling change of %s failed", w.path)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.Error(watcherSubsystem, err, "File watcher error")
		}
	}
}

func (w *FileWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write)
}
