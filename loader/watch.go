package loader

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to template files.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu    sync.Mutex
	files map[string]bool
}

// NewWatcher starts an fsnotify watcher.  A nil logger uses slog.Default.
func NewWatcher(logger *slog.Logger) (*Watcher, error) {
	var w, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{watcher: w, logger: logger, files: make(map[string]bool)}, nil
}

// Add starts watching a file.  Adding a file twice is a no-op.
func (w *Watcher) Add(filename string) error {
	filename = filepath.Clean(filename)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[filename] {
		return nil
	}
	if err := w.watcher.Add(filename); err != nil {
		return err
	}
	w.files[filename] = true
	w.logger.Debug("watching template", "file", filename)
	return nil
}

// Run calls onChange with the path of each watched file that is written,
// replaced or removed, until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange func(filename string)) {
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			// If it's a rename, then fsnotify has removed the watch.
			// Add it back, after a delay.
			if ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				var name = filepath.Clean(ev.Name)
				w.mu.Lock()
				delete(w.files, name)
				w.mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				if err := w.Add(name); err != nil {
					w.logger.Warn("template no longer watched", "file", name, "error", err)
				}
			}
			w.logger.Info("template changed", "file", ev.Name, "op", ev.Op.String())
			onChange(filepath.Clean(ev.Name))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Nothing to do with errors
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
