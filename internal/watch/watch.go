// Package watch re-runs a callback whenever a feature file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joshharrison/roadloom/internal/log"
)

// DefaultDebounce collapses the burst of events most editors emit per save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches a single file.
type Watcher struct {
	Path     string
	Debounce time.Duration
	logger   *log.Logger
}

// New returns a Watcher for path.
func New(path string, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Nop()
	}
	return &Watcher{Path: path, Debounce: DefaultDebounce, logger: logger}
}

// Run blocks until ctx is done, calling onChange after each debounced
// write, create or rename of the file. Errors from onChange are logged and
// watching continues, so a half-saved file does not end the session.
func (w *Watcher) Run(ctx context.Context, onChange func() error) error {
	abs, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", w.Path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory: editors that save via rename drop a file watch.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w.logger.Info("watching for changes", "path", abs)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("fsnotify event", "op", event.Op.String(), "file", event.Name)
			timer.Reset(debounce)

		case <-timer.C:
			if err := onChange(); err != nil {
				w.logger.WithError(err).Warn("recompute failed")
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Error("fsnotify error")
		}
	}
}
