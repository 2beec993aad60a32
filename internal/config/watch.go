package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pcraw4d/loadgen/internal/observability"
)

// Watcher reloads a Config from disk whenever its backing file changes,
// publishing each successfully parsed Config on Updates. A failed reload
// is logged and the previous Config keeps serving — a load-generation run
// already in flight should never be interrupted by an edit-in-progress
// config file.
type Watcher struct {
	path    string
	logger  *observability.Logger
	Updates chan Config
}

// NewWatcher builds a Watcher for path. Call Run to start watching.
func NewWatcher(path string, logger *observability.Logger) *Watcher {
	if logger == nil {
		logger = observability.NewNop()
	}
	return &Watcher{path: path, logger: logger, Updates: make(chan Config, 1)}
}

// Run watches path for writes until ctx is cancelled, sending each
// successfully reloaded Config on Updates (non-blocking: a pending update
// is replaced rather than queued, since only the latest config matters).
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("config reload failed, keeping previous config", zap.Error(err))
				continue
			}
			select {
			case <-w.Updates:
			default:
			}
			w.Updates <- cfg
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}
