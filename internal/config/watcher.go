package config

import (
	"fmt"
	"time"

	"github.com/GoCodeAlone/matchqueue/queue"
	"github.com/fsnotify/fsnotify"
)

// Reconfigurer is the subset of *queue.Coordinator a Watcher needs: it
// lets tests substitute a fake without importing the queue package's
// internals.
type Reconfigurer interface {
	Reconfigure(opts map[string]any) error
}

// Watcher watches a config file on disk and pushes each reload's
// QueueConfig.PolicyOpts into a Reconfigurer, for live policy tuning
// without a restart.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	target  Reconfigurer
	logger  queue.Logger

	done chan struct{}
}

// NewWatcher starts watching path and returns a Watcher that applies every
// reload to target. Call Close to stop.
func NewWatcher(path string, target Reconfigurer, logger queue.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: new watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		target:  target,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	var debounce *time.Timer
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(100*time.Millisecond, w.reload)
			} else {
				debounce.Reset(100 * time.Millisecond)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("config watcher error", "error", err, "path", w.path)
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(FileFeeder{Path: w.path}, NewEnvFeeder())
	if err != nil {
		if w.logger != nil {
			w.logger.Warn("config reload rejected", "error", err, "path", w.path)
		}
		return
	}
	if err := w.target.Reconfigure(cfg.Queue.PolicyOpts()); err != nil {
		if w.logger != nil {
			w.logger.Warn("policy reconfigure failed", "error", err, "path", w.path)
		}
		return
	}
	if w.logger != nil {
		w.logger.Info("policy reconfigured", "path", w.path)
	}
}

// Close stops watching and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
