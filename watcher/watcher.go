// Package watcher provides a configuration file watcher service. It
// monitors a directory with fsnotify and debounces change notifications
// through the scheduler's worker context, so bursts of writes to the same
// file trigger a single reload.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chassiskit/chassis"
	"github.com/chassiskit/chassis/scheduler"
)

// DefaultDebounce is the delay between the last observed write to a file
// and the reload it triggers.
const DefaultDebounce = time.Second

// Reloadable is implemented by anything that wants to be told when a
// watched file changes.
type Reloadable interface {
	Reload(path string) error
}

// ConfigWatcher watches a directory for file changes and notifies
// registered Reloadable targets. It is an ordinary chassis service with
// enable/disable lifecycle hooks.
type ConfigWatcher struct {
	logger   chassis.Logger
	adapter  scheduler.Adapter
	dir      string
	debounce time.Duration

	mu      sync.Mutex
	targets map[string][]Reloadable // base filename -> targets; "" key matches all files
	pending map[string]scheduler.Task
	fw      *fsnotify.Watcher
}

// Option configures a ConfigWatcher.
type Option func(*ConfigWatcher)

// WithDebounce overrides the debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(w *ConfigWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over dir, scheduling reload work through adapter.
func New(logger chassis.Logger, adapter scheduler.Adapter, dir string, opts ...Option) *ConfigWatcher {
	w := &ConfigWatcher{
		logger:   logger,
		adapter:  adapter,
		dir:      dir,
		debounce: DefaultDebounce,
		targets:  make(map[string][]Reloadable),
		pending:  make(map[string]scheduler.Task),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch registers target for changes to the named files. With no file
// names, the target is notified for every change in the directory.
func (w *ConfigWatcher) Watch(target Reloadable, files ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(files) == 0 {
		w.targets[""] = append(w.targets[""], target)
		return
	}
	for _, file := range files {
		w.targets[file] = append(w.targets[file], target)
	}
}

// Enable starts watching the configured directory.
func (w *ConfigWatcher) Enable(_ context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.mu.Lock()
	w.fw = fw
	w.mu.Unlock()

	// The loop exits when Disable closes the fsnotify watcher and its
	// channels.
	go w.loop(fw)
	w.logger.Info("Configuration file watcher enabled", "dir", w.dir)
	return nil
}

// Disable stops watching and cancels any pending reloads.
func (w *ConfigWatcher) Disable(_ context.Context) error {
	w.mu.Lock()
	fw := w.fw
	w.fw = nil
	for file, task := range w.pending {
		task.Cancel()
		delete(w.pending, file)
	}
	w.mu.Unlock()

	if fw != nil {
		if err := fw.Close(); err != nil {
			w.logger.Error("Error closing file watcher", "error", err)
		}
	}
	w.logger.Info("Configuration file watcher disabled", "dir", w.dir)
	return nil
}

func (w *ConfigWatcher) loop(fw *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
				w.scheduleReload(filepath.Base(event.Name), event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", "error", err)
		}
	}
}

// scheduleReload (re)arms the debounce task for a file: a new write within
// the debounce window cancels the previous task and starts the delay over.
func (w *ConfigWatcher) scheduleReload(file, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fw == nil {
		return
	}
	if task, ok := w.pending[file]; ok {
		task.Cancel()
	}

	task, err := w.adapter.WorkerLater(func() {
		w.notify(file, path)
	}, w.debounce)
	if err != nil {
		w.logger.Error("Failed to schedule config reload", "file", file, "error", err)
		return
	}
	w.pending[file] = task
	w.logger.Debug("Scheduled config reload", "file", file, "debounce", w.debounce)
}

func (w *ConfigWatcher) notify(file, path string) {
	w.mu.Lock()
	delete(w.pending, file)
	targets := make([]Reloadable, 0, len(w.targets[file])+len(w.targets[""]))
	targets = append(targets, w.targets[file]...)
	targets = append(targets, w.targets[""]...)
	w.mu.Unlock()

	for _, target := range targets {
		if err := target.Reload(path); err != nil {
			w.logger.Error("Config reload failed", "file", file, "error", err)
		}
	}
	if len(targets) > 0 {
		w.logger.Info("Reloaded configuration", "file", file, "targets", len(targets))
	}
}
