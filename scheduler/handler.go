package scheduler

import (
	"fmt"
	"sync"
	"time"
)

// Handler binds one recurring job to fixed scheduling parameters. A handler
// holds at most one live task at a time: starting an already-started handler
// is an error, stopping an idle handler is a no-op.
type Handler struct {
	name         string
	job          func()
	initialDelay time.Duration
	interval     time.Duration
	cronExpr     string
	autoStart    bool
	preferWorker bool

	mu   sync.Mutex
	task Task
}

// HandlerOption configures a handler.
type HandlerOption func(*Handler)

// AutoStart flags the handler for automatic startup by the handler
// registry, with the given context preference.
func AutoStart(onWorker bool) HandlerOption {
	return func(h *Handler) {
		h.autoStart = true
		h.preferWorker = onWorker
	}
}

// WithCronSchedule replaces the fixed interval with a standard cron
// expression; cron handlers always run on the worker pool.
func WithCronSchedule(expression string) HandlerOption {
	return func(h *Handler) {
		h.cronExpr = expression
	}
}

// NewHandler creates a handler running job every interval after an initial
// delay.
func NewHandler(name string, job func(), initialDelay, interval time.Duration, opts ...HandlerOption) *Handler {
	h := &Handler{
		name:         name,
		job:          job,
		initialDelay: initialDelay,
		interval:     interval,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the handler's unique name.
func (h *Handler) Name() string {
	return h.name
}

// AutoStarts reports whether the registry should start this handler at boot.
func (h *Handler) AutoStarts() bool {
	return h.autoStart
}

// PrefersWorker reports the handler's declared execution context.
func (h *Handler) PrefersWorker() bool {
	return h.preferWorker
}

// Start schedules the handler's repeating task on adapter, on the worker
// pool when useWorker is set and on the primary context otherwise. It fails
// with ErrHandlerAlreadyRunning if a live task exists.
func (h *Handler) Start(adapter Adapter, useWorker bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.task != nil {
		return fmt.Errorf("%w: %s", ErrHandlerAlreadyRunning, h.name)
	}

	var task Task
	var err error
	switch {
	case h.cronExpr != "":
		task, err = adapter.WorkerCron(h.job, h.cronExpr)
	case useWorker:
		task, err = adapter.WorkerRepeating(h.job, h.initialDelay, h.interval)
	default:
		task, err = adapter.PrimaryRepeating(h.job, h.initialDelay, h.interval)
	}
	if err != nil {
		return fmt.Errorf("failed to start handler %s: %w", h.name, err)
	}

	h.task = task
	return nil
}

// Stop cancels the handler's task if one is live; otherwise it does
// nothing.
func (h *Handler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.task != nil {
		h.task.Cancel()
		h.task = nil
	}
}

// Running reports whether the handler holds a live task.
func (h *Handler) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.task != nil
}
