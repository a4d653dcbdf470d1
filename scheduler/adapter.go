package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/chassiskit/chassis"
)

type contextKind int

const (
	primaryContext contextKind = iota
	workerContext
)

// entry is one scheduled unit of work. It doubles as the Task handle handed
// back to callers.
type entry struct {
	id       string
	kind     contextKind
	run      func()
	fireAt   time.Time
	interval time.Duration // >0 for fixed-interval repeating tasks
	schedule cron.Schedule // non-nil for cron repeating tasks

	cancelled atomic.Bool
	adapter   *StdAdapter
}

// Cancel implements Task. Only future firings are suppressed.
func (e *entry) Cancel() {
	if e.cancelled.CompareAndSwap(false, true) {
		e.adapter.emit(EventTypeTaskCancelled, e.id)
	}
}

// ID implements Task.
func (e *entry) ID() string {
	return e.id
}

// StdAdapter is the standard Adapter implementation. A single timer
// goroutine owns a min-heap of scheduled entries; due primary work runs
// inline on the timer goroutine, due worker work is submitted to a bounded
// pool of worker goroutines.
type StdAdapter struct {
	logger      chassis.Logger
	subject     chassis.Subject
	cfg         Config
	granularity time.Duration

	mu      sync.Mutex
	entries entryHeap
	stopped bool

	queue     chan *entry
	wake      chan struct{}
	done      chan struct{}
	queueDone chan struct{}
	timerWg   sync.WaitGroup
	workerWg  sync.WaitGroup
}

// Option configures a scheduler adapter.
type Option func(*StdAdapter)

// WithConfig replaces the whole adapter configuration.
func WithConfig(cfg Config) Option {
	return func(a *StdAdapter) {
		a.cfg = cfg
	}
}

// WithWorkerCount sets the worker pool size.
func WithWorkerCount(count int) Option {
	return func(a *StdAdapter) {
		if count > 0 {
			a.cfg.WorkerCount = count
		}
	}
}

// WithQueueSize sets the worker dispatch queue capacity.
func WithQueueSize(size int) Option {
	return func(a *StdAdapter) {
		if size > 0 {
			a.cfg.QueueSize = size
		}
	}
}

// WithTickGranularity sets the primary tick granularity.
func WithTickGranularity(tick time.Duration) Option {
	return func(a *StdAdapter) {
		if tick > 0 {
			a.cfg.TickMillis = int(tick.Milliseconds())
		}
	}
}

// WithEventSubject wires a Subject to receive task lifecycle events.
func WithEventSubject(subject chassis.Subject) Option {
	return func(a *StdAdapter) {
		a.subject = subject
	}
}

// New creates an adapter and starts its timer and worker goroutines.
func New(logger chassis.Logger, opts ...Option) *StdAdapter {
	a := &StdAdapter{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.cfg.ApplyDefaults()
	a.granularity = a.cfg.TickGranularity()
	a.queue = make(chan *entry, a.cfg.QueueSize)
	a.queueDone = make(chan struct{})

	for i := 0; i < a.cfg.WorkerCount; i++ {
		a.workerWg.Add(1)
		go a.worker(i)
	}
	a.timerWg.Add(1)
	go a.timerLoop()

	a.logger.Debug("Scheduler started",
		"workers", a.cfg.WorkerCount,
		"queueSize", a.cfg.QueueSize,
		"tick", a.granularity)
	return a
}

// ExecutePrimary runs task on the primary context as soon as possible.
func (a *StdAdapter) ExecutePrimary(task func()) {
	if _, err := a.schedule(primaryContext, task, 0, 0, nil); err != nil {
		a.logger.Error("Failed to submit primary task", "error", err)
	}
}

// ExecuteWorker runs task on the worker pool as soon as possible.
func (a *StdAdapter) ExecuteWorker(task func()) {
	if _, err := a.schedule(workerContext, task, 0, 0, nil); err != nil {
		a.logger.Error("Failed to submit worker task", "error", err)
	}
}

// PrimaryLater runs task once on the primary context after delay, truncated
// to whole ticks.
func (a *StdAdapter) PrimaryLater(task func(), delay time.Duration) (Task, error) {
	return a.schedule(primaryContext, task, a.toTicks(delay), 0, nil)
}

// PrimaryRepeating runs task repeatedly on the primary context. The initial
// delay and interval are truncated to whole ticks; an interval shorter than
// one tick fires every tick.
func (a *StdAdapter) PrimaryRepeating(task func(), initialDelay, interval time.Duration) (Task, error) {
	quantized := a.toTicks(interval)
	if quantized < a.granularity {
		quantized = a.granularity
	}
	return a.schedule(primaryContext, task, a.toTicks(initialDelay), quantized, nil)
}

// WorkerLater runs task once on the worker pool after delay.
func (a *StdAdapter) WorkerLater(task func(), delay time.Duration) (Task, error) {
	return a.schedule(workerContext, task, delay, 0, nil)
}

// WorkerRepeating runs task repeatedly on the worker pool.
func (a *StdAdapter) WorkerRepeating(task func(), initialDelay, interval time.Duration) (Task, error) {
	if interval <= 0 {
		return nil, ErrNonPositiveInterval
	}
	return a.schedule(workerContext, task, initialDelay, interval, nil)
}

// WorkerCron runs task on the worker pool per a standard cron expression.
func (a *StdAdapter) WorkerCron(task func(), expression string) (Task, error) {
	schedule, err := cron.ParseStandard(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	return a.schedule(workerContext, task, 0, 0, schedule)
}

func (a *StdAdapter) schedule(kind contextKind, task func(), delay, interval time.Duration, schedule cron.Schedule) (Task, error) {
	if task == nil {
		return nil, ErrNilTask
	}

	e := &entry{
		id:       uuid.New().String(),
		kind:     kind,
		run:      task,
		interval: interval,
		schedule: schedule,
		adapter:  a,
	}
	now := time.Now()
	if schedule != nil {
		e.fireAt = schedule.Next(now)
	} else {
		e.fireAt = now.Add(delay)
	}

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil, ErrSchedulerShutdown
	}
	heap.Push(&a.entries, e)
	a.mu.Unlock()

	a.wakeTimer()
	a.emit(EventTypeTaskScheduled, e.id)
	return e, nil
}

// toTicks truncates a duration to whole primary ticks.
func (a *StdAdapter) toTicks(d time.Duration) time.Duration {
	ticks := d.Milliseconds() / a.granularity.Milliseconds()
	return time.Duration(ticks) * a.granularity
}

func (a *StdAdapter) wakeTimer() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// timerLoop is the dedicated timing goroutine. It pops due entries off the
// heap, runs primary work inline and hands worker work to the pool.
func (a *StdAdapter) timerLoop() {
	defer a.timerWg.Done()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		a.mu.Lock()
		now := time.Now()
		var due []*entry
		for a.entries.Len() > 0 {
			next := a.entries[0]
			if next.cancelled.Load() {
				heap.Pop(&a.entries)
				continue
			}
			if next.fireAt.After(now) {
				break
			}
			heap.Pop(&a.entries)
			due = append(due, next)
		}
		wait := time.Hour
		if a.entries.Len() > 0 {
			wait = time.Until(a.entries[0].fireAt)
		}
		a.mu.Unlock()

		for _, e := range due {
			a.fire(e)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-a.done:
			return
		case <-timer.C:
		case <-a.wake:
		}
	}
}

func (a *StdAdapter) fire(e *entry) {
	if e.cancelled.Load() {
		return
	}

	switch e.kind {
	case primaryContext:
		a.runPrimary(e)
	case workerContext:
		select {
		case a.queue <- e:
		default:
			// Queue full: keep the timer responsive and retry the
			// dispatch one tick later.
			a.logger.Warn("Worker queue full, delaying task", "task", e.id)
			a.requeue(e, time.Now().Add(a.granularity))
			return
		}
	}

	a.rescheduleAfterFire(e)
}

func (a *StdAdapter) rescheduleAfterFire(e *entry) {
	now := time.Now()
	var next time.Time
	switch {
	case e.schedule != nil:
		next = e.schedule.Next(now)
	case e.interval > 0:
		next = e.fireAt.Add(e.interval)
		if !next.After(now) {
			next = now.Add(e.interval)
		}
	default:
		// One-shot task retires after its single dispatch.
		a.emit(EventTypeTaskCompleted, e.id)
		return
	}
	a.requeue(e, next)
}

func (a *StdAdapter) requeue(e *entry, fireAt time.Time) {
	if e.cancelled.Load() {
		return
	}
	e.fireAt = fireAt
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	heap.Push(&a.entries, e)
	a.mu.Unlock()
}

func (a *StdAdapter) runPrimary(e *entry) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Panic in primary task", "task", e.id, "panic", r)
		}
	}()
	e.run()
}

// worker consumes dispatched entries until told to stop, then drains
// whatever is still queued.
func (a *StdAdapter) worker(id int) {
	defer a.workerWg.Done()

	for {
		select {
		case e := <-a.queue:
			a.runWorker(id, e)
		case <-a.queueDone:
			for {
				select {
				case e := <-a.queue:
					a.runWorker(id, e)
				default:
					return
				}
			}
		}
	}
}

func (a *StdAdapter) runWorker(id int, e *entry) {
	if e.cancelled.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Panic in worker task", "worker", id, "task", e.id, "panic", r)
		}
	}()
	e.run()
}

// Shutdown stops accepting new work, cancels everything still scheduled,
// and waits for the timer goroutine and then the worker pool to drain. The
// timer is stopped before the pool so in-flight dispatches never hit a
// stopped pool. Waits are bounded by the context deadline, or by the
// configured shutdown timeout when the context has none; a timeout is
// logged, never escalated.
func (a *StdAdapter) Shutdown(ctx context.Context) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	for _, e := range a.entries {
		e.cancelled.Store(true)
	}
	a.entries = nil
	a.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.ShutdownTimeout())
		defer cancel()
	}

	a.logger.Info("Shutting down scheduler")

	close(a.done)
	if !waitWithContext(&a.timerWg, ctx) {
		a.logger.Error("Timed out waiting for scheduler timer to stop")
	}

	close(a.queueDone)
	if !waitWithContext(&a.workerWg, ctx) {
		a.logger.Error("Timed out waiting for worker pool to drain")
	}

	a.logger.Info("Scheduler shut down")
}

func waitWithContext(wg *sync.WaitGroup, ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *StdAdapter) emit(eventType, taskID string) {
	if a.subject == nil {
		return
	}
	event := chassis.NewCloudEvent(eventType, "scheduler", map[string]any{"taskId": taskID}, nil)
	if err := a.subject.NotifyObservers(context.Background(), event); err != nil {
		a.logger.Debug("Failed to emit scheduler event", "type", eventType, "error", err)
	}
}

// entryHeap orders entries by fire time.
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool { return h[i].fireAt.Before(h[j].fireAt) }

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(*entry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
