// Package scheduler provides delayed and repeating task execution on two
// execution contexts behind one adapter interface: a single serialized
// primary context, where queued work fires in scheduled-time order and never
// overlaps, and a bounded concurrent worker pool for off-primary work.
//
// All timing is driven by one dedicated timer goroutine. Primary-context
// work runs inline on that goroutine; worker-context work is handed to the
// pool so a slow task can never starve the timer. Every scheduling call
// returns a cancellation handle that is safe to invoke repeatedly and after
// the task has completed; cancellation suppresses future firings only and
// never interrupts work already in progress.
//
// Basic usage:
//
//	adapter := scheduler.New(logger)
//	task, err := adapter.WorkerRepeating(pollUpstream, 0, 30*time.Second)
//	...
//	task.Cancel()
//	adapter.Shutdown(context.Background())
package scheduler

import (
	"context"
	"time"
)

// Task is a cancellable reference to one scheduled unit of work.
type Task interface {
	// Cancel stops future firings of this task. It is safe to call
	// multiple times and after the task has already completed; it does
	// not interrupt an execution already in progress.
	Cancel()

	// ID returns the unique identifier of this task.
	ID() string
}

// Adapter schedules work onto the primary context or the worker pool.
type Adapter interface {
	// ExecutePrimary runs task on the primary context as soon as
	// possible.
	ExecutePrimary(task func())

	// ExecuteWorker runs task on the worker pool as soon as possible.
	ExecuteWorker(task func())

	// PrimaryLater runs task once on the primary context after delay.
	// The delay is quantized to the primary tick granularity by
	// truncating division; sub-granularity precision is lost.
	PrimaryLater(task func(), delay time.Duration) (Task, error)

	// PrimaryRepeating runs task on the primary context after
	// initialDelay and then every interval, both quantized to the tick
	// granularity.
	PrimaryRepeating(task func(), initialDelay, interval time.Duration) (Task, error)

	// WorkerLater runs task once on the worker pool after delay.
	WorkerLater(task func(), delay time.Duration) (Task, error)

	// WorkerRepeating runs task on the worker pool after initialDelay
	// and then every interval. Consecutive firings of the same task may
	// overlap if an earlier firing has not finished; serializing repeats
	// is the caller's responsibility.
	WorkerRepeating(task func(), initialDelay, interval time.Duration) (Task, error)

	// WorkerCron runs task on the worker pool following a standard
	// 5-field cron expression.
	WorkerCron(task func(), expression string) (Task, error)

	// Shutdown stops accepting new work, then waits for the timer and
	// the worker pool to drain, bounded by the context deadline (or the
	// configured shutdown timeout when the context has none). A timeout
	// is logged as an error; Shutdown always returns.
	Shutdown(ctx context.Context)
}
