package scheduler

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// TimeChange is the direction a counting timer moves on each firing.
type TimeChange int

const (
	// Increment counts the timer value upward.
	Increment TimeChange = iota
	// Decrement counts the timer value downward.
	Decrement
)

// NoStopValue disables the stop value of a counting timer.
const NoStopValue = math.MinInt

// CountTimer is a named counting timer driven by the scheduler: each firing
// moves the value one step, notifies tick callbacks, and stops at an
// optional stop value. Supports pause/resume and automatic restart.
type CountTimer struct {
	identifier    string
	startingValue int
	stopValue     int

	mu          sync.Mutex
	value       int
	paused      bool
	autoRestart bool
	interval    time.Duration
	tickFns     []func(current int)
	completeFns []func()
	task        Task
}

// NewCountTimer creates a timer starting at startingValue with no stop
// value and a one second interval.
func NewCountTimer(identifier string, startingValue int) *CountTimer {
	return NewCountTimerWithStop(identifier, startingValue, NoStopValue)
}

// NewCountTimerWithStop creates a timer that stops when the value reaches
// stopValue.
func NewCountTimerWithStop(identifier string, startingValue, stopValue int) *CountTimer {
	return &CountTimer{
		identifier:    identifier,
		startingValue: startingValue,
		stopValue:     stopValue,
		value:         startingValue,
		interval:      time.Second,
	}
}

// OnTick adds a callback invoked with the current value on each firing.
func (t *CountTimer) OnTick(callback func(current int)) *CountTimer {
	t.mu.Lock()
	t.tickFns = append(t.tickFns, callback)
	t.mu.Unlock()
	return t
}

// OnComplete adds a callback invoked when the timer reaches its stop value.
func (t *CountTimer) OnComplete(callback func()) *CountTimer {
	t.mu.Lock()
	t.completeFns = append(t.completeFns, callback)
	t.mu.Unlock()
	return t
}

// SetAutoRestart makes the timer reset and restart after completing.
func (t *CountTimer) SetAutoRestart(autoRestart bool) *CountTimer {
	t.mu.Lock()
	t.autoRestart = autoRestart
	t.mu.Unlock()
	return t
}

// SetInterval changes the firing interval.
func (t *CountTimer) SetInterval(interval time.Duration) *CountTimer {
	t.mu.Lock()
	t.interval = interval
	t.mu.Unlock()
	return t
}

// Start begins the timer on adapter, moving the value in the given
// direction each interval. Starting an already running timer is an error.
func (t *CountTimer) Start(adapter Adapter, change TimeChange, onWorker bool) error {
	// The mutex is held across the scheduling call so concurrent Starts
	// cannot both pass the live-task check.
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.task != nil {
		return fmt.Errorf("%w: %s", ErrTimerAlreadyRunning, t.identifier)
	}

	run := func() {
		t.fire(adapter, change, onWorker)
	}

	var task Task
	var err error
	if onWorker {
		task, err = adapter.WorkerRepeating(run, t.interval, t.interval)
	} else {
		task, err = adapter.PrimaryRepeating(run, t.interval, t.interval)
	}
	if err != nil {
		return fmt.Errorf("failed to start timer %s: %w", t.identifier, err)
	}

	t.task = task
	return nil
}

func (t *CountTimer) fire(adapter Adapter, change TimeChange, onWorker bool) {
	t.mu.Lock()
	if t.paused || t.task == nil {
		t.mu.Unlock()
		return
	}

	if change == Increment {
		t.value++
	} else {
		t.value--
	}
	current := t.value
	tickFns := t.tickFns
	completed := t.stopValue != NoStopValue && current == t.stopValue

	var completeFns []func()
	restart := false
	if completed {
		t.task.Cancel()
		t.task = nil
		completeFns = t.completeFns
		restart = t.autoRestart
		if restart {
			t.value = t.startingValue
		}
	}
	t.mu.Unlock()

	for _, callback := range tickFns {
		callback(current)
	}
	for _, callback := range completeFns {
		callback()
	}
	if restart {
		if err := t.Start(adapter, change, onWorker); err != nil {
			return
		}
	}
}

// Stop cancels the timer's task, leaving the value untouched.
func (t *CountTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.task != nil {
		t.task.Cancel()
		t.task = nil
	}
}

// Pause keeps the task alive but skips updates until Resume.
func (t *CountTimer) Pause() {
	t.mu.Lock()
	t.paused = true
	t.mu.Unlock()
}

// Resume re-enables updates after Pause.
func (t *CountTimer) Resume() {
	t.mu.Lock()
	t.paused = false
	t.mu.Unlock()
}

// IsPaused reports whether the timer is paused.
func (t *CountTimer) IsPaused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// IsRunning reports whether the timer has a live, unpaused task.
func (t *CountTimer) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.task != nil && !t.paused
}

// Identifier returns the timer's unique identifier.
func (t *CountTimer) Identifier() string {
	return t.identifier
}

// Set forces the timer to a specific value.
func (t *CountTimer) Set(value int) {
	t.mu.Lock()
	t.value = value
	t.mu.Unlock()
}

// Value returns the current timer value.
func (t *CountTimer) Value() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Reset returns the timer to its starting value.
func (t *CountTimer) Reset() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = t.startingValue
	return t.value
}

// StartingValue returns the configured starting value.
func (t *CountTimer) StartingValue() int {
	return t.startingValue
}

// StopValue returns the configured stop value, or NoStopValue.
func (t *CountTimer) StopValue() int {
	return t.stopValue
}

// Remaining returns the distance to the stop value, or -1 when the timer
// has none.
func (t *CountTimer) Remaining() int {
	if t.stopValue == NoStopValue {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return abs(t.value - t.stopValue)
}

// Progress returns completion as a fraction between 0 and 1, or 0 when the
// timer has no stop value.
func (t *CountTimer) Progress() float64 {
	if t.stopValue == NoStopValue {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	total := abs(t.stopValue - t.startingValue)
	if total == 0 {
		return 0
	}
	return float64(abs(t.value-t.startingValue)) / float64(total)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
