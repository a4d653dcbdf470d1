package scheduler

import (
	"errors"
)

// Scheduler errors
var (
	ErrSchedulerShutdown   = errors.New("scheduler has been shut down")
	ErrNilTask             = errors.New("task function cannot be nil")
	ErrNonPositiveInterval = errors.New("repeat interval must be positive")

	// Handler errors
	ErrHandlerAlreadyRunning    = errors.New("handler already has an active task")
	ErrHandlerAlreadyRegistered = errors.New("handler already registered")
	ErrHandlerNotFound          = errors.New("handler not found")

	// Counting timer errors
	ErrTimerAlreadyRunning = errors.New("timer already has an active task")
)
