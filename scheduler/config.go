package scheduler

import (
	"time"
)

// Config defines the tuning knobs for a scheduler adapter.
type Config struct {
	// WorkerCount is the number of worker goroutines in the pool.
	WorkerCount int `json:"workerCount" yaml:"workerCount" toml:"workerCount"`

	// QueueSize is the capacity of the worker dispatch queue.
	QueueSize int `json:"queueSize" yaml:"queueSize" toml:"queueSize"`

	// TickMillis is the primary-context tick granularity in
	// milliseconds. Primary delays and intervals are truncated to whole
	// ticks.
	TickMillis int `json:"tickMillis" yaml:"tickMillis" toml:"tickMillis"`

	// ShutdownTimeoutSeconds bounds how long Shutdown waits for the
	// timer and worker pool to drain when the caller's context carries
	// no deadline.
	ShutdownTimeoutSeconds int `json:"shutdownTimeout" yaml:"shutdownTimeout" toml:"shutdownTimeout"`
}

// Default sizing: 16 pooled workers, a 50 ms primary tick, a one minute
// drain window.
const (
	DefaultWorkerCount            = 16
	DefaultQueueSize              = 100
	DefaultTickMillis             = 50
	DefaultShutdownTimeoutSeconds = 60
)

// ApplyDefaults fills zero or negative fields with default values.
func (c *Config) ApplyDefaults() {
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.TickMillis <= 0 {
		c.TickMillis = DefaultTickMillis
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = DefaultShutdownTimeoutSeconds
	}
}

// TickGranularity returns the tick granularity as a duration.
func (c *Config) TickGranularity() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

// ShutdownTimeout returns the drain window as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
