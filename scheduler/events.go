package scheduler

// Event type constants for scheduler events, following CloudEvents reverse
// domain notation.
const (
	// Task lifecycle events
	EventTypeTaskScheduled = "com.chassiskit.scheduler.task.scheduled"
	EventTypeTaskCompleted = "com.chassiskit.scheduler.task.completed"
	EventTypeTaskCancelled = "com.chassiskit.scheduler.task.cancelled"

	// Handler lifecycle events
	EventTypeHandlerStarted = "com.chassiskit.scheduler.handler.started"
	EventTypeHandlerStopped = "com.chassiskit.scheduler.handler.stopped"
)
