package chassis

// Logger defines the interface for framework logging.
// The chassis framework uses structured logging with key-value pairs so that
// implementing applications can control how framework logs appear.
//
// The variadic arguments are key-value pairs:
//
//	logger.Info("message", "key1", "value1", "key2", "value2")
//
// This is compatible with popular structured logging libraries like slog,
// logrus and zap. An slog-backed implementation:
//
//	type SlogLogger struct {
//	    logger *slog.Logger
//	}
//
//	func (l *SlogLogger) Info(msg string, args ...any) {
//	    l.logger.Info(msg, args...)
//	}
type Logger interface {
	// Info logs an informational message with optional key-value pairs.
	// Used for normal framework events like service registration.
	Info(msg string, args ...any)

	// Error logs an error message with optional key-value pairs.
	// Used for errors that don't prevent startup but should be noted.
	Error(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, args ...any)

	// Debug logs a debug message with optional key-value pairs.
	// Used for detailed diagnostics, typically disabled in production.
	Debug(msg string, args ...any)
}
