package scheduler

import (
	"context"
	"fmt"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/chassiskit/chassis"
)

// testLogger captures log calls for assertions.
type testLogger struct {
	mu            sync.RWMutex
	DebugMessages []string
	InfoMessages  []string
	WarnMessages  []string
	ErrorMessages []string
}

func (l *testLogger) Debug(msg string, args ...any) {
	l.mu.Lock()
	l.DebugMessages = append(l.DebugMessages, fmt.Sprintf("%s %v", msg, args))
	l.mu.Unlock()
}

func (l *testLogger) Info(msg string, args ...any) {
	l.mu.Lock()
	l.InfoMessages = append(l.InfoMessages, fmt.Sprintf("%s %v", msg, args))
	l.mu.Unlock()
}

func (l *testLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	l.WarnMessages = append(l.WarnMessages, fmt.Sprintf("%s %v", msg, args))
	l.mu.Unlock()
}

func (l *testLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	l.ErrorMessages = append(l.ErrorMessages, fmt.Sprintf("%s %v", msg, args))
	l.mu.Unlock()
}

func (l *testLogger) WarnCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.WarnMessages)
}

func (l *testLogger) ErrorCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ErrorMessages)
}

// recordingSubject collects notified event types.
type recordingSubject struct {
	mu    sync.Mutex
	types []string
}

func (s *recordingSubject) RegisterObserver(chassis.Observer, ...string) error { return nil }

func (s *recordingSubject) UnregisterObserver(chassis.Observer) error { return nil }

func (s *recordingSubject) NotifyObservers(_ context.Context, event cloudevents.Event) error {
	s.mu.Lock()
	s.types = append(s.types, event.Type())
	s.mu.Unlock()
	return nil
}

func (s *recordingSubject) GetObservers() []chassis.ObserverInfo { return nil }

func (s *recordingSubject) Types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.types))
	copy(out, s.types)
	return out
}

func (s *recordingSubject) Count(eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.types {
		if t == eventType {
			n++
		}
	}
	return n
}
