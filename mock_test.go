package chassis

import (
	"fmt"
	"sync"
)

// MockLogger captures log calls for assertions in tests.
type MockLogger struct {
	mu            sync.RWMutex
	DebugMessages []string
	InfoMessages  []string
	WarnMessages  []string
	ErrorMessages []string
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.mu.Lock()
	m.DebugMessages = append(m.DebugMessages, fmt.Sprintf("%s %v", msg, args))
	m.mu.Unlock()
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.mu.Lock()
	m.InfoMessages = append(m.InfoMessages, fmt.Sprintf("%s %v", msg, args))
	m.mu.Unlock()
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.mu.Lock()
	m.WarnMessages = append(m.WarnMessages, fmt.Sprintf("%s %v", msg, args))
	m.mu.Unlock()
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.mu.Lock()
	m.ErrorMessages = append(m.ErrorMessages, fmt.Sprintf("%s %v", msg, args))
	m.mu.Unlock()
}

func (m *MockLogger) ErrorCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ErrorMessages)
}

func (m *MockLogger) WarnCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.WarnMessages)
}
