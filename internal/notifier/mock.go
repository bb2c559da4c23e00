package notifier

import (
	"context"
	"sync"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// NotifyRunFailureFunc, when set, provides the result of NotifyRunFailure.
	NotifyRunFailureFunc func(failure RunFailure) error

	// Call records
	NotifyRunFailureCalls []RunFailure
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyRunFailureCalls = nil
}

func (m *Mock) NotifyRunFailure(ctx context.Context, failure RunFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyRunFailureCalls = append(m.NotifyRunFailureCalls, failure)
	if m.NotifyRunFailureFunc != nil {
		return m.NotifyRunFailureFunc(failure)
	}
	return nil
}

// Calls returns a copy of the recorded failures.
func (m *Mock) Calls() []RunFailure {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RunFailure(nil), m.NotifyRunFailureCalls...)
}
