package secrets

import (
	"context"
	"sync"
)

// Mock is a mock implementation of the Accessor interface for testing.
type Mock struct {
	mu sync.Mutex

	AccessSecretFunc func(ctx context.Context, name string) (string, error)

	// Call records
	AccessSecretCalls []string
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) AccessSecret(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AccessSecretCalls = append(m.AccessSecretCalls, name)
	if m.AccessSecretFunc != nil {
		return m.AccessSecretFunc(ctx, name)
	}
	return "", nil
}
