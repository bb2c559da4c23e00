package stats

import (
	"context"
	"sort"
	"sync"
)

// Mock is an in-memory implementation of the Store interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu      sync.Mutex
	entries map[string]StoredStat

	// SaveStatFunc, when set, decides the outcome of a save before it is recorded.
	SaveStatFunc func(name string, value Value, category string) error

	// Call records
	SaveStatCalls []StatEntry
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{entries: make(map[string]StoredStat)}
}

func (m *Mock) Save(ctx context.Context, entry StatEntry) error {
	return m.SaveStat(ctx, entry.Name, entry.Value, entry.Category)
}

func (m *Mock) SaveStat(ctx context.Context, name string, value Value, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveStatCalls = append(m.SaveStatCalls, StatEntry{Name: name, Value: value, Category: category})
	if m.SaveStatFunc != nil {
		if err := m.SaveStatFunc(name, value, category); err != nil {
			return err
		}
	}
	if name == "" {
		return ErrEmptyName
	}
	if category == "" {
		category = CategoryGeneral
	}
	encoded, err := value.Encode()
	if err != nil {
		return err
	}
	m.entries[name] = StoredStat{Name: name, Value: encoded, Category: category}
	return nil
}

func (m *Mock) GetStat(ctx context.Context, name string) (*StoredStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stat, ok := m.entries[name]
	if !ok {
		return nil, ErrStatNotFound
	}
	return &stat, nil
}

func (m *Mock) ListStats(ctx context.Context, category string) ([]StoredStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []StoredStat
	for _, stat := range m.entries {
		if category == "" || stat.Category == category {
			result = append(result, stat)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// SavedNames returns the names passed to SaveStat, in call order.
func (m *Mock) SavedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.SaveStatCalls))
	for _, call := range m.SaveStatCalls {
		names = append(names, call.Name)
	}
	return names
}
