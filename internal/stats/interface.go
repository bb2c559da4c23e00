package stats

import "context"

// Store defines the operations on the stat read-model.
type Store interface {
	// SaveStat replaces the stat called name. Failures are logged, rolled
	// back and returned; they never leave a partial write behind.
	SaveStat(ctx context.Context, name string, value Value, category string) error
	Save(ctx context.Context, entry StatEntry) error
	GetStat(ctx context.Context, name string) (*StoredStat, error)
	// ListStats returns stats ordered by name; an empty category lists all.
	ListStats(ctx context.Context, category string) ([]StoredStat, error)
}
