package notifier

import (
	"context"
	"time"
)

// Notifier defines a high-level interface for alerting about failed runs.
// This decouples the scheduler from the specific notification provider (e.g., Slack).
type Notifier interface {
	NotifyRunFailure(ctx context.Context, failure RunFailure) error
}

// RunFailure describes a run that did not complete cleanly.
type RunFailure struct {
	RunID        string
	State        string
	At           time.Time
	Err          error
	FailedJobs   []string
	FailedWrites []string
}
