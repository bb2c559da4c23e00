package scheduler

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/mauv0809/tournament-stats/internal/aggregate"
	"github.com/mauv0809/tournament-stats/internal/metrics"
	"github.com/mauv0809/tournament-stats/internal/notifier"
	"github.com/mauv0809/tournament-stats/internal/pubsub"
	"github.com/mauv0809/tournament-stats/internal/stats"
)

// State is a state of the scheduler loop.
type State string

const (
	StateIdle              State = "idle"
	StateRunning           State = "running"
	StateSuccess           State = "success"
	StatePartialFailure    State = "partial_failure"
	StateConnectionFailure State = "connection_failure"
	StateUnexpectedFailure State = "unexpected_failure"
	StateSleeping          State = "sleeping"
	StateStopped           State = "stopped"
)

const (
	DefaultInterval           = 300 * time.Second
	DefaultFloor              = 10 * time.Second
	DefaultConnectionCooldown = 60 * time.Second
	DefaultUnexpectedCooldown = 60 * time.Second

	publishTimeout = 10 * time.Second
)

// Acquirer hands out the single connection used by a run.
type Acquirer interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
}

// Runner computes and saves the stats over one connection.
type Runner interface {
	Run(ctx context.Context, conn stats.Conn) aggregate.Report
	Store(conn stats.Conn) stats.Store
}

// Sleeper pauses for d, returning early with ctx.Err() when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Clock returns the current time.
type Clock func() time.Time

// RunResult is the outcome of one run.
type RunResult struct {
	RunID      string
	State      State
	StartedAt  time.Time
	ComputedAt time.Time
	Elapsed    time.Duration
	Report     aggregate.Report
	Err        error
}

// Loop drives repeated computation runs.
type Loop struct {
	acquirer Acquirer
	runner   Runner
	metrics  metrics.Metrics

	interval           time.Duration
	floor              time.Duration
	connectionCooldown time.Duration
	unexpectedCooldown time.Duration

	sleep Sleeper
	now   Clock

	publisher pubsub.PubSubClient
	topic     string
	notifier  notifier.Notifier
	pusher    metrics.Pusher

	mu                  sync.Mutex
	state               State
	connectionAlertSent bool
}
