package aggregate

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tournament-stats/internal/database"
	"github.com/mauv0809/tournament-stats/internal/metrics"
	"github.com/mauv0809/tournament-stats/internal/stats"
)

// Aggregator runs the aggregation jobs against one connection.
type Aggregator struct {
	metrics  metrics.Metrics
	newStore func(stats.Conn) stats.Store
	jobs     []Job
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithStoreFactory replaces the store built for each run's connection.
func WithStoreFactory(f func(stats.Conn) stats.Store) Option {
	return func(a *Aggregator) { a.newStore = f }
}

// WithJobs replaces the default job list.
func WithJobs(jobs ...Job) Option {
	return func(a *Aggregator) { a.jobs = jobs }
}

// New creates an Aggregator running the default jobs for dialect.
func New(dialect database.Dialect, m metrics.Metrics, opts ...Option) *Aggregator {
	a := &Aggregator{
		metrics:  m,
		newStore: stats.New,
		jobs:     DefaultJobs(dialect),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes every job in order, isolating failures per job and per stat.
func (a *Aggregator) Run(ctx context.Context, conn stats.Conn) Report {
	rec := &recorder{store: a.newStore(conn), metrics: a.metrics}
	var failed []string

	for _, job := range a.jobs {
		log.Debug("Running aggregation job", "job", job.Name)
		if err := a.runJob(ctx, job, conn, rec); err != nil {
			log.Error("Aggregation job failed", "job", job.Name, "error", err)
			a.metrics.IncJobFailures(job.Name)
			failed = append(failed, job.Name)
		}
	}

	report := rec.report()
	report.FailedJobs = failed
	return report
}

// Store returns the store used for conn, for writes outside the jobs.
func (a *Aggregator) Store(conn stats.Conn) stats.Store {
	return a.newStore(conn)
}

func (a *Aggregator) runJob(ctx context.Context, job Job, q Querier, save Saver) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job %s: %v", job.Name, r)
		}
	}()
	return job.Run(ctx, q, save)
}

// recorder saves stats and keeps track of what was written.
type recorder struct {
	store   stats.Store
	metrics metrics.Metrics

	mu      sync.Mutex
	written []string
	failed  []string
}

func (r *recorder) Save(ctx context.Context, name string, value stats.Value, category string) {
	err := r.store.Save(ctx, stats.StatEntry{Name: name, Value: value, Category: category})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.metrics.IncStatWriteFailures()
		r.failed = append(r.failed, name)
		return
	}
	r.written = append(r.written, name)
}

func (r *recorder) report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Report{
		Written:      append([]string(nil), r.written...),
		FailedWrites: append([]string(nil), r.failed...),
	}
}
