package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/tournament-stats/internal/metrics"
	"github.com/mauv0809/tournament-stats/internal/notifier"
	"github.com/mauv0809/tournament-stats/internal/pubsub"
	"github.com/mauv0809/tournament-stats/internal/stats"
)

// New creates a Loop that runs runner over connections from acquirer.
func New(acquirer Acquirer, runner Runner, m metrics.Metrics, opts ...Option) *Loop {
	l := &Loop{
		acquirer:           acquirer,
		runner:             runner,
		metrics:            m,
		interval:           DefaultInterval,
		floor:              DefaultFloor,
		connectionCooldown: DefaultConnectionCooldown,
		unexpectedCooldown: DefaultUnexpectedCooldown,
		sleep:              sleepContext,
		now:                time.Now,
		state:              StateIdle,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NextSleep returns how long to wait after a run that took elapsed, so that
// runs start every interval but never less than floor apart.
func NextSleep(interval, elapsed, floor time.Duration) time.Duration {
	return max(interval-elapsed, floor)
}

// State returns the current state of the loop.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Run executes runs until ctx is cancelled. Cancellation is observed before
// each run and while sleeping; a run in progress always completes.
func (l *Loop) Run(ctx context.Context) {
	log.Info("Scheduler started", "interval", l.interval, "floor", l.floor)
	for {
		if ctx.Err() != nil {
			l.transition(StateStopped)
			log.Info("Scheduler stopped before run")
			return
		}

		result := l.runGuarded(ctx)

		var pause time.Duration
		switch result.State {
		case StateConnectionFailure:
			pause = l.connectionCooldown
		case StateUnexpectedFailure:
			pause = l.unexpectedCooldown
		default:
			pause = NextSleep(l.interval, result.Elapsed, l.floor)
		}

		l.transition(StateSleeping, "duration", pause)
		if err := l.sleep(ctx, pause); err != nil {
			l.transition(StateStopped)
			log.Info("Scheduler stopped while sleeping")
			return
		}
		l.transition(StateIdle)
	}
}

// runGuarded executes one run and turns any panic that escapes it into an
// unexpected failure, so the loop keeps going.
func (l *Loop) runGuarded(ctx context.Context) (result RunResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic in scheduler loop", "panic", r)
			result.State = StateUnexpectedFailure
			result.Err = fmt.Errorf("unexpected failure: %v", r)
			l.transition(StateUnexpectedFailure)
		}
	}()
	return l.RunOnce(ctx)
}

// RunOnce executes exactly one run and reports its outcome. A panic during
// the run is reported as an unexpected failure.
func (l *Loop) RunOnce(ctx context.Context) (result RunResult) {
	result.RunID = uuid.NewString()
	result.StartedAt = l.now()
	l.transition(StateRunning, "run_id", result.RunID)

	defer func() {
		if r := recover(); r != nil {
			result.State = StateUnexpectedFailure
			result.Err = fmt.Errorf("unexpected failure: %v", r)
			result.Elapsed = l.now().Sub(result.StartedAt)
		}
		l.finish(ctx, &result)
	}()

	conn, err := l.acquirer.Acquire(ctx)
	if err != nil {
		result.State = StateConnectionFailure
		result.Err = err
		result.Elapsed = l.now().Sub(result.StartedAt)
		return result
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn("Failed to release connection", "run_id", result.RunID, "error", err)
		}
	}()

	runCtx := context.WithoutCancel(ctx)
	result.Report = l.runner.Run(runCtx, conn)

	result.ComputedAt = l.now().UTC()
	heartbeat := stats.Text(result.ComputedAt.Format(time.RFC3339))
	if err := l.runner.Store(conn).SaveStat(runCtx, stats.HeartbeatName, heartbeat, stats.CategoryMeta); err != nil {
		l.metrics.IncStatWriteFailures()
		result.Report.FailedWrites = append(result.Report.FailedWrites, stats.HeartbeatName)
	} else {
		result.Report.Written = append(result.Report.Written, stats.HeartbeatName)
	}

	result.State = StateSuccess
	if !result.Report.OK() {
		result.State = StatePartialFailure
	}
	result.Elapsed = l.now().Sub(result.StartedAt)
	return result
}

// finish records, announces and alerts the outcome of a run.
func (l *Loop) finish(ctx context.Context, result *RunResult) {
	l.transition(result.State, "run_id", result.RunID)
	l.logResult(result)

	l.metrics.IncRuns(string(result.State))
	l.metrics.ObserveRunDuration(result.Elapsed.Seconds())
	if result.State == StateSuccess {
		l.metrics.SetLastSuccess(result.ComputedAt)
	}

	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	switch result.State {
	case StateSuccess, StatePartialFailure:
		guard(result.RunID, "publish", func() { l.publish(sideCtx, result) })
	}
	guard(result.RunID, "alert", func() { l.alert(sideCtx, result) })

	if l.pusher != nil {
		guard(result.RunID, "push", func() {
			if err := l.pusher.Push(sideCtx); err != nil {
				log.Warn("Failed to push metrics", "run_id", result.RunID, "error", err)
			}
		})
	}
}

// guard runs one side effect of a finished run. A panic in it is logged and
// does not change the outcome of the run.
func guard(runID, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic after run", "run_id", runID, "step", step, "panic", r)
		}
	}()
	fn()
}

func (l *Loop) logResult(result *RunResult) {
	kv := []any{
		"run_id", result.RunID,
		"state", result.State,
		"elapsed", result.Elapsed,
		"written", len(result.Report.Written),
	}
	switch result.State {
	case StateSuccess:
		log.Info("Stats run finished", kv...)
	case StatePartialFailure:
		kv = append(kv, "failed_jobs", result.Report.FailedJobs, "failed_writes", result.Report.FailedWrites)
		log.Warn("Stats run finished with failures", kv...)
	default:
		kv = append(kv, "error", result.Err)
		log.Error("Stats run failed", kv...)
	}
}

func (l *Loop) publish(ctx context.Context, result *RunResult) {
	if l.publisher == nil || l.topic == "" {
		return
	}
	event := pubsub.RefreshEvent{
		Type:       pubsub.EventStatsRefreshed,
		RunID:      result.RunID,
		State:      string(result.State),
		ComputedAt: result.ComputedAt,
		Stats:      result.Report.Written,
	}
	if err := l.publisher.SendMessage(ctx, l.topic, event); err != nil {
		log.Warn("Failed to publish refresh event", "run_id", result.RunID, "topic", l.topic, "error", err)
	}
}

// alert notifies about failed runs. Consecutive connection failures produce
// a single alert until a run gets a connection again.
func (l *Loop) alert(ctx context.Context, result *RunResult) {
	l.mu.Lock()
	switch result.State {
	case StateSuccess:
		l.connectionAlertSent = false
		l.mu.Unlock()
		return
	case StateConnectionFailure:
		if l.connectionAlertSent {
			l.mu.Unlock()
			return
		}
		l.connectionAlertSent = true
	case StatePartialFailure:
		l.connectionAlertSent = false
	}
	l.mu.Unlock()

	if l.notifier == nil {
		return
	}
	failure := notifier.RunFailure{
		RunID:        result.RunID,
		State:        string(result.State),
		At:           l.now(),
		Err:          result.Err,
		FailedJobs:   result.Report.FailedJobs,
		FailedWrites: result.Report.FailedWrites,
	}
	if err := l.notifier.NotifyRunFailure(ctx, failure); err != nil {
		log.Warn("Failed to send run failure alert", "run_id", result.RunID, "error", err)
	}
}

func (l *Loop) transition(next State, kv ...any) {
	l.mu.Lock()
	prev := l.state
	l.state = next
	l.mu.Unlock()
	log.Debug("Scheduler state changed", append([]any{"from", prev, "to", next}, kv...)...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
