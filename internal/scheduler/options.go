package scheduler

import (
	"time"

	"github.com/mauv0809/tournament-stats/internal/metrics"
	"github.com/mauv0809/tournament-stats/internal/notifier"
	"github.com/mauv0809/tournament-stats/internal/pubsub"
)

// Option configures a Loop.
type Option func(*Loop)

// WithInterval sets the time between run starts.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithFloor sets the minimum sleep between runs.
func WithFloor(d time.Duration) Option {
	return func(l *Loop) { l.floor = d }
}

// WithCooldowns sets the pauses after a connection failure and after an
// unexpected failure.
func WithCooldowns(connection, unexpected time.Duration) Option {
	return func(l *Loop) {
		l.connectionCooldown = connection
		l.unexpectedCooldown = unexpected
	}
}

// WithSleeper replaces the sleep function.
func WithSleeper(s Sleeper) Option {
	return func(l *Loop) { l.sleep = s }
}

// WithClock replaces the time source.
func WithClock(c Clock) Option {
	return func(l *Loop) { l.now = c }
}

// WithPublisher publishes a refresh event to topic after each completed run.
func WithPublisher(p pubsub.PubSubClient, topic string) Option {
	return func(l *Loop) {
		l.publisher = p
		l.topic = topic
	}
}

// WithNotifier sends alerts for failed runs.
func WithNotifier(n notifier.Notifier) Option {
	return func(l *Loop) { l.notifier = n }
}

// WithPusher pushes metrics after every run.
func WithPusher(p metrics.Pusher) Option {
	return func(l *Loop) { l.pusher = p }
}
