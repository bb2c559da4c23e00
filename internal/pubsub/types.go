package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	EventStatsRefreshed EventType = "stats-refreshed"
)

// RefreshEvent announces that a run refreshed the read-model.
type RefreshEvent struct {
	Type       EventType `msgpack:"type"`
	RunID      string    `msgpack:"run_id"`
	State      string    `msgpack:"state"`
	ComputedAt time.Time `msgpack:"computed_at"`
	Stats      []string  `msgpack:"stats"`
}
