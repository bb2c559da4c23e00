package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestRefreshEventRoundTrip(t *testing.T) {
	event := RefreshEvent{
		Type:       EventStatsRefreshed,
		RunID:      "5f0c7c1e-4f7a-4c55-9a57-0a3c1d7e9b11",
		State:      "success",
		ComputedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Stats:      []string{"summary", "total_matches"},
	}
	data, err := msgpack.Marshal(event)
	require.NoError(t, err)

	var decoded RefreshEvent
	require.NoError(t, msgpack.Unmarshal(data, &decoded))
	assert.Equal(t, EventStatsRefreshed, decoded.Type)
	assert.Equal(t, event.RunID, decoded.RunID)
	assert.Equal(t, event.Stats, decoded.Stats)
	assert.True(t, event.ComputedAt.Equal(decoded.ComputedAt))
}

func TestRefreshEventWireKeys(t *testing.T) {
	data, err := msgpack.Marshal(RefreshEvent{Type: EventStatsRefreshed, RunID: "r1", State: "partial_failure"})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, msgpack.Unmarshal(data, &raw))
	assert.Equal(t, "stats-refreshed", raw["type"])
	assert.Equal(t, "r1", raw["run_id"])
	assert.Equal(t, "partial_failure", raw["state"])
}

func TestMockRecordsCalls(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.SendMessage(context.Background(), "stats", RefreshEvent{RunID: "r1"}))

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "stats", calls[0].Topic)
	assert.Equal(t, "r1", calls[0].Data.(RefreshEvent).RunID)

	m.Close()
	assert.True(t, m.Closed)
}
