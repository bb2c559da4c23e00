package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/tournament-stats/internal/aggregate"
	"github.com/mauv0809/tournament-stats/internal/scheduler"
	"github.com/mauv0809/tournament-stats/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintStatsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStats(&buf, []stats.StoredStat{
		{Name: "total_matches", Value: "42", Category: "matches"},
		{Name: "last_computed_at", Value: "2024-06-01T12:00:00Z", Category: "meta"},
	}))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "total_matches")
	assert.Contains(t, out, "2024-06-01T12:00:00Z")
}

func TestPrintStatsJSON(t *testing.T) {
	outputJSON = true
	defer func() { outputJSON = false }()

	var buf bytes.Buffer
	require.NoError(t, printStats(&buf, []stats.StoredStat{{Name: "total_matches", Value: "42", Category: "matches"}}))
	assert.JSONEq(t, `[{"stat_name":"total_matches","stat_value":"42","stat_category":"matches"}]`, buf.String())
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, scheduler.RunResult{
		RunID:   "run-1",
		State:   scheduler.StateConnectionFailure,
		Elapsed: 2 * time.Second,
		Report:  aggregate.Report{FailedJobs: []string{"players"}},
		Err:     errors.New("connection refused"),
	}))

	out := buf.String()
	assert.Contains(t, out, "run-1: connection_failure in 2s")
	assert.Contains(t, out, "Failed jobs: [players]")
	assert.Contains(t, out, "Error: connection refused")
}
