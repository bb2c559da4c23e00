package metrics

import "time"

// Metrics defines the interface for collecting worker metrics.
// This decouples the worker from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncRuns(state string)
	IncJobFailures(job string)
	IncStatWriteFailures()
	ObserveRunDuration(seconds float64)
	SetLastSuccess(t time.Time)
	SetStartupTime(seconds float64)
	IncAlertsSent()
	IncAlertsFailed()
}
