package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the worker.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	Runs               *prometheus.CounterVec
	JobFailures        *prometheus.CounterVec
	StatWriteFailures  prometheus.Counter
	RunDuration        prometheus.Histogram
	LastSuccess        prometheus.Gauge
	StartupTimeSeconds prometheus.Gauge
	AlertsSent         prometheus.Counter
	AlertsFailed       prometheus.Counter
}
