package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var _ Metrics = (*Service)(nil)

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stats_worker_runs_total",
			Help: "The total number of computation runs, by final state.",
		}, []string{"state"}),
		JobFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stats_worker_job_failures_total",
			Help: "The total number of aggregation jobs that failed, by job.",
		}, []string{"job"}),
		StatWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stats_worker_stat_write_failures_total",
			Help: "The total number of stats that could not be persisted.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stats_worker_run_duration_seconds",
			Help:    "The duration of a full computation run.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stats_worker_last_success_timestamp_seconds",
			Help: "Unix time of the last run that completed without failures.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stats_worker_startup_duration_seconds",
			Help: "The duration of the worker startup in seconds.",
		}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stats_worker_alerts_sent_total",
			Help: "The total number of failure alerts sent to Slack.",
		}),
		AlertsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stats_worker_alerts_failed_total",
			Help: "The total number of failure alerts that could not be sent.",
		}),
	}

	reg.MustRegister(
		s.Runs,
		s.JobFailures,
		s.StatWriteFailures,
		s.RunDuration,
		s.LastSuccess,
		s.StartupTimeSeconds,
		s.AlertsSent,
		s.AlertsFailed,
	)

	return s
}

func (s *Service) IncRuns(state string) {
	s.Runs.WithLabelValues(state).Inc()
}

func (s *Service) IncJobFailures(job string) {
	s.JobFailures.WithLabelValues(job).Inc()
}

func (s *Service) IncStatWriteFailures() {
	s.StatWriteFailures.Inc()
}

func (s *Service) ObserveRunDuration(seconds float64) {
	s.RunDuration.Observe(seconds)
}

func (s *Service) SetLastSuccess(t time.Time) {
	s.LastSuccess.Set(float64(t.Unix()))
}

func (s *Service) SetStartupTime(seconds float64) {
	s.StartupTimeSeconds.Set(seconds)
}

func (s *Service) IncAlertsSent() {
	s.AlertsSent.Inc()
}

func (s *Service) IncAlertsFailed() {
	s.AlertsFailed.Inc()
}
