package metrics

import (
	"sync"
	"time"
)

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                sync.Mutex
	runs              map[string]int
	jobFailures       map[string]int
	statWriteFailures int
	runDurations      []float64
	lastSuccess       time.Time
	startupTime       float64
	alertsSent        int
	alertsFailed      int
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		runs:        make(map[string]int),
		jobFailures: make(map[string]int),
	}
}

func (m *Mock) IncRuns(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[state]++
}

func (m *Mock) IncJobFailures(job string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobFailures[job]++
}

func (m *Mock) IncStatWriteFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statWriteFailures++
}

func (m *Mock) ObserveRunDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runDurations = append(m.runDurations, seconds)
}

func (m *Mock) SetLastSuccess(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSuccess = t
}

func (m *Mock) SetStartupTime(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = seconds
}

// Runs returns how many runs ended in state.
func (m *Mock) Runs(state string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[state]
}

// JobFailures returns how many times job was reported as failed.
func (m *Mock) JobFailures(job string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobFailures[job]
}

// StatWriteFailures returns the number of failed stat writes.
func (m *Mock) StatWriteFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statWriteFailures
}

// RunDurations returns the observed run durations.
func (m *Mock) RunDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.runDurations...)
}

// LastSuccess returns the last success time recorded.
func (m *Mock) LastSuccess() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSuccess
}

func (m *Mock) IncAlertsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertsSent++
}

func (m *Mock) IncAlertsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertsFailed++
}

// AlertsSent returns the number of alerts reported as sent.
func (m *Mock) AlertsSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alertsSent
}

// AlertsFailed returns the number of alerts reported as failed.
func (m *Mock) AlertsFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alertsFailed
}
