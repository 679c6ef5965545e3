package monitoring

import (
	"fmt"
	"sync"
	"time"

	"meteo-stack/shared/logger"
)

type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	skipped        int

	metrics *Metrics
	logger  logger.Logger
}

func NewMonitor(metrics *Metrics, log logger.Logger) *Monitor {
	return &Monitor{
		metrics: metrics,
		logger:  log,
	}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.mu.Unlock()

	m.metrics.observeCycle(OutcomeSuccess, duration)
	m.logger.Infof("Cycle completed - %s (took %v)", summary, duration)
}

// RecordPartialFailure logs a problem that did not stop the snapshot from
// being published. Health is unchanged.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.logger.Warnf("PARTIAL FAILURE: %s (duration: %v)", err.Error(), duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.mu.Unlock()

	m.metrics.observeCycle(OutcomeFailure, duration)
	m.logger.Errorf("CRITICAL FAILURE: %s (duration: %v)", err.Error(), duration)
}

// RecordSkipped counts a trigger dropped because a cycle was still running
func (m *Monitor) RecordSkipped() {
	m.mu.Lock()
	m.skipped++
	m.mu.Unlock()

	m.metrics.observeCycle(OutcomeSkipped, 0)
	m.logger.Debug("Previous cycle still running, skipping tick")
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	status := fmt.Sprintf("Last run failed: %s (%s)", m.lastRunTime.Format("Jan 2 15:04:05"), m.lastSummary)
	if m.lastRunSuccess {
		status = fmt.Sprintf("Last run: %s (%s)", m.lastRunTime.Format("Jan 2 15:04:05"), m.lastSummary)
	}
	if m.skipped > 0 {
		status += fmt.Sprintf(", %d skipped ticks", m.skipped)
	}
	return status
}
