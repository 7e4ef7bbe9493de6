package monitoring

import (
	"sync"
	"time"
)

// Monitor keeps a live snapshot of service counters for the metrics endpoint
type Monitor struct {
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// GetMetric returns a specific metric value
func (m *Monitor) GetMetric(name string) (interface{}, bool) {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	value, exists := m.metrics[name]
	return value, exists
}

// Increment adds delta to a numeric counter, starting it at zero
func (m *Monitor) Increment(name string, delta float64) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	current, _ := m.metrics[name].(float64)
	m.metrics[name] = current + delta
}

// GetMetrics returns all current metrics
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	// Create a copy to avoid concurrent map access
	metrics := make(map[string]interface{}, len(m.metrics)+1)
	for k, v := range m.metrics {
		metrics[k] = v
	}

	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// Reset clears all metrics
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
}

// RecordTurn records the outcome of a chat turn
func (m *Monitor) RecordTurn(outcome string, elapsed time.Duration) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	key := "chat_turns_" + outcome
	current, _ := m.metrics[key].(float64)
	m.metrics[key] = current + 1
	total, _ := m.metrics["chat_turns_total"].(float64)
	m.metrics["chat_turns_total"] = total + 1

	m.metrics["last_turn_outcome"] = outcome
	m.metrics["last_turn_seconds"] = elapsed.Seconds()
	m.metrics["last_turn_at"] = time.Now().Format(time.RFC3339)
}
