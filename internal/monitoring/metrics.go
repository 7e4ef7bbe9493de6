package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector exports chat and order metrics to Prometheus and mirrors
// the headline numbers into a Monitor
type MetricsCollector struct {
	registry *prometheus.Registry
	metrics  map[string]prometheus.Collector
	monitor  *Monitor
}

// NewMetricsCollector creates a collector with its own registry. monitor may
// be nil.
func NewMetricsCollector(monitor *Monitor) *MetricsCollector {
	registry := prometheus.NewRegistry()

	turns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bakery_chat_turns_total",
			Help: "Chat turns by outcome",
		},
		[]string{"outcome"},
	)

	turnDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bakery_chat_turn_duration_seconds",
			Help:    "Time taken to answer a chat message",
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		},
	)

	orderCount := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bakery_orders_total",
			Help: "Orders recorded in the order log",
		},
	)

	orderValue := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bakery_order_value_dollars",
			Help:    "Total value of recorded orders",
			Buckets: prometheus.LinearBuckets(5, 5, 10),
		},
	)

	delegations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bakery_delegation_duration_seconds",
			Help:    "Time spent waiting for the chat engine",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"result"},
	)

	menuSaves := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bakery_menu_saves_total",
			Help: "Menu saves by result",
		},
		[]string{"result"},
	)

	metrics := map[string]prometheus.Collector{
		"turns":         turns,
		"turn_duration": turnDuration,
		"orders":        orderCount,
		"order_value":   orderValue,
		"delegations":   delegations,
		"menu_saves":    menuSaves,
	}

	for _, metric := range metrics {
		registry.MustRegister(metric)
	}

	if monitor == nil {
		monitor = NewMonitor()
	}
	return &MetricsCollector{
		registry: registry,
		metrics:  metrics,
		monitor:  monitor,
	}
}

// Registry returns the registry to expose over HTTP
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Monitor returns the in-memory snapshot fed by this collector
func (mc *MetricsCollector) Monitor() *Monitor {
	return mc.monitor
}

// RecordTurn records a finished chat turn
func (mc *MetricsCollector) RecordTurn(outcome string, elapsed time.Duration) {
	if counter, ok := mc.metrics["turns"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(outcome).Inc()
	}
	if histogram, ok := mc.metrics["turn_duration"].(prometheus.Histogram); ok {
		histogram.Observe(elapsed.Seconds())
	}
	mc.monitor.RecordTurn(outcome, elapsed)
}

// RecordOrder records an order written to the log
func (mc *MetricsCollector) RecordOrder(lines int, total float64) {
	if counter, ok := mc.metrics["orders"].(prometheus.Counter); ok {
		counter.Inc()
	}
	if histogram, ok := mc.metrics["order_value"].(prometheus.Histogram); ok {
		histogram.Observe(total)
	}
	mc.monitor.Increment("orders_total", 1)
	mc.monitor.Increment("order_lines_total", float64(lines))
	mc.monitor.Increment("order_value_total", total)
}

// RecordDelegation records a call to the chat engine
func (mc *MetricsCollector) RecordDelegation(elapsed time.Duration, err error) {
	result := resultLabel(err)
	if histogram, ok := mc.metrics["delegations"].(*prometheus.HistogramVec); ok {
		histogram.WithLabelValues(result).Observe(elapsed.Seconds())
	}
	mc.monitor.Increment("delegations_"+result, 1)
}

// RecordMenuSave records an attempt to persist the menu
func (mc *MetricsCollector) RecordMenuSave(err error) {
	result := resultLabel(err)
	if counter, ok := mc.metrics["menu_saves"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(result).Inc()
	}
	mc.monitor.Increment("menu_saves_"+result, 1)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
