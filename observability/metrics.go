package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	settlementMetricsOnce sync.Once
	settlementRegistry    *SettlementMetricsRegistry
)

// ModuleMetrics returns the lazily-initialised module metrics registry used to
// record RPC module activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "optimex",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "optimex",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "Total JSON-RPC errors segmented by module, method, and error code.",
			}, []string{"module", "method", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "optimex",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "optimex",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Count of requests rejected by the rate limiter.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a JSON-RPC call. code is the JSON-RPC error
// code, zero on success.
func (m *moduleMetrics) Observe(module, method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if code != 0 {
		outcome = "error"
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", code)).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter. Reasons should be stable
// strings such as "rate_limit".
func (m *moduleMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}

// SettlementMetricsRegistry tracks executed settlement operations.
type SettlementMetricsRegistry struct {
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	fees       *prometheus.CounterVec
	events     *prometheus.CounterVec
}

// SettlementMetrics returns the singleton settlement metrics registry.
func SettlementMetrics() *SettlementMetricsRegistry {
	settlementMetricsOnce.Do(func() {
		settlementRegistry = &SettlementMetricsRegistry{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "optimex",
				Subsystem: "settlement",
				Name:      "operations_total",
				Help:      "Count of executed operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "optimex",
				Subsystem: "settlement",
				Name:      "failures_total",
				Help:      "Count of rejected operations segmented by error kind.",
			}, []string{"operation", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "optimex",
				Subsystem: "settlement",
				Name:      "operation_duration_seconds",
				Help:      "Latency of operations including commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			fees: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "optimex",
				Subsystem: "settlement",
				Name:      "fees_collected_total",
				Help:      "Protocol fees routed to the pool segmented by asset.",
			}, []string{"asset"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "optimex",
				Subsystem: "settlement",
				Name:      "events_total",
				Help:      "Count of published events segmented by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(
			settlementRegistry.operations,
			settlementRegistry.failures,
			settlementRegistry.latency,
			settlementRegistry.fees,
			settlementRegistry.events,
		)
	})
	return settlementRegistry
}

// ObserveOperation records one executed operation. kind is empty on success.
func (m *SettlementMetricsRegistry) ObserveOperation(operation, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if kind != "" {
		outcome = "failure"
		m.failures.WithLabelValues(operation, kind).Inc()
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFee adds amount to the fee volume of asset.
func (m *SettlementMetricsRegistry) RecordFee(asset string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	if asset == "" {
		asset = "native"
	}
	m.fees.WithLabelValues(asset).Add(float64(amount))
}

// RecordEvent counts a published event.
func (m *SettlementMetricsRegistry) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}
