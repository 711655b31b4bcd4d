// Package metrics exposes Prometheus collectors for the todo service.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry and the collectors recorded into it.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	authEvents *prometheus.CounterVec
	todoOps    *prometheus.CounterVec
	purged     prometheus.Counter
}

// New builds a Metrics with collectors under namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "todo_service"
	}
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"service", "method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"service", "method", "path"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Authentication events by kind and outcome.",
		}, []string{"event", "outcome"}),
		todoOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "todos",
			Name:      "operations_total",
			Help:      "Todo operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "purged_total",
			Help:      "Expired sessions removed by the janitor.",
		}),
	}

	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.authEvents,
		m.todoOps,
		m.purged,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncrementInFlight() { m.httpInFlight.Inc() }
func (m *Metrics) DecrementInFlight() { m.httpInFlight.Dec() }

// RecordHTTPRequest records one completed request.
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	method = strings.ToUpper(method)
	m.httpRequests.WithLabelValues(service, method, path, status).Inc()
	m.httpDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// The domain recorders below are no-ops on a nil *Metrics.

// RecordAuthEvent counts register, login and logout outcomes.
func (m *Metrics) RecordAuthEvent(event string, success bool) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event, outcome(success)).Inc()
}

// RecordTodoOperation counts create, read, edit and delete outcomes.
func (m *Metrics) RecordTodoOperation(op string, success bool) {
	if m == nil {
		return
	}
	m.todoOps.WithLabelValues(op, outcome(success)).Inc()
}

// RecordSessionsPurged adds n to the purged-session counter.
func (m *Metrics) RecordSessionsPurged(n int64) {
	if m != nil && n > 0 {
		m.purged.Add(float64(n))
	}
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
