package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	activeSessions      prometheus.Gauge
	sessionSaveDuration prometheus.Histogram
	sessionLoadDuration prometheus.Histogram
	sessionsCleaned     prometheus.Counter
	cacheFallbacks      *prometheus.CounterVec

	ordersCreated     *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec

	storageRetries *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "active_sessions",
					Help: "Current active session count.",
				},
			),
			sessionSaveDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "session_save_duration_seconds",
					Help:    "Session save duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			sessionLoadDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "session_load_duration_seconds",
					Help:    "Session load duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			sessionsCleaned: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "sessions_cleaned_total",
					Help: "Total expired sessions removed by cleanup.",
				},
			),
			cacheFallbacks: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_fallbacks_total",
					Help: "Total reads degraded from the cache tier to the durable tier.",
				},
				[]string{"operation"},
			),
			ordersCreated: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "orders_created_total",
					Help: "Total orders created by interface type.",
				},
				[]string{"interface"},
			),
			statusTransitions: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "order_status_transitions_total",
					Help: "Total order status transitions by target status.",
				},
				[]string{"to"},
			),
			storageRetries: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "storage_retries_total",
					Help: "Total durable-tier retry attempts by operation.",
				},
				[]string{"operation"},
			),
		}

		prometheus.MustRegister(
			m.activeSessions,
			m.sessionSaveDuration,
			m.sessionLoadDuration,
			m.sessionsCleaned,
			m.cacheFallbacks,
			m.ordersCreated,
			m.statusTransitions,
			m.storageRetries,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// MetricsHandler returns an HTTP handler serving the Prometheus registry.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func SetActiveSessions(count int) {
	getMetrics().activeSessions.Set(float64(count))
}

func RecordSessionSave(duration time.Duration) {
	getMetrics().sessionSaveDuration.Observe(duration.Seconds())
}

func RecordSessionLoad(duration time.Duration) {
	getMetrics().sessionLoadDuration.Observe(duration.Seconds())
}

func RecordSessionsCleaned(count int) {
	getMetrics().sessionsCleaned.Add(float64(count))
}

func RecordCacheFallback(operation string) {
	getMetrics().cacheFallbacks.WithLabelValues(operation).Inc()
}

func RecordOrderCreated(interfaceType string) {
	getMetrics().ordersCreated.WithLabelValues(interfaceType).Inc()
}

func RecordStatusTransition(to string) {
	getMetrics().statusTransitions.WithLabelValues(to).Inc()
}

func RecordStorageRetry(operation string) {
	getMetrics().storageRetries.WithLabelValues(operation).Inc()
}
