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
	sessionLoadDuration prometheus.Histogram
	sessionSaveDuration prometheus.Histogram
	sessionTruncations  prometheus.Counter
	persistErrorsTotal  prometheus.Counter

	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec

	providerCallsTotal   *prometheus.CounterVec
	providerCallDuration *prometheus.HistogramVec
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
					Namespace: "sheetpilot",
					Name:      "active_sessions",
					Help:      "Current persisted session count.",
				},
			),
			sessionLoadDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "sheetpilot",
					Name:      "session_load_duration_seconds",
					Help:      "Session load duration in seconds.",
					Buckets:   prometheus.DefBuckets,
				},
			),
			sessionSaveDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "sheetpilot",
					Name:      "session_save_duration_seconds",
					Help:      "Session persist duration in seconds.",
					Buckets:   prometheus.DefBuckets,
				},
			),
			sessionTruncations: prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "sheetpilot",
					Name:      "session_truncations_total",
					Help:      "Total conversations truncated to the message cap.",
				},
			),
			persistErrorsTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "sheetpilot",
					Name:      "session_persist_errors_total",
					Help:      "Total swallowed session persist failures.",
				},
			),
			queriesTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "sheetpilot",
					Name:      "queries_total",
					Help:      "Total assistant queries by model and status.",
				},
				[]string{"model", "status"},
			),
			queryDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "sheetpilot",
					Name:      "query_duration_seconds",
					Help:      "Assistant query duration in seconds by model.",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"model"},
			),
			providerCallsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "sheetpilot",
					Name:      "provider_calls_total",
					Help:      "Total inference provider calls by provider and status.",
				},
				[]string{"provider", "status"},
			),
			providerCallDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "sheetpilot",
					Name:      "provider_call_duration_seconds",
					Help:      "Inference provider call duration in seconds by provider.",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"provider"},
			),
		}

		prometheus.MustRegister(
			m.activeSessions,
			m.sessionLoadDuration,
			m.sessionSaveDuration,
			m.sessionTruncations,
			m.persistErrorsTotal,
			m.queriesTotal,
			m.queryDuration,
			m.providerCallsTotal,
			m.providerCallDuration,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// MetricsHandler returns the HTTP handler serving the Prometheus exposition.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func SetActiveSessions(count int) {
	m := getMetrics()
	m.activeSessions.Set(float64(count))
}

func RecordSessionLoad(duration time.Duration) {
	m := getMetrics()
	m.sessionLoadDuration.Observe(duration.Seconds())
}

func RecordSessionSave(duration time.Duration) {
	m := getMetrics()
	m.sessionSaveDuration.Observe(duration.Seconds())
}

func RecordSessionTruncation() {
	m := getMetrics()
	m.sessionTruncations.Inc()
}

func RecordPersistError() {
	m := getMetrics()
	m.persistErrorsTotal.Inc()
}

func RecordQuery(model string, duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.queriesTotal.WithLabelValues(model, status).Inc()
	m.queryDuration.WithLabelValues(model).Observe(duration.Seconds())
}

func RecordProviderCall(provider string, duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.providerCallsTotal.WithLabelValues(provider, status).Inc()
	m.providerCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
