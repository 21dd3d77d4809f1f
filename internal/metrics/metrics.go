package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for the console
type Metrics struct {
	// Console (inbound) requests
	RequestsTotal          *prometheus.CounterVec
	RequestDurationSeconds *prometheus.HistogramVec
	ErrorsTotal            *prometheus.CounterVec

	// Admin API (outbound) calls
	APICallsTotal          *prometheus.CounterVec
	APICallDurationSeconds *prometheus.HistogramVec

	// Waitlist document store reads
	WaitlistFetchesTotal *prometheus.CounterVec

	// Outbound email
	EmailsSentTotal   *prometheus.CounterVec
	EmailsFailedTotal *prometheus.CounterVec

	// Debounced searches dropped in favour of a newer keystroke
	SearchesSupersededTotal *prometheus.CounterVec

	// System
	UptimeSeconds  prometheus.Gauge
	Goroutines     prometheus.Gauge
	ActiveSessions prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_requests_total",
				Help: "Total number of console HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backoffice_request_duration_seconds",
				Help:    "Console HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_errors_total",
				Help: "Total number of console HTTP error responses",
			},
			[]string{"error_type"},
		),

		APICallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_api_calls_total",
				Help: "Total number of calls to the admin API",
			},
			[]string{"method", "endpoint", "status"},
		),
		APICallDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backoffice_api_call_duration_seconds",
				Help:    "Admin API call duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "endpoint"},
		),

		WaitlistFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_waitlist_fetches_total",
				Help: "Total number of waitlist reads from the document store",
			},
			[]string{"mode", "result"},
		),

		EmailsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_emails_sent_total",
				Help: "Total number of recipients reported as sent",
			},
			[]string{"channel"},
		),
		EmailsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_emails_failed_total",
				Help: "Total number of recipients reported as failed",
			},
			[]string{"channel"},
		),

		SearchesSupersededTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_searches_superseded_total",
				Help: "Total number of debounced searches dropped before fetching",
			},
			[]string{"page"},
		),

		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "backoffice_uptime_seconds",
				Help: "Console uptime in seconds",
			},
		),
		Goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "backoffice_goroutines",
				Help: "Number of active goroutines",
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "backoffice_active_sessions",
				Help: "Number of signed-in console sessions with page state",
			},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSeconds,
		m.ErrorsTotal,
		m.APICallsTotal,
		m.APICallDurationSeconds,
		m.WaitlistFetchesTotal,
		m.EmailsSentTotal,
		m.EmailsFailedTotal,
		m.SearchesSupersededTotal,
		m.UptimeSeconds,
		m.Goroutines,
		m.ActiveSessions,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// ObserveAPICall records one admin API call
func ObserveAPICall(method, path, status string, d time.Duration) {
	m := Global()
	if m == nil {
		return
	}
	endpoint := normalizeSegments(path)
	m.APICallsTotal.WithLabelValues(method, endpoint, status).Inc()
	m.APICallDurationSeconds.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// IncWaitlistFetch records a document store read; mode is "server" or "client"
func IncWaitlistFetch(mode string, err error) {
	m := Global()
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.WaitlistFetchesTotal.WithLabelValues(mode, result).Inc()
}

// AddEmails records per-recipient send outcomes for a channel
func AddEmails(channel string, sent, failed int) {
	m := Global()
	if m == nil {
		return
	}
	if sent > 0 {
		m.EmailsSentTotal.WithLabelValues(channel).Add(float64(sent))
	}
	if failed > 0 {
		m.EmailsFailedTotal.WithLabelValues(channel).Add(float64(failed))
	}
}

// IncSearchSuperseded records a debounced search that never fetched
func IncSearchSuperseded(page string) {
	m := Global()
	if m != nil {
		m.SearchesSupersededTotal.WithLabelValues(page).Inc()
	}
}

// SetActiveSessions sets the active session gauge
func SetActiveSessions(n int) {
	m := Global()
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}
