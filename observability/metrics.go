package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stocksense"

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Registry metrics
	RegistryOperationsTotal *prometheus.CounterVec
	TrackedSymbols          prometheus.Gauge
	LookupDuration          *prometheus.HistogramVec

	// Refresh metrics
	RefreshRunsTotal    *prometheus.CounterVec
	RefreshDuration     *prometheus.HistogramVec
	RefreshSkippedTotal prometheus.Counter

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// Notification and stream metrics
	NotificationsTotal *prometheus.CounterVec
	StreamSubscribers  prometheus.Gauge
	StreamDroppedTotal prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		// Registry metrics
		RegistryOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "operations_total",
				Help:      "Total number of registry operations by outcome",
			},
			[]string{"operation", "result"},
		),
		TrackedSymbols: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "tracked_symbols",
				Help:      "Number of symbols currently tracked",
			},
		),
		LookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "lookup_duration_seconds",
				Help:      "Duration of symbol lookups in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"result"},
		),

		// Refresh metrics
		RefreshRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "runs_total",
				Help:      "Total number of refresh runs",
			},
			[]string{"trigger", "status"},
		),
		RefreshDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "duration_seconds",
				Help:      "Duration of refresh runs in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"trigger"},
		),
		RefreshSkippedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "skipped_total",
				Help:      "Total number of scheduled refreshes skipped because one was in flight",
			},
		),

		// External API metrics
		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total number of external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total number of external API errors",
			},
			[]string{"service", "operation", "error_type"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API calls in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),

		// Notification and stream metrics
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notifications",
				Name:      "pushed_total",
				Help:      "Total number of notifications pushed by severity",
			},
			[]string{"severity"},
		),
		StreamSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "subscribers",
				Help:      "Number of active snapshot subscribers",
			},
		),
		StreamDroppedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stream",
				Name:      "dropped_total",
				Help:      "Total number of snapshots dropped for slow subscribers",
			},
		),

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "response_size_bytes",
				Help:      "Size of HTTP responses in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		// Circuit breaker metrics
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"service"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total number of circuit breaker trips",
			},
			[]string{"service"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics() *Metrics {
	globalMetrics = NewMetrics(nil)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordRegistryOperation records an add or remove and its outcome
func (m *Metrics) RecordRegistryOperation(operation, result string) {
	if m == nil {
		return
	}
	m.RegistryOperationsTotal.WithLabelValues(operation, result).Inc()
}

// SetTrackedSymbols sets the tracked symbols gauge
func (m *Metrics) SetTrackedSymbols(n int) {
	if m == nil {
		return
	}
	m.TrackedSymbols.Set(float64(n))
}

// RecordLookupDuration records how long a symbol lookup took
func (m *Metrics) RecordLookupDuration(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LookupDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordRefresh records a completed refresh run
func (m *Metrics) RecordRefresh(trigger, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RefreshRunsTotal.WithLabelValues(trigger, status).Inc()
	m.RefreshDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}

// RecordRefreshSkipped records a scheduled refresh that was skipped
func (m *Metrics) RecordRefreshSkipped() {
	if m == nil {
		return
	}
	m.RefreshSkippedTotal.Inc()
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(service, operation string) {
	if m == nil {
		return
	}
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
}

// RecordExternalAPIError records an external API error
func (m *Metrics) RecordExternalAPIError(service, operation, errorType string) {
	if m == nil {
		return
	}
	m.ExternalAPIErrorsTotal.WithLabelValues(service, operation, errorType).Inc()
}

// RecordExternalAPIDuration records the duration of an external API call
func (m *Metrics) RecordExternalAPIDuration(service, operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordNotification records a pushed notification
func (m *Metrics) RecordNotification(severity string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(severity).Inc()
}

// SetStreamSubscribers sets the subscriber gauge
func (m *Metrics) SetStreamSubscribers(n int) {
	if m == nil {
		return
	}
	m.StreamSubscribers.Set(float64(n))
}

// RecordStreamDrop records a snapshot dropped for a slow subscriber
func (m *Metrics) RecordStreamDrop() {
	if m == nil {
		return
	}
	m.StreamDroppedTotal.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration, responseSize int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// SetCircuitBreakerState sets the current state of a circuit breaker
func (m *Metrics) SetCircuitBreakerState(service string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(service string) {
	if m == nil {
		return
	}
	m.CircuitBreakerTrips.WithLabelValues(service).Inc()
}

// Timer is a helper for timing operations
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// NewTimer creates a new timer
func (m *Metrics) NewTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// ObserveLookup records the lookup duration and result
func (t *Timer) ObserveLookup(result string) {
	t.metrics.RecordLookupDuration(result, time.Since(t.start))
}

// ObserveRefresh records a refresh run
func (t *Timer) ObserveRefresh(trigger, status string) {
	t.metrics.RecordRefresh(trigger, status, time.Since(t.start))
}

// ObserveExternalAPI records the external API duration
func (t *Timer) ObserveExternalAPI(service, operation string) {
	t.metrics.RecordExternalAPIDuration(service, operation, time.Since(t.start))
}

// Duration returns the elapsed time
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
