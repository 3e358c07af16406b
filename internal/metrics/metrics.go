package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metric collectors / Contient tous les collecteurs de métriques Prometheus
type Metrics struct {
	// Record metrics
	ClientWrites       *prometheus.CounterVec // Client writes by operation (create/update/delete/contact) and outcome
	ValidationFailures *prometheus.CounterVec // Blocking validation issues by error code
	VersionConflicts   prometheus.Counter     // Optimistic concurrency conflicts, retried or not

	// Batch metrics
	BatchOperations *prometheus.CounterVec   // Batches by operation
	BatchItems      *prometheus.CounterVec   // Batch items by operation and outcome (success/error/warning)
	BatchDuration   *prometheus.HistogramVec // End-to-end batch latency in seconds

	// Search metrics
	SearchDuration prometheus.Histogram // Search latency in seconds, facets included
	SearchResults  prometheus.Histogram // Total matches per search

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec   // Total HTTP requests by method, path, status
	HTTPRequestDuration *prometheus.HistogramVec // HTTP request latency in seconds
	ActiveConnections   prometheus.Gauge         // Current number of active HTTP connections

	// Security metrics
	RateLimitHits *prometheus.CounterVec // Rate limit violations by endpoint
	InvalidTokens prometheus.Counter     // Invalid/expired JWT token attempts

	// System metrics
	DatabaseConnections prometheus.Gauge     // Current database connection pool size
	BackgroundTasks     *prometheus.GaugeVec // Status of background tasks (running/stopped)
}

// NewMetrics initializes Metrics instance / Initialise une instance Metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		ClientWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_client_writes_total",
				Help: "Total number of client writes by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_validation_failures_total",
				Help: "Total number of blocking validation issues by error code",
			},
			[]string{"code"},
		),

		VersionConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "records_version_conflicts_total",
				Help: "Total number of optimistic concurrency conflicts",
			},
		),

		BatchOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_batch_operations_total",
				Help: "Total number of batch operations by operation",
			},
			[]string{"operation"},
		),

		BatchItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_batch_items_total",
				Help: "Total number of batch items by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		BatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "records_batch_duration_seconds",
				Help: "Batch execution latency in seconds",
				// Up to 1000 sequential items: 10ms to 2min
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"operation"},
		),

		SearchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "records_search_duration_seconds",
				Help:    "Search latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),

		SearchResults: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "records_search_results",
				Help:    "Total number of matches per search",
				Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
			},
		),

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status code",
			},
			[]string{"method", "path", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				// Buckets optimized for API response times: 10ms to 10s
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Current number of active HTTP connections",
			},
		),

		// Security metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "security_rate_limit_hits_total",
				Help: "Total number of rate limit violations by endpoint",
			},
			[]string{"endpoint"},
		),

		InvalidTokens: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "security_invalid_tokens_total",
				Help: "Total number of invalid or expired JWT token attempts",
			},
		),

		// System metrics
		DatabaseConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "database_connections_active",
				Help: "Current number of active database connections",
			},
		),

		BackgroundTasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "background_tasks_status",
				Help: "Status of background tasks (1=running, 0=stopped)",
			},
			[]string{"task_name"},
		),
	}

	return m
}

// RecordClientWrite records a single-record write.
// Outcome can be: "success", "invalid", "rejected" or "error"
func (m *Metrics) RecordClientWrite(operation, outcome string) {
	m.ClientWrites.WithLabelValues(operation, outcome).Inc()
}

// RecordValidationFailure counts one blocking issue code.
func (m *Metrics) RecordValidationFailure(code string) {
	m.ValidationFailures.WithLabelValues(code).Inc()
}

// RecordVersionConflict increments the conflict counter.
func (m *Metrics) RecordVersionConflict() {
	m.VersionConflicts.Inc()
}

// RecordBatch records a finished batch with its per-item outcomes.
func (m *Metrics) RecordBatch(operation string, successes, errors, warnings int, duration time.Duration) {
	m.BatchOperations.WithLabelValues(operation).Inc()
	m.BatchItems.WithLabelValues(operation, "success").Add(float64(successes))
	m.BatchItems.WithLabelValues(operation, "error").Add(float64(errors))
	m.BatchItems.WithLabelValues(operation, "warning").Add(float64(warnings))
	m.BatchDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSearch records a search latency and result size.
func (m *Metrics) RecordSearch(duration time.Duration, total int) {
	m.SearchDuration.Observe(duration.Seconds())
	m.SearchResults.Observe(float64(total))
}

// RecordHTTPRequest records an HTTP request with method, path, and status code.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCodeToString(statusCode)).Inc()
}

// RecordHTTPDuration records the duration of an HTTP request.
func (m *Metrics) RecordHTTPDuration(method, path string, duration time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementActiveConnections increments the active connections gauge.
func (m *Metrics) IncrementActiveConnections() {
	m.ActiveConnections.Inc()
}

// DecrementActiveConnections decrements the active connections gauge.
func (m *Metrics) DecrementActiveConnections() {
	m.ActiveConnections.Dec()
}

// RecordRateLimitHit records a rate limit violation for a specific endpoint.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.RateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordInvalidToken increments the invalid token counter.
func (m *Metrics) RecordInvalidToken() {
	m.InvalidTokens.Inc()
}

// UpdateDatabaseConnections updates the database connections gauge.
func (m *Metrics) UpdateDatabaseConnections(count int) {
	m.DatabaseConnections.Set(float64(count))
}

// SetBackgroundTaskStatus sets the status of a background task.
// Status: 1 for running, 0 for stopped.
func (m *Metrics) SetBackgroundTaskStatus(taskName string, running bool) {
	status := 0.0
	if running {
		status = 1.0
	}
	m.BackgroundTasks.WithLabelValues(taskName).Set(status)
}

// statusCodeToString converts HTTP status code to string / Convertit le code de statut HTTP en chaîne
func statusCodeToString(code int) string {
	switch code {
	case 200, 201, 400, 401, 403, 404, 409, 422, 429, 500, 503:
		return strconv.Itoa(code)
	}
	// Group others by range
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	}
	return "unknown"
}
