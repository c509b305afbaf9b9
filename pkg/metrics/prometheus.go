package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Health states exported by the health gauge.
var healthStates = []string{"healthy", "degraded", "unhealthy"} //nolint:gochecknoglobals // fixed label set

// Manager manages all Prometheus metrics for the scicalc service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Calculation metrics
	calculations        *prometheus.CounterVec
	calculationDuration *prometheus.HistogramVec
	calculationErrors   *prometheus.CounterVec
	calculationsActive  prometheus.Gauge
	limitViolations     *prometheus.CounterVec
	slowCalculations    *prometheus.CounterVec

	// Export metrics
	exports    *prometheus.CounterVec
	exportSize *prometheus.HistogramVec

	// History and health
	historyRecords prometheus.Gauge
	healthStatus   *prometheus.GaugeVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	rateLimited         prometheus.Counter

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "scicalc",
		subsystem:        "calculator",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000, 5000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Default returns the global manager.
func Default() *Manager { return globalManager }

// Enabled reports whether updates are recorded.
func (m *Manager) Enabled() bool { return m.enabled }

// SetEnabled turns recording on or off. Call it before serving traffic.
func (m *Manager) SetEnabled(enabled bool) { m.enabled = enabled }

// RefreshInterval is how often background gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string { return m.metricPrefix + n }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.calculations = auto.NewCounterVec(
		m.counterOpts("calculations_total", "Total number of calculations by calculator and outcome"),
		[]string{"calculator", "status"},
	)
	m.calculationDuration = auto.NewHistogramVec(
		m.histogramOpts("calculation_duration_milliseconds", "Calculation duration in milliseconds", m.histogramBuckets),
		[]string{"calculator"},
	)
	m.calculationErrors = auto.NewCounterVec(
		m.counterOpts("calculation_errors_total", "Total number of failed calculations by error type"),
		[]string{"calculator", "error_type"},
	)
	m.calculationsActive = auto.NewGauge(
		m.gaugeOpts("calculations_in_flight", "Calculations currently holding a concurrency slot"),
	)
	m.limitViolations = auto.NewCounterVec(
		m.counterOpts("limit_violations_total", "Inputs rejected by the configured parameter ranges"),
		[]string{"parameter"},
	)
	m.slowCalculations = auto.NewCounterVec(
		m.counterOpts("slow_calculations_total", "Calculations slower than the warning threshold"),
		[]string{"calculator"},
	)

	m.exports = auto.NewCounterVec(
		m.counterOpts("exports_total", "Total number of result exports by format and outcome"),
		[]string{"format", "status"},
	)
	m.exportSize = auto.NewHistogramVec(
		m.histogramOpts("export_size_bytes", "Size of exported documents in bytes", prometheus.ExponentialBuckets(256, 4, 8)),
		[]string{"format"},
	)

	m.historyRecords = auto.NewGauge(
		m.gaugeOpts("history_records", "Calculation records currently held for export"),
	)
	m.healthStatus = auto.NewGaugeVec(
		m.gaugeOpts("health_status", "Current health status (1 for the active state)"),
		[]string{"status"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.rateLimited = auto.NewCounter(
		m.counterOpts("rate_limited_requests_total", "Requests rejected by the rate limiter"),
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordCalculation counts one calculation and observes its duration.
func (m *Manager) RecordCalculation(calculator string, success bool, durationMs float64) {
	if !m.enabled {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.calculations.WithLabelValues(calculator, status).Inc()
	m.calculationDuration.WithLabelValues(calculator).Observe(durationMs)
}

// RecordCalculationError counts a failed calculation by error type.
func (m *Manager) RecordCalculationError(calculator, errorType string) {
	if !m.enabled {
		return
	}
	m.calculationErrors.WithLabelValues(calculator, errorType).Inc()
}

// AddCalculationsInFlight adjusts the in-flight gauge by delta.
func (m *Manager) AddCalculationsInFlight(delta int) {
	if !m.enabled {
		return
	}
	m.calculationsActive.Add(float64(delta))
}

// RecordLimitViolation counts an input rejected by its range.
func (m *Manager) RecordLimitViolation(parameter string) {
	if !m.enabled {
		return
	}
	m.limitViolations.WithLabelValues(parameter).Inc()
}

// RecordSlowCalculation counts a calculation above the warning threshold.
func (m *Manager) RecordSlowCalculation(calculator string) {
	if !m.enabled {
		return
	}
	m.slowCalculations.WithLabelValues(calculator).Inc()
}

// RecordExport counts an export and observes the document size on success.
func (m *Manager) RecordExport(format string, success bool, sizeBytes int) {
	if !m.enabled {
		return
	}
	if !success {
		m.exports.WithLabelValues(format, "failure").Inc()
		return
	}
	m.exports.WithLabelValues(format, "success").Inc()
	m.exportSize.WithLabelValues(format).Observe(float64(sizeBytes))
}

// UpdateHistoryRecords sets the number of stored records.
func (m *Manager) UpdateHistoryRecords(count int) {
	if !m.enabled {
		return
	}
	m.historyRecords.Set(float64(count))
}

// UpdateHealthStatus sets the gauge of status to 1 and every other to 0.
func (m *Manager) UpdateHealthStatus(status string) {
	if !m.enabled {
		return
	}
	for _, s := range healthStates {
		v := 0.0
		if s == status {
			v = 1
		}
		m.healthStatus.WithLabelValues(s).Set(v)
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordRateLimited counts a request turned away by the limiter.
func (m *Manager) RecordRateLimited() {
	if !m.enabled {
		return
	}
	m.rateLimited.Inc()
}

// UpdateSystem sets the memory and goroutine gauges and observes a GC pause.
func (m *Manager) UpdateSystem(memoryBytes uint64, goroutines int, gcPauseMs float64) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memoryBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if gcPauseMs > 0 {
		m.systemGCPauseTime.Observe(gcPauseMs)
	}
}

// Package-level helpers operate on the global manager.

// SetEnabled turns recording on the global manager on or off.
func SetEnabled(enabled bool) {
	globalManager.SetEnabled(enabled)
}

// RecordCalculation counts one calculation on the global manager.
func RecordCalculation(calculator string, success bool, durationMs float64) {
	globalManager.RecordCalculation(calculator, success, durationMs)
}

// RecordCalculationError counts a failed calculation by error type.
func RecordCalculationError(calculator, errorType string) {
	globalManager.RecordCalculationError(calculator, errorType)
}

// AddCalculationsInFlight adjusts the in-flight gauge.
func AddCalculationsInFlight(delta int) {
	globalManager.AddCalculationsInFlight(delta)
}

// RecordLimitViolation counts an out-of-range input.
func RecordLimitViolation(parameter string) {
	globalManager.RecordLimitViolation(parameter)
}

// RecordSlowCalculation counts a slow calculation.
func RecordSlowCalculation(calculator string) {
	globalManager.RecordSlowCalculation(calculator)
}

// RecordExport counts an export.
func RecordExport(format string, success bool, sizeBytes int) {
	globalManager.RecordExport(format, success, sizeBytes)
}

// UpdateHistoryRecords sets the stored record count.
func UpdateHistoryRecords(count int) {
	globalManager.UpdateHistoryRecords(count)
}

// UpdateHealthStatus marks the active health state.
func UpdateHealthStatus(status string) {
	globalManager.UpdateHealthStatus(status)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

// RecordRateLimited counts a rate limited request.
func RecordRateLimited() {
	globalManager.RecordRateLimited()
}

// UpdateSystem records runtime statistics.
func UpdateSystem(memoryBytes uint64, goroutines int, gcPauseMs float64) {
	globalManager.UpdateSystem(memoryBytes, goroutines, gcPauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
