// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/scicalc/internal/domain/monitor"
	"github.com/okian/scicalc/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthReporter provides the current health snapshot.
type HealthReporter interface {
	Health() monitor.Health
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	reporter HealthReporter
	metrics  http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(reporter HealthReporter) *HealthHandler {
	return &HealthHandler{
		reporter: reporter,
		metrics:  promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /health requests. Only an unhealthy status
// answers 503.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.reporter.Health()
	status := http.StatusOK
	if health.Status == monitor.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// HandleMetrics handles GET /healthz requests with the Prometheus
// exposition of the custom registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
