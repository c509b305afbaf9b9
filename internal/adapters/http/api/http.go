// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/scicalc/internal/adapters/export"
	"github.com/okian/scicalc/internal/adapters/repository"
	"github.com/okian/scicalc/internal/domain/calc"
	"github.com/okian/scicalc/internal/domain/genetics"
	"github.com/okian/scicalc/internal/domain/limits"
	"github.com/okian/scicalc/internal/domain/monitor"
	"github.com/okian/scicalc/internal/domain/vacuum"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CalculateDependencies
	ResultsDependencies
	InfoDependencies

	Health() monitor.Health
}

// CalculateDependencies runs the calculators.
type CalculateDependencies interface {
	CalculateVacuum(ctx context.Context, in vacuum.Input) (repository.Record, error)
	CalculateGenetics(ctx context.Context, in genetics.Input) (repository.Record, error)
}

// ResultsDependencies reads and exports stored calculations.
type ResultsDependencies interface {
	Record(ctx context.Context, id string) (repository.Record, error)
	Recent(ctx context.Context, n int) ([]repository.Record, error)
	Export(ctx context.Context, id, format string) (export.Document, error)
	ExportResults(ctx context.Context, name string, results calc.Results, format string) (export.Document, error)
}

// InfoDependencies exposes static application data.
type InfoDependencies interface {
	Limits() map[string]limits.Range
	CheckLimits(params map[string]float64) map[string]bool
	AppInfo() export.Info
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	calculateHandler *CalculateHandler
	resultsHandler   *ResultsHandler
	infoHandler      *InfoHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	v := NewValidator()
	v.Register(NewCalculationValidationRules()...)

	return &Server{
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(statsProvider),
		calculateHandler: NewCalculateHandler(deps, v),
		resultsHandler:   NewResultsHandler(deps),
		infoHandler:      NewInfoHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/vacuum-energy", MetricsMiddleware(s.calculateHandler.HandleVacuum, "vacuum_energy"))
	mux.HandleFunc("POST /api/v1/quantum-genetics", MetricsMiddleware(s.calculateHandler.HandleGenetics, "quantum_genetics"))
	mux.HandleFunc("GET /api/v1/results", MetricsMiddleware(s.resultsHandler.HandleListResults, "results_list"))
	mux.HandleFunc("GET /api/v1/results/{id}", MetricsMiddleware(s.resultsHandler.HandleGetResult, "results"))
	mux.HandleFunc("GET /api/v1/results/{id}/export", MetricsMiddleware(s.resultsHandler.HandleExportResult, "results_export"))
	mux.HandleFunc("POST /api/v1/export", MetricsMiddleware(s.resultsHandler.HandleExport, "export"))
	mux.HandleFunc("GET /api/v1/limits", MetricsMiddleware(s.infoHandler.HandleLimits, "limits"))
	mux.HandleFunc("POST /api/v1/limits/check", MetricsMiddleware(s.infoHandler.HandleCheckLimits, "limits_check"))
	mux.HandleFunc("GET /api/v1/info", MetricsMiddleware(s.infoHandler.HandleInfo, "info"))
	mux.HandleFunc("GET /health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleMetrics, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure picks the status and code from err.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	writeError(w, status, code, err)
}
