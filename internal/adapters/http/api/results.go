package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/scicalc/internal/adapters/export"
	"github.com/okian/scicalc/internal/adapters/repository"
	"github.com/okian/scicalc/internal/domain/calc"
)

const (
	defaultExportFormat = "json"
	defaultRecentLimit  = 10
	maxRecentLimit      = 100
)

// ResultsHandler handles stored-result and export requests.
type ResultsHandler struct {
	deps ResultsDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultsDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleListResults handles GET /api/v1/results?limit=N, newest first.
func (h *ResultsHandler) HandleListResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_results"
	n := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > maxRecentLimit {
			writeFailure(w, WrapKind(op, ErrBadRequest,
				fmt.Errorf("limit must be an integer between 1 and %d, got %q", maxRecentLimit, v)))
			return
		}
		n = parsed
	}

	recs, err := h.deps.Recent(r.Context(), n)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if recs == nil {
		recs = []repository.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleGetResult handles GET /api/v1/results/{id} requests.
func (h *ResultsHandler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_result"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}

	rec, err := h.deps.Record(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleExportResult handles GET /api/v1/results/{id}/export?format=F.
func (h *ResultsHandler) HandleExportResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_result"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}

	doc, err := h.deps.Export(r.Context(), id, formatParam(r))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeDocument(w, doc)
}

// HandleExport handles POST /api/v1/export?format=F&name=N with a flat
// results object as body.
func (h *ResultsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	var results calc.Results
	if err := decodeBody(r.Body, &results, false); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	doc, err := h.deps.ExportResults(r.Context(), r.URL.Query().Get("name"), results, formatParam(r))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeDocument(w, doc)
}

func formatParam(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	return defaultExportFormat
}

func writeDocument(w http.ResponseWriter, doc export.Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}
