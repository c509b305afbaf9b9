package api

import (
	"errors"
	"net/http"
)

// InfoHandler serves the configured limits and application identity.
type InfoHandler struct {
	deps InfoDependencies
}

// NewInfoHandler creates a new info handler.
func NewInfoHandler(deps InfoDependencies) *InfoHandler {
	return &InfoHandler{deps: deps}
}

// HandleLimits handles GET /api/v1/limits requests.
func (h *InfoHandler) HandleLimits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Limits())
}

// HandleCheckLimits handles POST /api/v1/limits/check with a
// {"name": value} body and answers {"name": inRange}.
func (h *InfoHandler) HandleCheckLimits(w http.ResponseWriter, r *http.Request) {
	const op = "api.check_limits"
	var params map[string]float64
	if err := decodeBody(r.Body, &params, false); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(params) == 0 {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("no parameters to check")))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.CheckLimits(params))
}

// HandleInfo handles GET /api/v1/info requests.
func (h *InfoHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.AppInfo())
}
