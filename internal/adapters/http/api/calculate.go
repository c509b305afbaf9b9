package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/scicalc/internal/adapters/repository"
	"github.com/okian/scicalc/internal/domain/calc"
	"github.com/okian/scicalc/internal/domain/genetics"
	"github.com/okian/scicalc/internal/domain/vacuum"
)

const maxRequestBody = 1 << 20

// vacuumRequest mirrors the OpenAPI schema for POST /api/v1/vacuum-energy.
type vacuumRequest struct {
	PlanckConstant   float64 `json:"planck_constant" validate:"finite,gt=0"`
	SpeedOfLight     float64 `json:"speed_of_light" validate:"finite,gt=0"`
	Volume           float64 `json:"volume" validate:"finite,gte=0"`
	CutoffFrequency  float64 `json:"cutoff_frequency" validate:"finite,gte=0"`
	ExtractionFactor float64 `json:"extraction_factor" validate:"probability"`
	Temperature      float64 `json:"temperature" validate:"finite,gte=0"`
}

func newVacuumRequest() vacuumRequest {
	return vacuumRequest(vacuum.DefaultInput())
}

// geneticsRequest mirrors the OpenAPI schema for POST /api/v1/quantum-genetics.
type geneticsRequest struct {
	PopulationSize        int     `json:"population_size" validate:"gte=1"`
	QuantumStateAmplitude float64 `json:"quantum_state_amplitude" validate:"probability"`
	CoherenceTime         float64 `json:"coherence_time" validate:"finite,gt=0"`
	BarrierHeight         float64 `json:"barrier_height" validate:"finite,gte=0"`
	ParticleEnergy        float64 `json:"particle_energy" validate:"finite,gte=0"`
	SelectionPressure     float64 `json:"selection_pressure" validate:"finite,gte=0"`
	MutationRate          float64 `json:"mutation_rate" validate:"probability"`
	GenerationCount       int     `json:"generation_count" validate:"gte=1"`
}

func newGeneticsRequest() geneticsRequest {
	return geneticsRequest(genetics.DefaultInput())
}

type calculationResponse struct {
	ID         string       `json:"id"`
	Calculator string       `json:"calculator"`
	Results    calc.Results `json:"results"`
	DurationMs float64      `json:"duration_ms"`
}

func newCalculationResponse(rec repository.Record) calculationResponse {
	return calculationResponse{
		ID:         rec.ID,
		Calculator: rec.Calculator,
		Results:    rec.Results,
		DurationMs: rec.DurationMs(),
	}
}

// CalculateHandler handles calculation requests.
type CalculateHandler struct {
	deps      CalculateDependencies
	validator *Validator
}

// NewCalculateHandler creates a new calculate handler.
func NewCalculateHandler(deps CalculateDependencies, v *Validator) *CalculateHandler {
	return &CalculateHandler{deps: deps, validator: v}
}

// HandleVacuum handles POST /api/v1/vacuum-energy requests.
func (h *CalculateHandler) HandleVacuum(w http.ResponseWriter, r *http.Request) {
	const op = "api.vacuum_energy"
	req := newVacuumRequest()
	if err := h.decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, kindOf(err), err))
		return
	}

	rec, err := h.deps.CalculateVacuum(r.Context(), vacuum.Input(req))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalculationResponse(rec))
}

// HandleGenetics handles POST /api/v1/quantum-genetics requests.
func (h *CalculateHandler) HandleGenetics(w http.ResponseWriter, r *http.Request) {
	const op = "api.quantum_genetics"
	req := newGeneticsRequest()
	if err := h.decode(r, &req); err != nil {
		writeFailure(w, WrapKind(op, kindOf(err), err))
		return
	}

	rec, err := h.deps.CalculateGenetics(r.Context(), genetics.Input(req))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalculationResponse(rec))
}

// decode fills req from the body, keeping defaults for omitted fields. An
// empty body runs with the defaults.
func (h *CalculateHandler) decode(r *http.Request, req any) error {
	if err := decodeBody(r.Body, req, true); err != nil && !errors.Is(err, io.EOF) {
		return badRequest{err}
	}
	return h.validator.Struct(req)
}

var errTrailingData = errors.New("unexpected data after the JSON body")

// decodeBody reads exactly one JSON value from body. It returns io.EOF for
// an empty body.
func decodeBody(body io.Reader, v any, strict bool) error {
	dec := json.NewDecoder(io.LimitReader(body, maxRequestBody))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

type badRequest struct{ error }

func (b badRequest) Unwrap() error { return b.error }

func kindOf(err error) error {
	var br badRequest
	if errors.As(err, &br) {
		return ErrBadRequest
	}
	return ErrValidation
}
