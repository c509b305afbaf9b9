// Package smoke runs end-to-end checks against a running calculator
// service: health, both reference calculations, a JSON export and the
// recent-results listing.
package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/scicalc/internal/domain/genetics"
	"github.com/okian/scicalc/internal/domain/vacuum"
	"github.com/okian/scicalc/pkg/logger"
)

const (
	defaultURL     = "http://localhost:5000"
	defaultTimeout = 10 * time.Second
)

// Check is the outcome of one smoke step.
type Check struct {
	Name     string
	Err      error
	Duration time.Duration
}

// OK reports whether the step passed.
func (c Check) OK() bool { return c.Err == nil }

// Report collects every step of a run.
type Report struct {
	Checks []Check
}

// Failed returns the failing checks.
func (r Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}

// Runner performs the checks over HTTP.
type Runner struct {
	baseURL string
	client  *http.Client
	out     io.Writer
	logger  logger.Logger

	loadRequests int
	loadWorkers  int
}

// Option configures a Runner.
type Option func(*Runner)

// WithURL sets the service base URL.
func WithURL(u string) Option {
	return func(r *Runner) {
		if u != "" {
			r.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) {
		if c != nil {
			r.client = c
		}
	}
}

// WithOutput sets where the check lines are printed.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithLogger sets the logger used for request details.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Runner against http://localhost:5000.
func New(opts ...Option) *Runner {
	r := &Runner{
		baseURL: defaultURL,
		client:  &http.Client{Timeout: defaultTimeout},
		out:     io.Discard,

		loadWorkers: defaultLoadWorkers,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Named("smoke")
	}
	return r
}

// Run executes every check in order. The health check gates the rest.
// It returns ErrCheckFailed when any check failed.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var report Report

	health := r.check(ctx, "health", r.checkHealth)
	report.Checks = append(report.Checks, health)
	if !health.OK() {
		return report, fmt.Errorf("%w: %s", ErrCheckFailed, health.Name)
	}

	var id string
	report.Checks = append(report.Checks,
		r.check(ctx, "vacuum energy", func(ctx context.Context) error {
			var err error
			id, err = r.checkVacuum(ctx)
			return err
		}),
		r.check(ctx, "quantum genetics", r.checkGenetics),
		r.check(ctx, "json export", func(ctx context.Context) error {
			if id == "" {
				return fmt.Errorf("%w: no stored calculation to export", ErrPayload)
			}
			return r.checkExport(ctx, id)
		}),
		r.check(ctx, "history", func(ctx context.Context) error {
			if id == "" {
				return fmt.Errorf("%w: no stored calculation to look up", ErrPayload)
			}
			return r.checkHistory(ctx, id)
		}),
	)

	if r.loadRequests > 0 {
		report.Checks = append(report.Checks, r.check(ctx, "load", r.checkLoad))
	}

	if failed := report.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, c := range failed {
			names[i] = c.Name
		}
		return report, fmt.Errorf("%w: %s", ErrCheckFailed, strings.Join(names, ", "))
	}
	return report, nil
}

func (r *Runner) check(ctx context.Context, name string, fn func(context.Context) error) Check {
	start := time.Now()
	err := fn(ctx)
	c := Check{Name: name, Err: err, Duration: time.Since(start)}
	if err != nil {
		fmt.Fprintf(r.out, "✗ %s: %v\n", name, err)
		r.logger.Error(ctx, "smoke check failed", logger.String("check", name), logger.Error(err))
	} else {
		fmt.Fprintf(r.out, "✓ %s (%s)\n", name, c.Duration.Round(time.Millisecond))
		r.logger.Debug(ctx, "smoke check passed", logger.String("check", name), logger.Duration("elapsed", c.Duration))
	}
	return c
}

func (r *Runner) checkHealth(ctx context.Context) error {
	_, err := r.do(ctx, http.MethodGet, "/health", nil)
	return err
}

type calculation struct {
	ID      string                     `json:"id"`
	Results map[string]json.RawMessage `json:"results"`
}

func (r *Runner) calculate(ctx context.Context, path string, in any, keys []string) (calculation, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return calculation{}, err
	}
	resp, err := r.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return calculation{}, err
	}
	var c calculation
	if err := json.Unmarshal(resp, &c); err != nil {
		return calculation{}, fmt.Errorf("%w: %v", ErrPayload, err)
	}
	if err := hasKeys(c.Results, keys); err != nil {
		return calculation{}, err
	}
	return c, nil
}

func hasKeys[V any](results map[string]V, keys []string) error {
	if len(results) != len(keys) {
		return fmt.Errorf("%w: %d results, want %d", ErrPayload, len(results), len(keys))
	}
	for _, k := range keys {
		if _, ok := results[k]; !ok {
			return fmt.Errorf("%w: missing %s", ErrPayload, k)
		}
	}
	return nil
}

func (r *Runner) checkVacuum(ctx context.Context) (string, error) {
	c, err := r.calculate(ctx, "/api/v1/vacuum-energy", vacuum.DefaultInput(), vacuum.NewCalculator().Keys())
	if err != nil {
		return "", err
	}
	density := string(c.Results[vacuum.KeyEnergyDensity])
	total := string(c.Results[vacuum.KeyTotalEnergy])
	if density == "" || density != total {
		return "", fmt.Errorf("%w: density %s and total %s differ at unit volume", ErrPayload, density, total)
	}
	return c.ID, nil
}

func (r *Runner) checkGenetics(ctx context.Context) error {
	in := genetics.DefaultInput()
	c, err := r.calculate(ctx, "/api/v1/quantum-genetics", in, genetics.NewCalculator().Keys())
	if err != nil {
		return err
	}

	var superposition string
	if err := json.Unmarshal(c.Results[genetics.KeySuperposition], &superposition); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPayload, genetics.KeySuperposition, err)
	}
	s, err := strconv.ParseFloat(superposition, 64)
	if err != nil || s <= 0 || s >= in.QuantumStateAmplitude {
		return fmt.Errorf("%w: %s %q outside (0, %g)", ErrPayload, genetics.KeySuperposition, superposition, in.QuantumStateAmplitude)
	}

	var next int
	if err := json.Unmarshal(c.Results[genetics.KeyNextEvolutionStep], &next); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPayload, genetics.KeyNextEvolutionStep, err)
	}
	if next < in.GenerationCount+1 {
		return fmt.Errorf("%w: %s %d below %d", ErrPayload, genetics.KeyNextEvolutionStep, next, in.GenerationCount+1)
	}
	return nil
}

func (r *Runner) checkExport(ctx context.Context, id string) error {
	resp, err := r.do(ctx, http.MethodGet, "/api/v1/results/"+id+"/export?format=json", nil)
	if err != nil {
		return err
	}
	var doc struct {
		Metadata map[string]string `json:"metadata"`
		Results  map[string]any    `json:"results"`
	}
	if err := json.Unmarshal(resp, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrPayload, err)
	}
	if doc.Metadata["export_timestamp"] == "" {
		return fmt.Errorf("%w: export has no metadata envelope", ErrPayload)
	}
	if err := hasKeys(doc.Results, vacuum.NewCalculator().Keys()); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func (r *Runner) checkHistory(ctx context.Context, id string) error {
	resp, err := r.do(ctx, http.MethodGet, "/api/v1/results?limit=5", nil)
	if err != nil {
		return err
	}
	var recent []calculation
	if err := json.Unmarshal(resp, &recent); err != nil {
		return fmt.Errorf("%w: %v", ErrPayload, err)
	}
	for _, c := range recent {
		if c.ID == id {
			return nil
		}
	}
	return fmt.Errorf("%w: %s missing from recent results", ErrPayload, id)
}

func (r *Runner) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r.logger.Debug(ctx, "smoke request", logger.String("method", method), logger.String("path", path))
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// statusError is a non-200 answer. It matches ErrStatus.
type statusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: %s %s returned %d: %s", ErrStatus, e.Method, e.Path, e.Code, e.Body)
}

func (e *statusError) Is(target error) bool { return target == ErrStatus }
