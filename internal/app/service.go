// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/okian/scicalc/internal/adapters/export"
	"github.com/okian/scicalc/internal/adapters/repository"
	"github.com/okian/scicalc/internal/domain/calc"
	"github.com/okian/scicalc/internal/domain/genetics"
	"github.com/okian/scicalc/internal/domain/limits"
	"github.com/okian/scicalc/internal/domain/monitor"
	"github.com/okian/scicalc/internal/domain/vacuum"
	"github.com/okian/scicalc/pkg/logger"
	"github.com/okian/scicalc/pkg/metrics"
)

// Stats is the service snapshot served on /stats.
type Stats struct {
	Started         bool          `json:"started"`
	Performance     monitor.Stats `json:"performance"`
	HistoryRecords  int           `json:"history_records"`
	HistoryCapacity int           `json:"history_capacity"`
	MaxConcurrent   int           `json:"max_concurrent_calculations"`
	ExportFormats   []string      `json:"export_formats"`
}

// Service implements the API dependencies for the calculators.
type Service struct {
	mu sync.RWMutex

	// Core components
	vacuum   *vacuum.Calculator
	genetics *genetics.Calculator
	limits   *limits.Limits
	monitor  *monitor.Monitor
	history  repository.Store
	exporter *export.Exporter
	slots    *semaphore.Weighted

	// Configuration
	historySize        int
	maxConcurrent      int
	calculationTimeout time.Duration
	slowThreshold      time.Duration
	maxExportSize      int
	exportFormats      []string
	info               export.Info

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLimits replaces the default parameter ranges.
func WithLimits(l *limits.Limits) Option {
	return func(s *Service) {
		if l != nil {
			s.limits = l
		}
	}
}

// WithHistorySize bounds the records kept for export.
func WithHistorySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.historySize = size
		}
	}
}

// WithMaxConcurrent bounds calculations running at once.
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrent = n
		}
	}
}

// WithCalculationTimeout bounds the wait for a calculation slot.
func WithCalculationTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.calculationTimeout = d
		}
	}
}

// WithSlowCalculationThreshold sets the duration above which a calculation
// is reported as slow.
func WithSlowCalculationThreshold(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.slowThreshold = d
		}
	}
}

// WithAppInfo sets the identity stamped on exports.
func WithAppInfo(info export.Info) Option {
	return func(s *Service) {
		s.info = info
	}
}

// WithMaxExportSize caps the rows of one export.
func WithMaxExportSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxExportSize = n
		}
	}
}

// WithExportFormats restricts the enabled export formats.
func WithExportFormats(formats ...string) Option {
	return func(s *Service) {
		if len(formats) > 0 {
			s.exportFormats = formats
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		vacuum:             vacuum.NewCalculator(),
		genetics:           genetics.NewCalculator(),
		monitor:            monitor.New(),
		historySize:        1000,
		maxConcurrent:      10,
		calculationTimeout: 30 * time.Second,
		slowThreshold:      5 * time.Second,
		maxExportSize:      10_000,
		exportFormats:      []string{"json", "csv", "xlsx"},
		info: export.Info{
			Application: "Scientific Calculator - Vacuum Energy & Quantum Genetics",
			Version:     "1.0.0",
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting calculator service...")

	if s.limits == nil {
		l, err := limits.New()
		if err != nil {
			return fmt.Errorf("default limits: %w", err)
		}
		s.limits = l
	}
	s.history = repository.NewMemoryStore(repository.WithCapacity(s.historySize))
	s.exporter = export.New(s.info,
		export.WithMaxRows(s.maxExportSize),
		export.WithFormats(s.exportFormats...),
	)
	s.slots = semaphore.NewWeighted(int64(s.maxConcurrent))

	s.started = true
	s.logger.Info(ctx, "calculator service started",
		logger.Int("maxConcurrent", s.maxConcurrent),
		logger.Int("historySize", s.historySize),
		logger.Duration("calculationTimeout", s.calculationTimeout),
		logger.Any("exportFormats", s.exporter.Formats()),
	)

	return nil
}

// Stop shuts the service down. Stored records are dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping calculator service...")
	s.history = nil
	s.started = false
	metrics.UpdateHistoryRecords(0)
	s.logger.Info(context.Background(), "calculator service stopped")
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// CalculateVacuum checks the configured ranges, runs the vacuum energy
// calculation and stores the result.
func (s *Service) CalculateVacuum(ctx context.Context, in vacuum.Input) (repository.Record, error) {
	params := map[string]float64{
		limits.CutoffFrequency: in.CutoffFrequency,
		limits.Volume:          in.Volume,
	}
	return s.calculate(ctx, repository.CalculatorVacuum, in, params, func() (calc.Results, error) {
		return s.vacuum.CalculateAll(in)
	})
}

// CalculateGenetics checks the configured ranges, runs the quantum genetics
// calculation and stores the result.
func (s *Service) CalculateGenetics(ctx context.Context, in genetics.Input) (repository.Record, error) {
	params := map[string]float64{
		limits.PopulationSize: float64(in.PopulationSize),
	}
	return s.calculate(ctx, repository.CalculatorGenetics, in, params, func() (calc.Results, error) {
		return s.genetics.CalculateAll(in)
	})
}

func (s *Service) calculate(
	ctx context.Context,
	name string,
	inputs any,
	params map[string]float64,
	run func() (calc.Results, error),
) (repository.Record, error) {
	if !s.isStarted() {
		return repository.Record{}, ErrNotStarted
	}

	if err := s.checkLimits(ctx, name, params); err != nil {
		return repository.Record{}, err
	}

	release, err := s.acquire(ctx, name)
	if err != nil {
		return repository.Record{}, err
	}
	defer release()

	s.logger.Debug(ctx, "calculation started", logger.String("calculator", name))

	start := time.Now()
	results, err := run()
	elapsed := time.Since(start)
	elapsedMs := float64(elapsed) / float64(time.Millisecond)

	s.monitor.Record(elapsed, err == nil)
	metrics.RecordCalculation(name, err == nil, elapsedMs)
	metrics.UpdateHealthStatus(s.monitor.Health().Status)

	if elapsed > s.slowThreshold {
		metrics.RecordSlowCalculation(name)
		s.logger.Warn(ctx, "slow calculation",
			logger.String("calculator", name),
			logger.Duration("elapsed", elapsed),
			logger.Duration("threshold", s.slowThreshold),
		)
	}

	if err != nil {
		kind := calc.Kind(err)
		metrics.RecordCalculationError(name, kind)
		s.logger.Error(ctx, "calculation failed",
			logger.String("calculator", name),
			logger.String("kind", kind),
			logger.Float64("elapsedMs", elapsedMs),
			logger.Error(err),
		)
		return repository.Record{}, err
	}

	rec := repository.Record{
		ID:         uuid.NewString(),
		Calculator: name,
		Inputs:     inputs,
		Results:    results,
		CreatedAt:  start.UTC(),
		Duration:   elapsed,
	}
	if err := s.store(ctx, rec); err != nil {
		return repository.Record{}, err
	}

	s.logger.Info(ctx, "calculation complete",
		logger.String("calculator", name),
		logger.String("id", rec.ID),
		logger.Float64("elapsedMs", elapsedMs),
	)
	return rec, nil
}

// checkLimits validates every parameter and counts each violation.
func (s *Service) checkLimits(ctx context.Context, name string, params map[string]float64) error {
	err := s.limits.ValidateAll(params)
	if err == nil {
		return nil
	}

	for _, e := range flatten(err) {
		var re *limits.RangeError
		if errors.As(e, &re) {
			metrics.RecordLimitViolation(re.Param)
		}
	}
	s.logger.Warn(ctx, "calculation rejected by limits",
		logger.String("calculator", name),
		logger.Error(err),
	)
	return err
}

// flatten splits a joined error into its parts.
func flatten(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// acquire waits up to the calculation timeout for a slot.
func (s *Service) acquire(ctx context.Context, name string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.calculationTimeout)
	defer cancel()

	if err := s.slots.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn(ctx, "no calculation slot available",
			logger.String("calculator", name),
			logger.Int("maxConcurrent", s.maxConcurrent),
		)
		return nil, fmt.Errorf("%w: waited %s", ErrBusy, s.calculationTimeout)
	}

	metrics.AddCalculationsInFlight(1)
	return func() {
		metrics.AddCalculationsInFlight(-1)
		s.slots.Release(1)
	}, nil
}

func (s *Service) store(ctx context.Context, rec repository.Record) error {
	s.mu.RLock()
	history := s.history
	s.mu.RUnlock()
	if history == nil {
		return ErrNotStarted
	}
	if err := history.Save(ctx, rec); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

// Record returns a stored calculation.
func (s *Service) Record(ctx context.Context, id string) (repository.Record, error) {
	s.mu.RLock()
	history := s.history
	s.mu.RUnlock()
	if history == nil {
		return repository.Record{}, ErrNotStarted
	}
	return history.Get(ctx, id)
}

// Recent returns up to n stored calculations, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]repository.Record, error) {
	s.mu.RLock()
	history := s.history
	s.mu.RUnlock()
	if history == nil {
		return nil, ErrNotStarted
	}
	return history.Recent(ctx, n)
}

// Export renders the stored calculation id in format.
func (s *Service) Export(ctx context.Context, id, format string) (export.Document, error) {
	rec, err := s.Record(ctx, id)
	if err != nil {
		return export.Document{}, err
	}
	return s.export(ctx, rec.Calculator, rec.Results, format)
}

// ExportResults renders results supplied by the caller in format.
func (s *Service) ExportResults(ctx context.Context, name string, results calc.Results, format string) (export.Document, error) {
	if !s.isStarted() {
		return export.Document{}, ErrNotStarted
	}
	return s.export(ctx, name, results, format)
}

func (s *Service) export(ctx context.Context, name string, results calc.Results, format string) (export.Document, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		metrics.RecordExport(format, false, 0)
		return export.Document{}, err
	}

	doc, err := s.exporter.Export(f, name, results)
	if err != nil {
		metrics.RecordExport(string(f), false, 0)
		s.logger.Error(ctx, "export failed",
			logger.String("format", string(f)),
			logger.String("name", name),
			logger.Error(err),
		)
		return export.Document{}, err
	}

	metrics.RecordExport(string(f), true, len(doc.Body))
	s.logger.Info(ctx, "results exported",
		logger.String("format", string(f)),
		logger.String("filename", doc.Filename),
		logger.Int("bytes", len(doc.Body)),
	)
	return doc, nil
}

// CheckLimits reports per parameter whether value is inside its configured
// range. Unknown parameters are reported as out of range.
func (s *Service) CheckLimits(params map[string]float64) map[string]bool {
	s.mu.RLock()
	l := s.limits
	s.mu.RUnlock()
	if l == nil {
		l, _ = limits.New()
	}
	return l.Check(params)
}

// Limits returns the configured parameter ranges.
func (s *Service) Limits() map[string]limits.Range {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.limits == nil {
		return limits.Defaults()
	}
	return s.limits.All()
}

// AppInfo returns the application identity.
func (s *Service) AppInfo() export.Info {
	return s.info
}

// Health returns the current health snapshot.
func (s *Service) Health() monitor.Health {
	h := s.monitor.Health()
	metrics.UpdateHealthStatus(h.Status)
	return h
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Started:         s.started,
		Performance:     s.monitor.Stats(),
		HistoryCapacity: s.historySize,
		MaxConcurrent:   s.maxConcurrent,
		ExportFormats:   s.exportFormats,
	}

	if s.started {
		stats.HistoryRecords = s.history.Count(context.Background())
		stats.HistoryCapacity = s.history.Capacity()
		formats := s.exporter.Formats()
		stats.ExportFormats = make([]string, len(formats))
		for i, f := range formats {
			stats.ExportFormats[i] = string(f)
		}
		metrics.UpdateHistoryRecords(stats.HistoryRecords)
	}

	return stats
}
