// Package monitor keeps process-wide calculation telemetry: recent durations,
// success and failure tallies and the derived health status.
package monitor

import (
	"slices"
	"sync"
	"time"
)

// Health states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const (
	defaultMaxSamples  = 1000
	defaultKeepSamples = 500
	degradedErrorRate  = 10.0
	unhealthyErrorRate = 25.0
)

// Stats summarises the recorded calculations. Times are in seconds.
type Stats struct {
	AverageTime float64 `json:"average_calculation_time"`
	MaxTime     float64 `json:"max_calculation_time"`
	MinTime     float64 `json:"min_calculation_time"`
	Total       int     `json:"total_calculations"`
	SuccessRate float64 `json:"success_rate"`
	ErrorCount  int     `json:"error_count"`
	SampleCount int     `json:"sample_count"`
	HasSamples  bool    `json:"has_samples"`
}

// Health is the current health snapshot.
type Health struct {
	Status            string    `json:"status"`
	UptimeSeconds     float64   `json:"uptime_seconds"`
	RequestsProcessed int       `json:"requests_processed"`
	ErrorRatePercent  float64   `json:"error_rate_percent"`
	AvgResponseTimeMs float64   `json:"avg_response_time_ms"`
	Timestamp         time.Time `json:"timestamp"`
}

// Monitor is safe for concurrent use.
type Monitor struct {
	mu sync.Mutex

	samples    []time.Duration
	maxSamples int
	keep       int

	successes int
	failures  int
	avg       time.Duration

	start time.Time
	now   func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a Monitor whose uptime starts now.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		maxSamples: defaultMaxSamples,
		keep:       defaultKeepSamples,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.start = m.now()
	return m
}

// Record adds one calculation outcome.
func (m *Monitor) Record(d time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.samples = append(m.samples, d)
	if len(m.samples) > m.maxSamples {
		m.samples = slices.Clone(m.samples[len(m.samples)-m.keep:])
	}

	if success {
		m.successes++
	} else {
		m.failures++
	}

	n := time.Duration(m.successes + m.failures)
	m.avg = (m.avg*(n-1) + d) / n
}

// Stats returns the summary over the retained samples.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.successes + m.failures
	s := Stats{Total: total, ErrorCount: m.failures, SampleCount: len(m.samples)}
	if total > 0 {
		s.SuccessRate = float64(m.successes) / float64(total) * 100
	}
	if len(m.samples) == 0 {
		return s
	}

	s.HasSamples = true
	var sum time.Duration
	lo, hi := m.samples[0], m.samples[0]
	for _, d := range m.samples {
		sum += d
		lo = min(lo, d)
		hi = max(hi, d)
	}
	s.AverageTime = (sum / time.Duration(len(m.samples))).Seconds()
	s.MinTime = lo.Seconds()
	s.MaxTime = hi.Seconds()
	return s
}

// Health derives the status from the lifetime error rate: degraded above
// 10%, unhealthy above 25%.
func (m *Monitor) Health() Health {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	total := m.successes + m.failures
	rate := float64(m.failures) / float64(max(total, 1)) * 100

	status := StatusHealthy
	switch {
	case rate > unhealthyErrorRate:
		status = StatusUnhealthy
	case rate > degradedErrorRate:
		status = StatusDegraded
	}

	return Health{
		Status:            status,
		UptimeSeconds:     now.Sub(m.start).Seconds(),
		RequestsProcessed: total,
		ErrorRatePercent:  rate,
		AvgResponseTimeMs: float64(m.avg) / float64(time.Millisecond),
		Timestamp:         now.UTC(),
	}
}
