package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/scicalc/internal/domain/genetics"
	"github.com/okian/scicalc/internal/domain/vacuum"
	"github.com/okian/scicalc/pkg/logger"
)

const defaultLoadWorkers = 4

// LoadStats summarises a load run.
type LoadStats struct {
	Submitted  int64
	Successful int64
	Throttled  int64
	Failed     int64
	Duration   time.Duration
}

// PerSecond is the submission rate.
func (s LoadStats) PerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Submitted) / s.Duration.Seconds()
}

// WithLoad adds a load phase of requests calculations, alternating between
// both calculators, spread over workers.
func WithLoad(requests, workers int) Option {
	return func(r *Runner) {
		if requests > 0 {
			r.loadRequests = requests
		}
		if workers > 0 {
			r.loadWorkers = workers
		}
	}
}

// checkLoad fails only on errors other than rate limiting or busy slots.
func (r *Runner) checkLoad(ctx context.Context) error {
	stats := r.runLoad(ctx)
	fmt.Fprintf(r.out, "  load: %d submitted, %d ok, %d throttled, %d failed, %.1f req/s\n",
		stats.Submitted, stats.Successful, stats.Throttled, stats.Failed, stats.PerSecond())
	r.logger.Info(ctx, "load statistics",
		logger.Any("submitted", stats.Submitted),
		logger.Any("successful", stats.Successful),
		logger.Any("throttled", stats.Throttled),
		logger.Any("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("perSecond", stats.PerSecond()),
	)
	if stats.Failed > 0 {
		return fmt.Errorf("%w: %d of %d load requests failed", ErrStatus, stats.Failed, stats.Submitted)
	}
	return nil
}

func (r *Runner) runLoad(ctx context.Context) LoadStats {
	var stats LoadStats
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.loadWorkers)

	for i := 0; i < r.loadRequests; i++ {
		if gctx.Err() != nil {
			break
		}
		path, in, keys := "/api/v1/vacuum-energy", any(vacuum.DefaultInput()), vacuum.NewCalculator().Keys()
		if i%2 == 1 {
			path, in, keys = "/api/v1/quantum-genetics", any(genetics.DefaultInput()), genetics.NewCalculator().Keys()
		}
		g.Go(func() error {
			atomic.AddInt64(&stats.Submitted, 1)
			_, err := r.calculate(gctx, path, in, keys)
			switch {
			case err == nil:
				atomic.AddInt64(&stats.Successful, 1)
			case isThrottled(err):
				atomic.AddInt64(&stats.Throttled, 1)
			default:
				atomic.AddInt64(&stats.Failed, 1)
				r.logger.Debug(gctx, "load request failed", logger.String("path", path), logger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Duration = time.Since(start)
	return stats
}

func isThrottled(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusTooManyRequests || se.Code == http.StatusServiceUnavailable
}
