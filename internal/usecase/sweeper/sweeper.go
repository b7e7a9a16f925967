// Package sweeper runs the periodic removal of stale cache records.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casefinder/internal/domain"
	"github.com/kailas-cloud/casefinder/internal/metrics"
)

// DefaultInterval is the idle time between two sweeps.
const DefaultInterval = time.Hour

// Cleaner removes expired and unreadable cache records.
type Cleaner interface {
	ClearExpired(ctx context.Context) domain.SweepStats
}

// Sweeper calls Cleaner.ClearExpired once at start and then after every interval.
type Sweeper struct {
	cache    Cleaner
	interval time.Duration
	logger   *zap.Logger

	// after is the timer source; replaced in tests.
	after func(d time.Duration) <-chan time.Time
}

// New creates a Sweeper. A non-positive interval means DefaultInterval.
func New(cache Cleaner, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{cache: cache, interval: interval, logger: logger, after: time.After}
}

// Interval returns the idle time between sweeps.
func (s *Sweeper) Interval() time.Duration { return s.interval }

// Run sweeps until ctx is cancelled. A failed sweep is logged and the loop goes on.
// It returns nil on cancellation.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("Cache sweeper started", zap.Duration("interval", s.interval))
	for {
		_, _ = s.SweepOnce(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("Cache sweeper stopped")
			return nil
		case <-s.after(s.interval):
		}
	}
}

// SweepOnce runs a single pass. Panics from the cache are recovered and counted as failures.
func (s *Sweeper) SweepOnce(ctx context.Context) (stats domain.SweepStats, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panicked: %v", r)
		}
		if err == nil && stats.ListFailed {
			err = fmt.Errorf("sweep could not list cache entries")
		}
		if err != nil {
			metrics.CacheSweepsTotal.WithLabelValues("error").Inc()
			s.logger.Error("Cache sweep failed", zap.Error(err))
			return
		}
		metrics.CacheSweepsTotal.WithLabelValues("ok").Inc()
		s.logger.Info("Cache sweep finished",
			zap.Int("scanned", stats.Scanned),
			zap.Int("expired", stats.Expired),
			zap.Int("corrupt", stats.Corrupt),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	return s.cache.ClearExpired(ctx), nil
}
