// Package scheduler runs the periodic expired-link sweep.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shortlinks/pkg/metrics"
)

// Cleaner removes links older than ttlDays and reports how many went.
type Cleaner interface {
	CleanupExpired(ctx context.Context, ttlDays int) (int64, error)
}

type Cleanup struct {
	cleaner  Cleaner
	ttlDays  int
	interval time.Duration
	logger   *zap.Logger
}

func NewCleanup(cleaner Cleaner, ttlDays int, interval time.Duration, logger *zap.Logger) *Cleanup {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Cleanup{
		cleaner:  cleaner,
		ttlDays:  ttlDays,
		interval: interval,
		logger:   logger.With(zap.String("component", "CleanupScheduler")),
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// A failed sweep is logged and the loop keeps going.
func (c *Cleanup) Run(ctx context.Context) {
	c.logger.Info("cleanup scheduler started",
		zap.Int("ttl_days", c.ttlDays),
		zap.Duration("interval", c.interval),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cleanup scheduler stopped")
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Cleanup) sweep(ctx context.Context) {
	start := time.Now()
	deleted, err := c.cleaner.CleanupExpired(ctx, c.ttlDays)
	metrics.RecordCleanup(deleted, err)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Error("cleanup failed", zap.Error(err))
		return
	}

	c.logger.Info("expired links removed",
		zap.Int64("deleted", deleted),
		zap.Duration("duration", time.Since(start)),
	)
}
