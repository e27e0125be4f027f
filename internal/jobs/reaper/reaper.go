package reaper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type ReportStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteRemovedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job sweeps reports whose expiry has passed and removed reports that have
// outlived the retention window. Permanent reports never expire and are
// never touched.
type Job struct {
	store     ReportStore
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func New(store ReportStore, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		store:     store,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}

	now := j.now()

	expired, err := j.store.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("delete expired reports: %w", err)
	}

	removed, err := j.store.DeleteRemovedBefore(ctx, now.Add(-j.retention))
	if err != nil {
		return fmt.Errorf("delete stale removed reports: %w", err)
	}

	if expired > 0 || removed > 0 {
		j.logger.Info("reaper sweep completed",
			zap.Int64("expired_deleted", expired),
			zap.Int64("removed_deleted", removed))
	}

	return nil
}

// Loop runs a sweep immediately and then on every tick until the context is
// cancelled. A failing sweep is logged and retried on the next tick rather
// than stopping the loop.
func (j *Job) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	if err := j.Run(ctx); err != nil {
		j.logger.Error("reaper sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("reaper sweep failed", zap.Error(err))
			}
		}
	}
}
