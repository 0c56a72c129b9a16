package scheduler

import (
	"context"
	"log/slog"
	"time"

	"portal_syndicator/internal/domain"
)

// Syncer syncs every portal that opted into automatic sync.
type Syncer interface {
	SyncAll(ctx context.Context) ([]*domain.SyncResult, error)
}

type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler runs syncer every interval. timeout bounds a whole tick; zero
// means the tick is bounded only by ctx.
func NewScheduler(syncer Syncer, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	syncCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		syncCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results, err := s.syncer.SyncAll(syncCtx)
	if err != nil {
		s.logger.Error("sync failed", "error", err)
		return
	}

	var synced, failed, published int
	for _, r := range results {
		if r == nil {
			failed++
			continue
		}
		synced++
		published += r.Published
	}

	s.logger.Info("scheduled sync finished",
		"portals", len(results),
		"synced", synced,
		"failed", failed,
		"published", published,
	)
}
