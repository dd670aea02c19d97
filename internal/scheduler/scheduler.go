package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Pruner removes stored events that can no longer be scheduled around.
type Pruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// Scheduler runs a prune pass at start and then periodically, so stale
// events do not accumulate during a long-lived session.
type Scheduler struct {
	pruner   Pruner
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(pruner Pruner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pruner:   pruner,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("prune scheduler started", "interval", s.interval)

	s.runPrune(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("prune scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runPrune(ctx)
		}
	}
}

func (s *Scheduler) runPrune(ctx context.Context) {
	pruneCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if _, err := s.pruner.PruneExpired(pruneCtx); err != nil {
		s.logger.Error("prune failed", "error", err)
	}
}
