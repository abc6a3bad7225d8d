package scheduler

import (
	"context"
	"sync"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Pruner deletes records created before cutoff and reports how many went
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionScheduler periodically prunes generation records older than maxAge
type RetentionScheduler struct {
	pruner   Pruner
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewRetentionScheduler(pruner Pruner, maxAge, interval time.Duration) *RetentionScheduler {
	if interval == 0 {
		interval = 1 * time.Hour
	}
	return &RetentionScheduler{
		pruner:   pruner,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start prunes once immediately, then on every tick until Stop or ctx ends
func (s *RetentionScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	fiberlog.Infof("Generation retention scheduler started, keeping %s, running every %s", s.maxAge, s.interval)
	s.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopChan:
			fiberlog.Info("Generation retention scheduler stopped")
			return
		case <-ctx.Done():
			fiberlog.Info("Generation retention scheduler stopped due to context cancellation")
			return
		}
	}
}

// RunOnce prunes everything older than maxAge
func (s *RetentionScheduler) RunOnce(ctx context.Context) {
	deleted, err := s.pruner.DeleteOlderThan(ctx, s.now().Add(-s.maxAge))
	if err != nil {
		fiberlog.Errorf("Error pruning generation records: %v", err)
		return
	}
	if deleted > 0 {
		fiberlog.Infof("Pruned %d generation records", deleted)
	}
}

func (s *RetentionScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}
