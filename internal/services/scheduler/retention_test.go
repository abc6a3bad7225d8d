package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (p *fakePruner) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, cutoff)
	return 2, p.err
}

func (p *fakePruner) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

func TestRetentionScheduler_RunOnce(t *testing.T) {
	req := require.New(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pruner := &fakePruner{}
	s := NewRetentionScheduler(pruner, 24*time.Hour, time.Minute)
	s.now = func() time.Time { return now }

	s.RunOnce(context.Background())
	req.Equal([]time.Time{now.Add(-24 * time.Hour)}, pruner.cutoffs)

	pruner.err = errors.New("locked")
	s.RunOnce(context.Background())
	req.Equal(2, pruner.calls())
}

func TestRetentionScheduler_Start(t *testing.T) {
	t.Run("runs until stopped", func(t *testing.T) {
		req := require.New(t)

		pruner := &fakePruner{}
		s := NewRetentionScheduler(pruner, time.Hour, 10*time.Millisecond)

		done := make(chan struct{})
		go func() {
			s.Start(context.Background())
			close(done)
		}()

		req.Eventually(func() bool { return pruner.calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
		s.Stop()
		s.Stop()
		<-done
	})

	t.Run("stops with the context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		s := NewRetentionScheduler(&fakePruner{}, time.Hour, time.Hour)

		done := make(chan struct{})
		go func() {
			s.Start(ctx)
			close(done)
		}()
		cancel()
		<-done
	})
}
