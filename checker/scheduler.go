package checker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is used when no sweep interval is configured
const DefaultInterval = 5 * time.Minute

type sweeper interface {
	Sweep(ctx context.Context) (Report, error)
}

// Scheduler runs a sweep right away and then on every tick
type Scheduler struct {
	checker  sweeper
	interval time.Duration

	mu       sync.Mutex
	stopped  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewScheduler(checker sweeper, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Scheduler{
		checker:  checker,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
// Sweeps are not interrupted by cancellation, the running one is finished first.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		slog.Info("checker: Scheduler already stopped")
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	slog.Info("checker: Starting scheduler", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	sweepCtx := context.WithoutCancel(ctx)

	s.sweep(sweepCtx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("checker: Scheduler stopped (context cancelled)")
			return
		case <-s.stopChan:
			slog.Info("checker: Scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(sweepCtx)
		}
	}
}

// Stop signals the loop to exit and waits for the in-flight sweep
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.stopChan)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) sweep(ctx context.Context) {
	_, err := s.checker.Sweep(ctx)
	if errors.Is(err, ErrSweepInProgress) {
		return
	}
	if err != nil {
		slog.Error("checker: Sweep failed", "error", err)
	}
}
