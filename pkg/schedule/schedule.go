// Package schedule drives a fixed number of synchronization passes with a
// fixed sleep between them.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/Martian-0007/folder-syncer/pkg/flog"
)

// Runner is one synchronization pass. A pass error is fatal to the whole
// schedule; entry-level failures are expected to be handled inside the pass.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler runs the configured number of passes back to back, sleeping the
// configured interval between consecutive passes and never after the last
// one. There is no drift correction: the interval is a sleep, not a tick,
// so wall-clock spacing grows with pass duration.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	count    int
}

// New creates a scheduler for the given runner. count is the total number
// of passes; interval is the pause between consecutive passes.
func New(runner Runner, interval time.Duration, count int) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		count:    count,
	}
}

// Run executes the schedule. It returns nil after the final pass, the
// context error when cancelled between passes or during a sleep, or the
// pass error when a pass fails.
func (s *Scheduler) Run(ctx context.Context) error {
	for i := 1; i <= s.count; i++ {
		flog.Info("starting synchronization pass", "pass", i, "total", s.count)
		start := time.Now()

		if err := s.runner.Run(ctx); err != nil {
			return fmt.Errorf("synchronization pass %d of %d failed: %w", i, s.count, err)
		}
		flog.Info("synchronization pass complete", "pass", i, "total", s.count,
			"duration", time.Since(start).Round(time.Millisecond))

		if i == s.count {
			break
		}
		flog.Debug("sleeping until next pass", "interval", s.interval)
		if err := sleep(ctx, s.interval); err != nil {
			return err
		}
	}
	return nil
}

// sleep waits for d or until the context is cancelled. A non-positive d
// still observes cancellation so a zero-interval schedule stays
// interruptible between passes.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
