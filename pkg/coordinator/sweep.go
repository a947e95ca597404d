package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/voidshard/foreman/internal/metrics"
)

// Sweep wakes every agent if there are unclaimed or expired tasks. The wake up
// carries no task so agents re-poll regardless of capability.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	count, err := s.db.CountExpiredLeases(ctx, s.opts.leaseSeconds())
	if err != nil {
		metrics.RecordSweep(metrics.SweepError, 0)
		return 0, err
	}
	if count == 0 {
		metrics.RecordSweep(metrics.SweepIdle, 0)
		return 0, nil
	}

	zap.L().Info("found dead tasks, waking agents", zap.Int64("count", count))
	metrics.RecordSweep(metrics.SweepWake, count)
	return count, s.broadcaster.Broadcast(ctx, nil)
}

// Run sweeps for dead tasks until the context is cancelled. Errors are logged
// and the next sweep happens as normal.
func (s *Service) Run(ctx context.Context) {
	timer := time.NewTimer(s.opts.SweepDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			_, err := s.Sweep(ctx)
			if err != nil {
				zap.L().Error("dead task sweep failed", zap.Error(err))
			}
			timer.Reset(s.opts.SweepPeriod)
		}
	}
}
