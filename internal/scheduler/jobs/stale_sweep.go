package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fundscope/pkg/logger"
)

// Sweeper fails stale running snapshots
type Sweeper interface {
	Sweep(ctx context.Context, staleAfter time.Duration) (int, error)
}

// StaleSweepJob fails snapshots stuck in running past a timeout
type StaleSweepJob struct {
	sweeper    Sweeper
	staleAfter time.Duration
	logger     *logger.Logger
}

// NewStaleSweepJob creates a new stale sweep job
func NewStaleSweepJob(sweeper Sweeper, staleAfter time.Duration, log *logger.Logger) *StaleSweepJob {
	return &StaleSweepJob{
		sweeper:    sweeper,
		staleAfter: staleAfter,
		logger:     log.WithField("job", "stale_snapshot_sweep"),
	}
}

// Name returns the job name
func (j *StaleSweepJob) Name() string {
	return "stale_snapshot_sweep"
}

// Schedule returns the cron schedule (every 30 minutes)
func (j *StaleSweepJob) Schedule() string {
	return "0 */30 * * * *"
}

// Run executes the sweep
func (j *StaleSweepJob) Run(ctx context.Context) error {
	n, err := j.sweeper.Sweep(ctx, j.staleAfter)
	if err != nil {
		return fmt.Errorf("stale sweep: %w", err)
	}

	if n > 0 {
		j.logger.WithField("swept", n).Info("Stale snapshot sweep completed")
	}
	return nil
}
