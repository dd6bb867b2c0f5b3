package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/snapshot"
	"github.com/wonny/fundscope/pkg/logger"
)

// nightlyCutoffHour builds started before this hour skip name filtering
const nightlyCutoffHour = 5

// SnapshotBuilder runs one snapshot build
type SnapshotBuilder interface {
	CreateSnapshot(ctx context.Context, req snapshot.Request) snapshot.Result
}

// SnapshotBuildJob runs the nightly snapshot build
// ⭐ SSOT: 스냅샷 빌드 스케줄은 이 Job에서만
type SnapshotBuildJob struct {
	builder  SnapshotBuilder
	store    contracts.SnapshotStore
	schedule string
	logger   *logger.Logger
	now      func() time.Time
}

// NewSnapshotBuildJob creates a new snapshot build job
func NewSnapshotBuildJob(builder SnapshotBuilder, store contracts.SnapshotStore, schedule string, log *logger.Logger) *SnapshotBuildJob {
	if schedule == "" {
		schedule = "0 0 2 * * *"
	}
	return &SnapshotBuildJob{
		builder:  builder,
		store:    store,
		schedule: schedule,
		logger:   log.WithField("job", "snapshot_build"),
		now:      time.Now,
	}
}

// Name returns the job name
func (j *SnapshotBuildJob) Name() string {
	return "snapshot_build"
}

// Schedule returns the cron schedule (2 AM daily by default)
func (j *SnapshotBuildJob) Schedule() string {
	return j.schedule
}

// MaxRetries disables in-process retries; the next trigger runs the build again
func (j *SnapshotBuildJob) MaxRetries() int {
	return 0
}

// Run executes the build unless today's snapshot already succeeded
func (j *SnapshotBuildJob) Run(ctx context.Context) error {
	now := j.now()

	latest, err := j.store.GetLatestSuccessfulSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("check latest snapshot: %w", err)
	}
	if latest != nil && contracts.DateKey(latest.Date) == contracts.DateKey(now) {
		j.logger.WithField("snapshot_id", latest.ID).Info("Snapshot for today already exists, skipping")
		return nil
	}

	req := snapshot.Request{SkipFilter: now.Hour() < nightlyCutoffHour}
	j.logger.WithField("skip_filter", req.SkipFilter).Info("Starting scheduled snapshot build")

	res := j.builder.CreateSnapshot(ctx, req)
	switch res.Kind {
	case snapshot.ResultSuccess:
		j.logger.WithFields(map[string]interface{}{
			"snapshot_id": res.SnapshotID,
			"qualified":   res.QualifiedCount,
			"elapsed":     res.Elapsed.String(),
		}).Info("Scheduled snapshot build completed")
		return nil
	case snapshot.ResultBusy:
		j.logger.Warn("Snapshot build already running, skipping")
		return nil
	default:
		return fmt.Errorf("snapshot build failed at %s: %w", res.Stage, res.Err)
	}
}
