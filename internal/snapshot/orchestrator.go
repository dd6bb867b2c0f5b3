// Package snapshot runs the batch build: benchmark → candidates → NAV fetch →
// metrics → scoring → ranking → persist, with single-flight semantics and an
// atomic success flip at the end.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/metrics"
	"github.com/wonny/fundscope/internal/scoring"
	"github.com/wonny/fundscope/pkg/config"
	"github.com/wonny/fundscope/pkg/logger"
)

// Build log task types
const (
	TaskSnapshotBuild = "snapshot_build"
	TaskStaleSweep    = "stale_sweep"
)

// Config holds orchestrator parameters
type Config struct {
	Benchmark         string
	BenchmarkLookback time.Duration
	MinDataDays       int
	FetchWorkers      int
	MaxQualified      int
	FinalizeTimeout   time.Duration // budget for marking a snapshot failed after the caller's ctx is gone
}

// ConfigFrom maps application config to orchestrator parameters
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Benchmark:         cfg.Analytics.DefaultBenchmark,
		BenchmarkLookback: time.Duration(cfg.Pipeline.BenchmarkLookbackDays) * 24 * time.Hour,
		MinDataDays:       cfg.Analytics.MinDataDays,
		FetchWorkers:      cfg.Pipeline.FetchWorkers,
		MaxQualified:      cfg.Pipeline.MaxQualified,
		FinalizeTimeout:   30 * time.Second,
	}
}

// Orchestrator coordinates one snapshot build at a time
// ⭐ SSOT: 스냅샷 빌드 조율은 여기서만
type Orchestrator struct {
	provider contracts.MarketDataProvider
	engine   *metrics.Engine
	rubric   *scoring.Rubric
	store    contracts.SnapshotStore
	logs     contracts.BuildLogStore // optional

	cfg    Config
	state  *state
	logger *logger.Logger
	now    func() time.Time
}

// New creates a new orchestrator. logs may be nil.
func New(
	provider contracts.MarketDataProvider,
	engine *metrics.Engine,
	rubric *scoring.Rubric,
	store contracts.SnapshotStore,
	logs contracts.BuildLogStore,
	cfg Config,
	log *logger.Logger,
) *Orchestrator {
	if cfg.FetchWorkers < 1 {
		cfg.FetchWorkers = 1
	}
	if cfg.MinDataDays < 2 {
		cfg.MinDataDays = engine.Config().MinDataDays
	}
	if cfg.FinalizeTimeout <= 0 {
		cfg.FinalizeTimeout = 30 * time.Second
	}

	return &Orchestrator{
		provider: provider,
		engine:   engine,
		rubric:   rubric,
		store:    store,
		logs:     logs,
		cfg:      cfg,
		state:    newState(time.Now),
		logger:   log.WithField("module", "snapshot"),
		now:      time.Now,
	}
}

// Status returns an immutable copy of the progress record
func (o *Orchestrator) Status() Status {
	return o.state.snapshot()
}

// Running reports whether a build is in progress in this process
func (o *Orchestrator) Running() bool {
	return o.state.running()
}

// CreateSnapshot runs one build. A call while another build is running returns
// ResultBusy immediately. Hard errors become ResultFailed; soft per-fund errors
// are aggregated into Result.Failures.
func (o *Orchestrator) CreateSnapshot(ctx context.Context, req Request) (res Result) {
	buildID := uuid.NewString()
	if !o.state.tryBegin(buildID) {
		o.logger.Warn("Snapshot build rejected: already running")
		return Result{Kind: ResultBusy, Reason: contracts.ErrBusy.Error(), Err: contracts.ErrBusy}
	}

	started := o.now()
	log := o.logger.WithField("build_id", buildID)
	logID := o.startBuildLog(ctx, log)

	defer func() {
		res.BuildID = buildID
		res.Elapsed = o.now().Sub(started)
		o.completeBuildLog(logID, res, log)
		o.state.end(res)
	}()

	if req.MaxQualified <= 0 {
		req.MaxQualified = o.cfg.MaxQualified
	}

	log.WithFields(map[string]interface{}{
		"max_qualified": req.MaxQualified,
		"skip_filter":   req.SkipFilter,
		"benchmark":     o.cfg.Benchmark,
	}).Info("Snapshot build started")

	b := &build{o: o, req: req, log: log}
	res = b.run(ctx)

	if res.Kind == ResultSuccess {
		log.WithFields(map[string]interface{}{
			"snapshot_id": res.SnapshotID,
			"qualified":   res.QualifiedCount,
			"candidates":  res.TotalCandidates,
			"failures":    res.Failures.String(),
		}).Info("Snapshot build completed")
	}
	return res
}

// Sweep fails running snapshots older than staleAfter. Skipped while this
// process has a build running.
func (o *Orchestrator) Sweep(ctx context.Context, staleAfter time.Duration) (int, error) {
	if o.state.running() {
		o.logger.Debug("Stale sweep skipped: build in progress")
		return 0, nil
	}

	cutoff := o.now().Add(-staleAfter)
	reason := fmt.Sprintf("stale running snapshot (older than %s) failed by sweep", staleAfter)

	var logID int64
	if o.logs != nil {
		id, err := o.logs.StartBuildLog(ctx, TaskStaleSweep)
		if err == nil {
			logID = id
		}
	}

	n, err := o.store.FailStaleRunning(ctx, cutoff, reason)
	if o.logs != nil && logID > 0 {
		status, msg := "success", fmt.Sprintf("swept %d snapshots", n)
		if err != nil {
			status, msg = "failed", err.Error()
		}
		_ = o.logs.CompleteBuildLog(ctx, logID, status, n, 0, msg)
	}
	if err != nil {
		return 0, fmt.Errorf("sweep stale snapshots: %w", err)
	}

	if n > 0 {
		o.logger.WithFields(map[string]interface{}{
			"swept":  n,
			"cutoff": cutoff,
		}).Warn("Stale running snapshots marked failed")
	}
	return n, nil
}

func (o *Orchestrator) startBuildLog(ctx context.Context, log *logger.Logger) int64 {
	if o.logs == nil {
		return 0
	}
	id, err := o.logs.StartBuildLog(ctx, TaskSnapshotBuild)
	if err != nil {
		log.WithError(err).Warn("Failed to start build log")
		return 0
	}
	return id
}

func (o *Orchestrator) completeBuildLog(id int64, res Result, log *logger.Logger) {
	if o.logs == nil || id == 0 {
		return
	}

	msg := res.Failures.String()
	if res.Kind != ResultSuccess {
		msg = res.Reason + "; " + msg
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.FinalizeTimeout)
	defer cancel()

	processed := res.TotalCandidates - res.Failures.Total()
	if processed < 0 {
		processed = 0
	}
	if err := o.logs.CompleteBuildLog(ctx, id, string(res.Kind), processed, res.QualifiedCount, msg); err != nil {
		log.WithError(err).Warn("Failed to complete build log")
	}
}

// build state of one CreateSnapshot call
type build struct {
	o   *Orchestrator
	req Request
	log *logger.Logger

	snapshotID int64
	total      int
	failures   FailureSummary
}

// run executes the stages; any hard error is converted once into ResultFailed
func (b *build) run(ctx context.Context) Result {
	stage, qualified, err := b.stages(ctx)
	if err == nil {
		return Result{
			Kind:            ResultSuccess,
			SnapshotID:      b.snapshotID,
			QualifiedCount:  qualified,
			TotalCandidates: b.total,
			Failures:        b.failures,
		}
	}

	if errors.Is(err, contracts.ErrBusy) {
		b.log.WithError(err).Warn("Snapshot build rejected by store")
		return Result{Kind: ResultBusy, TotalCandidates: b.total, Reason: err.Error(), Err: err}
	}

	b.log.WithError(err).WithFields(map[string]interface{}{
		"snapshot_id": b.snapshotID,
		"stage":       stage,
	}).Error("Snapshot build failed")

	if b.snapshotID > 0 {
		b.failSnapshot(err)
	}

	return Result{
		Kind:            ResultFailed,
		SnapshotID:      b.snapshotID,
		TotalCandidates: b.total,
		Failures:        b.failures,
		Stage:           stage,
		Reason:          err.Error(),
		Err:             err,
	}
}

// failSnapshot marks the snapshot failed on a fresh context so a cancelled
// caller cannot leave it running
func (b *build) failSnapshot(cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.o.cfg.FinalizeTimeout)
	defer cancel()

	err := b.o.store.CompleteSnapshot(ctx, b.snapshotID, 0, contracts.SnapshotFailed, cause.Error())
	if errors.Is(err, contracts.ErrSnapshotClosed) {
		b.log.WithField("snapshot_id", b.snapshotID).Warn("Snapshot already closed by stale sweep")
		return
	}
	if err != nil {
		b.log.WithError(err).WithField("snapshot_id", b.snapshotID).Error("Failed to mark snapshot failed")
	}
}

func (b *build) stages(ctx context.Context) (contracts.Stage, int, error) {
	o := b.o

	// 1. 벤치마크
	o.state.update(contracts.StageBenchmark, 0, 1, "")
	bench, err := b.benchmark(ctx)
	if err != nil {
		return contracts.StageBenchmark, 0, err
	}

	// 2. 후보 펀드
	o.state.update(contracts.StageCandidates, 0, 1, "")
	funds, err := b.candidates(ctx)
	if err != nil {
		return contracts.StageCandidates, 0, err
	}
	b.total = len(funds)

	id, err := o.store.CreateSnapshot(ctx, today(o.now()), len(funds), o.cfg.Benchmark)
	if err != nil {
		if errors.Is(err, contracts.ErrBusy) {
			return contracts.StageCandidates, 0, err
		}
		return contracts.StageCandidates, 0, fmt.Errorf("create snapshot: %w", asStorage(err))
	}
	b.snapshotID = id
	b.log = b.log.WithField("snapshot_id", id)

	// 3. NAV 수집
	navs := b.fetchAll(ctx, funds)
	if err := ctx.Err(); err != nil {
		return contracts.StageFetchingNav, 0, fmt.Errorf("fetch cancelled: %w", err)
	}

	// 4. 지표 계산
	records, err := b.computeAll(funds, navs, bench)
	if err != nil {
		return contracts.StageCalculating, 0, err
	}

	// 5. 점수
	o.state.update(contracts.StageScoring, 0, len(records), "")
	o.rubric.ScoreBatch(records)
	o.state.update(contracts.StageScoring, len(records), len(records), "")

	// 6. 정렬 + 라벨
	o.state.update(contracts.StageRanking, 0, len(records), "")
	ranked := scoring.Truncate(scoring.Rank(records), b.req.MaxQualified)
	scoring.AssignLabels(ranked)
	if len(ranked) == 0 {
		return contracts.StageRanking, 0, fmt.Errorf("%d candidates, %s: %w",
			len(funds), b.failures.String(), contracts.ErrNoQualifiedFunds)
	}

	// 7. 저장
	if err := b.persist(ctx, funds, ranked); err != nil {
		return contracts.StagePersisting, 0, err
	}
	o.state.update(contracts.StageCompleted, len(ranked), len(ranked), "")
	return contracts.StageCompleted, len(ranked), nil
}

func (b *build) benchmark(ctx context.Context) ([]contracts.BenchmarkPoint, error) {
	o := b.o
	start := o.now().Add(-o.cfg.BenchmarkLookback)

	series, err := o.provider.GetBenchmarkSeries(ctx, o.cfg.Benchmark, start)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w: %w", o.cfg.Benchmark, contracts.ErrBenchmarkUnavailable, err)
	}

	series = contracts.NormalizeBenchmark(series)
	if len(series) < o.cfg.MinDataDays {
		return nil, fmt.Errorf("benchmark %s: %d points < %d: %w",
			o.cfg.Benchmark, len(series), o.cfg.MinDataDays, contracts.ErrBenchmarkUnavailable)
	}

	b.log.WithField("points", len(series)).Debug("Benchmark series loaded")
	return series, nil
}

// candidates lists funds and drops duplicate codes (first wins)
func (b *build) candidates(ctx context.Context) ([]contracts.Fund, error) {
	funds, err := b.o.provider.ListCandidateFunds(ctx, contracts.FilterConfig{SkipFilter: b.req.SkipFilter})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	seen := make(map[string]struct{}, len(funds))
	out := make([]contracts.Fund, 0, len(funds))
	for _, f := range funds {
		if f.Code == "" {
			continue
		}
		if _, ok := seen[f.Code]; ok {
			continue
		}
		seen[f.Code] = struct{}{}
		out = append(out, f)
	}

	if len(out) == 0 {
		return nil, contracts.ErrNoCandidates
	}

	b.log.WithField("candidates", len(out)).Info("Candidate funds listed")
	return out, nil
}

// persist upserts fund rows and records, then flips the snapshot to success
func (b *build) persist(ctx context.Context, funds []contracts.Fund, ranked []*contracts.MetricsRecord) error {
	o := b.o
	total := len(ranked)

	byCode := make(map[string]contracts.Fund, len(funds))
	for _, f := range funds {
		byCode[f.Code] = f
	}

	for i, rec := range ranked {
		if err := o.store.UpsertFund(ctx, byCode[rec.Code]); err != nil {
			return fmt.Errorf("upsert fund %s: %w", rec.Code, asStorage(err))
		}
		if err := o.store.SaveMetricsRecord(ctx, b.snapshotID, rec); err != nil {
			return fmt.Errorf("save record %s: %w", rec.Code, asStorage(err))
		}
		o.state.update(contracts.StagePersisting, i+1, total, "")
	}

	if err := o.store.CompleteSnapshot(ctx, b.snapshotID, total, contracts.SnapshotSuccess, ""); err != nil {
		return fmt.Errorf("complete snapshot: %w", asStorage(err))
	}
	return nil
}

// asStorage tags store errors as storage failures
func asStorage(err error) error {
	if errors.Is(err, contracts.ErrStorageFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", contracts.ErrStorageFailure, err)
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
