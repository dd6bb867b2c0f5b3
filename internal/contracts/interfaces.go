package contracts

import (
	"context"
	"time"
)

// MarketDataProvider supplies NAV history, benchmark returns and the candidate universe
// ⭐ SSOT: 외부 데이터 소스 인터페이스
type MarketDataProvider interface {
	// GetNavSeries returns ErrNotFound for unknown codes
	GetNavSeries(ctx context.Context, code string) ([]NavPoint, error)
	GetBenchmarkSeries(ctx context.Context, symbol string, start time.Time) ([]BenchmarkPoint, error)
	ListCandidateFunds(ctx context.Context, filter FilterConfig) ([]Fund, error)
}

// SnapshotStore persists snapshots, records and fund master data
// ⭐ SSOT: 스냅샷 저장소 인터페이스
type SnapshotStore interface {
	CreateSnapshot(ctx context.Context, date time.Time, totalCandidates int, benchmark string) (int64, error)
	// CompleteSnapshot only from running; ErrSnapshotClosed once a sweep failed it
	CompleteSnapshot(ctx context.Context, id int64, qualifiedCount int, status SnapshotStatus, errMsg string) error
	UpsertFund(ctx context.Context, fund Fund) error
	// SaveMetricsRecord upserts by (snapshotID, code) while the snapshot is running
	SaveMetricsRecord(ctx context.Context, snapshotID int64, rec *MetricsRecord) error
	// GetLatestSuccessfulSnapshot returns nil, nil when no snapshot succeeded yet
	GetLatestSuccessfulSnapshot(ctx context.Context) (*Snapshot, error)
	GetMetricsRecords(ctx context.Context, snapshotID int64, filter *RecordFilter) ([]*MetricsRecord, error)
	ListSnapshots(ctx context.Context, limit int) ([]*Snapshot, error)
	FailStaleRunning(ctx context.Context, olderThan time.Time, reason string) (int, error)
	GetFund(ctx context.Context, code string) (*Fund, error)
}

// BuildLogStore keeps the task log
type BuildLogStore interface {
	StartBuildLog(ctx context.Context, taskType string) (int64, error)
	CompleteBuildLog(ctx context.Context, id int64, status string, processed, qualified int, message string) error
	RecentBuildLogs(ctx context.Context, limit int) ([]*BuildLog, error)
}
