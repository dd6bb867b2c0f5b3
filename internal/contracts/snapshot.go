package contracts

import "time"

// SnapshotStatus lifecycle state of a snapshot
type SnapshotStatus string

const (
	SnapshotRunning SnapshotStatus = "running"
	SnapshotSuccess SnapshotStatus = "success"
	SnapshotFailed  SnapshotStatus = "failed"
)

// Snapshot one evaluation run
// ⭐ SSOT: running → success | failed. success 이후 레코드 변경 불가
type Snapshot struct {
	ID              int64          `json:"id"`
	Date            time.Time      `json:"date"`
	TotalCandidates int            `json:"total_candidates"`
	QualifiedCount  int            `json:"qualified_count"`
	BenchmarkSymbol string         `json:"benchmark_symbol"`
	Status          SnapshotStatus `json:"status"`
	Error           string         `json:"error,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the snapshot left running
func (s *Snapshot) IsTerminal() bool {
	return s.Status == SnapshotSuccess || s.Status == SnapshotFailed
}

// RecordFilter narrows GetMetricsRecords. Zero values mean no filter.
type RecordFilter struct {
	Theme    string  `json:"theme,omitempty"`
	Label    Label   `json:"label,omitempty"`
	MinScore float64 `json:"min_score,omitempty"`
	Limit    int     `json:"limit,omitempty"`
}

// Match reports whether rec passes the theme/label/score filters (Limit excluded)
func (f *RecordFilter) Match(rec *MetricsRecord) bool {
	if f == nil {
		return true
	}
	if f.Theme != "" && !rec.HasTheme(f.Theme) {
		return false
	}
	if f.Label != "" && !rec.HasLabel(f.Label) {
		return false
	}
	return rec.Score >= f.MinScore
}

// BuildLog task log entry, one per build or sweep
type BuildLog struct {
	ID             int64      `json:"id"`
	TaskType       string     `json:"task_type"` // snapshot_build, stale_sweep
	Status         string     `json:"status"`    // running, success, failed, busy
	FundsProcessed int        `json:"funds_processed"`
	FundsQualified int        `json:"funds_qualified"`
	Message        string     `json:"message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}
