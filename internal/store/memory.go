package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/fundscope/internal/contracts"
)

// Memory is an in-process SnapshotStore and BuildLogStore.
// Used by tests, the demo command and STORE=memory.
type Memory struct {
	mu sync.RWMutex

	nextSnapshotID int64
	nextLogID      int64

	snapshots map[int64]*contracts.Snapshot
	records   map[int64]map[string]*contracts.MetricsRecord
	funds     map[string]contracts.Fund
	logs      []*contracts.BuildLog

	now func() time.Time
}

var (
	_ contracts.SnapshotStore = (*Memory)(nil)
	_ contracts.BuildLogStore = (*Memory)(nil)
)

// NewMemory creates an empty memory store
func NewMemory() *Memory {
	return &Memory{
		snapshots: make(map[int64]*contracts.Snapshot),
		records:   make(map[int64]map[string]*contracts.MetricsRecord),
		funds:     make(map[string]contracts.Fund),
		now:       time.Now,
	}
}

// CreateSnapshot inserts a running snapshot. Only one snapshot may be running.
func (m *Memory) CreateSnapshot(ctx context.Context, date time.Time, totalCandidates int, benchmark string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.snapshots {
		if s.Status == contracts.SnapshotRunning {
			return 0, fmt.Errorf("snapshot %d still running: %w", s.ID, contracts.ErrBusy)
		}
	}

	m.nextSnapshotID++
	s := &contracts.Snapshot{
		ID:              m.nextSnapshotID,
		Date:            date,
		TotalCandidates: totalCandidates,
		BenchmarkSymbol: benchmark,
		Status:          contracts.SnapshotRunning,
		CreatedAt:       m.now(),
	}
	m.snapshots[s.ID] = s
	m.records[s.ID] = make(map[string]*contracts.MetricsRecord)
	return s.ID, nil
}

// CompleteSnapshot moves a running snapshot to a terminal status
func (m *Memory) CompleteSnapshot(ctx context.Context, id int64, qualifiedCount int, status contracts.SnapshotStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.runningLocked(id)
	if err != nil {
		return err
	}

	now := m.now()
	s.Status = status
	s.QualifiedCount = qualifiedCount
	s.Error = errMsg
	s.CompletedAt = &now
	return nil
}

// UpsertFund inserts or replaces fund master data
func (m *Memory) UpsertFund(ctx context.Context, fund contracts.Fund) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fund.Themes = append([]string(nil), fund.Themes...)
	m.funds[fund.Code] = fund
	return nil
}

// SaveMetricsRecord upserts by (snapshotID, code)
func (m *Memory) SaveMetricsRecord(ctx context.Context, snapshotID int64, rec *contracts.MetricsRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.runningLocked(snapshotID); err != nil {
		return err
	}

	m.records[snapshotID][rec.Code] = rec.Clone()
	return nil
}

// runningLocked returns the snapshot only while it is still running.
// Caller holds m.mu.
func (m *Memory) runningLocked(id int64) (*contracts.Snapshot, error) {
	s, ok := m.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("snapshot %d: %w", id, contracts.ErrNotFound)
	}
	switch s.Status {
	case contracts.SnapshotRunning:
		return s, nil
	case contracts.SnapshotSuccess:
		return nil, fmt.Errorf("snapshot %d: %w", id, contracts.ErrSnapshotImmutable)
	default:
		return nil, fmt.Errorf("snapshot %d: %w", id, contracts.ErrSnapshotClosed)
	}
}

// GetLatestSuccessfulSnapshot returns nil, nil when none exists
func (m *Memory) GetLatestSuccessfulSnapshot(ctx context.Context) (*contracts.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *contracts.Snapshot
	for _, s := range m.snapshots {
		if s.Status != contracts.SnapshotSuccess {
			continue
		}
		if latest == nil || s.ID > latest.ID {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copySnapshot(latest), nil
}

// GetMetricsRecords returns filtered records ordered by score desc, code asc
func (m *Memory) GetMetricsRecords(ctx context.Context, snapshotID int64, filter *contracts.RecordFilter) ([]*contracts.MetricsRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs, ok := m.records[snapshotID]
	if !ok {
		return nil, fmt.Errorf("snapshot %d: %w", snapshotID, contracts.ErrNotFound)
	}

	out := make([]*contracts.MetricsRecord, 0, len(recs))
	for _, rec := range recs {
		if filter.Match(rec) {
			out = append(out, rec.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Code < out[j].Code
	})

	if filter != nil && filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ListSnapshots returns the most recent snapshots first. limit <= 0 returns all.
func (m *Memory) ListSnapshots(ctx context.Context, limit int) ([]*contracts.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*contracts.Snapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		out = append(out, copySnapshot(s))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID > out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FailStaleRunning fails running snapshots created before olderThan
func (m *Memory) FailStaleRunning(ctx context.Context, olderThan time.Time, reason string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for _, s := range m.snapshots {
		if s.Status != contracts.SnapshotRunning || !s.CreatedAt.Before(olderThan) {
			continue
		}
		s.Status = contracts.SnapshotFailed
		s.Error = reason
		completed := now
		s.CompletedAt = &completed
		n++
	}
	return n, nil
}

// GetFund returns fund master data
func (m *Memory) GetFund(ctx context.Context, code string) (*contracts.Fund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.funds[code]
	if !ok {
		return nil, fmt.Errorf("fund %s: %w", code, contracts.ErrNotFound)
	}
	f.Themes = append([]string(nil), f.Themes...)
	return &f, nil
}

// StartBuildLog opens a running log entry
func (m *Memory) StartBuildLog(ctx context.Context, taskType string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextLogID++
	m.logs = append(m.logs, &contracts.BuildLog{
		ID:        m.nextLogID,
		TaskType:  taskType,
		Status:    "running",
		StartedAt: m.now(),
	})
	return m.nextLogID, nil
}

// CompleteBuildLog closes a log entry
func (m *Memory) CompleteBuildLog(ctx context.Context, id int64, status string, processed, qualified int, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.logs {
		if l.ID != id {
			continue
		}
		now := m.now()
		l.Status = status
		l.FundsProcessed = processed
		l.FundsQualified = qualified
		l.Message = message
		l.CompletedAt = &now
		return nil
	}
	return fmt.Errorf("build log %d: %w", id, contracts.ErrNotFound)
}

// RecentBuildLogs returns the newest log entries first
func (m *Memory) RecentBuildLogs(ctx context.Context, limit int) ([]*contracts.BuildLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*contracts.BuildLog, 0, len(m.logs))
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := *m.logs[i]
		if l.CompletedAt != nil {
			t := *l.CompletedAt
			l.CompletedAt = &t
		}
		out = append(out, &l)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func copySnapshot(s *contracts.Snapshot) *contracts.Snapshot {
	c := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
