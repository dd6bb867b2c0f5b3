package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/fundscope/internal/contracts"
)

const uniqueViolation = "23505"

// Store implements contracts.SnapshotStore and contracts.BuildLogStore on PostgreSQL
// ⭐ SSOT: 스냅샷/레코드 저장·조회는 여기서만
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ contracts.SnapshotStore = (*Store)(nil)
	_ contracts.BuildLogStore = (*Store)(nil)
)

// New creates a new store on an existing pool
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, contracts.ErrStorageFailure, err)
}

// CreateSnapshot inserts a running snapshot. A second running snapshot violates
// the partial unique index and is reported as ErrBusy.
func (s *Store) CreateSnapshot(ctx context.Context, date time.Time, totalCandidates int, benchmark string) (int64, error) {
	query := `
		INSERT INTO fund.snapshots (snapshot_date, total_candidates, benchmark_symbol, status)
		VALUES ($1, $2, $3, 'running')
		RETURNING id
	`

	var id int64
	err := s.pool.QueryRow(ctx, query, date, totalCandidates, benchmark).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("create snapshot: %w", contracts.ErrBusy)
		}
		return 0, storageErr("create snapshot", err)
	}
	return id, nil
}

// CompleteSnapshot moves a running snapshot to a terminal status
func (s *Store) CompleteSnapshot(ctx context.Context, id int64, qualifiedCount int, status contracts.SnapshotStatus, errMsg string) error {
	query := `
		UPDATE fund.snapshots
		SET status = $2, qualified_count = $3, error = $4, completed_at = NOW()
		WHERE id = $1 AND status = 'running'
	`

	tag, err := s.pool.Exec(ctx, query, id, string(status), qualifiedCount, errMsg)
	if err != nil {
		return storageErr("complete snapshot", err)
	}
	if tag.RowsAffected() == 0 {
		return s.classifyMissing(ctx, id)
	}
	return nil
}

// classifyMissing explains why a snapshot could not be completed
func (s *Store) classifyMissing(ctx context.Context, id int64) error {
	status, err := s.snapshotStatus(ctx, s.pool, id)
	if err != nil {
		return err
	}
	return notRunning(id, status)
}

// notRunning maps a snapshot status to the write error; nil while running
func notRunning(id int64, status contracts.SnapshotStatus) error {
	switch status {
	case contracts.SnapshotRunning:
		return nil
	case contracts.SnapshotSuccess:
		return fmt.Errorf("snapshot %d: %w", id, contracts.ErrSnapshotImmutable)
	default:
		return fmt.Errorf("snapshot %d: %w", id, contracts.ErrSnapshotClosed)
	}
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) snapshotStatus(ctx context.Context, q queryRower, id int64) (contracts.SnapshotStatus, error) {
	var status string
	err := q.QueryRow(ctx, `SELECT status FROM fund.snapshots WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("snapshot %d: %w", id, contracts.ErrNotFound)
	}
	if err != nil {
		return "", storageErr("snapshot status", err)
	}
	return contracts.SnapshotStatus(status), nil
}

// UpsertFund inserts or updates fund master data
func (s *Store) UpsertFund(ctx context.Context, fund contracts.Fund) error {
	query := `
		INSERT INTO fund.funds (code, name, fund_type, themes, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			fund_type = EXCLUDED.fund_type,
			themes = EXCLUDED.themes,
			updated_at = NOW()
	`

	themes := fund.Themes
	if themes == nil {
		themes = []string{}
	}
	if _, err := s.pool.Exec(ctx, query, fund.Code, fund.Name, fund.Type, themes); err != nil {
		return storageErr("upsert fund "+fund.Code, err)
	}
	return nil
}

// SaveMetricsRecord upserts by (snapshotID, code) inside a transaction that
// locks the snapshot row, so a concurrent completion cannot interleave
func (s *Store) SaveMetricsRecord(ctx context.Context, snapshotID int64, rec *contracts.MetricsRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM fund.snapshots WHERE id = $1 FOR SHARE`, snapshotID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("snapshot %d: %w", snapshotID, contracts.ErrNotFound)
	}
	if err != nil {
		return storageErr("lock snapshot", err)
	}
	if err := notRunning(snapshotID, contracts.SnapshotStatus(status)); err != nil {
		return err
	}

	query := `
		INSERT INTO fund.metrics_records (
			snapshot_id, code, name, fund_type, themes, latest_nav, latest_date,
			return_1w, return_1m, return_3m, return_6m, return_1y,
			annual_return, volatility, max_drawdown, current_drawdown,
			sharpe, sortino, calmar, alpha, beta, info_ratio, treynor, tracking_error,
			win_rate, profit_loss_ratio, downside_sharpe, alpha_consistency, data_points,
			score, grade, labels, reasons, rank
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24,
			$25, $26, $27, $28, $29,
			$30, $31, $32, $33, $34
		)
		ON CONFLICT (snapshot_id, code) DO UPDATE SET
			name = EXCLUDED.name,
			fund_type = EXCLUDED.fund_type,
			themes = EXCLUDED.themes,
			latest_nav = EXCLUDED.latest_nav,
			latest_date = EXCLUDED.latest_date,
			return_1w = EXCLUDED.return_1w,
			return_1m = EXCLUDED.return_1m,
			return_3m = EXCLUDED.return_3m,
			return_6m = EXCLUDED.return_6m,
			return_1y = EXCLUDED.return_1y,
			annual_return = EXCLUDED.annual_return,
			volatility = EXCLUDED.volatility,
			max_drawdown = EXCLUDED.max_drawdown,
			current_drawdown = EXCLUDED.current_drawdown,
			sharpe = EXCLUDED.sharpe,
			sortino = EXCLUDED.sortino,
			calmar = EXCLUDED.calmar,
			alpha = EXCLUDED.alpha,
			beta = EXCLUDED.beta,
			info_ratio = EXCLUDED.info_ratio,
			treynor = EXCLUDED.treynor,
			tracking_error = EXCLUDED.tracking_error,
			win_rate = EXCLUDED.win_rate,
			profit_loss_ratio = EXCLUDED.profit_loss_ratio,
			downside_sharpe = EXCLUDED.downside_sharpe,
			alpha_consistency = EXCLUDED.alpha_consistency,
			data_points = EXCLUDED.data_points,
			score = EXCLUDED.score,
			grade = EXCLUDED.grade,
			labels = EXCLUDED.labels,
			reasons = EXCLUDED.reasons,
			rank = EXCLUDED.rank
	`

	_, err = tx.Exec(ctx, query,
		snapshotID, rec.Code, rec.Name, rec.FundType, nonNil(rec.Themes), rec.LatestNav, rec.LatestDate,
		rec.Return1W, rec.Return1M, rec.Return3M, rec.Return6M, rec.Return1Y,
		rec.AnnualReturn, rec.Volatility, rec.MaxDrawdown, rec.CurrentDrawdown,
		rec.Sharpe, rec.Sortino, rec.Calmar, rec.Alpha, rec.Beta, rec.InfoRatio, rec.Treynor, rec.TrackingError,
		rec.WinRate, rec.ProfitLossRatio, rec.DownsideSharpe, rec.AlphaConsistency, rec.DataPoints,
		rec.Score, rec.Grade, labelStrings(rec.Labels), nonNil(rec.Reasons), rec.Rank,
	)
	if err != nil {
		return storageErr("save metrics record "+rec.Code, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit metrics record", err)
	}
	return nil
}

const snapshotColumns = `
	id, snapshot_date, total_candidates, qualified_count, benchmark_symbol,
	status, error, created_at, completed_at
`

func scanSnapshot(row pgx.Row) (*contracts.Snapshot, error) {
	var snap contracts.Snapshot
	var status string
	err := row.Scan(
		&snap.ID,
		&snap.Date,
		&snap.TotalCandidates,
		&snap.QualifiedCount,
		&snap.BenchmarkSymbol,
		&status,
		&snap.Error,
		&snap.CreatedAt,
		&snap.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	snap.Status = contracts.SnapshotStatus(status)
	return &snap, nil
}

// GetLatestSuccessfulSnapshot returns nil, nil when no snapshot succeeded yet
func (s *Store) GetLatestSuccessfulSnapshot(ctx context.Context) (*contracts.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM fund.snapshots
		WHERE status = 'success'
		ORDER BY id DESC
		LIMIT 1
	`

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("latest snapshot", err)
	}
	return snap, nil
}

// ListSnapshots returns the most recent snapshots first. limit <= 0 returns all.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]*contracts.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM fund.snapshots ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list snapshots", err)
	}
	defer rows.Close()

	var out []*contracts.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, storageErr("scan snapshot", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate snapshots", err)
	}
	return out, nil
}

// GetMetricsRecords returns filtered records ordered by score desc, code asc
func (s *Store) GetMetricsRecords(ctx context.Context, snapshotID int64, filter *contracts.RecordFilter) ([]*contracts.MetricsRecord, error) {
	if _, err := s.snapshotStatus(ctx, s.pool, snapshotID); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT
			code, name, fund_type, themes, latest_nav, latest_date,
			return_1w, return_1m, return_3m, return_6m, return_1y,
			annual_return, volatility, max_drawdown, current_drawdown,
			sharpe, sortino, calmar, alpha, beta, info_ratio, treynor, tracking_error,
			win_rate, profit_loss_ratio, downside_sharpe, alpha_consistency, data_points,
			score, grade, labels, reasons, rank
		FROM fund.metrics_records
		WHERE snapshot_id = $1
	`)
	args := []any{snapshotID}

	if filter != nil {
		if filter.Theme != "" {
			args = append(args, filter.Theme)
			fmt.Fprintf(&sb, " AND $%d = ANY(themes)", len(args))
		}
		if filter.Label != "" {
			args = append(args, string(filter.Label))
			fmt.Fprintf(&sb, " AND $%d = ANY(labels)", len(args))
		}
		if filter.MinScore > 0 {
			args = append(args, filter.MinScore)
			fmt.Fprintf(&sb, " AND score >= $%d", len(args))
		}
	}
	sb.WriteString(" ORDER BY score DESC, code ASC")
	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, storageErr("query metrics records", err)
	}
	defer rows.Close()

	var out []*contracts.MetricsRecord
	for rows.Next() {
		var rec contracts.MetricsRecord
		var labels []string
		err := rows.Scan(
			&rec.Code, &rec.Name, &rec.FundType, &rec.Themes, &rec.LatestNav, &rec.LatestDate,
			&rec.Return1W, &rec.Return1M, &rec.Return3M, &rec.Return6M, &rec.Return1Y,
			&rec.AnnualReturn, &rec.Volatility, &rec.MaxDrawdown, &rec.CurrentDrawdown,
			&rec.Sharpe, &rec.Sortino, &rec.Calmar, &rec.Alpha, &rec.Beta, &rec.InfoRatio, &rec.Treynor, &rec.TrackingError,
			&rec.WinRate, &rec.ProfitLossRatio, &rec.DownsideSharpe, &rec.AlphaConsistency, &rec.DataPoints,
			&rec.Score, &rec.Grade, &labels, &rec.Reasons, &rec.Rank,
		)
		if err != nil {
			return nil, storageErr("scan metrics record", err)
		}
		for _, l := range labels {
			rec.Labels = append(rec.Labels, contracts.Label(l))
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate metrics records", err)
	}
	return out, nil
}

// FailStaleRunning fails running snapshots created before olderThan
func (s *Store) FailStaleRunning(ctx context.Context, olderThan time.Time, reason string) (int, error) {
	query := `
		UPDATE fund.snapshots
		SET status = 'failed', error = $2, completed_at = NOW()
		WHERE status = 'running' AND created_at < $1
	`

	tag, err := s.pool.Exec(ctx, query, olderThan, reason)
	if err != nil {
		return 0, storageErr("fail stale snapshots", err)
	}
	return int(tag.RowsAffected()), nil
}

// GetFund returns fund master data
func (s *Store) GetFund(ctx context.Context, code string) (*contracts.Fund, error) {
	query := `SELECT code, name, fund_type, themes FROM fund.funds WHERE code = $1`

	var f contracts.Fund
	err := s.pool.QueryRow(ctx, query, code).Scan(&f.Code, &f.Name, &f.Type, &f.Themes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("fund %s: %w", code, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("get fund", err)
	}
	return &f, nil
}

// StartBuildLog opens a running log entry
func (s *Store) StartBuildLog(ctx context.Context, taskType string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO fund.build_logs (task_type, status) VALUES ($1, 'running') RETURNING id`,
		taskType,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("start build log", err)
	}
	return id, nil
}

// CompleteBuildLog closes a log entry
func (s *Store) CompleteBuildLog(ctx context.Context, id int64, status string, processed, qualified int, message string) error {
	query := `
		UPDATE fund.build_logs
		SET status = $2, funds_processed = $3, funds_qualified = $4, message = $5, completed_at = NOW()
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, status, processed, qualified, message)
	if err != nil {
		return storageErr("complete build log", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("build log %d: %w", id, contracts.ErrNotFound)
	}
	return nil
}

// RecentBuildLogs returns the newest log entries first
func (s *Store) RecentBuildLogs(ctx context.Context, limit int) ([]*contracts.BuildLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, task_type, status, funds_processed, funds_qualified, message, started_at, completed_at
		FROM fund.build_logs
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, storageErr("query build logs", err)
	}
	defer rows.Close()

	var out []*contracts.BuildLog
	for rows.Next() {
		var l contracts.BuildLog
		if err := rows.Scan(&l.ID, &l.TaskType, &l.Status, &l.FundsProcessed, &l.FundsQualified, &l.Message, &l.StartedAt, &l.CompletedAt); err != nil {
			return nil, storageErr("scan build log", err)
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate build logs", err)
	}
	return out, nil
}

func labelStrings(labels []contracts.Label) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, string(l))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
