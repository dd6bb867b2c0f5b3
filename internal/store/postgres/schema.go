package postgres

import (
	"context"
	"fmt"
)

// schemaStatements are idempotent; EnsureSchema runs them in order
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS fund`,

	`CREATE TABLE IF NOT EXISTS fund.funds (
		code        TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		fund_type   TEXT NOT NULL DEFAULT '',
		themes      TEXT[] NOT NULL DEFAULT '{}',
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS fund.snapshots (
		id                BIGSERIAL PRIMARY KEY,
		snapshot_date     DATE NOT NULL,
		total_candidates  INT NOT NULL DEFAULT 0,
		qualified_count   INT NOT NULL DEFAULT 0,
		benchmark_symbol  TEXT NOT NULL,
		status            TEXT NOT NULL CHECK (status IN ('running', 'success', 'failed')),
		error             TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at      TIMESTAMPTZ
	)`,

	// 동시에 running 스냅샷은 하나만
	`CREATE UNIQUE INDEX IF NOT EXISTS snapshots_single_running
		ON fund.snapshots ((status)) WHERE status = 'running'`,

	`CREATE INDEX IF NOT EXISTS snapshots_status_id
		ON fund.snapshots (status, id DESC)`,

	`CREATE TABLE IF NOT EXISTS fund.metrics_records (
		snapshot_id        BIGINT NOT NULL REFERENCES fund.snapshots(id) ON DELETE CASCADE,
		code               TEXT NOT NULL,
		name               TEXT NOT NULL DEFAULT '',
		fund_type          TEXT NOT NULL DEFAULT '',
		themes             TEXT[] NOT NULL DEFAULT '{}',
		latest_nav         DOUBLE PRECISION NOT NULL,
		latest_date        TEXT NOT NULL,
		return_1w          DOUBLE PRECISION,
		return_1m          DOUBLE PRECISION,
		return_3m          DOUBLE PRECISION,
		return_6m          DOUBLE PRECISION,
		return_1y          DOUBLE PRECISION,
		annual_return      DOUBLE PRECISION NOT NULL,
		volatility         DOUBLE PRECISION NOT NULL,
		max_drawdown       DOUBLE PRECISION NOT NULL,
		current_drawdown   DOUBLE PRECISION NOT NULL,
		sharpe             DOUBLE PRECISION NOT NULL,
		sortino            DOUBLE PRECISION NOT NULL,
		calmar             DOUBLE PRECISION NOT NULL,
		alpha              DOUBLE PRECISION NOT NULL,
		beta               DOUBLE PRECISION NOT NULL,
		info_ratio         DOUBLE PRECISION NOT NULL,
		treynor            DOUBLE PRECISION NOT NULL,
		tracking_error     DOUBLE PRECISION NOT NULL,
		win_rate           DOUBLE PRECISION NOT NULL,
		profit_loss_ratio  DOUBLE PRECISION NOT NULL,
		downside_sharpe    DOUBLE PRECISION NOT NULL,
		alpha_consistency  DOUBLE PRECISION NOT NULL,
		data_points        INT NOT NULL,
		score              DOUBLE PRECISION NOT NULL,
		grade              TEXT NOT NULL,
		labels             TEXT[] NOT NULL DEFAULT '{}',
		reasons            TEXT[] NOT NULL DEFAULT '{}',
		rank               INT NOT NULL DEFAULT 0,
		PRIMARY KEY (snapshot_id, code)
	)`,

	`CREATE INDEX IF NOT EXISTS metrics_records_score
		ON fund.metrics_records (snapshot_id, score DESC, code)`,

	`CREATE TABLE IF NOT EXISTS fund.build_logs (
		id               BIGSERIAL PRIMARY KEY,
		task_type        TEXT NOT NULL,
		status           TEXT NOT NULL,
		funds_processed  INT NOT NULL DEFAULT 0,
		funds_qualified  INT NOT NULL DEFAULT 0,
		message          TEXT NOT NULL DEFAULT '',
		started_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at     TIMESTAMPTZ
	)`,
}

// EnsureSchema creates the fund schema and tables if missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
