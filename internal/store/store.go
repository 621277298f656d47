// Package store persists batch history in PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/visadir/internal/config"
	"github.com/JonMunkholm/visadir/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Open creates a connection pool sized from cfg and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS batch_history (
	id               uuid PRIMARY KEY,
	file_name        text        NOT NULL,
	submitted_by     text        NOT NULL DEFAULT '',
	ip_address       text        NOT NULL DEFAULT '',
	phase            text        NOT NULL,
	total_rows       integer     NOT NULL,
	valid_rows       integer     NOT NULL,
	invalid_rows     integer     NOT NULL,
	succeeded        integer     NOT NULL,
	failed           integer     NOT NULL,
	errors           jsonb       NOT NULL DEFAULT '[]',
	archive_location text        NOT NULL DEFAULT '',
	error            text        NOT NULL DEFAULT '',
	started_at       timestamptz NOT NULL,
	finished_at      timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS batch_history_finished_at_idx ON batch_history (finished_at DESC);
`

// Store implements core.HistoryStore on PostgreSQL.
type Store struct {
	db DBTX
}

var _ core.HistoryStore = (*Store)(nil)

// New creates a store over db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Migrate creates the history table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate batch_history: %w", err)
	}
	return nil
}

// RecordBatch inserts a summary. Recording the same batch twice keeps the latest.
func (s *Store) RecordBatch(ctx context.Context, b core.BatchSummary) error {
	errs := b.Errors
	if errs == nil {
		errs = []string{}
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("encode batch errors: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO batch_history (
			id, file_name, submitted_by, ip_address, phase,
			total_rows, valid_rows, invalid_rows, succeeded, failed,
			errors, archive_location, error, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			phase = EXCLUDED.phase,
			total_rows = EXCLUDED.total_rows,
			valid_rows = EXCLUDED.valid_rows,
			invalid_rows = EXCLUDED.invalid_rows,
			succeeded = EXCLUDED.succeeded,
			failed = EXCLUDED.failed,
			errors = EXCLUDED.errors,
			archive_location = EXCLUDED.archive_location,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at`,
		b.ID, b.FileName, b.SubmittedBy, b.IPAddress, string(b.Phase),
		b.TotalRows, b.ValidRows, b.InvalidRows, b.Succeeded, b.Failed,
		errorsJSON, b.ArchiveLocation, b.Error, b.StartedAt, b.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch %s: %w", b.ID, err)
	}
	return nil
}

// ListBatches returns up to limit summaries, newest first. limit <= 0
// uses core.DefaultHistoryLimit.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]core.BatchSummary, error) {
	if limit <= 0 {
		limit = core.DefaultHistoryLimit
	}

	rows, err := s.db.Query(ctx, `
		SELECT id::text, file_name, submitted_by, ip_address, phase,
			total_rows, valid_rows, invalid_rows, succeeded, failed,
			errors, archive_location, error, started_at, finished_at
		FROM batch_history
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query batch history: %w", err)
	}

	out, err := pgx.CollectRows(rows, scanSummary)
	if err != nil {
		return nil, fmt.Errorf("scan batch history: %w", err)
	}
	return out, nil
}

// PruneBefore deletes summaries that finished before cutoff.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM batch_history WHERE finished_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune batch history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSummary(row pgx.CollectableRow) (core.BatchSummary, error) {
	var (
		b          core.BatchSummary
		phase      string
		errorsJSON []byte
	)
	err := row.Scan(
		&b.ID, &b.FileName, &b.SubmittedBy, &b.IPAddress, &phase,
		&b.TotalRows, &b.ValidRows, &b.InvalidRows, &b.Succeeded, &b.Failed,
		&errorsJSON, &b.ArchiveLocation, &b.Error, &b.StartedAt, &b.FinishedAt,
	)
	if err != nil {
		return b, err
	}

	b.Phase = core.BatchPhase(phase)
	b.Errors = []string{}
	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &b.Errors); err != nil {
			return b, fmt.Errorf("decode errors for %s: %w", b.ID, err)
		}
	}
	return b, nil
}
