// Package database persists submission history in PostgreSQL.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/fxdesk/internal/core"
)

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// DBTX is the subset of pgxpool.Pool the store needs. pgx.Tx satisfies it too.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS submission_history (
    id            TEXT PRIMARY KEY,
    document_id   TEXT        NOT NULL,
    file_name     TEXT        NOT NULL,
    document_type TEXT        NOT NULL,
    submitted_by  TEXT        NOT NULL DEFAULT '',
    submitted_at  TIMESTAMPTZ NOT NULL,
    success       BOOLEAN     NOT NULL,
    inserted      INTEGER     NOT NULL DEFAULT 0,
    errors        TEXT[]      NOT NULL DEFAULT '{}',
    invalid_rows  INTEGER[]   NOT NULL DEFAULT '{}',
    row_count     INTEGER     NOT NULL DEFAULT 0,
    edited        BOOLEAN     NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS submission_history_submitted_at_idx
    ON submission_history (submitted_at DESC);
`

const insertHistory = `
INSERT INTO submission_history (
    id, document_id, file_name, document_type, submitted_by, submitted_at,
    success, inserted, errors, invalid_rows, row_count, edited
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const selectRecentHistory = `
SELECT id, document_id, file_name, document_type, submitted_by, submitted_at,
       success, inserted, errors, invalid_rows, row_count, edited
FROM submission_history
ORDER BY submitted_at DESC
LIMIT $1`

// maxRecent bounds Recent when the caller passes no limit.
const maxRecent = 1000

// HistoryStore implements core.HistoryStore on PostgreSQL.
type HistoryStore struct {
	db DBTX
}

var _ core.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore wraps db. Call Migrate once before use.
func NewHistoryStore(db DBTX) *HistoryStore {
	return &HistoryStore{db: db}
}

// Migrate creates the history table if it does not exist.
func (s *HistoryStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createHistoryTable); err != nil {
		return fmt.Errorf("database: create submission_history: %w", err)
	}
	return nil
}

// Record inserts one submission attempt.
func (s *HistoryStore) Record(ctx context.Context, e core.HistoryEntry) error {
	errs := e.Errors
	if errs == nil {
		errs = []string{}
	}
	_, err := s.db.Exec(ctx, insertHistory,
		e.ID, e.DocumentID, e.FileName, e.DocumentType, e.SubmittedBy, e.SubmittedAt,
		e.Success, e.Inserted, errs, toInt32(e.InvalidRows), e.RowCount, e.Edited,
	)
	if err != nil {
		return fmt.Errorf("database: record submission %s: %w", e.DocumentID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]core.HistoryEntry, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}

	rows, err := s.db.Query(ctx, selectRecentHistory, limit)
	if err != nil {
		return nil, fmt.Errorf("database: query submission history: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("database: scan submission history: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.CollectableRow) (core.HistoryEntry, error) {
	var (
		e           core.HistoryEntry
		invalidRows []int32
	)
	err := row.Scan(
		&e.ID, &e.DocumentID, &e.FileName, &e.DocumentType, &e.SubmittedBy, &e.SubmittedAt,
		&e.Success, &e.Inserted, &e.Errors, &invalidRows, &e.RowCount, &e.Edited,
	)
	if err != nil {
		return e, err
	}
	e.InvalidRows = fromInt32(invalidRows)
	if len(e.Errors) == 0 {
		e.Errors = nil
	}
	return e, nil
}

func toInt32(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func fromInt32(in []int32) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
