package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vhallgren/lyssna/internal/transcript"
)

const ddlInterviews = `
CREATE TABLE IF NOT EXISTS interviews (
    id         TEXT        PRIMARY KEY,
    date       TEXT        NOT NULL,
    context    TEXT        NOT NULL DEFAULT '',
    mode       TEXT        NOT NULL DEFAULT '',
    transcript JSONB       NOT NULL DEFAULT '[]'::jsonb,
    audio_ref  TEXT        NOT NULL DEFAULT '',
    summary    TEXT        NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_interviews_created_at
    ON interviews (created_at);
`

// PostgresStore persists interviews in a PostgreSQL table, with the
// transcript held as a JSONB column. All methods are safe for concurrent
// use; the pool handles connection management.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the database at dsn, verifies the connection
// and ensures the interviews table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("archive: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlInterviews); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, iv Interview) error {
	if iv.ID == "" {
		return fmt.Errorf("archive: interview id must not be empty")
	}
	entries, err := json.Marshal(iv.Transcript)
	if err != nil {
		return fmt.Errorf("archive: marshal transcript: %w", err)
	}

	const q = `
		INSERT INTO interviews (id, date, context, mode, transcript, audio_ref, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
		    date = EXCLUDED.date, context = EXCLUDED.context,
		    mode = EXCLUDED.mode, transcript = EXCLUDED.transcript,
		    audio_ref = EXCLUDED.audio_ref, summary = EXCLUDED.summary`
	if _, err := s.pool.Exec(ctx, q,
		iv.ID, iv.Date, iv.Context, iv.Mode, entries, iv.AudioRef, iv.Summary,
	); err != nil {
		return fmt.Errorf("archive: save interview: %w", err)
	}
	return nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context) ([]Interview, error) {
	const q = `
		SELECT id, date, context, mode, transcript, audio_ref, summary
		FROM   interviews
		ORDER  BY created_at`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("archive: list interviews: %w", err)
	}
	return collectInterviews(rows)
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, id string) (Interview, error) {
	const q = `
		SELECT id, date, context, mode, transcript, audio_ref, summary
		FROM   interviews
		WHERE  id = $1`
	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return Interview{}, fmt.Errorf("archive: get interview: %w", err)
	}
	interviews, err := collectInterviews(rows)
	if err != nil {
		return Interview{}, err
	}
	if len(interviews) == 0 {
		return Interview{}, ErrNotFound
	}
	return interviews[0], nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM interviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("archive: delete interview: %w", err)
	}
	return nil
}

// AttachSummary implements Store.
func (s *PostgresStore) AttachSummary(ctx context.Context, id string, summary string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE interviews SET summary = $2 WHERE id = $1`, id, summary)
	if err != nil {
		return fmt.Errorf("archive: attach summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// collectInterviews scans pgx rows into Interview values.
func collectInterviews(rows pgx.Rows) ([]Interview, error) {
	interviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Interview, error) {
		var (
			iv    Interview
			rawTx []byte
		)
		if err := row.Scan(
			&iv.ID, &iv.Date, &iv.Context, &iv.Mode, &rawTx, &iv.AudioRef, &iv.Summary,
		); err != nil {
			return Interview{}, err
		}
		if len(rawTx) > 0 {
			var entries []transcript.Entry
			if err := json.Unmarshal(rawTx, &entries); err != nil {
				return Interview{}, fmt.Errorf("decode transcript for %s: %w", iv.ID, err)
			}
			iv.Transcript = entries
		}
		return iv, nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: scan interviews: %w", err)
	}
	return interviews, nil
}
