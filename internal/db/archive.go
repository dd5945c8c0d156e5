package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smrichards/dota2-llm/internal/dataset"
)

// Archive keeps every run and its examples in Postgres.
type Archive struct {
	pool *pgxpool.Pool
}

// Run is one collection run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Failed     int
	Examples   int
	Aborted    bool
}

// NewArchive creates a connection pool for databaseURL and pings it.
func NewArchive(ctx context.Context, databaseURL string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Archive{pool: pool}, nil
}

func (a *Archive) Close() {
	a.pool.Close()
}

func (a *Archive) EnsureSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS collection_runs (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			processed INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			examples INTEGER NOT NULL,
			aborted BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS training_examples (
			run_id TEXT NOT NULL REFERENCES collection_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			instruction TEXT NOT NULL,
			output TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
	}
	for _, q := range queries {
		if _, err := a.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (a *Archive) InsertRun(ctx context.Context, r Run) error {
	_, err := a.pool.Exec(ctx,
		`INSERT INTO collection_runs (id, started_at, finished_at, processed, failed, examples, aborted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.StartedAt, r.FinishedAt, r.Processed, r.Failed, r.Examples, r.Aborted)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// InsertExamples bulk-loads examples for runID with COPY, keeping their order
// in the position column.
func (a *Archive) InsertExamples(ctx context.Context, runID string, examples []dataset.Example) (int64, error) {
	rows := make([][]any, len(examples))
	for i, ex := range examples {
		rows[i] = []any{runID, i, ex.Instruction, ex.Output}
	}
	n, err := a.pool.CopyFrom(ctx,
		pgx.Identifier{"training_examples"},
		[]string{"run_id", "position", "instruction", "output"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy examples for run %s: %w", runID, err)
	}
	return n, nil
}

// RunExamples returns the examples of runID in their original order.
func (a *Archive) RunExamples(ctx context.Context, runID string) ([]dataset.Example, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT instruction, output FROM training_examples WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dataset.Example
	for rows.Next() {
		var ex dataset.Example
		if err := rows.Scan(&ex.Instruction, &ex.Output); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}
