package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/joho/sqltocsv"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/smrichards/dota2-llm/internal/meta"
	"github.com/smrichards/dota2-llm/internal/reference"
)

// StatsStore holds the per-hero tallies of the latest collection run. Turso
// URLs (libsql://, https://) go through the libsql driver, anything else is
// opened as a local sqlite file.
type StatsStore struct {
	db *sql.DB
}

// HeroStat is one row of hero_stats.
type HeroStat struct {
	HeroID int    `json:"hero_id"`
	Name   string `json:"name"`
	Picks  int    `json:"picks"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// WinRate returns wins over decided games, as a fraction.
func (h HeroStat) WinRate() float64 {
	if h.Wins+h.Losses == 0 {
		return 0
	}
	return float64(h.Wins) / float64(h.Wins+h.Losses)
}

// DataVersion identifies the run that last replaced hero_stats.
type DataVersion struct {
	RunID     string    `json:"run_id"`
	Matches   int       `json:"matches"`
	UpdatedAt time.Time `json:"updated_at"`
}

func driverFor(dsn string) (driver, conn string) {
	switch {
	case strings.HasPrefix(dsn, "libsql://"), strings.HasPrefix(dsn, "https://"), strings.HasPrefix(dsn, "http://"):
		return "libsql", dsn
	case strings.HasPrefix(dsn, "file:"):
		return "sqlite", dsn
	default:
		return "sqlite", "file:" + dsn
	}
}

// OpenStats connects to dsn and pings it.
func OpenStats(ctx context.Context, dsn, authToken string) (*StatsStore, error) {
	driver, conn := driverFor(dsn)
	if driver == "libsql" && authToken != "" {
		sep := "?"
		if strings.Contains(conn, "?") {
			sep = "&"
		}
		conn += sep + "authToken=" + url.QueryEscape(authToken)
	}

	db, err := sql.Open(driver, conn)
	if err != nil {
		return nil, fmt.Errorf("open stats store: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping stats store: %w", err)
	}
	return &StatsStore{db: db}, nil
}

func (s *StatsStore) Close() error {
	return s.db.Close()
}

// CreateTables creates the schema if it does not exist yet.
func (s *StatsStore) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS data_version (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			run_id TEXT NOT NULL,
			matches INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS hero_stats (
			hero_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			picks INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hero_stats_picks ON hero_stats(picks)`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// ReplaceHeroStats swaps the table contents for stats and records version in
// a single transaction, so readers see either the old run or the new one.
func (s *StatsStore) ReplaceHeroStats(ctx context.Context, version DataVersion, stats []HeroStat) error {
	const batchSize = 100

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM hero_stats`); err != nil {
		return fmt.Errorf("clear hero_stats: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO hero_stats (hero_id, name, picks, wins, losses) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < len(stats); i += batchSize {
		end := i + batchSize
		if end > len(stats) {
			end = len(stats)
		}
		if err := insertBatch(ctx, stmt, stats[i:end]); err != nil {
			return err
		}
	}

	if version.UpdatedAt.IsZero() {
		version.UpdatedAt = time.Now()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO data_version (id, run_id, matches, updated_at) VALUES (1, ?, ?, ?)`,
		version.RunID, version.Matches, version.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set data version: %w", err)
	}
	return tx.Commit()
}

func insertBatch(ctx context.Context, stmt *sql.Stmt, batch []HeroStat) error {
	for _, h := range batch {
		if _, err := stmt.ExecContext(ctx, h.HeroID, h.Name, h.Picks, h.Wins, h.Losses); err != nil {
			return fmt.Errorf("insert hero %d: %w", h.HeroID, err)
		}
	}
	return nil
}

// HeroStats returns rows ordered by picks, most picked first. limit <= 0
// returns all rows.
func (s *StatsStore) HeroStats(ctx context.Context, limit int) ([]HeroStat, error) {
	rows, err := s.heroRows(ctx, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HeroStat
	for rows.Next() {
		var h HeroStat
		if err := rows.Scan(&h.HeroID, &h.Name, &h.Picks, &h.Wins, &h.Losses); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *StatsStore) heroRows(ctx context.Context, limit int) (*sql.Rows, error) {
	q := `SELECT hero_id, name, picks, wins, losses FROM hero_stats ORDER BY picks DESC, hero_id ASC`
	if limit > 0 {
		return s.db.QueryContext(ctx, q+` LIMIT ?`, limit)
	}
	return s.db.QueryContext(ctx, q)
}

// Version returns the current data version, or sql.ErrNoRows before the
// first replace.
func (s *StatsStore) Version(ctx context.Context) (DataVersion, error) {
	var v DataVersion
	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, matches, updated_at FROM data_version WHERE id = 1`).Scan(&v.RunID, &v.Matches, &updated)
	if err != nil {
		return v, err
	}
	v.UpdatedAt, err = time.Parse(time.RFC3339, updated)
	return v, err
}

// ExportCSV writes hero_stats as CSV with a header row.
func (s *StatsStore) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.heroRows(ctx, 0)
	if err != nil {
		return err
	}
	defer rows.Close()
	return sqltocsv.Write(w, rows)
}

// HeroStatsFromMeta flattens meta tallies into rows, most picked first.
func HeroStatsFromMeta(stats meta.Stats, refs reference.Resolver) []HeroStat {
	ids := stats.TopPicks(0)
	out := make([]HeroStat, len(ids))
	for i, id := range ids {
		out[i] = HeroStat{
			HeroID: id,
			Name:   refs.Hero(id).String(),
			Picks:  stats.Picks[id],
			Wins:   stats.Wins[id],
			Losses: stats.Losses[id],
		}
	}
	return out
}
