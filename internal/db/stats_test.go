package db

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smrichards/dota2-llm/internal/meta"
	"github.com/smrichards/dota2-llm/internal/opendota"
	"github.com/smrichards/dota2-llm/internal/reference"
)

func openTestStore(t *testing.T) *StatsStore {
	t.Helper()
	ctx := context.Background()
	s, err := OpenStats(ctx, "file:"+filepath.Join(t.TempDir(), "stats.db"), "")
	if err != nil {
		t.Fatalf("OpenStats() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.CreateTables(ctx); err != nil {
		t.Fatalf("CreateTables() error = %v", err)
	}
	return s
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		dsn, driver, conn string
	}{
		{"libsql://db.turso.io", "libsql", "libsql://db.turso.io"},
		{"https://db.turso.io", "libsql", "https://db.turso.io"},
		{"file:stats.db", "sqlite", "file:stats.db"},
		{"data/stats.db", "sqlite", "file:data/stats.db"},
	}
	for _, tt := range tests {
		d, c := driverFor(tt.dsn)
		if d != tt.driver || c != tt.conn {
			t.Errorf("driverFor(%q) = %q, %q; want %q, %q", tt.dsn, d, c, tt.driver, tt.conn)
		}
	}
}

func TestReplaceAndQueryHeroStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Version(ctx); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("Version() before replace = %v, want sql.ErrNoRows", err)
	}

	first := make([]HeroStat, 0, 150)
	for id := 1; id <= 150; id++ {
		first = append(first, HeroStat{HeroID: id, Name: "Hero", Picks: id, Wins: id / 2, Losses: id - id/2})
	}
	if err := s.ReplaceHeroStats(ctx, DataVersion{RunID: "run-a", Matches: 15}, first); err != nil {
		t.Fatalf("ReplaceHeroStats() error = %v", err)
	}
	all, err := s.HeroStats(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 150 || all[0].HeroID != 150 {
		t.Fatalf("got %d rows, first %+v", len(all), all[0])
	}

	second := []HeroStat{
		{HeroID: 1, Name: "Anti-Mage", Picks: 3, Wins: 2, Losses: 1},
		{HeroID: 2, Name: "Axe", Picks: 5, Wins: 1, Losses: 4},
	}
	when := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	if err := s.ReplaceHeroStats(ctx, DataVersion{RunID: "run-b", Matches: 2, UpdatedAt: when}, second); err != nil {
		t.Fatal(err)
	}

	top, err := s.HeroStats(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].Name != "Axe" {
		t.Errorf("HeroStats(1) = %+v", top)
	}
	if got := top[0].WinRate(); got != 0.2 {
		t.Errorf("WinRate() = %v, want 0.2", got)
	}

	v, err := s.Version(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.RunID != "run-b" || v.Matches != 2 || !v.UpdatedAt.Equal(when) {
		t.Errorf("Version() = %+v", v)
	}
}

func TestReplaceHeroStatsKeepsOldRunOnFailure(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := []HeroStat{{HeroID: 1, Name: "Anti-Mage", Picks: 4, Wins: 3, Losses: 1}}
	if err := s.ReplaceHeroStats(ctx, DataVersion{RunID: "run-1", Matches: 1}, old); err != nil {
		t.Fatal(err)
	}

	// The duplicate id lands in the second batch.
	next := make([]HeroStat, 0, 150)
	for id := 1; id < 150; id++ {
		next = append(next, HeroStat{HeroID: id, Name: "Hero", Picks: 1, Wins: 1})
	}
	next = append(next, HeroStat{HeroID: 120, Name: "Hero", Picks: 1, Wins: 1})
	if err := s.ReplaceHeroStats(ctx, DataVersion{RunID: "run-2", Matches: 150}, next); err == nil {
		t.Fatal("ReplaceHeroStats() with duplicate id succeeded")
	}

	rows, err := s.HeroStats(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Name != "Anti-Mage" {
		t.Errorf("rows after failed replace = %+v", rows)
	}
	v, err := s.Version(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.RunID != "run-1" {
		t.Errorf("Version().RunID = %q, want run-1", v.RunID)
	}
}

func TestExportCSV(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.ReplaceHeroStats(ctx, DataVersion{RunID: "r"}, []HeroStat{
		{HeroID: 8, Name: "Juggernaut", Picks: 4, Wins: 3, Losses: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := s.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %q", buf.String())
	}
	if lines[0] != "hero_id,name,picks,wins,losses" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "8,Juggernaut,4,3,1" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestHeroStatsFromMeta(t *testing.T) {
	refs := reference.NewTable(map[int]string{1: "Anti-Mage"}, nil)
	st := meta.Summarize([]*opendota.Match{{
		RadiantWin: true,
		Players:    []opendota.Player{{HeroID: 1}, {HeroID: 1}, {HeroID: 2}, {}, {}, {HeroID: 2}},
	}})

	rows := HeroStatsFromMeta(st, refs)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0] != (HeroStat{HeroID: 1, Name: "Anti-Mage", Picks: 2, Wins: 2}) {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1] != (HeroStat{HeroID: 2, Name: "Hero_2", Picks: 2, Wins: 1, Losses: 1}) {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}
