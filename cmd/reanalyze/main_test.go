package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/smrichards/dota2-llm/internal/config"
	"github.com/smrichards/dota2-llm/internal/dataset"
	"github.com/smrichards/dota2-llm/internal/knowledge"
	"github.com/smrichards/dota2-llm/internal/opendota"
	"github.com/smrichards/dota2-llm/internal/storage"
)

func archivedMatch(id int64) *opendota.Match {
	players := []opendota.Player{{HeroID: 1, Kills: 9, Deaths: 2, GoldPerMin: 650, Item0: 1, Item1: 2, Item2: 3}}
	for i := 1; i < 10; i++ {
		players = append(players, opendota.Player{HeroID: i + 1})
	}
	return &opendota.Match{MatchID: id, Duration: 2400, RadiantWin: true, Players: players}
}

func TestRunOffline(t *testing.T) {
	dir := t.TempDir()
	rot, err := storage.NewFileRotator(filepath.Join(dir, "raw"), "test")
	if err != nil {
		t.Fatalf("NewFileRotator() error = %v", err)
	}
	for _, id := range []int64{100, 101} {
		if err := rot.WriteMatch(archivedMatch(id)); err != nil {
			t.Fatalf("WriteMatch() error = %v", err)
		}
	}
	if err := rot.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	cfg := config.CollectorConfig{MinItems: 3, MinGPM: 400, OutputFile: filepath.Join(dir, "out.jsonl")}
	if err := run(context.Background(), cfg, filepath.Join(dir, "raw"), true); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	got, err := dataset.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	bank, err := knowledge.All()
	if err != nil {
		t.Fatal(err)
	}
	// two examples per match, three summaries (too few picks for win rates), then the bank
	if want := 2*2 + 3 + len(bank); len(got) != want {
		t.Errorf("examples = %d, want %d", len(got), want)
	}
	if got[0].Instruction != "What items should I build on Hero_1 against Hero_6, Hero_7, Hero_8?" {
		t.Errorf("first instruction = %q", got[0].Instruction)
	}
}
