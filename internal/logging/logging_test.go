package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smrichards/dota2-llm/internal/config"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collect.log")
	if err := Init(config.LogConfig{Level: "debug", File: path, MaxMB: 1}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = Init(config.LogConfig{Level: "info"}) }()

	For("collector").Info().Int("matches", 3).Msg("run complete")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"component":"collector"`) || !strings.Contains(line, `"matches":3`) {
		t.Fatalf("unexpected log line: %s", line)
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("GlobalLevel = %v, want debug", zerolog.GlobalLevel())
	}
}

func TestInitIgnoresBadLevel(t *testing.T) {
	if err := Init(config.LogConfig{Level: "chatty"}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("GlobalLevel = %v, want info", zerolog.GlobalLevel())
	}
}

func TestForTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	For("opendota").Warn().Msg("status 500")
	if !strings.Contains(buf.String(), `"component":"opendota"`) {
		t.Fatalf("missing component field: %s", buf.String())
	}
}

func TestForReturnsIndependentLoggers(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	storage := For("storage")
	For("collector").Info().Msg("first")
	storage.Info().Msg("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], `"component":"collector"`) || !strings.Contains(lines[1], `"component":"storage"`) {
		t.Fatalf("components mixed up: %q", lines)
	}
}
