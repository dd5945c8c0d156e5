package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/smrichards/dota2-llm/internal/analyzer"
	"github.com/smrichards/dota2-llm/internal/collector"
	"github.com/smrichards/dota2-llm/internal/config"
	"github.com/smrichards/dota2-llm/internal/dataset"
	"github.com/smrichards/dota2-llm/internal/logging"
	"github.com/smrichards/dota2-llm/internal/meta"
	"github.com/smrichards/dota2-llm/internal/opendota"
	"github.com/smrichards/dota2-llm/internal/reference"
	"github.com/smrichards/dota2-llm/internal/storage"
)

func main() {
	config.LoadDotEnv()

	logCfg, err := config.LoadLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "log config: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	logger := logging.For("reanalyze")

	cfg, err := config.LoadCollector()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid collector config")
	}
	archiveDir := flag.String("archive", cfg.RawArchiveDir, "Raw match archive directory")
	flag.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Output JSONL file")
	offline := flag.Bool("offline", false, "Skip the API; hero and item names fall back to ids")
	flag.Parse()

	if *archiveDir == "" {
		logger.Fatal().Msg("--archive is required")
	}

	ctx, cancel := collector.SetupSignalHandler(context.Background(), nil)
	defer cancel()

	if err := run(ctx, cfg, *archiveDir, *offline); err != nil {
		logger.Error().Err(err).Msg("reanalyze failed")
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.CollectorConfig, archiveDir string, offline bool) error {
	logger := logging.For("reanalyze")

	matches, err := storage.ReadMatches(archiveDir)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	logger.Info().Int("matches", len(matches)).Str("archive", archiveDir).Msg("archive loaded")

	refs := reference.NewTable(nil, nil)
	if !offline {
		client := opendota.NewClient(opendota.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Delay:   cfg.Delay(),
			Timeout: cfg.RequestTimeout,
		})
		if refs, err = reference.Load(ctx, client); err != nil {
			return err
		}
	}

	examples := rebuild(matches, refs, analyzer.Config{MinItems: cfg.MinItems, MinGPM: cfg.MinGPM})
	all, _, err := collector.Compose(examples, matches, refs, meta.DefaultConfig())
	if err != nil {
		return fmt.Errorf("compose dataset: %w", err)
	}
	if err := dataset.WriteFile(cfg.OutputFile, all); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	logger.Info().Int("examples", len(all)).Str("output", cfg.OutputFile).Msg("dataset saved")
	return nil
}

// rebuild runs the per-match analyzer over archived records.
func rebuild(matches []*opendota.Match, refs reference.Resolver, cfg analyzer.Config) []dataset.Example {
	an := analyzer.New(refs, cfg)
	var out []dataset.Example
	for _, m := range matches {
		out = append(out, an.Analyze(m)...)
	}
	return out
}
