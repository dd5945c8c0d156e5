package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/smrichards/dota2-llm/internal/analyzer"
	"github.com/smrichards/dota2-llm/internal/collector"
	"github.com/smrichards/dota2-llm/internal/config"
	"github.com/smrichards/dota2-llm/internal/dataset"
	"github.com/smrichards/dota2-llm/internal/logging"
	"github.com/smrichards/dota2-llm/internal/meta"
	"github.com/smrichards/dota2-llm/internal/opendota"
	"github.com/smrichards/dota2-llm/internal/storage"
)

const sampleCount = 3

func main() {
	envPath := config.LoadDotEnv()

	logCfg, err := config.LoadLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "log config: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	logger := logging.For("collect")
	if envPath != "" {
		logger.Info().Str("path", envPath).Msg("loaded .env")
	}

	cfg, err := config.LoadCollector()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid collector config")
	}
	stores, err := config.LoadStore()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid store config")
	}

	// Flags override the environment.
	flag.IntVar(&cfg.NumMatches, "matches", cfg.NumMatches, "Number of matches to collect")
	flag.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "OpenDota API key (optional)")
	flag.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Output JSONL file")
	flag.Float64Var(&cfg.APIDelay, "delay", cfg.APIDelay, "Seconds to wait after each successful request")
	flag.StringVar(&cfg.RawArchiveDir, "archive", cfg.RawArchiveDir, "Directory for the raw match archive (optional)")
	flag.Parse()

	if cfg.NumMatches <= 0 {
		logger.Fatal().Int("matches", cfg.NumMatches).Msg("--matches must be positive")
	}

	ctx, cancel := collector.SetupSignalHandler(context.Background(), nil)
	defer cancel()

	if err := run(ctx, cfg, stores); err != nil {
		logger.Error().Err(err).Msg("collection failed")
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.CollectorConfig, stores config.StoreConfig) error {
	logger := logging.For("collect")
	runID := collector.NewRunID()

	client := opendota.NewClient(opendota.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Delay:   cfg.Delay(),
		Timeout: cfg.RequestTimeout,
	})

	opts := []collector.Option{collector.WithRunID(runID)}
	var rotator *storage.FileRotator
	if cfg.RawArchiveDir != "" {
		var err error
		rotator, err = storage.NewFileRotator(cfg.RawArchiveDir, runID)
		if err != nil {
			return fmt.Errorf("open raw archive: %w", err)
		}
		defer closeArchive(rotator)
		opts = append(opts, collector.WithArchive(rotator))
	}

	logger.Info().
		Str("run_id", runID).
		Int("matches", cfg.NumMatches).
		Int("min_rank", cfg.MinRank).
		Dur("delay", cfg.Delay()).
		Bool("api_key", cfg.APIKey != "").
		Msg("starting collection")

	c := collector.New(client, collector.Config{
		MinRank:           cfg.MinRank,
		MaxFailedRequests: cfg.MaxFailedRequests,
		BatchPause:        cfg.BatchPause,
		Analyzer:          analyzer.Config{MinItems: cfg.MinItems, MinGPM: cfg.MinGPM},
	}, opts...)

	res, runErr := c.Run(ctx, cfg.NumMatches)
	notifier := newNotifier(stores.DiscordWebhookURL)

	switch {
	case runErr == nil:
	case errors.Is(runErr, collector.ErrTooManyFailures):
		// What was fetched before the abort is still worth keeping.
		logger.Warn().Int("failed", res.Failed).Msg("writing partial dataset")
	case errors.Is(runErr, context.Canceled):
		logger.Warn().Int("processed", res.Processed).Msg("collection cancelled, nothing written")
		return nil
	default:
		notifier.aborted(res, cfg.OutputFile, len(res.Examples), runErr.Error())
		return runErr
	}

	examples, stats, err := collector.Compose(res.Examples, res.Matches, res.Refs, meta.DefaultConfig())
	if err != nil {
		return fmt.Errorf("compose dataset: %w", err)
	}
	if err := dataset.WriteFile(cfg.OutputFile, examples); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	logger.Info().Int("examples", len(examples)).Str("output", cfg.OutputFile).Msg("dataset saved")

	// Publishing is best effort: the dataset on disk is the result of the run.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Minute)
	defer cancel()
	publishStats(publishCtx, stores, res, stats)
	archiveExamples(publishCtx, stores, res, examples, runErr != nil)

	if runErr != nil {
		notifier.aborted(res, cfg.OutputFile, len(examples), runErr.Error())
	} else {
		notifier.complete(res, cfg.OutputFile, len(examples))
	}

	printSummary(res, examples, cfg.OutputFile)
	return nil
}

func closeArchive(r *storage.FileRotator) {
	logger := logging.For("collect")
	if err := r.Close(); err != nil {
		logger.Warn().Err(err).Msg("close raw archive")
		return
	}
	n, err := r.Compact()
	if err != nil {
		logger.Warn().Err(err).Msg("compact raw archive")
		return
	}
	logger.Info().Int("files", n).Msg("raw archive compacted")
}

func printSummary(res *collector.Result, examples []dataset.Example, output string) {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("COLLECTION COMPLETE")
	fmt.Println("========================================")
	fmt.Printf("Run:               %s\n", res.RunID)
	fmt.Printf("Matches processed: %d\n", res.Processed)
	fmt.Printf("Failed requests:   %d\n", res.Failed)
	fmt.Printf("Total examples:    %d\n", len(examples))
	fmt.Printf("Elapsed:           %s\n", res.Elapsed().Round(time.Second))
	fmt.Printf("Output:            %s\n", output)

	if len(examples) == 0 {
		return
	}
	fmt.Println("\nSample training examples:")
	for i, ex := range examples {
		if i == sampleCount {
			break
		}
		fmt.Printf("\n%d. Q: %s\n   A: %s\n", i+1, ex.Instruction, ex.Output)
	}
}
