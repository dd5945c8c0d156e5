package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/smrichards/dota2-llm/internal/collector"
	"github.com/smrichards/dota2-llm/internal/config"
	"github.com/smrichards/dota2-llm/internal/logging"
	"github.com/smrichards/dota2-llm/internal/training"
)

const defaultModelDir = "dota2-coach"

// samplePrompts are asked once training finishes.
var samplePrompts = []string{
	"What items should I build on Invoker against Pudge, Anti-Mage, Crystal Maiden?",
	"How do I play Pudge effectively?",
	"What's the best strategy for playing support in Dota 2?",
}

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
	logger := logging.For("train")
	if envPath != "" {
		logger.Info().Str("path", envPath).Msg("loaded .env")
	}

	cfg, err := config.LoadTraining()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid training config")
	}

	output := filepath.Join(cfg.ModelsDir, defaultModelDir)
	flag.StringVar(&cfg.DataFile, "data", cfg.DataFile, "Training data JSONL file")
	flag.StringVar(&output, "output", output, "Output directory for the fine-tuned adapter")
	flag.StringVar(&cfg.ModelName, "model", cfg.ModelName, "Base model name")
	flag.IntVar(&cfg.NumEpochs, "epochs", cfg.NumEpochs, "Number of training epochs")
	prepareOnly := flag.Bool("prepare-only", false, "Write the trainer inputs without launching the trainer")
	skipTest := flag.Bool("skip-test", false, "Do not ask the sample prompts after training")
	flag.Parse()

	plan, err := training.Prepare(cfg.DataFile, output, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("prepare training data")
	}
	logger.Info().
		Int("examples", plan.Examples).
		Str("text", plan.TextPath).
		Str("config", plan.ConfigPath).
		Str("model", cfg.ModelName).
		Int("epochs", cfg.NumEpochs).
		Msg("trainer inputs written")

	if *prepareOnly {
		return
	}

	ctx, cancel := collector.SetupSignalHandler(context.Background(), nil)
	defer cancel()

	start := time.Now()
	if err := training.Launch(ctx, cfg.TrainerCommand, plan, os.Stdout, os.Stderr); err != nil {
		logger.Error().Err(err).Msg("training failed")
		cancel()
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("TRAINING COMPLETE")
	fmt.Println("========================================")
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("Model saved to: %s\n", output)

	if !*skipTest {
		asker := training.NewAsker(cfg.InferenceCommand, output)
		if err := sampleModel(ctx, asker, samplePrompts, os.Stdout); err != nil {
			logger.Warn().Err(err).Msg("sample prompts failed")
		}
	}
	fmt.Printf("\nTry it: ask --model %s\n", output)
}

// answerer is the part of training.Asker the sample run needs.
type answerer interface {
	Ask(ctx context.Context, question string) (string, error)
}

// sampleModel asks each prompt and prints the answers. It stops at the
// first failure.
func sampleModel(ctx context.Context, a answerer, prompts []string, out io.Writer) error {
	fmt.Fprintln(out, "\n=== Testing Model ===")
	for _, p := range prompts {
		answer, err := a.Ask(ctx, p)
		if err != nil {
			return fmt.Errorf("ask %q: %w", p, err)
		}
		fmt.Fprintf(out, "\nQ: %s\nA: %s\n", p, answer)
	}
	return nil
}
