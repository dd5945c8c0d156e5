package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/smrichards/dota2-llm/internal/collector"
	"github.com/smrichards/dota2-llm/internal/config"
	"github.com/smrichards/dota2-llm/internal/logging"
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
	logger := logging.For("pipeline")

	collectCfg, err := config.LoadCollector()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid collector config")
	}

	numMatches := flag.Int("matches", collectCfg.NumMatches, "Number of matches to collect")
	output := flag.String("output", collectCfg.OutputFile, "Training data JSONL file")
	skipCollect := flag.Bool("skip-collect", false, "Train on the existing data file")
	flag.Parse()

	rootDir := findModuleDir()
	if rootDir == "" {
		logger.Fatal().Msg("could not find the module directory")
	}
	logger.Info().Str("dir", rootDir).Msg("working directory")

	ctx, cancel := collector.SetupSignalHandler(context.Background(), nil)
	defer cancel()

	start := time.Now()

	if !*skipCollect {
		banner("STEP 1: COLLECTING MATCH DATA")
		args := []string{
			"run", "./cmd/collect",
			fmt.Sprintf("--matches=%d", *numMatches),
			"--output=" + *output,
		}
		if err := runCommand(ctx, rootDir, "go", args...); err != nil {
			logger.Error().Err(err).Msg("collect failed")
			cancel()
			os.Exit(1)
		}
		fmt.Printf("\nCollection completed in %s\n", time.Since(start).Round(time.Second))
	}

	banner("STEP 2: FINE-TUNING")
	if err := runCommand(ctx, rootDir, "go", "run", "./cmd/train", "--data="+*output); err != nil {
		logger.Error().Err(err).Msg("train failed")
		cancel()
		os.Exit(1)
	}

	banner("PIPELINE COMPLETE")
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
}

func banner(title string) {
	fmt.Println("\n========================================")
	fmt.Println(title)
	fmt.Println("========================================")
}

func runCommand(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	fmt.Printf("Running: %s %s\n\n", name, strings.Join(args, " "))
	return cmd.Run()
}

func findModuleDir() string {
	for _, candidate := range []string{".", "..", "../.."} {
		path := filepath.Join(candidate, "cmd", "collect", "main.go")
		if _, err := os.Stat(path); err == nil {
			abs, _ := filepath.Abs(candidate)
			return abs
		}
	}
	return ""
}
