package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/smrichards/dota2-llm/internal/collector"
	"github.com/smrichards/dota2-llm/internal/config"
	"github.com/smrichards/dota2-llm/internal/logging"
	"github.com/smrichards/dota2-llm/internal/training"
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
	logger := logging.For("ask")

	cfg, err := config.LoadTraining()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid training config")
	}

	modelDir := flag.String("model", filepath.Join(cfg.ModelsDir, "dota2-coach"), "Directory of the fine-tuned model")
	question := flag.String("question", "", "Ask a single question and exit")
	flag.Parse()

	if _, err := os.Stat(*modelDir); err != nil {
		logger.Error().Err(err).Str("model", *modelDir).Msg("failed to load model")
		os.Exit(1)
	}

	ctx, cancel := collector.SetupSignalHandler(context.Background(), nil)
	defer cancel()

	asker := training.NewAsker(cfg.InferenceCommand, *modelDir)

	if *question != "" {
		answer, err := asker.Ask(ctx, *question)
		if err != nil {
			logger.Error().Err(err).Msg("inference failed")
			cancel()
			os.Exit(1)
		}
		fmt.Printf("Q: %s\nA: %s\n", *question, answer)
		return
	}

	if err := interactive(ctx, asker, os.Stdin, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("inference failed")
		cancel()
		os.Exit(1)
	}
}

// answerer is the part of training.Asker the prompt loop needs.
type answerer interface {
	Ask(ctx context.Context, question string) (string, error)
}

// interactive reads questions line by line until quit, exit, q or EOF.
// The first failure ends the session since it usually means the model
// could not be loaded.
func interactive(ctx context.Context, a answerer, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Dota 2 Coach")
	fmt.Fprintln(out, "Type 'quit' to exit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nYour question: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(q) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Good luck in your games!")
			return nil
		}

		answer, err := a.Ask(ctx, q)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nCoach: %s\n", answer)
	}
}
