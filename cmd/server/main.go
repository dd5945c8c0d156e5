package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smrichards/dota2-llm/internal/config"
	"github.com/smrichards/dota2-llm/internal/db"
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

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid server config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := db.OpenStats(ctx, cfg.StatsDBURL, cfg.AuthToken)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open stats store")
	}
	defer store.Close()

	r := newRouter(store)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("stats server starting")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
