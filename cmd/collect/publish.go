package main

import (
	"context"
	"time"

	"github.com/smrichards/dota2-llm/internal/collector"
	"github.com/smrichards/dota2-llm/internal/config"
	"github.com/smrichards/dota2-llm/internal/dataset"
	"github.com/smrichards/dota2-llm/internal/db"
	"github.com/smrichards/dota2-llm/internal/discord"
	"github.com/smrichards/dota2-llm/internal/logging"
	"github.com/smrichards/dota2-llm/internal/meta"
)

// publishStats replaces the hero tallies in the stats store with this run's.
func publishStats(ctx context.Context, stores config.StoreConfig, res *collector.Result, stats meta.Stats) {
	if stores.StatsDBURL == "" || stats.Matches == 0 {
		return
	}
	logger := logging.For("stats")

	store, err := db.OpenStats(ctx, stores.StatsDBURL, stores.TursoAuthToken)
	if err != nil {
		logger.Warn().Err(err).Msg("stats store unavailable")
		return
	}
	defer store.Close()

	if err := store.CreateTables(ctx); err != nil {
		logger.Warn().Err(err).Msg("create stats tables")
		return
	}
	rows := db.HeroStatsFromMeta(stats, res.Refs)
	version := db.DataVersion{RunID: res.RunID, Matches: stats.Matches, UpdatedAt: time.Now().UTC()}
	if err := store.ReplaceHeroStats(ctx, version, rows); err != nil {
		logger.Warn().Err(err).Msg("replace hero stats")
		return
	}
	logger.Info().Int("heroes", len(rows)).Str("run_id", res.RunID).Msg("hero stats published")
}

// archiveExamples records the run and its examples in Postgres.
func archiveExamples(ctx context.Context, stores config.StoreConfig, res *collector.Result, examples []dataset.Example, aborted bool) {
	if stores.DatabaseURL == "" {
		return
	}
	logger := logging.For("archive")

	archive, err := db.NewArchive(ctx, stores.DatabaseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("archive unavailable")
		return
	}
	defer archive.Close()

	if err := archive.EnsureSchema(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure archive schema")
		return
	}
	run := db.Run{
		ID:         res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Processed:  res.Processed,
		Failed:     res.Failed,
		Examples:   len(examples),
		Aborted:    aborted,
	}
	if err := archive.InsertRun(ctx, run); err != nil {
		logger.Warn().Err(err).Msg("insert run")
		return
	}
	n, err := archive.InsertExamples(ctx, res.RunID, examples)
	if err != nil {
		logger.Warn().Err(err).Msg("insert examples")
		return
	}
	logger.Info().Int64("rows", n).Str("run_id", res.RunID).Msg("examples archived")
}

// notifier posts run results to Discord when a webhook is configured.
type notifier struct {
	client *discord.WebhookClient
}

func newNotifier(webhookURL string) notifier {
	if webhookURL == "" {
		return notifier{}
	}
	return notifier{client: discord.NewWebhookClient(webhookURL)}
}

func summaryOf(res *collector.Result, output string, examples int) discord.RunSummary {
	return discord.RunSummary{
		RunID:     res.RunID,
		Processed: res.Processed,
		Failed:    res.Failed,
		Examples:  examples,
		Elapsed:   res.Elapsed(),
		Output:    output,
	}
}

func (n notifier) complete(res *collector.Result, output string, examples int) {
	if n.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := n.client.SendRunComplete(ctx, summaryOf(res, output, examples)); err != nil {
		logging.For("discord").Warn().Err(err).Msg("run complete notification failed")
	}
}

func (n notifier) aborted(res *collector.Result, output string, examples int, reason string) {
	if n.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := n.client.SendRunAborted(ctx, summaryOf(res, output, examples), reason); err != nil {
		logging.For("discord").Warn().Err(err).Msg("run aborted notification failed")
	}
}
