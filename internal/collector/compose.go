package collector

import (
	"github.com/smrichards/dota2-llm/internal/dataset"
	"github.com/smrichards/dota2-llm/internal/knowledge"
	"github.com/smrichards/dota2-llm/internal/logging"
	"github.com/smrichards/dota2-llm/internal/meta"
	"github.com/smrichards/dota2-llm/internal/opendota"
	"github.com/smrichards/dota2-llm/internal/reference"
)

// Compose builds the final dataset: per-match examples, then the summary
// examples of the batch, then the static knowledge bank. The batch
// statistics are returned for the stats store.
func Compose(matchExamples []dataset.Example, matches []*opendota.Match, refs reference.Resolver, cfg meta.Config) ([]dataset.Example, meta.Stats, error) {
	stats := meta.Summarize(matches)
	summary := meta.Examples(stats, refs, cfg)

	bank, err := knowledge.All()
	if err != nil {
		return nil, stats, err
	}
	logging.For("collector").Info().
		Int("match_examples", len(matchExamples)).
		Int("summary_examples", len(summary)).
		Int("knowledge_examples", len(bank)).
		Msg("dataset composed")

	out := make([]dataset.Example, 0, len(matchExamples)+len(summary)+len(bank))
	out = append(out, matchExamples...)
	out = append(out, summary...)
	out = append(out, bank...)
	return out, stats, nil
}
