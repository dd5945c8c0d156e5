package meta

import (
	"fmt"
	"strings"

	"github.com/smrichards/dota2-llm/internal/dataset"
	"github.com/smrichards/dota2-llm/internal/reference"
)

const (
	metaPickCount = 5
	carryCount    = 4
	winRateCount  = 5
)

// DefaultCarries is the allow-list used to pick strong carries out of the
// popularity ranking.
var DefaultCarries = []string{
	"Anti-Mage", "Phantom Assassin", "Faceless Void", "Spectre", "Medusa",
	"Terrorblade", "Juggernaut", "Morphling", "Luna", "Drow Ranger",
	"Phantom Lancer", "Slark", "Lifestealer", "Chaos Knight", "Troll Warlord",
	"Naga Siren", "Wraith King", "Sven", "Gyrocopter", "Ursa",
}

type Config struct {
	Carries         []string
	MinWinRatePicks int // heroes picked fewer times are left out of the win-rate example
}

func DefaultConfig() Config {
	return Config{Carries: DefaultCarries, MinWinRatePicks: 10}
}

// Examples renders the summary examples for stats. An empty batch yields
// nothing.
func Examples(stats Stats, refs reference.Resolver, cfg Config) []dataset.Example {
	if stats.Matches == 0 {
		return nil
	}

	var out []dataset.Example
	ranking := stats.TopPicks(0)

	if len(ranking) > 0 {
		names := heroNames(refs, head(ranking, metaPickCount))
		out = append(out, dataset.Example{
			Instruction: "What heroes are currently strong in the meta?",
			Output: fmt.Sprintf("Based on recent high-skill matches, the most picked heroes are: %s. "+
				"These heroes are performing well in the current patch and are worth learning.",
				strings.Join(names, ", ")),
		})

		out = append(out, dataset.Example{
			Instruction: "Which carry heroes are strong right now?",
			Output: fmt.Sprintf("Strong carry picks in the current meta include: %s. "+
				"These heroes have strong late-game potential and can take over games when given farm.",
				strings.Join(strongCarries(ranking, refs, cfg.Carries), ", ")),
		})
	}

	out = append(out, dataset.Example{
		Instruction: "How long do Dota 2 matches usually last?",
		Output: fmt.Sprintf("The average match duration in recent high-skill games is around %d minutes. "+
			"Plan your item timings and power spikes around this game length.",
			stats.AverageDurationMinutes()),
	})

	if top := stats.TopWinRates(winRateCount, cfg.MinWinRatePicks); len(top) > 0 {
		parts := make([]string, len(top))
		for i, id := range top {
			parts[i] = fmt.Sprintf("%s (%.1f%%)", refs.Hero(id), stats.WinRate(id)*100)
		}
		out = append(out, dataset.Example{
			Instruction: "Which heroes have the highest win rate right now?",
			Output: fmt.Sprintf("Among heroes picked at least %d times in recent high-skill matches, the highest win rates belong to: %s. "+
				"Win rate shifts quickly between patches, so combine it with how comfortable you are on the hero.",
				cfg.MinWinRatePicks, strings.Join(parts, ", ")),
		})
	}

	return out
}

// strongCarries keeps allow-listed heroes in popularity order. When none of
// them was picked it falls back to the raw top of the ranking.
func strongCarries(ranking []int, refs reference.Resolver, allow []string) []string {
	allowed := make(map[string]bool, len(allow))
	for _, name := range allow {
		allowed[name] = true
	}

	var carries []string
	for _, id := range ranking {
		name := refs.Hero(id).String()
		if allowed[name] {
			carries = append(carries, name)
			if len(carries) == carryCount {
				break
			}
		}
	}
	if len(carries) == 0 {
		return heroNames(refs, head(ranking, carryCount))
	}
	return carries
}

func heroNames(refs reference.Resolver, ids []int) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = refs.Hero(id).String()
	}
	return names
}

func head(ids []int, n int) []int {
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}
