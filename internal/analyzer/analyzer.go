// Package analyzer turns a single match record into training examples drawn
// from its successful players.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/smrichards/dota2-llm/internal/dataset"
	"github.com/smrichards/dota2-llm/internal/opendota"
	"github.com/smrichards/dota2-llm/internal/reference"
)

const (
	DefaultMinItems = 3
	DefaultMinGPM   = 400

	maxEnemies    = 3
	maxBuildItems = 6
	maxStyleItems = 4
	teamSize      = 5
)

type Config struct {
	MinItems int // players with fewer item names are skipped
	MinGPM   int // style examples need gold_per_min strictly above this
}

func DefaultConfig() Config {
	return Config{MinItems: DefaultMinItems, MinGPM: DefaultMinGPM}
}

type Analyzer struct {
	refs reference.Resolver
	cfg  Config
}

func New(refs reference.Resolver, cfg Config) *Analyzer {
	return &Analyzer{refs: refs, cfg: cfg}
}

// Analyze returns the examples of every qualifying player, in player order.
// A player qualifies when their team won and kills+assists exceeds deaths.
func (a *Analyzer) Analyze(m *opendota.Match) []dataset.Example {
	if m == nil || len(m.Players) == 0 {
		return nil
	}

	minutes := m.DurationMinutes()
	var out []dataset.Example
	for i := range m.Players {
		p := &m.Players[i]
		if p.HeroID == 0 {
			continue
		}

		items := a.itemNames(p)
		if len(items) < a.cfg.MinItems {
			continue
		}

		radiant := i < teamSize
		won := radiant == m.RadiantWin
		if !won || p.Kills+p.Assists <= p.Deaths {
			continue
		}

		hero := a.refs.Hero(p.HeroID).String()
		enemies := a.enemyNames(m.Players, radiant)

		out = append(out, dataset.Example{
			Instruction: fmt.Sprintf("What items should I build on %s against %s?",
				hero, strings.Join(head(enemies, maxEnemies), ", ")),
			Output: fmt.Sprintf("Based on a successful %d-minute match, consider building: %s. "+
				"This build was effective against mobile cores and provided good survivability and utility for team fights.",
				minutes, strings.Join(head(items, maxBuildItems), ", ")),
		})

		if p.GoldPerMin > a.cfg.MinGPM {
			out = append(out, dataset.Example{
				Instruction: fmt.Sprintf("How do I play %s effectively?", hero),
				Output: fmt.Sprintf("Focus on your core items and positioning. In successful matches, %s averages %d GPM and maintains a positive KDA. "+
					"Key items include %s. Prioritize team fights after getting your core items around %d minutes.",
					hero, p.GoldPerMin, strings.Join(head(items, maxStyleItems), ", "), minutes/2),
			})
		}
	}
	return out
}

// itemNames resolves the non-empty slots. Unknown ids keep their fallback
// name and still count toward MinItems.
func (a *Analyzer) itemNames(p *opendota.Player) []string {
	ids := p.ItemIDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = a.refs.Item(id).String()
	}
	return names
}

func (a *Analyzer) enemyNames(players []opendota.Player, radiant bool) []string {
	var names []string
	for j := range players {
		if (j < teamSize) == radiant || players[j].HeroID == 0 {
			continue
		}
		names = append(names, a.refs.Hero(players[j].HeroID).String())
	}
	return names
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
