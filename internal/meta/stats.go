// Package meta derives population-level statistics from a batch of matches
// and turns them into summary examples.
package meta

import (
	"sort"

	"github.com/smrichards/dota2-llm/internal/opendota"
)

// Stats holds per-hero tallies for one batch of matches.
type Stats struct {
	Picks  map[int]int
	Wins   map[int]int
	Losses map[int]int

	Matches          int
	TotalDurationSec int
}

// Summarize scans matches once. Players without a hero id are not counted.
func Summarize(matches []*opendota.Match) Stats {
	s := Stats{
		Picks:  make(map[int]int),
		Wins:   make(map[int]int),
		Losses: make(map[int]int),
	}
	for _, m := range matches {
		if m == nil {
			continue
		}
		s.Matches++
		s.TotalDurationSec += m.Duration

		for i := range m.Players {
			hero := m.Players[i].HeroID
			if hero == 0 {
				continue
			}
			s.Picks[hero]++
			if (i < 5) == m.RadiantWin {
				s.Wins[hero]++
			} else {
				s.Losses[hero]++
			}
		}
	}
	return s
}

// TopPicks returns up to n hero ids by pick count, ties broken by id.
// n <= 0 returns every picked hero.
func (s Stats) TopPicks(n int) []int {
	ids := make([]int, 0, len(s.Picks))
	for id := range s.Picks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if s.Picks[ids[i]] != s.Picks[ids[j]] {
			return s.Picks[ids[i]] > s.Picks[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// WinRate returns wins/(wins+losses) for hero, or 0 when it was never seen.
func (s Stats) WinRate(hero int) float64 {
	games := s.Wins[hero] + s.Losses[hero]
	if games == 0 {
		return 0
	}
	return float64(s.Wins[hero]) / float64(games)
}

// TopWinRates returns up to n heroes with at least minPicks picks, ordered by
// win rate, then picks, then id.
func (s Stats) TopWinRates(n, minPicks int) []int {
	var ids []int
	for id, picks := range s.Picks {
		if picks >= minPicks {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.WinRate(ids[i]), s.WinRate(ids[j])
		if a != b {
			return a > b
		}
		if s.Picks[ids[i]] != s.Picks[ids[j]] {
			return s.Picks[ids[i]] > s.Picks[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// AverageDurationMinutes returns the mean match length in whole minutes.
func (s Stats) AverageDurationMinutes() int {
	if s.Matches == 0 {
		return 0
	}
	return s.TotalDurationSec / s.Matches / 60
}
