// Package reference holds the hero and item name tables loaded once per
// collection run.
package reference

import (
	"context"
	"fmt"

	"github.com/smrichards/dota2-llm/internal/logging"
	"github.com/smrichards/dota2-llm/internal/opendota"
)

type Kind string

const (
	KindHero Kind = "Hero"
	KindItem Kind = "Item"
)

// Name is the result of a lookup. Unknown names still render, using the
// <Kind>_<id> fallback.
type Name struct {
	ID    int
	Kind  Kind
	Value string
	Known bool
}

func (n Name) String() string {
	if n.Known {
		return n.Value
	}
	return fmt.Sprintf("%s_%d", n.Kind, n.ID)
}

// Resolver maps hero and item ids to display names.
type Resolver interface {
	Hero(id int) Name
	Item(id int) Name
}

// Table is an immutable pair of id→name maps. Safe for concurrent reads.
type Table struct {
	heroes map[int]string
	items  map[int]string
}

// NewTable copies the given maps. Empty names are dropped so that they fall
// back like unknown ids.
func NewTable(heroes, items map[int]string) *Table {
	t := &Table{
		heroes: make(map[int]string, len(heroes)),
		items:  make(map[int]string, len(items)),
	}
	for id, name := range heroes {
		if name != "" {
			t.heroes[id] = name
		}
	}
	for id, name := range items {
		if name != "" {
			t.items[id] = name
		}
	}
	return t
}

// FromAPI builds a table from the /heroes list and the name-keyed
// /constants/items map, re-keying items by numeric id.
func FromAPI(heroes []opendota.Hero, items map[string]opendota.Item) *Table {
	h := make(map[int]string, len(heroes))
	for _, hero := range heroes {
		h[hero.ID] = hero.LocalizedName
	}
	it := make(map[int]string, len(items))
	for _, item := range items {
		if item.ID == 0 {
			continue
		}
		it[item.ID] = item.DName
	}
	return NewTable(h, it)
}

func (t *Table) Hero(id int) Name {
	v, ok := t.heroes[id]
	return Name{ID: id, Kind: KindHero, Value: v, Known: ok}
}

func (t *Table) Item(id int) Name {
	v, ok := t.items[id]
	return Name{ID: id, Kind: KindItem, Value: v, Known: ok}
}

func (t *Table) HeroCount() int { return len(t.heroes) }
func (t *Table) ItemCount() int { return len(t.items) }

// Source is the part of the API client the loader needs.
type Source interface {
	GetHeroes(ctx context.Context) ([]opendota.Hero, error)
	GetItems(ctx context.Context) (map[string]opendota.Item, error)
}

// Load fetches heroes and items. A failed fetch leaves that side of the
// table empty so every lookup falls back; only cancellation is an error.
func Load(ctx context.Context, src Source) (*Table, error) {
	logger := logging.For("reference")

	heroes, err := src.GetHeroes(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn().Err(err).Msg("hero list unavailable, names will fall back")
	}
	items, err := src.GetItems(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn().Err(err).Msg("item constants unavailable, names will fall back")
	}

	t := FromAPI(heroes, items)
	logger.Info().Int("heroes", t.HeroCount()).Int("items", t.ItemCount()).Msg("reference data loaded")
	return t, nil
}
