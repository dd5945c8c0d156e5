// Package knowledge exposes the bundled, hand-written coaching examples.
// Each category is a JSON asset under data/.
package knowledge

import (
	"embed"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/smrichards/dota2-llm/internal/dataset"
)

//go:embed data/*.json
var assets embed.FS

// categories is the fixed order used by All.
var categories = []string{
	"hero_guides",
	"matchup_analysis",
	"mmr_coaching",
	"draft_strategy",
	"advanced_strategy",
	"community",
	"coaching",
	"terminology",
	"meta_tips",
}

var (
	loadOnce sync.Once
	bank     map[string][]dataset.Example
	loadErr  error
)

func load() {
	bank = make(map[string][]dataset.Example, len(categories))
	for _, name := range categories {
		raw, err := assets.ReadFile("data/" + name + ".json")
		if err != nil {
			loadErr = fmt.Errorf("knowledge %s: %w", name, err)
			return
		}
		var examples []dataset.Example
		if err := json.Unmarshal(raw, &examples); err != nil {
			loadErr = fmt.Errorf("knowledge %s: %w", name, err)
			return
		}
		bank[name] = examples
	}
}

// Categories returns the category names in output order.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// Category returns a copy of the examples of one category.
func Category(name string) ([]dataset.Example, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	examples, ok := bank[name]
	if !ok {
		return nil, fmt.Errorf("knowledge: unknown category %q", name)
	}
	out := make([]dataset.Example, len(examples))
	copy(out, examples)
	return out, nil
}

// All returns every category concatenated in Categories order.
func All() ([]dataset.Example, error) {
	var out []dataset.Example
	for _, name := range categories {
		examples, err := Category(name)
		if err != nil {
			return nil, err
		}
		out = append(out, examples...)
	}
	return out, nil
}
