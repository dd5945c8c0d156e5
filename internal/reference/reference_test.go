package reference

import (
	"context"
	"errors"
	"testing"

	"github.com/smrichards/dota2-llm/internal/opendota"
)

func TestNameFallbacks(t *testing.T) {
	tbl := NewTable(map[int]string{1: "Anti-Mage", 2: ""}, map[int]string{116: "Black King Bar"})

	tests := []struct {
		name string
		got  Name
		want string
		know bool
	}{
		{"known hero", tbl.Hero(1), "Anti-Mage", true},
		{"unknown hero", tbl.Hero(999), "Hero_999", false},
		{"empty hero name", tbl.Hero(2), "Hero_2", false},
		{"known item", tbl.Item(116), "Black King Bar", true},
		{"unknown item", tbl.Item(7), "Item_7", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.String() != tt.want {
				t.Errorf("String() = %q, want %q", tt.got.String(), tt.want)
			}
			if tt.got.Known != tt.know {
				t.Errorf("Known = %v, want %v", tt.got.Known, tt.know)
			}
		})
	}
}

func TestFromAPI_RekeysItems(t *testing.T) {
	tbl := FromAPI(
		[]opendota.Hero{{ID: 8, LocalizedName: "Juggernaut"}},
		map[string]opendota.Item{
			"blink":     {ID: 1, DName: "Blink Dagger"},
			"no_dname":  {ID: 3},
			"no_id_yet": {DName: "Mystery"},
		},
	)
	if got := tbl.Hero(8).String(); got != "Juggernaut" {
		t.Errorf("Hero(8) = %q", got)
	}
	if got := tbl.Item(1).String(); got != "Blink Dagger" {
		t.Errorf("Item(1) = %q", got)
	}
	if got := tbl.Item(3).String(); got != "Item_3" {
		t.Errorf("Item(3) = %q, want fallback", got)
	}
	if tbl.ItemCount() != 1 {
		t.Errorf("ItemCount() = %d, want 1", tbl.ItemCount())
	}
}

type fakeSource struct {
	heroes   []opendota.Hero
	items    map[string]opendota.Item
	heroErr  error
	itemsErr error
}

func (f fakeSource) GetHeroes(context.Context) ([]opendota.Hero, error) { return f.heroes, f.heroErr }
func (f fakeSource) GetItems(context.Context) (map[string]opendota.Item, error) {
	return f.items, f.itemsErr
}

func TestLoad_FailureFallsBack(t *testing.T) {
	src := fakeSource{
		heroes:   []opendota.Hero{{ID: 1, LocalizedName: "Anti-Mage"}},
		itemsErr: errors.New("status 500"),
	}
	tbl, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tbl.Hero(1).String() != "Anti-Mage" {
		t.Errorf("hero not loaded")
	}
	if tbl.Item(1).String() != "Item_1" {
		t.Errorf("expected item fallback")
	}
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, fakeSource{heroErr: context.Canceled})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
