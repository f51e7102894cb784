package catalog

import (
	"errors"

	"wildcraft/internal/inventory"
	"wildcraft/internal/unlock"
)

var ErrNotFound = errors.New("not found")

type StationDef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Tier  int    `json:"tier"`
}

type RecipeDef struct {
	ID         string           `json:"id"`
	Label      string           `json:"label"`
	Tier       int              `json:"tier"`
	StationID  string           `json:"stationId"`
	DurationMs int64            `json:"durationMs"`
	Inputs     []inventory.Line `json:"inputs"`
	Outputs    []inventory.Line `json:"outputs"`
}

// TierGate promotes a player to Tier when a claimed craft yields the item.
type TierGate struct {
	Kind  inventory.Kind `json:"kind"`
	DefID string         `json:"defId"`
	Tier  int            `json:"tier"`
}

// Seeded reports which default ids were inserted by EnsureDefaults.
type Seeded struct {
	StationIDs []string `json:"stationIds"`
	RecipeIDs  []string `json:"recipeIds"`
}

func (s Seeded) Empty() bool {
	return len(s.StationIDs) == 0 && len(s.RecipeIDs) == 0
}

// StarterUnlocks are granted to every new player.
func StarterUnlocks() []unlock.Ref {
	return []unlock.Ref{
		{Kind: unlock.KindStation, DefID: "campfire"},
		{Kind: unlock.KindRecipe, DefID: "twist_fiber_cord"},
		{Kind: unlock.KindRecipe, DefID: "make_bark_tinder"},
	}
}

func DefaultTierGates() []TierGate {
	return []TierGate{
		{Kind: inventory.KindItem, DefID: "crude_torch", Tier: 1},
	}
}

// PromotedTier returns the highest tier any of the outputs unlocks, or
// current when none of them is above it.
func PromotedTier(gates []TierGate, current int, outputs []inventory.Line) int {
	next := current
	for _, out := range outputs {
		if out.Qty <= 0 {
			continue
		}
		for _, g := range gates {
			if g.Kind == out.Kind && g.DefID == out.DefID && g.Tier > next {
				next = g.Tier
			}
		}
	}
	return next
}
