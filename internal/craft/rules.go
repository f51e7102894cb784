package craft

import (
	"errors"
	"fmt"
	"math"

	"wildcraft/internal/inventory"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

// ValidateQty normalizes an optional requested quantity. Fractions are floored.
func ValidateQty(raw *float64, max int) (int, error) {
	if raw == nil {
		return 1, nil
	}
	v := *raw
	if math.IsNaN(v) {
		return 0, ErrInvalidQuantity
	}
	if v < 1 || v >= float64(max)+1 {
		return 0, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidQuantity, max)
	}
	return int(v), nil
}

// Scale multiplies every line by qty.
func Scale(lines []inventory.Line, qty int) []inventory.Line {
	out := make([]inventory.Line, 0, len(lines))
	for _, l := range lines {
		l.Qty *= qty
		out = append(out, l)
	}
	return out
}

// MaxCraftable is the largest multiple of inputs the quantities cover.
// A recipe without inputs reports 0.
func MaxCraftable(inputs []inventory.Line, have map[string]int) int {
	max := -1
	for _, in := range inputs {
		if in.Qty <= 0 {
			continue
		}
		n := inventory.Have(have, in) / in.Qty
		if max < 0 || n < max {
			max = n
		}
	}
	if max < 0 {
		return 0
	}
	return max
}

// Missing lists each input line short for a single craft, carrying the shortfall.
func Missing(inputs []inventory.Line, have map[string]int) []inventory.Line {
	out := []inventory.Line{}
	for _, in := range inputs {
		if got := inventory.Have(have, in); got < in.Qty {
			in.Qty -= got
			out = append(out, in)
		}
	}
	return out
}

type LockReason string

const (
	LockNone             LockReason = ""
	LockRecipe           LockReason = "locked_recipe"
	LockStation          LockReason = "locked_station"
	LockTier             LockReason = "locked_tier"
	LockStationNotPlaced LockReason = "station_not_placed"
	LockStationTooFar    LockReason = "station_too_far"
)

// Access is what the caller can currently reach for one recipe.
type Access struct {
	RecipeUnlocked  bool
	StationUnlocked bool
	PlayerTier      int
	RecipeTier      int
	StationPlaced   bool
	StationInRange  bool
}

type lockCheck struct {
	reason LockReason
	hint   string
	locked func(Access) bool
}

// Evaluated top to bottom; the first match is the reported reason.
var lockChecks = []lockCheck{
	{LockRecipe, "Unlock via caches in the world.", func(a Access) bool { return !a.RecipeUnlocked }},
	{LockStation, "Unlock or find the required station.", func(a Access) bool { return !a.StationUnlocked }},
	{LockTier, "Increase your crafting tier.", func(a Access) bool { return a.PlayerTier < a.RecipeTier }},
	{LockStationNotPlaced, "Place or find this station in the world.", func(a Access) bool { return !a.StationPlaced }},
	{LockStationTooFar, "Move closer to the station on the map.", func(a Access) bool { return !a.StationInRange }},
}

// Lock returns the highest priority lock reason and its hint.
func Lock(a Access) (LockReason, string) {
	for _, c := range lockChecks {
		if c.locked(a) {
			return c.reason, c.hint
		}
	}
	return LockNone, ""
}
