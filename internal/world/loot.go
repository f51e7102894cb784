package world

import (
	"wildcraft/internal/inventory"
	"wildcraft/internal/unlock"
)

// RNG is the randomness a loot roll or seeding plan draws from.
type RNG interface {
	Intn(n int) int
	Float64() float64
	Int63() int64
}

// Drop is one row of a loot table. A zero Chance means the drop is guaranteed.
type Drop struct {
	Kind   inventory.Kind
	DefID  string
	Stage  inventory.Stage
	Min    int
	Max    int
	Chance float64
}

type Table []Drop

// Roll draws quantities for every guaranteed row and one chance roll per
// optional row.
func (t Table) Roll(rng RNG) []inventory.Line {
	out := []inventory.Line{}
	for _, d := range t {
		if d.Chance > 0 && rng.Float64() >= d.Chance {
			continue
		}
		qty := d.Min
		if d.Max > d.Min {
			qty = d.Min + rng.Intn(d.Max-d.Min+1)
		}
		if qty <= 0 {
			continue
		}
		out = append(out, inventory.Line{Kind: d.Kind, DefID: d.DefID, Stage: d.Stage, Qty: qty})
	}
	return out
}

func raw(defID string, lo, hi int, chance float64) Drop {
	return Drop{Kind: inventory.KindMaterial, DefID: defID, Stage: inventory.StageRaw, Min: lo, Max: hi, Chance: chance}
}

var lootTables = map[string]Table{
	"fallen_branch": {
		raw("fibrous_wood_strips", 2, 6, 0),
		raw("bark_shavings", 3, 9, 0),
		raw("resin_node", 1, 1, 0.25),
		raw("small_insect_nest_harmless", 1, 1, 0.06),
	},
	"boulder": {
		raw("stone_chunks", 3, 8, 0),
		raw("mineral_powder", 1, 3, 0.28),
		raw("raw_quartz", 1, 1, 0.07),
		raw("encased_fossil_shard", 1, 1, 0.01),
	},
	"abandoned_crate": {
		raw("scrap_wood", 3, 10, 0),
		{Kind: inventory.KindComponent, DefID: "rusted_nails", Min: 2, Max: 6},
		{Kind: inventory.KindItem, DefID: "preserved_supplies", Min: 1, Max: 1, Chance: 0.18},
		{Kind: inventory.KindItem, DefID: "encryption_key_fragment", Min: 1, Max: 1, Chance: 0.04},
	},
	"lore_cache": {
		{Kind: inventory.KindItem, DefID: "blueprint_fragment", Min: 1, Max: 1},
	},
	"workbench_blueprint_cache": {
		{Kind: inventory.KindItem, DefID: "workbench_blueprint_fragment", Min: 1, Max: 1},
	},
}

var fallbackTable = Table{raw("stone_chunks", 1, 2, 0)}

// TableFor returns the loot table of a source; unknown sources share a small
// fallback table.
func TableFor(sourceID string) Table {
	if t, ok := lootTables[sourceID]; ok {
		return t
	}
	return fallbackTable
}

func RollLoot(sourceID string, rng RNG) []inventory.Line {
	return TableFor(sourceID).Roll(rng)
}

// progressionCaches maps cache sources to the ordered unlocks they hand out.
var progressionCaches = map[string][]unlock.Ref{
	"lore_cache": {
		{Kind: unlock.KindRecipe, DefID: "craft_crude_torch"},
		{Kind: unlock.KindRecipe, DefID: "mix_resin_sealant"},
	},
	"workbench_blueprint_cache": {
		{Kind: unlock.KindStation, DefID: "basic_workbench"},
		{Kind: unlock.KindRecipe, DefID: "carve_wooden_shaft"},
	},
}

// CacheChecklist returns the ordered unlock checklist of a progression cache.
func CacheChecklist(sourceID string) ([]unlock.Ref, bool) {
	refs, ok := progressionCaches[sourceID]
	if !ok {
		return nil, false
	}
	return append([]unlock.Ref(nil), refs...), true
}

// NextUnlock returns the first checklist entry the player does not hold yet.
func NextUnlock(checklist []unlock.Ref, held unlock.Set) (unlock.Ref, bool) {
	for _, ref := range checklist {
		if !held.Has(ref.Kind, ref.DefID) {
			return ref, true
		}
	}
	return unlock.Ref{}, false
}
