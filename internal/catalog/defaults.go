package catalog

import "wildcraft/internal/inventory"

func mat(defID string, qty int) inventory.Line {
	return inventory.Line{Kind: inventory.KindMaterial, DefID: defID, Stage: inventory.StageRaw, Qty: qty}
}

func comp(defID string, qty int) inventory.Line {
	return inventory.Line{Kind: inventory.KindComponent, DefID: defID, Qty: qty}
}

func item(defID string, qty int) inventory.Line {
	return inventory.Line{Kind: inventory.KindItem, DefID: defID, Qty: qty}
}

func DefaultStations() []StationDef {
	return []StationDef{
		{ID: "campfire", Label: "Campfire", Tier: 0},
		{ID: "basic_workbench", Label: "Basic workbench", Tier: 1},
	}
}

func DefaultRecipes() []RecipeDef {
	return []RecipeDef{
		{
			ID:         "twist_fiber_cord",
			Label:      "Twist fiber cord",
			Tier:       0,
			StationID:  "campfire",
			DurationMs: 1200,
			Inputs:     []inventory.Line{mat("fibrous_wood_strips", 2)},
			Outputs:    []inventory.Line{comp("fiber_cord", 1)},
		},
		{
			ID:         "make_bark_tinder",
			Label:      "Prepare bark tinder",
			Tier:       0,
			StationID:  "campfire",
			DurationMs: 900,
			Inputs:     []inventory.Line{mat("bark_shavings", 3)},
			Outputs:    []inventory.Line{comp("bark_tinder", 1)},
		},
		{
			ID:         "mix_resin_sealant",
			Label:      "Mix resin sealant",
			Tier:       1,
			StationID:  "campfire",
			DurationMs: 2000,
			Inputs:     []inventory.Line{mat("resin_node", 1), mat("bark_shavings", 2)},
			Outputs:    []inventory.Line{comp("resin_sealant", 1)},
		},
		{
			ID:         "craft_crude_torch",
			Label:      "Craft crude torch",
			Tier:       0,
			StationID:  "campfire",
			DurationMs: 2200,
			Inputs:     []inventory.Line{comp("bark_tinder", 1), comp("fiber_cord", 1)},
			Outputs:    []inventory.Line{item("crude_torch", 1)},
		},
		{
			ID:         "carve_wooden_shaft",
			Label:      "Carve wooden shaft",
			Tier:       1,
			StationID:  "basic_workbench",
			DurationMs: 2800,
			Inputs:     []inventory.Line{mat("scrap_wood", 4), comp("fiber_cord", 1)},
			Outputs:    []inventory.Line{comp("wooden_shaft", 1)},
		},
	}
}
