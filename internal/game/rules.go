package game

import (
	"time"

	"wildcraft/internal/catalog"
	"wildcraft/internal/config"
	"wildcraft/internal/inventory"
	"wildcraft/internal/world"
)

// Rules are the tunable numbers of the game.
type Rules struct {
	Bounds           world.Bounds
	DefaultBiome     string
	SpawnMin         float64
	SpawnMax         float64
	HarvestRange     float64
	RespawnDelay     time.Duration
	OnlineWindow     time.Duration
	WorkbenchSpacing float64
	StationRange     float64
	MaxQty           int
	AlwaysAtHand     string

	WorkbenchStationID string
	WorkbenchCost      []inventory.Line
	TierGates          []catalog.TierGate
	Seed               []world.SeedGroup
}

func DefaultRules() Rules {
	return RulesFromConfig(config.Default())
}

func RulesFromConfig(cfg *config.Config) Rules {
	w := cfg.World
	c := cfg.Crafting
	return Rules{
		Bounds:           world.Bounds{Min: w.MinCoord, Max: w.MaxCoord},
		DefaultBiome:     w.DefaultBiome,
		SpawnMin:         w.SpawnMin,
		SpawnMax:         w.SpawnMax,
		HarvestRange:     w.HarvestRange,
		RespawnDelay:     time.Duration(w.RespawnDelayMs) * time.Millisecond,
		OnlineWindow:     time.Duration(w.OnlineWindowMs) * time.Millisecond,
		WorkbenchSpacing: w.WorkbenchSpacing,
		StationRange:     c.StationRange,
		MaxQty:           c.MaxQty,
		AlwaysAtHand:     c.AlwaysAtHandID,

		WorkbenchStationID: "basic_workbench",
		WorkbenchCost: []inventory.Line{
			{Kind: inventory.KindMaterial, DefID: "scrap_wood", Qty: 6},
			{Kind: inventory.KindComponent, DefID: "rusted_nails", Qty: 4},
		},
		TierGates: catalog.DefaultTierGates(),
		Seed:      world.DefaultSeed,
	}
}
