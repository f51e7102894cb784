package audit

import (
	"time"

	"wildcraft/internal/inventory"
	"wildcraft/internal/unlock"
)

// LootRoll records one harvest: what was rolled, for whom, and where.
type LootRoll struct {
	ID           string           `json:"id"`
	PlayerID     string           `json:"playerId"`
	LootNodeID   string           `json:"lootNodeId"`
	LootSourceID string           `json:"lootSourceId"`
	BiomeID      string           `json:"biomeId"`
	CraftingTier int              `json:"craftingTier"`
	Results      []inventory.Line `json:"results"`
	Unlocked     []unlock.Ref     `json:"unlocked"`
	CreatedAt    time.Time        `json:"createdTime"`
}
