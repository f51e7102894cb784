package audit

import "context"

// Repository is an append-only log of loot rolls.
type Repository interface {
	Append(ctx context.Context, roll LootRoll) (LootRoll, error)
	// ListByPlayer returns the player's most recent rolls, newest first.
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]LootRoll, error)
	Close() error
}

const defaultListLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}
