package player

import (
	"context"
	"time"
)

type Repository interface {
	// Create fails with ErrExists when the user already owns a player.
	Create(ctx context.Context, p Player) (Player, error)
	Get(ctx context.Context, id string) (Player, bool, error)
	GetByUser(ctx context.Context, userID string) (Player, bool, error)
	// Update replaces the stored player. Crafting tier never decreases.
	Update(ctx context.Context, p Player) (Player, error)
	// ListByBiome returns players in the biome seen at or after since, newest
	// first. A zero since returns everyone.
	ListByBiome(ctx context.Context, biomeID string, since time.Time) ([]Player, error)
}
