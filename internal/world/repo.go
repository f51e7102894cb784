package world

import (
	"context"
	"time"
)

type Repository interface {
	InsertNodes(ctx context.Context, nodes []LootNode) ([]LootNode, error)
	GetNode(ctx context.Context, id string) (LootNode, bool, error)
	ListNodes(ctx context.Context, biomeID string, includeDepleted bool) ([]LootNode, error)
	HasNodes(ctx context.Context, biomeID string) (bool, error)
	// Deplete marks the node depleted at now. A nil respawnAt leaves the node
	// depleted until it is reset explicitly.
	Deplete(ctx context.Context, id string, now time.Time, respawnAt *time.Time) (LootNode, error)
	// ResetDue clears depletion on every node whose respawn time is at or
	// before now and returns the nodes it reset.
	ResetDue(ctx context.Context, now time.Time) ([]LootNode, error)

	InsertStation(ctx context.Context, st Station) (Station, error)
	ListStations(ctx context.Context, biomeID string) ([]Station, error)
}
