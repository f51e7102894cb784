package inventory

import (
	"context"
	"time"
)

type Repository interface {
	List(ctx context.Context, playerID string) ([]Stack, error)
	// Quantities maps Key(kind, defId) to the held quantity.
	Quantities(ctx context.Context, playerID string) (map[string]int, error)

	Grant(ctx context.Context, playerID string, items []Line, now time.Time) error
	// Consume debits every line or none of them.
	Consume(ctx context.Context, playerID string, items []Line, now time.Time) error
}
