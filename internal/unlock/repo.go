package unlock

import (
	"context"
	"time"
)

// Repository is append-only: unlocks are never revoked.
type Repository interface {
	// Grant records the unlock and reports whether it was newly granted.
	Grant(ctx context.Context, playerID string, ref Ref, now time.Time) (bool, error)
	Has(ctx context.Context, playerID string, ref Ref) (bool, error)
	List(ctx context.Context, playerID string) ([]Unlock, error)
	Set(ctx context.Context, playerID string) (Set, error)
}
