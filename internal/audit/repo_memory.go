package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"wildcraft/internal/inventory"
	"wildcraft/internal/unlock"
)

// MemoryRepo keeps rolls in memory (dev/test use).
type MemoryRepo struct {
	mu    sync.RWMutex
	rolls []LootRoll
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rolls: make([]LootRoll, 0)}
}

func (r *MemoryRepo) Append(ctx context.Context, roll LootRoll) (LootRoll, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if roll.ID == "" {
		roll.ID = uuid.NewString()
	}
	roll.Results = append([]inventory.Line(nil), roll.Results...)
	roll.Unlocked = append([]unlock.Ref(nil), roll.Unlocked...)
	r.rolls = append(r.rolls, roll)
	return roll, nil
}

func (r *MemoryRepo) ListByPlayer(ctx context.Context, playerID string, limit int) ([]LootRoll, error) {
	_ = ctx
	limit = normalizeLimit(limit)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]LootRoll, 0)
	for i := len(r.rolls) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rolls[i].PlayerID == playerID {
			out = append(out, r.rolls[i])
		}
	}
	return out, nil
}

func (r *MemoryRepo) Close() error { return nil }
