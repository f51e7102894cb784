package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type fileState struct {
	// player id -> stack key -> stack
	Players map[string]map[string]Stack `json:"players"`
}

// FileRepo keeps the ledger in memory and, when path is set, rewrites a JSON
// snapshot after every mutation.
type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

func NewMemoryRepo() *FileRepo {
	return &FileRepo{s: fileState{Players: map[string]map[string]Stack{}}}
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := NewMemoryRepo()
	r.path = filepath.Join(dataDir, "inventory.json")
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepo) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return fmt.Errorf("decode %s: %w", r.path, err)
	}
	if loaded.Players == nil {
		loaded.Players = map[string]map[string]Stack{}
	}
	for pid, stacks := range loaded.Players {
		for key, st := range stacks {
			if st.Qty <= 0 {
				delete(stacks, key)
			}
		}
		if len(stacks) == 0 {
			delete(loaded.Players, pid)
		}
	}
	r.s = loaded
	return nil
}

func (r *FileRepo) saveLocked() error {
	if r.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(r.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, b, 0o644)
}

func (r *FileRepo) List(ctx context.Context, playerID string) ([]Stack, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	stacks := r.s.Players[playerID]
	out := make([]Stack, 0, len(stacks))
	for _, st := range stacks {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].DefID < out[j].DefID
	})
	return out, nil
}

func (r *FileRepo) Quantities(ctx context.Context, playerID string) (map[string]int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.s.Players[playerID]))
	for key, st := range r.s.Players[playerID] {
		out[key] = st.Qty
	}
	return out, nil
}

func (r *FileRepo) Grant(ctx context.Context, playerID string, items []Line, now time.Time) error {
	_ = ctx
	if err := validateLines(items); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stacks := r.s.Players[playerID]

	// Totals are checked before any stack changes so a rejected grant
	// leaves the ledger untouched.
	add := map[string]int{}
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		key := it.Key()
		add[key] += it.Qty
		if add[key] > MaxStackQty-stacks[key].Qty {
			return fmt.Errorf("%w: %s would exceed %d", ErrQuantityTooLarge, key, MaxStackQty)
		}
	}

	if stacks == nil {
		stacks = map[string]Stack{}
		r.s.Players[playerID] = stacks
	}

	changed := false
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		key := it.Key()
		st, ok := stacks[key]
		if ok {
			st.Qty += it.Qty
			st.UpdatedAt = now
		} else {
			st = Stack{
				ID:        uuid.NewString(),
				PlayerID:  playerID,
				Kind:      it.Kind,
				DefID:     it.DefID,
				Stage:     it.Stage,
				Qty:       it.Qty,
				UpdatedAt: now,
			}
		}
		stacks[key] = st
		changed = true
	}
	if !changed {
		if len(stacks) == 0 {
			delete(r.s.Players, playerID)
		}
		return nil
	}
	return r.saveLocked()
}

func (r *FileRepo) Consume(ctx context.Context, playerID string, items []Line, now time.Time) error {
	_ = ctx
	if err := validateLines(items); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stacks := r.s.Players[playerID]

	// Validate the whole request first so a failure leaves the ledger untouched.
	need := map[string]int{}
	order := []string{}
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		key := it.Key()
		if _, seen := need[key]; !seen {
			order = append(order, key)
		}
		need[key] += it.Qty
	}
	if len(order) == 0 {
		return nil
	}
	for _, key := range order {
		if stacks[key].Qty < need[key] {
			return fmt.Errorf("%w for %s", ErrInsufficientQuantity, key)
		}
	}

	for _, key := range order {
		st := stacks[key]
		st.Qty -= need[key]
		if st.Qty <= 0 {
			delete(stacks, key)
			continue
		}
		st.UpdatedAt = now
		stacks[key] = st
	}
	if len(stacks) == 0 {
		delete(r.s.Players, playerID)
	}
	return r.saveLocked()
}
