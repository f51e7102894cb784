package unlock

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type fileState struct {
	// player id -> "kind:defId" -> unlock
	Players map[string]map[string]Unlock `json:"players"`
}

type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

func NewMemoryRepo() *FileRepo {
	return &FileRepo{s: fileState{Players: map[string]map[string]Unlock{}}}
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := NewMemoryRepo()
	r.path = filepath.Join(dataDir, "unlocks.json")
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
		return err
	}
	if loaded.Players == nil {
		loaded.Players = map[string]map[string]Unlock{}
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

func (r *FileRepo) Grant(ctx context.Context, playerID string, ref Ref, now time.Time) (bool, error) {
	_ = ctx
	if err := ref.validate(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := ref.String()
	held := r.s.Players[playerID]
	if _, ok := held[key]; ok {
		return false, nil
	}
	if held == nil {
		held = map[string]Unlock{}
		r.s.Players[playerID] = held
	}
	held[key] = Unlock{
		PlayerID:   playerID,
		Kind:       ref.Kind,
		DefID:      ref.DefID,
		UnlockedAt: now,
	}
	if err := r.saveLocked(); err != nil {
		delete(held, key)
		return false, err
	}
	return true, nil
}

func (r *FileRepo) Has(ctx context.Context, playerID string, ref Ref) (bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.s.Players[playerID][ref.String()]
	return ok, nil
}

func (r *FileRepo) List(ctx context.Context, playerID string) ([]Unlock, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Unlock, 0, len(r.s.Players[playerID]))
	for _, u := range r.s.Players[playerID] {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UnlockedAt.Equal(out[j].UnlockedAt) {
			return out[i].UnlockedAt.Before(out[j].UnlockedAt)
		}
		return out[i].Ref().String() < out[j].Ref().String()
	})
	return out, nil
}

func (r *FileRepo) Set(ctx context.Context, playerID string) (Set, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(Set, len(r.s.Players[playerID]))
	for key := range r.s.Players[playerID] {
		out[key] = true
	}
	return out, nil
}
