package player

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type fileState struct {
	Players map[string]Player `json:"players"`
}

type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    fileState
	// user id -> player id
	byUser map[string]string
}

func NewMemoryRepo() *FileRepo {
	return &FileRepo{
		s:      fileState{Players: map[string]Player{}},
		byUser: map[string]string{},
	}
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := NewMemoryRepo()
	r.path = filepath.Join(dataDir, "players.json")
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
		loaded.Players = map[string]Player{}
	}
	r.s = loaded
	r.byUser = map[string]string{}
	for id, p := range loaded.Players {
		r.byUser[p.UserID] = id
	}
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

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if r := []rune(name); len(r) > maxNameLen {
		name = string(r[:maxNameLen])
	}
	return name, nil
}

func (r *FileRepo) Create(ctx context.Context, p Player) (Player, error) {
	_ = ctx
	name, err := normalizeName(p.Name)
	if err != nil {
		return Player{}, err
	}
	p.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[p.UserID]; ok {
		return Player{}, ErrExists
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.s.Players[p.ID] = p
	r.byUser[p.UserID] = p.ID
	if err := r.saveLocked(); err != nil {
		delete(r.s.Players, p.ID)
		delete(r.byUser, p.UserID)
		return Player{}, err
	}
	return p, nil
}

func (r *FileRepo) Get(ctx context.Context, id string) (Player, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.s.Players[id]
	return p, ok, nil
}

func (r *FileRepo) GetByUser(ctx context.Context, userID string) (Player, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUser[userID]
	if !ok {
		return Player{}, false, nil
	}
	p, ok := r.s.Players[id]
	return p, ok, nil
}

func (r *FileRepo) Update(ctx context.Context, p Player) (Player, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.s.Players[p.ID]
	if !ok {
		return Player{}, ErrNotFound
	}
	// Identity fields are fixed at creation.
	p.UserID = prev.UserID
	p.CreatedAt = prev.CreatedAt
	if p.CraftingTier < prev.CraftingTier {
		p.CraftingTier = prev.CraftingTier
	}
	r.s.Players[p.ID] = p
	if err := r.saveLocked(); err != nil {
		r.s.Players[p.ID] = prev
		return Player{}, err
	}
	return p, nil
}

func (r *FileRepo) ListByBiome(ctx context.Context, biomeID string, since time.Time) ([]Player, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Player{}
	for _, p := range r.s.Players {
		if p.BiomeID != biomeID {
			continue
		}
		if !since.IsZero() && p.LastSeen.Before(since) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
