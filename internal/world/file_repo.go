package world

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type fileState struct {
	Nodes    map[string]LootNode `json:"nodes"`
	Stations map[string]Station  `json:"stations"`
}

type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

func NewMemoryRepo() *FileRepo {
	return &FileRepo{s: fileState{
		Nodes:    map[string]LootNode{},
		Stations: map[string]Station{},
	}}
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := NewMemoryRepo()
	r.path = filepath.Join(dataDir, "world.json")
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
	if loaded.Nodes == nil {
		loaded.Nodes = map[string]LootNode{}
	}
	if loaded.Stations == nil {
		loaded.Stations = map[string]Station{}
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

func (r *FileRepo) InsertNodes(ctx context.Context, nodes []LootNode) ([]LootNode, error) {
	_ = ctx
	for _, n := range nodes {
		if n.LootSourceID == "" || n.BiomeID == "" {
			return nil, ErrInvalidNode
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]LootNode, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		r.s.Nodes[n.ID] = cloneNode(n)
		out = append(out, cloneNode(n))
	}
	if err := r.saveLocked(); err != nil {
		for _, n := range out {
			delete(r.s.Nodes, n.ID)
		}
		return nil, err
	}
	return out, nil
}

func (r *FileRepo) GetNode(ctx context.Context, id string) (LootNode, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.s.Nodes[id]
	if !ok {
		return LootNode{}, false, nil
	}
	return cloneNode(n), true, nil
}

func (r *FileRepo) ListNodes(ctx context.Context, biomeID string, includeDepleted bool) ([]LootNode, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []LootNode{}
	for _, n := range r.s.Nodes {
		if n.BiomeID != biomeID {
			continue
		}
		if n.Depletion.IsDepleted && !includeDepleted {
			continue
		}
		out = append(out, cloneNode(n))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *FileRepo) HasNodes(ctx context.Context, biomeID string) (bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.s.Nodes {
		if n.BiomeID == biomeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *FileRepo) Deplete(ctx context.Context, id string, now time.Time, respawnAt *time.Time) (LootNode, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.s.Nodes[id]
	if !ok {
		return LootNode{}, ErrNodeNotFound
	}
	prev := n
	at := now
	n.Depletion = Depletion{IsDepleted: true, DepletedAt: &at}
	if respawnAt != nil {
		t := *respawnAt
		n.Depletion.RespawnAt = &t
	}
	r.s.Nodes[id] = n
	if err := r.saveLocked(); err != nil {
		r.s.Nodes[id] = prev
		return LootNode{}, err
	}
	return cloneNode(n), nil
}

func (r *FileRepo) ResetDue(ctx context.Context, now time.Time) ([]LootNode, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := map[string]LootNode{}
	out := []LootNode{}
	for id, n := range r.s.Nodes {
		if !n.RespawnDue(now) {
			continue
		}
		prev[id] = n
		n.Depletion = Depletion{}
		r.s.Nodes[id] = n
		out = append(out, n)
	}
	if len(out) == 0 {
		return out, nil
	}
	if err := r.saveLocked(); err != nil {
		for id, n := range prev {
			r.s.Nodes[id] = n
		}
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *FileRepo) InsertStation(ctx context.Context, st Station) (Station, error) {
	_ = ctx
	if st.StationID == "" || st.BiomeID == "" {
		return Station{}, ErrInvalidStation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	r.s.Stations[st.ID] = st
	if err := r.saveLocked(); err != nil {
		delete(r.s.Stations, st.ID)
		return Station{}, err
	}
	return st, nil
}

func (r *FileRepo) ListStations(ctx context.Context, biomeID string) ([]Station, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Station{}
	for _, st := range r.s.Stations {
		if st.BiomeID == biomeID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
