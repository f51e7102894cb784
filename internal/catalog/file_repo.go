package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"wildcraft/internal/inventory"
)

type fileState struct {
	Stations map[string]StationDef `json:"stations"`
	Recipes  map[string]RecipeDef  `json:"recipes"`
}

type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

func NewMemoryRepo() *FileRepo {
	return &FileRepo{s: fileState{
		Stations: map[string]StationDef{},
		Recipes:  map[string]RecipeDef{},
	}}
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := NewMemoryRepo()
	r.path = filepath.Join(dataDir, "catalog.json")
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
	if loaded.Stations == nil {
		loaded.Stations = map[string]StationDef{}
	}
	if loaded.Recipes == nil {
		loaded.Recipes = map[string]RecipeDef{}
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

func cloneRecipe(rec RecipeDef) RecipeDef {
	rec.Inputs = append([]inventory.Line(nil), rec.Inputs...)
	rec.Outputs = append([]inventory.Line(nil), rec.Outputs...)
	return rec
}

func (r *FileRepo) Seed(ctx context.Context, stations []StationDef, recipes []RecipeDef) (Seeded, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	out := Seeded{StationIDs: []string{}, RecipeIDs: []string{}}
	for _, st := range stations {
		if _, ok := r.s.Stations[st.ID]; ok || st.ID == "" {
			continue
		}
		r.s.Stations[st.ID] = st
		out.StationIDs = append(out.StationIDs, st.ID)
	}
	for _, rec := range recipes {
		if _, ok := r.s.Recipes[rec.ID]; ok || rec.ID == "" {
			continue
		}
		r.s.Recipes[rec.ID] = cloneRecipe(rec)
		out.RecipeIDs = append(out.RecipeIDs, rec.ID)
	}
	if out.Empty() {
		return out, nil
	}
	if err := r.saveLocked(); err != nil {
		return Seeded{}, err
	}
	return out, nil
}

func (r *FileRepo) Stations(ctx context.Context) ([]StationDef, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]StationDef, 0, len(r.s.Stations))
	for _, st := range r.s.Stations {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

func (r *FileRepo) Station(ctx context.Context, id string) (StationDef, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.s.Stations[id]
	return st, ok, nil
}

func (r *FileRepo) Recipes(ctx context.Context) ([]RecipeDef, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RecipeDef, 0, len(r.s.Recipes))
	for _, rec := range r.s.Recipes {
		out = append(out, cloneRecipe(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *FileRepo) Recipe(ctx context.Context, id string) (RecipeDef, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.s.Recipes[id]
	if !ok {
		return RecipeDef{}, false, nil
	}
	return cloneRecipe(rec), true, nil
}
