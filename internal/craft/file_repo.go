package craft

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
	Jobs map[string]Job `json:"jobs"`
}

type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

func NewMemoryRepo() *FileRepo {
	return &FileRepo{s: fileState{Jobs: map[string]Job{}}}
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := NewMemoryRepo()
	r.path = filepath.Join(dataDir, "crafts.json")
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
	if loaded.Jobs == nil {
		loaded.Jobs = map[string]Job{}
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

func (r *FileRepo) Insert(ctx context.Context, j Job) (Job, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Status == "" {
		j.Status = StatusInProgress
	}
	r.s.Jobs[j.ID] = cloneJob(j)
	if err := r.saveLocked(); err != nil {
		delete(r.s.Jobs, j.ID)
		return Job{}, err
	}
	return cloneJob(j), nil
}

func (r *FileRepo) Get(ctx context.Context, id string) (Job, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.s.Jobs[id]
	if !ok {
		return Job{}, false, nil
	}
	return cloneJob(j), true, nil
}

func sortNewestFirst(out []Job) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
}

func (r *FileRepo) ListByPlayer(ctx context.Context, playerID string) ([]Job, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Job{}
	for _, j := range r.s.Jobs {
		if j.PlayerID == playerID {
			out = append(out, cloneJob(j))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *FileRepo) ListDue(ctx context.Context, playerID string, now time.Time) ([]Job, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Job{}
	for _, j := range r.s.Jobs {
		if j.PlayerID == playerID && j.Due(now) {
			out = append(out, cloneJob(j))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].EndAt.Before(out[k].EndAt) })
	return out, nil
}

func (r *FileRepo) PlayersWithDue(ctx context.Context, now time.Time) ([]string, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]bool{}
	out := []string{}
	for _, j := range r.s.Jobs {
		if j.Due(now) && !seen[j.PlayerID] {
			seen[j.PlayerID] = true
			out = append(out, j.PlayerID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *FileRepo) MarkDone(ctx context.Context, id string, now time.Time) (Job, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.s.Jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	if !j.Due(now) {
		return Job{}, ErrJobNotDue
	}
	prev := j
	done := now
	j.Status = StatusDone
	j.CompletedAt = &done
	r.s.Jobs[id] = j
	if err := r.saveLocked(); err != nil {
		r.s.Jobs[id] = prev
		return Job{}, err
	}
	return cloneJob(j), nil
}
