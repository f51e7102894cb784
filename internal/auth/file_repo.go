package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// authFile is what reaches disk. The email and token indexes are rebuilt
// on load.
type authFile struct {
	Users      map[string]User         `json:"users"`
	Challenges map[string]OTPChallenge `json:"challenges"`
	Sessions   map[string]Session      `json:"sessions"`
}

// FileRepo keeps accounts, pending sign-in codes and sessions in memory and,
// when path is set, rewrites auth.json after every mutation.
type FileRepo struct {
	mu   sync.RWMutex
	path string
	f    authFile

	userByEmail    map[string]string
	sessionByToken map[string]string
}

func NewMemoryRepo() *FileRepo {
	r := &FileRepo{f: authFile{
		Users:      map[string]User{},
		Challenges: map[string]OTPChallenge{},
		Sessions:   map[string]Session{},
	}}
	r.reindexLocked()
	return r
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := NewMemoryRepo()
	r.path = filepath.Join(dataDir, "auth.json")
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
	var loaded authFile
	if err := json.Unmarshal(b, &loaded); err != nil {
		return fmt.Errorf("decode %s: %w", r.path, err)
	}
	if loaded.Users != nil {
		r.f.Users = loaded.Users
	}
	if loaded.Challenges != nil {
		r.f.Challenges = loaded.Challenges
	}
	if loaded.Sessions != nil {
		r.f.Sessions = loaded.Sessions
	}
	// Sessions of users that no longer exist are dropped.
	for id, s := range r.f.Sessions {
		if _, ok := r.f.Users[s.UserID]; !ok {
			delete(r.f.Sessions, id)
		}
	}
	r.reindexLocked()
	return nil
}

func (r *FileRepo) reindexLocked() {
	r.userByEmail = make(map[string]string, len(r.f.Users))
	for id, u := range r.f.Users {
		r.userByEmail[u.Email] = id
	}
	r.sessionByToken = make(map[string]string, len(r.f.Sessions))
	for id, s := range r.f.Sessions {
		r.sessionByToken[s.TokenHash] = id
	}
}

func (r *FileRepo) saveLocked() error {
	if r.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(r.f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, b, 0o644)
}

// update runs fn under the write lock and saves when fn reports a change.
func (r *FileRepo) update(fn func() bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !fn() {
		return nil
	}
	return r.saveLocked()
}

func newID() string {
	return uuid.NewString()
}

func (r *FileRepo) GetOrCreateUser(email string, now time.Time) (u User, created bool, err error) {
	err = r.update(func() bool {
		if id, ok := r.userByEmail[email]; ok {
			u = r.f.Users[id]
			return false
		}
		u = User{ID: newID(), Email: email, CreatedAt: now}
		r.f.Users[u.ID] = u
		r.userByEmail[email] = u.ID
		created = true
		return true
	})
	if err != nil {
		return User{}, false, err
	}
	return u, created, nil
}

func (r *FileRepo) GetUserByID(id string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.f.Users[id]
	return u, ok
}

func (r *FileRepo) PutChallenge(ch OTPChallenge) error {
	return r.update(func() bool {
		r.f.Challenges[ch.Email] = ch
		return true
	})
}

func (r *FileRepo) GetChallenge(email string) (OTPChallenge, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.f.Challenges[email]
	return ch, ok
}

func (r *FileRepo) DeleteChallenge(email string) error {
	return r.update(func() bool {
		if _, ok := r.f.Challenges[email]; !ok {
			return false
		}
		delete(r.f.Challenges, email)
		return true
	})
}

func (r *FileRepo) CreateSession(s Session) error {
	return r.update(func() bool {
		r.f.Sessions[s.ID] = s
		r.sessionByToken[s.TokenHash] = s.ID
		return true
	})
}

func (r *FileRepo) GetSessionByTokenHash(tokenHash string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.f.Sessions[r.sessionByToken[tokenHash]]
	return s, ok
}

func (r *FileRepo) deleteSessionLocked(id string) bool {
	s, ok := r.f.Sessions[id]
	if !ok {
		return false
	}
	delete(r.f.Sessions, id)
	delete(r.sessionByToken, s.TokenHash)
	return true
}

func (r *FileRepo) DeleteSessionByID(sessionID string) error {
	return r.update(func() bool { return r.deleteSessionLocked(sessionID) })
}

func (r *FileRepo) DeleteSessionByTokenHash(tokenHash string) error {
	return r.update(func() bool {
		id, ok := r.sessionByToken[tokenHash]
		return ok && r.deleteSessionLocked(id)
	})
}

func (r *FileRepo) TouchSession(sessionID string, lastSeen time.Time) error {
	return r.update(func() bool {
		s, ok := r.f.Sessions[sessionID]
		if !ok {
			return false
		}
		s.LastSeen = lastSeen
		r.f.Sessions[sessionID] = s
		return true
	})
}

// PruneExpired removes sessions and challenges that expired before now.
func (r *FileRepo) PruneExpired(now time.Time) (int, error) {
	n := 0
	err := r.update(func() bool {
		for id, s := range r.f.Sessions {
			if s.Expired(now) && r.deleteSessionLocked(id) {
				n++
			}
		}
		for email, ch := range r.f.Challenges {
			if ch.Expired(now) {
				delete(r.f.Challenges, email)
				n++
			}
		}
		return n > 0
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
