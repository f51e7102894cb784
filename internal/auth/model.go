package auth

import (
	"context"
	"time"
)

// sessionTouchEvery throttles last-seen writes.
const sessionTouchEvery = 5 * time.Minute

// User is a signed-in account. Game state hangs off the single player a
// user may create, never off the user itself.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// OTPChallenge is the pending sign-in code for one email. Only the hash of
// the code is stored.
type OTPChallenge struct {
	Email       string    `json:"email"`
	CodeHash    string    `json:"codeHash"`
	ExpiresAt   time.Time `json:"expiresAt"`
	RequestedAt time.Time `json:"requestedAt"`
	Attempts    int       `json:"attempts"`
}

func (c OTPChallenge) Expired(now time.Time) bool { return now.After(c.ExpiresAt) }

func (c OTPChallenge) matches(code string) bool {
	return hashOTP(c.Email, code) == c.CodeHash
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"tokenHash"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }

func (s Session) needsTouch(now time.Time) bool {
	return now.Sub(s.LastSeen) >= sessionTouchEvery
}

// PlayerRef names the player owned by a user and the biome it stands in.
type PlayerRef struct {
	ID      string `json:"id"`
	BiomeID string `json:"biomeId"`
}

// PlayerLookup finds the player owned by userID. ok is false until the user
// has created one.
type PlayerLookup func(ctx context.Context, userID string) (ref PlayerRef, ok bool, err error)

// Principal is who is behind an authenticated request. Player is the zero
// value for a user that has not created a player yet.
type Principal struct {
	User    User
	Session Session
	Player  PlayerRef
}

func (p Principal) HasPlayer() bool { return p.Player.ID != "" }
