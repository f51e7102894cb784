package player

import (
	"errors"
	"time"

	"wildcraft/internal/world"
)

var (
	ErrNotFound    = errors.New("player not found")
	ErrExists      = errors.New("player already exists for this user")
	ErrInvalidName = errors.New("player name is required")
)

const maxNameLen = 32

type Player struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	Name         string         `json:"name"`
	CraftingTier int            `json:"craftingTier"`
	BiomeID      string         `json:"biomeId"`
	Position     world.Position `json:"position"`
	LastSeen     time.Time      `json:"lastSeen"`
	CreatedAt    time.Time      `json:"createdTime"`
}

// Online reports whether the player was seen within window of now.
func (p Player) Online(now time.Time, window time.Duration) bool {
	return now.Sub(p.LastSeen) <= window
}
