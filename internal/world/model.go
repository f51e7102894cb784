package world

import (
	"errors"
	"math"
	"time"
)

var (
	ErrNodeNotFound    = errors.New("loot node not found")
	ErrStationNotFound = errors.New("station not found")
	ErrInvalidNode     = errors.New("invalid loot node")
	ErrInvalidStation  = errors.New("invalid station")
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is the inclusive square every position is clamped into.
type Bounds struct {
	Min float64
	Max float64
}

func (b Bounds) Clamp(p Position) Position {
	return Position{X: clamp(p.X, b.Min, b.Max), Y: clamp(p.Y, b.Min, b.Max)}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func DistanceSquared(a, b Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Within reports whether a and b are at most r apart.
func Within(a, b Position, r float64) bool {
	return DistanceSquared(a, b) <= r*r
}

type Depletion struct {
	IsDepleted bool       `json:"isDepleted"`
	DepletedAt *time.Time `json:"depletedTime,omitempty"`
	RespawnAt  *time.Time `json:"respawnTime,omitempty"`
}

type LootNode struct {
	ID           string    `json:"id"`
	LootSourceID string    `json:"lootSourceId"`
	BiomeID      string    `json:"biomeId"`
	Position     Position  `json:"position"`
	Depletion    Depletion `json:"depletion"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdTime"`
}

// RespawnDue reports whether a depleted node has a scheduled respawn at or
// before now.
func (n LootNode) RespawnDue(now time.Time) bool {
	d := n.Depletion
	return d.IsDepleted && d.RespawnAt != nil && !d.RespawnAt.After(now)
}

// Station is a station placed in the world.
type Station struct {
	ID        string    `json:"id"`
	StationID string    `json:"stationId"`
	BiomeID   string    `json:"biomeId"`
	Position  Position  `json:"position"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdTime"`
}

func cloneNode(n LootNode) LootNode {
	if n.Depletion.DepletedAt != nil {
		t := *n.Depletion.DepletedAt
		n.Depletion.DepletedAt = &t
	}
	if n.Depletion.RespawnAt != nil {
		t := *n.Depletion.RespawnAt
		n.Depletion.RespawnAt = &t
	}
	return n
}
