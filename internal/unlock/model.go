package unlock

import (
	"errors"
	"time"
)

type Kind string

const (
	KindRecipe  Kind = "recipe"
	KindStation Kind = "station"
	KindBiome   Kind = "biome"
	KindLore    Kind = "lore"
	KindTech    Kind = "tech"
)

func (k Kind) Valid() bool {
	switch k {
	case KindRecipe, KindStation, KindBiome, KindLore, KindTech:
		return true
	}
	return false
}

var ErrInvalidRef = errors.New("invalid unlock")

// Ref names one unlockable thing.
type Ref struct {
	Kind  Kind   `json:"kind"`
	DefID string `json:"defId"`
}

func (r Ref) String() string {
	return string(r.Kind) + ":" + r.DefID
}

func (r Ref) validate() error {
	if !r.Kind.Valid() || r.DefID == "" {
		return ErrInvalidRef
	}
	return nil
}

type Unlock struct {
	PlayerID   string    `json:"playerId"`
	Kind       Kind      `json:"kind"`
	DefID      string    `json:"defId"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

func (u Unlock) Ref() Ref {
	return Ref{Kind: u.Kind, DefID: u.DefID}
}

// Set is a read-only view over a player's unlocks.
type Set map[string]bool

func (s Set) Has(kind Kind, defID string) bool {
	return s[Ref{Kind: kind, DefID: defID}.String()]
}
