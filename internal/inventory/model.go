package inventory

import (
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindMaterial  Kind = "material"
	KindComponent Kind = "component"
	KindItem      Kind = "item"
	KindCurrency  Kind = "currency"
)

func (k Kind) Valid() bool {
	switch k {
	case KindMaterial, KindComponent, KindItem, KindCurrency:
		return true
	}
	return false
}

// Stage is the lifecycle stage of a material. It is informational only and
// is not part of a stack's identity.
type Stage string

const (
	StageRaw       Stage = "raw"
	StageRefined   Stage = "refined"
	StageFormed    Stage = "formed"
	StageComponent Stage = "component"
	StageFinalItem Stage = "finalItem"
)

var (
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrInvalidKind          = errors.New("invalid item kind")
	ErrInvalidDefID         = errors.New("item def id is required")
	ErrQuantityTooLarge     = errors.New("quantity too large")
)

// MaxStackQty bounds a single line and any stack it merges into.
const MaxStackQty = 1_000_000_000

// Line is a quantity of one item kind/def, used for grants, costs and outputs.
type Line struct {
	Kind  Kind   `json:"kind"`
	DefID string `json:"defId"`
	Stage Stage  `json:"stage,omitempty"`
	Qty   int    `json:"qty"`
}

func (l Line) Key() string {
	return Key(l.Kind, l.DefID)
}

func Key(kind Kind, defID string) string {
	return string(kind) + ":" + defID
}

// Stack aggregates every unit a player holds for one (kind, defId).
type Stack struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"playerId"`
	Kind      Kind      `json:"kind"`
	DefID     string    `json:"defId"`
	Stage     Stage     `json:"stage,omitempty"`
	Qty       int       `json:"qty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s Stack) Key() string {
	return Key(s.Kind, s.DefID)
}

func validateLines(items []Line) error {
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		if !it.Kind.Valid() {
			return ErrInvalidKind
		}
		if it.DefID == "" {
			return ErrInvalidDefID
		}
		if it.Qty > MaxStackQty {
			return fmt.Errorf("%w: %s line of %d exceeds %d", ErrQuantityTooLarge, it.Key(), it.Qty, MaxStackQty)
		}
	}
	return nil
}

// Have reports how many units of a line the quantities map holds.
func Have(qty map[string]int, l Line) int {
	return qty[l.Key()]
}
