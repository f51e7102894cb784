package game

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"wildcraft/internal/audit"
	"wildcraft/internal/catalog"
	"wildcraft/internal/craft"
	"wildcraft/internal/inventory"
	"wildcraft/internal/live"
	"wildcraft/internal/player"
	"wildcraft/internal/unlock"
	"wildcraft/internal/world"
)

// Notifier receives "scope changed" signals after successful mutations.
type Notifier interface {
	Notify(scope, topic string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) {}

// Engine runs every game operation. Mutations hold the caller's player lock
// for their whole duration, so one player's operations never interleave.
type Engine struct {
	Players   player.Repository
	Inventory inventory.Repository
	Unlocks   unlock.Repository
	Catalog   catalog.Repository
	Crafts    craft.Repository
	World     world.Repository
	Audit     audit.Repository

	Clock  Clock
	RNG    world.RNG
	Live   Notifier
	Logger *log.Logger
	Rules  Rules

	locks KeyedLocker
}

func (e *Engine) now() time.Time {
	return clockOrSystem(e.Clock).Now()
}

func (e *Engine) resolveNow(clientMs *int64) time.Time {
	return ClientTime(e.Clock, clientMs)
}

func (e *Engine) rng() world.RNG {
	if e.RNG == nil {
		return sharedRNG()
	}
	return e.RNG
}

func (e *Engine) notify(scope, topic string) {
	if e.Live == nil {
		return
	}
	e.Live.Notify(scope, topic)
}

func (e *Engine) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}

func (e *Engine) rules() Rules {
	if e.Rules.MaxQty == 0 {
		return DefaultRules()
	}
	return e.Rules
}

// PlayerSummary is the player header returned with per-player listings.
type PlayerSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CraftingTier int    `json:"craftingTier"`
}

func summarize(p player.Player) *PlayerSummary {
	return &PlayerSummary{ID: p.ID, Name: p.Name, CraftingTier: p.CraftingTier}
}

// findPlayer resolves the caller's player; ok is false when none exists.
func (e *Engine) findPlayer(ctx context.Context, userID string) (player.Player, bool, error) {
	if userID == "" {
		return player.Player{}, false, ErrNotAuthenticated
	}
	return e.Players.GetByUser(ctx, userID)
}

func (e *Engine) requirePlayer(ctx context.Context, userID string) (player.Player, error) {
	p, ok, err := e.findPlayer(ctx, userID)
	if err != nil {
		return player.Player{}, err
	}
	if !ok {
		return player.Player{}, ErrPlayerNotFound
	}
	return p, nil
}

// lockPlayer resolves the caller's player, takes its lock and re-reads it so
// the returned state is current for the critical section.
func (e *Engine) lockPlayer(ctx context.Context, userID string) (player.Player, func(), error) {
	p, err := e.requirePlayer(ctx, userID)
	if err != nil {
		return player.Player{}, nil, err
	}
	unlockFn := e.locks.Lock(playerKey(p.ID))
	fresh, ok, err := e.Players.Get(ctx, p.ID)
	if err != nil {
		unlockFn()
		return player.Player{}, nil, err
	}
	if !ok {
		unlockFn()
		return player.Player{}, nil, ErrPlayerNotFound
	}
	return fresh, unlockFn, nil
}

// lockOwnedPlayer locks playerID after checking the caller owns it.
func (e *Engine) lockOwnedPlayer(ctx context.Context, userID, playerID string) (player.Player, func(), error) {
	if userID == "" {
		return player.Player{}, nil, ErrNotAuthenticated
	}
	unlockFn := e.locks.Lock(playerKey(playerID))
	p, ok, err := e.Players.Get(ctx, playerID)
	if err != nil {
		unlockFn()
		return player.Player{}, nil, err
	}
	if !ok {
		unlockFn()
		return player.Player{}, nil, ErrPlayerNotFound
	}
	if p.UserID != userID {
		unlockFn()
		return player.Player{}, nil, ErrForbidden
	}
	return p, unlockFn, nil
}

// Bootstrap seeds the catalog. Servers run it once before serving traffic.
func (e *Engine) Bootstrap(ctx context.Context) (catalog.Seeded, error) {
	seeded, err := catalog.EnsureDefaults(ctx, e.Catalog)
	if err != nil {
		return catalog.Seeded{}, err
	}
	if !seeded.Empty() {
		e.logger().Info("catalog seeded", "stations", len(seeded.StationIDs), "recipes", len(seeded.RecipeIDs))
	}
	return seeded, nil
}

type EnsureDefaultsResult struct {
	Seeded       bool           `json:"seeded"`
	StationIDs   []string       `json:"stationIds"`
	RecipeIDs    []string       `json:"recipeIds"`
	Inserted     catalog.Seeded `json:"inserted"`
	Bootstrapped bool           `json:"bootstrapped"`
	Added        []string       `json:"added,omitempty"`
}

// EnsureDefaults seeds missing catalog entries and grants the caller any
// starter unlocks they are missing.
func (e *Engine) EnsureDefaults(ctx context.Context, userID string) (EnsureDefaultsResult, error) {
	if userID == "" {
		return EnsureDefaultsResult{}, ErrNotAuthenticated
	}
	inserted, err := e.Bootstrap(ctx)
	if err != nil {
		return EnsureDefaultsResult{}, err
	}
	out := EnsureDefaultsResult{Seeded: true, Inserted: inserted}
	for _, st := range catalog.DefaultStations() {
		out.StationIDs = append(out.StationIDs, st.ID)
	}
	for _, rec := range catalog.DefaultRecipes() {
		out.RecipeIDs = append(out.RecipeIDs, rec.ID)
	}

	p, unlockFn, err := e.lockPlayer(ctx, userID)
	if errors.Is(err, ErrPlayerNotFound) {
		return out, nil
	}
	if err != nil {
		return EnsureDefaultsResult{}, err
	}
	defer unlockFn()

	added, err := e.grantStarterUnlocks(ctx, p.ID)
	if err != nil {
		return EnsureDefaultsResult{}, err
	}
	out.Bootstrapped = true
	out.Added = added
	if len(added) > 0 {
		e.notify(live.PlayerScope(p.ID), "unlocks")
	}
	return out, nil
}

func (e *Engine) grantStarterUnlocks(ctx context.Context, playerID string) ([]string, error) {
	now := e.now()
	added := []string{}
	for _, ref := range catalog.StarterUnlocks() {
		newly, err := e.Unlocks.Grant(ctx, playerID, ref, now)
		if err != nil {
			return nil, err
		}
		if newly {
			added = append(added, ref.String())
		}
	}
	return added, nil
}
