package game

import (
	"context"
	"time"

	"wildcraft/internal/live"
	"wildcraft/internal/player"
	"wildcraft/internal/world"
)

type MoveResult struct {
	Position world.Position `json:"position"`
}

func (e *Engine) GetMyPlayer(ctx context.Context, userID string) (*player.Player, error) {
	p, ok, err := e.findPlayer(ctx, userID)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// CreatePlayer creates the caller's one player in the default biome at a
// random spawn point, grants the starter unlocks and seeds an empty biome.
func (e *Engine) CreatePlayer(ctx context.Context, userID, name string) (player.Player, error) {
	if userID == "" {
		return player.Player{}, ErrNotAuthenticated
	}
	unlockUser := e.locks.Lock(userKey(userID))
	defer unlockUser()

	if _, ok, err := e.Players.GetByUser(ctx, userID); err != nil {
		return player.Player{}, err
	} else if ok {
		return player.Player{}, ErrPlayerExists
	}

	rules := e.rules()
	rng := e.rng()
	now := e.now()
	p, err := e.Players.Create(ctx, player.Player{
		UserID:       userID,
		Name:         name,
		CraftingTier: 0,
		BiomeID:      rules.DefaultBiome,
		Position: world.Position{
			X: spawnCoord(rng, rules.SpawnMin, rules.SpawnMax),
			Y: spawnCoord(rng, rules.SpawnMin, rules.SpawnMax),
		},
		LastSeen:  now,
		CreatedAt: now,
	})
	if err != nil {
		return player.Player{}, err
	}

	unlockPlayer := e.locks.Lock(playerKey(p.ID))
	defer unlockPlayer()

	if _, err := e.grantStarterUnlocks(ctx, p.ID); err != nil {
		return player.Player{}, err
	}
	if _, err := e.seedIfEmpty(ctx, p.BiomeID, p.Position, userID); err != nil {
		e.logger().Error("seed biome for new player", "player", p.ID, "biome", p.BiomeID, "err", err)
	}

	e.logger().Info("player created", "player", p.ID, "biome", p.BiomeID)
	e.notify(live.BiomeScope(p.BiomeID), "players")
	return p, nil
}

// MovePlayer shifts the caller by (dx, dy), clamped to the world bounds.
func (e *Engine) MovePlayer(ctx context.Context, userID string, dx, dy float64) (MoveResult, error) {
	p, unlockFn, err := e.lockPlayer(ctx, userID)
	if err != nil {
		return MoveResult{}, err
	}
	defer unlockFn()

	p.Position = e.rules().Bounds.Clamp(world.Position{X: p.Position.X + dx, Y: p.Position.Y + dy})
	p.LastSeen = e.now()
	if _, err := e.Players.Update(ctx, p); err != nil {
		return MoveResult{}, err
	}
	e.notify(live.BiomeScope(p.BiomeID), "players")
	return MoveResult{Position: p.Position}, nil
}

// TouchPlayer refreshes the caller's last-seen time. A caller without a
// player gets nil and no error.
func (e *Engine) TouchPlayer(ctx context.Context, userID string) (*player.Player, error) {
	if _, ok, err := e.findPlayer(ctx, userID); err != nil || !ok {
		return nil, err
	}
	p, unlockFn, err := e.lockPlayer(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlockFn()

	p.LastSeen = e.now()
	updated, err := e.Players.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListPlayersByBiome returns players seen within the online window, or all
// of them when includeStale is set.
func (e *Engine) ListPlayersByBiome(ctx context.Context, userID, biomeID string, includeStale bool) ([]player.Player, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	var since time.Time
	if !includeStale {
		since = e.now().Add(-e.rules().OnlineWindow)
	}
	return e.Players.ListByBiome(ctx, biomeID, since)
}
