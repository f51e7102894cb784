package game

import (
	"context"
	"fmt"
	"math"
	"time"

	"wildcraft/internal/audit"
	"wildcraft/internal/inventory"
	"wildcraft/internal/live"
	"wildcraft/internal/unlock"
	"wildcraft/internal/world"
)

type HarvestResult struct {
	Grants   []inventory.Line `json:"grants"`
	Unlocked []unlock.Ref     `json:"unlocked"`
}

type TickResult struct {
	Reset int `json:"reset"`
}

type SeedResult struct {
	Seeded bool `json:"seeded"`
}

// Harvest rolls a node's loot for the caller, hands out at most one
// progression unlock, depletes the node and records the roll. Every check
// runs before the first write.
func (e *Engine) Harvest(ctx context.Context, userID, nodeID string, clientNow *int64) (HarvestResult, error) {
	p, unlockPlayer, err := e.lockPlayer(ctx, userID)
	if err != nil {
		return HarvestResult{}, err
	}
	defer unlockPlayer()

	unlockNode := e.locks.Lock(nodeKey(nodeID))
	defer unlockNode()

	node, ok, err := e.World.GetNode(ctx, nodeID)
	if err != nil {
		return HarvestResult{}, err
	}
	if !ok {
		return HarvestResult{}, ErrNodeNotFound
	}
	if node.Depletion.IsDepleted {
		return HarvestResult{}, ErrNodeDepleted
	}
	if node.BiomeID != p.BiomeID {
		return HarvestResult{}, ErrWrongBiome
	}
	rules := e.rules()
	if !world.Within(p.Position, node.Position, rules.HarvestRange) {
		return HarvestResult{}, ErrTooFar
	}

	now := e.resolveNow(clientNow)
	grants := world.RollLoot(node.LootSourceID, e.rng())
	if err := e.Inventory.Grant(ctx, p.ID, grants, now); err != nil {
		return HarvestResult{}, err
	}

	unlocked := []unlock.Ref{}
	if checklist, isCache := world.CacheChecklist(node.LootSourceID); isCache {
		held, err := e.Unlocks.Set(ctx, p.ID)
		if err != nil {
			return HarvestResult{}, err
		}
		if ref, ok := world.NextUnlock(checklist, held); ok {
			newly, err := e.Unlocks.Grant(ctx, p.ID, ref, now)
			if err != nil {
				return HarvestResult{}, err
			}
			if newly {
				unlocked = append(unlocked, ref)
			}
		}
	}

	respawnAt := now.Add(rules.RespawnDelay)
	if _, err := e.World.Deplete(ctx, node.ID, now, &respawnAt); err != nil {
		return HarvestResult{}, err
	}

	if e.Audit != nil {
		if _, err := e.Audit.Append(ctx, audit.LootRoll{
			PlayerID:     p.ID,
			LootNodeID:   node.ID,
			LootSourceID: node.LootSourceID,
			BiomeID:      p.BiomeID,
			CraftingTier: p.CraftingTier,
			Results:      grants,
			Unlocked:     unlocked,
			CreatedAt:    now,
		}); err != nil {
			e.logger().Error("audit loot roll", "player", p.ID, "node", node.ID, "err", err)
		}
	}

	e.notify(live.PlayerScope(p.ID), "inventory")
	if len(unlocked) > 0 {
		e.notify(live.PlayerScope(p.ID), "unlocks")
	}
	e.notify(live.BiomeScope(node.BiomeID), "nodes")
	return HarvestResult{Grants: grants, Unlocked: unlocked}, nil
}

// ListHarvests returns the caller's recent loot rolls, newest first.
func (e *Engine) ListHarvests(ctx context.Context, userID string, limit int) ([]audit.LootRoll, error) {
	p, err := e.requirePlayer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if e.Audit == nil {
		return []audit.LootRoll{}, nil
	}
	return e.Audit.ListByPlayer(ctx, p.ID, limit)
}

func (e *Engine) ListNodes(ctx context.Context, userID, biomeID string, includeDepleted bool) ([]world.LootNode, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return e.World.ListNodes(ctx, biomeID, includeDepleted)
}

func (e *Engine) SpawnNode(ctx context.Context, userID, biomeID, sourceID string, pos world.Position) (world.LootNode, error) {
	if userID == "" {
		return world.LootNode{}, ErrNotAuthenticated
	}
	if biomeID == "" || sourceID == "" {
		return world.LootNode{}, fmt.Errorf("%w: biomeId and lootSourceId are required", ErrInvalidInput)
	}
	nodes, err := e.World.InsertNodes(ctx, []world.LootNode{{
		LootSourceID: sourceID,
		BiomeID:      biomeID,
		Position:     e.rules().Bounds.Clamp(pos),
		CreatedBy:    userID,
		CreatedAt:    e.now(),
	}})
	if err != nil {
		return world.LootNode{}, err
	}
	e.notify(live.BiomeScope(biomeID), "nodes")
	return nodes[0], nil
}

// MarkDepleted depletes a node. Without a delay it stays depleted until reset.
func (e *Engine) MarkDepleted(ctx context.Context, userID, nodeID string, respawnDelayMs *int64) (world.LootNode, error) {
	if userID == "" {
		return world.LootNode{}, ErrNotAuthenticated
	}
	if respawnDelayMs != nil && *respawnDelayMs < 0 {
		return world.LootNode{}, fmt.Errorf("%w: respawnDelayMs must not be negative", ErrInvalidInput)
	}
	unlockNode := e.locks.Lock(nodeKey(nodeID))
	defer unlockNode()

	now := e.now()
	var respawnAt *time.Time
	if respawnDelayMs != nil {
		t := now.Add(time.Duration(*respawnDelayMs) * time.Millisecond)
		respawnAt = &t
	}
	node, err := e.World.Deplete(ctx, nodeID, now, respawnAt)
	if err != nil {
		return world.LootNode{}, err
	}
	e.notify(live.BiomeScope(node.BiomeID), "nodes")
	return node, nil
}

// TickRespawns resets every depleted node whose respawn time has passed.
// It needs no caller identity.
func (e *Engine) TickRespawns(ctx context.Context, clientNow *int64) (TickResult, error) {
	reset, err := e.World.ResetDue(ctx, e.resolveNow(clientNow))
	if err != nil {
		return TickResult{}, err
	}
	biomes := map[string]bool{}
	for _, n := range reset {
		if !biomes[n.BiomeID] {
			biomes[n.BiomeID] = true
			e.notify(live.BiomeScope(n.BiomeID), "nodes")
		}
	}
	return TickResult{Reset: len(reset)}, nil
}

// EnsureBiomeSeed seeds the caller's biome around them if it has no nodes.
func (e *Engine) EnsureBiomeSeed(ctx context.Context, userID string) (SeedResult, error) {
	p, err := e.requirePlayer(ctx, userID)
	if err != nil {
		return SeedResult{}, err
	}
	seeded, err := e.seedIfEmpty(ctx, p.BiomeID, p.Position, userID)
	if err != nil {
		return SeedResult{}, err
	}
	return SeedResult{Seeded: seeded}, nil
}

func (e *Engine) seedIfEmpty(ctx context.Context, biomeID string, center world.Position, createdBy string) (bool, error) {
	unlockFn := e.locks.Lock(nodesKey(biomeID))
	defer unlockFn()

	has, err := e.World.HasNodes(ctx, biomeID)
	if err != nil || has {
		return false, err
	}

	rules := e.rules()
	now := e.now()
	layout := world.SeedPositions(rules.Seed, center, rules.Bounds, e.rng())
	nodes := []world.LootNode{}
	for _, g := range rules.Seed {
		for _, pos := range layout[g.LootSourceID] {
			nodes = append(nodes, world.LootNode{
				LootSourceID: g.LootSourceID,
				BiomeID:      biomeID,
				Position:     pos,
				CreatedBy:    createdBy,
				CreatedAt:    now,
			})
		}
	}
	if _, err := e.World.InsertNodes(ctx, nodes); err != nil {
		return false, err
	}
	e.logger().Info("biome seeded", "biome", biomeID, "nodes", len(nodes))
	e.notify(live.BiomeScope(biomeID), "nodes")
	return true, nil
}

func (e *Engine) ListStationsByBiome(ctx context.Context, userID, biomeID string) ([]world.Station, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return e.World.ListStations(ctx, biomeID)
}

func (e *Engine) SpawnStation(ctx context.Context, userID, biomeID, stationID string, pos world.Position) (world.Station, error) {
	if userID == "" {
		return world.Station{}, ErrNotAuthenticated
	}
	st, err := e.World.InsertStation(ctx, world.Station{
		StationID: stationID,
		BiomeID:   biomeID,
		Position:  e.rules().Bounds.Clamp(pos),
		CreatedBy: userID,
		CreatedAt: e.now(),
	})
	if err != nil {
		return world.Station{}, err
	}
	e.notify(live.BiomeScope(biomeID), "stations")
	return st, nil
}

type PlaceResult struct {
	StationDocID string        `json:"stationDocId"`
	Station      world.Station `json:"station"`
}

// PlaceWorkbench builds a workbench at the caller's position. Unlock, cost
// and spacing are all checked before anything is consumed.
func (e *Engine) PlaceWorkbench(ctx context.Context, userID string) (PlaceResult, error) {
	p, unlockPlayer, err := e.lockPlayer(ctx, userID)
	if err != nil {
		return PlaceResult{}, err
	}
	defer unlockPlayer()

	rules := e.rules()
	ok, err := e.Unlocks.Has(ctx, p.ID, unlock.Ref{Kind: unlock.KindStation, DefID: rules.WorkbenchStationID})
	if err != nil {
		return PlaceResult{}, err
	}
	if !ok {
		return PlaceResult{}, fmt.Errorf("%w: workbench", ErrStationLocked)
	}

	have, err := e.Inventory.Quantities(ctx, p.ID)
	if err != nil {
		return PlaceResult{}, err
	}
	for _, req := range rules.WorkbenchCost {
		if inventory.Have(have, req) < req.Qty {
			return PlaceResult{}, fmt.Errorf("%w: missing %d× %s", ErrInsufficient, req.Qty, req.DefID)
		}
	}

	unlockStations := e.locks.Lock(stationsKey(p.BiomeID))
	defer unlockStations()

	placed, err := e.World.ListStations(ctx, p.BiomeID)
	if err != nil {
		return PlaceResult{}, err
	}
	for _, st := range placed {
		if st.StationID == rules.WorkbenchStationID && world.Within(st.Position, p.Position, rules.WorkbenchSpacing) {
			return PlaceResult{}, ErrStationNearby
		}
	}

	now := e.now()
	if err := e.Inventory.Consume(ctx, p.ID, rules.WorkbenchCost, now); err != nil {
		return PlaceResult{}, err
	}
	st, err := e.World.InsertStation(ctx, world.Station{
		StationID: rules.WorkbenchStationID,
		BiomeID:   p.BiomeID,
		Position:  p.Position,
		CreatedBy: userID,
		CreatedAt: now,
	})
	if err != nil {
		if rerr := e.Inventory.Grant(ctx, p.ID, rules.WorkbenchCost, now); rerr != nil {
			e.logger().Error("refund after failed workbench insert", "player", p.ID, "err", rerr)
		}
		return PlaceResult{}, err
	}

	e.notify(live.PlayerScope(p.ID), "inventory")
	e.notify(live.BiomeScope(p.BiomeID), "stations")
	return PlaceResult{StationDocID: st.ID, Station: st}, nil
}

// spawnCoord picks floor(min + rand*(max-min)).
func spawnCoord(rng world.RNG, min, max float64) float64 {
	return math.Floor(min + rng.Float64()*(max-min))
}
