package game

import (
	"context"
	"fmt"
	"time"

	"wildcraft/internal/catalog"
	"wildcraft/internal/craft"
	"wildcraft/internal/inventory"
	"wildcraft/internal/live"
	"wildcraft/internal/player"
	"wildcraft/internal/unlock"
	"wildcraft/internal/world"
)

type RecipeView struct {
	ID         string            `json:"id"`
	Label      string            `json:"label"`
	Tier       int               `json:"tier"`
	StationID  string            `json:"stationId"`
	DurationMs int64             `json:"durationMs"`
	Unlocked   bool              `json:"unlocked"`
	LockReason *craft.LockReason `json:"lockReason"`
	Hint       *string           `json:"hint"`
	Craftable  bool              `json:"craftable"`
	MaxQty     int               `json:"maxQty"`
	Inputs     []inventory.Line  `json:"inputs"`
	Outputs    []inventory.Line  `json:"outputs"`
	Missing    []inventory.Line  `json:"missing"`
}

type RecipesResult struct {
	Player  *PlayerSummary `json:"player"`
	Recipes []RecipeView   `json:"recipes"`
}

type StationView struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Tier     int    `json:"tier"`
	Unlocked bool   `json:"unlocked"`
}

type StationsResult struct {
	Player   *PlayerSummary `json:"player"`
	Stations []StationView  `json:"stations"`
}

type QueueResult struct {
	Player *PlayerSummary `json:"player"`
	Jobs   []craft.Job    `json:"jobs"`
}

type StartResult struct {
	CraftJobID string `json:"craftJobId"`
	EndTime    int64  `json:"endTime"`
}

type ClaimResult struct {
	Claimed int `json:"claimed"`
}

// stationAccess reports whether a station of stationID is placed in the
// player's biome and whether one is within range.
func stationAccess(p player.Player, stationID string, placed []world.Station, r Rules) (bool, bool) {
	if stationID == r.AlwaysAtHand {
		return true, true
	}
	found := false
	for _, st := range placed {
		if st.StationID != stationID {
			continue
		}
		found = true
		if world.Within(st.Position, p.Position, r.StationRange) {
			return true, true
		}
	}
	return found, false
}

// ListRecipes evaluates every catalog recipe for the caller.
func (e *Engine) ListRecipes(ctx context.Context, userID string) (RecipesResult, error) {
	p, ok, err := e.findPlayer(ctx, userID)
	if err != nil {
		return RecipesResult{}, err
	}
	if !ok {
		return RecipesResult{Recipes: []RecipeView{}}, nil
	}

	held, err := e.Unlocks.Set(ctx, p.ID)
	if err != nil {
		return RecipesResult{}, err
	}
	have, err := e.Inventory.Quantities(ctx, p.ID)
	if err != nil {
		return RecipesResult{}, err
	}
	recipes, err := e.Catalog.Recipes(ctx)
	if err != nil {
		return RecipesResult{}, err
	}
	placed, err := e.World.ListStations(ctx, p.BiomeID)
	if err != nil {
		return RecipesResult{}, err
	}

	rules := e.rules()
	out := make([]RecipeView, 0, len(recipes))
	for _, rec := range recipes {
		onMap, inRange := stationAccess(p, rec.StationID, placed, rules)
		access := craft.Access{
			RecipeUnlocked:  held.Has(unlock.KindRecipe, rec.ID),
			StationUnlocked: held.Has(unlock.KindStation, rec.StationID),
			PlayerTier:      p.CraftingTier,
			RecipeTier:      rec.Tier,
			StationPlaced:   onMap,
			StationInRange:  inRange,
		}
		maxQty := craft.MaxCraftable(rec.Inputs, have)
		view := RecipeView{
			ID:         rec.ID,
			Label:      rec.Label,
			Tier:       rec.Tier,
			StationID:  rec.StationID,
			DurationMs: rec.DurationMs,
			Unlocked:   access.RecipeUnlocked,
			MaxQty:     maxQty,
			Inputs:     rec.Inputs,
			Outputs:    rec.Outputs,
			Missing:    craft.Missing(rec.Inputs, have),
		}
		if reason, hint := craft.Lock(access); reason != craft.LockNone {
			view.LockReason = &reason
			view.Hint = &hint
		} else {
			view.Craftable = maxQty >= 1
		}
		out = append(out, view)
	}
	return RecipesResult{Player: summarize(p), Recipes: out}, nil
}

// ListStations returns every station def with the caller's unlock state.
func (e *Engine) ListStations(ctx context.Context, userID string) (StationsResult, error) {
	p, ok, err := e.findPlayer(ctx, userID)
	if err != nil {
		return StationsResult{}, err
	}
	if !ok {
		return StationsResult{Stations: []StationView{}}, nil
	}
	held, err := e.Unlocks.Set(ctx, p.ID)
	if err != nil {
		return StationsResult{}, err
	}
	defs, err := e.Catalog.Stations(ctx)
	if err != nil {
		return StationsResult{}, err
	}
	out := make([]StationView, 0, len(defs))
	for _, st := range defs {
		out = append(out, StationView{
			ID:       st.ID,
			Label:    st.Label,
			Tier:     st.Tier,
			Unlocked: held.Has(unlock.KindStation, st.ID),
		})
	}
	return StationsResult{Player: summarize(p), Stations: out}, nil
}

// ListQueue returns the caller's craft jobs, newest first.
func (e *Engine) ListQueue(ctx context.Context, userID string) (QueueResult, error) {
	p, ok, err := e.findPlayer(ctx, userID)
	if err != nil {
		return QueueResult{}, err
	}
	if !ok {
		return QueueResult{Jobs: []craft.Job{}}, nil
	}
	jobs, err := e.Crafts.ListByPlayer(ctx, p.ID)
	if err != nil {
		return QueueResult{}, err
	}
	return QueueResult{Player: summarize(p), Jobs: jobs}, nil
}

func (e *Engine) unknownRecipe(ctx context.Context, recipeID string) error {
	recipes, err := e.Catalog.Recipes(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownRecipe, recipeID)
	}
	ids := make([]string, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
	}
	if s := catalog.Suggest(recipeID, ids); s != "" {
		return fmt.Errorf("%w: %s (did you mean %s?)", ErrUnknownRecipe, recipeID, s)
	}
	return fmt.Errorf("%w: %s", ErrUnknownRecipe, recipeID)
}

// StartCraft debits the scaled inputs and queues a timed job. qty nil means 1.
func (e *Engine) StartCraft(ctx context.Context, userID, recipeID string, qty *float64) (StartResult, error) {
	p, unlockFn, err := e.lockPlayer(ctx, userID)
	if err != nil {
		return StartResult{}, err
	}
	defer unlockFn()

	rules := e.rules()
	held, err := e.Unlocks.Set(ctx, p.ID)
	if err != nil {
		return StartResult{}, err
	}
	rec, exists, err := e.Catalog.Recipe(ctx, recipeID)
	if err != nil {
		return StartResult{}, err
	}
	if !held.Has(unlock.KindRecipe, recipeID) {
		if !exists {
			return StartResult{}, e.unknownRecipe(ctx, recipeID)
		}
		return StartResult{}, ErrRecipeLocked
	}
	if !exists {
		return StartResult{}, e.unknownRecipe(ctx, recipeID)
	}

	n, err := craft.ValidateQty(qty, rules.MaxQty)
	if err != nil {
		return StartResult{}, err
	}
	if p.CraftingTier < rec.Tier {
		return StartResult{}, ErrTierTooLow
	}
	if !held.Has(unlock.KindStation, rec.StationID) {
		return StartResult{}, ErrStationLocked
	}
	if rec.StationID != rules.AlwaysAtHand {
		placed, err := e.World.ListStations(ctx, p.BiomeID)
		if err != nil {
			return StartResult{}, err
		}
		onMap, inRange := stationAccess(p, rec.StationID, placed, rules)
		if !onMap {
			return StartResult{}, ErrStationNotPlaced
		}
		if !inRange {
			return StartResult{}, ErrStationTooFar
		}
	}

	inputs := craft.Scale(rec.Inputs, n)
	outputs := craft.Scale(rec.Outputs, n)
	now := e.now()
	if err := e.Inventory.Consume(ctx, p.ID, inputs, now); err != nil {
		return StartResult{}, err
	}

	job, err := e.Crafts.Insert(ctx, craft.Job{
		PlayerID:  p.ID,
		RecipeID:  rec.ID,
		StationID: rec.StationID,
		Qty:       n,
		Status:    craft.StatusInProgress,
		CreatedAt: now,
		StartAt:   now,
		EndAt:     now.Add(time.Duration(rec.DurationMs*int64(n)) * time.Millisecond),
		Inputs:    inputs,
		Outputs:   outputs,
	})
	if err != nil {
		if rerr := e.Inventory.Grant(ctx, p.ID, inputs, now); rerr != nil {
			e.logger().Error("refund after failed job insert", "player", p.ID, "recipe", rec.ID, "err", rerr)
		}
		return StartResult{}, err
	}

	e.notify(live.PlayerScope(p.ID), "inventory")
	e.notify(live.PlayerScope(p.ID), "queue")
	return StartResult{CraftJobID: job.ID, EndTime: job.EndAt.UnixMilli()}, nil
}

// ClaimCompleted credits every due job of the caller.
func (e *Engine) ClaimCompleted(ctx context.Context, userID string, clientNow *int64) (ClaimResult, error) {
	p, unlockFn, err := e.lockPlayer(ctx, userID)
	if err != nil {
		return ClaimResult{}, err
	}
	defer unlockFn()

	n, err := e.claimLocked(ctx, p, e.resolveNow(clientNow))
	if err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{Claimed: n}, nil
}

// claimLocked must run under the player's lock. Outputs are granted before
// the job is marked done; a failed mark takes the outputs back.
func (e *Engine) claimLocked(ctx context.Context, p player.Player, now time.Time) (int, error) {
	due, err := e.Crafts.ListDue(ctx, p.ID, now)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	claimed := 0
	var credited []inventory.Line
	for _, job := range due {
		if err := e.Inventory.Grant(ctx, p.ID, job.Outputs, now); err != nil {
			return claimed, err
		}
		if _, err := e.Crafts.MarkDone(ctx, job.ID, now); err != nil {
			if cerr := e.Inventory.Consume(ctx, p.ID, job.Outputs, now); cerr != nil {
				e.logger().Error("take back outputs after failed claim", "job", job.ID, "err", cerr)
			}
			return claimed, err
		}
		credited = append(credited, job.Outputs...)
		claimed++
	}

	rules := e.rules()
	if next := catalog.PromotedTier(rules.TierGates, p.CraftingTier, credited); next > p.CraftingTier {
		p.CraftingTier = next
		if _, err := e.Players.Update(ctx, p); err != nil {
			return claimed, err
		}
		e.logger().Info("tier up", "player", p.ID, "tier", next)
	}

	e.notify(live.PlayerScope(p.ID), "inventory")
	e.notify(live.PlayerScope(p.ID), "queue")
	return claimed, nil
}

// CompleteDueCrafts claims due jobs for every player. It is the server-side
// sweep; the per-player lock makes it safe to race with ClaimCompleted.
func (e *Engine) CompleteDueCrafts(ctx context.Context) (int, error) {
	now := e.now()
	ids, err := e.Crafts.PlayersWithDue(ctx, now)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := e.completeFor(ctx, id, now)
		total += n
		if err != nil {
			e.logger().Error("complete crafts", "player", id, "err", err)
		}
	}
	return total, nil
}

func (e *Engine) completeFor(ctx context.Context, playerID string, now time.Time) (int, error) {
	unlockFn := e.locks.Lock(playerKey(playerID))
	defer unlockFn()

	p, ok, err := e.Players.Get(ctx, playerID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrPlayerNotFound
	}
	return e.claimLocked(ctx, p, now)
}
