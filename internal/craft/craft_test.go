package craft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildcraft/internal/inventory"
)

func line(kind inventory.Kind, id string, qty int) inventory.Line {
	return inventory.Line{Kind: kind, DefID: id, Qty: qty}
}

func TestValidateQty(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	q, err := ValidateQty(nil, 99)
	require.NoError(t, err)
	assert.Equal(t, 1, q)

	q, err = ValidateQty(f(3.7), 99)
	require.NoError(t, err)
	assert.Equal(t, 3, q)

	q, err = ValidateQty(f(99.5), 99)
	require.NoError(t, err)
	assert.Equal(t, 99, q)

	for _, bad := range []float64{0, 0.5, -2, 100} {
		_, err = ValidateQty(f(bad), 99)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "qty %v", bad)
	}
}

func TestScale(t *testing.T) {
	in := []inventory.Line{line(inventory.KindMaterial, "wood", 2), line(inventory.KindComponent, "cord", 1)}
	got := Scale(in, 3)
	assert.Equal(t, 6, got[0].Qty)
	assert.Equal(t, 3, got[1].Qty)
	assert.Equal(t, 2, in[0].Qty, "source lines untouched")
}

func TestMaxCraftableAndMissing(t *testing.T) {
	in := []inventory.Line{line(inventory.KindMaterial, "wood", 2), line(inventory.KindComponent, "cord", 1)}
	have := map[string]int{"material:wood": 7, "component:cord": 2}

	assert.Equal(t, 2, MaxCraftable(in, have))
	assert.Equal(t, 0, MaxCraftable(nil, have))
	assert.Empty(t, Missing(in, have))

	have = map[string]int{"material:wood": 1}
	assert.Equal(t, 0, MaxCraftable(in, have))
	missing := Missing(in, have)
	require.Len(t, missing, 2)
	assert.Equal(t, 1, missing[0].Qty)
	assert.Equal(t, 1, missing[1].Qty)
}

func TestLock_Precedence(t *testing.T) {
	open := Access{RecipeUnlocked: true, StationUnlocked: true, StationPlaced: true, StationInRange: true}

	reason, hint := Lock(open)
	assert.Equal(t, LockNone, reason)
	assert.Empty(t, hint)

	// Locked and not placed: the recipe lock wins.
	a := open
	a.RecipeUnlocked = false
	a.StationPlaced = false
	reason, hint = Lock(a)
	assert.Equal(t, LockRecipe, reason)
	assert.Equal(t, "Unlock via caches in the world.", hint)

	a = open
	a.StationUnlocked = false
	a.RecipeTier = 1
	reason, _ = Lock(a)
	assert.Equal(t, LockStation, reason)

	a = open
	a.RecipeTier = 1
	a.StationInRange = false
	reason, _ = Lock(a)
	assert.Equal(t, LockTier, reason)

	a = open
	a.StationPlaced = false
	a.StationInRange = false
	reason, _ = Lock(a)
	assert.Equal(t, LockStationNotPlaced, reason)

	a = open
	a.StationInRange = false
	reason, hint = Lock(a)
	assert.Equal(t, LockStationTooFar, reason)
	assert.Equal(t, "Move closer to the station on the map.", hint)
}

func TestRepo_DueAndMarkDone(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	base := time.Unix(1_000, 0)

	early, err := r.Insert(ctx, Job{PlayerID: "p1", RecipeID: "a", Qty: 1, CreatedAt: base, StartAt: base, EndAt: base.Add(time.Second)})
	require.NoError(t, err)
	late, err := r.Insert(ctx, Job{PlayerID: "p1", RecipeID: "b", Qty: 1, CreatedAt: base.Add(time.Millisecond), StartAt: base, EndAt: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, early.Status)

	due, err := r.ListDue(ctx, "p1", base)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = r.ListDue(ctx, "p1", base.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, early.ID, due[0].ID)

	players, err := r.PlayersWithDue(ctx, base.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, players)

	done, err := r.MarkDone(ctx, early.ID, base.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, StatusDone, done.Status)
	require.NotNil(t, done.CompletedAt)

	_, err = r.MarkDone(ctx, early.ID, base.Add(3*time.Second))
	assert.ErrorIs(t, err, ErrJobNotDue)
	_, err = r.MarkDone(ctx, "missing", base)
	assert.ErrorIs(t, err, ErrJobNotFound)

	all, err := r.ListByPlayer(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, late.ID, all[0].ID, "newest first")
}

func TestFileRepo_Reload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	base := time.Unix(1_000, 0).UTC()

	r, err := NewFileRepo(dir)
	require.NoError(t, err)
	j, err := r.Insert(ctx, Job{PlayerID: "p1", RecipeID: "a", Qty: 2, CreatedAt: base, EndAt: base,
		Outputs: []inventory.Line{line(inventory.KindItem, "torch", 2)}})
	require.NoError(t, err)

	r2, err := NewFileRepo(dir)
	require.NoError(t, err)
	got, ok, err := r2.Get(ctx, j.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.Outputs[0].Qty)
}
