package inventory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func wood(n int) Line {
	return Line{Kind: KindMaterial, DefID: "wood", Stage: StageRaw, Qty: n}
}

func TestGrant_MergesIntoOneStack(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	require.NoError(t, r.Grant(ctx, "p1", []Line{wood(2)}, t0))
	require.NoError(t, r.Grant(ctx, "p1", []Line{wood(3), {Kind: KindItem, DefID: "torch", Qty: 0}}, t0.Add(time.Second)))

	stacks, err := r.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, stacks, 1)
	assert.Equal(t, 5, stacks[0].Qty)
	assert.Equal(t, StageRaw, stacks[0].Stage)
	assert.Equal(t, t0.Add(time.Second), stacks[0].UpdatedAt)
	assert.NotEmpty(t, stacks[0].ID)
}

func TestGrant_RejectsInvalidLines(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	err := r.Grant(ctx, "p1", []Line{{Kind: "gem", DefID: "x", Qty: 1}}, t0)
	assert.ErrorIs(t, err, ErrInvalidKind)
	err = r.Grant(ctx, "p1", []Line{{Kind: KindItem, Qty: 1}}, t0)
	assert.ErrorIs(t, err, ErrInvalidDefID)
}

func TestGrant_RejectsOverflowingStack(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	scrap := func(n int) Line {
		return Line{Kind: KindMaterial, DefID: "scrap_wood", Stage: StageRaw, Qty: n}
	}

	require.NoError(t, r.Grant(ctx, "p1", []Line{scrap(1)}, t0))

	err := r.Grant(ctx, "p1", []Line{scrap(math.MaxInt)}, t0)
	assert.ErrorIs(t, err, ErrQuantityTooLarge)

	// Each line fits on its own but the merged total does not.
	err = r.Grant(ctx, "p1", []Line{scrap(MaxStackQty / 2), scrap(MaxStackQty / 2), wood(1)}, t0)
	assert.ErrorIs(t, err, ErrQuantityTooLarge)

	qty, err := r.Quantities(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, qty[Key(KindMaterial, "scrap_wood")])
	assert.Zero(t, qty[Key(KindMaterial, "wood")])

	require.NoError(t, r.Grant(ctx, "p1", []Line{scrap(MaxStackQty - 1)}, t0))
	qty, err = r.Quantities(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, MaxStackQty, qty[Key(KindMaterial, "scrap_wood")])
}

func TestLedger_QuantityIsGrantsMinusConsumes(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	grants := []int{4, 7, 1, 9}
	consumes := []int{3, 50, 6, 2}
	want := 0
	for i := range grants {
		require.NoError(t, r.Grant(ctx, "p1", []Line{wood(grants[i])}, t0))
		want += grants[i]
		if err := r.Consume(ctx, "p1", []Line{wood(consumes[i])}, t0); err == nil {
			want -= consumes[i]
		} else {
			assert.ErrorIs(t, err, ErrInsufficientQuantity)
		}
	}

	q, err := r.Quantities(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, want, q["material:wood"])
}

func TestConsume_ToZeroDeletesStack(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	require.NoError(t, r.Grant(ctx, "p1", []Line{wood(2)}, t0))
	require.NoError(t, r.Consume(ctx, "p1", []Line{wood(2)}, t0))

	stacks, err := r.List(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, stacks)
}

func TestConsume_FailureLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	require.NoError(t, r.Grant(ctx, "p1", []Line{wood(5)}, t0))
	before, _ := r.Quantities(ctx, "p1")

	err := r.Consume(ctx, "p1", []Line{
		wood(5),
		{Kind: KindMaterial, DefID: "stone", Qty: 100},
	}, t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientQuantity))
	assert.Contains(t, err.Error(), "material:stone")

	after, _ := r.Quantities(ctx, "p1")
	assert.Equal(t, before, after)
}

func TestConsume_SumsDuplicateLines(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	require.NoError(t, r.Grant(ctx, "p1", []Line{wood(5)}, t0))
	err := r.Consume(ctx, "p1", []Line{wood(3), wood(3)}, t0)
	assert.ErrorIs(t, err, ErrInsufficientQuantity)

	q, _ := r.Quantities(ctx, "p1")
	assert.Equal(t, 5, q["material:wood"])
}

func TestFileRepo_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	r, err := NewFileRepo(dir)
	require.NoError(t, err)
	require.NoError(t, r.Grant(ctx, "p1", []Line{wood(4), {Kind: KindComponent, DefID: "cord", Qty: 1}}, t0))
	require.NoError(t, r.Consume(ctx, "p1", []Line{{Kind: KindComponent, DefID: "cord", Qty: 1}}, t0))

	reopened, err := NewFileRepo(dir)
	require.NoError(t, err)
	stacks, err := reopened.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, stacks, 1)
	assert.Equal(t, "wood", stacks[0].DefID)
	assert.Equal(t, 4, stacks[0].Qty)
}
