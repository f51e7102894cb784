package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildcraft/internal/inventory"
)

func TestEnsureDefaults_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	first, err := EnsureDefaults(ctx, r)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"campfire", "basic_workbench"}, first.StationIDs)
	assert.Len(t, first.RecipeIDs, 5)

	second, err := EnsureDefaults(ctx, r)
	require.NoError(t, err)
	assert.True(t, second.Empty())
}

func TestSeed_NeverOverwrites(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	_, err := r.Seed(ctx, []StationDef{{ID: "campfire", Label: "Old fire", Tier: 3}}, nil)
	require.NoError(t, err)
	_, err = EnsureDefaults(ctx, r)
	require.NoError(t, err)

	st, ok, err := r.Station(ctx, "campfire")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Old fire", st.Label)
	assert.Equal(t, 3, st.Tier)
}

func TestStations_SortedByTierThenLabel(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	_, err := r.Seed(ctx, []StationDef{
		{ID: "c", Label: "Zeta", Tier: 0},
		{ID: "b", Label: "Alpha", Tier: 1},
		{ID: "a", Label: "Beta", Tier: 0},
	}, nil)
	require.NoError(t, err)

	got, err := r.Stations(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, st := range got {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids)
}

func TestRecipe_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	_, err := EnsureDefaults(ctx, r)
	require.NoError(t, err)

	rec, ok, err := r.Recipe(ctx, "twist_fiber_cord")
	require.NoError(t, err)
	require.True(t, ok)
	rec.Inputs[0].Qty = 99

	again, _, _ := r.Recipe(ctx, "twist_fiber_cord")
	assert.Equal(t, 2, again.Inputs[0].Qty)
}

func TestFileRepo_Reload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	r, err := NewFileRepo(dir)
	require.NoError(t, err)
	_, err = EnsureDefaults(ctx, r)
	require.NoError(t, err)

	r2, err := NewFileRepo(dir)
	require.NoError(t, err)
	rec, ok, err := r2.Recipe(ctx, "carve_wooden_shaft")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "basic_workbench", rec.StationID)
	assert.Equal(t, int64(2800), rec.DurationMs)
}

func TestPromotedTier(t *testing.T) {
	gates := DefaultTierGates()
	torch := []inventory.Line{{Kind: inventory.KindItem, DefID: "crude_torch", Qty: 1}}
	cord := []inventory.Line{{Kind: inventory.KindComponent, DefID: "fiber_cord", Qty: 1}}

	assert.Equal(t, 1, PromotedTier(gates, 0, torch))
	assert.Equal(t, 2, PromotedTier(gates, 2, torch), "tier never drops")
	assert.Equal(t, 0, PromotedTier(gates, 0, cord))
}

func TestSuggest(t *testing.T) {
	ids := []string{"twist_fiber_cord", "make_bark_tinder", "craft_crude_torch"}
	assert.Equal(t, "twist_fiber_cord", Suggest("twist_fibre_cord", ids))
	assert.Equal(t, "craft_crude_torch", Suggest("Craft_Crude_Torch", ids))
	assert.Equal(t, "", Suggest("anvil", ids))
	assert.Equal(t, "", Suggest("", ids))
}
