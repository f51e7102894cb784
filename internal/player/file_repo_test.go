package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildcraft/internal/world"
)

func TestCreate_OnePerUser(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()

	p, err := r.Create(ctx, Player{UserID: "u1", Name: "  Ada  ", BiomeID: "forest"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Ada", p.Name)

	_, err = r.Create(ctx, Player{UserID: "u1", Name: "Again"})
	assert.ErrorIs(t, err, ErrExists)

	_, err = r.Create(ctx, Player{UserID: "u2", Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidName)

	got, ok, err := r.GetByUser(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.ID, got.ID)
}

func TestUpdate_TierNeverDecreases(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	p, err := r.Create(ctx, Player{UserID: "u1", Name: "Ada", CraftingTier: 1})
	require.NoError(t, err)

	p.CraftingTier = 0
	p.UserID = "someone-else"
	p.Position = world.Position{X: 4, Y: 5}
	got, err := r.Update(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CraftingTier)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, world.Position{X: 4, Y: 5}, got.Position)

	_, err = r.Update(ctx, Player{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByBiome_SinceFilter(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	now := time.Unix(10_000, 0)

	_, _ = r.Create(ctx, Player{UserID: "u1", Name: "Fresh", BiomeID: "forest", LastSeen: now})
	_, _ = r.Create(ctx, Player{UserID: "u2", Name: "Stale", BiomeID: "forest", LastSeen: now.Add(-time.Hour)})
	_, _ = r.Create(ctx, Player{UserID: "u3", Name: "Away", BiomeID: "desert", LastSeen: now})

	online, err := r.ListByBiome(ctx, "forest", now.Add(-45*time.Second))
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "Fresh", online[0].Name)

	all, err := r.ListByBiome(ctx, "forest", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Fresh", all[0].Name)
}

func TestFileRepo_ReloadKeepsUserIndex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r, err := NewFileRepo(dir)
	require.NoError(t, err)
	_, err = r.Create(ctx, Player{UserID: "u1", Name: "Ada"})
	require.NoError(t, err)

	r2, err := NewFileRepo(dir)
	require.NoError(t, err)
	_, err = r2.Create(ctx, Player{UserID: "u1", Name: "Ada"})
	assert.ErrorIs(t, err, ErrExists)
}
