package catalog

import "context"

type Repository interface {
	// Seed inserts the given defs whose ids are not present yet. Existing
	// defs are never overwritten.
	Seed(ctx context.Context, stations []StationDef, recipes []RecipeDef) (Seeded, error)

	Stations(ctx context.Context) ([]StationDef, error)
	Station(ctx context.Context, id string) (StationDef, bool, error)
	Recipes(ctx context.Context) ([]RecipeDef, error)
	Recipe(ctx context.Context, id string) (RecipeDef, bool, error)
}

// EnsureDefaults seeds the built-in stations and recipes.
func EnsureDefaults(ctx context.Context, repo Repository) (Seeded, error) {
	return repo.Seed(ctx, DefaultStations(), DefaultRecipes())
}
