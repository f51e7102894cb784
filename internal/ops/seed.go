package ops

import (
	"context"
	"path/filepath"

	"wildcraft/internal/catalog"
)

// SeedCatalog writes the built-in stations and recipes into the game store
// under dataDir. Defs already present are left untouched.
func SeedCatalog(ctx context.Context, dataDir string) (catalog.Seeded, error) {
	repo, err := catalog.NewFileRepo(filepath.Join(dataDir, "game"))
	if err != nil {
		return catalog.Seeded{}, err
	}
	return catalog.EnsureDefaults(ctx, repo)
}
