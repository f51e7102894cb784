package world

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
)

// SeedGroup places Count nodes of one source within Spread of the center.
type SeedGroup struct {
	LootSourceID string
	Count        int
	Spread       int
}

// DefaultSeed is the starting layout of an empty biome. Progression caches
// stay within harvest range of the first player.
var DefaultSeed = []SeedGroup{
	{LootSourceID: "fallen_branch", Count: 10, Spread: 18},
	{LootSourceID: "boulder", Count: 6, Spread: 18},
	{LootSourceID: "abandoned_crate", Count: 4, Spread: 18},
	{LootSourceID: "lore_cache", Count: 2, Spread: 8},
	{LootSourceID: "workbench_blueprint_cache", Count: 1, Spread: 8},
}

// SeedPositions lays out the groups around center. Offsets are integer values
// in [-Spread, Spread] sampled from perlin noise seeded by rng, so nodes
// cluster the way terrain features do.
func SeedPositions(groups []SeedGroup, center Position, bounds Bounds, rng RNG) map[string][]Position {
	noise := perlin.NewPerlinRandSource(2, 2, 3, rand.NewSource(rng.Int63()))
	ox := rng.Float64() * 64
	oy := rng.Float64() * 64

	out := map[string][]Position{}
	sample := 0
	for _, g := range groups {
		for i := 0; i < g.Count; i++ {
			// Perlin noise is zero on integer lattice points.
			fx := ox + float64(sample)*0.731 + 0.37
			fy := oy + float64(sample)*0.419 + 0.61
			sample++
			dx := spreadOffset(noise.Noise2D(fx, fy), g.Spread)
			dy := spreadOffset(noise.Noise2D(fy+17.3, fx+5.9), g.Spread)
			out[g.LootSourceID] = append(out[g.LootSourceID], bounds.Clamp(Position{
				X: center.X + float64(dx),
				Y: center.Y + float64(dy),
			}))
		}
	}
	return out
}

// spreadOffset maps noise in roughly [-0.7, 0.7] onto [-spread, spread].
func spreadOffset(n float64, spread int) int {
	t := clamp((n/0.7+1)/2, 0, 1)
	off := int(math.Floor(t*float64(2*spread+1))) - spread
	if off > spread {
		off = spread
	}
	return off
}
