package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidate closest to id, or "" when nothing is close
// enough to be a plausible typo.
func Suggest(id string, candidates []string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return ""
	}
	limit := len(id) / 3
	if limit < 2 {
		limit = 2
	}

	best := ""
	bestDist := limit + 1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(id, c)
		if d < bestDist || (d == bestDist && c < best) {
			best, bestDist = c, d
		}
	}
	if bestDist > limit {
		return ""
	}
	return best
}
