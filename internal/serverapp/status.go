package serverapp

import (
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"

	"wildcraft/internal/game"
	"wildcraft/internal/live"
	"wildcraft/internal/sweep"
)

//go:generate templ generate

type statusView struct {
	Recipes  int
	Stations int
	Clients  int
	Sweeps   []string
	Now      time.Time
}

func sweepsLabel(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// statusHandler serves the status page at / and JSON 404s elsewhere.
func statusHandler(engine *game.Engine, hub *live.Hub, sweeps *sweep.Scheduler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
			return
		}
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		recipes, err := engine.Catalog.Recipes(r.Context())
		if err != nil {
			http.Error(w, "catalog unavailable", http.StatusServiceUnavailable)
			return
		}
		stations, err := engine.Catalog.Stations(r.Context())
		if err != nil {
			http.Error(w, "catalog unavailable", http.StatusServiceUnavailable)
			return
		}
		templ.Handler(statusPage(statusView{
			Recipes:  len(recipes),
			Stations: len(stations),
			Clients:  hub.Clients(),
			Sweeps:   sweeps.Names(),
			Now:      time.Now(),
		})).ServeHTTP(w, r)
	})
}
