package game

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Handler exposes the engine over HTTP+JSON. The caller's user id comes from
// the resolver, which serverapp backs with the auth session.
type Handler struct {
	engine       *Engine
	userResolver func(r *http.Request) string
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) SetUserResolver(fn func(r *http.Request) string) {
	h.userResolver = fn
}

func (h *Handler) userID(r *http.Request) string {
	if h.userResolver == nil {
		return ""
	}
	return h.userResolver(r)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// decodeJSON accepts an empty body as "no fields".
func decodeJSON(r *http.Request, out any) error {
	err := json.NewDecoder(r.Body).Decode(out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// StatusFor maps engine errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case IsNotFound(err):
		return http.StatusNotFound
	case IsPrecondition(err):
		return http.StatusConflict
	case IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		h.engine.logger().Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeErr(w, code, "internal error")
		return
	}
	writeErr(w, code, err.Error())
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return n
}

// Register mounts every game route on mux, each wrapped by auth.
func (h *Handler) Register(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}
	routes := map[string]http.HandlerFunc{
		"/api/crafting/recipes":         h.Recipes,
		"/api/crafting/defaults":        h.Defaults,
		"/api/crafting/stations":        h.Stations,
		"/api/crafting/queue":           h.Queue,
		"/api/crafting/start":           h.Start,
		"/api/crafting/claim":           h.Claim,
		"/api/inventory":                h.Inventory,
		"/api/inventory/grant":          h.Grant,
		"/api/inventory/consume":        h.Consume,
		"/api/world/nodes":              h.Nodes,
		"/api/world/nodes/harvest":      h.Harvest,
		"/api/world/nodes/deplete":      h.Deplete,
		"/api/world/seed":               h.Seed,
		"/api/world/harvests":           h.Harvests,
		"/api/world/stations":           h.WorldStations,
		"/api/world/stations/workbench": h.Workbench,
		"/api/player":                   h.CreatePlayer,
		"/api/player/me":                h.Me,
		"/api/player/move":              h.Move,
		"/api/player/touch":             h.Touch,
		"/api/players":                  h.PlayersByBiome,
	}
	for path, fn := range routes {
		mux.Handle(path, auth(fn))
	}
	// Respawn ticks are driven by clients and the sweep alike.
	mux.HandleFunc("/api/world/respawns/tick", h.TickRespawns)
}
