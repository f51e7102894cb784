package game

import (
	"net/http"
	"strings"
)

// GET /api/player/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	p, err := h.engine.GetMyPlayer(r.Context(), h.userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"player": p})
}

// POST /api/player
func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.engine.CreatePlayer(r.Context(), h.userID(r), in.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"playerId": p.ID, "player": p})
}

// POST /api/player/move
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var in struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	out, err := h.engine.MovePlayer(r.Context(), h.userID(r), in.DX, in.DY)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/player/touch
func (h *Handler) Touch(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	p, err := h.engine.TouchPlayer(r.Context(), h.userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": p != nil})
}

// GET /api/players?biome=&includeStale=
func (h *Handler) PlayersByBiome(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	biome := strings.TrimSpace(r.URL.Query().Get("biome"))
	if biome == "" {
		writeErr(w, http.StatusBadRequest, "biome is required")
		return
	}
	players, err := h.engine.ListPlayersByBiome(r.Context(), h.userID(r), biome, queryBool(r, "includeStale"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": players})
}
