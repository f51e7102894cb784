package game

import (
	"net/http"
	"strings"

	"wildcraft/internal/world"
)

// GET /api/world/nodes?biome=&includeDepleted=
// POST /api/world/nodes
func (h *Handler) Nodes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		biome := strings.TrimSpace(r.URL.Query().Get("biome"))
		if biome == "" {
			writeErr(w, http.StatusBadRequest, "biome is required")
			return
		}
		nodes, err := h.engine.ListNodes(r.Context(), h.userID(r), biome, queryBool(r, "includeDepleted"))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
	case http.MethodPost:
		var in struct {
			BiomeID      string         `json:"biomeId"`
			LootSourceID string         `json:"lootSourceId"`
			Position     world.Position `json:"position"`
		}
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		node, err := h.engine.SpawnNode(r.Context(), h.userID(r), in.BiomeID, in.LootSourceID, in.Position)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"lootNodeId": node.ID, "node": node})
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// POST /api/world/nodes/harvest {"lootNodeId", "now"?: unix-ms}
//
// now is capped at the server clock, so cooldowns and respawns cannot be
// skipped by sending a later time.
func (h *Handler) Harvest(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var in struct {
		LootNodeID string `json:"lootNodeId"`
		Now        *int64 `json:"now"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.LootNodeID == "" {
		writeErr(w, http.StatusBadRequest, "lootNodeId is required")
		return
	}
	out, err := h.engine.Harvest(r.Context(), h.userID(r), in.LootNodeID, in.Now)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/world/nodes/deplete
func (h *Handler) Deplete(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var in struct {
		LootNodeID     string `json:"lootNodeId"`
		RespawnDelayMs *int64 `json:"respawnDelayMs"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.LootNodeID == "" {
		writeErr(w, http.StatusBadRequest, "lootNodeId is required")
		return
	}
	node, err := h.engine.MarkDepleted(r.Context(), h.userID(r), in.LootNodeID, in.RespawnDelayMs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "node": node})
}

// POST /api/world/respawns/tick {"now"?: unix-ms}
//
// Respawns every node due at now, which is capped at the server clock.
func (h *Handler) TickRespawns(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var in struct {
		Now *int64 `json:"now"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	out, err := h.engine.TickRespawns(r.Context(), in.Now)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/world/seed
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	out, err := h.engine.EnsureBiomeSeed(r.Context(), h.userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/world/harvests?limit=
func (h *Handler) Harvests(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	rolls, err := h.engine.ListHarvests(r.Context(), h.userID(r), queryInt(r, "limit"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"harvests": rolls})
}

// GET /api/world/stations?biome=
// POST /api/world/stations
func (h *Handler) WorldStations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		biome := strings.TrimSpace(r.URL.Query().Get("biome"))
		if biome == "" {
			writeErr(w, http.StatusBadRequest, "biome is required")
			return
		}
		stations, err := h.engine.ListStationsByBiome(r.Context(), h.userID(r), biome)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stations": stations})
	case http.MethodPost:
		var in struct {
			BiomeID   string         `json:"biomeId"`
			StationID string         `json:"stationId"`
			Position  world.Position `json:"position"`
		}
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		st, err := h.engine.SpawnStation(r.Context(), h.userID(r), in.BiomeID, in.StationID, in.Position)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stationDocId": st.ID, "station": st})
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// POST /api/world/stations/workbench
func (h *Handler) Workbench(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	out, err := h.engine.PlaceWorkbench(r.Context(), h.userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
