package game

import (
	"context"
	"net/http"
	"strings"

	"wildcraft/internal/inventory"
)

type itemsRequest struct {
	PlayerID string           `json:"playerId"`
	Items    []inventory.Line `json:"items"`
}

// GET /api/inventory?playerId=
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	playerID := strings.TrimSpace(r.URL.Query().Get("playerId"))
	if playerID == "" {
		writeErr(w, http.StatusBadRequest, "playerId is required")
		return
	}
	stacks, err := h.engine.ListInventory(r.Context(), h.userID(r), playerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": stacks})
}

// POST /api/inventory/grant
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	h.applyItems(w, r, h.engine.GrantItems)
}

// POST /api/inventory/consume
func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	h.applyItems(w, r, h.engine.ConsumeItems)
}

func (h *Handler) applyItems(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID, playerID string, items []inventory.Line) error) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var in itemsRequest
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(in.PlayerID) == "" {
		writeErr(w, http.StatusBadRequest, "playerId is required")
		return
	}
	if err := apply(r.Context(), h.userID(r), in.PlayerID, in.Items); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
