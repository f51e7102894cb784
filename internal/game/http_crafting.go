package game

import "net/http"

// GET /api/crafting/recipes
func (h *Handler) Recipes(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	out, err := h.engine.ListRecipes(r.Context(), h.userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/crafting/defaults
func (h *Handler) Defaults(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	out, err := h.engine.EnsureDefaults(r.Context(), h.userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/crafting/stations
func (h *Handler) Stations(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	out, err := h.engine.ListStations(r.Context(), h.userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/crafting/queue
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	out, err := h.engine.ListQueue(r.Context(), h.userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/crafting/start
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var in struct {
		RecipeID string   `json:"recipeId"`
		Qty      *float64 `json:"qty"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.RecipeID == "" {
		writeErr(w, http.StatusBadRequest, "recipeId is required")
		return
	}
	out, err := h.engine.StartCraft(r.Context(), h.userID(r), in.RecipeID, in.Qty)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/crafting/claim {"now"?: unix-ms}
//
// now may replay an earlier moment but is capped at the server clock, so a
// client cannot finish crafts early. See ClientTime.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
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
	out, err := h.engine.ClaimCompleted(r.Context(), h.userID(r), in.Now)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
