package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the sign-in routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/request-otp", post(h.RequestOTP))
	mux.HandleFunc("/api/auth/verify-otp", post(h.VerifyOTP))
	mux.HandleFunc("/api/auth/session", h.Session)
	mux.HandleFunc("/api/auth/logout", post(h.Logout))
}

func post(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		next(w, r)
	}
}

// errStatus maps sign-in failures to responses. Anything unlisted is a 500
// whose message is not shown to the client.
var errStatus = []struct {
	err  error
	code int
}{
	{ErrInvalidEmail, http.StatusBadRequest},
	{ErrInvalidOTPFormat, http.StatusBadRequest},
	{ErrInvalidOTP, http.StatusUnauthorized},
	{ErrOTPExpired, http.StatusUnauthorized},
	{ErrTooManyOTPAttempts, http.StatusTooManyRequests},
}

func writeServiceErr(w http.ResponseWriter, err error, fallback string) {
	for _, m := range errStatus {
		if errors.Is(err, m.err) {
			writeErr(w, m.code, err.Error())
			return
		}
	}
	writeErr(w, http.StatusInternalServerError, fallback)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type credentials struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return credentials{}, false
	}
	return in, true
}

// POST /api/auth/request-otp
//
// There is no mail transport. The code is written to the server log at info
// level and the sign-in flow reads it from there.
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	exp, code, err := h.service.RequestOTP(in.Email, time.Now())
	if err != nil {
		writeServiceErr(w, err, "could not request otp")
		return
	}
	h.service.logger.Info("otp issued", "email", normalizeEmail(in.Email), "code", code, "expires", exp.Format(time.RFC3339))
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"expiresAt": exp.Format(time.RFC3339),
	})
}

// POST /api/auth/verify-otp
//
// Sets the session cookie and also returns the token for bearer clients.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	u, token, exp, err := h.service.VerifyOTP(in.Email, in.Code, time.Now())
	if err != nil {
		writeServiceErr(w, err, "could not verify otp")
		return
	}
	h.service.SetSessionCookie(w, r, token, exp)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"user":      userBody{ID: u.ID, Email: u.Email},
		"token":     token,
		"expiresAt": exp.Format(time.RFC3339),
	})
}

// GET /api/auth/session
//
// player is null until the user creates one through POST /api/player.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	p, ok := h.service.Authenticate(r, time.Now())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var player *PlayerRef
	if p.HasPlayer() {
		player = &p.Player
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": userBody{ID: p.User.ID, Email: p.User.Email},
		"session": map[string]any{
			"id":        p.Session.ID,
			"expiresAt": p.Session.ExpiresAt.Format(time.RFC3339),
			"lastSeen":  p.Session.LastSeen.Format(time.RFC3339),
		},
		"player": player,
	})
}

// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.RevokeSessionForRequest(r)
	h.service.ClearSessionCookie(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
