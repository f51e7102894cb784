package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"wildcraft/internal/config"
	"wildcraft/internal/serverapp"
)

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/crafting/recipes", "/api/player/me", "/api/world/nodes?biome=forest", "/api/live"} {
		res := app.request(http.MethodGet, path, nil, "")
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, res.Code)
		}
	}

	res := app.request(http.MethodGet, "/api/auth/session", nil, "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for session without cookie, got %d", res.Code)
	}
}

func TestServer_HealthAndReadinessExposeRequestID(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		res := app.request(http.MethodGet, path, nil, "")
		if res.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d body=%s", path, res.Code, res.Body.String())
		}
		if rid := strings.TrimSpace(res.Header().Get("X-Request-Id")); rid == "" {
			t.Fatalf("%s missing X-Request-Id header", path)
		}
	}
}

func TestServer_OTPFlowAndCrafting(t *testing.T) {
	app := newTestApp(t)
	const email = "integration@example.com"

	res := app.json(http.MethodPost, "/api/auth/request-otp", map[string]any{
		"email": email,
	})
	if res.Code != http.StatusOK {
		t.Fatalf("request otp expected 200, got %d body=%s", res.Code, res.Body.String())
	}

	code := otpCodeFromLogs(t, app.logs)
	verifyRes := app.json(http.MethodPost, "/api/auth/verify-otp", map[string]any{
		"email": email,
		"code":  code,
	})
	if verifyRes.Code != http.StatusOK {
		t.Fatalf("verify otp expected 200, got %d body=%s", verifyRes.Code, verifyRes.Body.String())
	}

	sessionRes := app.request(http.MethodGet, "/api/auth/session", nil, "")
	if sessionRes.Code != http.StatusOK {
		t.Fatalf("session expected 200, got %d body=%s", sessionRes.Code, sessionRes.Body.String())
	}

	meRes := app.request(http.MethodGet, "/api/player/me", nil, "")
	if meRes.Code != http.StatusOK {
		t.Fatalf("me expected 200, got %d body=%s", meRes.Code, meRes.Body.String())
	}
	if !strings.Contains(meRes.Body.String(), `"player":null`) {
		t.Fatalf("expected no player before creation, got %s", meRes.Body.String())
	}

	createRes := app.json(http.MethodPost, "/api/player", map[string]any{"name": "Integration"})
	if createRes.Code != http.StatusCreated {
		t.Fatalf("create player expected 201, got %d body=%s", createRes.Code, createRes.Body.String())
	}
	var created struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.Unmarshal(createRes.Body.Bytes(), &created); err != nil || created.PlayerID == "" {
		t.Fatalf("create player returned no id: %v body=%s", err, createRes.Body.String())
	}

	sessionRes = app.request(http.MethodGet, "/api/auth/session", nil, "")
	if !strings.Contains(sessionRes.Body.String(), `"id":"`+created.PlayerID+`"`) {
		t.Fatalf("session should name the new player %s, got %s", created.PlayerID, sessionRes.Body.String())
	}

	recipesRes := app.request(http.MethodGet, "/api/crafting/recipes", nil, "")
	if recipesRes.Code != http.StatusOK {
		t.Fatalf("recipes expected 200, got %d body=%s", recipesRes.Code, recipesRes.Body.String())
	}
	if !strings.Contains(recipesRes.Body.String(), "twist_fiber_cord") {
		t.Fatalf("recipes should include the starter recipe, got %s", recipesRes.Body.String())
	}

	nodesRes := app.request(http.MethodGet, "/api/world/nodes?biome=forest", nil, "")
	if nodesRes.Code != http.StatusOK {
		t.Fatalf("nodes expected 200, got %d body=%s", nodesRes.Code, nodesRes.Body.String())
	}

	logoutRes := app.request(http.MethodPost, "/api/auth/logout", nil, "")
	if logoutRes.Code != http.StatusOK {
		t.Fatalf("logout expected 200, got %d", logoutRes.Code)
	}
	after := app.request(http.MethodGet, "/api/player/me", nil, "")
	if after.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", after.Code)
	}
}

func TestServer_StatusPageAndEmbeddedStatic(t *testing.T) {
	app := newTestApp(t)

	res := app.request(http.MethodGet, "/", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("status page expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "<h1>wildcraft</h1>") {
		t.Fatalf("status page missing heading: %s", res.Body.String())
	}

	missing := app.request(http.MethodGet, "/nope", nil, "")
	if missing.Code != http.StatusNotFound {
		t.Fatalf("unknown path expected 404, got %d", missing.Code)
	}

	staticRes := app.request(http.MethodGet, "/static/css/wildcraft.css", nil, "")
	if staticRes.Code != http.StatusOK {
		t.Fatalf("embedded static asset expected 200, got %d", staticRes.Code)
	}
	if staticRes.Body.Len() == 0 {
		t.Fatalf("embedded static asset should not be empty")
	}
}

type testApp struct {
	handler http.Handler
	logs    *bytes.Buffer
	cookies map[string]*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := loadTestConfig(t)
	cfg.Storage.AuditDriver = "memory"

	var logs bytes.Buffer
	logger := serverapp.NewLogger(config.LoggingConfig{Level: "info", Format: "text"}, &logs)

	h, err := serverapp.NewHandler(serverapp.Options{
		Config:  cfg,
		DataDir: t.TempDir(),
		Logger:  logger,
	})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	return &testApp{
		handler: h,
		logs:    &logs,
		cookies: map[string]*http.Cookie{},
	}
}

func (a *testApp) json(method, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	return a.request(method, path, bytes.NewReader(b), "application/json")
}

func (a *testApp) request(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	a.captureCookies(rec.Result())
	return rec
}

func (a *testApp) captureCookies(res *http.Response) {
	for _, c := range res.Cookies() {
		if c == nil {
			continue
		}
		if c.MaxAge < 0 || strings.TrimSpace(c.Value) == "" {
			delete(a.cookies, c.Name)
			continue
		}
		cp := *c
		a.cookies[c.Name] = &cp
	}
}

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfgPath := filepath.Join(projectRoot(t), "wildcraft_config.yml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config %s: %v", cfgPath, err)
	}
	return cfg
}

func projectRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime.Caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

var otpCodePattern = regexp.MustCompile(`code=(\d{6})`)

func otpCodeFromLogs(t *testing.T, logs *bytes.Buffer) string {
	t.Helper()
	matches := otpCodePattern.FindAllStringSubmatch(logs.String(), -1)
	if len(matches) == 0 {
		t.Fatalf("otp code not found in logs: %s", logs.String())
	}
	return matches[len(matches)-1][1]
}
