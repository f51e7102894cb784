package serverapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"wildcraft/internal/audit"
	"wildcraft/internal/auth"
	"wildcraft/internal/catalog"
	"wildcraft/internal/config"
	"wildcraft/internal/craft"
	"wildcraft/internal/game"
	"wildcraft/internal/httpmw"
	"wildcraft/internal/inventory"
	"wildcraft/internal/live"
	"wildcraft/internal/player"
	"wildcraft/internal/sweep"
	"wildcraft/internal/unlock"
	"wildcraft/internal/world"
	staticfiles "wildcraft/static"
)

type Options struct {
	Config  *config.Config
	DataDir string
	Logger  *log.Logger
	Clock   game.Clock
}

// App is a fully wired server: repositories, engine, live hub and sweeps.
type App struct {
	Handler http.Handler
	Engine  *game.Engine
	Hub     *live.Hub
	Sweeps  *sweep.Scheduler

	audit audit.Repository
}

func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config
	if strings.TrimSpace(opts.DataDir) == "" {
		opts.DataDir = cfg.Storage.DataDir
	}
	if strings.TrimSpace(opts.DataDir) == "" {
		opts.DataDir = "data"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = game.SystemClock{}
	}
	logger := opts.Logger
	dataDir := opts.DataDir

	players, err := player.NewFileRepo(filepath.Join(dataDir, "game"))
	if err != nil {
		return nil, err
	}
	inv, err := inventory.NewFileRepo(filepath.Join(dataDir, "game"))
	if err != nil {
		return nil, err
	}
	unlocks, err := unlock.NewFileRepo(filepath.Join(dataDir, "game"))
	if err != nil {
		return nil, err
	}
	cat, err := catalog.NewFileRepo(filepath.Join(dataDir, "game"))
	if err != nil {
		return nil, err
	}
	crafts, err := craft.NewFileRepo(filepath.Join(dataDir, "game"))
	if err != nil {
		return nil, err
	}
	worldRepo, err := world.NewFileRepo(filepath.Join(dataDir, "game"))
	if err != nil {
		return nil, err
	}
	auditRepo, err := openAudit(cfg.Storage, dataDir)
	if err != nil {
		return nil, err
	}

	hub := live.NewHub(logger.WithPrefix("live"))
	engine := &game.Engine{
		Players:   players,
		Inventory: inv,
		Unlocks:   unlocks,
		Catalog:   cat,
		Crafts:    crafts,
		World:     worldRepo,
		Audit:     auditRepo,
		Clock:     opts.Clock,
		Live:      hub,
		Logger:    logger.WithPrefix("game"),
		Rules:     game.RulesFromConfig(cfg),
	}
	if _, err := engine.Bootstrap(ctx); err != nil {
		_ = auditRepo.Close()
		return nil, err
	}

	authRepo, err := auth.NewFileRepo(filepath.Join(dataDir, "auth"))
	if err != nil {
		_ = auditRepo.Close()
		return nil, err
	}
	authService := auth.NewService(authRepo, logger.WithPrefix("auth"))
	authService.SetPlayerLookup(func(ctx context.Context, userID string) (auth.PlayerRef, bool, error) {
		p, err := engine.GetMyPlayer(ctx, userID)
		if err != nil || p == nil {
			return auth.PlayerRef{}, false, err
		}
		return auth.PlayerRef{ID: p.ID, BiomeID: p.BiomeID}, true, nil
	})
	logSecurityHints(logger)

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticfiles.EmbeddedFS()))))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "wildcraft",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := cat.Recipes(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "catalog unavailable",
			})
			return
		}
		if _, err := auditRepo.ListByPlayer(r.Context(), "", 1); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "audit storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "wildcraft",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	auth.NewHandler(authService).Register(mux)

	gameHandler := game.NewHandler(engine)
	gameHandler.SetUserResolver(auth.UserID)
	gameHandler.Register(mux, authService.RequireAPI)

	mux.Handle("/api/live", authService.RequireAPI(hub.Handler(func(r *http.Request) []string {
		p, ok := auth.PlayerFromContext(r.Context())
		if !ok {
			return nil
		}
		return []string{live.PlayerScope(p.ID), live.BiomeScope(p.BiomeID)}
	})))

	mux.Handle("/api/config", authService.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})))

	sweeps := sweep.New(logger.WithPrefix("sweep"))
	var limiter *httpmw.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = httpmw.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	if err := addSweeps(sweeps, cfg.Sweeps, engine, authService, limiter); err != nil {
		_ = auditRepo.Close()
		return nil, err
	}

	mux.Handle("/", statusHandler(engine, hub, sweeps))

	middlewares := []func(http.Handler) http.Handler{
		httpmw.WithAccessLog(logger.WithPrefix("http")),
		httpmw.WithRequestID,
		httpmw.WithRecover(logger),
	}
	if limiter != nil {
		middlewares = append(middlewares, limiter.Middleware)
	}

	return &App{
		Handler: httpmw.Chain(mux, middlewares...),
		Engine:  engine,
		Hub:     hub,
		Sweeps:  sweeps,
		audit:   auditRepo,
	}, nil
}

// NewHandler builds an App and returns its handler without starting sweeps.
func NewHandler(opts Options) (http.Handler, error) {
	app, err := New(context.Background(), opts)
	if err != nil {
		return nil, err
	}
	return app.Handler, nil
}

func (a *App) Start() {
	a.Sweeps.Start()
}

// Close stops the sweeps and releases the audit store.
func (a *App) Close() error {
	a.Sweeps.Stop()
	return a.audit.Close()
}

func openAudit(cfg config.StorageConfig, dataDir string) (audit.Repository, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AuditDriver)) {
	case "memory":
		return audit.NewMemoryRepo(), nil
	case "", "sqlite":
		dsn := cfg.AuditDSN
		if dsn == "" {
			dsn = audit.DefaultDSN(dataDir)
		}
		return audit.OpenSQLite(dsn)
	default:
		return nil, errors.New("unknown audit driver " + cfg.AuditDriver)
	}
}

func addSweeps(s *sweep.Scheduler, cfg config.SweepConfig, engine *game.Engine, authService *auth.Service, limiter *httpmw.RateLimiter) error {
	if err := s.Add("crafts", cfg.Crafts, func(ctx context.Context) error {
		_, err := engine.CompleteDueCrafts(ctx)
		return err
	}); err != nil {
		return err
	}
	if err := s.Add("respawns", cfg.Respawns, func(ctx context.Context) error {
		_, err := engine.TickRespawns(ctx, nil)
		return err
	}); err != nil {
		return err
	}
	return s.Add("sessions", cfg.Sessions, func(ctx context.Context) error {
		now := time.Now()
		if limiter != nil {
			limiter.Prune(now)
		}
		_, err := authService.PruneExpired(now)
		return err
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
