// internal/api/handler.go
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"starsync/internal/auth"
	"starsync/internal/model"
	"starsync/internal/settings"
)

const defaultRunTimeout = 60 * time.Second

// SyncService is the part of the syncer the HTTP layer drives.
type SyncService interface {
	TriggerManual(ctx context.Context, userID int64, onProgress func(model.SyncProgress)) (model.SyncResult, error)
	Status(ctx context.Context, userID int64) (model.SyncStatus, error)
	RunSweep(ctx context.Context) (model.SweepSummary, error)
}

// Config holds the HTTP-level settings.
type Config struct {
	// CronSecret authorizes the scheduled trigger. Empty rejects every call.
	CronSecret string
	// RunTimeout bounds a manual sync run.
	RunTimeout time.Duration
}

// Handler is the container for API dependencies.
type Handler struct {
	syncer     SyncService
	settings   *settings.Store
	cronSecret string
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(syncer SyncService, store *settings.Store, sessions *auth.SessionValidator, cfg Config, logger *slog.Logger) http.Handler {
	h := &Handler{
		syncer:     syncer,
		settings:   store,
		cronSecret: cfg.CronSecret,
		runTimeout: cfg.RunTimeout,
		logger:     logger,
	}
	if h.runTimeout <= 0 {
		h.runTimeout = defaultRunTimeout
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)

	r.Get("/health", h.healthCheck)

	r.Get("/cron/sync", h.cronSync)
	r.Post("/cron/sync", h.cronSync)

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		// Bounded by Config.RunTimeout inside the handler.
		r.Get("/sync", h.syncStatus)
		r.Post("/sync", h.triggerSync)

		r.Route("/settings", func(r chi.Router) {
			r.Use(middleware.Timeout(10 * time.Second))
			r.Get("/sync", h.getSyncSettings)
			r.Put("/sync", h.updateSyncSettings)
			r.Get("/ai-model", h.getAIModel)
			r.Put("/ai-model", h.updateAIModel)
		})
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// userID returns the session user set by auth.Middleware.
func userID(r *http.Request) int64 {
	id, _ := auth.UserIDFrom(r.Context())
	return id
}
