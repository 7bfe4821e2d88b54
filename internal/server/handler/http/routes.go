package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/rivone/internal/middleware"
)

// MigratePath is reachable without passing the auth gate.
const MigratePath = "/api/migrate"

// NewRouter constructs and returns an HTTP handler that serves the catalog
// API under /api.
//
// Parameters:
//
//	syncHandler    - handler for the synchronization endpoint
//	songsHandler   - handler for catalog and trash endpoints
//	streamHandler  - handler for the audio proxy
//	migrateHandler - handler for the seed import
//	gate           - access gate for every /api route except /api/migrate
//	logger         - structured logger for request logging middleware
//
// Routes:
//
//	GET  /ping               → heartbeat
//	GET  /api/stream         → streamHandler.Stream
//	POST /api/sync           → syncHandler.Sync
//	GET  /api/songs          → songsHandler.List
//	GET  /api/songs/deleted  → songsHandler.ListDeleted
//	POST /api/songs/delete   → songsHandler.Delete
//	POST /api/songs/restore  → songsHandler.Restore
//	GET  /api/migrate        → migrateHandler.Migrate (not gated)
//
// Middleware chain (applied in order):
//  1. Recoverer
//  2. WithRequestLogging(logger)
//  3. Heartbeat("/ping")
//  4. AllowContentType("application/json") for requests with a body
//  5. RequireAccess(gate) on /api
func NewRouter(
	syncHandler *SyncHandler,
	songsHandler *SongsHandler,
	streamHandler *StreamHandler,
	migrateHandler *MigrateHandler,
	gate middleware.AuthGate,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAccess(gate, MigratePath))

		r.Get("/migrate", migrateHandler.Migrate)

		r.Get("/stream", streamHandler.Stream)
		r.Post("/sync", syncHandler.Sync)

		r.Route("/songs", func(r chi.Router) {
			r.Get("/", songsHandler.List)
			r.Get("/deleted", songsHandler.ListDeleted)
			r.Post("/delete", songsHandler.Delete)
			r.Post("/restore", songsHandler.Restore)
		})
	})

	return r
}
