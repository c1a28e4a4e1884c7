package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/api/middleware"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/handlers"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/registry"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/store"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/ws"
)

// NewRouter creates and configures the HTTP router. snapshots may be nil
// when the server runs without persistence.
func NewRouter(logger zerolog.Logger, reg *registry.Registry, wsManager *ws.Manager, snapshots store.SnapshotStore) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	r.Use(middleware.SecurityHeaders)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS for the read-only REST surface; websocket origins are checked
	// by the upgrader, not here.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(reg, snapshots)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// The sync protocol itself
	r.Get("/ws", wsManager.HandleWS)

	// Read-only REST surface
	r.Get("/health", h.Health)
	r.Get("/rooms", h.ListRooms)
	r.Get("/stats", h.Stats)

	return r
}
