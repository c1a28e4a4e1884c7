package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ritvik-6/Collaborative-Code-Editor/internal/api"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/config"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/registry"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/store"
	"github.com/ritvik-6/Collaborative-Code-Editor/internal/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Pick the snapshot backend. Persistence is optional; without it,
	// documents live only as long as their room does.
	snapshots := openSnapshotStore(ctx, cfg, logger)

	// Assemble the sync engine
	var opts []registry.Option
	var archiver *store.Archiver
	if snapshots != nil {
		defer snapshots.Close()
		archiver = store.NewArchiver(snapshots, logger)
		defer archiver.Close()
		opts = append(opts, registry.WithSeed(archiver.Seed), registry.WithObserver(archiver.Observe))
	}
	reg := registry.New(logger, opts...)
	wsManager := ws.NewManager(logger, reg, cfg.AllowedOrigins)

	// Create router
	router := api.NewRouter(logger, reg, wsManager, snapshots)

	// Create server
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket connections outlive any sane value.
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Bool("persistence", snapshots != nil).
			Msg("starting sync server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

// openSnapshotStore connects to the first configured backend: Redis, then
// PostgreSQL, then SQLite. Returns nil when none is configured.
func openSnapshotStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) store.SnapshotStore {
	switch {
	case cfg.RedisURL != "":
		s, err := store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		logger.Info().Msg("snapshots on Redis")
		return s
	case cfg.DatabaseURL != "":
		s, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		logger.Info().Msg("snapshots on PostgreSQL")
		return s
	case cfg.SQLitePath != "":
		s, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("snapshots on SQLite")
		return s
	default:
		logger.Info().Msg("no snapshot store configured, documents are in-memory only")
		return nil
	}
}
