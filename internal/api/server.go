// Package api provides the HTTP server for flytrap.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/flytraphq/flytrap/internal/api/handlers"
	"github.com/flytraphq/flytrap/internal/api/middleware"
	"github.com/flytraphq/flytrap/internal/ingest"
	"github.com/flytraphq/flytrap/internal/store"
	"github.com/flytraphq/flytrap/pkg/config"
)

// Version is the current version of the server.
// This should be set at build time using ldflags.
var Version = "dev"

// Server represents the flytrap HTTP server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      store.RecordStore
	writer     *ingest.Writer
	config     *config.Config
	logger     *slog.Logger
}

// NewServer creates a new server with the given dependencies.
func NewServer(cfg *config.Config, st store.RecordStore, writer *ingest.Writer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:  st,
		writer: writer,
		config: cfg,
		logger: logger,
	}

	s.setupRouter()
	return s
}

// setupRouter configures the router with middleware and routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Global middleware. Capture sits innermost so every request that
	// reaches routing, including 404s, produces one record with the
	// request ID middleware already applied.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recovery(s.logger))
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.Capture(s.writer, s.config.MaxCaptureBody, s.logger))

	healthHandler := handlers.NewHealthHandler(s.store, Version, s.logger)
	r.Get("/health", healthHandler.Get)

	clientLogHandler := handlers.NewClientLogHandler(s.writer, s.logger)
	logsHandler := handlers.NewLogsHandler(s.store, s.config.MaxQueryLimit, s.config.QueryTimeout, s.logger)
	r.Route("/api", func(r chi.Router) {
		r.Post("/log", clientLogHandler.Create)
		r.Get("/logs", logsHandler.List)
		r.Delete("/logs", logsHandler.Purge)
		r.Get("/stats", logsHandler.Stats)
	})

	fingerprintHandler := handlers.NewFingerprintHandler(s.writer, s.logger)
	r.Get("/ws", fingerprintHandler.Serve)

	s.router = r
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting server", "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() chi.Router {
	return s.router
}
