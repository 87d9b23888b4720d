package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lexsearch/lexsearch-core/docs"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Services are the core ports served over HTTP
type Services struct {
	Index     driving.IndexService
	Retrieval driving.RetrievalService
	Schedules driving.ScheduleService
	Documents driving.DocumentService
	Jobs      driving.JobController
	Auth      driven.AuthAdapter

	// Checks are probed by /ready, keyed by component name
	Checks map[string]Pinger
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger
	origins    []string

	index     driving.IndexService
	retrieval driving.RetrievalService
	schedules driving.ScheduleService
	documents driving.DocumentService
	jobs      driving.JobController
	auth      driven.AuthAdapter
	checks    map[string]Pinger
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, svc Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:    http.NewServeMux(),
		version:   cfg.Version,
		logger:    logger.With("component", "http"),
		origins:   cfg.AllowedOrigins,
		index:     svc.Index,
		retrieval: svc.Retrieval,
		schedules: svc.Schedules,
		documents: svc.Documents,
		jobs:      svc.Jobs,
		auth:      svc.Auth,
		checks:    svc.Checks,
	}
	docs.SwaggerInfo.Version = cfg.Version

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in recovery, logging and CORS middleware
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	if len(s.origins) > 0 {
		h = NewCORSMiddleware(s.origins).Handler(h)
	}
	h = NewLoggingMiddleware(s.logger).Handler(h)
	return NewRecoveryMiddleware(s.logger).Handler(h)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.auth)
	reader := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireAdmin(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwagger)

	// Retrieval endpoints
	s.router.Handle("POST /api/v1/search", reader(s.handleSearch))
	s.router.Handle("POST /api/v1/search/context", reader(s.handleSearchContext))
	s.router.Handle("POST /api/v1/admin/search/debug", admin(s.handleSearchDebug))

	// Job endpoints
	s.router.Handle("GET /api/v1/admin/status", admin(s.handleStatus))
	s.router.Handle("POST /api/v1/admin/jobs", admin(s.handleTriggerJob))
	s.router.Handle("POST /api/v1/admin/jobs/{id}/cancel", admin(s.handleCancelJob))

	// Schedule endpoints
	s.router.Handle("GET /api/v1/admin/schedules", admin(s.handleListSchedules))
	s.router.Handle("POST /api/v1/admin/schedules", admin(s.handleCreateSchedule))
	s.router.Handle("POST /api/v1/admin/schedules/preview", admin(s.handlePreviewSchedule))
	s.router.Handle("GET /api/v1/admin/schedules/{id}", admin(s.handleGetSchedule))
	s.router.Handle("PUT /api/v1/admin/schedules/{id}", admin(s.handleUpdateSchedule))
	s.router.Handle("DELETE /api/v1/admin/schedules/{id}", admin(s.handleDeleteSchedule))
	s.router.Handle("GET /api/v1/admin/schedules/{id}/status", admin(s.handleScheduleStatus))

	// Index definition endpoints
	s.router.Handle("GET /api/v1/admin/indexes", admin(s.handleListIndexes))
	s.router.Handle("PUT /api/v1/admin/indexes", admin(s.handleSaveIndex))
	s.router.Handle("GET /api/v1/admin/indexes/stats", admin(s.handleIndexStats))
	s.router.Handle("DELETE /api/v1/admin/indexes/{name}", admin(s.handleDeleteIndex))

	// Document endpoints
	s.router.Handle("GET /api/v1/admin/documents", admin(s.handleListDocuments))
	s.router.Handle("POST /api/v1/admin/documents", admin(s.handleCreateDocument))
	s.router.Handle("GET /api/v1/admin/documents/{id}", admin(s.handleGetDocument))
	s.router.Handle("PUT /api/v1/admin/documents/{id}", admin(s.handleUpdateDocument))
	s.router.Handle("DELETE /api/v1/admin/documents/{id}", admin(s.handleDeleteDocument))
	s.router.Handle("POST /api/v1/admin/documents/{id}/reindex", admin(s.handleReindexDocument))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
