// Package server provides the research web UI and the NDJSON research API.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/config"
	"github.com/hyperjump/manabu/internal/research"
)

// Server is the HTTP server for the research UI.
type Server struct {
	services research.Dependencies
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server. Each request builds its own research controller over services.
func NewServer(services research.Dependencies, cfg *config.Config, logger *zap.Logger) *Server {
	if services.Logger == nil {
		services.Logger = logger
	}
	return &Server{services: services, config: cfg, logger: logger}
}

// Handler returns the router with all middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	// Streaming routes stay uncompressed so each block reaches the client when flushed.
	r.Post("/research", s.handleResearchPage)
	r.Post("/api/v1/research", s.handleResearchAPI)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Get("/", s.handleIndex)
		r.Get("/health", s.handleHealth)
		static, _ := fs.Sub(staticFiles, "static")
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
