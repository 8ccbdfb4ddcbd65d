// Package backend serves the sub-topic generation, content search, and video search endpoints
// the research pipeline calls, plus library upload, removal, and export.
package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/config"
	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/storage"
)

// TopicDecomposer produces newline separated sub-topics for a topic.
type TopicDecomposer interface {
	Decompose(ctx context.Context, topic string) (string, error)
}

// ContentSearcher searches the user's library.
type ContentSearcher interface {
	SearchContent(ctx context.Context, subTopic string) ([]models.ContentResult, error)
}

// VideoSearcher searches for learning videos.
type VideoSearcher interface {
	SearchVideos(ctx context.Context, query string) ([]models.VideoResult, error)
}

// Ingester adds an uploaded watch-history file to the library.
type Ingester interface {
	IngestFile(ctx context.Context, name string, r io.Reader) (int, error)
}

// VideoRemover deletes a video from the library and its indexes.
type VideoRemover interface {
	DeleteVideo(ctx context.Context, id string) error
}

// Dependencies are the services behind the endpoints. A nil service makes its endpoint
// answer 503.
type Dependencies struct {
	Decomposer TopicDecomposer
	Content    ContentSearcher
	Videos     VideoSearcher
	Ingester   Ingester
	Remover    VideoRemover
	Library    storage.Storage
}

// Server is the HTTP server for the backend services.
type Server struct {
	deps   Dependencies
	config *config.BackendConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Dependencies, cfg *config.BackendConfig, logger *zap.Logger) *Server {
	return &Server{deps: deps, config: cfg, logger: logger}
}

// Handler returns the router with all middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}).Handler)
	if s.config.RateLimit > 0 {
		r.Use(newClientLimiter(s.config.RateLimit, s.config.RateBurst).Middleware)
	}

	r.Post("/generate-sub-topics", s.handleGenerateSubTopics)
	r.Post("/query-subtopic", s.handleQuerySubTopic)
	r.Post("/search_youtube", s.handleSearchYouTube)
	r.Post("/upload", s.handleUpload)
	r.Delete("/videos/{id}", s.handleDeleteVideo)
	r.Get("/download_csv", s.handleDownloadCSV)
	r.Get("/download_xlsx", s.handleDownloadXLSX)
	r.Get("/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting backend", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
