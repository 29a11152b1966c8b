// Package server provides the HTTP API consumed by the viewer UI.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/anchor"
	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/docstore"
	"github.com/hyperjump/shiori/internal/index"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/progress"
	"github.com/hyperjump/shiori/internal/search"
	"github.com/hyperjump/shiori/internal/storage"
	"github.com/hyperjump/shiori/internal/topic"
)

// ReloadFunc restores an evicted document body from its source file.
type ReloadFunc func(documentID string) (*models.ContentDocument, error)

// Server is the HTTP server for the Shiori API.
type Server struct {
	engine      *search.Engine
	store       *docstore.Store
	index       *index.Index
	builder     *index.Builder
	topics      *topic.Aggregator
	bookmarks   *anchor.Manager
	progress    *progress.Writer
	annotations *storage.Annotations
	reload      ReloadFunc
	config      *config.ServerConfig
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	store *docstore.Store,
	ix *index.Index,
	builder *index.Builder,
	topics *topic.Aggregator,
	bookmarks *anchor.Manager,
	progressWriter *progress.Writer,
	annotations *storage.Annotations,
	reload ReloadFunc,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:      engine,
		store:       store,
		index:       ix,
		builder:     builder,
		topics:      topics,
		bookmarks:   bookmarks,
		progress:    progressWriter,
		annotations: annotations,
		reload:      reload,
		config:      cfg,
		logger:      logger,
	}
}

// Router builds the chi router with all API routes.
// Document IDs are relative paths and may contain slashes; clients must
// path-escape them in URLs.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/topics", s.handleTopics)
	r.Post("/api/v1/topics/{topic}/toggle", s.handleTopicToggle)

	r.Get("/api/v1/documents/{id}", s.handleGetDocument)
	r.Post("/api/v1/documents/{id}/bookmarks", s.handleCreateBookmark)
	r.Get("/api/v1/documents/{id}/bookmarks", s.handleListBookmarks)
	r.Patch("/api/v1/bookmarks/{id}", s.handleUpdateBookmark)
	r.Delete("/api/v1/bookmarks/{id}", s.handleDeleteBookmark)

	r.Post("/api/v1/documents/{id}/notes", s.handleAddNote)
	r.Get("/api/v1/documents/{id}/notes", s.handleListNotes)
	r.Delete("/api/v1/notes/{id}", s.handleDeleteNote)

	r.Get("/api/v1/documents/{id}/progress", s.handleGetProgress)
	r.Put("/api/v1/documents/{id}/progress", s.handlePutProgress)

	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// requestLogger logs each request with its status, size, and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server and flushes pending progress writes.
func (s *Server) Stop(ctx context.Context) error {
	s.progress.Flush()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
