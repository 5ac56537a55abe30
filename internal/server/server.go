// Package server provides the HTTP API for the RAG service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tmammadov17503/rag-ml-ops/internal/config"
	"github.com/tmammadov17503/rag-ml-ops/internal/models"
)

// Searcher is the retrieval surface the API exposes.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.SearchHit, error)
	SearchHybrid(ctx context.Context, query string, k int) ([]models.SearchHit, error)
	Size() int
	Dimensions() int
	KeywordEnabled() bool
}

// Embedder turns texts into vectors for the embed endpoint.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Answerer streams a chat answer token by token.
type Answerer interface {
	Answer(ctx context.Context, req *models.ChatRequest, onToken func(token string)) (string, error)
}

// Historian reads recorded chat exchanges.
type Historian interface {
	BySession(ctx context.Context, sessionID string) ([]*models.Exchange, error)
	CountExchanges(ctx context.Context) (int, error)
}

// Server is the HTTP server for the RAG API.
type Server struct {
	searcher Searcher
	embedder Embedder
	answerer Answerer
	history  Historian
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. history may be nil.
func NewServer(
	searcher Searcher,
	embedder Embedder,
	answerer Answerer,
	history Historian,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		searcher: searcher,
		embedder: embedder,
		answerer: answerer,
		history:  history,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the API router. The chat stream route stays outside the
// timeout and compression middleware: a compressed or deadline-bounded SSE
// response would stall or cut off the token stream.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.Compress(5))

		r.Get("/health", s.handleHealth)
		r.Post("/api/v1/embed", s.handleEmbed)
		r.Post("/api/v1/search", s.handleSearch)
		r.Get("/api/v1/history/{session}", s.handleHistory)
		r.Get("/api/v1/status", s.handleStatus)
	})

	r.Post("/api/v1/chat/stream", s.handleChatStream)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
