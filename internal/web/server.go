// Package web serves the branchsmith HTTP API, the rules overview page and
// the creation event stream.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joestump/branchsmith/api"
	"github.com/joestump/branchsmith/internal/config"
	"github.com/joestump/branchsmith/internal/creator"
	"github.com/joestump/branchsmith/internal/db"
	"github.com/joestump/branchsmith/internal/hub"
)

// History lists recorded branch creations. *db.DB satisfies it.
type History interface {
	ListBranchCreations(ctx context.Context, limit, offset int) ([]db.BranchCreation, error)
}

// ServerOption configures optional Server features.
type ServerOption func(*Server)

// WithRedactor scrubs credentials from error text before it is returned.
func WithRedactor(rd *Redactor) ServerOption {
	return func(s *Server) { s.redactor = rd }
}

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// Server is the HTTP server for the branchsmith API.
type Server struct {
	cfg      config.Config
	creator  *creator.Service
	rules    *config.Source
	history  History
	hub      *hub.Hub
	redactor *Redactor
	logger   *slog.Logger
	mux      *http.ServeMux
	server   *http.Server
}

// New creates a web server. Creation events are streamed from svc.Hub;
// history may be nil when nothing is persisted.
func New(cfg config.Config, svc *creator.Service, src *config.Source, history History, opts ...ServerOption) *Server {
	s := &Server{
		cfg:     cfg,
		creator: svc,
		rules:   src,
		history: history,
		hub:     svc.Hub,
		logger:  slog.Default(),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start begins serving HTTP requests. It blocks until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("http api listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleAPIHealth)
	s.mux.HandleFunc("GET /api/v1/tokens", s.handleAPITokens)

	s.mux.HandleFunc("POST /api/v1/branches/preview", s.handleAPIPreviewBranch)
	s.mux.HandleFunc("POST /api/v1/branches/validate", s.handleAPIValidateBranch)
	s.mux.HandleFunc("POST /api/v1/branches", s.handleAPICreateBranch)
	s.mux.HandleFunc("GET /api/v1/branches", s.handleAPIListBranches)

	s.mux.HandleFunc("GET /api/v1/config", s.handleAPIGetConfig)
	s.mux.HandleFunc("PUT /api/v1/config", s.handleAPIPutConfig)

	s.mux.HandleFunc("GET /api/v1/events", s.handleEventStream)
	s.mux.HandleFunc("GET /rules", s.handleRules)
	s.mux.HandleFunc("GET /api/openapi.yaml", s.handleOpenAPISpec)
}

func (s *Server) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(api.OpenAPISpec)
}
