package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/texchunk/internal/config"
	"github.com/dgallion1/texchunk/internal/extract"
	"github.com/dgallion1/texchunk/internal/pipeline"
	"github.com/dgallion1/texchunk/internal/registry"
)

// Server is the HTTP API server for texchunk.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	session      *registry.Session
	stats        *extract.ExtractStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(orch *pipeline.Orchestrator, session *registry.Session, stats *extract.ExtractStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		session:      session,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/import", s.handleImport)
		r.Post("/api/import/preview", s.handlePreview)
		r.Get("/api/import/{jobID}/status", s.handleImportStatus)

		r.Get("/api/document", s.handleDocument)
		r.Get("/api/document/source", s.handleSource)

		r.Route("/api/chunks", func(r chi.Router) {
			r.Get("/", s.handlePartition)
			r.Post("/", s.handleCreateChunk)
			r.Get("/{chunkID}", s.handleGetChunk)
			r.Delete("/{chunkID}", s.handleDeleteChunk)
			r.Put("/{chunkID}/content", s.handleUpdateContent)
			r.Post("/{chunkID}/reorder", s.handleReorder)
			r.Post("/{chunkID}/active", s.handleSetActive)
		})

		r.Get("/api/stats/extract", s.handleExtractStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
