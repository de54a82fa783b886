package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/cisaudit/internal/benchmark"
	"github.com/dgallion1/cisaudit/internal/config"
	"github.com/dgallion1/cisaudit/internal/pipeline"
	"github.com/dgallion1/cisaudit/internal/session"
	"github.com/dgallion1/cisaudit/internal/store"
)

// Ingester accepts benchmark uploads for background processing.
type Ingester interface {
	Submit(job *pipeline.Job) error
	GetJob(id string) *pipeline.Job
	QueueDepth() int
}

// Benchmarks reads and deletes stored benchmarks.
type Benchmarks interface {
	ListBenchmarks(ctx context.Context) ([]store.Benchmark, error)
	GetBenchmark(ctx context.Context, id string) (store.Benchmark, error)
	LoadTables(ctx context.Context, id string) (benchmark.Tables, error)
	DeleteBenchmark(ctx context.Context, id string) error
}

// Server is the HTTP API server for cisaudit.
type Server struct {
	router     chi.Router
	ingest     Ingester
	benchmarks Benchmarks
	sessions   *session.Service
	log        *slog.Logger
	cfg        config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(ingest Ingester, benchmarks Benchmarks, sessions *session.Service, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		ingest:     ingest,
		benchmarks: benchmarks,
		sessions:   sessions,
		log:        log,
		cfg:        cfg,
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

		r.Get("/api/stats", s.handleStats)

		r.Post("/api/benchmarks", s.handleUpload)
		r.Post("/api/benchmarks/batch", s.handleBatchUpload)
		r.Get("/api/benchmarks/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/benchmarks", s.handleListBenchmarks)
		r.Get("/api/benchmarks/{benchmarkID}/chapters", s.handleChapters)
		r.Delete("/api/benchmarks/{benchmarkID}", s.handleDeleteBenchmark)
		r.Post("/api/benchmarks/{benchmarkID}/sessions", s.handleCreateSession)

		r.Get("/api/sessions/{sessionID}", s.handleGetSession)
		r.Delete("/api/sessions/{sessionID}", s.handleDeleteSession)
		r.Put("/api/sessions/{sessionID}/answers/{chapterID}", s.handleRecordAnswer)
		r.Get("/api/sessions/{sessionID}/findings", s.handleFindings)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
