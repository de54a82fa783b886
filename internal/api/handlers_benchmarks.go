package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/cisaudit/internal/benchmark"
	"github.com/dgallion1/cisaudit/internal/store"
)

// handleListBenchmarks lists all stored benchmarks.
func (s *Server) handleListBenchmarks(w http.ResponseWriter, r *http.Request) {
	list, err := s.benchmarks.ListBenchmarks(r.Context())
	if err != nil {
		s.log.Error("list benchmarks failed", "error", err)
		jsonError(w, "failed to list benchmarks", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"benchmarks": list})
}

// handleChapters returns the outline of one benchmark.
func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "benchmarkID")
	tables, err := s.benchmarks.LoadTables(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "benchmark not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("load tables failed", "benchmark_id", id, "error", err)
		jsonError(w, "failed to load benchmark", http.StatusInternalServerError)
		return
	}
	chapters := tables.Chapters
	if chapters == nil {
		chapters = []benchmark.Chapter{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"benchmark_id": id,
		"chapters":     chapters,
	})
}

// handleDeleteBenchmark removes a benchmark and its extracted tables.
func (s *Server) handleDeleteBenchmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "benchmarkID")
	err := s.benchmarks.DeleteBenchmark(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "benchmark not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("delete benchmark failed", "benchmark_id", id, "error", err)
		jsonError(w, "failed to delete benchmark", http.StatusInternalServerError)
		return
	}
	s.log.Info("benchmark deleted", "benchmark_id", id)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
