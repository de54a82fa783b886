package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	list, err := s.benchmarks.ListBenchmarks(r.Context())
	if err != nil {
		s.log.Error("list benchmarks failed", "error", err)
		jsonError(w, "failed to list benchmarks", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"benchmarks":     len(list),
		"queue_depth":    s.ingest.QueueDepth(),
		"max_queue_size": s.cfg.MaxQueueSize,
		"workers":        s.cfg.WorkerCount,
	})
}
