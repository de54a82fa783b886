package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/cisaudit/internal/assess"
	"github.com/dgallion1/cisaudit/internal/session"
	"github.com/dgallion1/cisaudit/internal/store"
)

type answerRequest struct {
	Verdict *assess.Verdict `json:"verdict"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Create(r.Context(), chi.URLParam(r, "benchmarkID"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// handleRecordAnswer records a verdict for one chapter. Unrecognised verdict
// values are recorded as unknown.
func (s *Server) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	chapterID, err := strconv.Atoi(chi.URLParam(r, "chapterID"))
	if err != nil {
		jsonError(w, "chapter id must be an integer", http.StatusBadRequest)
		return
	}

	var req answerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Verdict == nil {
		jsonError(w, "verdict is required", http.StatusBadRequest)
		return
	}

	st, err := s.sessions.Record(r.Context(), chi.URLParam(r, "sessionID"), chapterID, *req.Verdict)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleFindings(w http.ResponseWriter, r *http.Request) {
	report, err := s.sessions.Findings(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		jsonError(w, "session not found", http.StatusNotFound)
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, "benchmark not found", http.StatusNotFound)
	case errors.Is(err, assess.ErrUnknownChapter):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		s.log.Error("session request failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
