package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/batchcam/internal/store"
)

// parseValueID reads the database id from the URL, writing a 400 when it is
// not a positive integer.
func (s *Server) parseValueID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		s.writeError(w, http.StatusBadRequest, "invalid value id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetValue(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseValueID(w, r)
	if !ok {
		return
	}

	v, err := s.engine.Value(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "value not found")
		return
	}
	if err != nil {
		s.logger.Error("get value", "value_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get value")
		return
	}

	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteValue(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseValueID(w, r)
	if !ok {
		return
	}

	err := s.engine.Release(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "value not found")
		return
	}
	if err != nil {
		s.logger.Error("delete value", "value_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete value")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
