package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/batchcam/internal/process"
)

func (s *Server) handleListProcesses(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Registry().List())
}

func (s *Server) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	p, ok := s.resolveProcess(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, p.Signature())
}

// resolveProcess looks up the process named in the URL, writing a 404 when
// there is none.
func (s *Server) resolveProcess(w http.ResponseWriter, r *http.Request) (process.Process, bool) {
	name := chi.URLParam(r, "name")
	p, err := s.engine.Registry().Resolve(name)
	if errors.Is(err, process.ErrUnknownProcess) {
		s.writeError(w, http.StatusNotFound, "process not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("resolve process", "process", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to resolve process")
		return nil, false
	}
	return p, true
}
