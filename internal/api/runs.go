package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/batchcam/internal/batch"
	"github.com/seantiz/batchcam/internal/engine"
	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodySize      = 16 << 20 // 16 MB, room for object payloads
)

// RunRequest is the JSON body for POST /v1/processes/{name}/runs.
type RunRequest struct {
	Inputs   []model.IndexedValue `json:"inputs"`
	TimeoutS int                  `json:"timeout_s,omitempty"`
}

// ListRunsResponse wraps the paginated list response.
type ListRunsResponse struct {
	Runs   []*model.Run `json:"runs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// decodeRunRequest resolves the process and reads the request body. It
// writes the error response itself and reports whether to continue.
func (s *Server) decodeRunRequest(w http.ResponseWriter, r *http.Request) (string, RunRequest, bool) {
	var req RunRequest
	p, ok := s.resolveProcess(w, r)
	if !ok {
		return "", req, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return "", req, false
	}
	if req.TimeoutS < 0 {
		s.writeError(w, http.StatusBadRequest, "timeout_s must not be negative")
		return "", req, false
	}
	return p.Signature().Name, req, true
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	name, req, ok := s.decodeRunRequest(w, r)
	if !ok {
		return
	}

	// A synchronous run may outlive the server write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Error("clear write deadline for run", "error", err)
	}

	run, err := s.engine.Execute(r.Context(), name, req.Inputs, engine.WithTimeout(req.TimeoutS))
	s.writeRunResult(w, http.StatusCreated, run, err)
}

func (s *Server) handleAsyncRun(w http.ResponseWriter, r *http.Request) {
	name, req, ok := s.decodeRunRequest(w, r)
	if !ok {
		return
	}

	run, err := s.engine.Submit(r.Context(), name, req.Inputs, engine.WithTimeout(req.TimeoutS))
	s.writeRunResult(w, http.StatusAccepted, run, err)
}

// writeRunResult answers with the run record. A run that failed is returned
// with 422 so the caller sees its error field.
func (s *Server) writeRunResult(w http.ResponseWriter, status int, run *model.Run, err error) {
	switch {
	case err == nil:
		s.writeJSON(w, status, run)
	case run != nil && errors.Is(err, batch.ErrRunFailed):
		s.writeJSON(w, http.StatusUnprocessableEntity, run)
	default:
		s.logger.Error("execute run", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to execute run")
	}
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("get run", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	runs, total, err := s.store.ListRuns(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list runs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	if runs == nil {
		runs = []*model.Run{}
	}

	s.writeJSON(w, http.StatusOK, ListRunsResponse{
		Runs:   runs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) handleKillRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.engine.Kill(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.writeError(w, http.StatusNotFound, "run not found")
		case errors.Is(err, store.ErrInvalidTransition):
			s.writeError(w, http.StatusConflict, "run already finished")
		default:
			s.logger.Error("kill run", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to kill run")
		}
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.logger.Error("get killed run", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve run")
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
