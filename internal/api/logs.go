package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/store"
)

// lookupRun fetches the run named in the URL, writing the error response
// when it cannot.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*model.Run, bool) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("get run for logs", "run_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get run")
		return nil, false
	}
	return run, true
}

func (s *Server) handleStreamLogs(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// A finished run has nothing more to stream; its lines are in the history.
	if model.IsTerminal(run.Status) {
		w.WriteHeader(http.StatusOK)
		_ = writeSSEEvent(w, "done", run.Status)
		return
	}

	// Disable write timeout for long-lived SSE connections.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Error("set write deadline for SSE", "error", err)
	}

	// Subscribing after the run finished yields a closed channel, so a run
	// completing between the status check and here ends the loop at once.
	ch, unsub := s.engine.Broker().Subscribe(run.ID)
	defer unsub()

	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)
	if canFlush {
		flusher.Flush()
	}

	for {
		select {
		case line, ok := <-ch:
			if !ok {
				_ = writeSSEEvent(w, "done", "stream complete")
				if canFlush {
					flusher.Flush()
				}
				return
			}
			if err := writeSSEData(w, line); err != nil {
				return
			}
			if canFlush {
				flusher.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

// LogHistoryLine is a single log line in the history response.
type LogHistoryLine struct {
	Seq       int    `json:"seq"`
	Line      string `json:"line"`
	CreatedAt string `json:"created_at"`
}

// LogHistoryResponse is the JSON response for GET /v1/runs/{id}/logs/history.
type LogHistoryResponse struct {
	RunID string           `json:"run_id"`
	Lines []LogHistoryLine `json:"lines"`
}

func (s *Server) handleGetLogHistory(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	logLines, err := s.store.GetLogLines(r.Context(), run.ID)
	if err != nil {
		s.logger.Error("get log lines", "run_id", run.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get log lines")
		return
	}

	lines := make([]LogHistoryLine, len(logLines))
	for i, l := range logLines {
		lines[i] = LogHistoryLine{
			Seq:       l.Seq,
			Line:      l.Line,
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		}
	}

	s.writeJSON(w, http.StatusOK, LogHistoryResponse{
		RunID: run.ID,
		Lines: lines,
	})
}

// writeSSEData writes a log line as an SSE data event. Multi-line strings are
// split so that each segment gets its own "data:" prefix.
func writeSSEData(w http.ResponseWriter, line string) error {
	for seg := range strings.SplitSeq(line, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", seg); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

// writeSSEEvent writes a named SSE event (event: <type>\ndata: <data>\n\n).
func writeSSEEvent(w http.ResponseWriter, eventType, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
