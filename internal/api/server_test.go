package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/seantiz/batchcam/internal/engine"
	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/process"
	"github.com/seantiz/batchcam/internal/process/stub"
	"github.com/seantiz/batchcam/internal/store"
	"github.com/seantiz/batchcam/internal/vpgl"
)

// sleepProcess waits for its context so tests can observe a running run.
var sleepProcess = process.Func{
	Sig: model.Signature{Name: "sleep"},
	Fn: func(ctx context.Context, inv *process.Invocation) (process.Result, error) {
		inv.Log("sleeping")
		<-ctx.Done()
		return process.Result{}, ctx.Err()
	},
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	reg := process.NewRegistry()
	stub.Register(reg, vpgl.Catalog())
	reg.Register(sleepProcess)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	eng := engine.NewEngine(s, reg, logger)
	t.Cleanup(eng.Wait)
	return NewServer(":0", s, eng, logger)
}

// createStoredRun inserts a run and walks it through statuses.
func createStoredRun(t *testing.T, srv *Server, statuses ...string) *model.Run {
	t.Helper()
	ctx := context.Background()
	r := &model.Run{
		ID:        model.NewID(),
		Process:   "vpglLoadPerspectiveCameraProcess",
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := srv.store.CreateRun(ctx, r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	for _, st := range statuses {
		if err := srv.store.UpdateRunStatus(ctx, r.ID, st); err != nil {
			t.Fatalf("UpdateRunStatus %s: %v", st, err)
		}
		r.Status = st
	}
	return r
}

func TestRequestIDMiddleware(t *testing.T) {
	srv := newTestServer(t)
	var reqID string
	srv.Router().Get("/test", func(w http.ResponseWriter, r *http.Request) {
		reqID = middleware.GetReqID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	req, _ := http.NewRequest("GET", ts.URL+"/test", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if reqID != "abc-123" {
		t.Errorf("handler saw request id %q, want abc-123", reqID)
	}
}

func TestPanicRecovery(t *testing.T) {
	srv := newTestServer(t)
	srv.Router().Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/panic")
	if err != nil {
		t.Fatalf("GET /panic: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	req, _ := http.NewRequest("OPTIONS", ts.URL+"/v1/processes", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS /v1/processes: %v", err)
	}
	defer resp.Body.Close()

	if v := resp.Header.Get("Access-Control-Allow-Origin"); v != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", v, "*")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	srv := newTestServer(t)
	srv.addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
