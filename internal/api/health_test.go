package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seantiz/batchcam/internal/vpgl"
)

func TestHealthzEndpoint(t *testing.T) {
	srv := newTestServer(t)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
	if want := len(vpgl.Catalog()) + 1; body.Processes != want {
		t.Errorf("processes = %d, want %d", body.Processes, want)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	// Make requests to generate metrics.
	http.Get(ts.URL + "/healthz")
	runProcess(t, ts.URL, "vpglLoadPerspectiveCameraProcess", `{"inputs":[{"index":0,"value":{"type":"string","data":"cam.txt"}}]}`)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/plain") && !strings.Contains(contentType, "text/openmetrics") {
		t.Errorf("Content-Type = %q, expected prometheus format", contentType)
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	body := string(bodyBytes)

	for _, name := range []string{
		"batchcam_http_requests_total",
		"batchcam_http_request_duration_seconds",
		"batchcam_http_requests_in_flight",
		"batchcam_engine_runs_total",
		"batchcam_engine_run_duration_seconds",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
