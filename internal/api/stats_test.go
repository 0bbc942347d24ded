package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func getStats(t *testing.T, baseURL string) statsResponse {
	t.Helper()
	resp, err := http.Get(baseURL + "/v1/stats")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return stats
}

func TestGetStatsEmpty(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	stats := getStats(t, ts.URL)
	if stats.Total != 0 {
		t.Errorf("total = %d, want 0", stats.Total)
	}
	if stats.AvgDurationMS != 0 {
		t.Errorf("avg_duration_ms = %f, want 0", stats.AvgDurationMS)
	}
}

func TestGetStatsPopulated(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for range 3 {
		if status, _ := runProcess(t, ts.URL, "vpglLoadPerspectiveCameraProcess", loadCamBody); status != http.StatusCreated {
			t.Fatalf("run status = %d, want 201", status)
		}
	}
	failBody := `{"inputs":[{"index":0,"value":{"type":"string","data":"missing.rpc"}}]}`
	if status, _ := runProcess(t, ts.URL, "vpglLoadRationalCameraProcess", failBody); status != http.StatusUnprocessableEntity {
		t.Fatalf("run status = %d, want 422", status)
	}

	stats := getStats(t, ts.URL)
	if stats.Total != 4 {
		t.Errorf("total = %d, want 4", stats.Total)
	}
	wantStatus := map[string]int{"completed": 3, "failed": 1}
	if diff := cmp.Diff(wantStatus, stats.ByStatus); diff != "" {
		t.Errorf("by_status mismatch (-want +got):\n%s", diff)
	}
	wantProcess := map[string]int{
		"vpglLoadPerspectiveCameraProcess": 3,
		"vpglLoadRationalCameraProcess":    1,
	}
	if diff := cmp.Diff(wantProcess, stats.ByProcess); diff != "" {
		t.Errorf("by_process mismatch (-want +got):\n%s", diff)
	}
	if stats.AvgDurationMS < 0 {
		t.Errorf("avg_duration_ms = %f, want >= 0", stats.AvgDurationMS)
	}
}
