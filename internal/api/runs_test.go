package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seantiz/batchcam/internal/model"
)

const loadCamBody = `{"inputs":[{"index":0,"value":{"type":"string","data":"cam.txt"}}]}`

// runProcess posts a synchronous run and decodes the run record.
func runProcess(t *testing.T, baseURL, name, body string) (int, model.Run) {
	t.Helper()
	resp, err := http.Post(baseURL+"/v1/processes/"+name+"/runs", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST run %s: %v", name, err)
	}
	defer resp.Body.Close()

	var run model.Run
	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusUnprocessableEntity {
		if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
			t.Fatalf("decode run: %v", err)
		}
	}
	return resp.StatusCode, run
}

func TestCreateRunValid(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	status, run := runProcess(t, ts.URL, "vpglLoadPerspectiveCameraProcess", loadCamBody)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if len(run.ID) != 26 {
		t.Errorf("ID length = %d, want 26", len(run.ID))
	}
	if run.Status != model.StatusCompleted {
		t.Errorf("Status = %q, want %q", run.Status, model.StatusCompleted)
	}
	if len(run.Outputs) != 1 || run.Outputs[0].Type != model.TypeCamera {
		t.Errorf("Outputs = %v, want one camera handle", run.Outputs)
	}
}

func TestCreateRunFailureReturnsRun(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body := `{"inputs":[{"index":0,"value":{"type":"string","data":"missing.txt"}}]}`
	status, run := runProcess(t, ts.URL, "vpglLoadPerspectiveCameraProcess", body)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", status)
	}
	if run.Status != model.StatusFailed {
		t.Errorf("Status = %q, want failed", run.Status)
	}
	if !strings.Contains(run.Error, "file not found") {
		t.Errorf("Error = %q, want file not found", run.Error)
	}
}

func TestCreateRunInvalidInput(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body := `{"inputs":[{"index":0,"value":{"type":"double","data":1}}]}`
	status, run := runProcess(t, ts.URL, "vpglLoadPerspectiveCameraProcess", body)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", status)
	}
	if !strings.Contains(run.Error, "invalid input") {
		t.Errorf("Error = %q, want invalid input", run.Error)
	}
}

func TestCreateRunBadRequests(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	tests := []struct {
		name    string
		process string
		body    string
		want    int
	}{
		{"unknown process", "noSuchProcess", loadCamBody, http.StatusNotFound},
		{"invalid JSON", "vpglLoadPerspectiveCameraProcess", "not json", http.StatusBadRequest},
		{"negative timeout", "vpglLoadPerspectiveCameraProcess", `{"timeout_s":-1}`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := runProcess(t, ts.URL, tc.process, tc.body)
			if status != tc.want {
				t.Errorf("status = %d, want %d", status, tc.want)
			}
		})
	}
}

func TestCreateRunWithReference(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	_, loaded := runProcess(t, ts.URL, "vpglLoadPerspectiveCameraProcess", loadCamBody)
	cam := loaded.Outputs[0]

	body := fmt.Sprintf(`{"inputs":[{"index":0,"value":{"type":"ref","data":{"id":%d,"type":%q}}}]}`, cam.ID, cam.Type)
	status, run := runProcess(t, ts.URL, "vpglGetPerspectiveCamCenterProcess", body)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (error %q)", status, run.Error)
	}
	if len(run.Outputs) != 3 {
		t.Errorf("Outputs = %v, want three floats", run.Outputs)
	}
}

func TestAsyncRun(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/processes/vpglLoadPerspectiveCameraProcess/runs/async",
		"application/json", bytes.NewBufferString(loadCamBody))
	if err != nil {
		t.Fatalf("POST async: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var run model.Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.Status != model.StatusPending {
		t.Errorf("Status = %q, want pending", run.Status)
	}

	srv.engine.Wait()
	got := getRun(t, ts.URL, run.ID)
	if got.Status != model.StatusCompleted {
		t.Errorf("Status after wait = %q, want completed", got.Status)
	}
}

func getRun(t *testing.T, baseURL, id string) model.Run {
	t.Helper()
	resp, err := http.Get(baseURL + "/v1/runs/" + id)
	if err != nil {
		t.Fatalf("GET run: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET run status = %d, want 200", resp.StatusCode)
	}
	var run model.Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	return run
}

func TestGetRunNotFound(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/runs/nonexistent")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestListRunsEmpty(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/runs")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body ListRunsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Runs == nil || len(body.Runs) != 0 {
		t.Errorf("Runs = %v, want empty array", body.Runs)
	}
	if body.Total != 0 || body.Limit != defaultListLimit {
		t.Errorf("total=%d limit=%d, want 0 and %d", body.Total, body.Limit, defaultListLimit)
	}
}

func TestListRunsPagination(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for range 5 {
		createStoredRun(t, srv)
	}

	tests := []struct {
		query      string
		wantLen    int
		wantLimit  int
		wantOffset int
	}{
		{"?limit=2", 2, 2, 0},
		{"?limit=2&offset=4", 1, 2, 4},
		{"?limit=0", 5, defaultListLimit, 0},
		{"?limit=1000&offset=-3", 5, defaultListLimit, 0},
		{"?limit=abc", 5, defaultListLimit, 0},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/v1/runs" + tc.query)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			defer resp.Body.Close()

			var body ListRunsResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Runs) != tc.wantLen || body.Total != 5 {
				t.Errorf("len=%d total=%d, want %d and 5", len(body.Runs), body.Total, tc.wantLen)
			}
			if body.Limit != tc.wantLimit || body.Offset != tc.wantOffset {
				t.Errorf("limit=%d offset=%d, want %d and %d", body.Limit, body.Offset, tc.wantLimit, tc.wantOffset)
			}
		})
	}
}

func killRun(t *testing.T, baseURL, id string) (*http.Response, model.Run) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodDelete, baseURL+"/v1/runs/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	defer resp.Body.Close()

	var run model.Run
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp, run
}

func TestKillRunningRun(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/processes/sleep/runs/async", "application/json", bytes.NewBufferString(`{}`))
	if err != nil {
		t.Fatalf("POST async: %v", err)
	}
	var run model.Run
	json.NewDecoder(resp.Body).Decode(&run)
	resp.Body.Close()

	deadline := time.Now().Add(5 * time.Second)
	for getRun(t, ts.URL, run.ID).Status != model.StatusRunning {
		if time.Now().After(deadline) {
			t.Fatal("run never started")
		}
		time.Sleep(10 * time.Millisecond)
	}

	kresp, killed := killRun(t, ts.URL, run.ID)
	if kresp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", kresp.StatusCode)
	}
	if killed.Status != model.StatusKilled {
		t.Errorf("Status = %q, want killed", killed.Status)
	}

	srv.engine.Wait()
	if got := getRun(t, ts.URL, run.ID); got.Status != model.StatusKilled {
		t.Errorf("Status after wait = %q, want killed", got.Status)
	}

	if again, _ := killRun(t, ts.URL, run.ID); again.StatusCode != http.StatusConflict {
		t.Errorf("second kill status = %d, want 409", again.StatusCode)
	}
}

func TestKillKilledRunConflicts(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	run := createStoredRun(t, srv, model.StatusKilled)
	before := getRun(t, ts.URL, run.ID)

	resp, _ := killRun(t, ts.URL, run.ID)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	after := getRun(t, ts.URL, run.ID)
	if before.FinishedAt == nil || after.FinishedAt == nil || !after.FinishedAt.Equal(*before.FinishedAt) {
		t.Errorf("finished_at changed: %v -> %v", before.FinishedAt, after.FinishedAt)
	}
}

func TestKillFinishedRunConflicts(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	run := createStoredRun(t, srv, model.StatusRunning, model.StatusCompleted)
	resp, _ := killRun(t, ts.URL, run.ID)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestKillRunNotFound(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, _ := killRun(t, ts.URL, "nonexistent")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
