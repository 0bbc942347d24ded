package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/vpgl"
)

func TestListProcesses(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/processes")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var sigs []model.Signature
	if err := json.NewDecoder(resp.Body).Decode(&sigs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sigs) != len(vpgl.Catalog())+1 {
		t.Fatalf("got %d processes, want %d", len(sigs), len(vpgl.Catalog())+1)
	}
	for i := 1; i < len(sigs); i++ {
		if sigs[i-1].Name >= sigs[i].Name {
			t.Errorf("processes not sorted: %q before %q", sigs[i-1].Name, sigs[i].Name)
		}
	}
}

func TestGetProcess(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/processes/vpglGenerate3dPointFromCamsProcess")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var sig model.Signature
	if err := json.NewDecoder(resp.Body).Decode(&sig); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want, _ := vpgl.Lookup("vpglGenerate3dPointFromCamsProcess")
	if diff := cmp.Diff(want, sig); diff != "" {
		t.Errorf("signature mismatch (-want +got):\n%s", diff)
	}
}

func TestGetProcessNotFound(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/processes/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
