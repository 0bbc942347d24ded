package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/seantiz/batchcam/internal/vpgl"
)

// TestBridgeHost runs batchhost with stubbridge as its bridge executable, so
// every run crosses a process boundary.
func TestBridgeHost(t *testing.T) {
	bridgeBin := getBinary(t, "stubbridge")
	hp := startHost(t, getBinary(t, "batchhost"), "BATCHCAM_BRIDGE_BIN="+bridgeBin)
	cams := vpgl.New(hp.client, nil)
	ctx := context.Background()

	cam, err := cams.LoadPerspectiveCamera(ctx, "cam.txt")
	if err != nil {
		t.Fatalf("LoadPerspectiveCamera: %v\nhost output:\n%s", err, hp.stdout.String())
	}
	center, err := cams.PerspectiveCameraCenter(ctx, cam)
	if err != nil {
		t.Fatalf("PerspectiveCameraCenter: %v", err)
	}
	if center != (r3.Vector{X: 1, Y: 2, Z: 3}) {
		t.Errorf("center = %v, want (1, 2, 3)", center)
	}

	run := hp.client.LastRun()
	resp, err := http.Get(url(hp, "/v1/runs/%s/logs/history", run.ID))
	if err != nil {
		t.Fatalf("GET history: %v", err)
	}
	defer resp.Body.Close()
	var history struct {
		Lines []struct {
			Line string `json:"line"`
		} `json:"lines"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	var found bool
	for _, l := range history.Lines {
		if strings.HasPrefix(l.Line, "stub vpglGetPerspectiveCamCenterProcess") {
			found = true
		}
	}
	if !found {
		t.Errorf("bridge log lines not recorded: %+v", history.Lines)
	}
}

func TestBridgeHostFailure(t *testing.T) {
	hp := startHost(t, getBinary(t, "batchhost"), "BATCHCAM_BRIDGE_BIN="+getBinary(t, "stubbridge"))

	_, err := vpgl.New(hp.client, nil).LoadAffineCamera(context.Background(), "missing.txt")
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Errorf("err = %v, want the bridge failure", err)
	}
}
