// Package e2e builds the host binaries and drives them over HTTP.
package e2e

import (
	"bytes"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/seantiz/batchcam/internal/hostclient"
)

const (
	startupTimeout = 10 * time.Second
	pollInterval   = 100 * time.Millisecond
)

// lockedBuffer is a thread-safe wrapper around bytes.Buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lb *lockedBuffer) Write(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.Write(p)
}

func (lb *lockedBuffer) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.String()
}

// hostProc holds a running host subprocess and its output.
type hostProc struct {
	cmd    *exec.Cmd
	stdout *lockedBuffer
	url    string
	client *hostclient.Client
}

var (
	buildDir  string
	buildOnce sync.Once
	buildErr  error
	builtMu   sync.Mutex
	built     = map[string]string{}
)

// getBinary builds ./cmd/<name> once per test binary and returns its path.
func getBinary(t *testing.T, name string) string {
	t.Helper()
	buildOnce.Do(func() {
		buildDir, buildErr = os.MkdirTemp("", "batchcam-e2e-*")
	})
	if buildErr != nil {
		t.Fatal(buildErr)
	}

	builtMu.Lock()
	defer builtMu.Unlock()
	if path, ok := built[name]; ok {
		return path
	}

	binary := filepath.Join(buildDir, name)
	cmd := exec.Command("go", "build", "-o", binary, "./cmd/"+name)
	cmd.Dir = findRepoRoot(t)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build %s failed: %v\n%s", name, err, out)
	}
	built[name] = binary
	return binary
}

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root")
		}
		dir = parent
	}
}

// startHost runs binary on a free port with env added to the defaults and
// waits for /healthz.
func startHost(t *testing.T, binary string, env ...string) *hostProc {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	stdout := &lockedBuffer{}
	cmd := exec.Command(binary)
	cmd.Env = append(os.Environ(),
		"BATCHCAM_CONFIG=",
		"BATCHCAM_LISTEN_ADDR="+addr,
		"BATCHCAM_DB_PATH="+filepath.Join(t.TempDir(), "test.db"),
		"BATCHCAM_LOG_LEVEL=info",
	)
	cmd.Env = append(cmd.Env, env...)
	cmd.Stdout = stdout
	cmd.Stderr = stdout

	if err := cmd.Start(); err != nil {
		t.Fatalf("start host: %v", err)
	}
	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Wait()
	})

	hp := &hostProc{
		cmd:    cmd,
		stdout: stdout,
		url:    "http://" + addr,
		client: hostclient.New("http://" + addr),
	}

	deadline := time.Now().Add(startupTimeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(hp.url + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return hp
			}
		}
		time.Sleep(pollInterval)
	}
	t.Fatalf("host did not become ready within %v\nstdout:\n%s", startupTimeout, stdout.String())
	return nil
}

func TestMain(m *testing.M) {
	code := m.Run()
	if buildDir != "" {
		os.RemoveAll(buildDir)
	}
	os.Exit(code)
}

func mustStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status = %d, want %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want)
	}
}

func url(hp *hostProc, format string, args ...any) string {
	return hp.url + fmt.Sprintf(format, args...)
}
