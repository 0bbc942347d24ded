package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/process"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// testRegistry registers the processes used by agent and exec tests.
func testRegistry() *process.Registry {
	reg := process.NewRegistry()
	reg.Register(process.Func{
		Sig: model.Signature{
			Name:    "sumProcess",
			Inputs:  []model.Param{model.In(model.TypeFloat), model.In(model.TypeFloat)},
			Outputs: []model.Type{model.TypeFloat},
		},
		Fn: func(_ context.Context, inv *process.Invocation) (process.Result, error) {
			a, err := inv.Inputs[0].AsFloat()
			if err != nil {
				return process.Result{}, err
			}
			b, err := inv.Inputs[1].AsFloat()
			if err != nil {
				return process.Result{}, err
			}
			inv.Log("adding")
			return process.Result{Outputs: []model.Value{model.Float(a + b)}}, nil
		},
	})
	reg.Register(process.Func{
		Sig: model.Signature{Name: "failProcess"},
		Fn: func(_ context.Context, _ *process.Invocation) (process.Result, error) {
			return process.Result{}, errors.New("camera file not found")
		},
	})
	reg.Register(process.Func{
		Sig: model.Signature{Name: "blockProcess"},
		Fn: func(ctx context.Context, _ *process.Invocation) (process.Result, error) {
			<-ctx.Done()
			return process.Result{}, ctx.Err()
		},
	})
	return reg
}

func serve(t *testing.T, req Request) ([]string, Response) {
	t.Helper()
	var in, out bytes.Buffer
	if err := WriteMessage(&in, &req); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	agent := NewAgent(testRegistry(), discardLogger())
	if err := agent.Serve(context.Background(), &in, &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var lines []string
	resp, err := readMessages(&out, func(l string) { lines = append(lines, l) })
	if err != nil {
		t.Fatalf("readMessages: %v", err)
	}
	return lines, resp
}

func TestAgentServe(t *testing.T) {
	lines, resp := serve(t, Request{
		Process: "sumProcess",
		RunID:   "run-1",
		Inputs:  []model.Value{model.Float(1.5), model.Float(2)},
	})

	if resp.Error != "" {
		t.Fatalf("Error = %q", resp.Error)
	}
	if len(lines) != 1 || lines[0] != "adding" {
		t.Errorf("log lines = %v, want [adding]", lines)
	}
	if len(resp.Outputs) != 1 {
		t.Fatalf("outputs = %d, want 1", len(resp.Outputs))
	}
	if f, _ := resp.Outputs[0].AsFloat(); f != 3.5 {
		t.Errorf("sum = %v, want 3.5", f)
	}
}

func TestAgentProcessError(t *testing.T) {
	_, resp := serve(t, Request{Process: "failProcess"})
	if resp.Error != "camera file not found" {
		t.Errorf("Error = %q", resp.Error)
	}
}

func TestAgentUnknownProcess(t *testing.T) {
	_, resp := serve(t, Request{Process: "vpglMissingProcess"})
	if !strings.Contains(resp.Error, "unknown process") {
		t.Errorf("Error = %q, want unknown process", resp.Error)
	}
}

func TestAgentTimeout(t *testing.T) {
	_, resp := serve(t, Request{Process: "blockProcess", TimeoutS: 1})
	if !strings.Contains(resp.Error, "deadline exceeded") {
		t.Errorf("Error = %q, want deadline exceeded", resp.Error)
	}
}

func TestAgentBadRequest(t *testing.T) {
	in := bytes.NewReader([]byte{0x00, 0x00, 0x00, 0x02, '{'})
	var out bytes.Buffer

	agent := NewAgent(testRegistry(), discardLogger())
	if err := agent.Serve(context.Background(), in, &out); err == nil {
		t.Fatal("expected error for truncated request")
	}

	resp, err := readMessages(&out, nil)
	if err != nil {
		t.Fatalf("readMessages: %v", err)
	}
	if !strings.Contains(resp.Error, "read request") {
		t.Errorf("Error = %q, want read request failure", resp.Error)
	}
}
