package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/seantiz/batchcam/internal/process"
)

// Agent serves bridge requests from a registry of in-process
// implementations. It is the bridge side of ExecProcess.
type Agent struct {
	registry *process.Registry
	logger   *slog.Logger
}

// NewAgent creates an agent dispatching to reg.
func NewAgent(reg *process.Registry, logger *slog.Logger) *Agent {
	return &Agent{registry: reg, logger: logger}
}

// Serve reads one request from r, runs it and writes the log and result
// messages to w. A process failure is reported in the result; the returned
// error is non-nil only when the request could not be read or the result
// could not be written.
func (a *Agent) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	var req Request
	if err := ReadMessage(r, &req); err != nil {
		a.logger.Error("read request", "error", err)
		if werr := sendResult(w, Response{Error: fmt.Sprintf("read request: %v", err)}); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}

	resp := a.execute(ctx, w, &req)
	return sendResult(w, resp)
}

func (a *Agent) execute(ctx context.Context, w io.Writer, req *Request) Response {
	p, err := a.registry.Resolve(req.Process)
	if err != nil {
		return Response{Error: err.Error()}
	}

	if req.TimeoutS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutS)*time.Second)
		defer cancel()
	}

	// Protects w from concurrent log lines.
	var writeMu sync.Mutex
	inv := &process.Invocation{
		RunID:    req.RunID,
		Inputs:   req.Inputs,
		Refs:     req.Refs,
		TimeoutS: req.TimeoutS,
		LogWriter: func(line string) {
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := WriteMessage(w, &Message{Type: MsgTypeLog, Line: line}); err != nil {
				a.logger.Warn("write log line", "run_id", req.RunID, "error", err)
			}
		},
	}

	res, err := p.Run(ctx, inv)
	if err != nil {
		return Response{Error: err.Error()}
	}
	return Response{Outputs: res.Outputs}
}

// sendResult sends the final Response wrapped in a Message.
func sendResult(w io.Writer, resp Response) error {
	msg := Message{
		Type:     MsgTypeResult,
		Response: &resp,
	}
	if err := WriteMessage(w, &msg); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
