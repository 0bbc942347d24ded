package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/process"
)

// ErrRemote is returned when the bridge reports that the process failed.
var ErrRemote = errors.New("bridge process failed")

// Config locates the bridge executable.
type Config struct {
	// Bin is the bridge executable. The process name is appended to Args
	// as the last argument.
	Bin  string
	Args []string

	// Env is added to the environment inherited from the host.
	Env []string

	// TimeoutS is sent to the bridge when the run carries no timeout.
	TimeoutS int
}

// ExecProcess is a process.Process that runs in a bridge executable.
type ExecProcess struct {
	sig    model.Signature
	cfg    Config
	logger *slog.Logger
}

var _ process.Process = (*ExecProcess)(nil)

// NewExecProcess creates a bridged process with the given signature.
func NewExecProcess(sig model.Signature, cfg Config, logger *slog.Logger) *ExecProcess {
	return &ExecProcess{sig: sig, cfg: cfg, logger: logger}
}

// Register adds a bridged process for every signature to reg.
func Register(reg *process.Registry, sigs []model.Signature, cfg Config, logger *slog.Logger) {
	for _, sig := range sigs {
		reg.Register(NewExecProcess(sig, cfg, logger))
	}
}

func (p *ExecProcess) Signature() model.Signature {
	return p.sig
}

// Run spawns the bridge, sends the invocation and waits for its result.
// Log lines from the bridge and its stderr are forwarded to inv.LogWriter.
// Cancelling ctx kills the bridge.
func (p *ExecProcess) Run(ctx context.Context, inv *process.Invocation) (process.Result, error) {
	start := time.Now()
	name := p.sig.Name

	res, err := p.run(ctx, inv)
	execDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			execsTotal.WithLabelValues(name, statusKilled).Inc()
		} else {
			execsTotal.WithLabelValues(name, statusFailed).Inc()
		}
		return process.Result{}, err
	}
	execsTotal.WithLabelValues(name, statusCompleted).Inc()

	p.logger.Debug("bridge run completed",
		"run_id", inv.RunID,
		"process", name,
		"outputs", len(res.Outputs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *ExecProcess) run(ctx context.Context, inv *process.Invocation) (process.Result, error) {
	args := append(slices.Clone(p.cfg.Args), p.sig.Name)
	cmd := exec.CommandContext(ctx, p.cfg.Bin, args...)
	cmd.Env = append(os.Environ(), p.cfg.Env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return process.Result{}, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return process.Result{}, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return process.Result{}, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return process.Result{}, fmt.Errorf("start bridge %s: %w", p.cfg.Bin, err)
	}

	// LogWriter may be called from the stderr goroutine and from this one.
	var logMu sync.Mutex
	logLine := func(line string) {
		logMu.Lock()
		defer logMu.Unlock()
		inv.Log(line)
	}

	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logLine(scanner.Text())
		}
	}()

	timeoutS := inv.TimeoutS
	if timeoutS == 0 {
		timeoutS = p.cfg.TimeoutS
	}
	req := Request{
		Process:  p.sig.Name,
		RunID:    inv.RunID,
		Inputs:   inv.Inputs,
		Refs:     inv.Refs,
		TimeoutS: timeoutS,
	}
	writeErr := WriteMessage(stdin, &req)
	stdin.Close()

	resp, readErr := readMessages(stdout, logLine)
	// Drain anything written after the result so the bridge can exit.
	_, _ = io.Copy(io.Discard, stdout)
	<-stderrDone
	waitErr := cmd.Wait()

	switch {
	case ctx.Err() != nil:
		return process.Result{}, fmt.Errorf("bridge %s: %w", p.sig.Name, ctx.Err())
	case writeErr != nil && readErr != nil:
		return process.Result{}, fmt.Errorf("send request: %w", writeErr)
	case readErr != nil:
		if waitErr != nil {
			return process.Result{}, fmt.Errorf("%w (bridge exit: %v)", readErr, waitErr)
		}
		return process.Result{}, readErr
	case resp.Error != "":
		return process.Result{}, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	case waitErr != nil:
		return process.Result{}, fmt.Errorf("bridge exit: %w", waitErr)
	}
	return process.Result{Outputs: resp.Outputs}, nil
}
