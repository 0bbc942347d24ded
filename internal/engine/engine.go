package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/seantiz/batchcam/internal/batch"
	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/process"
	"github.com/seantiz/batchcam/internal/store"
)

const (
	// DefaultTimeoutS is the default timeout in seconds when none is specified.
	DefaultTimeoutS = 30

	// DefaultMaxConcurrentRuns bounds the runs executing at once.
	DefaultMaxConcurrentRuns = 4
)

// ErrKilled is the failure cause of a run stopped by Kill.
var ErrKilled = errors.New("run killed")

// Engine executes processes on behalf of batch hosts and API callers.
// It is safe for concurrent use.
type Engine struct {
	store    store.Store
	registry *process.Registry
	logger   *slog.Logger
	broker   *LogBroker
	sem      *semaphore.Weighted
	timeoutS int
	wg       sync.WaitGroup

	mu     sync.Mutex
	active map[string]context.CancelCauseFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxConcurrentRuns bounds the number of runs executing at once. Further
// runs wait in pending status for a free slot.
func WithMaxConcurrentRuns(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithDefaultTimeout sets the timeout applied to runs that do not request one.
func WithDefaultTimeout(seconds int) Option {
	return func(e *Engine) {
		if seconds > 0 {
			e.timeoutS = seconds
		}
	}
}

// NewEngine creates a new execution engine.
func NewEngine(s store.Store, reg *process.Registry, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		registry: reg,
		logger:   logger,
		broker:   NewLogBroker(),
		sem:      semaphore.NewWeighted(DefaultMaxConcurrentRuns),
		timeoutS: DefaultTimeoutS,
		active:   make(map[string]context.CancelCauseFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Broker returns the engine's log broker for SSE subscription.
func (e *Engine) Broker() *LogBroker {
	return e.broker
}

// Registry returns the processes the engine can run.
func (e *Engine) Registry() *process.Registry {
	return e.registry
}

// RunOption configures a single run.
type RunOption func(*runOptions)

type runOptions struct {
	timeoutS int
}

// WithTimeout overrides the engine's default timeout for one run.
func WithTimeout(seconds int) RunOption {
	return func(o *runOptions) {
		o.timeoutS = seconds
	}
}

// job is a run whose inputs have been bound and validated.
type job struct {
	proc     process.Process
	sig      model.Signature
	args     []model.Value
	refs     map[uint64]model.Value
	timeoutS int
}

// Execute runs the named process synchronously and returns the finished run.
// On failure the failed run is returned together with an error wrapping
// batch.ErrRunFailed, and additionally ErrInvalidInput when the inputs were
// rejected.
func (e *Engine) Execute(ctx context.Context, name string, inputs []model.IndexedValue, opts ...RunOption) (*model.Run, error) {
	r, j, err := e.prepare(ctx, name, inputs, opts)
	if err != nil {
		return r, err
	}
	return e.execute(ctx, r, j)
}

// Submit validates the inputs and launches the run in a goroutine. The
// returned run is in pending status. The goroutine operates on a copy of the
// run to avoid data races with the caller.
func (e *Engine) Submit(ctx context.Context, name string, inputs []model.IndexedValue, opts ...RunOption) (*model.Run, error) {
	r, j, err := e.prepare(ctx, name, inputs, opts)
	if err != nil {
		return r, err
	}

	rCopy := *r
	e.wg.Go(func() {
		e.execute(context.Background(), &rCopy, j)
	})

	return r, nil
}

// Wait blocks until all in-flight submitted runs complete.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Kill stops a pending or running run. A run that already finished yields
// store.ErrInvalidTransition; an unknown one store.ErrNotFound.
func (e *Engine) Kill(ctx context.Context, id string) error {
	if err := e.store.UpdateRunStatus(ctx, id, model.StatusKilled); err != nil {
		return err
	}

	e.mu.Lock()
	cancel, ok := e.active[id]
	e.mu.Unlock()
	if ok {
		cancel(ErrKilled)
	}

	e.logger.Info("run killed", "run_id", id)
	return nil
}

// Value returns a value held in the database.
func (e *Engine) Value(ctx context.Context, id uint64) (model.Value, error) {
	return e.store.GetValue(ctx, id)
}

// Release drops a value from the database.
func (e *Engine) Release(ctx context.Context, id uint64) error {
	return e.store.DeleteValue(ctx, id)
}

// prepare records a pending run and binds its inputs. A run that cannot be
// prepared is recorded as failed.
func (e *Engine) prepare(ctx context.Context, name string, inputs []model.IndexedValue, opts []RunOption) (*model.Run, *job, error) {
	o := runOptions{timeoutS: e.timeoutS}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeoutS <= 0 {
		o.timeoutS = e.timeoutS
	}

	r := &model.Run{
		ID:        model.NewID(),
		Process:   name,
		Status:    model.StatusPending,
		Inputs:    inputs,
		TimeoutS:  &o.timeoutS,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.CreateRun(ctx, r); err != nil {
		return nil, nil, fmt.Errorf("create run: %w", err)
	}

	proc, err := e.registry.Resolve(name)
	if err != nil {
		e.broker.Close(r.ID)
		r, err = e.fail(context.Background(), r, nil, err)
		return r, nil, err
	}
	sig := proc.Signature()

	args, refs, err := e.bind(ctx, sig, inputs)
	if err != nil {
		e.broker.Close(r.ID)
		r, err = e.fail(context.Background(), r, nil, err)
		return r, nil, err
	}

	return r, &job{proc: proc, sig: sig, args: args, refs: refs, timeoutS: o.timeoutS}, nil
}

// execute runs a prepared job: pending→running→completed/failed.
func (e *Engine) execute(parent context.Context, r *model.Run, j *job) (*model.Run, error) {
	// Close the log stream when execution finishes, regardless of outcome.
	defer e.broker.Close(r.ID)

	killCtx, kill := context.WithCancelCause(parent)
	defer kill(nil)
	ctx, cancel := context.WithTimeout(killCtx, time.Duration(j.timeoutS)*time.Second)
	defer cancel()

	e.mu.Lock()
	e.active[r.ID] = kill
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.active, r.ID)
		e.mu.Unlock()
	}()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return e.fail(ctx, r, nil, runError(ctx, err, j.timeoutS))
	}
	defer e.sem.Release(1)
	runsInFlight.Inc()
	defer runsInFlight.Dec()

	if err := e.store.UpdateRunStatus(context.Background(), r.ID, model.StatusRunning); err != nil {
		e.logger.Error("failed to transition to running", "run_id", r.ID, "error", err)
		return e.fail(ctx, r, nil, fmt.Errorf("failed to start: %w", err))
	}

	// Capture start time immediately after the running transition so that
	// started_at stays consistent across success and failure paths.
	start := time.Now().UTC()
	r.Status = model.StatusRunning
	r.StartedAt = &start

	inv := &process.Invocation{
		RunID:     r.ID,
		Inputs:    j.args,
		Refs:      j.refs,
		TimeoutS:  j.timeoutS,
		LogWriter: e.logWriter(r.ID),
	}
	res, err := j.proc.Run(ctx, inv)
	if err != nil {
		return e.fail(ctx, r, &start, runError(ctx, err, j.timeoutS))
	}
	if err := checkOutputs(j.sig, res.Outputs); err != nil {
		return e.fail(ctx, r, &start, err)
	}

	handles, err := e.storeOutputs(r.ID, res.Outputs)
	if err != nil {
		return e.fail(ctx, r, &start, err)
	}

	now := time.Now().UTC()
	dur := int(now.Sub(start).Milliseconds())
	r.Status = model.StatusCompleted
	r.Outputs = handles
	r.DurationMS = &dur
	r.FinishedAt = &now

	if err := e.store.UpdateRun(context.Background(), r); err != nil {
		e.releaseAll(handles)
		r.Outputs = nil
		if errors.Is(err, store.ErrInvalidTransition) {
			// Killed between the process returning and the completion write.
			e.refreshStatus(r)
			e.observe(r, start)
			return r, fmt.Errorf("%w: %w", batch.ErrRunFailed, ErrKilled)
		}
		e.logger.Error("failed to update completed run", "run_id", r.ID, "error", err)
		return r, fmt.Errorf("%w: record completion: %w", batch.ErrRunFailed, err)
	}

	e.observe(r, start)
	e.logger.Info("run completed", "run_id", r.ID, "process", r.Process, "duration_ms", dur, "outputs", len(handles))
	return r, nil
}

// runError turns a context-driven failure into its cause.
func runError(ctx context.Context, err error, timeoutS int) error {
	switch cause := context.Cause(ctx); {
	case errors.Is(cause, ErrKilled):
		return ErrKilled
	case errors.Is(cause, context.DeadlineExceeded):
		return fmt.Errorf("run timed out after %ds", timeoutS)
	}
	return err
}

func (e *Engine) logWriter(runID string) func(string) {
	// The LogWriter dual-writes: persist to SQLite for historical viewing,
	// then publish to LogBroker for real-time SSE.
	var seq atomic.Int32
	return func(line string) {
		currentSeq := int(seq.Add(1) - 1)
		if err := e.store.InsertLogLine(context.Background(), runID, currentSeq, line); err != nil {
			e.logger.Error("failed to persist log line", "run_id", runID, "seq", currentSeq, "error", err)
		}
		e.broker.Publish(runID, line)
	}
}

// storeOutputs commits every output to the value database. On error the
// values stored so far are removed again.
func (e *Engine) storeOutputs(runID string, outputs []model.Value) ([]model.Handle, error) {
	handles := make([]model.Handle, 0, len(outputs))
	for i, v := range outputs {
		id, err := e.store.PutValue(context.Background(), runID, v)
		if err != nil {
			e.releaseAll(handles)
			return nil, fmt.Errorf("store output %d: %w", i, err)
		}
		handles = append(handles, model.Handle{ID: id, Type: v.Type})
	}
	return handles, nil
}

func (e *Engine) releaseAll(handles []model.Handle) {
	for _, h := range handles {
		if err := e.store.DeleteValue(context.Background(), h.ID); err != nil {
			e.logger.Error("failed to release output", "value_id", h.ID, "error", err)
		}
	}
}

// fail marks a run as failed with cause. startedAt is nil if execution never
// started. A run already killed keeps its killed status.
func (e *Engine) fail(ctx context.Context, r *model.Run, startedAt *time.Time, cause error) (*model.Run, error) {
	now := time.Now().UTC()
	r.Status = model.StatusFailed
	if errors.Is(cause, ErrKilled) || errors.Is(context.Cause(ctx), ErrKilled) {
		r.Status = model.StatusKilled
	}
	r.Error = cause.Error()
	r.StartedAt = startedAt
	r.FinishedAt = &now
	if startedAt != nil {
		dur := int(now.Sub(*startedAt).Milliseconds())
		r.DurationMS = &dur
	}

	if err := e.store.UpdateRun(context.Background(), r); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			e.refreshStatus(r)
		} else {
			e.logger.Error("failed to update failed run", "run_id", r.ID, "error", err)
		}
	}

	if startedAt != nil {
		e.observe(r, *startedAt)
	} else {
		runsTotal.WithLabelValues(r.Process, r.Status).Inc()
	}
	e.logger.Warn("run failed", "run_id", r.ID, "process", r.Process, "status", r.Status, "error", r.Error)
	return r, fmt.Errorf("%w: %w", batch.ErrRunFailed, cause)
}

// refreshStatus reloads the status another writer gave r.
func (e *Engine) refreshStatus(r *model.Run) {
	cur, err := e.store.GetRun(context.Background(), r.ID)
	if err != nil {
		e.logger.Error("failed to reload run", "run_id", r.ID, "error", err)
		return
	}
	r.Status = cur.Status
	r.FinishedAt = cur.FinishedAt
}

func (e *Engine) observe(r *model.Run, start time.Time) {
	runsTotal.WithLabelValues(r.Process, r.Status).Inc()
	runDuration.WithLabelValues(r.Process).Observe(time.Since(start).Seconds())
}
