package engine

import (
	"context"
	"fmt"

	"github.com/seantiz/batchcam/internal/batch"
	"github.com/seantiz/batchcam/internal/model"
)

// Session is a batch.Host that runs processes on an Engine. Like every
// batch.Host it holds the state of one pending call and must not be shared
// between goroutines.
type Session struct {
	engine  *Engine
	opts    []RunOption
	name    string
	inputs  []model.IndexedValue
	outputs []model.Handle
	lastRun *model.Run
}

var _ batch.Host = (*Session)(nil)

// NewSession returns a host session over e. opts apply to every run.
func (e *Engine) NewSession(opts ...RunOption) *Session {
	return &Session{engine: e, opts: opts}
}

// InitProcess selects the named process.
func (s *Session) InitProcess(name string) error {
	if _, err := s.engine.registry.Resolve(name); err != nil {
		return err
	}
	s.name = name
	s.inputs = nil
	s.outputs = nil
	s.lastRun = nil
	return nil
}

// SetInput sets the input at index, replacing any value set there before.
func (s *Session) SetInput(index int, v model.Value) error {
	if s.name == "" {
		return batch.ErrNoProcess
	}
	for i := range s.inputs {
		if s.inputs[i].Index == index {
			s.inputs[i].Value = v
			return nil
		}
	}
	s.inputs = append(s.inputs, model.IndexedValue{Index: index, Value: v})
	return nil
}

// RunProcess executes the selected process with the inputs set so far.
func (s *Session) RunProcess(ctx context.Context) error {
	if s.name == "" {
		return batch.ErrNoProcess
	}
	s.outputs = nil
	r, err := s.engine.Execute(ctx, s.name, s.inputs, s.opts...)
	s.lastRun = r
	if err != nil {
		return err
	}
	s.outputs = r.Outputs
	return nil
}

// CommitOutput returns the database handle of output index of the last run.
func (s *Session) CommitOutput(index int) (model.Handle, error) {
	if index < 0 || index >= len(s.outputs) {
		return model.Handle{}, fmt.Errorf("%w: %d of %d", batch.ErrOutputIndex, index, len(s.outputs))
	}
	return s.outputs[index], nil
}

// GetOutput fetches a committed value.
func (s *Session) GetOutput(ctx context.Context, id uint64) (model.Value, error) {
	v, err := s.engine.Value(ctx, id)
	if err != nil {
		return model.Value{}, fmt.Errorf("get value %d: %w", id, err)
	}
	return v, nil
}

// RemoveData drops a committed value.
func (s *Session) RemoveData(ctx context.Context, id uint64) error {
	if err := s.engine.Release(ctx, id); err != nil {
		return fmt.Errorf("remove value %d: %w", id, err)
	}
	return nil
}

// LastRun returns the run record of the last RunProcess call, or nil.
func (s *Session) LastRun() *model.Run {
	return s.lastRun
}
