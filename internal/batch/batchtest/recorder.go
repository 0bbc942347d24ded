// Package batchtest provides a recording batch host for tests.
package batchtest

import (
	"context"
	"fmt"

	"github.com/seantiz/batchcam/internal/batch"
	"github.com/seantiz/batchcam/internal/model"
)

// Op names one host contract operation in a transcript.
type Op string

const (
	OpInit   Op = "init"
	OpSet    Op = "set"
	OpRun    Op = "run"
	OpCommit Op = "commit"
	OpGet    Op = "get"
	OpRemove Op = "remove"
)

// Entry is one recorded host operation.
type Entry struct {
	Op    Op
	Name  string
	Index int
	Value model.Value
	ID    uint64
}

// Init builds an expected init entry.
func Init(name string) Entry { return Entry{Op: OpInit, Name: name} }

// Set builds an expected set entry.
func Set(index int, v model.Value) Entry { return Entry{Op: OpSet, Index: index, Value: v} }

// Run builds an expected run entry.
func Run() Entry { return Entry{Op: OpRun} }

// Commit builds an expected commit entry.
func Commit(index int) Entry { return Entry{Op: OpCommit, Index: index} }

// Get builds an expected get entry.
func Get(id uint64) Entry { return Entry{Op: OpGet, ID: id} }

// Remove builds an expected remove entry.
func Remove(id uint64) Entry { return Entry{Op: OpRemove, ID: id} }

// Recorder is a batch.Host that records every call and answers runs with
// scripted outputs. Database ids are assigned from 1 in commit order.
type Recorder struct {
	// Outputs holds the outputs each named process produces.
	Outputs map[string][]model.Value

	// Failures makes the named processes fail to run.
	Failures map[string]error

	// Calls is the transcript of host operations.
	Calls []Entry

	current string
	last    []model.Value
	db      map[uint64]model.Value
	nextID  uint64
}

var _ batch.Host = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		Outputs:  make(map[string][]model.Value),
		Failures: make(map[string]error),
		db:       make(map[uint64]model.Value),
	}
}

// Script sets the outputs produced by the named process.
func (r *Recorder) Script(name string, outputs ...model.Value) *Recorder {
	r.Outputs[name] = outputs
	return r
}

// Reset clears the transcript but keeps the database and the script.
func (r *Recorder) Reset() {
	r.Calls = nil
}

// Stored reports whether id is still present in the database.
func (r *Recorder) Stored(id uint64) bool {
	_, ok := r.db[id]
	return ok
}

func (r *Recorder) InitProcess(name string) error {
	r.Calls = append(r.Calls, Init(name))
	r.current = name
	r.last = nil
	return nil
}

func (r *Recorder) SetInput(index int, v model.Value) error {
	if r.current == "" {
		return batch.ErrNoProcess
	}
	r.Calls = append(r.Calls, Set(index, v))
	return nil
}

func (r *Recorder) RunProcess(_ context.Context) error {
	if r.current == "" {
		return batch.ErrNoProcess
	}
	r.Calls = append(r.Calls, Run())
	if err, ok := r.Failures[r.current]; ok {
		return fmt.Errorf("%w: %v", batch.ErrRunFailed, err)
	}
	r.last = r.Outputs[r.current]
	return nil
}

func (r *Recorder) CommitOutput(index int) (model.Handle, error) {
	r.Calls = append(r.Calls, Commit(index))
	if index < 0 || index >= len(r.last) {
		return model.Handle{}, batch.ErrOutputIndex
	}
	r.nextID++
	v := r.last[index]
	r.db[r.nextID] = v
	return model.Handle{ID: r.nextID, Type: v.Type}, nil
}

func (r *Recorder) GetOutput(_ context.Context, id uint64) (model.Value, error) {
	r.Calls = append(r.Calls, Get(id))
	v, ok := r.db[id]
	if !ok {
		return model.Value{}, fmt.Errorf("value %d not found", id)
	}
	return v, nil
}

func (r *Recorder) RemoveData(_ context.Context, id uint64) error {
	r.Calls = append(r.Calls, Remove(id))
	delete(r.db, id)
	return nil
}
