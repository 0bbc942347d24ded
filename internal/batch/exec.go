package batch

import (
	"context"
	"fmt"

	"github.com/seantiz/batchcam/internal/model"
)

// Exec performs one call against host: it selects the process, sets every
// input in order, runs it and, when read is non-nil, hands the outputs to
// read. Errors recorded by the Reader are returned.
func Exec(ctx context.Context, host Host, call *Call, read func(r *Reader)) error {
	if err := host.InitProcess(call.Name); err != nil {
		return fmt.Errorf("init %s: %w", call.Name, err)
	}
	for _, in := range call.Inputs {
		if err := host.SetInput(in.Index, in.Value); err != nil {
			return fmt.Errorf("%s: set input %d: %w", call.Name, in.Index, err)
		}
	}
	if err := host.RunProcess(ctx); err != nil {
		return fmt.Errorf("%s: %w", call.Name, err)
	}
	if read == nil {
		return nil
	}

	r := &Reader{ctx: ctx, host: host, name: call.Name}
	read(r)
	return r.err
}

// Reader commits and fetches the outputs of a finished run. The first error
// sticks: later reads are no-ops returning zero values, and Err reports it.
type Reader struct {
	ctx     context.Context
	host    Host
	name    string
	release bool
	err     error
}

// Err returns the first error encountered while reading outputs.
func (r *Reader) Err() error {
	return r.err
}

// Releasing returns a reader that removes each scalar from the host database
// right after fetching it. Errors are shared with r.
func (r *Reader) Releasing() *Releaser {
	return &Releaser{r: r}
}

func (r *Reader) fail(index int, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: output %d: %w", r.name, index, err)
	}
}

// Handle commits output index and returns its handle without fetching it.
func (r *Reader) Handle(index int) model.Handle {
	if r.err != nil {
		return model.Handle{}
	}
	h, err := r.host.CommitOutput(index)
	if err != nil {
		r.fail(index, err)
		return model.Handle{}
	}
	return h
}

// Fetch fetches a previously committed handle.
func (r *Reader) Fetch(index int, h model.Handle) model.Value {
	if r.err != nil {
		return model.Value{}
	}
	v, err := r.host.GetOutput(r.ctx, h.ID)
	if err != nil {
		r.fail(index, err)
		return model.Value{}
	}
	if r.release {
		if err := r.host.RemoveData(r.ctx, h.ID); err != nil {
			r.fail(index, err)
		}
	}
	return v
}

func (r *Reader) value(index int) model.Value {
	h := r.Handle(index)
	return r.Fetch(index, h)
}

// Double commits and fetches a double output.
func (r *Reader) Double(index int) float64 {
	v := r.value(index)
	return check(r, index, v, model.Value.AsDouble)
}

// Float commits and fetches a float output.
func (r *Reader) Float(index int) float32 {
	v := r.value(index)
	return check(r, index, v, model.Value.AsFloat)
}

// Int commits and fetches an int output.
func (r *Reader) Int(index int) int32 {
	v := r.value(index)
	return check(r, index, v, model.Value.AsInt)
}

// Unsigned commits and fetches an unsigned output.
func (r *Reader) Unsigned(index int) uint32 {
	v := r.value(index)
	return check(r, index, v, model.Value.AsUnsigned)
}

// FetchFloat fetches a float output committed earlier with Handle.
func (r *Reader) FetchFloat(index int, h model.Handle) float32 {
	v := r.Fetch(index, h)
	return check(r, index, v, model.Value.AsFloat)
}

func check[T any](r *Reader, index int, v model.Value, as func(model.Value) (T, error)) T {
	var zero T
	if r.err != nil {
		return zero
	}
	x, err := as(v)
	if err != nil {
		r.fail(index, err)
		return zero
	}
	return x
}

// Releaser reads outputs and removes each one from the host database after
// fetching it.
type Releaser struct {
	r *Reader
}

func (rr *Releaser) with(fn func()) {
	prev := rr.r.release
	rr.r.release = true
	fn()
	rr.r.release = prev
}

// Double commits, fetches and removes a double output.
func (rr *Releaser) Double(index int) (f float64) {
	rr.with(func() { f = rr.r.Double(index) })
	return f
}

// Float commits, fetches and removes a float output.
func (rr *Releaser) Float(index int) (f float32) {
	rr.with(func() { f = rr.r.Float(index) })
	return f
}
