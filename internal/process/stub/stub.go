// Package stub provides placeholder implementations of host processes. A
// stub checks the inputs it was given and answers with deterministic outputs
// of the declared types, which is enough to exercise the host end to end
// without the native library.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/process"
)

// MissingMarker makes a stub fail when any string input contains it, so
// tests can provoke run failures.
const MissingMarker = "missing"

// ErrMissingFile is returned when a string input contains MissingMarker.
var ErrMissingFile = errors.New("file not found")

// Object is the payload stored for object outputs.
type Object struct {
	Process string `json:"process"`
	RunID   string `json:"run_id"`
	Index   int    `json:"index"`
}

type stubProcess struct {
	sig model.Signature
}

// New returns a stub implementation of sig.
func New(sig model.Signature) process.Process {
	return &stubProcess{sig: sig}
}

// Register adds a stub for every signature to reg.
func Register(reg *process.Registry, sigs []model.Signature) {
	for _, sig := range sigs {
		reg.Register(New(sig))
	}
}

func (p *stubProcess) Signature() model.Signature {
	return p.sig
}

func (p *stubProcess) Run(ctx context.Context, inv *process.Invocation) (process.Result, error) {
	if err := ctx.Err(); err != nil {
		return process.Result{}, err
	}
	inv.Log(fmt.Sprintf("stub %s: %d inputs", p.sig.Name, len(inv.Inputs)))

	for i, param := range p.sig.Inputs {
		if i >= len(inv.Inputs) {
			break
		}
		v := inv.Inputs[i]
		switch {
		case v.IsZero():
			continue
		case param.Type == model.TypeString:
			s, err := v.AsString()
			if err != nil {
				return process.Result{}, fmt.Errorf("input %d: %w", i, err)
			}
			if strings.Contains(s, MissingMarker) {
				return process.Result{}, fmt.Errorf("%w: %s", ErrMissingFile, s)
			}
		case param.Refs:
			if err := checkRefs(v, inv.Refs); err != nil {
				return process.Result{}, fmt.Errorf("input %d: %w", i, err)
			}
		}
	}

	outputs := make([]model.Value, len(p.sig.Outputs))
	for i, t := range p.sig.Outputs {
		v, err := placeholder(t, i, p.sig.Name, inv.RunID)
		if err != nil {
			return process.Result{}, err
		}
		outputs[i] = v
	}
	inv.Log(fmt.Sprintf("stub %s: %d outputs", p.sig.Name, len(outputs)))
	return process.Result{Outputs: outputs}, nil
}

func checkRefs(v model.Value, refs map[uint64]model.Value) error {
	ids, err := v.AsUnsignedArray()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := refs[uint64(id)]; !ok {
			return fmt.Errorf("referenced value %d not attached", id)
		}
	}
	return nil
}

// placeholder returns the value output index of type t holds. Numeric
// outputs are index+1.
func placeholder(t model.Type, index int, name, runID string) (model.Value, error) {
	n := index + 1
	switch t {
	case model.TypeString:
		return model.String(name), nil
	case model.TypeDouble:
		return model.Double(float64(n)), nil
	case model.TypeFloat:
		return model.Float(float32(n)), nil
	case model.TypeInt:
		return model.Int(int32(n)), nil
	case model.TypeUnsigned:
		return model.Unsigned(uint32(n)), nil
	case model.TypeBool:
		return model.Bool(true), nil
	case model.TypeUnsignedArray:
		return model.UnsignedArray(nil), nil
	case model.TypeIntArray:
		return model.IntArray(nil), nil
	}

	data, err := json.Marshal(Object{Process: name, RunID: runID, Index: index})
	if err != nil {
		return model.Value{}, fmt.Errorf("encode %s: %w", t, err)
	}
	return model.Object(t, data), nil
}
