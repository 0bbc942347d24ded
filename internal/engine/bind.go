package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/seantiz/batchcam/internal/model"
	"github.com/seantiz/batchcam/internal/store"
)

// ErrInvalidInput is returned when run inputs do not match the process
// signature.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// bind places inputs at their declared positions. Database references are
// replaced by the referenced values, and the values named by Refs arrays are
// loaded into the returned map.
func (e *Engine) bind(ctx context.Context, sig model.Signature, inputs []model.IndexedValue) ([]model.Value, map[uint64]model.Value, error) {
	args := make([]model.Value, len(sig.Inputs))
	seen := make([]bool, len(sig.Inputs))

	for _, in := range inputs {
		i := in.Index
		if i < 0 || i >= len(sig.Inputs) {
			return nil, nil, invalid("input %d out of range, %s takes %d inputs", i, sig.Name, len(sig.Inputs))
		}
		if seen[i] {
			return nil, nil, invalid("input %d set twice", i)
		}
		seen[i] = true

		want := sig.Inputs[i].Type
		v := in.Value
		if v.Type == model.TypeRef {
			resolved, err := e.deref(ctx, v)
			if err != nil {
				return nil, nil, invalid("input %d: %v", i, err)
			}
			v = resolved
		}
		if v.Type != want {
			return nil, nil, invalid("input %d: have %s, want %s", i, v.Type, want)
		}
		if err := checkValue(v); err != nil {
			return nil, nil, invalid("input %d: %v", i, err)
		}
		args[i] = v
	}

	for i, p := range sig.Inputs {
		if !seen[i] && !p.Optional {
			return nil, nil, invalid("input %d (%s) not set", i, p.Type)
		}
	}

	var refs map[uint64]model.Value
	for i, p := range sig.Inputs {
		if !p.Refs || args[i].IsZero() {
			continue
		}
		ids, err := args[i].AsUnsignedArray()
		if err != nil {
			return nil, nil, invalid("input %d: %v", i, err)
		}
		if refs == nil {
			refs = make(map[uint64]model.Value, len(ids))
		}
		for _, id := range ids {
			v, err := e.store.GetValue(ctx, uint64(id))
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil, invalid("input %d: no value with id %d", i, id)
			}
			if err != nil {
				return nil, nil, fmt.Errorf("load value %d: %w", id, err)
			}
			refs[uint64(id)] = v
		}
	}

	return args, refs, nil
}

// deref loads the value a ref points to and checks it has the handle's type.
func (e *Engine) deref(ctx context.Context, ref model.Value) (model.Value, error) {
	h, err := ref.AsRef()
	if err != nil {
		return model.Value{}, err
	}
	v, err := e.store.GetValue(ctx, h.ID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Value{}, fmt.Errorf("no value with id %d", h.ID)
	}
	if err != nil {
		return model.Value{}, err
	}
	if h.Type != "" && h.Type != v.Type {
		return model.Value{}, fmt.Errorf("value %d holds %s, handle says %s", h.ID, v.Type, h.Type)
	}
	return v, nil
}

// checkValue verifies that the payload of a scalar value decodes as its
// declared type. Object payloads are opaque and accepted as is.
func checkValue(v model.Value) error {
	var err error
	switch v.Type {
	case model.TypeString:
		_, err = v.AsString()
	case model.TypeDouble:
		_, err = v.AsDouble()
	case model.TypeFloat:
		_, err = v.AsFloat()
	case model.TypeInt:
		_, err = v.AsInt()
	case model.TypeUnsigned:
		_, err = v.AsUnsigned()
	case model.TypeBool:
		_, err = v.AsBool()
	case model.TypeUnsignedArray:
		_, err = v.AsUnsignedArray()
	case model.TypeIntArray:
		_, err = v.AsIntArray()
	}
	return err
}

// checkOutputs verifies that a process produced the declared outputs.
func checkOutputs(sig model.Signature, outputs []model.Value) error {
	if len(outputs) != len(sig.Outputs) {
		return fmt.Errorf("%s produced %d outputs, want %d", sig.Name, len(outputs), len(sig.Outputs))
	}
	for i, v := range outputs {
		if v.Type != sig.Outputs[i] {
			return fmt.Errorf("output %d: have %s, want %s", i, v.Type, sig.Outputs[i])
		}
		if err := checkValue(v); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}
	return nil
}
