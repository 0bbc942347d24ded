package batch

import "github.com/seantiz/batchcam/internal/model"

// Call is a positional process invocation under construction. Inputs are
// sent to the host in the order they were added.
type Call struct {
	Name   string
	Inputs []model.IndexedValue
}

// NewCall starts a call to the named process.
func NewCall(name string) *Call {
	return &Call{Name: name}
}

// Set adds an input value at index.
func (c *Call) Set(index int, v model.Value) *Call {
	c.Inputs = append(c.Inputs, model.IndexedValue{Index: index, Value: v})
	return c
}

func (c *Call) String(index int, s string) *Call { return c.Set(index, model.String(s)) }

func (c *Call) Double(index int, f float64) *Call { return c.Set(index, model.Double(f)) }

func (c *Call) Float(index int, f float32) *Call { return c.Set(index, model.Float(f)) }

func (c *Call) Int(index int, n int32) *Call { return c.Set(index, model.Int(n)) }

func (c *Call) Unsigned(index int, n uint32) *Call { return c.Set(index, model.Unsigned(n)) }

func (c *Call) Bool(index int, b bool) *Call { return c.Set(index, model.Bool(b)) }

// Handle adds a reference to a value already held in the host database.
func (c *Call) Handle(index int, h model.Handle) *Call { return c.Set(index, model.Ref(h)) }

func (c *Call) UnsignedArray(index int, xs []uint32) *Call {
	return c.Set(index, model.UnsignedArray(xs))
}

func (c *Call) IntArray(index int, xs []int32) *Call {
	return c.Set(index, model.IntArray(xs))
}
