package process

import (
	"context"

	"github.com/seantiz/batchcam/internal/model"
)

// Process is a named operation the host can run. Implementations may be
// in-process Go code or a bridge to an external executable.
type Process interface {
	// Signature declares the positional input and output types.
	Signature() model.Signature

	// Run executes the process. The context carries the run deadline.
	Run(ctx context.Context, inv *Invocation) (Result, error)
}

// Invocation carries the validated inputs of one run.
type Invocation struct {
	RunID string `json:"run_id"`

	// Inputs holds one value per declared input. Absent optional inputs are
	// zero Values. Database references have already been replaced by the
	// referenced values.
	Inputs []model.Value `json:"inputs"`

	// Refs holds the values referenced by id arrays declared with Refs.
	Refs map[uint64]model.Value `json:"refs,omitempty"`

	TimeoutS int `json:"timeout_s"`

	// LogWriter is an optional callback processes invoke to emit log lines
	// during execution. Each call delivers one line to log subscribers.
	LogWriter func(line string) `json:"-"`
}

// Log writes line through LogWriter when one is set.
func (inv *Invocation) Log(line string) {
	if inv.LogWriter != nil {
		inv.LogWriter(line)
	}
}

// Result holds the positional outputs of a run.
type Result struct {
	Outputs []model.Value `json:"outputs"`
}

// Func adapts a function to the Process interface.
type Func struct {
	Sig model.Signature
	Fn  func(ctx context.Context, inv *Invocation) (Result, error)
}

var _ Process = Func{}

func (f Func) Signature() model.Signature { return f.Sig }

func (f Func) Run(ctx context.Context, inv *Invocation) (Result, error) {
	return f.Fn(ctx, inv)
}
