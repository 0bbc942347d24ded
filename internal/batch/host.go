package batch

import (
	"context"
	"errors"

	"github.com/seantiz/batchcam/internal/model"
)

var (
	// ErrNoProcess is returned when inputs are set or a run is requested
	// before InitProcess.
	ErrNoProcess = errors.New("no process initialized")

	// ErrRunFailed is returned when the host reports that a process run failed.
	ErrRunFailed = errors.New("process run failed")

	// ErrOutputIndex is returned when an output index is outside the outputs
	// produced by the last run.
	ErrOutputIndex = errors.New("output index out of range")
)

// Host is a batch-process host. Implementations hold the state of one pending
// process between InitProcess and RunProcess and are not safe for concurrent
// use by multiple callers.
type Host interface {
	// InitProcess selects the named process and discards any inputs and
	// outputs of a previous call.
	InitProcess(name string) error

	// SetInput sets the input at the given position.
	SetInput(index int, v model.Value) error

	// RunProcess runs the selected process with the inputs set so far.
	RunProcess(ctx context.Context) error

	// CommitOutput commits the output at the given position of the last run
	// and returns its database handle.
	CommitOutput(index int) (model.Handle, error)

	// GetOutput fetches a committed value by database id.
	GetOutput(ctx context.Context, id uint64) (model.Value, error)

	// RemoveData drops a committed value from the host database.
	RemoveData(ctx context.Context, id uint64) error
}
