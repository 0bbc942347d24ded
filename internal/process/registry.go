package process

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/seantiz/batchcam/internal/model"
)

// ErrUnknownProcess is returned when no process is registered under a name.
var ErrUnknownProcess = errors.New("unknown process")

// Registry holds registered processes keyed by signature name.
type Registry struct {
	mu        sync.RWMutex
	processes map[string]Process
}

// NewRegistry creates an empty process registry.
func NewRegistry() *Registry {
	return &Registry{
		processes: make(map[string]Process),
	}
}

// Register adds p under its signature name, replacing any process already
// registered with that name.
func (r *Registry) Register(p Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processes[p.Signature().Name] = p
}

// Resolve returns the process registered under name.
func (r *Registry) Resolve(name string) (Process, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.processes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProcess, name)
	}
	return p, nil
}

// List returns the signatures of all registered processes, sorted by name
// for a stable API response.
func (r *Registry) List() []model.Signature {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sigs := make([]model.Signature, 0, len(r.processes))
	for _, p := range r.processes {
		sigs = append(sigs, p.Signature())
	}
	sort.Slice(sigs, func(i, j int) bool {
		return sigs[i].Name < sigs[j].Name
	})
	return sigs
}

// Len returns the number of registered processes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.processes)
}
