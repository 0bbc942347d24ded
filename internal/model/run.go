package model

import "time"

// Run status constants.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusKilled    = "killed"
)

// validTransitions maps each status to the set of statuses it may transition to.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusRunning: true,
		StatusFailed:  true,
		StatusKilled:  true,
	},
	StatusRunning: {
		StatusCompleted: true,
		StatusFailed:    true,
		StatusKilled:    true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// IsTerminal reports whether status is final.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusKilled
}

// LogLine represents a single persisted log line from a process run.
type LogLine struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Seq       int       `json:"seq"`
	Line      string    `json:"line"`
	CreatedAt time.Time `json:"created_at"`
}

// Run records one invocation of a named process on the host.
type Run struct {
	ID         string         `json:"id"`
	Process    string         `json:"process"`
	Status     string         `json:"status"`
	Inputs     []IndexedValue `json:"inputs,omitempty"`
	Outputs    []Handle       `json:"outputs,omitempty"`
	Error      string         `json:"error,omitempty"`
	TimeoutS   *int           `json:"timeout_s,omitempty"`
	DurationMS *int           `json:"duration_ms,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}
