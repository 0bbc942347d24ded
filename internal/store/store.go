package store

import (
	"context"
	"errors"

	"github.com/seantiz/batchcam/internal/model"
)

// ErrInvalidTransition is returned when a run status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// RunStats holds aggregate execution statistics.
type RunStats struct {
	Total          int            `json:"total"`
	CountByStatus  map[string]int `json:"count_by_status"`
	CountByProcess map[string]int `json:"count_by_process"`
	AvgDurationMS  float64        `json:"avg_duration_ms"`
}

// Store defines the persistence operations for runs, their log output and
// the value database that holds committed process outputs.
type Store interface {
	CreateRun(ctx context.Context, r *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*model.Run, int, error)
	UpdateRunStatus(ctx context.Context, id, status string) error
	UpdateRun(ctx context.Context, r *model.Run) error
	GetRunStats(ctx context.Context) (*RunStats, error)

	InsertLogLine(ctx context.Context, runID string, seq int, line string) error
	GetLogLines(ctx context.Context, runID string) ([]model.LogLine, error)

	PutValue(ctx context.Context, runID string, v model.Value) (uint64, error)
	GetValue(ctx context.Context, id uint64) (model.Value, error)
	DeleteValue(ctx context.Context, id uint64) error

	Close() error
}
