// Package state records pipeline run history in SQLite.
// Each invocation of the pipeline creates a run row that is completed with
// its outcome and the counts reported by the pipeline.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status values.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunInputs are the files a run was started with.
type RunInputs struct {
	MeasurementsPath string
	NutrientsPath    string
	FoodsPath        string
	OutputPath       string
}

// RunStats are the counts recorded when a run completes.
type RunStats struct {
	Foods     int
	Features  int
	Unmapped  int
	Discarded int
}

// Run is one recorded pipeline execution.
type Run struct {
	ID          string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	RunInputs
	RunStats
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Store persists run history.
type Store interface {
	Open(path string) error
	Close() error
	Migrate(ctx context.Context) error

	CreateRun(ctx context.Context, inputs RunInputs) (*Run, error)
	CompleteRun(ctx context.Context, id string, status RunStatus, stats RunStats, errMsg string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	GetLatestRun(ctx context.Context) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
}
