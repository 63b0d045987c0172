// Package state records construction runs and their per-entity outcomes in
// a local SQLite database.
package state

import "time"

// RunStatus is the lifecycle state of a construction run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// EntityStatus is the outcome of one entity within a run.
type EntityStatus string

const (
	EntityStatusPending EntityStatus = "pending"
	EntityStatusSuccess EntityStatus = "success"
	EntityStatusFailed  EntityStatus = "failed"
	EntityStatusSkipped EntityStatus = "skipped"
)

// Run is one construction call with Execute set.
type Run struct {
	ID          string
	Status      RunStatus
	Dialect     string
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// EntityRun is the recorded outcome for one entity of a run. Position is
// the entity's index in build order, so a partial failure shows exactly
// which entities were executed before the first failure.
type EntityRun struct {
	ID          string
	RunID       string
	Entity      string
	Kind        string
	Status      EntityStatus
	Position    int
	Error       string
	ExecutionMS int64
}

// Store persists construction run history.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(dialect string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	RecordEntityRun(er *EntityRun) error
	UpdateEntityRun(id string, status EntityStatus, errMsg string, executionMS int64) error
	ListEntityRuns(runID string) ([]*EntityRun, error)
}
