// Package sagalog is the append-only audit trail of order lifecycle runs.
//
// Every run of the lifecycle simulator writes one row when it starts, one per
// applied transition, and one when it ends. Rows carry the trace and span ids
// that were active, so a row can be joined with the exported trace.
package sagalog

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("sagalog: no entries")

// Status is the state of a run at the time an entry was written.
type Status string

const (
	StatusStarted   Status = "STARTED"
	StatusStepDone  Status = "STEP_DONE"
	StatusCompleted Status = "COMPLETED"
	StatusStopped   Status = "STOPPED"
	StatusFailed    Status = "FAILED"
)

type Entry struct {
	// RunID identifies one simulator run. An order normally has one run, but
	// a restarted run gets a fresh id.
	RunID   string
	OrderID string
	Status  Status
	// Step is the name of the step that was just executed or failed.
	Step string
	// OrderStatus is the order's status once the step was applied.
	OrderStatus   string
	ErrorMessages []string
	TraceID       string
	SpanID        string
	RecordedAt    time.Time
}

// Repository stores entries. Save always appends.
type Repository interface {
	Save(ctx context.Context, e *Entry) error
	// GetLatest returns the newest entry for orderID or ErrNotFound.
	GetLatest(ctx context.Context, orderID string) (*Entry, error)
	// History returns all entries for orderID, oldest first.
	History(ctx context.Context, orderID string) ([]Entry, error)
}
