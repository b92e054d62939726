// Package journal provides persistent run-history storage: every run
// and invocation transition can be appended to a Store and inspected
// after the fact.
package journal

import (
	"errors"
	"time"
)

// Status is the recorded transition.
type Status string

// Recorded transitions.
const (
	StatusRunStarted  Status = "run_started"
	StatusRunFinished Status = "run_finished"
	StatusStarted     Status = "started"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Entry is one journal record. Run-level entries carry empty NodeID and
// InvocationID.
type Entry struct {
	// Seq is the store-assigned sequence number, ascending per store.
	Seq int64
	// RunID is the run the entry belongs to.
	RunID string
	// InvocationID identifies the invocation, empty for run entries.
	InvocationID string
	// NodeID is the node instance, empty for run entries.
	NodeID string
	// Status is the transition recorded.
	Status Status
	// Error holds the failure message for failed entries.
	Error string
	// At is when the transition happened.
	At time.Time
	// Duration is the elapsed time for completed and failed entries.
	Duration time.Duration
}

// Store persists journal entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append records an entry. The store assigns Seq.
	Append(e Entry) error

	// List returns all entries for a run in append order.
	// Returns an empty slice (not an error) for unknown runs.
	List(runID string) ([]Entry, error)

	// DeleteRun removes all entries for a run.
	// Returns nil if the run has no entries.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for journal operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)
