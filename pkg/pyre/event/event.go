// Package event publishes run and invocation lifecycle events to
// in-process subscribers. It lets external observers watch a run
// without reaching into scheduler internals.
package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of lifecycle event.
type Type string

// Lifecycle event types.
const (
	TypeRunStarted          Type = "run.started"
	TypeRunFinished         Type = "run.finished"
	TypeInvocationStarted   Type = "invocation.started"
	TypeInvocationCompleted Type = "invocation.completed"
	TypeInvocationFailed    Type = "invocation.failed"
)

// Event is one lifecycle notification.
type Event struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`

	// Type is the lifecycle event type.
	Type Type `json:"type"`

	// RunID is the run the event belongs to.
	RunID string `json:"run_id"`

	// NodeID is the node instance, empty for run-level events.
	NodeID string `json:"node_id,omitempty"`

	// InvocationID identifies the invocation, empty for run-level events.
	InvocationID string `json:"invocation_id,omitempty"`

	// Status carries the terminal run status on run.finished events.
	Status string `json:"status,omitempty"`

	// Error carries the failure message on invocation.failed events.
	Error string `json:"error,omitempty"`

	// At is when the event occurred.
	At time.Time `json:"at"`
}

// New creates an event with a fresh id and timestamp.
func New(t Type, runID string) Event {
	return Event{
		ID:    fmt.Sprintf("evt-%s", uuid.New().String()[:8]),
		Type:  t,
		RunID: runID,
		At:    time.Now(),
	}
}

// WithInvocation sets the node and invocation fields.
func (e Event) WithInvocation(nodeID, invocationID string) Event {
	e.NodeID = nodeID
	e.InvocationID = invocationID
	return e
}

// WithStatus sets the terminal status field.
func (e Event) WithStatus(status string) Event {
	e.Status = status
	return e
}

// WithError sets the failure message field.
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
