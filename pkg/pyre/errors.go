package pyre

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for registration and compilation.
var (
	// ErrDuplicateNodeType indicates a type identifier was registered twice.
	ErrDuplicateNodeType = errors.New("node type already registered")

	// ErrUnknownNodeType indicates a node references an unregistered type.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrRegistrySealed indicates a registration after the registry was
	// resolved against by a compilation.
	ErrRegistrySealed = errors.New("registry sealed")

	// ErrDanglingEdge indicates an edge endpoint that is not in the node set.
	ErrDanglingEdge = errors.New("dangling edge")

	// ErrTypeMismatch indicates an edge connecting incompatible node types.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNoStartNode indicates no node instance is marked start.
	ErrNoStartNode = errors.New("no start node")

	// ErrMultipleStartNodes indicates more than one node is marked start.
	ErrMultipleStartNodes = errors.New("multiple start nodes")
)

// Sentinel errors for execution.
var (
	// ErrRunCancelled indicates the run was cancelled before quiescence.
	ErrRunCancelled = errors.New("run cancelled")

	// ErrInvocationTimeout indicates an invocation exceeded the configured
	// per-node timeout.
	ErrInvocationTimeout = errors.New("invocation timed out")
)

// NodeError wraps an error produced by one invocation of a node instance.
type NodeError struct {
	// NodeID is the node instance that failed.
	NodeID string
	// InvocationID identifies the failed invocation within its run.
	InvocationID string
	// Err is the underlying error from the node logic.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (invocation %s): %v", e.NodeID, e.InvocationID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates an invocation ran past its per-node timeout.
// The invocation is recorded as failed; the underlying goroutine is not
// force-terminated but is awaited before run resources are released.
type TimeoutError struct {
	// NodeID is the node instance that timed out.
	NodeID string
	// Limit is the configured per-node timeout.
	Limit time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("node %s exceeded timeout of %s", e.NodeID, e.Limit)
}

// Unwrap returns ErrInvocationTimeout for errors.Is support.
func (e *TimeoutError) Unwrap() error {
	return ErrInvocationTimeout
}

// PanicError captures a panic raised inside node logic.
type PanicError struct {
	// NodeID is the node instance that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace captured at the point of recovery.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}
