package pyre

import (
	"context"
	"time"
)

// Status is the observable state of a run.
type Status string

// Run states.
const (
	// StatusRunning means invocations are pending or in flight.
	StatusRunning Status = "running"
	// StatusQuiescent means the queue emptied and nothing is in flight.
	StatusQuiescent Status = "quiescent"
	// StatusCancelled means the run was cancelled and has drained.
	StatusCancelled Status = "cancelled"
	// StatusFailed means fail-fast tripped on an invocation failure and
	// the run was cancelled and drained.
	StatusFailed Status = "failed"
)

// Failure records one terminal invocation failure. No failure is
// silently dropped; all of them accumulate on the RunResult.
type Failure struct {
	// NodeID is the node instance that failed.
	NodeID string
	// InvocationID identifies the failed invocation.
	InvocationID string
	// Err is the failure cause.
	Err error
}

// RunResult is the aggregate outcome of a finished run.
type RunResult struct {
	// RunID identifies the run.
	RunID string
	// Status is Quiescent for natural termination or Cancelled when the
	// run was cancelled (explicitly or by fail-fast) and drained.
	Status Status
	// Output is the output of the last execution path to terminate, or
	// nil if no path terminated.
	Output any
	// Failures are the terminal invocation failures, in completion order.
	Failures []Failure
	// Invocations is the number of invocations dispatched.
	Invocations int
	// Duration is the wall-clock time from start to terminal state.
	Duration time.Duration
}

// RunHandle controls and observes one run.
type RunHandle struct {
	s *scheduler
}

// RunID returns the run's unique identifier.
func (h *RunHandle) RunID() string {
	return h.s.runID
}

// Status returns the run's current state.
func (h *RunHandle) Status() Status {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return h.s.status
}

// Cancel stops new invocations from being dispatched and drains the
// queue. Already-running invocations are not force-terminated; their
// contexts are cancelled and they run to completion. Cancel is
// idempotent and a no-op on a finished run.
func (h *RunHandle) Cancel() {
	s := h.s
	s.mu.Lock()
	if s.status == StatusRunning && !s.cancelled {
		s.cancelled = true
		s.cond.Broadcast()
	}
	s.mu.Unlock()
	s.cancel()
}

// Wait blocks until the run reaches a terminal state (quiescent, or
// cancelled and fully drained) and its resources are released. The
// context bounds the wait only; it does not cancel the run.
func (h *RunHandle) Wait(ctx context.Context) (RunResult, error) {
	select {
	case <-h.s.done:
		return h.s.result, nil
	case <-ctx.Done():
		return RunResult{}, ctx.Err()
	}
}

// Done returns a channel closed when the run reaches a terminal state.
func (h *RunHandle) Done() <-chan struct{} {
	return h.s.done
}
