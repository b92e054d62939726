package pyre

import (
	"context"
	"log/slog"
)

// Context is the execution context handed to every invocation. It
// extends context.Context with the run's shared resources and metadata.
// Cancellation of the run cancels this context; node logic that blocks
// should honor Done().
type Context interface {
	context.Context

	// Logger returns the run logger enriched with run and node fields.
	// Never nil.
	Logger() *slog.Logger

	// Resources returns the run's shared resource store.
	Resources() *Resources

	// RunID returns the unique identifier of this run.
	RunID() string

	// NodeID returns the node instance currently executing.
	NodeID() string

	// InvocationID returns the identifier of this invocation.
	InvocationID() string
}

// invocationContext is the internal Context implementation. One value is
// derived per invocation with the node-specific fields filled in.
type invocationContext struct {
	context.Context

	logger       *slog.Logger
	resources    *Resources
	runID        string
	nodeID       string
	invocationID string
}

func (c *invocationContext) Logger() *slog.Logger  { return c.logger }
func (c *invocationContext) Resources() *Resources { return c.resources }
func (c *invocationContext) RunID() string         { return c.runID }
func (c *invocationContext) NodeID() string        { return c.nodeID }
func (c *invocationContext) InvocationID() string  { return c.invocationID }
