package pyre

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// tracker records node executions across concurrent invocations.
type tracker struct {
	mu    sync.Mutex
	names []string
}

func (tr *tracker) record(name string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.names = append(tr.names, name)
}

func (tr *tracker) count(name string) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	n := 0
	for _, v := range tr.names {
		if v == name {
			n++
		}
	}
	return n
}

func (tr *tracker) total() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.names)
}

// trackingType creates a passthrough node type that records executions.
func trackingType(id string, tr *tracker) NodeType {
	return NewNodeType(id, func(ctx Context, in string) (string, error) {
		tr.record(id)
		return in, nil
	})
}

// failingType creates a node type that always fails.
func failingType(id string, err error) NodeType {
	return NewNodeType(id, func(ctx Context, in string) (string, error) {
		return "", err
	})
}

// panicType creates a node type that panics with the given value.
func panicType(id string, value any) NodeType {
	return NewNodeType(id, func(ctx Context, in string) (string, error) {
		panic(value)
	})
}

// quietLogger discards all log output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// awaitRun waits for the run to finish with a test-sized deadline.
func awaitRun(t *testing.T, h *RunHandle) RunResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := h.Wait(ctx)
	require.NoError(t, err, "run did not finish in time")
	return result
}
