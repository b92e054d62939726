package pyre

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NodeError{NodeID: "fetch", InvocationID: "inv-1", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetch")
	assert.Contains(t, err.Error(), "inv-1")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestTimeoutError_IsInvocationTimeout(t *testing.T) {
	err := &TimeoutError{NodeID: "fetch", Limit: 5 * time.Second}

	assert.ErrorIs(t, err, ErrInvocationTimeout)
	assert.Contains(t, err.Error(), "fetch")
	assert.Contains(t, err.Error(), "5s")
}

func TestPanicError_Message(t *testing.T) {
	err := &PanicError{NodeID: "fetch", Value: "index out of range", Stack: "goroutine 1..."}

	assert.Contains(t, err.Error(), "fetch")
	assert.Contains(t, err.Error(), "index out of range")
}

func TestCompileErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrDuplicateNodeType,
		ErrUnknownNodeType,
		ErrRegistrySealed,
		ErrDanglingEdge,
		ErrTypeMismatch,
		ErrNoStartNode,
		ErrMultipleStartNodes,
		ErrRunCancelled,
		ErrInvocationTimeout,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			require.NotErrorIs(t, a, b)
		}
	}
}
