package pyre

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closeRecorder records Close calls in order.
type closeRecorder struct {
	mu     sync.Mutex
	closed []string
}

func (cr *closeRecorder) closer(name string) *recordedCloser {
	return &recordedCloser{name: name, rec: cr}
}

func (cr *closeRecorder) order() []string {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return append([]string(nil), cr.closed...)
}

type recordedCloser struct {
	name string
	rec  *closeRecorder
}

func (c *recordedCloser) Close() error {
	c.rec.mu.Lock()
	defer c.rec.mu.Unlock()
	c.rec.closed = append(c.rec.closed, c.name)
	return nil
}

func TestResources_SetGet(t *testing.T) {
	res := NewResources()
	res.Set("db", "connection")

	v, err := res.Get(context.Background(), "db")

	require.NoError(t, err)
	assert.Equal(t, "connection", v)
	assert.True(t, res.Contains("db"))
	assert.False(t, res.Contains("cache"))
}

func TestResources_GetMissing(t *testing.T) {
	res := NewResources()

	_, err := res.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestResources_TypedAccessor(t *testing.T) {
	res := NewResources()
	res.Set("count", 42)

	n, err := Resource[int](context.Background(), res, "count")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = Resource[string](context.Background(), res, "count")
	require.Error(t, err)
}

func TestResources_ProviderBuildsLazilyOnce(t *testing.T) {
	var builds atomic.Int64
	res := NewResources()
	res.Provide("conn", func(ctx context.Context) (any, error) {
		builds.Add(1)
		return "built", nil
	})

	assert.True(t, res.Contains("conn"))
	assert.Equal(t, int64(0), builds.Load())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := res.Get(context.Background(), "conn")
			assert.NoError(t, err)
			assert.Equal(t, "built", v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), builds.Load())
}

func TestResources_ProviderError(t *testing.T) {
	errBuild := errors.New("dial failed")
	res := NewResources()
	res.Provide("conn", func(ctx context.Context) (any, error) {
		return nil, errBuild
	})

	_, err := res.Get(context.Background(), "conn")

	require.Error(t, err)
	assert.ErrorIs(t, err, errBuild)
}

func TestResources_ReleaseClosesInReverseOrder(t *testing.T) {
	rec := &closeRecorder{}
	res := NewResources()
	res.Set("first", rec.closer("first"))
	res.Set("second", rec.closer("second"))
	res.Set("third", rec.closer("third"))

	res.release(quietLogger())

	assert.Equal(t, []string{"third", "second", "first"}, rec.order())

	// Releasing twice is a no-op.
	res.release(quietLogger())
	assert.Len(t, rec.order(), 3)
}

func TestRun_ReleasesResourcesAfterQuiescence(t *testing.T) {
	rec := &closeRecorder{}
	res := NewResources()
	res.Set("db", rec.closer("db"))

	var sawResource atomic.Bool
	reg := NewRegistry()
	reg.MustRegister(NewNodeType("UseDB", func(ctx Context, in string) (string, error) {
		_, err := ctx.Resources().Get(ctx, "db")
		sawResource.Store(err == nil)
		return in, nil
	}))

	g := NewGraph().AddNode("use", "UseDB", Start())
	compiled, err := g.Compile(reg)
	require.NoError(t, err)

	h := Run(context.Background(), compiled, "x", res, WithLogger(quietLogger()))
	awaitRun(t, h)

	assert.True(t, sawResource.Load())
	assert.Equal(t, []string{"db"}, rec.order())
}

func TestRun_ReleasesResourcesAfterTimedOutInvocation(t *testing.T) {
	rec := &closeRecorder{}
	res := NewResources()
	res.Set("db", rec.closer("db"))

	release := make(chan struct{})
	var usedAfterTimeout atomic.Bool

	reg := NewRegistry()
	reg.MustRegister(NewNodeType("Stall", func(ctx Context, in string) (string, error) {
		<-release
		// The scheduler abandoned this invocation long ago; the store
		// must still be intact.
		usedAfterTimeout.Store(ctx.Resources().Contains("db"))
		return in, nil
	}))

	g := NewGraph().AddNode("stall", "Stall", Start())
	compiled, err := g.Compile(reg)
	require.NoError(t, err)

	h := Run(context.Background(), compiled, "x", res,
		WithLogger(quietLogger()), WithNodeTimeout(10*time.Millisecond))

	// Unblock the abandoned goroutine shortly after the timeout fires.
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	result := awaitRun(t, h)

	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, ErrInvocationTimeout)
	assert.True(t, usedAfterTimeout.Load())
	assert.Equal(t, []string{"db"}, rec.order())
}

func TestRun_NilResourcesGetsEmptyStore(t *testing.T) {
	var hadStore atomic.Bool
	reg := NewRegistry()
	reg.MustRegister(NewNodeType("Check", func(ctx Context, in string) (string, error) {
		hadStore.Store(ctx.Resources() != nil)
		return in, nil
	}))

	g := NewGraph().AddNode("check", "Check", Start())
	compiled, err := g.Compile(reg)
	require.NoError(t, err)

	h := Run(context.Background(), compiled, "x", nil, WithLogger(quietLogger()))
	awaitRun(t, h)

	assert.True(t, hadStore.Load())
}
