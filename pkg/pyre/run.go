package pyre

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pyregraph/pyre/pkg/pyre/event"
	"github.com/pyregraph/pyre/pkg/pyre/journal"
	"github.com/pyregraph/pyre/pkg/pyre/observability"
	"go.opentelemetry.io/otel/trace"
)

// invocation is one pending unit of work: a target node instance and the
// input routed to it.
type invocation struct {
	id     string
	nodeID string
	input  any
}

// Run executes a compiled graph. The start node is invoked exactly once
// with initialInput; completed outputs are routed along matching edges,
// each successor invocation running concurrently. Run returns
// immediately; use the handle to cancel, await, or inspect the run.
//
// resources is shared by reference across every invocation of the run
// and is owned by the run from this point: it is released (closeable
// values closed in reverse insertion order) once no invocation can
// reference it anymore. Pass nil for an empty store.
//
// The scheduler drives an explicit work queue, so cyclic graphs,
// including nodes that re-enqueue themselves indefinitely, consume no
// call-stack depth and run until cancelled.
func Run(ctx context.Context, cg *CompiledGraph, initialInput any, resources *Resources, opts ...RunOption) *RunHandle {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runID == "" {
		cfg.runID = uuid.New().String()
	}
	if resources == nil {
		resources = NewResources()
	}

	runCtx, cancel := context.WithCancel(ctx)

	s := &scheduler{
		graph:   cg,
		res:     resources,
		cfg:     cfg,
		runID:   cfg.runID,
		ctx:     runCtx,
		cancel:  cancel,
		status:  StatusRunning,
		started: time.Now(),
		done:    make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	observability.LogRunStart(cfg.logger, s.runID)
	s.appendJournal(journal.Entry{
		RunID:  s.runID,
		Status: journal.StatusRunStarted,
		At:     time.Now(),
	})
	s.publish(event.New(event.TypeRunStarted, s.runID))

	s.spanCtx = runCtx
	if cfg.tracing {
		s.spanCtx, s.runSpan = cfg.spans.StartRunSpan(runCtx, s.runID)
	}

	s.enqueue(cg.Start(), initialInput)
	go s.dispatch()

	return &RunHandle{s: s}
}

// scheduler owns one run: the work queue, in-flight accounting, failure
// collection, and terminal-state transition.
type scheduler struct {
	graph *CompiledGraph
	res   *Resources
	cfg   runConfig
	runID string

	ctx    context.Context
	cancel context.CancelFunc

	spanCtx context.Context
	runSpan trace.Span

	mu          sync.Mutex
	cond        *sync.Cond
	queue       []invocation
	inflight    int
	dispatched  int
	cancelled   bool
	failTripped bool
	status      Status
	failures    []Failure
	finalOutput any
	started     time.Time

	// tasks counts every goroutine that may touch the resource store,
	// including invocations abandoned after a timeout.
	tasks  sync.WaitGroup
	done   chan struct{}
	result RunResult
}

// enqueue appends a new pending invocation unless the run is already
// cancelled or finished. Reports whether the invocation was accepted.
func (s *scheduler) enqueue(nodeID string, input any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled || s.status != StatusRunning {
		return false
	}
	s.queue = append(s.queue, invocation{
		id:     fmt.Sprintf("inv-%s", uuid.New().String()[:8]),
		nodeID: nodeID,
		input:  input,
	})
	s.cond.Broadcast()
	return true
}

// dispatch is the run's scheduling loop: it pops pending invocations off
// the queue and spawns each as an independent task. Cancellation is
// checked before every dispatch. The loop ends at quiescence (empty
// queue, nothing in flight) or after cancellation once in-flight tasks
// have drained.
func (s *scheduler) dispatch() {
	s.mu.Lock()
	for {
		for !s.cancelled && !s.canDispatchLocked() && !(len(s.queue) == 0 && s.inflight == 0) {
			s.cond.Wait()
		}
		if s.cancelled || len(s.queue) == 0 && s.inflight == 0 {
			break
		}

		inv := s.queue[0]
		s.queue = s.queue[1:]
		s.inflight++
		s.dispatched++
		s.cfg.metrics.RecordQueueDepth(s.ctx, int64(len(s.queue)))

		s.tasks.Add(1)
		go s.execute(inv)
	}

	// Terminal: drop anything still queued and wait out in-flight tasks.
	s.queue = nil
	for s.inflight > 0 {
		s.cond.Wait()
	}

	status := StatusQuiescent
	resultStatus := StatusQuiescent
	if s.cancelled {
		resultStatus = StatusCancelled
		status = StatusCancelled
		if s.failTripped {
			status = StatusFailed
		}
	}
	result := RunResult{
		RunID:       s.runID,
		Status:      resultStatus,
		Output:      s.finalOutput,
		Failures:    s.failures,
		Invocations: s.dispatched,
		Duration:    time.Since(s.started),
	}
	s.mu.Unlock()

	s.finish(status, result)
}

// canDispatchLocked reports whether the queue head may be dispatched now.
func (s *scheduler) canDispatchLocked() bool {
	if len(s.queue) == 0 {
		return false
	}
	return s.cfg.maxInFlight == 0 || s.inflight < s.cfg.maxInFlight
}

// finish records the terminal state and releases the run's resources.
// The resource store outlives every goroutine that may reference it,
// including invocations abandoned after a timeout, so release happens
// only after the task group drains.
func (s *scheduler) finish(status Status, result RunResult) {
	observability.LogRunFinished(s.cfg.logger, s.runID, string(status),
		float64(result.Duration.Milliseconds()), result.Invocations, len(result.Failures))
	s.appendJournal(journal.Entry{
		RunID:    s.runID,
		Status:   journal.StatusRunFinished,
		At:       time.Now(),
		Duration: result.Duration,
	})
	s.publish(event.New(event.TypeRunFinished, s.runID).WithStatus(string(status)))
	s.cfg.metrics.RecordRun(s.ctx, string(status), result.Duration)
	if s.cfg.tracing {
		var runErr error
		if s.failTripped {
			runErr = errors.Join(failureErrors(result.Failures)...)
		}
		s.cfg.spans.EndSpanWithError(s.runSpan, runErr)
	}

	s.cancel()
	s.tasks.Wait()
	s.res.release(s.cfg.logger)

	s.mu.Lock()
	s.status = status
	s.result = result
	s.mu.Unlock()
	close(s.done)
}

// execute runs one invocation and routes its output.
func (s *scheduler) execute(inv invocation) {
	defer s.tasks.Done()

	node := s.graph.node(inv.nodeID)
	logger := observability.EnrichLogger(s.cfg.logger, s.runID, inv.nodeID)
	started := time.Now()

	observability.LogInvocationStart(logger, inv.nodeID, inv.id)
	s.appendJournal(journal.Entry{
		RunID:        s.runID,
		InvocationID: inv.id,
		NodeID:       inv.nodeID,
		Status:       journal.StatusStarted,
		At:           started,
	})
	s.publish(event.New(event.TypeInvocationStarted, s.runID).WithInvocation(inv.nodeID, inv.id))

	spanCtx, span := s.cfg.spans.StartInvocationSpan(s.spanCtx, inv.nodeID, inv.id)

	out, err := s.invoke(spanCtx, logger, node, inv)
	duration := time.Since(started)

	s.cfg.metrics.RecordInvocation(spanCtx, inv.nodeID, duration, err)
	s.cfg.spans.EndSpanWithError(span, err)

	switch {
	case err != nil && s.isFailure(node, err):
		observability.LogInvocationError(logger, inv.nodeID, inv.id, err)
		s.appendJournal(journal.Entry{
			RunID:        s.runID,
			InvocationID: inv.id,
			NodeID:       inv.nodeID,
			Status:       journal.StatusFailed,
			Error:        err.Error(),
			At:           time.Now(),
			Duration:     duration,
		})
		s.publish(event.New(event.TypeInvocationFailed, s.runID).
			WithInvocation(inv.nodeID, inv.id).WithError(err))
		s.recordFailure(inv, err)

	case err != nil:
		// Result node: the error is routed as a value, not a failure.
		s.completeInvocation(logger, inv, duration)
		s.routeError(node, err)

	default:
		s.completeInvocation(logger, inv, duration)
		s.route(node, out)
	}

	s.mu.Lock()
	s.inflight--
	s.cond.Broadcast()
	s.mu.Unlock()
}

// completeInvocation records a successful invocation.
func (s *scheduler) completeInvocation(logger *slog.Logger, inv invocation, duration time.Duration) {
	observability.LogInvocationComplete(logger, inv.nodeID, inv.id, float64(duration.Milliseconds()))
	s.appendJournal(journal.Entry{
		RunID:        s.runID,
		InvocationID: inv.id,
		NodeID:       inv.nodeID,
		Status:       journal.StatusCompleted,
		At:           time.Now(),
		Duration:     duration,
	})
	s.publish(event.New(event.TypeInvocationCompleted, s.runID).WithInvocation(inv.nodeID, inv.id))
}

// invoke runs the node logic on its own goroutine with panic recovery
// and, when configured, a per-node timeout. On timeout the invocation is
// abandoned: its goroutine keeps running with a cancelled context and is
// awaited before resources are released, but the scheduler moves on.
func (s *scheduler) invoke(spanCtx context.Context, logger *slog.Logger, node *compiledNode, inv invocation) (any, error) {
	nodeCtx := s.ctx
	if s.cfg.nodeTimeout > 0 {
		var cancelTimeout context.CancelFunc
		nodeCtx, cancelTimeout = context.WithTimeout(s.ctx, s.cfg.nodeTimeout)
		defer cancelTimeout()
	}

	ictx := &invocationContext{
		Context:      nodeCtx,
		logger:       logger,
		resources:    s.res,
		runID:        s.runID,
		nodeID:       inv.nodeID,
		invocationID: inv.id,
	}

	type outcome struct {
		out any
		err error
	}
	resCh := make(chan outcome, 1)

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				resCh <- outcome{err: &PanicError{
					NodeID: inv.nodeID,
					Value:  r,
					Stack:  string(debug.Stack()),
				}}
			}
		}()
		out, err := node.nt.invoke(ictx, inv.input)
		resCh <- outcome{out: out, err: err}
	}()

	if s.cfg.nodeTimeout <= 0 {
		o := <-resCh
		return o.out, o.err
	}

	select {
	case o := <-resCh:
		return o.out, o.err
	case <-nodeCtx.Done():
		if errors.Is(nodeCtx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{NodeID: inv.nodeID, Limit: s.cfg.nodeTimeout}
		}
		// Run cancelled while executing: the task is never
		// force-terminated, wait for it.
		o := <-resCh
		return o.out, o.err
	}
}

// isFailure reports whether an invocation error is a genuine failure.
// For result nodes an error from the node logic is routable data;
// panics, timeouts, and input mismatches always fail.
func (s *scheduler) isFailure(node *compiledNode, err error) bool {
	if node.nt.kind != kindResult {
		return true
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return true
	}
	return errors.Is(err, ErrInvocationTimeout) || errors.Is(err, ErrTypeMismatch)
}

// recordFailure appends the failure to the run result and applies the
// failure policy: isolation by default, whole-run cancellation under
// fail-fast.
func (s *scheduler) recordFailure(inv invocation, err error) {
	var nodeErr *NodeError
	if !errors.As(err, &nodeErr) {
		var panicErr *PanicError
		var timeoutErr *TimeoutError
		if !errors.As(err, &panicErr) && !errors.As(err, &timeoutErr) {
			err = &NodeError{NodeID: inv.nodeID, InvocationID: inv.id, Err: err}
		}
	}

	s.mu.Lock()
	s.failures = append(s.failures, Failure{
		NodeID:       inv.nodeID,
		InvocationID: inv.id,
		Err:          err,
	})
	failFast := s.cfg.failFast && !s.cancelled
	if failFast {
		s.cancelled = true
		s.failTripped = true
		s.cond.Broadcast()
	}
	s.mu.Unlock()

	if failFast {
		s.cancel()
	}
}

// route fires a completed invocation's output along its node's outgoing
// edges in declaration order. Plain and result nodes fan out on every
// accepting edge; matcher nodes fire exactly one edge, preferring the
// declared match value and falling back to the first unlabeled edge. An
// output that fires no edge ends its execution path.
func (s *scheduler) route(node *compiledNode, out any) {
	routed := 0

	switch node.nt.kind {
	case kindMatch:
		m := out.(matched)
		out = m.output
		var def *compiledEdge
		for i := range node.edges {
			e := &node.edges[i]
			if e.hasValue {
				if e.value == m.value {
					if s.enqueue(e.target, m.output) {
						routed++
					}
					break
				}
			} else if def == nil {
				def = e
			}
		}
		if routed == 0 && def != nil && s.enqueue(def.target, m.output) {
			routed++
		}

	default:
		for i := range node.edges {
			e := &node.edges[i]
			if e.onError {
				continue
			}
			if e.guard != nil && !e.guard(out) {
				continue
			}
			if s.enqueue(e.target, out) {
				routed++
			}
		}
	}

	if routed == 0 {
		s.pathEnd(out)
	}
}

// routeError fires a result node's error value along its err-labeled
// edges. An error with no err edges ends the path with the error as its
// final value.
func (s *scheduler) routeError(node *compiledNode, err error) {
	routed := 0
	for i := range node.edges {
		e := &node.edges[i]
		if !e.onError {
			continue
		}
		if s.enqueue(e.target, err) {
			routed++
		}
	}
	if routed == 0 {
		s.pathEnd(err)
	}
}

// pathEnd records the output of a terminating execution path. The last
// path to terminate determines the run's final output.
func (s *scheduler) pathEnd(out any) {
	s.mu.Lock()
	s.finalOutput = out
	s.mu.Unlock()
}

// appendJournal writes a journal entry, logging failures non-fatally.
func (s *scheduler) appendJournal(e journal.Entry) {
	if s.cfg.journal == nil {
		return
	}
	if err := s.cfg.journal.Append(e); err != nil {
		s.cfg.logger.Warn("journal append failed",
			slog.String("run_id", s.runID),
			slog.String("error", err.Error()),
		)
	}
}

// publish sends a lifecycle event when a bus is configured.
func (s *scheduler) publish(evt event.Event) {
	if s.cfg.bus == nil {
		return
	}
	s.cfg.bus.Publish(evt)
}

// failureErrors extracts the underlying errors for joining.
func failureErrors(failures []Failure) []error {
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f.Err
	}
	return errs
}
