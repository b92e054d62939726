/*
Package pyre turns a declarative graph of typed processing nodes into
running, concurrent behavior.

# Overview

An application's control flow is described as a directed graph: each
node is a unit of logic with a declared input and output type, and each
edge routes one node's output into another node's input. The engine has
two halves:

  - the compiler validates an abstract node/edge description against a
    node-type registry and produces an immutable CompiledGraph
  - the scheduler executes a CompiledGraph for a run, dispatching node
    invocations concurrently off an explicit work queue and routing
    completed outputs along matching edges

Cycles are first-class: a node may hold an edge back to itself and
re-arm indefinitely. Because scheduling is a heap-allocated queue and
never recursive calls, loops cannot overflow the stack; they run until
the handle is cancelled.

# Basic Usage

Register node types, describe the graph, compile, run:

	reg := pyre.NewRegistry()
	reg.MustRegister(pyre.NewNodeType("Greet", func(ctx pyre.Context, name string) (string, error) {
	    return "Hello, " + name + "!", nil
	}))
	reg.MustRegister(pyre.NewNodeType("Print", func(ctx pyre.Context, msg string) (struct{}, error) {
	    fmt.Println(msg)
	    return struct{}{}, nil
	}))

	g := pyre.NewGraph().
	    AddNode("greet", "Greet", pyre.Start()).
	    AddNode("print", "Print").
	    AddEdge("greet", "print")

	compiled, err := g.Compile(reg)
	if err != nil {
	    log.Fatal(err)
	}

	handle := pyre.Run(context.Background(), compiled, "world", nil)
	result, err := handle.Wait(context.Background())

# Fan-Out and Branching

A plain node with several unconditional outgoing edges fans out: every
edge fires with the same output and each successor invocation runs
concurrently. Guards narrow an edge to outputs a predicate accepts.

Exclusive branching is explicit. A matcher type returns a selector
alongside its output, and exactly one edge fires:

	reg.MustRegister(pyre.NewMatcherType("Choose", func(ctx pyre.Context, in string) (string, string, error) {
	    return in, in, nil // selector, output
	}))

	g.AddEdge("choose", "left", pyre.WithValue("1")).
	    AddEdge("choose", "right", pyre.WithValue("2")).
	    AddEdge("choose", "fallback") // default when nothing matches

A result type routes a non-nil error as a value along OnError edges
instead of failing the invocation.

# Shared Resources

Every invocation of a run shares one Resources store by reference. Lazy
providers build expensive resources on first use; closeable values are
closed in reverse insertion order once the run finishes:

	res := pyre.NewResources()
	res.Provide("db", func(ctx context.Context) (any, error) {
	    return sql.Open("sqlite", "app.db")
	})
	handle := pyre.Run(ctx, compiled, input, res)

# Failure Policy

By default failures are isolated: a failed invocation ends only its own
execution path and is recorded on the RunResult. WithFailFast cancels
the entire run on the first failure instead.

# Observability

Logging uses log/slog throughout. WithMetrics and WithTracing record
OpenTelemetry metrics and spans through the global providers.
WithJournal persists run history to a journal.Store (in-memory or
SQLite), and WithEventBus publishes lifecycle events to in-process
subscribers.
*/
package pyre
