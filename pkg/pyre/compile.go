package pyre

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
)

var (
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// Compile validates the graph against the registry and produces an
// immutable CompiledGraph. All validation happens before any node can
// execute; on failure no graph is returned. Multiple findings are
// joined together.
//
// Validation checks (in order):
//  1. Every node instance's type resolves in the registry
//  2. Every edge's endpoints exist in the node set
//  3. Edge labels match the source node's kind, and the source output
//     type is assignable to each target's input type
//  4. Exactly one node instance is marked start
//  5. Reachability from the start node
//
// Unreachable nodes are a non-fatal warning: they are logged, retained
// on the compiled graph, and can never execute.
func (g *Graph) Compile(reg *Registry) (*CompiledGraph, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error

	// 1. Resolve node types.
	resolved := make(map[string]NodeType, len(g.nodes))
	for _, n := range g.nodes {
		nt, err := reg.Resolve(n.typeID)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %s: %w", n.id, err))
			continue
		}
		resolved[n.id] = nt
	}

	// 2. Validate edge endpoints.
	for _, e := range g.edges {
		if _, ok := g.index[e.source]; !ok {
			errs = append(errs, fmt.Errorf("%w: source %q does not exist", ErrDanglingEdge, e.source))
		}
		if _, ok := g.index[e.target]; !ok {
			errs = append(errs, fmt.Errorf("%w: target %q does not exist", ErrDanglingEdge, e.target))
		}
	}

	// 3. Type-check every edge whose endpoints and types resolved.
	for _, e := range g.edges {
		src, srcOK := resolved[e.source]
		dst, dstOK := resolved[e.target]
		if !srcOK || !dstOK {
			continue
		}
		if err := checkEdge(e, src, dst); err != nil {
			errs = append(errs, err)
		}
	}

	// 4. Exactly one start node.
	var start string
	var startCount int
	for _, n := range g.nodes {
		if n.start {
			startCount++
			start = n.id
		}
	}
	switch {
	case startCount == 0:
		errs = append(errs, ErrNoStartNode)
	case startCount > 1:
		errs = append(errs, fmt.Errorf("%w: %d nodes marked start", ErrMultipleStartNodes, startCount))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// 5. Reachability from start (warning only).
	warnings := g.findUnreachable(start)
	for _, w := range warnings {
		slog.Warn("node is unreachable from start", "node_id", w.NodeID)
	}

	return g.build(start, resolved, warnings), nil
}

// checkEdge validates one edge's labels and type compatibility.
func checkEdge(e *edgeSpec, src, dst NodeType) error {
	if e.hasValue && src.kind != kindMatch {
		return fmt.Errorf("%w: edge %s -> %s has a match value but %s is not a matcher type",
			ErrTypeMismatch, e.source, e.target, src.id)
	}
	if e.onError && src.kind != kindResult {
		return fmt.Errorf("%w: edge %s -> %s is marked OnError but %s is not a result type",
			ErrTypeMismatch, e.source, e.target, src.id)
	}

	out := src.outputType
	if e.onError {
		out = errorType
	}
	if !assignable(out, dst.inputType) {
		return fmt.Errorf("%w: edge %s -> %s: %v is not assignable to %v",
			ErrTypeMismatch, e.source, e.target, out, dst.inputType)
	}
	return nil
}

// assignable reports whether a value of type out may be routed into a
// node expecting type in. An any on either side defers the check to the
// runtime coercion at the target's boundary.
func assignable(out, in reflect.Type) bool {
	if in == anyType || out == anyType {
		return true
	}
	return out.AssignableTo(in)
}

// findUnreachable returns warnings for nodes a run can never visit,
// using BFS over the declared edges.
func (g *Graph) findUnreachable(start string) []Warning {
	adjacency := make(map[string][]string, len(g.nodes))
	for _, e := range g.edges {
		adjacency[e.source] = append(adjacency[e.source], e.target)
	}

	reachable := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	var warnings []Warning
	for _, n := range g.nodes {
		if !reachable[n.id] {
			warnings = append(warnings, Warning{NodeID: n.id, Reason: "unreachable from start"})
		}
	}
	return warnings
}

// build assembles the immutable compiled form. Outgoing edge order is
// fixed to declaration order so routing stays deterministic.
func (g *Graph) build(start string, resolved map[string]NodeType, warnings []Warning) *CompiledGraph {
	nodes := make(map[string]*compiledNode, len(g.nodes))
	order := make([]string, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes[n.id] = &compiledNode{
			id:    n.id,
			label: n.label,
			nt:    resolved[n.id],
		}
		order = append(order, n.id)
	}
	for _, e := range g.edges {
		src := nodes[e.source]
		src.edges = append(src.edges, compiledEdge{
			target:   e.target,
			guard:    e.guard,
			value:    e.value,
			hasValue: e.hasValue,
			onError:  e.onError,
		})
	}

	return &CompiledGraph{
		start:    start,
		nodes:    nodes,
		order:    order,
		warnings: warnings,
	}
}
