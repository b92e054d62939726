package pyre

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a mutable builder for the abstract node/edge description of a
// control-flow graph. Build it from whatever front end produced the
// records, then call Compile to validate it against a Registry and
// obtain an immutable CompiledGraph.
//
// Graph is not safe for concurrent mutation; construct it from a single
// goroutine. Cycles, including self-loops, are permitted.
//
// Example:
//
//	g := pyre.NewGraph().
//	    AddNode("listen", "Listen", pyre.Start()).
//	    AddNode("handle", "HandleMessage").
//	    AddEdge("listen", "handle").
//	    AddEdge("listen", "listen")
//
//	compiled, err := g.Compile(registry)
type Graph struct {
	mu    sync.RWMutex
	nodes []*nodeSpec
	index map[string]*nodeSpec
	edges []*edgeSpec
}

// nodeSpec is one node record: { id, typeId, label?, start }.
type nodeSpec struct {
	id     string
	typeID string
	label  string
	start  bool
}

// edgeSpec is one edge record: { sourceId, targetId, guard? } plus the
// matcher/result labels.
type edgeSpec struct {
	source   string
	target   string
	guard    Guard
	value    string
	hasValue bool
	onError  bool
}

// NewGraph creates an empty graph builder.
func NewGraph() *Graph {
	return &Graph{
		index: make(map[string]*nodeSpec),
	}
}

// NodeOption configures a node instance.
type NodeOption func(*nodeSpec)

// WithLabel attaches a human-readable label to the node instance.
func WithLabel(label string) NodeOption {
	return func(n *nodeSpec) {
		n.label = label
	}
}

// Start marks the node instance as the run entry point. Exactly one node
// per graph must carry this; Compile enforces it.
func Start() NodeOption {
	return func(n *nodeSpec) {
		n.start = true
	}
}

// EdgeOption configures an edge.
type EdgeOption func(*edgeSpec)

// WithGuard attaches a predicate to the edge. The edge fires only for
// outputs the guard accepts.
func WithGuard(g Guard) EdgeOption {
	return func(e *edgeSpec) {
		e.guard = g
	}
}

// WithValue labels the edge with a match value. Only valid on edges
// leaving a matcher node instance; the edge fires when the matcher's
// selector equals the value.
func WithValue(value string) EdgeOption {
	return func(e *edgeSpec) {
		e.value = value
		e.hasValue = true
	}
}

// OnError marks the edge as an error edge. Only valid on edges leaving a
// result node instance; the edge receives the node's error value.
func OnError() EdgeOption {
	return func(e *edgeSpec) {
		e.onError = true
	}
}

// AddNode adds a node instance referencing a registered type.
// Returns the graph for method chaining.
//
// Panics if id or typeID is empty, id contains whitespace, or id is
// already present. Everything else is validated at Compile time.
func (g *Graph) AddNode(id, typeID string, opts ...NodeOption) *Graph {
	if id == "" {
		panic("pyre: node ID cannot be empty")
	}
	if strings.ContainsAny(id, " \t\n\r") {
		panic("pyre: node ID cannot contain whitespace")
	}
	if typeID == "" {
		panic("pyre: node type ID cannot be empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.index[id]; exists {
		panic(fmt.Sprintf("pyre: duplicate node ID: %s", id))
	}

	n := &nodeSpec{id: id, typeID: typeID}
	for _, opt := range opts {
		opt(n)
	}
	g.nodes = append(g.nodes, n)
	g.index[id] = n
	return g
}

// AddEdge adds a directed edge between two node instances. Returns the
// graph for method chaining. Declaration order is preserved; the
// compiler fixes routing order to it.
//
// Endpoint validation happens at Compile time, so edges may be added in
// any order relative to their nodes.
func (g *Graph) AddEdge(source, target string, opts ...EdgeOption) *Graph {
	e := &edgeSpec{source: source, target: target}
	for _, opt := range opts {
		opt(e)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges = append(g.edges, e)
	return g
}

// NodeIDs returns the node instance ids in declaration order.
func (g *Graph) NodeIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.id
	}
	return ids
}

// EdgeCount returns the number of declared edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}
