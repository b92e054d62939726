package pyre

// CompiledGraph is the immutable, executable form of a Graph. It is
// produced by Compile and is safe to share across any number of
// concurrent runs; nothing mutates it after compilation.
type CompiledGraph struct {
	start    string
	nodes    map[string]*compiledNode
	order    []string
	warnings []Warning
}

// compiledNode holds one node instance's resolved invocable and its
// outgoing edges in declaration order.
type compiledNode struct {
	id    string
	label string
	nt    NodeType
	edges []compiledEdge
}

// compiledEdge is one (guard, target) routing entry.
type compiledEdge struct {
	target   string
	guard    Guard
	value    string
	hasValue bool
	onError  bool
}

// Warning is a non-fatal finding attached to a successfully compiled
// graph.
type Warning struct {
	// NodeID is the node instance the warning concerns.
	NodeID string
	// Reason describes the finding.
	Reason string
}

// Start returns the id of the designated start node instance.
func (cg *CompiledGraph) Start() string {
	return cg.start
}

// NodeIDs returns all node instance ids in declaration order.
func (cg *CompiledGraph) NodeIDs() []string {
	ids := make([]string, len(cg.order))
	copy(ids, cg.order)
	return ids
}

// HasNode reports whether a node instance exists in the graph.
func (cg *CompiledGraph) HasNode(id string) bool {
	_, ok := cg.nodes[id]
	return ok
}

// NodeTypeID returns the type identifier backing a node instance, or ""
// for unknown ids.
func (cg *CompiledGraph) NodeTypeID(id string) string {
	n, ok := cg.nodes[id]
	if !ok {
		return ""
	}
	return n.nt.id
}

// Label returns the node instance's label, or "" if none was declared.
func (cg *CompiledGraph) Label(id string) string {
	n, ok := cg.nodes[id]
	if !ok {
		return ""
	}
	return n.label
}

// Successors returns the target ids of a node's outgoing edges in
// declaration order. Returns nil for unknown ids.
func (cg *CompiledGraph) Successors(id string) []string {
	n, ok := cg.nodes[id]
	if !ok {
		return nil
	}
	targets := make([]string, len(n.edges))
	for i, e := range n.edges {
		targets[i] = e.target
	}
	return targets
}

// Warnings returns the non-fatal findings recorded at compile time.
func (cg *CompiledGraph) Warnings() []Warning {
	w := make([]Warning, len(cg.warnings))
	copy(w, cg.warnings)
	return w
}

// node returns the compiled node for an id. Used by the scheduler.
func (cg *CompiledGraph) node(id string) *compiledNode {
	return cg.nodes[id]
}
