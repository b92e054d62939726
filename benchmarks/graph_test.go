package benchmarks

import (
	"fmt"
	"testing"

	"github.com/pyregraph/pyre/pkg/pyre"
)

// noop does minimal work to measure framework overhead.
func noop(ctx pyre.Context, n int) (int, error) {
	return n, nil
}

// newRegistry builds a registry with the benchmark node types.
func newRegistry() *pyre.Registry {
	reg := pyre.NewRegistry()
	reg.MustRegister(pyre.NewNodeType("Noop", noop))
	reg.MustRegister(pyre.NewMatcherType("Route", func(ctx pyre.Context, n int) (string, int, error) {
		if n%2 == 0 {
			return "even", n, nil
		}
		return "odd", n, nil
	}))
	return reg
}

func nodeID(i int) string {
	return fmt.Sprintf("node%d", i)
}

// buildLinearGraph creates a chain of n noop nodes.
func buildLinearGraph(n int) *pyre.Graph {
	g := pyre.NewGraph()
	for i := 0; i < n; i++ {
		if i == 0 {
			g.AddNode(nodeID(i), "Noop", pyre.Start())
		} else {
			g.AddNode(nodeID(i), "Noop")
			g.AddEdge(nodeID(i-1), nodeID(i))
		}
	}
	return g
}

// buildFanOutGraph creates one source with n parallel successors.
func buildFanOutGraph(n int) *pyre.Graph {
	g := pyre.NewGraph().AddNode("source", "Noop", pyre.Start())
	for i := 0; i < n; i++ {
		g.AddNode(nodeID(i), "Noop")
		g.AddEdge("source", nodeID(i))
	}
	return g
}

// buildBranchingGraph creates a matcher with two labeled branches.
func buildBranchingGraph() *pyre.Graph {
	return pyre.NewGraph().
		AddNode("route", "Route", pyre.Start()).
		AddNode("even", "Noop").
		AddNode("odd", "Noop").
		AddEdge("route", "even", pyre.WithValue("even")).
		AddEdge("route", "odd", pyre.WithValue("odd"))
}

func mustCompile(b *testing.B, g *pyre.Graph) *pyre.CompiledGraph {
	b.Helper()
	compiled, err := g.Compile(newRegistry())
	if err != nil {
		b.Fatal(err)
	}
	return compiled
}

// BenchmarkNewGraph measures graph creation overhead.
func BenchmarkNewGraph(b *testing.B) {
	for i := 0; i < b.N; i++ {
		pyre.NewGraph()
	}
}

// BenchmarkAddNode_10 measures adding 10 nodes.
func BenchmarkAddNode_10(b *testing.B) {
	for i := 0; i < b.N; i++ {
		g := pyre.NewGraph()
		for j := 0; j < 10; j++ {
			g.AddNode(nodeID(j), "Noop")
		}
	}
}

// BenchmarkAddNode_100 measures adding 100 nodes.
func BenchmarkAddNode_100(b *testing.B) {
	for i := 0; i < b.N; i++ {
		g := pyre.NewGraph()
		for j := 0; j < 100; j++ {
			g.AddNode(nodeID(j), "Noop")
		}
	}
}

// BenchmarkCompile_Linear_5 compiles a 5-node linear graph.
func BenchmarkCompile_Linear_5(b *testing.B) {
	g := buildLinearGraph(5)
	reg := newRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.Compile(reg)
	}
}

// BenchmarkCompile_Linear_100 compiles a 100-node linear graph.
func BenchmarkCompile_Linear_100(b *testing.B) {
	g := buildLinearGraph(100)
	reg := newRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.Compile(reg)
	}
}

// BenchmarkCompile_FanOut_50 compiles a 50-way fan-out graph.
func BenchmarkCompile_FanOut_50(b *testing.B) {
	g := buildFanOutGraph(50)
	reg := newRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.Compile(reg)
	}
}
