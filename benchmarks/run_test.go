package benchmarks

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/pyregraph/pyre/pkg/pyre"
)

var benchLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// runToCompletion executes a compiled graph once and waits for it.
func runToCompletion(b *testing.B, compiled *pyre.CompiledGraph, input any) {
	b.Helper()
	h := pyre.Run(context.Background(), compiled, input, nil,
		pyre.WithLogger(benchLogger))
	if _, err := h.Wait(context.Background()); err != nil {
		b.Fatal(err)
	}
}

// BenchmarkRun_Linear_5 runs a 5-node linear graph.
func BenchmarkRun_Linear_5(b *testing.B) {
	compiled := mustCompile(b, buildLinearGraph(5))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runToCompletion(b, compiled, 0)
	}
}

// BenchmarkRun_Linear_50 runs a 50-node linear graph.
func BenchmarkRun_Linear_50(b *testing.B) {
	compiled := mustCompile(b, buildLinearGraph(50))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runToCompletion(b, compiled, 0)
	}
}

// BenchmarkRun_FanOut_10 runs a 10-way parallel fan-out.
func BenchmarkRun_FanOut_10(b *testing.B) {
	compiled := mustCompile(b, buildFanOutGraph(10))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runToCompletion(b, compiled, 0)
	}
}

// BenchmarkRun_FanOut_50 runs a 50-way parallel fan-out.
func BenchmarkRun_FanOut_50(b *testing.B) {
	compiled := mustCompile(b, buildFanOutGraph(50))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runToCompletion(b, compiled, 0)
	}
}

// BenchmarkRun_Branching runs a matcher-routed graph.
func BenchmarkRun_Branching(b *testing.B) {
	compiled := mustCompile(b, buildBranchingGraph())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		runToCompletion(b, compiled, i)
	}
}

// BenchmarkRun_MaxInFlight runs a fan-out under a concurrency bound.
func BenchmarkRun_MaxInFlight(b *testing.B) {
	compiled := mustCompile(b, buildFanOutGraph(20))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h := pyre.Run(context.Background(), compiled, 0, nil,
			pyre.WithLogger(benchLogger), pyre.WithMaxInFlight(4))
		if _, err := h.Wait(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}
