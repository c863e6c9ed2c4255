// Package graph implements an asynchronous pipeline orchestration engine: a
// scheduler that executes a directed graph of typed-socket components,
// supporting fan-in, fan-out, default values, variadic inputs, and bounded
// cycles.
//
// A component declares named input and output sockets. Connecting an output
// socket to an input socket wires a data dependency; a component becomes
// runnable once every mandatory input socket holds a value, either supplied
// by the caller, produced by an upstream sender, or filled from a declared
// default. Variadic sockets accumulate one value per connected sender per
// run instead of holding a single value, and are satisfied once every live
// sender has contributed.
//
// The main entry points are [NewGraphBuilder] to construct and validate a
// Graph, and [NewScheduler] plus [Scheduler.Run] to execute it. Run returns
// a lazy sequence of StreamEvents: one per component invocation (including
// each iteration inside a cycle), an optional non-fatal stuck warning, and a
// final event carrying the accumulated leaf outputs. Use [Collect] as a
// convenience driver when streaming isn't needed.
//
// Cycles are supported up to a configurable per-component visit budget
// (WithMaxRunsPerComponent): a cycle is only accepted at build time if at
// least one edge on it feeds a socket with a default value or a variadic
// socket, so the outer topological order can always be computed by breaking
// that edge. At run time, the scheduler hands off to a restricted
// sub-scheduler scoped to the cycle's members whenever one becomes ready,
// returning control once no cycle member still feeds another cycle member.
//
// Key features:
//   - Readiness-driven scheduling: components run as soon as (and only
//     once) every input socket is satisfied
//   - Fan-out distribution and fan-in via variadic sockets
//   - Bounded cycle execution via a nested sub-scheduler
//   - Stuck-state detection via waiting-set fixed-point comparison
//   - Streaming output as a lazy, cancelable sequence
//   - Full observability integration (spans, counters, histograms)
//
// Example usage:
//
//	g, err := graph.NewGraphBuilder().
//	    AddComponent("fetch", fetchExecutor, graph.WithInput("url")).
//	    AddComponent("summarize", summarizeExecutor, graph.WithInput("style", graph.WithDefault("brief")), graph.WithOutput("summary")).
//	    Connect("fetch", "text", "summarize", "text").
//	    Build()
//
//	outputs, err := graph.Collect(ctx, graph.NewScheduler(g).Run(ctx, map[string]any{
//	    "fetch": map[string]any{"url": "https://example.com"},
//	}))
package graph
