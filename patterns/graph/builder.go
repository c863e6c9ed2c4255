package graph

import (
	"errors"
	"fmt"
	"sort"
)

// GraphBuilder constructs a validated Graph using a fluent API. Components
// and connections are added incrementally; Build() resolves cycles, checks
// breakability, and computes the cycle-broken topological order.
//
// Example:
//
//	g, err := graph.NewGraphBuilder().
//	    AddComponent("hello", helloExecutor).
//	    AddComponent("hello2", hello2Executor, graph.WithInput("word")).
//	    Connect("hello", "output", "hello2", "word").
//	    Build()
type GraphBuilder struct {
	components  map[string]*component
	order       []string
	buildErrors []error
}

// NewGraphBuilder creates an empty GraphBuilder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		components: make(map[string]*component),
	}
}

// AddComponent registers a component under a unique name. ComponentOptions
// pre-declare input/output sockets and capability flags; Connect also
// auto-declares sockets it references, so pre-declaration is only required
// to set a default, mark a socket variadic, declare an input socket fed only
// by the caller's data, or mark a leaf output socket that Connect never
// touches.
func (b *GraphBuilder) AddComponent(name string, executor Executor, opts ...ComponentOption) *GraphBuilder {
	if name == "" {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("component name must not be empty"))
		return b
	}
	if executor == nil {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("executor must not be nil for component %q", name))
		return b
	}
	if _, exists := b.components[name]; exists {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("duplicate component name %q", name))
		return b
	}

	c := newComponent(name, executor)
	for _, opt := range opts {
		opt(c)
	}

	b.components[name] = c
	b.order = append(b.order, name)
	return b
}

// Connect declares a directed edge from a component's output socket to
// another component's input socket. Both sockets are auto-declared if not
// already present (the target socket starts out mandatory, non-variadic).
// Connecting the same pair twice is idempotent.
func (b *GraphBuilder) Connect(fromComponent, fromSocket, toComponent, toSocket string) *GraphBuilder {
	from, ok := b.components[fromComponent]
	if !ok {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("connect references unknown component %q", fromComponent))
		return b
	}
	to, ok := b.components[toComponent]
	if !ok {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("connect references unknown component %q", toComponent))
		return b
	}

	out := from.getOrCreateOutput(fromSocket)
	in := to.getOrCreateInput(toSocket)

	receiver := Receiver{Component: toComponent, Socket: toSocket}
	for _, r := range out.Receivers {
		if r == receiver {
			return b // already connected
		}
	}
	out.Receivers = append(out.Receivers, receiver)
	in.Senders = append(in.Senders, Sender{Component: fromComponent, Socket: fromSocket})

	return b
}

// Build validates the registered components and connections and produces an
// executable Graph: it detects cycles (Tarjan's algorithm), rejects any
// cycle that cannot be broken (spec §4.1), and computes the topological
// order of the cycle-broken view via Kahn's algorithm.
func (b *GraphBuilder) Build() (*Graph, error) {
	if len(b.buildErrors) > 0 {
		return nil, fmt.Errorf("graph build errors: %w", errors.Join(b.buildErrors...))
	}
	if len(b.components) == 0 {
		return nil, fmt.Errorf("graph must contain at least one component")
	}

	adjacency := b.componentAdjacency()

	sccs := tarjanSCC(b.order, adjacency)

	var cycles []*Cycle
	componentsInCycles := make(map[string][]*Cycle)
	brokenAdjacency := make(map[string][]string, len(adjacency))
	for name, targets := range adjacency {
		brokenAdjacency[name] = append([]string(nil), targets...)
	}

	for _, scc := range sccs {
		if !isCycle(scc, adjacency) {
			continue
		}
		cycle := &Cycle{Members: scc}
		cycles = append(cycles, cycle)
		for _, name := range scc {
			componentsInCycles[name] = append(componentsInCycles[name], cycle)
		}

		if err := b.checkBreakable(cycle); err != nil {
			return nil, err
		}

		b.breakCycleEdge(cycle, brokenAdjacency)
	}

	inDegree := make(map[string]int, len(b.components))
	for name := range b.components {
		inDegree[name] = 0
	}
	for _, targets := range brokenAdjacency {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	acyclicOrder, err := kahnTopologicalSort(inDegree, brokenAdjacency, b.order)
	if err != nil {
		return nil, err
	}

	socketIndex := make(map[string][]string)
	for _, name := range b.order {
		for _, socketName := range b.components[name].inputOrder {
			socketIndex[socketName] = append(socketIndex[socketName], name)
		}
	}

	return &Graph{
		components:         b.components,
		order:              append([]string(nil), b.order...),
		acyclicOrder:       acyclicOrder,
		cycles:             cycles,
		componentsInCycles: componentsInCycles,
		socketIndex:        socketIndex,
	}, nil
}

// componentAdjacency derives component-level edges from socket-level
// receivers: an edge from -> to exists whenever some output socket of
// "from" has a receiver on "to" (spec §9: "edges as value pairs ... never
// by mutual ownership").
func (b *GraphBuilder) componentAdjacency() map[string][]string {
	adjacency := make(map[string][]string, len(b.components))
	seen := make(map[string]map[string]bool, len(b.components))
	for name := range b.components {
		adjacency[name] = nil
		seen[name] = make(map[string]bool)
	}

	for _, name := range b.order {
		comp := b.components[name]
		for _, out := range comp.outputSockets {
			for _, recv := range out.Receivers {
				if seen[name][recv.Component] {
					continue
				}
				seen[name][recv.Component] = true
				adjacency[name] = append(adjacency[name], recv.Component)
			}
		}
	}
	return adjacency
}

// isCycle reports whether scc forms a genuine cycle: more than one member,
// or a single member with a self-loop.
func isCycle(scc []string, adjacency map[string][]string) bool {
	if len(scc) > 1 {
		return true
	}
	name := scc[0]
	for _, target := range adjacency[name] {
		if target == name {
			return true
		}
	}
	return false
}

// checkBreakable enforces spec §4.1: a cycle is breakable if at least one
// edge on it feeds a socket with a default value or is non-mandatory
// (variadic sockets tolerate a missing contribution by design).
func (b *GraphBuilder) checkBreakable(cycle *Cycle) error {
	members := make(map[string]bool, len(cycle.Members))
	for _, m := range cycle.Members {
		members[m] = true
	}

	for _, name := range cycle.Members {
		comp := b.components[name]
		for _, socketName := range comp.inputOrder {
			socket := comp.inputSockets[socketName]
			if socket.HasDefault || socket.IsVariadic {
				for _, sender := range socket.Senders {
					if members[sender.Component] {
						return nil // found a breakable edge
					}
				}
			}
		}
	}

	return &InvalidGraphError{Reason: fmt.Sprintf("cycle %v cannot be broken: no edge on it feeds a socket with a default or variadic socket", cycle.Members)}
}

// breakCycleEdge removes one feedback edge per cycle from the given
// adjacency so a topological walk over it terminates. It removes the first
// edge (in declaration order) that closes the loop back onto an
// already-visited cycle member, preferring an edge feeding a breakable
// socket when one exists.
func (b *GraphBuilder) breakCycleEdge(cycle *Cycle, adjacency map[string][]string) {
	members := make(map[string]bool, len(cycle.Members))
	for _, m := range cycle.Members {
		members[m] = true
	}

	// Prefer breaking the edge into a breakable socket (default or
	// variadic), since that is the edge the runtime can tolerate missing
	// at outer-topology time; cycle execution itself still uses the
	// original edges via the cycle sub-scheduler.
	for _, name := range cycle.Members {
		comp := b.components[name]
		for _, socketName := range comp.inputOrder {
			socket := comp.inputSockets[socketName]
			if !socket.HasDefault && !socket.IsVariadic {
				continue
			}
			for _, sender := range socket.Senders {
				if members[sender.Component] && removeEdge(adjacency, sender.Component, name) {
					return
				}
			}
		}
	}

	// Fallback: remove any edge between two cycle members.
	for _, from := range cycle.Members {
		for _, to := range adjacency[from] {
			if members[to] {
				removeEdge(adjacency, from, to)
				return
			}
		}
	}
}

func removeEdge(adjacency map[string][]string, from, to string) bool {
	targets := adjacency[from]
	for i, t := range targets {
		if t == to {
			adjacency[from] = append(targets[:i], targets[i+1:]...)
			return true
		}
	}
	return false
}

// tarjanSCC computes strongly-connected components over the component
// adjacency graph, in an order suitable for use as cycle traversal order
// (spec §3: "the ordering is the traversal order used when entering the
// cycle").
func tarjanSCC(order []string, adjacency map[string][]string) [][]string {
	index := 0
	indices := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var result [][]string

	var strongconnect func(name string)
	strongconnect = func(name string) {
		indices[name] = index
		lowlink[name] = index
		index++
		stack = append(stack, name)
		onStack[name] = true

		for _, next := range adjacency[name] {
			if _, visited := indices[next]; !visited {
				strongconnect(next)
				if lowlink[next] < lowlink[name] {
					lowlink[name] = lowlink[next]
				}
			} else if onStack[next] {
				if indices[next] < lowlink[name] {
					lowlink[name] = indices[next]
				}
			}
		}

		if lowlink[name] == indices[name] {
			var scc []string
			for {
				n := len(stack) - 1
				top := stack[n]
				stack = stack[:n]
				onStack[top] = false
				scc = append(scc, top)
				if top == name {
					break
				}
			}
			result = append(result, scc)
		}
	}

	for _, name := range order {
		if _, visited := indices[name]; !visited {
			strongconnect(name)
		}
	}

	return result
}

// kahnTopologicalSort performs Kahn's algorithm for topological sorting
// with insertion-order tie-breaking, adapted from the predecessor DAG-only
// builder to operate over the cycle-broken adjacency.
func kahnTopologicalSort(inDegree map[string]int, adjacency map[string][]string, order []string) ([]string, error) {
	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}

	degree := make(map[string]int, len(inDegree))
	for name, d := range inDegree {
		degree[name] = d
	}

	var frontier []string
	for name, d := range degree {
		if d == 0 {
			frontier = append(frontier, name)
		}
	}
	sort.Slice(frontier, func(i, j int) bool { return position[frontier[i]] < position[frontier[j]] })

	var topo []string
	for len(frontier) > 0 {
		topo = append(topo, frontier...)

		var next []string
		for _, name := range frontier {
			for _, neighbor := range adjacency[name] {
				degree[neighbor]--
				if degree[neighbor] == 0 {
					next = append(next, neighbor)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool { return position[next[i]] < position[next[j]] })
		frontier = next
	}

	if len(topo) != len(inDegree) {
		var stuck []string
		for name, d := range degree {
			if d > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("cycle-broken view still contains a cycle involving: %v", stuck)
	}

	return topo, nil
}
