package graph

// Cycle is an ordered list of component names forming a strongly-connected
// subgraph. The ordering is the traversal order used when the cycle
// sub-scheduler is entered (see scheduler.go), not necessarily the order
// the components appear in the original graph declaration.
type Cycle struct {
	Members []string
}

func (c *Cycle) contains(name string) bool {
	for _, m := range c.Members {
		if m == name {
			return true
		}
	}
	return false
}

// Graph is a read-only, validated view of components and the typed
// directed edges between their sockets, produced by GraphBuilder.Build().
// It is safe for concurrent reads; Scheduler never mutates it except for
// per-component visit counters, which are reset at the start of every run.
type Graph struct {
	components map[string]*component

	// order preserves declaration order, used for deterministic
	// tie-breaking (defaults application, mandatory-socket validation).
	order []string

	// acyclicOrder is the topological order of the cycle-broken view: one
	// feedback edge per cycle removed, used only to seed the outer run
	// queue (spec §4.1).
	acyclicOrder []string

	cycles []*Cycle

	// componentsInCycles maps a component name to every cycle it belongs
	// to.
	componentsInCycles map[string][]*Cycle

	// socketIndex maps a socket name to every component declaring an input
	// socket of that name, used to expand the shorthand input form (§6).
	socketIndex map[string][]string
}

// TopologicalOrderWithoutCycles returns the topological order of the
// cycle-broken graph view.
func (g *Graph) TopologicalOrderWithoutCycles() []string {
	out := make([]string, len(g.acyclicOrder))
	copy(out, g.acyclicOrder)
	return out
}

// CyclesContaining returns every cycle that includes the named component,
// or nil if it participates in none.
func (g *Graph) CyclesContaining(name string) []*Cycle {
	return g.componentsInCycles[name]
}

// ReceiversOf returns the downstream (component, socket) pairs fed by the
// given component's output socket.
func (g *Graph) ReceiversOf(componentName, outputSocket string) []Receiver {
	comp, ok := g.components[componentName]
	if !ok {
		return nil
	}
	out, ok := comp.outputSockets[outputSocket]
	if !ok {
		return nil
	}
	return out.Receivers
}
