package graph

// readinessOracle is the pure predicate deciding whether a component has
// enough input to run (spec §4.3). It also tracks which components are
// permanently dead (unreachable), which both readiness and the distributor
// consult.
type readinessOracle struct {
	graph *Graph
	store *inputStore
	dead  map[string]bool
}

func newReadinessOracle(g *Graph, store *inputStore) *readinessOracle {
	return &readinessOracle{
		graph: g,
		store: store,
		dead:  make(map[string]bool),
	}
}

// ready reports whether every input socket of name is satisfied: present
// with a value, or variadic with every live sender having contributed since
// the socket's last reset.
func (r *readinessOracle) ready(name string) bool {
	comp := r.graph.components[name]
	for _, socketName := range comp.inputOrder {
		socket := comp.inputSockets[socketName]
		if socket.IsVariadic {
			if !r.variadicSatisfied(comp, socket) {
				return false
			}
			continue
		}
		if !r.store.has(name, socketName) {
			return false
		}
	}
	return true
}

func (r *readinessOracle) variadicSatisfied(comp *component, socket *InputSocket) bool {
	for _, sender := range socket.Senders {
		if r.dead[sender.Component] {
			continue
		}
		if !r.store.hasContributed(comp.name, socket.Name, sender.Component) {
			return false
		}
	}
	return true
}

// isLazyVariadic reports whether name has at least one variadic input
// socket with a live (non-dead) sender that may still fire, making it a
// lazy-variadic component per spec §4.3.
func (r *readinessOracle) isLazyVariadic(name string) bool {
	comp := r.graph.components[name]
	for _, socketName := range comp.inputOrder {
		socket := comp.inputSockets[socketName]
		if !socket.IsVariadic || len(socket.Senders) == 0 {
			continue
		}
		for _, sender := range socket.Senders {
			if !r.dead[sender.Component] {
				return true
			}
		}
	}
	return false
}

func (r *readinessOracle) markDead(name string) {
	r.dead[name] = true
}

func (r *readinessOracle) isDead(name string) bool {
	return r.dead[name]
}
