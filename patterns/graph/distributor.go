package graph

// distributor writes a component's output into downstream input sockets
// and keeps the run/waiting queues in sync with newly-satisfied or
// permanently-unreachable components (spec §4.4).
type distributor struct {
	graph     *Graph
	store     *inputStore
	oracle    *readinessOracle
	runQueue  *queue
	waitQueue *queue
}

func newDistributor(g *Graph, store *inputStore, oracle *readinessOracle, runQueue, waitQueue *queue) *distributor {
	return &distributor{graph: g, store: store, oracle: oracle, runQueue: runQueue, waitQueue: waitQueue}
}

// distribute routes producer's output to every receiver socket, promotes
// newly-ready waiting components to the run queue, and returns the subset
// of output whose sockets have no receivers (this step's leaf outputs).
func (d *distributor) distribute(producer string, output map[string]any) map[string]any {
	comp := d.graph.components[producer]
	leaves := make(map[string]any)

	for socketName, value := range output {
		outSocket, ok := comp.outputSockets[socketName]
		if !ok {
			continue
		}
		if len(outSocket.Receivers) == 0 {
			leaves[socketName] = value
			continue
		}
		for _, recv := range outSocket.Receivers {
			target := d.graph.components[recv.Component].inputSockets[recv.Socket]
			if target.IsVariadic {
				d.store.append(recv.Component, recv.Socket, producer, value)
			} else {
				d.store.set(recv.Component, recv.Socket, value)
			}
			d.promoteIfReady(recv.Component)
		}
	}

	return leaves
}

func (d *distributor) promoteIfReady(name string) {
	if !d.waitQueue.contains(name) {
		return
	}
	if d.oracle.ready(name) {
		d.waitQueue.remove(name)
		d.runQueue.push(name)
	}
}

// sweepDead repeatedly removes components that have become permanently
// unreachable from both queues, until a fixed point is reached, marking
// each as dead on the oracle so readiness/lazy-variadic checks account for
// it (spec §4.5 step 4: "remove it from both queues").
func (d *distributor) sweepDead() {
	for {
		progressed := false
		candidates := append(d.waitQueue.names(), d.runQueue.names()...)
		for _, name := range candidates {
			if d.oracle.isDead(name) {
				continue
			}
			if d.isUnreachable(name) {
				d.oracle.markDead(name)
				d.waitQueue.remove(name)
				d.runQueue.remove(name)
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

// isUnreachable reports whether name has a mandatory (non-variadic,
// no-default) socket still unmet, none of whose senders can ever run
// again (they are neither queued nor waiting).
func (d *distributor) isUnreachable(name string) bool {
	comp := d.graph.components[name]
	for _, socketName := range comp.inputOrder {
		socket := comp.inputSockets[socketName]
		if socket.IsVariadic || socket.HasDefault {
			continue
		}
		if d.store.has(name, socketName) {
			continue
		}
		if len(socket.Senders) == 0 {
			continue // user-only mandatory socket: validated before the run began
		}
		canStillArrive := false
		for _, sender := range socket.Senders {
			if d.runQueue.contains(sender.Component) || d.waitQueue.contains(sender.Component) {
				canStillArrive = true
				break
			}
		}
		if !canStillArrive {
			return true
		}
	}
	return false
}
