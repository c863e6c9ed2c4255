package graph

// inputStore is the mapping component-name -> socket-name -> value holding
// pending inputs for a single pipeline run (spec §3). It also tracks, per
// variadic socket, which senders have contributed a value since the socket
// was last reset, which the Readiness Oracle needs to decide fan-in
// completeness (spec §4.3).
type inputStore struct {
	values      map[string]map[string]any
	contributed map[string]map[string]map[string]bool
}

func newInputStore() *inputStore {
	return &inputStore{
		values:      make(map[string]map[string]any),
		contributed: make(map[string]map[string]map[string]bool),
	}
}

func (s *inputStore) set(name, socket string, value any) {
	sockets, ok := s.values[name]
	if !ok {
		sockets = make(map[string]any)
		s.values[name] = sockets
	}
	sockets[socket] = value
}

// append accumulates a value onto a variadic socket and records that
// senderName has contributed since the socket's last reset.
func (s *inputStore) append(name, socket, senderName string, value any) {
	sockets, ok := s.values[name]
	if !ok {
		sockets = make(map[string]any)
		s.values[name] = sockets
	}
	seq, _ := sockets[socket].([]any)
	sockets[socket] = append(seq, value)
	s.markContributed(name, socket, senderName)
}

func (s *inputStore) markContributed(name, socket, senderName string) {
	bySocket, ok := s.contributed[name]
	if !ok {
		bySocket = make(map[string]map[string]bool)
		s.contributed[name] = bySocket
	}
	senders, ok := bySocket[socket]
	if !ok {
		senders = make(map[string]bool)
		bySocket[socket] = senders
	}
	senders[senderName] = true
}

func (s *inputStore) hasContributed(name, socket, senderName string) bool {
	bySocket, ok := s.contributed[name]
	if !ok {
		return false
	}
	return bySocket[socket][senderName]
}

// resetVariadic empties a variadic socket's accumulator and clears its
// contributed-senders set, as happens after the component consuming it runs
// (spec §3: "the accumulator is reset to an empty sequence").
func (s *inputStore) resetVariadic(name, socket string) {
	s.set(name, socket, []any{})
	if bySocket, ok := s.contributed[name]; ok {
		delete(bySocket, socket)
	}
}

func (s *inputStore) delete(name, socket string) {
	if sockets, ok := s.values[name]; ok {
		delete(sockets, socket)
	}
}

func (s *inputStore) has(name, socket string) bool {
	sockets, ok := s.values[name]
	if !ok {
		return false
	}
	_, ok = sockets[socket]
	return ok
}

// getInputs returns a shallow copy of the component's current socket
// values, safe for the component to read without racing the store.
func (s *inputStore) getInputs(name string) map[string]any {
	sockets := s.values[name]
	out := make(map[string]any, len(sockets))
	for k, v := range sockets {
		out[k] = v
	}
	return out
}

// applyDefaults fills every socket of comp that has no sender, no
// user-provided value yet, and a declared default. Variadic defaults are
// wrapped in a one-element sequence (spec §4.2). Sockets that do have a
// sender are left alone here: their sender is expected to fire in due
// course, and a premature default would pre-empt the real value.
func (s *inputStore) applyDefaults(c *component) {
	for _, socketName := range c.inputOrder {
		socket := c.inputSockets[socketName]
		if len(socket.Senders) > 0 {
			continue
		}
		s.applyDefaultToSocket(c.name, socket)
	}
}

// forceApplyDefaults fills every still-unset socket of comp that has a
// declared default, irrespective of whether it also has a sender. This is
// the candidate-selection rule 3 path (spec §4.5.2): by the time the
// scheduler reaches it, every ready and lazy-variadic candidate has already
// been ruled out, so a cycle-bootstrap socket whose sender hasn't fired yet
// is deliberately unstuck by its default instead.
func (s *inputStore) forceApplyDefaults(c *component) {
	for _, socketName := range c.inputOrder {
		s.applyDefaultToSocket(c.name, c.inputSockets[socketName])
	}
}

func (s *inputStore) applyDefaultToSocket(name string, socket *InputSocket) {
	if s.has(name, socket.Name) {
		return
	}
	if !socket.HasDefault {
		return
	}
	if socket.IsVariadic {
		s.set(name, socket.Name, []any{socket.Default})
	} else {
		s.set(name, socket.Name, socket.Default)
	}
}
