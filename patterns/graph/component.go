package graph

import "context"

// Sender identifies an upstream (component, socket) pair feeding an input
// socket. A socket with no senders is fed only by the caller's input data
// or its declared default.
type Sender struct {
	Component string
	Socket    string
}

// Receiver identifies a downstream (component, socket) pair fed by an
// output socket.
type Receiver struct {
	Component string
	Socket    string
}

// InputSocket describes a single named input port on a component.
type InputSocket struct {
	// Name is the socket's identifier, unique within its component.
	Name string

	// Senders lists every upstream (component, socket) pair that feeds this
	// socket. Empty means the socket is fed only by user input or Default.
	Senders []Sender

	// Default is the value used when the socket has no sender and the caller
	// supplied none. Only meaningful when HasDefault is true.
	Default any

	// HasDefault records whether Default was explicitly declared, since nil
	// is itself a valid default value.
	HasDefault bool

	// IsVariadic marks a socket that accumulates a sequence of values, one
	// per sender per run, rather than holding a single value.
	IsVariadic bool
}

// mandatory reports whether the socket must be supplied by the caller: it
// has neither a sender nor a declared default.
func (s *InputSocket) mandatory() bool {
	return len(s.Senders) == 0 && !s.HasDefault
}

// OutputSocket describes a single named output port on a component.
type OutputSocket struct {
	Name      string
	Receivers []Receiver
}

// Executor is the interface every component implements. Execute receives the
// component's current input sockets and returns a map from output socket
// name to value. Returning a key that names an undeclared output socket is
// a contract violation caught by the scheduler.
type Executor interface {
	Execute(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// ExecutorFunc adapts an ordinary function to the Executor interface.
type ExecutorFunc func(ctx context.Context, inputs map[string]any) (map[string]any, error)

// Execute calls the underlying function, satisfying Executor.
func (f ExecutorFunc) Execute(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return f(ctx, inputs)
}

// component is the internal, mutable-at-runtime node record. name/sockets
// are immutable after Build(); visits is the only field the scheduler
// mutates during a run.
type component struct {
	name string

	executor Executor

	// inputOrder preserves declaration order; input_sockets is specified as
	// an ordered mapping (spec §3), which matters for default-application
	// and candidate-selection tie-breaking.
	inputOrder   []string
	inputSockets map[string]*InputSocket

	outputSockets map[string]*OutputSocket

	// supportsAsync reports whether Execute's own contract is natively
	// suspending. false routes invocation through the worker executor.
	supportsAsync bool

	visits int
}

func newComponent(name string, executor Executor) *component {
	return &component{
		name:          name,
		executor:      executor,
		inputSockets:  make(map[string]*InputSocket),
		outputSockets: make(map[string]*OutputSocket),
	}
}

func (c *component) getOrCreateInput(socket string) *InputSocket {
	s, ok := c.inputSockets[socket]
	if !ok {
		s = &InputSocket{Name: socket}
		c.inputSockets[socket] = s
		c.inputOrder = append(c.inputOrder, socket)
	}
	return s
}

func (c *component) getOrCreateOutput(socket string) *OutputSocket {
	s, ok := c.outputSockets[socket]
	if !ok {
		s = &OutputSocket{Name: socket}
		c.outputSockets[socket] = s
	}
	return s
}
