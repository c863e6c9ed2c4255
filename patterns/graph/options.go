package graph

import "github.com/leofalp/flowgraph/providers/observability"

// defaultMaxRunsPerComponent is the visit budget applied when
// WithMaxRunsPerComponent is not used (spec §6).
const defaultMaxRunsPerComponent = 100

// Option is a functional option for configuring a Scheduler.
type Option func(*schedulerConfig)

// ComponentOption is a functional option applied via GraphBuilder.AddComponent.
type ComponentOption func(*component)

// SocketOption is a functional option applied via WithInput.
type SocketOption func(*InputSocket)

// schedulerConfig holds Scheduler configuration populated by Options.
type schedulerConfig struct {
	maxRunsPerComponent int
	workerExecutor      WorkerExecutor
	metadata            map[string]any
	observer            observability.Provider
}

func defaultSchedulerConfig() *schedulerConfig {
	return &schedulerConfig{
		maxRunsPerComponent: defaultMaxRunsPerComponent,
	}
}

// --- Scheduler Options ---

// WithMaxRunsPerComponent overrides the default visit budget of 100. A
// component that would exceed this fails the run with MaxRunsExceededError.
func WithMaxRunsPerComponent(maxRuns int) Option {
	return func(config *schedulerConfig) {
		config.maxRunsPerComponent = maxRuns
	}
}

// WithWorkerExecutor injects a WorkerExecutor used for components that do
// not declare supports_async. The caller owns its lifecycle. By default
// NewScheduler creates a single-goroutine executor, which is never closed.
func WithWorkerExecutor(executor WorkerExecutor) Option {
	return func(config *schedulerConfig) {
		config.workerExecutor = executor
	}
}

// WithMetadata attaches arbitrary key-value metadata carried through for
// telemetry (spec §6), without being interpreted by the scheduler itself.
func WithMetadata(metadata map[string]any) Option {
	return func(config *schedulerConfig) {
		config.metadata = metadata
	}
}

// WithObserver sets the observability.Provider used for the scheduler's own
// spans, metrics, and logs. If unset, the scheduler falls back to any
// Provider already attached to the run's context.
func WithObserver(provider observability.Provider) Option {
	return func(config *schedulerConfig) {
		config.observer = provider
	}
}

// --- Component Options ---

// WithSupportsAsync marks a component as natively suspending, so the
// scheduler invokes it directly instead of routing through the worker
// executor (spec §3, §5).
func WithSupportsAsync() ComponentOption {
	return func(c *component) {
		c.supportsAsync = true
	}
}

// WithInput pre-declares an input socket and applies SocketOptions to it
// (WithDefault, Variadic). Connect also auto-declares sockets it
// references; use WithInput when a socket needs a default or the variadic
// flag, or has no sender at all.
func WithInput(socket string, opts ...SocketOption) ComponentOption {
	return func(c *component) {
		s := c.getOrCreateInput(socket)
		for _, opt := range opts {
			opt(s)
		}
	}
}

// WithOutput pre-declares an output socket that may end up with no
// receivers (a pure leaf), so Build doesn't need a Connect call to know it
// exists.
func WithOutput(socket string) ComponentOption {
	return func(c *component) {
		c.getOrCreateOutput(socket)
	}
}

// --- Socket Options ---

// WithDefault declares the socket's default value, used when the socket has
// no sender and the caller supplies none. A variadic socket's default is
// wrapped in a one-element sequence when applied (spec §4.2).
func WithDefault(value any) SocketOption {
	return func(s *InputSocket) {
		s.Default = value
		s.HasDefault = true
	}
}

// Variadic marks the socket as accumulating a sequence of values, one per
// sender per run, rather than holding a single value.
func Variadic() SocketOption {
	return func(s *InputSocket) {
		s.IsVariadic = true
	}
}
