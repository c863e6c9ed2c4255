package graph

import "fmt"

// InvalidInputError reports malformed or unknown-key input data, raised
// before any component runs (spec §7).
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// InvalidGraphError reports a cycle that cannot be broken, raised by
// GraphBuilder.Build before the main loop ever starts (spec §7).
type InvalidGraphError struct {
	Reason string
}

func (e *InvalidGraphError) Error() string {
	return fmt.Sprintf("invalid graph: %s", e.Reason)
}

// MaxRunsExceededError reports that a component exceeded its visit budget.
// Fatal: it terminates the run by propagating to the consumer (spec §7).
type MaxRunsExceededError struct {
	Component string
	MaxRuns   int
}

func (e *MaxRunsExceededError) Error() string {
	return fmt.Sprintf("component %q exceeded max runs per component (%d)", e.Component, e.MaxRuns)
}

// ComponentContractViolationError reports that a component's returned
// output referenced an output socket it never declared. Fatal (spec §7).
type ComponentContractViolationError struct {
	Component string
	Reason    string
}

func (e *ComponentContractViolationError) Error() string {
	return fmt.Sprintf("component %q violated its output contract: %s", e.Component, e.Reason)
}

// ComponentRuntimeError wraps an error raised by a component's own Execute
// call. Propagated unchanged to the consumer; the scheduler never retries
// (spec §7).
type ComponentRuntimeError struct {
	Component string
	Cause     error
}

func (e *ComponentRuntimeError) Error() string {
	return fmt.Sprintf("component %q failed: %v", e.Component, e.Cause)
}

func (e *ComponentRuntimeError) Unwrap() error {
	return e.Cause
}

// StuckInLoopWarning is a non-fatal warning, recorded on a StreamEvent
// rather than returned as an error: the stream terminates cleanly, yielding
// whatever final outputs have accumulated (spec §7).
type StuckInLoopWarning struct {
	Waiting []string
}

func (e *StuckInLoopWarning) Error() string {
	return fmt.Sprintf("stuck in loop: waiting on %v with no further progress possible", e.Waiting)
}
