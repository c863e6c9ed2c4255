package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across different components of the system.

// --- Run Attributes ---

const (
	// AttrRunID is the correlation identifier for a single Scheduler.Run invocation.
	AttrRunID = "run.id"

	// AttrRunComponentCount is the total number of components registered in the graph.
	AttrRunComponentCount = "run.component_count"

	// AttrRunCycleCount is the number of cycles detected in the graph.
	AttrRunCycleCount = "run.cycle_count"

	// AttrRunMaxRuns is the configured max_runs_per_component ceiling.
	AttrRunMaxRuns = "run.max_runs_per_component"
)

// --- Component Attributes ---

const (
	// AttrComponentName identifies the component within the graph.
	AttrComponentName = "component.name"

	// AttrComponentVisits is the number of times a component has been invoked so far.
	AttrComponentVisits = "component.visits"

	// AttrComponentAsync records whether a component declares native suspension support.
	AttrComponentAsync = "component.supports_async"
)

// --- Cycle Attributes ---

const (
	// AttrCycleMembers lists the component names participating in a cycle.
	AttrCycleMembers = "cycle.members"

	// AttrCycleStartedAt names the component the cycle sub-scheduler was entered at.
	AttrCycleStartedAt = "cycle.started_at"
)

// --- Queue / Scheduling Attributes ---

const (
	// AttrQueueWaitingSize is the size of the waiting queue at a progress check.
	AttrQueueWaitingSize = "queue.waiting_size"

	// AttrQueueRunSize is the size of the run queue at a progress check.
	AttrQueueRunSize = "queue.run_size"
)

// --- General Attributes ---

const (
	// AttrError is the error message.
	AttrError = "error"

	// AttrErrorType is the error type/class.
	AttrErrorType = "error.type"

	// AttrDuration is the operation duration.
	AttrDuration = "duration"

	// AttrStatus is the operation status.
	AttrStatus = "status"

	// AttrStatusDescription is the optional description attached to a status.
	AttrStatusDescription = "status.description"
)

// --- Span Names ---

const (
	// SpanSchedulerRun is the span name for the entire scheduler run.
	SpanSchedulerRun = "scheduler.run"

	// SpanComponentExecute is the span name for a single component invocation.
	SpanComponentExecute = "scheduler.component.execute"

	// SpanCycleRun is the span name for a cycle sub-scheduler invocation.
	SpanCycleRun = "scheduler.cycle.run"
)

// --- Event Names ---

const (
	// EventStuckInLoop marks that the scheduler detected a stuck waiting set.
	EventStuckInLoop = "scheduler.stuck_in_loop"

	// EventCycleEntered marks the sub-scheduler being entered for a cycle.
	EventCycleEntered = "scheduler.cycle.entered"

	// EventCycleExited marks the sub-scheduler completing for a cycle.
	EventCycleExited = "scheduler.cycle.exited"
)
