package graph

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/uuid"

	"github.com/leofalp/flowgraph/internal/utils"
)

// Scheduler is the central loop: it maintains the run queue and waiting
// queue, invokes components via the worker executor or natively, handles
// cycles by recursively driving a sub-scheduler restricted to the cycle's
// members, detects stuck states, and streams intermediate outputs as they
// are produced (spec §4.5). A Scheduler instance must be used by one run at
// a time (spec §5); create one Scheduler per Graph and drive runs
// sequentially, or build a fresh Scheduler per concurrent run.
type Scheduler struct {
	graph  *Graph
	config *schedulerConfig
}

// NewScheduler creates a Scheduler over a validated Graph.
func NewScheduler(g *Graph, opts ...Option) *Scheduler {
	config := defaultSchedulerConfig()
	for _, opt := range opts {
		opt(config)
	}
	if config.workerExecutor == nil {
		config.workerExecutor = newSingleWorkerExecutor()
	}
	return &Scheduler{graph: g, config: config}
}

// runState holds everything that is created at the start of a run and
// destroyed at its end (spec §3: "Lifetimes").
type runState struct {
	store     *inputStore
	oracle    *readinessOracle
	dist      *distributor
	runQueue  *queue
	waitQueue *queue

	finalOutputs map[string]map[string]any
	maxRuns      int

	witness1, witness2               []string
	witness1Defined, witness2Defined bool
}

func (r *runState) resetWitnesses() {
	r.witness1Defined, r.witness2Defined = false, false
}

// Run executes data through the graph, returning a lazy sequence of
// streamed events (spec §6). If the consumer stops pulling (an early
// return from the range-over-func loop), the scheduler suspends at the
// next yield point and no further components run; no StreamEvent, not even
// EventFinal, follows (spec §5 cancellation).
func (s *Scheduler) Run(ctx context.Context, data map[string]any) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		runID := uuid.New().String()
		s.resetVisits()

		store := newInputStore()
		if err := s.normalizeInput(store, data); err != nil {
			yield(StreamEvent{}, err)
			return
		}
		for _, name := range s.graph.order {
			store.applyDefaults(s.graph.components[name])
		}

		oracle := newReadinessOracle(s.graph, store)
		runQueue := newQueue()
		waitQueue := newQueue()
		for _, name := range s.graph.acyclicOrder {
			runQueue.push(name)
		}
		dist := newDistributor(s.graph, store, oracle, runQueue, waitQueue)

		run := &runState{
			store:        store,
			oracle:       oracle,
			dist:         dist,
			runQueue:     runQueue,
			waitQueue:    waitQueue,
			finalOutputs: make(map[string]map[string]any),
			maxRuns:      s.config.maxRunsPerComponent,
		}

		ctx, rootSpan := s.observeRunStart(ctx, runID)
		timer := utils.NewTimer()

		stuckWarning, cancelled, err := s.mainLoop(ctx, run, yield)
		if err != nil {
			timer.Stop()
			s.observeRunFailed(ctx, rootSpan, err, timer.GetDuration())
			yield(StreamEvent{}, err)
			return
		}
		if cancelled {
			return
		}

		if stuckWarning != nil {
			s.observeRunStuck(ctx, stuckWarning.Waiting)
			if !yield(StreamEvent{Kind: EventStuck, Warning: stuckWarning}, nil) {
				return
			}
		}

		timer.Stop()
		s.observeRunCompleted(ctx, rootSpan, timer.GetDuration())
		yield(StreamEvent{Kind: EventFinal, FinalOutputs: run.finalOutputs}, nil)
	}
}

// mainLoop drives the outer scheduling loop (spec §4.5). It returns a
// non-nil StuckInLoopWarning on natural stuck termination, cancelled=true
// if the consumer stopped pulling mid-run, or a fatal error.
func (s *Scheduler) mainLoop(ctx context.Context, run *runState, yield func(StreamEvent, error) bool) (*StuckInLoopWarning, bool, error) {
	for !run.runQueue.isEmpty() || !run.waitQueue.isEmpty() {
		if run.runQueue.isEmpty() {
			stuck, err := s.progressCheck(run)
			if err != nil {
				return nil, false, err
			}
			if stuck {
				return &StuckInLoopWarning{Waiting: run.waitQueue.names()}, false, nil
			}
			continue
		}

		name, _ := run.runQueue.pop()
		comp := s.graph.components[name]

		if run.oracle.isLazyVariadic(name) && !allLazyVariadicAmong(run, run.runQueue.names()) {
			run.waitQueue.push(name)
			continue
		}

		if cycles := s.graph.componentsInCycles[name]; len(cycles) > 0 && run.oracle.ready(name) {
			cycle := cycles[0]
			s.observeCycleEntered(ctx, cycle, name)
			residual, cancelled, err := s.runCycle(ctx, run, cycle, name, yield)
			s.observeCycleExited(ctx, cycle)
			if err != nil {
				return nil, false, err
			}
			if cancelled {
				return nil, true, nil
			}
			s.applyResidual(run, residual)
			run.resetWitnesses()
			continue
		}

		if run.oracle.ready(name) {
			if comp.visits >= run.maxRuns {
				return nil, false, &MaxRunsExceededError{Component: name, MaxRuns: run.maxRuns}
			}

			output, err := s.invoke(ctx, comp, run.store.getInputs(name))
			if err != nil {
				return nil, false, &ComponentRuntimeError{Component: name, Cause: err}
			}
			if err := s.validateContract(comp, output); err != nil {
				return nil, false, err
			}
			comp.visits++

			if !yield(StreamEvent{Kind: EventComponentOutput, Component: name, Output: snapshotOutput(output)}, nil) {
				return nil, true, nil
			}

			s.deleteConsumed(run.store, comp)
			run.waitQueue.remove(name)

			leaves := run.dist.distribute(name, output)
			run.dist.sweepDead()
			if len(leaves) > 0 {
				run.finalOutputs[name] = leaves
			}
			run.resetWitnesses()
			continue
		}

		run.waitQueue.push(name)
	}

	return nil, false, nil
}

// progressCheck implements spec §4.5 step 6: it first asks whether any
// component can still ever become ready (the "external stuck predicate",
// realized here as candidate selection finding nothing at all); if so, it
// checks the two-witness waiting-set equality before forcing a candidate
// into the run queue.
func (s *Scheduler) progressCheck(run *runState) (stuck bool, err error) {
	run.dist.sweepDead()

	waitingNow := run.waitQueue.names()

	candidate, ok := selectCandidateAmong(s.graph, run.oracle, waitingNow)
	if !ok {
		return true, nil
	}

	if run.witness1Defined && run.witness2Defined && equalSets(run.witness1, run.witness2) && equalSets(waitingNow, run.witness1) {
		return true, nil
	}

	run.witness2, run.witness2Defined = run.witness1, run.witness1Defined
	run.witness1, run.witness1Defined = waitingNow, true

	run.waitQueue.remove(candidate)
	run.store.forceApplyDefaults(s.graph.components[candidate])
	run.runQueue.push(candidate)
	return false, nil
}

// selectCandidateAmong implements spec §4.5.2: prefer a runnable component,
// then a lazy-variadic one, then one whose every input has a default.
func selectCandidateAmong(g *Graph, oracle *readinessOracle, names []string) (string, bool) {
	for _, name := range names {
		if oracle.ready(name) {
			return name, true
		}
	}
	for _, name := range names {
		if oracle.isLazyVariadic(name) {
			return name, true
		}
	}
	for _, name := range names {
		if allSocketsHaveDefaults(g, name) {
			return name, true
		}
	}
	return "", false
}

func allSocketsHaveDefaults(g *Graph, name string) bool {
	comp := g.components[name]
	for _, socketName := range comp.inputOrder {
		if !comp.inputSockets[socketName].HasDefault {
			return false
		}
	}
	return true
}

func allLazyVariadicAmong(run *runState, names []string) bool {
	for _, name := range names {
		if !run.oracle.isLazyVariadic(name) {
			return false
		}
	}
	return true
}

// applyResidual distributes a completed cycle's residual (out-of-cycle)
// outputs through the real distributor and records any resulting leaves.
func (s *Scheduler) applyResidual(run *runState, residual map[string]map[string]any) {
	for producer, output := range residual {
		leaves := run.dist.distribute(producer, output)
		if len(leaves) > 0 {
			run.finalOutputs[producer] = leaves
		}
	}
	run.dist.sweepDead()
}

// runCycle drives the cycle sub-scheduler (spec §4.5.1): a restricted
// instance of the main loop over a single cycle, sharing the run's global
// input store but its own run/waiting queues. It returns residual outputs
// — those not fed back into the cycle — keyed by producer name, for the
// caller to distribute through the real Distributor once the cycle ends.
func (s *Scheduler) runCycle(ctx context.Context, run *runState, cycle *Cycle, startAt string, yield func(StreamEvent, error) bool) (map[string]map[string]any, bool, error) {
	members := make(map[string]bool, len(cycle.Members))
	for _, m := range cycle.Members {
		members[m] = true
	}

	cycleRun := newQueue()
	for _, name := range rotatedMembers(cycle, startAt) {
		cycleRun.push(name)
	}
	cycleWait := newQueue()
	subgraphOutputs := make(map[string]map[string]any)
	received := false

	var witness1, witness2 []string
	var witness1Defined, witness2Defined bool

	for !received && (!cycleRun.isEmpty() || !cycleWait.isEmpty()) {
		if cycleRun.isEmpty() {
			waitingNow := cycleWait.names()
			candidate, ok := selectCandidateAmong(s.graph, run.oracle, waitingNow)
			if !ok {
				break
			}
			if witness1Defined && witness2Defined && equalSets(witness1, witness2) && equalSets(waitingNow, witness1) {
				break
			}
			witness2, witness2Defined = witness1, witness1Defined
			witness1, witness1Defined = waitingNow, true

			cycleWait.remove(candidate)
			run.store.forceApplyDefaults(s.graph.components[candidate])
			cycleRun.push(candidate)
			continue
		}

		name, _ := cycleRun.pop()
		comp := s.graph.components[name]

		if run.oracle.isLazyVariadic(name) && !allLazyVariadicAmong(run, cycleRun.names()) {
			cycleWait.push(name)
			continue
		}

		if !run.oracle.ready(name) {
			cycleWait.push(name)
			continue
		}

		if comp.visits >= run.maxRuns {
			return nil, false, &MaxRunsExceededError{Component: name, MaxRuns: run.maxRuns}
		}

		output, err := s.invoke(ctx, comp, run.store.getInputs(name))
		if err != nil {
			return nil, false, &ComponentRuntimeError{Component: name, Cause: err}
		}
		if err := s.validateContract(comp, output); err != nil {
			return nil, false, err
		}
		comp.visits++

		if !yield(StreamEvent{Kind: EventComponentOutput, Component: name, Output: snapshotOutput(output)}, nil) {
			return subgraphOutputs, true, nil
		}

		s.deleteConsumedInCycle(run.store, comp, members)
		// Stage name back into the waiting pen: a later feedback value from
		// another cycle member may make it ready again this same sub-run.
		cycleWait.push(name)

		fedBack := false
		outsideOutput := make(map[string]any)
		for socketName, value := range output {
			outSocket, ok := comp.outputSockets[socketName]
			if !ok {
				continue
			}
			insideReceiver := false
			outsideReceiver := false
			for _, recv := range outSocket.Receivers {
				if members[recv.Component] {
					insideReceiver = true
					target := s.graph.components[recv.Component].inputSockets[recv.Socket]
					if target.IsVariadic {
						run.store.append(recv.Component, recv.Socket, name, value)
					} else {
						run.store.set(recv.Component, recv.Socket, value)
					}
					if cycleWait.contains(recv.Component) && run.oracle.ready(recv.Component) {
						cycleWait.remove(recv.Component)
						cycleRun.push(recv.Component)
					}
				} else {
					outsideReceiver = true
				}
			}
			if insideReceiver {
				fedBack = true
			}
			if outsideReceiver || len(outSocket.Receivers) == 0 {
				outsideOutput[socketName] = value
			}
		}

		if len(outsideOutput) > 0 {
			subgraphOutputs[name] = outsideOutput
		}

		witness1Defined, witness2Defined = false, false

		if !fedBack {
			received = true
		}
	}

	return subgraphOutputs, false, nil
}

func rotatedMembers(cycle *Cycle, startAt string) []string {
	idx := 0
	for i, m := range cycle.Members {
		if m == startAt {
			idx = i
			break
		}
	}
	n := len(cycle.Members)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, cycle.Members[(idx+i)%n])
	}
	return out
}

// deleteConsumed implements spec §4.5 step 4: delete every input socket of
// comp whose senders set is non-empty; user-only sockets are retained.
func (s *Scheduler) deleteConsumed(store *inputStore, comp *component) {
	for _, socketName := range comp.inputOrder {
		socket := comp.inputSockets[socketName]
		if len(socket.Senders) == 0 {
			continue
		}
		if socket.IsVariadic {
			store.resetVariadic(comp.name, socketName)
		} else {
			store.delete(comp.name, socketName)
		}
	}
}

// deleteConsumedInCycle implements spec §4.5.1's input-deletion rule: a
// consumed socket is deleted only if every sender is inside the cycle;
// sockets with any external sender are retained for the cycle's following
// iterations.
func (s *Scheduler) deleteConsumedInCycle(store *inputStore, comp *component, members map[string]bool) {
	for _, socketName := range comp.inputOrder {
		socket := comp.inputSockets[socketName]
		if len(socket.Senders) == 0 {
			continue
		}
		allInside := true
		for _, sender := range socket.Senders {
			if !members[sender.Component] {
				allInside = false
				break
			}
		}
		if !allInside {
			continue
		}
		if socket.IsVariadic {
			store.resetVariadic(comp.name, socketName)
		} else {
			store.delete(comp.name, socketName)
		}
	}
}

// invoke dispatches to native invocation or the worker executor depending
// on the component's supports_async flag (spec §5).
func (s *Scheduler) invoke(ctx context.Context, comp *component, inputs map[string]any) (map[string]any, error) {
	ctx, span := s.observeComponentStart(ctx, comp)
	timer := utils.NewTimer()

	var output map[string]any
	var err error
	if comp.supportsAsync {
		output, err = comp.executor.Execute(ctx, inputs)
	} else {
		output, err = s.config.workerExecutor.Run(ctx, func(ctx context.Context) (map[string]any, error) {
			return comp.executor.Execute(ctx, inputs)
		})
	}

	timer.Stop()
	s.observeComponentDone(ctx, span, comp, timer.GetDuration(), err)
	return output, err
}

// validateContract implements the ComponentContractViolation half of spec
// §7: a returned key must name a declared output socket. Go's type system
// already guarantees the output is a map[string]any, so the "not a
// mapping" half of the contract can never be violated here.
func (s *Scheduler) validateContract(comp *component, output map[string]any) error {
	for socketName := range output {
		if _, ok := comp.outputSockets[socketName]; !ok {
			return &ComponentContractViolationError{
				Component: comp.name,
				Reason:    fmt.Sprintf("undeclared output socket %q in output %s", socketName, utils.ToString(output)),
			}
		}
	}
	return nil
}

func (s *Scheduler) resetVisits() {
	for _, comp := range s.graph.components {
		comp.visits = 0
	}
}

// normalizeInput implements spec §6: expands the shorthand input form,
// seeds the input store, and validates that every mandatory socket (no
// default, no sender) has been provided.
func (s *Scheduler) normalizeInput(store *inputStore, data map[string]any) error {
	canonical, err := s.expandInput(data)
	if err != nil {
		return err
	}

	for name, sockets := range canonical {
		comp, ok := s.graph.components[name]
		if !ok {
			return &InvalidInputError{Reason: fmt.Sprintf("unknown component %q", name)}
		}
		for socketName, value := range sockets {
			socket, ok := comp.inputSockets[socketName]
			if !ok {
				return &InvalidInputError{Reason: fmt.Sprintf("unknown socket %q on component %q", socketName, name)}
			}
			if socket.IsVariadic {
				store.set(name, socketName, []any{value})
			} else {
				store.set(name, socketName, value)
			}
		}
	}

	for _, name := range s.graph.order {
		comp := s.graph.components[name]
		for _, socketName := range comp.inputOrder {
			socket := comp.inputSockets[socketName]
			if !socket.mandatory() {
				continue
			}
			if !store.has(name, socketName) {
				return &InvalidInputError{Reason: fmt.Sprintf("mandatory socket %q on component %q was not provided", socketName, name)}
			}
		}
	}

	return nil
}

// expandInput distinguishes the canonical input shape
// ({component -> {socket -> value}}) from the shorthand
// ({socket -> value}), broadcasting the shorthand to every component
// declaring a socket of that name (spec §6, and the open question in
// spec §9: "the source broadcasts").
func (s *Scheduler) expandInput(data map[string]any) (map[string]map[string]any, error) {
	isCanonical := true
	for key := range data {
		if _, ok := s.graph.components[key]; !ok {
			isCanonical = false
			break
		}
	}

	if isCanonical {
		out := make(map[string]map[string]any, len(data))
		for name, raw := range data {
			sockets, ok := raw.(map[string]any)
			if !ok {
				return nil, &InvalidInputError{Reason: fmt.Sprintf("value for component %q must be a socket map", name)}
			}
			out[name] = sockets
		}
		return out, nil
	}

	out := make(map[string]map[string]any)
	for socketName, value := range data {
		components, ok := s.graph.socketIndex[socketName]
		if !ok {
			return nil, &InvalidInputError{Reason: fmt.Sprintf("unknown socket %q", socketName)}
		}
		for _, name := range components {
			if out[name] == nil {
				out[name] = make(map[string]any)
			}
			out[name][socketName] = value
		}
	}
	return out, nil
}
