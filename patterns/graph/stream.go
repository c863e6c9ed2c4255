package graph

import (
	"context"
	"iter"
)

// EventKind discriminates what a StreamEvent carries.
type EventKind string

const (
	// EventComponentOutput carries one component invocation's deep-snapshotted
	// output (including each iteration inside a cycle).
	EventComponentOutput EventKind = "component_output"

	// EventStuck carries a non-fatal StuckInLoopWarning; the stream still
	// terminates with an EventFinal afterward (spec §7).
	EventStuck EventKind = "stuck"

	// EventFinal is always the last element of the stream: the terminal
	// final_outputs map (spec §6).
	EventFinal EventKind = "final"
)

// StreamEvent is one element of the lazy sequence returned by Scheduler.Run.
type StreamEvent struct {
	Kind EventKind

	// Component identifies the producer for EventComponentOutput.
	Component string

	// Output is the deep-snapshotted output map for EventComponentOutput.
	Output map[string]any

	// FinalOutputs is populated only for EventFinal.
	FinalOutputs map[string]map[string]any

	// Warning is populated only for EventStuck.
	Warning *StuckInLoopWarning
}

// Collect drains the full stream returned by Scheduler.Run and assembles a
// single map: final_outputs augmented, for each name in includeOutputsFrom,
// with the last intermediate output observed for that component. Existing
// keys already present in a component's leaf output are never overwritten
// by the merge (spec §6's "convenience driver").
func Collect(ctx context.Context, events iter.Seq2[StreamEvent, error], includeOutputsFrom ...string) (map[string]map[string]any, error) {
	include := make(map[string]bool, len(includeOutputsFrom))
	for _, name := range includeOutputsFrom {
		include[name] = true
	}

	lastSeen := make(map[string]map[string]any)
	var finalOutputs map[string]map[string]any

	for event, err := range events {
		if err != nil {
			return nil, err
		}
		switch event.Kind {
		case EventComponentOutput:
			if include[event.Component] {
				lastSeen[event.Component] = event.Output
			}
		case EventFinal:
			finalOutputs = event.FinalOutputs
		case EventStuck:
			// Non-fatal: the stream continues to its EventFinal.
		}
	}

	if finalOutputs == nil {
		finalOutputs = make(map[string]map[string]any)
	}

	for name := range include {
		observed, ok := lastSeen[name]
		if !ok {
			continue
		}
		merged := finalOutputs[name]
		if merged == nil {
			merged = make(map[string]any, len(observed))
		}
		for socket, value := range observed {
			if _, exists := merged[socket]; !exists {
				merged[socket] = value
			}
		}
		finalOutputs[name] = merged
	}

	return finalOutputs, nil
}

// snapshotOutput performs a structural deep copy of a component's output so
// in-place mutation by downstream components cannot alter an
// already-yielded intermediate result (spec §9). Component outputs are
// built only from map[string]any, []any, and scalar values — the only
// shapes the input-shape contract in spec §6 allows — so the copy only
// needs to handle those.
func snapshotOutput(output map[string]any) map[string]any {
	out := make(map[string]any, len(output))
	for key, value := range output {
		out[key] = snapshotValue(value)
	}
	return out
}

func snapshotValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return snapshotOutput(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = snapshotValue(elem)
		}
		return out
	default:
		return v
	}
}
