package graph

import (
	"context"
	"errors"
	"iter"
	"testing"
)

func seqOf(events ...StreamEvent) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		for _, e := range events {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func TestCollect_ReturnsFinalOutputsVerbatimByDefault(t *testing.T) {
	final := map[string]map[string]any{"b": {"out": 1}}
	events := seqOf(
		StreamEvent{Kind: EventComponentOutput, Component: "a", Output: map[string]any{"x": 1}},
		StreamEvent{Kind: EventFinal, FinalOutputs: final},
	)

	outputs, err := Collect(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["b"]["out"] != 1 {
		t.Fatalf("expected final outputs passed through, got %v", outputs)
	}
	if _, ok := outputs["a"]; ok {
		t.Errorf("component a was not in includeOutputsFrom, should not appear: %v", outputs)
	}
}

func TestCollect_MergesLastIntermediateOutputForIncludedComponents(t *testing.T) {
	events := seqOf(
		StreamEvent{Kind: EventComponentOutput, Component: "a", Output: map[string]any{"running": 1}},
		StreamEvent{Kind: EventComponentOutput, Component: "a", Output: map[string]any{"running": 2}},
		StreamEvent{Kind: EventFinal, FinalOutputs: map[string]map[string]any{}},
	)

	outputs, err := Collect(context.Background(), events, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["a"]["running"] != 2 {
		t.Fatalf("expected the last observed output for a, got %v", outputs["a"])
	}
}

func TestCollect_NeverOverwritesALeafKeyWithAnIntermediateOne(t *testing.T) {
	events := seqOf(
		StreamEvent{Kind: EventComponentOutput, Component: "a", Output: map[string]any{"out": "intermediate"}},
		StreamEvent{Kind: EventFinal, FinalOutputs: map[string]map[string]any{"a": {"out": "leaf"}}},
	)

	outputs, err := Collect(context.Background(), events, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["a"]["out"] != "leaf" {
		t.Fatalf("expected the leaf value to win over the intermediate merge, got %v", outputs["a"])
	}
}

func TestCollect_StuckEventIsNonFatalAndStreamStillYieldsFinal(t *testing.T) {
	events := seqOf(
		StreamEvent{Kind: EventStuck, Warning: &StuckInLoopWarning{Waiting: []string{"z"}}},
		StreamEvent{Kind: EventFinal, FinalOutputs: map[string]map[string]any{"a": {"out": 1}}},
	)

	outputs, err := Collect(context.Background(), events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outputs["a"]["out"] != 1 {
		t.Fatalf("expected final outputs despite the stuck warning, got %v", outputs)
	}
}

func TestCollect_PropagatesStreamError(t *testing.T) {
	boom := errors.New("boom")
	events := func(yield func(StreamEvent, error) bool) {
		yield(StreamEvent{}, boom)
	}

	if _, err := Collect(context.Background(), events); !errors.Is(err, boom) {
		t.Fatalf("expected the stream error to propagate, got %v", err)
	}
}

func TestSnapshotOutput_DeepCopiesNestedMapsAndSlices(t *testing.T) {
	nestedMap := map[string]any{"inner": "value"}
	nestedSlice := []any{1, map[string]any{"k": "v"}}
	original := map[string]any{
		"scalar": 42,
		"nested": nestedMap,
		"list":   nestedSlice,
	}

	snap := snapshotOutput(original)

	nestedMap["inner"] = "mutated"
	nestedSlice[0] = 999

	if snap["nested"].(map[string]any)["inner"] != "value" {
		t.Errorf("expected the snapshot's nested map to be unaffected by later mutation, got %v", snap["nested"])
	}
	if snap["list"].([]any)[0] != 1 {
		t.Errorf("expected the snapshot's nested slice to be unaffected by later mutation, got %v", snap["list"])
	}
	if snap["scalar"] != 42 {
		t.Errorf("expected scalar values to pass through, got %v", snap["scalar"])
	}
}

func TestSnapshotOutput_ProducesIndependentTopLevelMap(t *testing.T) {
	original := map[string]any{"a": 1}
	snap := snapshotOutput(original)
	original["a"] = 2
	original["b"] = 3

	if snap["a"] != 1 {
		t.Errorf("expected snapshot's top-level map to be independent, got %v", snap["a"])
	}
	if _, ok := snap["b"]; ok {
		t.Errorf("expected a key added after snapshotting to not appear in the snapshot")
	}
}
