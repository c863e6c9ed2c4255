package promobs

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	t.Fatalf("metric family %q not found among %d families", name, len(families))
	return nil
}

func TestObserver_CounterAccumulatesAcrossCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := New(WithRegisterer(reg))

	counter := obs.Counter("flowgraph.components.invoked")
	counter.Add(context.Background(), 2)
	counter.Add(context.Background(), 3)

	family := gather(t, reg, "flowgraph_components_invoked")
	got := family.GetMetric()[0].GetCounter().GetValue()
	if got != 5 {
		t.Fatalf("expected accumulated counter value 5, got %v", got)
	}
}

func TestObserver_CounterIsCachedByName(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := New(WithRegisterer(reg))

	obs.Counter("flowgraph.runs").Add(context.Background(), 1)
	obs.Counter("flowgraph.runs").Add(context.Background(), 1)

	family := gather(t, reg, "flowgraph_runs")
	if len(family.GetMetric()) != 1 {
		t.Fatalf("expected a single registered series for one metric name, got %d", len(family.GetMetric()))
	}
	if got := family.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected value 2 across both calls, got %v", got)
	}
}

func TestObserver_CounterIgnoresNegativeDelta(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := New(WithRegisterer(reg))

	counter := obs.Counter("flowgraph.negative")
	counter.Add(context.Background(), 1)
	counter.Add(context.Background(), -10)

	family := gather(t, reg, "flowgraph_negative")
	if got := family.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected the negative delta to be dropped, got %v", got)
	}
}

func TestObserver_HistogramRecordsObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := New(WithRegisterer(reg))

	histogram := obs.Histogram("flowgraph.component.duration_seconds")
	histogram.Record(context.Background(), 0.5)
	histogram.Record(context.Background(), 1.5)

	family := gather(t, reg, "flowgraph_component_duration_seconds")
	hist := family.GetMetric()[0].GetHistogram()
	if hist.GetSampleCount() != 2 {
		t.Fatalf("expected 2 samples recorded, got %d", hist.GetSampleCount())
	}
	if hist.GetSampleSum() != 2.0 {
		t.Fatalf("expected sample sum 2.0, got %v", hist.GetSampleSum())
	}
}

func TestObserver_ImplementsTracingAndLoggingViaDelegate(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := New(WithRegisterer(reg))

	ctx, span := obs.StartSpan(context.Background(), "test-span")
	if span == nil {
		t.Fatalf("expected a non-nil span from the delegated tracer")
	}
	span.End()

	obs.Info(ctx, "ran via promobs observer")
}
