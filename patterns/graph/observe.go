package graph

import (
	"context"
	"time"

	"github.com/leofalp/flowgraph/providers/observability"
)

const (
	metricRunDuration       = "flowgraph.run.duration"
	metricComponentDuration = "flowgraph.component.duration"
	metricComponentCount    = "flowgraph.component.count"
)

// observeRunStart resolves the active observability.Provider (an explicit
// WithObserver option, falling back to one already attached to ctx),
// starts the root span for the run, and attaches both to the returned
// context. Returns a nil span when no provider is available, which every
// observe* method treats as "observability disabled" (zero overhead).
func (s *Scheduler) observeRunStart(ctx context.Context, runID string) (context.Context, observability.Span) {
	provider := s.config.observer
	if provider == nil {
		provider = observability.ObserverFromContext(ctx)
	}
	if provider == nil {
		return ctx, nil
	}

	ctx, span := provider.StartSpan(ctx, observability.SpanSchedulerRun,
		observability.String(observability.AttrRunID, runID),
		observability.Int(observability.AttrRunComponentCount, len(s.graph.components)),
		observability.Int(observability.AttrRunCycleCount, len(s.graph.cycles)),
		observability.Int(observability.AttrRunMaxRuns, s.config.maxRunsPerComponent),
	)
	ctx = observability.ContextWithSpan(ctx, span)
	ctx = observability.ContextWithObserver(ctx, provider)

	provider.Info(ctx, "scheduler run started",
		observability.String(observability.AttrRunID, runID),
		observability.Int(observability.AttrRunComponentCount, len(s.graph.components)),
	)
	return ctx, span
}

func (s *Scheduler) observeRunCompleted(ctx context.Context, span observability.Span, duration time.Duration) {
	provider := observability.ObserverFromContext(ctx)
	if provider == nil {
		return
	}

	provider.Histogram(metricRunDuration).Record(ctx, duration.Seconds())
	provider.Info(ctx, "scheduler run completed",
		observability.String(observability.AttrStatus, "completed"),
		observability.Duration(observability.AttrDuration, duration),
	)

	if span != nil {
		span.SetStatus(observability.StatusOK, "run completed")
		span.End()
	}
}

func (s *Scheduler) observeRunStuck(ctx context.Context, waiting []string) {
	provider := observability.ObserverFromContext(ctx)
	if provider == nil {
		return
	}
	provider.Warn(ctx, "scheduler stuck: no waiting component can become ready",
		observability.StringSlice("graph.waiting_components", waiting),
	)
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventStuckInLoop, observability.StringSlice("graph.waiting_components", waiting))
	}
}

func (s *Scheduler) observeRunFailed(ctx context.Context, span observability.Span, err error, duration time.Duration) {
	provider := observability.ObserverFromContext(ctx)
	if provider == nil {
		return
	}

	provider.Error(ctx, "scheduler run failed",
		observability.Error(err),
		observability.Duration(observability.AttrDuration, duration),
	)

	if span != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "run failed")
		span.End()
	}
}

func (s *Scheduler) observeComponentStart(ctx context.Context, comp *component) (context.Context, observability.Span) {
	provider := observability.ObserverFromContext(ctx)
	if provider == nil {
		return ctx, nil
	}

	ctx, span := provider.StartSpan(ctx, observability.SpanComponentExecute,
		observability.String(observability.AttrComponentName, comp.name),
		observability.Int(observability.AttrComponentVisits, comp.visits),
		observability.Bool(observability.AttrComponentAsync, comp.supportsAsync),
	)
	ctx = observability.ContextWithSpan(ctx, span)

	provider.Debug(ctx, "component execution started",
		observability.String(observability.AttrComponentName, comp.name),
	)
	return ctx, span
}

func (s *Scheduler) observeComponentDone(ctx context.Context, span observability.Span, comp *component, duration time.Duration, err error) {
	provider := observability.ObserverFromContext(ctx)
	if provider == nil {
		return
	}

	provider.Histogram(metricComponentDuration).Record(ctx, duration.Seconds(),
		observability.String(observability.AttrComponentName, comp.name),
	)

	if err != nil {
		provider.Counter(metricComponentCount).Add(ctx, 1,
			observability.String(observability.AttrComponentName, comp.name),
			observability.String(observability.AttrStatus, "failed"),
		)
		provider.Error(ctx, "component execution failed",
			observability.String(observability.AttrComponentName, comp.name),
			observability.Error(err),
			observability.Duration(observability.AttrDuration, duration),
		)
		if span != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "component failed")
			span.End()
		}
		return
	}

	provider.Counter(metricComponentCount).Add(ctx, 1,
		observability.String(observability.AttrComponentName, comp.name),
		observability.String(observability.AttrStatus, "completed"),
	)
	provider.Debug(ctx, "component execution completed",
		observability.String(observability.AttrComponentName, comp.name),
		observability.Duration(observability.AttrDuration, duration),
	)
	if span != nil {
		span.SetStatus(observability.StatusOK, "component completed")
		span.End()
	}
}

func (s *Scheduler) observeCycleEntered(ctx context.Context, cycle *Cycle, startAt string) {
	provider := observability.ObserverFromContext(ctx)
	if provider == nil {
		return
	}
	provider.Debug(ctx, "cycle sub-scheduler entered",
		observability.StringSlice(observability.AttrCycleMembers, cycle.Members),
		observability.String(observability.AttrCycleStartedAt, startAt),
	)
}

func (s *Scheduler) observeCycleExited(ctx context.Context, cycle *Cycle) {
	provider := observability.ObserverFromContext(ctx)
	if provider == nil {
		return
	}
	provider.Debug(ctx, "cycle sub-scheduler exited",
		observability.StringSlice(observability.AttrCycleMembers, cycle.Members),
	)
}
