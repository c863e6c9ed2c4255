package promobs

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leofalp/flowgraph/providers/observability"
	"github.com/leofalp/flowgraph/providers/observability/slogobs"
)

// Observer implements observability.Provider, routing Counter and Histogram
// calls to Prometheus collectors and everything else (tracing, logging) to
// a wrapped slogobs.Observer.
//
// Component names carried on individual Add/Record calls are not mapped to
// Prometheus labels: the scheduler invokes components with a dynamic,
// per-run attribute set (run ID, component name, cycle name...), and a
// vector metric's label set is fixed at registration time. Mapping that
// dynamic set onto labels would mean either registering a new collector per
// distinct attribute combination (unbounded cardinality, exactly what
// Prometheus warns against) or silently dropping attributes that don't fit
// a pre-declared label schema. Instead each named metric is a single
// Counter/Histogram aggregating across all calls, and the full attribute
// set is still visible via the underlying slogobs logger for
// per-invocation detail.
type Observer struct {
	*slogobs.Observer
	registerer prometheus.Registerer
	metrics    *metricsStore
}

// New creates a Prometheus-backed Observer. The slogobs options configure
// the delegate used for tracing and logging; pass WithRegisterer to target
// a specific *prometheus.Registry instead of the default registerer.
func New(opts ...Option) *Observer {
	cfg := applyOptions(opts...)

	return &Observer{
		Observer:   slogobs.New(cfg.slogOpts...),
		registerer: cfg.registerer,
		metrics:    newMetricsStore(cfg.registerer),
	}
}

var _ observability.Provider = (*Observer)(nil)

// Counter returns a named observability.Counter backed by a Prometheus
// counter registered on first use.
func (o *Observer) Counter(name string) observability.Counter {
	return o.metrics.getCounter(name)
}

// Histogram returns a named observability.Histogram backed by a Prometheus
// histogram registered on first use.
func (o *Observer) Histogram(name string) observability.Histogram {
	return o.metrics.getHistogram(name)
}

type metricsStore struct {
	registerer prometheus.Registerer
	counters   map[string]*promCounter
	histograms map[string]*promHistogram
}

func newMetricsStore(registerer prometheus.Registerer) *metricsStore {
	return &metricsStore{
		registerer: registerer,
		counters:   make(map[string]*promCounter),
		histograms: make(map[string]*promHistogram),
	}
}

func (m *metricsStore) getCounter(name string) *promCounter {
	if c, ok := m.counters[name]; ok {
		return c
	}

	collector := prometheus.NewCounter(prometheus.CounterOpts{
		Name: sanitizeMetricName(name),
		Help: "flowgraph component counter: " + name,
	})
	m.registerer.MustRegister(collector)

	c := &promCounter{collector: collector}
	m.counters[name] = c
	return c
}

func (m *metricsStore) getHistogram(name string) *promHistogram {
	if h, ok := m.histograms[name]; ok {
		return h
	}

	collector := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    sanitizeMetricName(name),
		Help:    "flowgraph component histogram: " + name,
		Buckets: prometheus.DefBuckets,
	})
	m.registerer.MustRegister(collector)

	h := &promHistogram{collector: collector}
	m.histograms[name] = h
	return h
}

type promCounter struct {
	collector prometheus.Counter
}

// Add implements observability.Counter. value must be non-negative, per
// Prometheus counter semantics; a negative delta is dropped rather than
// panicking the run.
func (c *promCounter) Add(_ context.Context, value int64, _ ...observability.Attribute) {
	if value < 0 {
		return
	}
	c.collector.Add(float64(value))
}

type promHistogram struct {
	collector prometheus.Histogram
}

// Record implements observability.Histogram.
func (h *promHistogram) Record(_ context.Context, value float64, _ ...observability.Attribute) {
	h.collector.Observe(value)
}

// sanitizeMetricName rewrites the scheduler's dotted metric names
// (e.g. "flowgraph.component.duration") into Prometheus's
// underscore-separated convention.
func sanitizeMetricName(name string) string {
	out := make([]rune, len(name))
	for i, r := range name {
		if r == '.' || r == '-' {
			out[i] = '_'
		} else {
			out[i] = r
		}
	}
	return string(out)
}
