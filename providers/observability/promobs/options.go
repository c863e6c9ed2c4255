package promobs

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/leofalp/flowgraph/providers/observability/slogobs"
)

// Option is a functional option for configuring the Observer.
type Option func(*config)

type config struct {
	registerer prometheus.Registerer
	slogOpts   []slogobs.Option
}

// WithRegisterer registers metrics on registerer instead of the default
// Prometheus registerer. Pass a *prometheus.Registry in tests to avoid
// colliding with globally-registered metric names across runs.
func WithRegisterer(registerer prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = registerer
	}
}

// WithSlogOptions forwards options to the wrapped slogobs.Observer used for
// tracing and logging.
func WithSlogOptions(opts ...slogobs.Option) Option {
	return func(c *config) {
		c.slogOpts = append(c.slogOpts, opts...)
	}
}

func defaultConfig() *config {
	return &config{
		registerer: prometheus.DefaultRegisterer,
	}
}

func applyOptions(opts ...Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
