// Package promobs provides an observability.Provider implementation whose
// metrics half is backed by github.com/prometheus/client_golang, while
// tracing and logging are delegated to a wrapped slogobs.Observer. Use this
// provider when a component's Counter/Histogram calls must be scrapeable by
// Prometheus instead of only appearing as debug log lines.
//
// The main entry point is [New]; pass a *prometheus.Registry to control
// where metrics are registered, or omit it to use the default registerer.
package promobs
