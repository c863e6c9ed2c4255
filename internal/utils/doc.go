// Package utils provides shared low-level helpers used throughout the
// flowgraph internals: a best-effort JSON string renderer and a simple
// elapsed-time timer.
//
// Key entry points: [JSONToString] for best-effort JSON rendering in log
// and error messages, and [Timer] for measuring latency.
package utils
