// Package trace records structured span events around code generation:
// driver runs, stage boundaries, per-module work and individual function
// translations.
//
// The default tracer is a no-op. The driver wires a StreamTracer when
// tracing is requested on the command line; a RingTracer keeps the last
// events in memory for inspection in tests.
package trace
