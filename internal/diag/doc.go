// Package diag defines the diagnostic model for code generation and the
// driver around it.
//
// Diagnostic is the central record: a severity, a stable numeric code, a
// message and an optional primary span plus notes. Producers emit through
// a Reporter so storage stays decoupled; BagReporter aggregates into a
// Bag, which supports capping, sorting and deduplication for
// deterministic output.
//
// Rendering lives in print.go and is the only place that knows about
// colors. Everything else is plain data, safe to serialize and compare
// in tests.
package diag
