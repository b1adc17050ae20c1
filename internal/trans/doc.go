// Package trans lowers a type-checked module into EIR.
//
// Translation is destination-driven: every expression is handed a dest
// saying where its value should end up, and control-flow joins merge
// destinations rather than values. Types with interesting lifecycles get
// per-type glue functions (take, drop, free) reached through type-info
// descriptors; scope exits, including unwinding ones, run the pending
// cleanups of every scope they leave.
//
// Generic functions are instantiated through a cache keyed by their
// normalized type arguments. Instances keep receiving descriptors for
// their type parameters, so instantiations that only differ in a boxed
// payload share one body.
package trans
