// Package target resolves target triples to the ABI parameters code
// generation needs, with optional overrides from an ember.toml manifest.
package target

import (
	"errors"
	"fmt"
	"sort"

	"ember/internal/layout"
)

// ErrUnknownTarget indicates a triple with no built-in or manifest entry.
var ErrUnknownTarget = errors.New("unknown target")

// Registry maps triples to layout targets.
type Registry struct {
	byTriple map[string]layout.Target
}

// NewRegistry returns a registry seeded with the built-in targets.
func NewRegistry() *Registry {
	r := &Registry{byTriple: make(map[string]layout.Target, 4)}
	r.Register(layout.X86_64LinuxGNU())
	r.Register(layout.I686LinuxGNU())
	return r
}

// Register adds or replaces a target description.
func (r *Registry) Register(t layout.Target) {
	r.byTriple[t.Triple] = t
}

// Resolve returns the target for a triple.
func (r *Registry) Resolve(triple string) (layout.Target, error) {
	if t, ok := r.byTriple[triple]; ok {
		return t, nil
	}
	return layout.Target{}, fmt.Errorf("%w: %q", ErrUnknownTarget, triple)
}

// Default returns the target used when none is requested.
func (r *Registry) Default() layout.Target {
	return r.byTriple[layout.X86_64LinuxGNU().Triple]
}

// Triples lists all registered triples in sorted order.
func (r *Registry) Triples() []string {
	out := make([]string, 0, len(r.byTriple))
	for k := range r.byTriple {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
