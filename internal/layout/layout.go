package layout

import "ember/internal/types"

// TypeLayout is the ABI layout of a type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Aggregates only (records, tuples, resources, degenerate enums):
	FieldOffsets []int

	// Tagged enums only: where the variant payload area begins. The
	// discriminant always sits at offset 0.
	PayloadOffset int
}

// Engine computes memory layout for types against one target.
type Engine struct {
	Target Target
	Types  *types.Interner

	cache *cache
}

// New creates a layout engine for the given target.
func New(target Target, typesIn *types.Interner) *Engine {
	return &Engine{
		Target: target,
		Types:  typesIn,
		cache:  newCache(),
	}
}

type layoutState struct {
	stack []types.TypeID
	index map[types.TypeID]int
}

func newLayoutState() *layoutState {
	return &layoutState{index: make(map[types.TypeID]int, 32)}
}

// Of computes and caches the layout of a type.
func (e *Engine) Of(t types.TypeID) (TypeLayout, error) {
	l, err := e.layoutOf(t, newLayoutState())
	if err != nil {
		// A typed nil inside a plain error interface trips callers up.
		return l, err
	}
	return l, nil
}

func (e *Engine) layoutOf(t types.TypeID, state *layoutState) (TypeLayout, *Error) {
	if cached, ok := e.cache.get(t); ok {
		return cached.layout, cached.err
	}

	if idx, ok := state.index[t]; ok {
		cycle := append([]types.TypeID(nil), state.stack[idx:]...)
		cycle = append(cycle, t)
		err := &Error{Kind: ErrRecursiveUnsized, Type: t, Cycle: cycle}
		e.cache.put(t, entry{layout: TypeLayout{Align: 1}, err: err})
		return TypeLayout{Align: 1}, err
	}

	state.index[t] = len(state.stack)
	state.stack = append(state.stack, t)
	l, err := e.compute(t, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, t)

	e.cache.put(t, entry{layout: l, err: err})
	return l, err
}

// SizeOf returns the size of a type in bytes.
func (e *Engine) SizeOf(t types.TypeID) (int, error) {
	l, err := e.Of(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *Engine) AlignOf(t types.TypeID) (int, error) {
	l, err := e.Of(t)
	return l.Align, err
}

// FieldOffset returns the byte offset of aggregate field fieldIdx.
func (e *Engine) FieldOffset(t types.TypeID, fieldIdx int) (int, error) {
	l, err := e.Of(t)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, nil
	}
	return l.FieldOffsets[fieldIdx], nil
}

// Static reports whether the type's size is known at compile time.
func (e *Engine) Static(t types.TypeID) bool {
	_, err := e.Of(t)
	return err == nil
}
