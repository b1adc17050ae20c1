package layout_test

import (
	"errors"
	"testing"

	"ember/internal/layout"
	"ember/internal/types"
)

func engine(t *testing.T) (*layout.Engine, *types.Interner) {
	t.Helper()
	in := types.NewInterner()
	return layout.New(layout.X86_64LinuxGNU(), in), in
}

func TestTuplePadding(t *testing.T) {
	e, in := engine(t)
	bt := in.Builtins()

	tup := in.Tuple([]types.TypeID{bt.U8, bt.U32, bt.U8})
	l, err := e.Of(tup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOffsets := []int{0, 4, 8}
	if len(l.FieldOffsets) != len(wantOffsets) {
		t.Fatalf("expected %d offsets, got %d", len(wantOffsets), len(l.FieldOffsets))
	}
	for i, want := range wantOffsets {
		if l.FieldOffsets[i] != want {
			t.Errorf("expected offset[%d]=%d, got %d", i, want, l.FieldOffsets[i])
		}
	}
	if l.Size != 12 {
		t.Errorf("expected size 12, got %d", l.Size)
	}
	if l.Align != 4 {
		t.Errorf("expected align 4, got %d", l.Align)
	}
}

func TestRecursiveValueTypeIsAnError(t *testing.T) {
	e, in := engine(t)

	// enum node { leaf; cons(node) } has infinite size without indirection.
	def := in.DeclareEnum("node", 0)
	self := in.Enum(def, nil)
	in.SetEnumVariants(def, []types.Variant{
		{Name: "leaf", Discr: 0},
		{Name: "cons", Discr: 1, Args: []types.TypeID{self}},
	})

	_, err := e.Of(self)
	var lerr *layout.Error
	if !errors.As(err, &lerr) {
		t.Fatalf("expected layout.Error, got %v", err)
	}
	if lerr.Kind != layout.ErrRecursiveUnsized {
		t.Errorf("expected ErrRecursiveUnsized, got kind %d", lerr.Kind)
	}

	// Indirection through a box breaks the cycle.
	def2 := in.DeclareEnum("list", 0)
	self2 := in.Enum(def2, nil)
	in.SetEnumVariants(def2, []types.Variant{
		{Name: "nil", Discr: 0},
		{Name: "cons", Discr: 1, Args: []types.TypeID{in.Builtins().Int, in.Intern(types.MakeBox(self2))}},
	})
	if _, err := e.Of(self2); err != nil {
		t.Errorf("boxed recursion must have a layout, got %v", err)
	}
}

func TestEnumLayouts(t *testing.T) {
	e, in := engine(t)
	bt := in.Builtins()

	clike := in.DeclareEnum("color", 0)
	in.SetEnumVariants(clike, []types.Variant{
		{Name: "red", Discr: 0}, {Name: "green", Discr: 1}, {Name: "blue", Discr: 2},
	})
	l, err := e.Of(in.Enum(clike, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Size != 8 {
		t.Errorf("expected c-like enum size 8, got %d", l.Size)
	}

	degen := in.DeclareEnum("wrapper", 0)
	in.SetEnumVariants(degen, []types.Variant{
		{Name: "only", Discr: 0, Args: []types.TypeID{bt.U8, bt.U32}},
	})
	l, err = e.Of(in.Enum(degen, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Size != 8 {
		t.Errorf("expected degenerate enum size 8, got %d", l.Size)
	}
	if l.PayloadOffset != 0 {
		t.Errorf("degenerate enum must not reserve a discriminant, payload offset %d", l.PayloadOffset)
	}

	tagged := in.DeclareEnum("shape", 0)
	in.SetEnumVariants(tagged, []types.Variant{
		{Name: "dot", Discr: 0},
		{Name: "line", Discr: 1, Args: []types.TypeID{bt.F64, bt.F64}},
	})
	l, err = e.Of(in.Enum(tagged, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.PayloadOffset != 8 {
		t.Errorf("expected payload offset 8, got %d", l.PayloadOffset)
	}
	if l.Size != 24 {
		t.Errorf("expected size 24 (discr + two f64), got %d", l.Size)
	}
}

func TestDynamicSize(t *testing.T) {
	e, in := engine(t)

	p := in.Intern(types.MakeParam(0))
	pair := in.Tuple([]types.TypeID{in.Builtins().Int, p})
	_, err := e.Of(pair)
	var lerr *layout.Error
	if !errors.As(err, &lerr) || lerr.Kind != layout.ErrDynamicSize {
		t.Fatalf("expected ErrDynamicSize, got %v", err)
	}
	if e.Static(pair) {
		t.Errorf("expected param-bearing tuple to be non-static")
	}

	// A pointer to a parameter is still statically sized.
	if !e.Static(in.Intern(types.MakeBox(p))) {
		t.Errorf("expected box of param to be statically sized")
	}
}

func TestResourceLayout(t *testing.T) {
	e, in := engine(t)
	bt := in.Builtins()

	res := in.DeclareRes("file", 0, bt.Int)
	l, err := e.Of(in.Res(res, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// {u8 flag, int} -> flag at 0, value at 8, size 16.
	if len(l.FieldOffsets) != 2 || l.FieldOffsets[0] != 0 || l.FieldOffsets[1] != 8 {
		t.Errorf("expected offsets [0 8], got %v", l.FieldOffsets)
	}
	if l.Size != 16 {
		t.Errorf("expected size 16, got %d", l.Size)
	}
}
