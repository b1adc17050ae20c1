package types_test

import (
	"testing"

	"ember/internal/types"
)

func TestInternDeduplicates(t *testing.T) {
	in := types.NewInterner()
	a := in.Intern(types.MakeBox(in.Builtins().Int))
	b := in.Intern(types.MakeBox(in.Builtins().Int))
	if a != b {
		t.Fatalf("expected identical TypeID for identical box types, got %d and %d", a, b)
	}
	c := in.Intern(types.MakeBox(in.Builtins().Bool))
	if a == c {
		t.Errorf("expected distinct TypeID for box of different element")
	}
}

func TestTupleAndRecDedup(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()

	t1 := in.Tuple([]types.TypeID{bt.U8, bt.U32, bt.U8})
	t2 := in.Tuple([]types.TypeID{bt.U8, bt.U32, bt.U8})
	if t1 != t2 {
		t.Errorf("expected tuple dedup, got %d and %d", t1, t2)
	}

	r1 := in.Rec([]types.RecField{{Name: "x", Type: bt.Int}, {Name: "y", Type: bt.Int}})
	r2 := in.Rec([]types.RecField{{Name: "x", Type: bt.Int}, {Name: "y", Type: bt.Int}})
	if r1 != r2 {
		t.Errorf("expected record dedup, got %d and %d", r1, r2)
	}
	r3 := in.Rec([]types.RecField{{Name: "y", Type: bt.Int}, {Name: "x", Type: bt.Int}})
	if r1 == r3 {
		t.Errorf("expected field order to distinguish records")
	}
}

func TestEnumInstantiation(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()

	opt := in.DeclareEnum("option", 1)
	in.SetEnumVariants(opt, []types.Variant{
		{Name: "none", Discr: 0},
		{Name: "some", Discr: 1, Args: []types.TypeID{in.Intern(types.MakeParam(0))}},
	})

	optInt := in.Enum(opt, []types.TypeID{bt.Int})
	optInt2 := in.Enum(opt, []types.TypeID{bt.Int})
	if optInt != optInt2 {
		t.Fatalf("expected enum instance dedup, got %d and %d", optInt, optInt2)
	}
	optBool := in.Enum(opt, []types.TypeID{bt.Bool})
	if optInt == optBool {
		t.Errorf("expected distinct instances for distinct type args")
	}

	vs := in.EnumVariants(optInt)
	if len(vs) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(vs))
	}
	if vs[1].Args[0] != bt.Int {
		t.Errorf("expected substituted variant arg int, got %s", in.String(vs[1].Args[0]))
	}
	if in.EnumIsDegen(optInt) {
		t.Errorf("two-variant enum must not be degenerate")
	}

	one := in.DeclareEnum("wrapper", 0)
	in.SetEnumVariants(one, []types.Variant{{Name: "only", Discr: 0, Args: []types.TypeID{bt.Int}}})
	w := in.Enum(one, nil)
	if !in.EnumIsDegen(w) {
		t.Errorf("single-variant enum must be degenerate")
	}
}

func TestSubst(t *testing.T) {
	in := types.NewInterner()
	bt := in.Builtins()
	p0 := in.Intern(types.MakeParam(0))
	p1 := in.Intern(types.MakeParam(1))

	pair := in.Tuple([]types.TypeID{p0, in.Intern(types.MakeBox(p1)), p0})
	got := in.Subst(pair, []types.TypeID{bt.Int, bt.Str})
	want := in.Tuple([]types.TypeID{bt.Int, in.Intern(types.MakeBox(bt.Str)), bt.Int})
	if got != want {
		t.Fatalf("expected %s, got %s", in.String(want), in.String(got))
	}
	if in.ContainsParams(got) {
		t.Errorf("substituted type must not contain params")
	}
	if !in.ContainsParams(pair) {
		t.Errorf("expected original to contain params")
	}
}

func TestWalkParamsOrder(t *testing.T) {
	in := types.NewInterner()
	p0 := in.Intern(types.MakeParam(0))
	p2 := in.Intern(types.MakeParam(2))
	ty := in.Tuple([]types.TypeID{p2, p0, p2})

	var seen []uint32
	in.WalkParams(ty, func(n uint32) { seen = append(seen, n) })
	want := []uint32{2, 0, 2}
	if len(seen) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("expected occurrence %d to be %d, got %d", i, want[i], seen[i])
		}
	}
}
