package trans_test

import (
	"math"
	"strings"
	"testing"

	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/types"
)

func TestScalarCastSelection(t *testing.T) {
	cases := []struct {
		name string
		from func(bt types.Builtins) types.TypeID
		to   func(bt types.Builtins) types.TypeID
		want ir.CastKind
	}{
		{"narrow_int", func(bt types.Builtins) types.TypeID { return bt.I64 }, func(bt types.Builtins) types.TypeID { return bt.I32 }, ir.CastTrunc},
		{"widen_signed", func(bt types.Builtins) types.TypeID { return bt.I32 }, func(bt types.Builtins) types.TypeID { return bt.I64 }, ir.CastSExt},
		{"widen_unsigned", func(bt types.Builtins) types.TypeID { return bt.U32 }, func(bt types.Builtins) types.TypeID { return bt.I64 }, ir.CastZExt},
		{"signed_to_float", func(bt types.Builtins) types.TypeID { return bt.Int }, func(bt types.Builtins) types.TypeID { return bt.F64 }, ir.CastSIToFP},
		{"unsigned_to_float", func(bt types.Builtins) types.TypeID { return bt.Uint }, func(bt types.Builtins) types.TypeID { return bt.F64 }, ir.CastUIToFP},
		{"float_to_signed", func(bt types.Builtins) types.TypeID { return bt.F64 }, func(bt types.Builtins) types.TypeID { return bt.Int }, ir.CastFPToSI},
		{"float_to_unsigned", func(bt types.Builtins) types.TypeID { return bt.F64 }, func(bt types.Builtins) types.TypeID { return bt.U64 }, ir.CastFPToUI},
		{"narrow_float", func(bt types.Builtins) types.TypeID { return bt.F64 }, func(bt types.Builtins) types.TypeID { return bt.F32 }, ir.CastFPTrunc},
		{"widen_float", func(bt types.Builtins) types.TypeID { return bt.F32 }, func(bt types.Builtins) types.TypeID { return bt.F64 }, ir.CastFPExt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := ast.NewBuilder("demo")
			bt := b.Types().Builtins()
			from, to := tc.from(bt), tc.to(bt)

			fb := b.Fn("conv", to)
			x := fb.Arg("x", types.ModeVal, from)
			fb.Body(b.Blk([]ast.StmtID{
				b.ExprStmt(b.Ret(b.Cast(b.LocalRef(x, from), to))),
			}, ast.NoExprID)).Done()

			out, _ := translate(t, b.Finish())
			f := funcByFrag(t, out, "4conv")
			if got := countInstr(f, ir.InstrCast); got != 1 {
				t.Fatalf("expected 1 cast, got %d", got)
			}
			for _, blk := range f.Blocks {
				for i := range blk.Instrs {
					in := &blk.Instrs[i]
					if in.Kind == ir.InstrCast && in.Cast.Op != tc.want {
						t.Errorf("expected cast kind %d, got %d", tc.want, in.Cast.Op)
					}
				}
			}
		})
	}
}

func TestCastToBoolComparesAgainstZero(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()

	fb := b.Fn("truthy", bt.Bool)
	x := fb.Arg("x", types.ModeVal, bt.Int)
	fb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.Ret(b.Cast(b.LocalRef(x, bt.Int), bt.Bool))),
	}, ast.NoExprID)).Done()

	out, _ := translate(t, b.Finish())
	f := funcByFrag(t, out, "6truthy")

	if got := countInstr(f, ir.InstrCast); got != 0 {
		t.Fatalf("expected no width cast down to a flag, got %d", got)
	}
	if got := countInstr(f, ir.InstrICmp); got != 1 {
		t.Fatalf("expected 1 compare, got %d", got)
	}
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind != ir.InstrICmp {
				continue
			}
			if in.ICmp.Pred != ir.INe {
				t.Errorf("expected a not-equal compare, got predicate %d", in.ICmp.Pred)
			}
			if got := constInt(t, f, in.ICmp.R); got != 0 {
				t.Errorf("expected a compare against zero, got %d", got)
			}
		}
	}
}

func TestNilComparisonFolds(t *testing.T) {
	for _, tc := range []struct {
		name string
		op   ast.BinOp
		want int64
	}{
		{"eq", ast.OpEq, 1},
		{"ne", ast.OpNe, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := ast.NewBuilder("demo")
			bt := b.Types().Builtins()

			fb := b.Fn("same", bt.Bool)
			fb.Body(b.Blk([]ast.StmtID{
				b.ExprStmt(b.Ret(b.Binary(tc.op, b.NilLit(), b.NilLit(), bt.Bool))),
			}, ast.NoExprID)).Done()

			out, _ := translate(t, b.Finish())
			f := funcByFrag(t, out, "4same")

			if got := countInstr(f, ir.InstrICmp) + countInstr(f, ir.InstrFCmp); got != 0 {
				t.Fatalf("expected the answer folded, got %d compares", got)
			}
			var stored bool
			for _, blk := range f.Blocks {
				for i := range blk.Instrs {
					in := &blk.Instrs[i]
					if in.Kind != ir.InstrStore || in.Store.Ptr != f.Param(0) {
						continue
					}
					if got := constInt(t, f, in.Store.Val); got != tc.want {
						t.Errorf("expected %d stored, got %d", tc.want, got)
					}
					stored = true
				}
			}
			if !stored {
				t.Error("expected the folded flag stored to the return slot")
			}
		})
	}
}

func TestComparisonPredicateTracksSignedness(t *testing.T) {
	build := func(ty func(types.Builtins) types.TypeID) (*ir.Module, *ir.Func) {
		b := ast.NewBuilder("demo")
		bt := b.Types().Builtins()
		opT := ty(bt)

		fb := b.Fn("less", bt.Bool)
		x := fb.Arg("x", types.ModeVal, opT)
		y := fb.Arg("y", types.ModeVal, opT)
		fb.Body(b.Blk([]ast.StmtID{
			b.ExprStmt(b.Ret(b.Binary(ast.OpLt, b.LocalRef(x, opT), b.LocalRef(y, opT), bt.Bool))),
		}, ast.NoExprID)).Done()

		out, _ := translate(t, b.Finish())
		return out, funcByFrag(t, out, "4less")
	}

	_, f := build(func(bt types.Builtins) types.TypeID { return bt.Int })
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			if in := &blk.Instrs[i]; in.Kind == ir.InstrICmp && in.ICmp.Pred != ir.ISlt {
				t.Errorf("expected a signed compare for int, got predicate %d", in.ICmp.Pred)
			}
		}
	}

	_, f = build(func(bt types.Builtins) types.TypeID { return bt.Uint })
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			if in := &blk.Instrs[i]; in.Kind == ir.InstrICmp && in.ICmp.Pred != ir.IUlt {
				t.Errorf("expected an unsigned compare for uint, got predicate %d", in.ICmp.Pred)
			}
		}
	}

	_, f = build(func(bt types.Builtins) types.TypeID { return bt.F64 })
	if got := countInstr(f, ir.InstrICmp); got != 0 {
		t.Errorf("expected no integer compare for floats, got %d", got)
	}
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			if in := &blk.Instrs[i]; in.Kind == ir.InstrFCmp && in.FCmp.Pred != ir.FOlt {
				t.Errorf("expected an ordered less-than for f64, got predicate %d", in.FCmp.Pred)
			}
		}
	}
}

func TestStringLiteralsAreInterned(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()

	fb := b.Fn("emit", bt.Nil)
	fb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.StrLit("hi")),
		b.ExprStmt(b.StrLit("hi")),
		b.ExprStmt(b.StrLit("bye")),
	}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())
	f := funcByFrag(t, out, "4emit")

	if stats.CStrings != 2 {
		t.Errorf("expected 2 pooled strings, got %d", stats.CStrings)
	}
	if got := countCalls(out, f, "ember_rt_str_new"); got != 3 {
		t.Fatalf("expected 3 constructions, got %d", got)
	}
	var datas []ir.GlobalID
	var lens []int64
	for i := 0; i < 3; i++ {
		args := callArgs(t, out, f, "ember_rt_str_new", i)
		if len(args) != 2 {
			t.Fatalf("expected data and length, got %d args", len(args))
		}
		v := f.Val(args[0])
		if v.Kind != ir.ValGlobal {
			t.Fatal("expected the data argument to be a global")
		}
		if name := out.Global(v.Global).Name; !strings.HasPrefix(name, ".str") {
			t.Errorf("expected a string-pool global, got %q", name)
		}
		datas = append(datas, v.Global)
		lens = append(lens, constInt(t, f, args[1]))
	}
	if datas[0] != datas[1] {
		t.Error("expected equal literals to share one global")
	}
	if datas[0] == datas[2] {
		t.Error("expected distinct literals to get distinct globals")
	}
	if lens[0] != 2 || lens[2] != 3 {
		t.Errorf("expected lengths without the terminator, got %v", lens)
	}
	// Each unused handle is released on the spot.
	if got := countCallsWithPrefix(out, f, "glue.free.str"); got != 3 {
		t.Errorf("expected each discarded handle freed, got %d", got)
	}
	if stats.LandingPads != 0 {
		t.Errorf("expected no pads for immediately released handles, got %d", stats.LandingPads)
	}
}

func TestNegationAndNotShapes(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()

	nb := b.Fn("neg", bt.Int)
	nx := nb.Arg("x", types.ModeVal, bt.Int)
	nb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.Ret(b.Unary(ast.OpNeg, b.LocalRef(nx, bt.Int), bt.Int))),
	}, ast.NoExprID)).Done()

	gb := b.Fn("fneg", bt.F64)
	gx := gb.Arg("x", types.ModeVal, bt.F64)
	gb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.Ret(b.Unary(ast.OpNeg, b.LocalRef(gx, bt.F64), bt.F64))),
	}, ast.NoExprID)).Done()

	hb := b.Fn("flip", bt.Bool)
	hx := hb.Arg("x", types.ModeVal, bt.Bool)
	hb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.Ret(b.Unary(ast.OpNot, b.LocalRef(hx, bt.Bool), bt.Bool))),
	}, ast.NoExprID)).Done()

	out, _ := translate(t, b.Finish())

	f := funcByFrag(t, out, "3neg")
	if got := countBin(f, ir.BinSub); got != 1 {
		t.Fatalf("expected integer negation as a subtraction, got %d", got)
	}
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind == ir.InstrBin && in.Bin.Op == ir.BinSub {
				if got := constInt(t, f, in.Bin.L); got != 0 {
					t.Errorf("expected subtraction from zero, got %d", got)
				}
			}
		}
	}

	f = funcByFrag(t, out, "4fneg")
	if got := countBin(f, ir.BinFSub); got != 1 {
		t.Fatalf("expected float negation as a subtraction, got %d", got)
	}
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind == ir.InstrBin && in.Bin.Op == ir.BinFSub {
				v := f.Val(in.Bin.L)
				if v.Kind != ir.ValConstFloat || v.Float != 0 || !math.Signbit(v.Float) {
					t.Error("expected subtraction from negative zero")
				}
			}
		}
	}

	f = funcByFrag(t, out, "4flip")
	if got := countBin(f, ir.BinXor); got != 1 {
		t.Fatalf("expected boolean not as an xor, got %d", got)
	}
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind == ir.InstrBin && in.Bin.Op == ir.BinXor {
				if got := constInt(t, f, in.Bin.R); got != 1 {
					t.Errorf("expected xor with one, got %d", got)
				}
			}
		}
	}
}

func TestHandleReadsBumpOrSteal(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	boxInt := boxOf(b, bt.Int)

	kb := b.Fn("keep", boxInt)
	kp := kb.Arg("p", types.ModeRef, boxInt)
	kb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.Ret(b.LocalRef(kp, boxInt))),
	}, ast.NoExprID)).Done()

	sb := b.Fn("steal", boxInt)
	sp := sb.Arg("p", types.ModeCopy, boxInt)
	last := b.LocalRef(sp, boxInt)
	b.MarkLastUse(last)
	sb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.Ret(last)),
	}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())

	// A borrowed handle that escapes gets its count bumped in place.
	f := funcByFrag(t, out, "4keep")
	if got := countBin(f, ir.BinAdd); got != 1 {
		t.Errorf("expected one count bump, got %d", got)
	}
	if got := countCallsWithPrefix(out, f, "glue."); got != 0 {
		t.Errorf("expected no glue on a borrowed read, got %d calls", got)
	}

	// A final use of an owned handle is stolen: the slot is zeroed and
	// no count moves.
	f = funcByFrag(t, out, "5steal")
	if got := countBin(f, ir.BinAdd); got != 0 {
		t.Errorf("expected no count bump on a final use, got %d", got)
	}
	zeroed := 0
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind != ir.InstrStore || f.Val(in.Store.Val).Kind != ir.ValConstNull {
				continue
			}
			if slot := defOf(f, in.Store.Ptr); slot != nil && slot.Kind == ir.InstrAlloca {
				zeroed++
			}
		}
	}
	if zeroed != 1 {
		t.Errorf("expected the source slot zeroed once, got %d", zeroed)
	}
	// The owned parameter still drops on exit; the zeroed slot makes it
	// a no-op at runtime.
	if got := countCallsWithPrefix(out, f, "glue.drop."); got != 1 {
		t.Errorf("expected one exit drop, got %d", got)
	}
	_ = stats
}

func TestBareFunctionWidensWithNullEnvironment(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()

	gb := b.Fn("seven", bt.Int)
	gb.Arg("k", types.ModeVal, bt.Int)
	gb.Body(b.Blk(nil, ast.NoExprID)).Done()
	bare := b.Types().Fn(types.ProtoBare, []types.FnArg{{Mode: types.ModeVal, Type: bt.Int}}, bt.Int)
	clos := b.Types().Fn(types.ProtoClosure, []types.FnArg{{Mode: types.ModeVal, Type: bt.Int}}, bt.Int)
	var gDef ast.DefID = 0

	fb := b.Fn("wrap", bt.Nil)
	cl := fb.Local("cl", clos)
	fb.Body(b.Blk([]ast.StmtID{
		b.Let(cl, b.Cast(b.GlobalRef(gDef, nil, bare), clos)),
	}, ast.NoExprID)).Done()

	out, _ := translate(t, b.Finish())
	f := funcByFrag(t, out, "4wrap")
	g := funcByFrag(t, out, "5seven")

	var code, env bool
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind != ir.InstrStore {
				continue
			}
			if v := f.Val(in.Store.Val); v.Kind == ir.ValFunc && v.Fn == g.ID {
				code = true
			}
			if f.Val(in.Store.Val).Kind != ir.ValConstNull {
				continue
			}
			if off := defOf(f, in.Store.Ptr); off != nil && off.Kind == ir.InstrPtrOffset {
				if constInt(t, f, off.PtrOffset.Off) == 8 {
					env = true
				}
			}
		}
	}
	if !code {
		t.Error("expected the code pointer stored into the pair")
	}
	if !env {
		t.Error("expected a null environment stored one word in")
	}
}
