package trans_test

import (
	"testing"

	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/types"
)

func names(fs []*ir.Func) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

// genericId defines id<T>(x: T copy) with an empty body.
func genericId(b *ast.Builder) ast.DefID {
	fb := b.Fn("id", b.Types().Builtins().Nil)
	fb.TypeParam("T")
	fb.Arg("x", types.ModeCopy, b.Types().Intern(types.MakeParam(0)))
	_, def := fb.Body(b.Blk(nil, ast.NoExprID)).Done()
	return def
}

// callGeneric builds a statement calling def instantiated at targ.
func callGeneric(b *ast.Builder, def ast.DefID, targ types.TypeID, arg ast.ExprID) ast.StmtID {
	bt := b.Types().Builtins()
	sig := b.Types().Fn(types.ProtoBare, []types.FnArg{{Mode: types.ModeCopy, Type: targ}}, bt.Nil)
	call := b.Call(b.GlobalRef(def, []types.TypeID{targ}, sig), []ast.ExprID{arg}, bt.Nil)
	return b.ExprStmt(call)
}

func TestRepeatInstantiationHitsTheCache(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	id := genericId(b)

	fb := b.Fn("use", bt.Nil)
	fb.Body(b.Blk([]ast.StmtID{
		callGeneric(b, id, bt.Int, b.IntLit(1, bt.Int)),
		callGeneric(b, id, bt.Int, b.IntLit(2, bt.Int)),
	}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())

	if stats.Instances != 2 {
		t.Errorf("expected use plus one id instance, got %d", stats.Instances)
	}
	if stats.InstanceHits != 1 {
		t.Errorf("expected the second call to hit the cache, got %d hits", stats.InstanceHits)
	}
	insts := definedFuncs(out, "_E4demo2id")
	if len(insts) != 1 || insts[0].Name != "_E4demo2id$int" {
		t.Fatalf("expected a lone _E4demo2id$int, got %v", names(insts))
	}
	u := funcByFrag(t, out, "3use")
	if got := countCalls(out, u, "_E4demo2id$int"); got != 2 {
		t.Errorf("expected both calls on the shared instance, got %d", got)
	}
}

func TestDistinctSubstitutionsGetDistinctInstances(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	id := genericId(b)

	fb := b.Fn("use", bt.Nil)
	fb.Body(b.Blk([]ast.StmtID{
		callGeneric(b, id, bt.Int, b.IntLit(1, bt.Int)),
		callGeneric(b, id, bt.F64, b.FloatLit(2.5, bt.F64)),
	}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())

	if stats.Instances != 3 {
		t.Errorf("expected use plus two id instances, got %d", stats.Instances)
	}
	if stats.InstanceHits != 0 {
		t.Errorf("expected no cache hits, got %d", stats.InstanceHits)
	}
	for _, want := range []string{"_E4demo2id$int", "_E4demo2id$f64"} {
		if _, ok := out.FuncByName(want); !ok {
			t.Errorf("missing instance %s", want)
		}
	}
}

// Two box payloads with different contents land on one instance: the
// code never looks inside a box, so the key erases what it holds.
func TestBoxPayloadsShareOneInstance(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	id := genericId(b)
	boxInt := boxOf(b, bt.Int)
	boxF64 := b.Types().Intern(types.MakeBox(bt.F64))

	fb := b.Fn("use", bt.Nil)
	fb.Body(b.Blk([]ast.StmtID{
		callGeneric(b, id, boxInt, boxLit(b, 1, boxInt)),
		callGeneric(b, id, boxF64, b.Unary(ast.OpBox, b.FloatLit(2.5, bt.F64), boxF64)),
	}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())

	if stats.Instances != 2 {
		t.Errorf("expected the two instantiations to collapse, got %d instances", stats.Instances)
	}
	if stats.InstanceHits != 1 {
		t.Errorf("expected the second instantiation to hit, got %d hits", stats.InstanceHits)
	}
	insts := definedFuncs(out, "_E4demo2id")
	if len(insts) != 1 {
		t.Fatalf("expected one shared instance, got %v", names(insts))
	}
	if insts[0].Name != "_E4demo2id$_opaque_boxed" {
		t.Errorf("expected the payload to normalize away in the symbol, got %s", insts[0].Name)
	}

	// The shared body releases its argument through the descriptor it
	// was handed, not through a compiled-in glue symbol.
	indirect := 0
	for _, blk := range insts[0].Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind == ir.InstrCall && in.Call.Fn == ir.NoFuncID {
				indirect++
			}
		}
	}
	if indirect != 1 {
		t.Errorf("expected one indirect drop through the descriptor, got %d", indirect)
	}
	if got := countCallsWithPrefix(out, insts[0], "glue.drop."); got != 0 {
		t.Errorf("expected no direct glue calls in the shared body, got %d", got)
	}
}

// A generic that calls itself at its own parameter finds the pending
// instance instead of recursing during translation.
func TestRecursiveGenericTerminates(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	tv := b.Types().Intern(types.MakeParam(0))

	// The body references the def the builder hands out next; the guard
	// after Done keeps that arrangement honest.
	wantDef := ast.DefID(0)
	fb := b.Fn("down", bt.Nil)
	fb.TypeParam("T")
	x := fb.Arg("x", types.ModeCopy, tv)
	sig := b.Types().Fn(types.ProtoBare, []types.FnArg{{Mode: types.ModeCopy, Type: tv}}, bt.Nil)
	rec := b.Call(b.GlobalRef(wantDef, []types.TypeID{tv}, sig), []ast.ExprID{b.LocalRef(x, tv)}, bt.Nil)
	_, def := fb.Body(b.Blk([]ast.StmtID{b.ExprStmt(rec)}, ast.NoExprID)).Done()
	if def != wantDef {
		t.Fatalf("self-call wired to def %d, builder handed out %d", wantDef, def)
	}

	boxInt := boxOf(b, bt.Int)
	ub := b.Fn("use", bt.Nil)
	ub.Body(b.Blk([]ast.StmtID{
		callGeneric(b, def, boxInt, boxLit(b, 1, boxInt)),
	}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())

	if stats.Instances != 2 {
		t.Errorf("expected use plus one down instance, got %d", stats.Instances)
	}
	if stats.InstanceHits != 1 {
		t.Errorf("expected the self-call to find the pending instance, got %d hits", stats.InstanceHits)
	}
	insts := definedFuncs(out, "_E4demo4down")
	if len(insts) != 1 {
		t.Fatalf("expected one down instance, got %v", names(insts))
	}
	if got := countCalls(out, insts[0], insts[0].Name); got != 1 {
		t.Errorf("expected the instance to call itself once, got %d", got)
	}
}
