package trans_test

import (
	"strings"
	"testing"

	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/types"
)

// invokesTo collects the invoke edges targeting sym, in block order.
func invokesTo(m *ir.Module, f *ir.Func, sym string) []ir.InvokeTerm {
	var out []ir.InvokeTerm
	for _, b := range f.Blocks {
		if b.Term.Kind == ir.TermInvoke && b.Term.Invoke.Fn != ir.NoFuncID &&
			m.Func(b.Term.Invoke.Fn).Name == sym {
			out = append(out, b.Term.Invoke)
		}
	}
	return out
}

func resumeCount(f *ir.Func) int {
	n := 0
	for _, b := range f.Blocks {
		if b.Term.Kind == ir.TermResume {
			n++
		}
	}
	return n
}

// declareHelper defines a tiny concrete callee and returns its def plus
// the type of a reference to it.
func declareHelper(b *ast.Builder, name string) (ast.DefID, types.TypeID) {
	bt := b.Types().Builtins()
	fb := b.Fn(name, bt.Nil)
	fb.Arg("k", types.ModeVal, bt.Int)
	_, def := fb.Body(b.Blk(nil, ast.NoExprID)).Done()
	ty := b.Types().Fn(types.ProtoBare, []types.FnArg{{Mode: types.ModeVal, Type: bt.Int}}, bt.Nil)
	return def, ty
}

// A loop body that leaves four ways: break, cont, falling off the
// iteration, and the return after the loop. Each exit runs exactly the
// drops for the scopes it actually leaves.
func TestEveryExitRunsPendingCleanups(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	boxInt := boxOf(b, bt.Int)

	fb := b.Fn("spin", bt.Nil)
	c := fb.Arg("c", types.ModeVal, bt.Bool)
	d := fb.Arg("d", types.ModeVal, bt.Bool)
	y := fb.Local("y", boxInt)
	x := fb.Local("x", boxInt)

	brk := b.Blk([]ast.StmtID{b.ExprStmt(b.Break())}, ast.NoExprID)
	cnt := b.Blk([]ast.StmtID{b.ExprStmt(b.Cont())}, ast.NoExprID)
	loop := b.Blk([]ast.StmtID{
		b.Let(x, boxLit(b, 2, boxInt)),
		b.ExprStmt(b.If(b.LocalRef(c, bt.Bool), brk, ast.NoExprID, bt.Nil)),
		b.ExprStmt(b.If(b.LocalRef(d, bt.Bool), cnt, ast.NoExprID, bt.Nil)),
	}, ast.NoExprID)
	fb.Body(b.Blk([]ast.StmtID{
		b.Let(y, boxLit(b, 1, boxInt)),
		b.ExprStmt(b.While(b.BoolLit(true), loop)),
		b.ExprStmt(b.Ret(ast.NoExprID)),
	}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())
	f := funcByFrag(t, out, "4spin")

	// break and cont each carve a chain for x, the return carves one
	// for y, and the allocation inside the loop needs an unwind chain
	// for y. The fall-off iteration drops x inline.
	if stats.CleanupPaths != 4 {
		t.Errorf("expected 4 cleanup paths, got %d", stats.CleanupPaths)
	}
	if stats.LandingPads != 1 {
		t.Errorf("expected 1 landing pad, got %d", stats.LandingPads)
	}
	if got := countCalls(out, f, "glue.drop._int"); got != 5 {
		t.Errorf("expected 5 drop sites, got %d", got)
	}
	if got := resumeCount(f); got != 1 {
		t.Errorf("expected one resume block, got %d", got)
	}
	if !hasBlockNamed(f, "while_cond") || !hasBlockNamed(f, "while_body") {
		t.Error("expected the loop skeleton to survive simplification")
	}
}

func TestReturnsShareOneCleanupChain(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	boxInt := boxOf(b, bt.Int)

	fb := b.Fn("bail", bt.Nil)
	c := fb.Arg("c", types.ModeVal, bt.Bool)
	x := fb.Local("x", boxInt)
	early := b.Blk([]ast.StmtID{b.ExprStmt(b.Ret(ast.NoExprID))}, ast.NoExprID)
	fb.Body(b.Blk([]ast.StmtID{
		b.Let(x, boxLit(b, 1, boxInt)),
		b.ExprStmt(b.If(b.LocalRef(c, bt.Bool), early, ast.NoExprID, bt.Nil)),
		b.ExprStmt(b.Ret(ast.NoExprID)),
	}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())
	f := funcByFrag(t, out, "4bail")

	if stats.CleanupPaths != 1 {
		t.Errorf("expected both returns to share one chain, got %d", stats.CleanupPaths)
	}
	if stats.LandingPads != 0 {
		t.Errorf("expected no landing pads, got %d", stats.LandingPads)
	}
	if got := countCalls(out, f, "glue.drop._int"); got != 1 {
		t.Errorf("expected a single drop site, got %d", got)
	}

	// Both arms of the branch land on the same chain entry.
	var cond *ir.Terminator
	for _, blk := range f.Blocks {
		if blk.Term.Kind == ir.TermCondBr {
			if cond != nil {
				t.Fatal("expected a single conditional branch")
			}
			cond = &blk.Term
		}
	}
	if cond == nil {
		t.Fatal("expected a conditional branch")
	}
	if cond.CondBr.Then != cond.CondBr.Else {
		t.Errorf("expected both arms on the shared chain, got blocks %d and %d",
			cond.CondBr.Then, cond.CondBr.Else)
	}
	if got := f.Block(cond.CondBr.Then).Name; !strings.HasPrefix(got, "cleanup") {
		t.Errorf("expected the arms to target the cleanup chain, got %q", got)
	}
}

func TestLandingPadSharedAcrossCalls(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	boxInt := boxOf(b, bt.Int)
	poke, pokeTy := declareHelper(b, "poke")

	fb := b.Fn("risky", bt.Nil)
	x := fb.Local("x", boxInt)
	fb.Body(b.Blk([]ast.StmtID{
		b.Let(x, boxLit(b, 1, boxInt)),
		b.ExprStmt(b.Call(b.GlobalRef(poke, nil, pokeTy), []ast.ExprID{b.IntLit(1, bt.Int)}, bt.Nil)),
		b.ExprStmt(b.Call(b.GlobalRef(poke, nil, pokeTy), []ast.ExprID{b.IntLit(2, bt.Int)}, bt.Nil)),
	}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())
	f := funcByFrag(t, out, "5risky")

	if stats.LandingPads != 1 {
		t.Errorf("expected one landing pad, got %d", stats.LandingPads)
	}
	// The unwind chain plus the ordinary exit.
	if stats.CleanupPaths != 2 {
		t.Errorf("expected 2 cleanup paths, got %d", stats.CleanupPaths)
	}
	if got := countCalls(out, f, "glue.drop._int"); got != 2 {
		t.Errorf("expected 2 drop sites, got %d", got)
	}

	inv := invokesTo(out, f, "_E4demo4poke")
	if len(inv) != 2 {
		t.Fatalf("expected both calls to unwind through the pad, got %d invokes", len(inv))
	}
	if inv[0].Unwind != inv[1].Unwind {
		t.Errorf("expected a shared pad, got blocks %d and %d", inv[0].Unwind, inv[1].Unwind)
	}

	pad := f.Block(inv[0].Unwind)
	if !strings.HasPrefix(pad.Name, "unwind") {
		t.Errorf("expected an unwind block, got %q", pad.Name)
	}
	if len(pad.Instrs) == 0 || pad.Instrs[0].Kind != ir.InstrLandingPad {
		t.Fatal("expected the pad to open with a landing pad instruction")
	}
	tok := pad.Instrs[0].Res
	var stashed, reset bool
	for i := range pad.Instrs {
		in := &pad.Instrs[i]
		if in.Kind == ir.InstrStore && in.Store.Val == tok {
			stashed = true
		}
		if in.Kind == ir.InstrCall && in.Call.Fn != ir.NoFuncID &&
			out.Func(in.Call.Fn).Name == "ember_rt_reset_stack_limit" {
			reset = true
		}
	}
	if !stashed {
		t.Error("expected the pad to stash the exception token")
	}
	if !reset {
		t.Error("expected the pad to restore the stack limit")
	}

	// The pad hands off to a chain that drops and resumes with the
	// stashed token.
	if pad.Term.Kind != ir.TermBr {
		t.Fatalf("expected the pad to branch into its chain, got terminator %d", pad.Term.Kind)
	}
	chain := f.Block(pad.Term.Br.Target)
	if chain.Term.Kind != ir.TermResume {
		t.Fatalf("expected the unwind chain to resume, got terminator %d", chain.Term.Kind)
	}
	if ld := defOf(f, chain.Term.Resume.Token); ld == nil || ld.Kind != ir.InstrLoad {
		t.Error("expected the resume token to be reloaded from the stash")
	}
}

func TestPadRebuiltWhenObligationsGrow(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	boxInt := boxOf(b, bt.Int)
	poke, pokeTy := declareHelper(b, "poke")

	fb := b.Fn("grow", bt.Nil)
	x := fb.Local("x", boxInt)
	y := fb.Local("y", boxInt)
	fb.Body(b.Blk([]ast.StmtID{
		b.Let(x, boxLit(b, 1, boxInt)),
		b.ExprStmt(b.Call(b.GlobalRef(poke, nil, pokeTy), []ast.ExprID{b.IntLit(1, bt.Int)}, bt.Nil)),
		b.Let(y, boxLit(b, 2, boxInt)),
		b.ExprStmt(b.Call(b.GlobalRef(poke, nil, pokeTy), []ast.ExprID{b.IntLit(2, bt.Int)}, bt.Nil)),
	}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())
	f := funcByFrag(t, out, "4grow")

	if stats.LandingPads != 2 {
		t.Errorf("expected the second binding to force a fresh pad, got %d pads", stats.LandingPads)
	}
	if stats.CleanupPaths != 3 {
		t.Errorf("expected two unwind chains plus the exit, got %d paths", stats.CleanupPaths)
	}
	if got := resumeCount(f); got != 2 {
		t.Errorf("expected two resume blocks, got %d", got)
	}
	// Pad one drops x; pad two and the exit drop y then x.
	if got := countCalls(out, f, "glue.drop._int"); got != 5 {
		t.Errorf("expected 5 drop sites, got %d", got)
	}

	gi := invokesTo(out, f, "_E4demo4poke")
	if len(gi) != 2 {
		t.Fatalf("expected 2 invokes of poke, got %d", len(gi))
	}
	if gi[0].Unwind == gi[1].Unwind {
		t.Error("expected the second call to unwind through a rebuilt pad")
	}

	// The second allocation happens while only x is registered, so it
	// shares the first pad.
	ai := invokesTo(out, f, "ember_rt_box_alloc")
	if len(ai) != 1 {
		t.Fatalf("expected exactly one allocation to invoke, got %d", len(ai))
	}
	if ai[0].Unwind != gi[0].Unwind {
		t.Error("expected the allocation to share the first pad")
	}
	if got := countCalls(out, f, "ember_rt_box_alloc"); got != 2 {
		t.Errorf("expected 2 allocations in total, got %d", got)
	}
}
