package trans_test

import (
	"strings"
	"testing"

	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/types"
)

func countBin(f *ir.Func, op ir.BinKind) int {
	n := 0
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			if blk.Instrs[i].Kind == ir.InstrBin && blk.Instrs[i].Bin.Op == op {
				n++
			}
		}
	}
	return n
}

func onlyPhi(t *testing.T, f *ir.Func) *ir.Instr {
	t.Helper()
	var phi *ir.Instr
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			if blk.Instrs[i].Kind == ir.InstrPhi {
				if phi != nil {
					t.Fatal("expected a single phi")
				}
				phi = &blk.Instrs[i]
			}
		}
	}
	if phi == nil {
		t.Fatal("expected a phi")
	}
	return phi
}

// shortCircuitFixture builds fn <name>(p, q: bool) -> bool { ret <p op q> }.
func shortCircuitFixture(b *ast.Builder, name string, isAnd bool) {
	bt := b.Types().Builtins()
	fb := b.Fn(name, bt.Bool)
	p := fb.Arg("p", types.ModeVal, bt.Bool)
	q := fb.Arg("q", types.ModeVal, bt.Bool)
	var op ast.ExprID
	if isAnd {
		op = b.And(b.LocalRef(p, bt.Bool), b.LocalRef(q, bt.Bool))
	} else {
		op = b.Or(b.LocalRef(p, bt.Bool), b.LocalRef(q, bt.Bool))
	}
	fb.Body(b.Blk([]ast.StmtID{b.ExprStmt(b.Ret(op))}, ast.NoExprID)).Done()
}

func TestShortCircuitJoinsWithPhi(t *testing.T) {
	b := ast.NewBuilder("demo")
	shortCircuitFixture(b, "both", true)
	shortCircuitFixture(b, "either", false)

	out, _ := translate(t, b.Finish())

	cases := []struct {
		frag, rhs string
		short     int64
	}{
		{"4both", "and_rhs", 0},
		{"6either", "or_rhs", 1},
	}
	for _, tc := range cases {
		f := funcByFrag(t, out, tc.frag)
		if !hasBlockNamed(f, tc.rhs) {
			t.Errorf("%s: expected a %s block", f.Name, tc.rhs)
			continue
		}
		phi := onlyPhi(t, f)
		if phi.Phi.Ty != ir.I1 {
			t.Errorf("%s: expected an i1 phi", f.Name)
		}
		if len(phi.Phi.Edges) != 2 {
			t.Fatalf("%s: expected 2 phi edges, got %d", f.Name, len(phi.Phi.Edges))
		}
		// One edge carries the fixed short-circuit answer, the other the
		// right-hand side's value.
		var consts, loads int
		for _, e := range phi.Phi.Edges {
			v := f.Val(e.Val)
			switch {
			case v.Kind == ir.ValConstInt && v.Int == tc.short:
				consts++
			case v.Kind == ir.ValInstr:
				loads++
			}
		}
		if consts != 1 || loads != 1 {
			t.Errorf("%s: expected one constant %d edge and one computed edge", f.Name, tc.short)
		}
		// The merged answer is what the function returns.
		found := false
		for _, blk := range f.Blocks {
			for i := range blk.Instrs {
				in := &blk.Instrs[i]
				if in.Kind == ir.InstrStore && in.Store.Val == phi.Res && in.Store.Ptr == f.Param(0) {
					found = true
				}
			}
		}
		if !found {
			t.Errorf("%s: expected the phi stored to the return slot", f.Name)
		}
	}
}

func TestIfWithBothArmsReturning(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()

	fb := b.Fn("pick", bt.Int)
	c := fb.Arg("c", types.ModeVal, bt.Bool)
	then := b.Blk([]ast.StmtID{b.ExprStmt(b.Ret(b.IntLit(1, bt.Int)))}, ast.NoExprID)
	els := b.Blk([]ast.StmtID{b.ExprStmt(b.Ret(b.IntLit(2, bt.Int)))}, ast.NoExprID)
	cond := b.If(b.LocalRef(c, bt.Bool), then, b.BlockExpr(els, bt.Nil), bt.Nil)
	fb.Body(b.Blk([]ast.StmtID{b.ExprStmt(cond)}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())
	f := funcByFrag(t, out, "4pick")

	if stats.CleanupPaths != 0 {
		t.Errorf("expected returns with nothing to drop to branch straight out, got %d paths", stats.CleanupPaths)
	}
	var got []int64
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind == ir.InstrStore && in.Store.Ptr == f.Param(0) {
				got = append(got, constInt(t, f, in.Store.Val))
			}
		}
	}
	if len(got) != 2 || got[0]+got[1] != 3 {
		t.Errorf("expected both arms to fill the return slot with 1 and 2, got %v", got)
	}
	// The unreachable join went away entirely.
	for _, blk := range f.Blocks {
		if blk.Term.Kind == ir.TermUnreachable {
			t.Errorf("expected no unreachable blocks, found %q", blk.Name)
		}
	}
}

func TestWhileLoopShape(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()

	fb := b.Fn("count", bt.Int)
	n := fb.Arg("n", types.ModeVal, bt.Int)
	i := fb.Local("i", bt.Int)
	body := b.Blk([]ast.StmtID{
		b.ExprStmt(b.Assign(b.LocalRef(i, bt.Int),
			b.Binary(ast.OpAdd, b.LocalRef(i, bt.Int), b.IntLit(1, bt.Int), bt.Int))),
	}, ast.NoExprID)
	fb.Body(b.Blk([]ast.StmtID{
		b.Let(i, b.IntLit(0, bt.Int)),
		b.ExprStmt(b.While(
			b.Binary(ast.OpLt, b.LocalRef(i, bt.Int), b.LocalRef(n, bt.Int), bt.Bool), body)),
		b.ExprStmt(b.Ret(b.LocalRef(i, bt.Int))),
	}, ast.NoExprID)).Done()

	out, _ := translate(t, b.Finish())
	f := funcByFrag(t, out, "5count")

	cond := blockNamed(t, f, "while_cond")
	if cond.Term.Kind != ir.TermCondBr {
		t.Fatalf("expected the condition block to branch, got terminator %d", cond.Term.Kind)
	}
	if name := f.Block(cond.Term.CondBr.Then).Name; !strings.HasPrefix(name, "while_body") {
		t.Errorf("expected the true edge into the body, got %q", name)
	}
	body2 := blockNamed(t, f, "while_body")
	if body2.Term.Kind != ir.TermBr || body2.Term.Br.Target != cond.ID {
		t.Error("expected the body to branch back to the condition")
	}
	if got := countInstr(f, ir.InstrICmp); got != 1 {
		t.Errorf("expected one comparison, got %d", got)
	}
}

func TestDoWhileRunsBodyBeforeCondition(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()

	fb := b.Fn("pump", bt.Nil)
	n := fb.Arg("n", types.ModeVal, bt.Int)
	i := fb.Local("i", bt.Int)
	body := b.Blk([]ast.StmtID{
		b.ExprStmt(b.Assign(b.LocalRef(i, bt.Int),
			b.Binary(ast.OpAdd, b.LocalRef(i, bt.Int), b.IntLit(1, bt.Int), bt.Int))),
	}, ast.NoExprID)
	fb.Body(b.Blk([]ast.StmtID{
		b.Let(i, b.IntLit(0, bt.Int)),
		b.ExprStmt(b.DoWhile(body,
			b.Binary(ast.OpLt, b.LocalRef(i, bt.Int), b.LocalRef(n, bt.Int), bt.Bool))),
	}, ast.NoExprID)).Done()

	out, _ := translate(t, b.Finish())
	f := funcByFrag(t, out, "4pump")

	doBody := blockNamed(t, f, "do_body")
	doCond := blockNamed(t, f, "do_cond")
	if doCond.Term.Kind != ir.TermCondBr {
		t.Fatalf("expected the trailing condition to branch, got terminator %d", doCond.Term.Kind)
	}
	if doCond.Term.CondBr.Then != doBody.ID {
		t.Error("expected the backedge to re-enter the body, not the condition")
	}
	// The first pass enters the body without consulting the condition.
	entry := blockNamed(t, f, "body")
	if entry.Term.Kind != ir.TermBr || entry.Term.Br.Target != doBody.ID {
		t.Error("expected fall-in straight to the body")
	}
}

func TestForOverStringExcludesTerminator(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	vecInt := b.Types().Intern(types.MakeVec(bt.Int))

	fb := b.Fn("chars", bt.Nil)
	s := fb.Arg("s", types.ModeRef, bt.Str)
	ch := fb.Local("ch", bt.U8)
	fb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.For(ch, b.LocalRef(s, bt.Str), b.Blk(nil, ast.NoExprID))),
	}, ast.NoExprID)).Done()

	gb := b.Fn("elems", bt.Nil)
	v := gb.Arg("v", types.ModeRef, vecInt)
	e := gb.Local("e", bt.Int)
	gb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.For(e, b.LocalRef(v, vecInt), b.Blk(nil, ast.NoExprID))),
	}, ast.NoExprID)).Done()

	out, _ := translate(t, b.Finish())
	f := funcByFrag(t, out, "5chars")
	g := funcByFrag(t, out, "5elems")

	for _, fn := range []*ir.Func{f, g} {
		for _, name := range []string{"for_cond", "for_body", "for_incr"} {
			if !hasBlockNamed(fn, name) {
				t.Errorf("%s: expected a %s block", fn.Name, name)
			}
		}
	}
	// The string walk stops one byte short of the stored NUL; the vec
	// walk covers the whole fill.
	if got := countBin(f, ir.BinSub); got != 1 {
		t.Errorf("expected the string extent shortened once, got %d subtractions", got)
	}
	if got := countBin(g, ir.BinSub); got != 0 {
		t.Errorf("expected no extent adjustment for a vec, got %d subtractions", got)
	}
	cond := blockNamed(t, g, "for_cond")
	foundUlt := false
	for i := range cond.Instrs {
		if cond.Instrs[i].Kind == ir.InstrICmp && cond.Instrs[i].ICmp.Pred == ir.IUlt {
			foundUlt = true
		}
	}
	if !foundUlt {
		t.Error("expected an unsigned pointer comparison in the condition")
	}
}

func TestIndexingIsBoundsChecked(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	vecInt := b.Types().Intern(types.MakeVec(bt.Int))

	fb := b.Fn("pluck", bt.Int)
	v := fb.Arg("v", types.ModeRef, vecInt)
	i := fb.Arg("i", types.ModeVal, bt.Int)
	fb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.Ret(b.Index(b.LocalRef(v, vecInt), b.LocalRef(i, bt.Int), bt.Int))),
	}, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())
	f := funcByFrag(t, out, "5pluck")

	// Byte offset = index * element size, checked unsigned against the
	// fill so negative indexes fail too.
	if got := countBin(f, ir.BinMul); got != 1 {
		t.Errorf("expected one element-size scaling, got %d", got)
	}
	ult := 0
	for _, blk := range f.Blocks {
		for i := range blk.Instrs {
			if blk.Instrs[i].Kind == ir.InstrICmp && blk.Instrs[i].ICmp.Pred == ir.IUlt {
				ult++
			}
		}
	}
	if ult != 1 {
		t.Errorf("expected one unsigned bound compare, got %d", ult)
	}

	fail := blockNamed(t, f, "bounds_fail")
	if got := countCalls(out, f, "ember_rt_fail"); got != 1 {
		t.Errorf("expected one failure call, got %d", got)
	}
	if fail.Term.Kind != ir.TermUnreachable {
		t.Errorf("expected the failure arm to diverge, got terminator %d", fail.Term.Kind)
	}
	if !hasBlockNamed(f, "bounds_ok") {
		t.Error("expected the checked access to continue in bounds_ok")
	}
	// Message and file land as interned C strings.
	if stats.CStrings != 2 {
		t.Errorf("expected 2 interned strings, got %d", stats.CStrings)
	}
}
