package ast_test

import (
	"testing"

	"ember/internal/ast"
	"ember/internal/types"
)

func TestBuilderMainDetection(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()

	fb := b.Fn("main", bt.Nil)
	body := b.Blk(nil, ast.NoExprID)
	fnID, defID := fb.Body(body).Done()

	m := b.Finish()
	if m.Main != fnID {
		t.Errorf("expected main fn %d, got %d", fnID, m.Main)
	}
	fn := m.Fn(fnID)
	if fn.Def != defID {
		t.Errorf("expected def %d, got %d", defID, fn.Def)
	}
	if m.Def(defID).Kind != ast.DefFn {
		t.Errorf("expected DefFn, got %v", m.Def(defID).Kind)
	}
}

func TestBuilderExprArena(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()

	b.Snip("1 + 2")
	lhs := b.IntLit(1, bt.Int)
	rhs := b.IntLit(2, bt.Int)
	sum := b.Binary(ast.OpAdd, lhs, rhs, bt.Int)
	m := b.Finish()

	e := m.Expr(sum)
	if e.Kind != ast.ExprBinary || e.Bin != ast.OpAdd {
		t.Fatalf("expected binary add, got %v/%v", e.Kind, e.Bin)
	}
	if m.Expr(e.X).Int != 1 || m.Expr(e.Y).Int != 2 {
		t.Errorf("expected operands 1 and 2, got %d and %d", m.Expr(e.X).Int, m.Expr(e.Y).Int)
	}
	if got := m.Files.Snippet(e.Span); got != "1 + 2" {
		t.Errorf("expected snippet %q, got %q", "1 + 2", got)
	}
}

func TestBuilderEnumAndSideTables(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()

	eid, defs := b.Enum("opt", []ast.TypeParam{{Name: "T"}}, []types.Variant{
		{Name: "none", Discr: 0},
		{Name: "some", Discr: 1, Args: []types.TypeID{b.Types().Intern(types.MakeParam(0))}},
	})
	if len(defs) != 2 {
		t.Fatalf("expected 2 variant defs, got %d", len(defs))
	}
	optInt := b.Types().Enum(eid, []types.TypeID{bt.Int})

	use := b.GlobalRef(defs[1], []types.TypeID{bt.Int}, optInt)
	b.MarkLastUse(use)
	m := b.Finish()

	if !m.LastUse(use) {
		t.Errorf("expected last-use mark on expr %d", use)
	}
	if m.NeedsCopy(use) {
		t.Errorf("expected no copy mark on expr %d", use)
	}
	if m.Def(defs[1]).Variant != 1 {
		t.Errorf("expected variant index 1, got %d", m.Def(defs[1]).Variant)
	}
}
