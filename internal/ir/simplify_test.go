package ir_test

import (
	"testing"

	"ember/internal/ir"
)

func voidFn(m *ir.Module, name string) *ir.Func {
	return m.DefineFunc(name, ir.FuncOf(ir.Void))
}

func TestSimplifyDropsUnreachableBlocks(t *testing.T) {
	m := ir.NewModule("t", "x86_64-unknown-linux-gnu")
	f := voidFn(m, "f")

	entry := f.Entry()
	dead := f.NewBlock("dead")
	exit := f.NewBlock("exit")

	f.At(entry).Br(exit)
	f.At(dead).Br(exit)
	f.At(exit).RetVoid()

	ir.SimplifyCFG(f)

	if len(f.Blocks) != 2 {
		t.Fatalf("expected 2 blocks after simplify, got %d", len(f.Blocks))
	}
	for _, b := range f.Blocks {
		if b.Name == "dead" {
			t.Errorf("expected dead block to be removed")
		}
	}
	if err := ir.Check(f); err != nil {
		t.Errorf("expected valid function, got %v", err)
	}
}

func TestSimplifyForwardsEmptyBlocks(t *testing.T) {
	m := ir.NewModule("t", "x86_64-unknown-linux-gnu")
	f := voidFn(m, "f")

	entry := f.Entry()
	hop := f.NewBlock("hop")
	exit := f.NewBlock("exit")

	f.At(entry).Br(hop)
	f.At(hop).Br(exit)
	f.At(exit).RetVoid()

	ir.SimplifyCFG(f)

	if len(f.Blocks) != 2 {
		t.Fatalf("expected forwarder removed, got %d blocks", len(f.Blocks))
	}
	eb := f.Block(f.Entry())
	if eb.Term.Kind != ir.TermBr {
		t.Fatalf("expected entry to branch, got term kind %d", eb.Term.Kind)
	}
	if got := f.Block(eb.Term.Br.Target).Name; got != "exit" {
		t.Errorf("expected entry to branch to exit, got %q", got)
	}
}

func TestSimplifyKeepsPhiTargets(t *testing.T) {
	m := ir.NewModule("t", "x86_64-unknown-linux-gnu")
	f := m.DefineFunc("f", ir.FuncOf(ir.I64, ir.I1))

	entry := f.Entry()
	left := f.NewBlock("left")
	right := f.NewBlock("right")
	join := f.NewBlock("join")

	f.At(entry).CondBr(f.Param(0), left, right)
	f.At(left).Br(join)
	f.At(right).Br(join)

	c := f.At(join)
	phi := c.Phi(ir.I64, []ir.PhiEdge{
		{Val: f.ConstInt(ir.I64, 1), From: left},
		{Val: f.ConstInt(ir.I64, 2), From: right},
	})
	c.Ret(phi)

	ir.SimplifyCFG(f)

	// left and right feed a phi, so neither may be forwarded away.
	if len(f.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(f.Blocks))
	}
	if err := ir.Check(f); err != nil {
		t.Errorf("expected valid function, got %v", err)
	}
}
