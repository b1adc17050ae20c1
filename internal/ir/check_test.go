package ir_test

import (
	"strings"
	"testing"

	"ember/internal/ir"
)

func TestCheckRejectsOpenBlock(t *testing.T) {
	m := ir.NewModule("t", "x86_64-unknown-linux-gnu")
	f := voidFn(m, "f")

	err := ir.Check(f)
	if err == nil {
		t.Fatalf("expected error for unterminated block")
	}
	if !strings.Contains(err.Error(), "not terminated") {
		t.Errorf("expected termination complaint, got %v", err)
	}
}

func TestCheckRejectsPhiFromNonPred(t *testing.T) {
	m := ir.NewModule("t", "x86_64-unknown-linux-gnu")
	f := voidFn(m, "f")

	entry := f.Entry()
	stray := f.NewBlock("stray")
	join := f.NewBlock("join")

	f.At(entry).Br(join)
	f.At(stray).RetVoid()

	c := f.At(join)
	c.Phi(ir.I64, []ir.PhiEdge{{Val: f.ConstInt(ir.I64, 7), From: stray}})
	c.RetVoid()

	err := ir.Check(f)
	if err == nil || !strings.Contains(err.Error(), "non-predecessor") {
		t.Errorf("expected phi edge error, got %v", err)
	}
}

func TestCheckRejectsInvokeResultOnUnwindEdge(t *testing.T) {
	m := ir.NewModule("t", "x86_64-unknown-linux-gnu")
	callee := m.DeclareFunc("g", ir.FuncOf(ir.I64))
	f := m.DefineFunc("f", ir.FuncOf(ir.I64))

	normal := f.NewBlock("normal")
	unwind := f.NewBlock("unwind")

	res := f.At(f.Entry()).Invoke(ir.FuncOf(ir.I64), callee, nil, normal, unwind)
	f.At(normal).Ret(res)
	uc := f.At(unwind)
	tok := uc.LandingPad()
	// Illegal: the invoke's result consumed where it never materialized.
	uc.Store(res, uc.Alloca(ir.I64))
	uc.Resume(tok)

	err := ir.Check(f)
	if err == nil || !strings.Contains(err.Error(), "unwind edge") {
		t.Errorf("expected invoke-result error, got %v", err)
	}
}

func TestCheckModuleCallSignature(t *testing.T) {
	m := ir.NewModule("t", "x86_64-unknown-linux-gnu")
	callee := m.DeclareFunc("g", ir.FuncOf(ir.Void, ir.I64))
	f := voidFn(m, "f")

	c := f.At(f.Entry())
	// Wrong signature on purpose.
	c.Call(ir.FuncOf(ir.Void, ir.I32), callee, []ir.ValueID{f.ConstInt(ir.I32, 1)})
	c.RetVoid()

	err := ir.CheckModule(m)
	if err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Errorf("expected signature mismatch, got %v", err)
	}
}

func TestCheckAcceptsDiamond(t *testing.T) {
	m := ir.NewModule("t", "x86_64-unknown-linux-gnu")
	f := m.DefineFunc("f", ir.FuncOf(ir.I64, ir.I1))

	entry := f.Entry()
	a := f.NewBlock("a")
	b := f.NewBlock("b")
	join := f.NewBlock("join")

	f.At(entry).CondBr(f.Param(0), a, b)
	f.At(a).Br(join)
	f.At(b).Br(join)
	c := f.At(join)
	phi := c.Phi(ir.I64, []ir.PhiEdge{
		{Val: f.ConstInt(ir.I64, 10), From: a},
		{Val: f.ConstInt(ir.I64, 20), From: b},
	})
	c.Ret(phi)

	if err := ir.CheckModule(m); err != nil {
		t.Errorf("expected valid module, got %v", err)
	}
}
