package trans_test

import (
	"strings"
	"testing"

	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/layout"
	"ember/internal/trans"
	"ember/internal/types"
)

// translate runs mod through the translator with the verifier on and
// fails the test on any error.
func translate(t *testing.T, mod *ast.Module) (*ir.Module, trans.Stats) {
	t.Helper()
	out, stats, err := trans.Translate(mod, trans.Options{
		Target:  layout.X86_64LinuxGNU(),
		CheckIR: true,
	})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	return out, stats
}

// funcByFrag finds the one defined function whose symbol contains frag.
func funcByFrag(t *testing.T, m *ir.Module, frag string) *ir.Func {
	t.Helper()
	var found *ir.Func
	for _, f := range m.Funcs {
		if f.Decl || !strings.Contains(f.Name, frag) {
			continue
		}
		if found != nil {
			t.Fatalf("fragment %q matches both %s and %s", frag, found.Name, f.Name)
		}
		found = f
	}
	if found == nil {
		t.Fatalf("no defined function matching %q", frag)
	}
	return found
}

func definedFuncs(m *ir.Module, prefix string) []*ir.Func {
	var out []*ir.Func
	for _, f := range m.Funcs {
		if !f.Decl && strings.HasPrefix(f.Name, prefix) {
			out = append(out, f)
		}
	}
	return out
}

// directCalls lists callee symbols of every direct call and invoke in f,
// in block order.
func directCalls(m *ir.Module, f *ir.Func) []string {
	var out []string
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if in.Kind == ir.InstrCall && in.Call.Fn != ir.NoFuncID {
				out = append(out, m.Func(in.Call.Fn).Name)
			}
		}
		if b.Term.Kind == ir.TermInvoke && b.Term.Invoke.Fn != ir.NoFuncID {
			out = append(out, m.Func(b.Term.Invoke.Fn).Name)
		}
	}
	return out
}

func countCalls(m *ir.Module, f *ir.Func, sym string) int {
	n := 0
	for _, callee := range directCalls(m, f) {
		if callee == sym {
			n++
		}
	}
	return n
}

func countCallsWithPrefix(m *ir.Module, f *ir.Func, prefix string) int {
	n := 0
	for _, callee := range directCalls(m, f) {
		if strings.HasPrefix(callee, prefix) {
			n++
		}
	}
	return n
}

// callArgs returns the argument list of the idx-th direct call (or
// invoke) of sym inside f.
func callArgs(t *testing.T, m *ir.Module, f *ir.Func, sym string, idx int) []ir.ValueID {
	t.Helper()
	n := 0
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			in := &b.Instrs[i]
			if in.Kind == ir.InstrCall && in.Call.Fn != ir.NoFuncID && m.Func(in.Call.Fn).Name == sym {
				if n == idx {
					return in.Call.Args
				}
				n++
			}
		}
		tm := &b.Term
		if tm.Kind == ir.TermInvoke && tm.Invoke.Fn != ir.NoFuncID && m.Func(tm.Invoke.Fn).Name == sym {
			if n == idx {
				return tm.Invoke.Args
			}
			n++
		}
	}
	t.Fatalf("call %d to %s not found in %s (%d seen)", idx, sym, f.Name, n)
	return nil
}

func countInstr(f *ir.Func, k ir.InstrKind) int {
	n := 0
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			if b.Instrs[i].Kind == k {
				n++
			}
		}
	}
	return n
}

// defOf finds the instruction defining v, or nil for non-instruction
// values.
func defOf(f *ir.Func, v ir.ValueID) *ir.Instr {
	if v == ir.NoValueID || f.Val(v).Kind != ir.ValInstr {
		return nil
	}
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			if b.Instrs[i].Res == v {
				return &b.Instrs[i]
			}
		}
	}
	return nil
}

// constInt unwraps an integer constant value.
func constInt(t *testing.T, f *ir.Func, v ir.ValueID) int64 {
	t.Helper()
	val := f.Val(v)
	if val.Kind != ir.ValConstInt {
		t.Fatalf("expected an integer constant, got value kind %d", val.Kind)
	}
	return val.Int
}

func countSwitches(f *ir.Func) int {
	n := 0
	for _, b := range f.Blocks {
		if b.Term.Kind == ir.TermSwitch {
			n++
		}
	}
	return n
}

// blockNamed finds the block whose label starts with prefix.
func blockNamed(t *testing.T, f *ir.Func, prefix string) *ir.Block {
	t.Helper()
	for _, b := range f.Blocks {
		if strings.HasPrefix(b.Name, prefix) {
			return b
		}
	}
	t.Fatalf("no block %s* in %s", prefix, f.Name)
	return nil
}

func hasBlockNamed(f *ir.Func, prefix string) bool {
	for _, b := range f.Blocks {
		if strings.HasPrefix(b.Name, prefix) {
			return true
		}
	}
	return false
}

func TestEntryWrapperHandsOffToRuntime(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	b.Fn("main", bt.Nil).Body(b.Blk(nil, ast.NoExprID)).Done()

	out, _ := translate(t, b.Finish())

	entry := funcByFrag(t, out, "_E4demo4main")
	wid, ok := out.FuncByName("main")
	if !ok {
		t.Fatalf("no process entry wrapper emitted")
	}
	w := out.Func(wid)
	if w.Ty.Ret != ir.I32 || len(w.Ty.Params) != 2 {
		t.Fatalf("expected wrapper type i32(i32, ptr), got %s", w.Ty)
	}
	if got := countCalls(out, w, "ember_rt_start"); got != 1 {
		t.Fatalf("expected 1 call to ember_rt_start, got %d", got)
	}
	args := callArgs(t, out, w, "ember_rt_start", 0)
	if len(args) != 3 {
		t.Fatalf("expected 3 start arguments, got %d", len(args))
	}
	av := w.Val(args[0])
	if av.Kind != ir.ValFunc || out.Func(av.Fn).Name != entry.Name {
		t.Errorf("expected the entry instance as the first start argument")
	}
	last := w.Blocks[len(w.Blocks)-1]
	if last.Term.Kind != ir.TermRet || !last.Term.Ret.HasValue {
		t.Errorf("expected the wrapper to return the runtime's exit code")
	}
}

func TestConcreteFunctionsAreRoots(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()
	b.Fn("f", bt.Nil).Body(b.Blk(nil, ast.NoExprID)).Done()
	b.Fn("g", bt.Nil).Body(b.Blk(nil, ast.NoExprID)).Done()
	gen := b.Fn("h", bt.Nil)
	gen.TypeParam("T")
	gen.Body(b.Blk(nil, ast.NoExprID)).Done()

	out, stats := translate(t, b.Finish())

	funcByFrag(t, out, "_E4demo1f")
	funcByFrag(t, out, "_E4demo1g")
	if stats.Instances != 2 {
		t.Errorf("expected 2 instances, got %d", stats.Instances)
	}
	for _, f := range out.Funcs {
		if strings.Contains(f.Name, "1h") {
			t.Errorf("uncalled generic %s was instantiated", f.Name)
		}
	}
}

func TestInternalInconsistencyIsAnError(t *testing.T) {
	b := ast.NewBuilder("demo")
	bt := b.Types().Builtins()

	fb := b.Fn("one", bt.Nil)
	fb.Arg("x", types.ModeVal, bt.Int)
	_, oneDef := fb.Body(b.Blk(nil, ast.NoExprID)).Done()

	// Calling a one-argument function with none is a checker invariant the
	// translator refuses to paper over.
	fnTy := b.Types().Fn(types.ProtoBare, nil, bt.Nil)
	call := b.Call(b.GlobalRef(oneDef, nil, fnTy), nil, bt.Nil)
	b.Fn("f", bt.Nil).Body(b.Blk([]ast.StmtID{b.ExprStmt(call)}, ast.NoExprID)).Done()

	_, _, err := trans.Translate(b.Finish(), trans.Options{Target: layout.X86_64LinuxGNU()})
	if err == nil {
		t.Fatalf("expected an error for a malformed call")
	}
	if !strings.Contains(err.Error(), "translator bug") {
		t.Errorf("expected a translator bug error, got %v", err)
	}
}

func TestTranslationIsDeterministic(t *testing.T) {
	build := func() *ast.Module {
		b := ast.NewBuilder("demo")
		bt := b.Types().Builtins()
		fb := b.Fn("f", bt.Int)
		x := fb.Local("x", bt.Int)
		init := b.Let(x, b.IntLit(40, bt.Int))
		val := b.Binary(ast.OpAdd, b.LocalRef(x, bt.Int), b.IntLit(2, bt.Int), bt.Int)
		fb.Body(b.Blk([]ast.StmtID{init}, val)).Done()
		return b.Finish()
	}

	a, _ := translate(t, build())
	c, _ := translate(t, build())
	if len(a.Funcs) != len(c.Funcs) {
		t.Fatalf("expected equal function counts, got %d and %d", len(a.Funcs), len(c.Funcs))
	}
	for i := range a.Funcs {
		if a.Funcs[i].Name != c.Funcs[i].Name {
			t.Errorf("function %d differs: %s vs %s", i, a.Funcs[i].Name, c.Funcs[i].Name)
		}
	}
	if len(a.Globals) != len(c.Globals) {
		t.Fatalf("expected equal global counts, got %d and %d", len(a.Globals), len(c.Globals))
	}
	for i := range a.Globals {
		if a.Globals[i].Name != c.Globals[i].Name {
			t.Errorf("global %d differs: %s vs %s", i, a.Globals[i].Name, c.Globals[i].Name)
		}
	}
}
