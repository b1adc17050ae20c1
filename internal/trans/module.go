package trans

import (
	"fmt"

	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/mono"
	"ember/internal/trace"
	"ember/internal/types"
)

// Translate lowers one checked module to EIR. Internal inconsistencies
// surface as errors here; failures of the program under translation
// become code that fails at run time instead.
func Translate(mod *ast.Module, opts Options) (out *ir.Module, stats Stats, err error) {
	cx := newContext(mod, opts)
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(ice)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("translator bug: %s", b.msg)
			stats = cx.stats
		}
	}()

	span := trace.Begin(cx.tracer, trace.ScopeModule, "trans:"+mod.Name, 0)

	// Concrete functions are roots; generic ones only exist through the
	// instantiations the roots reach.
	for i := range mod.Fns {
		fd := &mod.Fns[i]
		if fd.Body == ast.NoBlockID || len(fd.TypeParams) > 0 {
			continue
		}
		cx.instanceOf(fd.ID, nil, nil)
	}
	if mod.Main != ast.NoFnID {
		cx.emitEntry()
	}
	cx.drainInstances()
	cx.finalizeTIs()

	span.End(fmt.Sprintf("funcs=%d instances=%d glue=%d",
		cx.stats.Funcs, cx.stats.Instances, cx.stats.GluesCreated))

	if cx.check {
		if cerr := ir.CheckModule(cx.out); cerr != nil {
			return nil, cx.stats, fmt.Errorf("translator bug: %w", cerr)
		}
	}
	return cx.out, cx.stats, nil
}

// drainInstances translates queued instances until none remain. Bodies
// queue further instances as they go; the queue preserves request order
// so the output is deterministic.
func (cx *Context) drainInstances() {
	for len(cx.pending) > 0 {
		e := cx.pending[0]
		cx.pending = cx.pending[1:]
		cx.translateInstance(e)
	}
}

func (cx *Context) translateInstance(e *mono.Entry) {
	def := cx.mod.Def(e.Key.Def)
	if def.Kind != ast.DefFn {
		cx.bugf("instance of non-function %s", def.Name)
	}
	fd := cx.mod.Fn(def.Fn)
	f := cx.out.Func(e.Fn)
	span := trace.Begin(cx.tracer, trace.ScopeFunc, "fn:"+f.Name, 0)
	cx.translateFn(fd, f, e.Args)
	span.End("")
}

func (cx *Context) translateFn(fd *ast.FnDef, f *ir.Func, targs []types.TypeID) {
	norm := mono.Normalize(cx.types, targs)
	fcx := newFuncCtx(cx, f, fd, targs, norm)
	fcx.bindParams()
	b := fcx.body()

	ret := fd.Ret
	rk := cx.types.Kind(fcx.ty(ret))
	switch {
	case rk == types.KindNil || rk == types.KindBot:
		b = transBlockValue(b, fd.Body, ignoreDest(ret))
	case cx.isImmediate(fcx.ty(ret)):
		vd := fcx.valueDest(ret)
		b = transBlockValue(b, fd.Body, vd)
		if b.live {
			b.at().Store(vd.result(b), fcx.retSlot)
		}
	default:
		b = transBlockValue(b, fd.Body, saveInDest(fcx.retSlot, ret))
	}
	fcx.finish(b)
}

// bindParams unpacks the calling convention into the frame: the return
// slot and environment by position, descriptor and dictionary parameters
// in declaration order, then the declared arguments. Owned arguments
// (copy and move modes) register their release on the function scope, so
// every exit path pays the debt.
func (fcx *funcCtx) bindParams() {
	cx := fcx.cx
	fd := fcx.def
	fcx.retSlot = fcx.f.Param(0)
	fcx.envPtr = fcx.f.Param(1)
	idx := 2
	for _, tp := range fd.TypeParams {
		fcx.tiArgs = append(fcx.tiArgs, fcx.f.Param(idx))
		idx++
		for range tp.Bounds {
			fcx.dicts = append(fcx.dicts, fcx.f.Param(idx))
			idx++
		}
	}

	le := blockCtx{fcx: fcx, blk: fcx.loadEnv, scope: fcx.fnScope, live: true}
	for _, aid := range fd.Args {
		l := &fd.Locals[aid]
		p := fcx.f.Param(idx)
		idx++
		owned := l.Mode == types.ModeCopy || l.Mode == types.ModeMove
		switch {
		case l.Mode == types.ModeRef:
			fcx.locals[aid] = p
		case cx.isImmediate(fcx.ty(l.Ty)):
			// Spill so the body can take its address.
			slot := fcx.allocaFor(l.Ty)
			le.at().Store(p, slot)
			fcx.locals[aid] = slot
			if owned {
				fcx.addClean(fcx.fnScope, slot, l.Ty, false)
			}
		default:
			// Memory argument: the caller passed the address. The memory
			// belongs to the caller's frame either way; ownership decides
			// who drops the contents.
			fcx.locals[aid] = p
			if owned {
				fcx.addClean(fcx.fnScope, p, l.Ty, false)
			}
		}
	}
}

// emitEntry defines the process entry point. The runtime owns startup
// and shutdown; the wrapper only hands it the program's entry function.
func (cx *Context) emitEntry() {
	fd := cx.mod.Fn(cx.mod.Main)
	if len(fd.TypeParams) > 0 {
		cx.bugf("entry %s cannot be generic", fd.Name)
	}
	if len(fd.Args) > 0 {
		cx.bugf("entry %s cannot take arguments", fd.Name)
	}
	if cx.types.Kind(fd.Ret) != types.KindNil {
		cx.bugf("entry %s must return nothing", fd.Name)
	}
	entry := cx.instanceOf(cx.mod.Main, nil, nil)

	f := cx.out.DefineFunc("main", ir.FuncOf(ir.I32, ir.I32, ir.Ptr))
	at := f.At(f.Entry())
	start := cx.rt(rtStart)
	code := at.Call(start.ty, start.fn, []ir.ValueID{f.FuncRef(entry), f.Param(0), f.Param(1)})
	at.Ret(code)
}
