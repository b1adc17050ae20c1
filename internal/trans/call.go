package trans

import (
	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/mono"
	"ember/internal/types"
)

// Every call uses one argument layout:
//
//	0: return slot (null when the callee produces nothing)
//	1: environment (null, or the closure's box)
//	then, per type parameter: its descriptor, then one dictionary per bound
//	then one value per declared argument, by mode
//
// Immediates ride in registers, everything else is a pointer. The return
// value is always built through the slot; small results are loaded back
// out after the call.

// instanceOf returns the emitted function for one instantiation, creating
// and queueing it on first request. The cache entry goes in before the
// body is translated, so recursive generics find the pending instance
// instead of recursing forever.
func (cx *Context) instanceOf(fn ast.FnID, targs []types.TypeID, dicts []ast.DictRef) ir.FuncID {
	fd := cx.mod.Fn(fn)
	if len(targs) != len(fd.TypeParams) {
		cx.bugf("%s expects %d type arguments, got %d", fd.Name, len(fd.TypeParams), len(targs))
	}
	if fd.Body == ast.NoBlockID {
		if len(fd.TypeParams) > 0 {
			cx.bugf("extern %s cannot be generic", fd.Name)
		}
		return cx.out.DeclareFunc(fd.Name, cx.instanceIRType(fd, nil))
	}

	key := mono.MakeKey(cx.types, fd.Def, targs, dicts)
	if e, ok := cx.monos.Lookup(key); ok {
		cx.stats.InstanceHits++
		return e.Fn
	}

	norm := mono.Normalize(cx.types, targs)
	f := cx.out.DefineFunc(cx.mangleFn(fd.Path, norm), cx.instanceIRType(fd, norm))
	f.Internal = true
	e := cx.monos.Insert(key, targs, f.ID)
	cx.pending = append(cx.pending, e)
	cx.stats.Instances++
	return f.ID
}

// instanceIRType is the emitted signature of one instance. norm rewrites
// the argument types to the instance's view; an open argument (glue-built
// destructors instantiate over bare parameters) stays behind a pointer.
func (cx *Context) instanceIRType(fd *ast.FnDef, norm []types.TypeID) *ir.Type {
	params := []*ir.Type{ir.Ptr, ir.Ptr}
	for _, tp := range fd.TypeParams {
		params = append(params, ir.Ptr)
		for range tp.Bounds {
			params = append(params, ir.Ptr)
		}
	}
	for _, a := range fd.Args {
		l := fd.Locals[a]
		at := l.Ty
		if len(norm) > 0 && cx.types.ContainsParams(at) {
			at = cx.types.Subst(at, norm)
		}
		if l.Mode != types.ModeRef && cx.isImmediate(at) {
			params = append(params, cx.valueTy(at))
		} else {
			params = append(params, ir.Ptr)
		}
	}
	return ir.FuncOf(ir.Void, params...)
}

// fnValueIRType is the signature behind a function value: same layout,
// no descriptor or dictionary arguments.
func (fcx *funcCtx) fnValueIRType(sig *types.FnSig) *ir.Type {
	cx := fcx.cx
	params := []*ir.Type{ir.Ptr, ir.Ptr}
	for _, a := range sig.Args {
		at := fcx.ty(a.Type)
		if a.Mode != types.ModeRef && cx.isImmediate(at) {
			params = append(params, cx.valueTy(at))
		} else {
			params = append(params, ir.Ptr)
		}
	}
	return ir.FuncOf(ir.Void, params...)
}

// implDict emits the static dictionary for an implementation: an array of
// code pointers in interface slot order. The global is registered before
// the methods are forced so implementations may mention themselves.
func (cx *Context) implDict(id ast.DefID) ir.GlobalID {
	if g, ok := cx.dictGlobals[id]; ok {
		return g
	}
	def := cx.mod.Def(id)
	if def.Kind != ast.DefImpl {
		cx.bugf("%s is not an implementation", def.Name)
	}
	n := len(def.Methods)
	ty := ir.ArrayOf(ir.Ptr, int64(n))
	g := cx.out.AddGlobal(cx.uniqueSym("dict."+sanitizeSym(def.Name)), ty, nil)
	cx.dictGlobals[id] = g

	inits := make([]*ir.GInit, n)
	for i, m := range def.Methods {
		inits[i] = ir.InitFuncRef(cx.instanceOf(m, nil, nil))
	}
	cx.out.Global(g).Init = ir.InitArray(ir.Ptr, inits...)
	return g
}

// callTarget is a resolved callee: who to call and under what signature.
type callTarget struct {
	fn    ir.FuncID  // direct target, or
	fnptr ir.ValueID // indirect code pointer
	ty    *ir.Type

	env    ir.ValueID
	meta   []ir.ValueID // descriptors and dictionaries, interleaved
	params []types.FnArg
	pre    []ir.ValueID // leading arguments the resolver already produced
	exprs  []ast.ExprID
}

func transCall(b blockCtx, e ast.ExprID, d *dest) blockCtx {
	cx := b.fcx.cx
	ex := cx.mod.Expr(e)

	if mo, ok := cx.mod.MethodMap[e]; ok {
		return transMethodCall(b, e, ex, &mo, d)
	}

	callee := cx.mod.Expr(ex.X)
	if callee.Kind == ast.ExprGlobal {
		def := cx.mod.Def(callee.Def)
		switch def.Kind {
		case ast.DefFn:
			return transDirectCall(b, e, ex, callee, def, d)
		case ast.DefVariant:
			return transVariantCtor(b, ex.Ty, def.Variant, ex.Args, d)
		case ast.DefResCtor:
			return transResCtor(b, ex, d)
		}
		cx.bugf("%s cannot be called", def.Name)
	}
	return transIndirectCall(b, ex, d)
}

func transDirectCall(b blockCtx, e ast.ExprID, ex *ast.Expr, callee *ast.Expr, def *ast.Def, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	fd := cx.mod.Fn(def.Fn)
	if len(ex.Args) != len(fd.Args) {
		cx.bugf("%s takes %d arguments, got %d", fd.Name, len(fd.Args), len(ex.Args))
	}

	// The instance is picked with the caller's own arguments substituted
	// in; the descriptors flow from the unsubstituted forms so a bare
	// parameter resolves to this frame's descriptor argument.
	inst := make([]types.TypeID, len(callee.TypeArgs))
	for i, ta := range callee.TypeArgs {
		inst[i] = fcx.tyRaw(ta)
	}
	dicts := cx.mod.DictMap[e]
	fn := cx.instanceOf(def.Fn, inst, dicts)
	meta := buildMeta(b, fd.TypeParams, callee.TypeArgs, dicts)

	return emitCall(b, ex, d, callTarget{
		fn:     fn,
		fnptr:  ir.NoValueID,
		ty:     cx.out.Func(fn).Ty,
		env:    fcx.f.Null(),
		meta:   meta,
		params: fnParams(fd),
		exprs:  ex.Args,
	})
}

func transMethodCall(b blockCtx, e ast.ExprID, ex *ast.Expr, mo *ast.MethodOrigin, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx

	if !mo.ViaDict {
		def := cx.mod.Def(mo.Def)
		if def.Kind != ast.DefFn {
			cx.bugf("method resolved to non-function %s", def.Name)
		}
		fd := cx.mod.Fn(def.Fn)
		if len(fd.Args) != 1+len(ex.Args) {
			cx.bugf("%s takes %d arguments, got %d", fd.Name, len(fd.Args), 1+len(ex.Args))
		}
		inst := make([]types.TypeID, len(mo.TypeArgs))
		for i, ta := range mo.TypeArgs {
			inst[i] = fcx.tyRaw(ta)
		}
		dicts := cx.mod.DictMap[e]
		fn := cx.instanceOf(def.Fn, inst, dicts)
		meta := buildMeta(b, fd.TypeParams, mo.TypeArgs, dicts)
		exprs := make([]ast.ExprID, 0, 1+len(ex.Args))
		exprs = append(exprs, ex.X)
		exprs = append(exprs, ex.Args...)
		return emitCall(b, ex, d, callTarget{
			fn:     fn,
			fnptr:  ir.NoValueID,
			ty:     cx.out.Func(fn).Ty,
			env:    fcx.f.Null(),
			meta:   meta,
			params: fnParams(fd),
			exprs:  exprs,
		})
	}

	// Dictionary dispatch. The receiver always passes by ref: the callee
	// is picked at run time and a pointer is the one shape every
	// implementation agrees on.
	idef := cx.types.IfaceDef(mo.Iface)
	if mo.Slot < 0 || mo.Slot >= len(idef.Methods) {
		cx.bugf("%s has no method slot %d", idef.Name, mo.Slot)
	}
	sig, ok := cx.types.FnInfo(idef.Methods[mo.Slot].Sig)
	if !ok || len(sig.Args) == 0 {
		cx.bugf("%s.%s has no usable signature", idef.Name, idef.Methods[mo.Slot].Name)
	}
	if sig.Args[0].Mode != types.ModeRef {
		cx.bugf("%s.%s does not take its receiver by ref", idef.Name, idef.Methods[mo.Slot].Name)
	}
	if len(ex.Args) != len(sig.Args)-1 {
		cx.bugf("%s.%s takes %d arguments, got %d", idef.Name, idef.Methods[mo.Slot].Name, len(sig.Args)-1, len(ex.Args))
	}

	recv := cx.mod.Expr(ex.X)
	var dictv, recvPtr ir.ValueID
	if cx.types.Kind(fcx.ty(recv.Ty)) == types.KindIface {
		// The value carries its own dictionary; the receiver is the
		// payload inside the pair's box.
		var po operand
		b, po = transBorrow(b, ex.X)
		dictv = b.at().Load(ir.Ptr, po.val)
		bx := pairSecond(b, po.val)
		recvPtr = pairBoxValuePtr(b, bx)
	} else {
		dictv = dictValue(b, mo.Dict)
		var ro operand
		b, ro = transBorrow(b, ex.X)
		recvPtr = ro.val
	}

	slotPtr := b.at().PtrOffset(dictv, cx.word(fcx.f, int64(mo.Slot*cx.lay.Target.PtrSize)))
	fnptr := b.at().Load(ir.Ptr, slotPtr)

	return emitCall(b, ex, d, callTarget{
		fn:     ir.NoFuncID,
		fnptr:  fnptr,
		ty:     fcx.fnValueIRType(sig),
		env:    fcx.f.Null(),
		params: sig.Args,
		pre:    []ir.ValueID{recvPtr},
		exprs:  ex.Args,
	})
}

// pairBoxValuePtr finds the payload inside an interface box. The body is
// {descriptor, value}, so the offset comes off the stored descriptor.
func pairBoxValuePtr(b blockCtx, bx ir.ValueID) ir.ValueID {
	fcx := b.fcx
	cx := fcx.cx
	w := int64(cx.lay.Target.WordSize)
	at := b.at()
	tiSlot := at.PtrOffset(bx, cx.word(fcx.f, w))
	tiv := at.Load(ir.Ptr, tiSlot)
	valAlign := at.Load(cx.wordTy, at.GEP(cx.tiTy, tiv, tiAlign))
	hdr := cx.word(fcx.f, w+int64(cx.lay.Target.PtrSize))
	return at.PtrOffset(bx, alignToDyn(b, hdr, valAlign))
}

func transIndirectCall(b blockCtx, ex *ast.Expr, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	callee := cx.mod.Expr(ex.X)
	sig, ok := cx.types.FnInfo(callee.Ty)
	if !ok {
		cx.bugf("calling a value of type %s", cx.types.String(callee.Ty))
	}
	if len(ex.Args) != len(sig.Args) {
		cx.bugf("function value takes %d arguments, got %d", len(sig.Args), len(ex.Args))
	}

	var fnptr, env ir.ValueID
	switch sig.Proto {
	case types.ProtoBare:
		vd := fcx.valueDest(callee.Ty)
		b = transExpr(b, ex.X, vd)
		fnptr = vd.result(b)
		env = fcx.f.Null()
	case types.ProtoClosure:
		// The pair stays borrowed for the duration of the call; the
		// callee never owns its own environment reference.
		var po operand
		b, po = transBorrow(b, ex.X)
		fnptr = b.at().Load(ir.Ptr, po.val)
		env = pairSecond(b, po.val)
	default:
		cx.bugf("unknown function prototype %d", sig.Proto)
	}

	return emitCall(b, ex, d, callTarget{
		fn:     ir.NoFuncID,
		fnptr:  fnptr,
		ty:     fcx.fnValueIRType(sig),
		env:    env,
		params: sig.Args,
		exprs:  ex.Args,
	})
}

// transResCtor builds a resource in place: live flag down, wrapped value,
// then the flag armed. An unwind while the value is under construction
// finds a flag that is still down and skips the destructor.
func transResCtor(b blockCtx, ex *ast.Expr, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	if len(ex.Args) != 1 {
		cx.bugf("resource constructor takes 1 argument, got %d", len(ex.Args))
	}
	inner := cx.types.ResInner(ex.Ty)
	if inner == types.NoTypeID {
		cx.bugf("constructing non-resource %s", cx.types.String(ex.Ty))
	}
	fields := []types.TypeID{cx.types.Builtins().U8, inner}

	slot := aggDest(b, d, ex.Ty)
	b.at().Store(fcx.f.ConstInt(ir.I8, 0), slot)
	ip := fieldAddr(b, slot, fields, 1)
	var guards []ir.ValueID
	b = fillField(b, ip, ex.Args[0], &guards)
	b.at().Store(fcx.f.ConstInt(ir.I8, 1), slot)
	revokeGuards(b, guards)
	return b
}

// callResDtor invokes the declared destructor over a pointer to the
// wrapped value. Destructors take their argument by ref; the caller still
// owns the memory and drops the wrapped value right after.
func (fcx *funcCtx) callResDtor(b blockCtx, t types.TypeID, inner ir.ValueID) blockCtx {
	cx := fcx.cx
	rid, targs, ok := cx.types.ResInfo(t)
	if !ok {
		cx.bugf("destructor for non-resource %s", cx.types.String(t))
	}
	decl := cx.resDecl(rid)
	if decl == nil || decl.Dtor == ast.NoFnID {
		return b
	}
	fd := cx.mod.Fn(decl.Dtor)
	if len(fd.Args) != 1 || fd.Locals[fd.Args[0]].Mode != types.ModeRef {
		cx.bugf("destructor %s must take exactly one ref argument", fd.Name)
	}

	fn := cx.instanceOf(decl.Dtor, targs, nil)
	args := make([]ir.ValueID, 0, 3+len(targs))
	args = append(args, fcx.f.Null(), fcx.f.Null())
	for _, ta := range targs {
		args = append(args, getTI(b, ta))
	}
	args = append(args, inner)
	_, b = callOrInvoke(b, cx.out.Func(fn).Ty, fn, ir.NoValueID, args)
	return b
}

func (cx *Context) resDecl(rid types.ResID) *ast.ResDecl {
	for i := range cx.mod.Ress {
		if cx.mod.Ress[i].Res == rid {
			return &cx.mod.Ress[i]
		}
	}
	return nil
}

// buildMeta assembles the descriptor and dictionary arguments in
// declaration order: each type parameter's descriptor, then the
// dictionaries for its bounds.
func buildMeta(b blockCtx, tps []ast.TypeParam, targs []types.TypeID, dicts []ast.DictRef) []ir.ValueID {
	cx := b.fcx.cx
	if len(targs) != len(tps) {
		cx.bugf("instantiation with %d of %d type arguments", len(targs), len(tps))
	}
	nb := 0
	for _, tp := range tps {
		nb += len(tp.Bounds)
	}
	if len(dicts) != nb {
		cx.bugf("call site carries %d dictionaries for %d bounds", len(dicts), nb)
	}
	meta := make([]ir.ValueID, 0, len(tps)+nb)
	di := 0
	for i, tp := range tps {
		meta = append(meta, getTI(b, targs[i]))
		for range tp.Bounds {
			meta = append(meta, dictValue(b, dicts[di]))
			di++
		}
	}
	return meta
}

func fnParams(fd *ast.FnDef) []types.FnArg {
	args := make([]types.FnArg, len(fd.Args))
	for i, a := range fd.Args {
		l := fd.Locals[a]
		args[i] = types.FnArg{Mode: l.Mode, Type: l.Ty}
	}
	return args
}

// emitCall evaluates the arguments in order, hands the owned ones to the
// callee at the call instruction, and delivers the result. Ownership
// transfers exactly at the call: values the callee will drop sit in
// guarded slots while later arguments evaluate, and the guards come off
// just before the call so its unwind path no longer double-drops them.
func emitCall(b blockCtx, ex *ast.Expr, d *dest, tgt callTarget) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	if len(tgt.params) != len(tgt.pre)+len(tgt.exprs) {
		cx.bugf("call plans %d arguments for %d parameters", len(tgt.pre)+len(tgt.exprs), len(tgt.params))
	}

	rt := ex.Ty
	rk := cx.types.Kind(fcx.ty(rt))
	retImm := rk != types.KindNil && rk != types.KindBot && cx.isImmediate(fcx.ty(rt))

	retp := fcx.f.Null()
	var retSlot ir.ValueID
	switch {
	case rk == types.KindNil || rk == types.KindBot:
	case retImm:
		retSlot = fcx.allocaFor(rt)
		retp = retSlot
	case d.kind == destSaveIn:
		retSlot = d.slot
		retp = retSlot
	default:
		retSlot = fcx.allocaFor(rt)
		retp = retSlot
	}

	args := make([]ir.ValueID, 0, 2+len(tgt.meta)+len(tgt.params))
	args = append(args, retp, tgt.env)
	args = append(args, tgt.meta...)
	args = append(args, tgt.pre...)

	var owned []ir.ValueID
	for i, aE := range tgt.exprs {
		mode := tgt.params[len(tgt.pre)+i].Mode
		var v ir.ValueID
		b, v = transArg(b, aE, mode, &owned)
		args = append(args, v)
	}
	for _, s := range owned {
		fcx.revokeClean(b.scope, s)
	}

	_, b = callOrInvoke(b, tgt.ty, tgt.fn, tgt.fnptr, args)

	switch {
	case rk == types.KindBot:
		b.at().Unreachable()
		return b.dead()
	case rk == types.KindNil:
		return b
	case retImm:
		v := b.at().Load(cx.valueTy(fcx.ty(rt)), retSlot)
		return putImm(b, d, v)
	case d.kind == destSaveIn:
		return b
	default:
		// Result nobody asked for: let the scope drop it. The cleanup is
		// registered after the call so an unwinding callee, which never
		// produced the value, does not see it on the pad.
		fcx.addClean(b.scope, retSlot, rt, false)
		return b
	}
}

// transArg evaluates one argument under its declared mode.
func transArg(b blockCtx, e ast.ExprID, mode types.ArgMode, owned *[]ir.ValueID) (blockCtx, ir.ValueID) {
	fcx := b.fcx
	cx := fcx.cx
	ax := cx.mod.Expr(e)
	t := ax.Ty
	it := fcx.ty(t)

	switch cx.types.Kind(it) {
	case types.KindNil, types.KindBot:
		b = transExpr(b, e, ignoreDest(t))
		return b, immZero(b, it)
	}

	switch mode {
	case types.ModeVal:
		if !cx.isImmediate(it) {
			if cx.mod.NeedsCopy(e) {
				return dupToTemp(b, e, t)
			}
			var o operand
			b, o = transBorrow(b, e)
			return b, o.val
		}
		if isPlace(ax) && !cx.mod.NeedsCopy(e) && !cx.mod.LastUse(e) {
			var src operand
			b, src = transLval(b, e)
			return b, loadIfMem(b, src)
		}
		vd := fcx.valueDest(t)
		b = transExpr(b, e, vd)
		v := vd.result(b)
		if cx.needsLifecycle(it) {
			// A fresh handle the caller still owns: park it so an unwind
			// in a later argument does not leak it, and let the scope
			// drop it after the call.
			slot := fcx.allocaFor(t)
			b.at().Store(v, slot)
			fcx.addCleanTemp(b.scope, slot, t, false)
		}
		return b, v

	case types.ModeRef:
		var o operand
		b, o = transBorrow(b, e)
		return b, o.val

	case types.ModeCopy, types.ModeMove:
		if cx.isImmediate(it) {
			vd := fcx.valueDest(t)
			b = transExpr(b, e, vd)
			v := vd.result(b)
			if cx.needsLifecycle(it) {
				slot := fcx.allocaFor(t)
				b.at().Store(v, slot)
				fcx.addCleanTemp(b.scope, slot, t, false)
				*owned = append(*owned, slot)
			}
			return b, v
		}
		slot := fcx.allocaFor(t)
		if isPlace(ax) {
			var src operand
			b, src = transLval(b, e)
			if mode == types.ModeMove && cx.mod.LastUse(e) {
				b = moveVal(b, false, slot, src.val, t)
			} else {
				b = copyVal(b, false, slot, src, t)
			}
		} else {
			b = transExpr(b, e, saveInDest(slot, t))
		}
		if cx.needsLifecycle(it) {
			fcx.addCleanTemp(b.scope, slot, t, false)
			*owned = append(*owned, slot)
		}
		return b, slot
	}
	cx.bugf("argument mode %d", mode)
	return b, ir.NoValueID
}

// dupToTemp builds a defensive duplicate in a slot the scope drops after
// the call.
func dupToTemp(b blockCtx, e ast.ExprID, t types.TypeID) (blockCtx, ir.ValueID) {
	cx := b.fcx.cx
	slot := tempSlot(b, t)
	if isPlace(cx.mod.Expr(e)) {
		var src operand
		b, src = transLval(b, e)
		b = copyVal(b, false, slot, src, t)
	} else {
		b = transExpr(b, e, saveInDest(slot, t))
	}
	return b, slot
}
