package trans

import (
	"ember/internal/ir"
	"ember/internal/types"
)

func (cx *Context) glueStateOf(ti *typeInfo, k glueKind) *glueState {
	switch k {
	case glueTake:
		return &ti.take
	case glueDrop:
		return &ti.drop
	default:
		return &ti.free
	}
}

func glueName(k glueKind) string {
	switch k {
	case glueTake:
		return "take"
	case glueDrop:
		return "drop"
	default:
		return "free"
	}
}

// glueNeeded reports whether the operation does anything at all for t.
// Types where it does not publish a null slot, and callers skip the call.
func (cx *Context) glueNeeded(t types.TypeID, k glueKind) bool {
	if k == glueFree {
		switch cx.types.Kind(t) {
		case types.KindBox, types.KindUniq, types.KindVec, types.KindStr:
			return true
		}
		// Interface and closure boxes are freed by their drop glue,
		// which holds the runtime body descriptor.
		return false
	}
	return cx.needsLifecycle(t)
}

// forceGlue resolves one glue slot of a descriptor: either to a built
// function or to a recorded no-op. The slot is published before the body
// is built, so recursive types terminate and call their own glue.
func (cx *Context) forceGlue(ti *typeInfo, k glueKind) {
	gs := cx.glueStateOf(ti, k)
	if gs.made {
		return
	}
	gs.made = true
	if !cx.glueNeeded(ti.t, k) {
		gs.null = true
		return
	}

	name := cx.uniqueSym("glue." + glueName(k) + "." + cx.typeStem(ti.t))
	f := cx.out.DefineFunc(name, cx.glueTy)
	f.Internal = true
	// Structural glue is a field walk and stays out of line; everything
	// else is a handful of instructions.
	if cx.isStructural(ti.t) {
		f.Inline = ir.InlineNever
	} else {
		f.Inline = ir.InlineAlways
	}
	gs.fn = f.ID
	cx.stats.GluesCreated++
	cx.makeGlue(ti, k, f)
}

// forceAllGlue resolves every slot; derived descriptors need all three
// before their record can be populated.
func (cx *Context) forceAllGlue(ti *typeInfo) {
	cx.forceGlue(ti, glueTake)
	cx.forceGlue(ti, glueDrop)
	cx.forceGlue(ti, glueFree)
}

// makeGlue builds a glue body. The value argument points at the value for
// take and drop; for free it is the allocation itself.
func (cx *Context) makeGlue(ti *typeInfo, k glueKind, f *ir.Func) {
	fcx := newFuncCtx(cx, f, nil, nil, nil)
	fcx.bindGlueParams(ti)
	v := f.Param(3)

	b := fcx.body()
	switch k {
	case glueTake:
		b = glueTakeBody(b, v, ti.t)
	case glueDrop:
		b = glueDropBody(b, v, ti.t)
	default:
		b = glueFreeBody(b, v, ti.t)
	}
	fcx.finish(b)
}

// bindGlueParams loads the parameter descriptors out of the glue's
// first_param array argument, in linearized order.
func (fcx *funcCtx) bindGlueParams(ti *typeInfo) {
	n := len(ti.params)
	if n == 0 {
		return
	}
	maxIdx := ti.params[0]
	for _, pi := range ti.params {
		if pi > maxIdx {
			maxIdx = pi
		}
	}
	fcx.tiArgs = make([]ir.ValueID, maxIdx+1)
	for i := range fcx.tiArgs {
		fcx.tiArgs[i] = ir.NoValueID
	}
	le := blockCtx{fcx: fcx, blk: fcx.loadEnv, scope: fcx.fnScope, live: true}
	at := le.at()
	arrTy := ir.ArrayOf(ir.Ptr, int64(n))
	arr := fcx.f.Param(2)
	for i, pi := range ti.params {
		fcx.tiArgs[pi] = at.Load(ir.Ptr, at.GEP(arrTy, arr, int32(i)))
	}
}

func glueTakeBody(b blockCtx, v ir.ValueID, t types.TypeID) blockCtx {
	cx := b.fcx.cx
	tt, _ := cx.types.Lookup(t)
	switch tt.Kind {
	case types.KindBox:
		incrRefcnt(b, b.at().Load(ir.Ptr, v))
		return b

	case types.KindUniq:
		return uniqDupInPlace(b, v, tt.Elem)

	case types.KindVec:
		return vecDupInPlace(b, v, tt.Elem)

	case types.KindStr:
		return strDupInPlace(b, v)

	case types.KindIface, types.KindFn:
		// Pairs share their box; closures converted from bare
		// functions carry no environment at all.
		bx := pairSecond(b, v)
		cond := b.at().ICmp(ir.INe, bx, b.fcx.f.Null())
		return withCond(b, cond, func(tb blockCtx) blockCtx {
			incrRefcnt(tb, bx)
			return tb
		})

	case types.KindRec, types.KindTup, types.KindRes, types.KindEnum:
		return iterStructural(b, v, t, takeTy)
	}
	cx.bugf("take glue for %s", cx.types.String(t))
	return b
}

func glueDropBody(b blockCtx, v ir.ValueID, t types.TypeID) blockCtx {
	cx := b.fcx.cx
	tt, _ := cx.types.Lookup(t)
	switch tt.Kind {
	case types.KindBox:
		return decrRefcntMaybeFree(b, b.at().Load(ir.Ptr, v), t)

	case types.KindUniq, types.KindVec, types.KindStr:
		// A moved-out slot holds null; the registered cleanup still
		// runs and must do nothing.
		p := b.at().Load(ir.Ptr, v)
		cond := b.at().ICmp(ir.INe, p, b.fcx.f.Null())
		return withCond(b, cond, func(tb blockCtx) blockCtx {
			return freeTy(tb, p, t)
		})

	case types.KindRes:
		return resDrop(b, v, t)

	case types.KindIface, types.KindFn:
		bx := pairSecond(b, v)
		return releasePairBox(b, bx)

	case types.KindRec, types.KindTup, types.KindEnum:
		return iterStructural(b, v, t, dropTy)
	}
	cx.bugf("drop glue for %s", cx.types.String(t))
	return b
}

func glueFreeBody(b blockCtx, v ir.ValueID, t types.TypeID) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	tt, _ := cx.types.Lookup(t)
	switch tt.Kind {
	case types.KindBox:
		body := b.at().PtrOffset(v, boxBodyOff(b, tt.Elem))
		b = dropTy(b, body, tt.Elem)

	case types.KindUniq:
		b = dropTy(b, v, tt.Elem)

	case types.KindVec:
		if cx.needsLifecycle(tt.Elem) {
			b = iterVecElems(b, v, tt.Elem, dropTy)
		}

	case types.KindStr:
		// Bytes need no drop; just the cell goes.

	default:
		cx.bugf("free glue for %s", cx.types.String(t))
	}
	free := cx.rt(rtFree)
	b.at().Call(free.ty, free.fn, []ir.ValueID{v})
	return b
}

// uniqDupInPlace replaces the pointer at v with a fresh deep copy of its
// pointee.
func uniqDupInPlace(b blockCtx, v ir.ValueID, inner types.TypeID) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	p := b.at().Load(ir.Ptr, v)
	size, align := fcx.dynSizeAlign(b, inner)
	al := cx.rt(rtAlloc)
	cell := b.at().Call(al.ty, al.fn, []ir.ValueID{size, align})
	b.at().MemMove(cell, p, size, 1)
	b.at().Store(cell, v)
	return takeTy(b, cell, inner)
}

func vecDupInPlace(b blockCtx, v ir.ValueID, elem types.TypeID) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	p := b.at().Load(ir.Ptr, v)
	dup := cx.rt(rtVecDup)
	nv := b.at().Call(dup.ty, dup.fn, []ir.ValueID{getTI(b, elem), p})
	b.at().Store(nv, v)
	if cx.needsLifecycle(elem) {
		return iterVecElems(b, nv, elem, takeTy)
	}
	return b
}

func strDupInPlace(b blockCtx, v ir.ValueID) blockCtx {
	cx := b.fcx.cx
	p := b.at().Load(ir.Ptr, v)
	dup := cx.rt(rtVecDup)
	u8 := getTI(b, cx.types.Builtins().U8)
	nv := b.at().Call(dup.ty, dup.fn, []ir.ValueID{u8, p})
	b.at().Store(nv, v)
	return b
}

// resDrop runs the destructor exactly once, guarded by the live flag, then
// drops the wrapped value and clears the flag.
func resDrop(b blockCtx, v ir.ValueID, t types.TypeID) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	flag := b.at().Load(ir.I8, v)
	cond := b.at().ICmp(ir.INe, flag, fcx.f.ConstInt(ir.I8, 0))
	return withCond(b, cond, func(tb blockCtx) blockCtx {
		inner := cx.types.ResInner(t)
		fields := []types.TypeID{cx.types.Builtins().U8, inner}
		innerPtr := fieldAddr(tb, v, fields, 1)
		tb = fcx.callResDtor(tb, t, innerPtr)
		tb = dropTy(tb, innerPtr, inner)
		tb.at().Store(fcx.f.ConstInt(ir.I8, 0), v)
		return tb
	})
}

// releasePairBox drops one reference to an interface or closure box. The
// body starts with the descriptor of the carried value, so freeing reads
// everything it needs at run time.
func releasePairBox(b blockCtx, bx ir.ValueID) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	w := int64(cx.lay.Target.WordSize)
	cond := b.at().ICmp(ir.INe, bx, fcx.f.Null())
	return withCond(b, cond, func(tb blockCtx) blockCtx {
		at := tb.at()
		rc := at.Load(cx.wordTy, bx)
		rc = at.Bin(ir.BinSub, cx.wordTy, rc, fcx.f.ConstInt(cx.wordTy, 1))
		at.Store(rc, bx)
		dead := at.ICmp(ir.IEq, rc, fcx.f.ConstInt(cx.wordTy, 0))
		return withCond(tb, dead, func(fb blockCtx) blockCtx {
			fat := fb.at()
			tiSlot := fat.PtrOffset(bx, cx.word(fcx.f, w))
			tiv := fat.Load(ir.Ptr, tiSlot)
			valAlign := fat.Load(cx.wordTy, fat.GEP(cx.tiTy, tiv, tiAlign))
			hdr := cx.word(fcx.f, w+int64(cx.lay.Target.PtrSize))
			valPtr := fat.PtrOffset(bx, alignToDyn(fb, hdr, valAlign))
			fb = callGlueThrough(fb, tiv, glueDrop, valPtr)
			free := cx.rt(rtFree)
			fb.at().Call(free.ty, free.fn, []ir.ValueID{bx})
			return fb
		})
	})
}

// pairSecond loads the second word of a two-pointer pair.
func pairSecond(b blockCtx, v ir.ValueID) ir.ValueID {
	cx := b.fcx.cx
	at := b.at()
	slot := at.PtrOffset(v, cx.word(b.fcx.f, int64(cx.lay.Target.PtrSize)))
	return at.Load(ir.Ptr, slot)
}

// iterVecElems walks the element storage of a vector cell. The fill header
// counts bytes, so the walk is a pointer stride over [data, data+fill).
func iterVecElems(b blockCtx, cell ir.ValueID, elem types.TypeID, fn func(blockCtx, ir.ValueID, types.TypeID) blockCtx) blockCtx {
	fcx := b.fcx
	cx := fcx.cx

	fill := b.at().Load(cx.wordTy, cell)
	var dataOff ir.ValueID
	esize, ealign := fcx.dynSizeAlign(b, elem)
	if fcx.staticSized(elem) {
		al, err := cx.lay.AlignOf(fcx.ty(elem))
		if err != nil {
			cx.bugf("vec elem layout: %v", err)
		}
		dataOff = cx.word(fcx.f, int64(cx.lay.VecDataOffset(al)))
	} else {
		two := cx.word(fcx.f, int64(2*cx.lay.Target.WordSize))
		dataOff = alignToDyn(b, two, ealign)
	}
	data := b.at().PtrOffset(cell, dataOff)
	end := b.at().PtrOffset(data, fill)

	sa := blockCtx{fcx: fcx, blk: fcx.staticAllocas, scope: fcx.fnScope, live: true}
	cur := sa.at().Alloca(ir.Ptr)
	b.at().Store(data, cur)

	cond := b.sub("vec_iter_cond")
	body := b.sub("vec_iter_body")
	next := b.sub("vec_iter_next")
	b.at().Br(cond.blk)

	p := cond.at().Load(ir.Ptr, cur)
	more := cond.at().ICmp(ir.IUlt, p, end)
	cond.at().CondBr(more, body.blk, next.blk)

	body = fn(body, p, elem)
	if body.live && !fcx.f.Block(body.blk).Terminated() {
		body.at().Store(body.at().PtrOffset(p, esize), cur)
		body.at().Br(cond.blk)
	}
	return next
}

// boxBodyOff computes the body offset of a box allocation, falling back to
// runtime arithmetic for open element types.
func boxBodyOff(b blockCtx, elem types.TypeID) ir.ValueID {
	fcx := b.fcx
	cx := fcx.cx
	if fcx.staticSized(elem) {
		off, err := cx.lay.BoxBodyOffset(fcx.ty(elem))
		if err != nil {
			cx.bugf("box body offset: %v", err)
		}
		return cx.word(fcx.f, int64(off))
	}
	w := cx.word(fcx.f, int64(cx.lay.Target.WordSize))
	return alignToDyn(b, w, fcx.dynamicAlign(b, elem))
}
