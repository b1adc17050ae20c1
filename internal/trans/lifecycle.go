package trans

import (
	"ember/internal/ir"
	"ember/internal/types"
)

type glueKind uint8

const (
	glueTake glueKind = iota
	glueDrop
	glueFree
)

// operand is a translated value: either an immediate in a register or a
// pointer to memory holding it.
type operand struct {
	val ir.ValueID
	mem bool
	t   types.TypeID
}

func immOperand(v ir.ValueID, t types.TypeID) operand {
	return operand{val: v, t: t}
}

func memOperand(p ir.ValueID, t types.TypeID) operand {
	return operand{val: p, mem: true, t: t}
}

// loadIfMem yields the register form of an immediate operand.
func loadIfMem(b blockCtx, o operand) ir.ValueID {
	if !o.mem {
		return o.val
	}
	return b.at().Load(b.fcx.cx.valueTy(b.fcx.ty(o.t)), o.val)
}

// takeTy claims another reference to the value v points at.
func takeTy(b blockCtx, v ir.ValueID, t types.TypeID) blockCtx {
	if !b.fcx.cx.needsLifecycle(b.fcx.ty(t)) {
		return b
	}
	return callTIGlue(b, v, t, glueTake)
}

// dropTy releases the value v points at.
func dropTy(b blockCtx, v ir.ValueID, t types.TypeID) blockCtx {
	if !b.fcx.cx.needsLifecycle(b.fcx.ty(t)) {
		return b
	}
	return callTIGlue(b, v, t, glueDrop)
}

// freeTy releases the allocation p itself; p is the loaded handle, not a
// pointer to it.
func freeTy(b blockCtx, p ir.ValueID, t types.TypeID) blockCtx {
	return callTIGlue(b, p, t, glueFree)
}

// dropImmediate releases a handle held in a register.
func dropImmediate(b blockCtx, v ir.ValueID, t types.TypeID) blockCtx {
	cx := b.fcx.cx
	it := b.fcx.ty(t)
	switch cx.types.Kind(it) {
	case types.KindBox:
		return decrRefcntMaybeFree(b, v, t)
	case types.KindUniq, types.KindVec, types.KindStr:
		cond := b.at().ICmp(ir.INe, v, b.fcx.f.Null())
		return withCond(b, cond, func(tb blockCtx) blockCtx {
			return freeTy(tb, v, t)
		})
	}
	return b
}

// callTIGlue routes a lifecycle operation through the right glue. Closed
// types call their glue directly (or skip a null glue entirely); open
// types load the pointer out of the descriptor and guard against null.
func callTIGlue(b blockCtx, v ir.ValueID, t types.TypeID, k glueKind) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	f := fcx.f

	if !cx.types.ContainsParams(t) {
		ti := cx.typeInfoOf(t)
		cx.forceGlue(ti, k)
		gs := cx.glueStateOf(ti, k)
		if gs.fn == ir.NoFuncID {
			return b
		}
		args := []ir.ValueID{f.Null(), f.Null(), f.Null(), v}
		b.at().Call(cx.glueTy, gs.fn, args)
		return b
	}

	return callGlueThrough(b, getTI(b, t), k, v)
}

// callGlueThrough calls one glue slot of a descriptor value, skipping
// null slots at run time.
func callGlueThrough(b blockCtx, tiv ir.ValueID, k glueKind, v ir.ValueID) blockCtx {
	cx := b.fcx.cx
	f := b.fcx.f
	at := b.at()
	gluePtr := at.Load(ir.Ptr, at.GEP(cx.tiTy, tiv, glueField(k)))
	firstParam := at.Load(ir.Ptr, at.GEP(cx.tiTy, tiv, tiFirstParam))
	cond := at.ICmp(ir.INe, gluePtr, f.Null())
	return withCond(b, cond, func(tb blockCtx) blockCtx {
		args := []ir.ValueID{f.Null(), f.Null(), firstParam, v}
		tb.at().CallInd(cx.glueTy, gluePtr, args)
		return tb
	})
}

func glueField(k glueKind) int32 {
	switch k {
	case glueTake:
		return tiTake
	case glueDrop:
		return tiDrop
	default:
		return tiFree
	}
}

// Reference counts sit in the first word of a box allocation.

func incrRefcnt(b blockCtx, bx ir.ValueID) {
	w := b.fcx.cx.wordTy
	at := b.at()
	rc := at.Load(w, bx)
	at.Store(at.Bin(ir.BinAdd, w, rc, b.fcx.f.ConstInt(w, 1)), bx)
}

func decrRefcntMaybeFree(b blockCtx, bx ir.ValueID, t types.TypeID) blockCtx {
	fcx := b.fcx
	w := fcx.cx.wordTy
	cond := b.at().ICmp(ir.INe, bx, fcx.f.Null())
	return withCond(b, cond, func(tb blockCtx) blockCtx {
		at := tb.at()
		rc := at.Load(w, bx)
		rc = at.Bin(ir.BinSub, w, rc, fcx.f.ConstInt(w, 1))
		at.Store(rc, bx)
		zero := at.ICmp(ir.IEq, rc, fcx.f.ConstInt(w, 0))
		return withCond(tb, zero, func(fb blockCtx) blockCtx {
			return freeTy(fb, bx, t)
		})
	})
}

// fieldAddr addresses field idx of the aggregate at base laid out as
// fields, picking constant or runtime offsets as the layout demands.
func fieldAddr(b blockCtx, base ir.ValueID, fields []types.TypeID, idx int) ir.ValueID {
	fcx := b.fcx
	cx := fcx.cx
	static := true
	for _, ft := range fields {
		if !cx.lay.Static(fcx.ty(ft)) {
			static = false
			break
		}
	}
	if static {
		off := 0
		for i := 0; i <= idx; i++ {
			fl, err := cx.lay.Of(fcx.ty(fields[i]))
			if err != nil {
				cx.bugf("field layout: %v", err)
			}
			off = roundUpInt(off, fl.Align)
			if i < idx {
				off += fl.Size
			}
		}
		if off == 0 {
			return base
		}
		return b.at().PtrOffset(base, cx.word(fcx.f, int64(off)))
	}
	off := fcx.dynFieldOffset(b, fields, idx)
	return b.at().PtrOffset(base, off)
}

func roundUpInt(n, align int) int {
	if align <= 1 {
		return n
	}
	if r := n % align; r != 0 {
		n += align - r
	}
	return n
}

// iterStructural walks every interior value of the aggregate at av in
// field order, calling f with the address and type of each. Tagged enums
// visit the discriminant first, then switch to the live variant's
// payload; single-variant enums go straight to the payload.
func iterStructural(b blockCtx, av ir.ValueID, t types.TypeID, fn func(blockCtx, ir.ValueID, types.TypeID) blockCtx) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	it := fcx.ty(t)
	tt, ok := cx.types.Lookup(it)
	if !ok {
		cx.bugf("iterating unknown type %d", it)
	}

	switch tt.Kind {
	case types.KindRec:
		info, _ := cx.types.RecInfo(it)
		fields := make([]types.TypeID, len(info.Fields))
		for i, fld := range info.Fields {
			fields[i] = fld.Type
		}
		for i, ft := range fields {
			b = fn(b, fieldAddr(b, av, fields, i), ft)
		}
		return b

	case types.KindTup:
		info, _ := cx.types.TupleInfo(it)
		for i, et := range info.Elems {
			b = fn(b, fieldAddr(b, av, info.Elems, i), et)
		}
		return b

	case types.KindRes:
		inner := cx.types.ResInner(it)
		fields := []types.TypeID{cx.types.Builtins().U8, inner}
		return fn(b, fieldAddr(b, av, fields, 1), inner)

	case types.KindEnum:
		return iterEnum(b, av, it, fn)

	case types.KindFn, types.KindIface:
		// Pairs are managed by their own glue, not by field walks.
		return b

	default:
		cx.bugf("iterating non-structural %s", cx.types.String(it))
		return b
	}
}

func iterEnum(b blockCtx, av ir.ValueID, it types.TypeID, fn func(blockCtx, ir.ValueID, types.TypeID) blockCtx) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	variants := cx.types.EnumVariants(it)

	if cx.types.EnumIsDegen(it) {
		v := variants[0]
		for i, argTy := range v.Args {
			b = fn(b, fieldAddr(b, av, v.Args, i), argTy)
		}
		return b
	}

	// The discriminant is visited before any payload.
	b = fn(b, av, cx.types.Builtins().Int)
	if !b.live {
		return b
	}

	discr := b.at().Load(cx.wordTy, av)
	next := b.sub("enum_iter_next")
	unreach := b.sub("enum_iter_impossible")
	unreach.at().Unreachable()

	cases := make([]ir.SwitchCase, len(variants))
	arms := make([]blockCtx, len(variants))
	for i, v := range variants {
		arm := b.sub("enum_iter_variant_" + sanitizeSym(v.Name))
		arms[i] = arm
		cases[i] = ir.SwitchCase{Val: v.Discr, Target: arm.blk}
	}
	b.at().Switch(discr, unreach.blk, cases)

	for i, v := range variants {
		arm := arms[i]
		payload := payloadAddr(arm, av, it)
		for j, argTy := range v.Args {
			arm = fn(arm, fieldAddr(arm, payload, v.Args, j), argTy)
		}
		if arm.live && !fcx.f.Block(arm.blk).Terminated() {
			arm.at().Br(next.blk)
		}
	}
	return next
}

// payloadAddr addresses the payload area of a tagged enum value.
func payloadAddr(b blockCtx, av ir.ValueID, it types.TypeID) ir.ValueID {
	fcx := b.fcx
	cx := fcx.cx
	if cx.lay.Static(it) {
		l, err := cx.lay.Of(it)
		if err != nil {
			cx.bugf("enum layout: %v", err)
		}
		return b.at().PtrOffset(av, cx.word(fcx.f, int64(l.PayloadOffset)))
	}
	variants := cx.types.EnumVariants(it)
	pAlign := cx.word(fcx.f, 1)
	for _, v := range variants {
		_, val := fcx.dynAggregate(b, v.Args)
		pAlign = umaxDyn(b, pAlign, val)
	}
	word := cx.word(fcx.f, int64(cx.lay.Target.WordSize))
	return b.at().PtrOffset(av, alignToDyn(b, word, pAlign))
}

// memmoveTy copies a value of type t between two memory locations.
func memmoveTy(b blockCtx, dst, src ir.ValueID, t types.TypeID) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	it := fcx.ty(t)
	if cx.lay.Static(it) {
		l, err := cx.lay.Of(it)
		if err != nil {
			cx.bugf("memmove layout: %v", err)
		}
		if l.Size == 0 {
			return b
		}
		b.at().MemMove(dst, src, cx.word(fcx.f, int64(l.Size)), l.Align)
		return b
	}
	size := fcx.dynamicSize(b, t)
	b.at().MemMove(dst, src, size, 1)
	return b
}

// immZero is the zero value of an immediate instance type.
func immZero(b blockCtx, it types.TypeID) ir.ValueID {
	fcx := b.fcx
	ty := fcx.cx.valueTy(it)
	switch {
	case ty == ir.F32 || ty == ir.F64:
		return fcx.f.ConstFloat(ty, 0)
	case ty == ir.Ptr:
		return fcx.f.Null()
	default:
		return fcx.f.ConstInt(ty, 0)
	}
}

// zeroSlot clears the slot after a move-out so the registered cleanup
// finds nothing to do.
func zeroSlot(b blockCtx, slot ir.ValueID, t types.TypeID) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	it := fcx.ty(t)
	if cx.isImmediate(it) {
		b.at().Store(immZero(b, it), slot)
		return b
	}
	if cx.lay.Static(it) {
		l, err := cx.lay.Of(it)
		if err != nil {
			cx.bugf("zero layout: %v", err)
		}
		if l.Size == 0 {
			return b
		}
		b.at().MemSet(slot, fcx.f.ConstInt(ir.I8, 0), cx.word(fcx.f, int64(l.Size)), l.Align)
		return b
	}
	size := fcx.dynamicSize(b, t)
	b.at().MemSet(slot, fcx.f.ConstInt(ir.I8, 0), size, 1)
	return b
}

// copyVal copies src into dst. With dropExisting the old dst value is
// released first, guarded so that copying a value onto itself is a no-op
// rather than a take of freed memory.
func copyVal(b blockCtx, dropExisting bool, dst ir.ValueID, src operand, t types.TypeID) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	it := fcx.ty(t)

	switch cx.types.Kind(it) {
	case types.KindNil, types.KindBot:
		return b
	}
	if cx.isScalar(it) || !cx.needsLifecycle(it) && cx.isImmediate(it) {
		b.at().Store(loadIfMem(b, src), dst)
		return b
	}
	if !dropExisting {
		return copyValNoCheck(b, false, dst, src, t)
	}

	// Self-copy guard: dst may be the same location (or hold the same
	// handle) as src.
	var cond ir.ValueID
	if src.mem {
		cond = b.at().ICmp(ir.INe, dst, src.val)
	} else {
		old := b.at().Load(cx.valueTy(it), dst)
		cond = b.at().ICmp(ir.INe, old, src.val)
	}
	return withCond(b, cond, func(tb blockCtx) blockCtx {
		return copyValNoCheck(tb, true, dst, src, t)
	})
}

func copyValNoCheck(b blockCtx, dropExisting bool, dst ir.ValueID, src operand, t types.TypeID) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	it := fcx.ty(t)

	switch cx.types.Kind(it) {
	case types.KindBox:
		v := loadIfMem(b, src)
		incrRefcnt(b, v)
		if dropExisting {
			old := b.at().Load(ir.Ptr, dst)
			b = decrRefcntMaybeFree(b, old, t)
		}
		b.at().Store(v, dst)
		return b

	case types.KindUniq, types.KindVec, types.KindStr:
		v := loadIfMem(b, src)
		if dropExisting {
			old := b.at().Load(ir.Ptr, dst)
			b = dropImmediate(b, old, t)
		}
		b.at().Store(v, dst)
		return takeTy(b, dst, t)
	}

	// Structural, interface, closure, parameter: through memory.
	if !src.mem {
		cx.bugf("copying a non-immediate %s from a register", cx.types.String(it))
	}
	if dropExisting {
		b = dropTy(b, dst, t)
	}
	b = memmoveTy(b, dst, src.val, t)
	return takeTy(b, dst, t)
}

// moveVal transfers the value at src into dst and clears src, so the
// source's pending cleanup becomes a no-op.
func moveVal(b blockCtx, dropExisting bool, dst ir.ValueID, src ir.ValueID, t types.TypeID) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	it := fcx.ty(t)

	switch cx.types.Kind(it) {
	case types.KindNil, types.KindBot:
		return b
	}
	if cx.isImmediate(it) {
		v := b.at().Load(cx.valueTy(it), src)
		if dropExisting && cx.needsLifecycle(it) {
			old := b.at().Load(cx.valueTy(it), dst)
			b = dropImmediate(b, old, t)
		}
		b.at().Store(v, dst)
		if cx.needsLifecycle(it) {
			b = zeroSlot(b, src, t)
		}
		return b
	}

	if dropExisting {
		b = dropTy(b, dst, t)
	}
	b = memmoveTy(b, dst, src, t)
	return zeroSlot(b, src, t)
}
