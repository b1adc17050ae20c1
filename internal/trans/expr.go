package trans

import (
	"math"

	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/types"
)

// transExpr translates one expression into the destination. The returned
// context is where translation continues; it is a dead continuation when
// the expression diverged.
func transExpr(b blockCtx, e ast.ExprID, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	ex := cx.mod.Expr(e)

	switch ex.Kind {
	case ast.ExprIntLit:
		return putImm(b, d, fcx.f.ConstInt(cx.valueTy(fcx.ty(ex.Ty)), ex.Int))
	case ast.ExprUintLit:
		return putImm(b, d, fcx.f.ConstInt(cx.valueTy(fcx.ty(ex.Ty)), int64(ex.Uint)))
	case ast.ExprFloatLit:
		return putImm(b, d, fcx.f.ConstFloat(cx.valueTy(fcx.ty(ex.Ty)), ex.Float))
	case ast.ExprBoolLit:
		n := int64(0)
		if ex.Bool {
			n = 1
		}
		return putImm(b, d, fcx.f.ConstInt(ir.I1, n))
	case ast.ExprStrLit:
		return putStrValue(b, d, ex.Str)
	case ast.ExprNilLit:
		return b

	case ast.ExprLocal, ast.ExprField, ast.ExprIndex:
		return transLvalRead(b, e, d)

	case ast.ExprGlobal:
		return transGlobal(b, ex, d)

	case ast.ExprUnary:
		if ex.Un == ast.OpDeref {
			return transLvalRead(b, e, d)
		}
		return transUnary(b, ex, d)

	case ast.ExprBinary:
		return transBinary(b, ex, d)
	case ast.ExprAnd:
		return transLazy(b, ex, d, true)
	case ast.ExprOr:
		return transLazy(b, ex, d, false)

	case ast.ExprAssign:
		return transAssignLike(b, ex, false)
	case ast.ExprAssignOp:
		return transAssignOp(b, ex)
	case ast.ExprMove:
		return transAssignLike(b, ex, true)

	case ast.ExprCast:
		return transCast(b, e, ex, d)

	case ast.ExprCall:
		return transCall(b, e, d)

	case ast.ExprTup:
		return transTup(b, ex, d)
	case ast.ExprRec:
		return transRec(b, ex, d)
	case ast.ExprVec:
		return transVecLit(b, ex, d)

	case ast.ExprIf:
		return transIf(b, ex, d)
	case ast.ExprWhile:
		return transWhile(b, ex)
	case ast.ExprDoWhile:
		return transDoWhile(b, ex)
	case ast.ExprFor:
		return transFor(b, ex)
	case ast.ExprBlock:
		return transBlockValue(b, ex.Blk, d)

	case ast.ExprBreak:
		return transBreak(b)
	case ast.ExprCont:
		return transCont(b)
	case ast.ExprRet:
		return transRet(b, ex)

	case ast.ExprFail:
		return transFail(b, ex)
	case ast.ExprLog:
		return transLog(b, ex)
	case ast.ExprCheck:
		return transCheck(b, ex)
	}
	cx.bugf("expression kind %d reached translation", ex.Kind)
	return b
}

// isPlace reports whether the expression names a location.
func isPlace(ex *ast.Expr) bool {
	switch ex.Kind {
	case ast.ExprLocal, ast.ExprField, ast.ExprIndex:
		return true
	case ast.ExprUnary:
		return ex.Un == ast.OpDeref
	}
	return false
}

// transLvalRead reads a place. Last uses move the value out; everything
// else claims a copy so the place stays live.
func transLvalRead(b blockCtx, e ast.ExprID, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	ex := cx.mod.Expr(e)

	var src operand
	b, src = transLval(b, e)
	if d.kind == destIgnore {
		return b
	}
	it := fcx.ty(ex.Ty)
	move := cx.mod.LastUse(e)

	if d.kind == destSaveIn {
		if move {
			return moveVal(b, false, d.slot, src.val, ex.Ty)
		}
		return copyVal(b, false, d.slot, src, ex.Ty)
	}

	v := b.at().Load(cx.valueTy(it), src.val)
	if !cx.needsLifecycle(it) {
		d.val = v
		return b
	}
	if move {
		b = zeroSlot(b, src.val, ex.Ty)
		d.val = v
		return b
	}
	return claimImm(b, d, v, ex.Ty)
}

// claimImm claims an owned copy of an immediate handle that stays put in
// its home slot.
func claimImm(b blockCtx, d *dest, v ir.ValueID, t types.TypeID) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	if cx.types.Kind(fcx.ty(t)) == types.KindBox {
		incrRefcnt(b, v)
		d.val = v
		return b
	}
	// Deep handles duplicate through a spill slot.
	slot := fcx.allocaFor(t)
	b.at().Store(v, slot)
	b = takeTy(b, slot, t)
	d.val = b.at().Load(ir.Ptr, slot)
	return b
}

func transGlobal(b blockCtx, ex *ast.Expr, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	def := cx.mod.Def(ex.Def)
	switch def.Kind {
	case ast.DefConst:
		return putFold(b, d, cx.foldConst(def.Const))

	case ast.DefFn:
		fd := cx.mod.Fn(def.Fn)
		if len(fd.TypeParams) > 0 || len(ex.TypeArgs) > 0 {
			// A bare function value has nowhere to carry descriptors.
			cx.bugf("%s is generic and cannot be taken as a value", fd.Name)
		}
		return putImm(b, d, fcx.f.FuncRef(cx.instanceOf(def.Fn, nil, nil)))

	case ast.DefVariant:
		return transVariantCtor(b, ex.Ty, def.Variant, nil, d)
	}
	cx.bugf("definition %s cannot appear as a value", def.Name)
	return b
}

func transUnary(b blockCtx, ex *ast.Expr, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx

	switch ex.Un {
	case ast.OpBox, ast.OpUniq:
		return transHeapAlloc(b, ex, d)
	}

	xd := fcx.valueDest(cx.mod.Expr(ex.X).Ty)
	b = transExpr(b, ex.X, xd)
	v := xd.result(b)
	it := fcx.ty(ex.Ty)
	ty := cx.valueTy(it)

	switch ex.Un {
	case ast.OpNeg:
		if cx.types.Kind(it) == types.KindFloat {
			negZero := fcx.f.ConstFloat(ty, math.Copysign(0, -1))
			return putImm(b, d, b.at().Bin(ir.BinFSub, ty, negZero, v))
		}
		return putImm(b, d, b.at().Bin(ir.BinSub, ty, fcx.f.ConstInt(ty, 0), v))
	case ast.OpNot:
		return putImm(b, d, b.at().Bin(ir.BinXor, ir.I1, v, fcx.f.ConstInt(ir.I1, 1)))
	case ast.OpBitNot:
		return putImm(b, d, b.at().Bin(ir.BinXor, ty, v, fcx.f.ConstInt(ty, -1)))
	}
	cx.bugf("unary operator %d reached translation", ex.Un)
	return b
}

// transHeapAlloc evaluates the operand into a temporary first, so no call
// can unwind while a half-built cell exists, then moves it into the fresh
// allocation.
func transHeapAlloc(b blockCtx, ex *ast.Expr, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	inner := cx.mod.Expr(ex.X)

	tmp := tempSlot(b, inner.Ty)
	b = transExpr(b, ex.X, saveInDest(tmp, inner.Ty))

	var cell ir.ValueID
	if ex.Un == ast.OpBox {
		tiv := getTI(b, inner.Ty)
		ba := cx.rt(rtBoxAlloc)
		cell, b = callOrInvoke(b, ba.ty, ba.fn, ir.NoValueID, []ir.ValueID{tiv})
		body := b.at().PtrOffset(cell, boxBodyOff(b, inner.Ty))
		b = moveVal(b, false, body, tmp, inner.Ty)
	} else {
		var size, align ir.ValueID
		if fcx.staticSized(inner.Ty) {
			it := fcx.ty(inner.Ty)
			size = cx.word(fcx.f, int64(cx.sizeOf(it)))
			align = cx.word(fcx.f, int64(cx.alignOf(it)))
		} else {
			size, align = fcx.dynSizeAlign(b, inner.Ty)
		}
		al := cx.rt(rtAlloc)
		cell, b = callOrInvoke(b, al.ty, al.fn, ir.NoValueID, []ir.ValueID{size, align})
		b = moveVal(b, false, cell, tmp, inner.Ty)
	}
	releaseTemp(b, tmp, inner.Ty)
	return putImm(b, d, cell)
}

func transBinary(b blockCtx, ex *ast.Expr, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	lhs := cx.mod.Expr(ex.X)
	opT := fcx.ty(lhs.Ty)

	if cx.types.Kind(opT) == types.KindNil {
		// Only equality is defined on nil, and it is a foregone
		// conclusion; the operands still run for effect.
		b = transExpr(b, ex.X, ignoreDest(lhs.Ty))
		b = transExpr(b, ex.Y, ignoreDest(cx.mod.Expr(ex.Y).Ty))
		eq := ex.Bin == ast.OpEq || ex.Bin == ast.OpLe || ex.Bin == ast.OpGe
		n := int64(0)
		if eq {
			n = 1
		}
		return putImm(b, d, fcx.f.ConstInt(ir.I1, n))
	}

	if cx.isScalar(opT) {
		ld := fcx.valueDest(lhs.Ty)
		b = transExpr(b, ex.X, ld)
		rd := fcx.valueDest(cx.mod.Expr(ex.Y).Ty)
		b = transExpr(b, ex.Y, rd)
		l, r := ld.result(b), rd.result(b)
		if ex.Bin.IsCompare() {
			return putImm(b, d, scalarCompare(b, ex.Bin, opT, l, r))
		}
		return putImm(b, d, b.at().Bin(binKindFor(cx, ex.Bin, opT), cx.valueTy(opT), l, r))
	}

	if !ex.Bin.IsCompare() {
		cx.bugf("arithmetic on %s", cx.types.String(opT))
	}
	var lo, ro operand
	b, lo = transBorrow(b, ex.X)
	b, ro = transBorrow(b, ex.Y)
	tiv := getTI(b, lhs.Ty)
	v, b := deepCompare(b, ex.Bin, tiv, lo.val, ro.val)
	return putImm(b, d, v)
}

func scalarCompare(b blockCtx, op ast.BinOp, it types.TypeID, l, r ir.ValueID) ir.ValueID {
	cx := b.fcx.cx
	switch cx.types.Kind(it) {
	case types.KindFloat:
		var p ir.FCmpPred
		switch op {
		case ast.OpEq:
			p = ir.FOeq
		case ast.OpNe:
			p = ir.FOne
		case ast.OpLt:
			p = ir.FOlt
		case ast.OpLe:
			p = ir.FOle
		case ast.OpGt:
			p = ir.FOgt
		case ast.OpGe:
			p = ir.FOge
		}
		return b.at().FCmp(p, l, r)
	case types.KindInt:
		var p ir.ICmpPred
		switch op {
		case ast.OpEq:
			p = ir.IEq
		case ast.OpNe:
			p = ir.INe
		case ast.OpLt:
			p = ir.ISlt
		case ast.OpLe:
			p = ir.ISle
		case ast.OpGt:
			p = ir.ISgt
		case ast.OpGe:
			p = ir.ISge
		}
		return b.at().ICmp(p, l, r)
	}
	// Bool, uint, raw pointers and bare discriminants order unsigned.
	var p ir.ICmpPred
	switch op {
	case ast.OpEq:
		p = ir.IEq
	case ast.OpNe:
		p = ir.INe
	case ast.OpLt:
		p = ir.IUlt
	case ast.OpLe:
		p = ir.IUle
	case ast.OpGt:
		p = ir.IUgt
	case ast.OpGe:
		p = ir.IUge
	}
	return b.at().ICmp(p, l, r)
}

func binKindFor(cx *Context, op ast.BinOp, it types.TypeID) ir.BinKind {
	k := cx.types.Kind(it)
	fl := k == types.KindFloat
	sg := k == types.KindInt
	switch op {
	case ast.OpAdd:
		if fl {
			return ir.BinFAdd
		}
		return ir.BinAdd
	case ast.OpSub:
		if fl {
			return ir.BinFSub
		}
		return ir.BinSub
	case ast.OpMul:
		if fl {
			return ir.BinFMul
		}
		return ir.BinMul
	case ast.OpDiv:
		switch {
		case fl:
			return ir.BinFDiv
		case sg:
			return ir.BinSDiv
		default:
			return ir.BinUDiv
		}
	case ast.OpRem:
		switch {
		case fl:
			return ir.BinFRem
		case sg:
			return ir.BinSRem
		default:
			return ir.BinURem
		}
	case ast.OpBitAnd:
		return ir.BinAnd
	case ast.OpBitOr:
		return ir.BinOr
	case ast.OpBitXor:
		return ir.BinXor
	case ast.OpShl:
		return ir.BinShl
	case ast.OpShr:
		if sg {
			return ir.BinAShr
		}
		return ir.BinLShr
	}
	cx.bugf("operator %d on %s", op, cx.types.String(it))
	return ir.BinAdd
}

// deepCompare orders values through the runtime. It knows eq, lt and le;
// the other operators come from negation and operand swap.
func deepCompare(b blockCtx, op ast.BinOp, tiv, l, r ir.ValueID) (ir.ValueID, blockCtx) {
	cx := b.fcx.cx
	rc := cx.rt(rtCmp)
	call := func(bb blockCtx, o int64, x, y ir.ValueID) (ir.ValueID, blockCtx) {
		args := []ir.ValueID{tiv, x, y, cx.word(bb.fcx.f, o)}
		return callOrInvoke(bb, rc.ty, rc.fn, ir.NoValueID, args)
	}
	switch op {
	case ast.OpEq:
		return call(b, 0, l, r)
	case ast.OpNe:
		v, b := call(b, 0, l, r)
		return b.at().Bin(ir.BinXor, ir.I1, v, b.fcx.f.ConstInt(ir.I1, 1)), b
	case ast.OpLt:
		return call(b, 1, l, r)
	case ast.OpLe:
		return call(b, 2, l, r)
	case ast.OpGt:
		return call(b, 1, r, l)
	case ast.OpGe:
		return call(b, 2, r, l)
	}
	cx.bugf("operator %d is not a comparison", op)
	return ir.NoValueID, b
}

// transLazy short-circuits && and ||. The right side runs in its own
// scope, so its temporaries never outlive the path that skipped them.
func transLazy(b blockCtx, ex *ast.Expr, d *dest, isAnd bool) blockCtx {
	fcx := b.fcx

	ld := fcx.valueDest(ex.Ty)
	b = transExpr(b, ex.X, ld)
	l := ld.result(b)

	name := "or"
	if isAnd {
		name = "and"
	}
	rhs := b.sub(name + "_rhs")
	join := b.sub(name + "_join")
	lhsEnd := b
	if b.live {
		if isAnd {
			b.at().CondBr(l, rhs.blk, join.blk)
		} else {
			b.at().CondBr(l, join.blk, rhs.blk)
		}
	}

	rhs.scope = fcx.pushScope(b.scope, scopeBlock)
	rd := fcx.valueDest(ex.Ty)
	rend := transExpr(rhs, ex.Y, rd)
	var rval ir.ValueID
	if rend.live {
		rval = rd.result(rend)
		rend = leaveScope(rend)
		rend.at().Br(join.blk)
	}

	var edges []ir.PhiEdge
	if lhsEnd.live {
		short := int64(1)
		if isAnd {
			short = 0
		}
		edges = append(edges, ir.PhiEdge{Val: fcx.f.ConstInt(ir.I1, short), From: lhsEnd.blk})
	}
	if rend.live {
		edges = append(edges, ir.PhiEdge{Val: rval, From: rend.blk})
	}

	out := blockCtx{fcx: fcx, blk: join.blk, scope: b.scope, live: lhsEnd.live}
	if len(edges) == 0 {
		return out
	}
	return putImm(out, d, out.at().Phi(ir.I1, edges))
}

// transAssignLike stores Y into the place X: a copy for assignment, a
// transfer for moves. Assigning from a place that is also a last use
// quietly upgrades to a move.
func transAssignLike(b blockCtx, ex *ast.Expr, alwaysMove bool) blockCtx {
	fcx := b.fcx
	cx := fcx.cx

	var dst operand
	b, dst = transLval(b, ex.X)
	y := cx.mod.Expr(ex.Y)

	if isPlace(y) {
		var src operand
		b, src = transLval(b, ex.Y)
		if alwaysMove || cx.mod.LastUse(ex.Y) {
			return moveVal(b, true, dst.val, src.val, dst.t)
		}
		return copyVal(b, true, dst.val, src, dst.t)
	}

	tmp := tempSlot(b, y.Ty)
	b = transExpr(b, ex.Y, saveInDest(tmp, y.Ty))
	b = moveVal(b, true, dst.val, tmp, dst.t)
	releaseTemp(b, tmp, y.Ty)
	return b
}

func transAssignOp(b blockCtx, ex *ast.Expr) blockCtx {
	fcx := b.fcx
	cx := fcx.cx

	var dst operand
	b, dst = transLval(b, ex.X)
	it := fcx.ty(dst.t)
	if !cx.isScalar(it) {
		cx.bugf("compound assignment on %s", cx.types.String(it))
	}
	y := cx.mod.Expr(ex.Y)
	rd := fcx.valueDest(y.Ty)
	b = transExpr(b, ex.Y, rd)

	ty := cx.valueTy(it)
	l := b.at().Load(ty, dst.val)
	v := b.at().Bin(binKindFor(cx, ex.Bin, it), ty, l, rd.result(b))
	b.at().Store(v, dst.val)
	return b
}

func transCast(b blockCtx, e ast.ExprID, ex *ast.Expr, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	src := cx.mod.Expr(ex.X)
	fromIt := fcx.ty(src.Ty)
	toIt := fcx.ty(ex.Ty)

	if cx.types.Kind(toIt) == types.KindIface {
		return transIfaceCast(b, e, ex, d)
	}
	if cx.types.Kind(fromIt) == types.KindFn && cx.types.Kind(toIt) == types.KindFn {
		return transFnPairCast(b, ex, d)
	}

	xd := fcx.valueDest(src.Ty)
	b = transExpr(b, ex.X, xd)
	v := xd.result(b)
	out := scalarCast(b, v, cx.valueTy(fromIt), cx.valueTy(toIt),
		cx.types.Kind(fromIt) == types.KindInt, cx.types.Kind(toIt) == types.KindInt)
	return putImm(b, d, out)
}

func scalarCast(b blockCtx, v ir.ValueID, from, to *ir.Type, srcSigned, dstSigned bool) ir.ValueID {
	at := b.at()
	switch {
	case ir.Equal(from, to):
		return v
	case from.Kind == ir.TInt && to == ir.I1:
		return at.ICmp(ir.INe, v, b.fcx.f.ConstInt(from, 0))
	case from.Kind == ir.TInt && to.Kind == ir.TInt:
		if to.Bits < from.Bits {
			return at.Cast(ir.CastTrunc, v, to)
		}
		if srcSigned {
			return at.Cast(ir.CastSExt, v, to)
		}
		return at.Cast(ir.CastZExt, v, to)
	case from.Kind == ir.TInt && to.Kind == ir.TFloat:
		if srcSigned {
			return at.Cast(ir.CastSIToFP, v, to)
		}
		return at.Cast(ir.CastUIToFP, v, to)
	case from.Kind == ir.TFloat && to.Kind == ir.TInt:
		if dstSigned {
			return at.Cast(ir.CastFPToSI, v, to)
		}
		return at.Cast(ir.CastFPToUI, v, to)
	case from.Kind == ir.TFloat && to.Kind == ir.TFloat:
		if to.Bits < from.Bits {
			return at.Cast(ir.CastFPTrunc, v, to)
		}
		return at.Cast(ir.CastFPExt, v, to)
	case from.Kind == ir.TPtr && to.Kind == ir.TInt:
		return at.Cast(ir.CastPtrToInt, v, to)
	case from.Kind == ir.TInt && to.Kind == ir.TPtr:
		return at.Cast(ir.CastIntToPtr, v, to)
	case from.Kind == ir.TPtr && to.Kind == ir.TPtr:
		return v
	}
	b.fcx.cx.bugf("no conversion from %s to %s", from, to)
	return ir.NoValueID
}

// transFnPairCast widens a bare function value to a closure pair with a
// null environment. Glue null-checks the environment word for this case.
func transFnPairCast(b blockCtx, ex *ast.Expr, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	src := cx.mod.Expr(ex.X)

	xd := fcx.valueDest(src.Ty)
	b = transExpr(b, ex.X, xd)
	fp := xd.result(b)

	slot := aggDest(b, d, ex.Ty)
	b.at().Store(fp, slot)
	env := b.at().PtrOffset(slot, cx.word(fcx.f, int64(cx.lay.Target.PtrSize)))
	b.at().Store(fcx.f.Null(), env)
	return b
}

// transIfaceCast boxes the value together with its descriptor and pairs
// the box with the bound's dictionary. The descriptor rides in the body so
// release never needs the static type back.
func transIfaceCast(b blockCtx, e ast.ExprID, ex *ast.Expr, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	src := cx.mod.Expr(ex.X)

	u8p := cx.types.Intern(types.MakeRawPtr(cx.types.Builtins().U8))
	bodyFields := []types.TypeID{u8p, src.Ty}
	bodyT := cx.types.Tuple(bodyFields)

	var vo operand
	b, vo = transBorrow(b, ex.X)
	tiv := getTI(b, src.Ty)
	bodyTI := getTI(b, bodyT)

	ba := cx.rt(rtBoxAlloc)
	bx, b := callOrInvoke(b, ba.ty, ba.fn, ir.NoValueID, []ir.ValueID{bodyTI})
	body := b.at().PtrOffset(bx, boxBodyOff(b, bodyT))
	b.at().Store(shareTI(b, tiv, src.Ty), body)
	vaddr := fieldAddr(b, body, bodyFields, 1)
	b = copyVal(b, false, vaddr, vo, src.Ty)

	slot := aggDest(b, d, ex.Ty)
	refs := cx.mod.DictMap[e]
	dictv := fcx.f.Null()
	if len(refs) > 0 {
		dictv = dictValue(b, refs[0])
	}
	b.at().Store(dictv, slot)
	second := b.at().PtrOffset(slot, cx.word(fcx.f, int64(cx.lay.Target.PtrSize)))
	b.at().Store(bx, second)
	return b
}

// dictValue resolves a dictionary reference to a runtime value.
func dictValue(b blockCtx, ref ast.DictRef) ir.ValueID {
	fcx := b.fcx
	cx := fcx.cx
	if ref.Param >= 0 {
		if ref.Param >= len(fcx.dicts) {
			cx.bugf("dictionary parameter %d in %s", ref.Param, fcx.f.Name)
		}
		return fcx.dicts[ref.Param]
	}
	return fcx.f.GlobalRef(cx.implDict(ref.Impl))
}

// aggDest picks the slot an aggregate is built into. Ignored aggregates go
// to a scope-owned temporary that dies with the scope.
func aggDest(b blockCtx, d *dest, t types.TypeID) ir.ValueID {
	if d.kind == destSaveIn {
		return d.slot
	}
	fcx := b.fcx
	slot := fcx.allocaFor(t)
	if fcx.cx.needsLifecycle(fcx.ty(t)) {
		fcx.addClean(b.scope, slot, t, false)
	}
	return slot
}

// fillField builds one aggregate field and shields the completed value
// while its siblings translate.
func fillField(b blockCtx, addr ir.ValueID, e ast.ExprID, guards *[]ir.ValueID) blockCtx {
	fcx := b.fcx
	fe := fcx.cx.mod.Expr(e)
	b = transExpr(b, e, saveInDest(addr, fe.Ty))
	if fcx.cx.needsLifecycle(fcx.ty(fe.Ty)) {
		fcx.addCleanTemp(b.scope, addr, fe.Ty, false)
		*guards = append(*guards, addr)
	}
	return b
}

func revokeGuards(b blockCtx, guards []ir.ValueID) {
	for _, g := range guards {
		b.fcx.revokeClean(b.scope, g)
	}
}

func transTup(b blockCtx, ex *ast.Expr, d *dest) blockCtx {
	cx := b.fcx.cx
	info, ok := cx.types.TupleInfo(ex.Ty)
	if !ok {
		cx.bugf("tuple literal of %s", cx.types.String(ex.Ty))
	}
	slot := aggDest(b, d, ex.Ty)
	var guards []ir.ValueID
	for i, aE := range ex.Args {
		addr := fieldAddr(b, slot, info.Elems, i)
		b = fillField(b, addr, aE, &guards)
	}
	revokeGuards(b, guards)
	return b
}

func transRec(b blockCtx, ex *ast.Expr, d *dest) blockCtx {
	cx := b.fcx.cx
	info, ok := cx.types.RecInfo(ex.Ty)
	if !ok {
		cx.bugf("record literal of %s", cx.types.String(ex.Ty))
	}
	ftypes := make([]types.TypeID, len(info.Fields))
	for i, f := range info.Fields {
		ftypes[i] = f.Type
	}

	var base operand
	hasBase := ex.X != ast.NoExprID
	if hasBase {
		b, base = transBorrow(b, ex.X)
	}

	slot := aggDest(b, d, ex.Ty)
	var guards []ir.ValueID
	for i, f := range info.Fields {
		addr := fieldAddr(b, slot, ftypes, i)
		if e, ok := recInit(ex.Fields, f.Name); ok {
			b = fillField(b, addr, e, &guards)
			continue
		}
		if !hasBase {
			cx.bugf("record literal misses field %s", f.Name)
		}
		srcAddr := fieldAddr(b, base.val, ftypes, i)
		b = copyVal(b, false, addr, memOperand(srcAddr, f.Type), f.Type)
		if cx.needsLifecycle(b.fcx.ty(f.Type)) {
			b.fcx.addCleanTemp(b.scope, addr, f.Type, false)
			guards = append(guards, addr)
		}
	}
	revokeGuards(b, guards)
	return b
}

func recInit(inits []ast.FieldInit, name string) (ast.ExprID, bool) {
	for _, fi := range inits {
		if fi.Name == name {
			return fi.Expr, true
		}
	}
	return ast.NoExprID, false
}

// transVecLit allocates the cell and builds the elements in place. The
// runtime hands the data back zeroed, so an unwind mid-build walks null
// elements, not garbage.
func transVecLit(b blockCtx, ex *ast.Expr, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	elemT := cx.types.Elem(ex.Ty)

	tiv := getTI(b, elemT)
	va := cx.rt(rtVecAlloc)
	args := []ir.ValueID{tiv, cx.word(fcx.f, int64(len(ex.Args)))}
	cell, b := callOrInvoke(b, va.ty, va.fn, ir.NoValueID, args)
	fcx.addCleanTemp(b.scope, cell, ex.Ty, true)

	if fcx.staticSized(elemT) {
		it := fcx.ty(elemT)
		esz := cx.sizeOf(it)
		dataOff := cx.lay.VecDataOffset(cx.alignOf(it))
		for i, aE := range ex.Args {
			addr := b.at().PtrOffset(cell, cx.word(fcx.f, int64(dataOff+i*esz)))
			fe := cx.mod.Expr(aE)
			b = transExpr(b, aE, saveInDest(addr, fe.Ty))
		}
	} else {
		esz, eal := fcx.dynSizeAlign(b, elemT)
		two := cx.word(fcx.f, int64(2*cx.lay.Target.WordSize))
		data := b.at().PtrOffset(cell, alignToDyn(b, two, eal))
		for i, aE := range ex.Args {
			off := b.at().Bin(ir.BinMul, cx.wordTy, esz, cx.word(fcx.f, int64(i)))
			addr := b.at().PtrOffset(data, off)
			fe := cx.mod.Expr(aE)
			b = transExpr(b, aE, saveInDest(addr, fe.Ty))
		}
	}

	fcx.revokeClean(b.scope, cell)
	return putImm(b, d, cell)
}

// transVariantCtor builds an enum value. Bare discriminant enums are a
// constant; degenerate enums skip the discriminant entirely.
func transVariantCtor(b blockCtx, t types.TypeID, vIdx int, args []ast.ExprID, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	it := fcx.ty(t)
	vars := cx.types.EnumVariants(t)
	if vIdx >= len(vars) {
		cx.bugf("variant %d of %s", vIdx, cx.types.String(t))
	}
	v := vars[vIdx]

	if cx.types.EnumIsCLike(it) {
		return putImm(b, d, fcx.f.ConstInt(cx.wordTy, v.Discr))
	}

	slot := aggDest(b, d, t)
	base := slot
	if !cx.types.EnumIsDegen(it) {
		b.at().Store(fcx.f.ConstInt(cx.wordTy, v.Discr), slot)
		base = payloadAddr(b, slot, it)
	}

	var guards []ir.ValueID
	for i, aE := range args {
		addr := fieldAddr(b, base, v.Args, i)
		b = fillField(b, addr, aE, &guards)
	}
	revokeGuards(b, guards)
	return b
}
