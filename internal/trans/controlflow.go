package trans

import (
	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/types"
)

// transBlockValue runs a block in a child scope and produces its trailing
// value into d before the scope's obligations run.
func transBlockValue(b blockCtx, blkID ast.BlockID, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	blk := cx.mod.Block(blkID)

	inner := b
	inner.scope = fcx.pushScope(b.scope, scopeBlock)
	for _, sid := range blk.Stmts {
		inner = transStmt(inner, sid)
	}
	if blk.Value != ast.NoExprID {
		inner = transExpr(inner, blk.Value, d)
	}
	return leaveScope(inner)
}

func transStmt(b blockCtx, sid ast.StmtID) blockCtx {
	cx := b.fcx.cx
	st := cx.mod.Stmt(sid)
	switch st.Kind {
	case ast.StmtLet:
		return transLet(b, st)
	case ast.StmtExpr:
		e := cx.mod.Expr(st.E)
		return transExpr(b, st.E, ignoreDest(e.Ty))
	}
	cx.bugf("statement kind %d reached translation", st.Kind)
	return b
}

// transLet materializes a local. The cleanup is registered only once the
// initializer has fully run; declared-only locals are zeroed so their
// eventual drop finds nothing.
func transLet(b blockCtx, st *ast.Stmt) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	if fcx.def == nil {
		cx.bugf("let statement in a synthesized function")
	}
	l := &fcx.def.Locals[st.Local]

	slot := fcx.allocaFor(l.Ty)
	fcx.locals[st.Local] = slot
	if st.Init != ast.NoExprID {
		b = transExpr(b, st.Init, saveInDest(slot, l.Ty))
	} else {
		b = zeroSlot(b, slot, l.Ty)
	}
	if cx.needsLifecycle(fcx.ty(l.Ty)) {
		fcx.addClean(b.scope, slot, l.Ty, false)
	}
	return b
}

func transIf(b blockCtx, ex *ast.Expr, d *dest) blockCtx {
	fcx := b.fcx
	cx := fcx.cx

	cd := fcx.valueDest(cx.mod.Expr(ex.X).Ty)
	b = transExpr(b, ex.X, cd)
	cond := cd.result(b)

	hasElse := ex.Else != ast.NoExprID
	thenB := b.sub("if_then")
	var elseB blockCtx
	if hasElse {
		elseB = b.sub("if_else")
	}
	join := b.sub("if_join")

	if b.live {
		if hasElse {
			b.at().CondBr(cond, thenB.blk, elseB.blk)
		} else {
			b.at().CondBr(cond, thenB.blk, join.blk)
		}
	}

	var arms []*dest
	var preds []blockCtx

	td := dupForJoin(d)
	tEnd := transBlockValue(thenB, ex.Blk, td)
	if tEnd.live {
		tEnd.at().Br(join.blk)
		arms = append(arms, td)
		preds = append(preds, tEnd)
	}

	if hasElse {
		ed := dupForJoin(d)
		eEnd := transExpr(elseB, ex.Else, ed)
		if eEnd.live {
			eEnd.at().Br(join.blk)
			arms = append(arms, ed)
			preds = append(preds, eEnd)
		}
	}

	out := blockCtx{fcx: fcx, blk: join.blk, scope: b.scope, live: (b.live && !hasElse) || len(preds) > 0}
	return joinReturns(out, d, arms, preds)
}

func transWhile(b blockCtx, ex *ast.Expr) blockCtx {
	fcx := b.fcx
	cx := fcx.cx

	cond := b.sub("while_cond")
	body := b.sub("while_body")
	next := b.sub("while_next")
	if b.live {
		b.at().Br(cond.blk)
	}

	cd := fcx.valueDest(cx.mod.Expr(ex.X).Ty)
	cEnd := transExpr(cond, ex.X, cd)
	if cEnd.live {
		cEnd.at().CondBr(cd.result(cEnd), body.blk, next.blk)
	}

	body.scope = fcx.pushLoopScope(b.scope, next.blk, cond.blk)
	bEnd := transBlockValue(body, ex.Blk, ignoreDest(cx.types.Builtins().Nil))
	if bEnd.live {
		bEnd.at().Br(cond.blk)
	}
	return next
}

func transDoWhile(b blockCtx, ex *ast.Expr) blockCtx {
	fcx := b.fcx
	cx := fcx.cx

	body := b.sub("do_body")
	cond := b.sub("do_cond")
	next := b.sub("do_next")
	if b.live {
		b.at().Br(body.blk)
	}

	body.scope = fcx.pushLoopScope(b.scope, next.blk, cond.blk)
	bEnd := transBlockValue(body, ex.Blk, ignoreDest(cx.types.Builtins().Nil))
	if bEnd.live {
		bEnd.at().Br(cond.blk)
	}

	cd := fcx.valueDest(cx.mod.Expr(ex.X).Ty)
	cEnd := transExpr(cond, ex.X, cd)
	if cEnd.live {
		cEnd.at().CondBr(cd.result(cEnd), body.blk, next.blk)
	}
	return next
}

// transFor walks a sequence by pointer stride. Each iteration copies the
// element into the loop variable and drops it when the iteration ends,
// whether by falling off the body, cont, or break. The fill header counts
// bytes; strings hold a terminator the walk must not visit.
func transFor(b blockCtx, ex *ast.Expr) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	seq := cx.mod.Expr(ex.X)
	seqT := fcx.ty(seq.Ty)

	var so operand
	b, so = transBorrow(b, ex.X)
	cell := b.at().Load(ir.Ptr, so.val)
	fill := b.at().Load(cx.wordTy, cell)

	isStr := cx.types.Kind(seqT) == types.KindStr
	elemT := cx.types.Builtins().U8
	if !isStr {
		elemT = cx.types.Elem(seq.Ty)
	}

	var esz, dataOff ir.ValueID
	if fcx.staticSized(elemT) {
		it := fcx.ty(elemT)
		esz = cx.word(fcx.f, int64(cx.sizeOf(it)))
		dataOff = cx.word(fcx.f, int64(cx.lay.VecDataOffset(cx.alignOf(it))))
	} else {
		var eal ir.ValueID
		esz, eal = fcx.dynSizeAlign(b, elemT)
		two := cx.word(fcx.f, int64(2*cx.lay.Target.WordSize))
		dataOff = alignToDyn(b, two, eal)
	}
	data := b.at().PtrOffset(cell, dataOff)
	extent := fill
	if isStr {
		extent = b.at().Bin(ir.BinSub, cx.wordTy, fill, cx.word(fcx.f, 1))
	}
	end := b.at().PtrOffset(data, extent)

	sa := blockCtx{fcx: fcx, blk: fcx.staticAllocas, scope: fcx.fnScope, live: true}
	cur := sa.at().Alloca(ir.Ptr)
	b.at().Store(data, cur)

	cond := b.sub("for_cond")
	body := b.sub("for_body")
	incr := b.sub("for_incr")
	next := b.sub("for_next")
	if b.live {
		b.at().Br(cond.blk)
	}

	p := cond.at().Load(ir.Ptr, cur)
	more := cond.at().ICmp(ir.IUlt, p, end)
	cond.at().CondBr(more, body.blk, next.blk)

	q := incr.at().Load(ir.Ptr, cur)
	incr.at().Store(incr.at().PtrOffset(q, esz), cur)
	incr.at().Br(cond.blk)

	loop := fcx.pushLoopScope(b.scope, next.blk, incr.blk)
	body.scope = fcx.pushScope(loop, scopeBlock)

	slot := fcx.allocaFor(elemT)
	fcx.locals[ex.Local] = slot
	body = copyVal(body, false, slot, memOperand(p, elemT), elemT)
	if cx.needsLifecycle(fcx.ty(elemT)) {
		fcx.addClean(body.scope, slot, elemT, false)
	}

	bEnd := transBlockValue(body, ex.Blk, ignoreDest(cx.types.Builtins().Nil))
	bEnd = leaveScope(bEnd)
	if bEnd.live {
		bEnd.at().Br(incr.blk)
	}
	return next
}

func transBreak(b blockCtx) blockCtx {
	ls := b.fcx.loopScopeOf(b.scope)
	return cleanupAndLeave(b, ls, b.fcx.scopes[ls].breakBlk)
}

func transCont(b blockCtx) blockCtx {
	ls := b.fcx.loopScopeOf(b.scope)
	return cleanupAndLeave(b, ls, b.fcx.scopes[ls].contBlk)
}

// transRet fills the return slot, then leaves through every pending
// cleanup on the way out of the function.
func transRet(b blockCtx, ex *ast.Expr) blockCtx {
	fcx := b.fcx
	cx := fcx.cx

	if ex.X != ast.NoExprID {
		r := cx.mod.Expr(ex.X)
		it := fcx.ty(r.Ty)
		switch {
		case cx.types.Kind(it) == types.KindNil || cx.types.Kind(it) == types.KindBot:
			b = transExpr(b, ex.X, ignoreDest(r.Ty))
		case cx.isImmediate(it):
			vd := fcx.valueDest(r.Ty)
			b = transExpr(b, ex.X, vd)
			b.at().Store(vd.result(b), fcx.retSlot)
		default:
			b = transExpr(b, ex.X, saveInDest(fcx.retSlot, r.Ty))
		}
	}
	return cleanupAndLeave(b, fcx.fnScope, fcx.retBlock)
}
