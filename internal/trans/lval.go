package trans

import (
	"strconv"

	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/types"
)

// transLval translates a place expression to the address of its value.
func transLval(b blockCtx, e ast.ExprID) (blockCtx, operand) {
	fcx := b.fcx
	cx := fcx.cx
	ex := cx.mod.Expr(e)

	switch ex.Kind {
	case ast.ExprLocal:
		slot, ok := fcx.locals[ex.Local]
		if !ok {
			cx.bugf("local %d used before it exists", ex.Local)
		}
		return b, memOperand(slot, ex.Ty)

	case ast.ExprField:
		return transFieldLval(b, ex)

	case ast.ExprIndex:
		return transIndexLval(b, ex)

	case ast.ExprUnary:
		if ex.Un == ast.OpDeref {
			var base operand
			b, base = transBorrow(b, ex.X)
			return b, memOperand(derefAddr(b, base), ex.Ty)
		}
	}
	cx.bugf("expression kind %d is not a place", ex.Kind)
	return b, operand{}
}

// transBorrow produces the address of an expression's value without
// claiming a reference: places are addressed in situ, everything else is
// evaluated into a scope-guarded temporary.
func transBorrow(b blockCtx, e ast.ExprID) (blockCtx, operand) {
	cx := b.fcx.cx
	ex := cx.mod.Expr(e)
	if isPlace(ex) {
		return transLval(b, e)
	}
	slot := tempSlot(b, ex.Ty)
	b = transExpr(b, e, saveInDest(slot, ex.Ty))
	return b, memOperand(slot, ex.Ty)
}

// derefAddr turns the address of a pointer value into the address of its
// pointee, stepping over the box header when there is one.
func derefAddr(b blockCtx, ptr operand) ir.ValueID {
	fcx := b.fcx
	cx := fcx.cx
	p := b.at().Load(ir.Ptr, ptr.val)
	it := fcx.ty(ptr.t)
	tt, _ := cx.types.Lookup(it)
	switch tt.Kind {
	case types.KindBox:
		return b.at().PtrOffset(p, boxBodyOff(b, tt.Elem))
	case types.KindUniq, types.KindRawPtr:
		return p
	}
	cx.bugf("dereferencing %s", cx.types.String(it))
	return ir.NoValueID
}

func transFieldLval(b blockCtx, ex *ast.Expr) (blockCtx, operand) {
	fcx := b.fcx
	cx := fcx.cx
	var base operand
	b, base = transBorrow(b, ex.X)
	addr := base.val
	bt := base.t

	// Projection looks through pointers.
	for {
		it := fcx.ty(bt)
		tt, _ := cx.types.Lookup(it)
		if tt.Kind == types.KindBox {
			p := b.at().Load(ir.Ptr, addr)
			addr = b.at().PtrOffset(p, boxBodyOff(b, tt.Elem))
			bt = tt.Elem
			continue
		}
		if tt.Kind == types.KindUniq {
			addr = b.at().Load(ir.Ptr, addr)
			bt = tt.Elem
			continue
		}
		break
	}

	it := fcx.ty(bt)
	switch cx.types.Kind(it) {
	case types.KindRec:
		info, _ := cx.types.RecInfo(it)
		fields := make([]types.TypeID, len(info.Fields))
		idx := -1
		for i, f := range info.Fields {
			fields[i] = f.Type
			if f.Name == ex.Name {
				idx = i
			}
		}
		if idx < 0 {
			cx.bugf("no field %q in %s", ex.Name, cx.types.String(it))
		}
		return b, memOperand(fieldAddr(b, addr, fields, idx), ex.Ty)

	case types.KindTup:
		info, _ := cx.types.TupleInfo(it)
		idx, err := strconv.Atoi(ex.Name)
		if err != nil || idx < 0 || idx >= len(info.Elems) {
			cx.bugf("no element %q in %s", ex.Name, cx.types.String(it))
		}
		return b, memOperand(fieldAddr(b, addr, info.Elems, idx), ex.Ty)
	}
	cx.bugf("field access on %s", cx.types.String(it))
	return b, operand{}
}

func transIndexLval(b blockCtx, ex *ast.Expr) (blockCtx, operand) {
	fcx := b.fcx
	cx := fcx.cx
	var seq operand
	b, seq = transBorrow(b, ex.X)
	cell := b.at().Load(ir.Ptr, seq.val)

	idxTy := cx.mod.Expr(ex.Y).Ty
	idxD := fcx.valueDest(idxTy)
	b = transExpr(b, ex.Y, idxD)
	idx := widenToWord(b, idxD.result(b), idxTy)

	st := fcx.ty(seq.t)
	tt, _ := cx.types.Lookup(st)
	fill := b.at().Load(cx.wordTy, cell)

	var off, limit, dataOff ir.ValueID
	if tt.Kind == types.KindStr {
		// The trailing NUL is storage, not content.
		off = idx
		limit = b.at().Bin(ir.BinSub, cx.wordTy, fill, cx.word(fcx.f, 1))
		dataOff = cx.word(fcx.f, int64(cx.lay.VecDataOffset(1)))
	} else {
		esz, eal := fcx.dynSizeAlign(b, tt.Elem)
		off = b.at().Bin(ir.BinMul, cx.wordTy, idx, esz)
		limit = fill
		if cx.lay.Static(tt.Elem) {
			al, err := cx.lay.AlignOf(tt.Elem)
			if err != nil {
				cx.bugf("vec elem layout: %v", err)
			}
			dataOff = cx.word(fcx.f, int64(cx.lay.VecDataOffset(al)))
		} else {
			two := cx.word(fcx.f, int64(2*cx.lay.Target.WordSize))
			dataOff = alignToDyn(b, two, eal)
		}
	}

	ok := b.at().ICmp(ir.IUlt, off, limit)
	b = boundsCheck(b, ok, ex.Span)
	data := b.at().PtrOffset(cell, dataOff)
	return b, memOperand(b.at().PtrOffset(data, off), ex.Ty)
}

// widenToWord brings an integer value to word width.
func widenToWord(b blockCtx, v ir.ValueID, t types.TypeID) ir.ValueID {
	cx := b.fcx.cx
	if b.fcx.f.TypeOf(v) == cx.wordTy {
		return v
	}
	op := ir.CastZExt
	if cx.types.Kind(b.fcx.ty(t)) == types.KindInt {
		op = ir.CastSExt
	}
	return b.at().Cast(op, v, cx.wordTy)
}
