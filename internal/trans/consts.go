package trans

import (
	"ember/internal/ast"
	"ember/internal/ir"
)

// cstr interns a NUL-terminated byte string and returns its global.
func (cx *Context) cstr(s string) ir.GlobalID {
	if g, ok := cx.cstrs[s]; ok {
		return g
	}
	data := append([]byte(s), 0)
	g := cx.out.AddGlobal(cx.uniqueSym(".str"), ir.ArrayOf(ir.I8, int64(len(data))), ir.InitBytes(data))
	gd := cx.out.Global(g)
	gd.Const = true
	gd.Internal = true
	cx.cstrs[s] = g
	cx.stats.CStrings++
	return g
}

type foldKind uint8

const (
	foldInt foldKind = iota
	foldUint
	foldFloat
	foldBool
	foldStr
)

// foldVal is a module constant folded down to a literal.
type foldVal struct {
	kind foldKind
	i    int64
	u    uint64
	fl   float64
	bv   bool
	s    string
}

// foldConst folds the initializer of module constant idx, memoized.
// Initializers are restricted upstream to literal arithmetic, so a fold
// that fails is a bug on our side of the fence.
func (cx *Context) foldConst(idx int32) foldVal {
	if v, ok := cx.constVals[idx]; ok {
		return v
	}
	cd := &cx.mod.Consts[idx]
	v, ok := cx.foldExpr(cd.Init)
	if !ok {
		cx.bugf("constant %s does not fold", cd.Name)
	}
	cx.constVals[idx] = v
	return v
}

func (cx *Context) foldExpr(e ast.ExprID) (foldVal, bool) {
	ex := cx.mod.Expr(e)
	switch ex.Kind {
	case ast.ExprIntLit:
		return foldVal{kind: foldInt, i: ex.Int}, true
	case ast.ExprUintLit:
		return foldVal{kind: foldUint, u: ex.Uint}, true
	case ast.ExprFloatLit:
		return foldVal{kind: foldFloat, fl: ex.Float}, true
	case ast.ExprBoolLit:
		return foldVal{kind: foldBool, bv: ex.Bool}, true
	case ast.ExprStrLit:
		return foldVal{kind: foldStr, s: ex.Str}, true

	case ast.ExprGlobal:
		def := cx.mod.Def(ex.Def)
		if def.Kind != ast.DefConst {
			return foldVal{}, false
		}
		return cx.foldConst(def.Const), true

	case ast.ExprUnary:
		x, ok := cx.foldExpr(ex.X)
		if !ok {
			return foldVal{}, false
		}
		switch ex.Un {
		case ast.OpNeg:
			switch x.kind {
			case foldInt:
				x.i = -x.i
				return x, true
			case foldFloat:
				x.fl = -x.fl
				return x, true
			}
		case ast.OpNot:
			if x.kind == foldBool {
				x.bv = !x.bv
				return x, true
			}
		case ast.OpBitNot:
			switch x.kind {
			case foldInt:
				x.i = ^x.i
				return x, true
			case foldUint:
				x.u = ^x.u
				return x, true
			}
		}
		return foldVal{}, false

	case ast.ExprBinary:
		l, ok := cx.foldExpr(ex.X)
		if !ok {
			return foldVal{}, false
		}
		r, ok := cx.foldExpr(ex.Y)
		if !ok || l.kind != r.kind {
			return foldVal{}, false
		}
		return foldBinary(ex.Bin, l, r)
	}
	return foldVal{}, false
}

func foldBinary(op ast.BinOp, l, r foldVal) (foldVal, bool) {
	if op.IsCompare() {
		return foldCompare(op, l, r)
	}
	switch l.kind {
	case foldInt:
		switch op {
		case ast.OpAdd:
			l.i += r.i
		case ast.OpSub:
			l.i -= r.i
		case ast.OpMul:
			l.i *= r.i
		case ast.OpDiv:
			if r.i == 0 {
				return foldVal{}, false
			}
			l.i /= r.i
		case ast.OpRem:
			if r.i == 0 {
				return foldVal{}, false
			}
			l.i %= r.i
		case ast.OpBitAnd:
			l.i &= r.i
		case ast.OpBitOr:
			l.i |= r.i
		case ast.OpBitXor:
			l.i ^= r.i
		case ast.OpShl:
			l.i <<= uint64(r.i)
		case ast.OpShr:
			l.i >>= uint64(r.i)
		default:
			return foldVal{}, false
		}
		return l, true
	case foldUint:
		switch op {
		case ast.OpAdd:
			l.u += r.u
		case ast.OpSub:
			l.u -= r.u
		case ast.OpMul:
			l.u *= r.u
		case ast.OpDiv:
			if r.u == 0 {
				return foldVal{}, false
			}
			l.u /= r.u
		case ast.OpRem:
			if r.u == 0 {
				return foldVal{}, false
			}
			l.u %= r.u
		case ast.OpBitAnd:
			l.u &= r.u
		case ast.OpBitOr:
			l.u |= r.u
		case ast.OpBitXor:
			l.u ^= r.u
		case ast.OpShl:
			l.u <<= r.u
		case ast.OpShr:
			l.u >>= r.u
		default:
			return foldVal{}, false
		}
		return l, true
	case foldFloat:
		switch op {
		case ast.OpAdd:
			l.fl += r.fl
		case ast.OpSub:
			l.fl -= r.fl
		case ast.OpMul:
			l.fl *= r.fl
		case ast.OpDiv:
			l.fl /= r.fl
		default:
			return foldVal{}, false
		}
		return l, true
	}
	return foldVal{}, false
}

func foldCompare(op ast.BinOp, l, r foldVal) (foldVal, bool) {
	var res, ok bool
	switch l.kind {
	case foldInt:
		res, ok = cmpOrdered(op, l.i, r.i)
	case foldUint:
		res, ok = cmpOrdered(op, l.u, r.u)
	case foldFloat:
		res, ok = cmpOrdered(op, l.fl, r.fl)
	case foldStr:
		res, ok = cmpOrdered(op, l.s, r.s)
	case foldBool:
		switch op {
		case ast.OpEq:
			res, ok = l.bv == r.bv, true
		case ast.OpNe:
			res, ok = l.bv != r.bv, true
		}
	}
	if !ok {
		return foldVal{}, false
	}
	return foldVal{kind: foldBool, bv: res}, true
}

func cmpOrdered[T int64 | uint64 | float64 | string](op ast.BinOp, l, r T) (bool, bool) {
	switch op {
	case ast.OpEq:
		return l == r, true
	case ast.OpNe:
		return l != r, true
	case ast.OpLt:
		return l < r, true
	case ast.OpLe:
		return l <= r, true
	case ast.OpGt:
		return l > r, true
	case ast.OpGe:
		return l >= r, true
	}
	return false, false
}

// putStrValue materializes an owned str with the given content.
func putStrValue(b blockCtx, d *dest, s string) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	sn := cx.rt(rtStrNew)
	args := []ir.ValueID{fcx.f.GlobalRef(cx.cstr(s)), cx.word(fcx.f, int64(len(s)))}
	v, b := callOrInvoke(b, sn.ty, sn.fn, ir.NoValueID, args)
	return putImm(b, d, v)
}

// putFold emits a folded constant into the destination.
func putFold(b blockCtx, d *dest, fv foldVal) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	switch fv.kind {
	case foldStr:
		return putStrValue(b, d, fv.s)
	case foldBool:
		n := int64(0)
		if fv.bv {
			n = 1
		}
		return putImm(b, d, fcx.f.ConstInt(ir.I1, n))
	case foldFloat:
		return putImm(b, d, fcx.f.ConstFloat(cx.valueTy(fcx.ty(d.t)), fv.fl))
	case foldUint:
		return putImm(b, d, fcx.f.ConstInt(cx.valueTy(fcx.ty(d.t)), int64(fv.u)))
	default:
		return putImm(b, d, fcx.f.ConstInt(cx.valueTy(fcx.ty(d.t)), fv.i))
	}
}
