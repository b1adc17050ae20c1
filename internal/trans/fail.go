package trans

import (
	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/source"
)

// emitFailPtr lowers a target-program failure: a runtime call carrying
// the message and source position, then divergence. The call unwinds
// through any pending cleanups.
func emitFailPtr(b blockCtx, msg ir.ValueID, span source.Span) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	file := cx.mod.Files.Get(span.File).Path
	start, _ := cx.mod.Files.Resolve(span)
	fail := cx.rt(rtFail)
	args := []ir.ValueID{msg, fcx.f.GlobalRef(cx.cstr(file)), cx.word(fcx.f, int64(start.Line))}
	_, b = callOrInvoke(b, fail.ty, fail.fn, ir.NoValueID, args)
	b.at().Unreachable()
	return b.dead()
}

func transFail(b blockCtx, ex *ast.Expr) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	if ex.X == ast.NoExprID {
		return emitFailPtr(b, fcx.f.GlobalRef(cx.cstr("explicit failure")), ex.Span)
	}
	mx := cx.mod.Expr(ex.X)
	if mx.Kind == ast.ExprStrLit {
		return emitFailPtr(b, fcx.f.GlobalRef(cx.cstr(mx.Str)), ex.Span)
	}
	d := fcx.valueDest(mx.Ty)
	b = transExpr(b, ex.X, d)
	// A str cell is NUL-terminated, so its data doubles as the message.
	data := b.at().PtrOffset(d.result(b), cx.word(fcx.f, int64(cx.lay.VecDataOffset(1))))
	return emitFailPtr(b, data, ex.Span)
}

// transCheck fails with the predicate's source text when it is false.
// Claimed checks disappear entirely under the trusting build mode.
func transCheck(b blockCtx, ex *ast.Expr) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	if ex.Claim && cx.trustClaims {
		return b
	}
	pred := cx.mod.Expr(ex.X)
	d := fcx.valueDest(pred.Ty)
	b = transExpr(b, ex.X, d)
	cond := d.result(b)

	fb := b.sub("check_fail")
	cont := b.sub("check_ok")
	b.at().CondBr(cond, cont.blk, fb.blk)
	msg := cx.mod.Files.Snippet(pred.Span)
	if msg == "" {
		msg = "check"
	}
	emitFailPtr(fb, fb.fcx.f.GlobalRef(cx.cstr(msg+" failed")), ex.Span)
	return cont
}

// boundsCheck diverges into a failure when ok is false and continues
// translation past it otherwise.
func boundsCheck(b blockCtx, ok ir.ValueID, span source.Span) blockCtx {
	if !b.live {
		return b
	}
	fb := b.sub("bounds_fail")
	cont := b.sub("bounds_ok")
	b.at().CondBr(ok, cont.blk, fb.blk)
	emitFailPtr(fb, fb.fcx.f.GlobalRef(b.fcx.cx.cstr("index out of bounds")), span)
	return cont
}

// transLog guards the runtime call with a load of the module log level,
// so disabled levels cost one compare. The logged value lives in its own
// scope and dies right after the call.
func transLog(b blockCtx, ex *ast.Expr) blockCtx {
	fcx := b.fcx
	cx := fcx.cx
	lvlT := cx.mod.Expr(ex.X).Ty
	lvlD := fcx.valueDest(lvlT)
	b = transExpr(b, ex.X, lvlD)
	lvl := widenToWord(b, lvlD.result(b), lvlT)

	cur := b.at().Load(cx.wordTy, fcx.f.GlobalRef(cx.logLevelGlobal()))
	cond := b.at().ICmp(ir.IUge, cur, lvl)
	return withCond(b, cond, func(tb blockCtx) blockCtx {
		tb.scope = fcx.pushScope(tb.scope, scopeBlock)
		var vo operand
		tb, vo = transBorrow(tb, ex.Y)
		tiv := getTI(tb, cx.mod.Expr(ex.Y).Ty)
		lg := cx.rt(rtLog)
		_, tb = callOrInvoke(tb, lg.ty, lg.fn, ir.NoValueID, []ir.ValueID{tiv, vo.val, lvl})
		return leaveScope(tb)
	})
}

// logLevelGlobal is the per-module threshold the runtime adjusts at
// startup; generated code only reads it.
func (cx *Context) logLevelGlobal() ir.GlobalID {
	if g, ok := cx.out.GlobalByName("ember_loglevel"); ok {
		return g
	}
	return cx.out.AddGlobal("ember_loglevel", cx.wordTy, ir.InitInt(cx.wordTy, 1))
}
