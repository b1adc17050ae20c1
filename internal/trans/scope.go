package trans

import (
	"ember/internal/ir"
	"ember/internal/types"
)

type scopeKind uint8

const (
	scopeFn scopeKind = iota
	scopeBlock
	scopeLoop
)

// cleanup is one deferred obligation of a scope. Slots hold values in
// memory; immediates are held directly. Temporaries may be revoked when
// ownership moves somewhere safer.
type cleanup struct {
	slot ir.ValueID // pointer to the value, or the immediate itself
	t    types.TypeID
	imm  bool // slot is the value, not its address
	temp bool
}

// cleanupPath caches one emitted cleanup chain of a scope, keyed by where
// the chain leaves to. NoBlockID keys the resume (unwinding) chain.
type cleanupPath struct {
	dest  ir.BlockID
	entry ir.BlockID
}

type scopeData struct {
	parent int
	kind   scopeKind

	cleanups []cleanup

	// Caches, reset whenever the cleanup set changes.
	paths      []cleanupPath
	landingPad ir.BlockID

	// Loop scopes only.
	breakBlk ir.BlockID
	contBlk  ir.BlockID
}

func (fcx *funcCtx) pushScope(parent int, kind scopeKind) int {
	fcx.scopes = append(fcx.scopes, scopeData{
		parent:     parent,
		kind:       kind,
		landingPad: ir.NoBlockID,
		breakBlk:   ir.NoBlockID,
		contBlk:    ir.NoBlockID,
	})
	return len(fcx.scopes) - 1
}

func (fcx *funcCtx) pushLoopScope(parent int, breakBlk, contBlk ir.BlockID) int {
	s := fcx.pushScope(parent, scopeLoop)
	fcx.scopes[s].breakBlk = breakBlk
	fcx.scopes[s].contBlk = contBlk
	return s
}

// scopeCleanChanged drops the scope's cached exit chains; they would miss
// the new cleanup (or run a revoked one).
func (fcx *funcCtx) scopeCleanChanged(s int) {
	sc := &fcx.scopes[s]
	sc.paths = nil
	sc.landingPad = ir.NoBlockID
}

func (fcx *funcCtx) addClean(s int, slot ir.ValueID, t types.TypeID, imm bool) {
	if !fcx.cx.needsLifecycle(fcx.ty(t)) {
		return
	}
	fcx.scopes[s].cleanups = append(fcx.scopes[s].cleanups, cleanup{slot: slot, t: t, imm: imm})
	fcx.scopeCleanChanged(s)
}

// addCleanTemp guards a partially built value; the producer revokes it
// once ownership lands in a destination.
func (fcx *funcCtx) addCleanTemp(s int, slot ir.ValueID, t types.TypeID, imm bool) {
	if !fcx.cx.needsLifecycle(fcx.ty(t)) {
		return
	}
	fcx.scopes[s].cleanups = append(fcx.scopes[s].cleanups, cleanup{slot: slot, t: t, imm: imm, temp: true})
	fcx.scopeCleanChanged(s)
}

// revokeClean removes the temporary cleanup registered for v, searching
// outward from scope s.
func (fcx *funcCtx) revokeClean(s int, v ir.ValueID) {
	for cur := s; cur >= 0; cur = fcx.scopes[cur].parent {
		sc := &fcx.scopes[cur]
		for i, c := range sc.cleanups {
			if c.temp && c.slot == v {
				sc.cleanups = append(sc.cleanups[:i], sc.cleanups[i+1:]...)
				fcx.scopeCleanChanged(cur)
				return
			}
		}
	}
	fcx.cx.bugf("revoking a cleanup that was never added")
}

// emitCleanups runs a scope's obligations newest-first.
func emitCleanups(b blockCtx, sc *scopeData) blockCtx {
	for i := len(sc.cleanups) - 1; i >= 0; i-- {
		c := sc.cleanups[i]
		if c.imm {
			b = dropImmediate(b, c.slot, c.t)
		} else {
			b = dropTy(b, c.slot, c.t)
		}
	}
	return b
}

// cleanupAndLeave walks from b's scope out to upto, running each scope's
// cleanups, then branches to dest. A NoBlockID dest resumes unwinding
// with the stashed exception token instead. Per scope, the chain emitted
// for a given dest is cached: later exits to the same place jump straight
// into it.
func cleanupAndLeave(b blockCtx, upto int, dest ir.BlockID) blockCtx {
	fcx := b.fcx
	if !b.live {
		return b.dead()
	}
	cur := b.scope
	for {
		sc := &fcx.scopes[cur]
		if len(sc.cleanups) > 0 {
			hit := ir.NoBlockID
			for _, p := range sc.paths {
				if p.dest == dest {
					hit = p.entry
					break
				}
			}
			if hit != ir.NoBlockID {
				b.at().Br(hit)
				return b.dead()
			}
			cb := b.sub("cleanup")
			b.at().Br(cb.blk)
			sc.paths = append(sc.paths, cleanupPath{dest: dest, entry: cb.blk})
			fcx.cx.stats.CleanupPaths++
			b = emitCleanups(cb, sc)
		}
		if cur == upto || sc.parent < 0 {
			break
		}
		cur = sc.parent
	}
	if dest != ir.NoBlockID {
		b.at().Br(dest)
	} else {
		tok := b.at().Load(ir.UnwindToken, fcx.personalitySlot())
		b.at().Resume(tok)
	}
	return b.dead()
}

// leaveScope runs just the current scope's cleanups and continues in the
// parent scope. Fall-through block exits come through here.
func leaveScope(b blockCtx) blockCtx {
	fcx := b.fcx
	sc := &fcx.scopes[b.scope]
	parent := sc.parent
	if b.live && len(sc.cleanups) > 0 {
		b = emitCleanups(b, sc)
	}
	b.scope = parent
	return b
}

// loopScopeOf finds the innermost enclosing loop.
func (fcx *funcCtx) loopScopeOf(s int) int {
	for cur := s; cur >= 0; cur = fcx.scopes[cur].parent {
		if fcx.scopes[cur].kind == scopeLoop {
			return cur
		}
	}
	fcx.cx.bugf("break or cont outside of a loop")
	return -1
}

// landingPadFor returns the unwind target covering b, or NoBlockID when
// nothing on the way out needs running. The pad is built once per scope:
// it catches the exception token, stashes it in the function-wide slot,
// lets the runtime restore the stack limit, and hands off to the cleanup
// chain that finishes with resume.
func landingPadFor(b blockCtx) ir.BlockID {
	fcx := b.fcx
	padScope := -1
	for cur := b.scope; cur >= 0; cur = fcx.scopes[cur].parent {
		if len(fcx.scopes[cur].cleanups) > 0 {
			padScope = cur
			break
		}
	}
	if padScope < 0 {
		return ir.NoBlockID
	}
	if fcx.scopes[padScope].landingPad != ir.NoBlockID {
		return fcx.scopes[padScope].landingPad
	}

	pad := blockCtx{fcx: fcx, blk: fcx.f.NewBlock("unwind"), scope: padScope, live: true}
	tok := pad.at().LandingPad()
	pad.at().Store(tok, fcx.personalitySlot())
	reset := fcx.cx.rt(rtResetStackLimit)
	pad.at().Call(reset.ty, reset.fn, nil)
	fcx.cx.rt(rtPersonality)
	cleanupAndLeave(pad, fcx.fnScope, ir.NoBlockID)

	fcx.scopes[padScope].landingPad = pad.blk
	fcx.cx.stats.LandingPads++
	return pad.blk
}

// callOrInvoke emits a call that unwinds through the pending cleanups
// when any are registered, and a plain call otherwise.
func callOrInvoke(b blockCtx, ty *ir.Type, fn ir.FuncID, fnptr ir.ValueID, args []ir.ValueID) (ir.ValueID, blockCtx) {
	pad := ir.NoBlockID
	if b.live {
		pad = landingPadFor(b)
	}
	if pad == ir.NoBlockID {
		if fn != ir.NoFuncID {
			return b.at().Call(ty, fn, args), b
		}
		return b.at().CallInd(ty, fnptr, args), b
	}
	normal := b.sub("normal_return")
	var res ir.ValueID
	if fn != ir.NoFuncID {
		res = b.at().Invoke(ty, fn, args, normal.blk, pad)
	} else {
		res = b.at().InvokeInd(ty, fnptr, args, normal.blk, pad)
	}
	return res, normal
}

// withCond emits then(b) under cond and rejoins.
func withCond(b blockCtx, cond ir.ValueID, then func(blockCtx) blockCtx) blockCtx {
	if !b.live {
		return b
	}
	tb := b.sub("cond_true")
	next := b.sub("cond_next")
	b.at().CondBr(cond, tb.blk, next.blk)
	tb = then(tb)
	if tb.live && !b.fcx.f.Block(tb.blk).Terminated() {
		tb.at().Br(next.blk)
	}
	return next
}
