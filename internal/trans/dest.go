package trans

import (
	"ember/internal/ir"
	"ember/internal/types"
)

type destKind uint8

const (
	// destIgnore evaluates for effect only.
	destIgnore destKind = iota
	// destByValue asks for an immediate in a register.
	destByValue
	// destSaveIn hands the producer a slot to build into.
	destSaveIn
)

// dest says where an expression's value goes. Producers fill val for
// by-value destinations and write through slot for save-in ones.
type dest struct {
	kind destKind
	t    types.TypeID
	slot ir.ValueID
	val  ir.ValueID
}

func ignoreDest(t types.TypeID) *dest {
	return &dest{kind: destIgnore, t: t, val: ir.NoValueID}
}

// valueDest demotes to ignore for nil and bot, which have no value worth
// naming. Asking for a memory type by value is a translator bug.
func (fcx *funcCtx) valueDest(t types.TypeID) *dest {
	cx := fcx.cx
	it := fcx.ty(t)
	switch cx.types.Kind(it) {
	case types.KindNil, types.KindBot:
		return ignoreDest(t)
	}
	if !cx.isImmediate(it) {
		cx.bugf("by-value destination for memory type %s", cx.types.String(it))
	}
	return &dest{kind: destByValue, t: t, val: ir.NoValueID}
}

func saveInDest(slot ir.ValueID, t types.TypeID) *dest {
	return &dest{kind: destSaveIn, t: t, slot: slot, val: ir.NoValueID}
}

// result is the produced by-value result. A producer that diverged never
// filled the destination; consumers in the dead continuation get a
// placeholder zero instead.
func (d *dest) result(b blockCtx) ir.ValueID {
	cx := b.fcx.cx
	if d.kind != destByValue {
		cx.bugf("consuming a destination that was not by-value")
	}
	if d.val == ir.NoValueID {
		if b.live {
			cx.bugf("consuming a destination nothing was produced into")
		}
		return immZero(b, b.fcx.ty(d.t))
	}
	return d.val
}

// putImm delivers an immediate the expression owns. An ignored owned
// handle is dropped on the spot.
func putImm(b blockCtx, d *dest, v ir.ValueID) blockCtx {
	switch d.kind {
	case destIgnore:
		if b.fcx.cx.needsLifecycle(b.fcx.ty(d.t)) {
			return dropImmediate(b, v, d.t)
		}
	case destByValue:
		d.val = v
	case destSaveIn:
		b.at().Store(v, d.slot)
	}
	return b
}

// tempSlot reserves an anonymous slot guarded by a temporary cleanup; the
// caller revokes once ownership has moved on.
func tempSlot(b blockCtx, t types.TypeID) ir.ValueID {
	slot := b.fcx.allocaFor(t)
	b.fcx.addCleanTemp(b.scope, slot, t, false)
	return slot
}

// releaseTemp lifts the guard tempSlot registered. Types without a
// lifecycle never had one.
func releaseTemp(b blockCtx, slot ir.ValueID, t types.TypeID) {
	if b.fcx.cx.needsLifecycle(b.fcx.ty(t)) {
		b.fcx.revokeClean(b.scope, slot)
	}
}

// dupForJoin gives a control-flow arm its own copy of a by-value
// destination, so each arm produces independently and the join phis.
func dupForJoin(d *dest) *dest {
	if d.kind != destByValue {
		return d
	}
	c := *d
	c.val = ir.NoValueID
	return &c
}

// joinReturns merges arm destinations into d over the edges that can
// actually reach the join.
func joinReturns(b blockCtx, d *dest, arms []*dest, preds []blockCtx) blockCtx {
	if d.kind != destByValue {
		return b
	}
	var edges []ir.PhiEdge
	for i, a := range arms {
		if preds[i].live && a.val != ir.NoValueID {
			edges = append(edges, ir.PhiEdge{Val: a.val, From: preds[i].blk})
		}
	}
	if len(edges) == 0 {
		// No arm reaches the join; the value is never observed.
		return b
	}
	ty := b.fcx.f.TypeOf(edges[0].Val)
	d.val = b.at().Phi(ty, edges)
	return b
}
