package trans

import (
	"ember/internal/ir"
	"ember/internal/types"
)

// valueTy maps an immediate type to the EIR type its register values use.
// Aggregates never appear as EIR values; asking for one is a bug.
func (cx *Context) valueTy(t types.TypeID) *ir.Type {
	tt, ok := cx.types.Lookup(t)
	if !ok {
		cx.bugf("value type of unknown type %d", t)
	}
	switch tt.Kind {
	case types.KindNil, types.KindBot, types.KindBool:
		return ir.I1
	case types.KindInt, types.KindUint:
		if tt.Width == types.WidthWord {
			return cx.wordTy
		}
		return ir.IntBits(int(tt.Width))
	case types.KindFloat:
		if tt.Width == types.Width32 {
			return ir.F32
		}
		return ir.F64
	case types.KindStr, types.KindVec, types.KindBox, types.KindUniq, types.KindRawPtr:
		return ir.Ptr
	case types.KindFn:
		sig, _ := cx.types.FnInfo(t)
		if sig != nil && sig.Proto == types.ProtoBare {
			return ir.Ptr
		}
	case types.KindEnum:
		if cx.types.EnumIsCLike(t) {
			return cx.wordTy
		}
	}
	cx.bugf("%s has no register representation", cx.types.String(t))
	return nil
}

// slotFor describes the stack slot a local of type t needs: the alloca
// type plus an explicit alignment for byte-array aggregate slots.
func (cx *Context) slotFor(t types.TypeID) (*ir.Type, int) {
	if cx.isImmediate(t) {
		return cx.valueTy(t), 0
	}
	l, err := cx.lay.Of(t)
	if err != nil {
		cx.bugf("slot for %s: %v", cx.types.String(t), err)
	}
	return ir.ArrayOf(ir.I8, int64(l.Size)), l.Align
}
