package trans

import (
	"ember/internal/ir"
	"ember/internal/types"
)

// Runtime size and alignment arithmetic for types whose layout depends on
// a type parameter. The computation mirrors the static layout rules
// exactly: fields in order, each padded to its own alignment, the total
// padded to the aggregate alignment.

// alignToDyn rounds v up to align, which must be a power of two.
func alignToDyn(b blockCtx, v, align ir.ValueID) ir.ValueID {
	f := b.fcx.f
	w := b.fcx.cx.wordTy
	at := b.at()
	mask := at.Bin(ir.BinSub, w, align, f.ConstInt(w, 1))
	bumped := at.Bin(ir.BinAdd, w, v, mask)
	inv := at.Bin(ir.BinXor, w, mask, f.ConstInt(w, -1))
	return at.Bin(ir.BinAnd, w, bumped, inv)
}

func umaxDyn(b blockCtx, x, y ir.ValueID) ir.ValueID {
	at := b.at()
	return at.Select(at.ICmp(ir.IUgt, x, y), x, y)
}

// dynamicSize yields the byte size of t as a word-sized value.
func (fcx *funcCtx) dynamicSize(b blockCtx, t types.TypeID) ir.ValueID {
	size, _ := fcx.dynSizeAlign(b, t)
	return size
}

// dynamicAlign yields the alignment of t as a word-sized value.
func (fcx *funcCtx) dynamicAlign(b blockCtx, t types.TypeID) ir.ValueID {
	_, align := fcx.dynSizeAlign(b, t)
	return align
}

func (fcx *funcCtx) dynSizeAlign(b blockCtx, t types.TypeID) (size, align ir.ValueID) {
	cx := fcx.cx
	it := fcx.ty(t)
	if cx.lay.Static(it) {
		return cx.word(fcx.f, int64(cx.sizeOf(it))), cx.word(fcx.f, int64(cx.alignOf(it)))
	}

	tt, ok := cx.types.Lookup(it)
	if !ok {
		cx.bugf("dynamic size of unknown type %d", it)
	}
	switch tt.Kind {
	case types.KindParam:
		tiv := getTI(b, it)
		at := b.at()
		size = at.Load(cx.wordTy, at.GEP(cx.tiTy, tiv, tiSize))
		align = at.Load(cx.wordTy, at.GEP(cx.tiTy, tiv, tiAlign))
		return size, align

	case types.KindRec:
		info, _ := cx.types.RecInfo(it)
		fields := make([]types.TypeID, len(info.Fields))
		for i, fld := range info.Fields {
			fields[i] = fld.Type
		}
		return fcx.dynAggregate(b, fields)

	case types.KindTup:
		info, _ := cx.types.TupleInfo(it)
		return fcx.dynAggregate(b, info.Elems)

	case types.KindRes:
		return fcx.dynAggregate(b, []types.TypeID{cx.types.Builtins().U8, cx.types.ResInner(it)})

	case types.KindEnum:
		return fcx.dynEnum(b, it)

	default:
		cx.bugf("dynamic size of %s", cx.types.String(it))
		return ir.NoValueID, ir.NoValueID
	}
}

func (fcx *funcCtx) dynAggregate(b blockCtx, fields []types.TypeID) (size, align ir.ValueID) {
	cx := fcx.cx
	size = cx.word(fcx.f, 0)
	align = cx.word(fcx.f, 1)
	for _, fld := range fields {
		fsz, fal := fcx.dynSizeAlign(b, fld)
		size = alignToDyn(b, size, fal)
		size = b.at().Bin(ir.BinAdd, cx.wordTy, size, fsz)
		align = umaxDyn(b, align, fal)
	}
	size = alignToDyn(b, size, align)
	return size, align
}

func (fcx *funcCtx) dynEnum(b blockCtx, it types.TypeID) (size, align ir.ValueID) {
	cx := fcx.cx
	variants := cx.types.EnumVariants(it)
	if cx.types.EnumIsDegen(it) {
		return fcx.dynAggregate(b, variants[0].Args)
	}

	pSize := cx.word(fcx.f, 0)
	pAlign := cx.word(fcx.f, 1)
	for _, v := range variants {
		vsz, val := fcx.dynAggregate(b, v.Args)
		pSize = umaxDyn(b, pSize, vsz)
		pAlign = umaxDyn(b, pAlign, val)
	}
	word := cx.word(fcx.f, int64(cx.lay.Target.WordSize))
	wordAlign := cx.word(fcx.f, int64(cx.lay.Target.WordAlign))
	align = umaxDyn(b, wordAlign, pAlign)
	size = alignToDyn(b, word, pAlign)
	size = b.at().Bin(ir.BinAdd, cx.wordTy, size, pSize)
	size = alignToDyn(b, size, align)
	return size, align
}

// dynFieldOffset yields the byte offset of fields[idx] in an aggregate of
// the given field types.
func (fcx *funcCtx) dynFieldOffset(b blockCtx, fields []types.TypeID, idx int) ir.ValueID {
	cx := fcx.cx
	off := cx.word(fcx.f, 0)
	for i := 0; i <= idx; i++ {
		fsz, fal := fcx.dynSizeAlign(b, fields[i])
		off = alignToDyn(b, off, fal)
		if i < idx {
			off = b.at().Bin(ir.BinAdd, cx.wordTy, off, fsz)
		}
	}
	return off
}
