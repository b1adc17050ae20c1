package trans

import (
	"ember/internal/ir"
	"ember/internal/types"
)

// glueState tracks one glue slot of a descriptor through the lazy
// protocol: declared on first call, body built once, or proven to be a
// no-op and published as null.
type glueState struct {
	fn   ir.FuncID
	made bool
	null bool
}

// typeInfo is the per-type descriptor record. For types that mention
// type parameters the global is a template: its glue is real and
// polymorphic, but size and align stay zero and callers bind parameter
// descriptors into a derived copy at run time.
type typeInfo struct {
	t      types.TypeID
	name   string
	global ir.GlobalID
	shape  ir.GlobalID
	params []uint32 // linearized parameter indices, first occurrence first

	take glueState
	drop glueState
	free glueState
}

// typeInfoOf returns the descriptor for t, creating and registering it on
// first request. Creation order is emission order, so output stays
// deterministic.
func (cx *Context) typeInfoOf(t types.TypeID) *typeInfo {
	if ti, ok := cx.tis[t]; ok {
		return ti
	}
	name := cx.uniqueSym("ti." + cx.typeStem(t))
	ti := &typeInfo{
		t:      t,
		name:   name,
		global: cx.out.DeclareGlobal(name, cx.tiTy),
		take:   glueState{fn: ir.NoFuncID},
		drop:   glueState{fn: ir.NoFuncID},
		free:   glueState{fn: ir.NoFuncID},
	}
	seen := make(map[uint32]bool)
	cx.types.WalkParams(t, func(n uint32) {
		if !seen[n] {
			seen[n] = true
			ti.params = append(ti.params, n)
		}
	})
	shape := cx.shapeOf(t)
	ti.shape = cx.out.AddGlobal(cx.uniqueSym("shape."+cx.typeStem(t)), ir.ArrayOf(ir.I8, int64(len(shape))), ir.InitBytes(shape))
	sg := cx.out.Global(ti.shape)
	sg.Const = true
	sg.Internal = true

	cx.tis[t] = ti
	cx.tiOrder = append(cx.tiOrder, ti)
	cx.stats.StaticTIs++
	return ti
}

// getTI produces a descriptor pointer for t usable inside the current
// function. Closed types resolve to their global; a bare parameter is the
// caller's descriptor argument; open composites get a derived record
// built once per function in the derived_tydescs block.
func getTI(b blockCtx, t types.TypeID) ir.ValueID {
	fcx := b.fcx
	cx := fcx.cx
	tt, ok := cx.types.Lookup(t)
	if !ok {
		cx.bugf("descriptor requested for unknown type %d", t)
	}
	if tt.Kind == types.KindParam {
		n := tt.Payload
		if int(n) >= len(fcx.tiArgs) || fcx.tiArgs[n] == ir.NoValueID {
			cx.bugf("descriptor for unbound parameter %d in %s", n, fcx.f.Name)
		}
		return fcx.tiArgs[n]
	}
	if !cx.types.ContainsParams(t) {
		return fcx.f.GlobalRef(cx.typeInfoOf(t).global)
	}

	if v, ok := fcx.derived[t]; ok {
		return v
	}
	info := cx.typeInfoOf(t)
	cx.forceAllGlue(info)

	dt := blockCtx{fcx: fcx, blk: fcx.derivedTIs, scope: fcx.fnScope, live: true}
	at := dt.at()
	f := fcx.f

	rec := at.Alloca(cx.tiTy)
	firstParam := f.Null()
	if n := len(info.params); n > 0 {
		arrTy := ir.ArrayOf(ir.Ptr, int64(n))
		arr := at.Alloca(arrTy)
		for i, pi := range info.params {
			if int(pi) >= len(fcx.tiArgs) {
				cx.bugf("derived descriptor of %s needs parameter %d", cx.types.String(t), pi)
			}
			at.Store(fcx.tiArgs[pi], at.GEP(arrTy, arr, int32(i)))
		}
		firstParam = arr
	}

	at.Store(firstParam, at.GEP(cx.tiTy, rec, tiFirstParam))
	at.Store(fcx.dynamicSize(dt, t), at.GEP(cx.tiTy, rec, tiSize))
	at.Store(fcx.dynamicAlign(dt, t), at.GEP(cx.tiTy, rec, tiAlign))
	at.Store(glueRef(f, info.take), at.GEP(cx.tiTy, rec, tiTake))
	at.Store(glueRef(f, info.drop), at.GEP(cx.tiTy, rec, tiDrop))
	at.Store(glueRef(f, info.free), at.GEP(cx.tiTy, rec, tiFree))
	at.Store(f.Null(), at.GEP(cx.tiTy, rec, tiReserved))
	at.Store(f.GlobalRef(info.shape), at.GEP(cx.tiTy, rec, tiShape))
	at.Store(f.GlobalRef(cx.shapeTables()), at.GEP(cx.tiTy, rec, tiShapeTables))
	at.Store(cx.word(f, int64(len(info.params))), at.GEP(cx.tiTy, rec, tiNParams))

	fcx.derived[t] = rec
	cx.stats.DerivedTIs++
	return rec
}

func glueRef(f *ir.Func, gs glueState) ir.ValueID {
	if gs.fn == ir.NoFuncID {
		return f.Null()
	}
	return f.FuncRef(gs.fn)
}

// shareTI copies a frame-local derived descriptor to the heap. Required
// whenever the descriptor may outlive the frame, e.g. when the runtime
// attaches it to an allocation.
func shareTI(b blockCtx, tiv ir.ValueID, t types.TypeID) ir.ValueID {
	if !b.fcx.cx.types.ContainsParams(t) {
		return tiv
	}
	share := b.fcx.cx.rt(rtTiShare)
	return b.at().Call(share.ty, share.fn, []ir.ValueID{tiv})
}

// finalizeTIs backfills every descriptor global. Glue that was never
// forced, or proved to be a no-op, publishes as null.
func (cx *Context) finalizeTIs() {
	for _, ti := range cx.tiOrder {
		size, align := 0, 0
		if !cx.types.ContainsParams(ti.t) {
			size = cx.sizeOf(ti.t)
			align = cx.alignOf(ti.t)
		}
		g := cx.out.Global(ti.global)
		g.Init = ir.InitStruct(
			ir.InitNull(),
			ir.InitInt(cx.wordTy, int64(size)),
			ir.InitInt(cx.wordTy, int64(align)),
			cx.glueInit(ti.take),
			cx.glueInit(ti.drop),
			cx.glueInit(ti.free),
			ir.InitNull(),
			ir.InitGlobalRef(ti.shape),
			ir.InitGlobalRef(cx.shapeTables()),
			ir.InitInt(cx.wordTy, int64(len(ti.params))),
		)
		g.Decl = false
		g.Const = true
		g.Internal = true
	}
}

func (cx *Context) glueInit(gs glueState) *ir.GInit {
	if gs.fn == ir.NoFuncID {
		cx.stats.NullGlues++
		return ir.InitNull()
	}
	cx.stats.RealGlues++
	return ir.InitFuncRef(gs.fn)
}

// Shape opcodes. The encoding is a preorder walk: composites carry a
// count, parameters their index.
const (
	shapeNil uint8 = iota
	shapeBool
	shapeInt
	shapeUint
	shapeFloat
	shapeStr
	shapeVec
	shapeBox
	shapeUniq
	shapeRawPtr
	shapeRec
	shapeTup
	shapeEnum
	shapeRes
	shapeFn
	shapeIface
	shapeParam
	shapeOpaque
)

func (cx *Context) shapeOf(t types.TypeID) []byte {
	var buf []byte
	cx.appendShape(&buf, t, 0)
	return buf
}

func (cx *Context) appendShape(buf *[]byte, t types.TypeID, depth int) {
	// Cycles go through boxes; cutting below them keeps the walk finite.
	if depth > 8 {
		*buf = append(*buf, shapeOpaque)
		return
	}
	tt, ok := cx.types.Lookup(t)
	if !ok {
		*buf = append(*buf, shapeOpaque)
		return
	}
	switch tt.Kind {
	case types.KindNil, types.KindBot:
		*buf = append(*buf, shapeNil)
	case types.KindBool:
		*buf = append(*buf, shapeBool)
	case types.KindInt:
		*buf = append(*buf, shapeInt, uint8(tt.Width))
	case types.KindUint:
		*buf = append(*buf, shapeUint, uint8(tt.Width))
	case types.KindFloat:
		*buf = append(*buf, shapeFloat, uint8(tt.Width))
	case types.KindStr:
		*buf = append(*buf, shapeStr)
	case types.KindVec:
		*buf = append(*buf, shapeVec)
		cx.appendShape(buf, tt.Elem, depth+1)
	case types.KindBox:
		*buf = append(*buf, shapeBox)
		cx.appendShape(buf, tt.Elem, depth+1)
	case types.KindUniq:
		*buf = append(*buf, shapeUniq)
		cx.appendShape(buf, tt.Elem, depth+1)
	case types.KindRawPtr:
		*buf = append(*buf, shapeRawPtr)
	case types.KindRec:
		info, _ := cx.types.RecInfo(t)
		*buf = append(*buf, shapeRec, uint8(len(info.Fields)))
		for _, fld := range info.Fields {
			cx.appendShape(buf, fld.Type, depth+1)
		}
	case types.KindTup:
		info, _ := cx.types.TupleInfo(t)
		*buf = append(*buf, shapeTup, uint8(len(info.Elems)))
		for _, e := range info.Elems {
			cx.appendShape(buf, e, depth+1)
		}
	case types.KindEnum:
		vs := cx.types.EnumVariants(t)
		*buf = append(*buf, shapeEnum, uint8(len(vs)))
		for _, v := range vs {
			*buf = append(*buf, uint8(len(v.Args)))
			for _, a := range v.Args {
				cx.appendShape(buf, a, depth+1)
			}
		}
	case types.KindRes:
		*buf = append(*buf, shapeRes)
		cx.appendShape(buf, cx.types.ResInner(t), depth+1)
	case types.KindFn:
		*buf = append(*buf, shapeFn)
	case types.KindIface:
		*buf = append(*buf, shapeIface)
	case types.KindParam:
		*buf = append(*buf, shapeParam, uint8(tt.Payload))
	default:
		*buf = append(*buf, shapeOpaque)
	}
}

// shapeTables returns the module's shared shape side-table global.
func (cx *Context) shapeTables() ir.GlobalID {
	if g, ok := cx.out.GlobalByName("shape_tables"); ok {
		return g
	}
	g := cx.out.AddGlobal("shape_tables", ir.ArrayOf(ir.I8, 1), ir.InitBytes([]byte{0}))
	glob := cx.out.Global(g)
	glob.Const = true
	glob.Internal = true
	return g
}
