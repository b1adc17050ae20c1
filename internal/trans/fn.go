package trans

import (
	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/types"
)

// funcCtx is the per-function translation state. Every function body is
// built against the same fixed prologue: stack slots land in
// static_allocas, environment and descriptor parameters are unpacked in
// load_env, descriptors derived from type parameters are built in
// derived_tydescs, and runtime-sized slots in dynamic_allocas. The blocks
// are chained with plain branches when the body is done.
type funcCtx struct {
	cx *Context
	f  *ir.Func

	// def is nil for glue and other synthesized functions.
	def   *ast.FnDef
	targs []types.TypeID // original instantiation arguments
	norm  []types.TypeID // normalized; drives classification and layout

	staticAllocas  ir.BlockID
	loadEnv        ir.BlockID
	derivedTIs     ir.BlockID
	dynamicAllocas ir.BlockID
	bodyEntry      ir.BlockID
	retBlock       ir.BlockID

	retSlot ir.ValueID
	envPtr  ir.ValueID
	tiArgs  []ir.ValueID // one descriptor per type parameter
	dicts   []ir.ValueID // one dictionary per bound, in parameter order
	locals  map[ast.LocalID]ir.ValueID

	scopes  []scopeData
	fnScope int

	// personality is the function-wide slot the landing pads stash their
	// exception token in; allocated on first unwind edge.
	personality ir.ValueID

	derived  map[types.TypeID]ir.ValueID
	monoMemo map[types.TypeID]types.TypeID
}

// blockCtx is a lightweight cursor: the block instructions go to, the
// scope they belong to, and whether control can actually reach them.
// Translation keeps going in a dead block after a diverging expression;
// the CFG simplifier sweeps those blocks away.
type blockCtx struct {
	fcx   *funcCtx
	blk   ir.BlockID
	scope int
	live  bool
}

func (b blockCtx) at() ir.Cursor {
	return b.fcx.f.At(b.blk)
}

// sub starts a fresh block in the same scope and liveness.
func (b blockCtx) sub(name string) blockCtx {
	return blockCtx{fcx: b.fcx, blk: b.fcx.f.NewBlock(name), scope: b.scope, live: b.live}
}

// dead returns a continuation block no path reaches.
func (b blockCtx) dead() blockCtx {
	return blockCtx{fcx: b.fcx, blk: b.fcx.f.NewBlock("dead"), scope: b.scope, live: false}
}

func newFuncCtx(cx *Context, f *ir.Func, def *ast.FnDef, targs, norm []types.TypeID) *funcCtx {
	fcx := &funcCtx{
		cx:          cx,
		f:           f,
		def:         def,
		targs:       targs,
		norm:        norm,
		personality: ir.NoValueID,
		locals:      make(map[ast.LocalID]ir.ValueID),
		derived:     make(map[types.TypeID]ir.ValueID),
		monoMemo:    make(map[types.TypeID]types.TypeID),
	}
	fcx.staticAllocas = f.Entry()
	f.Block(fcx.staticAllocas).Name = "static_allocas"
	fcx.loadEnv = f.NewBlock("load_env")
	fcx.derivedTIs = f.NewBlock("derived_tydescs")
	fcx.dynamicAllocas = f.NewBlock("dynamic_allocas")
	fcx.bodyEntry = f.NewBlock("body")
	fcx.retBlock = f.NewBlock("return")

	fcx.fnScope = 0
	fcx.scopes = append(fcx.scopes, scopeData{parent: -1, kind: scopeFn, landingPad: ir.NoBlockID})
	return fcx
}

// body returns the context translation starts from.
func (fcx *funcCtx) body() blockCtx {
	return blockCtx{fcx: fcx, blk: fcx.bodyEntry, scope: fcx.fnScope, live: true}
}

// ty applies the instance's normalized type arguments. Classification,
// layout, and value representation all go through here; descriptor
// lookups deliberately do not.
func (fcx *funcCtx) ty(t types.TypeID) types.TypeID {
	if len(fcx.norm) == 0 || !fcx.cx.types.ContainsParams(t) {
		return t
	}
	if s, ok := fcx.monoMemo[t]; ok {
		return s
	}
	s := fcx.cx.types.Subst(t, fcx.norm)
	fcx.monoMemo[t] = s
	return s
}

// tyRaw substitutes the instance's original type arguments. Instantiation
// and descriptor lookup need the precise types; normalization would erase
// the box payloads the descriptors exist to describe.
func (fcx *funcCtx) tyRaw(t types.TypeID) types.TypeID {
	if len(fcx.targs) == 0 || !fcx.cx.types.ContainsParams(t) {
		return t
	}
	return fcx.cx.types.Subst(t, fcx.targs)
}

// staticSized reports whether t's slots can be reserved up front. Only
// layouts that truly depend on a type parameter (glue bodies, where there
// is nothing to substitute) need runtime-sized slots; handles to
// parameterized payloads stay pointer-sized.
func (fcx *funcCtx) staticSized(t types.TypeID) bool {
	return fcx.cx.lay.Static(fcx.ty(t))
}

// allocaFor reserves a slot for a value of type t in the right prologue
// block.
func (fcx *funcCtx) allocaFor(t types.TypeID) ir.ValueID {
	cx := fcx.cx
	if fcx.staticSized(t) {
		it := fcx.ty(t)
		ty, align := cx.slotFor(it)
		if align > 0 {
			return fcx.f.At(fcx.staticAllocas).AllocaAligned(ty, align)
		}
		return fcx.f.At(fcx.staticAllocas).Alloca(ty)
	}
	da := blockCtx{fcx: fcx, blk: fcx.dynamicAllocas, scope: fcx.fnScope, live: true}
	size := fcx.dynamicSize(da, t)
	return da.at().ArrayAllocaAligned(ir.I8, size, 8)
}

// personalitySlot returns the function-wide exception-token slot,
// allocating it on first use.
func (fcx *funcCtx) personalitySlot() ir.ValueID {
	if fcx.personality == ir.NoValueID {
		fcx.personality = fcx.f.At(fcx.staticAllocas).Alloca(ir.UnwindToken)
	}
	return fcx.personality
}

// finish ties the prologue chain together, terminates the return block,
// and cleans the CFG. last is where the body fell off, if it still can.
func (fcx *funcCtx) finish(last blockCtx) {
	f := fcx.f
	if last.live && !f.Block(last.blk).Terminated() {
		cleanupAndLeave(last, fcx.fnScope, fcx.retBlock)
	}

	f.At(fcx.staticAllocas).Br(fcx.loadEnv)
	f.At(fcx.loadEnv).Br(fcx.derivedTIs)
	f.At(fcx.derivedTIs).Br(fcx.dynamicAllocas)
	f.At(fcx.dynamicAllocas).Br(fcx.bodyEntry)
	f.At(fcx.retBlock).RetVoid()

	// Dead continuations are still open; close them so the verifier and
	// the simplifier see a well-formed function.
	for _, blk := range f.Blocks {
		if !blk.Terminated() {
			f.At(blk.ID).Unreachable()
		}
	}

	ir.SimplifyCFG(f)
	if fcx.cx.check {
		if err := ir.Check(f); err != nil {
			fcx.cx.bugf("generated %s does not verify: %v", f.Name, err)
		}
	}
	fcx.cx.stats.Funcs++
}
