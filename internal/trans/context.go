package trans

import (
	"fmt"

	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/layout"
	"ember/internal/mono"
	"ember/internal/trace"
	"ember/internal/types"
)

// Options configures one translation run.
type Options struct {
	// Target selects the ABI the generated code assumes.
	Target layout.Target
	// Tracer receives module and per-function spans. Nil disables tracing.
	Tracer trace.Tracer
	// CheckIR runs the structural verifier over every generated function.
	CheckIR bool
	// TrustClaims elides claimed checks instead of evaluating them.
	TrustClaims bool
}

// Stats counts what one translation run produced.
type Stats struct {
	Funcs        int // IR functions defined
	Instances    int // generic instances translated
	InstanceHits int // instantiation requests served from the cache
	StaticTIs    int // type-info descriptors emitted as globals
	DerivedTIs   int // descriptors derived at runtime inside a frame
	GluesCreated int // glue bodies built
	RealGlues    int // glue pointers published in descriptors
	NullGlues    int // descriptor glue slots elided to null
	CleanupPaths int // cached cleanup chains
	LandingPads  int // landing pads materialized
	CStrings     int // interned string constants
}

// Context carries everything shared across one module's translation.
type Context struct {
	mod         *ast.Module
	types       *types.Interner
	lay         *layout.Engine
	out         *ir.Module
	tracer      trace.Tracer
	check       bool
	trustClaims bool

	tis     map[types.TypeID]*typeInfo
	tiOrder []*typeInfo

	monos   *mono.Cache
	pending []*mono.Entry

	dictGlobals map[ast.DefID]ir.GlobalID

	cstrs     map[string]ir.GlobalID
	constVals map[int32]foldVal
	rtFns     map[string]rtDecl
	symTaken  map[string]bool

	tiTy   *ir.Type
	glueTy *ir.Type
	wordTy *ir.Type

	stats Stats
}

func newContext(mod *ast.Module, opts Options) *Context {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	cx := &Context{
		mod:         mod,
		types:       mod.Types,
		lay:         layout.New(opts.Target, mod.Types),
		out:         ir.NewModule(mod.Name, opts.Target.Triple),
		tracer:      tracer,
		check:       opts.CheckIR,
		trustClaims: opts.TrustClaims,
		tis:         make(map[types.TypeID]*typeInfo),
		monos:       mono.NewCache(),
		dictGlobals: make(map[ast.DefID]ir.GlobalID),
		cstrs:       make(map[string]ir.GlobalID),
		constVals:   make(map[int32]foldVal),
		rtFns:       make(map[string]rtDecl),
		symTaken:    make(map[string]bool),
	}
	cx.wordTy = ir.IntBits(8 * opts.Target.WordSize)
	cx.tiTy = ir.StructOf(
		ir.Ptr,    // first_param
		cx.wordTy, // size
		cx.wordTy, // align
		ir.Ptr,    // take glue
		ir.Ptr,    // drop glue
		ir.Ptr,    // free glue
		ir.Ptr,    // reserved
		ir.Ptr,    // shape
		ir.Ptr,    // shape tables
		cx.wordTy, // n_params
	)
	cx.glueTy = ir.FuncOf(ir.Void, ir.Ptr, ir.Ptr, ir.Ptr, ir.Ptr)
	return cx
}

// Descriptor field indices, in record order.
const (
	tiFirstParam = iota
	tiSize
	tiAlign
	tiTake
	tiDrop
	tiFree
	tiReserved
	tiShape
	tiShapeTables
	tiNParams
)

// ice is the payload of an internal-error panic. Translate converts it
// into an error at the API boundary; anything else keeps propagating.
type ice struct {
	msg string
}

func (cx *Context) bugf(format string, args ...any) {
	panic(ice{msg: fmt.Sprintf(format, args...)})
}

func (cx *Context) word(f *ir.Func, v int64) ir.ValueID {
	return f.ConstInt(cx.wordTy, v)
}

// sizeOf and alignOf answer only for statically sized types; callers must
// route parameter-dependent types through the dynamic helpers.
func (cx *Context) sizeOf(t types.TypeID) int {
	n, err := cx.lay.SizeOf(t)
	if err != nil {
		cx.bugf("size of %s: %v", cx.types.String(t), err)
	}
	return n
}

func (cx *Context) alignOf(t types.TypeID) int {
	n, err := cx.lay.AlignOf(t)
	if err != nil {
		cx.bugf("align of %s: %v", cx.types.String(t), err)
	}
	return n
}

func (cx *Context) fieldOffset(t types.TypeID, idx int) int {
	n, err := cx.lay.FieldOffset(t, idx)
	if err != nil {
		cx.bugf("field offset %d of %s: %v", idx, cx.types.String(t), err)
	}
	return n
}

// uniqueSym reserves base, or base.2, base.3, ... on collision.
func (cx *Context) uniqueSym(base string) string {
	name := base
	for n := 2; cx.symTaken[name]; n++ {
		name = fmt.Sprintf("%s.%d", base, n)
	}
	cx.symTaken[name] = true
	return name
}
