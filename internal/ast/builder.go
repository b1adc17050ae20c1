package ast

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"

	"ember/internal/source"
	"ember/internal/types"
)

// Builder assembles typed modules programmatically. The frontend produces
// modules by lowering checked source; fixtures and tests produce them here.
type Builder struct {
	m   *Module
	src bytes.Buffer
	at  source.Span
}

// NewBuilder starts an empty module with a fresh type interner.
func NewBuilder(name string) *Builder {
	return &Builder{
		m: &Module{
			Name:      name,
			Types:     types.NewInterner(),
			LastUses:  make(map[ExprID]bool),
			CopyMap:   make(map[ExprID]bool),
			MethodMap: make(map[ExprID]MethodOrigin),
			DictMap:   make(map[ExprID][]DictRef),
			Main:      NoFnID,
		},
	}
}

// Types exposes the module's interner.
func (b *Builder) Types() *types.Interner {
	return b.m.Types
}

// Snip appends text as a source line and points subsequent nodes at it.
func (b *Builder) Snip(text string) source.Span {
	start, err := safecast.Conv[uint32](b.src.Len())
	if err != nil {
		panic(fmt.Errorf("source offset overflow: %w", err))
	}
	b.src.WriteString(text)
	b.src.WriteByte('\n')
	b.at = source.Span{Start: start, End: start + uint32(len(text))}
	return b.at
}

// Finish registers the accumulated source text and returns the module.
func (b *Builder) Finish() *Module {
	fs := source.NewFileSet()
	fs.AddVirtual(b.m.Name+".em", b.src.Bytes())
	b.m.Files = fs
	return b.m
}

func (b *Builder) add(e Expr) ExprID {
	e.Span = b.at
	id, err := safecast.Conv[int32](len(b.m.Exprs))
	if err != nil {
		panic(fmt.Errorf("expr arena overflow: %w", err))
	}
	b.m.Exprs = append(b.m.Exprs, e)
	return ExprID(id)
}

// Literals.

func (b *Builder) IntLit(v int64, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprIntLit, Ty: ty, Int: v})
}

func (b *Builder) UintLit(v uint64, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprUintLit, Ty: ty, Uint: v})
}

func (b *Builder) FloatLit(v float64, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprFloatLit, Ty: ty, Float: v})
}

func (b *Builder) BoolLit(v bool) ExprID {
	return b.add(Expr{Kind: ExprBoolLit, Ty: b.m.Types.Builtins().Bool, Bool: v})
}

func (b *Builder) StrLit(s string) ExprID {
	return b.add(Expr{Kind: ExprStrLit, Ty: b.m.Types.Builtins().Str, Str: s})
}

func (b *Builder) NilLit() ExprID {
	return b.add(Expr{Kind: ExprNilLit, Ty: b.m.Types.Builtins().Nil})
}

// References.

func (b *Builder) LocalRef(l LocalID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprLocal, Ty: ty, Local: l})
}

func (b *Builder) GlobalRef(def DefID, targs []types.TypeID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprGlobal, Ty: ty, Def: def, TypeArgs: targs})
}

// Operators.

func (b *Builder) Unary(op UnOp, x ExprID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprUnary, Ty: ty, Un: op, X: x})
}

func (b *Builder) Binary(op BinOp, x, y ExprID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprBinary, Ty: ty, Bin: op, X: x, Y: y})
}

func (b *Builder) And(x, y ExprID) ExprID {
	return b.add(Expr{Kind: ExprAnd, Ty: b.m.Types.Builtins().Bool, X: x, Y: y})
}

func (b *Builder) Or(x, y ExprID) ExprID {
	return b.add(Expr{Kind: ExprOr, Ty: b.m.Types.Builtins().Bool, X: x, Y: y})
}

func (b *Builder) Assign(lhs, rhs ExprID) ExprID {
	return b.add(Expr{Kind: ExprAssign, Ty: b.m.Types.Builtins().Nil, X: lhs, Y: rhs})
}

func (b *Builder) AssignOp(op BinOp, lhs, rhs ExprID) ExprID {
	return b.add(Expr{Kind: ExprAssignOp, Ty: b.m.Types.Builtins().Nil, Bin: op, X: lhs, Y: rhs})
}

func (b *Builder) Move(lhs, rhs ExprID) ExprID {
	return b.add(Expr{Kind: ExprMove, Ty: b.m.Types.Builtins().Nil, X: lhs, Y: rhs})
}

// Projections.

func (b *Builder) Field(x ExprID, name string, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprField, Ty: ty, X: x, Name: name})
}

func (b *Builder) Index(x, idx ExprID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprIndex, Ty: ty, X: x, Y: idx})
}

func (b *Builder) Cast(x ExprID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprCast, Ty: ty, X: x})
}

// Aggregates and calls.

func (b *Builder) Call(callee ExprID, args []ExprID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprCall, Ty: ty, X: callee, Args: args})
}

func (b *Builder) Tup(elems []ExprID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprTup, Ty: ty, Args: elems})
}

// Rec builds a record literal; base is NoExprID or the functional-update
// source.
func (b *Builder) Rec(fields []FieldInit, base ExprID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprRec, Ty: ty, Fields: fields, X: base})
}

func (b *Builder) VecLit(elems []ExprID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprVec, Ty: ty, Args: elems})
}

// Control flow.

func (b *Builder) If(cond ExprID, then BlockID, els ExprID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprIf, Ty: ty, X: cond, Blk: then, Else: els})
}

func (b *Builder) While(cond ExprID, body BlockID) ExprID {
	return b.add(Expr{Kind: ExprWhile, Ty: b.m.Types.Builtins().Nil, X: cond, Blk: body})
}

func (b *Builder) DoWhile(body BlockID, cond ExprID) ExprID {
	return b.add(Expr{Kind: ExprDoWhile, Ty: b.m.Types.Builtins().Nil, X: cond, Blk: body})
}

func (b *Builder) For(elem LocalID, seq ExprID, body BlockID) ExprID {
	return b.add(Expr{Kind: ExprFor, Ty: b.m.Types.Builtins().Nil, Local: elem, X: seq, Blk: body})
}

func (b *Builder) BlockExpr(blk BlockID, ty types.TypeID) ExprID {
	return b.add(Expr{Kind: ExprBlock, Ty: ty, Blk: blk})
}

func (b *Builder) Break() ExprID {
	return b.add(Expr{Kind: ExprBreak, Ty: b.m.Types.Builtins().Bot})
}

func (b *Builder) Cont() ExprID {
	return b.add(Expr{Kind: ExprCont, Ty: b.m.Types.Builtins().Bot})
}

func (b *Builder) Ret(x ExprID) ExprID {
	return b.add(Expr{Kind: ExprRet, Ty: b.m.Types.Builtins().Bot, X: x})
}

func (b *Builder) Fail(msg ExprID) ExprID {
	return b.add(Expr{Kind: ExprFail, Ty: b.m.Types.Builtins().Bot, X: msg})
}

func (b *Builder) Log(level int64, val ExprID) ExprID {
	lv := b.IntLit(level, b.m.Types.Builtins().Int)
	return b.add(Expr{Kind: ExprLog, Ty: b.m.Types.Builtins().Nil, X: lv, Y: val})
}

func (b *Builder) Check(pred ExprID, claim bool) ExprID {
	return b.add(Expr{Kind: ExprCheck, Ty: b.m.Types.Builtins().Nil, X: pred, Claim: claim})
}

// Statements and blocks.

func (b *Builder) Let(l LocalID, init ExprID) StmtID {
	return b.addStmt(Stmt{Kind: StmtLet, Local: l, Init: init})
}

func (b *Builder) ExprStmt(e ExprID) StmtID {
	return b.addStmt(Stmt{Kind: StmtExpr, E: e})
}

func (b *Builder) addStmt(s Stmt) StmtID {
	s.Span = b.at
	id, err := safecast.Conv[int32](len(b.m.Stmts))
	if err != nil {
		panic(fmt.Errorf("stmt arena overflow: %w", err))
	}
	b.m.Stmts = append(b.m.Stmts, s)
	return StmtID(id)
}

// Blk creates a block from statements plus an optional trailing value.
func (b *Builder) Blk(stmts []StmtID, value ExprID) BlockID {
	id, err := safecast.Conv[int32](len(b.m.Blocks))
	if err != nil {
		panic(fmt.Errorf("block arena overflow: %w", err))
	}
	b.m.Blocks = append(b.m.Blocks, Block{Stmts: stmts, Value: value, Span: b.at})
	return BlockID(id)
}

// Side tables.

func (b *Builder) MarkLastUse(e ExprID)                { b.m.LastUses[e] = true }
func (b *Builder) MarkCopy(e ExprID)                   { b.m.CopyMap[e] = true }
func (b *Builder) SetMethod(e ExprID, mo MethodOrigin) { b.m.MethodMap[e] = mo }
func (b *Builder) SetDicts(e ExprID, refs []DictRef)   { b.m.DictMap[e] = refs }

// Definitions.

func (b *Builder) addDef(d Def) DefID {
	id, err := safecast.Conv[int32](len(b.m.Defs))
	if err != nil {
		panic(fmt.Errorf("def arena overflow: %w", err))
	}
	b.m.Defs = append(b.m.Defs, d)
	return DefID(id)
}

// Const registers a module constant.
func (b *Builder) Const(name string, ty types.TypeID, init ExprID) DefID {
	idx, err := safecast.Conv[int32](len(b.m.Consts))
	if err != nil {
		panic(fmt.Errorf("const arena overflow: %w", err))
	}
	b.m.Consts = append(b.m.Consts, ConstDef{Name: name, Ty: ty, Init: init, Span: b.at})
	return b.addDef(Def{Kind: DefConst, Name: name, Const: idx})
}

// Enum declares an enum with its variant constructor defs.
func (b *Builder) Enum(name string, tparams []TypeParam, variants []types.Variant) (types.EnumID, []DefID) {
	eid := b.m.Types.DeclareEnum(name, len(tparams))
	b.m.Types.SetEnumVariants(eid, variants)
	defs := make([]DefID, len(variants))
	for i, v := range variants {
		defs[i] = b.addDef(Def{Kind: DefVariant, Name: name + "::" + v.Name, Enum: eid, Variant: i})
	}
	b.m.Enums = append(b.m.Enums, EnumDecl{Enum: eid, TypeParams: tparams, VariantDefs: defs})
	return eid, defs
}

// Res declares a resource with its constructor def and destructor function.
func (b *Builder) Res(name string, tparams []TypeParam, inner types.TypeID, dtor FnID) (types.ResID, DefID) {
	rid := b.m.Types.DeclareRes(name, len(tparams), inner)
	ctor := b.addDef(Def{Kind: DefResCtor, Name: name, Res: rid})
	b.m.Ress = append(b.m.Ress, ResDecl{Res: rid, TypeParams: tparams, Ctor: ctor, Dtor: dtor})
	return rid, ctor
}

// FnBuilder assembles one function definition.
type FnBuilder struct {
	b  *Builder
	fn FnDef
}

// Fn opens a function builder. Call Done to commit it.
func (b *Builder) Fn(name string, ret types.TypeID) *FnBuilder {
	return &FnBuilder{
		b: b,
		fn: FnDef{
			Name: name,
			Path: []string{b.m.Name, name},
			Ret:  ret,
			Body: NoBlockID,
			Span: b.at,
		},
	}
}

// TypeParam appends a type parameter and returns its index.
func (fb *FnBuilder) TypeParam(name string, bounds ...types.IfaceID) int {
	fb.fn.TypeParams = append(fb.fn.TypeParams, TypeParam{Name: name, Bounds: bounds})
	return len(fb.fn.TypeParams) - 1
}

// Arg appends an argument local.
func (fb *FnBuilder) Arg(name string, mode types.ArgMode, ty types.TypeID) LocalID {
	id := fb.local(Local{Name: name, Ty: ty, IsArg: true, Mode: mode})
	fb.fn.Args = append(fb.fn.Args, id)
	return id
}

// Local appends a body local.
func (fb *FnBuilder) Local(name string, ty types.TypeID) LocalID {
	return fb.local(Local{Name: name, Ty: ty})
}

func (fb *FnBuilder) local(l Local) LocalID {
	l.Span = fb.b.at
	id, err := safecast.Conv[int32](len(fb.fn.Locals))
	if err != nil {
		panic(fmt.Errorf("local arena overflow: %w", err))
	}
	fb.fn.Locals = append(fb.fn.Locals, l)
	return LocalID(id)
}

// Body attaches the function body block.
func (fb *FnBuilder) Body(blk BlockID) *FnBuilder {
	fb.fn.Body = blk
	return fb
}

// Done commits the function and returns its FnID and DefID.
func (fb *FnBuilder) Done() (FnID, DefID) {
	id, err := safecast.Conv[int32](len(fb.b.m.Fns))
	if err != nil {
		panic(fmt.Errorf("fn arena overflow: %w", err))
	}
	fnID := FnID(id)
	def := fb.b.addDef(Def{Kind: DefFn, Name: fb.fn.Name, Fn: fnID})
	fb.fn.ID = fnID
	fb.fn.Def = def
	fb.b.m.Fns = append(fb.b.m.Fns, fb.fn)
	if fb.fn.Name == "main" && len(fb.fn.TypeParams) == 0 {
		fb.b.m.Main = fnID
	}
	return fnID, def
}
