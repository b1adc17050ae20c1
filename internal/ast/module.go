package ast

import (
	"ember/internal/source"
	"ember/internal/types"
)

// DictRef says where a generic call site's interface dictionary comes from.
type DictRef struct {
	// Param >= 0 selects a dictionary parameter of the enclosing function;
	// otherwise Impl names a static implementation definition.
	Param int
	Impl  DefID
}

// MethodOrigin records how an operator or method use resolved upstream.
type MethodOrigin struct {
	// Static resolution: a concrete function plus instantiation.
	Def      DefID
	TypeArgs []types.TypeID
	// Interface resolution: a dictionary plus a method slot.
	Iface types.IfaceID
	Dict  DictRef
	Slot  int
	// ViaDict distinguishes the two.
	ViaDict bool
}

// Module is one translation unit handed to code generation, with every side
// table upstream analyses computed for it.
type Module struct {
	Name  string
	Types *types.Interner
	Files *source.FileSet

	Exprs  []Expr
	Stmts  []Stmt
	Blocks []Block

	Fns    []FnDef
	Defs   []Def
	Consts []ConstDef
	Enums  []EnumDecl
	Ress   []ResDecl

	// LastUses marks lvalue reads that are statically known to be the final
	// use of their binding; such reads may move instead of copy.
	LastUses map[ExprID]bool
	// CopyMap marks argument expressions that need a defensive copy even
	// under a by-value mode.
	CopyMap map[ExprID]bool
	// MethodMap resolves operator overloads and method calls per call site.
	MethodMap map[ExprID]MethodOrigin
	// DictMap lists, per generic call site, one dictionary per interface
	// bound in type-parameter order.
	DictMap map[ExprID][]DictRef

	// Main is the program entry function, NoFnID for library modules.
	Main FnID
}

// Expr returns the node for an ExprID.
func (m *Module) Expr(id ExprID) *Expr {
	return &m.Exprs[id]
}

// Stmt returns the node for a StmtID.
func (m *Module) Stmt(id StmtID) *Stmt {
	return &m.Stmts[id]
}

// Block returns the node for a BlockID.
func (m *Module) Block(id BlockID) *Block {
	return &m.Blocks[id]
}

// Fn returns the definition for a FnID.
func (m *Module) Fn(id FnID) *FnDef {
	return &m.Fns[id]
}

// Def resolves a DefID.
func (m *Module) Def(id DefID) *Def {
	return &m.Defs[id]
}

// LastUse reports whether the expression is its binding's final use.
func (m *Module) LastUse(id ExprID) bool {
	return m.LastUses[id]
}

// NeedsCopy reports whether the argument expression demands a defensive copy.
func (m *Module) NeedsCopy(id ExprID) bool {
	return m.CopyMap[id]
}
