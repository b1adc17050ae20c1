// Package ast holds the typed, fully resolved AST that code generation
// consumes. Frontend stages (parsing, resolution, type checking, alias
// analysis) produce this form; nothing here is ever re-checked, and a
// malformed tree is a bug in the producer.
package ast

// ExprID indexes Module.Exprs.
type ExprID int32

// StmtID indexes Module.Stmts.
type StmtID int32

// BlockID indexes Module.Blocks.
type BlockID int32

// FnID indexes Module.Fns.
type FnID int32

// DefID indexes Module.Defs.
type DefID int32

// LocalID indexes FnDef.Locals.
type LocalID int32

const (
	NoExprID  ExprID  = -1
	NoStmtID  StmtID  = -1
	NoBlockID BlockID = -1
	NoFnID    FnID    = -1
	NoDefID   DefID   = -1
	NoLocalID LocalID = -1
)
