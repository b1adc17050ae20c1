package ast

import (
	"ember/internal/source"
	"ember/internal/types"
)

// StmtKind enumerates statement forms.
type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	// StmtLet introduces a local, optionally initialized.
	StmtLet
	// StmtExpr evaluates an expression for effect.
	StmtExpr
)

// Stmt is one statement inside a block.
type Stmt struct {
	Kind  StmtKind
	Span  source.Span
	Local LocalID // StmtLet
	Init  ExprID  // StmtLet, NoExprID when declared without a value
	E     ExprID  // StmtExpr
}

// Block is a brace-delimited sequence of statements with an optional
// trailing value expression.
type Block struct {
	Stmts []StmtID
	Value ExprID // NoExprID for blocks of nil type
	Span  source.Span
}

// Local is one argument or local variable of a function.
type Local struct {
	Name  string
	Ty    types.TypeID
	IsArg bool
	Mode  types.ArgMode // arguments only
	Span  source.Span
}
