package ast

import (
	"ember/internal/source"
	"ember/internal/types"
)

// ExprKind enumerates expression forms.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprIntLit
	ExprUintLit
	ExprFloatLit
	ExprBoolLit
	ExprStrLit
	ExprNilLit
	// ExprLocal reads a local or argument.
	ExprLocal
	// ExprGlobal references a module-level definition, optionally
	// instantiated with type arguments.
	ExprGlobal
	ExprUnary
	ExprBinary
	// ExprAnd and ExprOr are the lazy boolean operators.
	ExprAnd
	ExprOr
	// ExprAssign stores Y into the place named by X.
	ExprAssign
	// ExprAssignOp is the compound form (x op= y).
	ExprAssignOp
	// ExprMove transfers ownership of Y into the place named by X.
	ExprMove
	// ExprField projects a named field, looking through pointers.
	ExprField
	// ExprIndex is bounds-checked sequence indexing.
	ExprIndex
	ExprCast
	ExprCall
	ExprTup
	ExprRec
	ExprVec
	ExprIf
	ExprWhile
	ExprDoWhile
	ExprFor
	ExprBlock
	ExprBreak
	ExprCont
	ExprRet
	// ExprFail raises a runtime failure with an optional message.
	ExprFail
	// ExprLog logs Y when the module log level admits level X.
	ExprLog
	// ExprCheck evaluates a predicate and fails when it is false.
	ExprCheck
)

// UnOp enumerates unary operators.
type UnOp uint8

const (
	OpNeg UnOp = iota
	OpNot
	OpBitNot
	// OpBox allocates the operand into a fresh shared box.
	OpBox
	// OpUniq allocates the operand into a fresh unique box.
	OpUniq
	// OpDeref loads through a pointer.
	OpDeref
)

// BinOp enumerates binary operators.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// IsCompare reports whether the operator yields a bool.
func (op BinOp) IsCompare() bool {
	return op >= OpEq
}

// FieldInit is one field of a record literal.
type FieldInit struct {
	Name string
	Expr ExprID
}

// Expr is a typed expression node. Payload fields are shared across kinds;
// the kind dictates which ones are meaningful.
type Expr struct {
	Kind ExprKind
	Ty   types.TypeID
	Span source.Span

	Int   int64
	Uint  uint64
	Float float64
	Bool  bool
	Str   string

	Un  UnOp
	Bin BinOp

	// X is the primary operand: lhs, condition, callee, projection base,
	// loop sequence, returned value, log level. Y is the secondary one:
	// rhs, index, logged value. Else chains else-blocks and else-ifs.
	X    ExprID
	Y    ExprID
	Else ExprID

	Local    LocalID
	Def      DefID
	TypeArgs []types.TypeID

	Name   string
	Args   []ExprID
	Fields []FieldInit

	// Blk is the attached block: body of loops and block exprs, the
	// then-arm of conditionals.
	Blk BlockID

	// Claim marks checks that the unsafe-claims build mode may elide.
	Claim bool
}
