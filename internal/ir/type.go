package ir

import (
	"fmt"
	"strings"
)

// TypeKind enumerates low-level value types.
type TypeKind uint8

const (
	TVoid TypeKind = iota
	TInt
	TFloat
	TPtr
	TStruct
	TArray
	TFunc
)

// Type is an immutable low-level type. Construct composite types through
// StructOf, ArrayOf and FuncOf; never mutate a Type after creation.
type Type struct {
	Kind   TypeKind
	Bits   int     // TInt, TFloat
	Elem   *Type   // TArray
	Len    int64   // TArray
	Fields []*Type // TStruct
	Params []*Type // TFunc
	Ret    *Type   // TFunc
	Vararg bool    // TFunc
}

// Shared singletons for the common scalar types. All pointers are the one
// opaque Ptr type.
var (
	Void = &Type{Kind: TVoid}
	I1   = &Type{Kind: TInt, Bits: 1}
	I8   = &Type{Kind: TInt, Bits: 8}
	I16  = &Type{Kind: TInt, Bits: 16}
	I32  = &Type{Kind: TInt, Bits: 32}
	I64  = &Type{Kind: TInt, Bits: 64}
	F32  = &Type{Kind: TFloat, Bits: 32}
	F64  = &Type{Kind: TFloat, Bits: 64}
	Ptr  = &Type{Kind: TPtr}
)

// UnwindToken is the exception value a landing pad yields and resume
// re-raises.
var UnwindToken = &Type{Kind: TStruct, Fields: []*Type{Ptr, I32}}

// IntBits returns the integer type of the given width.
func IntBits(bits int) *Type {
	switch bits {
	case 1:
		return I1
	case 8:
		return I8
	case 16:
		return I16
	case 32:
		return I32
	case 64:
		return I64
	default:
		panic(fmt.Errorf("unsupported integer width %d", bits))
	}
}

// FloatBits returns the float type of the given width.
func FloatBits(bits int) *Type {
	switch bits {
	case 32:
		return F32
	case 64:
		return F64
	default:
		panic(fmt.Errorf("unsupported float width %d", bits))
	}
}

// StructOf builds a literal struct type.
func StructOf(fields ...*Type) *Type {
	return &Type{Kind: TStruct, Fields: fields}
}

// ArrayOf builds an array type of n elements.
func ArrayOf(elem *Type, n int64) *Type {
	return &Type{Kind: TArray, Elem: elem, Len: n}
}

// FuncOf builds a function type.
func FuncOf(ret *Type, params ...*Type) *Type {
	return &Type{Kind: TFunc, Ret: ret, Params: params}
}

// VarargFuncOf builds a variadic function type.
func VarargFuncOf(ret *Type, params ...*Type) *Type {
	return &Type{Kind: TFunc, Ret: ret, Params: params, Vararg: true}
}

// Equal reports structural type equality. Singleton scalars compare by
// pointer first, so the common case is cheap.
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TVoid, TPtr:
		return true
	case TInt, TFloat:
		return a.Bits == b.Bits
	case TArray:
		return a.Len == b.Len && Equal(a.Elem, b.Elem)
	case TStruct:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if !Equal(a.Fields[i], b.Fields[i]) {
				return false
			}
		}
		return true
	case TFunc:
		if a.Vararg != b.Vararg || len(a.Params) != len(b.Params) || !Equal(a.Ret, b.Ret) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the type in LLVM-flavoured syntax.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TVoid:
		return "void"
	case TInt:
		return fmt.Sprintf("i%d", t.Bits)
	case TFloat:
		if t.Bits == 32 {
			return "float"
		}
		return "double"
	case TPtr:
		return "ptr"
	case TStruct:
		var sb strings.Builder
		sb.WriteString("{ ")
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.String())
		}
		sb.WriteString(" }")
		return sb.String()
	case TArray:
		return fmt.Sprintf("[%d x %s]", t.Len, t.Elem)
	case TFunc:
		var sb strings.Builder
		sb.WriteString(t.Ret.String())
		sb.WriteString(" (")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		if t.Vararg {
			if len(t.Params) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("...")
		}
		sb.WriteString(")")
		return sb.String()
	default:
		return "<invalid>"
	}
}
