package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindNil is the unit type; it occupies no storage.
	KindNil
	KindBool
	KindInt
	KindUint
	KindFloat
	// KindStr is a heap-allocated byte sequence with a trailing NUL.
	KindStr
	// KindVec is a heap-allocated growable sequence.
	KindVec
	// KindBox is a reference-counted shared pointer.
	KindBox
	// KindUniq is a uniquely owned pointer.
	KindUniq
	// KindRawPtr is an unsafe untracked pointer.
	KindRawPtr
	// KindRec is a structural record with named fields.
	KindRec
	// KindTup is a structural tuple.
	KindTup
	// KindEnum instantiates a tagged-union definition.
	KindEnum
	// KindRes instantiates a resource (destructor-bearing) definition.
	KindRes
	// KindFn is a function signature.
	KindFn
	// KindIface is an interface (dictionary-dispatched) type.
	KindIface
	// KindParam is a bound type parameter, identified by index.
	KindParam
	// KindOpaque is a runtime-internal type usable only behind RawPtr.
	KindOpaque
	// KindBot is the diverging type; expressions of this type never produce
	// a value.
	KindBot
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindVec:
		return "vec"
	case KindBox:
		return "box"
	case KindUniq:
		return "uniq"
	case KindRawPtr:
		return "rawptr"
	case KindRec:
		return "rec"
	case KindTup:
		return "tup"
	case KindEnum:
		return "enum"
	case KindRes:
		return "res"
	case KindFn:
		return "fn"
	case KindIface:
		return "iface"
	case KindParam:
		return "param"
	case KindOpaque:
		return "opaque"
	case KindBot:
		return "bot"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers and floats. WidthWord means the
// target's native machine word.
type Width uint8

const (
	WidthWord Width = 0
	Width8    Width = 8
	Width16   Width = 16
	Width32   Width = 32
	Width64   Width = 64
)

// Type is a compact descriptor for any supported type. Kinds with out-of-line
// metadata (records, tuples, enums, resources, functions, interfaces,
// opaques) store a slot into the interner's side tables in Payload.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Width   Width
	Payload uint32
}

// MakeInt describes a signed integer of the given width (WidthWord for "int").
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer of the given width.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type (Width32 or Width64).
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakeVec describes a vector of element type.
func MakeVec(elem TypeID) Type {
	return Type{Kind: KindVec, Elem: elem}
}

// MakeBox describes a shared, reference-counted pointer to elem.
func MakeBox(elem TypeID) Type {
	return Type{Kind: KindBox, Elem: elem}
}

// MakeUniq describes a uniquely owned pointer to elem.
func MakeUniq(elem TypeID) Type {
	return Type{Kind: KindUniq, Elem: elem}
}

// MakeRawPtr describes an untracked pointer to elem.
func MakeRawPtr(elem TypeID) Type {
	return Type{Kind: KindRawPtr, Elem: elem}
}

// MakeParam describes the n-th bound type parameter of the enclosing item.
func MakeParam(n uint32) Type {
	return Type{Kind: KindParam, Payload: n}
}
