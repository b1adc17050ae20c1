package ir

// GInitKind enumerates constant-initializer node kinds.
type GInitKind uint8

const (
	// GZero zero-fills the global's type.
	GZero GInitKind = iota
	// GInt is an integer constant.
	GInt
	// GFloat is a float constant.
	GFloat
	// GNull is the null pointer.
	GNull
	// GBytes is raw byte data, emitted as an i8 array.
	GBytes
	// GStruct aggregates nested initializers.
	GStruct
	// GArray repeats nested initializers of one element type.
	GArray
	// GGlobalRef is the address of another global.
	GGlobalRef
	// GFuncRef is the address of a function.
	GFuncRef
)

// GInit is one node of a constant initializer tree. Ty must match the
// slot being initialized; for GBytes it is the array type.
type GInit struct {
	Kind GInitKind
	Ty   *Type

	Int    int64
	Float  float64
	Bytes  []byte
	Elems  []*GInit // GStruct, GArray
	Global GlobalID
	Fn     FuncID
}

// InitZero builds a zero initializer.
func InitZero(ty *Type) *GInit { return &GInit{Kind: GZero, Ty: ty} }

// InitInt builds an integer initializer.
func InitInt(ty *Type, v int64) *GInit { return &GInit{Kind: GInt, Ty: ty, Int: v} }

// InitFloat builds a float initializer.
func InitFloat(ty *Type, v float64) *GInit { return &GInit{Kind: GFloat, Ty: ty, Float: v} }

// InitNull builds a null-pointer initializer.
func InitNull() *GInit { return &GInit{Kind: GNull, Ty: Ptr} }

// InitBytes builds a byte-array initializer.
func InitBytes(data []byte) *GInit {
	return &GInit{Kind: GBytes, Ty: ArrayOf(I8, int64(len(data))), Bytes: data}
}

// InitStruct builds a struct initializer; the type is derived from the
// element initializers.
func InitStruct(elems ...*GInit) *GInit {
	fields := make([]*Type, len(elems))
	for i, e := range elems {
		fields[i] = e.Ty
	}
	return &GInit{Kind: GStruct, Ty: StructOf(fields...), Elems: elems}
}

// InitArray builds an array initializer over elems of type elem.
func InitArray(elem *Type, elems ...*GInit) *GInit {
	return &GInit{Kind: GArray, Ty: ArrayOf(elem, int64(len(elems))), Elems: elems}
}

// InitGlobalRef builds a pointer initializer referencing another global.
func InitGlobalRef(g GlobalID) *GInit {
	return &GInit{Kind: GGlobalRef, Ty: Ptr, Global: g}
}

// InitFuncRef builds a pointer initializer referencing a function.
func InitFuncRef(fn FuncID) *GInit {
	return &GInit{Kind: GFuncRef, Ty: Ptr, Fn: fn}
}

// Global is one module-level variable. Init may stay nil while a global
// is forward-declared and be filled in before emission.
type Global struct {
	ID   GlobalID
	Name string
	Ty   *Type
	Init *GInit

	Const    bool
	Internal bool
	Decl     bool
}
