package ast

import (
	"ember/internal/source"
	"ember/internal/types"
)

// TypeParam is one universally quantified type parameter of a definition.
type TypeParam struct {
	Name   string
	Bounds []types.IfaceID
}

// FnDef is a function definition (or declaration, when Body is NoBlockID).
type FnDef struct {
	ID   FnID
	Def  DefID
	Name string
	// Path is the full module path, ending in Name.
	Path       []string
	TypeParams []TypeParam
	Args       []LocalID
	Ret        types.TypeID
	Body       BlockID
	Locals     []Local
	Span       source.Span
}

// Sig returns the function's type as seen by callers.
func (f *FnDef) Sig(m *Module) types.TypeID {
	args := make([]types.FnArg, len(f.Args))
	for i, a := range f.Args {
		l := f.Locals[a]
		args[i] = types.FnArg{Mode: l.Mode, Type: l.Ty}
	}
	return m.Types.Fn(types.ProtoBare, args, f.Ret)
}

// DefKind enumerates referencable module-level definitions.
type DefKind uint8

const (
	DefInvalid DefKind = iota
	// DefFn names a function.
	DefFn
	// DefVariant names one enum variant constructor.
	DefVariant
	// DefResCtor names a resource constructor.
	DefResCtor
	// DefConst names a module constant.
	DefConst
	// DefImpl names a static interface implementation (a dictionary).
	DefImpl
)

// Def resolves a DefID to its target.
type Def struct {
	Kind DefKind
	Name string

	Fn      FnID        // DefFn
	Enum    types.EnumID // DefVariant
	Variant int          // DefVariant: index into the definition's variants
	Res     types.ResID  // DefResCtor
	Const   int32        // DefConst: index into Module.Consts
	Iface   types.IfaceID // DefImpl
	Methods []FnID        // DefImpl: bodies in interface slot order
}

// ConstDef is a module-level constant with a foldable initializer.
type ConstDef struct {
	Name string
	Ty   types.TypeID
	Init ExprID
	Span source.Span
}

// EnumDecl ties an enum definition to the DefIDs of its variant
// constructors, in variant order.
type EnumDecl struct {
	Enum        types.EnumID
	TypeParams  []TypeParam
	VariantDefs []DefID
}

// ResDecl ties a resource definition to its constructor def and destructor
// function.
type ResDecl struct {
	Res        types.ResID
	TypeParams []TypeParam
	Ctor       DefID
	Dtor       FnID
}
