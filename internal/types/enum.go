package types

import "slices"

// EnumID identifies an enum definition.
type EnumID uint32

// Variant is one arm of an enum definition. Arg types of generic enums refer
// to the definition's parameters through KindParam.
type Variant struct {
	Name  string
	Discr int64
	Args  []TypeID
}

// EnumDef is a (possibly generic) enum definition shared by all of its
// instantiations.
type EnumDef struct {
	Name     string
	NParams  int
	Variants []Variant
}

type enumInst struct {
	def  EnumID
	args []TypeID
}

// DeclareEnum registers an empty enum definition. Variants are attached
// separately so self-referential definitions can be built.
func (in *Interner) DeclareEnum(name string, nparams int) EnumID {
	id := EnumID(in.appendSlot(len(in.enums)))
	in.enums = append(in.enums, EnumDef{Name: name, NParams: nparams})
	return id
}

// SetEnumVariants attaches the variant list to a declared enum.
func (in *Interner) SetEnumVariants(id EnumID, variants []Variant) {
	vs := make([]Variant, len(variants))
	for i, v := range variants {
		vs[i] = Variant{Name: v.Name, Discr: v.Discr, Args: cloneTypeArgs(v.Args)}
	}
	in.enums[id].Variants = vs
}

// EnumDef returns the definition for an EnumID.
func (in *Interner) EnumDef(id EnumID) *EnumDef {
	return &in.enums[id]
}

// Enum creates or finds the instantiation of def with the given type args.
func (in *Interner) Enum(def EnumID, args []TypeID) TypeID {
	for id := TypeID(1); int(id) < len(in.types); id++ {
		tt := in.types[id]
		if tt.Kind != KindEnum {
			continue
		}
		inst := in.enumIns[tt.Payload]
		if inst.def == def && slices.Equal(inst.args, args) {
			return id
		}
	}
	slot := in.appendSlot(len(in.enumIns))
	in.enumIns = append(in.enumIns, enumInst{def: def, args: cloneTypeArgs(args)})
	return in.internRaw(Type{Kind: KindEnum, Payload: slot})
}

// EnumInfo splits an enum TypeID into its definition and type arguments.
func (in *Interner) EnumInfo(id TypeID) (EnumID, []TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindEnum {
		return 0, nil, false
	}
	inst := in.enumIns[tt.Payload]
	return inst.def, inst.args, true
}

// EnumVariants returns the variant list of an enum TypeID with the
// instantiation's type arguments substituted into every arg type.
func (in *Interner) EnumVariants(id TypeID) []Variant {
	def, args, ok := in.EnumInfo(id)
	if !ok {
		return nil
	}
	src := in.enums[def].Variants
	out := make([]Variant, len(src))
	for i, v := range src {
		vargs := make([]TypeID, len(v.Args))
		for j, a := range v.Args {
			vargs[j] = in.Subst(a, args)
		}
		out[i] = Variant{Name: v.Name, Discr: v.Discr, Args: vargs}
	}
	return out
}

// EnumIsDegen reports whether the enum has exactly one variant; degenerate
// enums store no discriminant at all.
func (in *Interner) EnumIsDegen(id TypeID) bool {
	def, _, ok := in.EnumInfo(id)
	return ok && len(in.enums[def].Variants) == 1
}

// EnumIsCLike reports whether every variant carries no payload; such enums
// lower to their bare discriminant.
func (in *Interner) EnumIsCLike(id TypeID) bool {
	def, _, ok := in.EnumInfo(id)
	if !ok {
		return false
	}
	vs := in.enums[def].Variants
	if len(vs) < 2 {
		return false
	}
	for _, v := range vs {
		if len(v.Args) > 0 {
			return false
		}
	}
	return true
}
