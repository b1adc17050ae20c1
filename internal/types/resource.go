package types

import "slices"

// ResID identifies a resource definition.
type ResID uint32

// ResDef is a (possibly generic) resource definition: a value wrapping Inner
// whose destructor runs exactly once when the value is dropped.
type ResDef struct {
	Name    string
	NParams int
	Inner   TypeID
}

type resInst struct {
	def  ResID
	args []TypeID
}

// DeclareRes registers a resource definition.
func (in *Interner) DeclareRes(name string, nparams int, inner TypeID) ResID {
	id := ResID(in.appendSlot(len(in.ress)))
	in.ress = append(in.ress, ResDef{Name: name, NParams: nparams, Inner: inner})
	return id
}

// ResDef returns the definition for a ResID.
func (in *Interner) ResDef(id ResID) *ResDef {
	return &in.ress[id]
}

// Res creates or finds the instantiation of def with the given type args.
func (in *Interner) Res(def ResID, args []TypeID) TypeID {
	for id := TypeID(1); int(id) < len(in.types); id++ {
		tt := in.types[id]
		if tt.Kind != KindRes {
			continue
		}
		inst := in.resIns[tt.Payload]
		if inst.def == def && slices.Equal(inst.args, args) {
			return id
		}
	}
	slot := in.appendSlot(len(in.resIns))
	in.resIns = append(in.resIns, resInst{def: def, args: cloneTypeArgs(args)})
	return in.internRaw(Type{Kind: KindRes, Payload: slot})
}

// ResInfo splits a resource TypeID into its definition and type arguments.
func (in *Interner) ResInfo(id TypeID) (ResID, []TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindRes {
		return 0, nil, false
	}
	inst := in.resIns[tt.Payload]
	return inst.def, inst.args, true
}

// ResInner returns the wrapped value type of a resource TypeID with the
// instantiation's type arguments substituted.
func (in *Interner) ResInner(id TypeID) TypeID {
	def, args, ok := in.ResInfo(id)
	if !ok {
		return NoTypeID
	}
	return in.Subst(in.ress[def].Inner, args)
}
