package types

import "slices"

// ArgMode is the declared passing mode of one function argument.
type ArgMode uint8

const (
	// ModeVal passes an immediate by value.
	ModeVal ArgMode = iota
	// ModeRef passes the address of the argument; non-addressable values are
	// spilled to a temporary at the call site.
	ModeRef
	// ModeCopy passes a fresh owned duplicate; the callee drops it.
	ModeCopy
	// ModeMove transfers ownership from the caller; the callee drops it.
	ModeMove
)

// Proto distinguishes bare function references from closures carrying an
// environment.
type Proto uint8

const (
	// ProtoBare is a plain code pointer with a null environment.
	ProtoBare Proto = iota
	// ProtoClosure is a {code, environment-box} pair.
	ProtoClosure
)

// FnArg pairs a declared mode with a parameter type.
type FnArg struct {
	Mode ArgMode
	Type TypeID
}

// FnSig stores metadata for function types.
type FnSig struct {
	Proto Proto
	Args  []FnArg
	Ret   TypeID
}

// Fn creates or finds a function type.
func (in *Interner) Fn(proto Proto, args []FnArg, ret TypeID) TypeID {
	for id := TypeID(1); int(id) < len(in.types); id++ {
		tt := in.types[id]
		if tt.Kind != KindFn {
			continue
		}
		sig := in.fns[tt.Payload]
		if sig.Proto == proto && sig.Ret == ret && slices.Equal(sig.Args, args) {
			return id
		}
	}
	slot := in.appendSlot(len(in.fns))
	in.fns = append(in.fns, FnSig{Proto: proto, Args: slices.Clone(args), Ret: ret})
	return in.internRaw(Type{Kind: KindFn, Payload: slot})
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (*FnSig, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFn || int(tt.Payload) >= len(in.fns) {
		return nil, false
	}
	return &in.fns[tt.Payload], true
}

// IfaceID identifies an interface definition.
type IfaceID uint32

// IfaceMethod is one method slot of an interface definition.
type IfaceMethod struct {
	Name string
	Sig  TypeID
}

// IfaceDef describes an interface: a name plus its ordered method slots.
type IfaceDef struct {
	Name    string
	Methods []IfaceMethod
}

// DeclareIface registers an interface definition.
func (in *Interner) DeclareIface(name string, methods []IfaceMethod) IfaceID {
	id := IfaceID(in.appendSlot(len(in.ifaces)))
	in.ifaces = append(in.ifaces, IfaceDef{Name: name, Methods: slices.Clone(methods)})
	return id
}

// IfaceDef returns the definition for an IfaceID.
func (in *Interner) IfaceDef(id IfaceID) *IfaceDef {
	return &in.ifaces[id]
}

// Iface creates or finds the TypeID for an interface definition.
func (in *Interner) Iface(def IfaceID) TypeID {
	return in.Intern(Type{Kind: KindIface, Payload: uint32(def)})
}

// IfaceInfo returns the definition behind an interface TypeID.
func (in *Interner) IfaceInfo(id TypeID) (IfaceID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindIface {
		return 0, false
	}
	return IfaceID(tt.Payload), true
}
