package types

// Subst replaces every KindParam occurrence in ty by the corresponding entry
// of args and returns the (interned) result. Types without parameters are
// returned unchanged.
func (in *Interner) Subst(ty TypeID, args []TypeID) TypeID {
	if len(args) == 0 || !in.ContainsParams(ty) {
		return ty
	}
	tt := in.MustLookup(ty)
	switch tt.Kind {
	case KindParam:
		n := int(tt.Payload)
		if n >= len(args) {
			panic("types: substitution index out of range")
		}
		return args[n]
	case KindVec, KindBox, KindUniq, KindRawPtr:
		return in.Intern(Type{Kind: tt.Kind, Elem: in.Subst(tt.Elem, args)})
	case KindRec:
		info := in.recs[tt.Payload]
		fields := make([]RecField, len(info.Fields))
		for i, f := range info.Fields {
			fields[i] = RecField{Name: f.Name, Type: in.Subst(f.Type, args)}
		}
		return in.Rec(fields)
	case KindTup:
		info := in.tuples[tt.Payload]
		elems := make([]TypeID, len(info.Elems))
		for i, e := range info.Elems {
			elems[i] = in.Subst(e, args)
		}
		return in.Tuple(elems)
	case KindEnum:
		inst := in.enumIns[tt.Payload]
		targs := make([]TypeID, len(inst.args))
		for i, a := range inst.args {
			targs[i] = in.Subst(a, args)
		}
		return in.Enum(inst.def, targs)
	case KindRes:
		inst := in.resIns[tt.Payload]
		targs := make([]TypeID, len(inst.args))
		for i, a := range inst.args {
			targs[i] = in.Subst(a, args)
		}
		return in.Res(inst.def, targs)
	case KindFn:
		sig := in.fns[tt.Payload]
		fargs := make([]FnArg, len(sig.Args))
		for i, a := range sig.Args {
			fargs[i] = FnArg{Mode: a.Mode, Type: in.Subst(a.Type, args)}
		}
		return in.Fn(sig.Proto, fargs, in.Subst(sig.Ret, args))
	default:
		return ty
	}
}

// ContainsParams reports whether ty mentions any bound type parameter.
func (in *Interner) ContainsParams(ty TypeID) bool {
	tt, ok := in.Lookup(ty)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindParam:
		return true
	case KindVec, KindBox, KindUniq, KindRawPtr:
		return in.ContainsParams(tt.Elem)
	case KindRec:
		for _, f := range in.recs[tt.Payload].Fields {
			if in.ContainsParams(f.Type) {
				return true
			}
		}
	case KindTup:
		for _, e := range in.tuples[tt.Payload].Elems {
			if in.ContainsParams(e) {
				return true
			}
		}
	case KindEnum:
		for _, a := range in.enumIns[tt.Payload].args {
			if in.ContainsParams(a) {
				return true
			}
		}
	case KindRes:
		for _, a := range in.resIns[tt.Payload].args {
			if in.ContainsParams(a) {
				return true
			}
		}
	case KindFn:
		sig := in.fns[tt.Payload]
		for _, a := range sig.Args {
			if in.ContainsParams(a.Type) {
				return true
			}
		}
		return in.ContainsParams(sig.Ret)
	}
	return false
}

// WalkParams calls f with the index of every KindParam occurrence in ty, in
// left-to-right traversal order, possibly repeating indices.
func (in *Interner) WalkParams(ty TypeID, f func(n uint32)) {
	tt, ok := in.Lookup(ty)
	if !ok {
		return
	}
	switch tt.Kind {
	case KindParam:
		f(tt.Payload)
	case KindVec, KindBox, KindUniq, KindRawPtr:
		in.WalkParams(tt.Elem, f)
	case KindRec:
		for _, fld := range in.recs[tt.Payload].Fields {
			in.WalkParams(fld.Type, f)
		}
	case KindTup:
		for _, e := range in.tuples[tt.Payload].Elems {
			in.WalkParams(e, f)
		}
	case KindEnum:
		for _, a := range in.enumIns[tt.Payload].args {
			in.WalkParams(a, f)
		}
	case KindRes:
		for _, a := range in.resIns[tt.Payload].args {
			in.WalkParams(a, f)
		}
	case KindFn:
		sig := in.fns[tt.Payload]
		for _, a := range sig.Args {
			in.WalkParams(a.Type, f)
		}
		in.WalkParams(sig.Ret, f)
	}
}
