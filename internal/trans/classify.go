package trans

import "ember/internal/types"

// isScalar reports register-sized arithmetic values: the ones copy and
// compare lower to plain machine ops.
func (cx *Context) isScalar(t types.TypeID) bool {
	switch cx.types.Kind(t) {
	case types.KindBool, types.KindInt, types.KindUint, types.KindFloat, types.KindRawPtr:
		return true
	case types.KindEnum:
		return cx.types.EnumIsCLike(t)
	}
	return false
}

// isImmediate reports whether values of t travel in a register. Everything
// else lives in memory and moves by pointer.
func (cx *Context) isImmediate(t types.TypeID) bool {
	switch cx.types.Kind(t) {
	case types.KindNil, types.KindBot:
		return true
	case types.KindStr, types.KindVec, types.KindBox, types.KindUniq:
		return true
	case types.KindFn:
		sig, ok := cx.types.FnInfo(t)
		return ok && sig.Proto == types.ProtoBare
	}
	return cx.isScalar(t)
}

// isStructural reports aggregates the glue walks field by field.
func (cx *Context) isStructural(t types.TypeID) bool {
	switch cx.types.Kind(t) {
	case types.KindRec, types.KindTup, types.KindRes:
		return true
	case types.KindEnum:
		return !cx.types.EnumIsCLike(t)
	case types.KindFn:
		sig, ok := cx.types.FnInfo(t)
		return ok && sig.Proto == types.ProtoClosure
	case types.KindIface:
		return true
	}
	return false
}

// needsLifecycle reports whether values of t own anything: such values get
// glue and their copies and drops are observable.
func (cx *Context) needsLifecycle(t types.TypeID) bool {
	return cx.lifecycleWalk(t, make(map[types.TypeID]bool))
}

func (cx *Context) lifecycleWalk(t types.TypeID, seen map[types.TypeID]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true
	switch cx.types.Kind(t) {
	case types.KindStr, types.KindVec, types.KindBox, types.KindUniq,
		types.KindRes, types.KindIface, types.KindParam:
		return true
	case types.KindFn:
		sig, ok := cx.types.FnInfo(t)
		return ok && sig.Proto == types.ProtoClosure
	case types.KindRec:
		info, ok := cx.types.RecInfo(t)
		if !ok {
			return false
		}
		for _, f := range info.Fields {
			if cx.lifecycleWalk(f.Type, seen) {
				return true
			}
		}
	case types.KindTup:
		info, ok := cx.types.TupleInfo(t)
		if !ok {
			return false
		}
		for _, e := range info.Elems {
			if cx.lifecycleWalk(e, seen) {
				return true
			}
		}
	case types.KindEnum:
		for _, v := range cx.types.EnumVariants(t) {
			for _, a := range v.Args {
				if cx.lifecycleWalk(a, seen) {
					return true
				}
			}
		}
	}
	return false
}

// isDegenEnum reports single-variant enums; they elide the discriminant
// and lower to their bare payload.
func (cx *Context) isDegenEnum(t types.TypeID) bool {
	return cx.types.Kind(t) == types.KindEnum && cx.types.EnumIsDegen(t)
}
