package layout

import "ember/internal/types"

func (e *Engine) compute(id types.TypeID, state *layoutState) (TypeLayout, *Error) {
	tt, ok := e.Types.Lookup(id)
	if !ok {
		return TypeLayout{Align: 1}, nil
	}

	switch tt.Kind {
	case types.KindNil, types.KindBot:
		return TypeLayout{Size: 0, Align: 1}, nil

	case types.KindBool:
		return TypeLayout{Size: 1, Align: 1}, nil

	case types.KindInt, types.KindUint:
		if tt.Width == types.WidthWord {
			return TypeLayout{Size: e.Target.WordSize, Align: e.Target.WordAlign}, nil
		}
		n := int(tt.Width) / 8
		return TypeLayout{Size: n, Align: n}, nil

	case types.KindFloat:
		if tt.Width == types.Width64 {
			return TypeLayout{Size: 8, Align: e.Target.F64Align}, nil
		}
		return TypeLayout{Size: 4, Align: 4}, nil

	case types.KindStr, types.KindVec, types.KindBox, types.KindUniq, types.KindRawPtr:
		// Handles are single pointers; the pointee lives on the heap and
		// never contributes to the handle's layout, so recursion through a
		// pointer is fine.
		return TypeLayout{Size: e.Target.PtrSize, Align: e.Target.PtrAlign}, nil

	case types.KindFn:
		sig, _ := e.Types.FnInfo(id)
		if sig != nil && sig.Proto == types.ProtoBare {
			return TypeLayout{Size: e.Target.PtrSize, Align: e.Target.PtrAlign}, nil
		}
		// Closure values are {code, env} pairs.
		return TypeLayout{Size: 2 * e.Target.PtrSize, Align: e.Target.PtrAlign}, nil

	case types.KindIface:
		// {dictionary, boxed value} pair.
		return TypeLayout{Size: 2 * e.Target.PtrSize, Align: e.Target.PtrAlign}, nil

	case types.KindRec:
		info, _ := e.Types.RecInfo(id)
		fields := make([]types.TypeID, len(info.Fields))
		for i, f := range info.Fields {
			fields[i] = f.Type
		}
		return e.aggregate(fields, state)

	case types.KindTup:
		info, _ := e.Types.TupleInfo(id)
		return e.aggregate(info.Elems, state)

	case types.KindRes:
		// {drop-flag byte, inner value}, flag first.
		return e.aggregate([]types.TypeID{e.Types.Builtins().U8, e.Types.ResInner(id)}, state)

	case types.KindEnum:
		return e.enumLayout(id, state)

	case types.KindParam:
		return TypeLayout{Align: 1}, &Error{Kind: ErrDynamicSize, Type: id}

	case types.KindOpaque:
		return TypeLayout{Align: 1}, &Error{Kind: ErrNoLayout, Type: id}

	default:
		return TypeLayout{Align: 1}, nil
	}
}

// aggregate lays fields out in declaration order, padding each field up to
// its own alignment and the total size up to the aggregate alignment.
func (e *Engine) aggregate(fields []types.TypeID, state *layoutState) (TypeLayout, *Error) {
	offsets := make([]int, len(fields))
	size := 0
	align := 1
	for i, f := range fields {
		fl, err := e.layoutOf(f, state)
		if err != nil {
			return TypeLayout{Align: 1}, err
		}
		size = roundUp(size, fl.Align)
		offsets[i] = size
		size += fl.Size
		align = maxInt(align, fl.Align)
	}
	size = roundUp(size, align)
	return TypeLayout{Size: size, Align: align, FieldOffsets: offsets}, nil
}

func (e *Engine) enumLayout(id types.TypeID, state *layoutState) (TypeLayout, *Error) {
	variants := e.Types.EnumVariants(id)

	if e.Types.EnumIsCLike(id) {
		return TypeLayout{Size: e.Target.WordSize, Align: e.Target.WordAlign}, nil
	}
	if len(variants) == 1 {
		// Degenerate: no discriminant, the payload is the whole value.
		return e.aggregate(variants[0].Args, state)
	}

	payloadSize, payloadAlign := 0, 1
	for _, v := range variants {
		vl, err := e.aggregate(v.Args, state)
		if err != nil {
			return TypeLayout{Align: 1}, err
		}
		payloadSize = maxInt(payloadSize, vl.Size)
		payloadAlign = maxInt(payloadAlign, vl.Align)
	}

	align := maxInt(e.Target.WordAlign, payloadAlign)
	payloadOffset := roundUp(e.Target.WordSize, payloadAlign)
	size := roundUp(payloadOffset+payloadSize, align)
	return TypeLayout{Size: size, Align: align, PayloadOffset: payloadOffset}, nil
}

// BoxBodyOffset returns the offset of the payload inside a box allocation:
// one reference-count word, padded up to the payload alignment.
func (e *Engine) BoxBodyOffset(elem types.TypeID) (int, error) {
	al, err := e.AlignOf(elem)
	if err != nil {
		return 0, err
	}
	return roundUp(e.Target.WordSize, maxInt(al, 1)), nil
}

// VecDataOffset returns the offset of element storage inside a vector or
// string cell: two header words (fill, alloc) padded to the element
// alignment.
func (e *Engine) VecDataOffset(elemAlign int) int {
	return roundUp(2*e.Target.WordSize, maxInt(elemAlign, 1))
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
