package llvm

import (
	"fmt"
	"strings"

	"ember/internal/ir"
)

func (fe *funcEmitter) val(id ir.ValueID) (string, error) {
	if id < 0 || int(id) >= len(fe.f.Vals) {
		return "", fmt.Errorf("value %d out of range", id)
	}
	v := fe.f.Val(id)
	switch v.Kind {
	case ir.ValParam, ir.ValInstr:
		if fe.names[id] == "" {
			return "", fmt.Errorf("value %d used before definition", id)
		}
		return fe.names[id], nil
	case ir.ValConstInt:
		return fmt.Sprintf("%d", v.Int), nil
	case ir.ValConstFloat:
		return formatFloat(v.Ty, v.Float), nil
	case ir.ValConstNull:
		return "null", nil
	case ir.ValUndef:
		return "undef", nil
	case ir.ValGlobal:
		return "@" + fe.emitter.mod.Global(v.Global).Name, nil
	case ir.ValFunc:
		return "@" + fe.emitter.mod.Func(v.Fn).Name, nil
	default:
		return "", fmt.Errorf("value %d has invalid kind", id)
	}
}

// typed renders "ty val" for an operand position.
func (fe *funcEmitter) typed(id ir.ValueID) (string, error) {
	s, err := fe.val(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s", fe.f.TypeOf(id), s), nil
}

func (fe *funcEmitter) emitInstr(in *ir.Instr) error {
	buf := &fe.emitter.buf
	switch in.Kind {
	case ir.InstrAlloca:
		if in.Alloca.Align > 0 {
			fmt.Fprintf(buf, "  %s = alloca %s, align %d\n", fe.def(in.Res), in.Alloca.Ty, in.Alloca.Align)
		} else {
			fmt.Fprintf(buf, "  %s = alloca %s\n", fe.def(in.Res), in.Alloca.Ty)
		}
	case ir.InstrArrayAlloca:
		count, err := fe.typed(in.ArrayAlloca.Count)
		if err != nil {
			return err
		}
		if in.ArrayAlloca.Align > 0 {
			fmt.Fprintf(buf, "  %s = alloca %s, %s, align %d\n", fe.def(in.Res), in.ArrayAlloca.Elem, count, in.ArrayAlloca.Align)
		} else {
			fmt.Fprintf(buf, "  %s = alloca %s, %s\n", fe.def(in.Res), in.ArrayAlloca.Elem, count)
		}
	case ir.InstrLoad:
		ptr, err := fe.val(in.Load.Ptr)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = load %s, ptr %s\n", fe.def(in.Res), in.Load.Ty, ptr)
	case ir.InstrStore:
		v, err := fe.typed(in.Store.Val)
		if err != nil {
			return err
		}
		ptr, err := fe.val(in.Store.Ptr)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  store %s, ptr %s\n", v, ptr)
	case ir.InstrGEP:
		base, err := fe.val(in.GEP.Base)
		if err != nil {
			return err
		}
		var path strings.Builder
		for _, idx := range in.GEP.Path {
			fmt.Fprintf(&path, ", i32 %d", idx)
		}
		fmt.Fprintf(buf, "  %s = getelementptr inbounds %s, ptr %s, i32 0%s\n",
			fe.def(in.Res), in.GEP.BaseTy, base, path.String())
	case ir.InstrGEPIdx:
		base, err := fe.val(in.GEPIdx.Base)
		if err != nil {
			return err
		}
		idx, err := fe.typed(in.GEPIdx.Index)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = getelementptr inbounds %s, ptr %s, %s\n",
			fe.def(in.Res), in.GEPIdx.Elem, base, idx)
	case ir.InstrPtrOffset:
		base, err := fe.val(in.PtrOffset.Base)
		if err != nil {
			return err
		}
		off, err := fe.typed(in.PtrOffset.Off)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = getelementptr inbounds i8, ptr %s, %s\n", fe.def(in.Res), base, off)
	case ir.InstrBin:
		l, err := fe.val(in.Bin.L)
		if err != nil {
			return err
		}
		r, err := fe.val(in.Bin.R)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = %s %s %s, %s\n", fe.def(in.Res), binOpcode(in.Bin.Op), in.Bin.Ty, l, r)
	case ir.InstrICmp:
		l, err := fe.val(in.ICmp.L)
		if err != nil {
			return err
		}
		r, err := fe.val(in.ICmp.R)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = icmp %s %s %s, %s\n",
			fe.def(in.Res), icmpPred(in.ICmp.Pred), fe.f.TypeOf(in.ICmp.L), l, r)
	case ir.InstrFCmp:
		l, err := fe.val(in.FCmp.L)
		if err != nil {
			return err
		}
		r, err := fe.val(in.FCmp.R)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = fcmp %s %s %s, %s\n",
			fe.def(in.Res), fcmpPred(in.FCmp.Pred), fe.f.TypeOf(in.FCmp.L), l, r)
	case ir.InstrCast:
		v, err := fe.typed(in.Cast.V)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = %s %s to %s\n", fe.def(in.Res), castOpcode(in.Cast.Op), v, in.Cast.To)
	case ir.InstrSelect:
		cond, err := fe.typed(in.Select.Cond)
		if err != nil {
			return err
		}
		tv, err := fe.typed(in.Select.T)
		if err != nil {
			return err
		}
		fv, err := fe.typed(in.Select.F)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = select %s, %s, %s\n", fe.def(in.Res), cond, tv, fv)
	case ir.InstrCall:
		return fe.emitCall(in)
	case ir.InstrMemMove:
		dst, err := fe.val(in.MemMove.Dst)
		if err != nil {
			return err
		}
		src, err := fe.val(in.MemMove.Src)
		if err != nil {
			return err
		}
		size, err := fe.typed(in.MemMove.Size)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  call void @llvm.memmove.p0.p0.i64(ptr %s %s, ptr %s %s, %s, i1 false)\n",
			alignAttr(in.MemMove.Align), dst, alignAttr(in.MemMove.Align), src, size)
	case ir.InstrMemSet:
		dst, err := fe.val(in.MemSet.Dst)
		if err != nil {
			return err
		}
		b, err := fe.typed(in.MemSet.Byte)
		if err != nil {
			return err
		}
		size, err := fe.typed(in.MemSet.Size)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  call void @llvm.memset.p0.i64(ptr %s %s, %s, %s, i1 false)\n",
			alignAttr(in.MemSet.Align), dst, b, size)
	case ir.InstrPhi:
		edges := make([]string, len(in.Phi.Edges))
		for i, e := range in.Phi.Edges {
			v, err := fe.val(e.Val)
			if err != nil {
				return err
			}
			edges[i] = fmt.Sprintf("[ %s, %%%s ]", v, fe.label(e.From))
		}
		fmt.Fprintf(buf, "  %s = phi %s %s\n", fe.def(in.Res), in.Phi.Ty, strings.Join(edges, ", "))
	case ir.InstrLandingPad:
		fmt.Fprintf(buf, "  %s = landingpad { ptr, i32 } cleanup\n", fe.def(in.Res))
	default:
		return fmt.Errorf("unsupported instruction kind %d", in.Kind)
	}
	return nil
}

func (fe *funcEmitter) callTarget(ty *ir.Type, fn ir.FuncID, ind ir.ValueID) (string, error) {
	if fn != ir.NoFuncID {
		return "@" + fe.emitter.mod.Func(fn).Name, nil
	}
	return fe.val(ind)
}

// callSig renders the type part between "call" and the callee. Varargs
// need the full signature; plain calls only the return type.
func callSig(ty *ir.Type) string {
	if !ty.Vararg {
		return ty.Ret.String()
	}
	return ty.String()
}

func (fe *funcEmitter) renderArgs(args []ir.ValueID) (string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		t, err := fe.typed(a)
		if err != nil {
			return "", err
		}
		parts[i] = t
	}
	return strings.Join(parts, ", "), nil
}

func (fe *funcEmitter) emitCall(in *ir.Instr) error {
	target, err := fe.callTarget(in.Call.Ty, in.Call.Fn, in.Call.Ind)
	if err != nil {
		return err
	}
	args, err := fe.renderArgs(in.Call.Args)
	if err != nil {
		return err
	}
	if in.Res == ir.NoValueID {
		fmt.Fprintf(&fe.emitter.buf, "  call %s %s(%s)\n", callSig(in.Call.Ty), target, args)
		return nil
	}
	fmt.Fprintf(&fe.emitter.buf, "  %s = call %s %s(%s)\n", fe.def(in.Res), callSig(in.Call.Ty), target, args)
	return nil
}

func (fe *funcEmitter) emitTerm(t *ir.Terminator) error {
	buf := &fe.emitter.buf
	switch t.Kind {
	case ir.TermBr:
		fmt.Fprintf(buf, "  br label %%%s\n", fe.label(t.Br.Target))
	case ir.TermCondBr:
		cond, err := fe.val(t.CondBr.Cond)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  br i1 %s, label %%%s, label %%%s\n",
			cond, fe.label(t.CondBr.Then), fe.label(t.CondBr.Else))
	case ir.TermSwitch:
		v, err := fe.typed(t.Switch.Val)
		if err != nil {
			return err
		}
		ty := fe.f.TypeOf(t.Switch.Val)
		fmt.Fprintf(buf, "  switch %s, label %%%s [\n", v, fe.label(t.Switch.Default))
		for _, c := range t.Switch.Cases {
			fmt.Fprintf(buf, "    %s %d, label %%%s\n", ty, c.Val, fe.label(c.Target))
		}
		fmt.Fprintf(buf, "  ]\n")
	case ir.TermRet:
		if !t.Ret.HasValue {
			fmt.Fprintf(buf, "  ret void\n")
			return nil
		}
		v, err := fe.typed(t.Ret.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  ret %s\n", v)
	case ir.TermInvoke:
		target, err := fe.callTarget(t.Invoke.Ty, t.Invoke.Fn, t.Invoke.Ind)
		if err != nil {
			return err
		}
		args, err := fe.renderArgs(t.Invoke.Args)
		if err != nil {
			return err
		}
		res := ""
		if t.Invoke.Res != ir.NoValueID {
			res = fe.def(t.Invoke.Res) + " = "
		}
		fmt.Fprintf(buf, "  %sinvoke %s %s(%s)\n          to label %%%s unwind label %%%s\n",
			res, callSig(t.Invoke.Ty), target, args,
			fe.label(t.Invoke.Normal), fe.label(t.Invoke.Unwind))
	case ir.TermResume:
		tok, err := fe.typed(t.Resume.Token)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  resume %s\n", tok)
	case ir.TermUnreachable:
		fmt.Fprintf(buf, "  unreachable\n")
	default:
		return fmt.Errorf("unsupported terminator kind %d", t.Kind)
	}
	return nil
}

func alignAttr(align int) string {
	if align <= 0 {
		return "align 1"
	}
	return fmt.Sprintf("align %d", align)
}

func binOpcode(op ir.BinKind) string {
	switch op {
	case ir.BinAdd:
		return "add"
	case ir.BinSub:
		return "sub"
	case ir.BinMul:
		return "mul"
	case ir.BinSDiv:
		return "sdiv"
	case ir.BinUDiv:
		return "udiv"
	case ir.BinSRem:
		return "srem"
	case ir.BinURem:
		return "urem"
	case ir.BinAnd:
		return "and"
	case ir.BinOr:
		return "or"
	case ir.BinXor:
		return "xor"
	case ir.BinShl:
		return "shl"
	case ir.BinLShr:
		return "lshr"
	case ir.BinAShr:
		return "ashr"
	case ir.BinFAdd:
		return "fadd"
	case ir.BinFSub:
		return "fsub"
	case ir.BinFMul:
		return "fmul"
	case ir.BinFDiv:
		return "fdiv"
	case ir.BinFRem:
		return "frem"
	default:
		return "??"
	}
}

func icmpPred(p ir.ICmpPred) string {
	switch p {
	case ir.IEq:
		return "eq"
	case ir.INe:
		return "ne"
	case ir.ISlt:
		return "slt"
	case ir.ISle:
		return "sle"
	case ir.ISgt:
		return "sgt"
	case ir.ISge:
		return "sge"
	case ir.IUlt:
		return "ult"
	case ir.IUle:
		return "ule"
	case ir.IUgt:
		return "ugt"
	case ir.IUge:
		return "uge"
	default:
		return "??"
	}
}

func fcmpPred(p ir.FCmpPred) string {
	switch p {
	case ir.FOeq:
		return "oeq"
	case ir.FOne:
		return "one"
	case ir.FOlt:
		return "olt"
	case ir.FOle:
		return "ole"
	case ir.FOgt:
		return "ogt"
	case ir.FOge:
		return "oge"
	default:
		return "??"
	}
}

func castOpcode(op ir.CastKind) string {
	switch op {
	case ir.CastBitcast:
		return "bitcast"
	case ir.CastTrunc:
		return "trunc"
	case ir.CastZExt:
		return "zext"
	case ir.CastSExt:
		return "sext"
	case ir.CastFPTrunc:
		return "fptrunc"
	case ir.CastFPExt:
		return "fpext"
	case ir.CastSIToFP:
		return "sitofp"
	case ir.CastUIToFP:
		return "uitofp"
	case ir.CastFPToSI:
		return "fptosi"
	case ir.CastFPToUI:
		return "fptoui"
	case ir.CastPtrToInt:
		return "ptrtoint"
	case ir.CastIntToPtr:
		return "inttoptr"
	default:
		return "??"
	}
}
