package ir

import "fmt"

// Check verifies structural well-formedness of a defined function: every
// block is terminated, every operand refers to a live arena entry, values
// produced by instructions are defined somewhere in the function, phi
// edges come from actual predecessors and invoke results are not consumed
// on the unwind edge. It does not prove full SSA dominance.
func Check(f *Func) error {
	if f.Decl {
		if len(f.Blocks) != 0 {
			return fmt.Errorf("ir: declaration %s has blocks", f.Name)
		}
		return nil
	}
	if len(f.Blocks) == 0 {
		return fmt.Errorf("ir: function %s has no blocks", f.Name)
	}

	defined := make([]bool, len(f.Vals))
	for _, id := range f.Params {
		defined[id] = true
	}
	for i, v := range f.Vals {
		if v.Kind != ValInstr && v.Kind != ValInvalid && v.Kind != ValParam {
			defined[i] = true
		}
	}
	for _, b := range f.Blocks {
		for i := range b.Instrs {
			if res := b.Instrs[i].Res; res != NoValueID {
				defined[res] = true
			}
		}
		if b.Term.Kind == TermInvoke && b.Term.Invoke.Res != NoValueID {
			defined[b.Term.Invoke.Res] = true
		}
	}

	checkOp := func(b *Block, id ValueID) error {
		if id < 0 || int(id) >= len(f.Vals) {
			return fmt.Errorf("ir: %s.%s: operand %d out of range", f.Name, b.Name, id)
		}
		if f.Vals[id].Kind == ValInvalid {
			return fmt.Errorf("ir: %s.%s: operand %d is invalid", f.Name, b.Name, id)
		}
		if !defined[id] {
			return fmt.Errorf("ir: %s.%s: operand %d has no definition", f.Name, b.Name, id)
		}
		return nil
	}
	checkBlockRef := func(b *Block, id BlockID) error {
		if id < 0 || int(id) >= len(f.Blocks) {
			return fmt.Errorf("ir: %s.%s: branch to missing block %d", f.Name, b.Name, id)
		}
		return nil
	}

	for _, b := range f.Blocks {
		if !b.Terminated() {
			return fmt.Errorf("ir: %s.%s: block not terminated", f.Name, b.Name)
		}
		for i := range b.Instrs {
			in := &b.Instrs[i]
			for _, op := range instrOperands(in) {
				if err := checkOp(b, op); err != nil {
					return err
				}
			}
			if in.Kind == InstrPhi {
				if err := checkPhi(f, b, in); err != nil {
					return err
				}
			}
		}
		for _, succ := range b.Term.Successors() {
			if err := checkBlockRef(b, succ); err != nil {
				return err
			}
		}
		for _, op := range termOperands(&b.Term) {
			if err := checkOp(b, op); err != nil {
				return err
			}
		}
	}

	return checkInvokeResults(f)
}

// CheckModule runs Check over every function and validates direct call
// signatures against their callees.
func CheckModule(m *Module) error {
	for _, f := range m.Funcs {
		if err := Check(f); err != nil {
			return err
		}
		for _, b := range f.Blocks {
			for i := range b.Instrs {
				in := &b.Instrs[i]
				if in.Kind != InstrCall || in.Call.Fn == NoFuncID {
					continue
				}
				if err := checkCallee(m, f, b, in.Call.Ty, in.Call.Fn); err != nil {
					return err
				}
			}
			if b.Term.Kind == TermInvoke && b.Term.Invoke.Fn != NoFuncID {
				if err := checkCallee(m, f, b, b.Term.Invoke.Ty, b.Term.Invoke.Fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkCallee(m *Module, f *Func, b *Block, ty *Type, fn FuncID) error {
	if fn < 0 || int(fn) >= len(m.Funcs) {
		return fmt.Errorf("ir: %s.%s: call to missing function %d", f.Name, b.Name, fn)
	}
	if !Equal(ty, m.Funcs[fn].Ty) {
		return fmt.Errorf("ir: %s.%s: call type %s does not match %s of %s",
			f.Name, b.Name, ty, m.Funcs[fn].Ty, m.Funcs[fn].Name)
	}
	return nil
}

func checkPhi(f *Func, b *Block, in *Instr) error {
	preds := make(map[BlockID]bool, len(b.Preds))
	for _, p := range b.Preds {
		preds[p] = true
	}
	for _, e := range in.Phi.Edges {
		if !preds[e.From] {
			return fmt.Errorf("ir: %s.%s: phi edge from non-predecessor block %d", f.Name, b.Name, e.From)
		}
	}
	return nil
}

// checkInvokeResults rejects uses of an invoke's result inside its own
// unwind successor, where the value is not defined.
func checkInvokeResults(f *Func) error {
	unwindOf := make(map[ValueID]BlockID)
	for _, b := range f.Blocks {
		if b.Term.Kind == TermInvoke && b.Term.Invoke.Res != NoValueID {
			unwindOf[b.Term.Invoke.Res] = b.Term.Invoke.Unwind
		}
	}
	if len(unwindOf) == 0 {
		return nil
	}
	for _, b := range f.Blocks {
		check := func(op ValueID) error {
			if uw, ok := unwindOf[op]; ok && uw == b.ID {
				return fmt.Errorf("ir: %s.%s: invoke result %d used on its unwind edge", f.Name, b.Name, op)
			}
			return nil
		}
		for i := range b.Instrs {
			for _, op := range instrOperands(&b.Instrs[i]) {
				if err := check(op); err != nil {
					return err
				}
			}
		}
		for _, op := range termOperands(&b.Term) {
			if err := check(op); err != nil {
				return err
			}
		}
	}
	return nil
}

func instrOperands(in *Instr) []ValueID {
	switch in.Kind {
	case InstrAlloca, InstrLandingPad:
		return nil
	case InstrArrayAlloca:
		return []ValueID{in.ArrayAlloca.Count}
	case InstrLoad:
		return []ValueID{in.Load.Ptr}
	case InstrStore:
		return []ValueID{in.Store.Val, in.Store.Ptr}
	case InstrGEP:
		return []ValueID{in.GEP.Base}
	case InstrGEPIdx:
		return []ValueID{in.GEPIdx.Base, in.GEPIdx.Index}
	case InstrPtrOffset:
		return []ValueID{in.PtrOffset.Base, in.PtrOffset.Off}
	case InstrBin:
		return []ValueID{in.Bin.L, in.Bin.R}
	case InstrICmp:
		return []ValueID{in.ICmp.L, in.ICmp.R}
	case InstrFCmp:
		return []ValueID{in.FCmp.L, in.FCmp.R}
	case InstrCast:
		return []ValueID{in.Cast.V}
	case InstrSelect:
		return []ValueID{in.Select.Cond, in.Select.T, in.Select.F}
	case InstrCall:
		ops := make([]ValueID, 0, len(in.Call.Args)+1)
		if in.Call.Ind != NoValueID {
			ops = append(ops, in.Call.Ind)
		}
		return append(ops, in.Call.Args...)
	case InstrMemMove:
		return []ValueID{in.MemMove.Dst, in.MemMove.Src, in.MemMove.Size}
	case InstrMemSet:
		return []ValueID{in.MemSet.Dst, in.MemSet.Byte, in.MemSet.Size}
	case InstrPhi:
		ops := make([]ValueID, len(in.Phi.Edges))
		for i, e := range in.Phi.Edges {
			ops[i] = e.Val
		}
		return ops
	default:
		return nil
	}
}

func termOperands(t *Terminator) []ValueID {
	switch t.Kind {
	case TermCondBr:
		return []ValueID{t.CondBr.Cond}
	case TermSwitch:
		return []ValueID{t.Switch.Val}
	case TermRet:
		if t.Ret.HasValue {
			return []ValueID{t.Ret.Value}
		}
		return nil
	case TermInvoke:
		ops := make([]ValueID, 0, len(t.Invoke.Args)+1)
		if t.Invoke.Ind != NoValueID {
			ops = append(ops, t.Invoke.Ind)
		}
		return append(ops, t.Invoke.Args...)
	case TermResume:
		return []ValueID{t.Resume.Token}
	default:
		return nil
	}
}
