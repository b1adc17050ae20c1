package ir

type TermKind uint8

const (
	TermNone TermKind = iota
	TermBr
	TermCondBr
	TermSwitch
	TermRet
	TermInvoke
	TermResume
	TermUnreachable
)

type Terminator struct {
	Kind TermKind

	Br          BrTerm
	CondBr      CondBrTerm
	Switch      SwitchTerm
	Ret         RetTerm
	Invoke      InvokeTerm
	Resume      ResumeTerm
	Unreachable struct{}
}

type BrTerm struct {
	Target BlockID
}

type CondBrTerm struct {
	Cond ValueID
	Then BlockID
	Else BlockID
}

type SwitchCase struct {
	Val    int64
	Target BlockID
}

type SwitchTerm struct {
	Val     ValueID
	Cases   []SwitchCase
	Default BlockID
}

type RetTerm struct {
	HasValue bool
	Value    ValueID
}

// InvokeTerm is a call that may unwind: control continues at Normal on
// ordinary return and at Unwind when the callee raises. The call result,
// if any, is Res and is only defined along the Normal edge.
type InvokeTerm struct {
	Ty     *Type
	Fn     FuncID
	Ind    ValueID
	Args   []ValueID
	Res    ValueID
	Normal BlockID
	Unwind BlockID
}

type ResumeTerm struct {
	Token ValueID
}

// Successors returns the blocks control may continue at.
func (t *Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermBr:
		return []BlockID{t.Br.Target}
	case TermCondBr:
		return []BlockID{t.CondBr.Then, t.CondBr.Else}
	case TermSwitch:
		out := make([]BlockID, 0, len(t.Switch.Cases)+1)
		for _, c := range t.Switch.Cases {
			out = append(out, c.Target)
		}
		return append(out, t.Switch.Default)
	case TermInvoke:
		return []BlockID{t.Invoke.Normal, t.Invoke.Unwind}
	default:
		return nil
	}
}
