package ir

import "fmt"

// Cursor emits instructions at the end of one block. A cursor is cheap;
// make a fresh one per block rather than repositioning.
type Cursor struct {
	F *Func
	B *Block
}

// At positions a cursor at the end of blk.
func (f *Func) At(blk BlockID) Cursor {
	return Cursor{F: f, B: f.Blocks[blk]}
}

func (c Cursor) push(in Instr) {
	if c.B.Terminated() {
		panic(fmt.Errorf("emit into terminated block %s.%s", c.F.Name, c.B.Name))
	}
	c.B.Instrs = append(c.B.Instrs, in)
}

func (c Cursor) pushRes(in Instr, ty *Type) ValueID {
	res := c.F.newVal(Value{Kind: ValInstr, Ty: ty})
	in.Res = res
	c.push(in)
	return res
}

// Alloca reserves a stack slot; the result is a pointer to it.
func (c Cursor) Alloca(ty *Type) ValueID {
	return c.pushRes(Instr{Kind: InstrAlloca, Alloca: AllocaInstr{Ty: ty}}, Ptr)
}

// AllocaAligned reserves a stack slot with an explicit alignment.
func (c Cursor) AllocaAligned(ty *Type, align int) ValueID {
	return c.pushRes(Instr{Kind: InstrAlloca, Alloca: AllocaInstr{Ty: ty, Align: align}}, Ptr)
}

// ArrayAlloca reserves count elements of elem on the stack.
func (c Cursor) ArrayAlloca(elem *Type, count ValueID) ValueID {
	return c.pushRes(Instr{Kind: InstrArrayAlloca, ArrayAlloca: ArrayAllocaInstr{Elem: elem, Count: count}}, Ptr)
}

// ArrayAllocaAligned reserves count elements of elem with an explicit
// alignment; runtime-sized slots need it since elem is usually i8.
func (c Cursor) ArrayAllocaAligned(elem *Type, count ValueID, align int) ValueID {
	return c.pushRes(Instr{Kind: InstrArrayAlloca, ArrayAlloca: ArrayAllocaInstr{Elem: elem, Count: count, Align: align}}, Ptr)
}

func (c Cursor) Load(ty *Type, ptr ValueID) ValueID {
	return c.pushRes(Instr{Kind: InstrLoad, Load: LoadInstr{Ty: ty, Ptr: ptr}}, ty)
}

func (c Cursor) Store(val, ptr ValueID) {
	c.push(Instr{Kind: InstrStore, Res: NoValueID, Store: StoreInstr{Val: val, Ptr: ptr}})
}

// GEP addresses a nested field of the aggregate base points at.
func (c Cursor) GEP(baseTy *Type, base ValueID, path ...int32) ValueID {
	return c.pushRes(Instr{Kind: InstrGEP, GEP: GEPInstr{BaseTy: baseTy, Base: base, Path: path}}, Ptr)
}

// GEPIdx advances base by index elements of elem.
func (c Cursor) GEPIdx(elem *Type, base, index ValueID) ValueID {
	return c.pushRes(Instr{Kind: InstrGEPIdx, GEPIdx: GEPIdxInstr{Elem: elem, Base: base, Index: index}}, Ptr)
}

// PtrOffset advances base by off bytes.
func (c Cursor) PtrOffset(base, off ValueID) ValueID {
	return c.pushRes(Instr{Kind: InstrPtrOffset, PtrOffset: PtrOffsetInstr{Base: base, Off: off}}, Ptr)
}

func (c Cursor) Bin(op BinKind, ty *Type, l, r ValueID) ValueID {
	return c.pushRes(Instr{Kind: InstrBin, Bin: BinInstr{Op: op, Ty: ty, L: l, R: r}}, ty)
}

func (c Cursor) ICmp(pred ICmpPred, l, r ValueID) ValueID {
	return c.pushRes(Instr{Kind: InstrICmp, ICmp: ICmpInstr{Pred: pred, L: l, R: r}}, I1)
}

func (c Cursor) FCmp(pred FCmpPred, l, r ValueID) ValueID {
	return c.pushRes(Instr{Kind: InstrFCmp, FCmp: FCmpInstr{Pred: pred, L: l, R: r}}, I1)
}

func (c Cursor) Cast(op CastKind, v ValueID, to *Type) ValueID {
	return c.pushRes(Instr{Kind: InstrCast, Cast: CastInstr{Op: op, V: v, To: to}}, to)
}

// Select picks t or f by cond without branching.
func (c Cursor) Select(cond, t, f ValueID) ValueID {
	ty := c.F.TypeOf(t)
	return c.pushRes(Instr{Kind: InstrSelect, Select: SelectInstr{Ty: ty, Cond: cond, T: t, F: f}}, ty)
}

// Call emits a direct call. Returns NoValueID for void callees.
func (c Cursor) Call(ty *Type, fn FuncID, args []ValueID) ValueID {
	in := Instr{Kind: InstrCall, Res: NoValueID, Call: CallInstr{Ty: ty, Fn: fn, Ind: NoValueID, Args: args}}
	if ty.Ret.Kind == TVoid {
		c.push(in)
		return NoValueID
	}
	return c.pushRes(in, ty.Ret)
}

// CallInd emits an indirect call through a function pointer.
func (c Cursor) CallInd(ty *Type, fnptr ValueID, args []ValueID) ValueID {
	in := Instr{Kind: InstrCall, Res: NoValueID, Call: CallInstr{Ty: ty, Fn: NoFuncID, Ind: fnptr, Args: args}}
	if ty.Ret.Kind == TVoid {
		c.push(in)
		return NoValueID
	}
	return c.pushRes(in, ty.Ret)
}

func (c Cursor) MemMove(dst, src, size ValueID, align int) {
	c.push(Instr{Kind: InstrMemMove, Res: NoValueID, MemMove: MemMoveInstr{Dst: dst, Src: src, Size: size, Align: align}})
}

func (c Cursor) MemSet(dst, b, size ValueID, align int) {
	c.push(Instr{Kind: InstrMemSet, Res: NoValueID, MemSet: MemSetInstr{Dst: dst, Byte: b, Size: size, Align: align}})
}

// Phi merges the given edges. All edges must be known up front; the
// translator collects incoming values per predecessor before joining.
func (c Cursor) Phi(ty *Type, edges []PhiEdge) ValueID {
	return c.pushRes(Instr{Kind: InstrPhi, Phi: PhiInstr{Ty: ty, Edges: edges}}, ty)
}

// LandingPad catches an unwind and yields its token.
func (c Cursor) LandingPad() ValueID {
	return c.pushRes(Instr{Kind: InstrLandingPad, LandingPad: LandingPadInstr{Cleanup: true}}, UnwindToken)
}

// Terminators.

func (c Cursor) setTerm(t Terminator) {
	if c.B.Terminated() {
		panic(fmt.Errorf("terminate already terminated block %s.%s", c.F.Name, c.B.Name))
	}
	c.B.Term = t
	for _, succ := range t.Successors() {
		c.F.Blocks[succ].Preds = append(c.F.Blocks[succ].Preds, c.B.ID)
	}
}

func (c Cursor) Br(target BlockID) {
	c.setTerm(Terminator{Kind: TermBr, Br: BrTerm{Target: target}})
}

func (c Cursor) CondBr(cond ValueID, then, els BlockID) {
	c.setTerm(Terminator{Kind: TermCondBr, CondBr: CondBrTerm{Cond: cond, Then: then, Else: els}})
}

func (c Cursor) Switch(val ValueID, def BlockID, cases []SwitchCase) {
	c.setTerm(Terminator{Kind: TermSwitch, Switch: SwitchTerm{Val: val, Cases: cases, Default: def}})
}

func (c Cursor) Ret(val ValueID) {
	c.setTerm(Terminator{Kind: TermRet, Ret: RetTerm{HasValue: true, Value: val}})
}

func (c Cursor) RetVoid() {
	c.setTerm(Terminator{Kind: TermRet, Ret: RetTerm{HasValue: false}})
}

// Invoke emits a call with an unwind edge. The result value is defined
// along the normal edge only; NoValueID for void callees.
func (c Cursor) Invoke(ty *Type, fn FuncID, args []ValueID, normal, unwind BlockID) ValueID {
	res := NoValueID
	if ty.Ret.Kind != TVoid {
		res = c.F.newVal(Value{Kind: ValInstr, Ty: ty.Ret})
	}
	c.setTerm(Terminator{Kind: TermInvoke, Invoke: InvokeTerm{
		Ty: ty, Fn: fn, Ind: NoValueID, Args: args, Res: res, Normal: normal, Unwind: unwind,
	}})
	return res
}

// InvokeInd is Invoke through a function pointer.
func (c Cursor) InvokeInd(ty *Type, fnptr ValueID, args []ValueID, normal, unwind BlockID) ValueID {
	res := NoValueID
	if ty.Ret.Kind != TVoid {
		res = c.F.newVal(Value{Kind: ValInstr, Ty: ty.Ret})
	}
	c.setTerm(Terminator{Kind: TermInvoke, Invoke: InvokeTerm{
		Ty: ty, Fn: NoFuncID, Ind: fnptr, Args: args, Res: res, Normal: normal, Unwind: unwind,
	}})
	return res
}

func (c Cursor) Resume(token ValueID) {
	c.setTerm(Terminator{Kind: TermResume, Resume: ResumeTerm{Token: token}})
}

func (c Cursor) Unreachable() {
	c.setTerm(Terminator{Kind: TermUnreachable})
}
