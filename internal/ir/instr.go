package ir

// InstrKind enumerates instruction kinds in EIR.
type InstrKind uint8

const (
	// InstrAlloca reserves one stack slot of a static type.
	InstrAlloca InstrKind = iota
	// InstrArrayAlloca reserves a dynamically counted stack region.
	InstrArrayAlloca
	// InstrLoad reads a typed value through a pointer.
	InstrLoad
	// InstrStore writes a value through a pointer.
	InstrStore
	// InstrGEP addresses a field through a constant index path.
	InstrGEP
	// InstrGEPIdx addresses an array element by a dynamic index.
	InstrGEPIdx
	// InstrPtrOffset advances a pointer by a dynamic byte count.
	InstrPtrOffset
	// InstrBin is an arithmetic or bitwise binary operation.
	InstrBin
	// InstrICmp compares integers or pointers.
	InstrICmp
	// InstrFCmp compares floats.
	InstrFCmp
	// InstrCast converts between low-level representations.
	InstrCast
	// InstrSelect picks one of two values by a condition, without a branch.
	InstrSelect
	// InstrCall calls a function that cannot unwind past this point.
	InstrCall
	// InstrMemMove copies bytes between possibly overlapping regions.
	InstrMemMove
	// InstrMemSet fills bytes with a constant.
	InstrMemSet
	// InstrPhi merges values flowing in from predecessor blocks.
	InstrPhi
	// InstrLandingPad catches an in-flight unwind and yields its token.
	InstrLandingPad
)

// Instr is an EIR instruction. Res is the value it defines, or NoValueID
// for void instructions.
type Instr struct {
	Kind InstrKind
	Res  ValueID

	Alloca      AllocaInstr
	ArrayAlloca ArrayAllocaInstr
	Load        LoadInstr
	Store       StoreInstr
	GEP         GEPInstr
	GEPIdx      GEPIdxInstr
	PtrOffset   PtrOffsetInstr
	Bin         BinInstr
	ICmp        ICmpInstr
	FCmp        FCmpInstr
	Cast        CastInstr
	Select      SelectInstr
	Call        CallInstr
	MemMove     MemMoveInstr
	MemSet      MemSetInstr
	Phi         PhiInstr
	LandingPad  LandingPadInstr
}

// AllocaInstr reserves a stack slot. Align overrides the type's natural
// alignment when nonzero; byte-array slots for ABI-laid-out aggregates
// need it.
type AllocaInstr struct {
	Ty    *Type
	Align int
}

type ArrayAllocaInstr struct {
	Elem  *Type
	Count ValueID
	Align int
}

type LoadInstr struct {
	Ty  *Type
	Ptr ValueID
}

type StoreInstr struct {
	Val ValueID
	Ptr ValueID
}

// GEPInstr indexes into the aggregate Base points at. Path addresses
// nested fields; the implicit leading zero over the pointer itself is the
// backend's business.
type GEPInstr struct {
	BaseTy *Type
	Base   ValueID
	Path   []int32
}

// GEPIdxInstr performs element arithmetic: Base advanced by Index
// elements of Elem.
type GEPIdxInstr struct {
	Elem  *Type
	Base  ValueID
	Index ValueID
}

// PtrOffsetInstr advances Base by Off bytes.
type PtrOffsetInstr struct {
	Base ValueID
	Off  ValueID
}

// BinKind enumerates binary operations.
type BinKind uint8

const (
	BinAdd BinKind = iota
	BinSub
	BinMul
	BinSDiv
	BinUDiv
	BinSRem
	BinURem
	BinAnd
	BinOr
	BinXor
	BinShl
	BinLShr
	BinAShr
	BinFAdd
	BinFSub
	BinFMul
	BinFDiv
	BinFRem
)

type BinInstr struct {
	Op   BinKind
	Ty   *Type
	L, R ValueID
}

// ICmpPred enumerates integer comparison predicates.
type ICmpPred uint8

const (
	IEq ICmpPred = iota
	INe
	ISlt
	ISle
	ISgt
	ISge
	IUlt
	IUle
	IUgt
	IUge
)

type ICmpInstr struct {
	Pred ICmpPred
	L, R ValueID
}

// FCmpPred enumerates (ordered) float comparison predicates.
type FCmpPred uint8

const (
	FOeq FCmpPred = iota
	FOne
	FOlt
	FOle
	FOgt
	FOge
)

type FCmpInstr struct {
	Pred FCmpPred
	L, R ValueID
}

// CastKind enumerates representation conversions.
type CastKind uint8

const (
	CastBitcast CastKind = iota
	CastTrunc
	CastZExt
	CastSExt
	CastFPTrunc
	CastFPExt
	CastSIToFP
	CastUIToFP
	CastFPToSI
	CastFPToUI
	CastPtrToInt
	CastIntToPtr
)

type CastInstr struct {
	Op CastKind
	V  ValueID
	To *Type
}

type SelectInstr struct {
	Ty   *Type
	Cond ValueID
	T, F ValueID
}

// CallInstr calls Fn directly when Fn is valid, otherwise calls through
// the Ind pointer. Ty is the callee's function type either way.
type CallInstr struct {
	Ty   *Type
	Fn   FuncID
	Ind  ValueID
	Args []ValueID
}

type MemMoveInstr struct {
	Dst, Src ValueID
	Size     ValueID
	Align    int
}

type MemSetInstr struct {
	Dst   ValueID
	Byte  ValueID
	Size  ValueID
	Align int
}

type PhiEdge struct {
	Val  ValueID
	From BlockID
}

type PhiInstr struct {
	Ty    *Type
	Edges []PhiEdge
}

// LandingPadInstr yields the unwind token. Cleanup pads re-raise after
// running their code, so the token is always resumed eventually.
type LandingPadInstr struct {
	Cleanup bool
}
