package ir

// ValueKind distinguishes what a ValueID refers to inside a function.
type ValueKind uint8

const (
	// ValInvalid marks an unused arena slot.
	ValInvalid ValueKind = iota
	// ValParam is a function parameter.
	ValParam
	// ValInstr is the result of an instruction or invoke.
	ValInstr
	// ValConstInt is an integer constant (includes booleans).
	ValConstInt
	// ValConstFloat is a floating-point constant.
	ValConstFloat
	// ValConstNull is the null pointer constant.
	ValConstNull
	// ValUndef is an undefined value of some type.
	ValUndef
	// ValGlobal is the address of a module global.
	ValGlobal
	// ValFunc is the address of a module function.
	ValFunc
)

// Value is one entry in a function's value arena.
type Value struct {
	Kind ValueKind
	Ty   *Type

	Int    int64 // ValConstInt
	Float  float64
	Param  int32 // ValParam index
	Global GlobalID
	Fn     FuncID
}

// IsConst reports whether the value is a compile-time constant.
func (v Value) IsConst() bool {
	switch v.Kind {
	case ValConstInt, ValConstFloat, ValConstNull, ValUndef, ValGlobal, ValFunc:
		return true
	default:
		return false
	}
}
