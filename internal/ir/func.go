package ir

import (
	"fmt"

	"fortio.org/safecast"
)

// InlineKind is the inlining hint attached to a function.
type InlineKind uint8

const (
	InlineDefault InlineKind = iota
	InlineAlways
	InlineNever
)

// Func is one function, either defined (with blocks) or a bare
// declaration. Values live in a per-function arena; blocks are held by
// pointer so handles stay valid while the block list grows.
type Func struct {
	ID   FuncID
	Name string
	Ty   *Type // TFunc

	Params []ValueID
	Blocks []*Block
	Vals   []Value

	Decl     bool
	Internal bool
	Inline   InlineKind

	constIdx map[constKey]ValueID
}

type constKey struct {
	kind ValueKind
	ty   *Type
	bits int64
}

// Param returns the value for the i-th parameter.
func (f *Func) Param(i int) ValueID {
	return f.Params[i]
}

// Val returns the arena entry for id.
func (f *Func) Val(id ValueID) *Value {
	return &f.Vals[id]
}

// TypeOf returns the type of the given value.
func (f *Func) TypeOf(id ValueID) *Type {
	return f.Vals[id].Ty
}

// Block returns the block with the given ID.
func (f *Func) Block(id BlockID) *Block {
	return f.Blocks[id]
}

// Entry returns the entry block ID, NoBlockID for declarations.
func (f *Func) Entry() BlockID {
	if len(f.Blocks) == 0 {
		return NoBlockID
	}
	return f.Blocks[0].ID
}

// NewBlock appends an empty block. The name seeds the emitted label.
func (f *Func) NewBlock(name string) BlockID {
	n, err := safecast.Conv[int32](len(f.Blocks))
	if err != nil {
		panic(fmt.Errorf("block arena overflow: %w", err))
	}
	id := BlockID(n)
	f.Blocks = append(f.Blocks, &Block{ID: id, Name: name})
	return id
}

func (f *Func) newVal(v Value) ValueID {
	n, err := safecast.Conv[int32](len(f.Vals))
	if err != nil {
		panic(fmt.Errorf("value arena overflow: %w", err))
	}
	f.Vals = append(f.Vals, v)
	return ValueID(n)
}

func (f *Func) internConst(key constKey, mk func() Value) ValueID {
	if f.constIdx == nil {
		f.constIdx = make(map[constKey]ValueID)
	}
	if id, ok := f.constIdx[key]; ok {
		return id
	}
	id := f.newVal(mk())
	f.constIdx[key] = id
	return id
}

// ConstInt returns the integer constant v of type ty, interned.
func (f *Func) ConstInt(ty *Type, v int64) ValueID {
	return f.internConst(constKey{ValConstInt, ty, v}, func() Value {
		return Value{Kind: ValConstInt, Ty: ty, Int: v}
	})
}

// ConstBool returns an i1 constant.
func (f *Func) ConstBool(v bool) ValueID {
	n := int64(0)
	if v {
		n = 1
	}
	return f.ConstInt(I1, n)
}

// ConstFloat returns the float constant v of type ty.
func (f *Func) ConstFloat(ty *Type, v float64) ValueID {
	return f.newVal(Value{Kind: ValConstFloat, Ty: ty, Float: v})
}

// Null returns the null pointer constant.
func (f *Func) Null() ValueID {
	return f.internConst(constKey{ValConstNull, Ptr, 0}, func() Value {
		return Value{Kind: ValConstNull, Ty: Ptr}
	})
}

// Undef returns an undefined value of type ty.
func (f *Func) Undef(ty *Type) ValueID {
	return f.internConst(constKey{ValUndef, ty, 0}, func() Value {
		return Value{Kind: ValUndef, Ty: ty}
	})
}

// GlobalRef returns the address of a module global.
func (f *Func) GlobalRef(g GlobalID) ValueID {
	return f.internConst(constKey{ValGlobal, Ptr, int64(g)}, func() Value {
		return Value{Kind: ValGlobal, Ty: Ptr, Global: g}
	})
}

// FuncRef returns the address of a module function.
func (f *Func) FuncRef(fn FuncID) ValueID {
	return f.internConst(constKey{ValFunc, Ptr, int64(fn)}, func() Value {
		return Value{Kind: ValFunc, Ty: Ptr, Fn: fn}
	})
}
