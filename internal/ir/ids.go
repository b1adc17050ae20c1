// Package ir defines EIR, the SSA form the code generator lowers typed
// modules into. Functions own arenas of values and blocks addressed by
// dense int32 IDs; instructions are kind-tagged structs with one payload
// field per kind. Pointers are opaque: loads, stores and GEPs carry the
// pointee type explicitly.
package ir

type FuncID int32
type BlockID int32
type ValueID int32
type GlobalID int32

const (
	NoFuncID   FuncID   = -1
	NoBlockID  BlockID  = -1
	NoValueID  ValueID  = -1
	NoGlobalID GlobalID = -1
)
