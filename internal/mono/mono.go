// Package mono tracks monomorphic instances of generic definitions.
// Instantiating the same definition with equivalent type arguments must
// yield the same function, so the cache key is built from a normalized
// form of the arguments and an entry is inserted before the instance body
// is translated. Recursive generics then find the pending entry instead
// of recursing forever.
package mono

import (
	"strconv"
	"strings"

	"ember/internal/ast"
	"ember/internal/ir"
	"ember/internal/types"
)

// Key identifies one instantiation.
//
// Go maps cannot use slices as keys, so the normalized type arguments are
// folded into a stable ArgsKey string. DictsKey does the same for the
// dictionary chain.
type Key struct {
	Def      ast.DefID
	ArgsKey  string
	DictsKey string
}

// Entry is one cached instance. Args keeps the original (un-normalized)
// arguments of the first request; later requests may differ in box
// payloads only, which cannot change the generated code.
type Entry struct {
	Key  Key
	Args []types.TypeID
	Fn   ir.FuncID
}

// Cache maps instantiation keys to emitted instances.
type Cache struct {
	entries map[Key]*Entry
	order   []*Entry
}

// NewCache creates an empty instance cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]*Entry)}
}

// MakeKey builds the cache key for def instantiated with args and dicts.
func MakeKey(in *types.Interner, def ast.DefID, args []types.TypeID, dicts []ast.DictRef) Key {
	return Key{
		Def:      def,
		ArgsKey:  argsKey(in, args),
		DictsKey: dictsKey(dicts),
	}
}

// Lookup returns the cached instance, if present.
func (c *Cache) Lookup(key Key) (*Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Insert registers fn as the instance for key. Call it before translating
// the instance body.
func (c *Cache) Insert(key Key, args []types.TypeID, fn ir.FuncID) *Entry {
	e := &Entry{Key: key, Args: append([]types.TypeID(nil), args...), Fn: fn}
	c.entries[key] = e
	c.order = append(c.order, e)
	return e
}

// Len reports the number of cached instances.
func (c *Cache) Len() int {
	return len(c.order)
}

// Entries returns instances in insertion order.
func (c *Cache) Entries() []*Entry {
	return c.order
}

// Normalize maps type arguments to their code-shape equivalence class:
// every box payload becomes opaque, recursively. All boxes are a single
// word and all payload operations inside an instance go through the type
// infos passed at run time, so instances cannot depend on what a box
// holds.
func Normalize(in *types.Interner, args []types.TypeID) []types.TypeID {
	if len(args) == 0 {
		return nil
	}
	out := make([]types.TypeID, len(args))
	for i, a := range args {
		out[i] = eraseBoxPayloads(in, a)
	}
	return out
}

func eraseBoxPayloads(in *types.Interner, t types.TypeID) types.TypeID {
	ty := in.MustLookup(t)
	switch ty.Kind {
	case types.KindBox:
		return in.Intern(types.MakeBox(in.Opaque("boxed")))
	case types.KindUniq:
		elem := eraseBoxPayloads(in, ty.Elem)
		if elem == ty.Elem {
			return t
		}
		return in.Intern(types.MakeUniq(elem))
	case types.KindVec:
		elem := eraseBoxPayloads(in, ty.Elem)
		if elem == ty.Elem {
			return t
		}
		return in.Intern(types.MakeVec(elem))
	case types.KindRec:
		info, ok := in.RecInfo(t)
		if !ok {
			return t
		}
		fields := make([]types.RecField, len(info.Fields))
		changed := false
		for i, f := range info.Fields {
			ft := eraseBoxPayloads(in, f.Type)
			changed = changed || ft != f.Type
			fields[i] = types.RecField{Name: f.Name, Type: ft}
		}
		if !changed {
			return t
		}
		return in.Rec(fields)
	case types.KindTup:
		info, ok := in.TupleInfo(t)
		if !ok {
			return t
		}
		elems := make([]types.TypeID, len(info.Elems))
		changed := false
		for i, el := range info.Elems {
			elems[i] = eraseBoxPayloads(in, el)
			changed = changed || elems[i] != el
		}
		if !changed {
			return t
		}
		return in.Tuple(elems)
	case types.KindEnum:
		eid, args, ok := in.EnumInfo(t)
		if !ok {
			return t
		}
		targs := make([]types.TypeID, len(args))
		changed := false
		for i, a := range args {
			targs[i] = eraseBoxPayloads(in, a)
			changed = changed || targs[i] != a
		}
		if !changed {
			return t
		}
		return in.Enum(eid, targs)
	case types.KindRes:
		rid, args, ok := in.ResInfo(t)
		if !ok {
			return t
		}
		targs := make([]types.TypeID, len(args))
		changed := false
		for i, a := range args {
			targs[i] = eraseBoxPayloads(in, a)
			changed = changed || targs[i] != a
		}
		if !changed {
			return t
		}
		return in.Res(rid, targs)
	default:
		return t
	}
}

func argsKey(in *types.Interner, args []types.TypeID) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i, a := range Normalize(in, args) {
		if i > 0 {
			b.WriteByte('#')
		}
		b.WriteString(strconv.FormatUint(uint64(a), 10))
	}
	return b.String()
}

func dictsKey(dicts []ast.DictRef) string {
	if len(dicts) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range dicts {
		if i > 0 {
			b.WriteByte('#')
		}
		if d.Param >= 0 {
			b.WriteByte('p')
			b.WriteString(strconv.Itoa(d.Param))
		} else {
			b.WriteByte('i')
			b.WriteString(strconv.FormatInt(int64(d.Impl), 10))
		}
	}
	return b.String()
}
