package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// RecField describes a single named field of a record type.
type RecField struct {
	Name string
	Type TypeID
}

// RecInfo stores the field list for a record type.
type RecInfo struct {
	Fields []RecField
}

// TupleInfo stores the element types for a tuple type.
type TupleInfo struct {
	Elems []TypeID
}

// Rec creates or finds a structural record type with the given fields.
func (in *Interner) Rec(fields []RecField) TypeID {
	for id := TypeID(1); int(id) < len(in.types); id++ {
		tt := in.types[id]
		if tt.Kind != KindRec {
			continue
		}
		if slices.Equal(in.recs[tt.Payload].Fields, fields) {
			return id
		}
	}
	slot := in.appendSlot(len(in.recs))
	in.recs = append(in.recs, RecInfo{Fields: slices.Clone(fields)})
	return in.internRaw(Type{Kind: KindRec, Payload: slot})
}

// RecInfo returns the field list of a record TypeID.
func (in *Interner) RecInfo(id TypeID) (*RecInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindRec || int(tt.Payload) >= len(in.recs) {
		return nil, false
	}
	return &in.recs[tt.Payload], true
}

// Tuple creates or finds a tuple type with the given elements.
func (in *Interner) Tuple(elems []TypeID) TypeID {
	for id := TypeID(1); int(id) < len(in.types); id++ {
		tt := in.types[id]
		if tt.Kind != KindTup {
			continue
		}
		if slices.Equal(in.tuples[tt.Payload].Elems, elems) {
			return id
		}
	}
	slot := in.appendSlot(len(in.tuples))
	in.tuples = append(in.tuples, TupleInfo{Elems: cloneTypeArgs(elems)})
	return in.internRaw(Type{Kind: KindTup, Payload: slot})
}

// TupleInfo returns the element types of a tuple TypeID.
func (in *Interner) TupleInfo(id TypeID) (*TupleInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTup || int(tt.Payload) >= len(in.tuples) {
		return nil, false
	}
	return &in.tuples[tt.Payload], true
}

// Opaque creates or finds a named runtime-internal type. Opaque types have
// no layout of their own and may only appear behind RawPtr.
func (in *Interner) Opaque(name string) TypeID {
	for id := TypeID(1); int(id) < len(in.types); id++ {
		tt := in.types[id]
		if tt.Kind == KindOpaque && in.opaques[tt.Payload] == name {
			return id
		}
	}
	slot := in.appendSlot(len(in.opaques))
	in.opaques = append(in.opaques, name)
	return in.internRaw(Type{Kind: KindOpaque, Payload: slot})
}

// OpaqueName returns the name of an opaque TypeID.
func (in *Interner) OpaqueName(id TypeID) string {
	tt := in.MustLookup(id)
	if tt.Kind != KindOpaque {
		return ""
	}
	return in.opaques[tt.Payload]
}

func (in *Interner) appendSlot(length int) uint32 {
	slot, err := safecast.Conv[uint32](length)
	if err != nil {
		panic(fmt.Errorf("info table overflow: %w", err))
	}
	return slot
}
