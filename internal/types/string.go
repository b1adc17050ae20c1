package types

import (
	"fmt"
	"strings"
)

// String renders a readable form of ty, for diagnostics and symbol hashing.
// The rendering is deterministic for a given interner.
func (in *Interner) String(ty TypeID) string {
	tt, ok := in.Lookup(ty)
	if !ok {
		return "<invalid>"
	}
	switch tt.Kind {
	case KindNil, KindBool, KindStr, KindBot:
		return tt.Kind.String()
	case KindInt:
		if tt.Width == WidthWord {
			return "int"
		}
		return fmt.Sprintf("i%d", tt.Width)
	case KindUint:
		if tt.Width == WidthWord {
			return "uint"
		}
		return fmt.Sprintf("u%d", tt.Width)
	case KindFloat:
		return fmt.Sprintf("f%d", tt.Width)
	case KindVec:
		return "[" + in.String(tt.Elem) + "]"
	case KindBox:
		return "@" + in.String(tt.Elem)
	case KindUniq:
		return "~" + in.String(tt.Elem)
	case KindRawPtr:
		return "*" + in.String(tt.Elem)
	case KindRec:
		var b strings.Builder
		b.WriteString("{")
		for i, f := range in.recs[tt.Payload].Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			b.WriteString(in.String(f.Type))
		}
		b.WriteString("}")
		return b.String()
	case KindTup:
		var b strings.Builder
		b.WriteString("(")
		for i, e := range in.tuples[tt.Payload].Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(in.String(e))
		}
		b.WriteString(")")
		return b.String()
	case KindEnum:
		inst := in.enumIns[tt.Payload]
		return in.instString(in.enums[inst.def].Name, inst.args)
	case KindRes:
		inst := in.resIns[tt.Payload]
		return in.instString(in.ress[inst.def].Name, inst.args)
	case KindFn:
		sig := in.fns[tt.Payload]
		var b strings.Builder
		b.WriteString("fn(")
		for i, a := range sig.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			switch a.Mode {
			case ModeRef:
				b.WriteString("&")
			case ModeCopy:
				b.WriteString("+")
			case ModeMove:
				b.WriteString("-")
			}
			b.WriteString(in.String(a.Type))
		}
		b.WriteString(") -> ")
		b.WriteString(in.String(sig.Ret))
		return b.String()
	case KindIface:
		return "iface " + in.ifaces[tt.Payload].Name
	case KindParam:
		return fmt.Sprintf("'%d", tt.Payload)
	case KindOpaque:
		return "opaque " + in.opaques[tt.Payload]
	default:
		return tt.Kind.String()
	}
}

func (in *Interner) instString(name string, args []TypeID) string {
	if len(args) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteString("<")
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(in.String(a))
	}
	b.WriteString(">")
	return b.String()
}
