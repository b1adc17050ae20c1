package trans

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"ember/internal/types"
)

// sanitizeSym rewrites s into the character set LLVM identifiers accept
// without quoting. Input is NFC-normalized first so source identifiers
// that differ only in composition mangle to the same symbol.
func sanitizeSym(s string) string {
	s = norm.NFC.String(s)
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// typeStem is a readable, bounded symbol fragment for a type.
func (cx *Context) typeStem(t types.TypeID) string {
	s := sanitizeSym(cx.types.String(t))
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

// mangleFn builds the linker symbol of a function instance: _E, then each
// path segment prefixed with its length, then one $-prefixed segment per
// type argument.
func (cx *Context) mangleFn(path []string, targs []types.TypeID) string {
	var sb strings.Builder
	sb.WriteString("_E")
	for _, seg := range path {
		seg = sanitizeSym(seg)
		sb.WriteString(strconv.Itoa(len(seg)))
		sb.WriteString(seg)
	}
	for _, ta := range targs {
		sb.WriteByte('$')
		sb.WriteString(cx.typeStem(ta))
	}
	return cx.uniqueSym(sb.String())
}
