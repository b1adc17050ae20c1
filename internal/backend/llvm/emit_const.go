package llvm

import (
	"fmt"
	"math"
	"strings"

	"ember/internal/ir"
)

// formatFloat renders a float constant. LLVM parses the 64-bit hex form
// for both float and double, which sidesteps decimal round-tripping.
func formatFloat(ty *ir.Type, v float64) string {
	if ty.Bits == 32 {
		v = float64(float32(v))
	}
	return fmt.Sprintf("0x%016X", math.Float64bits(v))
}

func (e *Emitter) renderInit(init *ir.GInit) (string, error) {
	switch init.Kind {
	case ir.GZero:
		return "zeroinitializer", nil
	case ir.GInt:
		return fmt.Sprintf("%d", init.Int), nil
	case ir.GFloat:
		return formatFloat(init.Ty, init.Float), nil
	case ir.GNull:
		return "null", nil
	case ir.GBytes:
		return "c\"" + escapeBytes(init.Bytes) + "\"", nil
	case ir.GStruct:
		parts := make([]string, len(init.Elems))
		for i, el := range init.Elems {
			s, err := e.renderInit(el)
			if err != nil {
				return "", err
			}
			parts[i] = fmt.Sprintf("%s %s", el.Ty, s)
		}
		return "{ " + strings.Join(parts, ", ") + " }", nil
	case ir.GArray:
		parts := make([]string, len(init.Elems))
		for i, el := range init.Elems {
			s, err := e.renderInit(el)
			if err != nil {
				return "", err
			}
			parts[i] = fmt.Sprintf("%s %s", el.Ty, s)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case ir.GGlobalRef:
		return "@" + e.mod.Global(init.Global).Name, nil
	case ir.GFuncRef:
		return "@" + e.mod.Func(init.Fn).Name, nil
	default:
		return "", fmt.Errorf("llvm: unsupported initializer kind %d", init.Kind)
	}
}

func escapeBytes(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if b >= 0x20 && b < 0x7f && b != '"' && b != '\\' {
			sb.WriteByte(b)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", b)
	}
	return sb.String()
}
