package trans

import "ember/internal/ir"

// Runtime entry points the generated code leans on. Everything else the
// translator emits inline.
const (
	rtBoxAlloc        = "ember_rt_box_alloc"        // (body ti) -> box, refcount 1
	rtAlloc           = "ember_rt_alloc"            // (size, align) -> raw cell
	rtFree            = "ember_rt_free"             // (cell)
	rtVecAlloc        = "ember_rt_vec_alloc"        // (elem ti, count) -> vec, data zeroed, fill set
	rtVecDup          = "ember_rt_vec_dup"          // (elem ti, vec) -> shallow clone
	rtStrNew          = "ember_rt_str_new"          // (bytes, len) -> str, NUL appended
	rtFail            = "ember_rt_fail"             // (msg, file, line) -> diverges
	rtLog             = "ember_rt_log"              // (ti, value, level)
	rtCmp             = "ember_rt_cmp"              // (ti, lhs, rhs, op) -> i1
	rtTiShare         = "ember_rt_ti_share"         // (ti) -> heap copy
	rtResetStackLimit = "ember_rt_reset_stack_limit"
	rtPersonality     = "ember_rt_personality"
	rtStart           = "ember_rt_start" // (main fn, argc, argv) -> exit code
)

type rtDecl struct {
	fn ir.FuncID
	ty *ir.Type
}

func (cx *Context) rtSig(name string) *ir.Type {
	w := cx.wordTy
	switch name {
	case rtBoxAlloc:
		return ir.FuncOf(ir.Ptr, ir.Ptr)
	case rtAlloc:
		return ir.FuncOf(ir.Ptr, w, w)
	case rtFree:
		return ir.FuncOf(ir.Void, ir.Ptr)
	case rtVecAlloc:
		return ir.FuncOf(ir.Ptr, ir.Ptr, w)
	case rtVecDup:
		return ir.FuncOf(ir.Ptr, ir.Ptr, ir.Ptr)
	case rtStrNew:
		return ir.FuncOf(ir.Ptr, ir.Ptr, w)
	case rtFail:
		return ir.FuncOf(ir.Void, ir.Ptr, ir.Ptr, w)
	case rtLog:
		return ir.FuncOf(ir.Void, ir.Ptr, ir.Ptr, w)
	case rtCmp:
		return ir.FuncOf(ir.I1, ir.Ptr, ir.Ptr, ir.Ptr, w)
	case rtTiShare:
		return ir.FuncOf(ir.Ptr, ir.Ptr)
	case rtResetStackLimit:
		return ir.FuncOf(ir.Void)
	case rtPersonality:
		return ir.VarargFuncOf(ir.I32)
	case rtStart:
		return ir.FuncOf(ir.I32, ir.Ptr, ir.I32, ir.Ptr)
	default:
		cx.bugf("unknown runtime function %q", name)
		return nil
	}
}

// rt declares the named runtime function on first use.
func (cx *Context) rt(name string) rtDecl {
	if d, ok := cx.rtFns[name]; ok {
		return d
	}
	ty := cx.rtSig(name)
	d := rtDecl{fn: cx.out.DeclareFunc(name, ty), ty: ty}
	cx.rtFns[name] = d
	return d
}
