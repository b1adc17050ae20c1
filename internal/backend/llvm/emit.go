// Package llvm renders EIR modules as textual LLVM IR. The emitter is a
// straight serializer: every lowering decision has already been made by
// the time a module reaches it, so emission is a deterministic walk over
// the function and global arenas.
package llvm

import (
	"fmt"
	"strings"

	"ember/internal/ir"
)

// PersonalityName is the runtime symbol installed as the unwind
// personality on functions containing landing pads.
const PersonalityName = "ember_rt_personality"

type Emitter struct {
	mod *ir.Module
	buf strings.Builder

	usesMemMove bool
	usesMemSet  bool
}

// EmitModule renders mod to LLVM assembly text.
func EmitModule(mod *ir.Module) (string, error) {
	if mod == nil {
		return "", nil
	}
	e := &Emitter{mod: mod}
	e.scanIntrinsics()
	e.emitPreamble()
	if err := e.emitGlobals(); err != nil {
		return "", err
	}
	if err := e.emitFuncs(); err != nil {
		return "", err
	}
	e.emitIntrinsicDecls()
	return e.buf.String(), nil
}

func (e *Emitter) emitPreamble() {
	fmt.Fprintf(&e.buf, "; module %s\n", e.mod.Name)
	if e.mod.Triple != "" {
		fmt.Fprintf(&e.buf, "target triple = %q\n", e.mod.Triple)
	}
	e.buf.WriteString("\n")
}

func (e *Emitter) scanIntrinsics() {
	for _, f := range e.mod.Funcs {
		for _, b := range f.Blocks {
			for i := range b.Instrs {
				switch b.Instrs[i].Kind {
				case ir.InstrMemMove:
					e.usesMemMove = true
				case ir.InstrMemSet:
					e.usesMemSet = true
				}
			}
		}
	}
}

func (e *Emitter) emitIntrinsicDecls() {
	if e.usesMemMove {
		e.buf.WriteString("declare void @llvm.memmove.p0.p0.i64(ptr, ptr, i64, i1)\n")
	}
	if e.usesMemSet {
		e.buf.WriteString("declare void @llvm.memset.p0.i64(ptr, i8, i64, i1)\n")
	}
}

func (e *Emitter) emitGlobals() error {
	emitted := false
	for _, g := range e.mod.Globals {
		if g.Decl {
			fmt.Fprintf(&e.buf, "@%s = external global %s\n", g.Name, g.Ty)
			emitted = true
			continue
		}
		kw := "global"
		if g.Const {
			kw = "constant"
		}
		linkage := ""
		if g.Internal {
			linkage = "internal "
		}
		if g.Init == nil {
			return fmt.Errorf("llvm: global @%s has no initializer", g.Name)
		}
		init, err := e.renderInit(g.Init)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.buf, "@%s = %s%s %s %s\n", g.Name, linkage, kw, g.Init.Ty, init)
		emitted = true
	}
	if emitted {
		e.buf.WriteString("\n")
	}
	return nil
}

func (e *Emitter) emitFuncs() error {
	for _, f := range e.mod.Funcs {
		if !f.Decl {
			continue
		}
		params := make([]string, len(f.Ty.Params))
		for i, p := range f.Ty.Params {
			params[i] = p.String()
		}
		if f.Ty.Vararg {
			params = append(params, "...")
		}
		fmt.Fprintf(&e.buf, "declare %s @%s(%s)\n", f.Ty.Ret, f.Name, strings.Join(params, ", "))
	}
	e.buf.WriteString("\n")
	for _, f := range e.mod.Funcs {
		if f.Decl {
			continue
		}
		if err := e.emitFunc(f); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitFunc(f *ir.Func) error {
	fe := &funcEmitter{emitter: e, f: f, names: make([]string, len(f.Vals))}
	for i, p := range f.Params {
		fe.names[p] = fmt.Sprintf("%%p%d", i)
	}

	var attrs []string
	switch f.Inline {
	case ir.InlineAlways:
		attrs = append(attrs, "alwaysinline")
	case ir.InlineNever:
		attrs = append(attrs, "noinline")
	}

	params := make([]string, len(f.Ty.Params))
	for i, p := range f.Ty.Params {
		params[i] = fmt.Sprintf("%s %%p%d", p, i)
	}
	linkage := ""
	if f.Internal {
		linkage = "internal "
	}
	personality := ""
	if fe.hasLandingPad() {
		if _, ok := e.mod.FuncByName(PersonalityName); !ok {
			return fmt.Errorf("llvm: %s has landing pads but @%s is not declared", f.Name, PersonalityName)
		}
		personality = fmt.Sprintf(" personality ptr @%s", PersonalityName)
	}
	attrStr := ""
	if len(attrs) > 0 {
		attrStr = " " + strings.Join(attrs, " ")
	}
	fmt.Fprintf(&e.buf, "define %s%s @%s(%s)%s%s {\n",
		linkage, f.Ty.Ret, f.Name, strings.Join(params, ", "), attrStr, personality)

	for _, b := range f.Blocks {
		fmt.Fprintf(&e.buf, "%s:\n", fe.label(b.ID))
		for i := range b.Instrs {
			if err := fe.emitInstr(&b.Instrs[i]); err != nil {
				return fmt.Errorf("llvm: %s.%s: %w", f.Name, b.Name, err)
			}
		}
		if err := fe.emitTerm(&b.Term); err != nil {
			return fmt.Errorf("llvm: %s.%s: %w", f.Name, b.Name, err)
		}
	}
	e.buf.WriteString("}\n\n")
	return nil
}

type funcEmitter struct {
	emitter *Emitter
	f       *ir.Func
	names   []string
	tmpID   int
}

func (fe *funcEmitter) hasLandingPad() bool {
	for _, b := range fe.f.Blocks {
		for i := range b.Instrs {
			if b.Instrs[i].Kind == ir.InstrLandingPad {
				return true
			}
		}
	}
	return false
}

func (fe *funcEmitter) label(id ir.BlockID) string {
	b := fe.f.Block(id)
	if b.Name == "" {
		return fmt.Sprintf("bb%d", id)
	}
	return fmt.Sprintf("bb%d.%s", id, b.Name)
}

func (fe *funcEmitter) def(id ir.ValueID) string {
	name := fmt.Sprintf("%%t%d", fe.tmpID)
	fe.tmpID++
	fe.names[id] = name
	return name
}
