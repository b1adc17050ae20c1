package driver

import (
	"fmt"
	"sort"
	"strings"

	"ember/internal/ast"
	"ember/internal/gencache"
	"ember/internal/version"
)

// moduleDigest summarizes a module's structure for cache keying. The
// walk covers every node payload that can influence generated code;
// spans are deliberately excluded so reformatting does not invalidate
// entries.
func moduleDigest(mod *ast.Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mod %s main=%d\n", mod.Name, mod.Main)
	for i := range mod.Defs {
		d := &mod.Defs[i]
		fmt.Fprintf(&sb, "def %d %s fn=%d enum=%d var=%d res=%d const=%d\n",
			d.Kind, d.Name, d.Fn, d.Enum, d.Variant, d.Res, d.Const)
	}
	for i := range mod.Fns {
		fd := &mod.Fns[i]
		fmt.Fprintf(&sb, "fn %s ret=%d body=%d tps=%d args=%v\n",
			strings.Join(fd.Path, "::"), fd.Ret, fd.Body, len(fd.TypeParams), fd.Args)
		for j := range fd.Locals {
			l := &fd.Locals[j]
			fmt.Fprintf(&sb, "  local %s mode=%d ty=%d\n", l.Name, l.Mode, l.Ty)
		}
	}
	for i := range mod.Consts {
		c := &mod.Consts[i]
		fmt.Fprintf(&sb, "const %s ty=%d init=%d\n", c.Name, c.Ty, c.Init)
	}
	for i := range mod.Exprs {
		e := &mod.Exprs[i]
		fmt.Fprintf(&sb, "e %d ty=%d i=%d u=%d f=%g b=%t s=%q un=%d bin=%d x=%d y=%d el=%d l=%d d=%d ta=%v n=%s a=%v\n",
			e.Kind, e.Ty, e.Int, e.Uint, e.Float, e.Bool, e.Str, e.Un, e.Bin,
			e.X, e.Y, e.Else, e.Local, e.Def, e.TypeArgs, e.Name, e.Args)
	}
	for i := range mod.Stmts {
		s := &mod.Stmts[i]
		fmt.Fprintf(&sb, "s %d l=%d init=%d e=%d\n", s.Kind, s.Local, s.Init, s.E)
	}
	for i := range mod.Blocks {
		blk := &mod.Blocks[i]
		fmt.Fprintf(&sb, "b %v %d\n", blk.Stmts, blk.Value)
	}
	fmt.Fprintf(&sb, "last %v\ncopy %v\n",
		sortedKeys(mod.LastUses), sortedKeys(mod.CopyMap))
	return sb.String()
}

func sortedKeys(m map[ast.ExprID]bool) []ast.ExprID {
	out := make([]ast.ExprID, 0, len(m))
	for e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// cacheKey derives the artifact key: module structure, target, the
// options that change output, and the generator version.
func cacheKey(mod *ast.Module, triple string, opts Options) gencache.Digest {
	return gencache.Fingerprint(
		version.Version,
		triple,
		fmt.Sprintf("verify=%t claims=%t", opts.Verify, opts.TrustClaims),
		moduleDigest(mod),
	)
}
