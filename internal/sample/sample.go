// Package sample ships small built-in typed modules. The driver uses
// them as compilation inputs for demos and smoke tests, so every
// sample is written against shapes the translator is known to handle.
package sample

import (
	"fmt"
	"sort"

	"ember/internal/ast"
	"ember/internal/types"
)

var registry = map[string]func() *ast.Module{
	"hello": buildHello,
	"arith": buildArith,
	"boxes": buildBoxes,
	"loops": buildLoops,
	"enums": buildEnums,
}

// Names lists the available samples in stable order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build constructs a fresh module for name.
func Build(name string) (*ast.Module, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("sample: unknown module %q", name)
	}
	return fn(), nil
}

// Modules builds the named samples, or all of them when names is
// empty.
func Modules(names ...string) ([]*ast.Module, error) {
	if len(names) == 0 {
		names = Names()
	}
	out := make([]*ast.Module, 0, len(names))
	for _, name := range names {
		mod, err := Build(name)
		if err != nil {
			return nil, err
		}
		out = append(out, mod)
	}
	return out, nil
}

// buildHello: string lifetimes only. Two locals, both released on the
// way out of main.
func buildHello() *ast.Module {
	b := ast.NewBuilder("hello")
	bt := b.Types().Builtins()

	fb := b.Fn("main", bt.Nil)
	s := fb.Local("s", bt.Str)
	w := fb.Local("w", bt.Str)
	fb.Body(b.Blk([]ast.StmtID{
		b.Let(s, b.StrLit("hello from ember")),
		b.Let(w, b.StrLit("bye")),
	}, ast.NoExprID)).Done()

	return b.Finish()
}

// buildArith: scalar flow. abs branches, blend widens an int into
// float math, main calls both and ignores the results.
func buildArith() *ast.Module {
	b := ast.NewBuilder("arith")
	bt := b.Types().Builtins()

	fb := b.Fn("abs", bt.Int)
	x := fb.Arg("x", types.ModeVal, bt.Int)
	neg := b.Binary(ast.OpSub, b.IntLit(0, bt.Int), b.LocalRef(x, bt.Int), bt.Int)
	flip := b.Blk([]ast.StmtID{b.ExprStmt(b.Ret(neg))}, ast.NoExprID)
	cond := b.Binary(ast.OpLt, b.LocalRef(x, bt.Int), b.IntLit(0, bt.Int), bt.Bool)
	_, absDef := fb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.If(cond, flip, ast.NoExprID, bt.Nil)),
		b.ExprStmt(b.Ret(b.LocalRef(x, bt.Int))),
	}, ast.NoExprID)).Done()

	gb := b.Fn("blend", bt.F64)
	a := gb.Arg("a", types.ModeVal, bt.Int)
	k := gb.Arg("k", types.ModeVal, bt.F64)
	wide := b.Cast(b.LocalRef(a, bt.Int), bt.F64)
	_, blendDef := gb.Body(b.Blk(nil,
		b.Binary(ast.OpMul, wide, b.LocalRef(k, bt.F64), bt.F64))).Done()

	absSig := b.Types().Fn(types.ProtoBare,
		[]types.FnArg{{Mode: types.ModeVal, Type: bt.Int}}, bt.Int)
	blendSig := b.Types().Fn(types.ProtoBare,
		[]types.FnArg{{Mode: types.ModeVal, Type: bt.Int}, {Mode: types.ModeVal, Type: bt.F64}}, bt.F64)

	mb := b.Fn("main", bt.Nil)
	mb.Body(b.Blk([]ast.StmtID{
		b.ExprStmt(b.Call(b.GlobalRef(absDef, nil, absSig),
			[]ast.ExprID{b.IntLit(-5, bt.Int)}, bt.Int)),
		b.ExprStmt(b.Call(b.GlobalRef(blendDef, nil, blendSig),
			[]ast.ExprID{b.IntLit(2, bt.Int), b.FloatLit(0.5, bt.F64)}, bt.F64)),
	}, ast.NoExprID)).Done()

	return b.Finish()
}

// buildBoxes: reference counting. A generic identity takes a copy, a
// concrete sink consumes a temporary, and main still owns its box at
// scope exit.
func buildBoxes() *ast.Module {
	b := ast.NewBuilder("boxes")
	bt := b.Types().Builtins()
	boxInt := b.Types().Intern(types.MakeBox(bt.Int))
	p0 := b.Types().Intern(types.MakeParam(0))

	ib := b.Fn("id", bt.Nil)
	ib.TypeParam("T")
	ib.Arg("x", types.ModeCopy, p0)
	_, idDef := ib.Body(b.Blk(nil, ast.NoExprID)).Done()

	cb := b.Fn("consume", bt.Nil)
	cb.Arg("x", types.ModeCopy, boxInt)
	_, consumeDef := cb.Body(b.Blk(nil, ast.NoExprID)).Done()

	idSig := b.Types().Fn(types.ProtoBare,
		[]types.FnArg{{Mode: types.ModeCopy, Type: boxInt}}, bt.Nil)
	consumeSig := idSig

	mb := b.Fn("main", bt.Nil)
	p := mb.Local("p", boxInt)
	mb.Body(b.Blk([]ast.StmtID{
		b.Let(p, b.Unary(ast.OpBox, b.IntLit(1, bt.Int), boxInt)),
		b.ExprStmt(b.Call(b.GlobalRef(idDef, []types.TypeID{boxInt}, idSig),
			[]ast.ExprID{b.LocalRef(p, boxInt)}, bt.Nil)),
		b.ExprStmt(b.Call(b.GlobalRef(consumeDef, nil, consumeSig),
			[]ast.ExprID{b.Unary(ast.OpBox, b.IntLit(2, bt.Int), boxInt)}, bt.Nil)),
	}, ast.NoExprID)).Done()

	return b.Finish()
}

// buildLoops: a counting while loop and a for loop folding a vec
// literal.
func buildLoops() *ast.Module {
	b := ast.NewBuilder("loops")
	bt := b.Types().Builtins()
	vecInt := b.Types().Intern(types.MakeVec(bt.Int))

	fb := b.Fn("count", bt.Int)
	n := fb.Arg("n", types.ModeVal, bt.Int)
	i := fb.Local("i", bt.Int)
	body := b.Blk([]ast.StmtID{
		b.ExprStmt(b.Assign(b.LocalRef(i, bt.Int),
			b.Binary(ast.OpAdd, b.LocalRef(i, bt.Int), b.IntLit(1, bt.Int), bt.Int))),
	}, ast.NoExprID)
	_, countDef := fb.Body(b.Blk([]ast.StmtID{
		b.Let(i, b.IntLit(0, bt.Int)),
		b.ExprStmt(b.While(
			b.Binary(ast.OpLt, b.LocalRef(i, bt.Int), b.LocalRef(n, bt.Int), bt.Bool), body)),
		b.ExprStmt(b.Ret(b.LocalRef(i, bt.Int))),
	}, ast.NoExprID)).Done()

	gb := b.Fn("sum", bt.Int)
	v := gb.Arg("v", types.ModeRef, vecInt)
	s := gb.Local("s", bt.Int)
	e := gb.Local("e", bt.Int)
	acc := b.Blk([]ast.StmtID{
		b.ExprStmt(b.Assign(b.LocalRef(s, bt.Int),
			b.Binary(ast.OpAdd, b.LocalRef(s, bt.Int), b.LocalRef(e, bt.Int), bt.Int))),
	}, ast.NoExprID)
	_, sumDef := gb.Body(b.Blk([]ast.StmtID{
		b.Let(s, b.IntLit(0, bt.Int)),
		b.ExprStmt(b.For(e, b.LocalRef(v, vecInt), acc)),
		b.ExprStmt(b.Ret(b.LocalRef(s, bt.Int))),
	}, ast.NoExprID)).Done()

	countSig := b.Types().Fn(types.ProtoBare,
		[]types.FnArg{{Mode: types.ModeVal, Type: bt.Int}}, bt.Int)
	sumSig := b.Types().Fn(types.ProtoBare,
		[]types.FnArg{{Mode: types.ModeRef, Type: vecInt}}, bt.Int)

	mb := b.Fn("main", bt.Nil)
	vv := mb.Local("v", vecInt)
	mb.Body(b.Blk([]ast.StmtID{
		b.Let(vv, b.VecLit([]ast.ExprID{
			b.IntLit(1, bt.Int), b.IntLit(2, bt.Int), b.IntLit(3, bt.Int),
		}, vecInt)),
		b.ExprStmt(b.Call(b.GlobalRef(sumDef, nil, sumSig),
			[]ast.ExprID{b.LocalRef(vv, vecInt)}, bt.Int)),
		b.ExprStmt(b.Call(b.GlobalRef(countDef, nil, countSig),
			[]ast.ExprID{b.IntLit(3, bt.Int)}, bt.Int)),
	}, ast.NoExprID)).Done()

	return b.Finish()
}

// buildEnums: a generic option instantiated at int, constructed and
// dropped in main.
func buildEnums() *ast.Module {
	b := ast.NewBuilder("enums")
	bt := b.Types().Builtins()
	p0 := b.Types().Intern(types.MakeParam(0))
	eid, defs := b.Enum("opt", []ast.TypeParam{{Name: "T"}}, []types.Variant{
		{Name: "none", Discr: 0},
		{Name: "some", Discr: 1, Args: []types.TypeID{p0}},
	})
	optInt := b.Types().Enum(eid, []types.TypeID{bt.Int})

	mb := b.Fn("main", bt.Nil)
	o := mb.Local("o", optInt)
	ctor := b.Call(b.GlobalRef(defs[1], []types.TypeID{bt.Int}, optInt),
		[]ast.ExprID{b.IntLit(41, bt.Int)}, optInt)
	mb.Body(b.Blk([]ast.StmtID{b.Let(o, ctor)}, ast.NoExprID)).Done()

	return b.Finish()
}
