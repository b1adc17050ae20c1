package ir

import (
	"fmt"

	"fortio.org/safecast"
)

// Module is one emitted translation unit.
type Module struct {
	Name   string
	Triple string

	Funcs   []*Func
	Globals []*Global

	funcByName   map[string]FuncID
	globalByName map[string]GlobalID
}

// NewModule creates an empty module targeting triple.
func NewModule(name, triple string) *Module {
	return &Module{
		Name:         name,
		Triple:       triple,
		funcByName:   make(map[string]FuncID),
		globalByName: make(map[string]GlobalID),
	}
}

// Func returns the function with the given ID.
func (m *Module) Func(id FuncID) *Func {
	return m.Funcs[id]
}

// Global returns the global with the given ID.
func (m *Module) Global(id GlobalID) *Global {
	return m.Globals[id]
}

// FuncByName resolves a function by symbol name.
func (m *Module) FuncByName(name string) (FuncID, bool) {
	id, ok := m.funcByName[name]
	return id, ok
}

// GlobalByName resolves a global by symbol name.
func (m *Module) GlobalByName(name string) (GlobalID, bool) {
	id, ok := m.globalByName[name]
	return id, ok
}

func (m *Module) addFunc(f *Func) FuncID {
	if prev, ok := m.funcByName[f.Name]; ok {
		panic(fmt.Errorf("duplicate function symbol %q (func %d)", f.Name, prev))
	}
	n, err := safecast.Conv[int32](len(m.Funcs))
	if err != nil {
		panic(fmt.Errorf("func arena overflow: %w", err))
	}
	f.ID = FuncID(n)
	m.Funcs = append(m.Funcs, f)
	m.funcByName[f.Name] = f.ID
	return f.ID
}

// DeclareFunc registers an external declaration and returns its ID. A
// repeated declaration with the same name returns the existing ID.
func (m *Module) DeclareFunc(name string, ty *Type) FuncID {
	if id, ok := m.funcByName[name]; ok {
		return id
	}
	return m.addFunc(&Func{Name: name, Ty: ty, Decl: true})
}

// DefineFunc creates a defined function with parameter values and an
// entry block, and returns it for building.
func (m *Module) DefineFunc(name string, ty *Type) *Func {
	f := &Func{Name: name, Ty: ty}
	for i, pt := range ty.Params {
		idx, err := safecast.Conv[int32](i)
		if err != nil {
			panic(fmt.Errorf("param count overflow: %w", err))
		}
		f.Params = append(f.Params, f.newVal(Value{Kind: ValParam, Ty: pt, Param: idx}))
	}
	m.addFunc(f)
	f.NewBlock("entry")
	return f
}

// AddGlobal registers a module global. Init may be nil and set later.
func (m *Module) AddGlobal(name string, ty *Type, init *GInit) GlobalID {
	if prev, ok := m.globalByName[name]; ok {
		panic(fmt.Errorf("duplicate global symbol %q (global %d)", name, prev))
	}
	n, err := safecast.Conv[int32](len(m.Globals))
	if err != nil {
		panic(fmt.Errorf("global arena overflow: %w", err))
	}
	id := GlobalID(n)
	m.Globals = append(m.Globals, &Global{ID: id, Name: name, Ty: ty, Init: init})
	m.globalByName[name] = id
	return id
}

// DeclareGlobal registers an external global declaration.
func (m *Module) DeclareGlobal(name string, ty *Type) GlobalID {
	if id, ok := m.globalByName[name]; ok {
		return id
	}
	id := m.AddGlobal(name, ty, nil)
	m.Globals[id].Decl = true
	return id
}
