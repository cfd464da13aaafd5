package object

import "github.com/vela-lang/vela/internal/value"

// Namespace groups classes, nested namespaces, and values under a short
// name and a full dotted name (`using Foo.Bar` resolves against this
// tree). The enclosing pointer is nil for a top-level namespace.
type Namespace struct {
	Header
	Name      string
	FullName  string
	Enclosing *Namespace
	Values    map[string]value.Value
}

func NewNamespace(name, fullName string, enclosing *Namespace) *Namespace {
	return &Namespace{Name: name, FullName: fullName, Enclosing: enclosing, Values: make(map[string]value.Value)}
}

func (n *Namespace) Type() string { return "Namespace" }

func (n *Namespace) Get(name string) (value.Value, bool) {
	v, ok := n.Values[name]
	return v, ok
}

func (n *Namespace) Define(name string, v value.Value) {
	n.Values[name] = v
}

// Module is one compiled source file: its top-level closure, and two
// separate global binding tables — DEFINE_GLOBAL_VAL entries land in
// Immutable, DEFINE_GLOBAL_VAR entries in Mutable, so an attempted
// SET_GLOBAL against an Immutable name is a compile-time-impossible but
// still runtime-checked error.
type Module struct {
	Header
	Path      string
	TopLevel  *Closure
	Immutable map[string]value.Value
	Mutable   map[string]value.Value
	IsNative  bool
}

func NewModule(path string) *Module {
	return &Module{
		Path:      path,
		Immutable: make(map[string]value.Value),
		Mutable:   make(map[string]value.Value),
	}
}

func (m *Module) Type() string { return "Module" }

func (m *Module) DefineVal(name string, v value.Value) { m.Immutable[name] = v }
func (m *Module) DefineVar(name string, v value.Value) { m.Mutable[name] = v }

// GetGlobal looks up name across both binding tables, reporting whether it
// was found and, if so, whether the binding is mutable.
func (m *Module) GetGlobal(name string) (v value.Value, mutable bool, ok bool) {
	if v, ok = m.Mutable[name]; ok {
		return v, true, true
	}
	if v, ok = m.Immutable[name]; ok {
		return v, false, true
	}
	return value.Nil, false, false
}

// SetGlobal assigns an existing mutable binding, returning false if name
// is undefined or bound immutably (the caller raises the appropriate
// runtime error in that case).
func (m *Module) SetGlobal(name string, v value.Value) bool {
	if _, ok := m.Mutable[name]; !ok {
		return false
	}
	m.Mutable[name] = v
	return true
}
