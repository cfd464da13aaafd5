package object

import (
	"sync/atomic"

	"github.com/vela-lang/vela/internal/shape"
	"github.com/vela-lang/vela/internal/value"
)

var behaviorCounter int64

func nextBehaviorID() int64 {
	return atomic.AddInt64(&behaviorCounter, 1)
}

// ClassKind distinguishes an ordinary class from a trait or a metaclass;
// traits cannot be instantiated, metaclasses are the class-of-a-class.
type ClassKind uint8

const (
	ClassStandard ClassKind = iota
	ClassTraitKind
	ClassMetaclass
)

// Class is a runtime class, trait, or metaclass object: a name, an
// optional superclass, a flattened method table (inheritance copies the
// superclass's methods in at class-definition time, so method lookup at
// call time never walks the superclass chain), per-class storage for
// class variables, the traits it applied, and a monotonically assigned
// behavior id used as the id half of a METHOD/CVAR inline-cache entry.
type Class struct {
	Header
	Name          string
	FullName      string
	Superclass    *Class
	Methods       map[string]value.Value
	ClassVarIndex map[string]int
	ClassVars     []value.Value
	Traits        []*Class
	BehaviorID    int64
	Kind          ClassKind
	Metaclass     *Class

	// interceptors caches, by kind, the single NativeMethod (if any)
	// DefineMethod has seen carrying that InterceptorKind, so construct/
	// invoke/getProperty/setProperty can dispatch a hook lookup without
	// scanning the whole method table on every call.
	interceptors map[InterceptorKind]*NativeMethod
}

// NewClass creates a standard class with an empty method table. The
// compiler is responsible for populating Superclass/Methods/Traits per the
// class-declaration emission rules (§4.7): inherit, then implement traits,
// then define the class's own methods. Own methods replace inherited and
// trait methods; a trait method only fills a name not already present.
func NewClass(name, fullName string) *Class {
	return &Class{
		Name:          name,
		FullName:      fullName,
		Methods:       make(map[string]value.Value),
		ClassVarIndex: make(map[string]int),
		BehaviorID:    nextBehaviorID(),
	}
}

// Interceptor returns the NativeMethod registered for kind, if any. Native
// classes (stdlib catalog entries) install these by registering an ordinary
// NativeMethod whose Interceptor field is non-zero; DefineMethod records it
// here the moment it is defined.
func (c *Class) Interceptor(kind InterceptorKind) (*NativeMethod, bool) {
	if c.interceptors == nil {
		return nil, false
	}
	m, ok := c.interceptors[kind]
	return m, ok
}

func (c *Class) Type() string { return "Class" }

func (c *Class) IsTrait() bool { return c.Kind == ClassTraitKind }

// Method returns the method bound at name in this class's flattened method
// table (already merged with inherited and trait-applied methods by the
// compiler).
func (c *Class) Method(name string) (value.Value, bool) {
	m, ok := c.Methods[name]
	return m, ok
}

func (c *Class) DefineMethod(name string, m value.Value) {
	c.Methods[name] = m
	c.noteInterceptor(m)
}

// noteInterceptor records m in c.interceptors if it is a NativeMethod
// carrying a non-zero InterceptorKind. A class that registers more than one
// NativeMethod for the same kind keeps whichever was defined last, matching
// how c.Methods itself resolves a duplicate name.
func (c *Class) noteInterceptor(m value.Value) {
	nm, ok := m.Obj.(*NativeMethod)
	if !ok || nm.Interceptor == InterceptorNone {
		return
	}
	if c.interceptors == nil {
		c.interceptors = make(map[InterceptorKind]*NativeMethod)
	}
	c.interceptors[nm.Interceptor] = nm
}

// InheritFrom copies super's method table into c, the single-pass
// inheritance emission described by OpInherit: the subclass's own methods,
// defined later with DefineMethod, may shadow entries copied in here;
// traits applied later with ApplyTrait do not.
func (c *Class) InheritFrom(super *Class) {
	c.Superclass = super
	for name, m := range super.Methods {
		c.Methods[name] = m
		c.noteInterceptor(m)
	}
}

// ApplyTrait copies trait's methods into c without overwriting any method
// c already defines, matching "traits... may shadow nothing except via
// explicit override" — a trait method only lands where the class (and any
// earlier-applied trait) left a gap.
func (c *Class) ApplyTrait(trait *Class) {
	c.Traits = append(c.Traits, trait)
	for name, m := range trait.Methods {
		if _, exists := c.Methods[name]; !exists {
			c.Methods[name] = m
			c.noteInterceptor(m)
		}
	}
}

func (c *Class) ClassVarSlot(name string) (int, bool) {
	slot, ok := c.ClassVarIndex[name]
	return slot, ok
}

func (c *Class) DefineClassVar(name string, v value.Value) int {
	if slot, ok := c.ClassVarIndex[name]; ok {
		c.ClassVars[slot] = v
		return slot
	}
	slot := len(c.ClassVars)
	c.ClassVarIndex[name] = slot
	c.ClassVars = append(c.ClassVars, v)
	return slot
}

// IsSubclassOf walks the superclass chain, used by `instanceof`/catch
// handler matching.
func (c *Class) IsSubclassOf(other *Class) bool {
	for cur := c; cur != nil; cur = cur.Superclass {
		if cur == other {
			return true
		}
	}
	return false
}

// Instance is a plain object instance: its fields are a dense Values array
// indexed through a Shape, so two instances that have added the same
// fields in the same order share one Shape and the same field layout.
type Instance struct {
	Header
	Shape *shape.Shape
	Slots []value.Value
}

func NewInstance(class *Class) *Instance {
	return &Instance{Header: Header{Class: class}, Shape: shape.Root()}
}

func (i *Instance) Type() string { return "Instance" }

func (i *Instance) GetField(name string) (value.Value, bool) {
	slot, ok := i.Shape.Lookup(name)
	if !ok {
		return value.Nil, false
	}
	return i.Slots[slot], true
}

// SetField writes name, transitioning to a new Shape the first time this
// instance gains that field.
func (i *Instance) SetField(name string, v value.Value) {
	if slot, ok := i.Shape.Lookup(name); ok {
		i.Slots[slot] = v
		return
	}
	i.Shape = i.Shape.Transition(name)
	i.Slots = append(i.Slots, v)
}

// ValueInstance boxes a primitive Value behind an Instance, used where the
// object model needs a primitive to carry a class/identity (e.g. a native
// method returning a boxed number so it can also carry user-defined
// instance fields).
type ValueInstance struct {
	Instance
	Wrapped value.Value
}

func (v *ValueInstance) Type() string { return "ValueInstance" }
