package object

import (
	"github.com/vela-lang/vela/internal/bytecode"
	"github.com/vela-lang/vela/internal/value"
)

// VM is the slice of interpreter behavior a native function or method body
// needs in order to call back into user code (e.g. a `map` native invoking
// a user-supplied closure, or a Promise executor settling itself). It is
// declared here, rather than imported from internal/vm, so that object
// never depends on vm — vm depends on object, not the other way around.
type VM interface {
	// Call invokes callee (a Closure, NativeFunction, NativeMethod, Class,
	// or BoundMethod value) with args and returns its result, or an error
	// if the call raised an exception or the callee is not callable.
	Call(callee value.Value, args []value.Value) (value.Value, error)

	// Intern returns the canonical *String for s, allocating one on first
	// sight. Any native code that manufactures a new string (stdlib string
	// ops, formatting, concatenation) must route it through here rather
	// than constructing a *String directly: string equality is a pointer
	// comparison everywhere else in the interpreter, so an un-interned
	// string silently fails to compare equal to an otherwise-identical one.
	Intern(s string) *String

	// Track registers obj with the collector so it participates in GC
	// (root scanning, generation promotion, sweep). Native code that
	// allocates a heap object outside of the bytecode interpreter's own
	// allocation sites (e.g. a stdlib function building a fresh Array or
	// Dictionary) must call this before handing the object to script code.
	Track(obj interface{}) error
}

// NativeFn is the call signature for a registered native function.
type NativeFn func(vm VM, args []value.Value) (value.Value, error)

// NativeMethodFn is the call signature for a registered native method.
type NativeMethodFn func(vm VM, receiver value.Value, args []value.Value) (value.Value, error)

// Function is a compiled, not-yet-closed-over function body: its arity,
// upvalue count, code chunk, name, and generator/async flags. Variadic
// functions are declared with Arity -(required+1); the interpreter packs
// surplus positional arguments into an Array at call time. ParamCount is
// the total number of declared parameter slots (including the trailing
// variadic one), used to nil-fill unpassed optional parameters.
type Function struct {
	Header
	Name         string
	Arity        int
	ParamCount   int
	UpvalueCount int
	Chunk        *bytecode.Chunk
	IsGenerator  bool
	IsAsync      bool
}

func NewFunction(name string, arity int) *Function {
	return &Function{Name: name, Arity: arity, ParamCount: arity, Chunk: bytecode.NewChunk()}
}

func (f *Function) Type() string { return "Function" }

func (f *Function) IsVariadic() bool { return f.Arity < 0 }

// RequiredArity returns the minimum number of positional arguments a call
// must supply, regardless of whether the function is variadic.
func (f *Function) RequiredArity() int {
	if f.IsVariadic() {
		return -f.Arity - 1
	}
	return f.Arity
}

// Upvalue is a reference to a variable captured by a closure: open while it
// still aliases a live frame stack slot, closed once that frame returns.
// The VM tracks open upvalues in a map keyed by stack slot (see
// internal/vm/upvalues.go); Next is not used.
type Upvalue struct {
	Header
	Location *value.Value
	closed   value.Value
	Next     *Upvalue
}

func NewOpenUpvalue(slot *value.Value) *Upvalue {
	return &Upvalue{Location: slot}
}

func (u *Upvalue) Type() string { return "Upvalue" }

func (u *Upvalue) IsOpen() bool { return u.Location != nil }

func (u *Upvalue) Get() value.Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.closed
}

func (u *Upvalue) Set(v value.Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.closed = v
}

// Close detaches the upvalue from its stack slot, copying the slot's
// current value in as the permanently closed value.
func (u *Upvalue) Close() {
	u.closed = *u.Location
	u.Location = nil
}

// Closure pairs a Function with the Upvalues it captured at creation time
// and the Module it was defined in (global lookups resolve against that
// module's binding tables, not the calling module's).
type Closure struct {
	Header
	Function *Function
	Upvalues []*Upvalue
	Module   *Module
}

func NewClosure(fn *Function, module *Module) *Closure {
	return &Closure{Function: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount), Module: module}
}

func (c *Closure) Type() string { return "Closure" }

// InterceptorKind names one of the narrow set of recognized native-method
// interceptor roles; Kind's zero value (InterceptorNone) marks an ordinary
// method.
type InterceptorKind uint8

const (
	InterceptorNone InterceptorKind = iota
	InterceptorInit
	InterceptorBeforeInvoke
	InterceptorAfterInvoke
	InterceptorUndefinedInvoke
	InterceptorUndefinedGet
	InterceptorUndefinedSet
)

// NativeFunction is a Go-implemented function exposed to user code, e.g. a
// standard-library entry point.
type NativeFunction struct {
	Header
	Name    string
	Arity   int
	IsAsync bool
	Fn      NativeFn
}

func (n *NativeFunction) Type() string { return "NativeFunction" }

// NativeMethod is a Go-implemented method registered against a Class.
type NativeMethod struct {
	Header
	Owner       *Class
	Name        string
	Arity       int
	IsAsync     bool
	Interceptor InterceptorKind
	Fn          NativeMethodFn
}

func (n *NativeMethod) Type() string { return "NativeMethod" }

// BoundMethod pairs a receiver with a callable (Closure or NativeMethod),
// produced whenever a method is read as a value rather than invoked
// directly through INVOKE's receiver-aware fast path.
type BoundMethod struct {
	Header
	Receiver value.Value
	Method   value.Value
}

func (b *BoundMethod) Type() string { return "BoundMethod" }
