// Package native defines the registration contract and argument-assertion
// helpers every stdlib catalog package builds its native functions and
// methods against. It is grounded directly on the src/vm/native.c and
// src/vm/assert.c a native-C scripting VM would carry: defineNativeFunction/
// defineNativeMethod become Registrar.Function/Registrar.Method, and
// assertArgCount/assertArgIsString/... become the Check* helpers below,
// returning a Go error instead of calling runtimeError+exit(70) since this
// core reports failures through the ordinary NativeFn error return rather
// than terminating the process.
package native

import (
	"fmt"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// Registrar is the VM-owned binding table a stdlib package installs its
// native functions into: the module whose immutable globals script code
// sees (or, for a namespaced catalog, a module standing in for one
// `require`d namespace, per modloader).
type Registrar = *object.Module

// Function registers a native function under name, matching
// defineNativeFunction's "copy the name, wrap the Go function pointer,
// store it in the globals table" shape.
func Function(r Registrar, name string, arity int, fn object.NativeFn) {
	r.DefineVal(name, value.Object(&object.NativeFunction{Name: name, Arity: arity, Fn: fn}))
}

// AsyncFunction registers a native function whose Fn may legitimately
// return a pending Promise (IsAsync), mirroring the flag native
// registration carries for ordinary async functions.
func AsyncFunction(r Registrar, name string, arity int, fn object.NativeFn) {
	r.DefineVal(name, value.Object(&object.NativeFunction{Name: name, Arity: arity, IsAsync: true, Fn: fn}))
}

// Method registers a native method against class, matching
// defineNativeMethod.
func Method(class *object.Class, name string, arity int, fn object.NativeMethodFn) {
	class.DefineMethod(name, value.Object(&object.NativeMethod{Owner: class, Name: name, Arity: arity, Fn: fn}))
}

// ArityError is assertArgCount's Go-error equivalent: it does not abort the
// process, it becomes the NativeFn's returned error, which the interpreter
// raises as an ordinary catchable runtime error.
func ArityError(method string, expected, got int) error {
	return fmt.Errorf("method %s expects %d argument(s) but got %d instead", method, expected, got)
}

func CheckArity(method string, expected, got int) error {
	if expected != got {
		return ArityError(method, expected, got)
	}
	return nil
}

func CheckMinArity(method string, min, got int) error {
	if got < min {
		return fmt.Errorf("method %s expects at least %d argument(s) but got %d instead", method, min, got)
	}
	return nil
}

// CheckString is assertArgIsString's equivalent: it reports the offending
// argument's 1-based position the same way the reference assertions do.
func CheckString(method string, args []value.Value, index int) (string, error) {
	if index >= len(args) || !args[index].IsObject() {
		return "", fmt.Errorf("method %s expects argument %d to be a string", method, index+1)
	}
	s, ok := args[index].Obj.(*object.String)
	if !ok {
		return "", fmt.Errorf("method %s expects argument %d to be a string", method, index+1)
	}
	return s.Value, nil
}

func CheckInt(method string, args []value.Value, index int) (int64, error) {
	if index >= len(args) || !args[index].IsInt() {
		return 0, fmt.Errorf("method %s expects argument %d to be an integer number", method, index+1)
	}
	return args[index].AsInt(), nil
}

func CheckFloat(method string, args []value.Value, index int) (float64, error) {
	if index >= len(args) || !args[index].IsFloat() {
		return 0, fmt.Errorf("method %s expects argument %d to be a floating point number", method, index+1)
	}
	return args[index].AsFloat(), nil
}

// CheckNumber accepts either numeric kind, widening Int to float64, matching
// assertArgIsNumber's IS_NUMBER (int or float) acceptance.
func CheckNumber(method string, args []value.Value, index int) (float64, error) {
	if index >= len(args) || !args[index].IsNumber() {
		return 0, fmt.Errorf("method %s expects argument %d to be a number", method, index+1)
	}
	return args[index].AsFloat64(), nil
}

func CheckArray(method string, args []value.Value, index int) (*object.Array, error) {
	if index >= len(args) || !args[index].IsObject() {
		return nil, fmt.Errorf("method %s expects argument %d to be an array", method, index+1)
	}
	a, ok := args[index].Obj.(*object.Array)
	if !ok {
		return nil, fmt.Errorf("method %s expects argument %d to be an array", method, index+1)
	}
	return a, nil
}

func CheckIndexRange(method string, v, min, max, index int) error {
	if v < min || v > max {
		return fmt.Errorf("method %s expects argument %d to be an index within range %d to %d but got %d", method, index, min, max, v)
	}
	return nil
}

// Callable reports whether v is any of the call targets object.VM.Call
// accepts, matching the reference's IS_CLOSURE/IS_NATIVE_FUNCTION/...
// disjunction used throughout src/std before invoking a user-supplied
// callback argument.
func Callable(v value.Value) bool {
	if !v.IsObject() {
		return false
	}
	switch v.Obj.(type) {
	case *object.Closure, *object.NativeFunction, *object.NativeMethod, *object.BoundMethod, *object.Class:
		return true
	default:
		return false
	}
}
