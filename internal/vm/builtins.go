package vm

import (
	"fmt"
	"strings"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// defineMethod registers a Go-implemented method on class, matching the
// NativeMethod shape construct/invoke/getProperty all expect to find in a
// Class's method table.
func defineMethod(class *object.Class, name string, arity int, fn object.NativeMethodFn) {
	m := &object.NativeMethod{Owner: class, Name: name, Arity: arity, Fn: fn}
	class.DefineMethod(name, value.Object(m))
}

func newBuiltinClass(name string) *object.Class {
	return object.NewClass(name, name)
}

// registerBuiltins constructs the classes every primitive heap value
// dispatches property/method access against (see classOf) and exposes each
// as an immutable global, so user code can reference them by name (catch
// clauses, `instanceof`, explicit construction of Error subclasses).
func (vm *VM) registerBuiltins() {
	vm.arrayClass = newBuiltinClass("Array")
	vm.dictionaryClass = newBuiltinClass("Dictionary")
	vm.stringClass = newBuiltinClass("String")
	vm.rangeClass = newBuiltinClass("Range")
	vm.generatorClass = newBuiltinClass("Generator")
	vm.promiseClass = newBuiltinClass("Promise")
	vm.errorClass = newBuiltinClass("Error")
	vm.entryClass = newBuiltinClass("Entry")

	vm.registerArrayMethods()
	vm.registerDictionaryMethods()
	vm.registerStringMethods()
	vm.registerRangeMethods()
	vm.registerGeneratorMethods()
	vm.registerPromiseMethods()
	vm.registerErrorMethods()
	vm.registerEntryMethods()

	for _, c := range []*object.Class{
		vm.arrayClass, vm.dictionaryClass, vm.stringClass, vm.rangeClass,
		vm.generatorClass, vm.promiseClass, vm.errorClass, vm.entryClass,
	} {
		vm.module.DefineVal(c.Name, value.Object(c))
	}

	vm.registerGlobalFunctions()
}

// registerEntryMethods gives script code a way to pull the key/value back
// out of the Entry objects `for (e : dict)` binds (see Dictionary.Entries).
func (vm *VM) registerEntryMethods() {
	c := vm.entryClass
	self := func(recv value.Value) *object.Entry { return recv.Obj.(*object.Entry) }

	defineMethod(c, "key", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return self(recv).Key, nil
	})
	defineMethod(c, "value", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return self(recv).Value, nil
	})
	defineMethod(c, "toString", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		e := self(recv)
		return value.Object(vm.strings.Intern(e.Key.String() + ": " + e.Value.String())), nil
	})
}

func argOr(args []value.Value, i int, fallback value.Value) value.Value {
	if i < len(args) {
		return args[i]
	}
	return fallback
}

func (vm *VM) registerArrayMethods() {
	c := vm.arrayClass

	defineMethod(c, "length", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Int(int64(recv.Obj.(*object.Array).Len())), nil
	})
	defineMethod(c, "push", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		recv.Obj.(*object.Array).Append(args[0])
		vm.gc.WriteBarrier(recv.Obj, args[0])
		return recv, nil
	})
	defineMethod(c, "pop", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		a := recv.Obj.(*object.Array)
		n := a.Len()
		if n == 0 {
			return value.Nil, fmt.Errorf("%w: pop on an empty Array", ErrIndexOutOfRange)
		}
		v, _ := a.Get(n - 1)
		a.Elements = a.Elements[:n-1]
		return v, nil
	})
	defineMethod(c, "get", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		if !args[0].IsInt() {
			return value.Nil, vm.typeErrorf("Array.get expects an integer index")
		}
		v, ok := recv.Obj.(*object.Array).Get(int(args[0].AsInt()))
		if !ok {
			return value.Nil, nil
		}
		return v, nil
	})
	defineMethod(c, "set", 2, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		if !args[0].IsInt() {
			return value.Nil, vm.typeErrorf("Array.set expects an integer index")
		}
		if !recv.Obj.(*object.Array).Set(int(args[0].AsInt()), args[1]) {
			return value.Nil, fmt.Errorf("%w: Array.set index out of range", ErrIndexOutOfRange)
		}
		vm.gc.WriteBarrier(recv.Obj, args[1])
		return args[1], nil
	})
	defineMethod(c, "contains", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		for _, e := range recv.Obj.(*object.Array).Elements {
			if e.Equal(args[0]) {
				return value.True, nil
			}
		}
		return value.False, nil
	})
	defineMethod(c, "indexOf", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		for i, e := range recv.Obj.(*object.Array).Elements {
			if e.Equal(args[0]) {
				return value.Int(int64(i)), nil
			}
		}
		return value.Int(-1), nil
	})
	defineMethod(c, "join", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		sep := ""
		if s, ok := isString(args[0]); ok {
			sep = s.Value
		}
		elems := recv.Obj.(*object.Array).Elements
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.String()
		}
		return value.Object(vm.strings.Intern(strings.Join(parts, sep))), nil
	})
	defineMethod(c, "toString", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		elems := recv.Obj.(*object.Array).Elements
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = e.String()
		}
		return value.Object(vm.strings.Intern("[" + strings.Join(parts, ", ") + "]")), nil
	})
	defineMethod(c, "next", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(args[0].AsInt() < int64(recv.Obj.(*object.Array).Len())), nil
	})
	defineMethod(c, "nextValue", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		v, _ := recv.Obj.(*object.Array).Get(int(args[0].AsInt()))
		return v, nil
	})

	// map/filter/reduce/each/zip generalize a U64Array-style fixed-function
	// monadic/dyadic operation set (map/zip/filter/reduce/dot) from a
	// fixed uint64 payload to arbitrary Values, dispatching each element
	// through the calling VM rather than a Go func literal, since here the
	// transform is itself script-level code.
	defineMethod(c, "map", 1, func(ivm object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		elems := recv.Obj.(*object.Array).Elements
		out := make([]value.Value, len(elems))
		for i, e := range elems {
			r, err := ivm.Call(args[0], []value.Value{e, value.Int(int64(i))})
			if err != nil {
				return value.Nil, err
			}
			out[i] = r
		}
		return newArray(vm, ivm, out)
	})
	defineMethod(c, "filter", 1, func(ivm object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		elems := recv.Obj.(*object.Array).Elements
		var out []value.Value
		for i, e := range elems {
			r, err := ivm.Call(args[0], []value.Value{e, value.Int(int64(i))})
			if err != nil {
				return value.Nil, err
			}
			if r.IsBool() && r.AsBool() {
				out = append(out, e)
			}
		}
		return newArray(vm, ivm, out)
	})
	defineMethod(c, "reduce", 2, func(ivm object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		acc := args[1]
		for i, e := range recv.Obj.(*object.Array).Elements {
			r, err := ivm.Call(args[0], []value.Value{acc, e, value.Int(int64(i))})
			if err != nil {
				return value.Nil, err
			}
			acc = r
		}
		return acc, nil
	})
	defineMethod(c, "each", 1, func(ivm object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		for i, e := range recv.Obj.(*object.Array).Elements {
			if _, err := ivm.Call(args[0], []value.Value{e, value.Int(int64(i))}); err != nil {
				return value.Nil, err
			}
		}
		return value.Nil, nil
	})
	defineMethod(c, "zip", 2, func(ivm object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		other, ok := args[0].Obj.(*object.Array)
		if !ok {
			return value.Nil, vm.typeErrorf("Array.zip expects an Array")
		}
		elems := recv.Obj.(*object.Array).Elements
		n := len(elems)
		if len(other.Elements) < n {
			n = len(other.Elements)
		}
		out := make([]value.Value, n)
		for i := 0; i < n; i++ {
			r, err := ivm.Call(args[1], []value.Value{elems[i], other.Elements[i]})
			if err != nil {
				return value.Nil, err
			}
			out[i] = r
		}
		return newArray(vm, ivm, out)
	})
}

// newArray allocates and tracks a fresh Array wrapping elems, the common
// tail of every Array method here that builds a new result array.
func newArray(vm *VM, ivm object.VM, elems []value.Value) (value.Value, error) {
	arr := object.NewArray(elems...)
	arr.Class = vm.arrayClass
	if err := ivm.Track(arr); err != nil {
		return value.Nil, err
	}
	return value.Object(arr), nil
}

func (vm *VM) registerDictionaryMethods() {
	c := vm.dictionaryClass

	defineMethod(c, "length", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Int(int64(recv.Obj.(*object.Dictionary).Len())), nil
	})
	defineMethod(c, "has", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		_, ok := recv.Obj.(*object.Dictionary).Get(args[0])
		return value.Bool(ok), nil
	})
	defineMethod(c, "get", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		v, _ := recv.Obj.(*object.Dictionary).Get(args[0])
		return v, nil
	})
	defineMethod(c, "set", 2, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		recv.Obj.(*object.Dictionary).Set(args[0], args[1])
		vm.gc.WriteBarrier(recv.Obj, args[0])
		vm.gc.WriteBarrier(recv.Obj, args[1])
		return args[1], nil
	})
	defineMethod(c, "remove", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(recv.Obj.(*object.Dictionary).Delete(args[0])), nil
	})
	defineMethod(c, "keys", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		entries := recv.Obj.(*object.Dictionary).Entries()
		keys := make([]value.Value, len(entries))
		for i, e := range entries {
			keys[i] = e.Key
		}
		arr := object.NewArray(keys...)
		arr.Class = vm.arrayClass
		if err := vm.gc.Track(arr); err != nil {
			return value.Nil, err
		}
		return value.Object(arr), nil
	})
	defineMethod(c, "values", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		entries := recv.Obj.(*object.Dictionary).Entries()
		vals := make([]value.Value, len(entries))
		for i, e := range entries {
			vals[i] = e.Value
		}
		arr := object.NewArray(vals...)
		arr.Class = vm.arrayClass
		if err := vm.gc.Track(arr); err != nil {
			return value.Nil, err
		}
		return value.Object(arr), nil
	})
	defineMethod(c, "toString", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		entries := recv.Obj.(*object.Dictionary).Entries()
		parts := make([]string, len(entries))
		for i, e := range entries {
			parts[i] = e.Key.String() + ": " + e.Value.String()
		}
		return value.Object(vm.strings.Intern("{" + strings.Join(parts, ", ") + "}")), nil
	})
	// next/nextValue snapshot Entries() fresh on every call; correct as long
	// as the dictionary is not mutated mid-iteration, the same assumption
	// every open-addressed map iterator makes.
	defineMethod(c, "next", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(args[0].AsInt() < int64(recv.Obj.(*object.Dictionary).Len())), nil
	})
	defineMethod(c, "nextValue", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		entries := recv.Obj.(*object.Dictionary).Entries()
		i := int(args[0].AsInt())
		if i < 0 || i >= len(entries) {
			return value.Nil, nil
		}
		e := entries[i]
		e.Class = vm.entryClass
		return value.Object(e), nil
	})
}

func (vm *VM) registerStringMethods() {
	c := vm.stringClass

	self := func(recv value.Value) *object.String { return recv.Obj.(*object.String) }

	defineMethod(c, "length", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Int(int64(len([]rune(self(recv).Value)))), nil
	})
	defineMethod(c, "upper", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Object(vm.strings.Intern(strings.ToUpper(self(recv).Value))), nil
	})
	defineMethod(c, "lower", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Object(vm.strings.Intern(strings.ToLower(self(recv).Value))), nil
	})
	defineMethod(c, "trim", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Object(vm.strings.Intern(strings.TrimSpace(self(recv).Value))), nil
	})
	defineMethod(c, "contains", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		needle, ok := isString(args[0])
		if !ok {
			return value.False, nil
		}
		return value.Bool(strings.Contains(self(recv).Value, needle.Value)), nil
	})
	defineMethod(c, "indexOf", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		needle, ok := isString(args[0])
		if !ok {
			return value.Int(-1), nil
		}
		return value.Int(int64(strings.Index(self(recv).Value, needle.Value))), nil
	})
	defineMethod(c, "split", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		sep, ok := isString(args[0])
		if !ok {
			return value.Nil, vm.typeErrorf("String.split expects a String separator")
		}
		parts := strings.Split(self(recv).Value, sep.Value)
		elems := make([]value.Value, len(parts))
		for i, p := range parts {
			elems[i] = value.Object(vm.strings.Intern(p))
		}
		arr := object.NewArray(elems...)
		arr.Class = vm.arrayClass
		if err := vm.gc.Track(arr); err != nil {
			return value.Nil, err
		}
		return value.Object(arr), nil
	})
	defineMethod(c, "toString", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return recv, nil
	})
	defineMethod(c, "next", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(args[0].AsInt() < int64(len([]rune(self(recv).Value)))), nil
	})
	defineMethod(c, "nextValue", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		runes := []rune(self(recv).Value)
		i := int(args[0].AsInt())
		if i < 0 || i >= len(runes) {
			return value.Nil, nil
		}
		return value.Object(vm.strings.Intern(string(runes[i]))), nil
	})
}

func (vm *VM) registerRangeMethods() {
	c := vm.rangeClass
	self := func(recv value.Value) *object.Range { return recv.Obj.(*object.Range) }

	defineMethod(c, "length", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		r := self(recv)
		return value.Int(r.To - r.From), nil
	})
	defineMethod(c, "contains", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		if !args[0].IsInt() {
			return value.False, nil
		}
		r := self(recv)
		i := args[0].AsInt()
		return value.Bool(i >= r.From && i < r.To), nil
	})
	defineMethod(c, "toString", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		r := self(recv)
		return value.Object(vm.strings.Intern(fmt.Sprintf("%d..%d", r.From, r.To))), nil
	})
	defineMethod(c, "next", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		r := self(recv)
		return value.Bool(r.From+args[0].AsInt() < r.To), nil
	})
	defineMethod(c, "nextValue", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		r := self(recv)
		return value.Int(r.From + args[0].AsInt()), nil
	})
}

// registerGeneratorMethods adapts the iterator protocol to a suspended
// generator: the loop index argument is ignored (a generator's position is
// its own frame state, not a number a caller can re-derive), and every
// `next(i)` call advances the generator exactly once regardless of i.
func (vm *VM) registerGeneratorMethods() {
	c := vm.generatorClass
	self := func(recv value.Value) *object.Generator { return recv.Obj.(*object.Generator) }

	defineMethod(c, "next", 1, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		gen := self(recv)
		if gen.State == object.GeneratorReturn || gen.State == object.GeneratorError {
			return value.False, nil
		}
		val, done, err := vm.resumeGenerator(gen, value.Nil)
		if err != nil {
			return value.Nil, err
		}
		gen.LastYielded = val
		return value.Bool(!done), nil
	})
	defineMethod(c, "nextValue", 1, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return self(recv).LastYielded, nil
	})
	defineMethod(c, "toString", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Object(vm.strings.Intern(fmt.Sprintf("<Generator %s>", self(recv).State))), nil
	})
}

func (vm *VM) registerPromiseMethods() {
	c := vm.promiseClass
	self := func(recv value.Value) *object.Promise { return recv.Obj.(*object.Promise) }

	// init is the InterceptorInit hook construct() calls in place of a
	// compiled `init`: `new Promise(executor)` must produce a real
	// *object.Promise rather than the generic Instance construct()
	// allocates by default, so this hook discards that instance and
	// returns a replacement value outright (legal for a NativeMethod,
	// unlike a compiled initializer which must return `this`). executor is
	// run synchronously with resolve/reject callbacks bound to the new
	// promise; an executor that throws rejects it the same way a
	// JavaScript-style Promise constructor does.
	initMethod := &object.NativeMethod{
		Owner: c, Name: "init", Arity: 1, Interceptor: object.InterceptorInit,
		Fn: func(ivm object.VM, _ value.Value, args []value.Value) (value.Value, error) {
			executor := argOr(args, 0, value.Nil)
			p := object.NewPromise(executor)
			p.Class = vm.promiseClass
			if err := vm.gc.Track(p); err != nil {
				return value.Nil, err
			}
			if !executor.IsObject() {
				return value.Object(p), nil
			}
			resolveFn := value.Object(&object.NativeFunction{Name: "resolve", Arity: 1, Fn: func(_ object.VM, a []value.Value) (value.Value, error) {
				vm.resolvePromise(p, argOr(a, 0, value.Nil))
				return value.Nil, nil
			}})
			rejectFn := value.Object(&object.NativeFunction{Name: "reject", Arity: 1, Fn: func(_ object.VM, a []value.Value) (value.Value, error) {
				vm.rejectPromise(p, argOr(a, 0, value.Nil))
				return value.Nil, nil
			}})
			if _, err := ivm.Call(executor, []value.Value{resolveFn, rejectFn}); err != nil {
				vm.rejectPromise(p, vm.exceptionValue(err))
			}
			return value.Object(p), nil
		},
	}
	c.DefineMethod("init", value.Object(initMethod))

	defineMethod(c, "all", 1, func(ivm object.VM, _ value.Value, args []value.Value) (value.Value, error) {
		arr, ok := argOr(args, 0, value.Nil).Obj.(*object.Array)
		if !ok {
			return value.Nil, fmt.Errorf("Promise.all expects an array of promises")
		}
		result := object.NewPromise(value.Nil)
		result.Class = vm.promiseClass
		if err := vm.gc.Track(result); err != nil {
			return value.Nil, err
		}
		n := len(arr.Elements)
		if n == 0 {
			vm.resolvePromise(result, value.Object(object.NewArray()))
			return value.Object(result), nil
		}
		values := make([]value.Value, n)
		remaining := n
		done := false
		thenMethod, _ := c.Method("then")
		settle := func() {
			if remaining == 0 && !done {
				done = true
				out := object.NewArray(values...)
				out.Class = vm.arrayClass
				vm.gc.Track(out)
				vm.resolvePromise(result, value.Object(out))
			}
		}
		for i, elem := range arr.Elements {
			i := i
			p, isPromise := elem.Obj.(*object.Promise)
			if !isPromise {
				values[i] = elem
				remaining--
				continue
			}
			onFulfilled := value.Object(&object.NativeFunction{Arity: 1, Fn: func(_ object.VM, a []value.Value) (value.Value, error) {
				values[i] = argOr(a, 0, value.Nil)
				remaining--
				settle()
				return value.Nil, nil
			}})
			onRejected := value.Object(&object.NativeFunction{Arity: 1, Fn: func(_ object.VM, a []value.Value) (value.Value, error) {
				if !done {
					done = true
					vm.rejectPromise(result, argOr(a, 0, value.Nil))
				}
				return value.Nil, nil
			}})
			if _, err := ivm.Call(value.Object(&object.BoundMethod{Receiver: value.Object(p), Method: thenMethod}),
				[]value.Value{onFulfilled, onRejected}); err != nil {
				return value.Nil, err
			}
		}
		settle()
		return value.Object(result), nil
	})

	defineMethod(c, "race", 1, func(ivm object.VM, _ value.Value, args []value.Value) (value.Value, error) {
		arr, ok := argOr(args, 0, value.Nil).Obj.(*object.Array)
		if !ok {
			return value.Nil, fmt.Errorf("Promise.race expects an array of promises")
		}
		result := object.NewPromise(value.Nil)
		result.Class = vm.promiseClass
		if err := vm.gc.Track(result); err != nil {
			return value.Nil, err
		}
		done := false
		thenMethod, _ := c.Method("then")
		for _, elem := range arr.Elements {
			if p, ok := elem.Obj.(*object.Promise); ok {
				onFulfilled := value.Object(&object.NativeFunction{Arity: 1, Fn: func(_ object.VM, a []value.Value) (value.Value, error) {
					if !done {
						done = true
						vm.resolvePromise(result, argOr(a, 0, value.Nil))
					}
					return value.Nil, nil
				}})
				onRejected := value.Object(&object.NativeFunction{Arity: 1, Fn: func(_ object.VM, a []value.Value) (value.Value, error) {
					if !done {
						done = true
						vm.rejectPromise(result, argOr(a, 0, value.Nil))
					}
					return value.Nil, nil
				}})
				if _, err := ivm.Call(value.Object(&object.BoundMethod{Receiver: value.Object(p), Method: thenMethod}),
					[]value.Value{onFulfilled, onRejected}); err != nil {
					return value.Nil, err
				}
			} else if !done {
				done = true
				vm.resolvePromise(result, elem)
			}
		}
		return value.Object(result), nil
	})

	defineMethod(c, "then", 1, func(ivm object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		p := self(recv)
		onFulfilled := argOr(args, 0, value.Nil)
		onRejected := argOr(args, 1, value.Nil)
		result := object.NewPromise(value.Nil)
		result.Class = vm.promiseClass
		if err := vm.gc.Track(result); err != nil {
			return value.Nil, err
		}
		switch p.State {
		case object.PromiseFulfilled:
			if onFulfilled.IsObject() {
				v, err := ivm.Call(onFulfilled, []value.Value{p.Value})
				if err != nil {
					result.Reject(vm.exceptionValue(err))
				} else {
					result.Resolve(v)
				}
			} else {
				result.Resolve(p.Value)
			}
		case object.PromiseRejected:
			if onRejected.IsObject() {
				v, err := ivm.Call(onRejected, []value.Value{p.Reason})
				if err != nil {
					result.Reject(vm.exceptionValue(err))
				} else {
					result.Resolve(v)
				}
			} else {
				result.Reject(p.Reason)
			}
		default:
			p.Continuations = append(p.Continuations, object.Continuation{
				OnFulfilled: onFulfilled, OnRejected: onRejected, Result: result,
			})
		}
		return value.Object(result), nil
	})
	defineMethod(c, "catch", 1, func(ivm object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		thenMethod, _ := c.Method("then")
		return ivm.Call(value.Object(&object.BoundMethod{Receiver: recv, Method: thenMethod}),
			[]value.Value{value.Nil, argOr(args, 0, value.Nil)})
	})
	defineMethod(c, "finally", 1, func(_ object.VM, recv value.Value, args []value.Value) (value.Value, error) {
		p := self(recv)
		p.FinallyHooks = append(p.FinallyHooks, argOr(args, 0, value.Nil))
		return recv, nil
	})
	defineMethod(c, "toString", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		return value.Object(vm.strings.Intern("<Promise>")), nil
	})
}

func (vm *VM) registerErrorMethods() {
	c := vm.errorClass

	defineMethod(c, "message", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		if exc, ok := recv.Obj.(*object.Exception); ok {
			return value.Object(vm.strings.Intern(exc.Message)), nil
		}
		return value.Object(vm.strings.Intern("")), nil
	})
	defineMethod(c, "toString", 0, func(_ object.VM, recv value.Value, _ []value.Value) (value.Value, error) {
		if exc, ok := recv.Obj.(*object.Exception); ok {
			return value.Object(vm.strings.Intern(exc.Class.Name + ": " + exc.Message)), nil
		}
		return value.Object(vm.strings.Intern("<Error>")), nil
	})
}
