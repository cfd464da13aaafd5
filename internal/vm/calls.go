package vm

import (
	"fmt"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/shape"
	"github.com/vela-lang/vela/internal/value"
)

// callValue dispatches a CALL/OPTIONAL_CALL-style invocation: callee and its
// arguments already occupy contiguous stack slots starting at calleeIdx.
// Calling a Closure pushes a new frame (the caller's execute loop picks it
// up on its next iteration); calling anything else runs synchronously and
// leaves its result in calleeIdx's slot immediately.
func (vm *VM) callValue(calleeIdx, argCount int) error {
	callee := vm.stack[calleeIdx]
	if !callee.IsObject() {
		return fmt.Errorf("%w: %s is not callable", ErrNotCallable, callee.Kind)
	}
	switch obj := callee.Obj.(type) {
	case *object.Closure:
		return vm.callClosure(obj, argCount, calleeIdx)
	case *object.NativeFunction:
		return vm.callNativeFunction(obj, calleeIdx, argCount)
	case *object.Class:
		return vm.construct(obj, calleeIdx, argCount)
	case *object.BoundMethod:
		vm.stack[calleeIdx] = obj.Receiver
		return vm.callMethodValue(obj.Method, calleeIdx, argCount)
	default:
		return fmt.Errorf("%w: %s", ErrNotCallable, callee.Obj.Type())
	}
}

// callMethodValue calls a value already known to be a class method entry
// (a Closure or a NativeMethod), with the receiver sitting at calleeIdx.
func (vm *VM) callMethodValue(method value.Value, calleeIdx, argCount int) error {
	switch m := method.Obj.(type) {
	case *object.Closure:
		return vm.callClosure(m, argCount, calleeIdx)
	case *object.NativeMethod:
		return vm.callNativeMethod(m, calleeIdx, argCount)
	default:
		return fmt.Errorf("%w: method value is not callable", ErrNotCallable)
	}
}

// callClosure validates and pads the argument list, then either starts a
// suspended generator, runs an async body eagerly to a settled Promise, or
// pushes an ordinary frame for the caller's dispatch loop to resume into.
func (vm *VM) callClosure(closure *object.Closure, argCount, calleeIdx int) error {
	fn := closure.Function
	if err := vm.adjustArgs(fn, calleeIdx, &argCount); err != nil {
		return err
	}

	if fn.IsGenerator {
		frame := object.NewFrame(closure)
		frame.Slots = append([]value.Value(nil), vm.stack[calleeIdx:calleeIdx+1+fn.ParamCount]...)
		vm.sp = calleeIdx
		gen := object.NewGenerator(frame)
		gen.Class = vm.generatorClass
		if err := vm.gc.Track(frame); err != nil {
			return err
		}
		if err := vm.gc.Track(gen); err != nil {
			return err
		}
		vm.push(value.Object(gen))
		return nil
	}
	if fn.IsAsync {
		return vm.callAsync(closure, calleeIdx)
	}

	if len(vm.frames) >= framesMax {
		return ErrStackOverflow
	}
	frame := object.NewFrame(closure)
	frame.Base = calleeIdx
	vm.frames = append(vm.frames, frame)
	return nil
}

// adjustArgs validates the call's arity against fn and lays out its
// parameter slots: non-variadic calls are padded with nil for any trailing
// declared-but-unsupplied (optional) parameter; variadic calls additionally
// pack every argument at or beyond the variadic slot into one Array. A
// parameter's own default-value expression is not evaluated here — the
// compiler does not currently emit one — so an omitted optional argument
// always binds to nil rather than its declared default.
func (vm *VM) adjustArgs(fn *object.Function, calleeIdx int, argCount *int) error {
	required := fn.RequiredArity()
	if *argCount < required {
		return fmt.Errorf("%w: %s expects at least %d arguments, got %d", ErrWrongArity, fn.Name, required, *argCount)
	}

	if !fn.IsVariadic() {
		if *argCount > fn.ParamCount {
			return fmt.Errorf("%w: %s expects %d arguments, got %d", ErrWrongArity, fn.Name, fn.ParamCount, *argCount)
		}
		for *argCount < fn.ParamCount {
			vm.push(value.Nil)
			*argCount++
		}
		return nil
	}

	variadicSlot := fn.ParamCount - 1
	fixedSupplied := *argCount
	if fixedSupplied > variadicSlot {
		fixedSupplied = variadicSlot
	}
	var packed []value.Value
	if *argCount > variadicSlot {
		packed = append(packed, vm.stack[calleeIdx+1+variadicSlot:calleeIdx+1+*argCount]...)
	}
	arr := object.NewArray(packed...)
	arr.Class = vm.arrayClass
	if err := vm.gc.Track(arr); err != nil {
		return err
	}

	base := calleeIdx + 1
	for i := fixedSupplied; i < variadicSlot; i++ {
		vm.stack[base+i] = value.Nil
	}
	vm.stack[base+variadicSlot] = value.Object(arr)
	vm.sp = base + fn.ParamCount
	*argCount = fn.ParamCount
	return nil
}

func (vm *VM) callNativeFunction(fn *object.NativeFunction, calleeIdx, argCount int) error {
	if argCount < fn.Arity {
		return fmt.Errorf("%w: %s expects %d arguments, got %d", ErrWrongArity, fn.Name, fn.Arity, argCount)
	}
	args := append([]value.Value(nil), vm.stack[calleeIdx+1:calleeIdx+1+argCount]...)
	result, err := fn.Fn(vm, args)
	vm.sp = calleeIdx
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

func (vm *VM) callNativeMethod(m *object.NativeMethod, calleeIdx, argCount int) error {
	receiver := vm.stack[calleeIdx]
	if argCount < m.Arity {
		return fmt.Errorf("%w: %s expects %d arguments, got %d", ErrWrongArity, m.Name, m.Arity, argCount)
	}
	args := append([]value.Value(nil), vm.stack[calleeIdx+1:calleeIdx+1+argCount]...)
	result, err := m.Fn(vm, receiver, args)
	vm.sp = calleeIdx
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

// invoke is INVOKE/OPTIONAL_INVOKE's receiver-aware fast path: it checks
// the receiver's own fields before falling back to its class's method
// table, so calling a field that happens to hold a closure works the same
// as calling a declared method. The inline cache is only ever filled for
// the instance-field branch — method/class dispatch always takes the full
// map lookup, a deliberate simplification over caching every access kind.
func (vm *VM) invoke(name string, argCount int, cache *shape.InlineCacheEntry) error {
	calleeIdx := vm.sp - 1 - argCount
	receiver := vm.stack[calleeIdx]
	if !receiver.IsObject() {
		// Int/Float/Bool/Nil carry no class of their own to dispatch a method
		// table against, but string interpolation (compileInterpolatedString)
		// unconditionally INVOKEs toString() on every embedded expression, so
		// a primitive receiver still needs to answer that one selector.
		if name == "toString" && argCount == 0 {
			vm.sp = calleeIdx
			vm.push(value.Object(vm.strings.Intern(receiver.String())))
			return nil
		}
		return fmt.Errorf("%w: %s is not callable", ErrNotCallable, receiver.Kind)
	}

	if inst, ok := receiver.Obj.(*object.Instance); ok {
		if cache.Matches(inst.Shape) && cache.Kind == shape.KindIVar {
			vm.stack[calleeIdx] = inst.Slots[cache.Slot]
			return vm.callValue(calleeIdx, argCount)
		}
		if slot, ok := inst.Shape.Lookup(name); ok {
			cache.Fill(inst.Shape, shape.KindIVar, slot)
			vm.stack[calleeIdx] = inst.Slots[slot]
			return vm.callValue(calleeIdx, argCount)
		}
		if inst.Class != nil {
			if m, ok := inst.Class.Method(name); ok {
				return vm.callMethodValue(m, calleeIdx, argCount)
			}
		}
		return vm.undefinedPropertyError(receiver, name)
	}

	if cls, ok := receiver.Obj.(*object.Class); ok {
		if m, ok := cls.Method(name); ok {
			return vm.callMethodValue(m, calleeIdx, argCount)
		}
		return vm.undefinedPropertyError(receiver, name)
	}

	if class := vm.classOf(receiver); class != nil {
		if m, ok := class.Method(name); ok {
			return vm.callMethodValue(m, calleeIdx, argCount)
		}
	}
	return vm.undefinedPropertyError(receiver, name)
}

// superInvoke looks up name on the lexical superclass rather than the
// receiver's runtime class, then compacts the stack so the superclass
// reference sitting between `this` and the arguments disappears — the
// same [this, arg1..argN] shape every other call convention expects.
func (vm *VM) superInvoke(name string, argCount int) error {
	argsStart := vm.sp - argCount
	superIdx := argsStart - 1
	thisIdx := argsStart - 2

	super := vm.stack[superIdx]
	superClass, ok := super.Obj.(*object.Class)
	if !ok {
		return vm.typeErrorf("super is not a class")
	}
	m, ok := superClass.Method(name)
	if !ok {
		return vm.undefinedPropertyError(super, name)
	}

	copy(vm.stack[thisIdx+1:thisIdx+1+argCount], vm.stack[argsStart:argsStart+argCount])
	vm.sp--
	return vm.callMethodValue(m, thisIdx, argCount)
}

// construct allocates a fresh Instance and, if the class defines `init`,
// runs it as an ordinary method call; emitReturn already arranges for an
// initializer to implicitly return slot 0 (the instance itself), so the
// instance is what the call convention leaves behind either way.
func (vm *VM) construct(class *object.Class, calleeIdx, argCount int) error {
	if class.IsTrait() {
		return fmt.Errorf("%w: %s is a trait, not a class", ErrNotInstantiable, class.Name)
	}
	inst := object.NewInstance(class)
	vm.stack[calleeIdx] = value.Object(inst)
	if err := vm.gc.Track(inst); err != nil {
		return err
	}

	// A native class installs its constructor as a NativeMethod carrying
	// InterceptorInit; a user-declared class's `init` is an ordinary
	// Closure found by name instead, since the compiler never attaches an
	// InterceptorKind to compiled method bodies.
	if hook, ok := class.Interceptor(object.InterceptorInit); ok {
		return vm.callMethodValue(value.Object(hook), calleeIdx, argCount)
	}
	init, ok := class.Method("init")
	if !ok {
		vm.sp = calleeIdx + 1
		return nil
	}
	return vm.callMethodValue(init, calleeIdx, argCount)
}

// classOf returns the builtin class a primitive heap value dispatches
// property/method access against, or nil if v carries its own Class (an
// Instance) or has none (a bare Closure, NativeFunction, ...).
func (vm *VM) classOf(v value.Value) *object.Class {
	if !v.IsObject() {
		return nil
	}
	switch v.Obj.(type) {
	case *object.Array:
		return vm.arrayClass
	case *object.Dictionary:
		return vm.dictionaryClass
	case *object.String:
		return vm.stringClass
	case *object.Range:
		return vm.rangeClass
	case *object.Generator:
		return vm.generatorClass
	case *object.Promise:
		return vm.promiseClass
	case *object.Exception:
		return vm.errorClass
	case *object.Entry:
		return vm.entryClass
	default:
		return nil
	}
}
