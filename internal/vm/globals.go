package vm

import (
	"fmt"
	"os"
	"time"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// processStart anchors clock()'s return value, matching the reference
// implementation's use of C's clock() (seconds of CPU time since process
// start) without pulling in cgo to read it exactly: wall-clock elapsed
// time since the module loaded is the closest equivalent a pure-Go
// runtime can offer script code a monotonic "seconds so far" reading.
var processStart = time.Now()

// registerGlobalFunctions installs the handful of free functions every
// program gets without a `require`: print/println (native.c's LOX_FUNCTION
// print/println), clock (native.c's clock()), and typeOf, exposed here as
// a first-class callable since a dynamically typed language without
// reflection otherwise has no way to branch on a value's runtime type from
// script code.
func (vm *VM) registerGlobalFunctions() {
	vm.module.DefineVal("print", value.Object(&object.NativeFunction{
		Name: "print", Arity: 1,
		Fn: func(ivm object.VM, args []value.Value) (value.Value, error) {
			s, err := vm.stringify(ivm, argOr(args, 0, value.Nil))
			if err != nil {
				return value.Nil, err
			}
			fmt.Fprint(os.Stdout, s)
			return value.Nil, nil
		},
	}))
	vm.module.DefineVal("println", value.Object(&object.NativeFunction{
		Name: "println", Arity: 1,
		Fn: func(ivm object.VM, args []value.Value) (value.Value, error) {
			s, err := vm.stringify(ivm, argOr(args, 0, value.Nil))
			if err != nil {
				return value.Nil, err
			}
			fmt.Fprintln(os.Stdout, s)
			return value.Nil, nil
		},
	}))
	vm.module.DefineVal("clock", value.Object(&object.NativeFunction{
		Name: "clock", Arity: 0,
		Fn: func(_ object.VM, _ []value.Value) (value.Value, error) {
			return value.Float(time.Since(processStart).Seconds()), nil
		},
	}))
	vm.module.DefineVal("typeOf", value.Object(&object.NativeFunction{
		Name: "typeOf", Arity: 1,
		Fn: func(_ object.VM, args []value.Value) (value.Value, error) {
			v := argOr(args, 0, value.Nil)
			return value.Object(vm.strings.Intern(vm.typeName(v))), nil
		},
	}))

	vm.registerTimerFunctions()
}

// stringify renders v the way an embedded print/string-interpolation
// would: a user-defined toString() method, if the receiver's class
// defines one, wins over the Value.String() fallback every primitive and
// builtin class already formats itself with.
func (vm *VM) stringify(ivm object.VM, v value.Value) (string, error) {
	if inst, ok := v.Obj.(*object.Instance); ok && inst.Class != nil {
		if m, ok := inst.Class.Method("toString"); ok {
			result, err := ivm.Call(value.Object(&object.BoundMethod{Receiver: v, Method: m}), nil)
			if err != nil {
				return "", err
			}
			return result.String(), nil
		}
	}
	if class := vm.classOf(v); class != nil {
		if m, ok := class.Method("toString"); ok {
			result, err := ivm.Call(value.Object(&object.BoundMethod{Receiver: v, Method: m}), nil)
			if err != nil {
				return "", err
			}
			return result.String(), nil
		}
	}
	return v.String(), nil
}

// typeName reports the Language-level type name typeOf surfaces, distinct
// from Value.Kind.String()/Obj.Type() (which are disassembly/debugging
// labels, not script-facing names).
func (vm *VM) typeName(v value.Value) string {
	switch v.Kind {
	case value.KindNil:
		return "Nil"
	case value.KindBool:
		return "Bool"
	case value.KindInt:
		return "Int"
	case value.KindFloat:
		return "Float"
	}
	switch obj := v.Obj.(type) {
	case *object.Instance:
		if obj.Class != nil {
			return obj.Class.Name
		}
		return "Instance"
	case *object.Class:
		return "Class"
	case *object.Closure, *object.NativeFunction, *object.BoundMethod:
		return "Function"
	default:
		if class := vm.classOf(v); class != nil {
			return class.Name
		}
		return v.Obj.Type()
	}
}

// registerTimerFunctions installs setTimeout/setInterval/clearTimeout/
// clearInterval, the script-facing surface of internal/async.Loop's timer
// queue: scheduling here never runs callback synchronously, it only ever
// fires once vm.loop.Run (or a future callback already running inside it)
// drives the queue forward.
func (vm *VM) registerTimerFunctions() {
	vm.module.DefineVal("setTimeout", value.Object(&object.NativeFunction{
		Name: "setTimeout", Arity: 2,
		Fn: func(ivm object.VM, args []value.Value) (value.Value, error) {
			return vm.scheduleTimer(ivm, args, 0)
		},
	}))
	vm.module.DefineVal("setInterval", value.Object(&object.NativeFunction{
		Name: "setInterval", Arity: 2,
		Fn: func(ivm object.VM, args []value.Value) (value.Value, error) {
			delay, err := requireMillis(args, 1)
			if err != nil {
				return value.Nil, err
			}
			return vm.scheduleTimer(ivm, args, delay)
		},
	}))
	vm.module.DefineVal("clearTimeout", value.Object(&object.NativeFunction{
		Name: "clearTimeout", Arity: 1,
		Fn: func(_ object.VM, args []value.Value) (value.Value, error) {
			return vm.clearTimer(args)
		},
	}))
	vm.module.DefineVal("clearInterval", value.Object(&object.NativeFunction{
		Name: "clearInterval", Arity: 1,
		Fn: func(_ object.VM, args []value.Value) (value.Value, error) {
			return vm.clearTimer(args)
		},
	}))
}

func requireMillis(args []value.Value, index int) (int64, error) {
	v := argOr(args, index, value.Nil)
	if !v.IsNumber() {
		return 0, fmt.Errorf("timer delay must be a number")
	}
	return int64(v.AsFloat64()), nil
}

func (vm *VM) scheduleTimer(ivm object.VM, args []value.Value, repeatMs int64) (value.Value, error) {
	callback := argOr(args, 0, value.Nil)
	if !callback.IsObject() {
		return value.Nil, fmt.Errorf("setTimeout/setInterval expects a callable as its first argument")
	}
	delay, err := requireMillis(args, 1)
	if err != nil {
		return value.Nil, err
	}
	timer := object.NewTimer(callback, delay, repeatMs)
	if err := vm.gc.Track(timer); err != nil {
		return value.Nil, err
	}
	handle := vm.loop.Schedule(delay, repeatMs, func() {
		if !timer.Active {
			return
		}
		if repeatMs == 0 {
			timer.Active = false
		}
		if _, err := ivm.Call(callback, nil); err != nil {
			// A timer callback's own uncaught throw has no catching frame
			// left to unwind into; surfacing it would require plumbing a
			// host-level unhandled-rejection channel this core does not
			// yet expose, so it is dropped the way an unobserved promise
			// rejection already is.
			_ = err
		}
	})
	vm.timerHandles(timer, handle)
	return value.Object(timer), nil
}

func (vm *VM) clearTimer(args []value.Value) (value.Value, error) {
	arg := argOr(args, 0, value.Nil)
	timer, ok := arg.Obj.(*object.Timer)
	if !ok {
		return value.Nil, fmt.Errorf("clearTimeout/clearInterval expects a Timer")
	}
	timer.Active = false
	if id, ok := vm.timerByHandle[timer]; ok {
		vm.loop.Cancel(id)
	}
	return value.Nil, nil
}

// timerHandles records the loop-assigned id backing a Timer object so a
// later clearTimeout/clearInterval call (which only ever sees the Timer
// value script code held onto) can cancel the right queue entry.
func (vm *VM) timerHandles(timer *object.Timer, id uint64) {
	if vm.timerByHandle == nil {
		vm.timerByHandle = make(map[*object.Timer]uint64)
	}
	vm.timerByHandle[timer] = id
}
