package vm

import (
	"fmt"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// valueThrow wraps a raw thrown Value (what OP_THROW actually pushes) as a
// Go error so it can travel through the same throwValue path as a runtime
// fault, without losing the original value's identity if it is later
// caught and rebound to a catch clause's name.
type valueThrow struct{ v value.Value }

func (e *valueThrow) Error() string { return e.v.String() }

func (vm *VM) asThrowError(v value.Value) error { return &valueThrow{v: v} }

// exceptionValue converts any error reaching throwValue into the Value a
// catch clause will bind: a throw of an already-constructed exception
// object is passed through unchanged, everything else (a Go-level runtime
// fault, a sentinel-wrapped error from an opcode handler) is boxed into a
// plain object.Exception carrying its message.
func (vm *VM) exceptionValue(err error) value.Value {
	switch e := err.(type) {
	case *valueThrow:
		return e.v
	case *thrownException:
		return value.Object(e.exc)
	default:
		return value.Object(object.NewException(vm.errorClass, err.Error()))
	}
}

// exceptionMatches reports whether a thrown value satisfies a handler's
// guard class. A nil class is the compiler's current match-any encoding
// (see compileTryStmt/patchTryOperand): every exception matches it.
func (vm *VM) exceptionMatches(class *object.Class, excVal value.Value) bool {
	if class == nil {
		return true
	}
	switch v := excVal.Obj.(type) {
	case *object.Instance:
		return v.Class != nil && v.Class.IsSubclassOf(class)
	case *object.Exception:
		return v.Class != nil && v.Class.IsSubclassOf(class)
	default:
		return false
	}
}

// throwValue converts err into a thrown exception value and unwinds frames
// above startDepth looking for a matching handler. Finding one rewinds the
// owning frame's stack to the handler's registered depth, pushes the
// exception there (the exact slot the catch clause's bound name resolves
// to), and redirects that frame's IP to the handler; nil is returned so
// execute's caller simply continues the dispatch loop in the same frame.
// Finding none unwinds every frame down to startDepth and returns a Go
// error (an *thrownException if the value was a real exception object, a
// generic uncaught-throw error otherwise) for the caller to propagate.
func (vm *VM) throwValue(startDepth int, err error) error {
	excVal := vm.exceptionValue(err)
	for len(vm.frames) > startDepth {
		frame := vm.frames[len(vm.frames)-1]
		for {
			h, ok := frame.PopHandler()
			if !ok {
				break
			}
			if !vm.exceptionMatches(h.ExceptionClass, excVal) {
				continue
			}
			vm.sp = frame.Base + h.StackDepth
			vm.push(excVal)
			frame.IP = h.HandlerAddr
			return nil
		}
		vm.closeUpvalues(frame.Base)
		vm.sp = frame.Base
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
	if exc, ok := excVal.Obj.(*object.Exception); ok {
		return &thrownException{exc: exc}
	}
	return fmt.Errorf("%w: %s", ErrUncaughtThrow, excVal.String())
}

// throwRuntime is throwValue's convenience form for a VM-detected fault
// (type mismatch, undefined global, ...): sentinel identifies the error
// class for callers that inspect it with errors.Is, format/args produce
// the human-readable message carried by the resulting Exception.
func (vm *VM) throwRuntime(startDepth int, sentinel error, format string, args ...interface{}) error {
	return vm.throwValue(startDepth, fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}

func (vm *VM) undefinedPropertyError(receiver value.Value, name string) error {
	return fmt.Errorf("%w: %s has no property %q", ErrUndefinedProp, receiver.Kind, name)
}

func (vm *VM) typeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTypeMismatch, fmt.Sprintf(format, args...))
}
