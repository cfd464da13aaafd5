// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package vm implements the stack-based bytecode interpreter: the fetch
// decode-execute loop, call frames, upvalues, the exception unwinder, and
// the generator/async scheduling built on top of ordinary function calls.
// It is the only package that depends on both internal/object and
// internal/bytecode for the purpose of actually running a Chunk; object
// itself stays VM-agnostic (see object.VM) so native code can call back in
// without an import cycle.
package vm

import (
	"fmt"

	"github.com/vela-lang/vela/internal/async"
	"github.com/vela-lang/vela/internal/bytecode"
	"github.com/vela-lang/vela/internal/gc"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

const (
	stackMax  = 1 << 16
	framesMax = 1 << 10
)

// VM holds everything one running program needs: the value stack (a fixed
// array so a pointer into it — an open upvalue's Location — never moves),
// the active call frames, the open-upvalue table, the builtin classes
// primitive values dispatch methods against, and the namespace nesting
// stack declarations push onto while they are being compiled into.
type VM struct {
	stack [stackMax]value.Value
	sp    int

	frames []*object.Frame

	module  *object.Module
	strings *object.StringTable

	openUpvalues map[int]*object.Upvalue

	namespaceStack []*object.Namespace

	// suspended is set by the OPYIELD/OPYIELD_FROM handler immediately
	// before it returns, the only way resumeGenerator can tell "the frame
	// it drove yielded and is still resumable" apart from "the frame
	// returned and is finished" — both unwind vm.frames back to startDepth
	// and return a value the same way.
	suspended bool

	arrayClass      *object.Class
	dictionaryClass *object.Class
	stringClass     *object.Class
	rangeClass      *object.Class
	generatorClass  *object.Class
	promiseClass    *object.Class
	errorClass      *object.Class
	entryClass      *object.Class

	requireHook func(path string) (*object.Module, error)

	// gc is the generational collector every heap allocation this VM makes
	// is tracked against; see internal/gc. It is never nil once New has run.
	gc *gc.Collector

	// gcChecks counts dispatch-loop iterations since the last threshold
	// check, so NeedsMinor/NeedsMajor (both cheap, but not free) are polled
	// every gcCheckInterval opcodes rather than on every single one.
	gcChecks int

	// loop is the cooperative event loop backing setTimeout/setInterval and
	// Promise microtask dispatch; see internal/async. Every VM owns one.
	loop *async.Loop

	// pendingAwaitPromise/pendingAwaitFrame record what OP_AWAIT's handler
	// just suspended on, the same instant vm.suspended is set, so callAsync/
	// driveAsync can tell a suspended async frame apart from a suspended
	// generator frame (both set vm.suspended) and attach the right
	// resumption. Cleared the moment driveAsync reads them.
	pendingAwaitPromise *object.Promise
	pendingAwaitFrame   *object.Frame

	// awaitWaiters holds, per still-pending Promise, the resumptions of
	// every async frame currently suspended awaiting it; settlePromise
	// drains and schedules them as microtasks once that Promise settles.
	awaitWaiters map[*object.Promise][]func()

	// timerByHandle maps a Timer object back to the async.Loop-assigned id
	// clearTimeout/clearInterval needs to cancel it.
	timerByHandle map[*object.Timer]uint64
}

// gcCheckInterval bounds how often the main loop polls the collector's
// generation thresholds.
const gcCheckInterval = 256

// New creates a VM bound to module (its global tables are what GET_GLOBAL/
// SET_GLOBAL/DEFINE_GLOBAL_* opcodes read and write) and strings (the
// intern table string literals and runtime-built strings share).
func New(module *object.Module, strings *object.StringTable) *VM {
	vm := &VM{
		module:       module,
		strings:      strings,
		openUpvalues: make(map[int]*object.Upvalue),
		gc:           gc.New(0, 0),
		loop:         async.NewLoop(),
		awaitWaiters: make(map[*object.Promise][]func()),
	}
	vm.registerBuiltins()
	return vm
}

// Close releases resources the VM owns that outlive ordinary Go garbage
// collection, namely the collector's mmap'd generation arenas.
func (vm *VM) Close() {
	vm.gc.Close()
}

// gcRoots collects every live reference the collector must trace from: the
// occupied value stack, each open upvalue, the namespace-declaration stack,
// and the owning module's global tables. Frames are reached transitively
// through their Closures, which the stack already holds a reference to for
// every frame still on vm.frames (frame.Closure is also reachable via
// object.Frame itself once a generator/async frame is suspended off-stack,
// traced through object.Frame's own Header/children).
func (vm *VM) gcRoots() []value.Value {
	roots := make([]value.Value, 0, vm.sp+len(vm.openUpvalues)+len(vm.namespaceStack)+4)
	roots = append(roots, vm.stack[:vm.sp]...)
	for _, u := range vm.openUpvalues {
		if u != nil {
			roots = append(roots, value.Object(u))
		}
	}
	for _, ns := range vm.namespaceStack {
		roots = append(roots, value.Object(ns))
	}
	for _, f := range vm.frames {
		roots = append(roots, value.Object(f))
	}
	roots = append(roots, value.Object(vm.module))
	return roots
}

// maybeCollectGarbage polls the collector's thresholds once every
// gcCheckInterval dispatch-loop iterations and runs whichever collection
// (minor, or major when the old generation itself is full) the thresholds
// call for.
func (vm *VM) maybeCollectGarbage() {
	vm.gcChecks++
	if vm.gcChecks < gcCheckInterval {
		return
	}
	vm.gcChecks = 0
	if vm.gc.NeedsMajor() {
		vm.gc.MajorCollect(vm.gcRoots())
		return
	}
	if vm.gc.NeedsMinor() {
		vm.gc.MinorCollect(vm.gcRoots())
	}
}

// SetRequireHook installs the callback OP_REQUIRE invokes to load another
// module; without one, `require` raises a runtime error instead of
// silently doing nothing.
func (vm *VM) SetRequireHook(hook func(path string) (*object.Module, error)) {
	vm.requireHook = hook
}

// thrownException wraps an uncaught *object.Exception that unwound past
// the VM's outermost frame, distinguishing a language-level throw from a
// Go-level VM fault (stack overflow, invalid opcode, ...).
type thrownException struct {
	exc *object.Exception
}

func (t *thrownException) Error() string { return t.exc.Error() }

func (t *thrownException) Unwrap() error { return t.exc }

// Run executes module's top-level closure to completion, then drains the
// event loop so any timer or promise continuation the top level scheduled
// but did not itself wait on (a bare `setTimeout`, a `.then` on a promise
// nothing awaited) still runs before the host process exits.
func (vm *VM) Run() (value.Value, error) {
	if vm.module.TopLevel == nil {
		return value.Nil, fmt.Errorf("vm: module %q has no compiled top-level closure", vm.module.Path)
	}
	result, err := vm.runClosure(vm.module.TopLevel, nil)
	if err != nil {
		return result, err
	}
	vm.loop.Run()
	return result, nil
}

// Call implements object.VM: it is how native code invokes a user-level
// callable (a Closure, NativeFunction, NativeMethod, Class, or
// BoundMethod) with the given arguments.
func (vm *VM) Call(callee value.Value, args []value.Value) (value.Value, error) {
	calleeIdx := vm.sp
	vm.push(callee)
	for _, a := range args {
		vm.push(a)
	}
	if err := vm.callValue(calleeIdx, len(args)); err != nil {
		vm.sp = calleeIdx
		return value.Nil, err
	}
	// callValue either pushed a fresh frame (a Closure) or already left the
	// native result on the stack in calleeIdx's slot.
	if len(vm.frames) > 0 && vm.frames[len(vm.frames)-1].Base == calleeIdx {
		startDepth := len(vm.frames) - 1
		result, err := vm.execute(startDepth)
		if err != nil {
			vm.sp = calleeIdx
			return value.Nil, err
		}
		return result, nil
	}
	result := vm.stack[calleeIdx]
	vm.sp = calleeIdx
	return result, nil
}

// Intern implements object.VM, giving native code outside this package
// (stdlib functions) the same canonical string table the bytecode
// interpreter itself uses for string literals and concatenation.
func (vm *VM) Intern(s string) *object.String {
	return vm.strings.Intern(s)
}

// Track implements object.VM, letting native code outside this package
// hand freshly allocated heap objects to the collector.
func (vm *VM) Track(obj interface{}) error {
	return vm.gc.Track(obj)
}

// Strings returns the string table this VM interns through. A require
// hook compiling and running another module needs to hand the new
// module's VM this same table, not a fresh one: string equality is a
// pointer comparison (see value.Value.Equal), so two modules interning
// "foo" through different tables would end up with two distinct, mutually
// unequal string objects.
func (vm *VM) Strings() *object.StringTable {
	return vm.strings
}

// runClosure pushes closure as a fresh top-level frame (no existing
// caller frame beneath it) and drives it to completion.
func (vm *VM) runClosure(closure *object.Closure, args []value.Value) (value.Value, error) {
	calleeIdx := vm.sp
	vm.push(value.Object(closure))
	for _, a := range args {
		vm.push(a)
	}
	if err := vm.callClosure(closure, len(args), calleeIdx); err != nil {
		vm.sp = calleeIdx
		return value.Nil, err
	}
	return vm.execute(len(vm.frames) - 1)
}

// ---- stack primitives ---------------------------------------------------

func (vm *VM) push(v value.Value) {
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = value.Nil
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.sp-1-distance]
}

func (vm *VM) readByte(frame *object.Frame) byte {
	b := frame.Closure.Function.Chunk.Code[frame.IP]
	frame.IP++
	return b
}

func (vm *VM) readUint16(frame *object.Frame) uint16 {
	hi := vm.readByte(frame)
	lo := vm.readByte(frame)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(frame *object.Frame) value.Value {
	idx := vm.readUint16(frame)
	return frame.Closure.Function.Chunk.Constants[idx]
}

func (vm *VM) readIdentifier(frame *object.Frame, idx uint16) string {
	return frame.Closure.Function.Chunk.Identifiers[idx]
}

// currentNamespace reports the namespace a top-level declaration should
// bind into, or nil when no `namespace` block is currently open.
func (vm *VM) currentNamespace() *object.Namespace {
	if len(vm.namespaceStack) == 0 {
		return nil
	}
	return vm.namespaceStack[len(vm.namespaceStack)-1]
}

// execute is the main fetch-decode loop. It runs until the frame at
// startDepth returns (or yields/awaits out of the loop entirely), and is
// called reentrantly by Call/resumeGenerator/the async call path so a
// nested invocation can never observe frames below its own start depth.
func (vm *VM) execute(startDepth int) (value.Value, error) {
	for {
		if len(vm.frames) <= startDepth {
			// every frame this call pushed has returned; the result was left
			// on the stack by the innermost OpReturn/OpYield handler.
			return vm.pop(), nil
		}
		vm.maybeCollectGarbage()
		frame := vm.frames[len(vm.frames)-1]
		chunk := frame.Closure.Function.Chunk

		op := bytecode.Opcode(vm.readByte(frame))
		switch op {

		// ---- stack -----------------------------------------------------

		case bytecode.OpConstant:
			vm.push(vm.readConstant(frame))
		case bytecode.OpNil:
			vm.push(value.Nil)
		case bytecode.OpTrue:
			vm.push(value.True)
		case bytecode.OpFalse:
			vm.push(value.False)
		case bytecode.OpPop:
			vm.pop()
		case bytecode.OpDup:
			vm.push(vm.peek(0))

		// ---- locals / upvalues ------------------------------------------

		case bytecode.OpGetLocal:
			slot := int(vm.readByte(frame))
			vm.push(vm.stack[frame.Base+slot])
		case bytecode.OpSetLocal:
			slot := int(vm.readByte(frame))
			vm.stack[frame.Base+slot] = vm.peek(0)
		case bytecode.OpGetUpvalue:
			slot := int(vm.readByte(frame))
			vm.push(frame.Closure.Upvalues[slot].Get())
		case bytecode.OpSetUpvalue:
			slot := int(vm.readByte(frame))
			up := frame.Closure.Upvalues[slot]
			up.Set(vm.peek(0))
			vm.gc.WriteBarrier(up, vm.peek(0))
		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()

		// ---- globals -----------------------------------------------------

		case bytecode.OpDefineGlobalVal:
			idx := vm.readUint16(frame)
			name := vm.readIdentifier(frame, idx)
			v := vm.pop()
			if ns := vm.currentNamespace(); ns != nil {
				ns.Define(name, v)
			} else {
				frame.Closure.Module.DefineVal(name, v)
			}
		case bytecode.OpDefineGlobalVar:
			idx := vm.readUint16(frame)
			name := vm.readIdentifier(frame, idx)
			v := vm.pop()
			if ns := vm.currentNamespace(); ns != nil {
				ns.Define(name, v)
			} else {
				frame.Closure.Module.DefineVar(name, v)
			}
		case bytecode.OpGetGlobal:
			idx := vm.readUint16(frame)
			name := vm.readIdentifier(frame, idx)
			v, ok := vm.lookupGlobal(frame, name)
			if !ok {
				if err := vm.throwRuntime(startDepth, ErrUndefinedGlobal, "undefined global %q", name); err != nil {
					return value.Nil, err
				}
				continue
			}
			vm.push(v)
		case bytecode.OpSetGlobal:
			idx := vm.readUint16(frame)
			name := vm.readIdentifier(frame, idx)
			if !vm.assignGlobal(frame, name, vm.peek(0)) {
				if err := vm.throwRuntime(startDepth, ErrImmutableGlobal, "cannot assign to undefined or immutable global %q", name); err != nil {
					return value.Nil, err
				}
				continue
			}

		// ---- properties ----------------------------------------------------

		case bytecode.OpGetProperty:
			idx := vm.readUint16(frame)
			obj := vm.pop()
			name := vm.readIdentifier(frame, idx)
			v, err := vm.getProperty(obj, name, chunk.Cache(idx))
			if err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(v)
		case bytecode.OpGetPropertyOptional:
			idx := vm.readUint16(frame)
			if vm.peek(0).IsNil() {
				continue
			}
			obj := vm.pop()
			name := vm.readIdentifier(frame, idx)
			v, err := vm.getProperty(obj, name, chunk.Cache(idx))
			if err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(v)
		case bytecode.OpSetProperty:
			idx := vm.readUint16(frame)
			v := vm.pop()
			obj := vm.pop()
			name := vm.readIdentifier(frame, idx)
			if err := vm.setProperty(obj, name, v); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			if obj.IsObject() {
				vm.gc.WriteBarrier(obj.Obj, v)
			}
			vm.push(v)
		case bytecode.OpGetSubscript:
			index := vm.pop()
			obj := vm.pop()
			v, err := vm.getSubscript(obj, index)
			if err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(v)
		case bytecode.OpGetSubscriptOptional:
			if vm.peek(1).IsNil() {
				vm.pop() // discard the index, leave the nil receiver as the result
				continue
			}
			index := vm.pop()
			obj := vm.pop()
			v, err := vm.getSubscript(obj, index)
			if err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(v)
		case bytecode.OpSetSubscript:
			v := vm.pop()
			index := vm.pop()
			obj := vm.pop()
			if err := vm.setSubscript(obj, index, v); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			if obj.IsObject() {
				vm.gc.WriteBarrier(obj.Obj, v)
			}
			vm.push(v)
		case bytecode.OpGetSuper:
			idx := vm.readUint16(frame)
			super := vm.pop()
			this := vm.pop()
			name := vm.readIdentifier(frame, idx)
			class, ok := super.Obj.(*object.Class)
			if !ok {
				if hErr := vm.throwRuntime(startDepth, ErrTypeMismatch, "super is not a class"); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			m, ok := class.Method(name)
			if !ok {
				if hErr := vm.throwRuntime(startDepth, ErrUndefinedProp, "undefined super method %q", name); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(value.Object(&object.BoundMethod{Receiver: this, Method: m}))

		// ---- arithmetic / logic -------------------------------------------

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.Bool(a.Equal(b)))
		case bytecode.OpGreater:
			b := vm.pop()
			a := vm.pop()
			res, err := vm.compareGreater(a, b)
			if err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(value.Bool(res))
		case bytecode.OpLess:
			b := vm.pop()
			a := vm.pop()
			res, err := vm.compareLess(a, b)
			if err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(value.Bool(res))
		case bytecode.OpAdd:
			b := vm.pop()
			a := vm.pop()
			res, err := vm.add(a, b)
			if err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(res)
		case bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide, bytecode.OpModulo:
			b := vm.pop()
			a := vm.pop()
			res, err := vm.arith(op, a, b)
			if err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(res)
		case bytecode.OpNot:
			a := vm.pop()
			vm.push(value.Bool(!a.IsTruthy()))
		case bytecode.OpNegate:
			a := vm.pop()
			if a.IsInt() {
				vm.push(value.Int(-a.AsInt()))
			} else if a.IsFloat() {
				vm.push(value.Float(-a.AsFloat()))
			} else if hErr := vm.throwRuntime(startDepth, ErrTypeMismatch, "cannot negate a %s", a.Kind); hErr != nil {
				return value.Nil, hErr
			}
		case bytecode.OpRange:
			to := vm.pop()
			from := vm.pop()
			if !from.IsInt() || !to.IsInt() {
				if hErr := vm.throwRuntime(startDepth, ErrTypeMismatch, "range bounds must be integers"); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			rng := &object.Range{From: from.AsInt(), To: to.AsInt()}
			rng.Class = vm.rangeClass
			if err := vm.gc.Track(rng); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(value.Object(rng))
		case bytecode.OpNilCoalescing:
			b := vm.pop()
			a := vm.pop()
			if a.IsNil() {
				vm.push(b)
			} else {
				vm.push(a)
			}
		case bytecode.OpElvis:
			b := vm.pop()
			a := vm.pop()
			if a.IsTruthy() {
				vm.push(a)
			} else {
				vm.push(b)
			}

		// ---- control flow --------------------------------------------------

		case bytecode.OpJump:
			offset := vm.readUint16(frame)
			frame.IP += int(offset)
		case bytecode.OpJumpIfFalse:
			offset := vm.readUint16(frame)
			if !vm.peek(0).IsTruthy() {
				frame.IP += int(offset)
			}
		case bytecode.OpJumpIfEmpty:
			offset := vm.readUint16(frame)
			if vm.peek(0).IsNil() {
				frame.IP += int(offset)
			}
		case bytecode.OpLoop:
			offset := vm.readUint16(frame)
			frame.IP -= int(offset)
		case bytecode.OpEnd:
			vm.readUint16(frame) // disassembly-only placeholder; never reached at runtime

		// ---- calls -----------------------------------------------------

		case bytecode.OpCall:
			argCount := int(vm.readByte(frame))
			calleeIdx := vm.sp - 1 - argCount
			if err := vm.callValue(calleeIdx, argCount); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
			}
		case bytecode.OpOptionalCall:
			argCount := int(vm.readByte(frame))
			calleeIdx := vm.sp - 1 - argCount
			if vm.stack[calleeIdx].IsNil() {
				vm.sp = calleeIdx + 1
				continue
			}
			if err := vm.callValue(calleeIdx, argCount); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
			}
		case bytecode.OpInvoke:
			idx := vm.readUint16(frame)
			argCount := int(vm.readByte(frame))
			name := vm.readIdentifier(frame, idx)
			if err := vm.invoke(name, argCount, chunk.Cache(idx)); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
			}
		case bytecode.OpOptionalInvoke:
			idx := vm.readUint16(frame)
			argCount := int(vm.readByte(frame))
			calleeIdx := vm.sp - 1 - argCount
			if vm.stack[calleeIdx].IsNil() {
				vm.sp = calleeIdx + 1
				continue
			}
			name := vm.readIdentifier(frame, idx)
			if err := vm.invoke(name, argCount, chunk.Cache(idx)); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
			}
		case bytecode.OpSuperInvoke:
			idx := vm.readUint16(frame)
			argCount := int(vm.readByte(frame))
			name := vm.readIdentifier(frame, idx)
			if err := vm.superInvoke(name, argCount); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
			}

		// ---- definitions -----------------------------------------------

		case bytecode.OpClosure:
			fn, ok := vm.readConstant(frame).Obj.(*object.Function)
			if !ok {
				return value.Nil, fmt.Errorf("%w: CLOSURE constant is not a function", ErrInvalidOpcode)
			}
			closure := object.NewClosure(fn, frame.Closure.Module)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(frame)
				index := int(vm.readByte(frame))
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.Base + index)
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[index]
				}
			}
			if err := vm.gc.Track(closure); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(value.Object(closure))
		case bytecode.OpClass:
			idx := vm.readUint16(frame)
			name := vm.readIdentifier(frame, idx)
			class := object.NewClass(name, vm.qualifiedName(name))
			if err := vm.gc.Track(class); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(value.Object(class))
		case bytecode.OpTrait:
			idx := vm.readUint16(frame)
			name := vm.readIdentifier(frame, idx)
			class := object.NewClass(name, vm.qualifiedName(name))
			class.Kind = object.ClassTraitKind
			if err := vm.gc.Track(class); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(value.Object(class))
		case bytecode.OpAnonymous:
			vm.readByte(frame) // which anonymous surface produced the enclosing closure; informational only
		case bytecode.OpInherit:
			sub := vm.pop()
			super := vm.pop()
			superClass, ok := super.Obj.(*object.Class)
			if !ok {
				if hErr := vm.throwRuntime(startDepth, ErrTypeMismatch, "superclass must be a class"); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			subClass := sub.Obj.(*object.Class)
			subClass.InheritFrom(superClass)
		case bytecode.OpImplement:
			n := int(vm.readByte(frame))
			traits := make([]*object.Class, n)
			for i := n - 1; i >= 0; i-- {
				traits[i] = vm.pop().Obj.(*object.Class)
			}
			class := vm.peek(0).Obj.(*object.Class)
			for _, t := range traits {
				class.ApplyTrait(t)
				vm.gc.WriteBarrier(class, value.Object(t))
			}
		case bytecode.OpInstanceMethod:
			idx := vm.readUint16(frame)
			name := vm.readIdentifier(frame, idx)
			method := vm.pop()
			class := vm.peek(0).Obj.(*object.Class)
			class.DefineMethod(name, method)
			vm.gc.WriteBarrier(class, method)
		case bytecode.OpClassMethod:
			idx := vm.readUint16(frame)
			name := vm.readIdentifier(frame, idx)
			method := vm.pop()
			class := vm.peek(0).Obj.(*object.Class)
			if class.Metaclass == nil {
				class.Metaclass = object.NewClass(class.Name+" metaclass", class.FullName+" metaclass")
				class.Metaclass.Kind = object.ClassMetaclass
			}
			class.Metaclass.DefineMethod(name, method)
			class.DefineMethod(name, method)

		// ---- containers --------------------------------------------------

		case bytecode.OpArray:
			n := int(vm.readByte(frame))
			elems := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				elems[i] = vm.pop()
			}
			arr := object.NewArray(elems...)
			arr.Class = vm.arrayClass
			if err := vm.gc.Track(arr); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(value.Object(arr))
		case bytecode.OpDictionary:
			n := int(vm.readByte(frame))
			dict := object.NewDictionary()
			dict.Class = vm.dictionaryClass
			pairs := make([][2]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				v := vm.pop()
				k := vm.pop()
				pairs[i] = [2]value.Value{k, v}
			}
			for _, p := range pairs {
				dict.Set(p[0], p[1])
			}
			if err := vm.gc.Track(dict); err != nil {
				if hErr := vm.throwValue(startDepth, err); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(value.Object(dict))

		// ---- modules / namespaces ---------------------------------------

		case bytecode.OpRequire:
			if err := vm.require(startDepth, frame); err != nil {
				return value.Nil, err
			}
		case bytecode.OpNamespace:
			idx := vm.readUint16(frame)
			name := vm.readIdentifier(frame, idx)
			parent := vm.currentNamespace()
			full := name
			if parent != nil {
				full = parent.FullName + "." + name
			}
			ns := object.NewNamespace(name, full, parent)
			vm.push(value.Object(ns))
		case bytecode.OpDeclareNamespace:
			vm.readByte(frame) // path segment count; the runtime only tracks the leaf namespace object
			ns := vm.peek(0).Obj.(*object.Namespace)
			vm.namespaceStack = append(vm.namespaceStack, ns)
		case bytecode.OpGetNamespace:
			vm.readByte(frame)
			vm.namespaceStack = vm.namespaceStack[:len(vm.namespaceStack)-1]
		case bytecode.OpUsingNamespace:
			idx := vm.readUint16(frame)
			name := vm.readIdentifier(frame, idx)
			v, ok := vm.lookupGlobal(frame, name)
			if !ok {
				if hErr := vm.throwRuntime(startDepth, ErrUndefinedGlobal, "undefined namespace %q", name); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			ns, ok := v.Obj.(*object.Namespace)
			if !ok {
				if hErr := vm.throwRuntime(startDepth, ErrTypeMismatch, "%q is not a namespace", name); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			for k, val := range ns.Values {
				frame.Closure.Module.DefineVal(k, val)
			}

		// ---- exceptions --------------------------------------------------

		case bytecode.OpThrow:
			v := vm.pop()
			if hErr := vm.throwValue(startDepth, vm.asThrowError(v)); hErr != nil {
				return value.Nil, hErr
			}
		case bytecode.OpTry:
			classIdx := vm.readUint16(frame)
			handlerAddr := vm.readUint16(frame)
			finallyAddr := vm.readUint16(frame)
			var class *object.Class
			if classIdx != 0xFFFF {
				if c, ok := chunk.Constants[classIdx].Obj.(*object.Class); ok {
					class = c
				}
			}
			frame.PushHandler(object.HandlerEntry{
				ExceptionClass: class,
				HandlerAddr:    int(handlerAddr),
				FinallyAddr:    int(finallyAddr),
				StackDepth:     vm.sp - frame.Base,
			})
			vm.push(value.Nil)
		case bytecode.OpEndTry:
			vm.pop()
			frame.PopHandler()
		case bytecode.OpCatch, bytecode.OpFinally:
			// markers only; throwValue's unwinder and OpEndTry do the actual
			// handler bookkeeping.

		// ---- returns / suspension -----------------------------------------

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.Base)
			vm.sp = frame.Base
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == startDepth {
				return result, nil
			}
			vm.push(result)
		case bytecode.OpReturnNonlocal:
			depth := int(vm.readByte(frame))
			result := vm.pop()
			for i := 0; i < depth; i++ {
				f := vm.frames[len(vm.frames)-1]
				vm.closeUpvalues(f.Base)
				vm.sp = f.Base
				vm.frames = vm.frames[:len(vm.frames)-1]
			}
			if len(vm.frames) == startDepth {
				return result, nil
			}
			vm.push(result)
		case bytecode.OpYield, bytecode.OpYieldFrom:
			val := vm.pop()
			frame.Slots = append([]value.Value(nil), vm.stack[frame.Base:vm.sp]...)
			vm.closeUpvalues(frame.Base)
			vm.sp = frame.Base
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.suspended = true
			return val, nil
		case bytecode.OpAwait:
			v := vm.pop()
			result, pending, rejected, reason := vm.awaitResolution(v)
			if pending != nil {
				// Mirror OpYield's save-and-pop exactly: the resolver only ever
				// allows `await` inside an async function's own top frame, so
				// there is never a caller frame above it within the same
				// driveAsync/execute call that also needs saving.
				frame.Slots = append([]value.Value(nil), vm.stack[frame.Base:vm.sp]...)
				vm.closeUpvalues(frame.Base)
				vm.sp = frame.Base
				vm.frames = vm.frames[:len(vm.frames)-1]
				vm.suspended = true
				vm.pendingAwaitFrame = frame
				vm.pendingAwaitPromise = pending
				return value.Nil, nil
			}
			if rejected {
				if hErr := vm.throwValue(startDepth, vm.asThrowError(reason)); hErr != nil {
					return value.Nil, hErr
				}
				continue
			}
			vm.push(result)

		default:
			return value.Nil, fmt.Errorf("%w: %s", ErrInvalidOpcode, op)
		}
	}
}

// qualifiedName prefixes name with the currently open namespace's full dotted
// path, matching how a class/trait declared inside `namespace Foo.Bar { }`
// is addressed from the rest of the program.
func (vm *VM) qualifiedName(name string) string {
	if ns := vm.currentNamespace(); ns != nil {
		return ns.FullName + "." + name
	}
	return name
}

// lookupGlobal resolves name against the active namespace chain first (an
// unqualified reference inside an open `namespace` block sees its own
// siblings before falling back to the module), then the owning module.
func (vm *VM) lookupGlobal(frame *object.Frame, name string) (value.Value, bool) {
	for ns := vm.currentNamespace(); ns != nil; ns = ns.Enclosing {
		if v, ok := ns.Get(name); ok {
			return v, true
		}
	}
	v, _, ok := frame.Closure.Module.GetGlobal(name)
	return v, ok
}

func (vm *VM) assignGlobal(frame *object.Frame, name string, v value.Value) bool {
	if ns := vm.currentNamespace(); ns != nil {
		if _, ok := ns.Get(name); ok {
			ns.Define(name, v)
			return true
		}
	}
	return frame.Closure.Module.SetGlobal(name, v)
}

func (vm *VM) require(startDepth int, frame *object.Frame) error {
	idx := vm.readUint16(frame)
	path, ok := frame.Closure.Function.Chunk.Constants[idx].Obj.(*object.String)
	if !ok {
		return fmt.Errorf("%w: REQUIRE constant is not a string", ErrInvalidOpcode)
	}
	if vm.requireHook == nil {
		return vm.throwValue(startDepth, fmt.Errorf("require: module loading is not configured (%q)", path.Value))
	}
	mod, err := vm.requireHook(path.Value)
	if err != nil {
		return vm.throwValue(startDepth, fmt.Errorf("require %q: %w", path.Value, err))
	}
	vm.push(value.Object(mod))
	return nil
}
