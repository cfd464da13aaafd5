package vm

import (
	"fmt"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// resumeGenerator pushes gen's saved frame back onto the stack at its
// current stack-pointer position (Frame.Base is transient working state,
// recomputed here rather than trusted from a prior suspension, since a
// resume can legitimately happen from a different stack depth than the
// one the generator was created or last suspended at) and drives it with a
// nested execute call. The returned bool reports whether the generator ran
// to completion (true) or suspended again via yield (false). sent becomes
// the result of the `yield` expression that suspended the generator: if
// this isn't the generator's first resume, it is pushed on top of the
// restored slots before execution continues, filling the stack slot the
// compiler left for that yield expression's value (OpYield leaves nothing
// there itself; every resume beyond the first must supply it or the stack
// height the rest of the frame's bytecode assumes drifts by one).
func (vm *VM) resumeGenerator(gen *object.Generator, sent value.Value) (value.Value, bool, error) {
	if gen.State == object.GeneratorReturn || gen.State == object.GeneratorError {
		return value.Nil, true, fmt.Errorf("%w: generator has already finished", ErrNotCallable)
	}
	first := gen.State == object.GeneratorStart

	frame := gen.Frame
	base := vm.sp
	for _, s := range frame.Slots {
		vm.push(s)
	}
	if !first {
		vm.push(sent)
	}
	frame.Base = base
	if len(vm.frames) >= framesMax {
		return value.Nil, true, ErrStackOverflow
	}
	vm.frames = append(vm.frames, frame)
	startDepth := len(vm.frames) - 1

	gen.State = object.GeneratorResume
	vm.suspended = false
	result, err := vm.execute(startDepth)
	if err != nil {
		gen.State = object.GeneratorError
		return value.Nil, true, err
	}
	if vm.suspended {
		gen.State = object.GeneratorYield
		return result, false, nil
	}
	gen.State = object.GeneratorReturn
	return result, true, nil
}

// callAsync starts closure's body as the bytecode-level generator an async
// function really is: it pushes a fresh frame bound to a freshly created
// pending Promise, drives it as far as it will go without blocking, and
// always hands the (possibly still-pending) Promise back to the caller
// immediately — the one guarantee an async call makes is that it never
// blocks the calling frame.
func (vm *VM) callAsync(closure *object.Closure, calleeIdx int) error {
	if len(vm.frames) >= framesMax {
		return ErrStackOverflow
	}
	frame := object.NewFrame(closure)
	frame.Base = calleeIdx

	promise := object.NewPromise(value.Nil)
	promise.Class = vm.promiseClass
	if err := vm.gc.Track(promise); err != nil {
		return err
	}
	frame.ResultPromise = promise

	vm.frames = append(vm.frames, frame)
	startDepth := len(vm.frames) - 1
	vm.driveAsync(frame, startDepth)

	vm.sp = calleeIdx
	vm.push(value.Object(promise))
	return nil
}

// driveAsync runs frame's body as far as it will go on the calling
// goroutine: to completion (settling frame.ResultPromise), to an unhandled
// throw (rejecting it), or to a pending `await` (attaching a resumption
// that fires once the awaited Promise settles). It is reentered by
// resumeAwaitFrame every time a suspended async frame picks back up.
func (vm *VM) driveAsync(frame *object.Frame, startDepth int) {
	vm.suspended = false
	result, err := vm.execute(startDepth)
	if vm.suspended {
		vm.suspended = false
		awaited := vm.pendingAwaitPromise
		vm.pendingAwaitPromise = nil
		vm.pendingAwaitFrame = nil
		vm.attachAsyncResume(frame, awaited)
		return
	}
	if err != nil {
		vm.rejectPromise(frame.ResultPromise, vm.exceptionValue(err))
		return
	}
	vm.resolvePromise(frame.ResultPromise, result)
}

// attachAsyncResume arranges for frame to be driven forward again once
// awaited settles: immediately (as a microtask, never synchronously — a
// `.then`-style callback must never run inside the call that settled its
// promise) if awaited is already settled, or later, when settlePromise
// drains vm.awaitWaiters, otherwise.
func (vm *VM) attachAsyncResume(frame *object.Frame, awaited *object.Promise) {
	resume := func() { vm.resumeAwaitFrame(frame, awaited) }
	if awaited.IsSettled() {
		vm.loop.Microtask(resume)
		return
	}
	vm.awaitWaiters[awaited] = append(vm.awaitWaiters[awaited], resume)
}

// resumeAwaitFrame restores a suspended async frame at the current stack
// pointer (the same technique resumeGenerator uses for `yield`) and
// continues its dispatch loop, pushing the awaited value or throwing its
// rejection reason at the exact point OP_AWAIT left off.
func (vm *VM) resumeAwaitFrame(frame *object.Frame, awaited *object.Promise) {
	base := vm.sp
	for _, s := range frame.Slots {
		vm.push(s)
	}
	frame.Base = base
	if len(vm.frames) >= framesMax {
		vm.rejectPromise(frame.ResultPromise, vm.exceptionValue(ErrStackOverflow))
		return
	}
	vm.frames = append(vm.frames, frame)
	startDepth := len(vm.frames) - 1

	if awaited.State == object.PromiseRejected {
		if hErr := vm.throwValue(startDepth, vm.asThrowError(awaited.Reason)); hErr != nil {
			// throwValue already unwound every frame at or above startDepth
			// and left vm.sp/vm.frames consistent; nothing caught it.
			vm.rejectPromise(frame.ResultPromise, vm.exceptionValue(hErr))
			return
		}
	} else {
		vm.push(awaited.Value)
	}
	vm.driveAsync(frame, startDepth)
}

// awaitResolution classifies the value OP_AWAIT just popped: a plain
// non-Promise value is treated as already fulfilled with itself (matching
// how `await` treats a bare value in the languages this draws from), a
// settled Promise yields its value or reason directly, and a still-pending
// Promise is returned as pending for the caller to suspend on.
func (vm *VM) awaitResolution(v value.Value) (result value.Value, pending *object.Promise, rejected bool, reason value.Value) {
	if !v.IsObject() {
		return v, nil, false, value.Nil
	}
	p, ok := v.Obj.(*object.Promise)
	if !ok {
		return v, nil, false, value.Nil
	}
	switch p.State {
	case object.PromiseFulfilled:
		return p.Value, nil, false, value.Nil
	case object.PromiseRejected:
		return value.Nil, nil, true, p.Reason
	default:
		return value.Nil, p, false, value.Nil
	}
}

// resolvePromise and rejectPromise are the only places this VM ever
// settles a Promise: both route through settlePromise so every pending
// `.then`/`.catch`/`.finally` registration and every async frame suspended
// awaiting it fires exactly once, as a microtask, the instant settlement
// actually happens (not before, not synchronously inside the caller).
func (vm *VM) resolvePromise(p *object.Promise, v value.Value) {
	if !p.Resolve(v) {
		return
	}
	vm.settlePromise(p)
}

func (vm *VM) rejectPromise(p *object.Promise, reason value.Value) {
	if !p.Reject(reason) {
		return
	}
	vm.settlePromise(p)
}

// settlePromise drains p's continuations, finally hooks, and any async
// frames suspended awaiting it, scheduling each as its own microtask.
func (vm *VM) settlePromise(p *object.Promise) {
	continuations := p.Continuations
	p.Continuations = nil
	for _, cont := range continuations {
		cont := cont
		vm.loop.Microtask(func() { vm.runContinuation(p, cont) })
	}

	hooks := p.FinallyHooks
	p.FinallyHooks = nil
	for _, hook := range hooks {
		hook := hook
		if hook.IsObject() {
			vm.loop.Microtask(func() { vm.Call(hook, nil) })
		}
	}

	waiters := vm.awaitWaiters[p]
	delete(vm.awaitWaiters, p)
	for _, resume := range waiters {
		resume := resume
		vm.loop.Microtask(resume)
	}
}

// runContinuation settles cont.Result against p's now-final state, running
// whichever of OnFulfilled/OnRejected applies; an absent handler passes
// the settlement straight through (`.then(f)` with no rejection handler
// still rejects its own returned promise).
func (vm *VM) runContinuation(p *object.Promise, cont object.Continuation) {
	switch p.State {
	case object.PromiseFulfilled:
		if cont.OnFulfilled.IsObject() {
			v, err := vm.Call(cont.OnFulfilled, []value.Value{p.Value})
			if err != nil {
				vm.rejectPromise(cont.Result, vm.exceptionValue(err))
				return
			}
			vm.resolvePromise(cont.Result, v)
			return
		}
		vm.resolvePromise(cont.Result, p.Value)
	case object.PromiseRejected:
		if cont.OnRejected.IsObject() {
			v, err := vm.Call(cont.OnRejected, []value.Value{p.Reason})
			if err != nil {
				vm.rejectPromise(cont.Result, vm.exceptionValue(err))
				return
			}
			vm.resolvePromise(cont.Result, v)
			return
		}
		vm.rejectPromise(cont.Result, p.Reason)
	}
}
