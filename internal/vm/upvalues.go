package vm

import "github.com/vela-lang/vela/internal/object"

// captureUpvalue returns the open upvalue aliasing absolute stack index
// stackIdx, creating one the first time this slot is captured. Keying by
// index rather than comparing raw addresses into vm.stack avoids reaching
// for unsafe.Pointer just to order/compare slot locations; the tradeoff is
// a map lookup per capture instead of a pointer-sorted linked-list walk,
// which this interpreter accepts for the sake of staying entirely within
// safe Go.
func (vm *VM) captureUpvalue(stackIdx int) *object.Upvalue {
	if u, ok := vm.openUpvalues[stackIdx]; ok {
		return u
	}
	u := object.NewOpenUpvalue(&vm.stack[stackIdx])
	_ = vm.gc.Track(u) // accounting only; reachability comes from Closure.Upvalues regardless
	vm.openUpvalues[stackIdx] = u
	return u
}

// closeUpvalues closes and detaches every open upvalue at or above
// fromIdx, called whenever a scope or frame that owns those slots is about
// to be torn down (block exit, return, yield).
func (vm *VM) closeUpvalues(fromIdx int) {
	for idx, u := range vm.openUpvalues {
		if idx >= fromIdx {
			u.Close()
			delete(vm.openUpvalues, idx)
		}
	}
}
