package object_test

import (
	"testing"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

func TestUpvalueOpenReflectsSlotThenCloses(t *testing.T) {
	slot := value.Int(1)
	uv := object.NewOpenUpvalue(&slot)
	if !uv.IsOpen() {
		t.Fatal("expected freshly created upvalue to be open")
	}
	slot = value.Int(2)
	if got := uv.Get(); got.AsInt() != 2 {
		t.Errorf("Get() = %v, want 2 (open upvalue should track the live slot)", got)
	}

	uv.Close()
	if uv.IsOpen() {
		t.Fatal("expected upvalue to be closed")
	}
	slot = value.Int(100)
	if got := uv.Get(); got.AsInt() != 2 {
		t.Errorf("Get() after close = %v, want 2 (closed upvalue must not track the slot anymore)", got)
	}
}

func TestClosureAllocatesUpvalueSlots(t *testing.T) {
	fn := object.NewFunction("f", 1)
	fn.UpvalueCount = 2
	mod := object.NewModule("main")
	cl := object.NewClosure(fn, mod)
	if len(cl.Upvalues) != 2 {
		t.Errorf("len(Upvalues) = %d, want 2", len(cl.Upvalues))
	}
}

func TestFunctionVariadic(t *testing.T) {
	fn := object.NewFunction("f", -1)
	if !fn.IsVariadic() {
		t.Error("expected arity -1 to be variadic")
	}
	fn.Arity = -3
	if fn.RequiredArity() != 2 {
		t.Errorf("RequiredArity() = %d, want 2", fn.RequiredArity())
	}
}

func TestModuleGlobalsRespectMutability(t *testing.T) {
	m := object.NewModule("main")
	m.DefineVal("PI", value.Float(3.14))
	m.DefineVar("counter", value.Int(0))

	if ok := m.SetGlobal("PI", value.Float(1)); ok {
		t.Error("expected SetGlobal on an immutable binding to fail")
	}
	if ok := m.SetGlobal("counter", value.Int(1)); !ok {
		t.Error("expected SetGlobal on a mutable binding to succeed")
	}
	v, mutable, ok := m.GetGlobal("counter")
	if !ok || !mutable || v.AsInt() != 1 {
		t.Errorf("GetGlobal(counter) = %v, %v, %v", v, mutable, ok)
	}
}
