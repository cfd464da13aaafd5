package object_test

import (
	"testing"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

func TestPromiseResolveSettlesOnce(t *testing.T) {
	p := object.NewPromise(value.Nil)
	if p.IsSettled() {
		t.Fatal("expected a fresh promise to be pending")
	}
	if ok := p.Resolve(value.Int(42)); !ok {
		t.Fatal("expected first Resolve to succeed")
	}
	if ok := p.Resolve(value.Int(7)); ok {
		t.Error("expected a second Resolve on an already-settled promise to be a no-op")
	}
	if p.Value.AsInt() != 42 {
		t.Errorf("Value = %v, want 42 (first settlement should win)", p.Value)
	}
}

func TestPromiseRejectThenResolveIsNoop(t *testing.T) {
	p := object.NewPromise(value.Nil)
	p.Reject(value.Int(1))
	if ok := p.Resolve(value.Int(2)); ok {
		t.Error("expected Resolve after Reject to be a no-op")
	}
	if p.State != object.PromiseRejected {
		t.Error("expected promise to remain rejected")
	}
}

func TestGeneratorStartsInStartState(t *testing.T) {
	fn := object.NewFunction("gen", 0)
	cl := object.NewClosure(fn, object.NewModule("main"))
	frame := object.NewFrame(cl)
	g := object.NewGenerator(frame)
	if g.State != object.GeneratorStart {
		t.Errorf("State = %v, want START", g.State)
	}
}

func TestFrameHandlerPushPop(t *testing.T) {
	fn := object.NewFunction("f", 0)
	cl := object.NewClosure(fn, object.NewModule("main"))
	frame := object.NewFrame(cl)
	frame.PushHandler(object.HandlerEntry{HandlerAddr: 10})
	frame.PushHandler(object.HandlerEntry{HandlerAddr: 20})

	h, ok := frame.PopHandler()
	if !ok || h.HandlerAddr != 20 {
		t.Fatalf("PopHandler = %+v, %v, want HandlerAddr 20", h, ok)
	}
	h, ok = frame.PopHandler()
	if !ok || h.HandlerAddr != 10 {
		t.Fatalf("PopHandler = %+v, %v, want HandlerAddr 10", h, ok)
	}
	if _, ok := frame.PopHandler(); ok {
		t.Error("expected PopHandler on an empty handler stack to report false")
	}
}
