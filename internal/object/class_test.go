package object_test

import (
	"testing"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

func TestInheritFromCopiesMethodsAndSubclassCanShadow(t *testing.T) {
	base := object.NewClass("Animal", "Animal")
	base.DefineMethod("speak", value.Int(1))

	sub := object.NewClass("Dog", "Dog")
	sub.InheritFrom(base)
	if _, ok := sub.Method("speak"); !ok {
		t.Fatal("expected subclass to inherit speak")
	}

	sub.DefineMethod("speak", value.Int(2))
	m, _ := sub.Method("speak")
	if m.AsInt() != 2 {
		t.Error("expected subclass's own method to shadow the inherited one")
	}
	if !sub.IsSubclassOf(base) {
		t.Error("expected IsSubclassOf(base) to hold")
	}
}

func TestApplyTraitDoesNotShadowExistingMethod(t *testing.T) {
	c := object.NewClass("Thing", "Thing")
	c.DefineMethod("greet", value.Int(1))

	trait := object.NewClass("Greeter", "Greeter")
	trait.DefineMethod("greet", value.Int(2))
	trait.DefineMethod("wave", value.Int(3))

	c.ApplyTrait(trait)

	if m, _ := c.Method("greet"); m.AsInt() != 1 {
		t.Error("expected class's own method to win over the trait's")
	}
	if m, ok := c.Method("wave"); !ok || m.AsInt() != 3 {
		t.Error("expected trait method to fill an open slot")
	}
}

func TestClassVarDefineAndLookup(t *testing.T) {
	c := object.NewClass("Counter", "Counter")
	slot := c.DefineClassVar("count", value.Int(0))
	if got, ok := c.ClassVarSlot("count"); !ok || got != slot {
		t.Fatalf("ClassVarSlot = %d, %v", got, ok)
	}
	c.DefineClassVar("count", value.Int(5))
	if c.ClassVars[slot].AsInt() != 5 {
		t.Errorf("ClassVars[slot] = %v, want 5", c.ClassVars[slot])
	}
}

func TestInstanceFieldTransitionsShape(t *testing.T) {
	c := object.NewClass("Point", "Point")
	inst := object.NewInstance(c)

	if _, ok := inst.GetField("x"); ok {
		t.Fatal("expected fresh instance to have no fields")
	}
	inst.SetField("x", value.Int(1))
	inst.SetField("y", value.Int(2))

	if v, ok := inst.GetField("x"); !ok || v.AsInt() != 1 {
		t.Errorf("GetField(x) = %v, %v", v, ok)
	}
	if v, ok := inst.GetField("y"); !ok || v.AsInt() != 2 {
		t.Errorf("GetField(y) = %v, %v", v, ok)
	}

	other := object.NewInstance(c)
	other.SetField("x", value.Int(9))
	other.SetField("y", value.Int(8))
	if inst.Shape != other.Shape {
		t.Error("expected two instances adding the same fields in the same order to converge on one shape")
	}
}

func TestBehaviorIDsAreDistinct(t *testing.T) {
	a := object.NewClass("A", "A")
	b := object.NewClass("B", "B")
	if a.BehaviorID == b.BehaviorID {
		t.Error("expected distinct classes to get distinct behavior ids")
	}
}
