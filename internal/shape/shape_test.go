package shape_test

import (
	"testing"

	"github.com/vela-lang/vela/internal/shape"
)

func TestTransitionAssignsIncreasingSlots(t *testing.T) {
	root := shape.Root()
	s1 := root.Transition("x")
	s2 := s1.Transition("y")

	if slot, ok := s1.Lookup("x"); !ok || slot != 0 {
		t.Fatalf("x slot = %d, ok=%v", slot, ok)
	}
	if slot, ok := s2.Lookup("y"); !ok || slot != 1 {
		t.Fatalf("y slot = %d, ok=%v", slot, ok)
	}
	if s2.NumSlots() != 2 {
		t.Errorf("NumSlots() = %d, want 2", s2.NumSlots())
	}
}

func TestConvergentTransitionsShareShape(t *testing.T) {
	root := shape.Root()
	a := root.Transition("x").Transition("y")
	b := root.Transition("x").Transition("y")
	if a != b {
		t.Error("expected two instances adding the same fields in the same order to converge on one shape")
	}
}

func TestDivergentTransitionsProduceDistinctShapes(t *testing.T) {
	root := shape.Root()
	a := root.Transition("x").Transition("y")
	b := root.Transition("x").Transition("z")
	if a == b {
		t.Error("expected divergent field orders to produce distinct shapes")
	}
}

func TestKeysInSlotOrder(t *testing.T) {
	root := shape.Root()
	leaf := root.Transition("a").Transition("b").Transition("c")
	keys := leaf.Keys()
	want := []string{"a", "b", "c"}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], k)
		}
	}
}

func TestInlineCacheMatches(t *testing.T) {
	root := shape.Root()
	s1 := root.Transition("x")
	s2 := root.Transition("y")

	var ic shape.InlineCacheEntry
	ic.Fill(s1, shape.KindIVar, 0)
	if !ic.Matches(s1) {
		t.Error("expected cache to match the shape it was filled with")
	}
	if ic.Matches(s2) {
		t.Error("did not expect cache to match an unrelated shape")
	}
}
