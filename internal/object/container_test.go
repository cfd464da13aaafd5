package object_test

import (
	"testing"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

func TestArrayAppendGetSet(t *testing.T) {
	a := object.NewArray(value.Int(1), value.Int(2))
	a.Append(value.Int(3))
	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}
	if v, ok := a.Get(2); !ok || v.AsInt() != 3 {
		t.Errorf("Get(2) = %v, %v", v, ok)
	}
	if !a.Set(0, value.Int(9)) {
		t.Fatal("Set(0) failed")
	}
	if v, _ := a.Get(0); v.AsInt() != 9 {
		t.Errorf("Get(0) after Set = %v", v)
	}
	if _, ok := a.Get(99); ok {
		t.Error("expected out-of-range Get to fail")
	}
}

func TestDictionarySetGetDelete(t *testing.T) {
	d := object.NewDictionary()
	d.Set(value.Int(1), value.Int(100))
	d.Set(value.Int(2), value.Int(200))

	if v, ok := d.Get(value.Int(1)); !ok || v.AsInt() != 100 {
		t.Fatalf("Get(1) = %v, %v", v, ok)
	}
	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
	if !d.Delete(value.Int(1)) {
		t.Fatal("Delete(1) failed")
	}
	if _, ok := d.Get(value.Int(1)); ok {
		t.Error("expected deleted key to be gone")
	}
	if d.Len() != 1 {
		t.Errorf("Len() after delete = %d, want 1", d.Len())
	}

	// re-inserting a deleted key must reuse the tombstone slot cleanly
	d.Set(value.Int(1), value.Int(999))
	if v, ok := d.Get(value.Int(1)); !ok || v.AsInt() != 999 {
		t.Errorf("Get(1) after re-insert = %v, %v", v, ok)
	}
}

func TestDictionaryGrowPreservesEntries(t *testing.T) {
	d := object.NewDictionary()
	const n = 200
	for i := 0; i < n; i++ {
		d.Set(value.Int(int64(i)), value.Int(int64(i*2)))
	}
	if d.Len() != n {
		t.Fatalf("Len() = %d, want %d", d.Len(), n)
	}
	for i := 0; i < n; i++ {
		v, ok := d.Get(value.Int(int64(i)))
		if !ok || v.AsInt() != int64(i*2) {
			t.Fatalf("Get(%d) = %v, %v", i, v, ok)
		}
	}
}

func TestDictionaryMissingKey(t *testing.T) {
	d := object.NewDictionary()
	if _, ok := d.Get(value.Int(42)); ok {
		t.Error("expected missing key lookup to fail")
	}
}
