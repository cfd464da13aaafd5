package strtable_test

import (
	"fmt"
	"testing"

	"github.com/vela-lang/vela/internal/strtable"
)

func TestInternReturnsSameContent(t *testing.T) {
	tbl := strtable.New(4)
	a := tbl.Intern("hello")
	b := tbl.Intern("hello")
	if a != b {
		t.Fatalf("a = %q, b = %q", a, b)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestInternDistinctStrings(t *testing.T) {
	tbl := strtable.New(4)
	tbl.Intern("a")
	tbl.Intern("b")
	tbl.Intern("c")
	if tbl.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tbl.Len())
	}
}

func TestLookupMissing(t *testing.T) {
	tbl := strtable.New(4)
	tbl.Intern("present")
	if _, ok := tbl.Lookup("absent"); ok {
		t.Error("did not expect to find 'absent'")
	}
	if _, ok := tbl.Lookup("present"); !ok {
		t.Error("expected to find 'present'")
	}
}

func TestDeleteThenReinsert(t *testing.T) {
	tbl := strtable.New(4)
	tbl.Intern("a")
	tbl.Intern("b")
	if !tbl.Delete("a") {
		t.Fatal("expected Delete(a) to succeed")
	}
	if _, ok := tbl.Lookup("a"); ok {
		t.Error("expected deleted entry to be gone")
	}
	if _, ok := tbl.Lookup("b"); !ok {
		t.Error("expected surviving entry's probe chain to remain intact after a tombstone")
	}
	tbl.Intern("a")
	if _, ok := tbl.Lookup("a"); !ok {
		t.Error("expected re-interning a deleted string to succeed")
	}
}

func TestGrowPreservesAllEntries(t *testing.T) {
	tbl := strtable.New(4)
	n := 500
	for i := 0; i < n; i++ {
		tbl.Intern(fmt.Sprintf("key-%d", i))
	}
	if tbl.Len() != n {
		t.Fatalf("Len() = %d, want %d", tbl.Len(), n)
	}
	for i := 0; i < n; i++ {
		s := fmt.Sprintf("key-%d", i)
		if _, ok := tbl.Lookup(s); !ok {
			t.Fatalf("lost entry %q after growth", s)
		}
	}
}
