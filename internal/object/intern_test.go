package object_test

import (
	"testing"

	"github.com/vela-lang/vela/internal/object"
)

func TestStringTableInternsByContent(t *testing.T) {
	st := object.NewStringTable()
	a := st.Intern("hello")
	b := st.Intern("hello")
	if a != b {
		t.Error("expected two interns of equal content to return the same *String")
	}
	if a.Value != "hello" {
		t.Errorf("Value = %q", a.Value)
	}
}

func TestStringTableForgetRemovesFromCache(t *testing.T) {
	st := object.NewStringTable()
	a := st.Intern("transient")
	st.Forget(a)
	b := st.Intern("transient")
	if a == b {
		t.Error("expected a fresh intern after Forget to produce a new object")
	}
}
