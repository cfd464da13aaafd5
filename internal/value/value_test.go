package value_test

import (
	"testing"

	"github.com/vela-lang/vela/internal/value"
)

func TestTruthiness(t *testing.T) {
	cases := []struct {
		v    value.Value
		want bool
	}{
		{value.Nil, false},
		{value.False, false},
		{value.True, true},
		{value.Int(0), true},
		{value.Float(0), true},
	}
	for _, c := range cases {
		if got := c.v.IsTruthy(); got != c.want {
			t.Errorf("IsTruthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestNumericEquality(t *testing.T) {
	if !value.Int(3).Equal(value.Float(3.0)) {
		t.Error("expected Int(3) == Float(3.0)")
	}
	if value.Int(3).Equal(value.Float(3.1)) {
		t.Error("did not expect Int(3) == Float(3.1)")
	}
}

func TestNilEquality(t *testing.T) {
	if !value.Nil.Equal(value.Nil) {
		t.Error("expected nil == nil")
	}
	if value.Nil.Equal(value.Int(0)) {
		t.Error("did not expect nil == 0")
	}
}

func TestStringRendering(t *testing.T) {
	if got := value.Int(42).String(); got != "42" {
		t.Errorf("String() = %q", got)
	}
	if got := value.Bool(true).String(); got != "true" {
		t.Errorf("String() = %q", got)
	}
	if got := value.Nil.String(); got != "nil" {
		t.Errorf("String() = %q", got)
	}
}

func TestAsFloat64Widening(t *testing.T) {
	if got := value.Int(5).AsFloat64(); got != 5.0 {
		t.Errorf("AsFloat64() = %v, want 5.0", got)
	}
	if got := value.Float(5.5).AsFloat64(); got != 5.5 {
		t.Errorf("AsFloat64() = %v, want 5.5", got)
	}
}
