// Package value defines Value, the tagged union that flows through the
// bytecode interpreter's stack, call frames, and object fields.
//
// Design overview:
//   - Value is a small fixed-size struct (a Kind tag plus a 64-bit payload
//     and an interface-typed heap pointer) rather than an interface, so the
//     common numeric/boolean fast paths in the VM's dispatch loop never
//     allocate.
//   - Heap-allocated kinds (strings, arrays, instances, closures, ...) store
//     their payload behind the Obj field, which the garbage collector scans;
//     Num/Bool/Nil are pure value types the collector never has to trace.
package value

import (
	"fmt"
	"math"
)

// Kind tags the dynamic type of a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindObject // Obj holds a GC-managed heap reference (string, array, ...)
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Obj is implemented by every heap-allocated runtime object (internal/object
// package). It is declared here, rather than imported, to avoid a dependency
// cycle between value and object: package object imports value, and
// value.Value.Obj needs to reference object types.
type Obj interface {
	// Type returns a short tag used by disassembly and error messages, e.g.
	// "String", "Array", "Instance".
	Type() string
}

// Value is the VM's universal tagged value.
type Value struct {
	Kind Kind
	num  uint64 // bit pattern for Int (as int64) or Float (as float64 bits)
	b    bool
	Obj  Obj
}

var Nil = Value{Kind: KindNil}
var True = Value{Kind: KindBool, b: true}
var False = Value{Kind: KindBool, b: false}

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func Int(i int64) Value { return Value{Kind: KindInt, num: uint64(i)} }

func Float(f float64) Value { return Value{Kind: KindFloat, num: math.Float64bits(f)} }

func Object(o Obj) Value { return Value{Kind: KindObject, Obj: o} }

func (v Value) IsNil() bool    { return v.Kind == KindNil }
func (v Value) IsBool() bool   { return v.Kind == KindBool }
func (v Value) IsInt() bool    { return v.Kind == KindInt }
func (v Value) IsFloat() bool  { return v.Kind == KindFloat }
func (v Value) IsNumber() bool { return v.Kind == KindInt || v.Kind == KindFloat }
func (v Value) IsObject() bool { return v.Kind == KindObject }

func (v Value) AsBool() bool      { return v.b }
func (v Value) AsInt() int64      { return int64(v.num) }
func (v Value) AsFloat() float64  { return math.Float64frombits(v.num) }

// AsFloat64 widens either numeric kind to float64, used by arithmetic ops
// that must support mixed int/float operands per the Language's numeric
// tower.
func (v Value) AsFloat64() float64 {
	if v.Kind == KindInt {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

// IsTruthy implements the Language's truthiness rule: everything is truthy
// except nil and the boolean false (0, "", and empty collections are all
// truthy, unlike Python — this mirrors Ruby/Lox-family semantics).
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// Equal implements the Language's `==` operator: numeric kinds compare by
// value across Int/Float, booleans and nil compare by identity, and objects
// defer to ReferenceEqual unless overridden at a higher layer (user-defined
// `equals` methods are dispatched by the VM, not here).
func (v Value) Equal(other Value) bool {
	if v.Kind == KindNil || other.Kind == KindNil {
		return v.Kind == other.Kind
	}
	if v.IsNumber() && other.IsNumber() {
		return v.AsFloat64() == other.AsFloat64()
	}
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.b == other.b
	case KindObject:
		return v.Obj == other.Obj
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.AsInt())
	case KindFloat:
		return fmt.Sprintf("%g", v.AsFloat())
	case KindObject:
		if v.Obj == nil {
			return "nil"
		}
		if s, ok := v.Obj.(fmt.Stringer); ok {
			return s.String()
		}
		return "<" + v.Obj.Type() + ">"
	default:
		return "<invalid value>"
	}
}
