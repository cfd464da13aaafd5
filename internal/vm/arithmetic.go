package vm

import (
	"math"

	"github.com/vela-lang/vela/internal/bytecode"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

func isString(v value.Value) (*object.String, bool) {
	if !v.IsObject() {
		return nil, false
	}
	s, ok := v.Obj.(*object.String)
	return s, ok
}

// compareGreater implements `>`: numeric operands compare across the
// int/float tower, Strings compare lexicographically by byte content.
func (vm *VM) compareGreater(a, b value.Value) (bool, error) {
	if a.IsNumber() && b.IsNumber() {
		return a.AsFloat64() > b.AsFloat64(), nil
	}
	if sa, ok := isString(a); ok {
		if sb, ok := isString(b); ok {
			return sa.Value > sb.Value, nil
		}
	}
	return false, vm.typeErrorf("cannot compare %s and %s", a.Kind, b.Kind)
}

func (vm *VM) compareLess(a, b value.Value) (bool, error) {
	if a.IsNumber() && b.IsNumber() {
		return a.AsFloat64() < b.AsFloat64(), nil
	}
	if sa, ok := isString(a); ok {
		if sb, ok := isString(b); ok {
			return sa.Value < sb.Value, nil
		}
	}
	return false, vm.typeErrorf("cannot compare %s and %s", a.Kind, b.Kind)
}

// add implements `+`: the numeric tower, String concatenation (interned
// through the shared string table so the result stays subject to
// pointer-identity equality), and Array concatenation into a fresh Array.
// Everything else is a type mismatch — there is no user-defined operator
// overloading.
func (vm *VM) add(a, b value.Value) (value.Value, error) {
	if sa, ok := isString(a); ok {
		if sb, ok := isString(b); ok {
			return value.Object(vm.strings.Intern(sa.Value + sb.Value)), nil
		}
		return value.Nil, vm.typeErrorf("cannot add %s to a String", b.Kind)
	}
	if aa, ok := a.Obj.(*object.Array); a.IsObject() && ok {
		if ab, ok := b.Obj.(*object.Array); b.IsObject() && ok {
			elems := make([]value.Value, 0, len(aa.Elements)+len(ab.Elements))
			elems = append(elems, aa.Elements...)
			elems = append(elems, ab.Elements...)
			arr := object.NewArray(elems...)
			arr.Class = vm.arrayClass
			return value.Object(arr), nil
		}
		return value.Nil, vm.typeErrorf("cannot add %s to an Array", b.Kind)
	}
	if a.IsNumber() && b.IsNumber() {
		if a.IsInt() && b.IsInt() {
			return value.Int(a.AsInt() + b.AsInt()), nil
		}
		return value.Float(a.AsFloat64() + b.AsFloat64()), nil
	}
	return value.Nil, vm.typeErrorf("cannot add %s and %s", a.Kind, b.Kind)
}

// arith implements the remaining binary numeric operators. Division always
// produces a Float, even for two Ints, matching the language's numeric
// tower; modulo stays an Int for two Int operands and falls back to Float
// otherwise. Division and modulo by a zero divisor throw rather than
// returning Inf/NaN.
func (vm *VM) arith(op bytecode.Opcode, a, b value.Value) (value.Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return value.Nil, vm.typeErrorf("cannot apply arithmetic to %s and %s", a.Kind, b.Kind)
	}
	bothInt := a.IsInt() && b.IsInt()

	switch op {
	case bytecode.OpSubtract:
		if bothInt {
			return value.Int(a.AsInt() - b.AsInt()), nil
		}
		return value.Float(a.AsFloat64() - b.AsFloat64()), nil
	case bytecode.OpMultiply:
		if bothInt {
			return value.Int(a.AsInt() * b.AsInt()), nil
		}
		return value.Float(a.AsFloat64() * b.AsFloat64()), nil
	case bytecode.OpDivide:
		if b.AsFloat64() == 0 {
			return value.Nil, ErrDivisionByZero
		}
		return value.Float(a.AsFloat64() / b.AsFloat64()), nil
	case bytecode.OpModulo:
		if bothInt {
			if b.AsInt() == 0 {
				return value.Nil, ErrDivisionByZero
			}
			return value.Int(a.AsInt() % b.AsInt()), nil
		}
		if b.AsFloat64() == 0 {
			return value.Nil, ErrDivisionByZero
		}
		return value.Float(math.Mod(a.AsFloat64(), b.AsFloat64())), nil
	default:
		return value.Nil, vm.typeErrorf("unsupported arithmetic opcode")
	}
}
