// Package mathlib is the native-function catalog for the Math namespace:
// the floating-point functions a native-C scripting VM's std/util.c would
// expose (sqrt/pow/trig/rounding/abs/min/max), reimplemented against Go's
// math package since that source treats libm itself as the
// embedded collaborator the core only specifies a registration contract
// for.
package mathlib

import (
	gomath "math"

	"github.com/vela-lang/vela/internal/native"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// Register installs every Math.* native function into module, the
// binding table a `require "Math"` resolves to (see internal/modloader).
func Register(m native.Registrar) {
	native.Function(m, "sqrt", 1, unary(gomath.Sqrt, "Math.sqrt"))
	native.Function(m, "abs", 1, unary(gomath.Abs, "Math.abs"))
	native.Function(m, "floor", 1, unary(gomath.Floor, "Math.floor"))
	native.Function(m, "ceil", 1, unary(gomath.Ceil, "Math.ceil"))
	native.Function(m, "round", 1, unary(gomath.Round, "Math.round"))
	native.Function(m, "sin", 1, unary(gomath.Sin, "Math.sin"))
	native.Function(m, "cos", 1, unary(gomath.Cos, "Math.cos"))
	native.Function(m, "tan", 1, unary(gomath.Tan, "Math.tan"))
	native.Function(m, "log", 1, unary(gomath.Log, "Math.log"))
	native.Function(m, "log2", 1, unary(gomath.Log2, "Math.log2"))
	native.Function(m, "log10", 1, unary(gomath.Log10, "Math.log10"))
	native.Function(m, "exp", 1, unary(gomath.Exp, "Math.exp"))

	native.Function(m, "pow", 2, func(_ object.VM, args []value.Value) (value.Value, error) {
		base, err := native.CheckNumber("Math.pow", args, 0)
		if err != nil {
			return value.Nil, err
		}
		exp, err := native.CheckNumber("Math.pow", args, 1)
		if err != nil {
			return value.Nil, err
		}
		return value.Float(gomath.Pow(base, exp)), nil
	})
	native.Function(m, "min", 2, func(_ object.VM, args []value.Value) (value.Value, error) {
		a, err := native.CheckNumber("Math.min", args, 0)
		if err != nil {
			return value.Nil, err
		}
		b, err := native.CheckNumber("Math.min", args, 1)
		if err != nil {
			return value.Nil, err
		}
		return numericResult(args[0], args[1], gomath.Min(a, b)), nil
	})
	native.Function(m, "max", 2, func(_ object.VM, args []value.Value) (value.Value, error) {
		a, err := native.CheckNumber("Math.max", args, 0)
		if err != nil {
			return value.Nil, err
		}
		b, err := native.CheckNumber("Math.max", args, 1)
		if err != nil {
			return value.Nil, err
		}
		return numericResult(args[0], args[1], gomath.Max(a, b)), nil
	})

	m.DefineVal("PI", value.Float(gomath.Pi))
	m.DefineVal("E", value.Float(gomath.E))
}

// numericResult keeps an int-in, int-out contract for min/max when both
// operands were ints, matching the Language's "int OP int -> int" rule for
// ordinary arithmetic even though these are native calls rather than
// opcodes.
func numericResult(a, b value.Value, f float64) value.Value {
	if a.IsInt() && b.IsInt() {
		return value.Int(int64(f))
	}
	return value.Float(f)
}

func unary(f func(float64) float64, name string) func(object.VM, []value.Value) (value.Value, error) {
	return func(_ object.VM, args []value.Value) (value.Value, error) {
		x, err := native.CheckNumber(name, args, 0)
		if err != nil {
			return value.Nil, err
		}
		return value.Float(f(x)), nil
	}
}
