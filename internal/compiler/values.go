package compiler

import "github.com/vela-lang/vela/internal/value"

func intZero() value.Value { return value.Int(0) }
func intOne() value.Value  { return value.Int(1) }

// stringConst interns s through the compiler's shared string table and
// wraps it as a constant-pool-ready Value.
func stringConst(c *Compiler, s string) value.Value {
	return value.Object(c.strings.Intern(s))
}
