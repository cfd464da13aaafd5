package debugdump

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vela-lang/vela/internal/bytecode"
	"github.com/vela-lang/vela/internal/lexer"
	"github.com/vela-lang/vela/internal/parser"
	"github.com/vela-lang/vela/internal/resolver"
	"github.com/vela-lang/vela/internal/value"
)

func TestTokens(t *testing.T) {
	l := lexer.New("t.vl", "val x = 1;")
	var buf bytes.Buffer
	Tokens(&buf, l.Tokenize())
	assert.NotEmpty(t, buf.String())
}

func TestAST(t *testing.T) {
	prog, errs := parser.Parse("t.vl", "val x = 1 + 2;")
	assert.Empty(t, errs)
	var buf bytes.Buffer
	AST(&buf, prog)
	assert.Contains(t, buf.String(), "Program")
}

func TestSymtab(t *testing.T) {
	prog, errs := parser.Parse("t.vl", "val x = 1;")
	assert.Empty(t, errs)
	r := resolver.New()
	diags := r.Resolve(prog)
	var buf bytes.Buffer
	Symtab(&buf, diags)
	assert.NotEmpty(t, buf.String())
}

func TestCode(t *testing.T) {
	chunk := bytecode.NewChunk()
	idx := chunk.AddConstant(value.Int(42))
	chunk.WriteOp(bytecode.OpConstant, 1)
	chunk.WriteUint16(idx, 1)
	chunk.WriteOp(bytecode.OpReturn, 1)

	var buf bytes.Buffer
	Code(&buf, "<script>", chunk, nil)
	out := buf.String()
	assert.Contains(t, out, "CONSTANT")
	assert.Contains(t, out, "RETURN")
}
