// Package debugdump renders the four debug.* inspection phases
// (debugToken/debugAst/debugSymtab/debugCode): tokens and resolver
// diagnostics print one per line, the AST tree goes through
// github.com/davecgh/go-spew's Fdump, and compiled bytecode goes through github.com/olekukonko/tablewriter as an
// address/opcode/operands/line table instead of an unaligned multi-line
// string.
package debugdump

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"

	"github.com/vela-lang/vela/internal/ast"
	"github.com/vela-lang/vela/internal/bytecode"
	"github.com/vela-lang/vela/internal/resolver"
	"github.com/vela-lang/vela/internal/token"
)

var dumper = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}

// Tokens renders a lexed token stream, one line per token, for debugToken.
func Tokens(w io.Writer, tokens []token.Token) {
	for _, tok := range tokens {
		fmt.Fprintf(w, "%s\t%s\t%q\n", tok.Pos, tok.Type, tok.Literal)
	}
}

// AST renders a parsed program tree via spew, for debugAst.
func AST(w io.Writer, prog *ast.Program) {
	dumper.Fdump(w, prog)
}

// Symtab renders the resolver's diagnostics, one line each, for
// debugSymtab, or a single placeholder line when there are none. It does
// not print per-function symbol info.
func Symtab(w io.Writer, diagnostics []resolver.Diagnostic) {
	if len(diagnostics) == 0 {
		fmt.Fprintln(w, "(no resolver diagnostics)")
		return
	}
	for _, d := range diagnostics {
		fmt.Fprintln(w, d.String())
	}
}

// Code renders a chunk's disassembly as an address/opcode/operands/line
// table, for debugCode. extraOperandBytes is threaded straight through to
// Chunk.Iterate (see its doc comment for why OpClosure needs it).
func Code(w io.Writer, name string, chunk *bytecode.Chunk, extraOperandBytes func(offset int) int) {
	fmt.Fprintf(w, "== %s ==\n", name)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"OFFSET", "LINE", "OP", "OPERANDS"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	chunk.Iterate(extraOperandBytes, func(inst bytecode.Instruction) {
		operands := make([]string, len(inst.Operands))
		for i, o := range inst.Operands {
			operands[i] = fmt.Sprintf("%d", o)
		}
		table.Append([]string{
			fmt.Sprintf("%04d", inst.Offset),
			fmt.Sprintf("%d", inst.Line),
			inst.Op.String(),
			strings.Join(operands, ", "),
		})
	})
	table.Render()
}
