package lexer_test

import (
	"strings"
	"testing"

	"github.com/vela-lang/vela/internal/lexer"
	"github.com/vela-lang/vela/internal/token"
)

type tokenCase struct {
	typ     token.Type
	literal string
}

func runTokenize(t *testing.T, name, input string, want []tokenCase) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		t.Helper()
		l := lexer.New("test.vela", input)
		toks := l.Tokenize()

		if len(toks) == 0 {
			t.Fatal("Tokenize returned empty slice")
		}
		last := toks[len(toks)-1]
		if last.Type != token.EOF {
			t.Errorf("last token is %s, want EOF", last.Type)
		}
		body := toks[:len(toks)-1]

		if len(body) != len(want) {
			t.Fatalf("got %d tokens (excl. EOF), want %d: %v", len(body), len(want), body)
		}
		for i, w := range want {
			got := body[i]
			if got.Type != w.typ {
				t.Errorf("token[%d]: type = %s, want %s (literal %q)", i, got.Type, w.typ, got.Literal)
			}
			if got.Literal != w.literal {
				t.Errorf("token[%d]: literal = %q, want %q", i, got.Literal, w.literal)
			}
		}
	})
}

func TestPunctuationAndOperators(t *testing.T) {
	runTokenize(t, "arith", "1 + 2 * 3 / 4 % 5", []tokenCase{
		{token.INT, "1"}, {token.PLUS, "+"}, {token.INT, "2"}, {token.STAR, "*"},
		{token.INT, "3"}, {token.SLASH, "/"}, {token.INT, "4"}, {token.PERCENT, "%"}, {token.INT, "5"},
	})
	runTokenize(t, "compound-assign", "x += 1; y -= 2; z *= 3; w /= 4;", []tokenCase{
		{token.IDENT, "x"}, {token.PLUSEQ, "+="}, {token.INT, "1"}, {token.SEMICOLON, ";"},
		{token.IDENT, "y"}, {token.MINUSEQ, "-="}, {token.INT, "2"}, {token.SEMICOLON, ";"},
		{token.IDENT, "z"}, {token.STAREQ, "*="}, {token.INT, "3"}, {token.SEMICOLON, ";"},
		{token.IDENT, "w"}, {token.SLASHEQ, "/="}, {token.INT, "4"}, {token.SEMICOLON, ";"},
	})
	runTokenize(t, "optional-chain", "a?.b ?? c ?: d", []tokenCase{
		{token.IDENT, "a"}, {token.QDOT, "?."}, {token.IDENT, "b"},
		{token.QQ, "??"}, {token.IDENT, "c"}, {token.ELVIS, "?:"}, {token.IDENT, "d"},
	})
	runTokenize(t, "range", "0..10", []tokenCase{
		{token.INT, "0"}, {token.DOTDOT, ".."}, {token.INT, "10"},
	})
}

func TestKeywords(t *testing.T) {
	runTokenize(t, "class-decl", "class B : A { }", []tokenCase{
		{token.CLASS, "class"}, {token.IDENT, "B"}, {token.COLON, ":"}, {token.IDENT, "A"},
		{token.LBRACE, "{"}, {token.RBRACE, "}"},
	})
	runTokenize(t, "backtick-ident", "var `if` = 1;", []tokenCase{
		{token.VAR, "var"}, {token.IDENT, "if"}, {token.ASSIGN, "="}, {token.INT, "1"}, {token.SEMICOLON, ";"},
	})
}

func TestNumberLiterals(t *testing.T) {
	runTokenize(t, "float-with-exponent", "3.14 1e10 2.5e-3", []tokenCase{
		{token.FLOAT, "3.14"}, {token.INT, "1"}, {token.IDENT, "e10"},
		{token.FLOAT, "2.5e-3"},
	})
}

func TestStringEscapes(t *testing.T) {
	l := lexer.New("t.vela", `"a\nb\tc\\d\"e"`)
	tok := l.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("type = %s, want STRING", tok.Type)
	}
	want := "a\nb\tc\\d\"e"
	if tok.Literal != want {
		t.Errorf("literal = %q, want %q", tok.Literal, want)
	}
}

func TestStringHexAndUnicodeEscapes(t *testing.T) {
	l := lexer.New("t.vela", `"\x41B\U00000043"`)
	tok := l.NextToken()
	if tok.Type != token.STRING {
		t.Fatalf("type = %s, want STRING: %s", tok.Type, l.LastError())
	}
	if tok.Literal != "ABC" {
		t.Errorf("literal = %q, want %q", tok.Literal, "ABC")
	}
}

func TestInvalidEscapeIsLexError(t *testing.T) {
	l := lexer.New("t.vela", `"\q"`)
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("type = %s, want ILLEGAL", tok.Type)
	}
	if l.LastError() == "" {
		t.Error("expected a lex error message")
	}
}

func TestStringInterpolation(t *testing.T) {
	l := lexer.New("t.vela", `"a${x}b${y}c"`)
	var kinds []token.Type
	var lits []string
	for {
		tok := l.NextToken()
		kinds = append(kinds, tok.Type)
		lits = append(lits, tok.Literal)
		if tok.Type == token.EOF {
			break
		}
	}
	// "a${x}b${y}c" lexes as: INTERPOLATION("a") IDENT(x) INTERPOLATION("b") IDENT(y) STRING("c") EOF
	want := []struct {
		typ token.Type
		lit string
	}{
		{token.INTERPOLATION, "a"},
		{token.IDENT, "x"},
		{token.INTERPOLATION, "b"},
		{token.IDENT, "y"},
		{token.STRING, "c"},
		{token.EOF, ""},
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens, want %d: kinds=%v lits=%q", len(kinds), len(want), kinds, lits)
	}
	for i, w := range want {
		if kinds[i] != w.typ || lits[i] != w.lit {
			t.Errorf("token[%d] = %s %q, want %s %q", i, kinds[i], lits[i], w.typ, w.lit)
		}
	}
}

func TestInterpolationNestingLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString(`"`)
	for i := 0; i < 15; i++ {
		b.WriteString(`${"`)
	}
	b.WriteString("x")
	for i := 0; i < 15; i++ {
		b.WriteString(`"}`)
	}
	b.WriteString(`"`)

	l := lexer.New("t.vela", b.String())
	sawIllegal := false
	for i := 0; i < 400; i++ {
		tok := l.NextToken()
		if tok.Type == token.ILLEGAL {
			sawIllegal = true
			break
		}
		if tok.Type == token.EOF {
			break
		}
	}
	if sawIllegal {
		t.Fatalf("nesting of exactly 15 should succeed, got lex error: %s", l.LastError())
	}
}

func TestInterpolationNestingExceeded(t *testing.T) {
	var b strings.Builder
	b.WriteString(`"`)
	for i := 0; i < 16; i++ {
		b.WriteString(`${"`)
	}
	b.WriteString("x")
	for i := 0; i < 16; i++ {
		b.WriteString(`"}`)
	}
	b.WriteString(`"`)

	l := lexer.New("t.vela", b.String())
	sawIllegal := false
	for i := 0; i < 400; i++ {
		tok := l.NextToken()
		if tok.Type == token.ILLEGAL {
			sawIllegal = true
			break
		}
		if tok.Type == token.EOF {
			break
		}
	}
	if !sawIllegal {
		t.Fatal("nesting of 16 should fail to lex")
	}
}

func TestComments(t *testing.T) {
	runTokenize(t, "line-comment", "1 // hello\n2", []tokenCase{
		{token.INT, "1"}, {token.INT, "2"},
	})
	runTokenize(t, "nested-block-comment", "1 /* a /* b */ c */ 2", []tokenCase{
		{token.INT, "1"}, {token.INT, "2"},
	})
}
