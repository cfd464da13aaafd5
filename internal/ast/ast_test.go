package ast_test

import (
	"strings"
	"testing"

	"github.com/vela-lang/vela/internal/ast"
	"github.com/vela-lang/vela/internal/token"
)

func ident(name string) *ast.Identifier {
	return &ast.Identifier{Token: token.Token{Type: token.IDENT, Literal: name}, Name: name}
}

func TestProgramString(t *testing.T) {
	prog := &ast.Program{
		Declarations: []ast.Declaration{
			&ast.RequireDecl{Token: token.Token{Type: token.REQUIRE, Literal: "require"}, Path: "collections"},
		},
	}
	if got := prog.String(); !strings.Contains(got, `require "collections"`) {
		t.Errorf("String() = %q", got)
	}
	if got := prog.TokenLiteral(); got != "require" {
		t.Errorf("TokenLiteral() = %q", got)
	}
}

func TestVarStmtString(t *testing.T) {
	v := &ast.VarStmt{
		Token: token.Token{Type: token.VAL, Literal: "val"},
		Name:  "x",
		Value: &ast.IntLiteral{Token: token.Token{Type: token.INT, Literal: "1"}, Value: 1},
	}
	if got := v.String(); got != "val x = 1;" {
		t.Errorf("String() = %q", got)
	}

	mv := &ast.VarStmt{
		Token:     token.Token{Type: token.VAR, Literal: "var"},
		Name:      "y",
		Modifiers: ast.ModMutable,
	}
	if got := mv.String(); got != "var y;" {
		t.Errorf("String() = %q", got)
	}
}

func TestBinaryAndLogicalString(t *testing.T) {
	b := &ast.BinaryExpr{
		Token:    token.Token{Type: token.PLUS, Literal: "+"},
		Operator: "+",
		Left:     &ast.IntLiteral{Value: 1, Token: token.Token{Literal: "1"}},
		Right:    &ast.IntLiteral{Value: 2, Token: token.Token{Literal: "2"}},
	}
	if got := b.String(); got != "(1 + 2)" {
		t.Errorf("String() = %q", got)
	}

	l := &ast.LogicalExpr{Operator: "&&", Left: ident("a"), Right: ident("b")}
	if got := l.String(); got != "(a && b)" {
		t.Errorf("String() = %q", got)
	}
}

func TestGetAndSubscriptOptional(t *testing.T) {
	g := &ast.GetExpr{Object: ident("obj"), Name: "field", Optional: true}
	if got := g.String(); got != "obj?.field" {
		t.Errorf("String() = %q", got)
	}
	s := &ast.SubscriptExpr{Object: ident("arr"), Index: &ast.IntLiteral{Token: token.Token{Literal: "0"}}}
	if got := s.String(); got != "arr[0]" {
		t.Errorf("String() = %q", got)
	}
}

func TestInterpolatedStringRoundTrip(t *testing.T) {
	is := &ast.InterpolatedString{
		Parts: []string{"a", "b", "c"},
		Exprs: []ast.Expression{ident("x"), ident("y")},
	}
	got := is.String()
	if !strings.Contains(got, "${x}") || !strings.Contains(got, "${y}") {
		t.Errorf("String() = %q, want interpolation markers", got)
	}
}

func TestClassDeclString(t *testing.T) {
	c := &ast.ClassDecl{
		Token:      token.Token{Type: token.CLASS, Literal: "class"},
		Name:       "Dog",
		Superclass: ident("Animal"),
	}
	if got := c.String(); !strings.HasPrefix(got, "class Dog") {
		t.Errorf("String() = %q", got)
	}

	tr := &ast.ClassDecl{Token: token.Token{Literal: "trait"}, Name: "Flyable", IsTrait: true}
	if got := tr.String(); !strings.HasPrefix(got, "trait Flyable") {
		t.Errorf("String() = %q", got)
	}
}

func TestYieldAndAwaitString(t *testing.T) {
	y := &ast.YieldExpr{Value: ident("v")}
	if got := y.String(); got != "yield v" {
		t.Errorf("String() = %q", got)
	}
	yf := &ast.YieldExpr{Value: ident("v"), From: true}
	if got := yf.String(); got != "yield from v" {
		t.Errorf("String() = %q", got)
	}
	a := &ast.AwaitExpr{Value: ident("p")}
	if got := a.String(); got != "await p" {
		t.Errorf("String() = %q", got)
	}
}

func TestModifiersHas(t *testing.T) {
	m := ast.ModAsync | ast.ModGenerator
	if !m.Has(ast.ModAsync) {
		t.Error("expected ModAsync set")
	}
	if m.Has(ast.ModStatic) {
		t.Error("did not expect ModStatic set")
	}
}
