// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package parser implements a recursive-descent / Pratt parser that turns a
// token stream into a Vela AST.
//
// Design overview:
//
//   - Declarations (class, trait, namespace, fun, using, require) are parsed
//     with straightforward recursive descent.
//   - Expressions are parsed with a Pratt (top-down operator precedence)
//     table, including the optional-chaining and nil-coalescing family.
//   - Errors are collected rather than aborting; the parser recovers by
//     skipping to the next semicolon or closing brace so later declarations
//     can still be parsed.
//   - Comments produced by the lexer are silently skipped.
package parser

import (
	"fmt"
	"strconv"

	"github.com/vela-lang/vela/internal/ast"
	"github.com/vela-lang/vela/internal/lexer"
	"github.com/vela-lang/vela/internal/token"
)

// ---------------------------------------------------------------------------
// Precedence levels (Pratt)
// ---------------------------------------------------------------------------

type precedence int

const (
	precLowest    precedence = iota
	precAssign               // = += -= *= /=
	precTernary               // ?: c ? a : b
	precNilCoalesce           // ?? ?:
	precOr                    // || or
	precAnd                   // && and
	precEquality              // == !=
	precComparison            // < > <= >=
	precRange                 // ..
	precAdd                   // + -
	precMul                   // * / %
	precUnary                 // ! - (prefix)
	precCall                  // . ?. [] () ::
)

var infixPrecedence = map[token.Type]precedence{
	token.QQ:         precNilCoalesce,
	token.ELVIS:      precNilCoalesce,
	token.OR:         precOr,
	token.OR_KW:      precOr,
	token.AND:        precAnd,
	token.AND_KW:     precAnd,
	token.EQ:         precEquality,
	token.NEQ:        precEquality,
	token.LT:         precComparison,
	token.GT:         precComparison,
	token.LTE:        precComparison,
	token.GTE:        precComparison,
	token.DOTDOT:     precRange,
	token.PLUS:       precAdd,
	token.MINUS:      precAdd,
	token.STAR:       precMul,
	token.SLASH:      precMul,
	token.PERCENT:    precMul,
	token.DOT:        precCall,
	token.QDOT:       precCall,
	token.LBRACKET:   precCall,
	token.LPAREN:     precCall,
	token.ASSIGN:     precAssign,
	token.PLUSEQ:     precAssign,
	token.MINUSEQ:    precAssign,
	token.STAREQ:     precAssign,
	token.SLASHEQ:    precAssign,
	token.QUESTION:   precTernary,
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

type Parser struct {
	lex    *lexer.Lexer
	cur    token.Token
	peek   token.Token
	errors []error
}

func newParser(filename, source string) *Parser {
	p := &Parser{lex: lexer.New(filename, source)}
	p.advance()
	p.advance()
	return p
}

// Parse is the public entry point: it lexes source and returns the parsed
// Program together with any non-fatal errors collected along the way.
func Parse(filename, source string) (*ast.Program, []error) {
	p := newParser(filename, source)
	prog := p.parseProgram()
	return prog, p.errors
}

func (p *Parser) advance() {
	p.cur = p.peek
	for {
		p.peek = p.lex.NextToken()
		if p.peek.Type != token.COMMENT {
			break
		}
	}
}

func (p *Parser) expect(typ token.Type) (token.Token, bool) {
	if p.cur.Type == typ {
		tok := p.cur
		p.advance()
		return tok, true
	}
	p.errorf(p.cur.Pos, "expected %s, got %s (%q)", typ, p.cur.Type, p.cur.Literal)
	return p.cur, false
}

func (p *Parser) curIs(typ token.Type) bool  { return p.cur.Type == typ }
func (p *Parser) peekIs(typ token.Type) bool { return p.peek.Type == typ }

func (p *Parser) skipTo(types ...token.Type) {
	for p.cur.Type != token.EOF {
		for _, t := range types {
			if p.cur.Type == t {
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) errorf(pos token.Position, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Errorf("%s: %s", pos, msg))
}

// ---------------------------------------------------------------------------
// Program and declarations
// ---------------------------------------------------------------------------

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		decl := p.parseDeclaration()
		if decl != nil {
			prog.Declarations = append(prog.Declarations, decl)
		}
	}
	return prog
}

func (p *Parser) parseDeclaration() ast.Declaration {
	switch p.cur.Type {
	case token.CLASS:
		return p.parseClassDecl(false)
	case token.TRAIT:
		return p.parseClassDecl(true)
	case token.NAMESPACE:
		return p.parseNamespaceDecl()
	case token.USING:
		return p.parseUsingDecl()
	case token.REQUIRE:
		return p.parseRequireDecl()
	case token.FUN:
		return p.parseFunDecl()
	default:
		if p.curIs(token.ASYNC) && p.peekIs(token.FUN) {
			return p.parseFunDecl()
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		return &ast.TopLevelStmt{Stmt: stmt}
	}
}

// ---------------------------------------------------------------------------
// class_decl = ("class"|"trait") IDENT [ ":" IDENT ] [ "with" IDENT {"," IDENT} ]
//              "{" { field_decl | fun_decl } "}" ;
// ---------------------------------------------------------------------------

func (p *Parser) parseClassDecl(isTrait bool) *ast.ClassDecl {
	tok := p.cur
	p.advance()

	name := p.cur.Literal
	if _, ok := p.expect(token.IDENT); !ok {
		p.skipTo(token.LBRACE, token.EOF)
	}

	decl := &ast.ClassDecl{Token: tok, Name: name, IsTrait: isTrait}

	if p.curIs(token.COLON) {
		p.advance()
		superTok := p.cur
		superName := p.cur.Literal
		p.expect(token.IDENT) //nolint
		decl.Superclass = &ast.Identifier{Token: superTok, Name: superName}
	}

	if p.curIs(token.WITH) {
		p.advance()
		for {
			tTok := p.cur
			tName := p.cur.Literal
			p.expect(token.IDENT) //nolint
			decl.Traits = append(decl.Traits, &ast.Identifier{Token: tTok, Name: tName})
			if p.curIs(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}

	p.expect(token.LBRACE) //nolint
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.VAL) || p.curIs(token.VAR) {
			decl.Fields = append(decl.Fields, p.parseFieldDecl())
			continue
		}
		isStatic := false
		if p.curIs(token.CLASS) {
			isStatic = true
			p.advance()
		}
		if p.curIs(token.FUN) || p.curIs(token.ASYNC) {
			m := p.parseMethodDecl(isStatic)
			if m != nil {
				decl.Methods = append(decl.Methods, m)
			}
			continue
		}
		p.errorf(p.cur.Pos, "unexpected token %s inside class body", p.cur.Type)
		p.advance()
	}
	p.expect(token.RBRACE) //nolint
	return decl
}

func (p *Parser) parseFieldDecl() *ast.FieldDecl {
	mutable := p.curIs(token.VAR)
	p.advance()
	name := p.cur.Literal
	p.expect(token.IDENT) //nolint

	var def ast.Expression
	if p.curIs(token.ASSIGN) {
		p.advance()
		def = p.parseExpression(precLowest)
	}
	p.expect(token.SEMICOLON) //nolint

	mods := Modifiers(0)
	if mutable {
		mods |= ast.ModMutable
	}
	return &ast.FieldDecl{Name: name, Default: def, Modifiers: mods}
}

// Modifiers is a re-export alias so field/method parsing code reads
// naturally; it is identical to ast.Modifiers.
type Modifiers = ast.Modifiers

func (p *Parser) parseMethodDecl(isStatic bool) *ast.FunDecl {
	mods := Modifiers(0)
	if isStatic {
		mods |= ast.ModStatic
	}
	if p.curIs(token.ASYNC) {
		mods |= ast.ModAsync
		p.advance()
	}
	tok := p.cur // 'fun'
	p.advance()

	name := p.cur.Literal
	p.expect(token.IDENT) //nolint
	if name == "init" {
		mods |= ast.ModInitializer
	}

	params, isGen := p.parseParamListAndDetectYield()
	body := p.parseBlockStmt()
	if containsYield(body) {
		isGen = true
	}
	if isGen {
		mods |= ast.ModGenerator
	}

	return &ast.FunDecl{Token: tok, Name: name, Params: params, Body: body, Modifiers: mods}
}

// parseParamListAndDetectYield parses "(" [ param {"," param} ] ")" and
// reports a provisional generator hint of false; actual `yield` detection
// happens by walking the parsed body (containsYield), matching how the
// compiler ultimately decides generator-ness from body contents rather than
// a declared keyword.
func (p *Parser) parseParamListAndDetectYield() ([]ast.Param, bool) {
	return p.parseParamList(), false
}

func (p *Parser) parseParamList() []ast.Param {
	if _, ok := p.expect(token.LPAREN); !ok {
		return nil
	}
	var params []ast.Param
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		params = append(params, p.parseParam())
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN) //nolint
	return params
}

func (p *Parser) parseParam() ast.Param {
	variadic := false
	if p.curIs(token.STAR) {
		variadic = true
		p.advance()
	}
	name := p.cur.Literal
	p.expect(token.IDENT) //nolint

	var def ast.Expression
	if p.curIs(token.ASSIGN) {
		p.advance()
		def = p.parseExpression(precLowest)
	}
	return ast.Param{Name: name, Default: def, Variadic: variadic}
}

// containsYield walks a block shallowly (not descending into nested function
// literals) looking for a YieldExpr, used to classify a function as a
// generator (generator-ness is inferred, not declared).
func containsYield(b *ast.BlockStmt) bool {
	found := false
	var walkStmt func(ast.Statement)
	var walkExpr func(ast.Expression)

	walkExpr = func(e ast.Expression) {
		if e == nil || found {
			return
		}
		switch n := e.(type) {
		case *ast.YieldExpr:
			found = true
		case *ast.BinaryExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.LogicalExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.UnaryExpr:
			walkExpr(n.Operand)
		case *ast.AssignExpr:
			walkExpr(n.Value)
		case *ast.CallExpr:
			walkExpr(n.Callee)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *ast.GetExpr:
			walkExpr(n.Object)
		case *ast.SubscriptExpr:
			walkExpr(n.Object)
			walkExpr(n.Index)
		case *ast.TernaryExpr:
			walkExpr(n.Condition)
			walkExpr(n.Then)
			walkExpr(n.Else)
		case *ast.NilCoalescingExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.ElvisExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.ArrayLiteral:
			for _, el := range n.Elements {
				walkExpr(el)
			}
		case *ast.AwaitExpr:
			walkExpr(n.Value)
		}
	}

	walkStmt = func(s ast.Statement) {
		if s == nil || found {
			return
		}
		switch n := s.(type) {
		case *ast.ExprStmt:
			walkExpr(n.Expr)
		case *ast.VarStmt:
			walkExpr(n.Value)
		case *ast.BlockStmt:
			for _, st := range n.Stmts {
				walkStmt(st)
			}
		case *ast.IfStmt:
			walkExpr(n.Condition)
			walkStmt(n.Then)
			walkStmt(n.Else)
		case *ast.WhileStmt:
			walkExpr(n.Condition)
			walkStmt(n.Body)
		case *ast.ForStmt:
			walkExpr(n.Collection)
			walkStmt(n.Body)
		case *ast.ReturnStmt:
			walkExpr(n.Value)
		case *ast.ThrowStmt:
			walkExpr(n.Value)
		case *ast.TryStmt:
			walkStmt(n.Body)
			for _, c := range n.Catches {
				walkStmt(c.Body)
			}
			walkStmt(n.Finally)
		case *ast.SwitchStmt:
			walkExpr(n.Subject)
			for _, c := range n.Cases {
				for _, st := range c.Body {
					walkStmt(st)
				}
			}
		}
	}

	for _, st := range b.Stmts {
		walkStmt(st)
		if found {
			break
		}
	}
	return found
}

// ---------------------------------------------------------------------------
// namespace_decl = "namespace" IDENT {"." IDENT} "{" { declaration } "}" ;
// ---------------------------------------------------------------------------

func (p *Parser) parseNamespaceDecl() *ast.NamespaceDecl {
	tok := p.cur
	p.advance()

	var path []string
	path = append(path, p.cur.Literal)
	p.expect(token.IDENT) //nolint
	for p.curIs(token.DOT) {
		p.advance()
		path = append(path, p.cur.Literal)
		p.expect(token.IDENT) //nolint
	}

	p.expect(token.LBRACE) //nolint
	var decls []ast.Declaration
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		d := p.parseDeclaration()
		if d != nil {
			decls = append(decls, d)
		}
	}
	p.expect(token.RBRACE) //nolint

	return &ast.NamespaceDecl{Token: tok, Path: path, Declarations: decls}
}

// using_decl = "using" IDENT {"." IDENT} ";" ;
func (p *Parser) parseUsingDecl() *ast.UsingDecl {
	tok := p.cur
	p.advance()
	var path []string
	path = append(path, p.cur.Literal)
	p.expect(token.IDENT) //nolint
	for p.curIs(token.DOT) {
		p.advance()
		path = append(path, p.cur.Literal)
		p.expect(token.IDENT) //nolint
	}
	p.expect(token.SEMICOLON) //nolint
	return &ast.UsingDecl{Token: tok, Path: path}
}

// require_decl = "require" STRING ";" ;
func (p *Parser) parseRequireDecl() *ast.RequireDecl {
	tok := p.cur
	p.advance()
	path := p.cur.Literal
	p.expect(token.STRING) //nolint
	p.expect(token.SEMICOLON) //nolint
	return &ast.RequireDecl{Token: tok, Path: path}
}

// fun_decl at top level is sugar for `val name = fun(...) {...}`.
func (p *Parser) parseFunDecl() *ast.FunDecl {
	return p.parseMethodDecl(false)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case token.VAL, token.VAR:
		return p.parseVarStmt()
	case token.LBRACE:
		return p.parseBlockStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.BREAK:
		tok := p.cur
		p.advance()
		p.expect(token.SEMICOLON) //nolint
		return &ast.BreakStmt{Token: tok}
	case token.CONTINUE:
		tok := p.cur
		p.advance()
		p.expect(token.SEMICOLON) //nolint
		return &ast.ContinueStmt{Token: tok}
	case token.RETURN:
		return p.parseReturnStmt()
	case token.THROW:
		return p.parseThrowStmt()
	case token.TRY:
		return p.parseTryStmt()
	case token.SWITCH:
		return p.parseSwitchStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseVarStmt() *ast.VarStmt {
	tok := p.cur
	mutable := p.curIs(token.VAR)
	p.advance()

	name := p.cur.Literal
	p.expect(token.IDENT) //nolint

	var val ast.Expression
	if p.curIs(token.ASSIGN) {
		p.advance()
		val = p.parseExpression(precLowest)
	}
	p.expect(token.SEMICOLON) //nolint

	mods := Modifiers(0)
	if mutable {
		mods |= ast.ModMutable
	}
	return &ast.VarStmt{Token: tok, Name: name, Value: val, Modifiers: mods}
}

func (p *Parser) parseBlockStmt() *ast.BlockStmt {
	tok := p.cur
	if _, ok := p.expect(token.LBRACE); !ok {
		return &ast.BlockStmt{Token: tok}
	}
	var stmts []ast.Statement
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		stmts = append(stmts, p.parseStatement())
	}
	p.expect(token.RBRACE) //nolint
	return &ast.BlockStmt{Token: tok, Stmts: stmts}
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	tok := p.cur
	p.advance()
	p.expect(token.LPAREN) //nolint
	cond := p.parseExpression(precLowest)
	p.expect(token.RPAREN) //nolint
	then := p.parseBlockStmt()

	var els ast.Statement
	if p.curIs(token.ELSE) {
		p.advance()
		if p.curIs(token.IF) {
			els = p.parseIfStmt()
		} else {
			els = p.parseBlockStmt()
		}
	}
	return &ast.IfStmt{Token: tok, Condition: cond, Then: then, Else: els}
}

func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	tok := p.cur
	p.advance()
	p.expect(token.LPAREN) //nolint
	cond := p.parseExpression(precLowest)
	p.expect(token.RPAREN) //nolint
	body := p.parseBlockStmt()
	return &ast.WhileStmt{Token: tok, Condition: cond, Body: body}
}

// for_stmt = "for" "(" IDENT ":" expr ")" block ;
func (p *Parser) parseForStmt() *ast.ForStmt {
	tok := p.cur
	p.advance()
	p.expect(token.LPAREN) //nolint
	name := p.cur.Literal
	p.expect(token.IDENT) //nolint
	p.expect(token.COLON) //nolint
	coll := p.parseExpression(precLowest)
	p.expect(token.RPAREN) //nolint
	body := p.parseBlockStmt()
	return &ast.ForStmt{Token: tok, Name: name, Collection: coll, Body: body}
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	tok := p.cur
	p.advance()
	var val ast.Expression
	if !p.curIs(token.SEMICOLON) {
		val = p.parseExpression(precLowest)
	}
	p.expect(token.SEMICOLON) //nolint
	return &ast.ReturnStmt{Token: tok, Value: val}
}

func (p *Parser) parseThrowStmt() *ast.ThrowStmt {
	tok := p.cur
	p.advance()
	val := p.parseExpression(precLowest)
	p.expect(token.SEMICOLON) //nolint
	return &ast.ThrowStmt{Token: tok, Value: val}
}

// try_stmt = "try" block { "catch" "(" IDENT [ IDENT ] ")" block } [ "finally" block ] ;
func (p *Parser) parseTryStmt() *ast.TryStmt {
	tok := p.cur
	p.advance()
	body := p.parseBlockStmt()

	var catches []ast.CatchClause
	for p.curIs(token.CATCH) {
		p.advance()
		p.expect(token.LPAREN) //nolint
		className := p.cur.Literal
		p.expect(token.IDENT) //nolint
		varName := ""
		if p.curIs(token.IDENT) {
			varName = p.cur.Literal
			p.advance()
		}
		p.expect(token.RPAREN) //nolint
		cbody := p.parseBlockStmt()
		catches = append(catches, ast.CatchClause{ClassName: className, Name: varName, Body: cbody})
	}

	var finallyBlock *ast.BlockStmt
	if p.curIs(token.FINALLY) {
		p.advance()
		finallyBlock = p.parseBlockStmt()
	}

	return &ast.TryStmt{Token: tok, Body: body, Catches: catches, Finally: finallyBlock}
}

// switch_stmt = "switch" "(" expr ")" "{" { case_clause } [ default_clause ] "}" ;
func (p *Parser) parseSwitchStmt() *ast.SwitchStmt {
	tok := p.cur
	p.advance()
	p.expect(token.LPAREN) //nolint
	subject := p.parseExpression(precLowest)
	p.expect(token.RPAREN) //nolint
	p.expect(token.LBRACE) //nolint

	var cases []ast.SwitchCase
	for p.curIs(token.CASE) || p.curIs(token.DEFAULT) {
		isDefault := p.curIs(token.DEFAULT)
		p.advance()
		var values []ast.Expression
		if !isDefault {
			values = append(values, p.parseExpression(precLowest))
			for p.curIs(token.COMMA) {
				p.advance()
				values = append(values, p.parseExpression(precLowest))
			}
		}
		p.expect(token.COLON) //nolint
		var body []ast.Statement
		for !p.curIs(token.CASE) && !p.curIs(token.DEFAULT) && !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			body = append(body, p.parseStatement())
		}
		cases = append(cases, ast.SwitchCase{Values: values, Body: body, IsDefault: isDefault})
	}
	p.expect(token.RBRACE) //nolint
	return &ast.SwitchStmt{Token: tok, Subject: subject, Cases: cases}
}

func (p *Parser) parseExprStmt() ast.Statement {
	tok := p.cur
	expr := p.parseExpression(precLowest)
	p.expect(token.SEMICOLON) //nolint
	return &ast.ExprStmt{Token: tok, Expr: expr}
}

// ---------------------------------------------------------------------------
// Expression parsing — Pratt / TDOP
// ---------------------------------------------------------------------------

func (p *Parser) parseExpression(prec precedence) ast.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for {
		infixPrec, hasInfix := infixPrecedence[p.cur.Type]
		if !hasInfix || infixPrec <= prec {
			break
		}
		left = p.parseInfix(left, infixPrec)
		if left == nil {
			break
		}
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expression {
	switch p.cur.Type {
	case token.INT:
		return p.parseIntLiteral()
	case token.FLOAT:
		return p.parseFloatLiteral()
	case token.STRING:
		return p.parseStringLiteral()
	case token.INTERPOLATION:
		return p.parseInterpolatedString()
	case token.TRUE:
		tok := p.cur
		p.advance()
		return &ast.BoolLiteral{Token: tok, Value: true}
	case token.FALSE:
		tok := p.cur
		p.advance()
		return &ast.BoolLiteral{Token: tok, Value: false}
	case token.NIL:
		tok := p.cur
		p.advance()
		return &ast.NilLiteral{Token: tok}
	case token.IDENT:
		tok := p.cur
		p.advance()
		return &ast.Identifier{Token: tok, Name: tok.Literal}
	case token.THIS:
		tok := p.cur
		p.advance()
		return &ast.ThisExpr{Token: tok}
	case token.SUPER:
		return p.parseSuperExpr()
	case token.NEW:
		return p.parseNewExpr()
	case token.MINUS, token.BANG, token.NOT:
		return p.parseUnaryExpr()
	case token.LPAREN:
		return p.parseGroupedExpr()
	case token.LBRACKET:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseDictLiteral()
	case token.FUN, token.ASYNC:
		return p.parseFunExpr()
	case token.YIELD:
		return p.parseYieldExpr()
	case token.AWAIT:
		return p.parseAwaitExpr()
	default:
		p.errorf(p.cur.Pos, "unexpected token %s (%q) in expression", p.cur.Type, p.cur.Literal)
		tok := p.cur
		p.advance()
		return &ast.Identifier{Token: tok, Name: tok.Literal}
	}
}

func (p *Parser) parseInfix(left ast.Expression, prec precedence) ast.Expression {
	switch p.cur.Type {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE:
		return p.parseBinaryExpr(left, prec)
	case token.AND, token.AND_KW, token.OR, token.OR_KW:
		return p.parseLogicalExpr(left, prec)
	case token.QQ:
		tok := p.cur
		p.advance()
		right := p.parseExpression(prec)
		return &ast.NilCoalescingExpr{Token: tok, Left: left, Right: right}
	case token.ELVIS:
		tok := p.cur
		p.advance()
		right := p.parseExpression(prec)
		return &ast.ElvisExpr{Token: tok, Left: left, Right: right}
	case token.QUESTION:
		return p.parseTernaryExpr(left)
	case token.DOTDOT:
		tok := p.cur
		p.advance()
		right := p.parseExpression(prec)
		return &ast.RangeExpr{Token: tok, From: left, To: right}
	case token.DOT:
		return p.parseGetExpr(left, false)
	case token.QDOT:
		return p.parseGetExpr(left, true)
	case token.LBRACKET:
		return p.parseSubscriptExpr(left)
	case token.LPAREN:
		return p.parseCallExpr(left)
	case token.ASSIGN, token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ:
		return p.parseAssignExpr(left)
	default:
		return left
	}
}

func (p *Parser) parseBinaryExpr(left ast.Expression, prec precedence) ast.Expression {
	tok := p.cur
	op := p.cur.Literal
	p.advance()
	right := p.parseExpression(prec)
	return &ast.BinaryExpr{Token: tok, Operator: op, Left: left, Right: right}
}

func (p *Parser) parseLogicalExpr(left ast.Expression, prec precedence) ast.Expression {
	tok := p.cur
	op := p.cur.Literal
	p.advance()
	right := p.parseExpression(prec)
	return &ast.LogicalExpr{Token: tok, Operator: op, Left: left, Right: right}
}

func (p *Parser) parseTernaryExpr(cond ast.Expression) ast.Expression {
	tok := p.cur
	p.advance()
	then := p.parseExpression(precTernary)
	p.expect(token.COLON) //nolint
	els := p.parseExpression(precTernary)
	return &ast.TernaryExpr{Token: tok, Condition: cond, Then: then, Else: els}
}

func (p *Parser) parseGetExpr(left ast.Expression, optional bool) ast.Expression {
	tok := p.cur
	p.advance()
	name := p.cur.Literal
	if !p.curIs(token.IDENT) {
		p.errorf(p.cur.Pos, "expected property name, got %s", p.cur.Type)
		return left
	}
	p.advance()
	return &ast.GetExpr{Token: tok, Object: left, Name: name, Optional: optional}
}

func (p *Parser) parseSubscriptExpr(left ast.Expression) ast.Expression {
	tok := p.cur
	p.advance()
	idx := p.parseExpression(precLowest)
	p.expect(token.RBRACKET) //nolint
	return &ast.SubscriptExpr{Token: tok, Object: left, Index: idx}
}

func (p *Parser) parseCallExpr(left ast.Expression) ast.Expression {
	tok := p.cur
	p.advance()
	args := p.parseArgList()
	p.expect(token.RPAREN) //nolint
	return &ast.CallExpr{Token: tok, Callee: left, Args: args}
}

func (p *Parser) parseArgList() []ast.Expression {
	var args []ast.Expression
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseExpression(precLowest))
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return args
}

func (p *Parser) parseAssignExpr(left ast.Expression) ast.Expression {
	tok := p.cur
	op := p.cur.Literal
	p.advance()
	val := p.parseExpression(precAssign - 1) // right-associative
	return &ast.AssignExpr{Token: tok, Target: left, Op: op, Value: val}
}

func (p *Parser) parseUnaryExpr() ast.Expression {
	tok := p.cur
	op := p.cur.Literal
	p.advance()
	operand := p.parseExpression(precUnary)
	return &ast.UnaryExpr{Token: tok, Operator: op, Operand: operand}
}

func (p *Parser) parseGroupedExpr() ast.Expression {
	p.advance()
	expr := p.parseExpression(precLowest)
	p.expect(token.RPAREN) //nolint
	return expr
}

func (p *Parser) parseArrayLiteral() *ast.ArrayLiteral {
	tok := p.cur
	p.advance()
	var elems []ast.Expression
	for !p.curIs(token.RBRACKET) && !p.curIs(token.EOF) {
		elems = append(elems, p.parseExpression(precLowest))
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACKET) //nolint
	return &ast.ArrayLiteral{Token: tok, Elements: elems}
}

func (p *Parser) parseDictLiteral() *ast.DictLiteral {
	tok := p.cur
	p.advance()
	var entries []ast.DictEntry
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		key := p.parseExpression(precTernary)
		p.expect(token.COLON) //nolint
		val := p.parseExpression(precLowest)
		entries = append(entries, ast.DictEntry{Key: key, Value: val})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACE) //nolint
	return &ast.DictLiteral{Token: tok, Entries: entries}
}

func (p *Parser) parseSuperExpr() *ast.SuperExpr {
	tok := p.cur
	p.advance()
	p.expect(token.DOT) //nolint
	method := p.cur.Literal
	p.expect(token.IDENT) //nolint
	return &ast.SuperExpr{Token: tok, Method: method}
}

// parseNewExpr parses "new" class_ref ["." IDENT]* "(" args ")". The class
// reference is walked by hand (rather than through parseExpression) because
// LPAREN shares precCall with the preceding GetExpr chain, which would stop
// the Pratt loop one token short of consuming the constructor's argument
// list.
func (p *Parser) parseNewExpr() *ast.NewExpr {
	tok := p.cur
	p.advance()

	nameTok := p.cur
	var class ast.Expression = &ast.Identifier{Token: nameTok, Name: p.cur.Literal}
	p.expect(token.IDENT) //nolint
	for p.curIs(token.DOT) {
		dotTok := p.cur
		p.advance()
		field := p.cur.Literal
		p.expect(token.IDENT) //nolint
		class = &ast.GetExpr{Token: dotTok, Object: class, Name: field}
	}

	var args []ast.Expression
	if p.curIs(token.LPAREN) {
		p.advance()
		args = p.parseArgList()
		p.expect(token.RPAREN) //nolint
	}
	return &ast.NewExpr{Token: tok, Class: class, Args: args}
}

func (p *Parser) parseFunExpr() *ast.FunExpr {
	mods := Modifiers(0)
	if p.curIs(token.ASYNC) {
		mods |= ast.ModAsync
		p.advance()
	}
	tok := p.cur
	p.expect(token.FUN) //nolint

	name := ""
	if p.curIs(token.IDENT) {
		name = p.cur.Literal
		p.advance()
	} else {
		mods |= ast.ModLambda
	}

	params := p.parseParamList()
	body := p.parseBlockStmt()
	if containsYield(body) {
		mods |= ast.ModGenerator
	}
	return &ast.FunExpr{Token: tok, Name: name, Params: params, Body: body, Modifiers: mods}
}

func (p *Parser) parseYieldExpr() *ast.YieldExpr {
	tok := p.cur
	p.advance()
	from := false
	if p.curIs(token.IDENT) && p.cur.Literal == "from" {
		from = true
		p.advance()
	}
	var val ast.Expression
	if !p.curIs(token.SEMICOLON) && !p.curIs(token.RPAREN) && !p.curIs(token.RBRACE) && !p.curIs(token.COMMA) {
		val = p.parseExpression(precTernary)
	}
	return &ast.YieldExpr{Token: tok, Value: val, From: from}
}

func (p *Parser) parseAwaitExpr() *ast.AwaitExpr {
	tok := p.cur
	p.advance()
	val := p.parseExpression(precUnary)
	return &ast.AwaitExpr{Token: tok, Value: val}
}

func (p *Parser) parseInterpolatedString() *ast.InterpolatedString {
	tok := p.cur
	is := &ast.InterpolatedString{Token: tok}
	for {
		is.Parts = append(is.Parts, p.cur.Literal)
		isLast := p.cur.Type == token.STRING
		p.advance()
		if isLast {
			break
		}
		expr := p.parseExpression(precLowest)
		is.Exprs = append(is.Exprs, expr)
		if !p.curIs(token.INTERPOLATION) && !p.curIs(token.STRING) {
			p.errorf(p.cur.Pos, "expected continuation of interpolated string, got %s", p.cur.Type)
			break
		}
	}
	return is
}

// ---------------------------------------------------------------------------
// Literal parsers
// ---------------------------------------------------------------------------

func (p *Parser) parseIntLiteral() *ast.IntLiteral {
	tok := p.cur
	val, err := strconv.ParseInt(tok.Literal, 10, 32)
	if err != nil {
		p.errorf(tok.Pos, "integer literal %q overflows: %v", tok.Literal, err)
	}
	p.advance()
	return &ast.IntLiteral{Token: tok, Value: int32(val)}
}

func (p *Parser) parseFloatLiteral() *ast.FloatLiteral {
	tok := p.cur
	val, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errorf(tok.Pos, "invalid float literal %q: %v", tok.Literal, err)
	}
	p.advance()
	return &ast.FloatLiteral{Token: tok, Value: val}
}

func (p *Parser) parseStringLiteral() *ast.StringLiteral {
	tok := p.cur
	p.advance()
	return &ast.StringLiteral{Token: tok, Value: tok.Literal}
}
