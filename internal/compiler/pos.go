package compiler

import "github.com/vela-lang/vela/internal/ast"

// line extracts the source line a node was parsed from, for attaching to
// emitted bytecode (the chunk's per-byte line table, used by stack traces
// and the disassembler). Every leaf node in this package's AST embeds a
// token.Token; this switch is the one place that knowledge is centralized.
func line(n ast.Node) int {
	switch v := n.(type) {
	case *ast.ExprStmt:
		return v.Token.Pos.Line
	case *ast.VarStmt:
		return v.Token.Pos.Line
	case *ast.BlockStmt:
		return v.Token.Pos.Line
	case *ast.IfStmt:
		return v.Token.Pos.Line
	case *ast.WhileStmt:
		return v.Token.Pos.Line
	case *ast.ForStmt:
		return v.Token.Pos.Line
	case *ast.BreakStmt:
		return v.Token.Pos.Line
	case *ast.ContinueStmt:
		return v.Token.Pos.Line
	case *ast.ReturnStmt:
		return v.Token.Pos.Line
	case *ast.ThrowStmt:
		return v.Token.Pos.Line
	case *ast.TryStmt:
		return v.Token.Pos.Line
	case *ast.SwitchStmt:
		return v.Token.Pos.Line
	case *ast.IntLiteral:
		return v.Token.Pos.Line
	case *ast.FloatLiteral:
		return v.Token.Pos.Line
	case *ast.StringLiteral:
		return v.Token.Pos.Line
	case *ast.BoolLiteral:
		return v.Token.Pos.Line
	case *ast.NilLiteral:
		return v.Token.Pos.Line
	case *ast.InterpolatedString:
		return v.Token.Pos.Line
	case *ast.Identifier:
		return v.Token.Pos.Line
	case *ast.ThisExpr:
		return v.Token.Pos.Line
	case *ast.SuperExpr:
		return v.Token.Pos.Line
	case *ast.ArrayLiteral:
		return v.Token.Pos.Line
	case *ast.DictLiteral:
		return v.Token.Pos.Line
	case *ast.RangeExpr:
		return v.Token.Pos.Line
	case *ast.UnaryExpr:
		return v.Token.Pos.Line
	case *ast.BinaryExpr:
		return v.Token.Pos.Line
	case *ast.LogicalExpr:
		return v.Token.Pos.Line
	case *ast.NilCoalescingExpr:
		return v.Token.Pos.Line
	case *ast.ElvisExpr:
		return v.Token.Pos.Line
	case *ast.TernaryExpr:
		return v.Token.Pos.Line
	case *ast.AssignExpr:
		return v.Token.Pos.Line
	case *ast.CallExpr:
		return v.Token.Pos.Line
	case *ast.GetExpr:
		return v.Token.Pos.Line
	case *ast.SubscriptExpr:
		return v.Token.Pos.Line
	case *ast.FunExpr:
		return v.Token.Pos.Line
	case *ast.YieldExpr:
		return v.Token.Pos.Line
	case *ast.AwaitExpr:
		return v.Token.Pos.Line
	case *ast.NewExpr:
		return v.Token.Pos.Line
	case *ast.FunDecl:
		return v.Token.Pos.Line
	case *ast.ClassDecl:
		return v.Token.Pos.Line
	case *ast.NamespaceDecl:
		return v.Token.Pos.Line
	case *ast.UsingDecl:
		return v.Token.Pos.Line
	case *ast.RequireDecl:
		return v.Token.Pos.Line
	default:
		return 0
	}
}
