package compiler

import (
	"github.com/vela-lang/vela/internal/ast"
	"github.com/vela-lang/vela/internal/bytecode"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

func (c *Compiler) compileExpr(e ast.Expression) {
	ln := line(e)
	switch n := e.(type) {
	case *ast.IntLiteral:
		c.emitConstant(value.Int(int64(n.Value)), ln)
	case *ast.FloatLiteral:
		c.emitConstant(value.Float(n.Value), ln)
	case *ast.StringLiteral:
		c.emitConstant(value.Object(c.strings.Intern(n.Value)), ln)
	case *ast.BoolLiteral:
		if n.Value {
			c.emitOp(bytecode.OpTrue, ln)
		} else {
			c.emitOp(bytecode.OpFalse, ln)
		}
	case *ast.NilLiteral:
		c.emitOp(bytecode.OpNil, ln)
	case *ast.InterpolatedString:
		c.compileInterpolatedString(n)
	case *ast.Identifier:
		c.compileNameGet(n.Name, ln)
	case *ast.ThisExpr:
		c.compileNameGet("this", ln)
	case *ast.SuperExpr:
		c.compileSuperGet(n, ln)
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			c.compileExpr(el)
		}
		c.emitOp(bytecode.OpArray, ln)
		c.emitByte(byte(len(n.Elements)), ln)
	case *ast.DictLiteral:
		for _, en := range n.Entries {
			c.compileExpr(en.Key)
			c.compileExpr(en.Value)
		}
		c.emitOp(bytecode.OpDictionary, ln)
		c.emitByte(byte(len(n.Entries)), ln)
	case *ast.RangeExpr:
		c.compileExpr(n.From)
		c.compileExpr(n.To)
		c.emitOp(bytecode.OpRange, ln)
	case *ast.UnaryExpr:
		c.compileExpr(n.Operand)
		switch n.Operator {
		case "-":
			c.emitOp(bytecode.OpNegate, ln)
		case "!", "not":
			c.emitOp(bytecode.OpNot, ln)
		}
	case *ast.BinaryExpr:
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.emitBinaryOp(n.Operator, ln)
	case *ast.LogicalExpr:
		c.compileLogical(n, ln)
	case *ast.NilCoalescingExpr:
		// Left is kept as the result when not nil (peek-only JUMP_IF_EMPTY
		// leaves it on the stack); the empty branch discards it and
		// evaluates Right instead, matching the if/while jump discipline.
		c.compileExpr(n.Left)
		emptyJmp := c.emitJump(bytecode.OpJumpIfEmpty, ln)
		skipJmp := c.emitJump(bytecode.OpJump, ln)
		c.patchJump(emptyJmp)
		c.emitOp(bytecode.OpPop, ln)
		c.compileExpr(n.Right)
		c.patchJump(skipJmp)
	case *ast.ElvisExpr:
		c.compileExpr(n.Left)
		falseJmp := c.emitJump(bytecode.OpJumpIfFalse, ln)
		skipJmp := c.emitJump(bytecode.OpJump, ln)
		c.patchJump(falseJmp)
		c.emitOp(bytecode.OpPop, ln)
		c.compileExpr(n.Right)
		c.patchJump(skipJmp)
	case *ast.TernaryExpr:
		c.compileExpr(n.Condition)
		thenJmp := c.emitJump(bytecode.OpJumpIfFalse, ln)
		c.emitOp(bytecode.OpPop, ln)
		c.compileExpr(n.Then)
		elseJmp := c.emitJump(bytecode.OpJump, ln)
		c.patchJump(thenJmp)
		c.emitOp(bytecode.OpPop, ln)
		c.compileExpr(n.Else)
		c.patchJump(elseJmp)
	case *ast.AssignExpr:
		c.compileAssign(n, ln)
	case *ast.CallExpr:
		c.compileCall(n, ln)
	case *ast.GetExpr:
		c.compileExpr(n.Object)
		idx := c.chunk().AddIdentifier(n.Name)
		if n.Optional {
			c.emitOpUint16(bytecode.OpGetPropertyOptional, idx, ln)
		} else {
			c.emitOpUint16(bytecode.OpGetProperty, idx, ln)
		}
	case *ast.SubscriptExpr:
		c.compileExpr(n.Object)
		c.compileExpr(n.Index)
		if n.Optional {
			c.emitOp(bytecode.OpGetSubscriptOptional, ln)
		} else {
			c.emitOp(bytecode.OpGetSubscript, ln)
		}
	case *ast.FunExpr:
		c.compileFunctionLiteral(n.Name, n.Params, n.Body, n.Modifiers, ln)
	case *ast.YieldExpr:
		if n.Value != nil {
			c.compileExpr(n.Value)
		} else {
			c.emitOp(bytecode.OpNil, ln)
		}
		if n.From {
			c.emitOp(bytecode.OpYieldFrom, ln)
		} else {
			c.emitOp(bytecode.OpYield, ln)
		}
	case *ast.AwaitExpr:
		c.compileExpr(n.Value)
		c.emitOp(bytecode.OpAwait, ln)
	case *ast.NewExpr:
		c.compileExpr(n.Class)
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		c.emitOp(bytecode.OpCall, ln)
		c.emitByte(byte(len(n.Args)), ln)
	default:
		c.errorf("compiler: unsupported expression node %T", e)
	}
}

func (c *Compiler) emitBinaryOp(op string, ln int) {
	switch op {
	case "+":
		c.emitOp(bytecode.OpAdd, ln)
	case "-":
		c.emitOp(bytecode.OpSubtract, ln)
	case "*":
		c.emitOp(bytecode.OpMultiply, ln)
	case "/":
		c.emitOp(bytecode.OpDivide, ln)
	case "%":
		c.emitOp(bytecode.OpModulo, ln)
	case "==":
		c.emitOp(bytecode.OpEqual, ln)
	case "!=":
		c.emitOp(bytecode.OpEqual, ln)
		c.emitOp(bytecode.OpNot, ln)
	case "<":
		c.emitOp(bytecode.OpLess, ln)
	case "<=":
		c.emitOp(bytecode.OpGreater, ln)
		c.emitOp(bytecode.OpNot, ln)
	case ">":
		c.emitOp(bytecode.OpGreater, ln)
	case ">=":
		c.emitOp(bytecode.OpLess, ln)
		c.emitOp(bytecode.OpNot, ln)
	default:
		c.errorf("compiler: unknown binary operator %q", op)
	}
}

// compileLogical emits the short-circuit JUMP_IF_FALSE/JUMP-and-pop
// pattern used for `and`/`or`.
func (c *Compiler) compileLogical(n *ast.LogicalExpr, ln int) {
	c.compileExpr(n.Left)
	switch n.Operator {
	case "&&", "and":
		endJmp := c.emitJump(bytecode.OpJumpIfFalse, ln)
		c.emitOp(bytecode.OpPop, ln)
		c.compileExpr(n.Right)
		c.patchJump(endJmp)
	case "||", "or":
		elseJmp := c.emitJump(bytecode.OpJumpIfFalse, ln)
		endJmp := c.emitJump(bytecode.OpJump, ln)
		c.patchJump(elseJmp)
		c.emitOp(bytecode.OpPop, ln)
		c.compileExpr(n.Right)
		c.patchJump(endJmp)
	default:
		c.errorf("compiler: unknown logical operator %q", n.Operator)
	}
}

// compileInterpolatedString emits each literal part as a string constant
// and each embedded expression followed by a `toString` INVOKE, joining
// all pieces left-to-right with ADD.
func (c *Compiler) compileInterpolatedString(n *ast.InterpolatedString) {
	ln := line(n)
	toStringIdx := c.chunk().AddIdentifier("toString")
	emitted := false
	emitPart := func(s string) {
		if s == "" && emitted {
			return
		}
		c.emitConstant(value.Object(c.strings.Intern(s)), ln)
		if emitted {
			c.emitOp(bytecode.OpAdd, ln)
		}
		emitted = true
	}
	for i, part := range n.Parts {
		emitPart(part)
		if i < len(n.Exprs) {
			c.compileExpr(n.Exprs[i])
			c.emitOp(bytecode.OpInvoke, ln)
			c.emitUint16(toStringIdx, ln)
			c.emitByte(0, ln)
			if emitted {
				c.emitOp(bytecode.OpAdd, ln)
			} else {
				emitted = true
			}
		}
	}
	if !emitted {
		c.emitConstant(value.Object(c.strings.Intern("")), ln)
	}
}

// compileNameGet resolves name as local, upvalue, or global and emits the
// matching GET opcode.
func (c *Compiler) compileNameGet(name string, ln int) {
	if slot := c.resolveLocal(c.current, name); slot != -1 {
		c.emitOp(bytecode.OpGetLocal, ln)
		c.emitByte(byte(slot), ln)
		return
	}
	if slot := c.resolveUpvalue(c.current, name); slot != -1 {
		c.emitOp(bytecode.OpGetUpvalue, ln)
		c.emitByte(byte(slot), ln)
		return
	}
	idx := c.chunk().AddIdentifier(name)
	c.emitOpUint16(bytecode.OpGetGlobal, idx, ln)
}

func (c *Compiler) compileNameSet(name string, ln int) {
	if slot := c.resolveLocal(c.current, name); slot != -1 {
		c.emitOp(bytecode.OpSetLocal, ln)
		c.emitByte(byte(slot), ln)
		return
	}
	if slot := c.resolveUpvalue(c.current, name); slot != -1 {
		c.emitOp(bytecode.OpSetUpvalue, ln)
		c.emitByte(byte(slot), ln)
		return
	}
	idx := c.chunk().AddIdentifier(name)
	c.emitOpUint16(bytecode.OpSetGlobal, idx, ln)
}

func (c *Compiler) compileSuperGet(n *ast.SuperExpr, ln int) {
	c.compileNameGet("this", ln)
	c.compileNameGet("super", ln)
	idx := c.chunk().AddIdentifier(n.Method)
	c.emitOpUint16(bytecode.OpGetSuper, idx, ln)
}

// compileAssign handles `=`, `+=`, `-=`, `*=`, `/=` against an Identifier,
// GetExpr, or SubscriptExpr target.
func (c *Compiler) compileAssign(n *ast.AssignExpr, ln int) {
	compound := n.Op != "="
	var compoundOp string
	switch n.Op {
	case "+=":
		compoundOp = "+"
	case "-=":
		compoundOp = "-"
	case "*=":
		compoundOp = "*"
	case "/=":
		compoundOp = "/"
	}

	switch target := n.Target.(type) {
	case *ast.Identifier:
		if compound {
			c.compileNameGet(target.Name, ln)
			c.compileExpr(n.Value)
			c.emitBinaryOp(compoundOp, ln)
		} else {
			c.compileExpr(n.Value)
		}
		c.compileNameSet(target.Name, ln)

	case *ast.GetExpr:
		c.compileExpr(target.Object)
		idx := c.chunk().AddIdentifier(target.Name)
		if compound {
			c.emitOp(bytecode.OpDup, ln)
			c.emitOpUint16(bytecode.OpGetProperty, idx, ln)
			c.compileExpr(n.Value)
			c.emitBinaryOp(compoundOp, ln)
		} else {
			c.compileExpr(n.Value)
		}
		c.emitOpUint16(bytecode.OpSetProperty, idx, ln)

	case *ast.SubscriptExpr:
		if compound {
			c.compileExpr(target.Object)
			objSlot := c.pushTemp()
			c.compileExpr(target.Index)
			idxSlot := c.pushTemp()
			c.emitOp(bytecode.OpGetLocal, ln)
			c.emitByte(byte(objSlot), ln)
			c.emitOp(bytecode.OpGetLocal, ln)
			c.emitByte(byte(idxSlot), ln)
			c.emitOp(bytecode.OpGetSubscript, ln)
			c.compileExpr(n.Value)
			c.emitBinaryOp(compoundOp, ln)
			// stack is now [obj, index, result]; SetSubscript consumes all
			// three, so the temp slots need no separate cleanup.
			c.emitOp(bytecode.OpSetSubscript, ln)
			c.dropTemps(2)
		} else {
			c.compileExpr(target.Object)
			c.compileExpr(target.Index)
			c.compileExpr(n.Value)
			c.emitOp(bytecode.OpSetSubscript, ln)
		}

	default:
		c.errorf("compiler: invalid assignment target %T", n.Target)
	}
}

func (c *Compiler) compileCall(n *ast.CallExpr, ln int) {
	if get, ok := n.Callee.(*ast.GetExpr); ok {
		c.compileExpr(get.Object)
		idx := c.chunk().AddIdentifier(get.Name)
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		if n.Optional || get.Optional {
			c.emitOp(bytecode.OpOptionalInvoke, ln)
		} else {
			c.emitOp(bytecode.OpInvoke, ln)
		}
		c.emitUint16(idx, ln)
		c.emitByte(byte(len(n.Args)), ln)
		return
	}
	if sup, ok := n.Callee.(*ast.SuperExpr); ok {
		c.compileNameGet("this", ln)
		c.compileNameGet("super", ln)
		idx := c.chunk().AddIdentifier(sup.Method)
		for _, a := range n.Args {
			c.compileExpr(a)
		}
		c.emitOp(bytecode.OpSuperInvoke, ln)
		c.emitUint16(idx, ln)
		c.emitByte(byte(len(n.Args)), ln)
		return
	}
	c.compileExpr(n.Callee)
	for _, a := range n.Args {
		c.compileExpr(a)
	}
	if n.Optional {
		c.emitOp(bytecode.OpOptionalCall, ln)
	} else {
		c.emitOp(bytecode.OpCall, ln)
	}
	c.emitByte(byte(len(n.Args)), ln)
}

// compileFunctionLiteral compiles a nested function body into its own
// Function/Chunk, pushed as a closure constant followed by its upvalue
// capture descriptors, per clox's CLOSURE emission.
func (c *Compiler) compileFunctionLiteral(name string, params []ast.Param, body *ast.BlockStmt, mods ast.Modifiers, ln int) {
	kind := kindFunction
	if mods.Has(ast.ModInitializer) {
		kind = kindInitializer
	} else if mods.Has(ast.ModLambda) || name == "" {
		kind = kindLambda
	} else if c.current.class != nil {
		kind = kindMethod
	}

	required := 0
	variadic := false
	for _, p := range params {
		if p.Variadic {
			variadic = true
			continue
		}
		if p.Default == nil {
			required++
		}
	}
	fnName := name
	if fnName == "" {
		fnName = "<anonymous>"
	}
	fn := object.NewFunction(fnName, required)
	fn.ParamCount = len(params)
	if variadic {
		fn.Arity = -(required + 1)
	}
	fn.IsAsync = mods.Has(ast.ModAsync)
	fn.IsGenerator = containsYield(body)

	enclosing := c.current
	c.current = &funcState{enclosing: enclosing, function: fn, kind: kind, class: enclosing.class}
	c.beginScope()

	// Slot 0 is always reserved for the callee's own stack slot: "this" for
	// methods and initializers, an unnamed placeholder otherwise, matching
	// the reference compiler's convention so CALL and INVOKE share one
	// frame-base addressing scheme regardless of call kind.
	if kind == kindMethod || kind == kindInitializer {
		c.addLocal("this")
	} else {
		c.addLocal("")
	}
	c.markInitialized()
	for _, p := range params {
		c.declareLocal(p.Name)
		c.markInitialized()
	}
	for _, stmt := range body.Stmts {
		c.compileStatement(stmt)
	}
	c.emitReturn()

	upvalues := c.current.upvalues
	c.current = enclosing

	idx := c.chunk().AddConstant(value.Object(fn))
	c.emitOpUint16(bytecode.OpClosure, idx, ln)
	for _, u := range upvalues {
		if u.isLocal {
			c.emitByte(1, ln)
		} else {
			c.emitByte(0, ln)
		}
		c.emitByte(byte(u.index), ln)
	}
}

// containsYield shallow-walks body (not descending into nested function
// literals) looking for a YieldExpr, classifying the enclosing function as
// a generator purely from its body contents, matching the parser's own
// inference rule.
func containsYield(body *ast.BlockStmt) bool {
	found := false
	var walkStmt func(ast.Statement)
	var walkExpr func(ast.Expression)

	walkExpr = func(e ast.Expression) {
		if found || e == nil {
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
		case *ast.AwaitExpr:
			walkExpr(n.Value)
		case *ast.ArrayLiteral:
			for _, el := range n.Elements {
				walkExpr(el)
			}
		case *ast.InterpolatedString:
			for _, ex := range n.Exprs {
				walkExpr(ex)
			}
		}
	}
	walkStmt = func(s ast.Statement) {
		if found || s == nil {
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
			for _, cl := range n.Catches {
				walkStmt(cl.Body)
			}
			if n.Finally != nil {
				walkStmt(n.Finally)
			}
		case *ast.SwitchStmt:
			walkExpr(n.Subject)
			for _, cs := range n.Cases {
				for _, st := range cs.Body {
					walkStmt(st)
				}
			}
		}
	}
	for _, st := range body.Stmts {
		walkStmt(st)
		if found {
			break
		}
	}
	return found
}
