package compiler

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/ir"
	"loom/internal/scope"
	"loom/internal/types"
)

func (c *Compiler) compileStmt(n ast.NodeID) {
	if n == 0 {
		return
	}
	node := c.node(n)
	switch node.Kind {
	case ast.Block:
		c.compileBlock(n)
	case ast.VarDecl:
		c.compileVarDecl(n)
	case ast.ExprStmt:
		c.compileExpr(node.RValue)
	case ast.If:
		c.compileIf(n)
	case ast.While:
		c.compileWhile(n)
	case ast.DoWhile:
		c.compileDoWhile(n)
	case ast.For:
		c.compileFor(n)
	case ast.Break:
		c.compileBreak(n)
	case ast.Continue:
		c.compileContinue(n)
	case ast.Return:
		c.compileReturn(n)
	case ast.Switch:
		c.compileSwitch(n)
	case ast.PlacementNew:
		c.compilePlacementNew(n)
	case ast.ClassDecl:
		c.installClassStub(n)
		c.compileDeclBody(n)
	case ast.FunctionDecl:
		c.installFunctionStub(n, types.NoTypeID)
		c.compileDeclBody(n)
	case ast.TypeAlias:
		c.installTypeAlias(n)
	case ast.TryCatch, ast.Throw:
		c.errorf(diag.ResWrongSymbolKind, n, "exception handling is not supported")
	case ast.ImportDecl, ast.ExportDecl:
		c.errorf(diag.ResImportOutsideRoot, n, "%s is only valid at module scope", node.Kind)
	default:
		c.errorf(diag.ResWrongSymbolKind, n, "unsupported statement form %s", node.Kind)
	}
}

func (c *Compiler) compileBlock(n ast.NodeID) {
	node := c.node(n)
	c.scopes.Push(scope.ScopeBlock)
	for _, st := range c.Tree.Siblings(node.Body) {
		c.compileStmt(st)
	}
	closed := c.scopes.Pop()
	c.emitScopeExit(closed, n, true)
}

func (c *Compiler) compileVarDecl(n ast.NodeID) {
	node := c.node(n)
	lvNode := c.node(node.LValue)
	if lvNode.Kind == ast.Decompositor {
		c.compileDecompositorDecl(n, node, lvNode)
		return
	}
	name := lvNode.Text
	isConst := modifierHas(c.Tree, node.Modifier, "const")

	declaredType := types.NoTypeID
	if node.DataType != 0 {
		declaredType = c.resolveTypeSpecifier(node.DataType)
	}

	if node.Initializer != 0 {
		val := c.compileExpr(node.Initializer)
		if declaredType == types.NoTypeID {
			declaredType = val.Type
		}
		if c.isPrimitive(declaredType) {
			v := c.convertTo(val, declaredType)
			reg := c.code.NewReg()
			c.code.Append(ir.Instruction{Op: ir.OpResolve, A: ir.Reg(reg, declaredType), B: v, Src: c.Tree.Range(n)})
			c.scopes.Declare(scope.Symbol{Name: name, Kind: scope.KindValue, Type: declaredType, Value: localValue{reg: reg, isConst: isConst}})
		} else {
			// The initializer already evaluated to an address (NewExpr,
			// a non-primitive call return, or a non-primitive member
			// load) — this declaration just names that same location;
			// whichever expression produced it already registered it
			// for destructor tracking in this scope.
			c.scopes.Declare(scope.Symbol{Name: name, Kind: scope.KindValue, Type: declaredType, Value: localValue{reg: val.Reg, isConst: isConst}})
		}
		return
	}

	if declaredType == types.NoTypeID {
		c.errorf(diag.ResTypeExpected, n, "variable %q needs a type annotation or an initializer", name)
		return
	}
	if c.isPrimitive(declaredType) {
		reg := c.code.NewReg()
		c.code.Append(ir.Instruction{Op: ir.OpResolve, A: ir.Reg(reg, declaredType), B: ir.ImmInt(0, declaredType), Src: c.Tree.Range(n)})
		c.scopes.Declare(scope.Symbol{Name: name, Kind: scope.KindValue, Type: declaredType, Value: localValue{reg: reg, isConst: isConst}})
		return
	}
	dest := c.allocateTemp(declaredType, n)
	c.constructObject(n, dest, declaredType, nil)
	c.scopes.Declare(scope.Symbol{Name: name, Kind: scope.KindValue, Type: declaredType, Value: localValue{reg: dest.Reg, isConst: isConst}})
}

// compileDecompositorDecl compiles `let { a, b: renamed } = obj;`: obj is
// evaluated once, then each pattern field is bound as its own scope value
// via the same primitive/non-primitive split compileVarDecl uses for a
// plain declaration. A non-primitive field aliases obj's own storage the
// same way memberLValue does — its destructor runs as part of obj's, not
// a second time on its own.
func (c *Compiler) compileDecompositorDecl(n ast.NodeID, node *ast.Node, lvNode *ast.Node) {
	if node.Initializer == 0 {
		c.errorf(diag.ResTypeExpected, n, "a decompositor declaration requires an initializer")
		return
	}
	isConst := modifierHas(c.Tree, node.Modifier, "const")
	objOp := c.compileExpr(node.Initializer)
	objType := c.Types.GetEffectiveType(objOp.Type)

	for _, fieldID := range c.Tree.Siblings(lvNode.Body) {
		field := c.node(fieldID)
		sourceName := field.Text
		bindName := sourceName
		if field.Alias != 0 {
			bindName = c.node(field.Alias).Text
		}

		prop, owner, ok := c.Types.FindProperty(objType, sourceName)
		if !ok {
			c.errorf(diag.ResIdentifierNotFound, fieldID, "no property %q", sourceName)
			continue
		}
		if prop.Access == types.AccessPrivate && c.curClass != owner {
			c.errorf(diag.ResPrivateAccess, fieldID, "%q is private", sourceName)
		}

		i32 := c.Types.Builtins.I32
		if c.isPrimitive(prop.Type) {
			loaded := c.newReg(prop.Type)
			c.code.Append(ir.Instruction{Op: ir.OpLoad, A: loaded, B: objOp, C: ir.ImmInt(int64(prop.Offset), i32), Src: c.Tree.Range(fieldID)})
			reg := c.code.NewReg()
			c.code.Append(ir.Instruction{Op: ir.OpResolve, A: ir.Reg(reg, prop.Type), B: loaded, Src: c.Tree.Range(fieldID)})
			c.scopes.Declare(scope.Symbol{Name: bindName, Kind: scope.KindValue, Type: prop.Type, Value: localValue{reg: reg, isConst: isConst}})
			continue
		}

		addr := c.addrAdd(objOp, prop.Offset, prop.Type)
		c.scopes.Declare(scope.Symbol{Name: bindName, Kind: scope.KindValue, Type: prop.Type, Value: localValue{reg: addr.Reg, isConst: isConst}})
	}
}

func (c *Compiler) compileIf(n ast.NodeID) {
	node := c.node(n)
	cond := c.compileExpr(node.Cond)
	thenLabel := c.code.NewLabel()
	elseLabel := c.code.NewLabel()
	endLabel := c.code.NewLabel()

	if node.ElseBody != 0 {
		c.code.Append(ir.Instruction{Op: ir.OpBranch, A: cond, L1: thenLabel, L2: elseLabel, Src: c.Tree.Range(n)})
	} else {
		c.code.Append(ir.Instruction{Op: ir.OpBranch, A: cond, L1: thenLabel, L2: endLabel, Src: c.Tree.Range(n)})
	}

	c.code.DefineLabel(thenLabel)
	c.compileStmt(node.Body)
	c.code.Append(ir.Instruction{Op: ir.OpJump, L1: endLabel})

	if node.ElseBody != 0 {
		c.code.DefineLabel(elseLabel)
		c.compileStmt(node.ElseBody)
	}
	c.code.DefineLabel(endLabel)
}

func (c *Compiler) compileWhile(n ast.NodeID) {
	node := c.node(n)
	condLabel := c.code.NewLabel()
	bodyLabel := c.code.NewLabel()
	endLabel := c.code.NewLabel()

	c.code.DefineLabel(condLabel)
	cond := c.compileExpr(node.Cond)
	c.code.Append(ir.Instruction{Op: ir.OpBranch, A: cond, L1: bodyLabel, L2: endLabel, Src: c.Tree.Range(n)})

	c.code.DefineLabel(bodyLabel)
	loopScope := c.scopes.Push(scope.ScopeLoop)
	c.loopEnds = append(c.loopEnds, loopCtx{breakLabel: endLabel, continueLabel: condLabel, scope: loopScope})
	c.compileStmt(node.Body)
	c.loopEnds = c.loopEnds[:len(c.loopEnds)-1]
	closed := c.scopes.Pop()
	c.emitScopeExit(closed, n, true)
	c.code.Append(ir.Instruction{Op: ir.OpJump, L1: condLabel})

	c.code.DefineLabel(endLabel)
}

func (c *Compiler) compileDoWhile(n ast.NodeID) {
	node := c.node(n)
	bodyLabel := c.code.NewLabel()
	condLabel := c.code.NewLabel()
	endLabel := c.code.NewLabel()

	c.code.DefineLabel(bodyLabel)
	loopScope := c.scopes.Push(scope.ScopeLoop)
	c.loopEnds = append(c.loopEnds, loopCtx{breakLabel: endLabel, continueLabel: condLabel, scope: loopScope})
	c.compileStmt(node.Body)
	c.loopEnds = c.loopEnds[:len(c.loopEnds)-1]
	closed := c.scopes.Pop()
	c.emitScopeExit(closed, n, true)

	c.code.DefineLabel(condLabel)
	cond := c.compileExpr(node.Cond)
	c.code.Append(ir.Instruction{Op: ir.OpBranch, A: cond, L1: bodyLabel, L2: endLabel, Src: c.Tree.Range(n)})
	c.code.DefineLabel(endLabel)
}

func (c *Compiler) compileFor(n ast.NodeID) {
	node := c.node(n)
	outer := c.scopes.Push(scope.ScopeBlock) // init's declared variable(s) live across every iteration
	if node.Initializer != 0 {
		c.compileStmt(node.Initializer)
	}

	condLabel := c.code.NewLabel()
	bodyLabel := c.code.NewLabel()
	postLabel := c.code.NewLabel()
	endLabel := c.code.NewLabel()

	c.code.DefineLabel(condLabel)
	if node.Cond != 0 {
		cond := c.compileExpr(node.Cond)
		c.code.Append(ir.Instruction{Op: ir.OpBranch, A: cond, L1: bodyLabel, L2: endLabel, Src: c.Tree.Range(n)})
	} else {
		c.code.Append(ir.Instruction{Op: ir.OpJump, L1: bodyLabel})
	}

	c.code.DefineLabel(bodyLabel)
	loopScope := c.scopes.Push(scope.ScopeLoop)
	c.loopEnds = append(c.loopEnds, loopCtx{breakLabel: endLabel, continueLabel: postLabel, scope: loopScope})
	c.compileStmt(node.Body)
	c.loopEnds = c.loopEnds[:len(c.loopEnds)-1]
	closed := c.scopes.Pop()
	c.emitScopeExit(closed, n, true)

	c.code.DefineLabel(postLabel)
	if node.RValue != 0 {
		c.compileExpr(node.RValue)
	}
	c.code.Append(ir.Instruction{Op: ir.OpJump, L1: condLabel})

	c.code.DefineLabel(endLabel)
	c.scopes.Pop()
	c.emitScopeExit(outer, n, true)
}

func (c *Compiler) compileBreak(n ast.NodeID) {
	if len(c.loopEnds) == 0 {
		c.errorf(diag.ResLoopJumpOutsideLoop, n, "break outside a loop or switch")
		return
	}
	top := c.loopEnds[len(c.loopEnds)-1]
	c.emitExitSequence(c.scopes.ScopesUpTo(top.scope), n)
	c.code.Append(ir.Instruction{Op: ir.OpJump, L1: top.breakLabel, Src: c.Tree.Range(n)})
}

func (c *Compiler) compileContinue(n ast.NodeID) {
	var target *loopCtx
	for i := len(c.loopEnds) - 1; i >= 0; i-- {
		if !c.loopEnds[i].isSwitch {
			target = &c.loopEnds[i]
			break
		}
	}
	if target == nil {
		c.errorf(diag.ResLoopJumpOutsideLoop, n, "continue outside a loop")
		return
	}
	scopes := c.scopes.ScopesUpTo(target.scope)
	if len(scopes) > 0 {
		scopes = scopes[:len(scopes)-1] // the loop's own per-iteration scope survives a continue
	}
	c.emitExitSequence(scopes, n)
	c.code.Append(ir.Instruction{Op: ir.OpJump, L1: target.continueLabel, Src: c.Tree.Range(n)})
}

func (c *Compiler) compileReturn(n ast.NodeID) {
	node := c.node(n)
	nonPrimitiveReturn := c.curRetType != types.NoTypeID && !c.isPrimitive(c.curRetType)

	var val ir.Operand
	if node.RValue != 0 {
		val = c.compileExpr(node.RValue)
		if nonPrimitiveReturn {
			// ret_ptr storage belongs to the caller, so the value crosses
			// the frame boundary as a shallow field-by-field copy rather
			// than a register; exit-scope destructors below still run
			// against the original temp (no copy-constructor/move
			// semantics are modeled — see DESIGN.md).
			c.emitCopyObject(c.curRetPtr, val, c.curRetType, n)
		}
	}
	c.emitExitSequence(c.scopes.ScopesUpTo(c.funcRootScope), n)
	if node.RValue != 0 && !nonPrimitiveReturn {
		c.code.Append(ir.Instruction{Op: ir.OpRet, A: val, Src: c.Tree.Range(n)})
	} else {
		c.code.Append(ir.Instruction{Op: ir.OpRet, Src: c.Tree.Range(n)})
	}
}

func (c *Compiler) compileSwitch(n ast.NodeID) {
	node := c.node(n)
	subject := c.compileExpr(node.Cond)
	cases := c.Tree.Siblings(node.Body)

	endLabel := c.code.NewLabel()
	bodyLabels := make([]ir.LabelID, len(cases))
	defaultIdx := -1
	for i, cid := range cases {
		bodyLabels[i] = c.code.NewLabel()
		if c.node(cid).LValue == 0 {
			defaultIdx = i
		}
	}
	for i, cid := range cases {
		cnode := c.node(cid)
		if cnode.LValue == 0 {
			continue
		}
		labelVal := c.compileExpr(cnode.LValue)
		eq := c.emitBinOp(cid, ast.OpEq, subject, labelVal)
		c.code.Append(ir.Instruction{Op: ir.OpBranch, A: eq, L1: bodyLabels[i], L2: ir.NoLabel})
	}
	if defaultIdx >= 0 {
		c.code.Append(ir.Instruction{Op: ir.OpJump, L1: bodyLabels[defaultIdx]})
	} else {
		c.code.Append(ir.Instruction{Op: ir.OpJump, L1: endLabel})
	}

	switchScope := c.scopes.Push(scope.ScopeBlock)
	c.loopEnds = append(c.loopEnds, loopCtx{breakLabel: endLabel, scope: switchScope, isSwitch: true})
	for i, cid := range cases {
		c.code.DefineLabel(bodyLabels[i])
		for _, st := range c.Tree.Siblings(c.node(cid).Body) {
			c.compileStmt(st)
		}
		c.code.Append(ir.Instruction{Op: ir.OpJump, L1: endLabel})
	}
	c.loopEnds = c.loopEnds[:len(c.loopEnds)-1]
	closed := c.scopes.Pop()
	c.emitScopeExit(closed, n, true)

	c.code.DefineLabel(endLabel)
}

func (c *Compiler) compilePlacementNew(n ast.NodeID) {
	node := c.node(n)
	target := c.compileExpr(node.LValue)
	newNode := c.node(node.RValue)
	classID := c.resolveTypeSpecifier(newNode.DataType)
	args, _ := c.compileArgList(newNode.Parameters)
	c.constructObject(n, target, classID, args)
}
