package compiler

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/scope"
	"loom/internal/types"
)

func (c *Compiler) newReg(t types.TypeID) ir.Operand {
	return ir.Reg(c.code.NewReg(), t)
}

func (c *Compiler) isPrimitive(t types.TypeID) bool {
	tt, ok := c.Types.Get(t)
	return ok && tt.Meta.Has(types.MetaIsPrimitive)
}

// family classifies a type for opcode selection: i/u/f/d mirrors the
// signed/unsigned/float/double prefix convention the IR's op-code names
// use (§4.5). Non-numeric types (pointers, bools) fall back to "i" — the
// VM treats every register as a raw word regardless.
func (c *Compiler) family(t types.TypeID) string {
	tt, ok := c.Types.Get(t)
	if !ok {
		return "i"
	}
	if tt.Meta.Has(types.MetaIsFloatingPoint) {
		if tt.Size == 4 {
			return "f"
		}
		return "d"
	}
	if tt.Meta.Has(types.MetaIsUnsigned) {
		return "u"
	}
	return "i"
}

func isCompareOp(op ast.OperatorKind) bool {
	switch op {
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpEq, ast.OpNe:
		return true
	}
	return false
}

func binOpcode(fam string, op ast.OperatorKind) (ir.Op, bool) {
	switch fam {
	case "i":
		switch op {
		case ast.OpAdd:
			return ir.OpIAdd, true
		case ast.OpSub:
			return ir.OpISub, true
		case ast.OpMul:
			return ir.OpIMul, true
		case ast.OpDiv:
			return ir.OpIDiv, true
		case ast.OpMod:
			return ir.OpIMod, true
		case ast.OpLt:
			return ir.OpILt, true
		case ast.OpLe:
			return ir.OpILte, true
		case ast.OpGt:
			return ir.OpIGt, true
		case ast.OpGe:
			return ir.OpIGte, true
		case ast.OpEq:
			return ir.OpIEq, true
		case ast.OpNe:
			return ir.OpINeq, true
		}
	case "u":
		switch op {
		case ast.OpAdd:
			return ir.OpUAdd, true
		case ast.OpSub:
			return ir.OpUSub, true
		case ast.OpMul:
			return ir.OpUMul, true
		case ast.OpDiv:
			return ir.OpUDiv, true
		case ast.OpMod:
			return ir.OpUMod, true
		case ast.OpLt:
			return ir.OpULt, true
		case ast.OpLe:
			return ir.OpULte, true
		case ast.OpGt:
			return ir.OpUGt, true
		case ast.OpGe:
			return ir.OpUGte, true
		case ast.OpEq:
			return ir.OpUEq, true
		case ast.OpNe:
			return ir.OpUNeq, true
		}
	case "f":
		switch op {
		case ast.OpAdd:
			return ir.OpFAdd, true
		case ast.OpSub:
			return ir.OpFSub, true
		case ast.OpMul:
			return ir.OpFMul, true
		case ast.OpDiv:
			return ir.OpFDiv, true
		case ast.OpLt:
			return ir.OpFLt, true
		case ast.OpLe:
			return ir.OpFLte, true
		case ast.OpGt:
			return ir.OpFGt, true
		case ast.OpGe:
			return ir.OpFGte, true
		case ast.OpEq:
			return ir.OpFEq, true
		case ast.OpNe:
			return ir.OpFNeq, true
		}
	case "d":
		switch op {
		case ast.OpAdd:
			return ir.OpDAdd, true
		case ast.OpSub:
			return ir.OpDSub, true
		case ast.OpMul:
			return ir.OpDMul, true
		case ast.OpDiv:
			return ir.OpDDiv, true
		case ast.OpLt:
			return ir.OpDLt, true
		case ast.OpLe:
			return ir.OpDLte, true
		case ast.OpGt:
			return ir.OpDGt, true
		case ast.OpGe:
			return ir.OpDGte, true
		case ast.OpEq:
			return ir.OpDEq, true
		case ast.OpNe:
			return ir.OpDNeq, true
		}
	}
	switch op {
	case ast.OpBitAnd:
		return ir.OpBAnd, true
	case ast.OpBitOr:
		return ir.OpBOr, true
	case ast.OpBitXor:
		return ir.OpXor, true
	case ast.OpShl:
		return ir.OpShl, true
	case ast.OpShr:
		return ir.OpShr, true
	case ast.OpAnd:
		return ir.OpLAnd, true
	case ast.OpOr:
		return ir.OpLOr, true
	}
	return 0, false
}

// convertTo emits an OpCvt when op's static type differs from target and
// both sides are primitive; non-primitive operands pass through untouched
// (there is no implicit class-to-class conversion beyond exact identity).
func (c *Compiler) convertTo(op ir.Operand, target types.TypeID) ir.Operand {
	if target == types.NoTypeID || op.Type == target {
		return op
	}
	if !c.isPrimitive(op.Type) || !c.isPrimitive(target) {
		return op
	}
	dst := c.newReg(target)
	c.code.Append(ir.Instruction{Op: ir.OpCvt, A: dst, B: op})
	return dst
}

// emitBinOp lowers a binary operator application, coercing rhs to lhs's
// static type (the left operand's type drives the op-code family — this
// compiler does not implement usual-arithmetic-conversions ranking).
func (c *Compiler) emitBinOp(n ast.NodeID, op ast.OperatorKind, lhs, rhs ir.Operand) ir.Operand {
	rhs = c.convertTo(rhs, lhs.Type)
	fam := c.family(lhs.Type)
	opcode, ok := binOpcode(fam, op)
	if !ok {
		c.errorf(diag.ResWrongSymbolKind, n, "operator not supported for this type")
		return lhs
	}
	resultType := lhs.Type
	if isCompareOp(op) {
		resultType = c.Types.Builtins.Bool
	}
	dst := c.newReg(resultType)
	c.code.Append(ir.Instruction{Op: opcode, A: dst, B: lhs, C: rhs, Src: c.Tree.Range(n)})
	return dst
}

func (c *Compiler) compileExpr(n ast.NodeID) ir.Operand {
	if n == 0 {
		return ir.Operand{}
	}
	node := c.node(n)
	switch node.Kind {
	case ast.Literal:
		return c.compileLiteral(n)
	case ast.Identifier:
		return c.compileIdentifier(n)
	case ast.BinaryExpr:
		lhs := c.compileExpr(node.LValue)
		rhs := c.compileExpr(node.RValue)
		return c.emitBinOp(n, node.Op, lhs, rhs)
	case ast.UnaryExpr:
		return c.compileUnary(n)
	case ast.PostfixExpr:
		return c.compilePostfix(n)
	case ast.AssignExpr:
		return c.compileAssign(n)
	case ast.CallExpr:
		return c.compileCall(n)
	case ast.MemberExpr:
		lv, ok := c.memberLValue(n)
		if !ok {
			return ir.Operand{}
		}
		return lv.get()
	case ast.ConditionalExpr:
		return c.compileConditional(n)
	case ast.CastExpr:
		return c.compileCast(n)
	case ast.NewExpr:
		return c.compileNew(n)
	default:
		c.errorf(diag.ResWrongSymbolKind, n, "unsupported expression form %s", node.Kind)
		return ir.Operand{}
	}
}

// addrAdd computes base + offset as a pointer-typed register, reusing the
// unsigned-add opcode for address arithmetic (a pointer behaves like any
// other unsigned word at the VM level). offset == 0 just retags base's
// type rather than emitting a no-op instruction.
func (c *Compiler) addrAdd(base ir.Operand, offset uint32, resultType types.TypeID) ir.Operand {
	if offset == 0 {
		return ir.Operand{Flag: base.Flag, Reg: base.Reg, Stack: base.Stack, Func: base.Func, Imm: base.Imm, Type: resultType}
	}
	dst := c.newReg(resultType)
	c.code.Append(ir.Instruction{Op: ir.OpUAdd, A: dst, B: base, C: ir.ImmInt(int64(offset), c.Types.Builtins.U32)})
	return dst
}

func (c *Compiler) compileIdentifier(n ast.NodeID) ir.Operand {
	node := c.node(n)
	sym, _, ok := c.scopes.Lookup(node.Text)
	if !ok {
		c.errorf(diag.ResIdentifierNotFound, n, "undeclared identifier %q", node.Text)
		return ir.Operand{}
	}
	switch sym.Kind {
	case scope.KindValue:
		lv, _ := sym.Value.(localValue)
		return ir.Reg(lv.reg, sym.Type)
	case scope.KindModuleSlot:
		cst, _ := sym.Value.(ExportedConst)
		return c.materializeConst(n, cst)
	default:
		c.errorf(diag.ResWrongSymbolKind, n, "%q cannot be used as a value here", node.Text)
		return ir.Operand{}
	}
}

func (c *Compiler) compileUnary(n ast.NodeID) ir.Operand {
	node := c.node(n)
	if node.Op == ast.OpNone && node.DataType != 0 {
		return ir.ImmInt(int64(c.sizeOf(c.resolveTypeSpecifier(node.DataType))), c.Types.Builtins.U32)
	}
	switch node.Op {
	case ast.OpInc, ast.OpDec:
		lv, ok := c.resolveLValue(node.RValue)
		if !ok {
			return ir.Operand{}
		}
		old := lv.get()
		step := ir.ImmInt(1, lv.typ)
		baseOp := ast.OpAdd
		if node.Op == ast.OpDec {
			baseOp = ast.OpSub
		}
		updated := c.emitBinOp(n, baseOp, old, step)
		lv.set(updated)
		return updated
	case ast.OpNeg:
		v := c.compileExpr(node.RValue)
		fam := c.family(v.Type)
		op := ir.OpINeg
		switch fam {
		case "f":
			op = ir.OpFNeg
		case "d":
			op = ir.OpDNeg
		}
		dst := c.newReg(v.Type)
		c.code.Append(ir.Instruction{Op: op, A: dst, B: v, Src: c.Tree.Range(n)})
		return dst
	case ast.OpPos:
		return c.compileExpr(node.RValue)
	case ast.OpNot:
		v := c.compileExpr(node.RValue)
		dst := c.newReg(c.Types.Builtins.Bool)
		c.code.Append(ir.Instruction{Op: ir.OpNot, A: dst, B: v, Src: c.Tree.Range(n)})
		return dst
	case ast.OpBitNot:
		v := c.compileExpr(node.RValue)
		dst := c.newReg(v.Type)
		c.code.Append(ir.Instruction{Op: ir.OpInv, A: dst, B: v, Src: c.Tree.Range(n)})
		return dst
	default:
		c.errorf(diag.ResWrongSymbolKind, n, "unsupported unary operator")
		return ir.Operand{}
	}
}

func (c *Compiler) compilePostfix(n ast.NodeID) ir.Operand {
	node := c.node(n)
	lv, ok := c.resolveLValue(node.LValue)
	if !ok {
		return ir.Operand{}
	}
	old := lv.get()
	result := c.newReg(lv.typ)
	c.code.Append(ir.Instruction{Op: ir.OpResolve, A: result, B: old, Src: c.Tree.Range(n)})
	step := ir.ImmInt(1, lv.typ)
	baseOp := ast.OpAdd
	if node.Op == ast.OpDec {
		baseOp = ast.OpSub
	}
	updated := c.emitBinOp(n, baseOp, old, step)
	lv.set(updated)
	return result
}

var compoundBase = map[ast.OperatorKind]ast.OperatorKind{
	ast.OpAddAssign:    ast.OpAdd,
	ast.OpSubAssign:    ast.OpSub,
	ast.OpMulAssign:    ast.OpMul,
	ast.OpDivAssign:    ast.OpDiv,
	ast.OpModAssign:    ast.OpMod,
	ast.OpBitAndAssign: ast.OpBitAnd,
	ast.OpBitOrAssign:  ast.OpBitOr,
	ast.OpBitXorAssign: ast.OpBitXor,
	ast.OpShlAssign:    ast.OpShl,
	ast.OpShrAssign:    ast.OpShr,
	ast.OpAndAssign:    ast.OpAnd,
	ast.OpOrAssign:     ast.OpOr,
}

func (c *Compiler) compileAssign(n ast.NodeID) ir.Operand {
	node := c.node(n)
	lv, ok := c.resolveLValue(node.LValue)
	if !ok {
		c.compileExpr(node.RValue)
		return ir.Operand{}
	}
	rhs := c.compileExpr(node.RValue)
	if node.Op == ast.OpAssign {
		v := c.convertTo(rhs, lv.typ)
		lv.set(v)
		return v
	}
	base, ok := compoundBase[node.Op]
	if !ok {
		c.errorf(diag.ResWrongSymbolKind, n, "unsupported compound assignment")
		return rhs
	}
	old := lv.get()
	v := c.emitBinOp(n, base, old, rhs)
	lv.set(v)
	return v
}

func (c *Compiler) compileConditional(n ast.NodeID) ir.Operand {
	node := c.node(n)
	cond := c.compileExpr(node.Cond)

	thenLabel := c.code.NewLabel()
	elseLabel := c.code.NewLabel()
	endLabel := c.code.NewLabel()
	c.code.Append(ir.Instruction{Op: ir.OpBranch, A: cond, L1: thenLabel, L2: elseLabel, Src: c.Tree.Range(n)})

	resultReg := c.code.NewReg()

	c.code.DefineLabel(thenLabel)
	thenVal := c.compileExpr(node.LValue)
	resultType := thenVal.Type
	c.code.Append(ir.Instruction{Op: ir.OpResolve, A: ir.Reg(resultReg, resultType), B: thenVal})
	c.code.Append(ir.Instruction{Op: ir.OpJump, L1: endLabel})

	c.code.DefineLabel(elseLabel)
	elseVal := c.compileExpr(node.RValue)
	c.code.Append(ir.Instruction{Op: ir.OpResolve, A: ir.Reg(resultReg, resultType), B: c.convertTo(elseVal, resultType)})

	c.code.DefineLabel(endLabel)
	return ir.Reg(resultReg, resultType)
}

func (c *Compiler) compileCast(n ast.NodeID) ir.Operand {
	node := c.node(n)
	v := c.compileExpr(node.LValue)
	target := c.resolveTypeSpecifier(node.DataType)
	if target == types.NoTypeID {
		return v
	}
	if !c.isPrimitive(v.Type) || !c.isPrimitive(target) {
		return ir.Operand{Flag: v.Flag, Reg: v.Reg, Stack: v.Stack, Func: v.Func, Imm: v.Imm, Type: target}
	}
	dst := c.newReg(target)
	c.code.Append(ir.Instruction{Op: ir.OpCvt, A: dst, B: v, Src: c.Tree.Range(n)})
	return dst
}

func (c *Compiler) compileNew(n ast.NodeID) ir.Operand {
	node := c.node(n)
	classID := c.resolveTypeSpecifier(node.DataType)
	args, _ := c.compileArgList(node.Parameters)
	dest := c.allocateTemp(classID, n)
	c.constructObject(n, dest, classID, args)
	return dest
}

// allocateTemp reserves a stack slot for a fresh value of t and records it
// for destructor tracking in the innermost live scope.
func (c *Compiler) allocateTemp(t types.TypeID, n ast.NodeID) ir.Operand {
	allocID := c.code.NewAlloc()
	addrReg := c.code.NewReg()
	ptr := c.Types.Builtins.PointerOpaque
	c.code.Append(ir.Instruction{
		Op: ir.OpStackAllocate, A: ir.Stack(allocID, t),
		B: ir.ImmInt(int64(c.sizeOf(t)), c.Types.Builtins.I32), C: ir.Reg(addrReg, ptr),
		Src: c.Tree.Range(n),
	})
	c.scopes.Top().BindStackValue(scope.StackBoundValue{AllocID: uint32(allocID), Type: t})
	c.allocAddr[allocID] = ir.Reg(addrReg, ptr)
	return ir.Reg(addrReg, t)
}

func (c *Compiler) compileCall(n ast.NodeID) ir.Operand {
	node := c.node(n)
	calleeNode := c.node(node.LValue)
	args, argTypes := c.compileArgList(node.Parameters)

	switch calleeNode.Kind {
	case ast.Identifier:
		sym, _, ok := c.scopes.Lookup(calleeNode.Text)
		if !ok {
			c.errorf(diag.ResIdentifierNotFound, n, "undeclared function %q", calleeNode.Text)
			return ir.Operand{}
		}
		if sym.Kind != scope.KindFunctionDef && sym.Kind != scope.KindFunction {
			c.errorf(diag.ResWrongSymbolKind, n, "%q is not callable", calleeNode.Text)
			return ir.Operand{}
		}
		var cands []candidate
		for _, fid := range c.funcOverloads[calleeNode.Text] {
			fn, ok := c.Funcs.Get(fid)
			if !ok {
				continue
			}
			sigT, ok := c.Types.Get(fn.Signature)
			if !ok || sigT.Function == nil {
				continue
			}
			cands = append(cands, candidate{id: fid, explicit: sigT.Function.ExplicitArgs()})
		}
		if len(cands) == 0 {
			// Declared through some path installFunctionStub never saw
			// (e.g. a forward reference installed before funcOverloads
			// existed for it) — fall back to the scope symbol directly.
			return c.emitCall(n, sym.Func, ir.Operand{}, args)
		}
		id, ok := c.resolveOverload(n, calleeNode.Text, cands, argTypes)
		if !ok {
			return ir.Operand{}
		}
		return c.emitCall(n, id, ir.Operand{}, args)

	case ast.MemberExpr:
		if base := c.node(calleeNode.LValue); base.Kind == ast.Identifier {
			if sym, _, ok := c.scopes.Lookup(base.Text); ok && sym.Kind == scope.KindModule {
				return c.compileModuleCall(n, base.Text, sym, calleeNode, args, argTypes)
			}
		}
		objOp := c.compileExpr(calleeNode.LValue)
		classID := c.Types.GetEffectiveType(objOp.Type)
		methodName := c.node(calleeNode.RValue).Text
		overloads := c.Types.FindMethodOverloads(classID, methodName)
		if len(overloads) == 0 {
			c.errorf(diag.ResIdentifierNotFound, n, "no method %q", methodName)
			return ir.Operand{}
		}
		var cands []candidate
		for _, m := range overloads {
			fn, ok := c.Funcs.Get(funcreg.ID(m.Func))
			if !ok {
				continue
			}
			sigT, ok := c.Types.Get(fn.Signature)
			if !ok || sigT.Function == nil {
				continue
			}
			cands = append(cands, candidate{id: funcreg.ID(m.Func), explicit: sigT.Function.ExplicitArgs()})
		}
		id, ok := c.resolveOverload(n, methodName, cands, argTypes)
		if !ok {
			return ir.Operand{}
		}
		for _, m := range overloads {
			if funcreg.ID(m.Func) == id && m.Access == types.AccessPrivate && c.curClass != classID {
				c.errorf(diag.ResPrivateAccess, n, "%q is private", methodName)
			}
		}
		return c.emitCall(n, id, objOp, args)

	default:
		c.errorf(diag.ResWrongSymbolKind, n, "expression is not callable")
		return ir.Operand{}
	}
}
