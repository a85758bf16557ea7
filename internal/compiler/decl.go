package compiler

import (
	"loom/internal/ast"
	"loom/internal/funcreg"
	"loom/internal/ir"
	"loom/internal/scope"
	"loom/internal/types"
)

// compileDeclBody is pass 2's entry point for a top-level (or nested)
// declaration: it finds the stub pass 1 already installed and compiles
// the body into it, leaving the type/function registries untouched.
func (c *Compiler) compileDeclBody(n ast.NodeID) {
	node := c.node(n)
	switch node.Kind {
	case ast.ClassDecl:
		c.compileClassBody(n)
	case ast.FunctionDecl:
		if id, ok := c.declFuncs[n]; ok {
			c.compileFunctionBody(id, n, types.NoTypeID, false)
		}
	case ast.ExportDecl:
		c.compileDeclBody(node.Body)
	case ast.ImportDecl, ast.TypeAlias:
		// Fully handled by pass 1 — an import's symbols were either
		// resolved there or diagnosed as unavailable, and an alias just
		// renames an already-registered type.
	}
}

func (c *Compiler) compileClassBody(n ast.NodeID) {
	node := c.node(n)
	if node.TemplateParameters != 0 {
		return
	}
	classID, ok := c.declClasses[n]
	if !ok {
		return
	}
	savedClass := c.curClass
	c.curClass = classID
	for _, member := range c.Tree.Siblings(node.Body) {
		m := c.node(member)
		switch m.Kind {
		case ast.MethodDecl, ast.OperatorDecl:
			if id, ok := c.declFuncs[member]; ok {
				c.compileFunctionBody(id, member, classID, true)
			}
		}
	}
	c.curClass = savedClass
}

// compileFunctionBody compiles one already-stubbed function's body into a
// fresh CodeHolder: it binds every signature argument (implicit prefix
// included) to the virtual register vm.call positionally copies it into
// (f.general[i+1] for Arguments[i], per vm.go), runs pass 2 over the
// statement body, and appends a fallthrough epilogue for control that
// reaches the closing brace without an explicit return.
func (c *Compiler) compileFunctionBody(id funcreg.ID, n ast.NodeID, ownerClass types.TypeID, isMethod bool) {
	node := c.node(n)
	fn, ok := c.Funcs.Get(id)
	if !ok {
		return
	}
	sigType, ok := c.Types.Get(fn.Signature)
	if !ok || sigType.Function == nil {
		return
	}
	sig := sigType.Function

	savedCode, savedFunc, savedScopes := c.code, c.curFunc, c.scopes
	savedMethod, savedRetPtr, savedRetType := c.curMethod, c.curRetPtr, c.curRetType
	savedLoopEnds := c.loopEnds

	code := ir.NewCodeHolder()
	c.code = code
	c.curFunc = id
	c.curMethod = isMethod
	c.allocAddr = make(map[ir.StackAllocID]ir.Operand)
	c.loopEnds = nil
	c.scopes = scope.NewManager()
	c.funcRootScope = c.scopes.Top()

	c.curRetPtr = ir.Operand{}
	c.curRetType = types.NoTypeID
	if sig.Return != c.Types.Builtins.Void {
		c.curRetType = sig.Return
	}

	explicitIdx := 0
	explicitParams := c.Tree.Siblings(node.Parameters)
	for _, arg := range sig.Arguments {
		reg := c.code.NewReg()
		switch arg.Kind {
		case types.ArgThisPtr:
			c.scopes.Declare(scope.Symbol{Name: "this", Kind: scope.KindValue, Type: ownerClass, Value: localValue{reg: reg}})
		case types.ArgRetPtr:
			if !c.isPrimitive(sig.Return) && sig.Return != c.Types.Builtins.Void {
				c.curRetPtr = ir.Reg(reg, c.Types.Builtins.PointerOpaque)
			}
		case types.ArgFuncPtr, types.ArgContextPtr:
			// Not modeled: no closures, no cancellation-carrying execution
			// context (see DESIGN.md). The register is reserved so later
			// positional binding stays correct even though nothing reads it.
		default:
			if explicitIdx < len(explicitParams) {
				pname := c.node(explicitParams[explicitIdx]).Text
				c.scopes.Declare(scope.Symbol{Name: pname, Kind: scope.KindValue, Type: arg.Type, Value: localValue{reg: reg}})
			}
			explicitIdx++
		}
	}

	for _, st := range c.Tree.Siblings(node.Body) {
		c.compileStmt(st)
	}

	c.emitScopeExit(c.funcRootScope, n, true)
	c.code.Append(ir.Instruction{Op: ir.OpRet})

	c.Mod.Code[id] = code
	c.Funcs.MarkBodyFinalized(id)

	c.code, c.curFunc, c.scopes = savedCode, savedFunc, savedScopes
	c.curMethod, c.curRetPtr, c.curRetType = savedMethod, savedRetPtr, savedRetType
	c.loopEnds = savedLoopEnds
}
