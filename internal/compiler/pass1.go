package compiler

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/funcreg"
	"loom/internal/scope"
	"loom/internal/types"
)

// installSymbols is pass 1 (§4.4): every top-level class and function gets
// a stub — a registered TypeID/funcreg.ID with a finalized signature but no
// compiled body — so pass 2 can resolve forward references in any order.
func (c *Compiler) installSymbols(top []ast.NodeID) {
	for _, n := range top {
		node := c.node(n)
		switch node.Kind {
		case ast.ClassDecl:
			c.installClassStub(n)
		case ast.FunctionDecl:
			c.installFunctionStub(n, types.NoTypeID)
		case ast.ExportDecl:
			c.installExportedStub(n)
		case ast.ImportDecl:
			c.installImport(n)
		case ast.TypeAlias:
			c.installTypeAlias(n)
		}
	}
}

func (c *Compiler) installExportedStub(n ast.NodeID) {
	inner := c.node(n).Body
	switch c.node(inner).Kind {
	case ast.ClassDecl:
		c.installClassStub(inner)
	case ast.FunctionDecl:
		id := c.installFunctionStub(inner, types.NoTypeID)
		if id != funcreg.NoID {
			name := c.node(inner).Text
			c.Exports().Funcs[name] = append(c.Exports().Funcs[name], id)
		}
	case ast.TypeAlias:
		c.installTypeAlias(inner)
	case ast.VarDecl:
		c.installExportedConst(inner)
	}
}

// installExportedConst records an `export const NAME = <literal>;` in
// this module's Exports so a sibling module's import can pull it as a
// module-data slot (§4.4). Anything whose initializer doesn't fold to a
// literal still compiles as an ordinary __init__ statement (ast.VarDecl
// falls through to compileStmt in CompileModule) — it just has nothing
// for another module to import.
func (c *Compiler) installExportedConst(n ast.NodeID) {
	node := c.node(n)
	if node.LValue == 0 || c.node(node.LValue).Kind != ast.Identifier {
		return
	}
	cst, ok := c.evalConstLiteral(node.Initializer)
	if !ok {
		return
	}
	c.Exports().Consts[c.node(node.LValue).Text] = cst
}

func (c *Compiler) installTypeAlias(n ast.NodeID) {
	node := c.node(n)
	target := c.resolveTypeSpecifier(node.Alias)
	id := c.Types.RegisterAlias(c.fqn(node.Text), node.Text, target)
	c.scopes.Declare(scope.Symbol{Name: node.Text, Kind: scope.KindType, Type: id})
}

// installClassStub registers the class type and every property/method
// stub, so a sibling declaration can call a method or reference a property
// before this class's own method bodies are compiled.
func (c *Compiler) installClassStub(n ast.NodeID) {
	node := c.node(n)
	if node.TemplateParameters != 0 {
		c.installClassTemplate(n, node)
		return
	}

	classID := c.Types.RegisterClass(c.fqn(node.Text), node.Text, node.Span)
	c.scopes.Declare(scope.Symbol{Name: node.Text, Kind: scope.KindType, Type: classID})
	c.declClasses[n] = classID

	for _, base := range c.Tree.Siblings(node.Inheritance) {
		baseID := c.resolveTypeSpecifier(base)
		if baseID != types.NoTypeID {
			c.Types.AddBase(classID, baseID, types.AccessPublic)
		}
	}

	for _, member := range c.Tree.Siblings(node.Body) {
		m := c.node(member)
		switch m.Kind {
		case ast.PropertyDecl:
			c.installPropertyStub(classID, member)
		case ast.MethodDecl:
			c.installMethodStub(classID, member)
		case ast.OperatorDecl:
			c.installOperatorStub(classID, member)
		}
	}
}

func modifierHas(tree *ast.Tree, head ast.NodeID, name string) bool {
	for _, m := range tree.Siblings(head) {
		if tree.Get(m).Text == name {
			return true
		}
	}
	return false
}

func (c *Compiler) installPropertyStub(classID types.TypeID, n ast.NodeID) {
	node := c.node(n)
	propType := c.resolveTypeSpecifier(node.DataType)
	access := types.AccessPublic
	if modifierHas(c.Tree, node.Modifier, "private") {
		access = types.AccessPrivate
	}
	flags := types.PropReadable | types.PropWritable
	if modifierHas(c.Tree, node.Modifier, "static") {
		flags |= types.PropStatic
	}
	c.Types.AddProperty(classID, node.Text, propType, flags, access)
}

// installMethodStub declares a funcreg stub for a method, including
// constructor/destructor recognized by the fixed names the VM's type
// convertibility rules already search for (types.countMatchingConstructors
// looks for a method literally named "constructor").
func (c *Compiler) installMethodStub(classID types.TypeID, n ast.NodeID) funcreg.ID {
	node := c.node(n)
	if node.TemplateParameters != 0 {
		return funcreg.NoID
	}
	access := types.AccessPublic
	if modifierHas(c.Tree, node.Modifier, "private") {
		access = types.AccessPrivate
	}
	static := modifierHas(c.Tree, node.Modifier, "static")

	retType := c.Types.Builtins.Void
	if node.DataType != 0 {
		retType = c.resolveTypeSpecifier(node.DataType)
	}
	explicit := c.resolveParamTypes(node.Parameters)
	prefix := c.implicitPrefix(!static)
	if !static {
		prefix[len(prefix)-1].Type = classID // this_ptr carries the owning class
	}
	sig := types.FunctionType{Return: retType, Arguments: append(prefix, explicit...)}
	sigID := c.Types.RegisterFunctionType(c.modulePrefix, sig)

	className := c.mustClassName(classID)
	fqn := c.fqn(className + "::" + node.Text)
	id := c.Funcs.Declare(funcreg.Function{
		Name: node.Text, FQN: fqn, Access: access, Signature: sigID,
		IsMethod: !static, DeclaredAt: node.Span,
	})

	if node.Text == "destructor" {
		if existing, ok := c.Types.Get(classID); ok && existing.Class != nil && existing.Class.Destructor != types.NoFuncID {
			c.errorf(diag.ResDuplicateDestructor, n, "class %q already has a destructor", className)
		}
		c.Types.SetDestructor(classID, types.FuncID(id))
	}
	c.Types.AddMethod(classID, types.Method{Name: node.Text, Func: types.FuncID(id), Access: access, Static: static})
	c.declFuncs[n] = id
	return id
}

func (c *Compiler) installOperatorStub(classID types.TypeID, n ast.NodeID) {
	node := c.node(n)
	name := "operator " + node.Text
	if node.Op == ast.OpConvert {
		target := c.resolveTypeSpecifier(node.DataType)
		name = "operator " + c.typeFQN(target)
	}
	retType := c.Types.Builtins.Void
	if node.Op == ast.OpConvert {
		retType = c.resolveTypeSpecifier(node.DataType)
	} else if node.DataType != 0 {
		retType = c.resolveTypeSpecifier(node.DataType)
	}
	explicit := c.resolveParamTypes(node.Parameters)
	sig := types.FunctionType{Return: retType, Arguments: append(c.implicitPrefix(true), explicit...)}
	sigID := c.Types.RegisterFunctionType(c.modulePrefix, sig)
	className := c.mustClassName(classID)
	id := c.Funcs.Declare(funcreg.Function{
		Name: name, FQN: c.fqn(className + "::" + name), Signature: sigID, IsMethod: true, DeclaredAt: node.Span,
	})
	c.Types.AddMethod(classID, types.Method{Name: name, Func: types.FuncID(id)})
	c.declFuncs[n] = id
}

func (c *Compiler) installFunctionStub(n ast.NodeID, ownerClass types.TypeID) funcreg.ID {
	node := c.node(n)
	if node.TemplateParameters != 0 {
		// Unlike a generic class, a generic free function has no
		// call-site syntax that ever supplies its argument types: a
		// CallExpr's Parameters slot holds only value arguments (see
		// parser/expr.go), never an explicit `<T>` list, and this
		// compiler does none of the argument-type inference that would
		// be needed to instantiate one implicitly. A generic function
		// stays parseable but uncallable until one of those exists.
		return funcreg.NoID
	}
	retType := c.Types.Builtins.Void
	if node.DataType != 0 {
		retType = c.resolveTypeSpecifier(node.DataType)
	} else {
		c.errorf(diag.ResReturnTypeRequired, n, "function %q needs an explicit return type", node.Text)
	}
	explicit := c.resolveParamTypes(node.Parameters)
	sig := types.FunctionType{Return: retType, Arguments: append(c.implicitPrefix(false), explicit...)}
	sigID := c.Types.RegisterFunctionType(c.modulePrefix, sig)
	id := c.Funcs.Declare(funcreg.Function{
		Name: node.Text, FQN: c.fqn(node.Text), Signature: sigID, DeclaredAt: node.Span,
	})
	c.Mod.AddFunction(id)
	c.scopes.Declare(scope.Symbol{Name: node.Text, Kind: scope.KindFunctionDef, Func: id})
	c.funcOverloads[node.Text] = append(c.funcOverloads[node.Text], id)
	c.declFuncs[n] = id
	return id
}

func (c *Compiler) resolveParamTypes(head ast.NodeID) []types.Argument {
	var out []types.Argument
	for _, p := range c.Tree.Siblings(head) {
		pn := c.node(p)
		t := c.resolveTypeSpecifier(pn.DataType)
		kind := types.ArgValue
		if t != types.NoTypeID {
			if tt, ok := c.Types.Get(t); ok && !tt.Meta.Has(types.MetaIsPrimitive) {
				kind = types.ArgPointer
			}
		}
		out = append(out, types.Argument{Kind: kind, Type: t, Name: pn.Text})
	}
	return out
}

// resolveTypeSpecifier resolves a TypeSpecifier node to a TypeID: an
// active template substitution first (a formal parameter name standing
// in for its bound argument type during instantiateTemplate), then scope
// lookup (covers builtins, user classes, aliases), then the registry's
// own FQN as a fallback. A base name that resolves to a template type and
// carries an explicit `<Arg, ...>` argument list drives instantiation
// (§4.3); trailing `[]` array markers are still accepted syntactically
// but do not change which TypeID is returned — this compiler does not
// model array types (see DESIGN.md).
func (c *Compiler) resolveTypeSpecifier(n ast.NodeID) types.TypeID {
	if n == 0 {
		return types.NoTypeID
	}
	node := c.node(n)
	if c.templateSubst != nil {
		if t, ok := c.templateSubst[node.Text]; ok {
			return t
		}
	}

	base := types.NoTypeID
	if sym, _, ok := c.scopes.Lookup(node.Text); ok && sym.Kind == scope.KindType {
		base = sym.Type
	} else if id, ok := c.Types.GetByFQN(node.Text); ok {
		base = id
	} else if id, ok := c.Types.GetByFQN(c.fqn(node.Text)); ok {
		base = id
	} else {
		c.errorf(diag.ResTypeExpected, n, "unknown type %q", node.Text)
		return types.NoTypeID
	}

	if node.TemplateParameters == 0 {
		return base
	}
	baseType, ok := c.Types.Get(base)
	if !ok || baseType.Kind != types.KindTemplate {
		// Template-looking syntax applied to a non-template base: the
		// argument list is accepted syntactically (§4.3) but there is
		// nothing to instantiate against.
		return base
	}
	var argTypes []types.TypeID
	for _, a := range c.Tree.Siblings(node.TemplateParameters) {
		argTypes = append(argTypes, c.resolveTypeSpecifier(a))
	}
	return c.instantiateTemplate(n, base, argTypes)
}

func (c *Compiler) typeFQN(t types.TypeID) string {
	ty, ok := c.Types.Get(t)
	if !ok {
		return "<unknown>"
	}
	return ty.FQN
}

func (c *Compiler) mustClassName(classID types.TypeID) string {
	t, ok := c.Types.Get(classID)
	if !ok {
		return "<class>"
	}
	return t.Name
}
