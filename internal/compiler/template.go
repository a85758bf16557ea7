package compiler

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/funcreg"
	"loom/internal/scope"
	"loom/internal/types"
)

// installClassTemplate registers a generic class declaration as a
// template type (§4.3): its body is cloned into a fresh arena so the
// subtree outlives this compile's own Tree, and its formal parameter
// names are recorded for instantiateTemplate to bind against argument
// types later. No TypeID for a concrete class exists yet — that only
// happens per distinct argument list, on demand, from resolveTypeSpecifier.
func (c *Compiler) installClassTemplate(n ast.NodeID, node *ast.Node) {
	params := c.templateParamNames(node.TemplateParameters)
	body := ast.NewTree(64)
	root := c.Tree.Clone(n, body)
	body.Get(root).Next = 0 // detach from this compile's sibling chain

	templateID := c.Types.RegisterTemplate(c.fqn(node.Text), node.Text, params, body, root)
	c.scopes.Declare(scope.Symbol{Name: node.Text, Kind: scope.KindType, Type: templateID})
	c.declClasses[n] = templateID
}

func (c *Compiler) templateParamNames(head ast.NodeID) []types.TemplateParam {
	var out []types.TemplateParam
	for _, id := range c.Tree.Siblings(head) {
		out = append(out, types.TemplateParam{Name: c.node(id).Text})
	}
	return out
}

// instantiateTemplate resolves templateID against argTypes (§4.3,
// idempotent per §8): a cache hit returns immediately, otherwise the
// template's cloned body is re-walked exactly like installClassStub's
// ordinary class path, with every formal parameter name bound to its
// concrete argument type for the duration.
func (c *Compiler) instantiateTemplate(n ast.NodeID, templateID types.TypeID, argTypes []types.TypeID) types.TypeID {
	if c.Types.ArityMismatch(templateID, argTypes) {
		c.errorf(diag.ResTemplateArityMismatch, n, "wrong number of template arguments")
		return types.NoTypeID
	}
	if cached, ok := c.Types.LookupInstantiation(templateID, argTypes); ok {
		return cached
	}
	tmpl, ok := c.Types.Get(templateID)
	if !ok || tmpl.Template == nil {
		return types.NoTypeID
	}
	fqn, ok := c.Types.InstantiationKey(templateID, argTypes)
	if !ok {
		return types.NoTypeID
	}

	savedTree, savedSubst := c.Tree, c.templateSubst
	savedDeclFuncs, savedDeclClasses := c.declFuncs, c.declClasses
	c.Tree = tmpl.Template.Body
	c.templateSubst = make(map[string]types.TypeID, len(tmpl.Template.Params))
	for i, p := range tmpl.Template.Params {
		if i < len(argTypes) {
			c.templateSubst[p.Name] = argTypes[i]
		}
	}
	// This instantiation's body lives in a different Tree than the one
	// declFuncs/declClasses were built against; NodeIDs are only unique
	// within one Tree, so reusing the real maps here risks a numeric
	// collision clobbering an unrelated module-tree entry. Scratch maps
	// for the duration avoid that — nothing outside this function needs
	// them, since every stub id this pass installs is used immediately.
	c.declFuncs = make(map[ast.NodeID]funcreg.ID)
	c.declClasses = make(map[ast.NodeID]types.TypeID)

	root := c.node(tmpl.Template.Root)
	shortName := root.Text + "<"
	for i, a := range argTypes {
		if i > 0 {
			shortName += ","
		}
		shortName += c.typeFQN(a)
	}
	shortName += ">"

	classID := c.Types.RegisterClass(fqn, shortName, root.Span)
	c.Types.CacheInstantiation(templateID, argTypes, classID)

	for _, base := range c.Tree.Siblings(root.Inheritance) {
		baseID := c.resolveTypeSpecifier(base)
		if baseID != types.NoTypeID {
			c.Types.AddBase(classID, baseID, types.AccessPublic)
		}
	}

	savedClass := c.curClass
	c.curClass = classID
	for _, member := range c.Tree.Siblings(root.Body) {
		m := c.node(member)
		switch m.Kind {
		case ast.PropertyDecl:
			c.installPropertyStub(classID, member)
		case ast.MethodDecl:
			id := c.installMethodStub(classID, member)
			if id != funcreg.NoID {
				c.compileFunctionBody(id, member, classID, true)
			}
		case ast.OperatorDecl:
			c.installOperatorStub(classID, member)
		}
	}
	c.curClass = savedClass

	c.Tree, c.templateSubst = savedTree, savedSubst
	c.declFuncs, c.declClasses = savedDeclFuncs, savedDeclClasses
	return classID
}
