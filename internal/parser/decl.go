package parser

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/token"
)

var modifierKeywords = map[token.Kind]string{
	token.KwPublic:  "public",
	token.KwPrivate: "private",
	token.KwStatic:  "static",
	token.KwGet:     "get",
	token.KwSet:      "set",
}

// Declaration parses a top-level declaration: class, function, type alias,
// import, or export; anything else is parsed as a statement. Class members
// are parsed separately, by classMember.
func (p *Parser) Declaration() (ast.NodeID, bool) {
	switch p.cur().Kind {
	case token.KwExport:
		return p.exportDecl()
	case token.KwImport:
		return p.importDecl()
	case token.KwType:
		return p.typeAliasDecl()
	case token.KwClass:
		return p.classDecl()
	case token.KwFunction:
		return p.functionDecl()
	default:
		return p.statementInner()
	}
}

func (p *Parser) parseModifiers() ast.NodeID {
	var head, tail ast.NodeID
	for {
		name, ok := modifierKeywords[p.cur().Kind]
		if !ok {
			return head
		}
		sp := p.advance().Span
		m := p.newNode(ast.Node{Kind: ast.Modifier, Text: name, Span: sp})
		if head == 0 {
			head = m
		} else {
			p.tree.Get(tail).Next = m
		}
		tail = m
	}
}

func (p *Parser) functionDecl() (ast.NodeID, bool) {
	start := p.advance().Span // 'function'
	name, ok := p.expect(token.Ident)
	if !ok {
		return 0, false
	}
	node := p.newNode(ast.Node{Kind: ast.FunctionDecl, Text: name.Text, Span: start})
	tparams, ok := p.parseTemplateParamList()
	if !ok {
		return 0, false
	}
	p.tree.Get(node).TemplateParameters = tparams
	params, ok := p.parseParamList()
	if !ok {
		return 0, false
	}
	p.tree.Get(node).Parameters = params
	if p.at(token.Colon) {
		p.advance()
		ret, ok := p.parseTypeSpecifier()
		if !ok {
			return 0, false
		}
		p.tree.Get(node).DataType = ret
	}
	body, ok := p.blockStmt()
	if !ok {
		return 0, false
	}
	p.tree.Get(node).Body = body
	return node, true
}

func (p *Parser) classDecl() (ast.NodeID, bool) {
	start := p.advance().Span // 'class'
	name, ok := p.expect(token.Ident)
	if !ok {
		return 0, false
	}
	node := p.newNode(ast.Node{Kind: ast.ClassDecl, Text: name.Text, Span: start})
	tparams, ok := p.parseTemplateParamList()
	if !ok {
		return 0, false
	}
	p.tree.Get(node).TemplateParameters = tparams

	if p.at(token.KwExtends) {
		p.advance()
		bases, _ := p.listOf(func() (ast.NodeID, bool) { return p.parseTypeSpecifier() },
			func() bool { _, ok := p.eat(token.Comma); return ok })
		p.tree.Get(node).Inheritance = bases
	}

	if _, ok := p.expect(token.LBrace); !ok {
		return 0, false
	}
	if p.at(token.RBrace) {
		p.errorf(diag.SynEmptyClassBody, p.cur().Span, "class body must not be empty")
	}
	var head, tail ast.NodeID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		member, ok := p.classMember()
		if !ok {
			p.synchronize(token.Semicolon, token.RBrace)
			continue
		}
		if head == 0 {
			head = member
		} else {
			p.tree.Get(tail).Next = member
		}
		tail = member
	}
	if _, ok := p.expect(token.RBrace); !ok {
		return 0, false
	}
	p.tree.Get(node).Body = head
	return node, true
}

func (p *Parser) classMember() (ast.NodeID, bool) {
	mods := p.parseModifiers()

	if p.at(token.KwOperator) {
		return p.operatorDecl(mods)
	}

	if !p.at(token.Ident) {
		p.errorf(diag.SynExpectedIdent, p.cur().Span, "expected member name")
		return 0, false
	}
	name := p.advance()

	// Method if followed by '(' or '<' (template params); property otherwise.
	if p.at(token.LParen) || p.at(token.Lt) {
		node := p.newNode(ast.Node{Kind: ast.MethodDecl, Text: name.Text, Modifier: mods, Span: name.Span})
		tparams, ok := p.parseTemplateParamList()
		if !ok {
			return 0, false
		}
		p.tree.Get(node).TemplateParameters = tparams
		params, ok := p.parseParamList()
		if !ok {
			return 0, false
		}
		p.tree.Get(node).Parameters = params
		if p.at(token.Colon) {
			p.advance()
			ret, ok := p.parseTypeSpecifier()
			if !ok {
				return 0, false
			}
			p.tree.Get(node).DataType = ret
		}
		body, ok := p.blockStmt()
		if !ok {
			return 0, false
		}
		p.tree.Get(node).Body = body
		return node, true
	}

	node := p.newNode(ast.Node{Kind: ast.PropertyDecl, Text: name.Text, Modifier: mods, Span: name.Span})
	if p.at(token.Colon) {
		p.advance()
		tp, ok := p.parseTypeSpecifier()
		if !ok {
			return 0, false
		}
		p.tree.Get(node).DataType = tp
	}
	if p.at(token.Assign) {
		p.advance()
		init, ok := p.ExpressionNoComma()
		if !ok {
			return 0, false
		}
		p.tree.Get(node).Initializer = init
	}
	p.eat(token.Semicolon)
	return node, true
}

// operatorDecl parses `operator <sym> (params) [: Type] { body }` (a
// binary/unary overload) or `operator TypeName() { body }` (a conversion
// overload, tagged OpConvert).
func (p *Parser) operatorDecl(mods ast.NodeID) (ast.NodeID, bool) {
	start := p.advance().Span // 'operator'
	node := p.newNode(ast.Node{Kind: ast.OperatorDecl, Modifier: mods, Span: start})

	if sym, ok := operatorSymbolOps[p.cur().Kind]; ok {
		p.tree.Get(node).Op = sym
		p.tree.Get(node).Text = p.advance().Text
	} else if p.at(token.Ident) {
		// Conversion operator: `operator TypeName()`.
		tp, ok := p.parseTypeSpecifier()
		if !ok {
			return 0, false
		}
		p.tree.Get(node).Op = ast.OpConvert
		p.tree.Get(node).DataType = tp
	} else {
		p.errorf(diag.SynExpectedTokenGot, p.cur().Span, "expected operator symbol or type name after 'operator'")
		return 0, false
	}

	params, ok := p.parseParamList()
	if !ok {
		return 0, false
	}
	p.tree.Get(node).Parameters = params
	if p.at(token.Colon) {
		p.advance()
		ret, ok := p.parseTypeSpecifier()
		if !ok {
			return 0, false
		}
		p.tree.Get(node).DataType = ret
	}
	body, ok := p.blockStmt()
	if !ok {
		return 0, false
	}
	p.tree.Get(node).Body = body
	return node, true
}

var operatorSymbolOps = map[token.Kind]ast.OperatorKind{
	token.Plus: ast.OpAdd, token.Minus: ast.OpSub, token.Star: ast.OpMul,
	token.Slash: ast.OpDiv, token.Percent: ast.OpMod,
	token.EqEq: ast.OpEq, token.BangEq: ast.OpNe,
	token.Lt: ast.OpLt, token.LtEq: ast.OpLe, token.Gt: ast.OpGt, token.GtEq: ast.OpGe,
	token.Amp: ast.OpBitAnd, token.Pipe: ast.OpBitOr, token.Caret: ast.OpBitXor,
	token.Shl: ast.OpShl, token.Shr: ast.OpShr,
	token.Bang: ast.OpNot, token.Tilde: ast.OpBitNot,
}

func (p *Parser) typeAliasDecl() (ast.NodeID, bool) {
	start := p.advance().Span // 'type'
	name, ok := p.expect(token.Ident)
	if !ok {
		return 0, false
	}
	if _, ok := p.expect(token.Assign); !ok {
		return 0, false
	}
	target, ok := p.parseTypeSpecifier()
	if !ok {
		return 0, false
	}
	p.eat(token.Semicolon)
	return p.newNode(ast.Node{Kind: ast.TypeAlias, Text: name.Text, Alias: target, Span: start}), true
}

// importDecl parses `import { a, b as c } from "mod";` or
// `import { * as M } from "mod";`.
func (p *Parser) importDecl() (ast.NodeID, bool) {
	start := p.advance().Span // 'import'
	if _, ok := p.expect(token.LBrace); !ok {
		return 0, false
	}
	specs, _ := p.listOf(p.importSpecifier, func() bool { _, ok := p.eat(token.Comma); return ok })
	if _, ok := p.expect(token.RBrace); !ok {
		return 0, false
	}
	if _, ok := p.expect(token.KwFrom); !ok {
		return 0, false
	}
	path, ok := p.expect(token.StringLit)
	if !ok {
		return 0, false
	}
	p.eat(token.Semicolon)
	return p.newNode(ast.Node{Kind: ast.ImportDecl, Text: path.Text, Parameters: specs, Span: start}), true
}

func (p *Parser) importSpecifier() (ast.NodeID, bool) {
	start := p.cur().Span
	if p.at(token.Star) {
		p.advance()
		if _, ok := p.expect(token.KwAs); !ok {
			return 0, false
		}
		alias, ok := p.expect(token.Ident)
		if !ok {
			return 0, false
		}
		n := p.newNode(ast.Node{Kind: ast.ImportSpecifier, Text: "*", Span: start})
		p.tree.Get(n).Alias = p.newNode(ast.Node{Kind: ast.Identifier, Text: alias.Text, Span: alias.Span})
		return n, true
	}
	name, ok := p.expect(token.Ident)
	if !ok {
		return 0, false
	}
	n := p.newNode(ast.Node{Kind: ast.ImportSpecifier, Text: name.Text, Span: name.Span})
	if p.at(token.KwAs) {
		p.advance()
		alias, ok := p.expect(token.Ident)
		if !ok {
			return 0, false
		}
		p.tree.Get(n).Alias = p.newNode(ast.Node{Kind: ast.Identifier, Text: alias.Text, Span: alias.Span})
	}
	return n, true
}

func (p *Parser) exportDecl() (ast.NodeID, bool) {
	start := p.advance().Span // 'export'
	decl, ok := p.Declaration()
	if !ok {
		return 0, false
	}
	return p.newNode(ast.Node{Kind: ast.ExportDecl, Body: decl, Span: start}), true
}
