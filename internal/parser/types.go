package parser

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/source"
	"loom/internal/token"
)

// parseTypeSpecifier parses a type reference: a base name, optional
// `<Arg, Arg>` template arguments, and zero or more trailing `[]` array
// markers threaded through the Modifier slot.
func (p *Parser) parseTypeSpecifier() (ast.NodeID, bool) {
	name, ok := p.expect(token.Ident)
	if !ok {
		return 0, false
	}
	node := p.newNode(ast.Node{Kind: ast.TypeSpecifier, Text: name.Text, Span: name.Span})

	if p.at(token.Lt) {
		p.advance()
		args, _ := p.listOf(func() (ast.NodeID, bool) { return p.parseTypeSpecifier() },
			func() bool { _, ok := p.eat(token.Comma); return ok })
		if !p.expectGt() {
			return 0, false
		}
		p.tree.Get(node).TemplateParameters = args
	}

	var modHead, modTail ast.NodeID
	for p.at(token.LBracket) {
		p.advance()
		if _, ok := p.expect(token.RBracket); !ok {
			return 0, false
		}
		mod := p.newNode(ast.Node{Kind: ast.Modifier, Text: "[]"})
		if modHead == 0 {
			modHead = mod
		} else {
			p.tree.Get(modTail).Next = mod
		}
		modTail = mod
	}
	if modHead != 0 {
		p.tree.Get(node).Modifier = modHead
	}
	return node, true
}

// expectGt consumes a single '>', splitting a lexed '>>' (Shr) token in
// place when template argument lists close back to back (e.g.
// `Array<Array<int>>`), since the lexer has no context to avoid the
// maximal-munch shift token there.
func (p *Parser) expectGt() bool {
	if _, ok := p.eat(token.Gt); ok {
		return true
	}
	if p.at(token.Shr) {
		t := p.cur()
		mid := t.Span.Start + 1
		p.toks[p.pos] = token.Token{Kind: token.Gt, Span: source.Span{File: t.Span.File, Start: mid, End: t.Span.End}, Text: ">"}
		return true
	}
	p.errorf(diag.SynExpectedTokenGot, p.cur().Span, "expected '>', got %s", p.cur().Kind)
	return false
}

// parseParamList parses `( [param (, param)*] )` into a chain rooted at
// the returned head id (zero if the list was empty).
func (p *Parser) parseParamList() (ast.NodeID, bool) {
	if _, ok := p.expect(token.LParen); !ok {
		return 0, false
	}
	head, _ := p.listOf(p.parseParam, func() bool { _, ok := p.eat(token.Comma); return ok })
	if _, ok := p.expect(token.RParen); !ok {
		return 0, false
	}
	return head, true
}

func (p *Parser) parseParam() (ast.NodeID, bool) {
	if !p.at(token.Ident) {
		return 0, false
	}
	name := p.advance()
	node := p.newNode(ast.Node{Kind: ast.Param, Text: name.Text, Span: name.Span})
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
		def, ok := p.ExpressionNoComma()
		if !ok {
			return 0, false
		}
		p.tree.Get(node).Initializer = def
	}
	return node, true
}

// parseTemplateParamList parses `< T (, T)* >` for a template class or
// function declaration.
func (p *Parser) parseTemplateParamList() (ast.NodeID, bool) {
	if !p.at(token.Lt) {
		return 0, true
	}
	p.advance()
	head, _ := p.listOf(func() (ast.NodeID, bool) {
		if !p.at(token.Ident) {
			return 0, false
		}
		name := p.advance()
		return p.newNode(ast.Node{Kind: ast.TemplateParam, Text: name.Text, Span: name.Span}), true
	}, func() bool { _, ok := p.eat(token.Comma); return ok })
	if !p.expectGt() {
		return 0, false
	}
	return head, true
}
