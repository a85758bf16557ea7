package parser

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/token"
)

var stmtSyncSet = []token.Kind{token.Semicolon, token.RBrace, token.EOF}

// Statement parses one statement, recovering via panic-mode
// resynchronization to the next ';' or '}' on failure.
func (p *Parser) Statement() (ast.NodeID, bool) {
	id, ok := p.statementInner()
	if ok {
		return id, true
	}
	start := p.cur().Span
	p.synchronize(stmtSyncSet...)
	return p.errorNode(start), true
}

func (p *Parser) statementInner() (ast.NodeID, bool) {
	switch p.cur().Kind {
	case token.LBrace:
		return p.blockStmt()
	case token.KwLet, token.KwConst:
		return p.varDeclStmt()
	case token.KwIf:
		return p.ifStmt()
	case token.KwWhile:
		return p.whileStmt()
	case token.KwDo:
		return p.doWhileStmt()
	case token.KwFor:
		return p.forStmt()
	case token.KwSwitch:
		return p.switchStmt()
	case token.KwTry:
		return p.tryStmt()
	case token.KwThrow:
		return p.throwStmt()
	case token.KwReturn:
		return p.returnStmt()
	case token.KwBreak:
		sp := p.advance().Span
		p.eat(token.Semicolon)
		return p.newNode(ast.Node{Kind: ast.Break, Span: sp}), true
	case token.KwContinue:
		sp := p.advance().Span
		p.eat(token.Semicolon)
		return p.newNode(ast.Node{Kind: ast.Continue, Span: sp}), true
	case token.KwNew:
		return p.placementNewStmt()
	case token.KwClass, token.KwFunction, token.KwType, token.KwImport, token.KwExport:
		return p.Declaration()
	case token.Semicolon:
		sp := p.advance().Span
		return p.newNode(ast.Node{Kind: ast.Block, Span: sp}), true
	default:
		return p.exprStmt()
	}
}

func (p *Parser) blockStmt() (ast.NodeID, bool) {
	start, ok := p.expect(token.LBrace)
	if !ok {
		return 0, false
	}
	var head, tail ast.NodeID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		stmt, ok := p.Statement()
		if !ok {
			break
		}
		if head == 0 {
			head = stmt
		} else {
			p.tree.Get(tail).Next = stmt
		}
		tail = stmt
	}
	if _, ok := p.expect(token.RBrace); !ok {
		return 0, false
	}
	return p.newNode(ast.Node{Kind: ast.Block, Body: head, Span: start.Span}), true
}

// varDeclStmt parses `let/const name[: Type] [= init];` or the
// object-decompositor form `let { a, b: renamed } = init;`.
func (p *Parser) varDeclStmt() (ast.NodeID, bool) {
	kw := p.advance() // let | const
	var lhs ast.NodeID
	var ok bool
	if p.at(token.LBrace) {
		lhs, ok = p.decompositorPattern()
	} else {
		name, nameOK := p.expect(token.Ident)
		if !nameOK {
			return 0, false
		}
		lhs = p.newNode(ast.Node{Kind: ast.Identifier, Text: name.Text, Span: name.Span})
		ok = true
	}
	if !ok {
		return 0, false
	}
	node := p.newNode(ast.Node{Kind: ast.VarDecl, LValue: lhs, Span: kw.Span})
	if kw.Kind == token.KwConst {
		p.tree.Get(node).Modifier = p.newNode(ast.Node{Kind: ast.Modifier, Text: "const"})
	}
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

// decompositorPattern parses `{ a, b: alias, ... }`, producing a chain of
// Identifier nodes (Text = source field, Alias = optional rename target)
// rooted under a Decompositor node.
func (p *Parser) decompositorPattern() (ast.NodeID, bool) {
	start, ok := p.expect(token.LBrace)
	if !ok {
		return 0, false
	}
	head, _ := p.listOf(func() (ast.NodeID, bool) {
		field, ok := p.expect(token.Ident)
		if !ok {
			return 0, false
		}
		n := p.newNode(ast.Node{Kind: ast.Identifier, Text: field.Text, Span: field.Span})
		if p.at(token.Colon) {
			p.advance()
			alias, ok := p.expect(token.Ident)
			if !ok {
				return 0, false
			}
			p.tree.Get(n).Alias = p.newNode(ast.Node{Kind: ast.Identifier, Text: alias.Text, Span: alias.Span})
		}
		return n, true
	}, func() bool { _, ok := p.eat(token.Comma); return ok })
	if _, ok := p.expect(token.RBrace); !ok {
		return 0, false
	}
	return p.newNode(ast.Node{Kind: ast.Decompositor, Body: head, Span: start.Span}), true
}

func (p *Parser) ifStmt() (ast.NodeID, bool) {
	start := p.advance().Span // 'if'
	if _, ok := p.expect(token.LParen); !ok {
		return 0, false
	}
	cond, ok := p.Expression()
	if !ok {
		return 0, false
	}
	if _, ok := p.expect(token.RParen); !ok {
		return 0, false
	}
	body, ok := p.Statement()
	if !ok {
		return 0, false
	}
	node := p.newNode(ast.Node{Kind: ast.If, Cond: cond, Body: body, Span: start})
	if p.at(token.KwElse) {
		p.advance()
		elseBody, ok := p.Statement()
		if !ok {
			return 0, false
		}
		p.tree.Get(node).ElseBody = elseBody
	}
	return node, true
}

func (p *Parser) whileStmt() (ast.NodeID, bool) {
	start := p.advance().Span
	if _, ok := p.expect(token.LParen); !ok {
		return 0, false
	}
	cond, ok := p.Expression()
	if !ok {
		return 0, false
	}
	if _, ok := p.expect(token.RParen); !ok {
		return 0, false
	}
	body, ok := p.Statement()
	if !ok {
		return 0, false
	}
	return p.newNode(ast.Node{Kind: ast.While, Cond: cond, Body: body, Span: start}), true
}

func (p *Parser) doWhileStmt() (ast.NodeID, bool) {
	start := p.advance().Span // 'do'
	body, ok := p.Statement()
	if !ok {
		return 0, false
	}
	if _, ok := p.expect(token.KwWhile); !ok {
		return 0, false
	}
	if _, ok := p.expect(token.LParen); !ok {
		return 0, false
	}
	cond, ok := p.Expression()
	if !ok {
		return 0, false
	}
	if _, ok := p.expect(token.RParen); !ok {
		return 0, false
	}
	p.eat(token.Semicolon)
	return p.newNode(ast.Node{Kind: ast.DoWhile, Cond: cond, Body: body, Span: start}), true
}

func (p *Parser) forStmt() (ast.NodeID, bool) {
	start := p.advance().Span
	if _, ok := p.expect(token.LParen); !ok {
		return 0, false
	}
	var init ast.NodeID
	if !p.at(token.Semicolon) {
		var ok bool
		if p.atAny(token.KwLet, token.KwConst) {
			init, ok = p.varDeclStmt()
		} else {
			init, ok = p.Expression()
			p.eat(token.Semicolon)
		}
		if !ok {
			return 0, false
		}
	} else {
		p.advance()
	}
	var cond ast.NodeID
	if !p.at(token.Semicolon) {
		var ok bool
		cond, ok = p.Expression()
		if !ok {
			return 0, false
		}
	}
	if _, ok := p.expect(token.Semicolon); !ok {
		return 0, false
	}
	var post ast.NodeID
	if !p.at(token.RParen) {
		var ok bool
		post, ok = p.Expression()
		if !ok {
			return 0, false
		}
	}
	if _, ok := p.expect(token.RParen); !ok {
		return 0, false
	}
	body, ok := p.Statement()
	if !ok {
		return 0, false
	}
	return p.newNode(ast.Node{
		Kind: ast.For, Initializer: init, Cond: cond, RValue: post, Body: body, Span: start,
	}), true
}

func (p *Parser) switchStmt() (ast.NodeID, bool) {
	start := p.advance().Span
	if _, ok := p.expect(token.LParen); !ok {
		return 0, false
	}
	subject, ok := p.Expression()
	if !ok {
		return 0, false
	}
	if _, ok := p.expect(token.RParen); !ok {
		return 0, false
	}
	if _, ok := p.expect(token.LBrace); !ok {
		return 0, false
	}
	var head, tail ast.NodeID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		c, ok := p.caseClause()
		if !ok {
			break
		}
		if head == 0 {
			head = c
		} else {
			p.tree.Get(tail).Next = c
		}
		tail = c
	}
	if _, ok := p.expect(token.RBrace); !ok {
		return 0, false
	}
	return p.newNode(ast.Node{Kind: ast.Switch, Cond: subject, Body: head, Span: start}), true
}

func (p *Parser) caseClause() (ast.NodeID, bool) {
	var label ast.NodeID
	start := p.cur().Span
	switch p.cur().Kind {
	case token.KwCase:
		p.advance()
		var ok bool
		label, ok = p.Expression()
		if !ok {
			return 0, false
		}
	case token.KwDefault:
		p.advance()
	default:
		p.errorf(diag.SynExpectedTokenGot, p.cur().Span, "expected 'case' or 'default'")
		return 0, false
	}
	if _, ok := p.expect(token.Colon); !ok {
		return 0, false
	}
	var head, tail ast.NodeID
	for !p.atAny(token.KwCase, token.KwDefault, token.RBrace, token.EOF) {
		stmt, ok := p.Statement()
		if !ok {
			break
		}
		if head == 0 {
			head = stmt
		} else {
			p.tree.Get(tail).Next = stmt
		}
		tail = stmt
	}
	return p.newNode(ast.Node{Kind: ast.Case, LValue: label, Body: head, Span: start}), true
}

func (p *Parser) tryStmt() (ast.NodeID, bool) {
	start := p.advance().Span
	body, ok := p.blockStmt()
	if !ok {
		return 0, false
	}
	if _, ok := p.expect(token.KwCatch); !ok {
		return 0, false
	}
	if _, ok := p.expect(token.LParen); !ok {
		return 0, false
	}
	name, ok := p.expect(token.Ident)
	if !ok {
		return 0, false
	}
	if _, ok := p.eat(token.Colon); !ok {
		p.errorf(diag.SynExpectedTypeCatch, p.cur().Span, "catch clause requires a typed parameter")
		return 0, false
	}
	tp, ok := p.parseTypeSpecifier()
	if !ok {
		p.errorf(diag.SynExpectedTypeCatch, p.cur().Span, "catch clause requires a typed parameter")
		return 0, false
	}
	param := p.newNode(ast.Node{Kind: ast.Param, Text: name.Text, DataType: tp, Span: name.Span})
	if _, ok := p.expect(token.RParen); !ok {
		return 0, false
	}
	handler, ok := p.blockStmt()
	if !ok {
		return 0, false
	}
	return p.newNode(ast.Node{Kind: ast.TryCatch, Body: body, Parameters: param, ElseBody: handler, Span: start}), true
}

func (p *Parser) throwStmt() (ast.NodeID, bool) {
	start := p.advance().Span
	val, ok := p.Expression()
	if !ok {
		return 0, false
	}
	p.eat(token.Semicolon)
	return p.newNode(ast.Node{Kind: ast.Throw, RValue: val, Span: start}), true
}

func (p *Parser) returnStmt() (ast.NodeID, bool) {
	start := p.advance().Span
	var val ast.NodeID
	if !p.at(token.Semicolon) && !p.at(token.RBrace) {
		var ok bool
		val, ok = p.Expression()
		if !ok {
			return 0, false
		}
	}
	p.eat(token.Semicolon)
	return p.newNode(ast.Node{Kind: ast.Return, RValue: val, Span: start}), true
}

// placementNewStmt parses `new Type(args) => target;`.
func (p *Parser) placementNewStmt() (ast.NodeID, bool) {
	start := p.cur().Span
	expr, ok := p.newExpr()
	if !ok {
		return 0, false
	}
	if _, ok := p.expect(token.FatArrow); !ok {
		return 0, false
	}
	target, ok := p.Expression()
	if !ok {
		return 0, false
	}
	p.eat(token.Semicolon)
	return p.newNode(ast.Node{Kind: ast.PlacementNew, RValue: expr, LValue: target, Span: start}), true
}

func (p *Parser) exprStmt() (ast.NodeID, bool) {
	start := p.cur().Span
	expr, ok := p.Expression()
	if !ok {
		return 0, false
	}
	if _, ok := p.eat(token.Semicolon); !ok {
		p.errorf(diag.SynMissingSemicolon, p.cur().Span, "missing ';' after expression statement")
	}
	return p.newNode(ast.Node{Kind: ast.ExprStmt, RValue: expr, Span: start}), true
}
