package parser

import (
	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/token"
)

// Expression parses a full expression, starting from the lowest
// (comma) precedence level.
func (p *Parser) Expression() (ast.NodeID, bool) {
	return p.commaExpr()
}

// ExpressionNoComma parses an expression one level above comma, used in
// contexts (call arguments, array elements) where ',' is a separator
// rather than the comma operator.
func (p *Parser) ExpressionNoComma() (ast.NodeID, bool) {
	return p.assignExpr()
}

func (p *Parser) commaExpr() (ast.NodeID, bool) {
	lhs, ok := p.assignExpr()
	if !ok {
		return 0, false
	}
	for p.at(token.Comma) {
		p.advance()
		rhs, ok := p.assignExpr()
		if !ok {
			return 0, false
		}
		lhs = p.newNode(ast.Node{Kind: ast.BinaryExpr, Op: ast.OpNone, LValue: lhs, RValue: rhs})
	}
	return lhs, true
}

var assignOps = map[token.Kind]ast.OperatorKind{
	token.Assign:       ast.OpAssign,
	token.PlusAssign:   ast.OpAddAssign,
	token.MinusAssign:  ast.OpSubAssign,
	token.StarAssign:   ast.OpMulAssign,
	token.SlashAssign:  ast.OpDivAssign,
	token.PercentAssign: ast.OpModAssign,
	token.AmpAssign:    ast.OpBitAndAssign,
	token.PipeAssign:   ast.OpBitOrAssign,
	token.CaretAssign:  ast.OpBitXorAssign,
	token.ShlAssign:    ast.OpShlAssign,
	token.ShrAssign:    ast.OpShrAssign,
	token.AndAndAssign: ast.OpAndAssign,
	token.OrOrAssign:   ast.OpOrAssign,
}

func (p *Parser) assignExpr() (ast.NodeID, bool) {
	if id, ok := p.tryArrowFunction(); ok {
		return id, true
	}

	lhs, ok := p.conditionalExpr()
	if !ok {
		return 0, false
	}
	if op, isAssign := assignOps[p.cur().Kind]; isAssign {
		p.advance()
		rhs, ok := p.assignExpr()
		if !ok {
			p.errorf(diag.SynExpectedTokenGot, p.cur().Span, "expected expression after assignment operator")
			return 0, false
		}
		return p.newNode(ast.Node{Kind: ast.AssignExpr, Op: op, LValue: lhs, RValue: rhs}), true
	}
	return lhs, true
}

// tryArrowFunction speculatively parses `(params) => body` or
// `ident => body`, reverting if the `=>` never materializes.
func (p *Parser) tryArrowFunction() (ast.NodeID, bool) {
	p.push()
	var params ast.NodeID
	if p.at(token.Ident) {
		name := p.advance()
		params = p.newNode(ast.Node{Kind: ast.Param, Text: name.Text, Span: name.Span})
	} else if p.at(token.LParen) {
		params, _ = p.parseParamList()
	} else {
		p.revert()
		return 0, false
	}
	if !p.at(token.FatArrow) {
		p.revert()
		return 0, false
	}
	p.advance()
	var body ast.NodeID
	var ok bool
	if p.at(token.LBrace) {
		body, ok = p.blockStmt()
	} else {
		body, ok = p.assignExpr()
	}
	if !ok {
		p.revert()
		return 0, false
	}
	p.commit()
	return p.newNode(ast.Node{Kind: ast.ArrowFunction, Parameters: params, Body: body}), true
}

func (p *Parser) conditionalExpr() (ast.NodeID, bool) {
	cond, ok := p.logicalOrExpr()
	if !ok {
		return 0, false
	}
	if !p.at(token.Question) {
		return cond, true
	}
	p.advance()
	thenExpr, ok := p.assignExpr()
	if !ok {
		p.errorf(diag.SynExpectedTokenGot, p.cur().Span, "expected expression after '?'")
		return 0, false
	}
	if _, ok := p.expect(token.Colon); !ok {
		return 0, false
	}
	elseExpr, ok := p.conditionalExpr()
	if !ok {
		p.errorf(diag.SynExpectedTokenGot, p.cur().Span, "expected expression after ':'")
		return 0, false
	}
	return p.newNode(ast.Node{Kind: ast.ConditionalExpr, Cond: cond, LValue: thenExpr, RValue: elseExpr}), true
}

func (p *Parser) logicalOrExpr() (ast.NodeID, bool) {
	return p.climb(map[token.Kind]ast.OperatorKind{token.OrOr: ast.OpOr}, (*Parser).logicalAndExpr)
}
func (p *Parser) logicalAndExpr() (ast.NodeID, bool) {
	return p.climb(map[token.Kind]ast.OperatorKind{token.AndAnd: ast.OpAnd}, (*Parser).bitOrExpr)
}
func (p *Parser) bitOrExpr() (ast.NodeID, bool) {
	return p.climb(map[token.Kind]ast.OperatorKind{token.Pipe: ast.OpBitOr}, (*Parser).bitXorExpr)
}
func (p *Parser) bitXorExpr() (ast.NodeID, bool) {
	return p.climb(map[token.Kind]ast.OperatorKind{token.Caret: ast.OpBitXor}, (*Parser).bitAndExpr)
}
func (p *Parser) bitAndExpr() (ast.NodeID, bool) {
	return p.climb(map[token.Kind]ast.OperatorKind{token.Amp: ast.OpBitAnd}, (*Parser).equalityExpr)
}
func (p *Parser) equalityExpr() (ast.NodeID, bool) {
	return p.climb(map[token.Kind]ast.OperatorKind{token.EqEq: ast.OpEq, token.BangEq: ast.OpNe}, (*Parser).relationalExpr)
}
func (p *Parser) relationalExpr() (ast.NodeID, bool) {
	return p.climb(map[token.Kind]ast.OperatorKind{
		token.Lt: ast.OpLt, token.LtEq: ast.OpLe, token.Gt: ast.OpGt, token.GtEq: ast.OpGe,
	}, (*Parser).shiftExpr)
}
func (p *Parser) shiftExpr() (ast.NodeID, bool) {
	return p.climb(map[token.Kind]ast.OperatorKind{token.Shl: ast.OpShl, token.Shr: ast.OpShr}, (*Parser).additiveExpr)
}
func (p *Parser) additiveExpr() (ast.NodeID, bool) {
	return p.climb(map[token.Kind]ast.OperatorKind{token.Plus: ast.OpAdd, token.Minus: ast.OpSub}, (*Parser).multiplicativeExpr)
}
func (p *Parser) multiplicativeExpr() (ast.NodeID, bool) {
	return p.climb(map[token.Kind]ast.OperatorKind{
		token.Star: ast.OpMul, token.Slash: ast.OpDiv, token.Percent: ast.OpMod,
	}, (*Parser).unaryExpr)
}

// climb parses a single left-associative binary precedence level: one
// operand at the next-tighter level, then zero or more (op, operand)
// pairs at this level.
func (p *Parser) climb(ops map[token.Kind]ast.OperatorKind, next func(*Parser) (ast.NodeID, bool)) (ast.NodeID, bool) {
	lhs, ok := next(p)
	if !ok {
		return 0, false
	}
	for {
		op, isOp := ops[p.cur().Kind]
		if !isOp {
			return lhs, true
		}
		p.advance()
		rhs, ok := next(p)
		if !ok {
			p.errorf(diag.SynExpectedTokenGot, p.cur().Span, "expected expression after operator")
			return 0, false
		}
		lhs = p.newNode(ast.Node{Kind: ast.BinaryExpr, Op: op, LValue: lhs, RValue: rhs})
	}
}

var unaryOps = map[token.Kind]ast.OperatorKind{
	token.Bang: ast.OpNot, token.Tilde: ast.OpBitNot,
	token.Minus: ast.OpNeg, token.Plus: ast.OpPos,
	token.PlusPlus: ast.OpInc, token.MinusMinus: ast.OpDec,
}

func (p *Parser) unaryExpr() (ast.NodeID, bool) {
	if op, ok := unaryOps[p.cur().Kind]; ok {
		start := p.cur().Span
		p.advance()
		operand, ok := p.unaryExpr()
		if !ok {
			p.errorf(diag.SynExpectedTokenGot, p.cur().Span, "expected expression after unary operator")
			return 0, false
		}
		return p.newNode(ast.Node{Kind: ast.UnaryExpr, Op: op, RValue: operand, Span: start}), true
	}
	if p.at(token.KwSizeof) {
		p.advance()
		if _, ok := p.expect(token.LParen); !ok {
			return 0, false
		}
		tp, ok := p.parseTypeSpecifier()
		if !ok {
			return 0, false
		}
		if _, ok := p.expect(token.RParen); !ok {
			return 0, false
		}
		return p.newNode(ast.Node{Kind: ast.UnaryExpr, Op: ast.OpNone, DataType: tp}), true
	}
	if p.at(token.KwAs) || p.at(token.KwNew) {
		return p.castOrNewExpr()
	}
	return p.postfixExpr()
}

func (p *Parser) castOrNewExpr() (ast.NodeID, bool) {
	if p.at(token.KwNew) {
		return p.newExpr()
	}
	return p.postfixExpr()
}

func (p *Parser) newExpr() (ast.NodeID, bool) {
	start := p.advance().Span // 'new'
	tp, ok := p.parseTypeSpecifier()
	if !ok {
		return 0, false
	}
	var args ast.NodeID
	if p.at(token.LParen) {
		p.advance()
		args, _ = p.arrayOf(func() (ast.NodeID, bool) { return p.ExpressionNoComma() })
		if _, ok := p.expect(token.RParen); !ok {
			return 0, false
		}
	}
	return p.newNode(ast.Node{Kind: ast.NewExpr, DataType: tp, Parameters: args, Span: start}), true
}

func (p *Parser) postfixExpr() (ast.NodeID, bool) {
	expr, ok := p.primaryExpr()
	if !ok {
		return 0, false
	}
	for {
		switch {
		case p.at(token.Dot):
			p.advance()
			name, ok := p.expect(token.Ident)
			if !ok {
				return 0, false
			}
			member := p.newNode(ast.Node{Kind: ast.Identifier, Text: name.Text, Span: name.Span})
			expr = p.newNode(ast.Node{Kind: ast.MemberExpr, LValue: expr, RValue: member})
		case p.at(token.LBracket):
			p.advance()
			idx, ok := p.Expression()
			if !ok {
				return 0, false
			}
			if _, ok := p.expect(token.RBracket); !ok {
				return 0, false
			}
			expr = p.newNode(ast.Node{Kind: ast.IndexExpr, LValue: expr, RValue: idx})
		case p.at(token.LParen):
			p.advance()
			args, _ := p.listOf(func() (ast.NodeID, bool) { return p.ExpressionNoComma() },
				func() bool { _, ok := p.eat(token.Comma); return ok })
			if _, ok := p.expect(token.RParen); !ok {
				return 0, false
			}
			expr = p.newNode(ast.Node{Kind: ast.CallExpr, LValue: expr, Parameters: args})
		case p.at(token.KwAs):
			p.advance()
			tp, ok := p.parseTypeSpecifier()
			if !ok {
				return 0, false
			}
			expr = p.newNode(ast.Node{Kind: ast.CastExpr, LValue: expr, DataType: tp})
		case p.at(token.PlusPlus) || p.at(token.MinusMinus):
			op := ast.OpInc
			if p.cur().Kind == token.MinusMinus {
				op = ast.OpDec
			}
			p.advance()
			expr = p.newNode(ast.Node{Kind: ast.PostfixExpr, Op: op, LValue: expr})
		default:
			return expr, true
		}
	}
}

func (p *Parser) primaryExpr() (ast.NodeID, bool) {
	t := p.cur()
	switch t.Kind {
	case token.Number:
		p.advance()
		lit := p.newNode(ast.Node{Kind: ast.Literal, Text: t.Text, Span: t.Span})
		if p.at(token.NumberSuffix) {
			sfx := p.advance()
			p.tree.Get(lit).Modifier = p.newNode(ast.Node{Kind: ast.Modifier, Text: sfx.Text, Span: sfx.Span})
			p.tree.Get(lit).LiteralKind = suffixLiteralKind(sfx.Text)
		} else {
			p.tree.Get(lit).LiteralKind = defaultLiteralKind(t.Text)
		}
		return lit, true
	case token.StringLit:
		p.advance()
		return p.newNode(ast.Node{Kind: ast.Literal, LiteralKind: ast.LitString, Text: t.Text, Span: t.Span}), true
	case token.TemplateString:
		p.advance()
		return p.newNode(ast.Node{Kind: ast.Literal, LiteralKind: ast.LitTemplateString, Text: t.Text, Span: t.Span}), true
	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.newNode(ast.Node{Kind: ast.Literal, LiteralKind: ast.LitBool, Text: t.Text, Span: t.Span}), true
	case token.KwNull:
		p.advance()
		return p.newNode(ast.Node{Kind: ast.Literal, LiteralKind: ast.LitNull, Text: t.Text, Span: t.Span}), true
	case token.KwThis:
		p.advance()
		return p.newNode(ast.Node{Kind: ast.Identifier, Text: "this", Span: t.Span}), true
	case token.Ident:
		p.advance()
		return p.newNode(ast.Node{Kind: ast.Identifier, Text: t.Text, Span: t.Span}), true
	case token.LParen:
		p.advance()
		inner, ok := p.Expression()
		if !ok {
			return 0, false
		}
		if _, ok := p.expect(token.RParen); !ok {
			return 0, false
		}
		return inner, true
	case token.LBracket:
		p.advance()
		elems, _ := p.listOf(func() (ast.NodeID, bool) { return p.ExpressionNoComma() },
			func() bool { _, ok := p.eat(token.Comma); return ok })
		if _, ok := p.expect(token.RBracket); !ok {
			return 0, false
		}
		return p.newNode(ast.Node{Kind: ast.ArrayLiteral, Parameters: elems, Span: t.Span}), true
	default:
		p.errorf(diag.SynExpectedTokenGot, t.Span, "expected expression, got %s", t.Kind)
		return 0, false
	}
}

func suffixLiteralKind(suffix string) ast.LiteralKind {
	switch suffix {
	case "f":
		return ast.LitF32
	case "b":
		return ast.LitI8
	case "s":
		return ast.LitI16
	case "l":
		return ast.LitI64
	case "ll":
		return ast.LitI64
	case "u":
		return ast.LitU32
	case "ub":
		return ast.LitU8
	case "us":
		return ast.LitU16
	case "ul":
		return ast.LitU32
	case "ull":
		return ast.LitU64
	default:
		return ast.LitI32
	}
}

func defaultLiteralKind(text string) ast.LiteralKind {
	if len(text) >= 2 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X' || text[1] == 'b' || text[1] == 'B' || text[1] == 'o' || text[1] == 'O') {
		return ast.LitI32
	}
	for _, c := range text {
		if c == '.' || c == 'e' || c == 'E' {
			return ast.LitF64
		}
	}
	return ast.LitI32
}
