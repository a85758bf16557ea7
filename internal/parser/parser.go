package parser

import (
	"fmt"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/lexer"
	"loom/internal/source"
	"loom/internal/token"
)

// Parser is a recursive-descent parser with explicit speculative
// backtracking: push saves a restore point, commit discards it, and
// revert restores both the token position and the diagnostic bag back to
// where they were at the matching push.
type Parser struct {
	toks []token.Token
	pos  int

	tree *ast.Tree
	bag  *diag.Bag
	file source.FileID

	saveIdx []int
	saveErr []int
}

// New tokenizes file in full and prepares a Parser over the resulting
// token stream. Lexical diagnostics are reported into bag alongside parse
// diagnostics, sharing the same backtracking discipline.
func New(file *source.File, bag *diag.Bag) *Parser {
	lx := lexer.New(file, lexer.Options{Reporter: &diag.BagReporter{Bag: bag}})
	toks := make([]token.Token, 0, 256)
	for {
		t := lx.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return &Parser{
		toks: toks,
		tree: ast.NewTree(uint32(len(toks) * 2)),
		bag:  bag,
		file: file.ID,
	}
}

// Tree returns the arena backing every node produced by this parse.
func (p *Parser) Tree() *ast.Tree { return p.tree }

func (p *Parser) cur() token.Token { return p.toks[p.pos] }

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) atAny(ks ...token.Kind) bool {
	for _, k := range ks {
		if p.at(k) {
			return true
		}
	}
	return false
}

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) eat(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

// expect consumes k or reports a diag.SynExpectedTokenGot diagnostic and
// returns the current token unconsumed.
func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if t, ok := p.eat(k); ok {
		return t, true
	}
	p.errorf(diag.SynExpectedTokenGot, p.cur().Span,
		"expected %s, got %s", k, p.cur().Kind)
	return p.cur(), false
}

// push saves the current position and diagnostic-bag length.
func (p *Parser) push() {
	p.saveIdx = append(p.saveIdx, p.pos)
	p.saveErr = append(p.saveErr, p.bag.Len())
}

// commit discards the most recent save point, keeping whatever progress
// and diagnostics were made since.
func (p *Parser) commit() {
	p.saveIdx = p.saveIdx[:len(p.saveIdx)-1]
	p.saveErr = p.saveErr[:len(p.saveErr)-1]
}

// revert restores the position and diagnostic bag to the most recent save
// point, undoing a speculative parse attempt.
func (p *Parser) revert() {
	n := len(p.saveIdx) - 1
	p.pos = p.saveIdx[n]
	p.bag.Truncate(p.saveErr[n])
	p.saveIdx = p.saveIdx[:n]
	p.saveErr = p.saveErr[:n]
}

func (p *Parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	d := diag.NewError(code, sp, fmt.Sprintf(format, args...))
	p.bag.Add(d)
}

// synchronize implements panic-mode resynchronization: it scans forward
// until it finds one of the given token kinds (consuming it) or hits EOF,
// so a failed rule can still leave the parser in a recoverable position.
func (p *Parser) synchronize(kinds ...token.Kind) bool {
	for !p.at(token.EOF) {
		if p.atAny(kinds...) {
			p.advance()
			return true
		}
		p.advance()
	}
	return false
}

func (p *Parser) newNode(n ast.Node) ast.NodeID {
	if n.Span.End == 0 && n.Span.Start == 0 {
		n.Span = p.cur().Span
	}
	return p.tree.New(n)
}

// errorNode builds a placeholder node for a rule that failed but was
// recovered from via synchronize, so the caller's slot is never left
// pointing at nothing.
func (p *Parser) errorNode(sp source.Span) ast.NodeID {
	return p.tree.New(ast.Node{Kind: ast.ErrorNode, Span: sp})
}
