package lexer

import (
	"loom/internal/source"
	"loom/internal/token"
)

// Lexer turns a source file into a stream of tokens. It is total: every
// byte range is covered by some token, with unrecognized input surfacing
// as an Invalid token plus a diagnostic rather than a hard failure.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	queue  []token.Token // tokens produced but not yet handed to the caller
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{file: file, cursor: NewCursor(file), opts: opts}
}

// Next returns the next significant token, consuming it.
func (lx *Lexer) Next() token.Token {
	if len(lx.queue) > 0 {
		tok := lx.queue[0]
		lx.queue = lx.queue[1:]
		return tok
	}
	tok, suffix := lx.scanOne()
	if suffix != nil {
		lx.queue = append(lx.queue, *suffix)
	}
	return tok
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if len(lx.queue) == 0 {
		tok, suffix := lx.scanOne()
		lx.queue = append(lx.queue, tok)
		if suffix != nil {
			lx.queue = append(lx.queue, *suffix)
		}
	}
	return lx.queue[0]
}

// scanOne scans exactly one token from the input. When that token is a
// `number`, it also eagerly checks for an immediately adjacent suffix (no
// intervening trivia) and returns it as a second token to queue, so the
// parser sees `number` and `number_suffix` as distinct consecutive tokens
// only when the source actually wrote them back to back.
func (lx *Lexer) scanOne() (tok token.Token, suffix *token.Token) {
	lx.skipTrivia()
	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}, nil
	}

	ch := lx.cursor.Peek()
	switch {
	case isIdentStartByte(ch):
		tok = lx.scanIdentOrKeyword()
	case ch >= utf8RuneSelf:
		tok = lx.scanIdentOrKeyword()
	case isDec(ch):
		tok = lx.scanNumber()
	case ch == '.' && lx.isNumberAfterDot():
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanString()
	case ch == '`':
		tok = lx.scanTemplateString()
	default:
		tok = lx.scanOperatorOrPunct()
	}

	if tok.Kind == token.Number {
		if suf, ok := lx.tryScanNumberSuffix(); ok {
			suffix = &suf
		}
	}
	return tok, suffix
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}
