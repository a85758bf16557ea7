package lexer

import (
	"golang.org/x/text/unicode/norm"

	"loom/internal/token"
)

const utf8RuneSelf = 0x80

// scanIdentOrKeyword scans [A-Za-z_][A-Za-z0-9_]* (plus Unicode continuation
// bytes) and classifies the result against the keyword table. Keywords are
// case-sensitive; only the exact lowercase spelling is reserved.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()

	r, sz := lx.peekRune()
	if sz == 0 {
		return token.Token{Kind: token.Invalid, Span: lx.cursor.SpanFrom(start)}
	}
	if r < utf8RuneSelf {
		if !isIdentStartByte(byte(r)) {
			return lx.scanOperatorOrPunct()
		}
		lx.cursor.Bump()
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	} else {
		if !isIdentStartRune(r) {
			return lx.scanOperatorOrPunct()
		}
		lx.bumpRune()
		for {
			r2, sz2 := lx.peekRune()
			if sz2 == 0 || !isIdentContinueRune(r2) {
				break
			}
			lx.bumpRune()
		}
	}

	sp := lx.cursor.SpanFrom(start)
	raw := lx.file.Content[sp.Start:sp.End]
	// Multi-byte identifiers are NFC-normalized so two spellings of the same
	// name always intern to one symbol.
	text := string(norm.NFC.Bytes(raw))

	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}
