package lexer

import (
	"loom/internal/diag"
	"loom/internal/token"
)

// scanNumber scans a numeric literal: 0b/0o/0x-prefixed integers, or a
// decimal integer/float with optional fractional part and e/E exponent.
// Digit groups may be '_'-separated. The literal never includes a suffix —
// that is recognized separately by tryScanNumberSuffix so the parser sees
// `number` and `number_suffix` as distinct adjacent tokens.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump() // '.'
		if !isDec(lx.cursor.Peek()) {
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnexpectedChar, sp, "expected digit after '.'")
			return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
		}
		for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
			lx.cursor.Bump()
		}
		return lx.finishNumber(start)
	}

	if lx.cursor.Peek() == '0' {
		lx.cursor.Bump()
		switch lx.cursor.Peek() {
		case 'b', 'B':
			lx.cursor.Bump()
			for {
				b := lx.cursor.Peek()
				if b == '0' || b == '1' || b == '_' {
					lx.cursor.Bump()
				} else {
					break
				}
			}
			return lx.emitNumber(start)
		case 'o', 'O':
			lx.cursor.Bump()
			for {
				b := lx.cursor.Peek()
				if (b >= '0' && b <= '7') || b == '_' {
					lx.cursor.Bump()
				} else {
					break
				}
			}
			return lx.emitNumber(start)
		case 'x', 'X':
			lx.cursor.Bump()
			for isHex(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
				lx.cursor.Bump()
			}
			return lx.emitNumber(start)
		default:
			// bare "0", possibly followed by a decimal fraction below.
		}
	}

	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}

	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
			lx.cursor.Bump()
		}
	}

	return lx.finishNumber(start)
}

// finishNumber consumes an optional e/E exponent and emits the token.
func (lx *Lexer) finishNumber(start Mark) token.Token {
	if lx.cursor.Peek() == 'e' || lx.cursor.Peek() == 'E' {
		lx.cursor.Bump()
		if lx.cursor.Peek() == '+' || lx.cursor.Peek() == '-' {
			lx.cursor.Bump()
		}
		if !isDec(lx.cursor.Peek()) {
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnexpectedChar, sp, "expected digit after exponent")
			return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
		}
		for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
			lx.cursor.Bump()
		}
	}
	return lx.emitNumber(start)
}

func (lx *Lexer) emitNumber(start Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.Number, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

// validNumberSuffixes is the closed set of recognized numeric-literal
// suffix spellings. Matching is case-sensitive.
var validNumberSuffixes = map[string]bool{
	"f": true, "b": true, "s": true, "l": true, "ll": true,
	"u": true, "ub": true, "us": true, "ul": true, "ull": true,
}

// tryScanNumberSuffix attempts to read a number_suffix token immediately
// following a `number` token with no intervening trivia. A digit run
// directly glued to an identifier-shaped run is never a valid program (no
// grammar rule allows an identifier straight after a numeric expression),
// so once such a run is present, it is always consumed: it becomes the
// suffix token if it exactly matches one of the fixed spellings, otherwise
// it is reported as a malformed suffix rather than silently re-lexed as a
// separate identifier.
func (lx *Lexer) tryScanNumberSuffix() (token.Token, bool) {
	if lx.cursor.EOF() || !isAsciiLetter(lx.cursor.Peek()) {
		return token.Token{}, false
	}
	start := lx.cursor.Mark()
	for isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[sp.Start:sp.End])
	if !validNumberSuffixes[text] {
		lx.errLex(diag.LexBadNumberSuffix, sp, "invalid numeric literal suffix")
		return token.Token{Kind: token.Invalid, Span: sp, Text: text}, true
	}
	return token.Token{Kind: token.NumberSuffix, Span: sp, Text: text}, true
}
