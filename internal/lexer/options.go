package lexer

import (
	"loom/internal/diag"
	"loom/internal/source"
)

// Options configures a Lexer. Reporter may be nil, in which case lexical
// errors are silently skipped over — the lexer stays total either way.
type Options struct {
	Reporter diag.Reporter
}

// errLex reports a lexical error at severity error.
func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}
