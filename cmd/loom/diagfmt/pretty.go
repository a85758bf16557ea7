package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"loom/internal/diag"
	"loom/internal/source"
)

var (
	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow, color.Bold)
	infoColor  = color.New(color.FgCyan, color.Bold)
	noteColor  = color.New(color.FgBlue)
	caretColor = color.New(color.FgGreen, color.Bold)
)

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warnColor
	default:
		return infoColor
	}
}

// Pretty renders every diagnostic in bag (in whatever order bag.Items()
// returns them — callers that want stable output should bag.Sort() first)
// as:
//
//	<path>:<line>:<col>: <severity> <code>: <message>
//	  <source line>
//	  <caret underline>
//
// followed by one indented line per note. The underline's width accounts
// for wide/zero-width runes via go-runewidth so multi-byte source lines
// still line up under the right columns.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		printDiagnostic(w, d, fs, opts)
	}
}

func printDiagnostic(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	start, _ := fs.Resolve(d.Primary)
	f := fs.Get(d.Primary.File)
	path := f.FormatPath("auto", fs.BaseDir())

	sevText := d.Severity.String()
	if opts.Color {
		sevText = severityColor(d.Severity).Sprint(sevText)
	}
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n", path, start.Line, start.Col, sevText, d.Code, d.Message)
	printSourceContext(w, f, d.Primary, opts)

	for _, n := range d.Notes {
		nStart, _ := fs.Resolve(n.Span)
		nf := fs.Get(n.Span.File)
		label := "note"
		if opts.Color {
			label = noteColor.Sprint(label)
		}
		fmt.Fprintf(w, "  %s: %s:%d:%d: %s\n", label, nf.FormatPath("auto", fs.BaseDir()), nStart.Line, nStart.Col, n.Msg)
		printSourceContext(w, nf, n.Span, opts)
	}
}

func printSourceContext(w io.Writer, f *source.File, sp source.Span, opts PrettyOpts) {
	start, end := sourceLineCol(f, sp)
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", strings.TrimRight(line, "\r\n"))

	caretStart := runewidth.StringWidth(safeSlice(line, int(start.Col)-1))
	caretLen := 1
	if end.Line == start.Line && end.Col > start.Col {
		caretLen = runewidth.StringWidth(safeSlice(line, int(end.Col)-1)) - caretStart
	}
	if caretLen < 1 {
		caretLen = 1
	}

	underline := strings.Repeat(" ", caretStart) + "^" + strings.Repeat("~", caretLen-1)
	if opts.Color {
		underline = strings.Repeat(" ", caretStart) + caretColor.Sprint("^"+strings.Repeat("~", caretLen-1))
	}
	fmt.Fprintf(w, "  %s\n", underline)
}

func sourceLineCol(f *source.File, sp source.Span) (source.LineCol, source.LineCol) {
	start := lineColOf(f, sp.Start)
	end := lineColOf(f, sp.End)
	return start, end
}

func lineColOf(f *source.File, off uint32) source.LineCol {
	line := uint32(1)
	for _, idx := range f.LineIdx {
		if off > idx {
			line++
			continue
		}
		break
	}
	var lineStart uint32
	if line > 1 {
		lineStart = f.LineIdx[line-2] + 1
	}
	return source.LineCol{Line: line, Col: off - lineStart + 1}
}

func safeSlice(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	return s[:n]
}
