package source

import "fmt"

// Span is a half-open byte range [Start, End) within a File, the unit the
// SourceMap associates with every token, parse node, and IR instruction.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

func (s Span) Empty() bool { return s.Start == s.End }

func (s Span) Len() uint32 { return s.End - s.Start }

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover returns the smallest span containing both s and other. Used when a
// parse node computes its full range from its children's spans.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

func (s Span) ShiftLeft(n uint32) Span  { return Span{File: s.File, Start: s.Start - n, End: s.End - n} }
func (s Span) ShiftRight(n uint32) Span { return Span{File: s.File, Start: s.Start + n, End: s.End + n} }
