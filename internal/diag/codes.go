package diag

import "fmt"

// Code is a stable, closed diagnostic identifier. Codes are grouped by
// compilation stage in blocks of 1000 so a reader can tell a code's origin
// at a glance.
type Code uint16

const (
	UnknownCode Code = 0

	// Lex errors.
	LexUnterminatedString       Code = 1000
	LexUnexpectedChar           Code = 1001
	LexBadNumberSuffix          Code = 1002
	LexUnterminatedBlockComment Code = 1003

	// Parse errors.
	SynExpectedTokenGot  Code = 2000
	SynMissingSemicolon  Code = 2001
	SynUnbalancedBracket Code = 2002
	SynEmptyClassBody    Code = 2003
	SynExpectedTypeCatch Code = 2004
	SynExpectedIdent     Code = 2005

	// Resolution errors.
	ResIdentifierNotFound    Code = 3000
	ResWrongSymbolKind       Code = 3001
	ResAmbiguousOverload     Code = 3002
	ResNoMatchingOverload    Code = 3003
	ResPrivateAccess         Code = 3004
	ResTemplateArityMismatch Code = 3005
	ResThisOutsideClass      Code = 3006
	ResLoopJumpOutsideLoop   Code = 3007
	ResExportOutsideRoot     Code = 3008
	ResImportOutsideRoot     Code = 3009
	ResImportNotFound        Code = 3010
	ResExportAmbiguous       Code = 3011
	ResAmbiguousConstructor  Code = 3012
	ResNoMatchingConstructor Code = 3013
	ResTypeExpected          Code = 3014
	ResDuplicateDestructor   Code = 3015
	ResReturnTypeRequired    Code = 3016
	ResImportSymbolNotFound  Code = 3017

	// Candidate info attached to ambiguity errors.
	InfoCouldBe Code = 3900

	// Runtime errors.
	RtStackOverflow         Code = 4000
	RtInvalidInstruction    Code = 4001
	RtInvalidCallback       Code = 4002
	RtHostSignatureMismatch Code = 4003

	// Project/workspace errors (module discovery and the dependency graph).
	ProjDuplicateModule  Code = 5000
	ProjMissingModule    Code = 5001
	ProjSelfImport       Code = 5002
	ProjImportCycle      Code = 5003
	ProjDependencyFailed Code = 5004
)

var codeNames = map[Code]string{
	UnknownCode:              "unknown",
	LexUnterminatedString:       "lex-unterminated-string",
	LexUnexpectedChar:           "lex-unexpected-char",
	LexBadNumberSuffix:          "lex-bad-number-suffix",
	LexUnterminatedBlockComment: "lex-unterminated-block-comment",
	SynExpectedTokenGot:      "syn-expected-token",
	SynMissingSemicolon:      "syn-missing-semicolon",
	SynUnbalancedBracket:     "syn-unbalanced-bracket",
	SynEmptyClassBody:        "syn-empty-class-body",
	SynExpectedTypeCatch:     "syn-catch-needs-type",
	SynExpectedIdent:         "syn-expected-identifier",
	ResIdentifierNotFound:    "identifier-not-found",
	ResWrongSymbolKind:       "wrong-symbol-kind",
	ResAmbiguousOverload:     "ambiguous-overload",
	ResNoMatchingOverload:    "no-matching-overload",
	ResPrivateAccess:         "private-access",
	ResTemplateArityMismatch: "too-few-template-args",
	ResThisOutsideClass:      "this-outside-class",
	ResLoopJumpOutsideLoop:   "continue-outside-loop",
	ResExportOutsideRoot:     "export-not-in-root",
	ResImportOutsideRoot:     "import-not-in-root",
	ResImportNotFound:        "import-not-found",
	ResExportAmbiguous:       "export-ambiguous",
	ResAmbiguousConstructor:  "ambiguous-constructor",
	ResNoMatchingConstructor: "no-matching-constructor",
	ResTypeExpected:          "type-expected",
	ResDuplicateDestructor:   "duplicate-destructor",
	ResReturnTypeRequired:    "return-type-required",
	ResImportSymbolNotFound:  "import-symbol-not-found",
	InfoCouldBe:              "could-be",
	RtStackOverflow:          "vm-stack-overflow",
	RtInvalidInstruction:     "vm-invalid-instruction",
	RtInvalidCallback:        "vm-invalid-callback",
	RtHostSignatureMismatch:  "vm-host-signature-mismatch",
	ProjDuplicateModule:      "project-duplicate-module",
	ProjMissingModule:        "project-missing-module",
	ProjSelfImport:           "project-self-import",
	ProjImportCycle:          "project-import-cycle",
	ProjDependencyFailed:     "project-dependency-failed",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("code-%d", uint16(c))
}
