package token

// Kind represents the lexical category of a source token.
type Kind uint8

const (
	// Invalid marks a byte range the lexer could not classify; the lexer is
	// total and always produces a token, so this is never a parse failure
	// by itself.
	Invalid Kind = iota
	// EOF is the sentinel token returned forever once the source is exhausted.
	EOF

	Ident

	// Keywords.
	KwIf
	KwElse
	KwWhile
	KwDo
	KwFor
	KwSwitch
	KwCase
	KwDefault
	KwBreak
	KwContinue
	KwReturn
	KwThrow
	KwTry
	KwCatch
	KwNew
	KwAs
	KwSizeof
	KwThis
	KwNull
	KwTrue
	KwFalse
	KwImport
	KwExport
	KwFrom
	KwType
	KwClass
	KwExtends
	KwFunction
	KwLet
	KwConst
	KwPublic
	KwPrivate
	KwStatic
	KwGet
	KwSet
	KwOperator

	// Literals.
	Number         // digits, optionally with a decimal point
	NumberSuffix   // a numeric-literal suffix: b s l ll u ub us ul ull f
	StringLit      // "..."
	TemplateString // `...`

	// Punctuation / operators.
	Plus             // +
	Minus            // -
	Star             // *
	Slash            // /
	Percent          // %
	Assign           // =
	PlusAssign       // +=
	MinusAssign      // -=
	StarAssign       // *=
	SlashAssign      // /=
	PercentAssign    // %=
	AmpAssign        // &=
	PipeAssign       // |=
	CaretAssign      // ^=
	ShlAssign        // <<=
	ShrAssign        // >>=
	AndAndAssign     // &&=
	OrOrAssign       // ||=
	EqEq             // ==
	Bang             // !
	BangEq           // !=
	Lt               // <
	LtEq             // <=
	Gt               // >
	GtEq             // >=
	Shl              // <<
	Shr              // >>
	Amp              // &
	Pipe             // |
	Caret            // ^
	Tilde            // ~
	AndAnd           // &&
	OrOr             // ||
	PlusPlus         // ++
	MinusMinus       // --
	Question         // ?
	Colon            // :
	Semicolon        // ;
	Comma            // ,
	Dot              // .
	FatArrow         // =>
	LParen           // (
	RParen           // )
	LBrace           // {
	RBrace           // }
	LBracket         // [
	RBracket         // ]
)

var names = map[Kind]string{
	Invalid: "invalid", EOF: "eof", Ident: "identifier",
	KwIf: "if", KwElse: "else", KwWhile: "while", KwDo: "do", KwFor: "for",
	KwSwitch: "switch", KwCase: "case", KwDefault: "default", KwBreak: "break",
	KwContinue: "continue", KwReturn: "return", KwThrow: "throw", KwTry: "try",
	KwCatch: "catch", KwNew: "new", KwAs: "as", KwSizeof: "sizeof", KwThis: "this",
	KwNull: "null", KwTrue: "true", KwFalse: "false", KwImport: "import",
	KwExport: "export", KwFrom: "from", KwType: "type", KwClass: "class",
	KwExtends: "extends", KwFunction: "function", KwLet: "let", KwConst: "const",
	KwPublic: "public", KwPrivate: "private", KwStatic: "static", KwGet: "get",
	KwSet: "set", KwOperator: "operator",
	Number: "number", NumberSuffix: "number_suffix", StringLit: "string",
	TemplateString: "template_string",
	Plus:           "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Assign: "=", PlusAssign: "+=", MinusAssign: "-=", StarAssign: "*=",
	SlashAssign: "/=", PercentAssign: "%=", AmpAssign: "&=", PipeAssign: "|=",
	CaretAssign: "^=", ShlAssign: "<<=", ShrAssign: ">>=", AndAndAssign: "&&=",
	OrOrAssign: "||=", EqEq: "==", Bang: "!", BangEq: "!=", Lt: "<", LtEq: "<=",
	Gt: ">", GtEq: ">=", Shl: "<<", Shr: ">>", Amp: "&", Pipe: "|", Caret: "^",
	Tilde: "~", AndAnd: "&&", OrOr: "||", PlusPlus: "++", MinusMinus: "--",
	Question: "?", Colon: ":", Semicolon: ";", Comma: ",", Dot: ".",
	FatArrow: "=>", LParen: "(", RParen: ")", LBrace: "{",
	RBrace: "}", LBracket: "[", RBracket: "]",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return "unknown"
}

// IsKeyword reports whether k is one of the reserved words.
func (k Kind) IsKeyword() bool {
	return k >= KwIf && k <= KwOperator
}
