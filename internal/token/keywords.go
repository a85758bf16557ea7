package token

var keywords = map[string]Kind{
	"if":       KwIf,
	"else":     KwElse,
	"while":    KwWhile,
	"do":       KwDo,
	"for":      KwFor,
	"switch":   KwSwitch,
	"case":     KwCase,
	"default":  KwDefault,
	"break":    KwBreak,
	"continue": KwContinue,
	"return":   KwReturn,
	"throw":    KwThrow,
	"try":      KwTry,
	"catch":    KwCatch,
	"new":      KwNew,
	"as":       KwAs,
	"sizeof":   KwSizeof,
	"this":     KwThis,
	"null":     KwNull,
	"true":     KwTrue,
	"false":    KwFalse,
	"import":   KwImport,
	"export":   KwExport,
	"from":     KwFrom,
	"type":     KwType,
	"class":    KwClass,
	"extends":  KwExtends,
	"function": KwFunction,
	"let":      KwLet,
	"const":    KwConst,
	"public":   KwPublic,
	"private":  KwPrivate,
	"static":   KwStatic,
	"get":      KwGet,
	"set":      KwSet,
	"operator": KwOperator,
}

// LookupKeyword reports the Kind of a reserved word. Keywords are
// case-sensitive; only the exact lowercase spelling is recognized.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
