package ast

// NodeKind tags the syntactic category of a ParseNode.
type NodeKind uint8

const (
	Invalid NodeKind = iota
	Root
	ErrorNode

	// Expressions.
	Literal
	Identifier
	BinaryExpr
	UnaryExpr
	PostfixExpr
	CallExpr
	IndexExpr
	MemberExpr
	ConditionalExpr
	AssignExpr
	ArrowFunction
	CastExpr
	NewExpr
	ArrayLiteral
	ArgList

	// Declarations.
	VarDecl
	Decompositor
	FunctionDecl
	ClassDecl
	PropertyDecl
	MethodDecl
	OperatorDecl
	TypeAlias
	ImportDecl
	ImportSpecifier
	ExportDecl

	// Statements.
	Block
	ExprStmt
	If
	While
	DoWhile
	For
	Switch
	Case
	TryCatch
	Throw
	Return
	Break
	Continue
	PlacementNew

	// Supporting fragments.
	Param
	TemplateParam
	TypeSpecifier
	Modifier
	BaseSpecifier
)

var nodeKindNames = map[NodeKind]string{
	Invalid: "invalid", Root: "root", ErrorNode: "error",
	Literal: "literal", Identifier: "identifier", BinaryExpr: "binary",
	UnaryExpr: "unary", PostfixExpr: "postfix", CallExpr: "call",
	IndexExpr: "index", MemberExpr: "member", ConditionalExpr: "conditional",
	AssignExpr: "assign", ArrowFunction: "arrow_function", CastExpr: "cast",
	NewExpr: "new", ArrayLiteral: "array_literal", ArgList: "arg_list",
	VarDecl: "var_decl", Decompositor: "decompositor", FunctionDecl: "function_decl",
	ClassDecl: "class_decl", PropertyDecl: "property_decl", MethodDecl: "method_decl",
	OperatorDecl: "operator_decl", TypeAlias: "type_alias", ImportDecl: "import_decl",
	ImportSpecifier: "import_specifier", ExportDecl: "export_decl",
	Block: "block", ExprStmt: "expr_stmt", If: "if", While: "while",
	DoWhile: "do_while", For: "for", Switch: "switch", Case: "case",
	TryCatch: "try_catch", Throw: "throw", Return: "return", Break: "break",
	Continue: "continue", PlacementNew: "placement_new",
	Param: "param", TemplateParam: "template_param", TypeSpecifier: "type_specifier",
	Modifier: "modifier", BaseSpecifier: "base_specifier",
}

func (k NodeKind) String() string {
	if n, ok := nodeKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// OperatorKind tags the operator carried by a BinaryExpr/UnaryExpr/
// AssignExpr/OperatorDecl node.
type OperatorKind uint8

const (
	OpNone OperatorKind = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpNot
	OpBitNot
	OpNeg
	OpPos
	OpInc
	OpDec
	OpAssign
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpModAssign
	OpBitAndAssign
	OpBitOrAssign
	OpBitXorAssign
	OpShlAssign
	OpShrAssign
	OpAndAssign
	OpOrAssign
	OpConvert // `operator TypeName()` conversion overload
)

// LiteralKind tags the value-type of a Literal node, mirroring the fixed
// suffix-to-width mapping of the numeric literal grammar.
type LiteralKind uint8

const (
	LitNone LiteralKind = iota
	LitBool
	LitNull
	LitString
	LitTemplateString
	LitI8
	LitI16
	LitI32
	LitI64
	LitU8
	LitU16
	LitU32
	LitU64
	LitF32
	LitF64
)
