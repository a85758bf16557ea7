package module

// Artifact is the self-describing msgpack record §4.6/§6 define: header,
// function table, type table (in dependency order), data table, and IR
// table. Cross-references between records use FQN strings rather than
// the in-memory TypeID/FuncID, since those are only stable within one
// process's registries — a loaded artifact recomputes them by hashing.
//
// Template types are not part of this artifact: §3 scopes a template's
// parse subtree to the process that compiled it, and re-serializing that
// subtree is out of scope here (see DESIGN.md). Only already-instantiated
// concrete types round-trip.
type Artifact struct {
	ModuleID uint64
	Name     string
	Path     string

	Functions []FuncRecord
	Types     []TypeRecord
	Data      []DataRecord
	IR        []IRRecord
}

// SpanRecord is the serializable form of source.Span.
type SpanRecord struct {
	File  uint32
	Start uint32
	End   uint32
}

// ArgRecord is one entry of a function signature's argument list.
type ArgRecord struct {
	Kind    uint8
	TypeFQN string
	Name    string
}

// FuncRecord is one function table entry (§4.6).
type FuncRecord struct {
	Name        string
	DisplayName string
	FQN         string
	Access      uint8
	ReturnFQN   string
	Args        []ArgRecord
	IsHost      bool
	IsMethod    bool
	BaseOffset  uint32
	DeclaredAt  SpanRecord
	TemplateFQN string // non-empty when instantiated from a template
}

// PropertyRecord is one class property.
type PropertyRecord struct {
	Name    string
	Offset  uint32
	TypeFQN string
	Flags   uint8
	Access  uint8
	Getter  string // function FQN, or ""
	Setter  string
}

// BaseRecord is one class base-type entry.
type BaseRecord struct {
	TypeFQN string
	Offset  uint32
	Access  uint8
}

// TypeRecord is one type table entry, kind-discriminated like types.Type.
type TypeRecord struct {
	FQN  string
	Name string
	Kind uint8
	Meta uint16
	Size uint32

	// KindPrimitive.
	Primitive uint8

	// KindAlias.
	AliasOfFQN string

	// KindClass.
	Properties    []PropertyRecord
	Bases         []BaseRecord
	MethodFQNs    []string
	DestructorFQN string

	// KindFunction (the payload of a first-class function type, distinct
	// from a FuncRecord).
	FnReturnFQN string
	FnArgs      []ArgRecord
}

// DataRecord is one module_data global (§3 Module).
type DataRecord struct {
	Name    string
	TypeFQN string
	Size    uint32
	Bytes   []byte
	Access  uint8
}

// OperandRecord is one instruction operand.
type OperandRecord struct {
	Flag    uint8
	TypeFQN string
	Reg     uint32
	Stack   uint32
	Func    uint32
	Imm     uint64
}

// InstrRecord is one IR instruction plus its source-map entry.
type InstrRecord struct {
	Op       uint16
	A, B, C  OperandRecord
	L1, L2   uint32
	Src      SpanRecord
}

// IRRecord is one function's compiled body.
type IRRecord struct {
	FuncFQN string
	Instrs  []InstrRecord
}
