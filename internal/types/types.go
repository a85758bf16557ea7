// Package types implements the type registry: canonicalized DataType
// descriptors keyed by fully-qualified name, with template instantiation
// and the convertibility/equivalence/equality relations the compiler uses
// for overload resolution and implicit conversion.
package types

import "hash/fnv"

// TypeID is the stable identity of a type: the FNV-1a hash of its fully
// qualified name. Two types with the same FQN always collapse to the same
// id, matching the registry invariant that id == hash(FQN).
type TypeID uint64

// NoTypeID marks the absence of a type reference.
const NoTypeID TypeID = 0

// HashFQN computes the canonical id for a fully-qualified type name.
func HashFQN(fqn string) TypeID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fqn))
	id := TypeID(h.Sum64())
	if id == NoTypeID {
		id = 1
	}
	return id
}

// Kind discriminates the DataType tagged union.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindClass
	KindAlias
	KindFunction
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindClass:
		return "class"
	case KindAlias:
		return "alias"
	case KindFunction:
		return "function"
	case KindTemplate:
		return "template"
	default:
		return "invalid"
	}
}

// Primitive enumerates the fundamental scalar kinds.
type Primitive uint8

const (
	PrimInvalid Primitive = iota
	PrimVoid
	PrimNull
	PrimBool
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimF32
	PrimF64
	PrimPointerOpaque
)

// Meta is the type_meta bitset carried by every type.
type Meta uint16

const (
	MetaIsPOD Meta = 1 << iota
	MetaIsTriviallyConstructible
	MetaIsTriviallyCopyable
	MetaIsTriviallyDestructible
	MetaIsPrimitive
	MetaIsFloatingPoint
	MetaIsIntegral
	MetaIsUnsigned
	MetaIsFunction
	MetaIsTemplate
	MetaIsAlias
	MetaIsHost
	MetaIsAnonymous
)

func (m Meta) Has(flag Meta) bool { return m&flag != 0 }

// Type is the tagged-union descriptor for every kind of DataType. Only the
// fields relevant to Kind are populated; dispatch on Kind rather than
// introducing per-kind virtual behavior, per the data-model design.
type Type struct {
	Kind Kind
	FQN  string
	Name string
	Meta Meta
	Size uint32
	// HostHash identifies a host-bound type for ABI matching; zero for
	// script-defined types.
	HostHash uint64

	Primitive Primitive // KindPrimitive

	Alias TypeID // KindAlias: wrapped type

	Class    *ClassInfo    // KindClass
	Function *FunctionType // KindFunction
	Template *TemplateInfo // KindTemplate
}
