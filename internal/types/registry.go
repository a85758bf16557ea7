package types

import (
	"strconv"

	"loom/internal/source"
)

// Builtins holds the TypeIDs of the primitive types seeded at registry
// construction, so callers never re-derive them by hand.
type Builtins struct {
	Void, Null, Bool                   TypeID
	I8, I16, I32, I64                  TypeID
	U8, U16, U32, U64                  TypeID
	F32, F64                           TypeID
	PointerOpaque                      TypeID
}

// Registry is the keyed type store described in §4.3: fully-qualified
// name → type, and id → type. It guarantees at most one Type per id
// (invariant (1)).
type Registry struct {
	byID  map[TypeID]*Type
	byFQN map[string]TypeID

	Builtins Builtins
}

// NewRegistry constructs a registry pre-seeded with the primitive types.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[TypeID]*Type, 64), byFQN: make(map[string]TypeID, 64)}
	r.Builtins.Void = r.registerPrimitive("void", PrimVoid, 0, MetaIsPOD|MetaIsTriviallyConstructible|MetaIsTriviallyCopyable|MetaIsTriviallyDestructible)
	r.Builtins.Null = r.registerPrimitive("null", PrimNull, 0, MetaIsPOD|MetaIsTriviallyConstructible|MetaIsTriviallyCopyable|MetaIsTriviallyDestructible)
	r.Builtins.Bool = r.registerPrimitive("bool", PrimBool, 1, podMeta())
	r.Builtins.I8 = r.registerPrimitive("i8", PrimI8, 1, intMeta(false))
	r.Builtins.I16 = r.registerPrimitive("i16", PrimI16, 2, intMeta(false))
	r.Builtins.I32 = r.registerPrimitive("i32", PrimI32, 4, intMeta(false))
	r.Builtins.I64 = r.registerPrimitive("i64", PrimI64, 8, intMeta(false))
	r.Builtins.U8 = r.registerPrimitive("u8", PrimU8, 1, intMeta(true))
	r.Builtins.U16 = r.registerPrimitive("u16", PrimU16, 2, intMeta(true))
	r.Builtins.U32 = r.registerPrimitive("u32", PrimU32, 4, intMeta(true))
	r.Builtins.U64 = r.registerPrimitive("u64", PrimU64, 8, intMeta(true))
	r.Builtins.F32 = r.registerPrimitive("f32", PrimF32, 4, floatMeta())
	r.Builtins.F64 = r.registerPrimitive("f64", PrimF64, 8, floatMeta())
	r.Builtins.PointerOpaque = r.registerPrimitive("ptr", PrimPointerOpaque, 8, podMeta())
	return r
}

func podMeta() Meta {
	return MetaIsPOD | MetaIsTriviallyConstructible | MetaIsTriviallyCopyable | MetaIsTriviallyDestructible | MetaIsPrimitive
}
func intMeta(unsigned bool) Meta {
	m := podMeta() | MetaIsIntegral
	if unsigned {
		m |= MetaIsUnsigned
	}
	return m
}
func floatMeta() Meta { return podMeta() | MetaIsFloatingPoint }

func (r *Registry) registerPrimitive(name string, prim Primitive, size uint32, meta Meta) TypeID {
	t := &Type{Kind: KindPrimitive, FQN: name, Name: name, Primitive: prim, Size: size, Meta: meta}
	return r.insert(t)
}

// insert computes id = hash(FQN), stores the type under both keys, and
// panics on a genuine hash collision between distinct FQNs (astronomically
// unlikely with FNV-1a 64-bit, but the invariant "at most one type per id"
// must hold).
func (r *Registry) insert(t *Type) TypeID {
	id := HashFQN(t.FQN)
	if existing, ok := r.byID[id]; ok {
		if existing.FQN != t.FQN {
			panic("types: FQN hash collision for " + t.FQN + " vs " + existing.FQN)
		}
		return id
	}
	r.byID[id] = t
	r.byFQN[t.FQN] = id
	return id
}

// Get returns the type for id, or false if unregistered.
func (r *Registry) Get(id TypeID) (*Type, bool) {
	t, ok := r.byID[id]
	return t, ok
}

func (r *Registry) mustGet(id TypeID) *Type {
	t, ok := r.byID[id]
	if !ok {
		panic("types: unknown TypeID")
	}
	return t
}

// GetByFQN resolves a fully-qualified name to its TypeID.
func (r *Registry) GetByFQN(fqn string) (TypeID, bool) {
	id, ok := r.byFQN[fqn]
	return id, ok
}

// RegisterClass allocates an empty class type under the given FQN; callers
// then populate it via AddBase/AddProperty/AddMethod before it is used.
func (r *Registry) RegisterClass(fqn, name string, declaredAt source.Span) TypeID {
	if id, ok := r.byFQN[fqn]; ok {
		return id
	}
	t := &Type{
		Kind: KindClass, FQN: fqn, Name: name,
		Meta:  MetaIsPOD | MetaIsTriviallyConstructible | MetaIsTriviallyCopyable | MetaIsTriviallyDestructible,
		Class: &ClassInfo{DeclaredAt: declaredAt},
	}
	return r.insert(t)
}

// AddMethod appends a method descriptor to a previously registered class.
func (r *Registry) AddMethod(classID TypeID, m Method) {
	t := r.mustGet(classID)
	if t.Class == nil {
		return
	}
	t.Class.Methods = append(t.Class.Methods, m)
	t.Meta &^= MetaIsPOD // a class with user methods is no longer treated as a POD aggregate
}

// SetDestructor records classID's destructor function.
func (r *Registry) SetDestructor(classID TypeID, fn FuncID) {
	t := r.mustGet(classID)
	if t.Class == nil {
		return
	}
	t.Class.Destructor = fn
	t.Meta &^= MetaIsTriviallyDestructible | MetaIsPOD
}

// RegisterAlias interns an alias type wrapping target.
func (r *Registry) RegisterAlias(fqn, name string, target TypeID) TypeID {
	t := &Type{Kind: KindAlias, FQN: fqn, Name: name, Alias: target, Meta: MetaIsAlias}
	return r.insert(t)
}

// GetEffectiveType strips aliases, per the invariant that equality and
// convertibility operate on effective types.
func (r *Registry) GetEffectiveType(id TypeID) TypeID {
	seen := map[TypeID]bool{}
	for {
		t, ok := r.Get(id)
		if !ok || t.Kind != KindAlias {
			return id
		}
		if seen[id] {
			return id // alias cycle guard
		}
		seen[id] = true
		id = t.Alias
	}
}

// fqnOf returns the type's FQN for building a synthetic compound name (a
// function type's name from its argument types), falling back to the raw
// id when the type isn't registered yet.
func (r *Registry) fqnOf(id TypeID) string {
	if id == NoTypeID {
		return "<none>"
	}
	if t, ok := r.Get(id); ok {
		return t.FQN
	}
	return "#" + strconv.FormatUint(uint64(id), 16)
}
