package types

import "loom/internal/source"

// Access mirrors the public/private visibility modifier on class members.
type Access uint8

const (
	AccessPublic Access = iota
	AccessPrivate
)

// BaseType describes one entry in a class's `extends` list.
type BaseType struct {
	Type   TypeID
	Offset uint32
	Access Access
}

// PropertyFlags tags the capabilities of a class property.
type PropertyFlags uint8

const (
	PropReadable PropertyFlags = 1 << iota
	PropWritable
	PropPointer
	PropStatic
)

// Property describes one class field, including an optional accessor pair
// installed by `get`/`set` methods.
type Property struct {
	Name   string
	Offset uint32
	Type   TypeID
	Flags  PropertyFlags
	Access Access
	Getter FuncID
	Setter FuncID
}

// Method is a reference to a function registered for this class; the
// function's own signature carries the implicit this_ptr argument.
type Method struct {
	Name   string
	Func   FuncID
	Access Access
	Static bool
}

// ClassInfo is the KindClass payload.
type ClassInfo struct {
	Bases       []BaseType
	Properties  []Property
	Methods     []Method
	Destructor  FuncID
	DeclaredAt  source.Span
	TemplateFQN string // set when instantiated from a template
	TemplateArgs []TypeID
}

// FuncID is the stable identifier type::funcreg assigns to a function;
// re-declared here (rather than importing internal/funcreg) to avoid an
// import cycle since funcreg itself references types.TypeID.
type FuncID uint32

// NoFuncID marks the absence of a function reference.
const NoFuncID FuncID = 0

// AddProperty appends a property, computing its offset as the class's
// current cumulative size, and downgrades the class's POD-family meta
// flags when the property's own type is not POD/trivial.
func (r *Registry) AddProperty(classID TypeID, name string, propType TypeID, flags PropertyFlags, access Access) {
	t := r.mustGet(classID)
	if t.Class == nil {
		return
	}
	offset := r.classSize(t.Class)
	t.Class.Properties = append(t.Class.Properties, Property{
		Name: name, Offset: offset, Type: propType, Flags: flags, Access: access,
	})
	t.Size = offset + r.sizeOf(propType)
	r.downgradePOD(t, propType)
}

// AddBase appends a base-type entry, placing it before any already-declared
// properties so property offsets remain correct relative to base layout.
func (r *Registry) AddBase(classID, baseID TypeID, access Access) {
	t := r.mustGet(classID)
	if t.Class == nil {
		return
	}
	offset := r.classSize(t.Class)
	t.Class.Bases = append(t.Class.Bases, BaseType{Type: baseID, Offset: offset, Access: access})
	t.Size = offset + r.sizeOf(baseID)
	r.downgradePOD(t, baseID)
}

func (r *Registry) classSize(c *ClassInfo) uint32 {
	var sum uint32
	for _, b := range c.Bases {
		sum += r.sizeOf(b.Type)
	}
	for _, p := range c.Properties {
		sum += r.sizeOf(p.Type)
	}
	return sum
}

func (r *Registry) sizeOf(id TypeID) uint32 {
	t, ok := r.Get(id)
	if !ok {
		return 0
	}
	return t.Size
}

// downgradePOD clears the POD/trivial-X flags on t whenever memberType is
// itself non-trivial, per the invariant that adding a non-POD member
// downgrades the containing class.
func (r *Registry) downgradePOD(t *Type, memberType TypeID) {
	m, ok := r.Get(memberType)
	if !ok {
		return
	}
	if !m.Meta.Has(MetaIsPOD) {
		t.Meta &^= MetaIsPOD
	}
	if !m.Meta.Has(MetaIsTriviallyConstructible) {
		t.Meta &^= MetaIsTriviallyConstructible
	}
	if !m.Meta.Has(MetaIsTriviallyCopyable) {
		t.Meta &^= MetaIsTriviallyCopyable
	}
	if !m.Meta.Has(MetaIsTriviallyDestructible) {
		t.Meta &^= MetaIsTriviallyDestructible
	}
}

// FindProperty looks up a property by name, searching declared properties
// before bases (shadowing semantics match ordinary name resolution).
func (r *Registry) FindProperty(classID TypeID, name string) (*Property, TypeID, bool) {
	t, ok := r.Get(classID)
	if !ok || t.Class == nil {
		return nil, NoTypeID, false
	}
	for i := range t.Class.Properties {
		if t.Class.Properties[i].Name == name {
			return &t.Class.Properties[i], classID, true
		}
	}
	for _, b := range t.Class.Bases {
		if p, owner, ok := r.FindProperty(b.Type, name); ok {
			return p, owner, true
		}
	}
	return nil, NoTypeID, false
}

// FindMethod looks up a method by name among the class's own methods and
// its bases, in declaration order.
func (r *Registry) FindMethod(classID TypeID, name string) (*Method, bool) {
	t, ok := r.Get(classID)
	if !ok || t.Class == nil {
		return nil, false
	}
	for i := range t.Class.Methods {
		if t.Class.Methods[i].Name == name {
			return &t.Class.Methods[i], true
		}
	}
	for _, b := range t.Class.Bases {
		if m, ok := r.FindMethod(b.Type, name); ok {
			return m, true
		}
	}
	return nil, false
}

// FindMethodOverloads collects every method on classID (and its bases)
// sharing name, for overload resolution.
func (r *Registry) FindMethodOverloads(classID TypeID, name string) []Method {
	t, ok := r.Get(classID)
	if !ok || t.Class == nil {
		return nil
	}
	var out []Method
	for _, m := range t.Class.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	for _, b := range t.Class.Bases {
		out = append(out, r.FindMethodOverloads(b.Type, name)...)
	}
	return out
}
