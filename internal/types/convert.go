package types

// IsEqualTo compares effective type ids, per §4.3.
func (r *Registry) IsEqualTo(a, b TypeID) bool {
	return r.GetEffectiveType(a) == r.GetEffectiveType(b)
}

// IsEquivalentTo is structural over size, kind flags, properties, bases,
// and method signatures.
func (r *Registry) IsEquivalentTo(a, b TypeID) bool {
	a, b = r.GetEffectiveType(a), r.GetEffectiveType(b)
	if a == b {
		return true
	}
	ta, ok1 := r.Get(a)
	tb, ok2 := r.Get(b)
	if !ok1 || !ok2 || ta.Kind != tb.Kind {
		return false
	}
	switch ta.Kind {
	case KindPrimitive:
		return ta.Primitive == tb.Primitive
	case KindFunction:
		return functionTypesEquivalent(ta.Function, tb.Function)
	case KindClass:
		return r.classesEquivalent(ta.Class, tb.Class)
	default:
		return false
	}
}

func (r *Registry) classesEquivalent(a, b *ClassInfo) bool {
	if len(a.Bases) != len(b.Bases) || len(a.Properties) != len(b.Properties) || len(a.Methods) != len(b.Methods) {
		return false
	}
	for i := range a.Bases {
		if !r.IsEquivalentTo(a.Bases[i].Type, b.Bases[i].Type) {
			return false
		}
	}
	for i := range a.Properties {
		if a.Properties[i].Name != b.Properties[i].Name || !r.IsEquivalentTo(a.Properties[i].Type, b.Properties[i].Type) {
			return false
		}
	}
	for i := range a.Methods {
		if a.Methods[i].Name != b.Methods[i].Name {
			return false
		}
	}
	return true
}

// IsConvertibleTo is true when both sides are primitive, or there is a
// unique `operator TargetType()` method on the source, or the target has a
// unique constructor taking exactly the source type.
func (r *Registry) IsConvertibleTo(from, to TypeID) bool {
	from, to = r.GetEffectiveType(from), r.GetEffectiveType(to)
	if from == to {
		return true
	}
	tf, ok1 := r.Get(from)
	tt, ok2 := r.Get(to)
	if !ok1 || !ok2 {
		return false
	}
	if tf.Kind == KindPrimitive && tt.Kind == KindPrimitive {
		return true
	}
	if tf.Kind == KindClass {
		if n := r.countConversionOperators(from, to); n == 1 {
			return true
		}
	}
	if tt.Kind == KindClass {
		if n := r.countMatchingConstructors(to, from); n == 1 {
			return true
		}
	}
	return false
}

func (r *Registry) countConversionOperators(classID, target TypeID) int {
	t, ok := r.Get(classID)
	if !ok || t.Class == nil {
		return 0
	}
	n := 0
	for _, m := range t.Class.Methods {
		if m.Name != "operator "+r.fqnOf(target) {
			continue
		}
		n++
	}
	return n
}

// countMatchingConstructors counts classID's constructors ("constructor")
// accepting exactly one explicit argument equal/convertible to argType.
func (r *Registry) countMatchingConstructors(classID, argType TypeID) int {
	t, ok := r.Get(classID)
	if !ok || t.Class == nil {
		return 0
	}
	n := 0
	for _, m := range t.Class.Methods {
		if m.Name != "constructor" {
			continue
		}
		ft, ok := r.Get(r.functionTypeOf(m.Func))
		if !ok || ft.Function == nil {
			continue
		}
		explicit := ft.Function.ExplicitArgs()
		if len(explicit) == 1 && r.IsConvertibleTo(argType, explicit[0].Type) {
			n++
		}
	}
	return n
}

// functionTypeOf is a seam the compiler/funcreg integration fills in; the
// type registry alone does not own the function→signature mapping, so the
// default implementation reports NoTypeID, which callers guard against.
var functionTypeLookup func(FuncID) TypeID

func (r *Registry) functionTypeOf(fn FuncID) TypeID {
	if functionTypeLookup == nil {
		return NoTypeID
	}
	return functionTypeLookup(fn)
}

// SetFunctionTypeLookup wires the registry's FuncID -> signature TypeID
// resolution, normally to funcreg.Registry.SignatureOf, so convertibility
// checks that need a constructor's argument types can reach it without an
// import cycle between types and funcreg.
func SetFunctionTypeLookup(f func(FuncID) TypeID) { functionTypeLookup = f }

// IsImplicitlyAssignableTo requires either primitive-to-primitive or
// structurally equivalent trivially-copyable types.
func (r *Registry) IsImplicitlyAssignableTo(from, to TypeID) bool {
	from, to = r.GetEffectiveType(from), r.GetEffectiveType(to)
	tf, ok1 := r.Get(from)
	tt, ok2 := r.Get(to)
	if !ok1 || !ok2 {
		return false
	}
	if tf.Kind == KindPrimitive && tt.Kind == KindPrimitive {
		return true
	}
	return tf.Meta.Has(MetaIsTriviallyCopyable) && tt.Meta.Has(MetaIsTriviallyCopyable) && r.IsEquivalentTo(from, to)
}
