package types

import "loom/internal/ast"

// TemplateParam names one of a template's formal parameters.
type TemplateParam struct {
	Name string
}

// TemplateInfo is the KindTemplate payload: a detached parse subtree
// (cloned out of the defining parse's arena so it outlives that parse,
// per §3's lifecycle rule) plus the cache of instantiations already
// produced from it.
type TemplateInfo struct {
	Params []TemplateParam
	Body   *ast.Tree
	Root   ast.NodeID

	instantiations map[string]TypeID
}

// RegisterTemplate interns a template type. body/root must already be a
// clone independent of the original parser's arena.
func (r *Registry) RegisterTemplate(fqn, name string, params []TemplateParam, body *ast.Tree, root ast.NodeID) TypeID {
	info := &TemplateInfo{Params: params, Body: body, Root: root, instantiations: make(map[string]TypeID)}
	t := &Type{Kind: KindTemplate, FQN: fqn, Name: name, Template: info, Meta: MetaIsTemplate}
	return r.insert(t)
}

// InstantiationKey builds the cache key and resulting FQN for instantiating
// templateID with argTypes: `BaseFQN<Arg1FQN,Arg2FQN,...>` (§8 scenario (2):
// `getArrayType(i32)` must produce FQN `<module>::Array<i32>`, so this has
// to start from the template's own module-qualified FQN, not its bare
// name). The key is the FQN alone, never the call-site span, so two
// instantiations with structurally equal argument types at different
// source locations always collapse to the same cached instance (Open
// Question ii, resolved).
func (r *Registry) InstantiationKey(templateID TypeID, argTypes []TypeID) (fqn string, ok bool) {
	t, ok := r.Get(templateID)
	if !ok || t.Template == nil {
		return "", false
	}
	fqn = t.FQN + "<"
	for i, a := range argTypes {
		if i > 0 {
			fqn += ","
		}
		fqn += r.fqnOf(a)
	}
	fqn += ">"
	return fqn, true
}

// LookupInstantiation returns a previously cached instantiation, if any.
func (r *Registry) LookupInstantiation(templateID TypeID, argTypes []TypeID) (TypeID, bool) {
	t, ok := r.Get(templateID)
	if !ok || t.Template == nil {
		return NoTypeID, false
	}
	key, ok := r.InstantiationKey(templateID, argTypes)
	if !ok {
		return NoTypeID, false
	}
	id, ok := t.Template.instantiations[key]
	return id, ok
}

// CacheInstantiation records a freshly-compiled instantiation under its
// canonical key so a later request with equal argument types is a cache
// hit (the idempotence property required by §8).
func (r *Registry) CacheInstantiation(templateID TypeID, argTypes []TypeID, result TypeID) {
	t, ok := r.Get(templateID)
	if !ok || t.Template == nil {
		return
	}
	key, ok := r.InstantiationKey(templateID, argTypes)
	if !ok {
		return
	}
	t.Template.instantiations[key] = result
}

// ArityMismatch reports whether argTypes has the wrong count for
// templateID's formal parameter list.
func (r *Registry) ArityMismatch(templateID TypeID, argTypes []TypeID) bool {
	t, ok := r.Get(templateID)
	if !ok || t.Template == nil {
		return true
	}
	return len(argTypes) != len(t.Template.Params)
}
