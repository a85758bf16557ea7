package ast

import "loom/internal/source"

// Tree owns a parse's nodes in a single arena. A Tree is typically
// discarded once its owning function finishes compiling; a Template type
// instead clones the subtree it defines into a fresh Tree so its body can
// outlive the parse that produced it.
type Tree struct {
	nodes  *Arena[Node]
	ranges map[NodeID]source.Span
}

func NewTree(capHint uint32) *Tree {
	return &Tree{nodes: NewArena[Node](capHint), ranges: make(map[NodeID]source.Span)}
}

// New allocates a node and returns its id.
func (t *Tree) New(n Node) NodeID {
	return NodeID(t.nodes.Allocate(n))
}

func (t *Tree) Get(id NodeID) *Node {
	if id == 0 {
		return nil
	}
	return t.nodes.Get(uint32(id))
}

func (t *Tree) Len() uint32 { return t.nodes.Len() }

// Range returns the full source range of id, computed depth-first over its
// named child slots and its sibling chain (Next) the first time it is
// asked for, then cached.
func (t *Tree) Range(id NodeID) source.Span {
	if id == 0 {
		return source.Span{}
	}
	if sp, ok := t.ranges[id]; ok {
		return sp
	}
	n := t.Get(id)
	sp := n.Span
	for _, child := range n.slots() {
		if child != 0 {
			sp = sp.Cover(t.Range(child))
		}
	}
	if n.Next != 0 {
		sp = sp.Cover(t.Range(n.Next))
	}
	t.ranges[id] = sp
	return sp
}

// Clone deep-copies the subtree rooted at id (including its sibling
// chain) into dst, returning the id of the copy within dst.
func (t *Tree) Clone(id NodeID, dst *Tree) NodeID {
	if id == 0 {
		return 0
	}
	n := *t.Get(id)
	n.DataType = t.Clone(n.DataType, dst)
	n.LValue = t.Clone(n.LValue, dst)
	n.RValue = t.Clone(n.RValue, dst)
	n.Cond = t.Clone(n.Cond, dst)
	n.Body = t.Clone(n.Body, dst)
	n.ElseBody = t.Clone(n.ElseBody, dst)
	n.Initializer = t.Clone(n.Initializer, dst)
	n.Parameters = t.Clone(n.Parameters, dst)
	n.TemplateParameters = t.Clone(n.TemplateParameters, dst)
	n.Modifier = t.Clone(n.Modifier, dst)
	n.Alias = t.Clone(n.Alias, dst)
	n.Inheritance = t.Clone(n.Inheritance, dst)
	n.Next = t.Clone(n.Next, dst)
	return dst.New(n)
}

// Siblings walks a Next-chain starting at head, head included.
func (t *Tree) Siblings(head NodeID) []NodeID {
	var out []NodeID
	for id := head; id != 0; {
		out = append(out, id)
		id = t.Get(id).Next
	}
	return out
}
