package ast

import "loom/internal/source"

// NodeID addresses a Node within a Tree's arena; zero means "absent".
type NodeID uint32

// Node is the single heterogeneous tree node type for the whole grammar.
// Which of the named slots are populated depends on Kind; unused slots are
// left zero. List-shaped constructs (parameter lists, statement bodies,
// base-class lists) are represented as a head node reachable through one
// of the named slots, with the remaining elements threaded through Next.
type Node struct {
	Kind        NodeKind
	Op          OperatorKind
	LiteralKind LiteralKind
	Span        source.Span

	// Text carries an identifier name, a literal's raw source text, an
	// operator symbol spelling, or an import/module path, depending on Kind.
	Text string

	DataType           NodeID
	LValue              NodeID
	RValue              NodeID
	Cond                NodeID
	Body                NodeID
	ElseBody            NodeID
	Initializer         NodeID
	Parameters          NodeID
	TemplateParameters  NodeID
	Modifier            NodeID
	Alias               NodeID
	Inheritance         NodeID
	Next                NodeID
}

// slots returns the node's named child-slot ids, excluding Next — used by
// Tree.Range to walk "real" children uniformly.
func (n *Node) slots() []NodeID {
	return []NodeID{
		n.DataType, n.LValue, n.RValue, n.Cond, n.Body, n.ElseBody,
		n.Initializer, n.Parameters, n.TemplateParameters, n.Modifier,
		n.Alias, n.Inheritance,
	}
}
