package diagfmt

import (
	"fmt"
	"io"

	"loom/internal/ast"
)

// namedSlots lists a node's named child slots in a fixed, readable order —
// the same slots ast.Node.slots() walks internally, plus a label for each.
func namedSlots(n *ast.Node) []struct {
	Label string
	ID    ast.NodeID
} {
	return []struct {
		Label string
		ID    ast.NodeID
	}{
		{"type", n.DataType},
		{"lvalue", n.LValue},
		{"rvalue", n.RValue},
		{"cond", n.Cond},
		{"body", n.Body},
		{"else", n.ElseBody},
		{"init", n.Initializer},
		{"params", n.Parameters},
		{"template_params", n.TemplateParameters},
		{"modifier", n.Modifier},
		{"alias", n.Alias},
		{"bases", n.Inheritance},
	}
}

// DumpTree writes an indented outline of root and everything reachable
// from it: one line per node (kind, operator/literal kind when set, and
// text), with each named slot's sibling chain nested one level deeper.
func DumpTree(w io.Writer, tree *ast.Tree, root ast.NodeID) {
	dumpNode(w, tree, root, 0)
}

func dumpNode(w io.Writer, tree *ast.Tree, id ast.NodeID, depth int) {
	if id == 0 {
		return
	}
	n := tree.Get(id)
	indent(w, depth)
	fmt.Fprint(w, n.Kind)
	if n.Op != 0 {
		fmt.Fprintf(w, " op=%v", n.Op)
	}
	if n.Text != "" {
		fmt.Fprintf(w, " %q", n.Text)
	}
	fmt.Fprintln(w)

	for _, slot := range namedSlots(n) {
		for _, child := range tree.Siblings(slot.ID) {
			indent(w, depth+1)
			fmt.Fprintf(w, "%s:\n", slot.Label)
			dumpNode(w, tree, child, depth+2)
		}
	}
}

func indent(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Fprint(w, "  ")
	}
}
