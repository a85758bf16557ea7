package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"loom/internal/ast"
	"loom/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed
// file's Root node:
// 1) the root's full range is non-empty and within file content bounds
// 2) every top-level declaration's range is non-empty and fully contained
//    in the root's range
// 3) the root's range covers the union of its top-level declaration ranges
func CheckSpanInvariants(tree *ast.Tree, root ast.NodeID, sf *source.File) error {
	if tree == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}
	n := tree.Get(root)
	if n == nil {
		return fmt.Errorf("root node not found")
	}
	if n.Kind != ast.Root {
		return fmt.Errorf("node %d is not a Root node: %v", root, n.Kind)
	}

	full := tree.Range(root)
	if full.End <= full.Start {
		return fmt.Errorf("root span is empty: %v", full)
	}
	if full.File != sf.ID {
		return fmt.Errorf("root span points to different file id: got=%d want=%d", full.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if full.End > lenContent {
		return fmt.Errorf("root span end beyond content: %d > %d", full.End, lenContent)
	}

	var union source.Span
	var haveItem bool
	for _, id := range tree.Siblings(n.Body) {
		sp := tree.Range(id)
		if sp.End <= sp.Start {
			return fmt.Errorf("empty declaration span: %v", sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("declaration span file mismatch: got=%d want=%d", sp.File, sf.ID)
		}
		if sp.Start < full.Start || sp.End > full.End {
			return fmt.Errorf("declaration span %v is outside root span %v", sp, full)
		}
		if !haveItem {
			union = sp
			haveItem = true
		} else {
			union = union.Cover(sp)
		}
	}

	if haveItem {
		if union.Start < full.Start || union.End > full.End {
			return fmt.Errorf("root span %v does not cover union of declarations %v", full, union)
		}
	}
	return nil
}
