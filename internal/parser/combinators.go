package parser

import "loom/internal/ast"

// rule is any speculative sub-parse that returns its result node (zero if
// it produced nothing) and whether it matched.
type rule func() (ast.NodeID, bool)

// oneOf tries each rule in turn, reverting between failed attempts, and
// commits to the first one that matches.
func (p *Parser) oneOf(rules ...rule) (ast.NodeID, bool) {
	for _, r := range rules {
		p.push()
		if id, ok := r(); ok {
			p.commit()
			return id, true
		}
		p.revert()
	}
	return 0, false
}

// allOf runs every rule in sequence, reverting the whole sequence if any
// one of them fails.
func (p *Parser) allOf(rules ...rule) ([]ast.NodeID, bool) {
	p.push()
	out := make([]ast.NodeID, 0, len(rules))
	for _, r := range rules {
		id, ok := r()
		if !ok {
			p.revert()
			return nil, false
		}
		out = append(out, id)
	}
	p.commit()
	return out, true
}

// listOf repeatedly applies elem, threading results through Next, as long
// as sep matches between elements. Returns the head of the chain (zero if
// no element matched) and the number of elements read.
func (p *Parser) listOf(elem func() (ast.NodeID, bool), sepMatches func() bool) (ast.NodeID, int) {
	var head, tail ast.NodeID
	n := 0
	for {
		id, ok := elem()
		if !ok {
			break
		}
		if head == 0 {
			head = id
		} else {
			p.tree.Get(tail).Next = id
		}
		tail = id
		n++
		if !sepMatches() {
			break
		}
	}
	return head, n
}

// arrayOf keeps applying elem until it stops matching, threading results
// through Next (no separator required between elements).
func (p *Parser) arrayOf(elem func() (ast.NodeID, bool)) (ast.NodeID, int) {
	return p.listOf(elem, func() bool { return true })
}
