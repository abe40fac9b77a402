package ir

import "sort"

// Walk visits the tree in pre-order. Returning false from fn prunes the
// subtree. The uniform triple shape means one recursion serves every tag.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, k := range n.Kids {
		Walk(k, fn)
	}
}

// Rewrite folds over the tree building a new one: pre runs before the
// children are rewritten, post after. Either hook may return nil to keep
// the node it was given. The input tree is never mutated; untouched leaves
// are shared.
func Rewrite(n *Node, pre, post func(*Node) *Node) *Node {
	if n == nil {
		return nil
	}
	cur := n
	if pre != nil {
		if r := pre(cur); r != nil {
			cur = r
		}
	}
	if len(cur.Kids) > 0 {
		kids := make([]*Node, len(cur.Kids))
		changed := false
		for i, k := range cur.Kids {
			kids[i] = Rewrite(k, pre, post)
			if kids[i] != k {
				changed = true
			}
		}
		if changed {
			next := *cur
			next.Kids = kids
			cur = &next
		}
	}
	if post != nil {
		if r := post(cur); r != nil {
			cur = r
		}
	}
	return cur
}

// FreeVariables collects every referenced name in the tree, sorted and
// deduplicated. Names bound inside nested lambda or pattern parameters are
// included: for analysis purposes they are still referenced names.
func FreeVariables(n *Node) []string {
	seen := map[string]struct{}{}
	Walk(n, func(node *Node) bool {
		switch {
		case node.Tag == Variable && node.Value != nil:
			seen[node.Value.Str] = struct{}{}
		case node.Tag == Param && node.MetaString(MetaKind) == ParamName && node.Value != nil:
			seen[node.Value.Str] = struct{}{}
		}
		return true
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Depth returns the height of the tree; a leaf counts one, nil zero.
func Depth(n *Node) int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, k := range n.Kids {
		if d := Depth(k); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Count returns the number of nodes in the tree.
func Count(n *Node) int {
	if n == nil {
		return 0
	}
	total := 1
	for _, k := range n.Kids {
		total += Count(k)
	}
	return total
}
