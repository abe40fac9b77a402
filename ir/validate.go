package ir

import "fmt"

// Conforms reports whether the tree is structurally well-formed per the
// taxonomy. It is a total predicate: unknown tags, wrong arity, a scalar
// where children are required, or nil children all yield false, never a
// panic.
func Conforms(n *Node) bool { return Check(n) == nil }

// Check is Conforms with a diagnosis: it returns a *MalformedError naming
// the first violation and the path to it, or nil.
func Check(n *Node) error {
	return check(n, string(rootPath))
}

const rootPath = "$"

func check(n *Node, path string) error {
	if n == nil {
		return &MalformedError{Path: path, Reason: "nil node"}
	}
	spec, ok := tagSpecs[n.Tag]
	if !ok {
		return &MalformedError{Path: path, Reason: fmt.Sprintf("unknown tag %q", n.Tag), Node: n}
	}

	if !spec.freeform {
		switch spec.shape {
		case payloadScalar:
			if n.Value == nil {
				return &MalformedError{Path: path, Reason: "missing scalar payload", Node: n}
			}
			if len(n.Kids) != 0 {
				return &MalformedError{Path: path, Reason: "leaf tag carries children", Node: n}
			}
			if !kindAllowed(spec.kinds, n.Value.Kind) {
				return &MalformedError{
					Path:   path,
					Reason: fmt.Sprintf("scalar kind %q not allowed for %s", n.Value.Kind, n.Tag),
					Node:   n,
				}
			}
		case payloadKids:
			if n.Value != nil {
				return &MalformedError{Path: path, Reason: "composite tag carries a scalar", Node: n}
			}
			if len(n.Kids) < spec.min {
				return &MalformedError{
					Path:   path,
					Reason: fmt.Sprintf("%s needs at least %d children, has %d", n.Tag, spec.min, len(n.Kids)),
					Node:   n,
				}
			}
			if spec.max >= 0 && len(n.Kids) > spec.max {
				return &MalformedError{
					Path:   path,
					Reason: fmt.Sprintf("%s allows at most %d children, has %d", n.Tag, spec.max, len(n.Kids)),
					Node:   n,
				}
			}
		}
	}

	// Nil children fail here so the per-tag extras below can dereference
	// payload positions safely.
	for i, k := range n.Kids {
		if k == nil {
			return &MalformedError{
				Path:   fmt.Sprintf("%s.%s[%d]", path, n.Tag, i),
				Reason: "nil node",
				Node:   n,
			}
		}
	}

	if spec.extra != nil {
		if msg := spec.extra(n); msg != "" {
			return &MalformedError{Path: path, Reason: msg, Node: n}
		}
	}

	for i, k := range n.Kids {
		if err := check(k, fmt.Sprintf("%s.%s[%d]", path, n.Tag, i)); err != nil {
			return err
		}
	}
	return nil
}

func kindAllowed(kinds []ScalarKind, k ScalarKind) bool {
	for _, allowed := range kinds {
		if allowed == k {
			return true
		}
	}
	return false
}
