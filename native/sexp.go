package native

import (
	"fmt"
	"strings"
)

// Sexp renders the tree as an indented s-expression over named nodes plus
// operator tokens. The rendering is stable, which makes it usable for
// golden files and diffs; it is not source code.
func (n *Node) Sexp() string {
	var b strings.Builder
	writeSexp(&b, n, 0)
	return b.String()
}

func writeSexp(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	named := n.NamedChildren()
	if len(named) == 0 {
		if n.Text != "" && n.Text != n.Kind {
			fmt.Fprintf(b, "%s(%s %q)", indent, n.Kind, n.Text)
		} else {
			fmt.Fprintf(b, "%s(%s)", indent, n.Kind)
		}
		return
	}

	fmt.Fprintf(b, "%s(%s", indent, n.Kind)
	for _, c := range n.Children {
		if !c.Node.Named {
			// surface operator tokens, they disambiguate expressions
			if op := c.Node.Text; isOperatorToken(op) {
				fmt.Fprintf(b, " %s", op)
			}
			continue
		}
		b.WriteString("\n")
		if c.Field != "" {
			fmt.Fprintf(b, "%s  %s:\n", indent, c.Field)
			writeSexp(b, c.Node, depth+2)
		} else {
			writeSexp(b, c.Node, depth+1)
		}
	}
	b.WriteString(")")
}

func isOperatorToken(text string) bool {
	if text == "" || len(text) > 3 {
		return false
	}
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '(' || r == ')' || r == '[' || r == ']' || r == '{' || r == '}':
			return false
		case r == ',' || r == ':' || r == ';':
			return false
		}
	}
	return true
}
