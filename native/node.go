// Package native models language-specific syntax trees: either parsed from
// source through a tree-sitter grammar, or synthesized by a reification
// engine. Node kinds and field names follow the grammar of the language the
// tree belongs to, so a tree produced by lowering is indistinguishable from
// a parsed one as far as lifting is concerned.
package native

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Node is one node of a language-native syntax tree.
type Node struct {
	Kind string `json:"kind"`
	// Text holds the verbatim source for parsed nodes (all of them, so an
	// escape hatch can capture any subtree losslessly) and the token text
	// for synthesized leaves.
	Text     string  `json:"text,omitempty"`
	Line     uint32  `json:"line,omitempty"`
	Col      uint32  `json:"col,omitempty"`
	Named    bool    `json:"named,omitempty"`
	Children []Child `json:"children,omitempty"`
}

// Child is a child node with its optional grammar field name.
type Child struct {
	Field string `json:"field,omitempty"`
	Node  *Node  `json:"node"`
}

// New builds a synthesized named node.
func New(kind string, children ...Child) *Node {
	return &Node{Kind: kind, Named: true, Children: children}
}

// Leaf builds a synthesized named leaf with token text.
func Leaf(kind, text string) *Node {
	return &Node{Kind: kind, Text: text, Named: true}
}

// Token builds a synthesized anonymous token (operators, keywords,
// punctuation), whose kind and text coincide.
func Token(text string) *Node {
	return &Node{Kind: text, Text: text}
}

// Ch wraps a node as an unnamed-field child.
func Ch(n *Node) Child { return Child{Node: n} }

// Field wraps a node as a child under a grammar field name.
func Field(field string, n *Node) Child { return Child{Field: field, Node: n} }

// Field returns the first child stored under the given field name, or nil.
func (n *Node) Field(name string) *Node {
	for _, c := range n.Children {
		if c.Field == name {
			return c.Node
		}
	}
	return nil
}

// Fields returns every child stored under the given field name, in order.
func (n *Node) Fields(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Field == name {
			out = append(out, c.Node)
		}
	}
	return out
}

// NamedChildren returns the named children in order, skipping tokens.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Node.Named {
			out = append(out, c.Node)
		}
	}
	return out
}

// NamedChild returns the i-th named child, or nil when out of range.
func (n *Node) NamedChild(i int) *Node {
	for _, c := range n.Children {
		if !c.Node.Named {
			continue
		}
		if i == 0 {
			return c.Node
		}
		i--
	}
	return nil
}

// Tokens returns the anonymous children in order (operator and keyword
// tokens), which several grammars leave unfielded.
func (n *Node) Tokens() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if !c.Node.Named {
			out = append(out, c.Node)
		}
	}
	return out
}

// HasToken reports whether an anonymous child with the given text exists,
// e.g. the "async" keyword on a Python function definition.
func (n *Node) HasToken(text string) bool {
	for _, c := range n.Children {
		if !c.Node.Named && c.Node.Text == text {
			return true
		}
	}
	return false
}

// FromSitter converts a parsed tree-sitter node into a Node, capturing
// verbatim text, positions and grammar field names for the whole subtree.
func FromSitter(node *sitter.Node, source []byte) *Node {
	if node == nil {
		return nil
	}
	out := &Node{
		Kind:  node.Type(),
		Text:  node.Content(source),
		Line:  node.StartPoint().Row + 1,
		Col:   node.StartPoint().Column + 1,
		Named: node.IsNamed(),
	}
	count := int(node.ChildCount())
	if count > 0 {
		out.Children = make([]Child, 0, count)
		for i := 0; i < count; i++ {
			out.Children = append(out.Children, Child{
				Field: node.FieldNameForChild(i),
				Node:  FromSitter(node.Child(i), source),
			})
		}
	}
	return out
}
