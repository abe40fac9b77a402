// Package ir defines the cross-language intermediate representation for
// program syntax: a layered tree of uniform (tag, metadata, payload)
// triples, together with its conformance validator and traversal library.
//
// Trees are values: built once by an abstraction engine, immutable
// afterwards, and consumed read-only by validators, analyzers and
// reification engines.
package ir

import (
	"fmt"
	"strings"

	"github.com/oxhq/astir/native"
)

// Node is the uniform IR triple. Tag discriminates the variant, Meta is an
// ordered record of named attributes, and the payload is either Value (for
// leaf tags) or Kids (for composite tags) — never both.
type Node struct {
	Tag   Tag
	Meta  Meta
	Value *Scalar
	Kids  []*Node
}

// Attr is one named metadata attribute.
type Attr struct {
	Name  string
	Value any
}

// Meta is an ordered attribute record. For Core-layer nodes metadata is
// never load-bearing: every attribute here is reproducible hint material
// (source line, operator category, original syntactic form).
type Meta []Attr

// Canonical metadata attribute names.
const (
	MetaLine         = "line"
	MetaCategory     = "category"
	MetaVisibility   = "visibility"
	MetaOriginalForm = "original_form"
	MetaKind         = "kind"
	MetaName         = "name"
	MetaLanguage     = "language"
	MetaHint         = "hint"
	MetaReceiver     = "receiver"
	MetaType         = "type"
	MetaAlias        = "alias"
)

// Get returns the first attribute with the given name.
func (m Meta) Get(name string) (any, bool) {
	for _, a := range m {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// String returns the attribute as a string, or "" when absent or not a
// string.
func (m Meta) String(name string) string {
	v, ok := m.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// With returns a record with the attribute set, replacing an existing
// attribute of the same name in place to keep ordering stable.
func (m Meta) With(name string, value any) Meta {
	for i, a := range m {
		if a.Name == name {
			out := make(Meta, len(m))
			copy(out, m)
			out[i].Value = value
			return out
		}
	}
	return append(m, Attr{Name: name, Value: value})
}

// WithMeta sets a metadata attribute and returns the node for chaining
// during construction.
func (n *Node) WithMeta(name string, value any) *Node {
	n.Meta = n.Meta.With(name, value)
	return n
}

// MetaString returns the named metadata attribute as a string.
func (n *Node) MetaString(name string) string { return n.Meta.String(name) }

// IsLeaf reports whether the node carries a scalar payload.
func (n *Node) IsLeaf() bool { return n.Value != nil }

// New builds a composite node.
func New(tag Tag, kids ...*Node) *Node {
	return &Node{Tag: tag, Kids: kids}
}

// NewLeaf builds a leaf node around a scalar payload.
func NewLeaf(tag Tag, v Scalar) *Node {
	return &Node{Tag: tag, Value: &v}
}

// Int builds an integer literal.
func Int(v int64) *Node { return NewLeaf(Literal, Scalar{Kind: Integer, Int: v}) }

// Float builds a float literal.
func Float(v float64) *Node { return NewLeaf(Literal, Scalar{Kind: FloatKind, Float: v}) }

// Str builds a string literal.
func Str(v string) *Node { return NewLeaf(Literal, Scalar{Kind: StringKind, Str: v}) }

// Bool builds a boolean literal.
func Bool(v bool) *Node { return NewLeaf(Literal, Scalar{Kind: Boolean, Bool: v}) }

// Null builds the null literal, also used for absent branches.
func Null() *Node { return NewLeaf(Literal, Scalar{Kind: NullKind}) }

// Sym builds a symbol literal: operator tokens, attribute names, the
// collection_op discriminator.
func Sym(s string) *Node { return NewLeaf(Literal, Scalar{Kind: Symbol, Str: s}) }

// Var builds a variable reference.
func Var(name string) *Node { return NewLeaf(Variable, Scalar{Kind: Symbol, Str: name}) }

// Escape builds a language_specific node wrapping an untranslatable native
// fragment verbatim. The hint names what was elided ("comprehension",
// "goroutine", ...) without making it interpretable.
func Escape(language, hint string, tree *native.Node) *Node {
	source := ""
	if tree != nil {
		source = tree.Text
	}
	n := NewLeaf(LanguageSpecific, Scalar{
		Kind: OpaqueKind,
		Opaque: &Opaque{
			Language: language,
			Hint:     hint,
			Source:   source,
			Tree:     tree,
		},
	})
	return n.WithMeta(MetaLanguage, language).WithMeta(MetaHint, hint)
}

// Clone returns a deep copy of the tree, sharing no nodes with the input.
// Opaque native trees are shared, they are immutable by convention.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Tag: n.Tag}
	if len(n.Meta) > 0 {
		out.Meta = make(Meta, len(n.Meta))
		copy(out.Meta, n.Meta)
	}
	if n.Value != nil {
		v := *n.Value
		out.Value = &v
	}
	if len(n.Kids) > 0 {
		out.Kids = make([]*Node, len(n.Kids))
		for i, k := range n.Kids {
			out.Kids[i] = k.Clone()
		}
	}
	return out
}

// Canonical returns a metadata-free deep copy. Two fragments express the
// same Core/Extended construct exactly when their canonical forms are
// equal; metadata (line numbers, hints) never participates.
func Canonical(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := &Node{Tag: n.Tag}
	if n.Value != nil {
		v := *n.Value
		out.Value = &v
	}
	if len(n.Kids) > 0 {
		out.Kids = make([]*Node, len(n.Kids))
		for i, k := range n.Kids {
			out.Kids[i] = Canonical(k)
		}
	}
	return out
}

// Equal reports canonical structural equality: same tags, same payloads,
// metadata ignored.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag {
		return false
	}
	if (a.Value == nil) != (b.Value == nil) {
		return false
	}
	if a.Value != nil && !a.Value.Equal(b.Value) {
		return false
	}
	if len(a.Kids) != len(b.Kids) {
		return false
	}
	for i := range a.Kids {
		if !Equal(a.Kids[i], b.Kids[i]) {
			return false
		}
	}
	return true
}

// String renders the tree as a compact s-expression, for debugging and
// test failure output.
func (n *Node) String() string {
	if n == nil {
		return "nil"
	}
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(string(n.Tag))
	if n.Value != nil {
		b.WriteByte(' ')
		b.WriteString(n.Value.String())
	}
	for _, k := range n.Kids {
		b.WriteByte(' ')
		if k == nil {
			b.WriteString("nil")
			continue
		}
		k.write(b)
	}
	b.WriteByte(')')
}

// ScalarKind discriminates scalar payload variants.
type ScalarKind string

const (
	Integer    ScalarKind = "integer"
	FloatKind  ScalarKind = "float"
	StringKind ScalarKind = "string"
	Boolean    ScalarKind = "boolean"
	NullKind   ScalarKind = "null"
	Symbol     ScalarKind = "symbol"
	OpaqueKind ScalarKind = "opaque"
)

// Scalar is a leaf payload.
type Scalar struct {
	Kind   ScalarKind
	Int    int64
	Float  float64
	Str    string
	Bool   bool
	Opaque *Opaque
}

// Opaque carries an untranslatable native fragment: the source language,
// the semantic hint, the verbatim source text, and the captured native
// subtree. Generic IR code never introspects the tree; only a
// same-language reification unwraps it.
type Opaque struct {
	Language string       `json:"language"`
	Hint     string       `json:"hint"`
	Source   string       `json:"source"`
	Tree     *native.Node `json:"tree,omitempty"`
}

// Equal compares scalar payloads. Opaque payloads compare by language,
// hint and verbatim source.
func (s *Scalar) Equal(o *Scalar) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case Integer:
		return s.Int == o.Int
	case FloatKind:
		return s.Float == o.Float
	case StringKind, Symbol:
		return s.Str == o.Str
	case Boolean:
		return s.Bool == o.Bool
	case NullKind:
		return true
	case OpaqueKind:
		if s.Opaque == nil || o.Opaque == nil {
			return s.Opaque == o.Opaque
		}
		return s.Opaque.Language == o.Opaque.Language &&
			s.Opaque.Hint == o.Opaque.Hint &&
			s.Opaque.Source == o.Opaque.Source
	}
	return false
}

func (s *Scalar) String() string {
	switch s.Kind {
	case Integer:
		return fmt.Sprintf("integer %d", s.Int)
	case FloatKind:
		return fmt.Sprintf("float %g", s.Float)
	case StringKind:
		return fmt.Sprintf("string %q", s.Str)
	case Boolean:
		return fmt.Sprintf("boolean %t", s.Bool)
	case NullKind:
		return "null"
	case Symbol:
		return s.Str
	case OpaqueKind:
		if s.Opaque != nil {
			return fmt.Sprintf("opaque %s/%s", s.Opaque.Language, s.Opaque.Hint)
		}
		return "opaque"
	}
	return string(s.Kind)
}
