package golang

import (
	"strconv"
	"strings"

	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/lift"
	"github.com/oxhq/astir/native"
)

// canonicalOps maps Go operator tokens to the canonical spellings shared
// across lifters.
var canonicalOps = map[string]string{
	"&&": lift.OpAnd,
	"||": lift.OpOr,
	"!":  lift.OpNot,
}

func canonicalOp(op string) string {
	if c, ok := canonicalOps[op]; ok {
		return c
	}
	return op
}

func (l *Lifter) liftExpr(n *native.Node) (*ir.Node, error) {
	if n == nil {
		return nil, &ir.UnsupportedError{Language: language, Construct: "missing expression"}
	}
	switch n.Kind {
	case "identifier", "field_identifier", "package_identifier", "blank_identifier":
		return l.at(ir.Var(n.Text), n), nil

	case "int_literal":
		return l.liftInt(n)
	case "float_literal":
		return l.liftFloat(n)
	case "interpreted_string_literal":
		return l.liftString(n)
	case "raw_string_literal":
		return l.at(ir.Str(strings.Trim(n.Text, "`")).WithMeta(ir.MetaOriginalForm, "raw"), n), nil
	case "true":
		return l.at(ir.Bool(true), n), nil
	case "false":
		return l.at(ir.Bool(false), n), nil
	case "nil":
		return l.at(ir.Null(), n), nil

	case "imaginary_literal":
		return l.escape(n, "complex-literal"), nil
	case "rune_literal":
		return l.escape(n, "rune-literal"), nil
	case "iota":
		return l.escape(n, "iota"), nil

	case "binary_expression":
		return l.liftBinary(n)
	case "unary_expression":
		return l.liftUnary(n)
	case "parenthesized_expression":
		// Go parentheses never build data; they always group.
		return l.lift(n.NamedChild(0))

	case "call_expression":
		return l.liftCall(n)
	case "selector_expression":
		return l.liftSelector(n)
	case "composite_literal":
		return l.liftComposite(n)

	case "pointer_type", "qualified_type", "type_identifier", "struct_type",
		"interface_type", "map_type", "slice_type", "array_type", "channel_type",
		"function_type", "generic_type":
		return l.escape(n, "type-expression"), nil
	case "type_conversion_expression":
		return l.escape(n, "type-conversion"), nil
	case "variadic_argument":
		return l.escape(n, "argument-splat"), nil
	}
	return nil, &ir.UnsupportedError{
		Language:  language,
		Construct: n.Kind,
		Snippet:   snippet(n.Text),
		Line:      n.Line,
	}
}

func (l *Lifter) liftInt(n *native.Node) (*ir.Node, error) {
	text := strings.ReplaceAll(n.Text, "_", "")
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return nil, &ir.UnsupportedError{Language: language, Construct: "integer literal", Snippet: n.Text, Line: n.Line}
	}
	return l.at(ir.Int(v), n), nil
}

func (l *Lifter) liftFloat(n *native.Node) (*ir.Node, error) {
	text := strings.ReplaceAll(n.Text, "_", "")
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, &ir.UnsupportedError{Language: language, Construct: "float literal", Snippet: n.Text, Line: n.Line}
	}
	return l.at(ir.Float(v), n), nil
}

func (l *Lifter) liftString(n *native.Node) (*ir.Node, error) {
	v, err := strconv.Unquote(n.Text)
	if err != nil {
		return nil, &ir.UnsupportedError{Language: language, Construct: "string literal", Snippet: snippet(n.Text), Line: n.Line}
	}
	return l.at(ir.Str(v), n), nil
}

func (l *Lifter) liftBinary(n *native.Node) (*ir.Node, error) {
	opNode := n.Field("operator")
	if opNode == nil {
		return nil, &ir.UnsupportedError{Language: language, Construct: "binary expression", Snippet: snippet(n.Text), Line: n.Line}
	}
	op := canonicalOp(opNode.Text)
	category, ok := lift.Category(op)
	if !ok {
		switch op {
		case "<-":
			return l.escape(n, "channel-receive"), nil
		}
		return nil, &ir.UnsupportedError{Language: language, Construct: "operator " + op, Snippet: snippet(n.Text), Line: n.Line}
	}
	left, err := l.lift(n.Field("left"))
	if err != nil {
		return nil, err
	}
	right, err := l.lift(n.Field("right"))
	if err != nil {
		return nil, err
	}
	node := ir.New(ir.BinaryOp, ir.Sym(op), left, right).WithMeta(ir.MetaCategory, category)
	return l.at(node, n), nil
}

func (l *Lifter) liftUnary(n *native.Node) (*ir.Node, error) {
	opNode := n.Field("operator")
	if opNode == nil {
		return nil, &ir.UnsupportedError{Language: language, Construct: "unary expression", Snippet: snippet(n.Text), Line: n.Line}
	}
	op := canonicalOp(opNode.Text)
	switch op {
	case "&", "*":
		return l.escape(n, "pointer-operation"), nil
	case "<-":
		return l.escape(n, "channel-receive"), nil
	}
	category, ok := lift.Category(op)
	if !ok && op != "-" && op != "+" {
		return nil, &ir.UnsupportedError{Language: language, Construct: "operator " + op, Snippet: snippet(n.Text), Line: n.Line}
	}
	if !ok {
		category = lift.CategoryArithmetic
	}
	operand, err := l.lift(n.Field("operand"))
	if err != nil {
		return nil, err
	}
	node := ir.New(ir.UnaryOp, ir.Sym(op), operand).WithMeta(ir.MetaCategory, category)
	return l.at(node, n), nil
}

func (l *Lifter) liftCall(n *native.Node) (*ir.Node, error) {
	fn := n.Field("function")
	args := n.Field("arguments")
	callee, err := l.lift(fn)
	if err != nil {
		return nil, err
	}
	kids := []*ir.Node{callee}
	if args != nil {
		for _, arg := range args.NamedChildren() {
			if arg.Kind == "comment" {
				continue
			}
			lifted, err := l.lift(arg)
			if err != nil {
				return nil, err
			}
			kids = append(kids, lifted)
		}
	}
	return l.at(ir.New(ir.FunctionCall, kids...), n), nil
}

func (l *Lifter) liftSelector(n *native.Node) (*ir.Node, error) {
	operand, err := l.lift(n.Field("operand"))
	if err != nil {
		return nil, err
	}
	field := n.Field("field")
	if field == nil {
		return nil, &ir.UnsupportedError{Language: language, Construct: "selector", Snippet: snippet(n.Text), Line: n.Line}
	}
	return l.at(ir.New(ir.AttributeAccess, operand, ir.Sym(field.Text)), n), nil
}

// liftComposite classifies composite literals. Slice and array types are
// sequences, fully keyed map literals are maps, struct literals stay
// language specific. A literal whose elements mix keyed and positional
// entries, or whose type says nothing, has no single honest reading and
// surfaces as Ambiguous.
func (l *Lifter) liftComposite(n *native.Node) (*ir.Node, error) {
	typ := n.Field("type")
	body := n.Field("body")
	if typ == nil || body == nil {
		return l.ambiguousComposite(n, "composite literal without explicit type")
	}
	return l.liftCompositeBody(n, typ, body)
}

// liftCompositeBody classifies one brace level. Nested literal_value
// entries carry no type of their own; the element type recovered from the
// enclosing slice, array or map type classifies them.
func (l *Lifter) liftCompositeBody(n, typ, body *native.Node) (*ir.Node, error) {
	keyed, positional := 0, 0
	var elems []*native.Node
	for _, child := range body.NamedChildren() {
		if child.Kind == "comment" {
			continue
		}
		if child.Kind == "keyed_element" {
			keyed++
		} else {
			positional++
		}
		elems = append(elems, child)
	}

	switch typ.Kind {
	case "slice_type", "array_type", "implicit_length_array_type":
		if keyed > 0 {
			return l.ambiguousComposite(n, "sequence literal with index keys")
		}
		items := make([]*ir.Node, 0, len(elems))
		for _, e := range elems {
			item, err := l.liftElement(e, typ.Field("element"))
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return l.at(ir.New(ir.List, items...), n), nil

	case "map_type":
		if positional > 0 {
			return l.ambiguousComposite(n, "map literal with positional entries")
		}
		var pairs []*ir.Node
		for _, e := range elems {
			pair, err := l.liftKeyedElement(e, typ.Field("value"))
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair)
		}
		return l.at(ir.New(ir.Map, pairs...), n), nil

	default:
		// struct or named type: field layout is Go semantics, not shape
		return l.escape(n, "struct-literal"), nil
	}
}

func (l *Lifter) liftKeyedElement(e *native.Node, valueType *native.Node) (*ir.Node, error) {
	named := e.NamedChildren()
	if len(named) != 2 {
		return nil, &ir.UnsupportedError{Language: language, Construct: "keyed element", Snippet: snippet(e.Text), Line: e.Line}
	}
	key, err := l.liftElement(named[0], nil)
	if err != nil {
		return nil, err
	}
	value, err := l.liftElement(named[1], valueType)
	if err != nil {
		return nil, err
	}
	return l.at(ir.New(ir.Pair, key, value), e), nil
}

// liftElement lifts one composite entry, classifying a bare nested brace
// level with the element type inherited from the enclosing literal.
func (l *Lifter) liftElement(e *native.Node, elemType *native.Node) (*ir.Node, error) {
	e = unwrapElement(e)
	if e.Kind == "literal_value" {
		if elemType == nil {
			return l.ambiguousComposite(e, "nested literal without a recoverable element type")
		}
		return l.liftCompositeBody(e, elemType, e)
	}
	return l.lift(e)
}

// unwrapElement strips the literal_element wrapper some grammar versions
// put around composite literal entries.
func unwrapElement(n *native.Node) *native.Node {
	if n != nil && n.Kind == "literal_element" {
		if inner := n.NamedChild(0); inner != nil {
			return inner
		}
	}
	return n
}

func (l *Lifter) ambiguousComposite(n *native.Node, reason string) (*ir.Node, error) {
	return nil, &ir.AmbiguousError{
		Language:  language,
		Construct: "composite literal",
		Reason:    reason,
		Snippet:   snippet(n.Text),
		Line:      n.Line,
	}
}

func (l *Lifter) liftAll(nodes []*native.Node) ([]*ir.Node, error) {
	out := make([]*ir.Node, 0, len(nodes))
	for _, n := range nodes {
		lifted, err := l.lift(unwrapElement(n))
		if err != nil {
			return nil, err
		}
		out = append(out, lifted)
	}
	return out, nil
}

func snippet(text string) string {
	const max = 80
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
