package python

import (
	"strconv"
	"strings"

	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/lift"
	"github.com/oxhq/astir/native"
)

// expr renders a node in expression position.
func (w *Lowerer) expr(n *ir.Node) (*native.Node, error) {
	switch n.Tag {
	case ir.Literal:
		return w.literal(n)

	case ir.Variable:
		return native.Leaf("identifier", n.Value.Str), nil

	case ir.List:
		elems, err := w.exprs(n.Kids)
		if err != nil {
			return nil, err
		}
		if n.MetaString(ir.MetaKind) == "set" {
			return native.New("set", elems...), nil
		}
		return native.New("list", elems...), nil

	case ir.Tuple:
		elems, err := w.exprs(n.Kids)
		if err != nil {
			return nil, err
		}
		return native.New("tuple", elems...), nil

	case ir.Map:
		pairs := make([]native.Child, 0, len(n.Kids))
		for _, pair := range n.Kids {
			key, err := w.expr(pair.Kids[0])
			if err != nil {
				return nil, err
			}
			value, err := w.expr(pair.Kids[1])
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, native.Ch(native.New("pair",
				native.Field("key", key), native.Field("value", value))))
		}
		return native.New("dictionary", pairs...), nil

	case ir.Pair:
		// a pair outside a map is a keyword argument
		name, err := targetOp(n.Kids[0], language)
		if err != nil {
			return nil, err
		}
		value, err := w.expr(n.Kids[1])
		if err != nil {
			return nil, err
		}
		return native.New("keyword_argument",
			native.Field("name", native.Leaf("identifier", name)),
			native.Field("value", value)), nil

	case ir.BinaryOp:
		return w.binary(n)

	case ir.UnaryOp:
		return w.unary(n)

	case ir.FunctionCall:
		return w.call(n)

	case ir.AttributeAccess:
		object, err := w.expr(n.Kids[0])
		if err != nil {
			return nil, err
		}
		name, err := targetOp(n.Kids[1], language)
		if err != nil {
			return nil, err
		}
		return native.New("attribute",
			native.Field("object", object),
			native.Field("attribute", native.Leaf("identifier", name))), nil

	case ir.Conditional:
		cons, err := w.expr(n.Kids[1])
		if err != nil {
			return nil, err
		}
		cond, err := w.expr(n.Kids[0])
		if err != nil {
			return nil, err
		}
		alt, err := w.expr(n.Kids[2])
		if err != nil {
			return nil, err
		}
		return native.New("conditional_expression",
			native.Ch(cons), tok("if"), native.Ch(cond), tok("else"), native.Ch(alt)), nil

	case ir.Assignment:
		target, err := w.expr(n.Kids[0])
		if err != nil {
			return nil, err
		}
		value, err := w.expr(n.Kids[1])
		if err != nil {
			return nil, err
		}
		return native.New("named_expression",
			native.Field("name", target), tok(":="), native.Field("value", value)), nil

	case ir.Lambda:
		return w.lambda(n)

	case ir.CollectionOp:
		return w.collectionOp(n)

	case ir.AsyncOperation:
		inner, err := w.expr(n.Kids[0])
		if err != nil {
			return nil, err
		}
		return native.New("await", tok("await"), native.Ch(inner)), nil

	case ir.LanguageSpecific:
		return w.opaque(n)
	}
	return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "no expression rendering"}
}

func (w *Lowerer) exprs(kids []*ir.Node) ([]native.Child, error) {
	out := make([]native.Child, 0, len(kids))
	for _, kid := range kids {
		e, err := w.expr(kid)
		if err != nil {
			return nil, err
		}
		out = append(out, native.Ch(e))
	}
	return out, nil
}

func (w *Lowerer) literal(n *ir.Node) (*native.Node, error) {
	switch n.Value.Kind {
	case ir.Integer:
		return native.Leaf("integer", strconv.FormatInt(n.Value.Int, 10)), nil
	case ir.FloatKind:
		return native.Leaf("float", formatFloat(n.Value.Float)), nil
	case ir.StringKind:
		return native.Leaf("string", pyQuote(n.Value.Str)), nil
	case ir.Boolean:
		if n.Value.Bool {
			return native.Leaf("true", "True"), nil
		}
		return native.Leaf("false", "False"), nil
	case ir.NullKind:
		return native.Leaf("none", "None"), nil
	case ir.Symbol:
		return native.Leaf("identifier", n.Value.Str), nil
	}
	return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "unknown scalar kind"}
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// pyQuote renders a double-quoted Python string literal.
func pyQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (w *Lowerer) binary(n *ir.Node) (*native.Node, error) {
	op, err := targetOp(n.Kids[0], language)
	if err != nil {
		return nil, err
	}
	left, err := w.expr(n.Kids[1])
	if err != nil {
		return nil, err
	}
	right, err := w.expr(n.Kids[2])
	if err != nil {
		return nil, err
	}
	category, _ := lift.Category(op)
	switch category {
	case lift.CategoryBoolean:
		return native.New("boolean_operator",
			native.Field("left", left),
			native.Field("operator", native.Token(op)),
			native.Field("right", right)), nil
	case lift.CategoryComparison:
		// comparison operators ride as anonymous tokens, matching the
		// parsed shape
		return native.New("comparison_operator",
			native.Ch(left), native.Ch(native.Token(op)), native.Ch(right)), nil
	default:
		if op == "&^" {
			// Go bit-clear has no Python operator
			return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "no &^ operator"}
		}
		return native.New("binary_operator",
			native.Field("left", left),
			native.Field("operator", native.Token(op)),
			native.Field("right", right)), nil
	}
}

func (w *Lowerer) unary(n *ir.Node) (*native.Node, error) {
	op, err := targetOp(n.Kids[0], language)
	if err != nil {
		return nil, err
	}
	operand, err := w.expr(n.Kids[1])
	if err != nil {
		return nil, err
	}
	if op == lift.OpNot {
		return native.New("not_operator",
			tok("not"), native.Field("argument", operand)), nil
	}
	return native.New("unary_operator",
		native.Field("operator", native.Token(op)),
		native.Field("argument", operand)), nil
}

func (w *Lowerer) call(n *ir.Node) (*native.Node, error) {
	callee, err := w.expr(n.Kids[0])
	if err != nil {
		return nil, err
	}
	args, err := w.exprs(n.Kids[1:])
	if err != nil {
		return nil, err
	}
	return native.New("call",
		native.Field("function", callee),
		native.Field("arguments", native.New("argument_list", args...))), nil
}

func (w *Lowerer) lambda(n *ir.Node) (*native.Node, error) {
	params, err := w.parameters(n.Kids[0], "lambda_parameters")
	if err != nil {
		return nil, err
	}
	body, err := w.lambdaBody(n.Kids[1])
	if err != nil {
		return nil, err
	}
	children := []native.Child{tok("lambda")}
	if len(params.Children) > 0 {
		children = append(children, native.Field("parameters", params))
	}
	children = append(children, native.Field("body", body))
	return native.New("lambda", children...), nil
}

// lambdaBody unwraps block bodies down to a single expression; Python
// lambdas cannot hold statements.
func (w *Lowerer) lambdaBody(n *ir.Node) (*native.Node, error) {
	for n.Tag == ir.Block {
		if len(n.Kids) != 1 {
			return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "multi-statement lambda body"}
		}
		n = n.Kids[0]
	}
	if n.Tag == ir.EarlyReturn {
		n = n.Kids[0]
	}
	return w.expr(n)
}

func (w *Lowerer) parameters(list *ir.Node, kind string) (*native.Node, error) {
	params := make([]native.Child, 0, len(list.Kids))
	for _, p := range list.Kids {
		rendered, err := w.parameter(p)
		if err != nil {
			return nil, err
		}
		params = append(params, native.Ch(rendered))
	}
	return native.New(kind, params...), nil
}

func (w *Lowerer) parameter(p *ir.Node) (*native.Node, error) {
	switch p.MetaString(ir.MetaKind) {
	case ir.ParamName:
		return native.Leaf("identifier", p.Value.Str), nil
	case ir.ParamDefault:
		name, err := w.expr(p.Kids[0])
		if err != nil {
			return nil, err
		}
		value, err := w.expr(p.Kids[1])
		if err != nil {
			return nil, err
		}
		return native.New("default_parameter",
			native.Field("name", name), tok("="), native.Field("value", value)), nil
	case ir.ParamPattern:
		pattern, err := w.expr(p.Kids[0])
		if err != nil {
			return nil, err
		}
		if pattern.Kind == "tuple" {
			pattern.Kind = "tuple_pattern"
		}
		return pattern, nil
	}
	return nil, &ir.UnrenderableError{Target: language, Node: p, Reason: "unknown param kind"}
}

// collectionOp lowers to the builtin map/filter calls and
// functools.reduce, which lift back to the same collection_op.
func (w *Lowerer) collectionOp(n *ir.Node) (*native.Node, error) {
	op, err := targetOp(n.Kids[0], language)
	if err != nil {
		return nil, err
	}
	coll, err := w.expr(n.Kids[1])
	if err != nil {
		return nil, err
	}
	fn, err := w.expr(n.Kids[2])
	if err != nil {
		return nil, err
	}
	args := []native.Child{native.Ch(fn), native.Ch(coll)}
	var callee *native.Node
	switch op {
	case ir.CollMap, ir.CollFilter:
		callee = native.Leaf("identifier", op)
	case ir.CollReduce:
		callee = native.New("attribute",
			native.Field("object", native.Leaf("identifier", "functools")),
			native.Field("attribute", native.Leaf("identifier", "reduce")))
		if len(n.Kids) == 4 {
			init, err := w.expr(n.Kids[3])
			if err != nil {
				return nil, err
			}
			args = append(args, native.Ch(init))
		}
	default:
		return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "unknown collection op"}
	}
	return native.New("call",
		native.Field("function", callee),
		native.Field("arguments", native.New("argument_list", args...))), nil
}
