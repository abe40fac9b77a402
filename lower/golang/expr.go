package golang

import (
	"strconv"
	"strings"

	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/lift"
	"github.com/oxhq/astir/native"
)

// goOps maps canonical operator spellings back to Go tokens.
var goOps = map[string]string{
	lift.OpAnd: "&&",
	lift.OpOr:  "||",
	lift.OpNot: "!",
	"~":        "^",
}

// unsupported binary operators: Go has no power, floor-division or
// membership operator.
var noGoBinary = map[string]bool{"**": true, "//": true, "in": true}

func goOp(op string) string {
	if g, ok := goOps[op]; ok {
		return g
	}
	return op
}

// expr renders a node in expression position.
func (w *Lowerer) expr(n *ir.Node) (*native.Node, error) {
	switch n.Tag {
	case ir.Literal:
		return w.literal(n)

	case ir.Variable:
		return native.Leaf("identifier", n.Value.Str), nil

	case ir.List:
		return w.list(n)

	case ir.Map:
		return w.mapLiteral(n)

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
		name, err := operatorSymbol(n.Kids[1])
		if err != nil {
			return nil, err
		}
		return native.New("selector_expression",
			native.Field("operand", object),
			native.Field("field", native.Leaf("field_identifier", name))), nil

	case ir.Conditional:
		return w.conditionalExpr(n)

	case ir.Lambda:
		return w.funcLiteral(n)

	case ir.CollectionOp:
		return w.collectionOp(n)

	case ir.Tuple:
		return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "no tuple expression"}

	case ir.Pair:
		return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "no keyword arguments"}

	case ir.AsyncOperation:
		// await has no Go spelling; the wrapped operation renders directly
		return w.expr(n.Kids[0])

	case ir.LanguageSpecific:
		return w.opaque(n)
	}
	return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "no expression rendering"}
}

func (w *Lowerer) literal(n *ir.Node) (*native.Node, error) {
	switch n.Value.Kind {
	case ir.Integer:
		return native.Leaf("int_literal", strconv.FormatInt(n.Value.Int, 10)), nil
	case ir.FloatKind:
		s := strconv.FormatFloat(n.Value.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return native.Leaf("float_literal", s), nil
	case ir.StringKind:
		return native.Leaf("interpreted_string_literal", strconv.Quote(n.Value.Str)), nil
	case ir.Boolean:
		if n.Value.Bool {
			return native.Leaf("true", "true"), nil
		}
		return native.Leaf("false", "false"), nil
	case ir.NullKind:
		return native.Leaf("nil", "nil"), nil
	case ir.Symbol:
		return native.Leaf("identifier", n.Value.Str), nil
	}
	return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "unknown scalar kind"}
}

// list renders as a []any composite literal; sets have no Go literal.
func (w *Lowerer) list(n *ir.Node) (*native.Node, error) {
	if n.MetaString(ir.MetaKind) == "set" {
		return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "no set literal"}
	}
	elems := make([]native.Child, 0, len(n.Kids))
	for _, kid := range n.Kids {
		e, err := w.expr(kid)
		if err != nil {
			return nil, err
		}
		elems = append(elems, native.Ch(e))
	}
	return native.New("composite_literal",
		native.Field("type", &native.Node{Kind: "slice_type", Text: "[]any", Named: true}),
		native.Field("body", native.New("literal_value", elems...))), nil
}

func (w *Lowerer) mapLiteral(n *ir.Node) (*native.Node, error) {
	elems := make([]native.Child, 0, len(n.Kids))
	for _, pair := range n.Kids {
		key, err := w.expr(pair.Kids[0])
		if err != nil {
			return nil, err
		}
		value, err := w.expr(pair.Kids[1])
		if err != nil {
			return nil, err
		}
		elems = append(elems, native.Ch(native.New("keyed_element",
			native.Ch(key), native.Ch(native.Token(":")), native.Ch(value))))
	}
	return native.New("composite_literal",
		native.Field("type", &native.Node{Kind: "map_type", Text: "map[any]any", Named: true}),
		native.Field("body", native.New("literal_value", elems...))), nil
}

func (w *Lowerer) binary(n *ir.Node) (*native.Node, error) {
	op, err := operatorSymbol(n.Kids[0])
	if err != nil {
		return nil, err
	}
	if noGoBinary[op] {
		return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "no " + op + " operator"}
	}
	left, err := w.expr(n.Kids[1])
	if err != nil {
		return nil, err
	}
	right, err := w.expr(n.Kids[2])
	if err != nil {
		return nil, err
	}
	return native.New("binary_expression",
		native.Field("left", left),
		native.Field("operator", native.Token(goOp(op))),
		native.Field("right", right)), nil
}

func (w *Lowerer) unary(n *ir.Node) (*native.Node, error) {
	op, err := operatorSymbol(n.Kids[0])
	if err != nil {
		return nil, err
	}
	operand, err := w.expr(n.Kids[1])
	if err != nil {
		return nil, err
	}
	return native.New("unary_expression",
		native.Field("operator", native.Token(goOp(op))),
		native.Field("operand", operand)), nil
}

func (w *Lowerer) call(n *ir.Node) (*native.Node, error) {
	callee, err := w.expr(n.Kids[0])
	if err != nil {
		return nil, err
	}
	args := make([]native.Child, 0, len(n.Kids)-1)
	for _, kid := range n.Kids[1:] {
		a, err := w.expr(kid)
		if err != nil {
			return nil, err
		}
		args = append(args, native.Ch(a))
	}
	return native.New("call_expression",
		native.Field("function", callee),
		native.Field("arguments", native.New("argument_list", args...))), nil
}

// conditionalExpr has no Go spelling; it renders as an immediately
// invoked func literal returning either branch.
func (w *Lowerer) conditionalExpr(n *ir.Node) (*native.Node, error) {
	body := ir.New(ir.Block,
		ir.New(ir.Conditional, n.Kids[0], ir.New(ir.EarlyReturn, n.Kids[1]), ir.Null()),
		ir.New(ir.EarlyReturn, n.Kids[2]))
	return w.iife(body)
}

func (w *Lowerer) funcLiteral(n *ir.Node) (*native.Node, error) {
	params, err := w.parameters(n.Kids[0])
	if err != nil {
		return nil, err
	}
	body, err := w.blockOf(n.Kids[1])
	if err != nil {
		return nil, err
	}
	children := []native.Child{tok("func"), native.Field("parameters", params)}
	if typ := n.MetaString(ir.MetaType); typ != "" {
		children = append(children, native.Field("result", typeNode(typ)))
	}
	children = append(children, native.Field("body", body))
	return native.New("func_literal", children...), nil
}

// iife wraps a statement body in an invoked any-returning func literal.
func (w *Lowerer) iife(body *ir.Node) (*native.Node, error) {
	block, err := w.blockOf(body)
	if err != nil {
		return nil, err
	}
	fn := native.New("func_literal",
		tok("func"),
		native.Field("parameters", native.New("parameter_list")),
		native.Field("result", typeNode("any")),
		native.Field("body", block))
	return native.New("call_expression",
		native.Field("function", fn),
		native.Field("arguments", native.New("argument_list"))), nil
}

// collectionOp desugars to an explicit range loop in an invoked func
// literal, the idiomatic Go rendering of map/filter/reduce.
func (w *Lowerer) collectionOp(n *ir.Node) (*native.Node, error) {
	op, err := operatorSymbol(n.Kids[0])
	if err != nil {
		return nil, err
	}
	coll, fn := n.Kids[1], n.Kids[2]
	item := ir.Var("v")
	out := ir.Var("out")
	acc := ir.Var("acc")

	var body *ir.Node
	switch op {
	case ir.CollMap:
		body = ir.New(ir.Block,
			declare(out, ir.New(ir.List)),
			ir.New(ir.Loop, item, coll,
				ir.New(ir.Block, appendTo(out, ir.New(ir.FunctionCall, fn, item))),
			).WithMeta(ir.MetaKind, ir.LoopForeach),
			ir.New(ir.EarlyReturn, out))

	case ir.CollFilter:
		body = ir.New(ir.Block,
			declare(out, ir.New(ir.List)),
			ir.New(ir.Loop, item, coll,
				ir.New(ir.Block, ir.New(ir.Conditional,
					ir.New(ir.FunctionCall, fn, item),
					ir.New(ir.Block, appendTo(out, item)),
					ir.Null())),
			).WithMeta(ir.MetaKind, ir.LoopForeach),
			ir.New(ir.EarlyReturn, out))

	case ir.CollReduce:
		step := ir.New(ir.Assignment, acc, ir.New(ir.FunctionCall, fn, acc, item))
		if len(n.Kids) == 4 {
			body = ir.New(ir.Block,
				declare(acc, n.Kids[3]),
				ir.New(ir.Loop, item, coll, ir.New(ir.Block, step)).
					WithMeta(ir.MetaKind, ir.LoopForeach),
				ir.New(ir.EarlyReturn, acc))
		} else {
			first := ir.Var("first")
			body = ir.New(ir.Block,
				declare(acc, ir.Null()),
				declare(first, ir.Bool(true)),
				ir.New(ir.Loop, item, coll, ir.New(ir.Block,
					ir.New(ir.Conditional,
						first,
						ir.New(ir.Block,
							ir.New(ir.Assignment, acc, item),
							ir.New(ir.Assignment, first, ir.Bool(false))),
						ir.New(ir.Block, step)),
				)).WithMeta(ir.MetaKind, ir.LoopForeach),
				ir.New(ir.EarlyReturn, acc))
		}

	default:
		return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "unknown collection op"}
	}
	return w.iife(body)
}

func declare(target, value *ir.Node) *ir.Node {
	return ir.New(ir.Assignment, target, value).WithMeta(ir.MetaOriginalForm, "declare")
}

func appendTo(target, value *ir.Node) *ir.Node {
	return ir.New(ir.Assignment, target,
		ir.New(ir.FunctionCall, ir.Var("append"), target, value))
}
