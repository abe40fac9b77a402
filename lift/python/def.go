package python

import (
	"strings"

	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/native"
)

func (l *Lifter) liftCall(n *native.Node) (*ir.Node, error) {
	argsNode := n.Field("arguments")
	if argsNode != nil && argsNode.Kind == "generator_expression" {
		return l.escape(n, "comprehension"), nil
	}

	var args []*ir.Node
	keyword := false
	if argsNode != nil {
		for _, child := range argsNode.NamedChildren() {
			switch child.Kind {
			case "comment":
				continue
			case "list_splat", "dictionary_splat":
				return l.escape(n, "argument-splat"), nil
			case "keyword_argument":
				keyword = true
				value, err := l.lift(child.Field("value"))
				if err != nil {
					return nil, err
				}
				name := child.Field("name")
				args = append(args, ir.New(ir.Pair, ir.Sym(name.Text), value))
			default:
				lifted, err := l.lift(child)
				if err != nil {
					return nil, err
				}
				args = append(args, lifted)
			}
		}
	}

	fn := n.Field("function")
	if op, ok := collectionOpName(fn); ok && !keyword {
		if node, matched, err := l.liftCollectionOp(n, op, args); matched || err != nil {
			return node, err
		}
	}

	callee, err := l.lift(fn)
	if err != nil {
		return nil, err
	}
	kids := append([]*ir.Node{callee}, args...)
	return l.at(ir.New(ir.FunctionCall, kids...), n), nil
}

// collectionOpName recognizes builtin map/filter and functools.reduce so
// they canonicalize into collection_op rather than plain calls.
func collectionOpName(fn *native.Node) (string, bool) {
	if fn == nil {
		return "", false
	}
	switch fn.Kind {
	case "identifier":
		switch fn.Text {
		case "map", "filter", "reduce":
			return fn.Text, true
		}
	case "attribute":
		object := fn.Field("object")
		attr := fn.Field("attribute")
		if object != nil && attr != nil &&
			object.Kind == "identifier" && object.Text == "functools" && attr.Text == "reduce" {
			return ir.CollReduce, true
		}
	}
	return "", false
}

func (l *Lifter) liftCollectionOp(n *native.Node, op string, args []*ir.Node) (*ir.Node, bool, error) {
	switch op {
	case ir.CollMap, ir.CollFilter:
		if len(args) != 2 {
			return nil, false, nil
		}
		node := ir.New(ir.CollectionOp, ir.Sym(op), args[1], args[0])
		return l.at(node, n), true, nil
	case ir.CollReduce:
		if len(args) != 2 && len(args) != 3 {
			return nil, false, nil
		}
		kids := []*ir.Node{ir.Sym(ir.CollReduce), args[1], args[0]}
		if len(args) == 3 {
			kids = append(kids, args[2])
		}
		return l.at(ir.New(ir.CollectionOp, kids...), n), true, nil
	}
	return nil, false, nil
}

func (l *Lifter) liftFunctionDef(n *native.Node) (*ir.Node, error) {
	params, err := l.liftParameters(n.Field("parameters"))
	if err != nil {
		return nil, err
	}
	body, err := l.lift(n.Field("body"))
	if err != nil {
		return nil, err
	}
	name := n.Field("name").Text
	node := ir.New(ir.FunctionDef, params, body).
		WithMeta(ir.MetaName, name).
		WithMeta(ir.MetaVisibility, visibility(name))
	if ret := n.Field("return_type"); ret != nil {
		node.WithMeta(ir.MetaType, ret.Text)
	}
	node = l.at(node, n)
	if n.HasToken("async") {
		return l.at(ir.New(ir.AsyncOperation, node).WithMeta(ir.MetaKind, "async"), n), nil
	}
	return node, nil
}

// visibility follows the underscore convention: one leading underscore is
// internal use, two is name-mangled private.
func visibility(name string) string {
	if strings.HasPrefix(name, "_") {
		return "private"
	}
	return "public"
}

func (l *Lifter) liftLambda(n *native.Node) (*ir.Node, error) {
	params, err := l.liftParameters(n.Field("parameters"))
	if err != nil {
		return nil, err
	}
	body, err := l.lift(n.Field("body"))
	if err != nil {
		return nil, err
	}
	return l.at(ir.New(ir.Lambda, params, body), n), nil
}

// liftParameters lowers a parameter suite into the three-case param model:
// bare name, destructuring pattern, or name with default.
func (l *Lifter) liftParameters(params *native.Node) (*ir.Node, error) {
	if params == nil {
		return ir.New(ir.List), nil
	}
	var out []*ir.Node
	for _, child := range params.NamedChildren() {
		switch child.Kind {
		case "comment", "keyword_separator", "positional_separator":
			continue
		case "identifier":
			out = append(out, l.nameParam(child.Text, child, ""))
		case "default_parameter":
			p, err := l.defaultParam(child, "")
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		case "typed_parameter":
			inner := child.NamedChild(0)
			typ := ""
			if t := child.Field("type"); t != nil {
				typ = t.Text
			}
			if inner != nil && inner.Kind == "identifier" {
				out = append(out, l.nameParam(inner.Text, child, typ))
				continue
			}
			p, err := l.patternParam(child, typ)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		case "typed_default_parameter":
			typ := ""
			if t := child.Field("type"); t != nil {
				typ = t.Text
			}
			p, err := l.defaultParam(child, typ)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		case "tuple_pattern":
			p, err := l.patternParam(child, "")
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		case "list_splat_pattern", "dictionary_splat_pattern":
			p := ir.New(ir.Param, l.escape(child, "parameter-splat")).WithMeta(ir.MetaKind, ir.ParamPattern)
			out = append(out, l.at(p, child))
		default:
			return nil, &ir.UnsupportedError{
				Language: language, Construct: "parameter " + child.Kind, Snippet: child.Text, Line: child.Line,
			}
		}
	}
	return ir.New(ir.List, out...), nil
}

func (l *Lifter) nameParam(name string, src *native.Node, typ string) *ir.Node {
	p := ir.NewLeaf(ir.Param, ir.Scalar{Kind: ir.Symbol, Str: name}).WithMeta(ir.MetaKind, ir.ParamName)
	if typ != "" {
		p.WithMeta(ir.MetaType, typ)
	}
	return l.at(p, src)
}

func (l *Lifter) defaultParam(n *native.Node, typ string) (*ir.Node, error) {
	nameNode := n.Field("name")
	value, err := l.lift(n.Field("value"))
	if err != nil {
		return nil, err
	}
	var target *ir.Node
	if nameNode != nil && nameNode.Kind == "identifier" {
		target = ir.Var(nameNode.Text)
	} else {
		target, err = l.lift(nameNode)
		if err != nil {
			return nil, err
		}
	}
	p := ir.New(ir.Param, target, value).WithMeta(ir.MetaKind, ir.ParamDefault)
	if typ != "" {
		p.WithMeta(ir.MetaType, typ)
	}
	return l.at(p, n), nil
}

func (l *Lifter) patternParam(n *native.Node, typ string) (*ir.Node, error) {
	pattern, err := l.lift(n)
	if err != nil {
		return nil, err
	}
	p := ir.New(ir.Param, pattern).WithMeta(ir.MetaKind, ir.ParamPattern)
	if typ != "" {
		p.WithMeta(ir.MetaType, typ)
	}
	return l.at(p, n), nil
}

func (l *Lifter) liftClassDef(n *native.Node) (*ir.Node, error) {
	members, err := l.liftStatements(n.Field("body"))
	if err != nil {
		return nil, err
	}
	name := n.Field("name").Text
	node := ir.New(ir.Container, members...).
		WithMeta(ir.MetaKind, "class").
		WithMeta(ir.MetaName, name).
		WithMeta(ir.MetaVisibility, visibility(name))
	if supers := n.Field("superclasses"); supers != nil {
		var bases []string
		for _, base := range supers.NamedChildren() {
			bases = append(bases, base.Text)
		}
		node.WithMeta("bases", strings.Join(bases, ", "))
	}
	return l.at(node, n), nil
}

func (l *Lifter) liftTry(n *native.Node) (*ir.Node, error) {
	body, err := l.lift(n.Field("body"))
	if err != nil {
		return nil, err
	}
	handlers := ir.New(ir.List)
	finalizer := ir.Null()
	for _, child := range n.NamedChildren() {
		switch child.Kind {
		case "except_clause":
			arm, err := l.liftExcept(child)
			if err != nil {
				return nil, err
			}
			handlers.Kids = append(handlers.Kids, arm)
		case "except_group_clause":
			return l.escape(n, "exception-group"), nil
		case "finally_clause":
			fin, err := l.lift(child.NamedChild(0))
			if err != nil {
				return nil, err
			}
			finalizer = fin
		case "else_clause":
			return l.escape(n, "try-else"), nil
		}
	}
	node := ir.New(ir.ExceptionHandling, body, handlers, finalizer)
	return l.at(node, n), nil
}

func (l *Lifter) liftExcept(n *native.Node) (*ir.Node, error) {
	named := n.NamedChildren()
	if len(named) == 0 {
		return nil, &ir.UnsupportedError{Language: language, Construct: n.Kind, Snippet: n.Text, Line: n.Line}
	}
	body, err := l.lift(named[len(named)-1])
	if err != nil {
		return nil, err
	}
	pattern := ir.Null()
	alias := ""
	if len(named) > 1 {
		excNode := named[0]
		if excNode.Kind == "as_pattern" {
			if target := excNode.Field("alias"); target != nil {
				alias = target.Text
			}
			excNode = excNode.NamedChild(0)
		}
		pattern, err = l.lift(excNode)
		if err != nil {
			return nil, err
		}
		// pre-as_pattern grammars put the alias identifier between the
		// exception expression and the handler block
		if alias == "" && len(named) == 3 && named[1].Kind == "identifier" {
			alias = named[1].Text
		}
	}
	arm := ir.New(ir.MatchArm, pattern, body)
	if alias != "" {
		arm.WithMeta(ir.MetaAlias, alias)
	}
	return l.at(arm, n), nil
}
