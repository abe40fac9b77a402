package golang

import (
	"strings"

	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/native"
)

// liftBindingList lifts an expression_list of assignment targets: one
// target stays a variable, several become a tuple.
func (l *Lifter) liftBindingList(list *native.Node) (*ir.Node, error) {
	if list.Kind != "expression_list" {
		return l.lift(list)
	}
	exprs := list.NamedChildren()
	if len(exprs) == 1 {
		return l.lift(exprs[0])
	}
	lifted, err := l.liftAll(exprs)
	if err != nil {
		return nil, err
	}
	return l.at(ir.New(ir.Tuple, lifted...), list), nil
}

// liftAssign handles := bindings. The declaration aspect is a language
// detail; the original_form hint lets the Go lowerer restore it.
func (l *Lifter) liftAssign(n *native.Node, form string) (*ir.Node, error) {
	target, err := l.liftBindingList(n.Field("left"))
	if err != nil {
		return nil, err
	}
	value, err := l.liftBindingList(n.Field("right"))
	if err != nil {
		return nil, err
	}
	node := ir.New(ir.Assignment, target, value)
	if form != "" {
		node.WithMeta(ir.MetaOriginalForm, form)
	}
	return l.at(node, n), nil
}

func (l *Lifter) liftAssignStatement(n *native.Node) (*ir.Node, error) {
	opNode := n.Field("operator")
	if opNode == nil || opNode.Text == "=" {
		return l.liftAssign(n, "")
	}
	op := canonicalOp(trimAssign(opNode.Text))
	target, err := l.liftBindingList(n.Field("left"))
	if err != nil {
		return nil, err
	}
	value, err := l.liftBindingList(n.Field("right"))
	if err != nil {
		return nil, err
	}
	node := ir.New(ir.AugmentedAssignment, ir.Sym(op), target, value)
	return l.at(node, n), nil
}

func trimAssign(op string) string {
	if len(op) > 1 && op[len(op)-1] == '=' {
		return op[:len(op)-1]
	}
	return op
}

// liftIncDec desugars x++ and x-- into x += 1 form, keeping the original
// spelling as a hint.
func (l *Lifter) liftIncDec(n *native.Node, op string) (*ir.Node, error) {
	target, err := l.lift(n.NamedChild(0))
	if err != nil {
		return nil, err
	}
	form := "inc"
	if op == "-" {
		form = "dec"
	}
	node := ir.New(ir.AugmentedAssignment, ir.Sym(op), target, ir.Int(1)).
		WithMeta(ir.MetaOriginalForm, form)
	return l.at(node, n), nil
}

// liftVarDeclaration lifts var and const blocks. Specs with values become
// assignments; a bare declaration without initializer has no value-level
// meaning and stays language specific.
func (l *Lifter) liftVarDeclaration(n *native.Node) (*ir.Node, error) {
	form := "var"
	if n.Kind == "const_declaration" {
		form = "const"
	}
	var specs []*ir.Node
	for _, spec := range n.NamedChildren() {
		if spec.Kind != "var_spec" && spec.Kind != "const_spec" {
			continue
		}
		value := spec.Field("value")
		if value == nil {
			return l.escape(n, "declaration"), nil
		}
		names := spec.Fields("name")
		var target *ir.Node
		if len(names) == 1 {
			target = l.at(ir.Var(names[0].Text), names[0])
		} else {
			vars := make([]*ir.Node, len(names))
			for i, name := range names {
				vars[i] = l.at(ir.Var(name.Text), name)
			}
			target = ir.New(ir.Tuple, vars...)
		}
		rhs, err := l.liftBindingList(value)
		if err != nil {
			return nil, err
		}
		binding := ir.New(ir.Assignment, target, rhs).WithMeta(ir.MetaOriginalForm, form)
		if typ := spec.Field("type"); typ != nil {
			binding.WithMeta(ir.MetaType, typ.Text)
		}
		specs = append(specs, l.at(binding, spec))
	}
	if len(specs) == 0 {
		return l.escape(n, "declaration"), nil
	}
	if len(specs) == 1 {
		return specs[0], nil
	}
	return l.at(ir.New(ir.Block, specs...), n), nil
}

func (l *Lifter) liftFunctionDecl(n, receiver *native.Node) (*ir.Node, error) {
	params, err := l.liftParams(n.Field("parameters"))
	if err != nil {
		return nil, err
	}
	body := n.Field("body")
	if body == nil {
		// assembly or linkname stub
		return l.escape(n, "external-function"), nil
	}
	bodyIR, err := l.lift(body)
	if err != nil {
		return nil, err
	}
	name := n.Field("name").Text
	node := ir.New(ir.FunctionDef, params, bodyIR).
		WithMeta(ir.MetaName, name).
		WithMeta(ir.MetaVisibility, visibility(name))
	if receiver != nil {
		node.WithMeta(ir.MetaReceiver, strings.TrimSpace(receiver.Text))
	}
	if result := n.Field("result"); result != nil {
		node.WithMeta(ir.MetaType, result.Text)
	}
	return l.at(node, n), nil
}

// visibility follows the exported-identifier convention: an upper-case
// initial is public, anything else package private.
func visibility(name string) string {
	if name == "" {
		return "private"
	}
	first := rune(name[0])
	if first >= 'A' && first <= 'Z' {
		return "public"
	}
	return "private"
}

func (l *Lifter) liftFuncLiteral(n *native.Node) (*ir.Node, error) {
	params, err := l.liftParams(n.Field("parameters"))
	if err != nil {
		return nil, err
	}
	body, err := l.lift(n.Field("body"))
	if err != nil {
		return nil, err
	}
	node := ir.New(ir.Lambda, params, body)
	if result := n.Field("result"); result != nil {
		node.WithMeta(ir.MetaType, result.Text)
	}
	return l.at(node, n), nil
}

// liftParams lifts a parameter_list. Go parameters are always plain names
// with a type; `a, b int` shares one declaration across several names.
func (l *Lifter) liftParams(params *native.Node) (*ir.Node, error) {
	if params == nil {
		return ir.New(ir.List), nil
	}
	var out []*ir.Node
	for _, decl := range params.NamedChildren() {
		switch decl.Kind {
		case "parameter_declaration", "variadic_parameter_declaration":
			typ := ""
			if t := decl.Field("type"); t != nil {
				typ = t.Text
			}
			if decl.Kind == "variadic_parameter_declaration" {
				typ = "..." + typ
			}
			names := decl.Fields("name")
			if len(names) == 0 {
				// unnamed parameter in a declaration without a body
				out = append(out, l.nameParam("_", decl, typ))
				continue
			}
			for _, name := range names {
				out = append(out, l.nameParam(name.Text, name, typ))
			}
		case "comment":
		default:
			return nil, &ir.UnsupportedError{
				Language: language, Construct: "parameter " + decl.Kind, Snippet: decl.Text, Line: decl.Line,
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
