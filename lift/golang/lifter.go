// Package golang lifts tree-sitter-go native trees into the IR.
package golang

import (
	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/native"
	gositter "github.com/smacker/go-tree-sitter/golang"
)

const language = "go"

// Lifter is the Go abstraction engine.
type Lifter struct{}

// New creates a Go lifter.
func New() *Lifter { return &Lifter{} }

// Parser returns a native-tree parser backed by the tree-sitter Go grammar.
func Parser() *native.Parser {
	return native.NewParser(language, gositter.GetLanguage())
}

// Language returns the language identifier.
func (l *Lifter) Language() string { return language }

// Extensions returns the file extensions handled by this lifter.
func (l *Lifter) Extensions() []string { return []string{".go"} }

// Lift translates a native Go tree into IR; one unsupported subtree fails
// the whole call.
func (l *Lifter) Lift(src *native.Node) (*ir.Node, error) {
	if src == nil {
		return nil, &ir.UnsupportedError{Language: language, Construct: "nil tree"}
	}
	return l.lift(src)
}

func (l *Lifter) lift(n *native.Node) (*ir.Node, error) {
	switch n.Kind {
	case "source_file":
		return l.liftSourceFile(n)

	case "block":
		stmts, err := l.liftStatements(n)
		if err != nil {
			return nil, err
		}
		return l.at(ir.New(ir.Block, stmts...), n), nil

	case "expression_statement":
		return l.lift(n.NamedChild(0))

	case "return_statement":
		return l.liftReturn(n)

	case "if_statement":
		return l.liftIf(n)

	case "for_statement":
		return l.liftFor(n)

	case "expression_switch_statement":
		return l.liftSwitch(n)

	case "short_var_declaration":
		return l.liftAssign(n, "declare")

	case "assignment_statement":
		return l.liftAssignStatement(n)

	case "inc_statement":
		return l.liftIncDec(n, "+")
	case "dec_statement":
		return l.liftIncDec(n, "-")

	case "var_declaration", "const_declaration":
		return l.liftVarDeclaration(n)

	case "function_declaration":
		return l.liftFunctionDecl(n, nil)

	case "method_declaration":
		return l.liftFunctionDecl(n, n.Field("receiver"))

	case "func_literal":
		return l.liftFuncLiteral(n)

	// Go-only constructs: captured verbatim behind the escape hatch.
	case "go_statement":
		return l.escape(n, "goroutine"), nil
	case "defer_statement":
		return l.escape(n, "defer"), nil
	case "select_statement":
		return l.escape(n, "select"), nil
	case "send_statement":
		return l.escape(n, "channel-send"), nil
	case "type_switch_statement":
		return l.escape(n, "type-switch"), nil
	case "type_declaration":
		return l.escape(n, "type-declaration"), nil
	case "import_declaration":
		return l.escape(n, "import"), nil
	case "labeled_statement", "goto_statement":
		return l.escape(n, "goto"), nil
	case "break_statement":
		return l.escape(n, "break"), nil
	case "continue_statement":
		return l.escape(n, "continue"), nil
	case "fallthrough_statement":
		return l.escape(n, "fallthrough"), nil
	case "index_expression", "slice_expression":
		return l.escape(n, "subscript"), nil
	case "type_assertion_expression":
		return l.escape(n, "type-assertion"), nil

	default:
		return l.liftExpr(n)
	}
}

func (l *Lifter) liftSourceFile(n *native.Node) (*ir.Node, error) {
	name := ""
	var members []*ir.Node
	for _, child := range n.NamedChildren() {
		if child.Kind == "comment" {
			continue
		}
		if child.Kind == "package_clause" {
			if id := child.NamedChild(0); id != nil {
				name = id.Text
			}
			continue
		}
		lifted, err := l.lift(child)
		if err != nil {
			return nil, err
		}
		members = append(members, lifted)
	}
	node := ir.New(ir.Container, members...).WithMeta(ir.MetaKind, "module")
	if name != "" {
		node.WithMeta(ir.MetaName, name)
	}
	return l.at(node, n), nil
}

func (l *Lifter) liftStatements(n *native.Node) ([]*ir.Node, error) {
	var out []*ir.Node
	for _, child := range n.NamedChildren() {
		if child.Kind == "comment" {
			continue
		}
		lifted, err := l.lift(child)
		if err != nil {
			return nil, err
		}
		out = append(out, lifted)
	}
	return out, nil
}

func (l *Lifter) liftReturn(n *native.Node) (*ir.Node, error) {
	value := ir.Null()
	if list := n.NamedChild(0); list != nil {
		exprs := list.NamedChildren()
		switch {
		case list.Kind != "expression_list":
			lifted, err := l.lift(list)
			if err != nil {
				return nil, err
			}
			value = lifted
		case len(exprs) == 1:
			lifted, err := l.lift(exprs[0])
			if err != nil {
				return nil, err
			}
			value = lifted
		default:
			lifted, err := l.liftAll(exprs)
			if err != nil {
				return nil, err
			}
			value = ir.New(ir.Tuple, lifted...)
		}
	}
	return l.at(ir.New(ir.EarlyReturn, value), n), nil
}

// liftIf folds else-if chains into right-associative binary conditionals,
// recording the original multi-branch shape as a metadata hint.
func (l *Lifter) liftIf(n *native.Node) (*ir.Node, error) {
	cond, err := l.lift(n.Field("condition"))
	if err != nil {
		return nil, err
	}
	then, err := l.lift(n.Field("consequence"))
	if err != nil {
		return nil, err
	}
	alt := ir.Null()
	multi := false
	if altNode := n.Field("alternative"); altNode != nil {
		multi = altNode.Kind == "if_statement"
		alt, err = l.lift(altNode)
		if err != nil {
			return nil, err
		}
	}
	node := ir.New(ir.Conditional, cond, then, alt)
	if multi {
		node.WithMeta(ir.MetaOriginalForm, "multi_branch")
	}
	node = l.at(node, n)
	if init := n.Field("initializer"); init != nil {
		initIR, err := l.lift(init)
		if err != nil {
			return nil, err
		}
		return l.at(ir.New(ir.Block, initIR, node), n), nil
	}
	return node, nil
}

// liftFor maps the three for shapes: a bare condition is a while loop, a
// range clause is a for-each, and the three-clause form normalizes to
// block{init; while{body; update}}.
func (l *Lifter) liftFor(n *native.Node) (*ir.Node, error) {
	body, err := l.lift(n.Field("body"))
	if err != nil {
		return nil, err
	}

	var clause *native.Node
	for _, child := range n.NamedChildren() {
		if child != n.Field("body") && child.Kind != "comment" {
			clause = child
			break
		}
	}

	switch {
	case clause == nil:
		node := ir.New(ir.Loop, ir.Null(), ir.Bool(true), body).
			WithMeta(ir.MetaKind, ir.LoopWhile).
			WithMeta(ir.MetaOriginalForm, "forever")
		return l.at(node, n), nil

	case clause.Kind == "range_clause":
		binding := ir.Null()
		if left := clause.Field("left"); left != nil {
			lifted, err := l.liftBindingList(left)
			if err != nil {
				return nil, err
			}
			binding = lifted
		}
		iterable, err := l.lift(clause.Field("right"))
		if err != nil {
			return nil, err
		}
		node := ir.New(ir.Loop, binding, iterable, body).WithMeta(ir.MetaKind, ir.LoopForeach)
		if clause.Field("operator") != nil {
			// x := range vs x = range
			node.WithMeta(ir.MetaOriginalForm, clause.Field("operator").Text)
		}
		return l.at(node, n), nil

	case clause.Kind == "for_clause":
		cond := ir.Bool(true)
		if c := clause.Field("condition"); c != nil {
			lifted, err := l.lift(c)
			if err != nil {
				return nil, err
			}
			cond = lifted
		}
		loopBody := body
		if update := clause.Field("update"); update != nil {
			upd, err := l.lift(update)
			if err != nil {
				return nil, err
			}
			loopBody = ir.New(ir.Block, append(append([]*ir.Node{}, body.Kids...), upd)...)
		}
		loop := ir.New(ir.Loop, ir.Null(), cond, loopBody).
			WithMeta(ir.MetaKind, ir.LoopWhile).
			WithMeta(ir.MetaOriginalForm, "c_style")
		loop = l.at(loop, n)
		if init := clause.Field("initializer"); init != nil {
			initIR, err := l.lift(init)
			if err != nil {
				return nil, err
			}
			return l.at(ir.New(ir.Block, initIR, loop), n), nil
		}
		return loop, nil

	default:
		// condition-only loop
		cond, err := l.lift(clause)
		if err != nil {
			return nil, err
		}
		node := ir.New(ir.Loop, ir.Null(), cond, body).WithMeta(ir.MetaKind, ir.LoopWhile)
		return l.at(node, n), nil
	}
}

// liftSwitch lifts value switches into pattern_match. A bare switch is an
// ordered guard list, i.e. a multi-branch conditional: it normalizes to the
// right-associative binary chain, an empty one collapsing to the default
// null literal.
func (l *Lifter) liftSwitch(n *native.Node) (*ir.Node, error) {
	var cases []*native.Node
	for _, child := range n.NamedChildren() {
		if child.Kind == "expression_case" || child.Kind == "default_case" {
			cases = append(cases, child)
		}
	}

	var result *ir.Node
	var err error
	if value := n.Field("value"); value != nil {
		result, err = l.liftValueSwitch(n, value, cases)
	} else {
		result, err = l.liftGuardSwitch(n, cases)
	}
	if err != nil {
		return nil, err
	}
	if init := n.Field("initializer"); init != nil {
		initIR, err := l.lift(init)
		if err != nil {
			return nil, err
		}
		return l.at(ir.New(ir.Block, initIR, result), n), nil
	}
	return result, nil
}

func (l *Lifter) liftValueSwitch(n, value *native.Node, cases []*native.Node) (*ir.Node, error) {
	subject, err := l.lift(value)
	if err != nil {
		return nil, err
	}
	kids := []*ir.Node{subject}
	for _, c := range cases {
		arm, err := l.liftCaseArm(c)
		if err != nil {
			return nil, err
		}
		kids = append(kids, arm)
	}
	return l.at(ir.New(ir.PatternMatch, kids...), n), nil
}

func (l *Lifter) liftCaseArm(c *native.Node) (*ir.Node, error) {
	body, err := l.caseBody(c)
	if err != nil {
		return nil, err
	}
	if c.Kind == "default_case" {
		arm := ir.New(ir.MatchArm, ir.Null(), body).WithMeta(ir.MetaKind, "default")
		return l.at(arm, c), nil
	}
	values := c.Field("value")
	exprs := values.NamedChildren()
	var pattern *ir.Node
	if len(exprs) == 1 {
		pattern, err = l.lift(exprs[0])
	} else {
		var lifted []*ir.Node
		lifted, err = l.liftAll(exprs)
		pattern = ir.New(ir.Tuple, lifted...)
	}
	if err != nil {
		return nil, err
	}
	return l.at(ir.New(ir.MatchArm, pattern, body), c), nil
}

// liftGuardSwitch turns `switch { case g: ... }` into a conditional chain.
func (l *Lifter) liftGuardSwitch(n *native.Node, cases []*native.Node) (*ir.Node, error) {
	if len(cases) == 0 {
		// no guards at all: a single default branch of nothing
		return l.at(ir.Null().WithMeta(ir.MetaOriginalForm, "multi_branch"), n), nil
	}
	result := ir.Null()
	// fold right-associatively
	for i := len(cases) - 1; i >= 0; i-- {
		c := cases[i]
		body, err := l.caseBody(c)
		if err != nil {
			return nil, err
		}
		if c.Kind == "default_case" {
			result = body
			continue
		}
		guards := c.Field("value").NamedChildren()
		if len(guards) != 1 {
			return l.escape(n, "guard-list"), nil
		}
		guard, err := l.lift(guards[0])
		if err != nil {
			return nil, err
		}
		result = l.at(ir.New(ir.Conditional, guard, body, result), c)
	}
	if result.Tag == ir.Conditional {
		result.WithMeta(ir.MetaOriginalForm, "multi_branch")
	}
	return result, nil
}

func (l *Lifter) caseBody(c *native.Node) (*ir.Node, error) {
	var stmts []*ir.Node
	for _, child := range c.NamedChildren() {
		if child.Kind == "comment" || child == c.Field("value") {
			continue
		}
		lifted, err := l.lift(child)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, lifted)
	}
	return ir.New(ir.Block, stmts...), nil
}

func (l *Lifter) at(node *ir.Node, src *native.Node) *ir.Node {
	if src.Line > 0 {
		node.WithMeta(ir.MetaLine, int(src.Line))
	}
	return node
}

func (l *Lifter) escape(n *native.Node, hint string) *ir.Node {
	return l.at(ir.Escape(language, hint, n), n)
}
