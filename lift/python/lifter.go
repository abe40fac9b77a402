// Package python lifts tree-sitter-python native trees into the IR.
//
// The lifter is a structural recursion over grammar node kinds. Constructs
// with no IR equivalent (comprehensions, decorators, context managers,
// generators) are wrapped verbatim in language_specific nodes; constructs
// with no rule at all abort the whole call with Unsupported.
package python

import (
	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/native"
	pysitter "github.com/smacker/go-tree-sitter/python"
)

const language = "python"

// Lifter is the Python abstraction engine.
type Lifter struct{}

// New creates a Python lifter.
func New() *Lifter { return &Lifter{} }

// Parser returns a native-tree parser backed by the tree-sitter Python
// grammar, the external collaborator that feeds Lift.
func Parser() *native.Parser {
	return native.NewParser(language, pysitter.GetLanguage())
}

// Language returns the language identifier.
func (l *Lifter) Language() string { return language }

// Extensions returns the file extensions handled by this lifter.
func (l *Lifter) Extensions() []string { return []string{".py", ".pyw", ".pyi"} }

// Lift translates a native Python tree into IR. Any subtree without a rule
// fails the whole call; no partial trees are produced.
func (l *Lifter) Lift(src *native.Node) (*ir.Node, error) {
	if src == nil {
		return nil, &ir.UnsupportedError{Language: language, Construct: "nil tree"}
	}
	return l.lift(src)
}

func (l *Lifter) lift(n *native.Node) (*ir.Node, error) {
	switch n.Kind {
	case "module":
		members, err := l.liftStatements(n)
		if err != nil {
			return nil, err
		}
		return l.at(ir.New(ir.Container, members...).WithMeta(ir.MetaKind, "module"), n), nil

	case "expression_statement":
		named := n.NamedChildren()
		if len(named) == 1 {
			return l.lift(named[0])
		}
		stmts, err := l.liftAll(named)
		if err != nil {
			return nil, err
		}
		return l.at(ir.New(ir.Block, stmts...), n), nil

	case "block":
		stmts, err := l.liftStatements(n)
		if err != nil {
			return nil, err
		}
		return l.at(ir.New(ir.Block, stmts...), n), nil

	case "pass_statement":
		return l.at(ir.Null(), n), nil

	case "return_statement":
		value := ir.Null()
		if expr := n.NamedChild(0); expr != nil {
			lifted, err := l.lift(expr)
			if err != nil {
				return nil, err
			}
			value = lifted
		}
		return l.at(ir.New(ir.EarlyReturn, value), n), nil

	case "if_statement":
		return l.liftIf(n)

	case "while_statement":
		return l.liftWhile(n)

	case "for_statement":
		return l.liftFor(n)

	case "assignment":
		return l.liftAssignment(n)

	case "augmented_assignment":
		return l.liftAugmented(n)

	case "named_expression":
		target, err := l.lift(n.Field("name"))
		if err != nil {
			return nil, err
		}
		value, err := l.lift(n.Field("value"))
		if err != nil {
			return nil, err
		}
		node := ir.New(ir.Assignment, target, value).WithMeta(ir.MetaOriginalForm, "walrus")
		return l.at(node, n), nil

	case "function_definition":
		return l.liftFunctionDef(n)

	case "lambda":
		return l.liftLambda(n)

	case "class_definition":
		return l.liftClassDef(n)

	case "try_statement":
		return l.liftTry(n)

	case "await":
		inner, err := l.lift(n.NamedChild(0))
		if err != nil {
			return nil, err
		}
		node := ir.New(ir.AsyncOperation, inner).WithMeta(ir.MetaKind, "await")
		return l.at(node, n), nil

	// Python-only constructs: wrapped verbatim, never dropped, never
	// force-fit into an ill-matching Core tag.
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		return l.escape(n, "comprehension"), nil
	case "decorated_definition":
		return l.escape(n, "decorator"), nil
	case "with_statement":
		return l.escape(n, "context-manager"), nil
	case "yield":
		return l.escape(n, "generator"), nil
	case "raise_statement":
		return l.escape(n, "raise"), nil
	case "assert_statement":
		return l.escape(n, "assert"), nil
	case "delete_statement":
		return l.escape(n, "delete"), nil
	case "global_statement":
		return l.escape(n, "global"), nil
	case "nonlocal_statement":
		return l.escape(n, "nonlocal"), nil
	case "import_statement", "import_from_statement", "future_import_statement":
		return l.escape(n, "import"), nil
	case "break_statement":
		return l.escape(n, "break"), nil
	case "continue_statement":
		return l.escape(n, "continue"), nil
	case "subscript":
		return l.escape(n, "subscript"), nil
	case "slice":
		return l.escape(n, "subscript"), nil
	case "match_statement":
		return l.escape(n, "pattern-match"), nil
	case "ellipsis":
		return l.escape(n, "ellipsis"), nil

	default:
		return l.liftExpr(n)
	}
}

// liftStatements lifts the named children of a suite, skipping comments.
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

func (l *Lifter) liftAll(nodes []*native.Node) ([]*ir.Node, error) {
	out := make([]*ir.Node, 0, len(nodes))
	for _, child := range nodes {
		lifted, err := l.lift(child)
		if err != nil {
			return nil, err
		}
		out = append(out, lifted)
	}
	return out, nil
}

// liftIf normalizes if/elif/else into a right-associative chain of binary
// conditionals; original_form records the multi-branch shape so a
// same-language reification can reconstitute it.
func (l *Lifter) liftIf(n *native.Node) (*ir.Node, error) {
	cond, err := l.lift(n.Field("condition"))
	if err != nil {
		return nil, err
	}
	then, err := l.lift(n.Field("consequence"))
	if err != nil {
		return nil, err
	}
	alternatives := n.Fields("alternative")
	alt, multi, err := l.foldAlternatives(alternatives)
	if err != nil {
		return nil, err
	}
	node := ir.New(ir.Conditional, cond, then, alt)
	if multi {
		node.WithMeta(ir.MetaOriginalForm, "multi_branch")
	}
	return l.at(node, n), nil
}

func (l *Lifter) foldAlternatives(alts []*native.Node) (*ir.Node, bool, error) {
	if len(alts) == 0 {
		return ir.Null(), false, nil
	}
	head := alts[0]
	switch head.Kind {
	case "elif_clause":
		cond, err := l.lift(head.Field("condition"))
		if err != nil {
			return nil, false, err
		}
		then, err := l.lift(head.Field("consequence"))
		if err != nil {
			return nil, false, err
		}
		rest, _, err := l.foldAlternatives(alts[1:])
		if err != nil {
			return nil, false, err
		}
		return l.at(ir.New(ir.Conditional, cond, then, rest), head), true, nil
	case "else_clause":
		body, err := l.lift(head.Field("body"))
		if err != nil {
			return nil, false, err
		}
		return body, false, nil
	}
	return nil, false, &ir.UnsupportedError{
		Language: language, Construct: head.Kind, Snippet: head.Text, Line: head.Line,
	}
}

func (l *Lifter) liftWhile(n *native.Node) (*ir.Node, error) {
	if n.Field("alternative") != nil {
		// while/else has no cross-language equivalent
		return l.escape(n, "loop-else"), nil
	}
	cond, err := l.lift(n.Field("condition"))
	if err != nil {
		return nil, err
	}
	body, err := l.lift(n.Field("body"))
	if err != nil {
		return nil, err
	}
	node := ir.New(ir.Loop, ir.Null(), cond, body).WithMeta(ir.MetaKind, ir.LoopWhile)
	return l.at(node, n), nil
}

func (l *Lifter) liftFor(n *native.Node) (*ir.Node, error) {
	if n.Field("alternative") != nil {
		return l.escape(n, "loop-else"), nil
	}
	if n.HasToken("async") {
		return l.escape(n, "async-for"), nil
	}
	binding, err := l.lift(n.Field("left"))
	if err != nil {
		return nil, err
	}
	iterable, err := l.lift(n.Field("right"))
	if err != nil {
		return nil, err
	}
	body, err := l.lift(n.Field("body"))
	if err != nil {
		return nil, err
	}
	node := ir.New(ir.Loop, binding, iterable, body).WithMeta(ir.MetaKind, ir.LoopForeach)
	return l.at(node, n), nil
}

func (l *Lifter) liftAssignment(n *native.Node) (*ir.Node, error) {
	right := n.Field("right")
	if right == nil {
		// bare annotation: x: int
		return l.escape(n, "annotation"), nil
	}
	target, err := l.lift(n.Field("left"))
	if err != nil {
		return nil, err
	}
	value, err := l.lift(right)
	if err != nil {
		return nil, err
	}
	node := ir.New(ir.Assignment, target, value)
	if typ := n.Field("type"); typ != nil {
		node.WithMeta(ir.MetaType, typ.Text)
	}
	return l.at(node, n), nil
}

func (l *Lifter) liftAugmented(n *native.Node) (*ir.Node, error) {
	opNode := n.Field("operator")
	if opNode == nil {
		return nil, &ir.UnsupportedError{Language: language, Construct: n.Kind, Snippet: n.Text, Line: n.Line}
	}
	op := trimAssign(opNode.Text)
	target, err := l.lift(n.Field("left"))
	if err != nil {
		return nil, err
	}
	value, err := l.lift(n.Field("right"))
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

// at stamps the source line on a lifted node. Lines are hint metadata,
// never load-bearing.
func (l *Lifter) at(node *ir.Node, src *native.Node) *ir.Node {
	if src.Line > 0 {
		node.WithMeta(ir.MetaLine, int(src.Line))
	}
	return node
}

func (l *Lifter) escape(n *native.Node, hint string) *ir.Node {
	return l.at(ir.Escape(language, hint, n), n)
}
