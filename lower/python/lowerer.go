// Package python renders IR into tree-sitter-python shaped native trees.
// A lowered tree matches what the Python grammar would parse for the same
// construct, so lifting it again reproduces the input IR.
package python

import (
	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/lift"
	"github.com/oxhq/astir/lower"
	"github.com/oxhq/astir/native"
)

const language = "python"

// Lowerer is the Python reification engine.
type Lowerer struct {
	fallbacks *lower.Fallbacks
}

// New creates a Python lowerer. fallbacks may be nil.
func New(fallbacks *lower.Fallbacks) *Lowerer {
	return &Lowerer{fallbacks: fallbacks}
}

// Language returns the reification target.
func (w *Lowerer) Language() string { return language }

// Lower renders the IR tree. A module container becomes a module node;
// anything else renders in the position its tag implies.
func (w *Lowerer) Lower(node *ir.Node) (*native.Node, error) {
	if err := ir.Check(node); err != nil {
		return nil, err
	}
	if node.Tag == ir.Container && node.MetaString(ir.MetaKind) == "module" {
		var stmts []*native.Node
		for _, kid := range node.Kids {
			s, err := w.stmt(kid)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		}
		return native.New("module", wrap(stmts)...), nil
	}
	if statementTag(node) {
		return w.stmt(node)
	}
	return w.expr(node)
}

// statementTag reports tags that only exist in statement position.
func statementTag(n *ir.Node) bool {
	switch n.Tag {
	case ir.Block, ir.EarlyReturn, ir.Loop, ir.PatternMatch,
		ir.ExceptionHandling, ir.Container, ir.FunctionDef,
		ir.AugmentedAssignment, ir.InlineMatch:
		return true
	case ir.Assignment:
		return n.MetaString(ir.MetaOriginalForm) != "walrus"
	case ir.Conditional:
		return false
	}
	return false
}

// stmt renders a node in statement position.
func (w *Lowerer) stmt(n *ir.Node) (*native.Node, error) {
	switch n.Tag {
	case ir.Literal:
		if n.Value != nil && n.Value.Kind == ir.NullKind {
			return native.New("pass_statement", tok("pass")), nil
		}

	case ir.Block:
		return w.block(n.Kids)

	case ir.EarlyReturn:
		value := n.Kids[0]
		if value.Tag == ir.Literal && value.Value != nil && value.Value.Kind == ir.NullKind {
			return native.New("return_statement", tok("return")), nil
		}
		expr, err := w.expr(value)
		if err != nil {
			return nil, err
		}
		return native.New("return_statement", tok("return"), native.Ch(expr)), nil

	case ir.Assignment:
		return w.assignment(n)

	case ir.InlineMatch:
		// destructuring bind renders as a pattern assignment
		target, err := w.expr(n.Kids[0])
		if err != nil {
			return nil, err
		}
		value, err := w.expr(n.Kids[1])
		if err != nil {
			return nil, err
		}
		return native.New("assignment",
			native.Field("left", target), tok("="), native.Field("right", value)), nil

	case ir.AugmentedAssignment:
		op, err := targetOp(n.Kids[0], language)
		if err != nil {
			return nil, err
		}
		target, err := w.expr(n.Kids[1])
		if err != nil {
			return nil, err
		}
		value, err := w.expr(n.Kids[2])
		if err != nil {
			return nil, err
		}
		return native.New("augmented_assignment",
			native.Field("left", target),
			native.Field("operator", native.Token(op+"=")),
			native.Field("right", value)), nil

	case ir.Conditional:
		return w.ifStatement(n)

	case ir.Loop:
		return w.loop(n)

	case ir.PatternMatch:
		return w.patternMatch(n)

	case ir.ExceptionHandling:
		return w.try(n)

	case ir.FunctionDef:
		return w.functionDef(n)

	case ir.Container:
		return w.container(n)

	case ir.Property:
		return w.property(n)

	case ir.AsyncOperation:
		if inner := n.Kids[0]; inner.Tag == ir.FunctionDef {
			def, err := w.functionDef(inner)
			if err != nil {
				return nil, err
			}
			def.Children = append([]native.Child{native.Ch(native.Token("async"))}, def.Children...)
			return def, nil
		}

	case ir.LanguageSpecific:
		rendered, err := w.opaque(n)
		if err != nil {
			return nil, err
		}
		return rendered, nil
	}

	expr, err := w.expr(n)
	if err != nil {
		return nil, err
	}
	return native.New("expression_statement", native.Ch(expr)), nil
}

// block renders a statement list; Python blocks cannot be empty, so an
// empty one renders as pass.
func (w *Lowerer) block(kids []*ir.Node) (*native.Node, error) {
	if len(kids) == 0 {
		return native.New("block", native.Ch(native.New("pass_statement", tok("pass")))), nil
	}
	stmts := make([]*native.Node, 0, len(kids))
	for _, kid := range kids {
		s, err := w.stmt(kid)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return native.New("block", wrap(stmts)...), nil
}

// blockOf renders any node as a suite: blocks keep their statements, a
// single statement becomes a one-entry suite.
func (w *Lowerer) blockOf(n *ir.Node) (*native.Node, error) {
	if n.Tag == ir.Block {
		return w.block(n.Kids)
	}
	s, err := w.stmt(n)
	if err != nil {
		return nil, err
	}
	return native.New("block", native.Ch(s)), nil
}

func (w *Lowerer) assignment(n *ir.Node) (*native.Node, error) {
	target, err := w.expr(n.Kids[0])
	if err != nil {
		return nil, err
	}
	value, err := w.expr(n.Kids[1])
	if err != nil {
		return nil, err
	}
	if n.MetaString(ir.MetaOriginalForm) == "walrus" {
		return native.New("named_expression",
			native.Field("name", target), tok(":="), native.Field("value", value)), nil
	}
	return native.New("assignment",
		native.Field("left", target), tok("="), native.Field("right", value)), nil
}

// ifStatement reconstitutes multi-branch chains: a conditional flagged
// multi_branch whose alternative is another conditional renders as elif
// clauses rather than a nested if.
func (w *Lowerer) ifStatement(n *ir.Node) (*native.Node, error) {
	cond, err := w.expr(n.Kids[0])
	if err != nil {
		return nil, err
	}
	then, err := w.blockOf(n.Kids[1])
	if err != nil {
		return nil, err
	}
	children := []native.Child{
		native.Ch(native.Token("if")),
		native.Field("condition", cond),
		native.Field("consequence", then),
	}

	multi := n.MetaString(ir.MetaOriginalForm) == "multi_branch"
	alt := n.Kids[2]
	for multi && alt.Tag == ir.Conditional {
		elifCond, err := w.expr(alt.Kids[0])
		if err != nil {
			return nil, err
		}
		elifThen, err := w.blockOf(alt.Kids[1])
		if err != nil {
			return nil, err
		}
		children = append(children, native.Field("alternative", native.New("elif_clause",
			native.Ch(native.Token("elif")),
			native.Field("condition", elifCond),
			native.Field("consequence", elifThen))))
		alt = alt.Kids[2]
	}

	if !nullLiteral(alt) {
		body, err := w.blockOf(alt)
		if err != nil {
			return nil, err
		}
		children = append(children, native.Field("alternative", native.New("else_clause",
			native.Ch(native.Token("else")),
			native.Field("body", body))))
	}
	return native.New("if_statement", children...), nil
}

func (w *Lowerer) loop(n *ir.Node) (*native.Node, error) {
	body, err := w.blockOf(n.Kids[2])
	if err != nil {
		return nil, err
	}
	switch n.MetaString(ir.MetaKind) {
	case ir.LoopForeach:
		binding, err := w.expr(n.Kids[0])
		if err != nil {
			return nil, err
		}
		iterable, err := w.expr(n.Kids[1])
		if err != nil {
			return nil, err
		}
		return native.New("for_statement",
			native.Ch(native.Token("for")),
			native.Field("left", binding),
			native.Ch(native.Token("in")),
			native.Field("right", iterable),
			native.Field("body", body)), nil
	default:
		cond, err := w.expr(n.Kids[1])
		if err != nil {
			return nil, err
		}
		return native.New("while_statement",
			native.Ch(native.Token("while")),
			native.Field("condition", cond),
			native.Field("body", body)), nil
	}
}

// patternMatch renders as an if/elif equality chain on the subject; Python
// match statements do not survive lifting, a guard chain does.
func (w *Lowerer) patternMatch(n *ir.Node) (*native.Node, error) {
	subject := n.Kids[0]
	chain := ir.Null()
	// fold arms right to left
	for i := len(n.Kids) - 1; i >= 1; i-- {
		arm := n.Kids[i]
		pattern := arm.Kids[0]
		result := arm.Kids[len(arm.Kids)-1]
		if arm.MetaString(ir.MetaKind) == "default" {
			chain = result
			continue
		}
		cond := ir.New(ir.BinaryOp, ir.Sym("=="), subject, pattern).
			WithMeta(ir.MetaCategory, lift.CategoryComparison)
		if len(arm.Kids) == 3 {
			guard := arm.Kids[1]
			cond = ir.New(ir.BinaryOp, ir.Sym(lift.OpAnd), cond, guard).
				WithMeta(ir.MetaCategory, lift.CategoryBoolean)
		}
		chain = ir.New(ir.Conditional, cond, result, chain)
	}
	if chain.Tag != ir.Conditional {
		return w.stmt(chain)
	}
	chain.WithMeta(ir.MetaOriginalForm, "multi_branch")
	return w.ifStatement(chain)
}

func (w *Lowerer) try(n *ir.Node) (*native.Node, error) {
	body, err := w.blockOf(n.Kids[0])
	if err != nil {
		return nil, err
	}
	children := []native.Child{tok("try"), native.Field("body", body)}
	for _, arm := range n.Kids[1].Kids {
		clause, err := w.exceptClause(arm)
		if err != nil {
			return nil, err
		}
		children = append(children, native.Ch(clause))
	}
	if fin := n.Kids[2]; !nullLiteral(fin) {
		finBody, err := w.blockOf(fin)
		if err != nil {
			return nil, err
		}
		children = append(children, native.Ch(native.New("finally_clause",
			tok("finally"), native.Ch(finBody))))
	}
	return native.New("try_statement", children...), nil
}

func (w *Lowerer) exceptClause(arm *ir.Node) (*native.Node, error) {
	body, err := w.blockOf(arm.Kids[len(arm.Kids)-1])
	if err != nil {
		return nil, err
	}
	children := []native.Child{tok("except")}
	if pattern := arm.Kids[0]; !nullLiteral(pattern) {
		p, err := w.expr(pattern)
		if err != nil {
			return nil, err
		}
		if alias := arm.MetaString(ir.MetaAlias); alias != "" {
			p = native.New("as_pattern",
				native.Ch(p), tok("as"),
				native.Field("alias", native.Leaf("as_pattern_target", alias)))
		}
		children = append(children, native.Ch(p))
	}
	children = append(children, native.Ch(body))
	return native.New("except_clause", children...), nil
}

func (w *Lowerer) functionDef(n *ir.Node) (*native.Node, error) {
	name := n.MetaString(ir.MetaName)
	if name == "" {
		name = "_anon"
	}
	params, err := w.parameters(n.Kids[0], "parameters")
	if err != nil {
		return nil, err
	}
	body, err := w.blockOf(n.Kids[1])
	if err != nil {
		return nil, err
	}
	return native.New("function_definition",
		tok("def"),
		native.Field("name", native.Leaf("identifier", name)),
		native.Field("parameters", params),
		native.Field("body", body)), nil
}

func (w *Lowerer) container(n *ir.Node) (*native.Node, error) {
	switch n.MetaString(ir.MetaKind) {
	case "class":
		body, err := w.block(n.Kids)
		if err != nil {
			return nil, err
		}
		name := n.MetaString(ir.MetaName)
		if name == "" {
			name = "_Anon"
		}
		return native.New("class_definition",
			tok("class"),
			native.Field("name", native.Leaf("identifier", name)),
			native.Field("body", body)), nil
	default:
		// nested module or namespace: flatten into its statements
		stmts, err := w.block(n.Kids)
		if err != nil {
			return nil, err
		}
		stmts.Kind = "module"
		return stmts, nil
	}
}

func (w *Lowerer) property(n *ir.Node) (*native.Node, error) {
	name := n.MetaString(ir.MetaName)
	if name == "" {
		return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "property without a name"}
	}
	value, err := w.expr(n.Kids[0])
	if err != nil {
		return nil, err
	}
	return native.New("expression_statement", native.Ch(native.New("assignment",
		native.Field("left", native.Leaf("identifier", name)),
		tok("="),
		native.Field("right", value)))), nil
}

// opaque unwraps same-language escapes verbatim and routes foreign ones
// through the fallback registry.
func (w *Lowerer) opaque(n *ir.Node) (*native.Node, error) {
	op := n.Value.Opaque
	if op.Language == language {
		if op.Tree == nil {
			return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "opaque payload lost its native tree"}
		}
		return op.Tree, nil
	}
	if transform, ok := w.fallbacks.Lookup(op.Hint, language); ok {
		replacement, err := transform(op)
		if err != nil {
			return nil, err
		}
		return w.stmt(replacement)
	}
	return nil, &ir.IncompatibleError{Hint: op.Hint, Source: op.Language, Target: language}
}

func nullLiteral(n *ir.Node) bool {
	return n != nil && n.Tag == ir.Literal && n.Value != nil && n.Value.Kind == ir.NullKind
}

// targetOp extracts the operator symbol from an op-first payload.
func targetOp(n *ir.Node, target string) (string, error) {
	if n.Tag != ir.Literal || n.Value == nil || n.Value.Kind != ir.Symbol {
		return "", &ir.UnrenderableError{Target: target, Node: n, Reason: "operator position is not a symbol"}
	}
	return n.Value.Str, nil
}

func tok(text string) native.Child { return native.Ch(native.Token(text)) }

func wrap(nodes []*native.Node) []native.Child {
	out := make([]native.Child, len(nodes))
	for i, n := range nodes {
		out[i] = native.Ch(n)
	}
	return out
}
