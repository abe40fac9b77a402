// Package golang renders IR into tree-sitter-go shaped native trees.
package golang

import (
	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/lift"
	"github.com/oxhq/astir/lower"
	"github.com/oxhq/astir/native"
)

const language = "go"

// Lowerer is the Go reification engine.
type Lowerer struct {
	fallbacks *lower.Fallbacks
}

// New creates a Go lowerer. fallbacks may be nil.
func New(fallbacks *lower.Fallbacks) *Lowerer {
	return &Lowerer{fallbacks: fallbacks}
}

// Language returns the reification target.
func (w *Lowerer) Language() string { return language }

// Lower renders the IR tree. A module container becomes a source_file
// with a package clause; anything else renders in the position its tag
// implies.
func (w *Lowerer) Lower(node *ir.Node) (*native.Node, error) {
	if err := ir.Check(node); err != nil {
		return nil, err
	}
	if node.Tag == ir.Container && node.MetaString(ir.MetaKind) == "module" {
		name := node.MetaString(ir.MetaName)
		if name == "" {
			name = "main"
		}
		children := []native.Child{native.Ch(native.New("package_clause",
			tok("package"), native.Ch(native.Leaf("package_identifier", name))))}
		for _, kid := range node.Kids {
			s, err := w.stmt(kid)
			if err != nil {
				return nil, err
			}
			children = append(children, native.Ch(s))
		}
		return native.New("source_file", children...), nil
	}
	switch node.Tag {
	case ir.Block, ir.EarlyReturn, ir.Loop, ir.PatternMatch, ir.Conditional,
		ir.Assignment, ir.AugmentedAssignment, ir.InlineMatch, ir.FunctionDef,
		ir.Container, ir.ExceptionHandling:
		return w.stmt(node)
	}
	return w.expr(node)
}

// stmt renders a node in statement position.
func (w *Lowerer) stmt(n *ir.Node) (*native.Node, error) {
	switch n.Tag {
	case ir.Block:
		return w.block(n.Kids)

	case ir.EarlyReturn:
		return w.returnStatement(n)

	case ir.Assignment:
		return w.assignment(n)

	case ir.InlineMatch:
		target, err := w.expr(n.Kids[0])
		if err != nil {
			return nil, err
		}
		value, err := w.expr(n.Kids[1])
		if err != nil {
			return nil, err
		}
		return native.New("assignment_statement",
			native.Field("left", exprList(target)),
			native.Field("operator", native.Token("=")),
			native.Field("right", exprList(value))), nil

	case ir.AugmentedAssignment:
		return w.augmented(n)

	case ir.Conditional:
		return w.ifStatement(n)

	case ir.Loop:
		return w.loop(n)

	case ir.PatternMatch:
		return w.patternMatch(n)

	case ir.FunctionDef:
		return w.functionDecl(n)

	case ir.Container:
		switch n.MetaString(ir.MetaKind) {
		case "module", "namespace", "":
			stmts := make([]native.Child, 0, len(n.Kids))
			for _, kid := range n.Kids {
				s, err := w.stmt(kid)
				if err != nil {
					return nil, err
				}
				stmts = append(stmts, native.Ch(s))
			}
			return native.New("block", stmts...), nil
		}
		return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "no class construct"}

	case ir.ExceptionHandling:
		return w.tryStatement(n)

	case ir.AsyncOperation:
		return w.stmt(n.Kids[0])

	case ir.Property:
		return nil, &ir.UnrenderableError{Target: language, Node: n, Reason: "no property construct"}

	case ir.Literal:
		if n.Value != nil && n.Value.Kind == ir.NullKind {
			// null in statement position carries no effect
			return native.New("block"), nil
		}

	case ir.LanguageSpecific:
		return w.opaque(n)
	}
	return w.expr(n)
}

func (w *Lowerer) block(kids []*ir.Node) (*native.Node, error) {
	stmts := make([]native.Child, 0, len(kids))
	for _, kid := range kids {
		s, err := w.stmt(kid)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, native.Ch(s))
	}
	return native.New("block", stmts...), nil
}

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

func (w *Lowerer) returnStatement(n *ir.Node) (*native.Node, error) {
	value := n.Kids[0]
	if nullLiteral(value) {
		return native.New("return_statement", tok("return")), nil
	}
	if value.Tag == ir.Tuple {
		elems := make([]native.Child, 0, len(value.Kids))
		for _, kid := range value.Kids {
			e, err := w.expr(kid)
			if err != nil {
				return nil, err
			}
			elems = append(elems, native.Ch(e))
		}
		return native.New("return_statement", tok("return"),
			native.Ch(native.New("expression_list", elems...))), nil
	}
	e, err := w.expr(value)
	if err != nil {
		return nil, err
	}
	return native.New("return_statement", tok("return"), native.Ch(e)), nil
}

// assignment restores the declaration forms recorded at abstraction time:
// := bindings, var and const specs, plain assignment otherwise.
func (w *Lowerer) assignment(n *ir.Node) (*native.Node, error) {
	target, err := w.targets(n.Kids[0])
	if err != nil {
		return nil, err
	}
	value, err := w.targets(n.Kids[1])
	if err != nil {
		return nil, err
	}
	switch n.MetaString(ir.MetaOriginalForm) {
	case "declare", "walrus":
		return native.New("short_var_declaration",
			native.Field("left", target),
			native.Ch(native.Token(":=")),
			native.Field("right", value)), nil
	case "var", "const":
		return w.varDeclaration(n, value)
	default:
		return native.New("assignment_statement",
			native.Field("left", target),
			native.Field("operator", native.Token("=")),
			native.Field("right", value)), nil
	}
}

func (w *Lowerer) varDeclaration(n *ir.Node, value *native.Node) (*native.Node, error) {
	form := n.MetaString(ir.MetaOriginalForm)
	kind, specKind := "var_declaration", "var_spec"
	if form == "const" {
		kind, specKind = "const_declaration", "const_spec"
	}
	var names []native.Child
	appendName := func(kid *ir.Node) error {
		if kid.Tag != ir.Variable {
			return &ir.UnrenderableError{Target: language, Node: kid, Reason: form + " target is not a variable"}
		}
		names = append(names, native.Field("name", native.Leaf("identifier", kid.Value.Str)))
		return nil
	}
	target := n.Kids[0]
	if target.Tag == ir.Tuple {
		for _, kid := range target.Kids {
			if err := appendName(kid); err != nil {
				return nil, err
			}
		}
	} else if err := appendName(target); err != nil {
		return nil, err
	}
	spec := names
	if typ := n.MetaString(ir.MetaType); typ != "" {
		spec = append(spec, native.Field("type", typeNode(typ)))
	}
	spec = append(spec, native.Field("value", value))
	return native.New(kind, tok(form), native.Ch(native.New(specKind, spec...))), nil
}

// targets renders an assignment side as the expression_list the grammar
// uses, splitting tuples into their elements.
func (w *Lowerer) targets(n *ir.Node) (*native.Node, error) {
	if n.Tag == ir.Tuple {
		elems := make([]native.Child, 0, len(n.Kids))
		for _, kid := range n.Kids {
			e, err := w.expr(kid)
			if err != nil {
				return nil, err
			}
			elems = append(elems, native.Ch(e))
		}
		return native.New("expression_list", elems...), nil
	}
	e, err := w.expr(n)
	if err != nil {
		return nil, err
	}
	return exprList(e), nil
}

// compoundOps are the operators Go spells as op=.
var compoundOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true, "&^": true,
}

func (w *Lowerer) augmented(n *ir.Node) (*native.Node, error) {
	op, err := operatorSymbol(n.Kids[0])
	if err != nil {
		return nil, err
	}
	target, err := w.expr(n.Kids[1])
	if err != nil {
		return nil, err
	}
	form := n.MetaString(ir.MetaOriginalForm)
	if (form == "inc" || form == "dec") && intLiteral(n.Kids[2], 1) {
		kind, token := "inc_statement", "++"
		if form == "dec" {
			kind, token = "dec_statement", "--"
		}
		return native.New(kind, native.Ch(target), native.Ch(native.Token(token))), nil
	}
	if !compoundOps[op] {
		// desugar x op= v into x = x op v for operators Go cannot compound
		binary := ir.New(ir.BinaryOp, n.Kids[0], n.Kids[1], n.Kids[2])
		if cat, ok := lift.Category(op); ok {
			binary.WithMeta(ir.MetaCategory, cat)
		}
		value, err := w.expr(binary)
		if err != nil {
			return nil, err
		}
		return native.New("assignment_statement",
			native.Field("left", exprList(target)),
			native.Field("operator", native.Token("=")),
			native.Field("right", exprList(value))), nil
	}
	value, err := w.expr(n.Kids[2])
	if err != nil {
		return nil, err
	}
	return native.New("assignment_statement",
		native.Field("left", exprList(target)),
		native.Field("operator", native.Token(op+"=")),
		native.Field("right", exprList(value))), nil
}

// ifStatement renders multi-branch chains as else-if, the native Go
// spelling of elif ladders.
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
		tok("if"),
		native.Field("condition", cond),
		native.Field("consequence", then),
	}
	alt := n.Kids[2]
	multi := n.MetaString(ir.MetaOriginalForm) == "multi_branch"
	switch {
	case nullLiteral(alt):
	case multi && alt.Tag == ir.Conditional:
		nested, err := w.ifStatement(alt)
		if err != nil {
			return nil, err
		}
		children = append(children, tok("else"), native.Field("alternative", nested))
	default:
		body, err := w.blockOf(alt)
		if err != nil {
			return nil, err
		}
		children = append(children, tok("else"), native.Field("alternative", body))
	}
	return native.New("if_statement", children...), nil
}

func (w *Lowerer) loop(n *ir.Node) (*native.Node, error) {
	body, err := w.blockOf(n.Kids[2])
	if err != nil {
		return nil, err
	}
	if n.MetaString(ir.MetaKind) == ir.LoopForeach {
		var clause []native.Child
		if binding := n.Kids[0]; !nullLiteral(binding) {
			left, err := w.targets(binding)
			if err != nil {
				return nil, err
			}
			clause = append(clause, native.Field("left", left),
				native.Field("operator", native.Token(":=")))
		}
		iterable, err := w.expr(n.Kids[1])
		if err != nil {
			return nil, err
		}
		clause = append(clause, tok("range"), native.Field("right", iterable))
		return native.New("for_statement", tok("for"),
			native.Ch(native.New("range_clause", clause...)),
			native.Field("body", body)), nil
	}
	cond := n.Kids[1]
	if n.MetaString(ir.MetaOriginalForm) == "forever" && boolLiteral(cond, true) {
		return native.New("for_statement", tok("for"), native.Field("body", body)), nil
	}
	condExpr, err := w.expr(cond)
	if err != nil {
		return nil, err
	}
	return native.New("for_statement", tok("for"),
		native.Ch(condExpr), native.Field("body", body)), nil
}

// patternMatch renders as an expression switch; arms with guards have no
// case spelling and fall back to an if chain on the subject.
func (w *Lowerer) patternMatch(n *ir.Node) (*native.Node, error) {
	for _, arm := range n.Kids[1:] {
		if len(arm.Kids) == 3 {
			return w.guardChain(n)
		}
	}
	subject, err := w.expr(n.Kids[0])
	if err != nil {
		return nil, err
	}
	children := []native.Child{tok("switch"), native.Field("value", subject)}
	for _, arm := range n.Kids[1:] {
		c, err := w.caseClause(arm)
		if err != nil {
			return nil, err
		}
		children = append(children, native.Ch(c))
	}
	return native.New("expression_switch_statement", children...), nil
}

func (w *Lowerer) caseClause(arm *ir.Node) (*native.Node, error) {
	body := arm.Kids[len(arm.Kids)-1]
	var stmts []native.Child
	appendStmt := func(kid *ir.Node) error {
		s, err := w.stmt(kid)
		if err != nil {
			return err
		}
		stmts = append(stmts, native.Ch(s))
		return nil
	}
	if body.Tag == ir.Block {
		for _, kid := range body.Kids {
			if err := appendStmt(kid); err != nil {
				return nil, err
			}
		}
	} else if err := appendStmt(body); err != nil {
		return nil, err
	}

	if arm.MetaString(ir.MetaKind) == "default" {
		return native.New("default_case", append([]native.Child{tok("default")}, stmts...)...), nil
	}
	pattern := arm.Kids[0]
	var values []native.Child
	if pattern.Tag == ir.Tuple {
		for _, kid := range pattern.Kids {
			e, err := w.expr(kid)
			if err != nil {
				return nil, err
			}
			values = append(values, native.Ch(e))
		}
	} else {
		e, err := w.expr(pattern)
		if err != nil {
			return nil, err
		}
		values = append(values, native.Ch(e))
	}
	children := []native.Child{tok("case"),
		native.Field("value", native.New("expression_list", values...))}
	return native.New("expression_case", append(children, stmts...)...), nil
}

// guardChain desugars a guarded match into subject equality conditionals.
func (w *Lowerer) guardChain(n *ir.Node) (*native.Node, error) {
	subject := n.Kids[0]
	chain := ir.Null()
	for i := len(n.Kids) - 1; i >= 1; i-- {
		arm := n.Kids[i]
		result := arm.Kids[len(arm.Kids)-1]
		if arm.MetaString(ir.MetaKind) == "default" {
			chain = result
			continue
		}
		cond := ir.New(ir.BinaryOp, ir.Sym("=="), subject, arm.Kids[0]).
			WithMeta(ir.MetaCategory, lift.CategoryComparison)
		if len(arm.Kids) == 3 {
			cond = ir.New(ir.BinaryOp, ir.Sym(lift.OpAnd), cond, arm.Kids[1]).
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

// tryStatement has no direct Go spelling. The body runs inside an
// immediately invoked func literal, the finalizer becomes a deferred call
// and the first handler body runs under a deferred recover guard. Handler
// patterns cannot be matched against panic values, so handlers past the
// first are dropped.
func (w *Lowerer) tryStatement(n *ir.Node) (*native.Node, error) {
	var stmts []native.Child

	if fin := n.Kids[2]; !nullLiteral(fin) {
		finBody, err := w.blockOf(fin)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, native.Ch(deferred(finBody)))
	}

	if handlers := n.Kids[1].Kids; len(handlers) > 0 {
		arm := handlers[0]
		hBody, err := w.blockOf(arm.Kids[len(arm.Kids)-1])
		if err != nil {
			return nil, err
		}
		guard := native.New("if_statement",
			tok("if"),
			native.Field("condition", native.New("binary_expression",
				native.Field("left", native.New("call_expression",
					native.Field("function", native.Leaf("identifier", "recover")),
					native.Field("arguments", native.New("argument_list")))),
				native.Field("operator", native.Token("!=")),
				native.Field("right", native.Leaf("nil", "nil")))),
			native.Field("consequence", hBody))
		stmts = append(stmts, native.Ch(deferred(native.New("block", native.Ch(guard)))))
	}

	body, err := w.blockOf(n.Kids[0])
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, body.Children...)

	fn := native.New("func_literal",
		tok("func"),
		native.Field("parameters", native.New("parameter_list")),
		native.Field("body", native.New("block", stmts...)))
	return native.New("call_expression",
		native.Field("function", fn),
		native.Field("arguments", native.New("argument_list"))), nil
}

// deferred wraps a block in `defer func() { ... }()`.
func deferred(body *native.Node) *native.Node {
	fn := native.New("func_literal",
		tok("func"),
		native.Field("parameters", native.New("parameter_list")),
		native.Field("body", body))
	return native.New("defer_statement",
		tok("defer"),
		native.Ch(native.New("call_expression",
			native.Field("function", fn),
			native.Field("arguments", native.New("argument_list")))))
}

func (w *Lowerer) functionDecl(n *ir.Node) (*native.Node, error) {
	params, err := w.parameters(n.Kids[0])
	if err != nil {
		return nil, err
	}
	body, err := w.blockOf(n.Kids[1])
	if err != nil {
		return nil, err
	}
	name := n.MetaString(ir.MetaName)
	if name == "" {
		name = "anon"
	}
	children := []native.Child{tok("func")}
	kind := "function_declaration"
	if recv := n.MetaString(ir.MetaReceiver); recv != "" {
		kind = "method_declaration"
		children = append(children, native.Field("receiver", receiverNode(recv)))
	}
	children = append(children,
		native.Field("name", native.Leaf("identifier", name)),
		native.Field("parameters", params))
	if typ := n.MetaString(ir.MetaType); typ != "" {
		children = append(children, native.Field("result", typeNode(typ)))
	}
	children = append(children, native.Field("body", body))
	return native.New(kind, children...), nil
}

func (w *Lowerer) parameters(list *ir.Node) (*native.Node, error) {
	params := make([]native.Child, 0, len(list.Kids))
	for _, p := range list.Kids {
		if p.MetaString(ir.MetaKind) != ir.ParamName {
			return nil, &ir.UnrenderableError{Target: language, Node: p, Reason: "only plain named parameters exist"}
		}
		typ := p.MetaString(ir.MetaType)
		if typ == "" {
			typ = "any"
		}
		kind := "parameter_declaration"
		if len(typ) > 3 && typ[:3] == "..." {
			kind = "variadic_parameter_declaration"
			typ = typ[3:]
		}
		params = append(params, native.Ch(native.New(kind,
			native.Field("name", native.Leaf("identifier", p.Value.Str)),
			native.Field("type", typeNode(typ)))))
	}
	return native.New("parameter_list", params...), nil
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

func typeNode(typ string) *native.Node {
	return &native.Node{Kind: "type_identifier", Text: typ, Named: true}
}

func receiverNode(text string) *native.Node {
	return &native.Node{Kind: "parameter_list", Text: text, Named: true}
}

func exprList(n *native.Node) *native.Node {
	return native.New("expression_list", native.Ch(n))
}

func nullLiteral(n *ir.Node) bool {
	return n != nil && n.Tag == ir.Literal && n.Value != nil && n.Value.Kind == ir.NullKind
}

func boolLiteral(n *ir.Node, v bool) bool {
	return n != nil && n.Tag == ir.Literal && n.Value != nil &&
		n.Value.Kind == ir.Boolean && n.Value.Bool == v
}

func intLiteral(n *ir.Node, v int64) bool {
	return n != nil && n.Tag == ir.Literal && n.Value != nil &&
		n.Value.Kind == ir.Integer && n.Value.Int == v
}

func operatorSymbol(n *ir.Node) (string, error) {
	if n.Tag != ir.Literal || n.Value == nil || n.Value.Kind != ir.Symbol {
		return "", &ir.UnrenderableError{Target: language, Node: n, Reason: "operator position is not a symbol"}
	}
	return n.Value.Str, nil
}

func tok(text string) native.Child { return native.Ch(native.Token(text)) }
