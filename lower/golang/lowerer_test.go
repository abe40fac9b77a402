package golang

import (
	"errors"
	"testing"

	"github.com/oxhq/astir/ir"
	liftgo "github.com/oxhq/astir/lift/golang"
	"github.com/oxhq/astir/lower"
	"github.com/oxhq/astir/native"
)

func liftSource(t *testing.T, source string) *ir.Node {
	t.Helper()
	tree, err := liftgo.Parser().Parse([]byte(source))
	if err != nil {
		t.Fatalf("parse %q: %v", source, err)
	}
	node, err := liftgo.New().Lift(tree)
	if err != nil {
		t.Fatalf("lift %q: %v", source, err)
	}
	return node
}

func TestRoundTrip(t *testing.T) {
	sources := []string{
		"package p\n\nfunc f(a, b int) int {\n\treturn a + b\n}\n",
		"package p\n\nfunc f() {\n\tx := 1\n\tx += 2\n\tx++\n}\n",
		"package p\n\nfunc f() {\n\ta, b = b, a\n}\n",
		"package p\n\nfunc f() {\n\tif a {\n\t\tg()\n\t} else if b {\n\t\th()\n\t} else {\n\t\tk()\n\t}\n}\n",
		"package p\n\nfunc f() {\n\tfor x < 10 {\n\t\tx++\n\t}\n}\n",
		"package p\n\nfunc f() {\n\tfor _, v := range xs {\n\t\tuse(v)\n\t}\n}\n",
		"package p\n\nfunc f() {\n\tswitch x {\n\tcase 1, 2:\n\t\tg()\n\tdefault:\n\t\th()\n\t}\n}\n",
		"package p\n\nfunc f() {\n\tx := []int{1, 2, 3}\n\tuse(x)\n}\n",
		"package p\n\nfunc f() {\n\tm := map[string]int{\"a\": 1}\n\tuse(m)\n}\n",
		"package p\n\nfunc f() {\n\tx := a && !b || c\n\tuse(x)\n}\n",
		"package p\n\nfunc f() (int, int) {\n\treturn a, b\n}\n",
		"package p\n\nfunc f() {\n\tgo g()\n}\n",
	}
	engine := New(nil)
	for _, source := range sources {
		before := liftSource(t, source)
		tree, err := engine.Lower(before)
		if err != nil {
			t.Errorf("%q: lower: %v", source, err)
			continue
		}
		after, err := liftgo.New().Lift(tree)
		if err != nil {
			t.Errorf("%q: re-lift: %v", source, err)
			continue
		}
		if !ir.Equal(before, after) {
			t.Errorf("%q: round trip drifted:\nbefore: %s\nafter:  %s",
				source, ir.Canonical(before), ir.Canonical(after))
		}
	}
}

// Declaration forms recorded at lift time come back out as the same
// native statement kinds.
func TestDeclarationFormsRestored(t *testing.T) {
	before := liftSource(t, "package p\n\nfunc f() {\n\tx := 1\n\ty = 2\n}\n")
	tree, err := New(nil).Lower(before)
	if err != nil {
		t.Fatal(err)
	}
	body := tree.NamedChild(1).Field("body")
	if kind := body.NamedChild(0).Kind; kind != "short_var_declaration" {
		t.Errorf("first statement = %q, want short_var_declaration", kind)
	}
	if kind := body.NamedChild(1).Kind; kind != "assignment_statement" {
		t.Errorf("second statement = %q, want assignment_statement", kind)
	}
}

func TestIncDecRestored(t *testing.T) {
	before := liftSource(t, "package p\n\nfunc f() {\n\tx++\n\ty--\n}\n")
	tree, err := New(nil).Lower(before)
	if err != nil {
		t.Fatal(err)
	}
	body := tree.NamedChild(1).Field("body")
	if kind := body.NamedChild(0).Kind; kind != "inc_statement" {
		t.Errorf("x++ lowered to %q", kind)
	}
	if kind := body.NamedChild(1).Kind; kind != "dec_statement" {
		t.Errorf("y-- lowered to %q", kind)
	}
}

func TestElseIfReconstitution(t *testing.T) {
	before := liftSource(t, "package p\n\nfunc f() {\n\tif a {\n\t\tg()\n\t} else if b {\n\t\th()\n\t}\n}\n")
	tree, err := New(nil).Lower(before)
	if err != nil {
		t.Fatal(err)
	}
	stmt := tree.NamedChild(1).Field("body").NamedChild(0)
	if stmt.Kind != "if_statement" {
		t.Fatalf("statement = %q", stmt.Kind)
	}
	alt := stmt.Field("alternative")
	if alt == nil || alt.Kind != "if_statement" {
		t.Errorf("alternative = %v, want nested if_statement", alt)
	}
}

// Python floor division has no Go operator and must fail fast, not guess.
func TestUnrenderableOperator(t *testing.T) {
	node := ir.New(ir.BinaryOp, ir.Sym("//"), ir.Var("a"), ir.Var("b")).
		WithMeta(ir.MetaCategory, "arithmetic")
	_, err := New(nil).Lower(node)
	var unrenderable *ir.UnrenderableError
	if !errors.As(err, &unrenderable) {
		t.Fatalf("err = %v, want UnrenderableError", err)
	}
}

// Conditional is a Core tag, so expression position must render even
// though Go has no ternary: an invoked func literal.
func TestConditionalExpressionRenders(t *testing.T) {
	node := ir.New(ir.Assignment,
		ir.Var("x"),
		ir.New(ir.Conditional, ir.Var("cond"), ir.Int(1), ir.Int(2)))
	tree, err := New(nil).Lower(node)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	value := tree.Field("right").NamedChild(0)
	if value.Kind != "call_expression" || value.Field("function").Kind != "func_literal" {
		t.Errorf("conditional rendered as %s", value.Sexp())
	}
	after, err := liftgo.New().Lift(tree)
	if err != nil {
		t.Fatalf("re-lift: %v", err)
	}
	if err := ir.Check(after); err != nil {
		t.Errorf("re-lifted IIFE does not conform: %v", err)
	}
}

func TestCollectionOpLowersToLoop(t *testing.T) {
	node := ir.New(ir.CollectionOp, ir.Sym(ir.CollMap), ir.Var("xs"), ir.Var("f"))
	tree, err := New(nil).Lower(node)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	if tree.Kind != "call_expression" {
		t.Fatalf("rendered kind = %q", tree.Kind)
	}
	body := tree.Field("function").Field("body")
	var sawRange bool
	for _, c := range body.NamedChildren() {
		if c.Kind == "for_statement" {
			sawRange = true
		}
	}
	if !sawRange {
		t.Errorf("no range loop in rendering:\n%s", tree.Sexp())
	}
	after, err := liftgo.New().Lift(tree)
	if err != nil {
		t.Fatalf("re-lift: %v", err)
	}
	if err := ir.Check(after); err != nil {
		t.Errorf("desugared collection op does not conform: %v", err)
	}
}

func TestExceptionHandlingDesugars(t *testing.T) {
	tryNode := ir.New(ir.ExceptionHandling,
		ir.New(ir.Block, ir.New(ir.FunctionCall, ir.Var("g"))),
		ir.New(ir.List,
			ir.New(ir.MatchArm, ir.Var("Error"),
				ir.New(ir.Block, ir.New(ir.FunctionCall, ir.Var("h"))))),
		ir.New(ir.Block, ir.New(ir.FunctionCall, ir.Var("cleanup"))))

	engine := New(nil)
	tree, err := engine.Lower(tryNode)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}

	if tree.Kind != "call_expression" {
		t.Fatalf("kind = %s, want call_expression", tree.Kind)
	}
	fn := tree.Field("function")
	if fn == nil || fn.Kind != "func_literal" {
		t.Fatalf("function = %v, want func_literal", fn)
	}

	// finalizer defer first, recover guard second, then the body
	body := fn.Field("body")
	kids := body.NamedChildren()
	if len(kids) != 3 {
		t.Fatalf("body has %d statements, want 3", len(kids))
	}
	if kids[0].Kind != "defer_statement" || kids[1].Kind != "defer_statement" {
		t.Errorf("deferred finalizer/guard missing: %s, %s", kids[0].Kind, kids[1].Kind)
	}
	if kids[2].Kind != "call_expression" {
		t.Errorf("body statement = %s, want call_expression", kids[2].Kind)
	}

	after, err := liftgo.New().Lift(tree)
	if err != nil {
		t.Fatalf("re-lift: %v", err)
	}
	if err := ir.Check(after); err != nil {
		t.Errorf("degraded rendering does not re-lift conformantly: %v", err)
	}
}

func TestAsyncOperationRendersWrappedCall(t *testing.T) {
	await := ir.New(ir.AsyncOperation, ir.New(ir.FunctionCall, ir.Var("fetch")))

	engine := New(nil)
	tree, err := engine.Lower(await)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	if tree.Kind != "call_expression" {
		t.Errorf("kind = %s, want call_expression", tree.Kind)
	}
	if fn := tree.Field("function"); fn == nil || fn.Text != "fetch" {
		t.Errorf("function = %v, want fetch identifier", fn)
	}
}

func TestForeignOpaqueRouting(t *testing.T) {
	node := ir.Escape("python", "comprehension", native.Leaf("list_comprehension", "[x for x in xs]"))
	_, err := New(nil).Lower(node)
	var incompatible *ir.IncompatibleError
	if !errors.As(err, &incompatible) {
		t.Fatalf("err = %v, want IncompatibleError", err)
	}

	fallbacks := lower.NewFallbacks()
	fallbacks.Register("comprehension", "go", func(op *ir.Opaque) (*ir.Node, error) {
		return ir.New(ir.CollectionOp, ir.Sym(ir.CollMap), ir.Var("xs"), ir.Var("f")), nil
	})
	tree, err := New(fallbacks).Lower(node)
	if err != nil {
		t.Fatalf("lower with fallback: %v", err)
	}
	if tree.Kind != "call_expression" {
		t.Errorf("fallback rendering = %q", tree.Kind)
	}
}

func TestSameLanguageEscapeVerbatim(t *testing.T) {
	before := liftSource(t, "package p\n\nfunc f() {\n\tgo g()\n}\n")
	esc := before.Kids[0].Kids[1].Kids[0]
	if esc.Tag != ir.LanguageSpecific {
		t.Fatalf("go statement lifted to %s", esc.Tag)
	}
	tree, err := New(nil).Lower(esc)
	if err != nil {
		t.Fatal(err)
	}
	if tree != esc.Value.Opaque.Tree {
		t.Error("same-language escape did not unwrap the stored subtree")
	}
}
