package python

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/oxhq/astir/ir"
	liftpy "github.com/oxhq/astir/lift/python"
	"github.com/oxhq/astir/lower"
	"github.com/oxhq/astir/native"
)

func liftSource(t *testing.T, source string) *ir.Node {
	t.Helper()
	tree, err := liftpy.Parser().Parse([]byte(source))
	if err != nil {
		t.Fatalf("parse %q: %v", source, err)
	}
	node, err := liftpy.New().Lift(tree)
	if err != nil {
		t.Fatalf("lift %q: %v", source, err)
	}
	return node
}

// Lowered trees are re-lifted and compared canonically: the IR must
// survive a full abstraction/reification cycle.
func TestRoundTrip(t *testing.T) {
	sources := []string{
		"x + 5",
		"[1, 2.5, \"a\", True, None]",
		"{\"k\": 1}",
		"x = f(a, b)",
		"x += 1",
		"not a",
		"a not in xs",
		"x = 1 if cond else 2",
		"while x < 10:\n    x += 1\n",
		"for i in xs:\n    print(i)\n",
		"if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n",
		"def f(x, y=1):\n    return x * y\n",
		"lambda a: a + 1",
		"map(f, xs)",
		"filter(pred, xs)",
		"functools.reduce(f, xs, 0)",
		"try:\n    f()\nexcept ValueError as e:\n    h()\nfinally:\n    g()\n",
		"return_value = obj.attr.method(1)",
	}
	engine := New(nil)
	for _, source := range sources {
		before := liftSource(t, source)
		tree, err := engine.Lower(before)
		if err != nil {
			t.Errorf("%q: lower: %v", source, err)
			continue
		}
		after, err := liftpy.New().Lift(tree)
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

// A same-language escape unwraps to the exact captured subtree.
func TestEscapeRoundTripLossless(t *testing.T) {
	before := liftSource(t, "[x * 2 for x in range(10)]")
	esc := before.Kids[0]
	if esc.Tag != ir.LanguageSpecific {
		t.Fatalf("comprehension lifted to %s", esc.Tag)
	}
	tree, err := New(nil).Lower(before)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	after, err := liftpy.New().Lift(tree)
	if err != nil {
		t.Fatalf("re-lift: %v", err)
	}
	got := after.Kids[0]
	if got.Tag != ir.LanguageSpecific {
		t.Fatalf("escape did not survive: %s", got.Tag)
	}
	if got.Value.Opaque.Source != esc.Value.Opaque.Source {
		t.Errorf("source drifted: %q vs %q", got.Value.Opaque.Source, esc.Value.Opaque.Source)
	}
}

func TestMultiBranchReconstitution(t *testing.T) {
	before := liftSource(t, "if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n")
	tree, err := New(nil).Lower(before)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	stmt := tree.NamedChild(0)
	if stmt.Kind != "if_statement" {
		t.Fatalf("statement kind = %q", stmt.Kind)
	}
	alts := stmt.Fields("alternative")
	if len(alts) != 2 {
		t.Fatalf("alternatives = %d, want elif plus else", len(alts))
	}
	if alts[0].Kind != "elif_clause" || alts[1].Kind != "else_clause" {
		t.Errorf("alternative kinds = %q, %q", alts[0].Kind, alts[1].Kind)
	}
}

func TestForeignOpaqueWithoutFallback(t *testing.T) {
	node := ir.Escape("go", "goroutine", native.Leaf("go_statement", "go f()"))
	_, err := New(nil).Lower(node)
	var incompatible *ir.IncompatibleError
	if !errors.As(err, &incompatible) {
		t.Fatalf("err = %v, want IncompatibleError", err)
	}
	if incompatible.Source != "go" || incompatible.Target != "python" {
		t.Errorf("languages = %s -> %s", incompatible.Source, incompatible.Target)
	}
}

func TestFallbackTransform(t *testing.T) {
	fallbacks := lower.NewFallbacks()
	fallbacks.Register("goroutine", "python", func(op *ir.Opaque) (*ir.Node, error) {
		return ir.New(ir.FunctionCall, ir.Var("spawn"), ir.Str(op.Source)), nil
	})
	node := ir.Escape("go", "goroutine", native.Leaf("go_statement", "go f()"))
	tree, err := New(fallbacks).Lower(node)
	if err != nil {
		t.Fatalf("lower with fallback: %v", err)
	}
	if tree.Kind != "expression_statement" {
		t.Fatalf("rendered kind = %q", tree.Kind)
	}
	call := tree.NamedChild(0)
	if call.Kind != "call" || call.Field("function").Text != "spawn" {
		t.Errorf("fallback rendering = %s", call.Sexp())
	}
}

func TestMalformedInputRejected(t *testing.T) {
	_, err := New(nil).Lower(ir.New(ir.BinaryOp))
	var malformed *ir.MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedError", err)
	}
}

func TestLowerSexpGolden(t *testing.T) {
	tree, err := New(nil).Lower(
		ir.New(ir.BinaryOp, ir.Sym("+"), ir.Var("x"), ir.Int(5)).
			WithMeta(ir.MetaCategory, "arithmetic"))
	if err != nil {
		t.Fatal(err)
	}
	g := goldie.New(t)
	g.Assert(t, "binary_op", []byte(tree.Sexp()+"\n"))
}
