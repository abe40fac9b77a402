package native

import (
	"strings"
	"testing"

	"github.com/smacker/go-tree-sitter/python"
)

func TestBuilders(t *testing.T) {
	n := New("binary_operator",
		Field("left", Leaf("identifier", "x")),
		Ch(Token("+")),
		Field("right", Leaf("integer", "5")),
	)

	if !n.Named {
		t.Error("New should produce a named node")
	}
	if got := n.Field("left"); got == nil || got.Text != "x" {
		t.Errorf("Field(left) = %v", got)
	}
	if got := n.Field("missing"); got != nil {
		t.Errorf("Field(missing) = %v, want nil", got)
	}
	if got := len(n.NamedChildren()); got != 2 {
		t.Errorf("NamedChildren = %d, want 2", got)
	}
	if got := n.NamedChild(1); got == nil || got.Kind != "integer" {
		t.Errorf("NamedChild(1) = %v", got)
	}
	if got := n.NamedChild(2); got != nil {
		t.Errorf("NamedChild(2) = %v, want nil", got)
	}
	if toks := n.Tokens(); len(toks) != 1 || toks[0].Text != "+" {
		t.Errorf("Tokens = %v", toks)
	}
	if !n.HasToken("+") || n.HasToken("-") {
		t.Error("HasToken misreported operator tokens")
	}
}

func TestFieldsRepeated(t *testing.T) {
	n := New("parameter_declaration",
		Field("name", Leaf("identifier", "a")),
		Field("name", Leaf("identifier", "b")),
		Field("type", Leaf("type_identifier", "int")),
	)

	names := n.Fields("name")
	if len(names) != 2 || names[0].Text != "a" || names[1].Text != "b" {
		t.Errorf("Fields(name) = %v", names)
	}
}

func TestSexpStable(t *testing.T) {
	n := New("binary_operator",
		Field("left", Leaf("identifier", "x")),
		Ch(Token("+")),
		Field("right", Leaf("integer", "5")),
	)

	want := strings.Join([]string{
		"(binary_operator",
		"  left:",
		`    (identifier "x") +`,
		"  right:",
		`    (integer "5"))`,
	}, "\n")
	if got := n.Sexp(); got != want {
		t.Errorf("Sexp mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
	if n.Sexp() != n.Sexp() {
		t.Error("Sexp is not deterministic")
	}
}

func TestSexpSkipsKeywordTokens(t *testing.T) {
	n := New("while_statement",
		Ch(Token("while")),
		Field("condition", Leaf("true", "true")),
		Field("body", New("block", Ch(Leaf("pass_statement", "pass")))),
	)

	s := n.Sexp()
	if strings.Contains(s, "while ") || strings.Contains(s, " while") {
		t.Errorf("keyword token leaked into sexp:\n%s", s)
	}
}

func TestParseCapturesTextAndPositions(t *testing.T) {
	p := NewParser("python", python.GetLanguage())

	tree, err := p.Parse([]byte("x = 1\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tree.Kind != "module" {
		t.Errorf("root kind = %s, want module", tree.Kind)
	}

	assign := tree.NamedChild(0).NamedChild(0)
	if assign.Kind != "assignment" {
		t.Fatalf("statement kind = %s", assign.Kind)
	}
	left := assign.Field("left")
	if left == nil || left.Text != "x" {
		t.Errorf("left = %v", left)
	}
	if left.Line != 1 || left.Col != 1 {
		t.Errorf("position = %d:%d, want 1:1", left.Line, left.Col)
	}
	// Full subtree text survives for escape capture
	if assign.Text != "x = 1" {
		t.Errorf("assignment text = %q", assign.Text)
	}
}

func TestParseSyntaxError(t *testing.T) {
	p := NewParser("python", python.GetLanguage())

	_, err := p.Parse([]byte("def f(:\n"))
	if err == nil {
		t.Fatal("expected syntax error")
	}
	serr, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if serr.Language != "python" || serr.Line == 0 {
		t.Errorf("unexpected error detail: %+v", serr)
	}
}
