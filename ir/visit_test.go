package ir

import (
	"reflect"
	"testing"
)

func sampleTree() *Node {
	// f(x + 5, lambda y: y * z)
	return New(FunctionCall,
		Var("f"),
		New(BinaryOp, Sym("+"), Var("x"), Int(5)),
		New(Lambda,
			New(List, NewLeaf(Param, Scalar{Kind: Symbol, Str: "y"}).WithMeta(MetaKind, ParamName)),
			New(BinaryOp, Sym("*"), Var("y"), Var("z")),
		),
	)
}

func TestWalkPreOrder(t *testing.T) {
	var tags []Tag
	Walk(sampleTree(), func(n *Node) bool {
		tags = append(tags, n.Tag)
		return true
	})
	if tags[0] != FunctionCall {
		t.Errorf("walk did not start at the root, got %s", tags[0])
	}
	if len(tags) != Count(sampleTree()) {
		t.Errorf("walk visited %d nodes, count says %d", len(tags), Count(sampleTree()))
	}
}

func TestWalkPrunes(t *testing.T) {
	visited := 0
	Walk(sampleTree(), func(n *Node) bool {
		visited++
		return n.Tag != Lambda
	})
	if visited >= Count(sampleTree()) {
		t.Error("pruning lambda did not reduce the visit count")
	}
}

func TestFreeVariables(t *testing.T) {
	got := FreeVariables(sampleTree())
	// Includes y even though it is lambda-bound: bound parameter names are
	// still referenced names for analysis purposes.
	want := []string{"f", "x", "y", "z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("free variables = %v, want %v", got, want)
	}
}

func TestDepthAndCount(t *testing.T) {
	if d := Depth(Int(5)); d != 1 {
		t.Errorf("leaf depth = %d, want 1", d)
	}
	if d := Depth(nil); d != 0 {
		t.Errorf("nil depth = %d, want 0", d)
	}
	tree := sampleTree()
	if d := Depth(tree); d != 4 {
		t.Errorf("depth = %d, want 4: %s", d, tree)
	}
	if c := Count(tree); c != 13 {
		t.Errorf("count = %d, want 13: %s", c, tree)
	}
}

func TestRewriteDoesNotMutate(t *testing.T) {
	orig := sampleTree()
	before := orig.String()

	got := Rewrite(orig, nil, func(n *Node) *Node {
		if n.Tag == Literal && n.Value != nil && n.Value.Kind == Integer {
			return Int(n.Value.Int * 2)
		}
		return nil
	})

	if orig.String() != before {
		t.Fatal("rewrite mutated its input")
	}
	doubled := false
	Walk(got, func(n *Node) bool {
		if n.Tag == Literal && n.Value != nil && n.Value.Kind == Integer && n.Value.Int == 10 {
			doubled = true
		}
		return true
	})
	if !doubled {
		t.Errorf("rewrite result lacks the doubled literal: %s", got)
	}
}

func TestRewriteSharesUntouchedSubtrees(t *testing.T) {
	orig := sampleTree()
	got := Rewrite(orig, nil, nil)
	if got != orig {
		t.Error("identity rewrite should return the original tree")
	}
}

func TestCanonicalStripsMetadata(t *testing.T) {
	a := New(BinaryOp, Sym("+"), Var("x"), Int(5)).
		WithMeta(MetaCategory, "arithmetic").
		WithMeta(MetaLine, 3)
	b := New(BinaryOp, Sym("+"), Var("x"), Int(5)).WithMeta(MetaLine, 99)

	if !Equal(a, b) {
		t.Error("nodes differing only in metadata must compare equal")
	}
	canon := Canonical(a)
	if len(canon.Meta) != 0 {
		t.Errorf("canonical form kept metadata: %v", canon.Meta)
	}
	if len(a.Meta) == 0 {
		t.Error("Canonical mutated its input")
	}
}

func TestEqualDistinguishesPayloads(t *testing.T) {
	if Equal(Int(5), Int(6)) {
		t.Error("different literals compared equal")
	}
	if Equal(Var("x"), Var("y")) {
		t.Error("different variables compared equal")
	}
	if Equal(New(List, Int(1)), New(Tuple, Int(1))) {
		t.Error("list and tuple compared equal")
	}
	if Equal(New(Assignment, Var("x"), Int(1)), New(InlineMatch, Var("x"), Int(1))) {
		t.Error("assignment and inline_match must never be conflated")
	}
}
