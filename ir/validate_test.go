package ir

import (
	"errors"
	"strings"
	"testing"
)

func addExpr() *Node {
	return New(BinaryOp, Sym("+"), Var("x"), Int(5)).WithMeta(MetaCategory, "arithmetic")
}

func TestConformsCoreShapes(t *testing.T) {
	trees := map[string]*Node{
		"literal":     Int(5),
		"variable":    Var("x"),
		"list":        New(List, Int(1), Int(2), Int(3)),
		"empty list":  New(List),
		"map":         New(Map, New(Pair, Str("a"), Int(1))),
		"tuple":       New(Tuple, Int(1), Var("y")),
		"binary op":   addExpr(),
		"unary op":    New(UnaryOp, Sym("-"), Var("x")),
		"call":        New(FunctionCall, Var("f"), Int(1), Int(2)),
		"conditional": New(Conditional, Var("a"), Int(1), Null()),
		"block":       New(Block, addExpr(), New(EarlyReturn, Null())),
		"assignment":  New(Assignment, Var("x"), Int(1)),
		"match":       New(InlineMatch, New(Tuple, Var("a"), Var("b")), Var("pair")),
		"loop": New(Loop, Null(), Bool(true), New(Block)).
			WithMeta(MetaKind, LoopWhile),
		"lambda": New(Lambda,
			New(List, NewLeaf(Param, Scalar{Kind: Symbol, Str: "x"}).WithMeta(MetaKind, ParamName)),
			Var("x")),
		"collection op": New(CollectionOp, Sym(CollReduce), Var("xs"), Var("f"), Int(0)),
		"exceptions": New(ExceptionHandling,
			New(Block),
			New(List),
			Null()),
		"container": New(Container, New(Block)).WithMeta(MetaKind, "module"),
	}

	for name, tree := range trees {
		if err := Check(tree); err != nil {
			t.Errorf("%s: expected conformant tree, got %v", name, err)
		}
		if !Conforms(tree) {
			t.Errorf("%s: Conforms disagreed with Check", name)
		}
	}
}

func TestConformsRejectsMalformed(t *testing.T) {
	cases := map[string]*Node{
		"unknown tag":          New(Tag("mystery"), Int(1)),
		"binary op arity":      New(BinaryOp, Sym("+"), Var("x")),
		"binary op no op":      New(BinaryOp, Var("x"), Var("y"), Int(1)),
		"conditional arity":    New(Conditional, Var("a"), Int(1)),
		"pair arity":           New(Pair, Int(1)),
		"map non-pair child":   New(Map, Int(1)),
		"leaf with children":   {Tag: Literal, Value: &Scalar{Kind: Integer, Int: 1}, Kids: []*Node{Int(2)}},
		"composite w/ scalar":  {Tag: List, Value: &Scalar{Kind: Integer, Int: 1}},
		"missing scalar":       {Tag: Variable},
		"nil child":            New(List, nil),
		"variable non-symbol":  NewLeaf(Variable, Scalar{Kind: Integer, Int: 3}),
		"collection op marker": New(CollectionOp, Sym("fold"), Var("xs"), Var("f")),
		"call without callee":  New(FunctionCall),
		"opaque missing":       NewLeaf(LanguageSpecific, Scalar{Kind: OpaqueKind}),
		"param bad kind":       New(Param, Var("x")),
		"param default arity": func() *Node {
			p := New(Param, Var("x"))
			return p.WithMeta(MetaKind, ParamDefault)
		}(),
		"lambda params not list": New(Lambda, Var("x"), Var("x")),
	}

	for name, tree := range cases {
		if Conforms(tree) {
			t.Errorf("%s: expected rejection, tree conformed: %s", name, tree)
		}
		var malformed *MalformedError
		if err := Check(tree); !errors.As(err, &malformed) {
			t.Errorf("%s: Check returned %T, want *MalformedError", name, err)
		}
	}
}

func TestConformsIsTotal(t *testing.T) {
	// A predicate, never a panic, including on nil.
	if Conforms(nil) {
		t.Error("nil tree conformed")
	}
}

func TestConformsTotalOnNilChildren(t *testing.T) {
	// Tags with shape extras must reject nil payload positions, not
	// dereference them.
	cases := map[string]*Node{
		"map nil pair":          New(Map, nil),
		"binary op nil op":      New(BinaryOp, nil, Int(1), Int(2)),
		"unary op nil op":       New(UnaryOp, nil, Var("x")),
		"collection op nil op":  New(CollectionOp, nil, Var("xs"), Var("f")),
		"augmented nil op":      New(AugmentedAssignment, nil, Var("x"), Int(1)),
		"lambda nil params":     New(Lambda, nil, Int(1)),
		"function def nil head": New(FunctionDef, nil, New(Block)),
		"lambda nil param entry": New(Lambda, New(List, nil), Var("x")),
	}

	for name, tree := range cases {
		if Conforms(tree) {
			t.Errorf("%s: expected rejection, tree conformed", name)
		}
		var malformed *MalformedError
		if err := Check(tree); !errors.As(err, &malformed) {
			t.Errorf("%s: Check returned %T, want *MalformedError", name, err)
		}
	}
}

func TestCheckReportsPath(t *testing.T) {
	tree := New(Block, New(List, New(Pair, Int(1))))
	err := Check(tree)
	if err == nil {
		t.Fatal("expected malformed error")
	}
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %T", err)
	}
	if !strings.Contains(malformed.Path, "block") || !strings.Contains(malformed.Path, "list") {
		t.Errorf("path %q does not locate the bad pair", malformed.Path)
	}
}

func TestParamThreeCases(t *testing.T) {
	name := NewLeaf(Param, Scalar{Kind: Symbol, Str: "x"}).WithMeta(MetaKind, ParamName)
	pattern := New(Param, New(Tuple, Var("a"), Var("b"))).WithMeta(MetaKind, ParamPattern)
	dflt := New(Param, Var("x"), Int(1)).WithMeta(MetaKind, ParamDefault)

	for _, p := range []*Node{name, pattern, dflt} {
		wrapped := New(FunctionDef, New(List, p), New(Block)).WithMeta(MetaName, "f")
		if err := Check(wrapped); err != nil {
			t.Errorf("param case %q rejected: %v", p.MetaString(MetaKind), err)
		}
	}
}
