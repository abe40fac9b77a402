package ir

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/oxhq/astir/native"
)

func TestJSONRoundTrip(t *testing.T) {
	tree := New(Conditional,
		New(BinaryOp, Sym(">"), Var("x"), Int(0)).WithMeta(MetaCategory, "comparison"),
		Str("pos"),
		Null(),
	).WithMeta(MetaLine, 3).WithMeta(MetaOriginalForm, "multi_branch")

	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Node
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !Equal(tree, &back) {
		t.Errorf("round trip changed the tree:\n in: %s\nout: %s", tree, &back)
	}

	// Surviving attributes are reproduced exactly, order included.
	if len(back.Meta) != 2 || back.Meta[0].Name != MetaLine || back.Meta[1].Name != MetaOriginalForm {
		t.Errorf("metadata not preserved in order: %v", back.Meta)
	}
	if line, _ := back.Meta.Get(MetaLine); line != 3 {
		t.Errorf("line survived as %v (%T), want int 3", line, line)
	}

	again, err := json.Marshal(&back)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if string(data) != string(again) {
		t.Errorf("wire bytes unstable:\n first: %s\nsecond: %s", data, again)
	}
}

func TestJSONWireShape(t *testing.T) {
	data, err := json.Marshal(Int(5).WithMeta(MetaLine, 1))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"tag":"literal","meta":[["line",1]],"payload":{"kind":"integer","value":5}}`
	if string(data) != want {
		t.Errorf("wire shape drifted:\n got: %s\nwant: %s", data, want)
	}
}

func TestJSONEmptyComposite(t *testing.T) {
	data, err := json.Marshal(New(List))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"payload":[]`) {
		t.Errorf("empty list must keep an explicit empty payload: %s", data)
	}
	var back Node
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Value != nil || back.Kids == nil || len(back.Kids) != 0 {
		t.Errorf("empty list decoded as %s", &back)
	}
}

func TestJSONOpaquePayload(t *testing.T) {
	frag := &native.Node{Kind: "list_comprehension", Text: "[x for x in xs]", Named: true}
	tree := Escape("python", "comprehension", frag)

	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatal(err)
	}
	var back Node
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Value == nil || back.Value.Opaque == nil {
		t.Fatalf("opaque payload lost: %s", &back)
	}
	op := back.Value.Opaque
	if op.Language != "python" || op.Hint != "comprehension" || op.Source != "[x for x in xs]" {
		t.Errorf("opaque fields drifted: %+v", op)
	}
	if op.Tree == nil || op.Tree.Kind != "list_comprehension" {
		t.Errorf("captured native tree lost: %+v", op.Tree)
	}
	if !Equal(tree, &back) {
		t.Error("opaque round trip not equal")
	}
}

func TestJSONRejectsBadPayload(t *testing.T) {
	var n Node
	if err := json.Unmarshal([]byte(`{"tag":"literal","payload":42}`), &n); err == nil {
		t.Error("numeric payload accepted")
	}
	if err := json.Unmarshal([]byte(`{"tag":"list","meta":[["only_name"]],"payload":[]}`), &n); err == nil {
		t.Error("one-element metadata pair accepted")
	}
}
