package ir

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

func TestWireFormatGolden(t *testing.T) {
	tree := New(BinaryOp, Sym("+"), Var("x"), Int(5)).
		WithMeta(MetaCategory, "arithmetic")
	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatal(err)
	}
	g := goldie.New(t)
	g.Assert(t, "binary_op_wire", append(data, '\n'))
}
