package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/oxhq/astir/native"
)

// Wire shape: {"tag": ..., "meta": [["name", value], ...], "payload": ...}
// where the payload is a scalar object for leaves and a node array for
// composites. Metadata stays an ordered pair list and survives a
// marshal/unmarshal round trip exactly; it is never silently dropped.

type wireNode struct {
	Tag     Tag               `json:"tag"`
	Meta    []json.RawMessage `json:"meta,omitempty"`
	Payload json.RawMessage   `json:"payload,omitempty"`
}

type wireScalar struct {
	Kind     ScalarKind      `json:"kind"`
	Value    json.RawMessage `json:"value,omitempty"`
	Language string          `json:"language,omitempty"`
	Hint     string          `json:"hint,omitempty"`
	Source   string          `json:"source,omitempty"`
	Tree     *native.Node    `json:"tree,omitempty"`
}

// MarshalJSON encodes the node in the canonical wire shape.
func (n *Node) MarshalJSON() ([]byte, error) {
	w := wireNode{Tag: n.Tag}

	for _, a := range n.Meta {
		entry, err := json.Marshal([]any{a.Name, a.Value})
		if err != nil {
			return nil, fmt.Errorf("marshal meta %q: %w", a.Name, err)
		}
		w.Meta = append(w.Meta, entry)
	}

	switch {
	case n.Value != nil:
		payload, err := marshalScalar(n.Value)
		if err != nil {
			return nil, err
		}
		w.Payload = payload
	default:
		kids := n.Kids
		if kids == nil {
			kids = []*Node{}
		}
		payload, err := json.Marshal(kids)
		if err != nil {
			return nil, err
		}
		w.Payload = payload
	}

	return json.Marshal(w)
}

func marshalScalar(s *Scalar) (json.RawMessage, error) {
	w := wireScalar{Kind: s.Kind}
	switch s.Kind {
	case Integer:
		w.Value = json.RawMessage(strconv.AppendInt(nil, s.Int, 10))
	case FloatKind:
		v, err := json.Marshal(s.Float)
		if err != nil {
			return nil, err
		}
		w.Value = v
	case StringKind, Symbol:
		v, err := json.Marshal(s.Str)
		if err != nil {
			return nil, err
		}
		w.Value = v
	case Boolean:
		if s.Bool {
			w.Value = json.RawMessage("true")
		} else {
			w.Value = json.RawMessage("false")
		}
	case NullKind:
		// kind alone carries the information
	case OpaqueKind:
		if s.Opaque == nil {
			return nil, fmt.Errorf("opaque scalar without payload")
		}
		w.Language = s.Opaque.Language
		w.Hint = s.Opaque.Hint
		w.Source = s.Opaque.Source
		w.Tree = s.Opaque.Tree
	default:
		return nil, fmt.Errorf("unknown scalar kind %q", s.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the canonical wire shape.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n.Tag = w.Tag
	n.Meta = nil
	n.Value = nil
	n.Kids = nil

	for _, raw := range w.Meta {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil {
			return fmt.Errorf("metadata entry is not a pair: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("metadata entry has %d elements, want 2", len(pair))
		}
		var name string
		if err := json.Unmarshal(pair[0], &name); err != nil {
			return fmt.Errorf("metadata name: %w", err)
		}
		value, err := decodeAttrValue(pair[1])
		if err != nil {
			return fmt.Errorf("metadata %q: %w", name, err)
		}
		n.Meta = append(n.Meta, Attr{Name: name, Value: value})
	}

	payload := bytes.TrimSpace(w.Payload)
	switch {
	case len(payload) == 0 || bytes.Equal(payload, []byte("null")):
		// leave both payload fields empty; the validator rejects it
	case payload[0] == '[':
		kids := []*Node{}
		if err := json.Unmarshal(payload, &kids); err != nil {
			return err
		}
		n.Kids = kids
	case payload[0] == '{':
		s, err := unmarshalScalar(payload)
		if err != nil {
			return err
		}
		n.Value = s
	default:
		return fmt.Errorf("payload for %s is neither scalar nor child list", n.Tag)
	}
	return nil
}

func unmarshalScalar(data []byte) (*Scalar, error) {
	var w wireScalar
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	s := &Scalar{Kind: w.Kind}
	switch w.Kind {
	case Integer:
		if err := json.Unmarshal(w.Value, &s.Int); err != nil {
			return nil, fmt.Errorf("integer scalar: %w", err)
		}
	case FloatKind:
		if err := json.Unmarshal(w.Value, &s.Float); err != nil {
			return nil, fmt.Errorf("float scalar: %w", err)
		}
	case StringKind, Symbol:
		if err := json.Unmarshal(w.Value, &s.Str); err != nil {
			return nil, fmt.Errorf("string scalar: %w", err)
		}
	case Boolean:
		if err := json.Unmarshal(w.Value, &s.Bool); err != nil {
			return nil, fmt.Errorf("boolean scalar: %w", err)
		}
	case NullKind:
	case OpaqueKind:
		s.Opaque = &Opaque{
			Language: w.Language,
			Hint:     w.Hint,
			Source:   w.Source,
			Tree:     w.Tree,
		}
	default:
		return nil, fmt.Errorf("unknown scalar kind %q", w.Kind)
	}
	return s, nil
}

// decodeAttrValue keeps integral metadata (line numbers) integral instead
// of collapsing every number to float64.
func decodeAttrValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
	}
	return v
}
