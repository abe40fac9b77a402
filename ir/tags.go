package ir

import "strconv"

// Tag is the closed set of node variants. Every valid tree uses tags from
// this table; anything else fails conformance.
type Tag string

// Core layer: constructs common to all supported languages, always
// canonicalized. Core metadata is never required for interpretation.
const (
	Literal      Tag = "literal"
	Variable     Tag = "variable"
	List         Tag = "list"
	Map          Tag = "map"
	Pair         Tag = "pair"
	Tuple        Tag = "tuple"
	BinaryOp     Tag = "binary_op"
	UnaryOp      Tag = "unary_op"
	FunctionCall Tag = "function_call"
	Conditional  Tag = "conditional"
	Block        Tag = "block"
	EarlyReturn  Tag = "early_return"
	// Assignment is the imperative target/value binding; InlineMatch is the
	// declarative pattern-unification binding. The semantics differ
	// (mutation vs. unification) and are never conflated.
	Assignment  Tag = "assignment"
	InlineMatch Tag = "inline_match"
)

// Extended layer: constructs common to most languages, canonicalized with
// optional metadata hints.
const (
	Loop              Tag = "loop"
	Lambda            Tag = "lambda"
	CollectionOp      Tag = "collection_op"
	PatternMatch      Tag = "pattern_match"
	MatchArm          Tag = "match_arm"
	ExceptionHandling Tag = "exception_handling"
	AsyncOperation    Tag = "async_operation"
)

// Structural layer: module/class/function organization.
const (
	Container           Tag = "container"
	FunctionDef         Tag = "function_def"
	Param               Tag = "param"
	AttributeAccess     Tag = "attribute_access"
	AugmentedAssignment Tag = "augmented_assignment"
	Property            Tag = "property"
)

// Native escape hatch: an opaque, language-tagged fragment.
const LanguageSpecific Tag = "language_specific"

// Layer classifies a tag's specificity.
type Layer int

const (
	LayerCore Layer = iota
	LayerExtended
	LayerStructural
	LayerNative
)

func (l Layer) String() string {
	switch l {
	case LayerCore:
		return "core"
	case LayerExtended:
		return "extended"
	case LayerStructural:
		return "structural"
	case LayerNative:
		return "native"
	}
	return "unknown"
}

// Param payload cases, carried in the node's "kind" metadata attribute:
// a bare name (scalar symbol payload), a destructuring pattern (one child),
// or a name with a default value (two children: variable, expression).
const (
	ParamName    = "name"
	ParamPattern = "pattern"
	ParamDefault = "default"
)

// Loop kinds, carried in metadata: while loops leave the binding child as
// the null literal; for-each loops bind each element.
const (
	LoopWhile   = "while"
	LoopForeach = "foreach"
)

// Collection operation discriminators, payload position zero.
const (
	CollMap    = "map"
	CollFilter = "filter"
	CollReduce = "reduce"
)

type payloadShape int

const (
	payloadScalar payloadShape = iota
	payloadKids
)

// tagSpec fixes, per tag, the layer and the payload rule: which scalar
// kinds a leaf accepts, or the child-count bounds for a composite, plus an
// optional structural check.
type tagSpec struct {
	layer    Layer
	shape    payloadShape
	freeform bool // payload shape depends on metadata; extra does all checking
	kinds    []ScalarKind
	min      int
	max      int // -1 means unbounded
	extra    func(n *Node) string
	fields   string // positional meaning of payload, documentation only
}

var valueKinds = []ScalarKind{Integer, FloatKind, StringKind, Boolean, NullKind, Symbol}

var tagSpecs = map[Tag]tagSpec{
	Literal:  {layer: LayerCore, shape: payloadScalar, kinds: valueKinds},
	Variable: {layer: LayerCore, shape: payloadScalar, kinds: []ScalarKind{Symbol}},

	List:  {layer: LayerCore, shape: payloadKids, min: 0, max: -1},
	Map:   {layer: LayerCore, shape: payloadKids, min: 0, max: -1, extra: allPairs},
	Pair:  {layer: LayerCore, shape: payloadKids, min: 2, max: 2, fields: "key, value"},
	Tuple: {layer: LayerCore, shape: payloadKids, min: 0, max: -1},

	BinaryOp: {
		layer: LayerCore, shape: payloadKids, min: 3, max: 3,
		extra: opFirst, fields: "operator, left, right",
	},
	UnaryOp: {
		layer: LayerCore, shape: payloadKids, min: 2, max: 2,
		extra: opFirst, fields: "operator, operand",
	},
	FunctionCall: {
		layer: LayerCore, shape: payloadKids, min: 1, max: -1,
		fields: "callee, args...",
	},
	Conditional: {
		layer: LayerCore, shape: payloadKids, min: 3, max: 3,
		fields: "condition, then, else-or-null",
	},
	Block:       {layer: LayerCore, shape: payloadKids, min: 0, max: -1},
	EarlyReturn: {layer: LayerCore, shape: payloadKids, min: 1, max: 1},
	Assignment:  {layer: LayerCore, shape: payloadKids, min: 2, max: 2, fields: "target, value"},
	InlineMatch: {layer: LayerCore, shape: payloadKids, min: 2, max: 2, fields: "pattern, value"},

	Loop: {
		layer: LayerExtended, shape: payloadKids, min: 3, max: 3,
		fields: "binding-or-null, condition-or-iterable, body",
	},
	Lambda: {
		layer: LayerExtended, shape: payloadKids, min: 2, max: 2,
		extra: paramListFirst, fields: "params, body",
	},
	CollectionOp: {
		layer: LayerExtended, shape: payloadKids, min: 3, max: 4,
		extra: collOpFirst, fields: "op, collection, function, [init]",
	},
	PatternMatch: {
		layer: LayerExtended, shape: payloadKids, min: 1, max: -1,
		fields: "subject, arms...",
	},
	MatchArm: {
		layer: LayerExtended, shape: payloadKids, min: 2, max: 3,
		fields: "pattern, [guard], result",
	},
	ExceptionHandling: {
		layer: LayerExtended, shape: payloadKids, min: 3, max: 3,
		fields: "body, handlers, finalizer-or-null",
	},
	AsyncOperation: {layer: LayerExtended, shape: payloadKids, min: 1, max: 1},

	Container:   {layer: LayerStructural, shape: payloadKids, min: 0, max: -1},
	FunctionDef: {
		layer: LayerStructural, shape: payloadKids, min: 2, max: 2,
		extra: paramListFirst, fields: "params, body",
	},
	Param:           {layer: LayerStructural, freeform: true, extra: paramShape},
	AttributeAccess: {layer: LayerStructural, shape: payloadKids, min: 2, max: 2, fields: "object, name"},
	AugmentedAssignment: {
		layer: LayerStructural, shape: payloadKids, min: 3, max: 3,
		extra: opFirst, fields: "operator, target, value",
	},
	Property: {layer: LayerStructural, shape: payloadKids, min: 1, max: 1},

	LanguageSpecific: {layer: LayerNative, shape: payloadScalar, kinds: []ScalarKind{OpaqueKind}, extra: opaqueTagged},
}

// Known reports whether the tag belongs to the taxonomy.
func Known(t Tag) bool {
	_, ok := tagSpecs[t]
	return ok
}

// TagLayer returns the layer of a known tag.
func TagLayer(t Tag) (Layer, bool) {
	spec, ok := tagSpecs[t]
	return spec.layer, ok
}

// Tags lists every known tag; order is unspecified.
func Tags() []Tag {
	out := make([]Tag, 0, len(tagSpecs))
	for t := range tagSpecs {
		out = append(out, t)
	}
	return out
}

func allPairs(n *Node) string {
	for i, k := range n.Kids {
		if k == nil || k.Tag != Pair {
			return "map child " + strconv.Itoa(i) + " is not a pair"
		}
	}
	return ""
}

func opFirst(n *Node) string {
	if len(n.Kids) == 0 {
		return ""
	}
	op := n.Kids[0]
	if op == nil || op.Tag != Literal || op.Value == nil || op.Value.Kind != Symbol {
		return "payload position 0 must be a symbol literal operator"
	}
	return ""
}

func collOpFirst(n *Node) string {
	if msg := opFirst(n); msg != "" {
		return msg
	}
	switch n.Kids[0].Value.Str {
	case CollMap, CollFilter, CollReduce:
		return ""
	}
	return "collection_op discriminator must be map, filter or reduce"
}

func paramListFirst(n *Node) string {
	if len(n.Kids) == 0 {
		return ""
	}
	params := n.Kids[0]
	if params == nil || params.Tag != List {
		return "payload position 0 must be a parameter list"
	}
	for i, p := range params.Kids {
		if p == nil || p.Tag != Param {
			return "parameter " + strconv.Itoa(i) + " is not a param node"
		}
	}
	return ""
}

// paramShape enforces the three param cases: bare name, destructuring
// pattern, default value.
func paramShape(n *Node) string {
	switch n.MetaString(MetaKind) {
	case ParamName:
		if n.Value == nil || n.Value.Kind != Symbol {
			return "name param requires a symbol payload"
		}
		if len(n.Kids) != 0 {
			return "name param carries no children"
		}
	case ParamPattern:
		if n.Value != nil || len(n.Kids) != 1 {
			return "pattern param requires exactly one child"
		}
	case ParamDefault:
		if n.Value != nil || len(n.Kids) != 2 {
			return "default param requires exactly two children"
		}
	default:
		return "param kind must be name, pattern or default"
	}
	return ""
}

func opaqueTagged(n *Node) string {
	if n.Value == nil || n.Value.Opaque == nil {
		return "language_specific requires an opaque payload"
	}
	if n.Value.Opaque.Language == "" {
		return "opaque payload must name its source language"
	}
	return ""
}

