package lift

// Operator categories are assigned here, at abstraction time, never
// inferred downstream: a cross-language analyzer treats "plus" uniformly
// regardless of source syntax.
const (
	CategoryArithmetic = "arithmetic"
	CategoryComparison = "comparison"
	CategoryBoolean    = "boolean"
	CategoryBitwise    = "bitwise"
)

// Canonical operator spellings. Lifters translate their language's tokens
// into these (Go's && becomes and); lowerers translate back. Embedded
// literal values and names aside, two languages' renditions of the same
// expression then produce byte-identical Core IR.
const (
	OpAnd = "and"
	OpOr  = "or"
	OpNot = "not"
)

var operatorCategories = map[string]string{
	"+":  CategoryArithmetic,
	"-":  CategoryArithmetic,
	"*":  CategoryArithmetic,
	"/":  CategoryArithmetic,
	"%":  CategoryArithmetic,
	"**": CategoryArithmetic,
	"//": CategoryArithmetic,

	"==": CategoryComparison,
	"!=": CategoryComparison,
	"<":  CategoryComparison,
	"<=": CategoryComparison,
	">":  CategoryComparison,
	">=": CategoryComparison,
	"in": CategoryComparison,

	OpAnd: CategoryBoolean,
	OpOr:  CategoryBoolean,
	OpNot: CategoryBoolean,

	"&":  CategoryBitwise,
	"|":  CategoryBitwise,
	"^":  CategoryBitwise,
	"<<": CategoryBitwise,
	">>": CategoryBitwise,
	"~":  CategoryBitwise,
	"&^": CategoryBitwise,
}

// Category returns the category of a canonical operator.
func Category(op string) (string, bool) {
	cat, ok := operatorCategories[op]
	return cat, ok
}
