package ir

import "fmt"

// UnsupportedError reports a native construct with no lifting or lowering
// rule, not even an escape hatch. The whole call aborts; a partially
// translated tree is never produced.
type UnsupportedError struct {
	Language  string
	Construct string
	Snippet   string
	Line      uint32
}

func (e *UnsupportedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: unsupported construct %q at line %d", e.Language, e.Construct, e.Line)
	}
	return fmt.Sprintf("%s: unsupported construct %q", e.Language, e.Construct)
}

// AmbiguousError reports a native shape the disambiguation classifier could
// not resolve with confidence. Surfacing it beats guessing.
type AmbiguousError struct {
	Language  string
	Construct string
	Reason    string
	Snippet   string
	Line      uint32
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s: ambiguous %s at line %d: %s", e.Language, e.Construct, e.Line, e.Reason)
}

// IncompatibleError reports a language_specific node whose tagged language
// does not match the reification target and for which no fallback
// transform is registered.
type IncompatibleError struct {
	Hint   string
	Source string
	Target string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("cannot lower %s-specific %q construct to %s", e.Source, e.Hint, e.Target)
}

// MalformedError reports a tree that violates the taxonomy, with a path
// from the root to the offending node.
type MalformedError struct {
	Path   string
	Reason string
	Node   *Node
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed IR at %s: %s", e.Path, e.Reason)
}

// UnrenderableError reports an IR node a reification engine has no
// rendering for in its target language.
type UnrenderableError struct {
	Target string
	Node   *Node
	Reason string
}

func (e *UnrenderableError) Error() string {
	tag := "nil"
	if e.Node != nil {
		tag = string(e.Node.Tag)
	}
	return fmt.Sprintf("cannot render %s node to %s: %s", tag, e.Target, e.Reason)
}
