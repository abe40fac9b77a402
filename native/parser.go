package native

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser wraps a tree-sitter parser for one language and converts its
// output into native trees. Parsing raw text is the only place the module
// touches a real toolchain; everything downstream works on Node values.
type Parser struct {
	language string
	parser   *sitter.Parser
}

// NewParser builds a parser for the given grammar.
func NewParser(language string, grammar *sitter.Language) *Parser {
	if grammar == nil {
		panic(fmt.Sprintf("nil tree-sitter grammar for %s", language))
	}
	p := sitter.NewParser()
	p.SetLanguage(grammar)
	return &Parser{language: language, parser: p}
}

// Language returns the parser's language identifier.
func (p *Parser) Language() string { return p.language }

// SyntaxError reports source that the grammar could not parse.
type SyntaxError struct {
	Language string
	Line     uint32
	Col      uint32
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error at line %d, column %d", e.Language, e.Line, e.Col)
}

// ParseCtx parses source into a native tree. Source with ERROR or missing
// nodes yields the first syntax error instead of a partial tree.
func (p *Parser) ParseCtx(ctx context.Context, source []byte) (*Node, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil || tree == nil {
		return nil, fmt.Errorf("%s: parse failed: %w", p.language, err)
	}
	defer tree.Close()

	if bad := firstError(tree.RootNode()); bad != nil {
		return nil, &SyntaxError{
			Language: p.language,
			Line:     bad.StartPoint().Row + 1,
			Col:      bad.StartPoint().Column + 1,
		}
	}
	return FromSitter(tree.RootNode(), source), nil
}

// Parse is ParseCtx with a background context.
func (p *Parser) Parse(source []byte) (*Node, error) {
	return p.ParseCtx(context.Background(), source)
}

func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if bad := firstError(node.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}
