// Package lift defines the abstraction engine contract: per-language
// engines turning native syntax trees into IR, plus the registry the CLI
// and batch processor resolve them through.
package lift

import (
	"path/filepath"

	"github.com/oxhq/astir/catalog"
	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/native"
)

// Lifter is a per-language abstraction engine. Lift is a structural
// recursion over the language's native tree; it either returns a tree that
// conforms to the taxonomy or an error (*ir.UnsupportedError,
// *ir.AmbiguousError) — never a partially translated tree.
type Lifter interface {
	Language() string
	Extensions() []string
	Lift(src *native.Node) (*ir.Node, error)
}

// Registry manages lifters by language.
type Registry struct {
	lifters map[string]Lifter
}

// NewRegistry creates an empty lifter registry.
func NewRegistry() *Registry {
	return &Registry{lifters: make(map[string]Lifter)}
}

// Register adds a lifter and publishes its extensions to the catalog.
func (r *Registry) Register(l Lifter) {
	r.lifters[l.Language()] = l
	catalog.Register(catalog.LanguageInfo{
		ID:         l.Language(),
		Extensions: l.Extensions(),
	})
}

// Get retrieves a lifter by language identifier.
func (r *Registry) Get(language string) (Lifter, bool) {
	l, ok := r.lifters[language]
	return l, ok
}

// ForFile resolves a lifter from a file path's extension.
func (r *Registry) ForFile(path string) (Lifter, bool) {
	info, ok := catalog.LookupByExtension(filepath.Ext(path))
	if !ok {
		return nil, false
	}
	return r.Get(info.ID)
}

// Languages lists registered language identifiers.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.lifters))
	for id := range r.lifters {
		out = append(out, id)
	}
	return out
}
