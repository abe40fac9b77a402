// Package lower defines the reification contract: engines that render IR
// back into native trees for a concrete target language.
package lower

import (
	"fmt"
	"sort"
	"sync"

	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/native"
)

// Lowerer renders IR into a native tree for one target language. The
// produced tree uses the target grammar's node kinds, so it can be lifted
// again for round-trip checking.
type Lowerer interface {
	Language() string
	Lower(node *ir.Node) (*native.Node, error)
}

// Transform rewrites a foreign opaque payload into IR the target language
// can render. Returning an error propagates as the lowering failure.
type Transform func(op *ir.Opaque) (*ir.Node, error)

// FallbackKey selects a transform by the opaque hint and the reification
// target.
type FallbackKey struct {
	Hint   string
	Target string
}

// Fallbacks maps foreign language_specific constructs to target-language
// renderings. A lowerer consults it before reporting Incompatible.
type Fallbacks struct {
	mu         sync.RWMutex
	transforms map[FallbackKey]Transform
}

// NewFallbacks creates an empty fallback registry.
func NewFallbacks() *Fallbacks {
	return &Fallbacks{transforms: make(map[FallbackKey]Transform)}
}

// Register installs a transform for one hint/target pair, replacing any
// previous registration.
func (f *Fallbacks) Register(hint, target string, t Transform) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transforms[FallbackKey{Hint: hint, Target: target}] = t
}

// Lookup returns the transform for a hint/target pair.
func (f *Fallbacks) Lookup(hint, target string) (Transform, bool) {
	if f == nil {
		return nil, false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.transforms[FallbackKey{Hint: hint, Target: target}]
	return t, ok
}

// Registry holds the known lowerers keyed by target language.
type Registry struct {
	mu       sync.RWMutex
	lowerers map[string]Lowerer
}

// NewRegistry creates an empty lowerer registry.
func NewRegistry() *Registry {
	return &Registry{lowerers: make(map[string]Lowerer)}
}

// Register adds a lowerer; a duplicate target language is a setup bug.
func (r *Registry) Register(l Lowerer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lang := l.Language()
	if _, exists := r.lowerers[lang]; exists {
		return fmt.Errorf("lowerer for %q already registered", lang)
	}
	r.lowerers[lang] = l
	return nil
}

// Get returns the lowerer for a target language.
func (r *Registry) Get(language string) (Lowerer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lowerers[language]
	return l, ok
}

// Languages lists the registered target languages, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.lowerers))
	for lang := range r.lowerers {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
