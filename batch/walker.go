// Package batch discovers source files and lifts them in parallel.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/astir/catalog"
)

// Scope bounds a traversal: where to start, what to match, how far to go.
type Scope struct {
	Root     string
	Include  []string // doublestar globs; empty means every supported file
	Exclude  []string // doublestar globs checked before include
	Language string   // force a language instead of extension detection
	MaxDepth int      // 0 = unlimited
	MaxFiles int      // 0 = unlimited
}

// WalkResult is one discovered file.
type WalkResult struct {
	Path     string
	Info     fs.FileInfo
	Language string
	Error    error
}

// Walker performs parallel directory traversal with glob matching and
// language detection through the catalog.
type Walker struct {
	workers    int
	bufferSize int
}

// NewWalker creates a walker sized for I/O bound work.
func NewWalker() *Walker {
	return &Walker{
		workers:    runtime.NumCPU() * 2,
		bufferSize: 1000,
	}
}

// Walk streams discovered files. The channel closes when traversal
// finishes or ctx is cancelled.
func (w *Walker) Walk(ctx context.Context, scope Scope) (<-chan WalkResult, error) {
	if scope.Root == "" {
		return nil, fmt.Errorf("walk: empty root path")
	}
	info, err := os.Stat(scope.Root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", scope.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("walk %s: not a directory", scope.Root)
	}
	for _, pattern := range append(append([]string{}, scope.Include...), scope.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("walk: invalid pattern %q", pattern)
		}
	}

	results := make(chan WalkResult, w.bufferSize)
	paths := make(chan string, w.bufferSize)

	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go w.worker(ctx, paths, results, scope, &wg)
	}

	go func() {
		defer close(paths)
		found := 0
		w.scan(ctx, scope.Root, scope, paths, 0, &found)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results, nil
}

func (w *Walker) worker(
	ctx context.Context,
	paths <-chan string,
	results chan<- WalkResult,
	scope Scope,
	wg *sync.WaitGroup,
) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-paths:
			if !ok {
				return
			}
			result := w.stat(path, scope)
			select {
			case <-ctx.Done():
				return
			case results <- result:
			}
		}
	}
}

func (w *Walker) scan(
	ctx context.Context,
	dir string,
	scope Scope,
	paths chan<- string,
	depth int,
	found *int,
) {
	if scope.MaxFiles > 0 && *found >= scope.MaxFiles {
		return
	}
	if scope.MaxDepth > 0 && depth > scope.MaxDepth {
		return
	}
	select {
	case <-ctx.Done():
		return
	default:
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// unreadable directories are skipped, not fatal
		return
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		full := filepath.Join(dir, entry.Name())
		if w.excluded(full, scope.Exclude) {
			continue
		}
		if entry.IsDir() {
			w.scan(ctx, full, scope, paths, depth+1, found)
			continue
		}
		if !w.included(full, scope) {
			continue
		}
		if scope.MaxFiles > 0 && *found >= scope.MaxFiles {
			return
		}
		select {
		case <-ctx.Done():
			return
		case paths <- full:
			*found++
		}
	}
}

func (w *Walker) stat(path string, scope Scope) WalkResult {
	info, err := os.Stat(path)
	if err != nil {
		return WalkResult{Path: path, Error: err}
	}
	language := scope.Language
	if language == "" {
		language = detectLanguage(path)
	}
	return WalkResult{Path: path, Info: info, Language: language}
}

// included matches include globs; with none given, any file with a
// catalog-known extension qualifies.
func (w *Walker) included(path string, scope Scope) bool {
	if len(scope.Include) == 0 {
		return detectLanguage(path) != ""
	}
	for _, pattern := range scope.Include {
		if matched, err := doublestar.PathMatch(pattern, path); err == nil && matched {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) excluded(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.PathMatch(pattern, path); err == nil && matched {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}

func detectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if info, ok := catalog.LookupByExtension(ext); ok {
		return info.ID
	}
	return ""
}
