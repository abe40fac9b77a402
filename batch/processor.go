package batch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/oxhq/astir/ir"
	"github.com/oxhq/astir/lift"
	"github.com/oxhq/astir/native"
)

// ParserFactory builds a fresh parser; tree-sitter parsers are not safe
// for concurrent use, so each worker gets its own.
type ParserFactory func() *native.Parser

// FileResult is the outcome of lifting one file.
type FileResult struct {
	Path      string
	Language  string
	Digest    string
	IR        *ir.Node
	NodeCount int
	Depth     int
	Elapsed   time.Duration
	Err       error
}

// Summary aggregates a batch run.
type Summary struct {
	Scanned    int
	Lifted     int
	Failed     int
	TotalNodes int
	Elapsed    time.Duration
}

// Processor fans discovered files out to lifting workers. Files are
// independent; one failure is recorded, not propagated.
type Processor struct {
	walker  *Walker
	lifters *lift.Registry
	parsers map[string]ParserFactory
	workers int
}

// NewProcessor creates a processor over the given engines.
func NewProcessor(lifters *lift.Registry, parsers map[string]ParserFactory) *Processor {
	return &Processor{
		walker:  NewWalker(),
		lifters: lifters,
		parsers: parsers,
		workers: 8,
	}
}

// Process walks the scope and lifts every matching file, returning
// per-file results sorted by path and a run summary.
func (p *Processor) Process(ctx context.Context, scope Scope) ([]FileResult, Summary, error) {
	start := time.Now()
	walked, err := p.walker.Walk(ctx, scope)
	if err != nil {
		return nil, Summary{}, err
	}

	var (
		mu      sync.Mutex
		results []FileResult
		wg      sync.WaitGroup
	)
	work := make(chan WalkResult)

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parsers := make(map[string]*native.Parser)
			for w := range work {
				result := p.liftFile(ctx, w, parsers)
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}()
	}

feed:
	for w := range walked {
		select {
		case <-ctx.Done():
			break feed
		case work <- w:
		}
	}
	close(work)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	summary := Summary{Scanned: len(results), Elapsed: time.Since(start)}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			continue
		}
		summary.Lifted++
		summary.TotalNodes += r.NodeCount
	}
	return results, summary, ctx.Err()
}

func (p *Processor) liftFile(ctx context.Context, w WalkResult, parsers map[string]*native.Parser) FileResult {
	start := time.Now()
	result := FileResult{Path: w.Path, Language: w.Language}
	defer func() { result.Elapsed = time.Since(start) }()

	if w.Error != nil {
		result.Err = w.Error
		return result
	}
	lifter, ok := p.lifters.Get(w.Language)
	if !ok {
		result.Err = fmt.Errorf("no lifter for language %q", w.Language)
		return result
	}

	source, err := os.ReadFile(w.Path)
	if err != nil {
		result.Err = err
		return result
	}
	result.Digest = fmt.Sprintf("%x", sha256.Sum256(source))

	parser := parsers[w.Language]
	if parser == nil {
		factory, ok := p.parsers[w.Language]
		if !ok {
			result.Err = fmt.Errorf("no parser for language %q", w.Language)
			return result
		}
		parser = factory()
		parsers[w.Language] = parser
	}

	tree, err := parser.ParseCtx(ctx, source)
	if err != nil {
		result.Err = fmt.Errorf("parse %s: %w", w.Path, err)
		return result
	}
	lifted, err := lifter.Lift(tree)
	if err != nil {
		result.Err = fmt.Errorf("lift %s: %w", w.Path, err)
		return result
	}

	result.IR = lifted
	result.NodeCount = ir.Count(lifted)
	result.Depth = ir.Depth(lifted)
	return result
}
