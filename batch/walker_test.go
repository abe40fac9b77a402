package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oxhq/astir/catalog"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func init() {
	catalog.Register(catalog.LanguageInfo{ID: "python", Extensions: []string{".py"}})
	catalog.Register(catalog.LanguageInfo{ID: "go", Extensions: []string{".go"}})
}

func collect(t *testing.T, results <-chan WalkResult) map[string]WalkResult {
	t.Helper()
	out := make(map[string]WalkResult)
	for r := range results {
		out[filepath.Base(r.Path)] = r
	}
	return out
}

func TestWalkDetectsLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1\n")
	writeFile(t, dir, "sub/b.go", "package b\n")
	writeFile(t, dir, "notes.txt", "ignored\n")

	results, err := NewWalker().Walk(context.Background(), Scope{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	got := collect(t, results)
	if len(got) != 2 {
		t.Fatalf("found %d files, want 2: %v", len(got), got)
	}
	if got["a.py"].Language != "python" {
		t.Errorf("a.py language = %q", got["a.py"].Language)
	}
	if got["b.go"].Language != "go" {
		t.Errorf("b.go language = %q", got["b.go"].Language)
	}
}

func TestWalkExcludeAndInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.py", "x = 1\n")
	writeFile(t, dir, "vendor/skip.py", "y = 2\n")

	results, err := NewWalker().Walk(context.Background(), Scope{
		Root:    dir,
		Include: []string{"**/*.py"},
		Exclude: []string{"**/vendor/**", "vendor"},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := collect(t, results)
	if _, ok := got["skip.py"]; ok {
		t.Error("excluded file surfaced")
	}
	if _, ok := got["keep.py"]; !ok {
		t.Errorf("included file missing: %v", got)
	}
}

func TestWalkMaxFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.py", "b.py", "c.py"} {
		writeFile(t, dir, name, "x = 1\n")
	}
	results, err := NewWalker().Walk(context.Background(), Scope{Root: dir, MaxFiles: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got := collect(t, results); len(got) > 2 {
		t.Errorf("found %d files, want at most 2", len(got))
	}
}

func TestWalkInvalidPattern(t *testing.T) {
	if _, err := NewWalker().Walk(context.Background(), Scope{
		Root:    t.TempDir(),
		Include: []string{"[unclosed"},
	}); err == nil {
		t.Error("invalid glob accepted")
	}
}

func TestWalkCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := NewWalker().Walk(ctx, Scope{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	// drained channel must close rather than hang
	for range results {
	}
}
