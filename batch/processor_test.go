package batch

import (
	"context"
	"testing"

	"github.com/oxhq/astir/lift"
	"github.com/oxhq/astir/lift/golang"
	"github.com/oxhq/astir/lift/python"
	"github.com/oxhq/astir/native"
)

func newProcessor() *Processor {
	lifters := lift.NewRegistry()
	lifters.Register(python.New())
	lifters.Register(golang.New())
	return NewProcessor(lifters, map[string]ParserFactory{
		"python": func() *native.Parser { return python.Parser() },
		"go":     func() *native.Parser { return golang.Parser() },
	})
}

func TestProcessLiftsBothLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1 + 2\n")
	writeFile(t, dir, "b.go", "package b\n\nfunc f() int {\n\treturn 3\n}\n")

	results, summary, err := newProcessor().Process(context.Background(), Scope{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Scanned != 2 || summary.Lifted != 2 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("%s: %v", r.Path, r.Err)
			continue
		}
		if r.IR == nil || r.NodeCount == 0 || r.Depth == 0 {
			t.Errorf("%s: empty result %+v", r.Path, r)
		}
		if r.Digest == "" {
			t.Errorf("%s: missing digest", r.Path)
		}
	}
}

// One broken file must not sink the batch.
func TestProcessIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.py", "x = 1\n")
	writeFile(t, dir, "bad.py", "def f(:\n")

	results, summary, err := newProcessor().Process(context.Background(), Scope{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Lifted != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	for _, r := range results {
		if r.Path == dir+"/bad.py" && r.Err == nil {
			t.Error("syntax error swallowed")
		}
	}
}

func TestProcessResultsSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.py", "a.py", "b.py"} {
		writeFile(t, dir, name, "x = 1\n")
	}
	results, _, err := newProcessor().Process(context.Background(), Scope{Root: dir})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Path > results[i].Path {
			t.Fatalf("results out of order: %s before %s", results[i-1].Path, results[i].Path)
		}
	}
}
