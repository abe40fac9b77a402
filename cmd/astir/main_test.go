package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	rootCmd, err := newRootCmd()
	if err != nil {
		t.Fatalf("newRootCmd: %v", err)
	}
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLiftCommand(t *testing.T) {
	path := writeSource(t, "main.py", "x = 1\n")

	out, _, err := runCLI(t, "lift", path)
	if err != nil {
		t.Fatalf("lift: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if doc["tag"] != "container" {
		t.Errorf("tag = %v, want container", doc["tag"])
	}
}

func TestLiftUnknownExtension(t *testing.T) {
	path := writeSource(t, "notes.txt", "hello\n")

	_, _, err := runCLI(t, "lift", path)
	if err == nil {
		t.Fatal("expected error for unknown extension")
	}
	if !strings.Contains(err.Error(), "cannot detect language") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLowerCommand(t *testing.T) {
	src := writeSource(t, "main.py", "x = 1\n")

	irJSON, _, err := runCLI(t, "lift", src)
	if err != nil {
		t.Fatalf("lift: %v", err)
	}
	irPath := writeSource(t, "ir.json", irJSON)

	out, _, err := runCLI(t, "lower", "--lang", "python", irPath)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	if !strings.Contains(out, "(module") {
		t.Errorf("output is not a module sexp:\n%s", out)
	}
	if !strings.Contains(out, "assignment") {
		t.Errorf("missing assignment in sexp:\n%s", out)
	}
}

func TestLowerRequiresLang(t *testing.T) {
	irPath := writeSource(t, "ir.json", `{"tag":"null"}`)

	_, _, err := runCLI(t, "lower", irPath)
	if err == nil {
		t.Fatal("expected error without --lang")
	}
}

func TestRoundtripStable(t *testing.T) {
	path := writeSource(t, "calc.go", `package calc

func add(a int, b int) int {
	return a + b
}
`)

	out, _, err := runCLI(t, "roundtrip", path)
	if err != nil {
		t.Fatalf("roundtrip: %v", err)
	}
	if !strings.Contains(out, "roundtrip: stable") {
		t.Errorf("missing stability marker:\n%s", out)
	}
}

func TestLanguagesCommand(t *testing.T) {
	out, _, err := runCLI(t, "languages")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	if !strings.Contains(out, "python") || !strings.Contains(out, ".py") {
		t.Errorf("python missing from listing:\n%s", out)
	}
	if !strings.Contains(out, "go") || !strings.Contains(out, ".go") {
		t.Errorf("go missing from listing:\n%s", out)
	}
	if !strings.Contains(out, "lift+lower") {
		t.Errorf("lower support not reported:\n%s", out)
	}
}

func TestBatchCommand(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.py": "x = 1\n",
		"b.go": "package b\n\nvar x = 1\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	out, _, err := runCLI(t, "batch", "--root", root)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !strings.Contains(out, "scanned 2, lifted 2, failed 0") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestBatchWithSnapshotStore(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write a.py: %v", err)
	}
	dsn := filepath.Join(t.TempDir(), "astir.db")

	// First run persists, second hits the digest cache without error
	for range 2 {
		if _, _, err := runCLI(t, "batch", "--root", root, "--db", dsn); err != nil {
			t.Fatalf("batch: %v", err)
		}
	}
}

func TestBatchConfigFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write a.py: %v", err)
	}
	cfgPath := writeSource(t, "astir.yaml", "root: "+root+"\nexclude:\n  - \"**/vendor/**\"\n")

	out, _, err := runCLI(t, "batch", "--config", cfgPath)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !strings.Contains(out, "lifted 1") {
		t.Errorf("config root not honored:\n%s", out)
	}
}
