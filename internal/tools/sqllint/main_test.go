package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLintAcceptsMarkedQueries(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\nconst QOne = `--sql 11111111-1111-4111-8111-111111111111\nselect 1;\n`\n\nconst QTable = `--sql 22222222-2222-4222-8222-222222222222\ncreate table if not exists t (id int);\n`\n\nconst label = \"hello world\"\n")

	vs, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(vs) != 0 {
		t.Fatalf("unexpected violations: %v", vs)
	}
}

func TestLintFlagsMissingMarker(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\nconst QBad = `\ncreate table t (id int);\n`\n")

	vs, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(vs) != 1 || vs[0].name != "QBad" {
		t.Fatalf("violations = %v, want one for QBad", vs)
	}
}

func TestLintFlagsDuplicateMarkerAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	marker := "--sql 33333333-3333-4333-8333-333333333333"
	writeGo(t, dir, "a.go", "package q\n\nconst QA = `"+marker+"\nselect 1;\n`\n")
	writeGo(t, dir, "b.go", "package q\n\nconst QB = `"+marker+"\nselect 2;\n`\n")

	vs, err := lint([]string{dir})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(vs) != 1 || vs[0].name != "QB" || !strings.Contains(vs[0].message, "QA") {
		t.Fatalf("violations = %v, want duplicate on QB", vs)
	}
}

func TestLintRepositoryQueries(t *testing.T) {
	vs, err := lint([]string{filepath.Join("..", "..", "sqlinline")})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	for _, v := range vs {
		t.Errorf("%s", v)
	}
}
