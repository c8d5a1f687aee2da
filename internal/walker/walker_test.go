package walker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFile creates a file with the given content under dir, creating
// parent directories as needed.
func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestWalk_BasicTraversal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "meeting notes")
	writeFile(t, dir, "README.md", "# Readme")
	writeFile(t, dir, "reports/q3.txt", "q3 numbers")

	files, err := Walk(Config{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	expected := map[string]bool{
		"notes.txt":      false,
		"README.md":      false,
		"reports/q3.txt": false,
	}
	for _, f := range files {
		if _, ok := expected[f.RelPath]; ok {
			expected[f.RelPath] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("expected file %q not found in walk results", name)
		}
	}
}

func TestWalk_FileInfoFields(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "some content")

	files, err := Walk(Config{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}

	f := files[0]
	if f.Path == "" || !filepath.IsAbs(f.Path) {
		t.Errorf("FileInfo.Path should be absolute, got %q", f.Path)
	}
	if f.RelPath != "doc.txt" {
		t.Errorf("FileInfo.RelPath = %q, want doc.txt", f.RelPath)
	}
	if f.Size != int64(len("some content")) {
		t.Errorf("FileInfo.Size = %d, want %d", f.Size, len("some content"))
	}
}

func TestWalk_SkipsUnsupportedFormats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "text")
	writeFile(t, dir, "main.go", "package main")
	writeFile(t, dir, "data.csv", "a,b,c")

	files, err := Walk(Config{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	if len(files) != 1 || files[0].RelPath != "doc.txt" {
		t.Errorf("expected only doc.txt, got %v", relPaths(files))
	}
}

func TestWalk_IncludeFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "text")
	writeFile(t, dir, "README.md", "# md")

	files, err := Walk(Config{
		RootDir: dir,
		Include: []string{"*.md"},
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	for _, f := range files {
		if !strings.HasSuffix(f.RelPath, ".md") {
			t.Errorf("include filter *.md let through: %s", f.RelPath)
		}
	}
	if len(files) != 1 {
		t.Errorf("expected 1 file, got %v", relPaths(files))
	}
}

func TestWalk_ExcludeFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.txt", "text")
	writeFile(t, dir, "drafts/skip.txt", "draft")

	files, err := Walk(Config{
		RootDir: dir,
		Exclude: []string{"drafts/**"},
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	for _, f := range files {
		if strings.HasPrefix(f.RelPath, "drafts/") {
			t.Errorf("exclude filter did not exclude: %s", f.RelPath)
		}
	}
	if len(files) != 1 {
		t.Errorf("expected 1 file, got %v", relPaths(files))
	}
}

func TestWalk_DoubleStarInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.md", "# top")
	writeFile(t, dir, "a/b/nested.md", "# nested")
	writeFile(t, dir, "a/b/nested.txt", "text")

	files, err := Walk(Config{
		RootDir: dir,
		Include: []string{"**/*.md"},
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	foundNested := false
	for _, f := range files {
		if strings.Contains(f.RelPath, "/") {
			foundNested = true
		}
		if !strings.HasSuffix(f.RelPath, ".md") {
			t.Errorf("include filter **/*.md let through: %s", f.RelPath)
		}
	}
	if !foundNested {
		t.Error("expected **/*.md to match nested files")
	}
}

func TestWalk_SkipsLargeFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.txt", "small")
	writeFile(t, dir, "big.txt", strings.Repeat("A", 200))

	files, err := Walk(Config{
		RootDir:     dir,
		MaxFileSize: 100,
	})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	for _, f := range files {
		if f.RelPath == "big.txt" {
			t.Error("big.txt should have been skipped (exceeds MaxFileSize)")
		}
	}
	if len(files) != 1 {
		t.Errorf("expected 1 file, got %v", relPaths(files))
	}
}

func TestWalk_DefaultExcludeDirs(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"node_modules", ".git", "vendor", ".docquery"} {
		writeFile(t, dir, filepath.Join(d, "file.md"), "# hidden")
	}
	writeFile(t, dir, "visible.md", "# visible")

	files, err := Walk(Config{RootDir: dir})
	if err != nil {
		t.Fatalf("Walk() error: %v", err)
	}

	if len(files) != 1 || files[0].RelPath != "visible.md" {
		t.Errorf("expected only visible.md, got %v", relPaths(files))
	}
}

// --- Filter tests ---

func TestMatchesInclude_Empty(t *testing.T) {
	if !MatchesInclude("anything.txt", nil) {
		t.Error("empty include patterns should include everything")
	}
}

func TestMatchesInclude_Pattern(t *testing.T) {
	if !MatchesInclude("notes.txt", []string{"*.txt"}) {
		t.Error("*.txt should match notes.txt")
	}
	if MatchesInclude("notes.md", []string{"*.txt"}) {
		t.Error("*.txt should not match notes.md")
	}
}

func TestMatchesExclude_Empty(t *testing.T) {
	if MatchesExclude("anything.txt", nil) {
		t.Error("empty exclude patterns should exclude nothing")
	}
}

func TestMatchesExclude_Pattern(t *testing.T) {
	if !MatchesExclude("draft.md", []string{"*.md"}) {
		t.Error("*.md should match draft.md")
	}
	if MatchesExclude("notes.txt", []string{"*.md"}) {
		t.Error("*.md should not match notes.txt")
	}
}

func TestMatchesInclude_DoubleStarPattern(t *testing.T) {
	if !MatchesInclude("reports/2024/q3.md", []string{"**/*.md"}) {
		t.Error("**/*.md should match reports/2024/q3.md")
	}
}
