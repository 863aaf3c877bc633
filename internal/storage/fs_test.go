package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func writeFile(t *testing.T, s *FS, rel, content string) {
	t.Helper()
	abs := filepath.Join(s.Root(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRead(t *testing.T) {
	s := tempVault(t)
	writeFile(t, s, "note.md", "# Hello\nWorld\n")

	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "# Hello\nWorld\n" {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestRead_MissingWrapsNotExist(t *testing.T) {
	s := tempVault(t)
	_, err := s.Read("missing.md")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	writeFile(t, s, "a.md", "a")
	writeFile(t, s, "sub/b.md", "b")
	writeFile(t, s, "readme.txt", "not md")
	writeFile(t, s, ".trash/old.md", "hidden dir")
	writeFile(t, s, ".draft.md", "hidden file")

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	paths := map[string]string{}
	for _, it := range items {
		paths[it.Path] = it.Checksum
	}
	if _, ok := paths["sub/b.md"]; !ok {
		t.Errorf("expected slash-separated sub/b.md in %v", paths)
	}
	if paths["a.md"] != Checksum([]byte("a")) {
		t.Errorf("checksum mismatch for a.md")
	}
}

func TestListSubdir(t *testing.T) {
	s := tempVault(t)
	writeFile(t, s, "a.md", "a")
	writeFile(t, s, "go/b.md", "b")

	items, err := s.List("go")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Path != "go/b.md" {
		t.Errorf("items = %+v", items)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if _, err := s.List(p); err == nil {
			t.Errorf("expected error listing %q", p)
		}
	}
}

func TestIsNote(t *testing.T) {
	cases := map[string]bool{
		"a.md":        true,
		"dir/b.md":    true,
		".hidden.md":  false,
		"notes.txt":   false,
		"md":          false,
		"dir/.tmp.md": false,
	}
	for name, want := range cases {
		if got := IsNote(name); got != want {
			t.Errorf("IsNote(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "rehearse-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
