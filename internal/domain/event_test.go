package domain

import (
	"path/filepath"
	"testing"
)

func TestNameFor(t *testing.T) {
	root := t.TempDir()

	got, err := NameFor(root, filepath.Join(root, "sub", "f.txt"))
	if err != nil {
		t.Fatalf("NameFor() error = %v", err)
	}
	if got != "sub/f.txt" {
		t.Errorf("NameFor() = %q, want sub/f.txt", got)
	}

	if _, err := NameFor(root, filepath.Dir(root)); err == nil {
		t.Error("NameFor(outside root) error = nil, want error")
	}
	if _, err := NameFor(root, root); err == nil {
		t.Error("NameFor(root) error = nil, want error")
	}
}

func TestEventKind_String(t *testing.T) {
	if FileStable.String() != "file-stable" || DirCreated.String() != "dir-created" {
		t.Errorf("unexpected kind names: %s, %s", FileStable, DirCreated)
	}
	if EventKind(9).String() != "unknown" {
		t.Errorf("EventKind(9).String() = %s, want unknown", EventKind(9))
	}
}
