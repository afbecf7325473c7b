package domain

import (
	"fmt"
	"path/filepath"
)

// EventKind distinguishes watcher events.
type EventKind int

const (
	// FileStable means a regular file finished being written or was moved in.
	FileStable EventKind = iota
	// DirCreated means a new directory appeared under the watch root.
	DirCreated
)

func (k EventKind) String() string {
	switch k {
	case FileStable:
		return "file-stable"
	case DirCreated:
		return "dir-created"
	default:
		return "unknown"
	}
}

// FileEvent is one change reported by the directory watcher.
type FileEvent struct {
	Kind EventKind
	Path string
}

// Transfer is a file handed to the dispatcher.
type Transfer struct {
	// Path is the absolute path of the source file.
	Path string
	// Name is the slash-separated path relative to the watch root, as sent on the wire.
	Name string
}

// NameFor converts a path under root into the slash-separated name a
// transfer carries on the wire.
func NameFor(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if rel == "." || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%s is not under %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}
