package fs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bft-labs/fileship/internal/domain"
)

// PartSuffix marks in-flight files on the receiver.
const PartSuffix = ".part"

// SafeJoin resolves a slash-separated wire name under root. Names that are
// absolute, climb out with "..", contain NUL or resolve to root itself are
// rejected with domain.ErrUnsafePath.
func SafeJoin(root, name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsafePath, name)
	}
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) || filepath.Clean(rel) == "." {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsafePath, name)
	}
	return filepath.Join(root, rel), nil
}
