package fs

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/bft-labs/fileship/internal/domain"
)

func TestSafeJoin(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"file.txt", filepath.Join(root, "file.txt"), false},
		{"a/b/c.bin", filepath.Join(root, "a", "b", "c.bin"), false},
		{"a/../b.txt", filepath.Join(root, "b.txt"), false},
		{"./x", filepath.Join(root, "x"), false},
		{"", "", true},
		{".", "", true},
		{"a/..", "", true},
		{"..", "", true},
		{"../escape.txt", "", true},
		{"a/../../escape.txt", "", true},
		{"/etc/passwd", "", true},
		{"nul\x00byte", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoin(root, tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SafeJoin(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, domain.ErrUnsafePath) {
					t.Errorf("error = %v, want ErrUnsafePath", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("SafeJoin(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
