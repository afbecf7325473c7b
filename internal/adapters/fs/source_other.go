//go:build !unix

package fs

import "os"

// ReadSource reads the whole file at path into memory.
func ReadSource(path string) (*Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := checkRegular(path, fi); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Source{Data: data}, nil
}

// isFault is always false: the content is a heap copy.
func isFault(error) bool { return false }
