//go:build unix

package fs

import (
	"errors"
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// ReadSource maps the file at path read-only. Empty files yield empty data
// without a mapping.
func ReadSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if err := checkRegular(path, fi); err != nil {
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		return &Source{Data: []byte{}}, nil
	}
	if size > math.MaxInt {
		return nil, fmt.Errorf("%s: file too large to map (%d bytes)", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &Source{
		Data:    data,
		release: func() error { return unix.Munmap(data) },
	}, nil
}

// isFault reports a system call that hit an unmapped page of the source.
func isFault(err error) bool {
	return errors.Is(err, unix.EFAULT)
}
