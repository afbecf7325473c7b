package fs

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
)

// ErrSourceChanged reports that a file was truncated while it was being read.
var ErrSourceChanged = errors.New("source file changed while being read")

// Source is the content of a file about to be sent.
type Source struct {
	Data    []byte
	release func() error
}

// Use calls fn with the file content. Touching a mapped page that no longer
// exists because the file shrank returns ErrSourceChanged instead of
// crashing the process, whether the fault happens in Go code or in a system
// call reading from Data.
func (s *Source) Use(fn func(data []byte) error) (err error) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(interface{ Addr() uintptr }); !ok {
			panic(r)
		}
		err = fmt.Errorf("%w: %v", ErrSourceChanged, r)
	}()

	err = fn(s.Data)
	if err != nil && isFault(err) {
		err = fmt.Errorf("%w: %w", ErrSourceChanged, err)
	}
	return err
}

// Close releases the mapping or buffer behind Data.
func (s *Source) Close() error {
	if s.release == nil {
		return nil
	}
	release := s.release
	s.release = nil
	s.Data = nil
	return release()
}

func checkRegular(path string, fi os.FileInfo) error {
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return nil
}
