package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PendingFile is an in-flight transfer written to a private
// "<final>.<random>.part" file and published by a single rename, so readers
// never see a partial file under the final name. Concurrent transfers of the
// same name never share a partial file.
type PendingFile struct {
	final string
	tmp   string
	f     *os.File
}

// CreatePending creates the parent directories of final and a fresh partial
// file next to it.
func CreatePending(final string) (*PendingFile, error) {
	dir := filepath.Dir(final)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(final)+".*"+PartSuffix)
	if err != nil {
		return nil, fmt.Errorf("open partial file: %w", err)
	}
	// CreateTemp uses 0600; published files are world-readable.
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("chmod partial file: %w", err)
	}
	return &PendingFile{final: final, tmp: f.Name(), f: f}, nil
}

// Write appends to the partial file.
func (p *PendingFile) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

// Finish flushes the partial file to durable storage and closes it.
func (p *PendingFile) Finish() error {
	if err := p.f.Sync(); err != nil {
		return fmt.Errorf("sync partial file: %w", err)
	}
	err := p.f.Close()
	p.f = nil
	if err != nil {
		return fmt.Errorf("close partial file: %w", err)
	}
	return nil
}

// Commit renames the finished partial file over the final path. An existing
// file under that name is replaced.
func (p *PendingFile) Commit() error {
	if p.f != nil {
		return errors.New("commit before finish")
	}
	if err := os.Rename(p.tmp, p.final); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Discard closes and removes the partial file.
func (p *PendingFile) Discard() error {
	if p.f != nil {
		_ = p.f.Close()
		p.f = nil
	}
	if err := os.Remove(p.tmp); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the partial file's path.
func (p *PendingFile) Path() string {
	return p.tmp
}

// Final returns the path the file is published under.
func (p *PendingFile) Final() string {
	return p.final
}
