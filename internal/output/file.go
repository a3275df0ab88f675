package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// pendingFile is a temporary file that replaces path on commit.
type pendingFile struct {
	*os.File
	path string
}

func createPending(path string) (*pendingFile, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &pendingFile{File: f, path: path}, nil
}

// commit closes the file and moves it into place.
func (p *pendingFile) commit() error {
	tmp := p.Name()
	if err := p.Sync(); err != nil {
		_ = p.File.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to sync output: %w", err)
	}
	if err := p.File.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil { //nolint:gosec // trace files are meant to be shared
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// discard closes and removes the file.
func (p *pendingFile) discard() error {
	closeErr := p.File.Close()
	removeErr := os.Remove(p.Name())
	if errors.Is(closeErr, os.ErrClosed) {
		closeErr = nil
	}
	return errors.Join(closeErr, removeErr)
}
