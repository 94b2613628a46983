// Package storage persists uploaded files on the local filesystem.
// The contract is minimal: bytes written under a name stay retrievable by
// that name until Remove is called. Database bookkeeping lives elsewhere.
package storage

import (
	"io"
	"os"
	"path/filepath"
)

type FileStore struct {
	baseDir string
}

// NewFileStore creates the base directory if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Save streams src to disk under name and returns the full path and byte count.
func (s *FileStore) Save(name string, src io.Reader) (string, int64, error) {
	fullPath := filepath.Join(s.baseDir, name)
	dst, err := os.Create(fullPath)
	if err != nil {
		return "", 0, err
	}
	defer dst.Close()
	written, err := io.Copy(dst, src)
	if err != nil {
		return "", 0, err
	}
	return fullPath, written, nil
}

// Open returns a reader for a previously saved file.
func (s *FileStore) Open(path string) (*os.File, error) {
	return os.Open(path)
}

// Remove deletes a previously saved file.
func (s *FileStore) Remove(path string) error {
	return os.Remove(path)
}

// Exists reports whether a file is present at path.
func (s *FileStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
