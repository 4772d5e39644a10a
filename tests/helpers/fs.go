// Package helpers provides a scratch directory and a fake workflow API for tests.
package helpers

import (
	"os"
	"path/filepath"
	"testing"
)

// TestFS is a per-test directory holding the binary, config and history files.
type TestFS struct {
	t    *testing.T
	Root string
}

func NewTestFS(t *testing.T) *TestFS {
	t.Helper()
	return &TestFS{t: t, Root: t.TempDir()}
}

func (fs *TestFS) Path(parts ...string) string {
	return filepath.Join(append([]string{fs.Root}, parts...)...)
}

// Write creates rel under Root, with any missing directories, and returns its path.
func (fs *TestFS) Write(rel, content string) string {
	fs.t.Helper()
	path := fs.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		fs.t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		fs.t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
