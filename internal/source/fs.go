// Package source locates ENEX archives under the configured export
// directory.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FS enumerates .enex files under a root directory. The root may also point
// at a single .enex file, in which case List returns just that file.
type FS struct {
	root  string // absolute path
	isDir bool
}

// NewFS creates a source rooted at path. The path must exist.
func NewFS(path string) (*FS, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("source: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("source: stat root: %w", err)
	}
	if !info.IsDir() && !strings.EqualFold(filepath.Ext(abs), ".enex") {
		return nil, fmt.Errorf("source: not a directory or .enex file: %s", abs)
	}
	return &FS{root: abs, isDir: info.IsDir()}, nil
}

// Root returns the absolute source root.
func (f *FS) Root() string {
	return f.root
}

// List walks the root and returns every .enex file as an absolute path, in
// lexical order so notebooks are always processed in a stable order.
func (f *FS) List() ([]string, error) {
	if !f.isDir {
		return []string{f.root}, nil
	}

	var out []string
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".enex") {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source: list: %w", err)
	}
	sort.Strings(out)
	return out, nil
}
