// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protofront

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// ErrInvalidPath is returned for import paths that try to escape the source
// tree with a ".." segment.
var ErrInvalidPath = errors.New("invalid import path")

// SourceTree maps virtual file paths, as they appear in import statements,
// to their contents. Implementations report a missing file with an error
// that wraps fs.ErrNotExist.
type SourceTree interface {
	Open(path string) (io.ReadCloser, error)
}

// SourceTreeFunc is a function that implements SourceTree.
type SourceTreeFunc func(path string) (io.ReadCloser, error)

var _ SourceTree = SourceTreeFunc(nil)

// Open implements SourceTree.
func (f SourceTreeFunc) Open(path string) (io.ReadCloser, error) {
	return f(path)
}

// MapSourceTree is an in-memory source tree, keyed by path.
type MapSourceTree map[string]string

var _ SourceTree = MapSourceTree(nil)

// Open implements SourceTree.
func (m MapSourceTree) Open(path string) (io.ReadCloser, error) {
	src, ok := m[path]
	if !ok {
		return nil, notFound(path)
	}
	return io.NopCloser(strings.NewReader(src)), nil
}

// CompositeSourceTree consults each tree in turn and returns the first file
// found. If no tree has the file, the first error is returned.
type CompositeSourceTree []SourceTree

var _ SourceTree = CompositeSourceTree(nil)

// Open implements SourceTree.
func (c CompositeSourceTree) Open(path string) (io.ReadCloser, error) {
	if len(c) == 0 {
		return nil, notFound(path)
	}
	var firstErr error
	for _, tree := range c {
		r, err := tree.Open(path)
		if err == nil {
			return r, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// DirSourceTree loads files relative to a list of import paths, the way
// protoc's -I flags do. The first import path that has the file wins.
type DirSourceTree struct {
	ImportPaths []string
	// Opens a file on disk. Defaults to os.Open.
	Accessor func(path string) (io.ReadCloser, error)
}

var _ SourceTree = (*DirSourceTree)(nil)

// Open implements SourceTree.
func (d *DirSourceTree) Open(path string) (io.ReadCloser, error) {
	accessor := d.Accessor
	if accessor == nil {
		accessor = func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		}
	}
	if len(d.ImportPaths) == 0 {
		return accessor(filepath.FromSlash(path))
	}

	var e error
	for _, importPath := range d.ImportPaths {
		r, err := accessor(filepath.Join(importPath, filepath.FromSlash(path)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				e = err
				continue
			}
			return nil, err
		}
		return r, nil
	}
	return nil, e
}

// FSSourceTree serves files from fsys.
func FSSourceTree(fsys fs.FS) SourceTree {
	return SourceTreeFunc(func(path string) (io.ReadCloser, error) {
		return fsys.Open(path)
	})
}

// AferoSourceTree serves files from an afero file system. This makes it easy
// to compile from memory-backed or overlay file systems.
func AferoSourceTree(afs afero.Fs) SourceTree {
	return SourceTreeFunc(func(path string) (io.ReadCloser, error) {
		return afs.Open(filepath.FromSlash(path))
	})
}

// Glob returns the paths of the files in fsys that match pattern, which uses
// doublestar syntax such as "**/*.proto". The results are suitable as roots
// for a Compiler that reads from the same file system.
func Glob(fsys fs.FS, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("bad glob pattern %q", pattern)
	}
	return doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
}

// checkPath rejects paths with a ".." segment. Both slash styles count as
// separators.
func checkPath(p string) error {
	for _, seg := range strings.Split(strings.ReplaceAll(p, "\\", "/"), "/") {
		if seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	return nil
}

func notFound(p string) error {
	return &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
}
