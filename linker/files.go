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

package linker

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// File is the result of linking a draft. It is a protoreflect.FileDescriptor
// that can also look up the elements it defines and the files it imports.
type File interface {
	protoreflect.FileDescriptor
	// FindDescriptorByName returns the element with the given fully-qualified
	// name if it is defined in this file, or nil otherwise.
	FindDescriptorByName(name protoreflect.FullName) protoreflect.Descriptor
	// FindImportByPath returns the direct dependency with the given path, or
	// nil if this file does not import it.
	FindImportByPath(path string) File
}

// NewFile wraps an already built descriptor. Every import of f must be
// present in deps.
func NewFile(f protoreflect.FileDescriptor, deps Files) (File, error) {
	for i := range f.Imports().Len() {
		imp := f.Imports().Get(i)
		if deps.FindFileByPath(imp.Path()) == nil {
			return nil, fmt.Errorf("cannot create File for %q: missing dependency for %q", f.Path(), imp.Path())
		}
	}
	return newFile(f, deps)
}

func newFile(f protoreflect.FileDescriptor, deps Files) (File, error) {
	var reg protoregistry.Files
	if err := reg.RegisterFile(f); err != nil {
		return nil, err
	}
	return file{
		FileDescriptor: f,
		res:            &reg,
		deps:           deps,
	}, nil
}

// NewFileRecursive wraps f and, recursively, everything it imports. This is
// how descriptors that were not produced by a Builder, such as the ones
// compiled into the Go protobuf runtime, become usable as dependencies.
func NewFileRecursive(f protoreflect.FileDescriptor) (File, error) {
	if file, ok := f.(File); ok {
		return file, nil
	}
	return newFileRecursive(f, map[string]File{})
}

func newFileRecursive(fd protoreflect.FileDescriptor, seen map[string]File) (File, error) {
	if res, ok := seen[fd.Path()]; ok {
		if res == nil {
			return nil, fmt.Errorf("import cycle encountered: file %s transitively imports itself", fd.Path())
		}
		return res, nil
	}
	if f, ok := fd.(File); ok {
		seen[fd.Path()] = f
		return f, nil
	}

	seen[fd.Path()] = nil
	deps := make(Files, fd.Imports().Len())
	for i := range fd.Imports().Len() {
		dep, err := newFileRecursive(fd.Imports().Get(i).FileDescriptor, seen)
		if err != nil {
			return nil, err
		}
		deps[i] = dep
	}
	f, err := newFile(fd, deps)
	if err != nil {
		return nil, err
	}
	seen[fd.Path()] = f
	return f, nil
}

type file struct {
	protoreflect.FileDescriptor
	res  *protoregistry.Files
	deps Files
}

func (f file) FindDescriptorByName(name protoreflect.FullName) protoreflect.Descriptor {
	d, err := f.res.FindDescriptorByName(name)
	if err != nil {
		return nil
	}
	return d
}

func (f file) FindImportByPath(path string) File {
	return f.deps.FindFileByPath(path)
}

var _ File = file{}

// Files is an ordered set of linked files.
type Files []File

// FindFileByPath returns the file with the given path, or nil if there is
// none.
func (f Files) FindFileByPath(path string) File {
	for _, file := range f {
		if file.Path() == path {
			return file
		}
	}
	return nil
}

// AsResolver returns a registry holding these files and everything they
// transitively import. Each path is registered once.
func (f Files) AsResolver() (*protoregistry.Files, error) {
	var reg protoregistry.Files
	var register func(fd protoreflect.FileDescriptor) error
	register = func(fd protoreflect.FileDescriptor) error {
		if _, err := reg.FindFileByPath(fd.Path()); err == nil {
			return nil
		}
		for i := range fd.Imports().Len() {
			if err := register(fd.Imports().Get(i).FileDescriptor); err != nil {
				return err
			}
		}
		return reg.RegisterFile(fd)
	}
	for _, file := range f {
		if err := register(file); err != nil {
			return nil, err
		}
	}
	return &reg, nil
}
