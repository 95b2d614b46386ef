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
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/btree"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protofront/internal"
	"github.com/bufbuild/protofront/linker"
	"github.com/bufbuild/protofront/parser"
	"github.com/bufbuild/protofront/reporter"
	"github.com/bufbuild/protofront/token"
)

// Importer turns file names into linked descriptors. It opens each file in
// its source tree, parses it, imports its dependencies depth first, and hands
// the result to a Builder.
//
// Every file is resolved at most once per Importer, whether it succeeds or
// fails. An Importer is not safe for concurrent use; concurrent compilations
// should use separate instances, as [Compiler] does.
type Importer struct {
	// Where files are loaded from. This field is the only required field.
	SourceTree SourceTree
	// Validates and links parsed drafts. Defaults to linker.Build.
	Builder linker.Builder
	// A custom error and warning reporter. If unspecified a default reporter
	// is used. A default reporter fails on the first error and ignores all
	// warnings.
	Reporter reporter.Reporter
	// If true, the files bundled with protoc, such as
	// "google/protobuf/timestamp.proto", are served from the descriptors
	// compiled into the Go protobuf runtime instead of the source tree.
	IncludeStandardImports bool
	// Receives a debug entry for every file that is resolved. Defaults to a
	// logger that discards everything.
	Logger logrus.FieldLogger

	handler *reporter.Handler
	log     logrus.FieldLogger
	cache   btree.Map[string, *imported]
	loading map[string]struct{}
	stack   []string
	halt    error
}

type imported struct {
	file linker.File
	err  error
}

func (im *Importer) init() {
	if im.handler != nil {
		return
	}
	im.handler = reporter.NewHandler(im.Reporter)
	im.log = im.Logger
	if im.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		im.log = l
	}
	im.loading = map[string]struct{}{}
}

// Import returns the linked descriptor for the named file. If the file, or
// any file it imports, cannot be resolved, the problems are sent to the
// reporter and a non-nil error is returned.
//
// Asking again for a file that already failed returns the same error without
// reporting anything new.
func (im *Importer) Import(name string) (linker.File, error) {
	im.init()
	res := im.load(name, token.Pos{Filename: name})
	im.halt = nil
	return res.file, res.err
}

// Files returns every file that was imported successfully so far, sorted by
// path.
func (im *Importer) Files() linker.Files {
	var files linker.Files
	im.cache.Scan(func(_ string, res *imported) bool {
		if res.file != nil {
			files = append(files, res.file)
		}
		return true
	})
	return files
}

// load resolves name, which was referenced at pos.
func (im *Importer) load(name string, pos token.Pos) *imported {
	log := im.log.WithField("file", name)
	if len(im.stack) > 0 {
		log = log.WithField("importer", im.stack[len(im.stack)-1])
	}
	if res, ok := im.cache.Get(name); ok {
		log.WithField("cached", true).Debug("import resolved")
		return res
	}
	if im.halt != nil {
		return &imported{err: im.halt}
	}
	if _, ok := im.loading[name]; ok {
		return im.cycle(name, pos)
	}

	start := time.Now()
	res := im.resolve(name, pos)
	im.cache.Set(name, res)
	log.WithFields(logrus.Fields{
		"cached":  false,
		"elapsed": time.Since(start),
		"ok":      res.err == nil,
	}).Debug("import resolved")
	return res
}

func (im *Importer) cycle(name string, pos token.Pos) *imported {
	idx := slices.Index(im.stack, name)
	chain := append(slices.Clone(im.stack[idx:]), name)
	cycleErr := &CycleError{Cycle: chain}
	res := &imported{err: im.report(pos, cycleErr)}
	if cycleErr.Indirect() {
		im.halt = res.err
	}
	return res
}

func (im *Importer) resolve(name string, pos token.Pos) *imported {
	if err := checkPath(name); err != nil {
		return &imported{err: im.report(pos, err)}
	}
	if im.IncludeStandardImports {
		if fd, ok := standardImports[name]; ok {
			file, err := linker.NewFileRecursive(fd)
			if err != nil {
				return &imported{err: im.report(pos, err)}
			}
			return &imported{file: file}
		}
	}

	var r io.ReadCloser
	err := fs.ErrNotExist
	if im.SourceTree != nil {
		r, err = im.SourceTree.Open(name)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &imported{err: im.report(pos, fmt.Errorf("file not found: %q: %w", name, err))}
		}
		return &imported{err: im.report(pos, fmt.Errorf("could not open %q: %w", name, err))}
	}

	im.loading[name] = struct{}{}
	im.stack = append(im.stack, name)
	defer func() {
		delete(im.loading, name)
		im.stack = im.stack[:len(im.stack)-1]
	}()

	draft, err := parser.Parse(name, r, im.handler)
	if err != nil {
		return &imported{err: err}
	}

	deps := make(linker.Files, 0, len(draft.GetDependency()))
	var depErr error
	for i, dep := range draft.GetDependency() {
		res := im.load(dep, importPos(draft, i))
		if res.err != nil {
			if depErr == nil {
				depErr = res.err
			}
			if im.halt != nil {
				break
			}
			continue
		}
		deps = append(deps, res.file)
	}
	if depErr != nil {
		return &imported{err: depErr}
	}

	builder := im.Builder
	if builder == nil {
		builder = linker.Build
	}
	file, err := builder(draft, deps)
	if err != nil {
		return &imported{err: im.report(token.Pos{Filename: name}, err)}
	}
	return &imported{file: file}
}

// report sends err to the reporter and returns the error the failed file
// should carry.
func (im *Importer) report(pos token.Pos, err error) error {
	ewp := reporter.Error(pos, err)
	if rerr := im.handler.HandleError(ewp); rerr != nil {
		return rerr
	}
	return ewp
}

// importPos returns the position of the i-th import statement of draft.
func importPos(draft *descriptorpb.FileDescriptorProto, i int) token.Pos {
	for _, loc := range draft.GetSourceCodeInfo().GetLocation() {
		path := loc.GetPath()
		if len(path) == 2 && path[0] == internal.FileDependencyTag && path[1] == int32(i) && len(loc.GetSpan()) >= 3 {
			return token.PosOf(draft.GetName(), int(loc.GetSpan()[0]), int(loc.GetSpan()[1]))
		}
	}
	return token.Pos{Filename: draft.GetName()}
}
