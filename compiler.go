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
	"context"
	"io"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bufbuild/protofront/linker"
	"github.com/bufbuild/protofront/parser/fastscan"
	"github.com/bufbuild/protofront/reporter"
)

// Compiler compiles several root files at once.
//
// Each root is imported by its own [Importer], so roots are compiled
// concurrently without sharing any state. A file imported by more than one
// root is therefore parsed once per root. Calls into the reporter are
// serialized, so the reporter does not need to be thread-safe.
type Compiler struct {
	// Where files are loaded from. This field is the only required field.
	SourceTree SourceTree
	// Validates and links parsed drafts. Defaults to linker.Build.
	Builder linker.Builder
	// A custom error and warning reporter. If unspecified a default reporter
	// is used. A default reporter fails a root after encountering any errors
	// and ignores all warnings.
	Reporter reporter.Reporter
	// If true, the files bundled with protoc are served from the Go protobuf
	// runtime. See Importer.IncludeStandardImports.
	IncludeStandardImports bool
	// Receives debug entries while files are resolved. Entries carry a "root"
	// field naming the root being compiled.
	Logger logrus.FieldLogger
	// The maximum number of roots to compile at the same time. If unspecified
	// or set to a non-positive value, then min(runtime.NumCPU(),
	// runtime.GOMAXPROCS(-1)) will be used.
	MaxParallelism int
}

// Compile compiles the given roots into linked descriptors, returned in the
// same order as roots.
//
// Every root is attempted even if others fail. If any root fails, the error
// of the first failing root (in argument order) is returned along with a nil
// result. If ctx is cancelled, roots that have not started yet are skipped and
// the context's error is returned.
func (c *Compiler) Compile(ctx context.Context, roots ...string) (linker.Files, error) {
	if len(roots) == 0 {
		return nil, nil
	}

	par := c.MaxParallelism
	if par <= 0 {
		par = min(runtime.GOMAXPROCS(-1), runtime.NumCPU())
	}
	logger := c.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	rep := reporter.Synchronized(c.Reporter)

	var g errgroup.Group
	g.SetLimit(par)
	files := make(linker.Files, len(roots))
	errs := make([]error, len(roots))
	for i, root := range roots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			im := &Importer{
				SourceTree:             c.SourceTree,
				Builder:                c.Builder,
				Reporter:               rep,
				IncludeStandardImports: c.IncludeStandardImports,
				Logger:                 logger.WithField("root", root),
			}
			files[i], errs[i] = im.Import(root)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// ScanImports returns the import paths of the named file without parsing or
// linking it. It only needs the file to be lexically valid, which makes it
// suitable for quickly building a dependency graph of a source tree.
func ScanImports(tree SourceTree, name string) ([]string, error) {
	if err := checkPath(name); err != nil {
		return nil, err
	}
	r, err := tree.Open(name)
	if err != nil {
		return nil, err
	}
	res, err := fastscan.ScanForImports(r)
	return res.Imports, err
}
