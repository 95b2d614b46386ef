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
	"io/fs"
	"sort"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/bufbuild/protofront/reporter"
)

var compileFiles = MapSourceTree{
	"common.proto": `
		syntax = "proto3";
		package common;
		message Id {
			string value = 1;
		}
	`,
	"users.proto": `
		syntax = "proto3";
		package users;
		import "common.proto";
		message User {
			common.Id id = 1;
		}
	`,
	"orders.proto": `
		syntax = "proto3";
		package orders;
		import "common.proto";
		import "users.proto";
		message Order {
			common.Id id = 1;
			users.User buyer = 2;
		}
	`,
}

func TestCompile(t *testing.T) {
	t.Parallel()
	for _, par := range []int{0, 1, 3} {
		compiler := Compiler{
			SourceTree:     compileFiles,
			MaxParallelism: par,
		}
		files, err := compiler.Compile(context.Background(), "orders.proto", "users.proto", "common.proto")
		require.NoError(t, err)
		require.Len(t, files, 3)
		assert.Equal(t, "orders.proto", files[0].Path())
		assert.Equal(t, "users.proto", files[1].Path())
		assert.Equal(t, "common.proto", files[2].Path())

		order, ok := files[0].FindDescriptorByName("orders.Order").(protoreflect.MessageDescriptor)
		require.True(t, ok)
		assert.Equal(t, protoreflect.FullName("users.User"), order.Fields().ByName("buyer").Message().FullName())
	}
}

func TestCompileNoRoots(t *testing.T) {
	t.Parallel()
	files, err := (&Compiler{}).Compile(context.Background())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestCompileFailure(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var errs []string
	compiler := Compiler{
		SourceTree: CompositeSourceTree{
			compileFiles,
			MapSourceTree{
				"broken.proto": "syntax = \"proto3\";\nimport \"nowhere.proto\";\n",
			},
		},
		Reporter: reporter.NewReporter(func(err reporter.ErrorWithPos) error {
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, err.Error())
			return nil
		}, nil),
	}
	files, err := compiler.Compile(context.Background(), "users.proto", "broken.proto", "missing.proto")
	require.Error(t, err)
	assert.Nil(t, files)
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, `broken.proto:2:1: file not found: "nowhere.proto": open nowhere.proto: file does not exist`, err.Error())

	// every root was attempted
	sort.Strings(errs)
	assert.Equal(t, []string{
		`broken.proto:2:1: file not found: "nowhere.proto": open nowhere.proto: file does not exist`,
		`missing.proto: file not found: "missing.proto": open missing.proto: file does not exist`,
	}, errs)
}

func TestCompileCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	compiler := Compiler{SourceTree: compileFiles}
	_, err := compiler.Compile(ctx, "users.proto")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCompileStandardImportsFromAfero(t *testing.T) {
	t.Parallel()
	afs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(afs, "svc/api.proto", []byte(`
		syntax = "proto3";
		package svc;
		import "google/protobuf/empty.proto";
		service Pinger {
			rpc Ping(google.protobuf.Empty) returns (google.protobuf.Empty);
		}
	`), 0o644))
	compiler := Compiler{
		SourceTree:             AferoSourceTree(afs),
		IncludeStandardImports: true,
	}
	files, err := compiler.Compile(context.Background(), "svc/api.proto")
	require.NoError(t, err)
	svc, ok := files[0].FindDescriptorByName("svc.Pinger").(protoreflect.ServiceDescriptor)
	require.True(t, ok)
	method := svc.Methods().ByName("Ping")
	require.NotNil(t, method)
	assert.Equal(t, protoreflect.FullName("google.protobuf.Empty"), method.Input().FullName())
}

func TestStandardImports(t *testing.T) {
	t.Parallel()
	paths := StandardImports()
	assert.Len(t, paths, 12)
	assert.True(t, sort.StringsAreSorted(paths))
	assert.Contains(t, paths, "google/protobuf/descriptor.proto")
	assert.Contains(t, paths, "google/protobuf/compiler/plugin.proto")
}

func TestScanImports(t *testing.T) {
	t.Parallel()
	imports, err := ScanImports(compileFiles, "orders.proto")
	require.NoError(t, err)
	assert.Equal(t, []string{"common.proto", "users.proto"}, imports)

	_, err = ScanImports(compileFiles, "nope.proto")
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = ScanImports(compileFiles, "../orders.proto")
	require.ErrorIs(t, err, ErrInvalidPath)

	tree := MapSourceTree{"bad.proto": "import \"a.proto\";\nimport \"b"}
	imports, err = ScanImports(tree, "bad.proto")
	require.Error(t, err)
	assert.Equal(t, []string{"a.proto"}, imports)
	assert.ErrorContains(t, err, "unterminated string")
}
