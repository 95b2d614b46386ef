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

package linker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/apipb"

	"github.com/bufbuild/protofront/linker"
	"github.com/bufbuild/protofront/parser"
	"github.com/bufbuild/protofront/reporter"
)

func parseDraft(t *testing.T, name, src string) *descriptorpb.FileDescriptorProto {
	t.Helper()
	fd, err := parser.Parse(name, strings.NewReader(src), reporter.NewHandler(nil))
	require.NoError(t, err)
	return fd
}

func TestBuild(t *testing.T) {
	t.Parallel()
	draft := parseDraft(t, "a.proto", `
		syntax = "proto3";
		package pkg;
		message A {
			B b = 1;
			Kind kind = 2;
			map<string, B> bs = 3;
			enum Kind {
				KIND_UNSPECIFIED = 0;
			}
		}
		message B {}
	`)
	file, err := linker.Build(draft, nil)
	require.NoError(t, err)
	assert.Equal(t, "a.proto", file.Path())
	assert.Equal(t, protoreflect.FullName("pkg"), file.Package())

	d := file.FindDescriptorByName("pkg.A")
	require.NotNil(t, d)
	msg, ok := d.(protoreflect.MessageDescriptor)
	require.True(t, ok)

	b := msg.Fields().ByName("b")
	require.NotNil(t, b)
	assert.Equal(t, protoreflect.MessageKind, b.Kind())
	assert.Equal(t, protoreflect.FullName("pkg.B"), b.Message().FullName())

	kind := msg.Fields().ByName("kind")
	require.NotNil(t, kind)
	assert.Equal(t, protoreflect.EnumKind, kind.Kind())
	assert.Equal(t, protoreflect.FullName("pkg.A.Kind"), kind.Enum().FullName())

	bs := msg.Fields().ByName("bs")
	require.NotNil(t, bs)
	assert.True(t, bs.IsMap())
	assert.Equal(t, protoreflect.FullName("pkg.B"), bs.MapValue().Message().FullName())

	assert.Nil(t, file.FindDescriptorByName("pkg.C"))
	assert.Nil(t, file.FindImportByPath("b.proto"))
}

func TestBuildWithDependencies(t *testing.T) {
	t.Parallel()
	base, err := linker.Build(parseDraft(t, "base.proto", `
		syntax = "proto2";
		package base;
		message Base {
			optional string id = 1;
		}
	`), nil)
	require.NoError(t, err)

	mid, err := linker.Build(parseDraft(t, "mid.proto", `
		syntax = "proto2";
		package mid;
		import public "base.proto";
		message Mid {
			optional base.Base base = 1;
		}
	`), linker.Files{base})
	require.NoError(t, err)
	assert.Equal(t, base, mid.FindImportByPath("base.proto"))

	// base.proto is only reachable through the public import in mid.proto
	top, err := linker.Build(parseDraft(t, "top.proto", `
		syntax = "proto2";
		package top;
		import "mid.proto";
		message Top {
			optional mid.Mid mid = 1;
			optional base.Base base = 2;
		}
	`), linker.Files{mid})
	require.NoError(t, err)

	msg, ok := top.FindDescriptorByName("top.Top").(protoreflect.MessageDescriptor)
	require.True(t, ok)
	assert.Equal(t, protoreflect.FullName("base.Base"), msg.Fields().ByName("base").Message().FullName())
	assert.Equal(t, "base.proto", msg.Fields().ByName("base").Message().ParentFile().Path())
}

func TestBuildMissingDependency(t *testing.T) {
	t.Parallel()
	draft := parseDraft(t, "a.proto", `
		syntax = "proto3";
		import "b.proto";
	`)
	_, err := linker.Build(draft, nil)
	require.ErrorContains(t, err, `dependencies is missing import "b.proto"`)
}

func TestBuildInvalidDrafts(t *testing.T) {
	t.Parallel()
	testCases := map[string]string{
		"unresolved type": `
			syntax = "proto3";
			message A {
				Missing m = 1;
			}
		`,
		"duplicate name": `
			syntax = "proto3";
			message A {}
			message A {}
		`,
		"duplicate field number": `
			syntax = "proto3";
			message A {
				string a = 1;
				string b = 1;
			}
		`,
		"proto3 enum must start at zero": `
			syntax = "proto3";
			enum E {
				ONE = 1;
			}
		`,
	}
	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			file, err := linker.Build(parseDraft(t, "a.proto", src), nil)
			require.Error(t, err)
			assert.Nil(t, file)
		})
	}
}

func TestNewFileRecursive(t *testing.T) {
	t.Parallel()
	file, err := linker.NewFileRecursive(apipb.File_google_protobuf_api_proto)
	require.NoError(t, err)
	assert.Equal(t, "google/protobuf/api.proto", file.Path())
	dep := file.FindImportByPath("google/protobuf/source_context.proto")
	require.NotNil(t, dep)
	assert.NotNil(t, dep.FindDescriptorByName("google.protobuf.SourceContext"))

	// wrapping again is a no-op
	again, err := linker.NewFileRecursive(file)
	require.NoError(t, err)
	assert.Equal(t, file, again)

	// and the wrapper works as a dependency
	draft := parseDraft(t, "uses_api.proto", `
		syntax = "proto3";
		import "google/protobuf/api.proto";
		message M {
			google.protobuf.Api api = 1;
		}
	`)
	_, err = linker.Build(draft, linker.Files{file})
	require.NoError(t, err)
}

func TestNewFile(t *testing.T) {
	t.Parallel()
	_, err := linker.NewFile(apipb.File_google_protobuf_api_proto, nil)
	require.ErrorContains(t, err, "missing dependency")
}

func TestFilesFindFileByPath(t *testing.T) {
	t.Parallel()
	a, err := linker.Build(parseDraft(t, "a.proto", `syntax = "proto3";`), nil)
	require.NoError(t, err)
	b, err := linker.Build(parseDraft(t, "b.proto", `syntax = "proto3";`), nil)
	require.NoError(t, err)
	files := linker.Files{a, b}
	assert.Equal(t, b, files.FindFileByPath("b.proto"))
	assert.Nil(t, files.FindFileByPath("c.proto"))

	reg, err := files.AsResolver()
	require.NoError(t, err)
	assert.Equal(t, 2, reg.NumFiles())
}
