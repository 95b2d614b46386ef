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

package scc_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/bufbuild/protofront/linker"
	"github.com/bufbuild/protofront/parser"
	"github.com/bufbuild/protofront/reporter"
	"github.com/bufbuild/protofront/scc"
)

func build(t *testing.T, name, source string, deps ...linker.File) linker.File {
	t.Helper()
	draft, err := parser.Parse(name, strings.NewReader(source), reporter.NewHandler(nil))
	require.NoError(t, err)
	file, err := linker.Build(draft, deps)
	require.NoError(t, err)
	return file
}

func message(t *testing.T, file linker.File, name string) protoreflect.MessageDescriptor {
	t.Helper()
	md, ok := file.FindDescriptorByName(protoreflect.FullName(name)).(protoreflect.MessageDescriptor)
	require.True(t, ok, "%s is not a message", name)
	return md
}

func names(s *scc.SCC) []string {
	out := make([]string, len(s.Messages))
	for i, md := range s.Messages {
		out[i] = string(md.FullName())
	}
	return out
}

const mutualSource = `
syntax = "proto3";
package test;
message Z { Y y = 1; }
message Y { X x = 1; }
message X { Y y = 1; repeated X self = 2; }
message W { Z z = 1; map<string, Z> zs = 2; map<string, string> labels = 3; }
message Leaf { int32 n = 1; }
`

func TestMutualRecursion(t *testing.T) {
	t.Parallel()
	file := build(t, "test.proto", mutualSource)
	a := scc.NewAnalyzer(nil)

	xy := a.GetSCC(message(t, file, "test.X"))
	assert.Equal(t, []string{"test.X", "test.Y"}, names(xy))
	assert.Same(t, xy, a.GetSCC(message(t, file, "test.Y")))
	assert.Empty(t, xy.Children)
	assert.Equal(t, protoreflect.FullName("test.X"), xy.Representative().FullName())

	z := a.GetSCC(message(t, file, "test.Z"))
	assert.Equal(t, []string{"test.Z"}, names(z))
	require.Len(t, z.Children, 1)
	assert.Same(t, xy, z.Children[0])

	w := a.GetSCC(message(t, file, "test.W"))
	assert.Equal(t, []string{"test.W"}, names(w))
	require.Len(t, w.Children, 1)
	assert.Same(t, z, w.Children[0])

	leaf := a.GetSCC(message(t, file, "test.Leaf"))
	assert.Equal(t, []string{"test.Leaf"}, names(leaf))
	assert.Empty(t, leaf.Children)
}

func TestResultsDoNotDependOnQueryOrder(t *testing.T) {
	t.Parallel()
	file := build(t, "test.proto", mutualSource)
	first := scc.NewAnalyzer(nil)
	second := scc.NewAnalyzer(nil)

	firstZ := first.GetSCC(message(t, file, "test.Z"))
	secondY := second.GetSCC(message(t, file, "test.Y"))
	secondZ := second.GetSCC(message(t, file, "test.Z"))

	assert.Equal(t, names(firstZ), names(secondZ))
	assert.Equal(t, names(firstZ.Children[0]), names(secondY))
	assert.Same(t, secondY, secondZ.Children[0])
}

func TestMessageDeps(t *testing.T) {
	t.Parallel()
	file := build(t, "test.proto", mutualSource)
	var deps []string
	for _, md := range scc.MessageDeps(message(t, file, "test.W")) {
		deps = append(deps, string(md.FullName()))
	}
	// the map of Z values and the field of type Z count once; the map of
	// strings contributes nothing
	assert.Equal(t, []string{"test.Z"}, deps)

	deps = nil
	for _, md := range scc.MessageDeps(message(t, file, "test.X")) {
		deps = append(deps, string(md.FullName()))
	}
	assert.Equal(t, []string{"test.Y", "test.X"}, deps)
	assert.Empty(t, scc.MessageDeps(message(t, file, "test.Leaf")))
}

func TestGroups(t *testing.T) {
	t.Parallel()
	file := build(t, "test.proto", `
syntax = "proto2";
package test;
message Outer {
  optional group Inner = 1 {
    optional Outer back = 1;
  }
}
`)
	s := scc.NewAnalyzer(nil).GetSCC(message(t, file, "test.Outer"))
	assert.Equal(t, []string{"test.Outer", "test.Outer.Inner"}, names(s))
}

func TestCustomDeps(t *testing.T) {
	t.Parallel()
	file := build(t, "test.proto", `
syntax = "proto3";
package test;
message A {}
message B {}
message C {}
`)
	a, b, c := message(t, file, "test.A"), message(t, file, "test.B"), message(t, file, "test.C")
	edges := map[protoreflect.FullName][]protoreflect.MessageDescriptor{
		"test.A": {nil, a, b},
		"test.B": {c, c},
	}
	analyzer := scc.NewAnalyzer(func(md protoreflect.MessageDescriptor) []protoreflect.MessageDescriptor {
		return edges[md.FullName()]
	})

	sa := analyzer.GetSCC(a)
	assert.Equal(t, []string{"test.A"}, names(sa))
	require.Len(t, sa.Children, 1)
	sb := sa.Children[0]
	assert.Equal(t, []string{"test.B"}, names(sb))
	require.Len(t, sb.Children, 1)
	assert.Equal(t, []string{"test.C"}, names(sb.Children[0]))
	assert.Empty(t, sb.Children[0].Children)
	assert.Same(t, sb, analyzer.GetSCC(b))
}

func chainSource(n int, closed bool) string {
	var sb strings.Builder
	sb.WriteString("syntax = \"proto3\";\npackage chain;\n")
	for i := range n {
		next := i + 1
		if next == n {
			if !closed {
				fmt.Fprintf(&sb, "message M%04d {}\n", i)
				continue
			}
			next = 0
		}
		fmt.Fprintf(&sb, "message M%04d { M%04d next = 1; }\n", i, next)
	}
	return sb.String()
}

func TestDeepChain(t *testing.T) {
	t.Parallel()
	const n = 2000
	file := build(t, "chain.proto", chainSource(n, false))
	analyzer := scc.NewAnalyzer(nil)

	s := analyzer.GetSCC(message(t, file, "chain.M0000"))
	for i := range n {
		require.Equal(t, []string{fmt.Sprintf("chain.M%04d", i)}, names(s))
		if i == n-1 {
			require.Empty(t, s.Children)
			break
		}
		require.Len(t, s.Children, 1)
		s = s.Children[0]
	}

	components := analyzer.FileComponents(file)
	require.Len(t, components, n)
	assert.Equal(t, protoreflect.FullName("chain.M1999"), components[0].Representative().FullName())
	assert.Equal(t, protoreflect.FullName("chain.M0000"), components[n-1].Representative().FullName())
}

func TestDeepCycle(t *testing.T) {
	t.Parallel()
	const n = 2000
	file := build(t, "chain.proto", chainSource(n, true))
	analyzer := scc.NewAnalyzer(nil)

	s := analyzer.GetSCC(message(t, file, "chain.M1234"))
	require.Len(t, s.Messages, n)
	assert.Equal(t, protoreflect.FullName("chain.M0000"), s.Representative().FullName())
	assert.Equal(t, protoreflect.FullName("chain.M1999"), s.Messages[n-1].FullName())
	assert.Empty(t, s.Children)
	assert.Same(t, s, analyzer.GetSCC(message(t, file, "chain.M0000")))
}

func TestFileComponents(t *testing.T) {
	t.Parallel()
	file := build(t, "test.proto", mutualSource)
	var got [][]string
	for _, s := range scc.NewAnalyzer(nil).FileComponents(file) {
		got = append(got, names(s))
	}
	assert.Equal(t, [][]string{
		{"test.X", "test.Y"},
		{"test.Z"},
		{"test.W"},
		{"test.Leaf"},
	}, got)
}

func TestFileComponentsSkipsOtherFiles(t *testing.T) {
	t.Parallel()
	dep := build(t, "dep.proto", `
syntax = "proto3";
package dep;
message Shared { int32 n = 1; }
`)
	file := build(t, "main.proto", `
syntax = "proto3";
package main;
import "dep.proto";
message Uses {
  dep.Shared shared = 1;
  message Nested { Uses parent = 1; }
  Nested nested = 2;
}
`, dep)
	components := scc.NewAnalyzer(nil).FileComponents(file)
	require.Len(t, components, 1)
	assert.Equal(t, []string{"main.Uses", "main.Uses.Nested"}, names(components[0]))
	require.Len(t, components[0].Children, 1)
	assert.Equal(t, []string{"dep.Shared"}, names(components[0].Children[0]))
}
