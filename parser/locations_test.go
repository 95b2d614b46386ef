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

package parser

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protofront/internal"
	"github.com/bufbuild/protofront/walk"
)

type expectedLoc struct {
	path []int32
	span []int32
}

func checkLocations(t *testing.T, fd *descriptorpb.FileDescriptorProto, expected []expectedLoc) {
	t.Helper()
	locs := fd.GetSourceCodeInfo().GetLocation()
	require.Len(t, locs, len(expected))
	for i, exp := range expected {
		assert.Equal(t, exp.path, locs[i].Path, "location #%d", i)
		assert.Equal(t, exp.span, locs[i].Span, "location #%d path %v", i, exp.path)
	}
}

func findLocation(t *testing.T, fd *descriptorpb.FileDescriptorProto, path ...int32) *descriptorpb.SourceCodeInfo_Location {
	t.Helper()
	for _, loc := range fd.GetSourceCodeInfo().GetLocation() {
		if slices.Equal(loc.Path, path) {
			return loc
		}
	}
	require.Failf(t, "location not found", "path %v", path)
	return nil
}

func TestFieldLocations(t *testing.T) {
	t.Parallel()
	fd := mustParse(t, `message M { optional int32 f = 1; }`)
	checkLocations(t, fd, []expectedLoc{
		{path: []int32{}, span: []int32{0, 0, 35}},
		{path: []int32{4, 0}, span: []int32{0, 0, 35}},
		{path: []int32{4, 0, 1}, span: []int32{0, 8, 9}},
		{path: []int32{4, 0, 2, 0}, span: []int32{0, 12, 33}},
		{path: []int32{4, 0, 2, 0, 4}, span: []int32{0, 12, 20}},
		{path: []int32{4, 0, 2, 0, 5}, span: []int32{0, 21, 26}},
		{path: []int32{4, 0, 2, 0, 1}, span: []int32{0, 27, 28}},
		{path: []int32{4, 0, 2, 0, 3}, span: []int32{0, 31, 32}},
	})
}

func TestOptionLocations(t *testing.T) {
	t.Parallel()
	fd := mustParse(t, `option java_package = "x";`)
	checkLocations(t, fd, []expectedLoc{
		{path: []int32{}, span: []int32{0, 0, 26}},
		{path: []int32{8}, span: []int32{0, 0, 26}},
		{path: []int32{8, 999, 0}, span: []int32{0, 7, 25}},
		{path: []int32{8, 999, 0, 2, 0}, span: []int32{0, 7, 19}},
		{path: []int32{8, 999, 0, 7}, span: []int32{0, 22, 25}},
	})
}

func TestMapLocations(t *testing.T) {
	t.Parallel()
	fd := mustParse(t, `message M { map<string, int32> m = 1; }`)
	checkLocations(t, fd, []expectedLoc{
		{path: []int32{}, span: []int32{0, 0, 39}},
		{path: []int32{4, 0}, span: []int32{0, 0, 39}},
		{path: []int32{4, 0, 1}, span: []int32{0, 8, 9}},
		{path: []int32{4, 0, 2, 0}, span: []int32{0, 12, 37}},
		{path: []int32{4, 0, 3, 0}, span: []int32{0, 12, 37}},
		{path: []int32{4, 0, 2, 0, 6}, span: []int32{0, 12, 30}},
		{path: []int32{4, 0, 2, 0, 1}, span: []int32{0, 31, 32}},
		{path: []int32{4, 0, 2, 0, 3}, span: []int32{0, 35, 36}},
	})
}

func TestExtendLocations(t *testing.T) {
	t.Parallel()
	fd := mustParse(t, `extend Foo { optional int32 x = 1; }`)
	checkLocations(t, fd, []expectedLoc{
		{path: []int32{}, span: []int32{0, 0, 36}},
		{path: []int32{7}, span: []int32{0, 0, 36}},
		{path: []int32{7, 0}, span: []int32{0, 13, 34}},
		{path: []int32{7, 0, 2}, span: []int32{0, 7, 10}},
		{path: []int32{7, 0, 4}, span: []int32{0, 13, 21}},
		{path: []int32{7, 0, 5}, span: []int32{0, 22, 27}},
		{path: []int32{7, 0, 1}, span: []int32{0, 28, 29}},
		{path: []int32{7, 0, 3}, span: []int32{0, 32, 33}},
	})
}

func TestComments(t *testing.T) {
	t.Parallel()
	fd := mustParse(t, `syntax = "proto3";

// detached

// leading 1
// leading 2
message M { // after brace
  /*
   * Block
   * doc
   */
  string s = 1; // trailing
  // doc
  int32 n = 2;
}
`)
	msg := findLocation(t, fd, 4, 0)
	assert.Equal(t, "leading 1\nleading 2", msg.GetLeadingComments())
	assert.Equal(t, []string{"detached"}, msg.LeadingDetachedComments)
	assert.Equal(t, "after brace", msg.GetTrailingComments())
	assert.Equal(t, []int32{6, 0, 14, 1}, msg.Span)

	s := findLocation(t, fd, 4, 0, 2, 0)
	assert.Equal(t, "Block\ndoc", s.GetLeadingComments())
	assert.Equal(t, "trailing", s.GetTrailingComments())
	assert.Empty(t, s.LeadingDetachedComments)

	n := findLocation(t, fd, 4, 0, 2, 1)
	assert.Equal(t, "doc", n.GetLeadingComments())
	assert.Nil(t, n.TrailingComments)

	syntax := findLocation(t, fd, 12)
	assert.Nil(t, syntax.LeadingComments)
	assert.Nil(t, syntax.TrailingComments)
}

func TestDocComment(t *testing.T) {
	t.Parallel()
	fd := mustParse(t, `syntax = "proto3";
message M {
  // doc
  string s = 1;
}`)
	loc := findLocation(t, fd, 4, 0, 2, 0)
	assert.Equal(t, "doc", loc.GetLeadingComments())
	assert.Equal(t, []int32{3, 2, 15}, loc.Span)
}

func TestCommentsSeparatedByBlankLine(t *testing.T) {
	t.Parallel()
	fd := mustParse(t, `syntax = "proto3";
// not attached

message M {}`)
	loc := findLocation(t, fd, 4, 0)
	assert.Nil(t, loc.LeadingComments)
	assert.Equal(t, []string{"not attached"}, loc.LeadingDetachedComments)
}

func TestLocationsInTextualOrder(t *testing.T) {
	t.Parallel()
	fd := mustParse(t, `syntax = "proto3";
package foo.bar;
import public "other.proto";
option go_package = "example.com/foo";

message Outer {
  option deprecated = true;
  message Inner { repeated sint64 v = 1 [packed = false]; }
  reserved 10 to 20, 30;
  oneof choice {
    Inner inner = 2;
    string name = 3 [(custom).path = { a: 1 }];
  }
  enum Kind { KIND_UNSPECIFIED = 0; KIND_OTHER = -3 [deprecated = true]; }
}

service Svc {
  rpc Call(stream Outer) returns (stream .foo.bar.Outer) {
    option idempotency_level = IDEMPOTENT;
  }
}
`)
	locs := fd.GetSourceCodeInfo().GetLocation()
	require.NotEmpty(t, locs)
	for i := 1; i < len(locs); i++ {
		prev, cur := locs[i-1].Span, locs[i].Span
		ordered := cur[0] > prev[0] || (cur[0] == prev[0] && cur[1] >= prev[1])
		assert.True(t, ordered, "location %v at %v comes before %v at %v", locs[i].Path, cur, locs[i-1].Path, prev)
	}
	for _, loc := range locs {
		if len(loc.Span) == 4 {
			assert.Greater(t, loc.Span[2], loc.Span[0], "path %v", loc.Path)
		} else {
			require.Len(t, loc.Span, 3, "path %v", loc.Path)
			assert.GreaterOrEqual(t, loc.Span[2], loc.Span[1], "path %v", loc.Path)
		}
	}

	findLocation(t, fd, 10, 0)
	findLocation(t, fd, 4, 0, 9, 0, 1)
	findLocation(t, fd, 4, 0, 8, 0, 1)
	findLocation(t, fd, 4, 0, 4, 0, 2, 1, 3, 999, 0)
	findLocation(t, fd, 6, 0, 2, 0, 5)
	findLocation(t, fd, 6, 0, 2, 0, 6)
	findLocation(t, fd, 6, 0, 2, 0, 4, 999, 0, 3)
}

// isExtendee reports whether path is the extendee of an extension. Each
// extension points back at the type named by its extend block, so these are
// the only locations that are not in textual order.
func isExtendee(path []int32) bool {
	n := len(path)
	if n < 3 || path[n-1] != internal.FieldExtendeeTag {
		return false
	}
	if n == 3 {
		return path[0] == internal.FileExtensionsTag
	}
	return n >= 5 && path[n-3] == internal.MessageExtensionsTag &&
		(path[n-5] == internal.FileMessagesTag || path[n-5] == internal.MessageNestedMessagesTag)
}

func TestGroupAndExtensionLocationsInTextualOrder(t *testing.T) {
	t.Parallel()
	fd := mustParse(t, `syntax = "proto2";
message Foo {
  extensions 100 to 199;
  map<string, Foo> children = 1;
  oneof choice {
    group Pick = 2 { optional int32 a = 1; }
  }
  optional group Result = 3 {
    repeated group Item = 1 { optional string name = 1; }
  }
  extend Foo { optional int32 nested_ext = 100; }
}
extend Foo {
  optional string top_ext = 101;
  repeated group Ext = 102 { optional bool b = 1; }
}
`)
	locs := fd.GetSourceCodeInfo().GetLocation()
	require.NotEmpty(t, locs)
	var extendees int
	prev := locs[0]
	for _, loc := range locs[1:] {
		if isExtendee(loc.Path) {
			extendees++
			continue
		}
		ordered := loc.Span[0] > prev.Span[0] || (loc.Span[0] == prev.Span[0] && loc.Span[1] >= prev.Span[1])
		assert.True(t, ordered, "location %v at %v comes before %v at %v", loc.Path, loc.Span, prev.Path, prev.Span)
		prev = loc
	}
	assert.Equal(t, 3, extendees)

	index := func(path ...int32) int {
		for i, loc := range locs {
			if slices.Equal(loc.Path, path) {
				return i
			}
		}
		require.Failf(t, "location not found", "path %v", path)
		return -1
	}
	// a group's message and a map's entry directly follow their field
	assert.Equal(t, index(4, 0, 2, 0)+1, index(4, 0, 3, 0))
	assert.Equal(t, index(4, 0, 2, 1)+1, index(4, 0, 3, 1))
	assert.Equal(t, index(4, 0, 2, 2)+1, index(4, 0, 3, 2))
	assert.Equal(t, index(4, 0, 3, 2, 2, 0)+1, index(4, 0, 3, 2, 3, 0))
	assert.Equal(t, index(7, 1)+1, index(4, 1))
	assert.Equal(t, []int32{5, 4, 44}, findLocation(t, fd, 4, 0, 3, 1).Span)
}

func TestFailedStatementsLeaveNoLocations(t *testing.T) {
	t.Parallel()
	res := parseForTest(t, `message A { optional int32 x = ; optional int32 y = 2; }`)
	require.Len(t, res.errs, 1)
	for _, loc := range res.fd.GetSourceCodeInfo().GetLocation() {
		if len(loc.Path) >= 4 && loc.Path[2] == 2 {
			assert.Equal(t, int32(0), loc.Path[3], "path %v", loc.Path)
		}
	}
	require.Len(t, res.fd.MessageType[0].Field, 1)
	assert.Equal(t, "y", res.fd.MessageType[0].Field[0].GetName())
}

func TestEveryDeclarationHasLocation(t *testing.T) {
	t.Parallel()
	fd := mustParse(t, `
syntax = "proto2";
package test;
message Outer {
  optional string name = 1;
  oneof kind {
    int32 num = 2;
    group Choice = 3 { optional bool b = 1; }
  }
  map<string, Outer> children = 4;
  repeated group Item = 5 {
    optional int32 id = 1;
    enum Level { LOW = 0; HIGH = 1; }
  }
  message Inner { extend Outer { optional Inner back = 100; } }
  extensions 100 to max;
}
enum Color { RED = 0; GREEN = 1; }
extend Outer {
  optional Color color = 101;
  optional group Ext = 102 { optional string s = 1; }
}
service Svc {
  rpc Get(Outer) returns (Outer);
  rpc Watch(stream Outer) returns (stream Outer) { option deprecated = true; }
}
`)
	mapEntries := map[protoreflect.FullName]bool{}
	var count int
	err := walk.DescriptorProtosWithPath(fd, func(name protoreflect.FullName, path protoreflect.SourcePath, msg proto.Message) error {
		if mapEntries[name.Parent()] {
			// synthesized, so there is nothing in the source to point to
			return nil
		}
		if md, ok := msg.(*descriptorpb.DescriptorProto); ok && md.GetOptions().GetMapEntry() {
			mapEntries[name] = true
		}
		count++
		loc := findLocation(t, fd, path...)
		assert.NotEmpty(t, loc.Span, "%s", name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 27, count)
}
