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

package fastscan

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanForImports(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		source   string
		expected ScanResult
	}{
		{
			name:   "empty",
			source: "",
		},
		{
			name: "simple",
			source: `
syntax = "proto3";
package foo.bar;
import "a.proto";
import public "b.proto";
import weak "c.proto";
message M {}
`,
			expected: ScanResult{
				PackageName: "foo.bar",
				Imports:     []string{"a.proto", "b.proto", "c.proto"},
			},
		},
		{
			name: "adjacent string literals",
			source: `
import "google/protobuf/" 'any.proto';
`,
			expected: ScanResult{Imports: []string{"google/protobuf/any.proto"}},
		},
		{
			name: "keywords inside blocks are ignored",
			source: `
package pkg;
message M {
  import "no.proto";
  optional string package = 1 [default = "x"];
}
option (import) = { package: "nope" };
import "yes.proto";
`,
			expected: ScanResult{
				PackageName: "pkg",
				Imports:     []string{"yes.proto"},
			},
		},
		{
			name: "keywords mid statement are ignored",
			source: `
option import = "no.proto";
import "yes.proto";
`,
			expected: ScanResult{Imports: []string{"yes.proto"}},
		},
		{
			name: "comments",
			source: `
// import "no.proto";
/* import "also-no.proto"; */
import /* here */ "yes.proto"; // trailing
`,
			expected: ScanResult{Imports: []string{"yes.proto"}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := ScanForImports(strings.NewReader(tc.source))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res)
		})
	}
}

func TestScanForImportsLexicalError(t *testing.T) {
	t.Parallel()
	res, err := ScanForImports(strings.NewReader(`
package pkg;
import "a.proto";
import "unterminated
`))
	require.EqualError(t, err, "4:8: unterminated string")
	assert.Equal(t, "pkg", res.PackageName)
	assert.Equal(t, []string{"a.proto"}, res.Imports)
}

func TestScanForImportsIOError(t *testing.T) {
	t.Parallel()
	in := io.MultiReader(strings.NewReader(`import "a.proto"; `), iotest.ErrReader(io.ErrUnexpectedEOF))
	res, err := ScanForImports(in)
	require.ErrorContains(t, err, "I/O error")
	assert.Equal(t, []string{"a.proto"}, res.Imports)
}

type closer struct {
	io.Reader
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func TestScanForImportsClosesReader(t *testing.T) {
	t.Parallel()
	in := &closer{Reader: strings.NewReader(`import "a.proto";`)}
	_, err := ScanForImports(in)
	require.NoError(t, err)
	assert.True(t, in.closed)
}
