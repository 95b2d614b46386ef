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

// Package cases provides the identifier case conversions that protoc applies
// when it synthesizes names.
package cases

import (
	"strings"
	"unicode"
)

// Pascal converts a snake_case identifier into PascalCase the way protoc does:
// underscores are dropped and the letter after each one (as well as the first
// letter) is upper-cased. Other letters are left untouched, so "FOO4" stays
// "FOO4".
func Pascal(str string) string {
	var buf strings.Builder
	buf.Grow(len(str))
	upper := true
	for _, r := range str {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		buf.WriteRune(r)
	}
	return buf.String()
}

// MapEntryName returns the name of the synthetic message that holds the
// entries of the map field with the given name.
func MapEntryName(field string) string {
	return Pascal(field) + "Entry"
}
