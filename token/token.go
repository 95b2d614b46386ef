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

// Package token defines the lexical vocabulary shared by the lexer, the
// parser and the error reporter: token kinds, tokens, comments and source
// positions.
//
// Line and column numbers stored on tokens and comments are 0-based, which
// matches the span encoding used by source code info in descriptors. A [Pos]
// is 1-based, since it is meant to be shown to humans.
package token

import "fmt"

// Kind identifies the lexical class of a [Token].
type Kind int

const (
	// EOF is the kind of the token reported once input is exhausted.
	EOF Kind = iota
	Ident
	Int
	Float
	String
	// Symbol is any single character that is not part of another kind of
	// token, such as punctuation.
	Symbol
)

var kindNames = [...]string{
	EOF:    "end of file",
	Ident:  "identifier",
	Int:    "integer",
	Float:  "float",
	String: "string",
	Symbol: "symbol",
}

// String implements [fmt.Stringer].
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Token is a single lexical element.
type Token struct {
	Kind Kind
	// The raw text of the token, exactly as it appears in the source. For
	// strings this includes the quotes and any escape sequences.
	Text string
	// For strings, the decoded contents. For all other kinds, equal to Text.
	Value string

	// Zero-based position of the first character of the token and the
	// column just past its last character. Tokens never span lines.
	Line, Col, EndCol int

	// Comments that appeared between the previous token and this one, in
	// source order.
	Comments []Comment
}

// Is returns true if t is an identifier or symbol whose text is s.
func (t Token) Is(s string) bool {
	return (t.Kind == Ident || t.Kind == Symbol) && t.Text == s
}

// Describe returns a description of the token suitable for use in an error
// message.
func (t Token) Describe() string {
	switch t.Kind {
	case EOF:
		return "end of file"
	case Symbol, Ident:
		return fmt.Sprintf("%q", t.Text)
	default:
		return fmt.Sprintf("%s %s", t.Kind, t.Text)
	}
}

// Comment is a line or block comment, including its markers.
type Comment struct {
	Text string

	// Zero-based span of the comment. For line comments, the end excludes
	// the terminating newline.
	Line, Col       int
	EndLine, EndCol int
}

// IsBlock returns true if c is a /* block */ comment.
func (c Comment) IsBlock() bool {
	return len(c.Text) >= 2 && c.Text[:2] == "/*"
}

// Pos identifies a location in a source file.
type Pos struct {
	Filename string
	// One-based line and column. A zero line means the position refers to
	// the file as a whole.
	Line, Col int
}

// PosOf returns the human-readable position of a 0-based line and column.
func PosOf(filename string, line, col int) Pos {
	return Pos{Filename: filename, Line: line + 1, Col: col + 1}
}

// String implements [fmt.Stringer].
func (p Pos) String() string {
	if p.Line <= 0 || p.Col <= 0 {
		return p.Filename
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Col)
}
