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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/bufbuild/protofront/token"
)

// ErrorFunc receives lexical errors. Line and column are 0-based.
type ErrorFunc func(line, col int, msg string)

const utf8BOM = '\uFEFF'

// Lexer turns a stream of characters into a stream of tokens. Comments are
// not returned as tokens; they are attached to the token that follows them.
//
// A Lexer owns its input. Close releases it, and the parse functions in this
// package close the lexer before returning.
type Lexer struct {
	in      *bufio.Reader
	closer  io.Closer
	onError ErrorFunc
	errs    int

	// position of the next rune to be read, and of the rune before it so
	// that one rune can be unread
	line, col         int
	prevLine, prevCol int
	// encoded size of the last rune read
	lastSize int

	cur     token.Token
	started bool
	done    bool
	closed  bool
}

// NewLexer returns a lexer that reads from r. If r is also an io.Closer, it
// is closed by [Lexer.Close]. Lexical errors are passed to onError, which may
// be nil.
func NewLexer(r io.Reader, onError ErrorFunc) *Lexer {
	l := &Lexer{
		in:      bufio.NewReader(r),
		onError: onError,
	}
	if c, ok := r.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// Current returns the most recently produced token. Once [Lexer.Next] has
// returned false, this is an EOF token, which carries any comments that
// appeared after the last real token.
func (l *Lexer) Current() token.Token {
	return l.cur
}

// Errors returns the number of lexical errors reported so far.
func (l *Lexer) Errors() int {
	return l.errs
}

// Close releases the underlying input. It is safe to call more than once.
func (l *Lexer) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.done = true
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *Lexer) errorf(line, col int, format string, args ...any) {
	l.errs++
	if l.onError != nil {
		l.onError(line, col, fmt.Sprintf(format, args...))
	}
}

func (l *Lexer) read() (rune, bool) {
	if l.done {
		return 0, false
	}
	ch, size, err := l.in.ReadRune()
	if err != nil {
		l.done = true
		if !errors.Is(err, io.EOF) {
			l.errorf(l.line, l.col, "I/O error: %v", err)
		}
		return 0, false
	}
	l.prevLine, l.prevCol = l.line, l.col
	l.lastSize = size
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) unread() {
	_ = l.in.UnreadRune()
	l.line, l.col = l.prevLine, l.prevCol
}

// Next advances to the next token. It returns false when the input is
// exhausted.
func (l *Lexer) Next() bool {
	if l.started && l.cur.Kind == token.EOF {
		return false
	}
	if !l.started {
		l.started = true
		if ch, ok := l.read(); ok && ch != utf8BOM {
			l.unread()
		} else if ok {
			l.col = 0
		}
	}

	var comments []token.Comment
	for {
		line, col := l.line, l.col
		ch, ok := l.read()
		if !ok {
			l.cur = token.Token{Kind: token.EOF, Line: line, Col: col, EndCol: col, Comments: comments}
			return false
		}

		var sb strings.Builder
		sb.WriteRune(ch)
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v':
			continue

		case ch == '/':
			next, ok := l.read()
			if ok && next == '/' {
				sb.WriteRune(next)
				l.readLineComment(&sb)
				comments = append(comments, l.comment(sb.String(), line, col))
				continue
			}
			if ok && next == '*' {
				sb.WriteRune(next)
				if !l.readBlockComment(&sb) {
					l.errorf(line, col, "block comment never terminates, unexpected EOF")
				}
				comments = append(comments, l.comment(sb.String(), line, col))
				continue
			}
			if ok {
				l.unread()
			}
			l.setToken(token.Symbol, sb.String(), sb.String(), line, col, comments)

		case isIdentStart(ch):
			l.readWhile(&sb, isIdentPart)
			l.setToken(token.Ident, sb.String(), sb.String(), line, col, comments)

		case isDigit(ch):
			kind := l.readNumber(&sb)
			l.setToken(kind, sb.String(), sb.String(), line, col, comments)

		case ch == '"' || ch == '\'':
			val := l.readString(&sb, ch, line, col)
			l.setToken(token.String, sb.String(), val, line, col, comments)

		default:
			l.setToken(token.Symbol, sb.String(), sb.String(), line, col, comments)
		}
		return true
	}
}

func (l *Lexer) setToken(kind token.Kind, text, val string, line, col int, comments []token.Comment) {
	l.cur = token.Token{
		Kind:     kind,
		Text:     text,
		Value:    val,
		Line:     line,
		Col:      col,
		EndCol:   l.col,
		Comments: comments,
	}
}

func (l *Lexer) comment(text string, line, col int) token.Comment {
	return token.Comment{Text: text, Line: line, Col: col, EndLine: l.line, EndCol: l.col}
}

func (l *Lexer) readWhile(sb *strings.Builder, pred func(rune) bool) {
	for {
		ch, ok := l.read()
		if !ok {
			return
		}
		if !pred(ch) {
			l.unread()
			return
		}
		sb.WriteRune(ch)
	}
}

// readNumber reads the rest of a token that starts with a digit. Letters are
// consumed as part of the number so that hex literals like 0x1F form a single
// token; the parser decides whether the text is a valid integer. A run of
// plain digits followed by a dot and optional digits is a float.
func (l *Lexer) readNumber(sb *strings.Builder) token.Kind {
	l.readWhile(sb, isIdentPart)
	if strings.TrimLeft(sb.String(), "0123456789") != "" {
		return token.Int
	}
	ch, ok := l.read()
	if !ok {
		return token.Int
	}
	if ch != '.' {
		l.unread()
		return token.Int
	}
	sb.WriteRune(ch)
	l.readWhile(sb, isDigit)
	return token.Float
}

// readString reads a string literal after its opening quote, writing the raw
// text to sb and returning the decoded value.
func (l *Lexer) readString(sb *strings.Builder, quote rune, line, col int) string {
	var val strings.Builder
	for {
		ch, ok := l.read()
		if !ok {
			l.errorf(line, col, "unterminated string")
			return val.String()
		}
		if ch == '\n' {
			l.unread()
			l.errorf(line, col, "unterminated string")
			return val.String()
		}
		if b, ok := l.invalidByte(ch); ok {
			sb.WriteByte(b)
			val.WriteByte(b)
			continue
		}
		sb.WriteRune(ch)
		if ch == quote {
			return val.String()
		}
		if ch != '\\' {
			val.WriteRune(ch)
			continue
		}
		ch, ok = l.read()
		if !ok {
			l.errorf(line, col, "unterminated string")
			return val.String()
		}
		if ch == '\n' {
			l.unread()
			l.errorf(line, col, "unterminated string")
			return val.String()
		}
		if b, ok := l.invalidByte(ch); ok {
			sb.WriteByte(b)
			val.WriteByte(b)
			continue
		}
		sb.WriteRune(ch)
		switch ch {
		case 'n':
			val.WriteByte('\n')
		case 't':
			val.WriteByte('\t')
		case 'r':
			val.WriteByte('\r')
		default:
			// includes \\, \" and \'
			val.WriteRune(ch)
		}
	}
}

// invalidByte returns the byte that was just read if ch stands in for a byte
// that is not valid UTF-8. String values keep such bytes as they are.
func (l *Lexer) invalidByte(ch rune) (byte, bool) {
	if ch != utf8.RuneError || l.lastSize != 1 {
		return 0, false
	}
	if err := l.in.UnreadRune(); err != nil {
		return 0, false
	}
	b, err := l.in.ReadByte()
	return b, err == nil
}

func (l *Lexer) readLineComment(sb *strings.Builder) {
	for {
		ch, ok := l.read()
		if !ok {
			return
		}
		if ch == '\n' {
			l.unread()
			return
		}
		sb.WriteRune(ch)
	}
}

// readBlockComment reads through the closing "*/". Comments do not nest. It
// returns false if the input ends first.
func (l *Lexer) readBlockComment(sb *strings.Builder) bool {
	for {
		ch, ok := l.read()
		if !ok {
			return false
		}
		sb.WriteRune(ch)
		if ch != '*' {
			continue
		}
		ch, ok = l.read()
		if !ok {
			return false
		}
		if ch == '/' {
			sb.WriteRune(ch)
			return true
		}
		l.unread()
	}
}

func isIdentStart(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
