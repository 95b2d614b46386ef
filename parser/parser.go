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
	"io"
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protofront/internal"
	"github.com/bufbuild/protofront/reporter"
	"github.com/bufbuild/protofront/token"
)

const (
	syntaxProto2 = "proto2"
	syntaxProto3 = "proto3"
)

// Parse parses the given source into a file descriptor proto. The result
// includes source code info. If r implements io.Closer, it is closed before
// Parse returns.
//
// Errors are sent to handler. On failure, the returned descriptor holds as
// much of the file as could be parsed. It is only meant for diagnostics.
func Parse(filename string, r io.Reader, handler *reporter.Handler) (*descriptorpb.FileDescriptorProto, error) {
	lx := NewLexer(r, func(line, col int, msg string) {
		_ = handler.HandleErrorf(token.PosOf(filename, line, col), "%s", msg)
	})
	defer func() {
		_ = lx.Close()
	}()
	fd := &descriptorpb.FileDescriptorProto{Name: proto.String(filename)}
	if !ParseInto(filename, lx, fd, handler) {
		if err := handler.Error(); err != nil {
			return fd, err
		}
		return fd, reporter.ErrInvalidSource
	}
	return fd, nil
}

// ParseInto reads tokens from lx and populates fd. It returns false if any
// error was found, either by the parser or by the lexer. The lexer's own
// error callback decides where lexical errors are reported; syntax errors go
// to handler.
//
// ParseInto consumes lx but does not close it.
func ParseInto(filename string, lx *Lexer, fd *descriptorpb.FileDescriptorProto, handler *reporter.Handler) bool {
	p := &parser{
		filename: filename,
		lx:       lx,
		handler:  handler,
		syntax:   syntaxProto2,
	}
	lexErrs := lx.Errors()
	p.parseFile(fd)
	return !p.failed && lx.Errors() == lexErrs && handler.ReporterError() == nil
}

// parser is the state of a single parse. Every production is a method that
// returns false if it failed.
type parser struct {
	filename string
	lx       *Lexer
	handler  *reporter.Handler

	syntax    string
	hasSyntax bool

	// failed is set by every syntax error, even ones that are not reported
	// because the parser is recovering from an earlier error.
	failed     bool
	recovering bool

	// the most recently consumed token
	prev    token.Token
	hasPrev bool
	// number of comments of the current token already attributed as the
	// trailing comment of the previous declaration
	commentsUsed int

	locs []*descriptorpb.SourceCodeInfo_Location
}

func (p *parser) cur() token.Token {
	return p.lx.Current()
}

func (p *parser) next() {
	p.prev = p.lx.Current()
	p.hasPrev = true
	p.commentsUsed = 0
	p.lx.Next()
}

func (p *parser) at(s string) bool {
	return p.cur().Is(s)
}

func (p *parser) atEOF() bool {
	return p.cur().Kind == token.EOF
}

// aborted returns true once the reporter has asked to stop.
func (p *parser) aborted() bool {
	return p.handler.ReporterError() != nil
}

func (p *parser) errorf(tok token.Token, format string, args ...any) {
	p.failed = true
	if p.recovering {
		return
	}
	_ = p.handler.HandleErrorf(token.PosOf(p.filename, tok.Line, tok.Col), format, args...)
}

func (p *parser) unexpected(expecting string) {
	p.errorf(p.cur(), "syntax error: unexpected %s, expecting %s", p.cur().Describe(), expecting)
}

func (p *parser) tryConsume(s string) bool {
	if p.at(s) {
		p.next()
		return true
	}
	return false
}

func (p *parser) consume(s string) bool {
	if p.tryConsume(s) {
		return true
	}
	p.unexpected(strconv.Quote(s))
	return false
}

// consumeIdent consumes an identifier and records its location at path, if
// path is not nil.
func (p *parser) consumeIdent(path []int32) (string, bool) {
	tok := p.cur()
	if tok.Kind != token.Ident {
		p.unexpected("identifier")
		return "", false
	}
	if path != nil {
		p.tokenLoc(path, tok)
	}
	p.next()
	return tok.Text, true
}

// consumeStrings consumes one or more adjacent string literals and returns
// their concatenated value.
func (p *parser) consumeStrings() (string, bool) {
	if p.cur().Kind != token.String {
		p.unexpected("string literal")
		return "", false
	}
	var sb strings.Builder
	for p.cur().Kind == token.String {
		sb.WriteString(p.cur().Value)
		p.next()
	}
	return sb.String(), true
}

// consumeUint consumes an integer literal. Hex (0x) and octal (leading zero)
// forms are accepted.
func (p *parser) consumeUint() (uint64, bool) {
	tok := p.cur()
	if tok.Kind != token.Int {
		p.unexpected("integer")
		return 0, false
	}
	v, err := parseUint(tok.Text)
	if err != nil {
		p.errorf(tok, "invalid integer literal %q", tok.Text)
		return 0, false
	}
	p.next()
	return v, true
}

// consumeNumber consumes an integer that must fit in [minVal, maxVal], with
// an optional leading minus sign if signed is true. The location of the
// number, sign included, is recorded at path.
func (p *parser) consumeNumber(path []int32, what string, signed bool, minVal, maxVal int64) (int64, bool) {
	first := p.cur()
	neg := signed && p.tryConsume("-")
	tok := p.cur()
	u, ok := p.consumeUint()
	if !ok {
		return 0, false
	}
	inRange := u <= math.MaxInt64 || (neg && u == 1<<63)
	v := int64(u)
	if neg {
		v = -v
	}
	if !inRange || v < minVal || v > maxVal {
		text := tok.Text
		if neg {
			text = "-" + text
		}
		p.errorf(first, "%s %s is out of range: should be between %d and %d", what, text, minVal, maxVal)
		return 0, false
	}
	if path != nil {
		p.spanLoc(path, first, p.prev)
	}
	return v, true
}

// parseTypeName consumes a possibly-qualified type name. If first is not nil,
// it is an identifier that was already consumed and starts the name.
func (p *parser) parseTypeName(first *token.Token) (name string, start token.Token, ok bool) {
	var sb strings.Builder
	if first != nil {
		start = *first
		sb.WriteString(first.Text)
	} else {
		start = p.cur()
		if p.tryConsume(".") {
			sb.WriteByte('.')
		}
		ident, ok := p.consumeIdent(nil)
		if !ok {
			return "", start, false
		}
		sb.WriteString(ident)
	}
	for p.tryConsume(".") {
		ident, ok := p.consumeIdent(nil)
		if !ok {
			return "", start, false
		}
		sb.WriteByte('.')
		sb.WriteString(ident)
	}
	return sb.String(), start, true
}

// statements runs stmt until the token end is reached, recovering from
// failed statements by skipping a single token and trying again. While
// recovering, further errors are not reported. Recovery ends when a
// statement completes or when a new block is opened, since the block's
// header parsed cleanly. An empty end means the statements run to the end
// of the file.
//
// It returns false if end was not found or if the reporter aborted.
func (p *parser) statements(end, what string, stmt func() bool) bool {
	p.recovering = false
	for {
		if p.aborted() {
			return false
		}
		if end != "" && p.at(end) {
			return true
		}
		if p.atEOF() {
			if end != "" {
				p.errorf(p.cur(), "syntax error: unexpected end of file, expecting %q to close %s", end, what)
				return false
			}
			return true
		}
		mark := len(p.locs)
		if stmt() {
			p.recovering = false
			continue
		}
		p.locs = p.locs[:mark]
		if p.aborted() {
			return false
		}
		p.recovering = true
		if !p.atEOF() && !(end != "" && p.at(end)) {
			p.next()
		}
	}
}

func (p *parser) parseFile(fd *descriptorpb.FileDescriptorProto) {
	p.lx.Next()
	var fileLoc *location
	if !p.atEOF() {
		fileLoc = p.newLoc(nil, p.cur())
	}
	first := true
	p.statements("", "file", func() bool {
		isFirst := first
		first = false
		return p.parseTopLevel(fd, isFirst)
	})
	if fileLoc != nil && p.hasPrev {
		p.endLoc(fileLoc)
	}
	if !p.hasSyntax {
		fd.Syntax = proto.String(syntaxProto2)
		p.handler.HandleWarning(token.Pos{Filename: p.filename}, ErrNoSyntax)
	}
	if len(p.locs) > 0 {
		fd.SourceCodeInfo = &descriptorpb.SourceCodeInfo{Location: p.locs}
	}
}

func (p *parser) parseTopLevel(fd *descriptorpb.FileDescriptorProto, first bool) bool {
	switch {
	case p.at(";"):
		p.next()
		return true
	case p.at("syntax"):
		return p.parseSyntax(fd, first)
	case p.at("package"):
		return p.parsePackage(fd)
	case p.at("import"):
		return p.parseImport(fd)
	case p.at("option"):
		return p.parseOptionStatement(fileOptions(fd), []int32{internal.FileOptionsTag})
	case p.at("message"):
		return p.parseMessage(&fd.MessageType, []int32{internal.FileMessagesTag})
	case p.at("enum"):
		return p.parseEnum(&fd.EnumType, []int32{internal.FileEnumsTag})
	case p.at("service"):
		return p.parseService(fd)
	case p.at("extend"):
		return p.parseExtend(&fd.Extension, []int32{internal.FileExtensionsTag},
			&fd.MessageType, []int32{internal.FileMessagesTag})
	default:
		p.unexpected(`"syntax", "package", "import", "option", "message", "enum", "service", or "extend"`)
		return false
	}
}

func (p *parser) parseSyntax(fd *descriptorpb.FileDescriptorProto, first bool) bool {
	if !first || p.hasSyntax {
		p.errorf(p.cur(), "syntax statement must be the first statement in the file")
		return false
	}
	loc := p.startDecl([]int32{internal.FileSyntaxTag})
	p.next()
	if !p.consume("=") {
		return false
	}
	tok := p.cur()
	val, ok := p.consumeStrings()
	if !ok {
		return false
	}
	if !p.consume(";") {
		return false
	}
	p.endDecl(loc)
	p.hasSyntax = true
	switch val {
	case syntaxProto2, syntaxProto3:
		p.syntax = val
	default:
		p.errorf(tok, "syntax value must be %q or %q, not %q", syntaxProto2, syntaxProto3, val)
	}
	fd.Syntax = proto.String(p.syntax)
	return true
}

func (p *parser) parsePackage(fd *descriptorpb.FileDescriptorProto) bool {
	if fd.Package != nil {
		p.errorf(p.cur(), "files should have only one package declaration")
		return false
	}
	loc := p.startDecl([]int32{internal.FilePackageTag})
	p.next()
	if p.at(".") {
		p.errorf(p.cur(), "package name should not begin with a period")
		return false
	}
	name, _, ok := p.parseTypeName(nil)
	if !ok || !p.consume(";") {
		return false
	}
	p.endDecl(loc)
	fd.Package = proto.String(name)
	return true
}

func (p *parser) parseImport(fd *descriptorpb.FileDescriptorProto) bool {
	idx := int32(len(fd.Dependency))
	loc := p.startDecl([]int32{internal.FileDependencyTag, idx})
	p.next()
	var public, weak bool
	switch {
	case p.at("public"):
		p.tokenLoc([]int32{internal.FilePublicDependencyTag, int32(len(fd.PublicDependency))}, p.cur())
		public = true
		p.next()
	case p.at("weak"):
		p.tokenLoc([]int32{internal.FileWeakDependencyTag, int32(len(fd.WeakDependency))}, p.cur())
		weak = true
		p.next()
	}
	name, ok := p.consumeStrings()
	if !ok || !p.consume(";") {
		return false
	}
	p.endDecl(loc)
	fd.Dependency = append(fd.Dependency, name)
	if public {
		fd.PublicDependency = append(fd.PublicDependency, idx)
	}
	if weak {
		fd.WeakDependency = append(fd.WeakDependency, idx)
	}
	return true
}

func parseUint(text string) (uint64, error) {
	switch {
	case len(text) > 2 && (text[:2] == "0x" || text[:2] == "0X"):
		return strconv.ParseUint(text[2:], 16, 64)
	case len(text) > 1 && text[0] == '0':
		return strconv.ParseUint(text[1:], 8, 64)
	default:
		return strconv.ParseUint(text, 10, 64)
	}
}
