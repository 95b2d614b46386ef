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
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protofront/token"
)

// location is a source location that is still being built. Its span starts
// at the first token of a production and is extended when the production
// completes.
type location struct {
	loc *descriptorpb.SourceCodeInfo_Location

	startLine, startCol int
}

// subPath returns a copy of path with elems appended. Paths are shared by
// nested productions, so they are never appended to in place.
func subPath(path []int32, elems ...int32) []int32 {
	p := make([]int32, 0, len(path)+len(elems))
	p = append(p, path...)
	return append(p, elems...)
}

// newLoc records a new location for path whose span covers tok. Locations are
// recorded when a production starts, so the table stays in textual order.
func (p *parser) newLoc(path []int32, tok token.Token) *location {
	l := &location{
		loc: &descriptorpb.SourceCodeInfo_Location{
			Path: subPath(path),
			Span: []int32{int32(tok.Line), int32(tok.Col), int32(tok.EndCol)},
		},
		startLine: tok.Line,
		startCol:  tok.Col,
	}
	p.locs = append(p.locs, l.loc)
	return l
}

// tokenLoc records a location spanning exactly one token.
func (p *parser) tokenLoc(path []int32, tok token.Token) {
	p.newLoc(path, tok)
}

// spanLoc records a location spanning from first through last.
func (p *parser) spanLoc(path []int32, first, last token.Token) {
	l := p.newLoc(path, first)
	l.extend(last)
}

// placeAfter moves l, which must be the most recently recorded location, so
// that it directly follows anchor.
func (p *parser) placeAfter(l, anchor *location) {
	last := len(p.locs) - 1
	for i := last - 1; i >= 0; i-- {
		if p.locs[i] == anchor.loc {
			copy(p.locs[i+2:], p.locs[i+1:last])
			p.locs[i+1] = l.loc
			return
		}
	}
}

// endLoc extends l to the end of the most recently consumed token.
func (p *parser) endLoc(l *location) {
	l.extend(p.prev)
}

func (l *location) extend(last token.Token) {
	if last.Line == l.startLine {
		l.loc.Span = []int32{int32(l.startLine), int32(l.startCol), int32(last.EndCol)}
		return
	}
	l.loc.Span = []int32{int32(l.startLine), int32(l.startCol), int32(last.Line), int32(last.EndCol)}
}

// startDecl records the location of a complete declaration that begins at the
// current token, attributing the comments that precede it.
func (p *parser) startDecl(path []int32) *location {
	c := p.declComments()
	l := p.newLoc(path, p.cur())
	c.apply(l)
	return l
}

// endDecl completes a declaration that ends with the most recently consumed
// token, attributing a comment that follows on the same line.
func (p *parser) endDecl(l *location) {
	p.endLoc(l)
	p.trailing(l)
}

// trailing attributes the first comment after the most recently consumed
// token to l if it starts on the same line.
func (p *parser) trailing(l *location) {
	avail := p.pendingComments()
	if len(avail) == 0 || avail[0].Line != p.prev.Line {
		return
	}
	l.loc.TrailingComments = proto.String(commentText([]token.Comment{avail[0]}))
	p.commentsUsed++
}

// pendingComments returns the comments before the current token that have not
// been attributed as a trailing comment yet.
func (p *parser) pendingComments() []token.Comment {
	comments := p.cur().Comments
	if p.commentsUsed >= len(comments) {
		return nil
	}
	return comments[p.commentsUsed:]
}

type declComments struct {
	leading  string
	detached []string
}

// declComments computes the leading and detached comments for a declaration
// starting at the current token.
//
// Comments are grouped into paragraphs: runs of line comments on consecutive
// lines, or a single block comment. The last paragraph is the leading comment
// if nothing but a line break separates it from the declaration. The others
// are detached. A paragraph that starts on the line of the previous token
// belongs to that token and is dropped.
func (p *parser) declComments() declComments {
	var c declComments
	tok := p.cur()
	paras := paragraphs(p.pendingComments())
	if len(paras) > 0 && paras[0][0].Line == p.prev.Line && p.hasPrev {
		paras = paras[1:]
	}
	if n := len(paras); n > 0 {
		last := paras[n-1]
		if end := last[len(last)-1].EndLine; end == tok.Line-1 || end == tok.Line {
			c.leading = commentText(last)
			paras = paras[:n-1]
		}
	}
	for _, para := range paras {
		c.detached = append(c.detached, commentText(para))
	}
	return c
}

func (c declComments) apply(l *location) {
	if c.leading != "" {
		l.loc.LeadingComments = proto.String(c.leading)
	}
	l.loc.LeadingDetachedComments = c.detached
}

func paragraphs(comments []token.Comment) [][]token.Comment {
	var paras [][]token.Comment
	for i, c := range comments {
		if i > 0 && !c.IsBlock() {
			prev := comments[i-1]
			if !prev.IsBlock() && c.Line == prev.EndLine+1 {
				paras[len(paras)-1] = append(paras[len(paras)-1], c)
				continue
			}
		}
		paras = append(paras, []token.Comment{c})
	}
	return paras
}

// commentText strips comment markers from a paragraph. Line comments lose the
// leading "//" and one following space. Block comments lose "/*", "*/", and
// the conventional "*" at the start of inner lines. Lines are joined with
// newlines and have trailing whitespace removed.
func commentText(para []token.Comment) string {
	var lines []string
	for _, c := range para {
		if !c.IsBlock() {
			lines = append(lines, trimLine(strings.TrimPrefix(c.Text, "//")))
			continue
		}
		body := strings.TrimSuffix(strings.TrimPrefix(c.Text, "/*"), "*/")
		var block []string
		for i, line := range strings.Split(body, "\n") {
			if i > 0 {
				line = strings.TrimLeft(line, " \t")
				if strings.HasPrefix(line, "*") {
					line = line[1:]
				}
			}
			block = append(block, trimLine(line))
		}
		for len(block) > 0 && block[0] == "" {
			block = block[1:]
		}
		for len(block) > 0 && block[len(block)-1] == "" {
			block = block[:len(block)-1]
		}
		lines = append(lines, block...)
	}
	return strings.Join(lines, "\n")
}

func trimLine(s string) string {
	return strings.TrimRight(strings.TrimPrefix(s, " "), " \t\r")
}
