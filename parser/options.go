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
	"math"
	"strconv"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protofront/internal"
	"github.com/bufbuild/protofront/token"
)

// optionsTarget returns the list of uninterpreted options of some options
// message, creating the options message if needed.
type optionsTarget func() *[]*descriptorpb.UninterpretedOption

func fileOptions(fd *descriptorpb.FileDescriptorProto) optionsTarget {
	return func() *[]*descriptorpb.UninterpretedOption {
		if fd.Options == nil {
			fd.Options = &descriptorpb.FileOptions{}
		}
		return &fd.Options.UninterpretedOption
	}
}

func messageOptions(msg *descriptorpb.DescriptorProto) optionsTarget {
	return func() *[]*descriptorpb.UninterpretedOption {
		if msg.Options == nil {
			msg.Options = &descriptorpb.MessageOptions{}
		}
		return &msg.Options.UninterpretedOption
	}
}

func fieldOptions(fld *descriptorpb.FieldDescriptorProto) optionsTarget {
	return func() *[]*descriptorpb.UninterpretedOption {
		if fld.Options == nil {
			fld.Options = &descriptorpb.FieldOptions{}
		}
		return &fld.Options.UninterpretedOption
	}
}

func oneofOptions(oo *descriptorpb.OneofDescriptorProto) optionsTarget {
	return func() *[]*descriptorpb.UninterpretedOption {
		if oo.Options == nil {
			oo.Options = &descriptorpb.OneofOptions{}
		}
		return &oo.Options.UninterpretedOption
	}
}

func extensionRangeOptions(opts **descriptorpb.ExtensionRangeOptions) optionsTarget {
	return func() *[]*descriptorpb.UninterpretedOption {
		if *opts == nil {
			*opts = &descriptorpb.ExtensionRangeOptions{}
		}
		return &(*opts).UninterpretedOption
	}
}

func enumOptions(ed *descriptorpb.EnumDescriptorProto) optionsTarget {
	return func() *[]*descriptorpb.UninterpretedOption {
		if ed.Options == nil {
			ed.Options = &descriptorpb.EnumOptions{}
		}
		return &ed.Options.UninterpretedOption
	}
}

func enumValueOptions(evd *descriptorpb.EnumValueDescriptorProto) optionsTarget {
	return func() *[]*descriptorpb.UninterpretedOption {
		if evd.Options == nil {
			evd.Options = &descriptorpb.EnumValueOptions{}
		}
		return &evd.Options.UninterpretedOption
	}
}

func serviceOptions(sd *descriptorpb.ServiceDescriptorProto) optionsTarget {
	return func() *[]*descriptorpb.UninterpretedOption {
		if sd.Options == nil {
			sd.Options = &descriptorpb.ServiceOptions{}
		}
		return &sd.Options.UninterpretedOption
	}
}

func methodOptions(md *descriptorpb.MethodDescriptorProto) optionsTarget {
	return func() *[]*descriptorpb.UninterpretedOption {
		if md.Options == nil {
			md.Options = &descriptorpb.MethodOptions{}
		}
		return &md.Options.UninterpretedOption
	}
}

// parseOptionStatement parses "option name = value;". The path is that of
// the options field of the enclosing element.
func (p *parser) parseOptionStatement(target optionsTarget, path []int32) bool {
	loc := p.startDecl(path)
	p.next()
	opt, ok := p.parseOption(path, int32(len(*target())))
	if !ok || !p.consume(";") {
		return false
	}
	p.endDecl(loc)
	opts := target()
	*opts = append(*opts, opt)
	return true
}

// parseOption parses "name = value" into an uninterpreted option that will
// be stored at index idx of the options at path.
func (p *parser) parseOption(path []int32, idx int32) (*descriptorpb.UninterpretedOption, bool) {
	optPath := subPath(path, internal.UninterpretedOptionsTag, idx)
	loc := p.newLoc(optPath, p.cur())
	opt := &descriptorpb.UninterpretedOption{}
	if !p.parseOptionName(opt, optPath) {
		return nil, false
	}
	if !p.consume("=") {
		return nil, false
	}
	if !p.parseOptionValue(opt, optPath) {
		return nil, false
	}
	p.endLoc(loc)
	return opt, true
}

func (p *parser) parseOptionName(opt *descriptorpb.UninterpretedOption, optPath []int32) bool {
	for {
		first := p.cur()
		part := &descriptorpb.UninterpretedOption_NamePart{}
		if p.tryConsume("(") {
			name, _, ok := p.parseTypeName(nil)
			if !ok || !p.consume(")") {
				return false
			}
			part.NamePart = proto.String(name)
			part.IsExtension = proto.Bool(true)
		} else {
			name, ok := p.consumeIdent(nil)
			if !ok {
				return false
			}
			part.NamePart = proto.String(name)
			part.IsExtension = proto.Bool(false)
		}
		p.spanLoc(subPath(optPath, internal.UninterpretedNameTag, int32(len(opt.Name))), first, p.prev)
		opt.Name = append(opt.Name, part)
		if !p.tryConsume(".") {
			return true
		}
	}
}

// parseOptionValue parses the value of an option. Aggregate values are not
// interpreted; their tokens are joined with spaces.
func (p *parser) parseOptionValue(opt *descriptorpb.UninterpretedOption, optPath []int32) bool {
	first := p.cur()
	var tag int32
	switch tok := p.cur(); {
	case tok.Is("-"):
		p.next()
		num := p.cur()
		switch {
		case num.Kind == token.Int:
			u, ok := p.consumeUint()
			if !ok {
				return false
			}
			if u > 1<<63 {
				p.errorf(num, "value -%s is out of range for a 64-bit signed integer", num.Text)
				return false
			}
			opt.NegativeIntValue = proto.Int64(int64(-u))
			tag = internal.UninterpretedNegIntTag
		case num.Kind == token.Float:
			f, ok := p.consumeFloat()
			if !ok {
				return false
			}
			opt.DoubleValue = proto.Float64(-f)
			tag = internal.UninterpretedDoubleTag
		case num.Is("inf"), num.Is("nan"):
			p.next()
			if num.Text == "inf" {
				opt.DoubleValue = proto.Float64(math.Inf(-1))
			} else {
				opt.DoubleValue = proto.Float64(math.NaN())
			}
			tag = internal.UninterpretedDoubleTag
		default:
			p.unexpected("number")
			return false
		}
	case tok.Kind == token.Int:
		u, ok := p.consumeUint()
		if !ok {
			return false
		}
		opt.PositiveIntValue = proto.Uint64(u)
		tag = internal.UninterpretedPosIntTag
	case tok.Kind == token.Float:
		f, ok := p.consumeFloat()
		if !ok {
			return false
		}
		opt.DoubleValue = proto.Float64(f)
		tag = internal.UninterpretedDoubleTag
	case tok.Kind == token.Ident:
		p.next()
		opt.IdentifierValue = proto.String(tok.Text)
		tag = internal.UninterpretedIdentTag
	case tok.Kind == token.String:
		s, _ := p.consumeStrings()
		opt.StringValue = []byte(s)
		tag = internal.UninterpretedStringTag
	case tok.Is("{"):
		agg, ok := p.parseAggregate()
		if !ok {
			return false
		}
		opt.AggregateValue = proto.String(agg)
		tag = internal.UninterpretedAggregateTag
	default:
		p.unexpected("option value")
		return false
	}
	p.spanLoc(subPath(optPath, tag), first, p.prev)
	return true
}

func (p *parser) consumeFloat() (float64, bool) {
	tok := p.cur()
	f, err := strconv.ParseFloat(tok.Text, 64)
	if err != nil {
		p.errorf(tok, "invalid float literal %q", tok.Text)
		return 0, false
	}
	p.next()
	return f, true
}

// parseAggregate consumes a brace-delimited message literal and returns the
// raw text of the tokens between the braces, separated by single spaces.
func (p *parser) parseAggregate() (string, bool) {
	open := p.cur()
	p.next()
	var parts []string
	depth := 1
	for {
		tok := p.cur()
		switch {
		case tok.Kind == token.EOF:
			p.errorf(open, "syntax error: unterminated message literal")
			return "", false
		case tok.Is("{"), tok.Is("<"), tok.Is("["):
			depth++
		case tok.Is("}"), tok.Is(">"), tok.Is("]"):
			depth--
		}
		p.next()
		if depth == 0 {
			return strings.Join(parts, " "), true
		}
		parts = append(parts, tok.Text)
	}
}

// parseCompactOptions parses a bracketed list of options. The default pseudo
// option, if allowed, is stored through setDefault and recorded at
// defaultPath.
func (p *parser) parseCompactOptions(target optionsTarget, path []int32, setDefault func(string), defaultPath []int32) bool {
	loc := p.newLoc(path, p.cur())
	p.next()
	for {
		if setDefault != nil && p.at("default") {
			first := p.cur()
			p.next()
			if !p.consume("=") {
				return false
			}
			val, ok := p.parseDefaultValue()
			if !ok {
				return false
			}
			p.spanLoc(defaultPath, first, p.prev)
			setDefault(val)
		} else {
			opt, ok := p.parseOption(path, int32(len(*target())))
			if !ok {
				return false
			}
			opts := target()
			*opts = append(*opts, opt)
		}
		if !p.tryConsume(",") {
			break
		}
	}
	if !p.consume("]") {
		return false
	}
	p.endLoc(loc)
	return true
}

// parseDefaultValue parses the value of a default option into the textual
// form used by descriptors: strings are C-escaped and integers are decimal.
func (p *parser) parseDefaultValue() (string, bool) {
	tok := p.cur()
	switch {
	case tok.Kind == token.String:
		s, _ := p.consumeStrings()
		return cEscape(s), true
	case tok.Kind == token.Int:
		u, ok := p.consumeUint()
		if !ok {
			return "", false
		}
		return strconv.FormatUint(u, 10), true
	case tok.Kind == token.Float:
		p.next()
		return tok.Text, true
	case tok.Kind == token.Ident:
		p.next()
		return tok.Text, true
	case tok.Is("-"):
		p.next()
		num := p.cur()
		switch {
		case num.Kind == token.Int:
			u, ok := p.consumeUint()
			if !ok {
				return "", false
			}
			return "-" + strconv.FormatUint(u, 10), true
		case num.Kind == token.Float, num.Is("inf"), num.Is("nan"):
			p.next()
			return "-" + num.Text, true
		}
		p.unexpected("number")
		return "", false
	default:
		p.unexpected("default value")
		return "", false
	}
}

// cEscape escapes s the way default values of string and bytes fields are
// stored in descriptors.
func cEscape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch b {
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '"':
			sb.WriteString(`\"`)
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			if b < 0x20 || b >= 0x7f {
				sb.WriteByte('\\')
				sb.WriteByte('0' + (b>>6)&3)
				sb.WriteByte('0' + (b>>3)&7)
				sb.WriteByte('0' + b&7)
			} else {
				sb.WriteByte(b)
			}
		}
	}
	return sb.String()
}
