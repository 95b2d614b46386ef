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

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protofront/internal"
)

func (p *parser) parseEnum(scope *[]*descriptorpb.EnumDescriptorProto, path []int32) bool {
	enumPath := subPath(path, int32(len(*scope)))
	loc := p.startDecl(enumPath)
	p.next()
	name, ok := p.consumeIdent(subPath(enumPath, internal.EnumNameTag))
	if !ok {
		return false
	}
	ed := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	*scope = append(*scope, ed)
	if !p.consume("{") {
		return false
	}
	p.trailing(loc)
	ok = p.statements("}", "enum "+name, func() bool {
		switch {
		case p.at(";"):
			p.next()
			return true
		case p.at("option"):
			return p.parseOptionStatement(enumOptions(ed), subPath(enumPath, internal.EnumOptionsTag))
		case p.at("reserved"):
			return p.parseReserved(enumPath, internal.EnumReservedNamesTag, internal.EnumReservedRangesTag,
				&ed.ReservedName, len(ed.ReservedRange), enumRanges,
				func(start, end int32) {
					ed.ReservedRange = append(ed.ReservedRange, &descriptorpb.EnumDescriptorProto_EnumReservedRange{
						Start: proto.Int32(start),
						End:   proto.Int32(end),
					})
				})
		default:
			return p.parseEnumValue(ed, enumPath)
		}
	})
	if !ok {
		return false
	}
	p.next()
	p.endLoc(loc)
	return true
}

// parseEnumValue parses "NAME = number [options];". Unlike field numbers,
// enum numbers may be negative. Duplicate numbers are left to the
// descriptor builder.
func (p *parser) parseEnumValue(ed *descriptorpb.EnumDescriptorProto, enumPath []int32) bool {
	valPath := subPath(enumPath, internal.EnumValuesTag, int32(len(ed.Value)))
	loc := p.startDecl(valPath)
	name, ok := p.consumeIdent(subPath(valPath, internal.EnumValNameTag))
	if !ok || !p.consume("=") {
		return false
	}
	num, ok := p.consumeNumber(subPath(valPath, internal.EnumValNumberTag), "enum value", true, math.MinInt32, math.MaxInt32)
	if !ok {
		return false
	}
	evd := &descriptorpb.EnumValueDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(int32(num)),
	}
	if p.at("[") && !p.parseCompactOptions(enumValueOptions(evd), subPath(valPath, internal.EnumValOptionsTag), nil, nil) {
		return false
	}
	if !p.consume(";") {
		return false
	}
	p.endDecl(loc)
	ed.Value = append(ed.Value, evd)
	return true
}

func (p *parser) parseService(fd *descriptorpb.FileDescriptorProto) bool {
	svcPath := []int32{internal.FileServicesTag, int32(len(fd.Service))}
	loc := p.startDecl(svcPath)
	p.next()
	name, ok := p.consumeIdent(subPath(svcPath, internal.ServiceNameTag))
	if !ok {
		return false
	}
	sd := &descriptorpb.ServiceDescriptorProto{Name: proto.String(name)}
	fd.Service = append(fd.Service, sd)
	if !p.consume("{") {
		return false
	}
	p.trailing(loc)
	ok = p.statements("}", "service "+name, func() bool {
		switch {
		case p.at(";"):
			p.next()
			return true
		case p.at("option"):
			return p.parseOptionStatement(serviceOptions(sd), subPath(svcPath, internal.ServiceOptionsTag))
		case p.at("rpc"):
			return p.parseMethod(sd, svcPath)
		default:
			p.unexpected(`"option" or "rpc"`)
			return false
		}
	})
	if !ok {
		return false
	}
	p.next()
	p.endLoc(loc)
	return true
}

// parseMethod parses an rpc declaration. It either ends with a semicolon or
// has a body that holds only options.
func (p *parser) parseMethod(sd *descriptorpb.ServiceDescriptorProto, svcPath []int32) bool {
	methodPath := subPath(svcPath, internal.ServiceMethodsTag, int32(len(sd.Method)))
	loc := p.startDecl(methodPath)
	p.next()
	name, ok := p.consumeIdent(subPath(methodPath, internal.MethodNameTag))
	if !ok {
		return false
	}
	md := &descriptorpb.MethodDescriptorProto{Name: proto.String(name)}
	input, clientStreaming, ok := p.parseMethodType(methodPath, internal.MethodInputTag, internal.MethodInputStreamTag)
	if !ok || !p.consume("returns") {
		return false
	}
	output, serverStreaming, ok := p.parseMethodType(methodPath, internal.MethodOutputTag, internal.MethodOutputStreamTag)
	if !ok {
		return false
	}
	md.InputType = proto.String(input)
	md.OutputType = proto.String(output)
	if clientStreaming {
		md.ClientStreaming = proto.Bool(true)
	}
	if serverStreaming {
		md.ServerStreaming = proto.Bool(true)
	}

	if p.tryConsume(";") {
		p.endDecl(loc)
		sd.Method = append(sd.Method, md)
		return true
	}
	if !p.consume("{") {
		return false
	}
	p.trailing(loc)
	ok = p.statements("}", "rpc "+name, func() bool {
		switch {
		case p.at(";"):
			p.next()
			return true
		case p.at("option"):
			return p.parseOptionStatement(methodOptions(md), subPath(methodPath, internal.MethodOptionsTag))
		default:
			p.unexpected(`"option"`)
			return false
		}
	})
	if !ok {
		return false
	}
	p.next()
	p.endLoc(loc)
	sd.Method = append(sd.Method, md)
	return true
}

// parseMethodType parses "([stream] Type)". A "stream" that is alone or
// directly followed by a dot is part of the type name rather than the
// keyword.
func (p *parser) parseMethodType(methodPath []int32, typeTag, streamTag int32) (string, bool, bool) {
	if !p.consume("(") {
		return "", false, false
	}
	var name string
	var streaming, ok bool
	if p.at("stream") {
		streamTok := p.cur()
		p.next()
		if p.at(")") || (p.at(".") && p.cur().Line == streamTok.Line && p.cur().Col == streamTok.EndCol) {
			name, _, ok = p.parseTypeName(&streamTok)
			if !ok {
				return "", false, false
			}
			p.spanLoc(subPath(methodPath, typeTag), streamTok, p.prev)
		} else {
			streaming = true
			p.tokenLoc(subPath(methodPath, streamTag), streamTok)
		}
	}
	if name == "" {
		start := p.cur()
		name, _, ok = p.parseTypeName(nil)
		if !ok {
			return "", false, false
		}
		p.spanLoc(subPath(methodPath, typeTag), start, p.prev)
	}
	if !p.consume(")") {
		return "", false, false
	}
	return name, streaming, true
}
