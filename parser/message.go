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
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/bufbuild/protofront/internal"
	"github.com/bufbuild/protofront/internal/cases"
	"github.com/bufbuild/protofront/token"
)

var labels = map[string]descriptorpb.FieldDescriptorProto_Label{
	"optional": descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL,
	"required": descriptorpb.FieldDescriptorProto_LABEL_REQUIRED,
	"repeated": descriptorpb.FieldDescriptorProto_LABEL_REPEATED,
}

var scalarTypes = map[string]descriptorpb.FieldDescriptorProto_Type{
	"double":   descriptorpb.FieldDescriptorProto_TYPE_DOUBLE,
	"float":    descriptorpb.FieldDescriptorProto_TYPE_FLOAT,
	"int32":    descriptorpb.FieldDescriptorProto_TYPE_INT32,
	"int64":    descriptorpb.FieldDescriptorProto_TYPE_INT64,
	"uint32":   descriptorpb.FieldDescriptorProto_TYPE_UINT32,
	"uint64":   descriptorpb.FieldDescriptorProto_TYPE_UINT64,
	"sint32":   descriptorpb.FieldDescriptorProto_TYPE_SINT32,
	"sint64":   descriptorpb.FieldDescriptorProto_TYPE_SINT64,
	"fixed32":  descriptorpb.FieldDescriptorProto_TYPE_FIXED32,
	"fixed64":  descriptorpb.FieldDescriptorProto_TYPE_FIXED64,
	"sfixed32": descriptorpb.FieldDescriptorProto_TYPE_SFIXED32,
	"sfixed64": descriptorpb.FieldDescriptorProto_TYPE_SFIXED64,
	"bool":     descriptorpb.FieldDescriptorProto_TYPE_BOOL,
	"string":   descriptorpb.FieldDescriptorProto_TYPE_STRING,
	"bytes":    descriptorpb.FieldDescriptorProto_TYPE_BYTES,
}

// fieldScope describes where the fields declared in a block are stored.
type fieldScope struct {
	fields     *[]*descriptorpb.FieldDescriptorProto
	fieldsPath []int32
	// messages synthesized for groups and map entries
	nested     *[]*descriptorpb.DescriptorProto
	nestedPath []int32

	// the enclosing message, nil for extend blocks
	msg *descriptorpb.DescriptorProto

	// set for the fields of an extend block
	extendee                   string
	extendeeStart, extendeeEnd token.Token

	// set for the fields of a oneof
	oneof *int32
}

func messageFields(msg *descriptorpb.DescriptorProto, msgPath []int32) fieldScope {
	return fieldScope{
		fields:     &msg.Field,
		fieldsPath: subPath(msgPath, internal.MessageFieldsTag),
		nested:     &msg.NestedType,
		nestedPath: subPath(msgPath, internal.MessageNestedMessagesTag),
		msg:        msg,
	}
}

func (p *parser) parseMessage(scope *[]*descriptorpb.DescriptorProto, path []int32) bool {
	msgPath := subPath(path, int32(len(*scope)))
	loc := p.startDecl(msgPath)
	p.next()
	name, ok := p.consumeIdent(subPath(msgPath, internal.MessageNameTag))
	if !ok {
		return false
	}
	msg := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	*scope = append(*scope, msg)
	if !p.consume("{") {
		return false
	}
	p.trailing(loc)
	if !p.parseMessageBody(msg, msgPath) {
		return false
	}
	p.next()
	p.endLoc(loc)
	return true
}

// parseMessageBody parses declarations up to, but not including, the closing
// brace of a message.
func (p *parser) parseMessageBody(msg *descriptorpb.DescriptorProto, msgPath []int32) bool {
	ok := p.statements("}", "message "+msg.GetName(), func() bool {
		switch {
		case p.at(";"):
			p.next()
			return true
		case p.at("message"):
			return p.parseMessage(&msg.NestedType, subPath(msgPath, internal.MessageNestedMessagesTag))
		case p.at("enum"):
			return p.parseEnum(&msg.EnumType, subPath(msgPath, internal.MessageEnumsTag))
		case p.at("extensions"):
			return p.parseExtensionRanges(msg, msgPath)
		case p.at("reserved"):
			return p.parseReserved(msgPath, internal.MessageReservedNamesTag, internal.MessageReservedRangesTag,
				&msg.ReservedName, len(msg.ReservedRange), messageRanges,
				func(start, end int32) {
					msg.ReservedRange = append(msg.ReservedRange, &descriptorpb.DescriptorProto_ReservedRange{
						Start: proto.Int32(start),
						End:   proto.Int32(end),
					})
				})
		case p.at("extend"):
			return p.parseExtend(&msg.Extension, subPath(msgPath, internal.MessageExtensionsTag),
				&msg.NestedType, subPath(msgPath, internal.MessageNestedMessagesTag))
		case p.at("oneof"):
			return p.parseOneof(msg, msgPath)
		case p.at("option"):
			return p.parseOptionStatement(messageOptions(msg), subPath(msgPath, internal.MessageOptionsTag))
		default:
			return p.parseField(messageFields(msg, msgPath))
		}
	})
	if ok {
		addSyntheticOneofs(msg)
	}
	return ok
}

// addSyntheticOneofs gives each proto3 optional field a oneof of its own.
// They follow all declared oneofs.
func addSyntheticOneofs(msg *descriptorpb.DescriptorProto) {
	names := map[string]bool{}
	for _, fld := range msg.Field {
		names[fld.GetName()] = true
	}
	for _, oo := range msg.OneofDecl {
		names[oo.GetName()] = true
	}
	for _, fld := range msg.Field {
		if !fld.GetProto3Optional() || fld.OneofIndex != nil {
			continue
		}
		name := fld.GetName()
		if !strings.HasPrefix(name, "_") {
			name = "_" + name
		}
		for names[name] {
			name = "X" + name
		}
		names[name] = true
		fld.OneofIndex = proto.Int32(int32(len(msg.OneofDecl)))
		msg.OneofDecl = append(msg.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String(name)})
	}
}

func (p *parser) parseField(scope fieldScope) bool {
	fieldPath := subPath(scope.fieldsPath, int32(len(*scope.fields)))
	start := p.cur()
	loc := p.startDecl(fieldPath)
	fld := &descriptorpb.FieldDescriptorProto{}
	if scope.extendee != "" {
		fld.Extendee = proto.String(scope.extendee)
		p.spanLoc(subPath(fieldPath, internal.FieldExtendeeTag), scope.extendeeStart, scope.extendeeEnd)
	}

	hasLabel := false
	if lbl, ok := labels[start.Text]; ok && start.Kind == token.Ident {
		if scope.oneof != nil {
			p.errorf(start, "fields in oneofs must not have labels")
			return false
		}
		fld.Label = lbl.Enum()
		hasLabel = true
		p.tokenLoc(subPath(fieldPath, internal.FieldLabelTag), start)
		p.next()
	}

	typ := p.cur()
	if typ.Is("group") {
		return p.parseGroup(scope, fld, fieldPath, start, loc)
	}
	var first *token.Token
	if typ.Is("map") {
		p.next()
		if p.at("<") {
			if hasLabel {
				p.errorf(start, "field labels are not allowed on map fields")
				return false
			}
			return p.parseMapField(scope, fld, fieldPath, typ, loc)
		}
		first = &typ
	}
	typeName, typeStart, ok := p.parseTypeName(first)
	if !ok {
		return false
	}
	if t, ok := scalarTypes[typeName]; ok {
		fld.Type = t.Enum()
		p.spanLoc(subPath(fieldPath, internal.FieldTypeTag), typeStart, p.prev)
	} else {
		fld.TypeName = proto.String(typeName)
		p.spanLoc(subPath(fieldPath, internal.FieldTypeNameTag), typeStart, p.prev)
	}
	if !p.parseFieldTail(fld, fieldPath) || !p.consume(";") {
		return false
	}
	p.endDecl(loc)
	p.finishField(scope, fld, start)
	return true
}

// parseFieldTail parses "name = number [options]".
func (p *parser) parseFieldTail(fld *descriptorpb.FieldDescriptorProto, fieldPath []int32) bool {
	name, ok := p.consumeIdent(subPath(fieldPath, internal.FieldNameTag))
	if !ok {
		return false
	}
	fld.Name = proto.String(name)
	return p.parseFieldNumberAndOptions(fld, fieldPath)
}

func (p *parser) parseFieldNumberAndOptions(fld *descriptorpb.FieldDescriptorProto, fieldPath []int32) bool {
	if !p.consume("=") {
		return false
	}
	num, ok := p.consumeNumber(subPath(fieldPath, internal.FieldNumberTag), "field number", false, 1, math.MaxInt32)
	if !ok {
		return false
	}
	fld.Number = proto.Int32(int32(num))
	if !p.at("[") {
		return true
	}
	return p.parseCompactOptions(fieldOptions(fld), subPath(fieldPath, internal.FieldOptionsTag),
		func(val string) {
			fld.DefaultValue = proto.String(val)
		},
		subPath(fieldPath, internal.FieldDefaultTag))
}

// finishField settles the label of a complete field and stores it.
func (p *parser) finishField(scope fieldScope, fld *descriptorpb.FieldDescriptorProto, start token.Token) {
	switch {
	case scope.oneof != nil:
		fld.Label = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
		fld.OneofIndex = proto.Int32(*scope.oneof)
	case fld.Label == nil && p.syntax == syntaxProto3:
		fld.Label = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum()
	case fld.Label == nil:
		p.errorf(start, `field %s: label is required in proto2; expecting "optional", "required", or "repeated"`, fld.GetName())
	case p.syntax == syntaxProto3 && fld.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_REQUIRED:
		p.errorf(start, "field %s: required fields are not allowed in proto3", fld.GetName())
	case p.syntax == syntaxProto3 && fld.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL && scope.msg != nil:
		fld.Proto3Optional = proto.Bool(true)
	}
	*scope.fields = append(*scope.fields, fld)
}

// parseGroup parses a group field, which also declares a message. The
// current token is the "group" keyword.
func (p *parser) parseGroup(scope fieldScope, fld *descriptorpb.FieldDescriptorProto, fieldPath []int32, start token.Token, loc *location) bool {
	groupTok := p.cur()
	if p.syntax == syntaxProto3 {
		p.errorf(groupTok, "groups are not allowed in proto3")
	}
	// The group's message starts where its field does.
	grpPath := subPath(scope.nestedPath, int32(len(*scope.nested)))
	grpLoc := p.newLoc(grpPath, start)
	p.placeAfter(grpLoc, loc)

	p.tokenLoc(subPath(fieldPath, internal.FieldTypeTag), groupTok)
	p.next()
	nameTok := p.cur()
	name, ok := p.consumeIdent(subPath(fieldPath, internal.FieldNameTag))
	if !ok {
		return false
	}
	p.tokenLoc(subPath(grpPath, internal.MessageNameTag), nameTok)
	if c := name[0]; c < 'A' || c > 'Z' {
		p.errorf(nameTok, "group %s should have a name that starts with a capital letter", name)
	}
	fld.Name = proto.String(strings.ToLower(name))
	fld.Type = descriptorpb.FieldDescriptorProto_TYPE_GROUP.Enum()
	fld.TypeName = proto.String(name)
	if !p.parseFieldNumberAndOptions(fld, fieldPath) || !p.consume("{") {
		return false
	}
	p.trailing(loc)

	grp := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	*scope.nested = append(*scope.nested, grp)
	if !p.parseMessageBody(grp, grpPath) {
		return false
	}
	p.next()
	p.endLoc(grpLoc)
	p.endLoc(loc)
	p.finishField(scope, fld, start)
	return true
}

// parseMapField parses a map field and synthesizes its entry message. The
// current token is the "<" after the "map" keyword.
func (p *parser) parseMapField(scope fieldScope, fld *descriptorpb.FieldDescriptorProto, fieldPath []int32, mapTok token.Token, loc *location) bool {
	switch {
	case scope.oneof != nil:
		p.errorf(mapTok, "map fields are not allowed in oneofs")
		return false
	case scope.extendee != "":
		p.errorf(mapTok, "map fields are not allowed as extensions")
		return false
	}
	// Map fields have no label, so the entry starts where the field does.
	entryLoc := p.newLoc(subPath(scope.nestedPath, int32(len(*scope.nested))), mapTok)
	p.placeAfter(entryLoc, loc)
	p.next()
	keyType, _, ok := p.parseTypeName(nil)
	if !ok || !p.consume(",") {
		return false
	}
	valType, _, ok := p.parseTypeName(nil)
	if !ok || !p.consume(">") {
		return false
	}
	p.spanLoc(subPath(fieldPath, internal.FieldTypeNameTag), mapTok, p.prev)
	if !p.parseFieldTail(fld, fieldPath) || !p.consume(";") {
		return false
	}
	p.endDecl(loc)
	p.endLoc(entryLoc)

	entry := mapEntry(fld.GetName(), keyType, valType)
	*scope.nested = append(*scope.nested, entry)

	fld.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	fld.TypeName = proto.String(entry.GetName())
	*scope.fields = append(*scope.fields, fld)
	return true
}

func mapEntry(fieldName, keyType, valType string) *descriptorpb.DescriptorProto {
	entryField := func(name string, number int32, typ string) *descriptorpb.FieldDescriptorProto {
		fld := &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(name),
			Number: proto.Int32(number),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		}
		if t, ok := scalarTypes[typ]; ok {
			fld.Type = t.Enum()
		} else {
			fld.TypeName = proto.String(typ)
		}
		return fld
	}
	return &descriptorpb.DescriptorProto{
		Name: proto.String(cases.MapEntryName(fieldName)),
		Field: []*descriptorpb.FieldDescriptorProto{
			entryField("key", 1, keyType),
			entryField("value", 2, valType),
		},
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
	}
}

func (p *parser) parseOneof(msg *descriptorpb.DescriptorProto, msgPath []int32) bool {
	idx := int32(len(msg.OneofDecl))
	oneofPath := subPath(msgPath, internal.MessageOneofsTag, idx)
	loc := p.startDecl(oneofPath)
	p.next()
	name, ok := p.consumeIdent(subPath(oneofPath, internal.OneofNameTag))
	if !ok {
		return false
	}
	oo := &descriptorpb.OneofDescriptorProto{Name: proto.String(name)}
	msg.OneofDecl = append(msg.OneofDecl, oo)
	if !p.consume("{") {
		return false
	}
	p.trailing(loc)

	scope := messageFields(msg, msgPath)
	scope.oneof = &idx
	fieldCount := len(msg.Field)
	ok = p.statements("}", "oneof "+name, func() bool {
		switch {
		case p.at(";"):
			p.next()
			return true
		case p.at("option"):
			return p.parseOptionStatement(oneofOptions(oo), subPath(oneofPath, internal.OneofOptionsTag))
		default:
			return p.parseField(scope)
		}
	})
	if !ok {
		return false
	}
	if len(msg.Field) == fieldCount {
		p.errorf(p.cur(), "oneof %s must contain at least one field", name)
	}
	p.next()
	p.endLoc(loc)
	return true
}

func (p *parser) parseExtend(exts *[]*descriptorpb.FieldDescriptorProto, extPath []int32, nested *[]*descriptorpb.DescriptorProto, nestedPath []int32) bool {
	loc := p.startDecl(extPath)
	p.next()
	extendee, start, ok := p.parseTypeName(nil)
	if !ok {
		return false
	}
	end := p.prev
	if !p.consume("{") {
		return false
	}
	p.trailing(loc)

	scope := fieldScope{
		fields:        exts,
		fieldsPath:    extPath,
		nested:        nested,
		nestedPath:    nestedPath,
		extendee:      extendee,
		extendeeStart: start,
		extendeeEnd:   end,
	}
	fieldCount := len(*exts)
	ok = p.statements("}", "extend "+extendee, func() bool {
		if p.tryConsume(";") {
			return true
		}
		return p.parseField(scope)
	})
	if !ok {
		return false
	}
	if len(*exts) == fieldCount {
		p.errorf(p.cur(), "extend sections must define at least one extension")
	}
	p.next()
	p.endLoc(loc)
	return true
}

// rangeBounds describes the numbers allowed in a range statement.
type rangeBounds struct {
	min, max int64
	signed   bool
	// if true, the end stored in the descriptor is one past the last number
	exclusive bool
}

var (
	messageRanges = rangeBounds{min: 1, max: internal.MaxNormalTag, exclusive: true}
	enumRanges    = rangeBounds{min: math.MinInt32, max: math.MaxInt32, signed: true}
)

func (p *parser) parseExtensionRanges(msg *descriptorpb.DescriptorProto, msgPath []int32) bool {
	stmtPath := subPath(msgPath, internal.MessageExtensionRangesTag)
	loc := p.startDecl(stmtPath)
	p.next()
	first := len(msg.ExtensionRange)
	var ranges []*descriptorpb.DescriptorProto_ExtensionRange
	for {
		rangePath := subPath(stmtPath, int32(first+len(ranges)))
		start, end, ok := p.parseRange(rangePath, internal.ExtensionRangeStartTag, internal.ExtensionRangeEndTag, messageRanges)
		if !ok {
			return false
		}
		ranges = append(ranges, &descriptorpb.DescriptorProto_ExtensionRange{
			Start: proto.Int32(start),
			End:   proto.Int32(end),
		})
		if !p.tryConsume(",") {
			break
		}
	}
	if p.at("[") {
		var opts *descriptorpb.ExtensionRangeOptions
		optsPath := subPath(stmtPath, int32(first), internal.ExtensionRangeOptionsTag)
		if !p.parseCompactOptions(extensionRangeOptions(&opts), optsPath, nil, nil) {
			return false
		}
		for i, r := range ranges {
			if i == 0 {
				r.Options = opts
			} else {
				r.Options = proto.Clone(opts).(*descriptorpb.ExtensionRangeOptions)
			}
		}
	}
	if !p.consume(";") {
		return false
	}
	p.endDecl(loc)
	msg.ExtensionRange = append(msg.ExtensionRange, ranges...)
	return true
}

// parseRange parses "N", "N to M", or "N to max" and records its location at
// rangePath.
func (p *parser) parseRange(rangePath []int32, startTag, endTag int32, bounds rangeBounds) (int32, int32, bool) {
	loc := p.newLoc(rangePath, p.cur())
	startTok := p.cur()
	start, ok := p.consumeNumber(subPath(rangePath, startTag), "range start", bounds.signed, bounds.min, bounds.max)
	if !ok {
		return 0, 0, false
	}
	end := start
	switch {
	case !p.tryConsume("to"):
		p.spanLoc(subPath(rangePath, endTag), startTok, p.prev)
	case p.at("max"):
		end = bounds.max
		p.tokenLoc(subPath(rangePath, endTag), p.cur())
		p.next()
	default:
		end, ok = p.consumeNumber(subPath(rangePath, endTag), "range end", bounds.signed, bounds.min, bounds.max)
		if !ok {
			return 0, 0, false
		}
	}
	if end < start {
		p.errorf(startTok, "range start %d is greater than range end %d", start, end)
		return 0, 0, false
	}
	p.endLoc(loc)
	if bounds.exclusive {
		end++
	}
	return int32(start), int32(end), true
}

// parseReserved parses a reserved statement of either a message or an enum.
// A statement lists either names or number ranges, never both.
func (p *parser) parseReserved(path []int32, namesTag, rangesTag int32, names *[]string, rangeCount int, bounds rangeBounds, addRange func(start, end int32)) bool {
	comments := p.declComments()
	kw := p.cur()
	p.next()

	if p.cur().Kind == token.String {
		namesPath := subPath(path, namesTag)
		loc := p.newLoc(namesPath, kw)
		comments.apply(loc)
		var parsed []string
		for {
			tok := p.cur()
			if tok.Kind != token.String {
				p.unexpected("string literal")
				return false
			}
			p.tokenLoc(subPath(namesPath, int32(len(*names)+len(parsed))), tok)
			p.next()
			parsed = append(parsed, tok.Value)
			if !p.tryConsume(",") {
				break
			}
		}
		if !p.consume(";") {
			return false
		}
		p.endDecl(loc)
		*names = append(*names, parsed...)
		return true
	}

	rangesPath := subPath(path, rangesTag)
	loc := p.newLoc(rangesPath, kw)
	comments.apply(loc)
	var parsed [][2]int32
	for {
		rangePath := subPath(rangesPath, int32(rangeCount+len(parsed)))
		start, end, ok := p.parseRange(rangePath, internal.ReservedRangeStartTag, internal.ReservedRangeEndTag, bounds)
		if !ok {
			return false
		}
		parsed = append(parsed, [2]int32{start, end})
		if !p.tryConsume(",") {
			break
		}
	}
	if !p.consume(";") {
		return false
	}
	p.endDecl(loc)
	for _, r := range parsed {
		addRange(r[0], r[1])
	}
	return true
}
